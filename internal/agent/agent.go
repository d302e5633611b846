package agent

import (
	"context"
	"fmt"
	"os"

	"charm.land/fantasy"
	"charm.land/fantasy/providers/anthropic"
)

const (
	defaultModel        = "claude-haiku-4-5"
	defaultSystemPrompt = "You are a data analyst assistant for e-commerce advertising and sales metrics. You have access to tools that can report dataset status, show the database schema, run SQL queries, and answer natural-language questions over the loaded datasets. Use these tools when appropriate to give accurate, data-backed answers, and prefer running SQL yourself when a question needs more than one query."
)

// AgentConfig holds the configuration for creating a chat agent
type AgentConfig struct {
	apiKey       string
	model        string
	systemPrompt string
	session      Session
}

// AgentOption is a functional option for configuring the agent
type AgentOption func(*AgentConfig) error

// WithAPIKey sets the Anthropic API key
func WithAPIKey(apiKey string) AgentOption {
	return func(c *AgentConfig) error {
		if apiKey == "" {
			return fmt.Errorf("API key cannot be empty")
		}
		c.apiKey = apiKey
		return nil
	}
}

// WithAPIKeyFromEnv sets the API key from the ANTHROPIC_API_KEY environment variable
func WithAPIKeyFromEnv() AgentOption {
	return func(c *AgentConfig) error {
		apiKey := os.Getenv("ANTHROPIC_API_KEY")
		if apiKey == "" {
			return fmt.Errorf("ANTHROPIC_API_KEY environment variable not set")
		}
		c.apiKey = apiKey
		return nil
	}
}

// WithModel sets the Claude model to use (default: claude-haiku-4-5)
func WithModel(model string) AgentOption {
	return func(c *AgentConfig) error {
		if model == "" {
			return fmt.Errorf("model cannot be empty")
		}
		c.model = model
		return nil
	}
}

// WithSystemPrompt sets a custom system prompt
func WithSystemPrompt(prompt string) AgentOption {
	return func(c *AgentConfig) error {
		c.systemPrompt = prompt
		return nil
	}
}

// WithSession sets the analytics session the agent tools operate on
func WithSession(session Session) AgentOption {
	return func(c *AgentConfig) error {
		if session == nil {
			return fmt.Errorf("session cannot be nil")
		}
		c.session = session
		return nil
	}
}

// NewChatAgent creates a Fantasy agent configured for answering questions
// about the loaded ad and sales datasets. It uses the Options pattern for
// flexible configuration.
func NewChatAgent(opts ...AgentOption) (fantasy.Agent, error) {
	// Initialize config with defaults
	config := &AgentConfig{
		model:        defaultModel,
		systemPrompt: defaultSystemPrompt,
	}

	// Apply options
	for _, opt := range opts {
		if err := opt(config); err != nil {
			return nil, fmt.Errorf("failed to apply option: %w", err)
		}
	}

	// Validate required fields
	if config.apiKey == "" {
		return nil, fmt.Errorf("API key is required (use WithAPIKey or WithAPIKeyFromEnv)")
	}
	if config.session == nil {
		return nil, fmt.Errorf("session is required (use WithSession)")
	}

	// Create Fantasy provider for Anthropic
	provider, err := anthropic.New(anthropic.WithAPIKey(config.apiKey))
	if err != nil {
		return nil, fmt.Errorf("failed to create Anthropic provider: %w", err)
	}

	ctx := context.Background()

	// Create language model
	model, err := provider.LanguageModel(ctx, config.model)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize Claude model: %w", err)
	}

	// Create and return the agent
	chatAgent := fantasy.NewAgent(
		model,
		fantasy.WithSystemPrompt(config.systemPrompt),
		fantasy.WithTools(BuildTools(config.session)...),
	)

	return chatAgent, nil
}

// GenerateResponse is a convenience function that creates an agent and
// generates a response in one call
func GenerateResponse(ctx context.Context, question string, opts ...AgentOption) (string, error) {
	chatAgent, err := NewChatAgent(opts...)
	if err != nil {
		return "", fmt.Errorf("failed to create agent: %w", err)
	}

	result, err := chatAgent.Generate(ctx, fantasy.AgentCall{Prompt: question})
	if err != nil {
		return "", fmt.Errorf("failed to generate response: %w", err)
	}

	return result.Response.Content.Text(), nil
}
