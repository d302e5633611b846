package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

const (
	defaultGeminiBaseURL = "https://generativelanguage.googleapis.com"
	defaultGeminiModel   = "gemini-2.0-flash"
)

// GeminiClient calls the Gemini generateContent endpoint. The API key
// travels only as the key query parameter of each request and is never
// stored anywhere else.
type GeminiClient struct {
	apiKey     string
	model      string
	baseURL    string
	httpClient *http.Client
}

// NewGeminiClient creates a client for the given credential and model. An
// empty model selects the default.
func NewGeminiClient(apiKey, model string) *GeminiClient {
	if model == "" {
		model = defaultGeminiModel
	}
	return &GeminiClient{
		apiKey:     apiKey,
		model:      model,
		baseURL:    defaultGeminiBaseURL,
		httpClient: &http.Client{Timeout: 30 * time.Second},
	}
}

// Model reports the configured model name.
func (c *GeminiClient) Model() string {
	return c.model
}

// Gemini generateContent request structures
type geminiRequest struct {
	Contents         []geminiContent   `json:"contents"`
	GenerationConfig *generationConfig `json:"generationConfig,omitempty"`
}

type geminiContent struct {
	Role  string       `json:"role"`
	Parts []geminiPart `json:"parts"`
}

type geminiPart struct {
	Text string `json:"text"`
}

type generationConfig struct {
	ResponseMIMEType string          `json:"responseMimeType,omitempty"`
	ResponseSchema   *responseSchema `json:"responseSchema,omitempty"`
}

// responseSchema declares the object shape the endpoint must emit when a
// structured response is required. PropertyOrdering fixes the order of the
// emitted keys.
type responseSchema struct {
	Type             string                     `json:"type"`
	Nullable         bool                       `json:"nullable,omitempty"`
	Properties       map[string]*responseSchema `json:"properties,omitempty"`
	Required         []string                   `json:"required,omitempty"`
	PropertyOrdering []string                   `json:"propertyOrdering,omitempty"`
	Items            *responseSchema            `json:"items,omitempty"`
}

// Gemini generateContent response structures
type geminiResponse struct {
	Candidates []geminiCandidate `json:"candidates"`
	Error      *geminiError      `json:"error,omitempty"`
}

type geminiCandidate struct {
	Content      geminiContent `json:"content"`
	FinishReason string        `json:"finishReason"`
}

type geminiError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
	Status  string `json:"status"`
}

// Generate sends one user prompt and returns the first candidate's first
// text part. When schema is non-nil the request constrains the response to
// that JSON object shape. A response with no candidates or no parts is a
// hard failure of the round trip.
func (c *GeminiClient) Generate(ctx context.Context, prompt string, schema *responseSchema) (string, error) {
	reqBody := geminiRequest{
		Contents: []geminiContent{
			{Role: "user", Parts: []geminiPart{{Text: prompt}}},
		},
	}
	if schema != nil {
		reqBody.GenerationConfig = &generationConfig{
			ResponseMIMEType: "application/json",
			ResponseSchema:   schema,
		}
	}

	payload, err := json.Marshal(reqBody)
	if err != nil {
		return "", fmt.Errorf("failed to marshal request: %w", err)
	}

	endpoint := fmt.Sprintf("%s/v1beta/models/%s:generateContent?key=%s",
		strings.TrimSuffix(c.baseURL, "/"), c.model, url.QueryEscape(c.apiKey))

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(payload))
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", &TransportError{Err: err}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", &TransportError{Status: resp.StatusCode, Err: fmt.Errorf("failed to read response: %w", err)}
	}

	if resp.StatusCode != http.StatusOK {
		var envelope geminiResponse
		if json.Unmarshal(body, &envelope) == nil && envelope.Error != nil {
			return "", &TransportError{Status: resp.StatusCode,
				Err: fmt.Errorf("%s (%s)", envelope.Error.Message, envelope.Error.Status)}
		}
		return "", &TransportError{Status: resp.StatusCode,
			Err: fmt.Errorf("unexpected response: %s", truncateString(string(body), 200))}
	}

	var envelope geminiResponse
	if err := json.Unmarshal(body, &envelope); err != nil {
		return "", &TransportError{Status: resp.StatusCode,
			Err: fmt.Errorf("failed to parse response (body: %s): %w", truncateString(string(body), 200), err)}
	}
	if envelope.Error != nil {
		return "", &TransportError{Status: resp.StatusCode,
			Err: fmt.Errorf("%s (%s)", envelope.Error.Message, envelope.Error.Status)}
	}

	if len(envelope.Candidates) == 0 || len(envelope.Candidates[0].Content.Parts) == 0 {
		return "", &SynthesisError{Kind: EmptyResponse, Err: fmt.Errorf("no candidates in response")}
	}

	if logger != nil {
		logger.Info("LLM round trip completed", "model", c.model,
			"finish_reason", envelope.Candidates[0].FinishReason)
	}
	return envelope.Candidates[0].Content.Parts[0].Text, nil
}

// truncateString shortens a string for logs and error messages.
func truncateString(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen] + "..."
}
