package cmd

import (
	"context"
	"fmt"
	"strings"

	"charm.land/fantasy"
	"github.com/spf13/cobra"

	"github.com/adlens-io/adlens/internal/agent"
)

var chatCmd = &cobra.Command{
	Use:   "chat [question]",
	Short: "Ask a question through the Claude tool-calling agent",
	Long: `Ask a natural-language question and get an answer from a Claude agent
that can inspect the dataset schema, run SQL, and drive the Gemini
question pipeline as tools. Useful for questions that need several
queries or a comparison the single-shot pipeline cannot do.

Requires ANTHROPIC_API_KEY environment variable to be set. GEMINI_API_KEY
is only needed when the agent reaches for the question-answering tool.

Example:
  adlens chat "Compare ad spend and total sales by day and flag anomalies"`,
	Args: cobra.MinimumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		question := strings.Join(args, " ")

		s, cleanup, err := InitSession(dataDir, engineName, modelName)
		if err != nil {
			HandleError(err, "Failed to initialize session")
		}
		defer cleanup()

		ctx := context.Background()
		if err := IngestFromDir(ctx, s, dataDir, nil); err != nil {
			HandleError(err, "Failed to load datasets")
		}

		// Create the agent using the factory with options
		chatAgent, err := agent.NewChatAgent(
			agent.WithAPIKeyFromEnv(),
			agent.WithSession(&agentSession{s: s}),
		)
		if err != nil {
			HandleError(err, "Failed to create agent")
		}

		// Generate the response
		result, err := chatAgent.Generate(ctx, fantasy.AgentCall{Prompt: question})
		if err != nil {
			HandleError(err, "Failed to generate response")
		}

		// Print the response
		fmt.Println(result.Response.Content.Text())
	},
}

// agentSession adapts cmd.Session to agent.Session
type agentSession struct {
	s Session
}

func (a *agentSession) Ask(ctx context.Context, question string) (string, string, error) {
	outcome, err := a.s.Ask(ctx, question)
	if err != nil {
		return "", "", err
	}
	return outcome.Answer, outcome.SQL, nil
}

func (a *agentSession) Query(ctx context.Context, sqlText string) ([]map[string]interface{}, error) {
	_, rows, err := a.s.Query(ctx, sqlText)
	return rows, err
}

func (a *agentSession) SchemaText() string {
	return a.s.SchemaText()
}

func (a *agentSession) Status() string {
	return a.s.Status()
}

func init() {
	rootCmd.AddCommand(chatCmd)
}
