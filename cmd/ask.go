package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

var (
	showSQL bool
	askJSON bool

	askCmd = &cobra.Command{
		Use:   "ask [question]",
		Short: "Ask a natural-language question about the loaded datasets",
		Long: `Load the dataset CSV files, send the question through the Gemini SQL
pipeline, and print the answer. Charts suggested by the model are drawn
in the terminal.

Requires GEMINI_API_KEY environment variable to be set.

Examples:
  adlens ask "What is my total ad spend?"
  adlens ask --show-sql "Which item had the highest CPC?"
  adlens ask --json "Show ad spend by day"`,
		Args: cobra.MinimumNArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			runAsk(strings.Join(args, " "))
		},
	}
)

func init() {
	askCmd.Flags().BoolVar(&showSQL, "show-sql", false, "Print the synthesized SQL before the answer")
	askCmd.Flags().BoolVar(&askJSON, "json", false, "Print the full outcome as JSON")
	rootCmd.AddCommand(askCmd)
}

func runAsk(question string) {
	s, cleanup, err := InitSession(dataDir, engineName, modelName)
	if err != nil {
		HandleError(err, "Failed to initialize session")
	}
	defer cleanup()

	ctx := context.Background()
	if err := IngestFromDir(ctx, s, dataDir, nil); err != nil {
		HandleError(err, "Failed to load datasets")
	}

	outcome, err := s.Ask(ctx, question)
	if err != nil {
		HandleError(err, "Failed to answer question")
	}

	if askJSON {
		output, err := json.MarshalIndent(outcome, "", "  ")
		if err != nil {
			HandleError(err, "Failed to encode JSON")
		}
		fmt.Println(string(output))
		return
	}

	if showSQL && outcome.SQL != "" {
		fmt.Printf("SQL: %s\n\n", outcome.SQL)
	}

	fmt.Println(outcome.Answer)

	if outcome.Warning != "" {
		fmt.Printf("\n⚠ %s\n", outcome.Warning)
	}

	if outcome.Chart != nil && RenderChart != nil {
		if rendered := RenderChart(outcome.Chart, 72); rendered != "" {
			fmt.Printf("\n%s", rendered)
		}
	}
}
