package cmd

import (
	"github.com/spf13/cobra"
)

var (
	dataDir    string
	engineName string
	modelName  string

	rootCmd = &cobra.Command{
		Use:   "adlens",
		Short: "AdLens - Ask questions about your advertising and sales data",
		Long: `AdLens loads e-commerce advertising and sales CSV datasets into an
embedded database and answers natural-language questions about them
through a Gemini-backed SQL pipeline.

When run without commands, it launches an interactive TUI.
Use subcommands for CLI mode with JSON output.`,
		Run: func(cmd *cobra.Command, args []string) {
			// No subcommand specified - launch TUI
			LaunchTUI(dataDir, engineName, modelName)
		},
	}
)

func init() {
	rootCmd.PersistentFlags().StringVarP(&dataDir, "data-dir", "d", "data/", "Directory containing the dataset CSV files")
	rootCmd.PersistentFlags().StringVar(&engineName, "engine", "sqlite", "Database engine: sqlite or duckdb")
	rootCmd.PersistentFlags().StringVar(&modelName, "model", "", "Gemini model for the question pipeline (default gemini-2.0-flash)")
}

// Execute runs the root command
func Execute() error {
	return rootCmd.Execute()
}
