package cmd

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"
)

var summarizeTarget string

var summarizeCmd = &cobra.Command{
	Use:   "summarize",
	Short: "Summarize the contents of a dataset table or query",
	Long: `The SUMMARIZE command computes a number of aggregates over all columns
of a dataset table or a query (min, max, approx_unique, avg, std, q25, q50,
q75, count), and returns these along with the column name, column type, and
the percentage of NULL values in the column.
Note that the quantiles and percentiles are approximate values.

SUMMARIZE is a DuckDB statement; run with --engine duckdb.

To summarize the contents of a dataset, pass a table name:
  adlens --engine duckdb summarize --table product_ad_sales_metrics

To summarize a query, pass a query:
  adlens --engine duckdb summarize --query "SELECT * FROM product_ad_sales_metrics WHERE item_id = 11"

Examples:
  adlens --engine duckdb summarize --table product_total_sales_metrics
  adlens --engine duckdb summarize --table product_eligibility`,
	Run: func(cmd *cobra.Command, args []string) {
		if summarizeTarget == "" {
			HandleError(fmt.Errorf("table or query is required"), "Missing parameter")
		}

		s, cleanup, err := InitSession(dataDir, engineName, modelName)
		if err != nil {
			HandleError(err, "Failed to initialize session")
		}
		defer cleanup()

		ctx := context.Background()
		if err := IngestFromDir(ctx, s, dataDir, nil); err != nil {
			HandleError(err, "Failed to load datasets")
		}

		// Execute the query
		_, rows, err := s.Query(ctx, fmt.Sprintf("SUMMARIZE %s", summarizeTarget))
		if err != nil {
			HandleError(err, "Failed to execute summarize query")
		}

		// Convert to JSON output
		output, err := json.MarshalIndent(rows, "", "  ")
		if err != nil {
			HandleError(err, "Failed to encode JSON")
		}

		fmt.Println(string(output))
	},
}

func init() {
	summarizeCmd.Flags().StringVarP(&summarizeTarget, "table", "t", "", "Table name to summarize")
	summarizeCmd.Flags().StringVarP(&summarizeTarget, "query", "q", "", "Query to summarize (alias for --table)")
	rootCmd.AddCommand(summarizeCmd)
}
