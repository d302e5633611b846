package cmd

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"
)

var queryString string

var queryCmd = &cobra.Command{
	Use:   "query",
	Short: "Run SQL directly against the loaded datasets",
	Long: `Load the dataset CSV files and execute the requested QUERY against the
session database. The query can be any SQL the engine accepts.

Examples:
  adlens query --sql "SELECT * FROM product_ad_sales_metrics LIMIT 5"
  adlens query --sql "SELECT COUNT(*) AS total FROM product_eligibility"
  adlens query --sql "SELECT SUM(ad_spend) AS spend FROM product_ad_sales_metrics"`,
	Run: func(cmd *cobra.Command, args []string) {
		if queryString == "" {
			HandleError(fmt.Errorf("query is required"), "Missing query parameter")
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
		_, rows, err := s.Query(ctx, queryString)
		if err != nil {
			HandleError(err, "Failed to execute query")
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
	queryCmd.Flags().StringVarP(&queryString, "sql", "q", "", "SQL query to execute (required)")
	_ = queryCmd.MarkFlagRequired("sql")
	rootCmd.AddCommand(queryCmd)
}
