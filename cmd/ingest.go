package cmd

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
)

var (
	adSalesPath     string
	totalSalesPath  string
	eligibilityPath string

	ingestCmd = &cobra.Command{
		Use:   "ingest",
		Short: "Validate and load the dataset CSV files",
		Long: `Load the three dataset CSV files into the session database and report
row counts. The database lives in memory, so this command is a validation
pass: it proves the files parse and load cleanly.

Files are read from the data directory by default; use the per-dataset
flags to point at other paths.

Examples:
  adlens ingest
  adlens ingest --ad-sales /tmp/ad_sales.csv`,
		Run: func(cmd *cobra.Command, args []string) {
			runIngest()
		},
	}
)

func init() {
	ingestCmd.Flags().StringVar(&adSalesPath, "ad-sales", "", "Path to the ad sales CSV (default <data-dir>/ad_sales.csv)")
	ingestCmd.Flags().StringVar(&totalSalesPath, "total-sales", "", "Path to the total sales CSV (default <data-dir>/total_sales.csv)")
	ingestCmd.Flags().StringVar(&eligibilityPath, "eligibility", "", "Path to the eligibility CSV (default <data-dir>/eligibility.csv)")
	rootCmd.AddCommand(ingestCmd)
}

func runIngest() {
	s, cleanup, err := InitSession(dataDir, engineName, modelName)
	if err != nil {
		HandleError(err, "Failed to initialize session")
	}
	defer cleanup()

	ctx := context.Background()
	overrides := map[string]string{
		"product_ad_sales_metrics":    adSalesPath,
		"product_total_sales_metrics": totalSalesPath,
		"product_eligibility":         eligibilityPath,
	}

	for _, df := range DefaultDatasetFiles {
		path := filepath.Join(dataDir, df.File)
		if overrides[df.Dataset] != "" {
			path = overrides[df.Dataset]
		}

		data, err := os.ReadFile(path)
		if err != nil {
			HandleError(err, fmt.Sprintf("Failed to read %s", path))
		}

		if err := s.Ingest(ctx, df.Dataset, string(data)); err != nil {
			HandleError(err, fmt.Sprintf("Failed to load %s", df.Dataset))
		}

		fmt.Printf("✓ Loaded %s from %s\n", df.Dataset, path)
	}

	counts, err := s.Counts(ctx)
	if err != nil {
		HandleError(err, "Failed to count rows")
	}

	fmt.Println()
	for _, df := range DefaultDatasetFiles {
		fmt.Printf("   • %s: %d rows\n", df.Dataset, counts[df.Dataset])
	}
	fmt.Printf("\n%s\n", s.Status())
}
