package main

import (
	"context"
	"errors"
	"strings"
	"testing"
)

// TestIngestDataset tests loading all three fixture datasets
func TestIngestDataset(t *testing.T) {
	db, cleanup := SetupTestDB(t)
	defer cleanup()

	ctx := context.Background()
	expected := map[string]int{
		DatasetAdSales:     5,
		DatasetTotalSales:  5,
		DatasetEligibility: 5,
	}

	for dataset, text := range fixtureCSVs() {
		if err := db.IngestDataset(ctx, dataset, text); err != nil {
			t.Fatalf("IngestDataset failed for %s: %v", dataset, err)
		}

		count, err := db.RowCount(ctx, dataset)
		if err != nil {
			t.Fatalf("RowCount failed for %s: %v", dataset, err)
		}
		if count != expected[dataset] {
			t.Errorf("Expected %d rows in %s, got %d", expected[dataset], dataset, count)
		}
	}
}

// TestIngestUnknownDataset tests rejecting a dataset name outside the registry
func TestIngestUnknownDataset(t *testing.T) {
	db, cleanup := SetupTestDB(t)
	defer cleanup()

	err := db.IngestDataset(context.Background(), "surprise_metrics", fixtureAdSalesCSV)
	if err == nil {
		t.Fatal("Expected error for unknown dataset")
	}
}

// TestIngestHeaderOnly tests that a header with no data rows succeeds and
// loads nothing
func TestIngestHeaderOnly(t *testing.T) {
	db, cleanup := SetupTestDB(t)
	defer cleanup()

	ctx := context.Background()
	if err := db.IngestDataset(ctx, DatasetAdSales, fixtureHeaderOnlyCSV); err != nil {
		t.Fatalf("IngestDataset failed: %v", err)
	}

	count, err := db.RowCount(ctx, DatasetAdSales)
	if err != nil {
		t.Fatalf("RowCount failed: %v", err)
	}
	if count != 0 {
		t.Errorf("Expected 0 rows, got %d", count)
	}
}

// TestIngestParseFailures tests that malformed CSV surfaces as a parse
// failure naming the dataset
func TestIngestParseFailures(t *testing.T) {
	testCases := []struct {
		name    string
		csvText string
		errPart string
	}{
		{name: "Empty input", csvText: "", errPart: "missing header row"},
		{name: "Missing schema column", csvText: fixtureMissingColumnCSV, errPart: "missing column"},
		{name: "Duplicate column", csvText: fixtureDuplicateColumnCSV, errPart: "duplicate column"},
		{name: "Ragged row", csvText: fixtureRaggedCSV, errPart: "wrong number of fields"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			db, cleanup := SetupTestDB(t)
			defer cleanup()

			err := db.IngestDataset(context.Background(), DatasetAdSales, tc.csvText)
			if err == nil {
				t.Fatal("Expected ingest to fail")
			}

			var ingestErr *IngestError
			if !errors.As(err, &ingestErr) {
				t.Fatalf("Expected IngestError, got %T", err)
			}
			if ingestErr.Kind != ParseFailure {
				t.Errorf("Expected ParseFailure, got %s", ingestErr.Kind)
			}
			if ingestErr.Dataset != DatasetAdSales {
				t.Errorf("Expected dataset %s, got %s", DatasetAdSales, ingestErr.Dataset)
			}
			if !strings.Contains(err.Error(), tc.errPart) {
				t.Errorf("Expected error mentioning %q, got %q", tc.errPart, err.Error())
			}

			count, countErr := db.RowCount(context.Background(), DatasetAdSales)
			if countErr != nil {
				t.Fatalf("RowCount failed: %v", countErr)
			}
			if count != 0 {
				t.Errorf("Expected no rows after failed ingest, got %d", count)
			}
		})
	}
}

// TestIngestBOMHeader tests that a UTF-8 byte order mark on the header is
// stripped
func TestIngestBOMHeader(t *testing.T) {
	db, cleanup := SetupTestDB(t)
	defer cleanup()

	ctx := context.Background()
	if err := db.IngestDataset(ctx, DatasetAdSales, fixtureBOMHeaderCSV); err != nil {
		t.Fatalf("IngestDataset failed: %v", err)
	}

	count, err := db.RowCount(ctx, DatasetAdSales)
	if err != nil {
		t.Fatalf("RowCount failed: %v", err)
	}
	if count != 5 {
		t.Errorf("Expected 5 rows, got %d", count)
	}
}

// TestIngestExtraColumn tests that columns outside the schema are ignored
func TestIngestExtraColumn(t *testing.T) {
	db, cleanup := SetupTestDB(t)
	defer cleanup()

	csvText := `date,item_id,ad_sales,impressions,ad_spend,clicks,units_sold,campaign
2024-06-01,11,520.50,14320,200.00,142,21,summer-launch`

	ctx := context.Background()
	if err := db.IngestDataset(ctx, DatasetAdSales, csvText); err != nil {
		t.Fatalf("IngestDataset failed: %v", err)
	}

	result, err := db.Execute(ctx, "SELECT ad_spend FROM product_ad_sales_metrics WHERE item_id = 11")
	if err != nil {
		t.Fatalf("Execute failed: %v", err)
	}
	if result.Len() != 1 {
		t.Fatalf("Expected 1 row, got %d", result.Len())
	}
	if result.Rows[0]["ad_spend"] != 200.0 {
		t.Errorf("Expected ad_spend 200, got %v", result.Rows[0]["ad_spend"])
	}
}

// TestCoerceValue tests the cell coercion ladder
func TestCoerceValue(t *testing.T) {
	testCases := []struct {
		name     string
		declared ColumnType
		raw      string
		expected interface{}
	}{
		{name: "Boolean TRUE", declared: TypeBoolean, raw: "TRUE", expected: float64(1)},
		{name: "Boolean FALSE", declared: TypeBoolean, raw: "FALSE", expected: float64(0)},
		{name: "Boolean lowercase", declared: TypeBoolean, raw: "true", expected: float64(1)},
		{name: "Boolean padded", declared: TypeBoolean, raw: "  FALSE  ", expected: float64(0)},
		{name: "TRUE in text column stays text", declared: TypeText, raw: "TRUE", expected: "TRUE"},
		{name: "TRUE in numeric column stays text", declared: TypeReal, raw: "TRUE", expected: "TRUE"},
		{name: "Empty cell", declared: TypeReal, raw: "", expected: nil},
		{name: "Whitespace cell", declared: TypeText, raw: "   ", expected: nil},
		{name: "Plain float", declared: TypeReal, raw: "42.5", expected: 42.5},
		{name: "Padded integer", declared: TypeInteger, raw: " 42 ", expected: float64(42)},
		{name: "Scientific notation", declared: TypeReal, raw: "1e3", expected: float64(1000)},
		{name: "Negative", declared: TypeReal, raw: "-0.5", expected: -0.5},
		{name: "Numeric text in text column", declared: TypeText, raw: "29", expected: float64(29)},
		{name: "NaN stays text", declared: TypeReal, raw: "NaN", expected: "NaN"},
		{name: "Infinity stays text", declared: TypeReal, raw: "Inf", expected: "Inf"},
		{name: "Negative infinity stays text", declared: TypeReal, raw: "-Inf", expected: "-Inf"},
		{name: "Thousands separator stays text", declared: TypeReal, raw: "1,000", expected: "1,000"},
		{name: "Date stays text", declared: TypeText, raw: "2024-06-01", expected: "2024-06-01"},
		{name: "Word stays text", declared: TypeText, raw: "eligible", expected: "eligible"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			got := coerceValue(tc.declared, tc.raw)
			if got != tc.expected {
				t.Errorf("Expected %v (%T), got %v (%T)", tc.expected, tc.expected, got, got)
			}
		})
	}
}

// TestNullRoundTrip tests that blank cells come back as SQL NULL
func TestNullRoundTrip(t *testing.T) {
	db, cleanup := SetupLoadedDB(t)
	defer cleanup()

	result, err := db.Execute(context.Background(),
		"SELECT COUNT(*) AS blank FROM product_eligibility WHERE message IS NULL")
	if err != nil {
		t.Fatalf("Execute failed: %v", err)
	}
	if result.Len() != 1 {
		t.Fatalf("Expected 1 row, got %d", result.Len())
	}

	blank, ok := result.Rows[0]["blank"].(int64)
	if !ok {
		t.Fatalf("Expected int64 count, got %T", result.Rows[0]["blank"])
	}
	if blank != 3 {
		t.Errorf("Expected 3 NULL messages, got %d", blank)
	}
}
