package main

import (
	"context"
	"errors"
	"strings"
	"testing"
)

// TestNewDB tests database initialization
func TestNewDB(t *testing.T) {
	db, cleanup := SetupTestDB(t)
	defer cleanup()

	if db == nil {
		t.Fatal("Expected database to be initialized")
	}

	if db.conn == nil {
		t.Fatal("Expected database connection to be established")
	}

	if db.Engine() != EngineSQLite {
		t.Errorf("Expected engine %s, got %s", EngineSQLite, db.Engine())
	}
}

// TestParseEngine tests engine name parsing
func TestParseEngine(t *testing.T) {
	testCases := []struct {
		name      string
		input     string
		expected  Engine
		shouldErr bool
	}{
		{name: "Empty defaults to sqlite", input: "", expected: EngineSQLite},
		{name: "Explicit sqlite", input: "sqlite", expected: EngineSQLite},
		{name: "Explicit duckdb", input: "duckdb", expected: EngineDuckDB},
		{name: "Unknown engine", input: "postgres", shouldErr: true},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			engine, err := ParseEngine(tc.input)

			if tc.shouldErr {
				if err == nil {
					t.Error("Expected error for unknown engine")
				}
				return
			}
			if err != nil {
				t.Fatalf("ParseEngine failed: %v", err)
			}
			if engine != tc.expected {
				t.Errorf("Expected engine %s, got %s", tc.expected, engine)
			}
		})
	}
}

// TestCreateTables tests that every dataset table exists and starts empty
func TestCreateTables(t *testing.T) {
	db, cleanup := SetupTestDB(t)
	defer cleanup()

	for _, schema := range db.Schemas() {
		count, err := db.RowCount(context.Background(), schema.Table)
		if err != nil {
			t.Fatalf("RowCount failed for %s: %v", schema.Table, err)
		}
		if count != 0 {
			t.Errorf("Expected %s to start empty, got %d rows", schema.Table, count)
		}
	}
}

// TestExecuteAggregate tests running an aggregate query over loaded data
func TestExecuteAggregate(t *testing.T) {
	db, cleanup := SetupLoadedDB(t)
	defer cleanup()

	result, err := db.Execute(context.Background(), "SELECT SUM(ad_spend) AS total_spend FROM product_ad_sales_metrics")
	if err != nil {
		t.Fatalf("Execute failed: %v", err)
	}

	if result.Len() != 1 {
		t.Fatalf("Expected 1 row, got %d", result.Len())
	}

	total, ok := result.Rows[0]["total_spend"].(float64)
	if !ok {
		t.Fatalf("Expected float64 total_spend, got %T", result.Rows[0]["total_spend"])
	}
	if total != 1234.5 {
		t.Errorf("Expected total spend 1234.5, got %v", total)
	}
}

// TestExecuteEmptyResult tests that zero matching rows is a success with
// columns intact
func TestExecuteEmptyResult(t *testing.T) {
	db, cleanup := SetupLoadedDB(t)
	defer cleanup()

	result, err := db.Execute(context.Background(), "SELECT date, ad_spend FROM product_ad_sales_metrics WHERE item_id = 9999")
	if err != nil {
		t.Fatalf("Execute failed: %v", err)
	}

	if result.Len() != 0 {
		t.Errorf("Expected 0 rows, got %d", result.Len())
	}
	if len(result.Columns) != 2 {
		t.Errorf("Expected 2 columns, got %d", len(result.Columns))
	}
}

// TestExecuteInvalidSQL tests that engine failures surface as execution
// errors carrying the query
func TestExecuteInvalidSQL(t *testing.T) {
	db, cleanup := SetupLoadedDB(t)
	defer cleanup()

	badSQL := "SELECT missing_column FROM product_ad_sales_metrics"
	_, err := db.Execute(context.Background(), badSQL)
	if err == nil {
		t.Fatal("Expected error for invalid SQL")
	}

	var execErr *ExecutionError
	if !errors.As(err, &execErr) {
		t.Fatalf("Expected ExecutionError, got %T", err)
	}
	if execErr.SQL != badSQL {
		t.Errorf("Expected error to carry the query, got %q", execErr.SQL)
	}
}

// TestLoadRowsUpsert tests that reloading a dataset replaces rows instead
// of duplicating them
func TestLoadRowsUpsert(t *testing.T) {
	db, cleanup := SetupLoadedDB(t)
	defer cleanup()

	ctx := context.Background()
	if err := db.IngestDataset(ctx, DatasetAdSales, fixtureAdSalesCSV); err != nil {
		t.Fatalf("Second ingest failed: %v", err)
	}

	count, err := db.RowCount(ctx, DatasetAdSales)
	if err != nil {
		t.Fatalf("RowCount failed: %v", err)
	}
	if count != 5 {
		t.Errorf("Expected 5 rows after reload, got %d", count)
	}
}

// TestLoadRowsUpsertUpdates tests that a reload with changed values wins
func TestLoadRowsUpsertUpdates(t *testing.T) {
	db, cleanup := SetupLoadedDB(t)
	defer cleanup()

	ctx := context.Background()
	revised := strings.Replace(fixtureAdSalesCSV, "200.00", "999.99", 1)
	if err := db.IngestDataset(ctx, DatasetAdSales, revised); err != nil {
		t.Fatalf("Reload failed: %v", err)
	}

	result, err := db.Execute(ctx, "SELECT ad_spend FROM product_ad_sales_metrics WHERE date = '2024-06-01' AND item_id = 11")
	if err != nil {
		t.Fatalf("Execute failed: %v", err)
	}
	if result.Len() != 1 {
		t.Fatalf("Expected 1 row, got %d", result.Len())
	}
	if spend := result.Rows[0]["ad_spend"]; spend != 999.99 {
		t.Errorf("Expected updated ad_spend 999.99, got %v", spend)
	}
}

// TestLoadRowsRollback tests that a failed batch leaves the table untouched
func TestLoadRowsRollback(t *testing.T) {
	db, cleanup := SetupLoadedDB(t)
	defer cleanup()

	ctx := context.Background()
	schema, ok := db.Schema(DatasetAdSales)
	if !ok {
		t.Fatal("Expected ad sales schema to exist")
	}

	// The second row carries a value no driver can bind, so the insert
	// fails mid-batch.
	rows := []TypedRow{
		{"date": "2024-06-06", "item_id": float64(11), "ad_sales": 100.0, "impressions": float64(1000), "ad_spend": 50.0, "clicks": float64(10), "units_sold": float64(2)},
		{"date": "2024-06-07", "item_id": float64(11), "ad_sales": make(chan int), "impressions": float64(1000), "ad_spend": 50.0, "clicks": float64(10), "units_sold": float64(2)},
	}

	if err := db.LoadRows(ctx, schema, rows); err == nil {
		t.Fatal("Expected LoadRows to fail on unbindable value")
	}

	count, err := db.RowCount(ctx, DatasetAdSales)
	if err != nil {
		t.Fatalf("RowCount failed: %v", err)
	}
	if count != 5 {
		t.Errorf("Expected rollback to keep 5 rows, got %d", count)
	}

	result, err := db.Execute(ctx, "SELECT date FROM product_ad_sales_metrics WHERE date = '2024-06-06'")
	if err != nil {
		t.Fatalf("Execute failed: %v", err)
	}
	if result.Len() != 0 {
		t.Error("Expected the valid row from the failed batch to be rolled back")
	}
}

// TestBooleanStorage tests that boolean flags land as 1 and 0
func TestBooleanStorage(t *testing.T) {
	db, cleanup := SetupLoadedDB(t)
	defer cleanup()

	result, err := db.Execute(context.Background(), "SELECT COUNT(*) AS eligible FROM product_eligibility WHERE eligibility = 1")
	if err != nil {
		t.Fatalf("Execute failed: %v", err)
	}
	if result.Len() != 1 {
		t.Fatalf("Expected 1 row, got %d", result.Len())
	}

	eligible, ok := result.Rows[0]["eligible"].(int64)
	if !ok {
		t.Fatalf("Expected int64 count, got %T", result.Rows[0]["eligible"])
	}
	if eligible != 3 {
		t.Errorf("Expected 3 eligible rows, got %d", eligible)
	}
}

// TestUpsertSQL tests upsert statement generation
func TestUpsertSQL(t *testing.T) {
	schemas := DefaultSchemas()
	stmt := upsertSQL(schemas[0])

	if !strings.HasPrefix(stmt, "INSERT INTO product_ad_sales_metrics") {
		t.Errorf("Expected insert into ad sales table, got %q", stmt)
	}
	if !strings.Contains(stmt, "ON CONFLICT (date, item_id) DO UPDATE SET") {
		t.Errorf("Expected conflict clause on the primary key, got %q", stmt)
	}
	if !strings.Contains(stmt, "ad_spend = EXCLUDED.ad_spend") {
		t.Errorf("Expected excluded assignment for ad_spend, got %q", stmt)
	}
}
