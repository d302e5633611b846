package main

import (
	"strings"
	"testing"
)

// TestDefaultSchemas tests the shape of the dataset registry
func TestDefaultSchemas(t *testing.T) {
	schemas := DefaultSchemas()

	if len(schemas) != 3 {
		t.Fatalf("Expected 3 schemas, got %d", len(schemas))
	}

	expected := map[string]int{
		DatasetAdSales:     7,
		DatasetTotalSales:  4,
		DatasetEligibility: 4,
	}

	for _, schema := range schemas {
		want, ok := expected[schema.Table]
		if !ok {
			t.Errorf("Unexpected table %s", schema.Table)
			continue
		}
		if len(schema.Columns) != want {
			t.Errorf("Expected %d columns in %s, got %d", want, schema.Table, len(schema.Columns))
		}
		if len(schema.PrimaryKey) == 0 {
			t.Errorf("Expected %s to declare a primary key", schema.Table)
		}
		for _, key := range schema.PrimaryKey {
			if _, ok := schema.Column(key); !ok {
				t.Errorf("Primary key column %s missing from %s", key, schema.Table)
			}
		}
	}
}

// TestColumnLookup tests column access by name
func TestColumnLookup(t *testing.T) {
	schemas := DefaultSchemas()
	adSales := schemas[0]

	col, ok := adSales.Column("ad_spend")
	if !ok {
		t.Fatal("Expected ad_spend column to exist")
	}
	if col.Type != TypeReal {
		t.Errorf("Expected ad_spend to be real, got %s", col.Type)
	}

	if _, ok := adSales.Column("total_sales"); ok {
		t.Error("Expected total_sales to be absent from the ad sales schema")
	}

	names := adSales.ColumnNames()
	if names[0] != "date" || names[len(names)-1] != "units_sold" {
		t.Errorf("Expected columns in declared order, got %v", names)
	}
}

// TestCreateTableSQL tests DDL generation per engine
func TestCreateTableSQL(t *testing.T) {
	schemas := DefaultSchemas()

	t.Run("SQLite", func(t *testing.T) {
		ddl := schemas[0].CreateTableSQL(EngineSQLite)

		for _, want := range []string{
			"CREATE TABLE IF NOT EXISTS product_ad_sales_metrics",
			"date TEXT",
			"item_id INTEGER",
			"ad_spend REAL",
			"PRIMARY KEY (date, item_id)",
		} {
			if !strings.Contains(ddl, want) {
				t.Errorf("Expected DDL to contain %q, got:\n%s", want, ddl)
			}
		}
	})

	t.Run("DuckDB", func(t *testing.T) {
		ddl := schemas[2].CreateTableSQL(EngineDuckDB)

		for _, want := range []string{
			"CREATE TABLE IF NOT EXISTS product_eligibility",
			"eligibility_datetime_utc VARCHAR",
			"item_id BIGINT",
			"eligibility TINYINT",
			"PRIMARY KEY (eligibility_datetime_utc, item_id)",
		} {
			if !strings.Contains(ddl, want) {
				t.Errorf("Expected DDL to contain %q, got:\n%s", want, ddl)
			}
		}
	})
}

// TestSchemaPromptText tests the prompt-facing schema rendering
func TestSchemaPromptText(t *testing.T) {
	text := SchemaPromptText(DefaultSchemas())

	for _, want := range []string{
		"Table: product_ad_sales_metrics",
		"Table: product_total_sales_metrics",
		"Table: product_eligibility",
		"Purpose: Daily advertising performance per product",
		"Primary key: (eligibility_datetime_utc, item_id)",
		"- ad_spend (real): Advertising spend",
		"- eligibility (boolean): 1 when eligible for ads, 0 when not",
	} {
		if !strings.Contains(text, want) {
			t.Errorf("Expected schema text to contain %q", want)
		}
	}
}
