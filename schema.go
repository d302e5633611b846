package main

import (
	"fmt"
	"strings"
)

// ColumnType is the logical type a schema column declares. Coercion, DDL
// generation, and the schema prompt all key off it.
type ColumnType int

const (
	TypeText ColumnType = iota
	TypeReal
	TypeInteger
	TypeBoolean
)

func (t ColumnType) String() string {
	switch t {
	case TypeText:
		return "text"
	case TypeReal:
		return "real"
	case TypeInteger:
		return "integer"
	case TypeBoolean:
		return "boolean"
	default:
		return "text"
	}
}

// Column is one declared column of a dataset table.
type Column struct {
	Name        string
	Type        ColumnType
	Description string
}

// DatasetSchema describes one dataset's table: ordered column layout and the
// composite primary key. Registry entries are fixed at startup and never
// mutated afterward.
type DatasetSchema struct {
	Table       string
	Description string
	Columns     []Column
	PrimaryKey  []string
}

// Dataset names double as table names; commands and the API address
// datasets by these identifiers.
const (
	DatasetAdSales     = "product_ad_sales_metrics"
	DatasetTotalSales  = "product_total_sales_metrics"
	DatasetEligibility = "product_eligibility"
)

// DefaultSchemas returns the fixed dataset registry in ingestion order.
func DefaultSchemas() []DatasetSchema {
	return []DatasetSchema{
		{
			Table:       DatasetAdSales,
			Description: "Daily advertising performance per product",
			Columns: []Column{
				{Name: "date", Type: TypeText, Description: "Metric date (YYYY-MM-DD)"},
				{Name: "item_id", Type: TypeInteger, Description: "Product identifier"},
				{Name: "ad_sales", Type: TypeReal, Description: "Revenue attributed to ads"},
				{Name: "impressions", Type: TypeInteger, Description: "Ad impressions shown"},
				{Name: "ad_spend", Type: TypeReal, Description: "Advertising spend"},
				{Name: "clicks", Type: TypeInteger, Description: "Ad clicks received"},
				{Name: "units_sold", Type: TypeInteger, Description: "Units sold through ads"},
			},
			PrimaryKey: []string{"date", "item_id"},
		},
		{
			Table:       DatasetTotalSales,
			Description: "Daily overall sales per product, ads and organic combined",
			Columns: []Column{
				{Name: "date", Type: TypeText, Description: "Metric date (YYYY-MM-DD)"},
				{Name: "item_id", Type: TypeInteger, Description: "Product identifier"},
				{Name: "total_sales", Type: TypeReal, Description: "Total revenue"},
				{Name: "total_units_ordered", Type: TypeInteger, Description: "Total units ordered"},
			},
			PrimaryKey: []string{"date", "item_id"},
		},
		{
			Table:       DatasetEligibility,
			Description: "Advertising eligibility status per product",
			Columns: []Column{
				{Name: "eligibility_datetime_utc", Type: TypeText, Description: "Status timestamp (UTC)"},
				{Name: "item_id", Type: TypeInteger, Description: "Product identifier"},
				{Name: "eligibility", Type: TypeBoolean, Description: "1 when eligible for ads, 0 when not"},
				{Name: "message", Type: TypeText, Description: "Ineligibility reason, empty when eligible"},
			},
			PrimaryKey: []string{"eligibility_datetime_utc", "item_id"},
		},
	}
}

// Column returns the declared column with the given name.
func (s DatasetSchema) Column(name string) (Column, bool) {
	for _, col := range s.Columns {
		if col.Name == name {
			return col, true
		}
	}
	return Column{}, false
}

// ColumnNames returns the declared column names in order.
func (s DatasetSchema) ColumnNames() []string {
	names := make([]string, len(s.Columns))
	for i, col := range s.Columns {
		names[i] = col.Name
	}
	return names
}

// CreateTableSQL renders the table's DDL for the given engine.
func (s DatasetSchema) CreateTableSQL(engine Engine) string {
	var sb strings.Builder
	sb.WriteString("CREATE TABLE IF NOT EXISTS ")
	sb.WriteString(s.Table)
	sb.WriteString(" (\n")
	for _, col := range s.Columns {
		sb.WriteString("    ")
		sb.WriteString(col.Name)
		sb.WriteString(" ")
		sb.WriteString(sqlType(engine, col.Type))
		sb.WriteString(",\n")
	}
	sb.WriteString("    PRIMARY KEY (")
	sb.WriteString(strings.Join(s.PrimaryKey, ", "))
	sb.WriteString(")\n)")
	return sb.String()
}

// sqlType maps a logical column type onto the engine's column type. Boolean
// columns store 0/1 integers on both engines.
func sqlType(engine Engine, t ColumnType) string {
	if engine == EngineDuckDB {
		switch t {
		case TypeReal:
			return "DOUBLE"
		case TypeInteger:
			return "BIGINT"
		case TypeBoolean:
			return "TINYINT"
		default:
			return "VARCHAR"
		}
	}
	switch t {
	case TypeReal:
		return "REAL"
	case TypeInteger, TypeBoolean:
		return "INTEGER"
	default:
		return "TEXT"
	}
}

// SchemaPromptText renders every table's structure as the schema block
// embedded in SQL-synthesis prompts.
func SchemaPromptText(schemas []DatasetSchema) string {
	var sb strings.Builder
	for i, schema := range schemas {
		if i > 0 {
			sb.WriteString("\n")
		}
		fmt.Fprintf(&sb, "Table: %s\n", schema.Table)
		fmt.Fprintf(&sb, "Purpose: %s\n", schema.Description)
		fmt.Fprintf(&sb, "Primary key: (%s)\n", strings.Join(schema.PrimaryKey, ", "))
		sb.WriteString("Columns:\n")
		for _, col := range schema.Columns {
			fmt.Fprintf(&sb, "  - %s (%s): %s\n", col.Name, col.Type, col.Description)
		}
	}
	return sb.String()
}
