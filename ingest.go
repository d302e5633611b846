package main

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"
)

// TypedRow maps column names to coerced values. Values are always one of
// string, float64, or nil.
type TypedRow map[string]interface{}

// IngestDataset parses raw CSV text for one dataset and loads it inside a
// single transaction. A parse problem aborts before any write; a write
// problem rolls the whole dataset back. A header-only CSV is a warning, not
// an error.
func (d *DB) IngestDataset(ctx context.Context, dataset, csvText string) error {
	schema, ok := d.Schema(dataset)
	if !ok {
		return fmt.Errorf("unknown dataset %q", dataset)
	}

	rows, err := parseRows(schema, csvText)
	if err != nil {
		return &IngestError{Kind: ParseFailure, Dataset: dataset, Err: err}
	}
	if len(rows) == 0 {
		if logger != nil {
			logger.Warn("Dataset has no data rows", "dataset", dataset)
		}
		return nil
	}

	if err := d.LoadRows(ctx, schema, rows); err != nil {
		return &IngestError{Kind: InsertFailure, Dataset: dataset, Err: err}
	}
	return nil
}

// parseRows reads the header and data records, coercing every cell against
// the schema's declared column type. Header names must match the schema
// case-sensitively; columns the schema does not declare are ignored with a
// warning, and a declared column missing from the header is a parse error.
func parseRows(schema DatasetSchema, csvText string) ([]TypedRow, error) {
	reader := csv.NewReader(strings.NewReader(csvText))
	reader.ReuseRecord = true

	header, err := reader.Read()
	if err == io.EOF {
		return nil, fmt.Errorf("missing header row")
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read header: %w", err)
	}

	// The first header cell may carry a UTF-8 BOM.
	names := make([]string, len(header))
	for i, h := range header {
		if i == 0 {
			h = strings.TrimPrefix(h, "\ufeff")
		}
		names[i] = strings.TrimSpace(h)
	}

	position := make(map[string]int, len(names))
	var extra []string
	for i, name := range names {
		if _, ok := schema.Column(name); !ok {
			extra = append(extra, name)
			continue
		}
		if _, dup := position[name]; dup {
			return nil, fmt.Errorf("duplicate column %q in header", name)
		}
		position[name] = i
	}
	for _, col := range schema.Columns {
		if _, ok := position[col.Name]; !ok {
			return nil, fmt.Errorf("header is missing column %q", col.Name)
		}
	}
	if len(extra) > 0 && logger != nil {
		logger.Warn("Ignoring columns not in schema", "dataset", schema.Table, "columns", strings.Join(extra, ", "))
	}

	var rows []TypedRow
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read record %d: %w", len(rows)+1, err)
		}

		row := make(TypedRow, len(schema.Columns))
		for _, col := range schema.Columns {
			row[col.Name] = coerceValue(col.Type, record[position[col.Name]])
		}
		rows = append(rows, row)
	}
	return rows, nil
}

// coerceValue applies the cell coercion policy. The order is deliberate and
// must not change: boolean literals are checked before the blank check, the
// blank check before the numeric parse, and anything left stays text. This
// keeps "TRUE" in a non-boolean column as text rather than 1.
func coerceValue(declared ColumnType, raw string) interface{} {
	trimmed := strings.TrimSpace(raw)

	if declared == TypeBoolean {
		switch strings.ToUpper(trimmed) {
		case "TRUE":
			return float64(1)
		case "FALSE":
			return float64(0)
		}
	}

	if trimmed == "" {
		return nil
	}

	if f, err := strconv.ParseFloat(trimmed, 64); err == nil && !math.IsInf(f, 0) && !math.IsNaN(f) {
		return f
	}

	return raw
}
