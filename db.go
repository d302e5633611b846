package main

import (
	"context"
	"database/sql"
	"fmt"
	"math"
	"strings"

	_ "modernc.org/sqlite"
)

// Engine selects the embedded database engine backing a session.
type Engine string

const (
	EngineSQLite Engine = "sqlite"
	EngineDuckDB Engine = "duckdb"
)

// ParseEngine validates an engine name from a flag or config value. The
// empty string selects the default engine.
func ParseEngine(name string) (Engine, error) {
	switch Engine(strings.ToLower(strings.TrimSpace(name))) {
	case EngineSQLite, "":
		return EngineSQLite, nil
	case EngineDuckDB:
		return EngineDuckDB, nil
	default:
		return "", fmt.Errorf("unknown engine %q (expected sqlite or duckdb)", name)
	}
}

// DB wraps the session's embedded database. The store is in-memory and
// lives exactly as long as the session; Close releases it.
//
// DB is not safe for concurrent use: callers must not run Execute while an
// ingest is in flight on the same handle.
type DB struct {
	conn    *sql.DB
	engine  Engine
	schemas []DatasetSchema
}

// NewDB opens an in-memory database on the chosen engine and creates one
// table per registry schema.
func NewDB(engine Engine, schemas []DatasetSchema) (*DB, error) {
	var conn *sql.DB
	var err error

	switch engine {
	case EngineDuckDB:
		conn, err = sql.Open("duckdb", "")
	case EngineSQLite:
		conn, err = sql.Open("sqlite", ":memory:")
	default:
		return nil, fmt.Errorf("unknown engine %q", engine)
	}
	if err != nil {
		if logger != nil {
			logger.Error("Failed to open database", "error", err, "engine", string(engine))
		}
		return nil, fmt.Errorf("failed to open %s database: %w", engine, err)
	}

	// A single connection keeps the in-memory store visible across calls
	// and matches the one-operation-at-a-time session model.
	conn.SetMaxOpenConns(1)

	if err := conn.PingContext(context.Background()); err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("failed to connect to %s database: %w", engine, err)
	}

	d := &DB{conn: conn, engine: engine, schemas: schemas}
	if err := d.createTables(); err != nil {
		_ = conn.Close()
		return nil, err
	}

	if logger != nil {
		logger.Info("Database initialized", "engine", string(engine), "tables", len(schemas))
	}
	return d, nil
}

// Engine reports which embedded engine backs this database.
func (d *DB) Engine() Engine {
	return d.engine
}

// Schema returns the registry entry for a dataset name.
func (d *DB) Schema(dataset string) (DatasetSchema, bool) {
	for _, schema := range d.schemas {
		if schema.Table == dataset {
			return schema, true
		}
	}
	return DatasetSchema{}, false
}

// Schemas returns the registry in ingestion order.
func (d *DB) Schemas() []DatasetSchema {
	return d.schemas
}

func (d *DB) createTables() error {
	for _, schema := range d.schemas {
		if _, err := d.conn.Exec(schema.CreateTableSQL(d.engine)); err != nil {
			if logger != nil {
				logger.Error("Failed to create table", "error", err, "table", schema.Table)
			}
			return fmt.Errorf("failed to create table %s: %w", schema.Table, err)
		}
	}
	return nil
}

// LoadRows inserts all rows for one dataset inside a single transaction:
// either every row commits or none do. Rows that collide on the primary key
// replace the stored row, so re-loading a dataset is idempotent.
func (d *DB) LoadRows(ctx context.Context, schema DatasetSchema, rows []TypedRow) error {
	if len(rows) == 0 {
		return nil
	}

	tx, err := d.conn.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction for %s: %w", schema.Table, err)
	}
	defer func() {
		_ = tx.Rollback() // Ignore error - will fail if transaction was committed
	}()

	stmt, err := tx.PrepareContext(ctx, upsertSQL(schema))
	if err != nil {
		return fmt.Errorf("failed to prepare insert for %s: %w", schema.Table, err)
	}
	defer stmt.Close()

	for i, row := range rows {
		if _, err := stmt.ExecContext(ctx, bindArgs(schema, row)...); err != nil {
			return fmt.Errorf("failed to insert row %d into %s: %w", i+1, schema.Table, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit %s load: %w", schema.Table, err)
	}

	if logger != nil {
		logger.Info("Dataset rows loaded", "table", schema.Table, "rows", len(rows))
	}
	return nil
}

// upsertSQL renders the per-row insert. The same statement text works on
// both engines.
func upsertSQL(schema DatasetSchema) string {
	names := schema.ColumnNames()
	placeholders := make([]string, len(names))
	for i := range placeholders {
		placeholders[i] = "?"
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "INSERT INTO %s (%s) VALUES (%s)",
		schema.Table, strings.Join(names, ", "), strings.Join(placeholders, ", "))

	key := make(map[string]bool, len(schema.PrimaryKey))
	for _, k := range schema.PrimaryKey {
		key[k] = true
	}
	var updates []string
	for _, name := range names {
		if !key[name] {
			updates = append(updates, fmt.Sprintf("%s = EXCLUDED.%s", name, name))
		}
	}
	if len(updates) == 0 {
		fmt.Fprintf(&sb, " ON CONFLICT (%s) DO NOTHING", strings.Join(schema.PrimaryKey, ", "))
		return sb.String()
	}
	fmt.Fprintf(&sb, " ON CONFLICT (%s) DO UPDATE SET %s",
		strings.Join(schema.PrimaryKey, ", "), strings.Join(updates, ", "))
	return sb.String()
}

// bindArgs orders a typed row's values by the schema's column order.
// Integral floats bound for integer or boolean columns bind as int64 so
// both engines store them without implicit casts.
func bindArgs(schema DatasetSchema, row TypedRow) []interface{} {
	args := make([]interface{}, 0, len(schema.Columns))
	for _, col := range schema.Columns {
		v := row[col.Name]
		if f, ok := v.(float64); ok && (col.Type == TypeInteger || col.Type == TypeBoolean) && f == math.Trunc(f) {
			args = append(args, int64(f))
			continue
		}
		args = append(args, v)
	}
	return args
}

// QueryResult is an ordered set of row mappings sharing one column set.
type QueryResult struct {
	Columns []string
	Rows    []map[string]interface{}
}

// Len returns the number of rows.
func (r *QueryResult) Len() int {
	return len(r.Rows)
}

// Execute runs one SQL statement and collects the full result set. A result
// with zero rows is not an error; callers short-circuit on Len() == 0. Any
// engine failure comes back as an ExecutionError carrying the offending
// statement text.
func (d *DB) Execute(ctx context.Context, query string) (*QueryResult, error) {
	rows, err := d.conn.QueryContext(ctx, query)
	if err != nil {
		if logger != nil {
			logger.Error("Query execution failed", "error", err, "sql", truncateString(query, 200))
		}
		return nil, &ExecutionError{SQL: query, Err: err}
	}
	defer rows.Close()

	columns, err := rows.Columns()
	if err != nil {
		return nil, &ExecutionError{SQL: query, Err: err}
	}

	result := &QueryResult{Columns: columns}
	for rows.Next() {
		values := make([]interface{}, len(columns))
		valuePtrs := make([]interface{}, len(columns))
		for i := range values {
			valuePtrs[i] = &values[i]
		}
		if err := rows.Scan(valuePtrs...); err != nil {
			return nil, &ExecutionError{SQL: query, Err: err}
		}

		rowMap := make(map[string]interface{}, len(columns))
		for i, col := range columns {
			v := values[i]
			if b, ok := v.([]byte); ok {
				v = string(b)
			}
			rowMap[col] = v
		}
		result.Rows = append(result.Rows, rowMap)
	}
	if err := rows.Err(); err != nil {
		return nil, &ExecutionError{SQL: query, Err: err}
	}
	return result, nil
}

// RowCount reports how many rows a dataset table currently holds.
func (d *DB) RowCount(ctx context.Context, table string) (int, error) {
	if _, ok := d.Schema(table); !ok {
		return 0, fmt.Errorf("unknown dataset %q", table)
	}
	var count int
	if err := d.conn.QueryRowContext(ctx, "SELECT COUNT(*) FROM "+table).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count rows in %s: %w", table, err)
	}
	return count, nil
}

// Close releases the underlying engine resources.
func (d *DB) Close() error {
	if d.conn == nil {
		return nil
	}
	if err := d.conn.Close(); err != nil {
		return fmt.Errorf("failed to close database: %w", err)
	}
	if logger != nil {
		logger.Info("Database closed", "engine", string(d.engine))
	}
	return nil
}
