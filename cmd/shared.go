package cmd

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
)

// ChartData is the presentation-ready chart payload for one answer: the
// chart kind, the series name, and parallel label/value slices in row order.
type ChartData struct {
	Kind   string        `json:"kind"`
	Series string        `json:"series"`
	Labels []string      `json:"labels"`
	Values []interface{} `json:"values"`
}

// AskOutcome is the result of one question round trip through the pipeline.
// Answer always carries the user-visible text, including the fixed messages
// for unanswerable questions and empty results.
type AskOutcome struct {
	Question     string                   `json:"question"`
	SQL          string                   `json:"sql,omitempty"`
	Answer       string                   `json:"answer"`
	Warning      string                   `json:"warning,omitempty"`
	NoRows       bool                     `json:"no_rows,omitempty"`
	Unanswerable bool                     `json:"unanswerable,omitempty"`
	Columns      []string                 `json:"columns,omitempty"`
	Rows         []map[string]interface{} `json:"rows,omitempty"`
	Chart        *ChartData               `json:"chart,omitempty"`
	Elapsed      string                   `json:"elapsed,omitempty"`
}

// Session is the slice of the analytics session the commands rely on.
// Implemented by the main package and injected via InitSession.
type Session interface {
	Ingest(ctx context.Context, dataset, csvText string) error
	Ask(ctx context.Context, question string) (*AskOutcome, error)
	Query(ctx context.Context, sql string) ([]string, []map[string]interface{}, error)
	Counts(ctx context.Context) (map[string]int, error)
	SchemaText() string
	Ready() bool
	Status() string
	Close() error
}

// DatasetFile pairs a dataset table name with its default CSV file name
// under the data directory.
type DatasetFile struct {
	Dataset string
	File    string
}

// DefaultDatasetFiles lists the datasets in load order.
var DefaultDatasetFiles = []DatasetFile{
	{Dataset: "product_ad_sales_metrics", File: "ad_sales.csv"},
	{Dataset: "product_total_sales_metrics", File: "total_sales.csv"},
	{Dataset: "product_eligibility", File: "eligibility.csv"},
}

// Callbacks set by the main package at startup. Keeping the concrete
// implementations out of this package avoids an import cycle.
var (
	// LaunchTUI starts the terminal UI.
	LaunchTUI func(dataDir, engine, model string)

	// InitSession creates a session backed by the requested engine. The
	// returned cleanup function must be called when the command is done.
	InitSession func(dataDir, engine, model string) (Session, func(), error)

	// SchemaText returns the dataset schema description without a session.
	SchemaText func() string

	// RenderChart renders a chart payload for the terminal.
	RenderChart func(chart *ChartData, width int) string
)

// HandleError prints an error message and exits
func HandleError(err error, message string) {
	fmt.Fprintf(os.Stderr, "Error: %s: %v\n", message, err)
	os.Exit(1)
}

// IngestFromDir loads every dataset CSV from dataDir into the session.
// overrides maps a dataset name to an explicit file path; a nil map means
// defaults everywhere.
func IngestFromDir(ctx context.Context, s Session, dataDir string, overrides map[string]string) error {
	for _, df := range DefaultDatasetFiles {
		path := filepath.Join(dataDir, df.File)
		if override := overrides[df.Dataset]; override != "" {
			path = override
		}

		data, err := os.ReadFile(path)
		if err != nil {
			return fmt.Errorf("failed to read %s: %w", path, err)
		}

		if err := s.Ingest(ctx, df.Dataset, string(data)); err != nil {
			return err
		}
	}

	return nil
}
