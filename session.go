package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"sync"
	"time"
)

const defaultSQLRetries = 3

const (
	msgNoResults    = "The query ran successfully but returned no results."
	msgUnanswerable = "I can't answer that question from the loaded datasets. Try asking about ad sales, total sales, or product eligibility."
)

// Session owns one in-memory database plus the synthesizers that answer
// questions against it. A session is single-user and not safe for
// concurrent use; callers that share one must serialize access.
type Session struct {
	db            *DB
	querySynth    *QuerySynthesizer
	answerSynth   *AnswerSynthesizer
	schemas       []DatasetSchema
	maxSQLRetries int

	ready     bool
	status    string
	lastErr   string
	loaded    map[string]bool
	closeOnce sync.Once
}

// SessionConfig carries session construction options. An empty APIKey falls
// back to GEMINI_API_KEY; without either the database still works but
// questions are unavailable.
type SessionConfig struct {
	Engine Engine
	APIKey string
	Model  string
}

// AskResult is the outcome of one question round trip.
type AskResult struct {
	Question     string
	SQL          string
	Answer       string
	Warning      string
	NoRows       bool
	Unanswerable bool
	Chart        *ChartProjection
	Result       *QueryResult
	Elapsed      time.Duration
}

// NewSession builds the database and, when a Gemini key is available, the
// question pipeline.
func NewSession(cfg SessionConfig) (*Session, error) {
	db, err := NewDB(cfg.Engine, DefaultSchemas())
	if err != nil {
		return nil, err
	}

	s := &Session{
		db:            db,
		schemas:       db.Schemas(),
		maxSQLRetries: maxSQLRetriesFromEnv(),
		status:        "No datasets loaded.",
		loaded:        make(map[string]bool),
	}

	apiKey := cfg.APIKey
	if apiKey == "" {
		apiKey = os.Getenv("GEMINI_API_KEY")
	}
	if apiKey != "" {
		client := NewGeminiClient(apiKey, cfg.Model)
		s.querySynth = NewQuerySynthesizer(client, s.schemas, db.Engine())
		s.answerSynth = NewAnswerSynthesizer(client)
		if logger != nil {
			logger.Info("Question pipeline enabled", "model", client.Model(), "max_sql_retries", s.maxSQLRetries)
		}
	} else if logger != nil {
		logger.Warn("GEMINI_API_KEY not set, questions will be unavailable")
	}

	return s, nil
}

// maxSQLRetriesFromEnv reads AI_SQL_MAX_RETRIES, clamped to [0, 5].
func maxSQLRetriesFromEnv() int {
	maxRetries := defaultSQLRetries
	if env := os.Getenv("AI_SQL_MAX_RETRIES"); env != "" {
		var parsed int
		if _, err := fmt.Sscanf(env, "%d", &parsed); err == nil {
			maxRetries = parsed
		}
		if maxRetries < 0 {
			maxRetries = 0
		}
		if maxRetries > 5 {
			maxRetries = 5
		}
	}
	return maxRetries
}

// Ingest loads one dataset from CSV text and refreshes readiness.
func (s *Session) Ingest(ctx context.Context, dataset, csvText string) error {
	s.lastErr = ""
	s.status = fmt.Sprintf("Loading %s...", dataset)

	if err := s.db.IngestDataset(ctx, dataset, csvText); err != nil {
		s.loaded[dataset] = false
		s.refreshReady()
		s.status = fmt.Sprintf("Failed to load %s.", dataset)
		return s.fail(err)
	}

	s.loaded[dataset] = true
	s.refreshReady()
	if s.ready {
		s.status = "All datasets loaded. Ready for questions."
	} else {
		s.status = fmt.Sprintf("Loaded %s (%d/%d datasets).", dataset, s.loadedCount(), len(s.schemas))
	}
	return nil
}

// IngestAll loads every dataset in schema order from the given CSV texts,
// keyed by dataset name. Readiness is recomputed from scratch.
func (s *Session) IngestAll(ctx context.Context, texts map[string]string) error {
	for _, schema := range s.schemas {
		s.loaded[schema.Table] = false
	}
	s.refreshReady()

	for _, schema := range s.schemas {
		text, ok := texts[schema.Table]
		if !ok {
			return s.fail(fmt.Errorf("%w: no CSV provided for %s", ErrMissingDataset, schema.Table))
		}
		if err := s.Ingest(ctx, schema.Table, text); err != nil {
			return err
		}
	}
	return nil
}

// Ask runs the two-stage round trip: question to SQL, SQL against the
// database, result rows to prose. Failed SQL is sent back for correction up
// to the retry limit. Unanswerable questions and empty results come back as
// normal outcomes, not errors.
func (s *Session) Ask(ctx context.Context, question string) (*AskResult, error) {
	s.lastErr = ""
	question = strings.TrimSpace(question)
	if question == "" {
		return nil, s.fail(ErrEmptyQuestion)
	}
	if s.querySynth == nil {
		return nil, s.fail(fmt.Errorf("%w: GEMINI_API_KEY environment variable not set", ErrMissingCredential))
	}
	if !s.ready {
		return nil, s.fail(fmt.Errorf("%w: load all %d datasets before asking questions", ErrMissingDataset, len(s.schemas)))
	}

	start := time.Now()
	var previousSQL, lastSQLErr string

	for attempt := 1; attempt <= s.maxSQLRetries; attempt++ {
		var (
			synth *SQLSynthesis
			err   error
		)
		if attempt == 1 {
			synth, err = s.querySynth.Synthesize(ctx, question)
		} else {
			synth, err = s.querySynth.SynthesizeCorrection(ctx, question, previousSQL, lastSQLErr, attempt)
		}
		if err != nil {
			return nil, s.fail(err)
		}

		if synth.Unanswerable {
			if logger != nil {
				logger.Info("Question marked unanswerable", "question", truncateString(question, 120))
			}
			return &AskResult{
				Question:     question,
				Answer:       msgUnanswerable,
				Unanswerable: true,
				Elapsed:      time.Since(start),
			}, nil
		}

		if logger != nil {
			logger.Info("Generated SQL", "attempt", attempt, "sql", truncateString(synth.SQL, 200))
		}

		result, err := s.db.Execute(ctx, synth.SQL)
		if err != nil {
			var execErr *ExecutionError
			if errors.As(err, &execErr) && attempt < s.maxSQLRetries {
				previousSQL = synth.SQL
				lastSQLErr = execErr.Err.Error()
				if logger != nil {
					logger.Warn("SQL execution failed, requesting correction", "attempt", attempt, "error", execErr.Err)
				}
				continue
			}
			return nil, s.fail(err)
		}

		if result.Len() == 0 {
			return &AskResult{
				Question: question,
				SQL:      synth.SQL,
				Answer:   msgNoResults,
				NoRows:   true,
				Result:   result,
				Elapsed:  time.Since(start),
			}, nil
		}

		answer, err := s.answerSynth.Synthesize(ctx, question, result)
		if err != nil {
			return nil, s.fail(err)
		}

		res := &AskResult{
			Question: question,
			SQL:      synth.SQL,
			Answer:   answer.Text,
			Warning:  answer.Warning,
			Result:   result,
			Elapsed:  time.Since(start),
		}
		if answer.Chart != nil {
			res.Chart = ProjectChart(result, *answer.Chart)
		}
		return res, nil
	}

	return nil, s.fail(fmt.Errorf("failed to produce working SQL after %d attempts: %s", s.maxSQLRetries, lastSQLErr))
}

// Query runs raw SQL against the session database.
func (s *Session) Query(ctx context.Context, sqlText string) (*QueryResult, error) {
	s.lastErr = ""
	result, err := s.db.Execute(ctx, sqlText)
	if err != nil {
		return nil, s.fail(err)
	}
	return result, nil
}

// DatasetCounts reports the row count of every dataset table.
func (s *Session) DatasetCounts(ctx context.Context) (map[string]int, error) {
	counts := make(map[string]int, len(s.schemas))
	for _, schema := range s.schemas {
		n, err := s.db.RowCount(ctx, schema.Table)
		if err != nil {
			return nil, s.fail(err)
		}
		counts[schema.Table] = n
	}
	return counts, nil
}

// fail records the user-facing message for the error and passes it through.
func (s *Session) fail(err error) error {
	s.lastErr = userMessage(err)
	if logger != nil {
		logger.Error("Session operation failed", "error", err)
	}
	return err
}

func (s *Session) refreshReady() {
	s.ready = s.loadedCount() == len(s.schemas)
}

func (s *Session) loadedCount() int {
	n := 0
	for _, schema := range s.schemas {
		if s.loaded[schema.Table] {
			n++
		}
	}
	return n
}

// Ready reports whether every dataset has been loaded.
func (s *Session) Ready() bool { return s.ready }

// Status returns the last ingest status line.
func (s *Session) Status() string { return s.status }

// LastError returns the user-facing message of the last failed operation,
// or "" when the last operation succeeded.
func (s *Session) LastError() string { return s.lastErr }

// AIEnabled reports whether a Gemini key was configured.
func (s *Session) AIEnabled() bool { return s.querySynth != nil }

// Engine returns the SQL engine backing the session.
func (s *Session) Engine() Engine { return s.db.Engine() }

// Schemas returns the dataset schemas in registry order.
func (s *Session) Schemas() []DatasetSchema { return s.schemas }

// SchemaText renders the schemas as the prompt-ready description.
func (s *Session) SchemaText() string { return SchemaPromptText(s.schemas) }

// Close releases the database. Safe to call more than once.
func (s *Session) Close() error {
	var err error
	s.closeOnce.Do(func() {
		if logger != nil {
			logger.Info("Closing session")
		}
		err = s.db.Close()
	})
	return err
}
