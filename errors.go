package main

import (
	"errors"
	"fmt"
)

// Configuration errors. Wrapped with context at the call site and matched
// with errors.Is at the operation boundary.
var (
	ErrMissingCredential = errors.New("missing API credential")
	ErrMissingDataset    = errors.New("missing dataset")
	ErrEmptyQuestion     = errors.New("question is empty")
)

// IngestErrorKind classifies dataset load failures.
type IngestErrorKind int

const (
	// ParseFailure covers malformed CSV input: bad or incomplete headers,
	// inconsistent field counts, unreadable records.
	ParseFailure IngestErrorKind = iota
	// InsertFailure covers database write failures after a clean parse.
	// The failing dataset's transaction is rolled back in full.
	InsertFailure
)

func (k IngestErrorKind) String() string {
	switch k {
	case ParseFailure:
		return "parse failure"
	case InsertFailure:
		return "insert failure"
	default:
		return "unknown failure"
	}
}

// IngestError reports a failed dataset load. The failing dataset's table is
// left as it was before the attempt; other datasets are unaffected.
type IngestError struct {
	Kind    IngestErrorKind
	Dataset string
	Err     error
}

func (e *IngestError) Error() string {
	return fmt.Sprintf("failed to ingest %s: %s: %v", e.Dataset, e.Kind, e.Err)
}

func (e *IngestError) Unwrap() error { return e.Err }

// SynthesisErrorKind classifies unusable language model responses.
type SynthesisErrorKind int

const (
	// MalformedResponse means the response carried content but neither the
	// structured field nor the fenced-block fallback yielded a usable value.
	MalformedResponse SynthesisErrorKind = iota
	// EmptyResponse means the endpoint answered without any content parts.
	EmptyResponse
)

func (k SynthesisErrorKind) String() string {
	switch k {
	case MalformedResponse:
		return "malformed response"
	case EmptyResponse:
		return "empty response"
	default:
		return "unknown response failure"
	}
}

// SynthesisError reports a language model round trip whose response could
// not be turned into the expected artifact. Recoverable: the session stays
// usable for the next question.
type SynthesisError struct {
	Kind SynthesisErrorKind
	Err  error
}

func (e *SynthesisError) Error() string {
	return fmt.Sprintf("synthesis failed: %s: %v", e.Kind, e.Err)
}

func (e *SynthesisError) Unwrap() error { return e.Err }

// ExecutionError reports a statement the database engine rejected. SQL
// preserves the offending statement text for diagnosis.
type ExecutionError struct {
	SQL string
	Err error
}

func (e *ExecutionError) Error() string {
	return fmt.Sprintf("query execution failed: %v (sql: %s)", e.Err, e.SQL)
}

func (e *ExecutionError) Unwrap() error { return e.Err }

// TransportError reports a network-level failure reaching the language
// model endpoint, including non-2xx responses and endpoint error envelopes.
type TransportError struct {
	Status int // HTTP status, 0 when the request never completed
	Err    error
}

func (e *TransportError) Error() string {
	if e.Status != 0 {
		return fmt.Sprintf("llm request failed with status %d: %v", e.Status, e.Err)
	}
	return fmt.Sprintf("llm request failed: %v", e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }

// userMessage converts any pipeline error into the single message surfaced
// to the user. None of these are fatal; the session remains usable.
func userMessage(err error) string {
	var ingestErr *IngestError
	var synthErr *SynthesisError
	var execErr *ExecutionError
	var transportErr *TransportError

	switch {
	case errors.As(err, &ingestErr):
		if ingestErr.Kind == ParseFailure {
			return fmt.Sprintf("Could not parse the %s file: %v", ingestErr.Dataset, ingestErr.Err)
		}
		return fmt.Sprintf("Could not load the %s data: %v", ingestErr.Dataset, ingestErr.Err)
	case errors.As(err, &synthErr):
		return "The AI returned a response that could not be used. Try rephrasing your question."
	case errors.As(err, &execErr):
		return fmt.Sprintf("The generated query failed to run: %v", execErr.Err)
	case errors.As(err, &transportErr):
		return "Could not reach the AI service. Check your network connection and API key."
	case errors.Is(err, ErrMissingCredential):
		return "No API key configured. Set GEMINI_API_KEY and try again."
	case errors.Is(err, ErrMissingDataset):
		return fmt.Sprintf("Datasets not ready: %v", err)
	case errors.Is(err, ErrEmptyQuestion):
		return "Please enter a question."
	default:
		return err.Error()
	}
}
