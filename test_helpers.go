package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
)

// SetupTestDB creates an empty in-memory database with the dataset tables.
func SetupTestDB(t *testing.T) (*DB, func()) {
	t.Helper()

	db, err := NewDB(EngineSQLite, DefaultSchemas())
	if err != nil {
		t.Fatalf("failed to initialize test database: %v", err)
	}

	cleanup := func() {
		db.Close()
	}

	return db, cleanup
}

// SetupLoadedDB creates a database with all three fixture datasets loaded.
func SetupLoadedDB(t *testing.T) (*DB, func()) {
	t.Helper()

	db, cleanup := SetupTestDB(t)
	ctx := context.Background()
	for dataset, text := range fixtureCSVs() {
		if err := db.IngestDataset(ctx, dataset, text); err != nil {
			cleanup()
			t.Fatalf("failed to ingest %s: %v", dataset, err)
		}
	}

	return db, cleanup
}

// SetupTestSession builds a session wired to the fake endpoint with all
// three fixture datasets loaded.
func SetupTestSession(t *testing.T, f *fakeGemini) (*Session, func()) {
	t.Helper()

	s, err := NewSession(SessionConfig{Engine: EngineSQLite, APIKey: "test-key"})
	if err != nil {
		t.Fatalf("failed to create session: %v", err)
	}

	client := f.client(t)
	s.querySynth = NewQuerySynthesizer(client, s.schemas, s.db.Engine())
	s.answerSynth = NewAnswerSynthesizer(client)

	if err := s.IngestAll(context.Background(), fixtureCSVs()); err != nil {
		s.Close()
		t.Fatalf("failed to ingest fixtures: %v", err)
	}

	cleanup := func() {
		s.Close()
	}

	return s, cleanup
}

// fakeGemini is a scripted stand-in for the generateContent endpoint. Each
// request pops the next queued response; an empty queue answers with a 500
// so tests that over-call fail loudly.
type fakeGemini struct {
	server *httptest.Server

	mu        sync.Mutex
	responses []fakeGeminiResponse
	calls     int
	prompts   []string
}

type fakeGeminiResponse struct {
	status int
	body   string
}

func newFakeGemini(t *testing.T) *fakeGemini {
	t.Helper()

	f := &fakeGemini{}
	f.server = httptest.NewServer(http.HandlerFunc(f.handle))
	t.Cleanup(f.server.Close)
	return f
}

func (f *fakeGemini) handle(w http.ResponseWriter, r *http.Request) {
	body, _ := io.ReadAll(r.Body)

	f.mu.Lock()
	f.calls++
	var req geminiRequest
	if err := json.Unmarshal(body, &req); err == nil && len(req.Contents) > 0 && len(req.Contents[0].Parts) > 0 {
		f.prompts = append(f.prompts, req.Contents[0].Parts[0].Text)
	}
	resp := fakeGeminiResponse{
		status: http.StatusInternalServerError,
		body:   `{"error":{"code":500,"message":"no scripted response","status":"INTERNAL"}}`,
	}
	if len(f.responses) > 0 {
		resp = f.responses[0]
		f.responses = f.responses[1:]
	}
	f.mu.Unlock()

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(resp.status)
	fmt.Fprint(w, resp.body)
}

// queueText enqueues a 200 response carrying text as the only part.
func (f *fakeGemini) queueText(text string) {
	f.mu.Lock()
	f.responses = append(f.responses, fakeGeminiResponse{status: http.StatusOK, body: geminiTextBody(text)})
	f.mu.Unlock()
}

// queueStatus enqueues a raw response with the given status and body.
func (f *fakeGemini) queueStatus(status int, body string) {
	f.mu.Lock()
	f.responses = append(f.responses, fakeGeminiResponse{status: status, body: body})
	f.mu.Unlock()
}

func (f *fakeGemini) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

func (f *fakeGemini) lastPrompt() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.prompts) == 0 {
		return ""
	}
	return f.prompts[len(f.prompts)-1]
}

// client returns a GeminiClient pointed at the fake server.
func (f *fakeGemini) client(t *testing.T) *GeminiClient {
	t.Helper()

	client := NewGeminiClient("test-key", "")
	client.baseURL = f.server.URL
	return client
}

// geminiTextBody wraps text in a minimal generateContent response envelope.
func geminiTextBody(text string) string {
	body, _ := json.Marshal(map[string]interface{}{
		"candidates": []map[string]interface{}{
			{
				"content": map[string]interface{}{
					"parts": []map[string]string{{"text": text}},
				},
				"finishReason": "STOP",
			},
		},
	})
	return string(body)
}
