package main

import (
	"encoding/json"
	"errors"
	"io"
	"log"
	"net/http"
	"sync"
)

// maxUploadBytes caps one multipart ingest request in memory.
const maxUploadBytes = 32 << 20

// APIHandler handles JSON API requests. The session is single-user, so the
// mutex serializes every request that touches it.
type APIHandler struct {
	Session *Session
	mu      sync.Mutex
}

// askRequest is the POST /api/ask body
type askRequest struct {
	Question string `json:"question"`
}

// Ingest handles multipart CSV uploads, one form field per dataset name
func (h *APIHandler) Ingest(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		respondJSON(w, http.StatusBadRequest, map[string]string{
			"error": "Expected a multipart form upload",
		})
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	loaded := []string{}
	for _, schema := range h.Session.Schemas() {
		file, _, err := r.FormFile(schema.Table)
		if err == http.ErrMissingFile {
			continue
		}
		if err != nil {
			respondJSON(w, http.StatusBadRequest, map[string]string{
				"error": "Bad upload for " + schema.Table,
			})
			return
		}

		data, err := io.ReadAll(file)
		file.Close()
		if err != nil {
			respondJSON(w, http.StatusBadRequest, map[string]string{
				"error": "Could not read upload for " + schema.Table,
			})
			return
		}

		if err := h.Session.Ingest(r.Context(), schema.Table, string(data)); err != nil {
			log.Printf("Ingest error: %v", err)
			respondJSON(w, http.StatusBadRequest, map[string]interface{}{
				"error":  userMessage(err),
				"loaded": loaded,
				"status": h.Session.Status(),
			})
			return
		}

		loaded = append(loaded, schema.Table)
	}

	if len(loaded) == 0 {
		respondJSON(w, http.StatusBadRequest, map[string]string{
			"error": "No dataset files in upload",
		})
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"loaded": loaded,
		"ready":  h.Session.Ready(),
		"status": h.Session.Status(),
	})
}

// Ask handles question requests
func (h *APIHandler) Ask(w http.ResponseWriter, r *http.Request) {
	var req askRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondJSON(w, http.StatusBadRequest, map[string]string{
			"error": "Expected a JSON body with a question field",
		})
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	result, err := h.Session.Ask(r.Context(), req.Question)
	if err != nil {
		status := http.StatusInternalServerError
		switch {
		case errors.Is(err, ErrEmptyQuestion), errors.Is(err, ErrMissingDataset):
			status = http.StatusBadRequest
		case errors.Is(err, ErrMissingCredential):
			status = http.StatusServiceUnavailable
		}
		if status == http.StatusInternalServerError {
			log.Printf("Ask error: %v", err)
		}
		respondJSON(w, status, map[string]string{
			"error": userMessage(err),
		})
		return
	}

	respondJSON(w, http.StatusOK, convertAsk(result))
}

// Status reports dataset readiness and row counts
func (h *APIHandler) Status(w http.ResponseWriter, r *http.Request) {
	h.mu.Lock()
	defer h.mu.Unlock()

	counts, err := h.Session.DatasetCounts(r.Context())
	if err != nil {
		log.Printf("Status error: %v", err)
		respondJSON(w, http.StatusInternalServerError, map[string]string{
			"error": "Could not read dataset counts",
		})
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"ready":  h.Session.Ready(),
		"status": h.Session.Status(),
		"counts": counts,
		"ai":     h.Session.AIEnabled(),
	})
}

// Schema returns the dataset schema description
func (h *APIHandler) Schema(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]string{
		"schema": h.Session.SchemaText(),
	})
}

// respondJSON is a helper function to send JSON responses
func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		log.Printf("JSON encoding error: %v", err)
	}
}
