package main

import (
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

// ServerConfig holds configuration for the web server
type ServerConfig struct {
	Port    int
	Session *Session
	DataDir string
}

// StartServer initializes and starts the HTTP server
func StartServer(config ServerConfig) error {
	r := chi.NewRouter()

	// Middleware
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(60 * time.Second))

	// Web handlers (HTML responses)
	webHandler := NewWebHandler(config.Session)
	r.Get("/", webHandler.Home)

	// API handlers (JSON responses)
	apiHandler := &APIHandler{Session: config.Session}
	r.Route("/api", func(r chi.Router) {
		r.Post("/ingest", apiHandler.Ingest)
		r.Post("/ask", apiHandler.Ask)
		r.Get("/status", apiHandler.Status)
		r.Get("/schema", apiHandler.Schema)
	})

	addr := fmt.Sprintf(":%d", config.Port)
	log.Printf("Starting server on http://localhost%s", addr)
	return http.ListenAndServe(addr, r)
}
