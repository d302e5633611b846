package main

import (
	"html/template"
	"log"
	"net/http"
)

// WebHandler handles browser page requests
type WebHandler struct {
	Session   *Session
	templates *template.Template
}

// NewWebHandler creates a new WebHandler with parsed templates
func NewWebHandler(session *Session) *WebHandler {
	tmpl := template.Must(template.ParseGlob("templates/*.html"))
	return &WebHandler{
		Session:   session,
		templates: tmpl,
	}
}

// Home renders the single-page interface
func (h *WebHandler) Home(w http.ResponseWriter, r *http.Request) {
	data := map[string]interface{}{
		"Title":     "AdLens",
		"Ready":     h.Session.Ready(),
		"Status":    h.Session.Status(),
		"AIEnabled": h.Session.AIEnabled(),
	}

	if err := h.templates.ExecuteTemplate(w, "index.html", data); err != nil {
		log.Printf("Template error: %v", err)
		http.Error(w, "Internal server error", http.StatusInternalServerError)
	}
}
