package handlers

import (
	"encoding/json"
	"errors"
	"html/template"
	"net/http"

	"github.com/rs/zerolog/log"

	"github.com/saltyorg/panelcore/internal/core"
	"github.com/saltyorg/panelcore/internal/database"
)

// Handlers contains all HTTP handlers
type Handlers struct {
	reporter  core.Reporter
	errorPage *template.Template
}

// New creates a new Handlers instance. errorPage renders fatal database
// errors with their message and stack trace.
func New(reporter core.Reporter, errorPage *template.Template) *Handlers {
	return &Handlers{
		reporter:  reporter,
		errorPage: errorPage,
	}
}

// Version returns the panel release version
func (h *Handlers) Version(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, http.StatusOK, map[string]string{"version": h.reporter.StatusVersion(r.Context())})
}

// APIVersion returns the API version
func (h *Handlers) APIVersion(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, http.StatusOK, map[string]string{"api_version": h.reporter.StatusAPIVersion(r.Context())})
}

// Update reports whether a newer release is available
func (h *Handlers) Update(w http.ResponseWriter, r *http.Request) {
	status, err := h.reporter.StatusUpdate(r.Context())
	if err != nil {
		log.Warn().Err(err).Msg("Update check failed")
		h.jsonError(w, "update check failed", http.StatusBadGateway)
		return
	}
	h.writeJSON(w, http.StatusOK, status)
}

// System returns system information
func (h *Handlers) System(w http.ResponseWriter, r *http.Request) {
	info, err := h.reporter.StatusSystem(r.Context())
	if err != nil {
		h.databaseError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, info)
}

// Health is a liveness probe that never touches the database
func (h *Handlers) Health(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

type errorPageData struct {
	Text  string
	Debug string
}

// databaseError renders the error page for fatal database failures and a
// JSON error for everything else.
func (h *Handlers) databaseError(w http.ResponseWriter, err error) {
	var dbErr *database.Error
	if !errors.As(err, &dbErr) || dbErr.Severity != database.SeverityFatal {
		log.Error().Err(err).Msg("Request failed")
		h.jsonError(w, "internal error", http.StatusInternalServerError)
		return
	}

	data := errorPageData{
		Text:  dbErr.Err.Error(),
		Debug: dbErr.Trace,
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusInternalServerError)
	if h.errorPage == nil {
		_, _ = w.Write([]byte(template.HTMLEscapeString(database.ShellMessage)))
		return
	}
	if err := h.errorPage.Execute(w, data); err != nil {
		log.Error().Err(err).Msg("Failed to render database error page")
	}
}

func (h *Handlers) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Debug().Err(err).Msg("Failed to write JSON response")
	}
}

// jsonError sends a JSON error response
func (h *Handlers) jsonError(w http.ResponseWriter, message string, status int) {
	h.writeJSON(w, status, map[string]string{"error": message})
}
