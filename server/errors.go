package server

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/poiesic/sosai/auth"
	"github.com/poiesic/sosai/core"
	"github.com/poiesic/sosai/speech"
	"github.com/poiesic/sosai/storage"
)

var (
	// ErrBadRequest marks malformed request bodies.
	ErrBadRequest = errors.New("invalid request body")

	// ErrUnavailable marks a feature that is not configured.
	ErrUnavailable = errors.New("service not configured")

	// ErrRetrieverRequired is returned by New without a retriever.
	ErrRetrieverRequired = errors.New("retriever required")
)

type statusMapping struct {
	err     error
	status  int
	message string
}

// Order matters: the first match wins.
var statusMappings = []statusMapping{
	{ErrBadRequest, http.StatusBadRequest, ""},
	{core.ErrEmptyQuery, http.StatusBadRequest, "question is required"},
	{speech.ErrEmptyText, http.StatusBadRequest, "text is required"},
	{core.ErrInvalidEmail, http.StatusBadRequest, ""},
	{core.ErrInvalidPassword, http.StatusBadRequest, ""},
	{core.ErrInvalidName, http.StatusBadRequest, ""},
	{auth.ErrMissingToken, http.StatusUnauthorized, "Missing token"},
	{auth.ErrInvalidToken, http.StatusUnauthorized, "Invalid token"},
	{auth.ErrInvalidCredentials, http.StatusUnauthorized, "Invalid credentials"},
	{auth.ErrEmailTaken, http.StatusConflict, "Email already exists"},
	{storage.ErrNotFound, http.StatusNotFound, "not found"},
	{core.ErrCorpusUnavailable, http.StatusServiceUnavailable, ""},
	{core.ErrCorpusLoad, http.StatusServiceUnavailable, "corpus unavailable"},
	{ErrUnavailable, http.StatusServiceUnavailable, ""},
}

// writeError maps err to a status code and writes an error document.
// Unmapped errors become 500 with the detail logged, not returned.
func writeError(w http.ResponseWriter, logger *slog.Logger, err error) {
	for _, m := range statusMappings {
		if errors.Is(err, m.err) {
			msg := m.message
			if msg == "" {
				msg = err.Error()
			}
			if m.status >= http.StatusInternalServerError {
				logger.Warn("request failed", "status", m.status, "err", err)
			}
			writeJSON(w, m.status, errorResponse{Error: msg})
			return
		}
	}
	logger.Error("request failed", "err", err)
	writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "internal server error"})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
