package main

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"parkspot/internal/reservation"
)

// idParam reads a positive int64 URL parameter. A malformed id is reported
// as a validation failure on that parameter.
func idParam(r *http.Request, name, field string) (int64, error) {
	id, err := strconv.ParseInt(chi.URLParam(r, name), 10, 64)
	if err != nil || id <= 0 {
		return 0, &reservation.ValidationError{Field: field, Message: "must be a positive integer"}
	}
	return id, nil
}

// intQuery reads an optional integer query parameter.
func intQuery(r *http.Request, key, field string, fallback int) (int, error) {
	raw := strings.TrimSpace(r.URL.Query().Get(key))
	if raw == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, &reservation.ValidationError{Field: field, Message: "must be an integer"}
	}
	return n, nil
}
