// Package handlers provides HTTP handlers for the web API.
package handlers

import (
	"encoding/json"
	"io"
	"net/http"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/kozaktomas/expression-tracker/internal/constants"
)

// errInvalidRequestBody is a shared error message for invalid JSON request bodies.
const errInvalidRequestBody = "invalid request body"

const maxBodySize = constants.MaxRequestBodySize

// sanitizeForLog removes newlines and carriage returns to prevent log injection.
func sanitizeForLog(s string) string {
	return strings.NewReplacer("\n", "", "\r", "").Replace(s)
}

// respondJSON sends a JSON response.
func respondJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if data != nil {
		json.NewEncoder(w).Encode(data)
	}
}

// respondError sends an error response.
func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, map[string]string{"error": message})
}

// decodeJSON reads a bounded JSON body into v, rejecting unknown fields.
func decodeJSON(r *http.Request, v any) error {
	dec := json.NewDecoder(io.LimitReader(r.Body, maxBodySize))
	dec.DisallowUnknownFields()
	return dec.Decode(v)
}

// componentLogger returns a logger entry tagged with the handler name. A nil logger discards.
func componentLogger(logger *logrus.Logger, name string) *logrus.Entry {
	if logger == nil {
		logger = logrus.New()
		logger.SetOutput(io.Discard)
	}
	return logger.WithField("handler", name)
}
