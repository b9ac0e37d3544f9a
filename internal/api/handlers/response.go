package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/isdelr/postboard-be/internal/auth"
	"github.com/isdelr/postboard-be/internal/services"
	"github.com/rs/zerolog/log"
)

// writeJSON encodes v with the given status.
func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Error().Err(err).Msg("Failed to encode response")
	}
}

// writeError maps a service error onto a status code and JSON body.
// Unexpected errors are logged and answered with 500.
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	var svcErr *services.Error
	if errors.As(err, &svcErr) {
		status := http.StatusBadRequest
		switch svcErr.Kind {
		case services.KindNotFound:
			status = http.StatusNotFound
		case services.KindUnauthorized:
			status = http.StatusUnauthorized
		}
		writeJSON(w, status, svcErr.Fields)
		return
	}

	log.Error().Err(err).Str("method", r.Method).Str("path", r.URL.Path).Msg("Request failed")
	writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "Internal server error"})
}

// decode reads a JSON body into v, answering 400 on failure.
func decode(w http.ResponseWriter, r *http.Request, v interface{}) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "Invalid request body"})
		return false
	}
	return true
}

// principal returns the caller attached by auth.Middleware.
func principal(w http.ResponseWriter, r *http.Request) (auth.Principal, bool) {
	p, ok := auth.PrincipalFrom(r.Context())
	if !ok {
		log.Error().Str("path", r.URL.Path).Msg("Could not retrieve principal from context")
		writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "Unauthorized"})
	}
	return p, ok
}
