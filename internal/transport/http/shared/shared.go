// Package shared centralizes JSON envelopes so every handler answers with
// the same shape.
package shared

import (
	"encoding/json"
	"net/http"

	"playpass/pkg/domainerrors"
)

// WriteJSON renders v with the given status.
func WriteJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// WriteError translates a domain error into the JSON error envelope.
// Non-domain errors render as internal without leaking details.
func WriteError(w http.ResponseWriter, err error) {
	code := domainerrors.CodeOf(err)
	WriteJSON(w, domainerrors.ToHTTPStatus(code), map[string]string{
		"error":   string(code),
		"message": domainerrors.MessageOf(err),
	})
}
