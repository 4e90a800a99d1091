package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/CodeLinkIO/tts-annotation-tool/internal/services"
)

// WriteJSON encodes payload with the given status code.
func WriteJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

// WriteError renders err as {"error": "..."} using the status its marker maps to.
func WriteError(w http.ResponseWriter, err error) {
	if err == nil {
		err = errors.New("unknown error")
	}
	WriteJSON(w, services.HTTPStatus(err), ErrorResponse{Error: err.Error()})
}

// WriteMessage renders a plain error string with an explicit status.
func WriteMessage(w http.ResponseWriter, status int, message string) {
	WriteJSON(w, status, ErrorResponse{Error: message})
}
