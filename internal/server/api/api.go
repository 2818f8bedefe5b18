// Package api provides HTTP API handlers for the abhinaya cursor controller.
package api

import (
	"encoding/json"
	"net/http"

	"github.com/ayusman/abhinaya/internal/session"
)

// Controller is the part of session.Controller the API drives.
type Controller interface {
	Status() session.Status
	Recalibrate()
	Pause() error
	Resume() error
	ToggleKeyboard() bool
	PressKey(key string) error
}

type errorResponse struct {
	Error string `json:"error"`
}

// writeJSON writes a JSON response with the given status code.
func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if data != nil {
		json.NewEncoder(w).Encode(data)
	}
}

// writeError writes a JSON error response.
func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, errorResponse{Error: message})
}
