package handlers

import (
	"encoding/json"
	"net/http"
	"strings"
)

// APIResponse is the JSON envelope returned by every non-streaming endpoint
type APIResponse struct {
	Code         int    `json:"code"`
	Data         any    `json:"data,omitempty"`
	ErrorMessage string `json:"errorMessage,omitempty"`
}

// writeResult writes a successful response wrapped in the standard envelope
func writeResult(w http.ResponseWriter, data any) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(APIResponse{Code: http.StatusOK, Data: data})
}

// writeError writes an error response wrapped in the standard envelope
func writeError(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(APIResponse{Code: status, ErrorMessage: message})
}

// statusForError maps service-layer errors onto HTTP status codes
func statusForError(err error) int {
	msg := err.Error()
	switch {
	case strings.Contains(msg, "unauthorized"):
		return http.StatusForbidden
	case strings.Contains(msg, "not found"):
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}
