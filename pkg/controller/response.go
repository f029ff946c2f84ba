package controller

import (
	"encoding/json"
	"net/http"

	"duesbook/pkg/logger"

	"go.uber.org/zap"
)

// ErrorBody is the JSON body of every error response.
type ErrorBody struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// WriteJSON writes v as JSON with the given status code.
func WriteJSON(w http.ResponseWriter, r *http.Request, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(v); err != nil {
		logger.Warn(r.Context(), "could not write response body", zap.Error(err))
	}
}

// WriteError writes an ErrorBody with the given status code.
func WriteError(w http.ResponseWriter, r *http.Request, status int, code, message string) {
	WriteJSON(w, r, status, ErrorBody{Code: code, Message: message})
}
