// Package api provides the HTTP API handlers for driving a detection session.
package api

import (
	"errors"
	"net/http"

	jsoniter "github.com/json-iterator/go"

	"github.com/ayusman/cardsight/internal/capture"
	"github.com/ayusman/cardsight/internal/hands"
	"github.com/ayusman/cardsight/internal/recognition"
	"github.com/ayusman/cardsight/internal/session"
	"github.com/ayusman/cardsight/internal/store"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

type errorResponse struct {
	Error string `json:"error"`
}

// writeJSON writes a JSON response with the given status code.
func writeJSON(w http.ResponseWriter, status int, data interface{}) {
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

// statusFor maps domain errors to HTTP status codes.
func statusFor(err error) int {
	switch {
	case errors.Is(err, session.ErrInvalidState):
		return http.StatusConflict
	case errors.Is(err, hands.ErrInvalidPlayerCount):
		return http.StatusBadRequest
	case errors.Is(err, capture.ErrSourceUnavailable), errors.Is(err, capture.ErrCameraNotOpen):
		return http.StatusServiceUnavailable
	case errors.Is(err, recognition.ErrTransport), errors.Is(err, recognition.ErrBackendRejected):
		return http.StatusBadGateway
	case errors.Is(err, store.ErrNotFound):
		return http.StatusNotFound
	}
	return http.StatusInternalServerError
}

// writeErr writes err with the status mapped from its kind.
func writeErr(w http.ResponseWriter, err error) {
	writeError(w, statusFor(err), err.Error())
}
