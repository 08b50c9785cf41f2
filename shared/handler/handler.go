// Package handler provides the net/http middleware chain and JSON response
// helpers shared by HTTP adapters.
package handler

import (
	"encoding/json"
	"net/http"
)

// Middleware wraps an http.Handler to add a cross-cutting concern.
type Middleware func(next http.Handler) http.Handler

// Chain applies middlewares so the first one listed is the outermost.
func Chain(h http.Handler, middlewares ...Middleware) http.Handler {
	for i := len(middlewares) - 1; i >= 0; i-- {
		h = middlewares[i](h)
	}
	return h
}

// ErrorResponse is the body written for failures that are not part of a
// route's own contract (panics, unknown routes).
type ErrorResponse struct {
	Message string `json:"message"`
}

// WriteJSON writes v as a JSON response with the given status code.
// HTML escaping is disabled so non-ASCII and markup characters in titles
// reach clients verbatim.
func WriteJSON(w http.ResponseWriter, status int, v interface{}) error {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)

	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	return enc.Encode(v)
}

// WriteError writes an ErrorResponse with the given status code.
func WriteError(w http.ResponseWriter, status int, message string) error {
	return WriteJSON(w, status, ErrorResponse{Message: message})
}
