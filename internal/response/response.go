// Package response implements the envelope every API result is wrapped in:
//
//	{"data": ..., "message": "...", "success": true, "status": 200}
//
// Success and failure share one shape, so clients always read the same four
// fields. The HTTP status line and the "status" field always agree.
package response

import (
	"encoding/json"
	"net/http"
)

type Envelope[T any] struct {
	Data    T      `json:"data"`
	Message string `json:"message"`
	Success bool   `json:"success"`
	Status  int    `json:"status"`
}

// OK wraps data in a successful 200 envelope.
func OK[T any](data T, message string) *Envelope[T] {
	return &Envelope[T]{
		Data:    data,
		Message: message,
		Success: true,
		Status:  http.StatusOK,
	}
}

// Fail builds an error envelope. Data is always null.
func Fail(status int, message string) *Envelope[any] {
	return &Envelope[any]{
		Message: message,
		Success: false,
		Status:  status,
	}
}

// WithStatus overrides the status code, e.g. 201 for creations.
func (e *Envelope[T]) WithStatus(code int) *Envelope[T] {
	e.Status = code
	return e
}

// Write sends the envelope. Headers go out before the body, so an encoding
// error can only be reported to the caller, not to the client.
func (e *Envelope[T]) Write(w http.ResponseWriter) error {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(e.Status)
	return json.NewEncoder(w).Encode(e)
}
