// Package common provides shared response and request helpers for the
// API feature packages.
package common

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
)

// envelope matches the original API's base response shape.
type envelope struct {
	Status  string `json:"status"`
	Message string `json:"message"`
}

// JSON writes v as a JSON response with the given status code.
func JSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// Error writes an error envelope.
func Error(w http.ResponseWriter, status int, message string) {
	JSON(w, status, envelope{Status: "error", Message: message})
}

// Message writes a success envelope without a payload.
func Message(w http.ResponseWriter, status int, message string) {
	JSON(w, status, envelope{Status: "success", Message: message})
}

// Decode reads the request body into dst, rejecting unknown fields.
func Decode(r *http.Request, dst any) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		return fmt.Errorf("invalid request body: %w", err)
	}
	return nil
}

// NotFound distinguishes missing rows from other store failures and
// writes the matching response.
func NotFound(w http.ResponseWriter, err error, notFoundErr error, resource string) {
	if errors.Is(err, notFoundErr) {
		Error(w, http.StatusNotFound, resource+" not found")
		return
	}
	Error(w, http.StatusInternalServerError, err.Error())
}
