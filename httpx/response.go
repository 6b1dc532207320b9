// Package httpx holds the small JSON response helpers shared by all API handlers.
package httpx

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
)

// Error codes returned in ErrorResponse.Error.
const (
	CodeValidationFailed = "validation_failed"
	CodeInvalidJSON      = "invalid_json"
	CodeNotFound         = "not_found"
	CodeInternal         = "internal_error"
	CodeMethodNotAllowed = "method_not_allowed"
)

// maxBodyBytes caps request bodies read by DecodeJSON.
const maxBodyBytes = 1 << 20

type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
	Details any    `json:"details,omitempty"`
}

func JSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	var body []byte
	var err error
	if payload != nil {
		body, err = json.Marshal(payload)
		if err != nil {
			// avoid writing partial JSON
			http.Error(w, `{"error":"encode_error"}`, http.StatusInternalServerError)
			return
		}
	} else {
		body = []byte("null")
	}
	w.WriteHeader(status)
	_, _ = w.Write(body)
}

func JSONError(w http.ResponseWriter, status int, code string, details any) {
	JSON(w, status, ErrorResponse{Error: code, Details: details})
}

// ValidationFailed writes a 400 with the per-field violations.
func ValidationFailed(w http.ResponseWriter, details any) {
	JSONError(w, http.StatusBadRequest, CodeValidationFailed, details)
}

// NotFound writes a 404 carrying a human readable message.
func NotFound(w http.ResponseWriter, msg string) {
	JSON(w, http.StatusNotFound, ErrorResponse{Error: CodeNotFound, Message: msg})
}

// Internal writes a generic 500; the cause is never echoed to the client.
func Internal(w http.ResponseWriter, msg string) {
	JSON(w, http.StatusInternalServerError, ErrorResponse{Error: CodeInternal, Message: msg})
}

// DecodeJSON decodes a single JSON document from the request body into dst.
// An empty body is reported as io.EOF so callers can decide whether it is allowed.
func DecodeJSON(r *http.Request, dst any) error {
	if r.Body == nil {
		return io.EOF
	}
	dec := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes))
	if err := dec.Decode(dst); err != nil {
		return err
	}
	if dec.More() {
		return errors.New("unexpected trailing data")
	}
	return nil
}
