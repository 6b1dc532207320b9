package handlers

import (
	"errors"
	"io"
	"net/http"

	"github.com/diewo77/fawater/httpx"
	"github.com/diewo77/fawater/internal/logger"
	"github.com/diewo77/fawater/internal/services"
	"github.com/diewo77/fawater/validation"
)

// writeError maps service errors onto the API error envelope. Unexpected
// errors are logged and answered with failMsg only.
func writeError(w http.ResponseWriter, r *http.Request, err error, notFoundMsg, failMsg string) {
	var ve *services.ValidationError
	switch {
	case errors.As(err, &ve):
		httpx.ValidationFailed(w, ve.Fields)
	case errors.Is(err, services.ErrNotFound):
		httpx.NotFound(w, notFoundMsg)
	case errors.Is(err, services.ErrCustomerHasInvoices):
		httpx.ValidationFailed(w, validation.Violations{"id": "customer_has_invoices"})
	default:
		l := logger.WithComponent("http")
		l.Error().Err(err).Str("method", r.Method).Str("path", r.URL.Path).Msg(failMsg)
		httpx.Internal(w, failMsg)
	}
}

// decode reads the JSON body into dst and answers 400 invalid_json on failure.
func decode(w http.ResponseWriter, r *http.Request, dst any) bool {
	if err := httpx.DecodeJSON(r, dst); err != nil {
		if errors.Is(err, io.EOF) {
			httpx.JSONError(w, http.StatusBadRequest, httpx.CodeInvalidJSON, map[string]string{"body": "required"})
			return false
		}
		httpx.JSONError(w, http.StatusBadRequest, httpx.CodeInvalidJSON, nil)
		return false
	}
	return true
}

type message struct {
	Message string `json:"message"`
}
