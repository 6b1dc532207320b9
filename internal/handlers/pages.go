package handlers

import (
	"errors"
	"net/http"

	"github.com/diewo77/fawater/internal/logger"
	"github.com/diewo77/fawater/internal/services"
	"github.com/diewo77/fawater/internal/view"
)

// PageHandler serves the printable HTML pages.
type PageHandler struct {
	customers *services.CustomerService
	invoices  *services.InvoiceService
}

func NewPageHandler(customers *services.CustomerService, invoices *services.InvoiceService) *PageHandler {
	return &PageHandler{customers: customers, invoices: invoices}
}

// InvoicePrint: GET /invoices/{id}/print
func (h *PageHandler) InvoicePrint(w http.ResponseWriter, r *http.Request) {
	inv, err := h.invoices.Get(r.Context(), r.PathValue("id"))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	if err := view.Render(w, r, "invoice_print.html", map[string]any{"Invoice": inv}); err != nil {
		h.fail(w, r, err)
	}
}

// Statement: GET /customers/{id}/statement
func (h *PageHandler) Statement(w http.ResponseWriter, r *http.Request) {
	acc, err := h.customers.Account(r.Context(), r.PathValue("id"))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	if err := view.Render(w, r, "statement.html", map[string]any{"Account": acc}); err != nil {
		h.fail(w, r, err)
	}
}

func (h *PageHandler) fail(w http.ResponseWriter, r *http.Request, err error) {
	if errors.Is(err, services.ErrNotFound) {
		http.NotFound(w, r)
		return
	}
	l := logger.WithComponent("pages")
	l.Error().Err(err).Str("path", r.URL.Path).Msg("render page")
	http.Error(w, "Failed to render page", http.StatusInternalServerError)
}
