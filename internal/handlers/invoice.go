package handlers

import (
	"net/http"

	"github.com/diewo77/fawater/httpx"
	"github.com/diewo77/fawater/internal/middleware"
	"github.com/diewo77/fawater/internal/models"
	"github.com/diewo77/fawater/internal/pdf"
	"github.com/diewo77/fawater/internal/repository"
	"github.com/diewo77/fawater/internal/services"
	"github.com/diewo77/fawater/validation"
)

// InvoiceHandler serves /api/invoices.
type InvoiceHandler struct {
	svc     *services.InvoiceService
	pdfFont string
}

// NewInvoiceHandler builds the handler. pdfFont is an optional TrueType font
// used for the PDF export.
func NewInvoiceHandler(svc *services.InvoiceService, pdfFont string) *InvoiceHandler {
	return &InvoiceHandler{svc: svc, pdfFont: pdfFont}
}

// List: GET /api/invoices?customerId=&status=&type=
func (h *InvoiceHandler) List(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	f := repository.InvoiceFilter{
		CustomerID: q.Get("customerId"),
		Status:     models.InvoiceStatus(q.Get("status")),
		Type:       models.InvoiceType(q.Get("type")),
	}
	v := validation.Violations{}
	if f.Status != "" {
		validation.OneOf("status", string(f.Status), models.InvoiceStatuses, v)
	}
	if f.Type != "" {
		validation.OneOf("type", string(f.Type), models.InvoiceTypes, v)
	}
	if !v.Empty() {
		httpx.ValidationFailed(w, v)
		return
	}
	invoices, err := h.svc.List(r.Context(), f)
	if err != nil {
		writeError(w, r, err, "", "Failed to fetch invoices")
		return
	}
	httpx.JSON(w, http.StatusOK, invoices)
}

// Get: GET /api/invoices/{id}
func (h *InvoiceHandler) Get(w http.ResponseWriter, r *http.Request) {
	inv, err := h.svc.Get(r.Context(), r.PathValue("id"))
	if err != nil {
		writeError(w, r, err, "Invoice not found", "Failed to fetch invoice")
		return
	}
	httpx.JSON(w, http.StatusOK, inv)
}

// Create: POST /api/invoices
func (h *InvoiceHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req services.CreateInvoiceRequest
	if !decode(w, r, &req) {
		return
	}
	inv, err := h.svc.Create(r.Context(), req)
	if err != nil {
		writeError(w, r, err, "", "Failed to create invoice")
		return
	}
	httpx.JSON(w, http.StatusCreated, inv)
}

// Preview: POST /api/invoices/preview computes totals without saving.
func (h *InvoiceHandler) Preview(w http.ResponseWriter, r *http.Request) {
	var req services.CreateInvoiceRequest
	if !decode(w, r, &req) {
		return
	}
	httpx.JSON(w, http.StatusOK, h.svc.Preview(req))
}

// Update: PUT /api/invoices/{id}
func (h *InvoiceHandler) Update(w http.ResponseWriter, r *http.Request) {
	var p services.InvoicePatch
	if !decode(w, r, &p) {
		return
	}
	inv, err := h.svc.Update(r.Context(), r.PathValue("id"), p)
	if err != nil {
		writeError(w, r, err, "Invoice not found", "Failed to update invoice")
		return
	}
	httpx.JSON(w, http.StatusOK, inv)
}

// Delete: DELETE /api/invoices/{id}
func (h *InvoiceHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if err := h.svc.Delete(r.Context(), r.PathValue("id")); err != nil {
		writeError(w, r, err, "Invoice not found", "Failed to delete invoice")
		return
	}
	httpx.JSON(w, http.StatusOK, message{Message: "Invoice deleted successfully"})
}

// PDF: GET /api/invoices/{id}/pdf
func (h *InvoiceHandler) PDF(w http.ResponseWriter, r *http.Request) {
	inv, err := h.svc.Get(r.Context(), r.PathValue("id"))
	if err != nil {
		writeError(w, r, err, "Invoice not found", "Failed to generate PDF")
		return
	}
	data, err := pdf.InvoicePDF(inv, pdf.Options{
		Currency: middleware.CurrencyFrom(r),
		Lang:     middleware.LangFrom(r),
		FontPath: h.pdfFont,
	})
	if err != nil {
		writeError(w, r, err, "", "Failed to generate PDF")
		return
	}
	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", "attachment; filename=\"invoice-"+inv.Number+".pdf\"")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}

// Stats: GET /api/dashboard/stats
func (h *InvoiceHandler) Stats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.svc.DashboardStats(r.Context())
	if err != nil {
		writeError(w, r, err, "", "Failed to fetch dashboard stats")
		return
	}
	httpx.JSON(w, http.StatusOK, stats)
}
