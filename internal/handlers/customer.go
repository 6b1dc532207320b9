package handlers

import (
	"net/http"

	"github.com/diewo77/fawater/httpx"
	"github.com/diewo77/fawater/internal/services"
)

// CustomerHandler serves /api/customers.
type CustomerHandler struct {
	svc *services.CustomerService
}

func NewCustomerHandler(svc *services.CustomerService) *CustomerHandler {
	return &CustomerHandler{svc: svc}
}

// List: GET /api/customers
func (h *CustomerHandler) List(w http.ResponseWriter, r *http.Request) {
	customers, err := h.svc.List(r.Context())
	if err != nil {
		writeError(w, r, err, "", "Failed to fetch customers")
		return
	}
	httpx.JSON(w, http.StatusOK, customers)
}

// WithStats: GET /api/customers/with-stats
func (h *CustomerHandler) WithStats(w http.ResponseWriter, r *http.Request) {
	rows, err := h.svc.ListWithStats(r.Context())
	if err != nil {
		writeError(w, r, err, "", "Failed to fetch customers with stats")
		return
	}
	httpx.JSON(w, http.StatusOK, rows)
}

// Get: GET /api/customers/{id}
func (h *CustomerHandler) Get(w http.ResponseWriter, r *http.Request) {
	c, err := h.svc.Get(r.Context(), r.PathValue("id"))
	if err != nil {
		writeError(w, r, err, "Customer not found", "Failed to fetch customer")
		return
	}
	httpx.JSON(w, http.StatusOK, c)
}

// Account: GET /api/customers/{id}/account
func (h *CustomerHandler) Account(w http.ResponseWriter, r *http.Request) {
	acc, err := h.svc.Account(r.Context(), r.PathValue("id"))
	if err != nil {
		writeError(w, r, err, "Customer not found", "Failed to fetch customer account")
		return
	}
	httpx.JSON(w, http.StatusOK, acc)
}

// LastReading: GET /api/customers/{id}/last-reading
func (h *CustomerHandler) LastReading(w http.ResponseWriter, r *http.Request) {
	lr, err := h.svc.LastReading(r.Context(), r.PathValue("id"))
	if err != nil {
		writeError(w, r, err, "Customer not found", "Failed to fetch last reading")
		return
	}
	httpx.JSON(w, http.StatusOK, lr)
}

// Create: POST /api/customers
func (h *CustomerHandler) Create(w http.ResponseWriter, r *http.Request) {
	var in services.CustomerInput
	if !decode(w, r, &in) {
		return
	}
	c, err := h.svc.Create(r.Context(), in)
	if err != nil {
		writeError(w, r, err, "", "Failed to create customer")
		return
	}
	httpx.JSON(w, http.StatusCreated, c)
}

// Update: PUT /api/customers/{id}
func (h *CustomerHandler) Update(w http.ResponseWriter, r *http.Request) {
	var p services.CustomerPatch
	if !decode(w, r, &p) {
		return
	}
	c, err := h.svc.Update(r.Context(), r.PathValue("id"), p)
	if err != nil {
		writeError(w, r, err, "Customer not found", "Failed to update customer")
		return
	}
	httpx.JSON(w, http.StatusOK, c)
}

// Delete: DELETE /api/customers/{id}
func (h *CustomerHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if err := h.svc.Delete(r.Context(), r.PathValue("id")); err != nil {
		writeError(w, r, err, "Customer not found", "Failed to delete customer")
		return
	}
	httpx.JSON(w, http.StatusOK, message{Message: "Customer deleted successfully"})
}
