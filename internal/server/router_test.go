package server

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/diewo77/fawater/internal/config"
	"github.com/diewo77/fawater/internal/db"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func setupRouter(t *testing.T) http.Handler {
	t.Helper()
	dbi, err := gorm.Open(sqlite.Open(fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())), &gorm.Config{DisableForeignKeyConstraintWhenMigrating: true})
	if err != nil {
		t.Fatalf("db open: %v", err)
	}
	if err := dbi.AutoMigrate(db.Models()...); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return New(dbi, config.Config{})
}

func do(t *testing.T, h http.Handler, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var r *http.Request
	if body == "" {
		r = httptest.NewRequest(method, path, nil)
	} else {
		r = httptest.NewRequest(method, path, strings.NewReader(body))
		r.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	h.ServeHTTP(w, r)
	return w
}

func decodeBody(t *testing.T, w *httptest.ResponseRecorder, dst any) {
	t.Helper()
	if err := json.Unmarshal(w.Body.Bytes(), dst); err != nil {
		t.Fatalf("decode %q: %v", w.Body.String(), err)
	}
}

func TestHealthz(t *testing.T) {
	h := setupRouter(t)
	for _, p := range []string{"/health", "/healthz"} {
		if w := do(t, h, http.MethodGet, p, ""); w.Code != http.StatusOK {
			t.Fatalf("%s: expected 200 got %d", p, w.Code)
		}
	}
}

func TestMethodNotAllowed(t *testing.T) {
	h := setupRouter(t)
	w := do(t, h, http.MethodPatch, "/api/customers", "")
	if w.Code != http.StatusMethodNotAllowed {
		t.Fatalf("expected 405 got %d", w.Code)
	}
	if w.Header().Get("Allow") != "GET,POST" {
		t.Fatalf("unexpected Allow header %q", w.Header().Get("Allow"))
	}
	if !strings.Contains(w.Body.String(), "method_not_allowed") {
		t.Fatalf("expected JSON error body, got %s", w.Body.String())
	}
}

func TestUnknownAPIRoute(t *testing.T) {
	h := setupRouter(t)
	w := do(t, h, http.MethodGet, "/api/nope", "")
	if w.Code != http.StatusNotFound || !strings.Contains(w.Body.String(), "not_found") {
		t.Fatalf("expected JSON 404 got %d %s", w.Code, w.Body.String())
	}
}

func TestInvoiceLifecycle(t *testing.T) {
	h := setupRouter(t)

	w := do(t, h, http.MethodPost, "/api/customers", `{"name":"أحمد محمد","phone":"777123456","meterNumber":"M-9"}`)
	if w.Code != http.StatusCreated {
		t.Fatalf("create customer: %d %s", w.Code, w.Body.String())
	}
	var c struct {
		ID      string `json:"id"`
		Balance string `json:"balance"`
	}
	decodeBody(t, w, &c)
	if c.Balance != "0.00" {
		t.Fatalf("expected zero balance got %s", c.Balance)
	}

	body := fmt.Sprintf(`{"invoice":{"customerId":%q,"date":"2024-03-01","type":"commercial","total":"1"},
		"items":[{"description":"عداد","previousReading":100,"currentReading":"150","unitPrice":"2"}]}`, c.ID)
	w = do(t, h, http.MethodPost, "/api/invoices", body)
	if w.Code != http.StatusCreated {
		t.Fatalf("create invoice: %d %s", w.Code, w.Body.String())
	}
	var inv struct {
		ID     string `json:"id"`
		Number string `json:"number"`
		Total  string `json:"total"`
		Items  []struct {
			Price string `json:"price"`
		} `json:"items"`
	}
	decodeBody(t, w, &inv)
	if inv.Total != "100.00" || inv.Number != "INV-2024-001" || len(inv.Items) != 1 || inv.Items[0].Price != "100.00" {
		t.Fatalf("unexpected invoice %+v", inv)
	}

	w = do(t, h, http.MethodGet, "/api/customers/"+c.ID+"/last-reading", "")
	if w.Code != http.StatusOK || !strings.Contains(w.Body.String(), `"previousReading":"150"`) {
		t.Fatalf("last reading: %d %s", w.Code, w.Body.String())
	}

	w = do(t, h, http.MethodGet, "/api/customers/"+c.ID, "")
	decodeBody(t, w, &c)
	if c.Balance != "100.00" {
		t.Fatalf("expected balance 100.00 got %s", c.Balance)
	}

	w = do(t, h, http.MethodGet, "/api/invoices?status=pending&customerId="+c.ID, "")
	var list []map[string]any
	decodeBody(t, w, &list)
	if len(list) != 1 {
		t.Fatalf("expected one pending invoice, got %d", len(list))
	}

	w = do(t, h, http.MethodPut, "/api/invoices/"+inv.ID, `{"status":"paid"}`)
	if w.Code != http.StatusOK || !strings.Contains(w.Body.String(), `"status":"paid"`) {
		t.Fatalf("update: %d %s", w.Code, w.Body.String())
	}

	w = do(t, h, http.MethodGet, "/api/dashboard/stats", "")
	var stats map[string]any
	decodeBody(t, w, &stats)
	if stats["totalSales"] != "100.00" || stats["paidInvoices"] != float64(1) || stats["activeCustomers"] != float64(1) {
		t.Fatalf("unexpected stats %v", stats)
	}

	w = do(t, h, http.MethodGet, "/api/invoices/"+inv.ID+"/pdf", "")
	if w.Code != http.StatusOK || w.Header().Get("Content-Type") != "application/pdf" {
		t.Fatalf("pdf: %d %s", w.Code, w.Header().Get("Content-Type"))
	}

	w = do(t, h, http.MethodGet, "/invoices/"+inv.ID+"/print", "")
	if w.Code != http.StatusOK || !strings.Contains(w.Body.String(), "(150 - 100) × 2 = 100.00") {
		t.Fatalf("print: %d", w.Code)
	}
	w = do(t, h, http.MethodGet, "/customers/"+c.ID+"/statement?lang=en", "")
	if w.Code != http.StatusOK || !strings.Contains(w.Body.String(), "Customer account statement") {
		t.Fatalf("statement: %d", w.Code)
	}

	w = do(t, h, http.MethodDelete, "/api/customers/"+c.ID, "")
	if w.Code != http.StatusBadRequest || !strings.Contains(w.Body.String(), "customer_has_invoices") {
		t.Fatalf("expected customer_has_invoices got %d %s", w.Code, w.Body.String())
	}

	w = do(t, h, http.MethodDelete, "/api/invoices/"+inv.ID, "")
	if w.Code != http.StatusOK || !strings.Contains(w.Body.String(), "Invoice deleted successfully") {
		t.Fatalf("delete invoice: %d %s", w.Code, w.Body.String())
	}
	w = do(t, h, http.MethodGet, "/api/invoices/"+inv.ID, "")
	if w.Code != http.StatusNotFound {
		t.Fatalf("expected 404 got %d", w.Code)
	}
	w = do(t, h, http.MethodDelete, "/api/customers/"+c.ID, "")
	if w.Code != http.StatusOK {
		t.Fatalf("delete customer: %d %s", w.Code, w.Body.String())
	}
}

func TestValidationAndDecodeErrors(t *testing.T) {
	h := setupRouter(t)
	w := do(t, h, http.MethodPost, "/api/customers", `{"email":"bad"}`)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 got %d", w.Code)
	}
	var e struct {
		Error   string            `json:"error"`
		Details map[string]string `json:"details"`
	}
	decodeBody(t, w, &e)
	if e.Error != "validation_failed" || e.Details["name"] != "required" || e.Details["email"] != "invalid_email" {
		t.Fatalf("unexpected error body %+v", e)
	}

	w = do(t, h, http.MethodPost, "/api/invoices", `{"invoice":{"customerId":"c1","date":"2024-01-15"},
		"items":[{"description":"a","price":"0.005"},{"description":"b","price":100000000}]}`)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for amounts a decimal(10,2) column cannot hold, got %d %s", w.Code, w.Body.String())
	}
	decodeBody(t, w, &e)
	if e.Details["items.0.price"] != "too_many_decimals" || e.Details["items.1.price"] != "out_of_range" {
		t.Fatalf("unexpected amount violations %+v", e.Details)
	}

	w = do(t, h, http.MethodPost, "/api/invoices", `{"invoice":`)
	if w.Code != http.StatusBadRequest || !strings.Contains(w.Body.String(), "invalid_json") {
		t.Fatalf("expected invalid_json got %d %s", w.Code, w.Body.String())
	}

	w = do(t, h, http.MethodGet, "/api/invoices?type=gift", "")
	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for unknown type filter got %d", w.Code)
	}

	for _, p := range []string{"/api/customers/missing", "/api/customers/missing/account", "/api/invoices/missing/pdf"} {
		if w := do(t, h, http.MethodGet, p, ""); w.Code != http.StatusNotFound {
			t.Fatalf("%s: expected 404 got %d", p, w.Code)
		}
	}
	if w := do(t, h, http.MethodGet, "/invoices/missing/print", ""); w.Code != http.StatusNotFound {
		t.Fatalf("expected 404 page got %d", w.Code)
	}
}

func TestPreviewEndpoint(t *testing.T) {
	h := setupRouter(t)
	w := do(t, h, http.MethodPost, "/api/invoices/preview", `{"invoice":{"type":"monthly","discountPercent":"10"},"items":[{"price":"100"},{"price":"50"}]}`)
	if w.Code != http.StatusOK {
		t.Fatalf("preview: %d %s", w.Code, w.Body.String())
	}
	var p map[string]any
	decodeBody(t, w, &p)
	if p["subtotal"] != "150.00" || p["discountAmount"] != "15.00" || p["total"] != "135.00" {
		t.Fatalf("unexpected preview %v", p)
	}
}

func TestRecoverMiddleware(t *testing.T) {
	h := withRecover(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) { panic("boom") }))
	w := httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))
	if w.Code != http.StatusInternalServerError || !strings.Contains(w.Body.String(), "internal_error") {
		t.Fatalf("expected recovered 500 got %d %s", w.Code, w.Body.String())
	}
}
