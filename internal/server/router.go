package server

import (
	"net/http"
	"sort"
	"strings"
	"time"

	"github.com/diewo77/fawater/httpx"
	"github.com/diewo77/fawater/internal/config"
	"github.com/diewo77/fawater/internal/handlers"
	"github.com/diewo77/fawater/internal/logger"
	"github.com/diewo77/fawater/internal/middleware"
	"github.com/diewo77/fawater/internal/repository"
	"github.com/diewo77/fawater/internal/services"
	"gorm.io/gorm"
)

// Services groups the business services shared by the HTTP layer and the CLI.
type Services struct {
	Customers *services.CustomerService
	Invoices  *services.InvoiceService
}

// NewServices wires the gorm repositories into the services.
func NewServices(db *gorm.DB) Services {
	customers := repository.NewCustomerRepo(db)
	invoices := repository.NewInvoiceRepo(db)
	return Services{
		Customers: services.NewCustomerService(customers, invoices),
		Invoices:  services.NewInvoiceService(invoices, customers),
	}
}

// New constructs the root http.Handler with all routes and middlewares applied.
func New(db *gorm.DB, cfg config.Config) http.Handler {
	return NewWithServices(db, cfg, NewServices(db))
}

func NewWithServices(db *gorm.DB, cfg config.Config, svc Services) http.Handler {
	mux := http.NewServeMux()

	// --- Health endpoints ---
	//revive:disable:unused-parameter simple handlers intentionally ignore *http.Request
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		httpx.JSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		if err := db.WithContext(r.Context()).Exec("SELECT 1").Error; err != nil {
			httpx.JSON(w, http.StatusServiceUnavailable, map[string]string{"status": "degraded"})
			return
		}
		httpx.JSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	ch := handlers.NewCustomerHandler(svc.Customers)
	mux.Handle("/api/customers", methods{http.MethodGet: ch.List, http.MethodPost: ch.Create})
	mux.Handle("/api/customers/with-stats", methods{http.MethodGet: ch.WithStats})
	mux.Handle("/api/customers/{id}", methods{http.MethodGet: ch.Get, http.MethodPut: ch.Update, http.MethodDelete: ch.Delete})
	mux.Handle("/api/customers/{id}/account", methods{http.MethodGet: ch.Account})
	mux.Handle("/api/customers/{id}/last-reading", methods{http.MethodGet: ch.LastReading})

	ih := handlers.NewInvoiceHandler(svc.Invoices, cfg.PDFFont)
	mux.Handle("/api/invoices", methods{http.MethodGet: ih.List, http.MethodPost: ih.Create})
	mux.Handle("/api/invoices/preview", methods{http.MethodPost: ih.Preview})
	mux.Handle("/api/invoices/{id}", methods{http.MethodGet: ih.Get, http.MethodPut: ih.Update, http.MethodDelete: ih.Delete})
	mux.Handle("/api/invoices/{id}/pdf", methods{http.MethodGet: ih.PDF})
	mux.Handle("/api/dashboard/stats", methods{http.MethodGet: ih.Stats})

	ph := handlers.NewPageHandler(svc.Customers, svc.Invoices)
	mux.Handle("/invoices/{id}/print", methods{http.MethodGet: ph.InvoicePrint})
	mux.Handle("/customers/{id}/statement", methods{http.MethodGet: ph.Statement})

	mux.HandleFunc("/api/", func(w http.ResponseWriter, r *http.Request) {
		httpx.NotFound(w, "Route not found")
	})
	mux.HandleFunc("/{$}", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		_, _ = w.Write([]byte("fawater API - see /api/dashboard/stats"))
	})
	//revive:enable:unused-parameter

	prefs := middleware.Prefs(middleware.Defaults{Lang: cfg.DefaultLang, Currency: cfg.Currency})
	return prefs(withRecover(withLogging(mux)))
}

// methods dispatches on the request method and answers 405 with an Allow
// header otherwise.
type methods map[string]http.HandlerFunc

func (m methods) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if h, ok := m[r.Method]; ok {
		h(w, r)
		return
	}
	if r.Method == http.MethodHead {
		if h, ok := m[http.MethodGet]; ok {
			h(w, r)
			return
		}
	}
	allowed := make([]string, 0, len(m))
	for k := range m {
		allowed = append(allowed, k)
	}
	sort.Strings(allowed)
	w.Header().Set("Allow", strings.Join(allowed, ","))
	httpx.JSONError(w, http.StatusMethodNotAllowed, httpx.CodeMethodNotAllowed, nil)
}

type statusRecorder struct {
	http.ResponseWriter
	status int
	bytes  int
}

func (s *statusRecorder) WriteHeader(code int) {
	s.status = code
	s.ResponseWriter.WriteHeader(code)
}

func (s *statusRecorder) Write(b []byte) (int, error) {
	if s.status == 0 {
		s.status = http.StatusOK
	}
	n, err := s.ResponseWriter.Write(b)
	s.bytes += n
	return n, err
}

func withLogging(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w}
		next.ServeHTTP(rec, r)
		if rec.status == 0 {
			rec.status = http.StatusOK
		}
		l := logger.WithComponent("http")
		ev := l.Info()
		if rec.status >= http.StatusInternalServerError {
			ev = l.Error()
		}
		ev.Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", rec.status).
			Int("bytes", rec.bytes).
			Dur("duration", time.Since(start)).
			Msg("request")
	})
}

func withRecover(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if rec := recover(); rec != nil {
				l := logger.WithComponent("http")
				l.Error().Interface("panic", rec).Str("path", r.URL.Path).Msg("recovered from panic")
				httpx.JSONError(w, http.StatusInternalServerError, httpx.CodeInternal, nil)
			}
		}()
		next.ServeHTTP(w, r)
	})
}
