// Package view renders the printable HTML pages (invoice print, customer
// statement). Templates are embedded and parsed once; per-request helpers
// such as the language and the display currency are bound at execution time.
package view

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"net/http"
	"sync"
	"time"

	"github.com/diewo77/fawater/i18n"
	"github.com/diewo77/fawater/internal/billing"
	"github.com/diewo77/fawater/internal/middleware"
	"github.com/diewo77/fawater/internal/models"
	"github.com/shopspring/decimal"
)

//go:embed templates/*.html
var templatesFS embed.FS

var tplCache = struct {
	sync.RWMutex
	m map[string]*template.Template
}{m: map[string]*template.Template{}}

// Funcs returns the standard func map including i18n and money helpers.
func Funcs(lang, currency string) template.FuncMap {
	return template.FuncMap{
		"t":    func(code string) string { return i18n.T(lang, code) },
		"lang": func() string { return lang },
		"dir":  func() string { return i18n.Dir(lang) },
		"money": func(m models.Money) string {
			return i18n.FormatMoney(m.Decimal, currency)
		},
		"amount": func(m models.Money) string { return i18n.FormatAmount(m.Decimal) },
		"date": func(t time.Time) string {
			if t.IsZero() {
				return ""
			}
			return t.Format("2006-01-02")
		},
		"dateptr": func(t *time.Time) string {
			if t == nil {
				return ""
			}
			return t.Format("2006-01-02")
		},
		"reading": func(d decimal.NullDecimal) string {
			if !d.Valid {
				return ""
			}
			return d.Decimal.String()
		},
		"formula": func(it models.InvoiceItem, typ models.InvoiceType) string {
			return billing.ConsumptionFormula(billing.LineFromItem(it), typ)
		},
		"status": func(s models.InvoiceStatus) string { return i18n.T(lang, "status_"+string(s)) },
		"kind":   func(t models.InvoiceType) string { return i18n.T(lang, "type_"+string(t)) },
		"year":   func() int { return time.Now().Year() },
	}
}

func parse(name string) (*template.Template, error) {
	tplCache.RLock()
	t, ok := tplCache.m[name]
	tplCache.RUnlock()
	if ok {
		return t, nil
	}
	t, err := template.New("layout.html").
		Funcs(Funcs(i18n.DefaultLang, i18n.DefaultCurrency)).
		ParseFS(templatesFS, "templates/layout.html", "templates/"+name)
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", name, err)
	}
	tplCache.Lock()
	tplCache.m[name] = t
	tplCache.Unlock()
	return t, nil
}

// Render executes the named page inside the shared layout. The page is
// rendered into a buffer first so a failing template never leaves a
// half-written response.
func Render(w http.ResponseWriter, r *http.Request, name string, data map[string]any) error {
	base, err := parse(name)
	if err != nil {
		return err
	}
	t, err := base.Clone()
	if err != nil {
		return err
	}
	t.Funcs(Funcs(middleware.LangFrom(r), middleware.CurrencyFrom(r)))
	if data == nil {
		data = map[string]any{}
	}
	if _, exists := data["Year"]; !exists {
		data["Year"] = time.Now().Year()
	}
	var buf bytes.Buffer
	if err := t.Execute(&buf, data); err != nil {
		return err
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, err = buf.WriteTo(w)
	return err
}
