package middleware

import (
	"context"
	"net/http"

	"github.com/diewo77/fawater/i18n"
)

type ctxKey string

const ctxCurrency ctxKey = "pref_currency"

const prefMaxAge = 86400 * 30

// Defaults are used when the request carries no preference.
type Defaults struct {
	Lang     string
	Currency string
}

// Prefs extracts language/currency preferences (cookie > query > header) and stores them in context.
// Query-provided prefs are persisted in cookies for ~30 days.
func Prefs(def Defaults) func(http.Handler) http.Handler {
	if def.Lang == "" {
		def.Lang = i18n.DefaultLang
	}
	if def.Currency == "" {
		def.Currency = i18n.DefaultCurrency
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			lang := ""
			if c, err := r.Cookie("lang"); err == nil && c.Value != "" {
				lang = c.Value
			}
			if ql := r.URL.Query().Get("lang"); ql != "" {
				lang = ql
				http.SetCookie(w, &http.Cookie{Name: "lang", Value: lang, Path: "/", MaxAge: prefMaxAge})
			}
			if lang != i18n.LangArabic && lang != i18n.LangEnglish {
				if al := r.Header.Get("Accept-Language"); al != "" {
					lang = i18n.DetectLanguage(al)
				} else {
					lang = def.Lang
				}
			}
			currency := def.Currency
			if c, err := r.Cookie("currency"); err == nil && c.Value != "" {
				currency = c.Value
			}
			if qc := r.URL.Query().Get("currency"); qc != "" {
				currency = qc
				http.SetCookie(w, &http.Cookie{Name: "currency", Value: currency, Path: "/", MaxAge: prefMaxAge})
			}
			ctx := i18n.WithLang(r.Context(), lang)
			ctx = context.WithValue(ctx, ctxCurrency, i18n.LookupCurrency(currency).Code)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// LangFrom returns language preference from context or fallback.
func LangFrom(r *http.Request) string {
	return i18n.LangFrom(r.Context())
}

// CurrencyFrom returns the currency code preference from context or fallback.
func CurrencyFrom(r *http.Request) string {
	if v, ok := r.Context().Value(ctxCurrency).(string); ok && v != "" {
		return v
	}
	return i18n.DefaultCurrency
}
