// Package validation collects field-level violations for request payloads.
// Codes are stable strings that the UI translates through the i18n package.
package validation

import (
	"net/mail"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

type Violations map[string]string

func (v Violations) Empty() bool { return len(v) == 0 }

// Add records a violation unless the field already has one; the first failure wins.
func (v Violations) Add(field, code string) {
	if _, exists := v[field]; !exists {
		v[field] = code
	}
}

func Required(field, value string, v Violations) {
	if strings.TrimSpace(value) == "" {
		v.Add(field, "required")
	}
}

func MaxLen(field, value string, max int, v Violations) {
	if len([]rune(value)) > max {
		v.Add(field, "too_long")
	}
}

// Email accepts empty values; optional contact fields are validated only when set.
func Email(field, value string, v Violations) {
	if strings.TrimSpace(value) == "" {
		return
	}
	if _, err := mail.ParseAddress(value); err != nil {
		v.Add(field, "invalid_email")
	}
}

func OneOf(field, value string, allowed []string, v Violations) {
	for _, a := range allowed {
		if value == a {
			return
		}
	}
	v.Add(field, "invalid_choice")
}

// number parses an optional numeric string. Thousands separators are tolerated
// since forms send formatted numbers. ok is false for empty or invalid input.
func number(field, value string, v Violations) (decimal.Decimal, bool) {
	s := strings.ReplaceAll(strings.TrimSpace(value), ",", "")
	if s == "" {
		return decimal.Zero, false
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		v.Add(field, "invalid_number")
		return decimal.Zero, false
	}
	return d, true
}

// Decimal checks an optional numeric string.
func Decimal(field, value string, v Violations) {
	number(field, value, v)
}

func NonNegativeDecimal(field, value string, v Violations) {
	if d, ok := number(field, value, v); ok && d.IsNegative() {
		v.Add(field, "must_not_be_negative")
	}
}

func RangeDecimal(field, value string, minVal, maxVal float64, v Violations) {
	d, ok := number(field, value, v)
	if !ok {
		return
	}
	if d.LessThan(decimal.NewFromFloat(minVal)) || d.GreaterThan(decimal.NewFromFloat(maxVal)) {
		v.Add(field, "out_of_range")
	}
}

// Scale rejects numbers with more than places decimals. Trailing zeros do not count.
func Scale(field, value string, places int32, v Violations) {
	d, ok := number(field, value, v)
	if ok && !d.Equal(d.Truncate(places)) {
		v.Add(field, "too_many_decimals")
	}
}

// MaxAmount is the largest magnitude a decimal(10,2) column holds.
var MaxAmount = decimal.New(9999999999, -2)

// MaxAbs rejects numbers whose magnitude is above limit.
func MaxAbs(field, value string, limit decimal.Decimal, v Violations) {
	d, ok := number(field, value, v)
	if ok && d.Abs().GreaterThan(limit) {
		v.Add(field, "out_of_range")
	}
}

// Amount checks an optional value stored in a decimal(10,2) column: a number
// with at most two decimals and a magnitude of at most MaxAmount.
func Amount(field, value string, v Violations) {
	Scale(field, value, 2, v)
	MaxAbs(field, value, MaxAmount, v)
}

// DateLayouts are the accepted wire formats for dates, most specific first.
var DateLayouts = []string{time.RFC3339Nano, time.RFC3339, "2006-01-02T15:04", "2006-01-02"}

// ParseDate parses a date in one of DateLayouts.
func ParseDate(value string) (time.Time, bool) {
	s := strings.TrimSpace(value)
	for _, layout := range DateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// Date validates an optional date string.
func Date(field, value string, v Violations) {
	if strings.TrimSpace(value) == "" {
		return
	}
	if _, ok := ParseDate(value); !ok {
		v.Add(field, "invalid_date")
	}
}
