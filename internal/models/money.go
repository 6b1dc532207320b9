package models

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// Money is a decimal(10,2) amount. It is stored as a numeric column and
// serialized in JSON as a string with exactly two decimals ("200.00").
// Scan and Value are promoted from decimal.Decimal.
type Money struct {
	decimal.Decimal
}

// NewMoney rounds d half away from zero to two decimals.
func NewMoney(d decimal.Decimal) Money { return Money{d.Round(2)} }

// ZeroMoney is the zero amount.
func ZeroMoney() Money { return Money{decimal.Zero} }

// ParseMoney parses s leniently: thousands separators are ignored and
// unparsable input yields zero.
func ParseMoney(s string) Money {
	d, err := decimal.NewFromString(strings.ReplaceAll(strings.TrimSpace(s), ",", ""))
	if err != nil {
		return ZeroMoney()
	}
	return NewMoney(d)
}

func (m Money) String() string { return m.StringFixed(2) }

func (m Money) MarshalJSON() ([]byte, error) {
	return []byte(`"` + m.StringFixed(2) + `"`), nil
}

func (m *Money) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) == 0 || string(b) == "null" {
		m.Decimal = decimal.Zero
		return nil
	}
	var s string
	if b[0] == '"' {
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
	} else {
		s = string(b)
	}
	s = strings.ReplaceAll(strings.TrimSpace(s), ",", "")
	if s == "" {
		m.Decimal = decimal.Zero
		return nil
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return fmt.Errorf("invalid amount %q: %w", s, err)
	}
	m.Decimal = d.Round(2)
	return nil
}
