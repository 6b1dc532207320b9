// Package billing holds the invoice arithmetic shared by the API, the
// preview endpoint and the rendered documents. Every function is pure and
// never fails: unparsable numbers count as zero.
package billing

import (
	"strings"

	"github.com/diewo77/fawater/internal/models"
	"github.com/shopspring/decimal"
)

var hundred = decimal.NewFromInt(100)

// Line is the raw numeric input of one invoice item, as typed in a form.
type Line struct {
	PreviousReading string `json:"previousReading"`
	CurrentReading  string `json:"currentReading"`
	UnitPrice       string `json:"unitPrice"`
	Price           string `json:"price"`
}

// LineFromItem builds the computation input of a stored item.
func LineFromItem(it models.InvoiceItem) Line {
	return Line{
		PreviousReading: nullString(it.PreviousReading),
		CurrentReading:  nullString(it.CurrentReading),
		UnitPrice:       nullString(it.UnitPrice),
		Price:           it.Price.StringFixed(2),
	}
}

func nullString(d decimal.NullDecimal) string {
	if !d.Valid {
		return ""
	}
	return d.Decimal.String()
}

// Totals are the derived amounts of an invoice, rounded to two decimals.
type Totals struct {
	Subtotal       models.Money `json:"subtotal"`
	DiscountAmount models.Money `json:"discountAmount"`
	Total          models.Money `json:"total"`
}

func parse(s string) (decimal.Decimal, bool) {
	s = strings.ReplaceAll(strings.TrimSpace(s), ",", "")
	if s == "" {
		return decimal.Zero, false
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, false
	}
	return d, true
}

// ParseAmount parses s leniently; anything unparsable is zero.
func ParseAmount(s string) decimal.Decimal {
	d, _ := parse(s)
	return d
}

// consumption returns current - previous and the unit price when the readings
// allow a meter based price. A missing previous reading is a first reading
// starting from zero.
func consumption(l Line) (used, unit decimal.Decimal, ok bool) {
	prev := ParseAmount(l.PreviousReading)
	cur := ParseAmount(l.CurrentReading)
	unit = ParseAmount(l.UnitPrice)
	if prev.IsNegative() || !cur.IsPositive() || !unit.IsPositive() || cur.LessThan(prev) {
		return decimal.Zero, decimal.Zero, false
	}
	return cur.Sub(prev), unit, true
}

// MeterPriced reports whether a commercial line gets its price from the meter readings.
func MeterPriced(l Line, typ models.InvoiceType) bool {
	if typ != models.InvoiceTypeCommercial {
		return false
	}
	_, _, ok := consumption(l)
	return ok
}

// LineTotal is (current - previous) x unit price for commercial lines with
// usable readings, and the entered price otherwise.
func LineTotal(l Line, typ models.InvoiceType) decimal.Decimal {
	if typ == models.InvoiceTypeCommercial {
		if used, unit, ok := consumption(l); ok {
			return used.Mul(unit).Round(2)
		}
	}
	return ParseAmount(l.Price)
}

func subtotal(lines []Line, typ models.InvoiceType) decimal.Decimal {
	sum := decimal.Zero
	for _, l := range lines {
		sum = sum.Add(LineTotal(l, typ))
	}
	return sum.Round(2)
}

// InvoiceTotals sums the lines and applies a percentage discount. An empty
// or unparsable percentage means no discount.
func InvoiceTotals(lines []Line, typ models.InvoiceType, discountPercent string) Totals {
	sub := subtotal(lines, typ)
	pct := ParseAmount(discountPercent)
	disc := sub.Mul(pct).Div(hundred).Round(2)
	return Totals{
		Subtotal:       models.NewMoney(sub),
		DiscountAmount: models.NewMoney(disc),
		Total:          models.NewMoney(sub.Sub(disc)),
	}
}

// InvoiceTotalsWithAmount applies a fixed discount amount, clamped to [0, subtotal].
func InvoiceTotalsWithAmount(lines []Line, typ models.InvoiceType, discountAmount string) Totals {
	sub := subtotal(lines, typ)
	disc := ParseAmount(discountAmount).Round(2)
	if disc.IsNegative() {
		disc = decimal.Zero
	}
	if disc.GreaterThan(sub) && sub.IsPositive() {
		disc = sub
	}
	return Totals{
		Subtotal:       models.NewMoney(sub),
		DiscountAmount: models.NewMoney(disc),
		Total:          models.NewMoney(sub.Sub(disc)),
	}
}

// ConsumptionFormula renders "(150 - 100) × 2 = 100.00" for meter priced lines, "" otherwise.
func ConsumptionFormula(l Line, typ models.InvoiceType) string {
	if typ != models.InvoiceTypeCommercial {
		return ""
	}
	used, unit, ok := consumption(l)
	if !ok {
		return ""
	}
	prev := ParseAmount(l.PreviousReading)
	cur := ParseAmount(l.CurrentReading)
	return "(" + cur.String() + " - " + prev.String() + ") × " + unit.String() + " = " + used.Mul(unit).StringFixed(2)
}
