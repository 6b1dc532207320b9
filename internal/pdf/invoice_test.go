package pdf

import (
	"bytes"
	"path/filepath"
	"testing"
	"time"

	"github.com/diewo77/fawater/i18n"
	"github.com/diewo77/fawater/internal/models"
	"github.com/shopspring/decimal"
)

func TestInvoicePDF(t *testing.T) {
	due := time.Date(2024, 2, 14, 0, 0, 0, 0, time.UTC)
	inv := &models.Invoice{
		Number:   "INV-2024-002",
		Date:     time.Date(2024, 1, 14, 0, 0, 0, 0, time.UTC),
		DueDate:  &due,
		Status:   models.InvoiceStatusPending,
		Type:     models.InvoiceTypeCommercial,
		Customer: &models.Customer{Name: "Al Noor", Email: "contact@alnoor.com"},
		Subtotal: models.NewMoney(decimal.NewFromInt(1875)),
		Discount: models.ZeroMoney(),
		Total:    models.NewMoney(decimal.NewFromInt(1875)),
		Notes:    "meter M-2001",
		Items: []models.InvoiceItem{{
			Description:     "Commercial meter",
			MeterNumber:     "M-2001",
			PreviousReading: decimal.NewNullDecimal(decimal.NewFromInt(1200)),
			CurrentReading:  decimal.NewNullDecimal(decimal.NewFromInt(1575)),
			UnitPrice:       decimal.NewNullDecimal(decimal.NewFromInt(5)),
			Total:           models.NewMoney(decimal.NewFromInt(1875)),
		}},
	}
	b, err := InvoicePDF(inv, Options{Currency: "YER"})
	if err != nil {
		t.Fatalf("pdf: %v", err)
	}
	if !bytes.HasPrefix(b, []byte("%PDF")) {
		t.Fatalf("expected PDF header, got %q", b[:min(len(b), 8)])
	}
}

func TestCoreFontDocument(t *testing.T) {
	d := newDocument(Options{Currency: "usd", Lang: "ar"})
	if d.unicode || d.lang != i18n.LangEnglish {
		t.Fatalf("core fonts need English labels, got %+v", d)
	}
	if got := d.amount(models.NewMoney(decimal.RequireFromString("1234.5"))); got != "USD 1,234.50" {
		t.Fatalf("unexpected amount %q", got)
	}
	if got := d.formula("(150 - 100) × 2 = 100.00"); got != "(150 - 100) x 2 = 100.00" {
		t.Fatalf("unexpected formula %q", got)
	}
}

func TestUnicodeFontDocument(t *testing.T) {
	d := newDocument(Options{Currency: "USD", Lang: "ar", FontPath: "NotoNaskhArabic-Regular.ttf"})
	if !d.unicode || d.lang != i18n.LangArabic {
		t.Fatalf("a unicode font keeps the requested language, got %+v", d)
	}
	if got := d.label("invoice"); got != i18n.T(i18n.LangArabic, "invoice") {
		t.Fatalf("unexpected label %q", got)
	}
	if got := d.amount(models.NewMoney(decimal.NewFromInt(5))); got != "$5.00" {
		t.Fatalf("unexpected amount %q", got)
	}
	if got := d.formula("(150 - 0) × 2 = 300.00"); got != "(150 - 0) × 2 = 300.00" {
		t.Fatalf("formula should keep the multiplication sign, got %q", got)
	}
}

func TestInvoicePDFMissingFont(t *testing.T) {
	inv := &models.Invoice{Number: "INV-2024-009", Date: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)}
	path := filepath.Join(t.TempDir(), "missing.ttf")
	if _, err := InvoicePDF(inv, Options{Currency: "YER", Lang: "ar", FontPath: path}); err == nil {
		t.Fatalf("expected an error for a missing font file")
	}
}
