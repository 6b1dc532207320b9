// Package pdf exports invoices as downloadable PDF documents.
package pdf

import (
	"fmt"

	"github.com/diewo77/fawater/i18n"
	"github.com/diewo77/fawater/internal/billing"
	"github.com/diewo77/fawater/internal/models"
	"github.com/johnfercher/maroto/v2"
	"github.com/johnfercher/maroto/v2/pkg/components/line"
	"github.com/johnfercher/maroto/v2/pkg/components/text"
	"github.com/johnfercher/maroto/v2/pkg/config"
	"github.com/johnfercher/maroto/v2/pkg/consts/align"
	"github.com/johnfercher/maroto/v2/pkg/consts/fontstyle"
	"github.com/johnfercher/maroto/v2/pkg/core/entity"
	"github.com/johnfercher/maroto/v2/pkg/props"
	"github.com/johnfercher/maroto/v2/pkg/repository"
)

// fontFamily names the TrueType font registered from Options.FontPath.
const fontFamily = "unicode"

var (
	headerStyle = props.Text{Size: 9, Style: fontstyle.Bold}
	rightStyle  = props.Text{Size: 9, Align: align.Right}
	bodyStyle   = props.Text{Size: 9}
	mutedStyle  = props.Text{Size: 7, Style: fontstyle.Italic}
)

// Options controls how an invoice document is rendered.
type Options struct {
	Currency string
	// Lang selects the labels when FontPath is set.
	Lang string
	// FontPath is a TrueType font covering Arabic, e.g. Noto Naskh Arabic.
	// Without it the core fonts are used; they only cover Latin-1, so the
	// document falls back to English labels and ISO currency codes.
	FontPath string
}

// document holds the per-render choices derived from Options.
type document struct {
	lang     string
	currency string
	unicode  bool
}

func newDocument(opts Options) document {
	d := document{lang: i18n.LangEnglish, currency: opts.Currency}
	if opts.FontPath != "" {
		d.lang = i18n.Normalize(opts.Lang)
		d.unicode = true
	}
	return d
}

func (d document) label(code string) string { return i18n.T(d.lang, code) }

func (d document) amount(m models.Money) string {
	if d.unicode {
		return i18n.FormatMoney(m.Decimal, d.currency)
	}
	return i18n.LookupCurrency(d.currency).Code + " " + i18n.FormatAmount(m.Decimal)
}

func (d document) formula(f string) string {
	if d.unicode {
		return f
	}
	return asciiFormula(f)
}

// loadFonts registers every style used by the document from a single file.
func loadFonts(path string) ([]*entity.CustomFont, error) {
	fonts, err := repository.New().
		AddUTF8Font(fontFamily, fontstyle.Normal, path).
		AddUTF8Font(fontFamily, fontstyle.Bold, path).
		AddUTF8Font(fontFamily, fontstyle.Italic, path).
		AddUTF8Font(fontFamily, fontstyle.BoldItalic, path).
		Load()
	if err != nil {
		return nil, fmt.Errorf("load pdf font %s: %w", path, err)
	}
	return fonts, nil
}

// InvoicePDF renders inv and returns the PDF bytes.
func InvoicePDF(inv *models.Invoice, opts Options) ([]byte, error) {
	d := newDocument(opts)
	label := d.label
	b := config.NewBuilder().
		WithLeftMargin(12).
		WithTopMargin(15).
		WithRightMargin(12).
		WithTitle(label("invoice")+" "+inv.Number, true)
	if d.unicode {
		fonts, err := loadFonts(opts.FontPath)
		if err != nil {
			return nil, err
		}
		b = b.WithCustomFonts(fonts).WithDefaultFont(&props.Font{Family: fontFamily})
	}
	cfg := b.Build()
	m := maroto.New(cfg)

	m.AddRows(text.NewRow(12, label("invoice")+" "+inv.Number, props.Text{Size: 16, Style: fontstyle.Bold, Align: align.Center}))
	m.AddRow(6,
		text.NewCol(6, label("date")+": "+inv.Date.Format("2006-01-02"), bodyStyle),
		text.NewCol(6, label("status")+": "+label("status_"+string(inv.Status)), rightStyle),
	)
	due := ""
	if inv.DueDate != nil {
		due = label("due_date") + ": " + inv.DueDate.Format("2006-01-02")
	}
	m.AddRow(6,
		text.NewCol(6, due, bodyStyle),
		text.NewCol(6, label("type")+": "+label("type_"+string(inv.Type)), rightStyle),
	)
	if inv.Customer != nil {
		m.AddRow(6, text.NewCol(12, label("customer")+": "+inv.Customer.Name, bodyStyle))
		if inv.Customer.Phone != "" || inv.Customer.Email != "" {
			m.AddRow(5, text.NewCol(12, inv.Customer.Phone+"  "+inv.Customer.Email, mutedStyle))
		}
	}
	m.AddRows(line.NewRow(4))

	m.AddRow(7,
		text.NewCol(6, label("description"), headerStyle),
		text.NewCol(3, label("document_number"), headerStyle),
		text.NewCol(3, label("price"), props.Text{Size: 9, Style: fontstyle.Bold, Align: align.Right}),
	)
	for _, it := range inv.Items {
		m.AddRow(6,
			text.NewCol(6, it.Description, bodyStyle),
			text.NewCol(3, it.DocumentNumber, bodyStyle),
			text.NewCol(3, d.amount(it.Total), rightStyle),
		)
		if f := billing.ConsumptionFormula(billing.LineFromItem(it), inv.Type); f != "" {
			m.AddRow(5, text.NewCol(12, fmt.Sprintf("%s %s: %s", label("meter_number"), it.MeterNumber, d.formula(f)), mutedStyle))
		}
	}
	m.AddRows(line.NewRow(4))

	m.AddRow(6, text.NewCol(9, label("subtotal"), rightStyle), text.NewCol(3, d.amount(inv.Subtotal), rightStyle))
	m.AddRow(6, text.NewCol(9, label("discount"), rightStyle), text.NewCol(3, d.amount(inv.Discount), rightStyle))
	m.AddRow(7,
		text.NewCol(9, label("grand_total"), props.Text{Size: 10, Style: fontstyle.Bold, Align: align.Right}),
		text.NewCol(3, d.amount(inv.Total), props.Text{Size: 10, Style: fontstyle.Bold, Align: align.Right}),
	)
	if inv.Notes != "" {
		m.AddRow(10, text.NewCol(12, label("notes")+": "+inv.Notes, mutedStyle))
	}

	doc, err := m.Generate()
	if err != nil {
		return nil, fmt.Errorf("generate pdf: %w", err)
	}
	return doc.GetBytes(), nil
}

// asciiFormula swaps "×", which the core fonts lack, for "x".
func asciiFormula(f string) string {
	out := make([]rune, 0, len(f))
	for _, r := range f {
		if r == '×' {
			r = 'x'
		}
		out = append(out, r)
	}
	return string(out)
}
