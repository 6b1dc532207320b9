package i18n

import (
	"strings"

	"github.com/shopspring/decimal"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/number"
)

// Currency is one of the display currencies offered by the UI.
type Currency struct {
	Code   string
	Symbol string
	Name   string
	NameAr string
}

var Currencies = map[string]Currency{
	"YER": {Code: "YER", Symbol: "﷼", Name: "Yemeni Rial", NameAr: "الريال اليمني"},
	"SAR": {Code: "SAR", Symbol: "﷼", Name: "Saudi Riyal", NameAr: "الريال السعودي"},
	"USD": {Code: "USD", Symbol: "$", Name: "US Dollar", NameAr: "الدولار الأمريكي"},
}

const DefaultCurrency = "YER"

// LookupCurrency returns the currency for code, or the default one.
func LookupCurrency(code string) Currency {
	if c, ok := Currencies[strings.ToUpper(strings.TrimSpace(code))]; ok {
		return c
	}
	return Currencies[DefaultCurrency]
}

// amounts are always printed with western digits and comma grouping, whatever the UI language
var amountPrinter = message.NewPrinter(language.English)

// FormatAmount renders d with thousands separators and exactly two decimals.
func FormatAmount(d decimal.Decimal) string {
	f := d.Round(2).InexactFloat64()
	return amountPrinter.Sprint(number.Decimal(f, number.Scale(2)))
}

// FormatMoney prefixes FormatAmount with the currency symbol.
func FormatMoney(d decimal.Decimal, currency string) string {
	return LookupCurrency(currency).Symbol + FormatAmount(d)
}
