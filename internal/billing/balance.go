package billing

import (
	"github.com/diewo77/fawater/internal/models"
	"github.com/shopspring/decimal"
)

// ApplyToBalance returns the customer balance after creating an invoice of
// type typ with the given total. Monthly and commercial invoices add to the
// balance, revenue entries reduce it without going below zero, other types
// leave it unchanged.
func ApplyToBalance(balance decimal.Decimal, typ models.InvoiceType, total decimal.Decimal) models.Money {
	switch typ {
	case models.InvoiceTypeMonthly, models.InvoiceTypeCommercial:
		return models.NewMoney(balance.Add(total))
	case models.InvoiceTypeRevenue:
		return models.NewMoney(decimal.Max(decimal.Zero, balance.Sub(total)))
	default:
		return models.NewMoney(balance)
	}
}
