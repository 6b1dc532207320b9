// Package repository persists customers and invoices. Services depend on the
// interfaces; the gorm implementations back them on sqlite or postgres.
package repository

import (
	"context"
	"errors"
	"time"

	"github.com/diewo77/fawater/internal/models"
	"github.com/shopspring/decimal"
)

// ErrNotFound is returned when a record does not exist.
var ErrNotFound = errors.New("record not found")

// CustomerRepository manages customer persistence
type CustomerRepository interface {
	Create(ctx context.Context, c *models.Customer) error
	Get(ctx context.Context, id string) (*models.Customer, error)
	List(ctx context.Context) ([]models.Customer, error)
	// Update writes the contact fields; the balance is left alone.
	Update(ctx context.Context, c *models.Customer) error
	Delete(ctx context.Context, id string) error
	UpdateBalance(ctx context.Context, id string, balance models.Money) error
	Count(ctx context.Context) (int64, error)
}

// InvoiceFilter narrows List. Empty fields match everything.
type InvoiceFilter struct {
	CustomerID string
	Status     models.InvoiceStatus
	Type       models.InvoiceType
}

// CustomerTotals is the per-customer invoice aggregate.
type CustomerTotals struct {
	CustomerID string
	Count      int64
	Amount     decimal.Decimal
}

// InvoiceRepository manages invoice persistence. Items are written with their
// invoice and removed with it.
type InvoiceRepository interface {
	Create(ctx context.Context, inv *models.Invoice) error
	// Get loads the invoice with its items and customer.
	Get(ctx context.Context, id string) (*models.Invoice, error)
	// List returns invoices newest first.
	List(ctx context.Context, f InvoiceFilter) ([]models.Invoice, error)
	// ListByCustomer returns the customer's invoices with items, oldest first.
	ListByCustomer(ctx context.Context, customerID string) ([]models.Invoice, error)
	// Update writes the invoice header; items are not touched.
	Update(ctx context.Context, inv *models.Invoice) error
	Delete(ctx context.Context, id string) error
	NumberExists(ctx context.Context, number string) (bool, error)
	// NextNumber returns the next free "<prefix>-<year>-NNN" number.
	NextNumber(ctx context.Context, prefix string, year int) (string, error)
	// LastCommercialItem returns the most recent commercial line billed to the customer.
	LastCommercialItem(ctx context.Context, customerID string) (*models.InvoiceItem, error)
	CountByCustomer(ctx context.Context, customerID string) (int64, error)
	TotalsByCustomer(ctx context.Context) (map[string]CustomerTotals, error)
	CountByStatus(ctx context.Context) (map[models.InvoiceStatus]int64, error)
	SumTotal(ctx context.Context, status models.InvoiceStatus) (decimal.Decimal, error)
	// MarkOverdue flips pending invoices due before now to overdue and returns how many changed.
	MarkOverdue(ctx context.Context, now time.Time) (int64, error)
}
