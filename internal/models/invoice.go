package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// InvoiceStatus represents the status of an invoice.
type InvoiceStatus string

const (
	InvoiceStatusPending InvoiceStatus = "pending"
	InvoiceStatusPaid    InvoiceStatus = "paid"
	InvoiceStatusOverdue InvoiceStatus = "overdue"
)

var InvoiceStatuses = []string{string(InvoiceStatusPending), string(InvoiceStatusPaid), string(InvoiceStatusOverdue)}

// InvoiceType drives how an invoice is computed and how it moves the customer balance.
type InvoiceType string

const (
	InvoiceTypeMonthly    InvoiceType = "monthly"
	InvoiceTypeCommercial InvoiceType = "commercial"
	InvoiceTypeStatement  InvoiceType = "statement"
	InvoiceTypeRevenue    InvoiceType = "revenue"
	InvoiceTypeExpense    InvoiceType = "expense"
	InvoiceTypePayment    InvoiceType = "payment"
)

var InvoiceTypes = []string{
	string(InvoiceTypeMonthly), string(InvoiceTypeCommercial), string(InvoiceTypeStatement),
	string(InvoiceTypeRevenue), string(InvoiceTypeExpense), string(InvoiceTypePayment),
}

// Debit reports whether invoices of this type add to what the customer owes.
func (t InvoiceType) Debit() bool {
	return t == InvoiceTypeMonthly || t == InvoiceTypeCommercial
}

// Invoice represents a billing document. Total is always Subtotal - Discount; Tax is kept at zero.
type Invoice struct {
	ID         string        `gorm:"primaryKey;size:36" json:"id"`
	Number     string        `gorm:"size:50;uniqueIndex;not null" json:"number"`
	CustomerID string        `gorm:"size:36;index;not null" json:"customerId"`
	Customer   *Customer     `gorm:"foreignKey:CustomerID" json:"customer,omitempty"`
	Date       time.Time     `gorm:"not null" json:"date"`
	DueDate    *time.Time    `gorm:"index:idx_invoices_status_due_date,priority:2" json:"dueDate"`
	Status     InvoiceStatus `gorm:"size:20;not null;default:pending;index:idx_invoices_status_due_date,priority:1" json:"status"`
	Type       InvoiceType   `gorm:"size:20;not null;default:monthly" json:"type"`
	Subtotal   Money         `gorm:"type:decimal(10,2);not null" json:"subtotal"`
	Tax        Money         `gorm:"type:decimal(10,2);not null;default:0" json:"tax"`
	Discount   Money         `gorm:"type:decimal(10,2);not null;default:0" json:"discount"`
	Total      Money         `gorm:"type:decimal(10,2);not null" json:"total"`
	Notes      string        `gorm:"type:text" json:"notes"`
	CreatedAt  time.Time     `gorm:"autoCreateTime" json:"createdAt"`

	Items []InvoiceItem `gorm:"foreignKey:InvoiceID" json:"items,omitempty"`
}

func (i *Invoice) BeforeCreate(tx *gorm.DB) error {
	if i.ID == "" {
		i.ID = uuid.NewString()
	}
	return nil
}

// IsOverdue reports whether a pending invoice is past its due date at now.
func (i *Invoice) IsOverdue(now time.Time) bool {
	return i.Status == InvoiceStatusPending && i.DueDate != nil && i.DueDate.Before(now)
}

// InvoiceItem is one line of an invoice. The meter fields are only meaningful
// on commercial invoices. Total duplicates Price.
type InvoiceItem struct {
	ID              string              `gorm:"primaryKey;size:36" json:"id"`
	InvoiceID       string              `gorm:"size:36;index;not null" json:"invoiceId"`
	Description     string              `gorm:"type:text;not null" json:"description"`
	DocumentNumber  string              `gorm:"size:100" json:"documentNumber"`
	MeterNumber     string              `gorm:"size:100" json:"meterNumber"`
	PreviousReading decimal.NullDecimal `gorm:"type:decimal(10,2)" json:"previousReading"`
	CurrentReading  decimal.NullDecimal `gorm:"type:decimal(10,2)" json:"currentReading"`
	UnitPrice       decimal.NullDecimal `gorm:"type:decimal(10,2)" json:"unitPrice"`
	Price           Money               `gorm:"type:decimal(10,2);not null" json:"price"`
	Total           Money               `gorm:"type:decimal(10,2);not null" json:"total"`
}

func (it *InvoiceItem) BeforeCreate(tx *gorm.DB) error {
	if it.ID == "" {
		it.ID = uuid.NewString()
	}
	return nil
}

// DashboardStats aggregates invoice counts and paid sales.
type DashboardStats struct {
	TotalSales      Money `json:"totalSales"`
	PaidInvoices    int64 `json:"paidInvoices"`
	PendingInvoices int64 `json:"pendingInvoices"`
	OverdueInvoices int64 `json:"overdueInvoices"`
	ActiveCustomers int64 `json:"activeCustomers"`
}
