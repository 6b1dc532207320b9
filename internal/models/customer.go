package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Customer is a billed party. Balance is the running amount owed and only
// moves when invoices are created.
type Customer struct {
	ID          string    `gorm:"primaryKey;size:36" json:"id"`
	Name        string    `gorm:"size:255;not null" json:"name"`
	Email       string    `gorm:"size:255" json:"email"`
	Phone       string    `gorm:"size:50" json:"phone"`
	Address     string    `gorm:"type:text" json:"address"`
	Balance     Money     `gorm:"type:decimal(10,2);not null;default:0" json:"balance"`
	MeterNumber string    `gorm:"size:100" json:"meterNumber"`
	CreatedAt   time.Time `gorm:"autoCreateTime" json:"createdAt"`
}

func (c *Customer) BeforeCreate(tx *gorm.DB) error {
	if c.ID == "" {
		c.ID = uuid.NewString()
	}
	return nil
}

// CustomerWithStats is the customer list row used by the customers report.
type CustomerWithStats struct {
	Customer
	TotalInvoices  int64 `json:"totalInvoices"`
	TotalAmount    Money `json:"totalAmount"`
	AccountBalance Money `json:"accountBalance"`
}
