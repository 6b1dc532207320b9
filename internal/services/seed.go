package services

import (
	"context"
	_ "embed"
	"fmt"

	"github.com/diewo77/fawater/internal/logger"
	"github.com/diewo77/fawater/validation"
	"gopkg.in/yaml.v3"
)

//go:embed seed.yaml
var defaultSeed []byte

type seedItem struct {
	Description     string `yaml:"description"`
	DocumentNumber  string `yaml:"documentNumber"`
	MeterNumber     string `yaml:"meterNumber"`
	PreviousReading string `yaml:"previousReading"`
	CurrentReading  string `yaml:"currentReading"`
	UnitPrice       string `yaml:"unitPrice"`
	Price           string `yaml:"price"`
}

type seedInvoice struct {
	Number   string     `yaml:"number"`
	Customer string     `yaml:"customer"`
	Date     string     `yaml:"date"`
	DueDate  string     `yaml:"dueDate"`
	Status   string     `yaml:"status"`
	Type     string     `yaml:"type"`
	Discount string     `yaml:"discountPercent"`
	Notes    string     `yaml:"notes"`
	Items    []seedItem `yaml:"items"`
}

type seedCustomer struct {
	Name        string `yaml:"name"`
	Email       string `yaml:"email"`
	Phone       string `yaml:"phone"`
	Address     string `yaml:"address"`
	MeterNumber string `yaml:"meterNumber"`
}

// SeedData is the fixture document format.
type SeedData struct {
	Customers []seedCustomer `yaml:"customers"`
	Invoices  []seedInvoice  `yaml:"invoices"`
}

// ParseSeed decodes a YAML fixture document.
func ParseSeed(b []byte) (*SeedData, error) {
	var d SeedData
	if err := yaml.Unmarshal(b, &d); err != nil {
		return nil, fmt.Errorf("parse seed: %w", err)
	}
	return &d, nil
}

// Seeder loads fixtures through the services so totals and balances follow
// the normal rules. Existing customers (by name) and invoices (by number)
// are skipped, which makes seeding idempotent.
type Seeder struct {
	Customers *CustomerService
	Invoices  *InvoiceService
}

// SeedResult counts what was inserted.
type SeedResult struct {
	Customers int
	Invoices  int
}

// SeedDefault loads the embedded sample data.
func (s *Seeder) SeedDefault(ctx context.Context) (SeedResult, error) {
	d, err := ParseSeed(defaultSeed)
	if err != nil {
		return SeedResult{}, err
	}
	return s.Seed(ctx, d)
}

func (s *Seeder) Seed(ctx context.Context, d *SeedData) (SeedResult, error) {
	log := logger.WithComponent("seed")
	var res SeedResult
	existing, err := s.Customers.List(ctx)
	if err != nil {
		return res, err
	}
	byName := make(map[string]string, len(existing))
	for _, c := range existing {
		byName[c.Name] = c.ID
	}
	for _, sc := range d.Customers {
		if _, ok := byName[sc.Name]; ok {
			continue
		}
		c, err := s.Customers.Create(ctx, CustomerInput{
			Name: sc.Name, Email: sc.Email, Phone: sc.Phone, Address: sc.Address, MeterNumber: sc.MeterNumber,
		})
		if err != nil {
			return res, fmt.Errorf("seed customer %q: %w", sc.Name, err)
		}
		byName[c.Name] = c.ID
		res.Customers++
	}
	for _, si := range d.Invoices {
		exists, err := s.Invoices.invoices.NumberExists(ctx, si.Number)
		if err != nil {
			return res, err
		}
		if exists {
			continue
		}
		customerID, ok := byName[si.Customer]
		if !ok {
			return res, fmt.Errorf("seed invoice %s: unknown customer %q", si.Number, si.Customer)
		}
		req := CreateInvoiceRequest{Invoice: InvoiceInput{
			Number:          si.Number,
			CustomerID:      customerID,
			Date:            si.Date,
			DueDate:         si.DueDate,
			Status:          si.Status,
			Type:            si.Type,
			DiscountPercent: validation.FlexString(si.Discount),
			Notes:           si.Notes,
		}}
		for _, it := range si.Items {
			req.Items = append(req.Items, ItemInput{
				Description:     it.Description,
				DocumentNumber:  it.DocumentNumber,
				MeterNumber:     it.MeterNumber,
				PreviousReading: validation.FlexString(it.PreviousReading),
				CurrentReading:  validation.FlexString(it.CurrentReading),
				UnitPrice:       validation.FlexString(it.UnitPrice),
				Price:           validation.FlexString(it.Price),
			})
		}
		if _, err := s.Invoices.Create(ctx, req); err != nil {
			return res, fmt.Errorf("seed invoice %s: %w", si.Number, err)
		}
		res.Invoices++
	}
	log.Info().Int("customers", res.Customers).Int("invoices", res.Invoices).Msg("seed completed")
	return res, nil
}
