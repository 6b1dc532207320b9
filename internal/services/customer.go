package services

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/diewo77/fawater/internal/logger"
	"github.com/diewo77/fawater/internal/models"
	"github.com/diewo77/fawater/internal/repository"
	"github.com/diewo77/fawater/validation"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

// CustomerInput is the create payload. Balance is an optional opening balance.
type CustomerInput struct {
	Name        string                `json:"name"`
	Email       string                `json:"email"`
	Phone       string                `json:"phone"`
	Address     string                `json:"address"`
	MeterNumber string                `json:"meterNumber"`
	Balance     validation.FlexString `json:"balance"`
}

func (in CustomerInput) Validate() validation.Violations {
	v := validation.Violations{}
	validation.Required("name", in.Name, v)
	validation.MaxLen("name", in.Name, 255, v)
	validation.Email("email", in.Email, v)
	validation.MaxLen("phone", in.Phone, 50, v)
	validation.MaxLen("meterNumber", in.MeterNumber, 100, v)
	validation.Amount("balance", in.Balance.String(), v)
	return v
}

// CustomerPatch is a partial update; nil fields are left unchanged.
type CustomerPatch struct {
	Name        *string `json:"name"`
	Email       *string `json:"email"`
	Phone       *string `json:"phone"`
	Address     *string `json:"address"`
	MeterNumber *string `json:"meterNumber"`
}

func (p CustomerPatch) Validate() validation.Violations {
	v := validation.Violations{}
	if p.Name != nil {
		validation.Required("name", *p.Name, v)
		validation.MaxLen("name", *p.Name, 255, v)
	}
	if p.Email != nil {
		validation.Email("email", *p.Email, v)
	}
	if p.Phone != nil {
		validation.MaxLen("phone", *p.Phone, 50, v)
	}
	if p.MeterNumber != nil {
		validation.MaxLen("meterNumber", *p.MeterNumber, 100, v)
	}
	return v
}

// AccountEntry is one line of a customer statement.
type AccountEntry struct {
	ID             string       `json:"id"`
	Type           string       `json:"type"` // debit or credit
	EntryNumber    int          `json:"entryNumber"`
	Amount         models.Money `json:"amount"`
	Description    string       `json:"description"`
	DocumentNumber string       `json:"documentNumber"`
	Date           time.Time    `json:"date"`
	InvoiceID      string       `json:"invoiceId"`
	InvoiceNumber  string       `json:"invoiceNumber"`
}

const (
	EntryDebit  = "debit"
	EntryCredit = "credit"
)

type AccountTotals struct {
	TotalDebit     models.Money `json:"totalDebit"`
	TotalCredit    models.Money `json:"totalCredit"`
	CurrentBalance models.Money `json:"currentBalance"`
}

// Account is the statement of a customer: debit lines from billed invoices,
// credit lines from revenue entries.
type Account struct {
	Customer     models.Customer `json:"customer"`
	Transactions []AccountEntry  `json:"transactions"`
	Totals       AccountTotals   `json:"totals"`
}

// Debits returns the debit side of the statement.
func (a *Account) Debits() []AccountEntry { return a.side(EntryDebit) }

// Credits returns the credit side of the statement.
func (a *Account) Credits() []AccountEntry { return a.side(EntryCredit) }

func (a *Account) side(typ string) []AccountEntry {
	var out []AccountEntry
	for _, e := range a.Transactions {
		if e.Type == typ {
			out = append(out, e)
		}
	}
	return out
}

// LastReading pre-fills the next commercial invoice of a customer.
type LastReading struct {
	MeterNumber     string `json:"meterNumber"`
	PreviousReading string `json:"previousReading"`
}

// CustomerService encapsulates customer business logic.
type CustomerService struct {
	customers repository.CustomerRepository
	invoices  repository.InvoiceRepository
	log       zerolog.Logger
}

func NewCustomerService(customers repository.CustomerRepository, invoices repository.InvoiceRepository) *CustomerService {
	return &CustomerService{customers: customers, invoices: invoices, log: logger.WithComponent("customers")}
}

func notFound(err error) error {
	if errors.Is(err, repository.ErrNotFound) {
		return ErrNotFound
	}
	return err
}

func (s *CustomerService) Create(ctx context.Context, in CustomerInput) (*models.Customer, error) {
	if err := invalid(in.Validate()); err != nil {
		return nil, err
	}
	c := &models.Customer{
		Name:        strings.TrimSpace(in.Name),
		Email:       strings.TrimSpace(in.Email),
		Phone:       strings.TrimSpace(in.Phone),
		Address:     strings.TrimSpace(in.Address),
		MeterNumber: strings.TrimSpace(in.MeterNumber),
		Balance:     models.ParseMoney(in.Balance.String()),
	}
	if err := s.customers.Create(ctx, c); err != nil {
		return nil, err
	}
	s.log.Info().Str("customer_id", c.ID).Msg("customer created")
	return c, nil
}

func (s *CustomerService) Get(ctx context.Context, id string) (*models.Customer, error) {
	c, err := s.customers.Get(ctx, id)
	if err != nil {
		return nil, notFound(err)
	}
	return c, nil
}

func (s *CustomerService) List(ctx context.Context) ([]models.Customer, error) {
	return s.customers.List(ctx)
}

func (s *CustomerService) Update(ctx context.Context, id string, p CustomerPatch) (*models.Customer, error) {
	if err := invalid(p.Validate()); err != nil {
		return nil, err
	}
	c, err := s.customers.Get(ctx, id)
	if err != nil {
		return nil, notFound(err)
	}
	if p.Name != nil {
		c.Name = strings.TrimSpace(*p.Name)
	}
	if p.Email != nil {
		c.Email = strings.TrimSpace(*p.Email)
	}
	if p.Phone != nil {
		c.Phone = strings.TrimSpace(*p.Phone)
	}
	if p.Address != nil {
		c.Address = strings.TrimSpace(*p.Address)
	}
	if p.MeterNumber != nil {
		c.MeterNumber = strings.TrimSpace(*p.MeterNumber)
	}
	if err := s.customers.Update(ctx, c); err != nil {
		return nil, notFound(err)
	}
	return c, nil
}

// Delete refuses to remove a customer that still has invoices.
func (s *CustomerService) Delete(ctx context.Context, id string) error {
	if _, err := s.customers.Get(ctx, id); err != nil {
		return notFound(err)
	}
	n, err := s.invoices.CountByCustomer(ctx, id)
	if err != nil {
		return err
	}
	if n > 0 {
		return ErrCustomerHasInvoices
	}
	if err := s.customers.Delete(ctx, id); err != nil {
		return notFound(err)
	}
	s.log.Info().Str("customer_id", id).Msg("customer deleted")
	return nil
}

// ListWithStats returns every customer with invoice count and amount, largest amount first.
func (s *CustomerService) ListWithStats(ctx context.Context) ([]models.CustomerWithStats, error) {
	customers, err := s.customers.List(ctx)
	if err != nil {
		return nil, err
	}
	totals, err := s.invoices.TotalsByCustomer(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]models.CustomerWithStats, 0, len(customers))
	for _, c := range customers {
		t := totals[c.ID]
		out = append(out, models.CustomerWithStats{
			Customer:       c,
			TotalInvoices:  t.Count,
			TotalAmount:    models.NewMoney(t.Amount),
			AccountBalance: c.Balance,
		})
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].TotalAmount.GreaterThan(out[j].TotalAmount.Decimal)
	})
	return out, nil
}

// Account builds the customer statement. The current balance is the stored
// running balance, not a sum of the entries.
func (s *CustomerService) Account(ctx context.Context, id string) (*Account, error) {
	c, err := s.customers.Get(ctx, id)
	if err != nil {
		return nil, notFound(err)
	}
	invoices, err := s.invoices.ListByCustomer(ctx, id)
	if err != nil {
		return nil, err
	}
	acc := &Account{Customer: *c, Transactions: []AccountEntry{}}
	debit, credit := decimal.Zero, decimal.Zero
	for _, inv := range invoices {
		var side string
		switch {
		case inv.Type.Debit():
			side = EntryDebit
		case inv.Type == models.InvoiceTypeRevenue:
			side = EntryCredit
		default:
			continue
		}
		for _, it := range inv.Items {
			acc.Transactions = append(acc.Transactions, AccountEntry{
				ID:             it.ID,
				Type:           side,
				EntryNumber:    len(acc.Transactions) + 1,
				Amount:         it.Total,
				Description:    it.Description,
				DocumentNumber: it.DocumentNumber,
				Date:           inv.Date,
				InvoiceID:      inv.ID,
				InvoiceNumber:  inv.Number,
			})
			if side == EntryDebit {
				debit = debit.Add(it.Total.Decimal)
			} else {
				credit = credit.Add(it.Total.Decimal)
			}
		}
	}
	acc.Totals = AccountTotals{
		TotalDebit:     models.NewMoney(debit),
		TotalCredit:    models.NewMoney(credit),
		CurrentBalance: c.Balance,
	}
	return acc, nil
}

// LastReading returns the meter number and the reading to start the next
// commercial invoice from. Customers never billed on a meter get their own
// meter number and an empty reading.
func (s *CustomerService) LastReading(ctx context.Context, id string) (*LastReading, error) {
	c, err := s.customers.Get(ctx, id)
	if err != nil {
		return nil, notFound(err)
	}
	out := &LastReading{MeterNumber: c.MeterNumber}
	it, err := s.invoices.LastCommercialItem(ctx, id)
	if errors.Is(err, repository.ErrNotFound) {
		return out, nil
	}
	if err != nil {
		return nil, fmt.Errorf("last reading: %w", err)
	}
	if it.MeterNumber != "" {
		out.MeterNumber = it.MeterNumber
	}
	if it.CurrentReading.Valid {
		out.PreviousReading = it.CurrentReading.Decimal.String()
	}
	return out, nil
}
