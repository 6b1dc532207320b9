package services

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/diewo77/fawater/i18n"
	"github.com/diewo77/fawater/internal/billing"
	"github.com/diewo77/fawater/internal/logger"
	"github.com/diewo77/fawater/internal/models"
	"github.com/diewo77/fawater/internal/repository"
	"github.com/diewo77/fawater/validation"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

// NumberPrefix starts every generated invoice number, e.g. INV-2024-001.
const NumberPrefix = "INV"

// revenueSuffix marks the revenue entry recorded alongside a payment.
const revenueSuffix = "-REV"

// InvoiceInput is the invoice header of a create request. Client supplied
// subtotal and total are ignored; discount is taken from DiscountPercent when
// present, otherwise Discount is read as an amount.
type InvoiceInput struct {
	Number          string                `json:"number"`
	CustomerID      string                `json:"customerId"`
	Date            string                `json:"date"`
	DueDate         string                `json:"dueDate"`
	Status          string                `json:"status"`
	Type            string                `json:"type"`
	DiscountPercent validation.FlexString `json:"discountPercent"`
	Discount        validation.FlexString `json:"discount"`
	Notes           string                `json:"notes"`
}

type ItemInput struct {
	Description     string                `json:"description"`
	DocumentNumber  string                `json:"documentNumber"`
	MeterNumber     string                `json:"meterNumber"`
	PreviousReading validation.FlexString `json:"previousReading"`
	CurrentReading  validation.FlexString `json:"currentReading"`
	UnitPrice       validation.FlexString `json:"unitPrice"`
	Price           validation.FlexString `json:"price"`
}

func (it ItemInput) line() billing.Line {
	return billing.Line{
		PreviousReading: it.PreviousReading.String(),
		CurrentReading:  it.CurrentReading.String(),
		UnitPrice:       it.UnitPrice.String(),
		Price:           it.Price.String(),
	}
}

// CreateInvoiceRequest is the body of POST /api/invoices.
type CreateInvoiceRequest struct {
	Invoice   InvoiceInput `json:"invoice"`
	Items     []ItemInput  `json:"items"`
	IsPayment bool         `json:"isPayment"`
}

// invoiceType resolves the effective type; payments always win.
func (r CreateInvoiceRequest) invoiceType() models.InvoiceType {
	if r.IsPayment {
		return models.InvoiceTypePayment
	}
	if r.Invoice.Type == "" {
		return models.InvoiceTypeMonthly
	}
	return models.InvoiceType(r.Invoice.Type)
}

func (r CreateInvoiceRequest) status() models.InvoiceStatus {
	if r.invoiceType() == models.InvoiceTypePayment {
		return models.InvoiceStatusPaid
	}
	if r.Invoice.Status == "" {
		return models.InvoiceStatusPending
	}
	return models.InvoiceStatus(r.Invoice.Status)
}

func (r CreateInvoiceRequest) lines() []billing.Line {
	out := make([]billing.Line, len(r.Items))
	for i, it := range r.Items {
		out[i] = it.line()
	}
	return out
}

// Totals computes the authoritative amounts of the request.
func (r CreateInvoiceRequest) Totals() billing.Totals {
	typ := r.invoiceType()
	switch {
	case typ == models.InvoiceTypePayment:
		return billing.InvoiceTotals(r.lines(), typ, "")
	case strings.TrimSpace(r.Invoice.DiscountPercent.String()) != "":
		return billing.InvoiceTotals(r.lines(), typ, r.Invoice.DiscountPercent.String())
	default:
		return billing.InvoiceTotalsWithAmount(r.lines(), typ, r.Invoice.Discount.String())
	}
}

func (r CreateInvoiceRequest) Validate() validation.Violations {
	v := validation.Violations{}
	in := r.Invoice
	validation.Required("customerId", in.CustomerID, v)
	validation.Required("date", in.Date, v)
	validation.Date("date", in.Date, v)
	validation.Date("dueDate", in.DueDate, v)
	validation.MaxLen("number", in.Number, 50, v)
	if in.Type != "" {
		validation.OneOf("type", in.Type, models.InvoiceTypes, v)
	}
	if in.Status != "" {
		validation.OneOf("status", in.Status, models.InvoiceStatuses, v)
	}
	validation.RangeDecimal("discountPercent", in.DiscountPercent.String(), 0, 100, v)
	validation.NonNegativeDecimal("discount", in.Discount.String(), v)
	validation.Amount("discount", in.Discount.String(), v)
	if len(r.Items) == 0 {
		v.Add("items", "required")
	}
	for i, it := range r.Items {
		p := "items." + strconv.Itoa(i) + "."
		validation.Required(p+"description", it.Description, v)
		validation.NonNegativeDecimal(p+"price", it.Price.String(), v)
		validation.Amount(p+"price", it.Price.String(), v)
		validation.Amount(p+"previousReading", it.PreviousReading.String(), v)
		validation.Amount(p+"currentReading", it.CurrentReading.String(), v)
		validation.Amount(p+"unitPrice", it.UnitPrice.String(), v)
	}
	return v
}

// InvoicePatch is the body of PUT /api/invoices/{id}; nil fields are left unchanged.
// An empty DueDate clears it.
type InvoicePatch struct {
	Number          *string                `json:"number"`
	CustomerID      *string                `json:"customerId"`
	Date            *string                `json:"date"`
	DueDate         *string                `json:"dueDate"`
	Status          *string                `json:"status"`
	Type            *string                `json:"type"`
	DiscountPercent *validation.FlexString `json:"discountPercent"`
	Discount        *validation.FlexString `json:"discount"`
	Notes           *string                `json:"notes"`
}

func (p InvoicePatch) Validate() validation.Violations {
	v := validation.Violations{}
	if p.Number != nil {
		validation.Required("number", *p.Number, v)
		validation.MaxLen("number", *p.Number, 50, v)
	}
	if p.CustomerID != nil {
		validation.Required("customerId", *p.CustomerID, v)
	}
	if p.Date != nil {
		validation.Required("date", *p.Date, v)
		validation.Date("date", *p.Date, v)
	}
	if p.DueDate != nil {
		validation.Date("dueDate", *p.DueDate, v)
	}
	if p.Status != nil {
		validation.OneOf("status", *p.Status, models.InvoiceStatuses, v)
	}
	if p.Type != nil {
		validation.OneOf("type", *p.Type, models.InvoiceTypes, v)
	}
	if p.DiscountPercent != nil {
		validation.RangeDecimal("discountPercent", p.DiscountPercent.String(), 0, 100, v)
	}
	if p.Discount != nil {
		validation.NonNegativeDecimal("discount", p.Discount.String(), v)
		validation.Amount("discount", p.Discount.String(), v)
	}
	return v
}

// PreviewLine is the computed price of one item.
type PreviewLine struct {
	Price   models.Money `json:"price"`
	Formula string       `json:"formula,omitempty"`
}

// Preview is the live computation shown while an invoice is being typed.
type Preview struct {
	billing.Totals
	Lines []PreviewLine `json:"lines"`
}

// InvoiceService encapsulates invoice business logic.
type InvoiceService struct {
	invoices  repository.InvoiceRepository
	customers repository.CustomerRepository
	log       zerolog.Logger
	now       func() time.Time
}

func NewInvoiceService(invoices repository.InvoiceRepository, customers repository.CustomerRepository) *InvoiceService {
	return &InvoiceService{
		invoices:  invoices,
		customers: customers,
		log:       logger.WithComponent("invoices"),
		now:       time.Now,
	}
}

func parseDate(s string) time.Time {
	t, _ := validation.ParseDate(s)
	return t.UTC()
}

func nullDecimal(s validation.FlexString) decimal.NullDecimal {
	raw := strings.ReplaceAll(strings.TrimSpace(s.String()), ",", "")
	if raw == "" {
		return decimal.NullDecimal{}
	}
	d, err := decimal.NewFromString(raw)
	if err != nil {
		return decimal.NullDecimal{}
	}
	return decimal.NewNullDecimal(d)
}

// Preview computes prices and totals without persisting anything.
func (s *InvoiceService) Preview(req CreateInvoiceRequest) Preview {
	typ := req.invoiceType()
	out := Preview{Totals: req.Totals(), Lines: make([]PreviewLine, len(req.Items))}
	for i, it := range req.Items {
		l := it.line()
		out.Lines[i] = PreviewLine{
			Price:   models.NewMoney(billing.LineTotal(l, typ)),
			Formula: billing.ConsumptionFormula(l, typ),
		}
	}
	return out
}

// Create stores the invoice with server computed totals, generates a number
// when none is given and moves the customer balance. A payment also records
// a paid revenue entry that credits the customer.
func (s *InvoiceService) Create(ctx context.Context, req CreateInvoiceRequest) (*models.Invoice, error) {
	v := req.Validate()
	if !v.Empty() {
		return nil, &ValidationError{Fields: v}
	}
	typ := req.invoiceType()
	totals := req.Totals()
	if err := s.withinLimits(ctx, req.Invoice.CustomerID, typ, totals); err != nil {
		return nil, err
	}
	date := parseDate(req.Invoice.Date)
	number := strings.TrimSpace(req.Invoice.Number)
	if number == "" {
		n, err := s.invoices.NextNumber(ctx, NumberPrefix, date.Year())
		if err != nil {
			return nil, err
		}
		number = n
	}
	taken := []string{number}
	if req.IsPayment {
		taken = append(taken, number+revenueSuffix)
	}
	for _, n := range taken {
		exists, err := s.invoices.NumberExists(ctx, n)
		if err != nil {
			return nil, err
		}
		if exists {
			return nil, &ValidationError{Fields: validation.Violations{"number": "already_exists"}}
		}
	}

	inv := &models.Invoice{
		Number:     number,
		CustomerID: strings.TrimSpace(req.Invoice.CustomerID),
		Date:       date,
		Status:     req.status(),
		Type:       typ,
		Subtotal:   totals.Subtotal,
		Tax:        models.ZeroMoney(),
		Discount:   totals.DiscountAmount,
		Total:      totals.Total,
		Notes:      req.Invoice.Notes,
	}
	if strings.TrimSpace(req.Invoice.DueDate) != "" {
		due := parseDate(req.Invoice.DueDate)
		inv.DueDate = &due
	}
	for _, it := range req.Items {
		price := models.NewMoney(billing.LineTotal(it.line(), typ))
		inv.Items = append(inv.Items, models.InvoiceItem{
			Description:     strings.TrimSpace(it.Description),
			DocumentNumber:  strings.TrimSpace(it.DocumentNumber),
			MeterNumber:     strings.TrimSpace(it.MeterNumber),
			PreviousReading: nullDecimal(it.PreviousReading),
			CurrentReading:  nullDecimal(it.CurrentReading),
			UnitPrice:       nullDecimal(it.UnitPrice),
			Price:           price,
			Total:           price,
		})
	}
	if err := s.create(ctx, inv); err != nil {
		return nil, err
	}
	if req.IsPayment {
		if err := s.create(ctx, revenueFor(inv)); err != nil {
			return nil, fmt.Errorf("record payment revenue: %w", err)
		}
	}
	return s.Get(ctx, inv.ID)
}

func outOfRange() error {
	return &ValidationError{Fields: validation.Violations{"items": "out_of_range"}}
}

// withinLimits rejects invoices whose subtotal, or the balance they leave the
// customer with, does not fit a decimal(10,2) column.
func (s *InvoiceService) withinLimits(ctx context.Context, customerID string, typ models.InvoiceType, totals billing.Totals) error {
	if totals.Subtotal.Abs().GreaterThan(validation.MaxAmount) {
		return outOfRange()
	}
	if !typ.Debit() {
		return nil
	}
	c, err := s.customers.Get(ctx, strings.TrimSpace(customerID))
	if errors.Is(err, repository.ErrNotFound) {
		return nil
	}
	if err != nil {
		return err
	}
	if billing.ApplyToBalance(c.Balance.Decimal, typ, totals.Total.Decimal).GreaterThan(validation.MaxAmount) {
		return outOfRange()
	}
	return nil
}

// create persists inv and applies it to the customer balance.
func (s *InvoiceService) create(ctx context.Context, inv *models.Invoice) error {
	if err := s.invoices.Create(ctx, inv); err != nil {
		return err
	}
	s.log.Info().Str("invoice_id", inv.ID).Str("number", inv.Number).Str("type", string(inv.Type)).Str("total", inv.Total.String()).Msg("invoice created")
	return s.applyToBalance(ctx, inv)
}

// applyToBalance is a no-op for unknown customers; the invoice stays stored.
func (s *InvoiceService) applyToBalance(ctx context.Context, inv *models.Invoice) error {
	if !inv.Type.Debit() && inv.Type != models.InvoiceTypeRevenue {
		return nil
	}
	c, err := s.customers.Get(ctx, inv.CustomerID)
	if errors.Is(err, repository.ErrNotFound) {
		s.log.Warn().Str("invoice_id", inv.ID).Str("customer_id", inv.CustomerID).Msg("invoice references unknown customer, balance unchanged")
		return nil
	}
	if err != nil {
		return err
	}
	balance := billing.ApplyToBalance(c.Balance.Decimal, inv.Type, inv.Total.Decimal)
	if err := s.customers.UpdateBalance(ctx, c.ID, balance); err != nil {
		return fmt.Errorf("update balance: %w", err)
	}
	s.log.Debug().Str("customer_id", c.ID).Str("from", c.Balance.String()).Str("to", balance.String()).Msg("balance updated")
	return nil
}

func revenueFor(payment *models.Invoice) *models.Invoice {
	desc := i18n.T(i18n.DefaultLang, "payment_description") + " " + payment.Number
	return &models.Invoice{
		Number:     payment.Number + revenueSuffix,
		CustomerID: payment.CustomerID,
		Date:       payment.Date,
		Status:     models.InvoiceStatusPaid,
		Type:       models.InvoiceTypeRevenue,
		Subtotal:   payment.Total,
		Tax:        models.ZeroMoney(),
		Discount:   models.ZeroMoney(),
		Total:      payment.Total,
		Notes:      payment.Notes,
		Items: []models.InvoiceItem{{
			Description:    desc,
			DocumentNumber: payment.Number,
			Price:          payment.Total,
			Total:          payment.Total,
		}},
	}
}

// Get returns the invoice with its items and customer.
func (s *InvoiceService) Get(ctx context.Context, id string) (*models.Invoice, error) {
	inv, err := s.invoices.Get(ctx, id)
	if err != nil {
		return nil, notFound(err)
	}
	return inv, nil
}

func (s *InvoiceService) List(ctx context.Context, f repository.InvoiceFilter) ([]models.Invoice, error) {
	return s.invoices.List(ctx, f)
}

// Update changes the invoice header. Totals are recomputed from the stored
// items when the type or discount changes. The customer balance is not touched.
func (s *InvoiceService) Update(ctx context.Context, id string, p InvoicePatch) (*models.Invoice, error) {
	v := p.Validate()
	if !v.Empty() {
		return nil, &ValidationError{Fields: v}
	}
	inv, err := s.invoices.Get(ctx, id)
	if err != nil {
		return nil, notFound(err)
	}
	if p.Number != nil && strings.TrimSpace(*p.Number) != inv.Number {
		number := strings.TrimSpace(*p.Number)
		exists, err := s.invoices.NumberExists(ctx, number)
		if err != nil {
			return nil, err
		}
		if exists {
			return nil, &ValidationError{Fields: validation.Violations{"number": "already_exists"}}
		}
		inv.Number = number
	}
	if p.CustomerID != nil {
		inv.CustomerID = strings.TrimSpace(*p.CustomerID)
	}
	if p.Date != nil {
		inv.Date = parseDate(*p.Date)
	}
	if p.DueDate != nil {
		if strings.TrimSpace(*p.DueDate) == "" {
			inv.DueDate = nil
		} else {
			due := parseDate(*p.DueDate)
			inv.DueDate = &due
		}
	}
	if p.Status != nil {
		inv.Status = models.InvoiceStatus(*p.Status)
	}
	if p.Notes != nil {
		inv.Notes = *p.Notes
	}
	if p.Type != nil || p.DiscountPercent != nil || p.Discount != nil {
		if p.Type != nil {
			inv.Type = models.InvoiceType(*p.Type)
		}
		lines := make([]billing.Line, len(inv.Items))
		for i, it := range inv.Items {
			lines[i] = billing.LineFromItem(it)
		}
		var totals billing.Totals
		switch {
		case inv.Type == models.InvoiceTypePayment:
			totals = billing.InvoiceTotals(lines, inv.Type, "")
		case p.DiscountPercent != nil && strings.TrimSpace(p.DiscountPercent.String()) != "":
			totals = billing.InvoiceTotals(lines, inv.Type, p.DiscountPercent.String())
		case p.Discount != nil:
			totals = billing.InvoiceTotalsWithAmount(lines, inv.Type, p.Discount.String())
		default:
			totals = billing.InvoiceTotalsWithAmount(lines, inv.Type, inv.Discount.String())
		}
		if totals.Subtotal.Abs().GreaterThan(validation.MaxAmount) {
			return nil, outOfRange()
		}
		inv.Subtotal, inv.Discount, inv.Total = totals.Subtotal, totals.DiscountAmount, totals.Total
	}
	if err := s.invoices.Update(ctx, inv); err != nil {
		return nil, notFound(err)
	}
	s.log.Info().Str("invoice_id", inv.ID).Msg("invoice updated; customer balance left unchanged")
	return s.Get(ctx, inv.ID)
}

// Delete removes the invoice and its items. The customer balance is not touched.
func (s *InvoiceService) Delete(ctx context.Context, id string) error {
	if err := s.invoices.Delete(ctx, id); err != nil {
		return notFound(err)
	}
	s.log.Info().Str("invoice_id", id).Msg("invoice deleted")
	return nil
}

func (s *InvoiceService) DashboardStats(ctx context.Context) (*models.DashboardStats, error) {
	sales, err := s.invoices.SumTotal(ctx, models.InvoiceStatusPaid)
	if err != nil {
		return nil, err
	}
	counts, err := s.invoices.CountByStatus(ctx)
	if err != nil {
		return nil, err
	}
	customers, err := s.customers.Count(ctx)
	if err != nil {
		return nil, err
	}
	return &models.DashboardStats{
		TotalSales:      models.NewMoney(sales),
		PaidInvoices:    counts[models.InvoiceStatusPaid],
		PendingInvoices: counts[models.InvoiceStatusPending],
		OverdueInvoices: counts[models.InvoiceStatusOverdue],
		ActiveCustomers: customers,
	}, nil
}

// MarkOverdue flips pending invoices whose due date is before now to overdue.
func (s *InvoiceService) MarkOverdue(ctx context.Context, now time.Time) (int64, error) {
	n, err := s.invoices.MarkOverdue(ctx, now.UTC())
	if err != nil {
		return 0, err
	}
	if n > 0 {
		s.log.Info().Int64("count", n).Msg("invoices marked overdue")
	}
	return n, nil
}

// SweepOverdue runs MarkOverdue every interval until ctx is done.
func (s *InvoiceService) SweepOverdue(ctx context.Context, interval time.Duration) error {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		if _, err := s.MarkOverdue(ctx, s.now()); err != nil {
			s.log.Error().Err(err).Msg("overdue sweep failed")
		}
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
		}
	}
}
