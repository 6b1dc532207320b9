package repository

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/diewo77/fawater/internal/models"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// InvoiceRepo is the gorm implementation of InvoiceRepository
type InvoiceRepo struct {
	db *gorm.DB
}

func NewInvoiceRepo(db *gorm.DB) *InvoiceRepo {
	return &InvoiceRepo{db: db}
}

// Create inserts the invoice and its items in one transaction.
func (r *InvoiceRepo) Create(ctx context.Context, inv *models.Invoice) error {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		items := inv.Items
		inv.Items = nil
		if err := tx.Omit(clause.Associations).Create(inv).Error; err != nil {
			inv.Items = items
			return err
		}
		for i := range items {
			items[i].InvoiceID = inv.ID
		}
		inv.Items = items
		if len(items) == 0 {
			return nil
		}
		return tx.Create(&inv.Items).Error
	})
	if err != nil {
		return fmt.Errorf("create invoice: %w", err)
	}
	return nil
}

func (r *InvoiceRepo) Get(ctx context.Context, id string) (*models.Invoice, error) {
	var inv models.Invoice
	err := r.db.WithContext(ctx).Preload("Items").Preload("Customer").First(&inv, "id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get invoice %s: %w", id, err)
	}
	return &inv, nil
}

func (r *InvoiceRepo) List(ctx context.Context, f InvoiceFilter) ([]models.Invoice, error) {
	q := r.db.WithContext(ctx).Model(&models.Invoice{})
	if f.CustomerID != "" {
		q = q.Where("customer_id = ?", f.CustomerID)
	}
	if f.Status != "" {
		q = q.Where("status = ?", f.Status)
	}
	if f.Type != "" {
		q = q.Where("type = ?", f.Type)
	}
	var out []models.Invoice
	if err := q.Preload("Customer").Order("created_at desc").Order("number desc").Find(&out).Error; err != nil {
		return nil, fmt.Errorf("list invoices: %w", err)
	}
	return out, nil
}

func (r *InvoiceRepo) ListByCustomer(ctx context.Context, customerID string) ([]models.Invoice, error) {
	var out []models.Invoice
	err := r.db.WithContext(ctx).Preload("Items").
		Where("customer_id = ?", customerID).
		Order("date asc").Order("created_at asc").
		Find(&out).Error
	if err != nil {
		return nil, fmt.Errorf("list invoices of %s: %w", customerID, err)
	}
	return out, nil
}

func (r *InvoiceRepo) Update(ctx context.Context, inv *models.Invoice) error {
	res := r.db.WithContext(ctx).Model(&models.Invoice{}).Where("id = ?", inv.ID).
		Select("number", "customer_id", "date", "due_date", "status", "type", "subtotal", "tax", "discount", "total", "notes").
		Updates(inv)
	if res.Error != nil {
		return fmt.Errorf("update invoice %s: %w", inv.ID, res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// Delete removes the invoice items first, then the invoice.
func (r *InvoiceRepo) Delete(ctx context.Context, id string) error {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("invoice_id = ?", id).Delete(&models.InvoiceItem{}).Error; err != nil {
			return err
		}
		res := tx.Delete(&models.Invoice{}, "id = ?", id)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return ErrNotFound
		}
		return nil
	})
	if errors.Is(err, ErrNotFound) {
		return err
	}
	if err != nil {
		return fmt.Errorf("delete invoice %s: %w", id, err)
	}
	return nil
}

func (r *InvoiceRepo) NumberExists(ctx context.Context, number string) (bool, error) {
	var n int64
	if err := r.db.WithContext(ctx).Model(&models.Invoice{}).Where("number = ?", number).Count(&n).Error; err != nil {
		return false, fmt.Errorf("check invoice number: %w", err)
	}
	return n > 0, nil
}

func (r *InvoiceRepo) NextNumber(ctx context.Context, prefix string, year int) (string, error) {
	base := fmt.Sprintf("%s-%d-", prefix, year)
	var numbers []string
	if err := r.db.WithContext(ctx).Model(&models.Invoice{}).Where("number LIKE ?", base+"%").Pluck("number", &numbers).Error; err != nil {
		return "", fmt.Errorf("next invoice number: %w", err)
	}
	maxSeq := 0
	for _, n := range numbers {
		// payment revenue entries carry a suffix after the sequence
		seq, err := strconv.Atoi(strings.SplitN(strings.TrimPrefix(n, base), "-", 2)[0])
		if err == nil && seq > maxSeq {
			maxSeq = seq
		}
	}
	return fmt.Sprintf("%s%03d", base, maxSeq+1), nil
}

func (r *InvoiceRepo) LastCommercialItem(ctx context.Context, customerID string) (*models.InvoiceItem, error) {
	var it models.InvoiceItem
	err := r.db.WithContext(ctx).Model(&models.InvoiceItem{}).
		Joins("JOIN invoices ON invoices.id = invoice_items.invoice_id").
		Where("invoices.customer_id = ? AND invoices.type = ?", customerID, models.InvoiceTypeCommercial).
		Order("invoices.date desc").Order("invoices.created_at desc").
		First(&it).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("last commercial item of %s: %w", customerID, err)
	}
	return &it, nil
}

func (r *InvoiceRepo) CountByCustomer(ctx context.Context, customerID string) (int64, error) {
	var n int64
	if err := r.db.WithContext(ctx).Model(&models.Invoice{}).Where("customer_id = ?", customerID).Count(&n).Error; err != nil {
		return 0, fmt.Errorf("count invoices of %s: %w", customerID, err)
	}
	return n, nil
}

func (r *InvoiceRepo) TotalsByCustomer(ctx context.Context) (map[string]CustomerTotals, error) {
	var rows []CustomerTotals
	err := r.db.WithContext(ctx).Model(&models.Invoice{}).
		Select("customer_id, COUNT(*) AS count, COALESCE(SUM(total), 0) AS amount").
		Group("customer_id").
		Scan(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("invoice totals by customer: %w", err)
	}
	out := make(map[string]CustomerTotals, len(rows))
	for _, row := range rows {
		row.Amount = row.Amount.Round(2)
		out[row.CustomerID] = row
	}
	return out, nil
}

func (r *InvoiceRepo) CountByStatus(ctx context.Context) (map[models.InvoiceStatus]int64, error) {
	var rows []struct {
		Status models.InvoiceStatus
		Count  int64
	}
	err := r.db.WithContext(ctx).Model(&models.Invoice{}).
		Select("status, COUNT(*) AS count").
		Group("status").
		Scan(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("count invoices by status: %w", err)
	}
	out := make(map[models.InvoiceStatus]int64, len(rows))
	for _, row := range rows {
		out[row.Status] = row.Count
	}
	return out, nil
}

func (r *InvoiceRepo) SumTotal(ctx context.Context, status models.InvoiceStatus) (decimal.Decimal, error) {
	var row struct {
		Sum decimal.NullDecimal
	}
	err := r.db.WithContext(ctx).Model(&models.Invoice{}).
		Select("SUM(total) AS sum").
		Where("status = ?", status).
		Scan(&row).Error
	if err != nil {
		return decimal.Zero, fmt.Errorf("sum invoice totals: %w", err)
	}
	if !row.Sum.Valid {
		return decimal.Zero, nil
	}
	return row.Sum.Decimal.Round(2), nil
}

func (r *InvoiceRepo) MarkOverdue(ctx context.Context, now time.Time) (int64, error) {
	res := r.db.WithContext(ctx).Model(&models.Invoice{}).
		Where("status = ? AND due_date IS NOT NULL AND due_date < ?", models.InvoiceStatusPending, now).
		Update("status", models.InvoiceStatusOverdue)
	if res.Error != nil {
		return 0, fmt.Errorf("mark overdue invoices: %w", res.Error)
	}
	return res.RowsAffected, nil
}
