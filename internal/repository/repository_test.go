package repository

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/diewo77/fawater/internal/models"
	"github.com/shopspring/decimal"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{DisableForeignKeyConstraintWhenMigrating: true})
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	if err := db.AutoMigrate(&models.Customer{}, &models.Invoice{}, &models.InvoiceItem{}); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return db
}

func day(s string) time.Time {
	d, _ := time.Parse("2006-01-02", s)
	return d
}

func newInvoice(customerID, number string, typ models.InvoiceType, status models.InvoiceStatus, total string, date time.Time) *models.Invoice {
	return &models.Invoice{
		Number:     number,
		CustomerID: customerID,
		Date:       date,
		Status:     status,
		Type:       typ,
		Subtotal:   models.ParseMoney(total),
		Total:      models.ParseMoney(total),
		Items:      []models.InvoiceItem{{Description: "line", Price: models.ParseMoney(total), Total: models.ParseMoney(total)}},
	}
}

func TestCustomerRepoCRUD(t *testing.T) {
	ctx := context.Background()
	repo := NewCustomerRepo(setupTestDB(t))

	c := &models.Customer{Name: "أحمد محمد علي", Phone: "777123456", MeterNumber: "M-001"}
	if err := repo.Create(ctx, c); err != nil {
		t.Fatalf("create: %v", err)
	}
	if c.ID == "" {
		t.Fatalf("expected generated id")
	}
	got, err := repo.Get(ctx, c.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.Name != c.Name || got.Balance.String() != "0.00" {
		t.Fatalf("unexpected customer %+v", got)
	}

	if err := repo.UpdateBalance(ctx, c.ID, models.ParseMoney("150.5")); err != nil {
		t.Fatalf("update balance: %v", err)
	}
	c.Name = "أحمد محمد"
	c.Balance = models.ParseMoney("999")
	if err := repo.Update(ctx, c); err != nil {
		t.Fatalf("update: %v", err)
	}
	got, _ = repo.Get(ctx, c.ID)
	if got.Name != "أحمد محمد" {
		t.Fatalf("name not updated: %s", got.Name)
	}
	if got.Balance.String() != "150.50" {
		t.Fatalf("contact update must not touch balance, got %s", got.Balance)
	}

	if n, _ := repo.Count(ctx); n != 1 {
		t.Fatalf("expected 1 customer got %d", n)
	}
	if err := repo.Delete(ctx, c.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, err := repo.Get(ctx, c.ID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound got %v", err)
	}
	if err := repo.Delete(ctx, c.ID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound on second delete got %v", err)
	}
}

func TestInvoiceRepoCreateGetDelete(t *testing.T) {
	ctx := context.Background()
	db := setupTestDB(t)
	customers := NewCustomerRepo(db)
	repo := NewInvoiceRepo(db)

	c := &models.Customer{Name: "فاطمة أحمد"}
	if err := customers.Create(ctx, c); err != nil {
		t.Fatal(err)
	}
	inv := newInvoice(c.ID, "INV-2024-001", models.InvoiceTypeMonthly, models.InvoiceStatusPending, "200", day("2024-01-15"))
	inv.Items = append(inv.Items, models.InvoiceItem{Description: "second", Price: models.ParseMoney("0"), Total: models.ParseMoney("0")})
	if err := repo.Create(ctx, inv); err != nil {
		t.Fatalf("create: %v", err)
	}
	for _, it := range inv.Items {
		if it.ID == "" || it.InvoiceID != inv.ID {
			t.Fatalf("item not linked: %+v", it)
		}
	}

	got, err := repo.Get(ctx, inv.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if len(got.Items) != 2 || got.Customer == nil || got.Customer.ID != c.ID {
		t.Fatalf("expected items and customer preloaded: %+v", got)
	}
	if got.Total.String() != "200.00" {
		t.Fatalf("unexpected total %s", got.Total)
	}

	exists, _ := repo.NumberExists(ctx, "INV-2024-001")
	if !exists {
		t.Fatalf("expected number to exist")
	}

	if err := repo.Delete(ctx, inv.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	var items int64
	db.Model(&models.InvoiceItem{}).Where("invoice_id = ?", inv.ID).Count(&items)
	if items != 0 {
		t.Fatalf("expected items removed with invoice, %d left", items)
	}
	if err := repo.Delete(ctx, inv.ID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound got %v", err)
	}
}

func TestInvoiceRepoUpdateKeepsItems(t *testing.T) {
	ctx := context.Background()
	repo := NewInvoiceRepo(setupTestDB(t))
	inv := newInvoice("c1", "INV-2024-001", models.InvoiceTypeMonthly, models.InvoiceStatusPending, "50", day("2024-01-01"))
	if err := repo.Create(ctx, inv); err != nil {
		t.Fatal(err)
	}
	inv.Status = models.InvoiceStatusPaid
	inv.Notes = "تم السداد"
	inv.Items = nil
	if err := repo.Update(ctx, inv); err != nil {
		t.Fatalf("update: %v", err)
	}
	got, _ := repo.Get(ctx, inv.ID)
	if got.Status != models.InvoiceStatusPaid || got.Notes != "تم السداد" || len(got.Items) != 1 {
		t.Fatalf("unexpected invoice after update %+v", got)
	}
	if err := repo.Update(ctx, &models.Invoice{ID: "missing", Number: "X"}); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound got %v", err)
	}
}

func TestInvoiceRepoNextNumber(t *testing.T) {
	ctx := context.Background()
	repo := NewInvoiceRepo(setupTestDB(t))
	n, err := repo.NextNumber(ctx, "INV", 2024)
	if err != nil || n != "INV-2024-001" {
		t.Fatalf("expected INV-2024-001 got %q %v", n, err)
	}
	for _, num := range []string{"INV-2024-001", "INV-2024-007", "INV-2024-007-REV", "INV-2023-050"} {
		if err := repo.Create(ctx, newInvoice("c1", num, models.InvoiceTypeMonthly, models.InvoiceStatusPending, "1", day("2024-01-01"))); err != nil {
			t.Fatal(err)
		}
	}
	n, _ = repo.NextNumber(ctx, "INV", 2024)
	if n != "INV-2024-008" {
		t.Fatalf("expected INV-2024-008 got %s", n)
	}
}

func TestInvoiceRepoAggregates(t *testing.T) {
	ctx := context.Background()
	repo := NewInvoiceRepo(setupTestDB(t))
	fixtures := []*models.Invoice{
		newInvoice("a", "INV-1", models.InvoiceTypeMonthly, models.InvoiceStatusPaid, "100.10", day("2024-01-01")),
		newInvoice("a", "INV-2", models.InvoiceTypeMonthly, models.InvoiceStatusPaid, "0.20", day("2024-01-02")),
		newInvoice("a", "INV-3", models.InvoiceTypeMonthly, models.InvoiceStatusPending, "50", day("2024-01-03")),
		newInvoice("b", "INV-4", models.InvoiceTypeCommercial, models.InvoiceStatusOverdue, "75", day("2024-01-04")),
	}
	for _, inv := range fixtures {
		if err := repo.Create(ctx, inv); err != nil {
			t.Fatal(err)
		}
	}
	sum, err := repo.SumTotal(ctx, models.InvoiceStatusPaid)
	if err != nil || sum.StringFixed(2) != "100.30" {
		t.Fatalf("expected 100.30 got %s %v", sum.StringFixed(2), err)
	}
	counts, _ := repo.CountByStatus(ctx)
	if counts[models.InvoiceStatusPaid] != 2 || counts[models.InvoiceStatusPending] != 1 || counts[models.InvoiceStatusOverdue] != 1 {
		t.Fatalf("unexpected counts %v", counts)
	}
	totals, _ := repo.TotalsByCustomer(ctx)
	if totals["a"].Count != 3 || totals["a"].Amount.StringFixed(2) != "150.30" || totals["b"].Count != 1 {
		t.Fatalf("unexpected totals %+v", totals)
	}
	if n, _ := repo.CountByCustomer(ctx, "b"); n != 1 {
		t.Fatalf("expected 1 invoice for b got %d", n)
	}
	list, _ := repo.List(ctx, InvoiceFilter{CustomerID: "a", Status: models.InvoiceStatusPaid})
	if len(list) != 2 {
		t.Fatalf("expected 2 filtered invoices got %d", len(list))
	}
	empty, _ := repo.SumTotal(ctx, "unknown")
	if !empty.Equal(decimal.Zero) {
		t.Fatalf("expected zero sum got %s", empty)
	}
}

func TestInvoiceRepoLastCommercialItem(t *testing.T) {
	ctx := context.Background()
	repo := NewInvoiceRepo(setupTestDB(t))
	if _, err := repo.LastCommercialItem(ctx, "c1"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound got %v", err)
	}
	older := newInvoice("c1", "INV-1", models.InvoiceTypeCommercial, models.InvoiceStatusPending, "100", day("2024-01-01"))
	older.Items[0].CurrentReading = decimal.NewNullDecimal(decimal.NewFromInt(150))
	newer := newInvoice("c1", "INV-2", models.InvoiceTypeCommercial, models.InvoiceStatusPending, "100", day("2024-02-01"))
	newer.Items[0].MeterNumber = "M-9"
	newer.Items[0].CurrentReading = decimal.NewNullDecimal(decimal.NewFromInt(200))
	monthly := newInvoice("c1", "INV-3", models.InvoiceTypeMonthly, models.InvoiceStatusPending, "10", day("2024-03-01"))
	for _, inv := range []*models.Invoice{older, newer, monthly} {
		if err := repo.Create(ctx, inv); err != nil {
			t.Fatal(err)
		}
	}
	it, err := repo.LastCommercialItem(ctx, "c1")
	if err != nil {
		t.Fatalf("last item: %v", err)
	}
	if it.MeterNumber != "M-9" || it.CurrentReading.Decimal.IntPart() != 200 {
		t.Fatalf("expected newest commercial item, got %+v", it)
	}
}

func TestInvoiceRepoMarkOverdue(t *testing.T) {
	ctx := context.Background()
	repo := NewInvoiceRepo(setupTestDB(t))
	now := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	past := now.AddDate(0, 0, -10)
	future := now.AddDate(0, 0, 10)

	due := newInvoice("c1", "INV-1", models.InvoiceTypeMonthly, models.InvoiceStatusPending, "10", past)
	due.DueDate = &past
	notDue := newInvoice("c1", "INV-2", models.InvoiceTypeMonthly, models.InvoiceStatusPending, "10", past)
	notDue.DueDate = &future
	paid := newInvoice("c1", "INV-3", models.InvoiceTypeMonthly, models.InvoiceStatusPaid, "10", past)
	paid.DueDate = &past
	noDue := newInvoice("c1", "INV-4", models.InvoiceTypeMonthly, models.InvoiceStatusPending, "10", past)
	for _, inv := range []*models.Invoice{due, notDue, paid, noDue} {
		if err := repo.Create(ctx, inv); err != nil {
			t.Fatal(err)
		}
	}
	n, err := repo.MarkOverdue(ctx, now)
	if err != nil || n != 1 {
		t.Fatalf("expected 1 invoice marked got %d %v", n, err)
	}
	got, _ := repo.Get(ctx, due.ID)
	if got.Status != models.InvoiceStatusOverdue {
		t.Fatalf("expected overdue got %s", got.Status)
	}
	if n, _ := repo.MarkOverdue(ctx, now); n != 0 {
		t.Fatalf("second sweep should be a no-op, got %d", n)
	}
}
