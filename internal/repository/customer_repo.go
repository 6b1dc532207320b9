package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/diewo77/fawater/internal/models"
	"gorm.io/gorm"
)

// CustomerRepo is the gorm implementation of CustomerRepository
type CustomerRepo struct {
	db *gorm.DB
}

func NewCustomerRepo(db *gorm.DB) *CustomerRepo {
	return &CustomerRepo{db: db}
}

func (r *CustomerRepo) Create(ctx context.Context, c *models.Customer) error {
	if err := r.db.WithContext(ctx).Create(c).Error; err != nil {
		return fmt.Errorf("create customer: %w", err)
	}
	return nil
}

func (r *CustomerRepo) Get(ctx context.Context, id string) (*models.Customer, error) {
	var c models.Customer
	if err := r.db.WithContext(ctx).First(&c, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get customer %s: %w", id, err)
	}
	return &c, nil
}

func (r *CustomerRepo) List(ctx context.Context) ([]models.Customer, error) {
	var out []models.Customer
	if err := r.db.WithContext(ctx).Order("created_at asc").Order("name asc").Find(&out).Error; err != nil {
		return nil, fmt.Errorf("list customers: %w", err)
	}
	return out, nil
}

func (r *CustomerRepo) Update(ctx context.Context, c *models.Customer) error {
	res := r.db.WithContext(ctx).Model(&models.Customer{}).Where("id = ?", c.ID).
		Select("name", "email", "phone", "address", "meter_number").
		Updates(map[string]any{
			"name":         c.Name,
			"email":        c.Email,
			"phone":        c.Phone,
			"address":      c.Address,
			"meter_number": c.MeterNumber,
		})
	if res.Error != nil {
		return fmt.Errorf("update customer %s: %w", c.ID, res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *CustomerRepo) Delete(ctx context.Context, id string) error {
	res := r.db.WithContext(ctx).Delete(&models.Customer{}, "id = ?", id)
	if res.Error != nil {
		return fmt.Errorf("delete customer %s: %w", id, res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *CustomerRepo) UpdateBalance(ctx context.Context, id string, balance models.Money) error {
	res := r.db.WithContext(ctx).Model(&models.Customer{}).Where("id = ?", id).Update("balance", balance)
	if res.Error != nil {
		return fmt.Errorf("update balance %s: %w", id, res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *CustomerRepo) Count(ctx context.Context) (int64, error) {
	var n int64
	if err := r.db.WithContext(ctx).Model(&models.Customer{}).Count(&n).Error; err != nil {
		return 0, fmt.Errorf("count customers: %w", err)
	}
	return n, nil
}
