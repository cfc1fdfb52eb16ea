package repository

import (
	"context"
	"fmt"

	"maintrack/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// StockItemFilter narrows stock listings.
type StockItemFilter struct {
	Category string
	Name     string
	LowOnly  bool
}

// StockItemRepository is the data access contract for the stock ledger.
// Quantity changes go through DeductTx / CreditTx only, so the non-negative
// check and the write are a single statement.
type StockItemRepository interface {
	Create(ctx context.Context, s *model.StockItem) error
	FindByID(ctx context.Context, id uuid.UUID) (*model.StockItem, error)
	FindByName(ctx context.Context, name string) (*model.StockItem, error)
	FindBySKU(ctx context.Context, sku string) (*model.StockItem, error)
	FindByIDs(ctx context.Context, ids []uuid.UUID) ([]model.StockItem, error)
	List(ctx context.Context, filter StockItemFilter) ([]model.StockItem, error)
	Update(ctx context.Context, s *model.StockItem) error
	Delete(ctx context.Context, id uuid.UUID) error

	FindByIDTx(tx *gorm.DB, id uuid.UUID) (*model.StockItem, error)
	// DeductTx subtracts qty only if the current quantity covers it. ok is false
	// (and nothing changes) when it does not. qty must be positive.
	DeductTx(tx *gorm.DB, id uuid.UUID, qty int) (after int, ok bool, err error)
	// CreditTx adds qty back and returns the new quantity.
	CreditTx(tx *gorm.DB, id uuid.UUID, qty int) (after int, err error)

	// DB exposes the underlying *gorm.DB so services can open transactions.
	DB() *gorm.DB
}

type stockItemRepo struct{ db *gorm.DB }

func NewStockItemRepository(db *gorm.DB) StockItemRepository { return &stockItemRepo{db: db} }

func (r *stockItemRepo) DB() *gorm.DB { return r.db }

func (r *stockItemRepo) Create(ctx context.Context, s *model.StockItem) error {
	return r.db.WithContext(ctx).Create(s).Error
}

func (r *stockItemRepo) FindByID(ctx context.Context, id uuid.UUID) (*model.StockItem, error) {
	return r.FindByIDTx(r.db.WithContext(ctx), id)
}

func (r *stockItemRepo) FindByName(ctx context.Context, name string) (*model.StockItem, error) {
	var s model.StockItem
	err := r.db.WithContext(ctx).Where("LOWER(name) = LOWER(?)", name).First(&s).Error
	return &s, err
}

func (r *stockItemRepo) FindBySKU(ctx context.Context, sku string) (*model.StockItem, error) {
	var s model.StockItem
	err := r.db.WithContext(ctx).Where("sku = ?", sku).First(&s).Error
	return &s, err
}

func (r *stockItemRepo) FindByIDs(ctx context.Context, ids []uuid.UUID) ([]model.StockItem, error) {
	var items []model.StockItem
	if len(ids) == 0 {
		return items, nil
	}
	err := r.db.WithContext(ctx).Where("id IN ?", ids).Find(&items).Error
	return items, err
}

func (r *stockItemRepo) List(ctx context.Context, filter StockItemFilter) ([]model.StockItem, error) {
	q := r.db.WithContext(ctx).Model(&model.StockItem{})
	if filter.Category != "" {
		q = q.Where("category = ?", filter.Category)
	}
	if filter.Name != "" {
		q = q.Where("name ILIKE ?", "%"+filter.Name+"%")
	}
	if filter.LowOnly {
		q = q.Where("quantity <= low_stock_threshold")
	}
	var items []model.StockItem
	err := q.Order("name ASC").Find(&items).Error
	return items, err
}

func (r *stockItemRepo) Update(ctx context.Context, s *model.StockItem) error {
	// quantity is owned by the ledger operations
	return r.db.WithContext(ctx).Model(s).Select(
		"name", "category", "sku", "description", "low_stock_threshold", "unit_cost", "requires_tracking", "updated_at",
	).Updates(s).Error
}

func (r *stockItemRepo) Delete(ctx context.Context, id uuid.UUID) error {
	res := r.db.WithContext(ctx).Where("id = ?", id).Delete(&model.StockItem{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *stockItemRepo) FindByIDTx(tx *gorm.DB, id uuid.UUID) (*model.StockItem, error) {
	var s model.StockItem
	err := tx.First(&s, "id = ?", id).Error
	return &s, err
}

func (r *stockItemRepo) DeductTx(tx *gorm.DB, id uuid.UUID, qty int) (int, bool, error) {
	if qty <= 0 {
		return 0, false, fmt.Errorf("deduct %s: non-positive quantity %d", id, qty)
	}
	var after []int
	err := tx.Raw(`UPDATE stock_item SET quantity = quantity - ?, updated_at = NOW()
		WHERE id = ? AND quantity >= ? RETURNING quantity`, qty, id, qty).
		Scan(&after).Error
	if err != nil {
		return 0, false, err
	}
	if len(after) == 0 {
		return 0, false, nil
	}
	return after[0], true, nil
}

func (r *stockItemRepo) CreditTx(tx *gorm.DB, id uuid.UUID, qty int) (int, error) {
	var after []int
	err := tx.Raw(`UPDATE stock_item SET quantity = quantity + ?, updated_at = NOW()
		WHERE id = ? RETURNING quantity`, qty, id).
		Scan(&after).Error
	if err != nil {
		return 0, err
	}
	if len(after) == 0 {
		return 0, gorm.ErrRecordNotFound
	}
	return after[0], nil
}
