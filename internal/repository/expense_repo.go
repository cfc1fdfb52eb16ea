package repository

import (
	"context"
	"time"

	"maintrack/internal/model"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// ExpenseFilter narrows expense listings; zero fields are ignored and the
// date bounds are inclusive.
type ExpenseFilter struct {
	UserID   *uuid.UUID
	Category string
	Start    *time.Time
	End      *time.Time
}

type ExpenseRepository interface {
	Create(ctx context.Context, e *model.Expense) error
	FindByID(ctx context.Context, id uuid.UUID) (*model.Expense, error)
	Delete(ctx context.Context, id uuid.UUID) error
	List(ctx context.Context, f ExpenseFilter) ([]model.Expense, error)
	Sum(ctx context.Context, f ExpenseFilter) (decimal.Decimal, error)
}

type expenseRepo struct{ db *gorm.DB }

func NewExpenseRepository(db *gorm.DB) ExpenseRepository { return &expenseRepo{db: db} }

func (r *expenseRepo) Create(ctx context.Context, e *model.Expense) error {
	return r.db.WithContext(ctx).Omit("User").Create(e).Error
}

func (r *expenseRepo) FindByID(ctx context.Context, id uuid.UUID) (*model.Expense, error) {
	var e model.Expense
	err := r.db.WithContext(ctx).First(&e, "id = ?", id).Error
	return &e, err
}

func (r *expenseRepo) Delete(ctx context.Context, id uuid.UUID) error {
	res := r.db.WithContext(ctx).Delete(&model.Expense{}, "id = ?", id)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *expenseRepo) filtered(ctx context.Context, f ExpenseFilter) *gorm.DB {
	q := r.db.WithContext(ctx).Model(&model.Expense{})
	if f.UserID != nil {
		q = q.Where("user_id = ?", *f.UserID)
	}
	if f.Category != "" {
		q = q.Where("category = ?", f.Category)
	}
	if f.Start != nil {
		q = q.Where("date >= ?", *f.Start)
	}
	if f.End != nil {
		q = q.Where("date <= ?", *f.End)
	}
	return q
}

func (r *expenseRepo) List(ctx context.Context, f ExpenseFilter) ([]model.Expense, error) {
	var list []model.Expense
	err := r.filtered(ctx, f).Preload("User").
		Order("date DESC, user_id, created_at DESC").
		Find(&list).Error
	return list, err
}

func (r *expenseRepo) Sum(ctx context.Context, f ExpenseFilter) (decimal.Decimal, error) {
	var total decimal.Decimal
	err := r.filtered(ctx, f).Select("COALESCE(SUM(value), 0)").Scan(&total).Error
	return total, err
}
