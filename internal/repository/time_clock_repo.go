package repository

import (
	"context"
	"time"

	"maintrack/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// TimeClockFilter selects sheets in [Start, End]; UserID is optional.
type TimeClockFilter struct {
	UserID *uuid.UUID
	Start  time.Time
	End    time.Time
}

type TimeClockRepository interface {
	FindForUserOn(ctx context.Context, userID uuid.UUID, date time.Time) (*model.TimeClock, error)
	// LockForUserOnTx returns the day's sheet locked FOR UPDATE, inserting an
	// empty one first when none exists.
	LockForUserOnTx(tx *gorm.DB, userID uuid.UUID, date time.Time) (*model.TimeClock, error)
	SaveTx(tx *gorm.DB, tc *model.TimeClock) error
	List(ctx context.Context, f TimeClockFilter) ([]model.TimeClock, error)

	DB() *gorm.DB
}

type timeClockRepo struct{ db *gorm.DB }

func NewTimeClockRepository(db *gorm.DB) TimeClockRepository { return &timeClockRepo{db: db} }

func (r *timeClockRepo) DB() *gorm.DB { return r.db }

func (r *timeClockRepo) FindForUserOn(ctx context.Context, userID uuid.UUID, date time.Time) (*model.TimeClock, error) {
	var tc model.TimeClock
	err := r.db.WithContext(ctx).Where("user_id = ? AND date = ?", userID, date).First(&tc).Error
	return &tc, err
}

func (r *timeClockRepo) LockForUserOnTx(tx *gorm.DB, userID uuid.UUID, date time.Time) (*model.TimeClock, error) {
	blank := model.TimeClock{UserID: userID, Date: date}
	err := tx.Omit("User").Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "user_id"}, {Name: "date"}},
		DoNothing: true,
	}).Create(&blank).Error
	if err != nil {
		return nil, err
	}
	var tc model.TimeClock
	err = tx.Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("user_id = ? AND date = ?", userID, date).
		First(&tc).Error
	return &tc, err
}

func (r *timeClockRepo) SaveTx(tx *gorm.DB, tc *model.TimeClock) error {
	return tx.Omit("User").Save(tc).Error
}

func (r *timeClockRepo) List(ctx context.Context, f TimeClockFilter) ([]model.TimeClock, error) {
	q := r.db.WithContext(ctx).Preload("User").
		Where("date >= ? AND date <= ?", f.Start, f.End)
	if f.UserID != nil {
		q = q.Where("user_id = ?", *f.UserID)
	}
	var list []model.TimeClock
	err := q.Order("date DESC, user_id").Find(&list).Error
	return list, err
}
