package repository

import (
	"context"

	"maintrack/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type NotificationRepository interface {
	CreateTx(tx *gorm.DB, list []model.Notification) error
	Create(ctx context.Context, list []model.Notification) error
	ListForUser(ctx context.Context, userID uuid.UUID, limit int) ([]model.Notification, error)
	CountUnread(ctx context.Context, userID uuid.UUID) (int64, error)
	// MarkRead flags one notification owned by userID; false when no such row.
	MarkRead(ctx context.Context, id, userID uuid.UUID) (bool, error)
}

type notificationRepo struct{ db *gorm.DB }

func NewNotificationRepository(db *gorm.DB) NotificationRepository {
	return &notificationRepo{db: db}
}

func (r *notificationRepo) CreateTx(tx *gorm.DB, list []model.Notification) error {
	if len(list) == 0 {
		return nil
	}
	return tx.Omit("User").Create(&list).Error
}

func (r *notificationRepo) Create(ctx context.Context, list []model.Notification) error {
	return r.CreateTx(r.db.WithContext(ctx), list)
}

func (r *notificationRepo) ListForUser(ctx context.Context, userID uuid.UUID, limit int) ([]model.Notification, error) {
	if limit < 1 || limit > 200 {
		limit = 50
	}
	var list []model.Notification
	err := r.db.WithContext(ctx).Where("user_id = ?", userID).
		Order("created_at DESC").Limit(limit).Find(&list).Error
	return list, err
}

func (r *notificationRepo) CountUnread(ctx context.Context, userID uuid.UUID) (int64, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(&model.Notification{}).
		Where("user_id = ? AND is_read = false", userID).Count(&n).Error
	return n, err
}

func (r *notificationRepo) MarkRead(ctx context.Context, id, userID uuid.UUID) (bool, error) {
	res := r.db.WithContext(ctx).Model(&model.Notification{}).
		Where("id = ? AND user_id = ?", id, userID).Update("is_read", true)
	return res.RowsAffected > 0, res.Error
}
