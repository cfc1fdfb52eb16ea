package repository

import (
	"context"
	"time"

	"maintrack/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// EquipmentFilter narrows equipment listings. A nil TechnicianID means every
// technician.
type EquipmentFilter struct {
	TechnicianID *uuid.UUID
	ClientID     *uuid.UUID
	Archived     bool
}

type EquipmentRepository interface {
	Create(ctx context.Context, e *model.Equipment) error
	FindByID(ctx context.Context, id uuid.UUID) (*model.Equipment, error)
	FindByCode(ctx context.Context, code string) (*model.Equipment, error)
	List(ctx context.Context, filter EquipmentFilter) ([]model.Equipment, error)
	Update(ctx context.Context, e *model.Equipment) error

	// SetLastMaintenanceTx stamps the date of the latest maintenance record.
	SetLastMaintenanceTx(tx *gorm.DB, id uuid.UUID, date time.Time) error
}

type equipmentRepo struct{ db *gorm.DB }

func NewEquipmentRepository(db *gorm.DB) EquipmentRepository { return &equipmentRepo{db: db} }

func (r *equipmentRepo) Create(ctx context.Context, e *model.Equipment) error {
	return r.db.WithContext(ctx).Omit("Technician", "Client").Create(e).Error
}

func (r *equipmentRepo) FindByID(ctx context.Context, id uuid.UUID) (*model.Equipment, error) {
	var e model.Equipment
	err := r.db.WithContext(ctx).
		Preload("Technician").Preload("Client").
		First(&e, "id = ?", id).Error
	return &e, err
}

func (r *equipmentRepo) FindByCode(ctx context.Context, code string) (*model.Equipment, error) {
	var e model.Equipment
	err := r.db.WithContext(ctx).Where("code = ?", code).First(&e).Error
	return &e, err
}

func (r *equipmentRepo) List(ctx context.Context, filter EquipmentFilter) ([]model.Equipment, error) {
	q := r.db.WithContext(ctx).Model(&model.Equipment{}).
		Preload("Technician").Preload("Client").
		Where("is_archived = ?", filter.Archived)
	if filter.TechnicianID != nil {
		q = q.Where("user_id = ?", *filter.TechnicianID)
	}
	if filter.ClientID != nil {
		q = q.Where("client_id = ?", *filter.ClientID)
	}
	var list []model.Equipment
	err := q.Order("next_maintenance_date ASC, code ASC").Find(&list).Error
	return list, err
}

func (r *equipmentRepo) Update(ctx context.Context, e *model.Equipment) error {
	return r.db.WithContext(ctx).Omit("Technician", "Client").Save(e).Error
}

func (r *equipmentRepo) SetLastMaintenanceTx(tx *gorm.DB, id uuid.UUID, date time.Time) error {
	return tx.Model(&model.Equipment{}).Where("id = ?", id).
		Update("last_maintenance_date", date).Error
}
