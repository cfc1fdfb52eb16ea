package repository

import (
	"context"
	"time"

	"maintrack/internal/model"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// MaintenanceStats aggregates maintenance records over a date range.
type MaintenanceStats struct {
	Count      int64
	Revenue    decimal.Decimal
	Preventive int64
	Corrective int64
}

// FinancialFilter selects maintenance records for the financial report.
type FinancialFilter struct {
	ClientID    *uuid.UUID
	EquipmentID *uuid.UUID
	Start       *time.Time
	End         *time.Time
}

// UsageFilter selects parts-used rows for the stock usage report.
type UsageFilter struct {
	StockItemID *uuid.UUID
	Category    string
	Start       *time.Time
	End         *time.Time
}

// PartUsageRow is one parts-used row joined with its record, equipment and client.
type PartUsageRow struct {
	MaintenanceID   uuid.UUID
	MaintenanceDate time.Time
	EquipmentCode   string
	ClientName      string
	ItemName        string
	ItemCategory    string
	QuantityUsed    int
}

// MaintenanceRepository makes every cascade an explicit step: parts and images
// are loaded, replaced and deleted by dedicated calls inside the caller's
// transaction, never through implicit association saves.
type MaintenanceRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*model.MaintenanceHistory, error)
	ListByEquipment(ctx context.Context, equipmentID uuid.UUID) ([]model.MaintenanceHistory, error)

	CreateTx(tx *gorm.DB, rec *model.MaintenanceHistory) error
	UpdateTx(tx *gorm.DB, rec *model.MaintenanceHistory) error
	CreatePartsTx(tx *gorm.DB, parts []model.MaintenancePartUsed) error
	CreateImagesTx(tx *gorm.DB, images []model.MaintenanceImage) error
	DeleteImagesTx(tx *gorm.DB, recordID uuid.UUID, ids []uuid.UUID) error

	// LoadPartsTx returns the parts-used rows of a record.
	LoadPartsTx(tx *gorm.DB, recordID uuid.UUID) ([]model.MaintenancePartUsed, error)
	// DeletePartsTx removes the parts-used rows of a record without touching stock.
	DeletePartsTx(tx *gorm.DB, recordID uuid.UUID) error
	LoadImagesTx(tx *gorm.DB, recordID uuid.UUID) ([]model.MaintenanceImage, error)
	// DeleteRecordWithPartsTx removes images, parts-used rows and the record itself.
	DeleteRecordWithPartsTx(tx *gorm.DB, recordID uuid.UUID) error

	FindImageByID(ctx context.Context, id uuid.UUID) (*model.MaintenanceImage, error)
	DeleteImage(ctx context.Context, id uuid.UUID) error

	CountPartsByItem(ctx context.Context, itemID uuid.UUID) (int64, error)
	Stats(ctx context.Context, from, to time.Time) (MaintenanceStats, error)
	ListFinancial(ctx context.Context, filter FinancialFilter) ([]model.MaintenanceHistory, error)
	ListPartUsage(ctx context.Context, filter UsageFilter) ([]PartUsageRow, error)

	// DB exposes the underlying *gorm.DB so services can open transactions.
	DB() *gorm.DB
}

type maintenanceRepo struct{ db *gorm.DB }

func NewMaintenanceRepository(db *gorm.DB) MaintenanceRepository {
	return &maintenanceRepo{db: db}
}

func (r *maintenanceRepo) DB() *gorm.DB { return r.db }

func (r *maintenanceRepo) FindByID(ctx context.Context, id uuid.UUID) (*model.MaintenanceHistory, error) {
	var rec model.MaintenanceHistory
	err := r.db.WithContext(ctx).
		Preload("Equipment").Preload("Equipment.Client").
		Preload("Technician").
		Preload("PartsUsed").Preload("PartsUsed.Item").
		Preload("Images").
		First(&rec, "id = ?", id).Error
	return &rec, err
}

func (r *maintenanceRepo) ListByEquipment(ctx context.Context, equipmentID uuid.UUID) ([]model.MaintenanceHistory, error) {
	var list []model.MaintenanceHistory
	err := r.db.WithContext(ctx).
		Preload("Technician").Preload("PartsUsed.Item").Preload("Images").
		Where("equipment_id = ?", equipmentID).
		Order("maintenance_date DESC, created_at DESC").
		Find(&list).Error
	return list, err
}

func (r *maintenanceRepo) CreateTx(tx *gorm.DB, rec *model.MaintenanceHistory) error {
	return tx.Omit("Equipment", "Technician", "PartsUsed", "Images").Create(rec).Error
}

func (r *maintenanceRepo) UpdateTx(tx *gorm.DB, rec *model.MaintenanceHistory) error {
	return tx.Model(&model.MaintenanceHistory{}).Where("id = ?", rec.ID).Updates(map[string]interface{}{
		"maintenance_date": rec.MaintenanceDate,
		"category":         rec.Category,
		"description":      rec.Description,
		"labor_cost":       rec.LaborCost,
		"cost":             rec.Cost,
		"updated_at":       time.Now(),
	}).Error
}

func (r *maintenanceRepo) CreatePartsTx(tx *gorm.DB, parts []model.MaintenancePartUsed) error {
	if len(parts) == 0 {
		return nil
	}
	return tx.Omit("Item").Create(&parts).Error
}

func (r *maintenanceRepo) CreateImagesTx(tx *gorm.DB, images []model.MaintenanceImage) error {
	if len(images) == 0 {
		return nil
	}
	return tx.Create(&images).Error
}

func (r *maintenanceRepo) DeleteImagesTx(tx *gorm.DB, recordID uuid.UUID, ids []uuid.UUID) error {
	if len(ids) == 0 {
		return nil
	}
	return tx.Where("maintenance_history_id = ? AND id IN ?", recordID, ids).
		Delete(&model.MaintenanceImage{}).Error
}

func (r *maintenanceRepo) LoadPartsTx(tx *gorm.DB, recordID uuid.UUID) ([]model.MaintenancePartUsed, error) {
	var parts []model.MaintenancePartUsed
	err := tx.Preload("Item").Where("maintenance_history_id = ?", recordID).Find(&parts).Error
	return parts, err
}

func (r *maintenanceRepo) DeletePartsTx(tx *gorm.DB, recordID uuid.UUID) error {
	return tx.Where("maintenance_history_id = ?", recordID).Delete(&model.MaintenancePartUsed{}).Error
}

func (r *maintenanceRepo) LoadImagesTx(tx *gorm.DB, recordID uuid.UUID) ([]model.MaintenanceImage, error) {
	var images []model.MaintenanceImage
	err := tx.Where("maintenance_history_id = ?", recordID).Order("created_at ASC").Find(&images).Error
	return images, err
}

func (r *maintenanceRepo) DeleteRecordWithPartsTx(tx *gorm.DB, recordID uuid.UUID) error {
	if err := tx.Where("maintenance_history_id = ?", recordID).Delete(&model.MaintenanceImage{}).Error; err != nil {
		return err
	}
	if err := r.DeletePartsTx(tx, recordID); err != nil {
		return err
	}
	res := tx.Where("id = ?", recordID).Delete(&model.MaintenanceHistory{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *maintenanceRepo) FindImageByID(ctx context.Context, id uuid.UUID) (*model.MaintenanceImage, error) {
	var img model.MaintenanceImage
	err := r.db.WithContext(ctx).First(&img, "id = ?", id).Error
	return &img, err
}

func (r *maintenanceRepo) DeleteImage(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Where("id = ?", id).Delete(&model.MaintenanceImage{}).Error
}

func (r *maintenanceRepo) CountPartsByItem(ctx context.Context, itemID uuid.UUID) (int64, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(&model.MaintenancePartUsed{}).
		Where("stock_item_id = ?", itemID).Count(&n).Error
	return n, err
}

func (r *maintenanceRepo) Stats(ctx context.Context, from, to time.Time) (MaintenanceStats, error) {
	var row struct {
		Count      int64
		Revenue    decimal.Decimal
		Preventive int64
		Corrective int64
	}
	err := r.db.WithContext(ctx).Model(&model.MaintenanceHistory{}).
		Select(`COUNT(*) AS count,
			COALESCE(SUM(cost), 0) AS revenue,
			COUNT(*) FILTER (WHERE category = ?) AS preventive,
			COUNT(*) FILTER (WHERE category = ?) AS corrective`,
			model.CategoryPreventive, model.CategoryCorrective).
		Where("maintenance_date >= ? AND maintenance_date < ?", from, to).
		Scan(&row).Error
	return MaintenanceStats(row), err
}

func (r *maintenanceRepo) ListFinancial(ctx context.Context, filter FinancialFilter) ([]model.MaintenanceHistory, error) {
	q := r.db.WithContext(ctx).Model(&model.MaintenanceHistory{}).
		Preload("Equipment").Preload("Equipment.Client").Preload("Technician").
		Joins("JOIN equipment ON equipment.id = maintenance_history.equipment_id")
	if filter.ClientID != nil {
		q = q.Where("equipment.client_id = ?", *filter.ClientID)
	}
	if filter.EquipmentID != nil {
		q = q.Where("maintenance_history.equipment_id = ?", *filter.EquipmentID)
	}
	if filter.Start != nil {
		q = q.Where("maintenance_history.maintenance_date >= ?", *filter.Start)
	}
	if filter.End != nil {
		q = q.Where("maintenance_history.maintenance_date <= ?", *filter.End)
	}
	var list []model.MaintenanceHistory
	err := q.Order("maintenance_history.maintenance_date DESC").Find(&list).Error
	return list, err
}

func (r *maintenanceRepo) ListPartUsage(ctx context.Context, filter UsageFilter) ([]PartUsageRow, error) {
	q := r.db.WithContext(ctx).Table("maintenance_part_used AS p").
		Select(`mh.id AS maintenance_id, mh.maintenance_date, e.code AS equipment_code,
			c.name AS client_name, s.name AS item_name, s.category AS item_category,
			p.quantity_used`).
		Joins("JOIN maintenance_history mh ON mh.id = p.maintenance_history_id").
		Joins("JOIN equipment e ON e.id = mh.equipment_id").
		Joins("JOIN client c ON c.id = e.client_id").
		Joins("JOIN stock_item s ON s.id = p.stock_item_id")
	if filter.StockItemID != nil {
		q = q.Where("p.stock_item_id = ?", *filter.StockItemID)
	}
	if filter.Category != "" {
		q = q.Where("s.category = ?", filter.Category)
	}
	if filter.Start != nil {
		q = q.Where("mh.maintenance_date >= ?", *filter.Start)
	}
	if filter.End != nil {
		q = q.Where("mh.maintenance_date <= ?", *filter.End)
	}
	var rows []PartUsageRow
	err := q.Order("mh.maintenance_date DESC, s.name ASC").Scan(&rows).Error
	return rows, err
}
