package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// MaintenanceCategory classifies the work performed.
type MaintenanceCategory string

const (
	CategoryInstallation MaintenanceCategory = "Installation"
	CategoryPreventive   MaintenanceCategory = "Preventive"
	CategoryCorrective   MaintenanceCategory = "Corrective"
	CategoryProactive    MaintenanceCategory = "Proactive"
)

// MaintenanceCategories lists the accepted categories in display order.
var MaintenanceCategories = []MaintenanceCategory{
	CategoryInstallation, CategoryPreventive, CategoryCorrective, CategoryProactive,
}

func (c MaintenanceCategory) Valid() bool {
	for _, v := range MaintenanceCategories {
		if c == v {
			return true
		}
	}
	return false
}

// MaxMaintenancePhotos caps the images attached to one record.
const MaxMaintenancePhotos = 3

// MaintenanceHistory is one maintenance event on one piece of equipment.
// Cost is labor + parts, captured at write time and never re-derived.
type MaintenanceHistory struct {
	ID              uuid.UUID           `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	MaintenanceDate time.Time           `gorm:"type:date;not null;index"`
	Category        MaintenanceCategory `gorm:"type:varchar(50);not null"`
	Description     string              `gorm:"type:text;not null"`
	EquipmentID     uuid.UUID           `gorm:"type:uuid;not null;index"`
	TechnicianID    uuid.UUID           `gorm:"type:uuid;not null;index"`
	LaborCost       decimal.Decimal     `gorm:"type:decimal(10,2);not null;default:0"`
	Cost            decimal.Decimal     `gorm:"type:decimal(10,2);not null;default:0"`
	CreatedAt       time.Time
	UpdatedAt       time.Time

	Equipment  *Equipment            `gorm:"foreignKey:EquipmentID"`
	Technician *User                 `gorm:"foreignKey:TechnicianID"`
	PartsUsed  []MaintenancePartUsed `gorm:"foreignKey:MaintenanceHistoryID;constraint:OnDelete:CASCADE"`
	Images     []MaintenanceImage    `gorm:"foreignKey:MaintenanceHistoryID;constraint:OnDelete:CASCADE"`
}

func (MaintenanceHistory) TableName() string { return "maintenance_history" }

// MaintenancePartUsed records one stock withdrawal for one maintenance event.
// Rows are never updated: an edit deletes and recreates them.
type MaintenancePartUsed struct {
	ID                   uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	MaintenanceHistoryID uuid.UUID `gorm:"type:uuid;not null;index"`
	StockItemID          uuid.UUID `gorm:"type:uuid;not null;index"`
	QuantityUsed         int       `gorm:"not null;check:quantity_used > 0"`

	Item *StockItem `gorm:"foreignKey:StockItemID;constraint:OnDelete:RESTRICT"`
}

func (MaintenancePartUsed) TableName() string { return "maintenance_part_used" }

// MaintenanceImage points at a photo file kept by the photo store.
type MaintenanceImage struct {
	ID                   uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	MaintenanceHistoryID uuid.UUID `gorm:"type:uuid;not null;index"`
	Filename             string    `gorm:"not null"`
	CreatedAt            time.Time
}

func (MaintenanceImage) TableName() string { return "maintenance_image" }
