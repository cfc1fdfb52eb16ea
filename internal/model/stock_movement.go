package model

import (
	"time"

	"github.com/google/uuid"
)

// StockMovementKind names the origin of a quantity change.
type StockMovementKind string

const (
	MovementMaintenanceWithdrawal StockMovementKind = "maintenance_withdrawal"
	MovementMaintenanceRestore    StockMovementKind = "maintenance_restore"
	MovementManualAdd             StockMovementKind = "manual_add"
	MovementManualRemove          StockMovementKind = "manual_remove"
)

// StockMovement is an immutable audit row written alongside every quantity change.
type StockMovement struct {
	ID             uuid.UUID         `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	StockItemID    uuid.UUID         `gorm:"type:uuid;not null;index"`
	Kind           StockMovementKind `gorm:"type:varchar(30);not null"`
	Delta          int               `gorm:"not null"` // positive = in, negative = out
	QuantityBefore int               `gorm:"not null"`
	QuantityAfter  int               `gorm:"not null"`
	Reason         string
	// ReferenceID is the maintenance record for maintenance movements
	ReferenceID *uuid.UUID `gorm:"type:uuid;index"`
	UserID      *uuid.UUID `gorm:"type:uuid"`
	CreatedAt   time.Time

	Item *StockItem `gorm:"foreignKey:StockItemID;constraint:OnDelete:CASCADE"`
}

func (StockMovement) TableName() string { return "stock_movement" }
