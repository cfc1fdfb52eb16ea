package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// StockItem is a consumable or spare part with an on-hand quantity.
// Quantity is never negative (CHECK constraint plus conditional updates).
type StockItem struct {
	ID                uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	Name              string    `gorm:"uniqueIndex;not null"`
	Category          string    `gorm:"not null;index"`
	SKU               *string   `gorm:"column:sku;uniqueIndex"`
	Description       *string
	Quantity          int              `gorm:"not null;default:0;check:quantity >= 0"`
	LowStockThreshold int              `gorm:"not null;default:5"`
	UnitCost          *decimal.Decimal `gorm:"type:decimal(10,2)"`
	// RequiresTracking=false means quantity is maintained by hand, outside maintenance records
	RequiresTracking bool `gorm:"not null;default:true"`
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

func (StockItem) TableName() string { return "stock_item" }

// UnitCostOrZero treats a missing unit cost as free.
func (s *StockItem) UnitCostOrZero() decimal.Decimal {
	if s.UnitCost == nil {
		return decimal.Zero
	}
	return *s.UnitCost
}

// StockCategories are the categories offered for stock items.
var StockCategories = []string{
	"Cleaning Supplies", "Consumables", "General", "PPE", "Spare Parts", "Tools",
}

// Stock levels reported for an item relative to its threshold.
const (
	StockLevelOK       = "ok"
	StockLevelWarning  = "warning"
	StockLevelCritical = "critical"
)

// StockLevel is critical at or below the threshold and warning up to twice it.
func StockLevel(quantity, threshold int) string {
	switch {
	case quantity <= threshold:
		return StockLevelCritical
	case quantity <= 2*threshold:
		return StockLevelWarning
	default:
		return StockLevelOK
	}
}
