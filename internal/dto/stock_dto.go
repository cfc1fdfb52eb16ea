package dto

import "github.com/shopspring/decimal"

// ─── Request DTOs ────────────────────────────────────────────────────────────

type CreateStockItemRequest struct {
	Name              string  `json:"name"                validate:"required,min=1,max=150"`
	Category          string  `json:"category"            validate:"required,max=100"`
	SKU               *string `json:"sku"                 validate:"omitempty,max=50"`
	Description       *string `json:"description"`
	Quantity          int     `json:"quantity"            validate:"min=0,max=2147483647"`
	LowStockThreshold int     `json:"low_stock_threshold" validate:"min=0,max=2147483647"`
	UnitCost          string  `json:"unit_cost"`
	RequiresTracking  *bool   `json:"requires_tracking"`
}

// UpdateStockItemRequest edits catalogue data only; quantity moves through adjustments.
type UpdateStockItemRequest struct {
	Name              string  `json:"name"                validate:"required,min=1,max=150"`
	Category          string  `json:"category"            validate:"required,max=100"`
	SKU               *string `json:"sku"                 validate:"omitempty,max=50"`
	Description       *string `json:"description"`
	LowStockThreshold int     `json:"low_stock_threshold" validate:"min=0,max=2147483647"`
	UnitCost          string  `json:"unit_cost"`
	RequiresTracking  *bool   `json:"requires_tracking"`
}

type StockAdjustRequest struct {
	Direction string `json:"direction" validate:"required,oneof=add remove"`
	Quantity  int    `json:"quantity"  validate:"required,gt=0,max=2147483647"`
	Reason    string `json:"reason"    validate:"max=255"`
}

type StockListQuery struct {
	Category string `form:"category"`
	Name     string `form:"name"`
	Low      bool   `form:"low"`
}

type StockMovementQuery struct {
	StockItemID string `form:"stock_item_id" validate:"omitempty,uuid"`
	Kind        string `form:"kind"          validate:"omitempty,oneof=maintenance_withdrawal maintenance_restore manual_add manual_remove"`
	Page        int    `form:"page"`
	Limit       int    `form:"limit"`
}

// ─── Response DTOs ───────────────────────────────────────────────────────────

type StockItemResponse struct {
	ID                string           `json:"id"`
	Name              string           `json:"name"`
	Category          string           `json:"category"`
	SKU               *string          `json:"sku"`
	Description       *string          `json:"description"`
	Quantity          int              `json:"quantity"`
	LowStockThreshold int              `json:"low_stock_threshold"`
	UnitCost          *decimal.Decimal `json:"unit_cost"`
	RequiresTracking  bool             `json:"requires_tracking"`
	Level             string           `json:"level"` // ok | warning | critical
}

type StockMovementResponse struct {
	ID             string  `json:"id"`
	StockItemID    string  `json:"stock_item_id"`
	ItemName       string  `json:"item_name"`
	Kind           string  `json:"kind"`
	Delta          int     `json:"delta"`
	QuantityBefore int     `json:"quantity_before"`
	QuantityAfter  int     `json:"quantity_after"`
	Reason         string  `json:"reason"`
	ReferenceID    *string `json:"reference_id"`
	CreatedAt      string  `json:"created_at"`
}

type StockMovementListResponse struct {
	Data  []StockMovementResponse `json:"data"`
	Total int64                   `json:"total"`
	Page  int                     `json:"page"`
	Limit int                     `json:"limit"`
}
