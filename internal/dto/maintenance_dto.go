package dto

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// PartRequest is one (stock item, quantity) withdrawal requested by a record.
type PartRequest struct {
	StockItemID uuid.UUID `json:"stock_item_id"`
	Quantity    int       `json:"quantity"`
}

// PhotoUpload is an uploaded image before it reaches the photo store.
type PhotoUpload struct {
	Filename string
	Data     []byte
}

// MaintenanceInput carries the create / edit form. LaborCost is the raw
// user-typed amount; "," and "." are both accepted as decimal separator.
type MaintenanceInput struct {
	Date         string
	Category     string
	Description  string
	LaborCost    string
	Parts        []PartRequest
	Photos       []PhotoUpload
	RemoveImages []uuid.UUID // edit only
}

type PartUsedResponse struct {
	StockItemID string          `json:"stock_item_id"`
	Name        string          `json:"name"`
	Quantity    int             `json:"quantity"`
	UnitCost    decimal.Decimal `json:"unit_cost"`
}

type ImageResponse struct {
	ID       string `json:"id"`
	Filename string `json:"filename"`
	URL      string `json:"url"`
}

type MaintenanceResponse struct {
	ID              string             `json:"id"`
	EquipmentID     string             `json:"equipment_id"`
	EquipmentCode   string             `json:"equipment_code,omitempty"`
	TechnicianID    string             `json:"technician_id"`
	TechnicianName  string             `json:"technician_name,omitempty"`
	MaintenanceDate string             `json:"maintenance_date"`
	Category        string             `json:"category"`
	Description     string             `json:"description"`
	LaborCost       decimal.Decimal    `json:"labor_cost"`
	Cost            decimal.Decimal    `json:"cost"`
	Parts           []PartUsedResponse `json:"parts"`
	Images          []ImageResponse    `json:"images"`
	CreatedAt       string             `json:"created_at"`
}
