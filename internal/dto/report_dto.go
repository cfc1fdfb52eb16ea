package dto

import "github.com/shopspring/decimal"

type FinancialReportQuery struct {
	ClientID    string `form:"client_id"    validate:"omitempty,uuid"`
	EquipmentID string `form:"equipment_id" validate:"omitempty,uuid"`
	Start       string `form:"start"`
	End         string `form:"end"`
}

type FinancialRow struct {
	ID              string          `json:"id"`
	MaintenanceDate string          `json:"maintenance_date"`
	EquipmentCode   string          `json:"equipment_code"`
	ClientName      string          `json:"client_name"`
	Category        string          `json:"category"`
	TechnicianName  string          `json:"technician_name"`
	Cost            decimal.Decimal `json:"cost"`
}

type FinancialReportResponse struct {
	Records []FinancialRow  `json:"records"`
	Total   decimal.Decimal `json:"total"`
}

type StockUsageQuery struct {
	StockItemID string `form:"stock_item_id" validate:"omitempty,uuid"`
	Category    string `form:"category"`
	Start       string `form:"start"`
	End         string `form:"end"`
}

type StockUsageRow struct {
	MaintenanceID   string `json:"maintenance_id"`
	MaintenanceDate string `json:"maintenance_date"`
	EquipmentCode   string `json:"equipment_code"`
	ClientName      string `json:"client_name"`
	ItemName        string `json:"item_name"`
	ItemCategory    string `json:"item_category"`
	QuantityUsed    int    `json:"quantity_used"`
}

type StockUsageResponse struct {
	Rows          []StockUsageRow `json:"rows"`
	TotalQuantity int             `json:"total_quantity"`
}

type ExpenseReportQuery struct {
	TechnicianID string `form:"technician_id" validate:"omitempty,uuid"`
	Category     string `form:"category"`
	Start        string `form:"start"`
	End          string `form:"end"`
}

type ExpenseReportRow struct {
	ID             string          `json:"id"`
	Date           string          `json:"date"`
	TechnicianName string          `json:"technician_name"`
	Category       string          `json:"category"`
	Description    *string         `json:"description"`
	Value          decimal.Decimal `json:"value"`
}

type ExpenseReportResponse struct {
	Records []ExpenseReportRow `json:"records"`
	Total   decimal.Decimal    `json:"total"`
}

// TimeClockReportQuery selects one calendar month, YYYY-MM; empty means the
// current month.
type TimeClockReportQuery struct {
	TechnicianID string `form:"technician_id" validate:"omitempty,uuid"`
	Month        string `form:"month"`
}

type TimeClockReportRow struct {
	TechnicianName string `json:"technician_name"`
	TimeClockResponse
}

type TimeClockReportResponse struct {
	Month      string               `json:"month"`
	Records    []TimeClockReportRow `json:"records"`
	TotalHours decimal.Decimal      `json:"total_hours"`
}
