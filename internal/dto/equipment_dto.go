package dto

import "github.com/shopspring/decimal"

// ─── Request DTOs ────────────────────────────────────────────────────────────

type EquipmentRequest struct {
	Code                string  `json:"code"                  validate:"required,min=1,max=50"`
	Model               string  `json:"model"                 validate:"required,min=1,max=150"`
	Location            string  `json:"location"              validate:"required,min=1,max=200"`
	Description         *string `json:"description"`
	InstallDate         *string `json:"install_date"`
	LastMaintenanceDate *string `json:"last_maintenance_date"`
	NextMaintenanceDate string  `json:"next_maintenance_date" validate:"required"`
	TechnicianID        string  `json:"technician_id"         validate:"required,uuid"`
	ClientID            string  `json:"client_id"             validate:"required,uuid"`
}

// EquipmentListQuery are the query-string filters of the equipment list.
type EquipmentListQuery struct {
	Archived bool   `form:"archived"`
	Status   string `form:"status"    validate:"omitempty,oneof=OK Upcoming Overdue"`
	ClientID string `form:"client_id" validate:"omitempty,uuid"`
}

// ─── Response DTOs ───────────────────────────────────────────────────────────

type EquipmentResponse struct {
	ID                  string  `json:"id"`
	Code                string  `json:"code"`
	Model               string  `json:"model"`
	Location            string  `json:"location"`
	Description         *string `json:"description"`
	InstallDate         *string `json:"install_date"`
	LastMaintenanceDate *string `json:"last_maintenance_date"`
	NextMaintenanceDate string  `json:"next_maintenance_date"`
	Status              string  `json:"status"`
	TechnicianID        string  `json:"technician_id"`
	TechnicianName      string  `json:"technician_name"`
	ClientID            string  `json:"client_id"`
	ClientName          string  `json:"client_name"`
	IsArchived          bool    `json:"is_archived"`
}

type EquipmentDetailResponse struct {
	EquipmentResponse
	History []MaintenanceResponse `json:"history"`
}

type EquipmentListResponse struct {
	WarningDays int                 `json:"warning_days"`
	Today       string              `json:"today"`
	Items       []EquipmentResponse `json:"items"`
}

type DashboardResponse struct {
	WarningDays      int             `json:"warning_days"`
	Total            int             `json:"total"`
	OK               int             `json:"ok"`
	Upcoming         int             `json:"upcoming"`
	Overdue          int             `json:"overdue"`
	MonthMaintenance int64           `json:"month_maintenance"`
	MonthRevenue     decimal.Decimal `json:"month_revenue"`
	MonthPreventive  int64           `json:"month_preventive"`
	MonthCorrective  int64           `json:"month_corrective"`
	LowStockItems    int             `json:"low_stock_items"`
}
