package service

import (
	"context"
	"strings"
	"time"

	"maintrack/internal/dto"
	"maintrack/internal/model"
	"maintrack/internal/repository"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type ReportService interface {
	Financial(ctx context.Context, q dto.FinancialReportQuery) (*dto.FinancialReportResponse, error)
	StockUsage(ctx context.Context, q dto.StockUsageQuery) (*dto.StockUsageResponse, error)
	Expenses(ctx context.Context, q dto.ExpenseReportQuery) (*dto.ExpenseReportResponse, error)
	// TimeClock lists attendance sheets of one month; the current month in the
	// business time zone when q.Month is empty.
	TimeClock(ctx context.Context, q dto.TimeClockReportQuery) (*dto.TimeClockReportResponse, error)
}

type reportService struct {
	maintenance repository.MaintenanceRepository
	expenses    repository.ExpenseRepository
	clocks      repository.TimeClockRepository
	loc         *time.Location
	now         func() time.Time
}

func NewReportService(
	maintenance repository.MaintenanceRepository,
	expenses repository.ExpenseRepository,
	clocks repository.TimeClockRepository,
	loc *time.Location,
) ReportService {
	if loc == nil {
		loc = time.UTC
	}
	return &reportService{maintenance: maintenance, expenses: expenses, clocks: clocks, loc: loc, now: time.Now}
}

func parseOptionalUUID(field, raw string) (*uuid.UUID, error) {
	if raw == "" {
		return nil, nil
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		return nil, invalid(field, "must be a UUID")
	}
	return &id, nil
}

func (s *reportService) Financial(ctx context.Context, q dto.FinancialReportQuery) (*dto.FinancialReportResponse, error) {
	var f repository.FinancialFilter
	var err error
	if f.ClientID, err = parseOptionalUUID("client_id", q.ClientID); err != nil {
		return nil, err
	}
	if f.EquipmentID, err = parseOptionalUUID("equipment_id", q.EquipmentID); err != nil {
		return nil, err
	}
	if f.Start, err = parseOptionalDate("start", &q.Start); err != nil {
		return nil, err
	}
	if f.End, err = parseOptionalDate("end", &q.End); err != nil {
		return nil, err
	}
	if f.Start != nil && f.End != nil && f.End.Before(*f.Start) {
		return nil, invalid("end", "must not be before start")
	}

	records, err := s.maintenance.ListFinancial(ctx, f)
	if err != nil {
		return nil, err
	}
	resp := &dto.FinancialReportResponse{Records: make([]dto.FinancialRow, 0, len(records)), Total: decimal.Zero}
	for _, r := range records {
		row := dto.FinancialRow{
			ID:              r.ID.String(),
			MaintenanceDate: formatDate(r.MaintenanceDate),
			Category:        string(r.Category),
			Cost:            r.Cost,
		}
		if r.Equipment != nil {
			row.EquipmentCode = r.Equipment.Code
			if r.Equipment.Client != nil {
				row.ClientName = r.Equipment.Client.Name
			}
		}
		if r.Technician != nil {
			row.TechnicianName = r.Technician.Name
		}
		resp.Total = resp.Total.Add(r.Cost)
		resp.Records = append(resp.Records, row)
	}
	return resp, nil
}

func (s *reportService) StockUsage(ctx context.Context, q dto.StockUsageQuery) (*dto.StockUsageResponse, error) {
	f := repository.UsageFilter{Category: q.Category}
	var err error
	if f.StockItemID, err = parseOptionalUUID("stock_item_id", q.StockItemID); err != nil {
		return nil, err
	}
	if f.Start, err = parseOptionalDate("start", &q.Start); err != nil {
		return nil, err
	}
	if f.End, err = parseOptionalDate("end", &q.End); err != nil {
		return nil, err
	}

	rows, err := s.maintenance.ListPartUsage(ctx, f)
	if err != nil {
		return nil, err
	}
	resp := &dto.StockUsageResponse{Rows: make([]dto.StockUsageRow, 0, len(rows))}
	for _, r := range rows {
		resp.TotalQuantity += r.QuantityUsed
		resp.Rows = append(resp.Rows, dto.StockUsageRow{
			MaintenanceID:   r.MaintenanceID.String(),
			MaintenanceDate: formatDate(r.MaintenanceDate),
			EquipmentCode:   r.EquipmentCode,
			ClientName:      r.ClientName,
			ItemName:        r.ItemName,
			ItemCategory:    r.ItemCategory,
			QuantityUsed:    r.QuantityUsed,
		})
	}
	return resp, nil
}

func (s *reportService) Expenses(ctx context.Context, q dto.ExpenseReportQuery) (*dto.ExpenseReportResponse, error) {
	f := repository.ExpenseFilter{Category: strings.TrimSpace(q.Category)}
	if f.Category != "" && !model.ValidExpenseCategory(f.Category) {
		return nil, invalid("category", "must be one of "+strings.Join(model.ExpenseCategories, ", "))
	}
	var err error
	if f.UserID, err = parseOptionalUUID("technician_id", q.TechnicianID); err != nil {
		return nil, err
	}
	if f.Start, err = parseOptionalDate("start", &q.Start); err != nil {
		return nil, err
	}
	if f.End, err = parseOptionalDate("end", &q.End); err != nil {
		return nil, err
	}
	if f.Start != nil && f.End != nil && f.End.Before(*f.Start) {
		return nil, invalid("end", "must not be before start")
	}

	list, err := s.expenses.List(ctx, f)
	if err != nil {
		return nil, err
	}
	resp := &dto.ExpenseReportResponse{Records: make([]dto.ExpenseReportRow, 0, len(list)), Total: decimal.Zero}
	for _, e := range list {
		row := dto.ExpenseReportRow{
			ID:          e.ID.String(),
			Date:        formatDate(e.Date),
			Category:    e.Category,
			Description: e.Description,
			Value:       e.Value,
		}
		if e.User != nil {
			row.TechnicianName = e.User.Name
		}
		resp.Total = resp.Total.Add(e.Value)
		resp.Records = append(resp.Records, row)
	}
	return resp, nil
}

func (s *reportService) TimeClock(ctx context.Context, q dto.TimeClockReportQuery) (*dto.TimeClockReportResponse, error) {
	var f repository.TimeClockFilter
	var err error
	if f.UserID, err = parseOptionalUUID("technician_id", q.TechnicianID); err != nil {
		return nil, err
	}
	month := strings.TrimSpace(q.Month)
	var first time.Time
	if month == "" {
		now := s.now().In(s.loc)
		first = time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC)
	} else if first, err = time.Parse("2006-01", month); err != nil {
		return nil, invalid("month", "must be in YYYY-MM format")
	}
	f.Start = first
	f.End = first.AddDate(0, 1, -1)

	list, err := s.clocks.List(ctx, f)
	if err != nil {
		return nil, err
	}
	resp := &dto.TimeClockReportResponse{
		Month:   first.Format("2006-01"),
		Records: make([]dto.TimeClockReportRow, 0, len(list)),
	}
	var total time.Duration
	for i := range list {
		tc := &list[i]
		row := dto.TimeClockReportRow{TimeClockResponse: timeClockToResponse(tc, s.loc)}
		if tc.User != nil {
			row.TechnicianName = tc.User.Name
		}
		total += tc.Worked()
		resp.Records = append(resp.Records, row)
	}
	resp.TotalHours = hours(total)
	return resp, nil
}
