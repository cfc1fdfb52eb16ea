package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"maintrack/internal/dto"
	"maintrack/internal/model"
	"maintrack/internal/repository"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"
)

type EquipmentService interface {
	// List classifies every row against one settings snapshot.
	List(ctx context.Context, actor model.Actor, q dto.EquipmentListQuery) (*dto.EquipmentListResponse, error)
	Get(ctx context.Context, actor model.Actor, id uuid.UUID) (*dto.EquipmentDetailResponse, error)
	Create(ctx context.Context, actor model.Actor, req dto.EquipmentRequest) (*dto.EquipmentResponse, error)
	Update(ctx context.Context, actor model.Actor, id uuid.UUID, req dto.EquipmentRequest) (*dto.EquipmentResponse, error)
	ToggleArchive(ctx context.Context, actor model.Actor, id uuid.UUID) (*dto.EquipmentResponse, error)
	Dashboard(ctx context.Context, actor model.Actor) (*dto.DashboardResponse, error)
}

type equipmentService struct {
	repo        repository.EquipmentRepository
	users       repository.UserRepository
	clients     repository.ClientRepository
	maintenance repository.MaintenanceRepository
	stock       repository.StockItemRepository
	settings    SettingService
	notifier    NotificationService
}

func NewEquipmentService(
	repo repository.EquipmentRepository,
	users repository.UserRepository,
	clients repository.ClientRepository,
	maintenance repository.MaintenanceRepository,
	stock repository.StockItemRepository,
	settings SettingService,
	notifier NotificationService,
) EquipmentService {
	return &equipmentService{
		repo:        repo,
		users:       users,
		clients:     clients,
		maintenance: maintenance,
		stock:       stock,
		settings:    settings,
		notifier:    notifier,
	}
}

func (s *equipmentService) List(ctx context.Context, actor model.Actor, q dto.EquipmentListQuery) (*dto.EquipmentListResponse, error) {
	filter := repository.EquipmentFilter{Archived: q.Archived}
	if !actor.IsAdmin() {
		id := actor.ID
		filter.TechnicianID = &id
	}
	if q.ClientID != "" {
		cid, err := uuid.Parse(q.ClientID)
		if err != nil {
			return nil, invalid("client_id", "must be a UUID")
		}
		filter.ClientID = &cid
	}
	list, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, err
	}

	snap := s.settings.Snapshot(ctx)
	resp := &dto.EquipmentListResponse{
		WarningDays: snap.WarningDays,
		Today:       formatDate(snap.Today),
		Items:       make([]dto.EquipmentResponse, 0, len(list)),
	}
	for i := range list {
		item := equipmentToResponse(&list[i], snap)
		if q.Status != "" && item.Status != q.Status {
			continue
		}
		resp.Items = append(resp.Items, item)
	}
	return resp, nil
}

func (s *equipmentService) Get(ctx context.Context, actor model.Actor, id uuid.UUID) (*dto.EquipmentDetailResponse, error) {
	eq, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, notFound(err, "equipment")
	}
	if !actor.CanWorkOn(eq.UserID) {
		return nil, ErrForbidden
	}
	history, err := s.maintenance.ListByEquipment(ctx, eq.ID)
	if err != nil {
		return nil, err
	}
	resp := &dto.EquipmentDetailResponse{
		EquipmentResponse: equipmentToResponse(eq, s.settings.Snapshot(ctx)),
		History:           make([]dto.MaintenanceResponse, 0, len(history)),
	}
	for i := range history {
		resp.History = append(resp.History, maintenanceToResponse(&history[i]))
	}
	return resp, nil
}

// applyRequest validates req against the current data and copies it onto eq.
func (s *equipmentService) applyRequest(ctx context.Context, eq *model.Equipment, req dto.EquipmentRequest) error {
	code := strings.TrimSpace(req.Code)
	existing, err := s.repo.FindByCode(ctx, code)
	switch {
	case err == nil && existing.ID != eq.ID:
		return fmt.Errorf("equipment code %q: %w", code, ErrDuplicate)
	case err != nil && !errors.Is(err, gorm.ErrRecordNotFound):
		return err
	}

	next, err := ParseDate("next_maintenance_date", req.NextMaintenanceDate)
	if err != nil {
		return err
	}
	install, err := parseOptionalDate("install_date", req.InstallDate)
	if err != nil {
		return err
	}
	last, err := parseOptionalDate("last_maintenance_date", req.LastMaintenanceDate)
	if err != nil {
		return err
	}

	techID, err := uuid.Parse(req.TechnicianID)
	if err != nil {
		return invalid("technician_id", "must be a UUID")
	}
	tech, err := s.users.FindByID(ctx, techID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return invalid("technician_id", "technician does not exist")
		}
		return err
	}
	if !tech.Active || !tech.Role.Valid() {
		return invalid("technician_id", "technician is not active")
	}

	clientID, err := uuid.Parse(req.ClientID)
	if err != nil {
		return invalid("client_id", "must be a UUID")
	}
	client, err := s.clients.FindByID(ctx, clientID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return invalid("client_id", "client does not exist")
		}
		return err
	}

	eq.Code = code
	eq.Model = strings.TrimSpace(req.Model)
	eq.Location = strings.TrimSpace(req.Location)
	eq.Description = trimmedOrNil(req.Description)
	eq.InstallDate = install
	eq.LastMaintenanceDate = last
	eq.NextMaintenanceDate = next
	eq.UserID = tech.ID
	eq.ClientID = client.ID
	eq.Technician = tech
	eq.Client = client
	return nil
}

func (s *equipmentService) Create(ctx context.Context, actor model.Actor, req dto.EquipmentRequest) (*dto.EquipmentResponse, error) {
	if !actor.IsAdmin() {
		return nil, ErrForbidden
	}
	eq := &model.Equipment{ID: uuid.New()}
	if err := s.applyRequest(ctx, eq, req); err != nil {
		return nil, err
	}
	if err := s.repo.Create(ctx, eq); err != nil {
		return nil, err
	}
	log.Info().Str("equipment", eq.Code).Msg("equipment created")

	tech := eq.UserID
	msg := fmt.Sprintf("Equipment %s (%s) was registered and assigned to you or your team", eq.Code, eq.Model)
	s.notify(ctx, actor, "New equipment "+eq.Code, msg, eq.ID, &tech)

	resp := equipmentToResponse(eq, s.settings.Snapshot(ctx))
	return &resp, nil
}

func (s *equipmentService) Update(ctx context.Context, actor model.Actor, id uuid.UUID, req dto.EquipmentRequest) (*dto.EquipmentResponse, error) {
	if !actor.IsAdmin() {
		return nil, ErrForbidden
	}
	eq, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, notFound(err, "equipment")
	}
	if err := s.applyRequest(ctx, eq, req); err != nil {
		return nil, err
	}
	if err := s.repo.Update(ctx, eq); err != nil {
		return nil, err
	}

	tech := eq.UserID
	s.notify(ctx, actor, "Equipment "+eq.Code+" updated", fmt.Sprintf("Equipment %s (%s) was updated", eq.Code, eq.Model), eq.ID, &tech)

	resp := equipmentToResponse(eq, s.settings.Snapshot(ctx))
	return &resp, nil
}

// notify records and mails notifications; it never fails the caller.
func (s *equipmentService) notify(ctx context.Context, actor model.Actor, subject, msg string, eqID uuid.UUID, tech *uuid.UUID) {
	if s.notifier == nil {
		return
	}
	notes, err := s.notifier.Notify(ctx, msg, equipmentURL(eqID), actor.ID, tech)
	if err != nil {
		log.Warn().Err(err).Str("equipment_id", eqID.String()).Msg("equipment: notification failed")
		return
	}
	s.notifier.Deliver(ctx, subject, notes)
}

func (s *equipmentService) ToggleArchive(ctx context.Context, actor model.Actor, id uuid.UUID) (*dto.EquipmentResponse, error) {
	if !actor.IsAdmin() {
		return nil, ErrForbidden
	}
	eq, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, notFound(err, "equipment")
	}
	eq.IsArchived = !eq.IsArchived
	if err := s.repo.Update(ctx, eq); err != nil {
		return nil, err
	}
	log.Info().Str("equipment", eq.Code).Bool("archived", eq.IsArchived).Msg("equipment archive toggled")
	resp := equipmentToResponse(eq, s.settings.Snapshot(ctx))
	return &resp, nil
}

// Dashboard counts the actor's active equipment per status. Month KPIs and
// the low-stock count are shown to admins only.
func (s *equipmentService) Dashboard(ctx context.Context, actor model.Actor) (*dto.DashboardResponse, error) {
	filter := repository.EquipmentFilter{}
	if !actor.IsAdmin() {
		id := actor.ID
		filter.TechnicianID = &id
	}
	list, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, err
	}
	snap := s.settings.Snapshot(ctx)
	resp := &dto.DashboardResponse{WarningDays: snap.WarningDays, Total: len(list)}
	for _, eq := range list {
		switch snap.Status(eq.NextMaintenanceDate) {
		case model.StatusOverdue:
			resp.Overdue++
		case model.StatusUpcoming:
			resp.Upcoming++
		default:
			resp.OK++
		}
	}

	if !actor.IsAdmin() {
		return resp, nil
	}
	from := time.Date(snap.Today.Year(), snap.Today.Month(), 1, 0, 0, 0, 0, time.UTC)
	stats, err := s.maintenance.Stats(ctx, from, from.AddDate(0, 1, 0))
	if err != nil {
		return nil, err
	}
	resp.MonthMaintenance = stats.Count
	resp.MonthRevenue = stats.Revenue
	resp.MonthPreventive = stats.Preventive
	resp.MonthCorrective = stats.Corrective

	low, err := s.stock.List(ctx, repository.StockItemFilter{LowOnly: true})
	if err != nil {
		return nil, err
	}
	resp.LowStockItems = len(low)
	return resp, nil
}

func equipmentToResponse(e *model.Equipment, snap model.StatusClassifier) dto.EquipmentResponse {
	resp := dto.EquipmentResponse{
		ID:                  e.ID.String(),
		Code:                e.Code,
		Model:               e.Model,
		Location:            e.Location,
		Description:         e.Description,
		InstallDate:         formatOptionalDate(e.InstallDate),
		LastMaintenanceDate: formatOptionalDate(e.LastMaintenanceDate),
		NextMaintenanceDate: formatDate(e.NextMaintenanceDate),
		Status:              string(snap.Status(e.NextMaintenanceDate)),
		TechnicianID:        e.UserID.String(),
		ClientID:            e.ClientID.String(),
		IsArchived:          e.IsArchived,
	}
	if e.Technician != nil {
		resp.TechnicianName = e.Technician.Name
	}
	if e.Client != nil {
		resp.ClientName = e.Client.Name
	}
	return resp
}
