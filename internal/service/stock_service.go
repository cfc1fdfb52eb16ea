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
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Adjustment directions of the manual ledger path.
const (
	DirectionAdd    = "add"
	DirectionRemove = "remove"
)

type StockService interface {
	Create(ctx context.Context, actor model.Actor, req dto.CreateStockItemRequest) (*dto.StockItemResponse, error)
	Update(ctx context.Context, actor model.Actor, id uuid.UUID, req dto.UpdateStockItemRequest) (*dto.StockItemResponse, error)
	// Delete refuses items referenced by any maintenance record.
	Delete(ctx context.Context, actor model.Actor, id uuid.UUID) error
	List(ctx context.Context, q dto.StockListQuery) ([]dto.StockItemResponse, error)
	Get(ctx context.Context, id uuid.UUID) (*dto.StockItemResponse, error)
	// Adjust adds or removes quantity by hand; remove never drives it below zero.
	Adjust(ctx context.Context, actor model.Actor, id uuid.UUID, req dto.StockAdjustRequest) (*dto.StockItemResponse, error)
	LowStock(ctx context.Context) ([]dto.StockItemResponse, error)
	Movements(ctx context.Context, q dto.StockMovementQuery) (*dto.StockMovementListResponse, error)
}

type stockService struct {
	repo        repository.StockItemRepository
	movements   repository.StockMovementRepository
	maintenance repository.MaintenanceRepository
}

func NewStockService(
	repo repository.StockItemRepository,
	movements repository.StockMovementRepository,
	maintenance repository.MaintenanceRepository,
) StockService {
	return &stockService{repo: repo, movements: movements, maintenance: maintenance}
}

// checkUnique rejects a name or SKU already used by another item.
func (s *stockService) checkUnique(ctx context.Context, self uuid.UUID, name string, sku *string) error {
	existing, err := s.repo.FindByName(ctx, name)
	switch {
	case err == nil && existing.ID != self:
		return fmt.Errorf("stock item name %q: %w", name, ErrDuplicate)
	case err != nil && !errors.Is(err, gorm.ErrRecordNotFound):
		return err
	}
	if sku == nil {
		return nil
	}
	existing, err = s.repo.FindBySKU(ctx, *sku)
	switch {
	case err == nil && existing.ID != self:
		return fmt.Errorf("sku %q: %w", *sku, ErrDuplicate)
	case err != nil && !errors.Is(err, gorm.ErrRecordNotFound):
		return err
	}
	return nil
}

func parseUnitCost(raw string) (*decimal.Decimal, error) {
	if strings.TrimSpace(raw) == "" {
		return nil, nil
	}
	d, err := ParseLocaleDecimal("unit_cost", raw)
	if err != nil {
		return nil, err
	}
	return &d, nil
}

func (s *stockService) Create(ctx context.Context, actor model.Actor, req dto.CreateStockItemRequest) (*dto.StockItemResponse, error) {
	if !actor.IsAdmin() {
		return nil, ErrForbidden
	}
	if req.Quantity < 0 || req.Quantity > MaxPartQuantity {
		return nil, invalid("quantity", fmt.Sprintf("must be between 0 and %d", MaxPartQuantity))
	}
	unitCost, err := parseUnitCost(req.UnitCost)
	if err != nil {
		return nil, err
	}
	name := strings.TrimSpace(req.Name)
	sku := trimmedOrNil(req.SKU)
	if err := s.checkUnique(ctx, uuid.Nil, name, sku); err != nil {
		return nil, err
	}
	item := &model.StockItem{
		Name:              name,
		Category:          strings.TrimSpace(req.Category),
		SKU:               sku,
		Description:       trimmedOrNil(req.Description),
		Quantity:          req.Quantity,
		LowStockThreshold: req.LowStockThreshold,
		UnitCost:          unitCost,
		RequiresTracking:  req.RequiresTracking == nil || *req.RequiresTracking,
	}
	if err := s.repo.Create(ctx, item); err != nil {
		return nil, err
	}
	log.Info().Str("stock_item", item.Name).Int("quantity", item.Quantity).Msg("stock item created")
	resp := stockItemToResponse(item)
	return &resp, nil
}

func (s *stockService) Update(ctx context.Context, actor model.Actor, id uuid.UUID, req dto.UpdateStockItemRequest) (*dto.StockItemResponse, error) {
	if !actor.IsAdmin() {
		return nil, ErrForbidden
	}
	item, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, notFound(err, "stock item")
	}
	unitCost, err := parseUnitCost(req.UnitCost)
	if err != nil {
		return nil, err
	}
	name := strings.TrimSpace(req.Name)
	sku := trimmedOrNil(req.SKU)
	if err := s.checkUnique(ctx, item.ID, name, sku); err != nil {
		return nil, err
	}
	item.Name = name
	item.Category = strings.TrimSpace(req.Category)
	item.SKU = sku
	item.Description = trimmedOrNil(req.Description)
	item.LowStockThreshold = req.LowStockThreshold
	item.UnitCost = unitCost
	if req.RequiresTracking != nil {
		item.RequiresTracking = *req.RequiresTracking
	}
	if err := s.repo.Update(ctx, item); err != nil {
		return nil, err
	}
	resp := stockItemToResponse(item)
	return &resp, nil
}

func (s *stockService) Delete(ctx context.Context, actor model.Actor, id uuid.UUID) error {
	if !actor.IsAdmin() {
		return ErrForbidden
	}
	item, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return notFound(err, "stock item")
	}
	used, err := s.maintenance.CountPartsByItem(ctx, item.ID)
	if err != nil {
		return err
	}
	if used > 0 {
		return fmt.Errorf("%s: %w", item.Name, ErrStockItemInUse)
	}
	if err := s.repo.Delete(ctx, item.ID); err != nil {
		return notFound(err, "stock item")
	}
	log.Info().Str("stock_item", item.Name).Msg("stock item deleted")
	return nil
}

func (s *stockService) List(ctx context.Context, q dto.StockListQuery) ([]dto.StockItemResponse, error) {
	items, err := s.repo.List(ctx, repository.StockItemFilter{
		Category: q.Category,
		Name:     strings.TrimSpace(q.Name),
		LowOnly:  q.Low,
	})
	if err != nil {
		return nil, err
	}
	resp := make([]dto.StockItemResponse, len(items))
	for i := range items {
		resp[i] = stockItemToResponse(&items[i])
	}
	return resp, nil
}

func (s *stockService) Get(ctx context.Context, id uuid.UUID) (*dto.StockItemResponse, error) {
	item, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, notFound(err, "stock item")
	}
	resp := stockItemToResponse(item)
	return &resp, nil
}

func (s *stockService) LowStock(ctx context.Context) ([]dto.StockItemResponse, error) {
	return s.List(ctx, dto.StockListQuery{Low: true})
}

func (s *stockService) Adjust(ctx context.Context, actor model.Actor, id uuid.UUID, req dto.StockAdjustRequest) (*dto.StockItemResponse, error) {
	if !actor.IsAdmin() {
		return nil, ErrForbidden
	}
	if req.Quantity <= 0 || req.Quantity > MaxPartQuantity {
		return nil, invalid("quantity", fmt.Sprintf("must be between 1 and %d", MaxPartQuantity))
	}
	if req.Direction != DirectionAdd && req.Direction != DirectionRemove {
		return nil, invalid("direction", "must be add or remove")
	}
	item, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, notFound(err, "stock item")
	}
	if req.Direction == DirectionAdd && req.Quantity > MaxPartQuantity-item.Quantity {
		return nil, invalid("quantity", fmt.Sprintf("resulting stock must not exceed %d", MaxPartQuantity))
	}

	reason := strings.TrimSpace(req.Reason)
	if reason == "" {
		reason = "manual adjustment"
	}
	txErr := runTx(ctx, s.repo.DB(), func(tx *gorm.DB) error {
		var after, delta int
		kind := model.MovementManualAdd
		if req.Direction == DirectionAdd {
			delta = req.Quantity
			after, err = s.repo.CreditTx(tx, item.ID, req.Quantity)
			if err != nil {
				return notFound(err, "stock item")
			}
		} else {
			kind = model.MovementManualRemove
			delta = -req.Quantity
			var ok bool
			after, ok, err = s.repo.DeductTx(tx, item.ID, req.Quantity)
			if err != nil {
				return err
			}
			if !ok {
				current, err := s.repo.FindByIDTx(tx, item.ID)
				if err != nil {
					return notFound(err, "stock item")
				}
				return &InsufficientStockError{Item: current.Name, Available: current.Quantity, Requested: req.Quantity}
			}
		}
		item.Quantity = after
		uid := actor.ID
		return s.movements.CreateTx(tx, &model.StockMovement{
			StockItemID:    item.ID,
			Kind:           kind,
			Delta:          delta,
			QuantityBefore: after - delta,
			QuantityAfter:  after,
			Reason:         reason,
			UserID:         &uid,
		})
	})
	if txErr != nil {
		return nil, txErr
	}

	log.Info().
		Str("stock_item", item.Name).
		Str("direction", req.Direction).
		Int("quantity", req.Quantity).
		Int("after", item.Quantity).
		Msg("stock adjusted")
	resp := stockItemToResponse(item)
	return &resp, nil
}

func (s *stockService) Movements(ctx context.Context, q dto.StockMovementQuery) (*dto.StockMovementListResponse, error) {
	filter := repository.StockMovementFilter{
		Kind:  model.StockMovementKind(q.Kind),
		Page:  q.Page,
		Limit: q.Limit,
	}
	if q.StockItemID != "" {
		id, err := uuid.Parse(q.StockItemID)
		if err != nil {
			return nil, invalid("stock_item_id", "must be a UUID")
		}
		filter.StockItemID = &id
	}
	list, total, err := s.movements.List(ctx, filter)
	if err != nil {
		return nil, err
	}
	page, limit := q.Page, q.Limit
	if page < 1 {
		page = 1
	}
	if limit < 1 || limit > 500 {
		limit = 100
	}
	resp := &dto.StockMovementListResponse{
		Data:  make([]dto.StockMovementResponse, 0, len(list)),
		Total: total,
		Page:  page,
		Limit: limit,
	}
	for _, m := range list {
		r := dto.StockMovementResponse{
			ID:             m.ID.String(),
			StockItemID:    m.StockItemID.String(),
			Kind:           string(m.Kind),
			Delta:          m.Delta,
			QuantityBefore: m.QuantityBefore,
			QuantityAfter:  m.QuantityAfter,
			Reason:         m.Reason,
			CreatedAt:      m.CreatedAt.Format(time.RFC3339),
		}
		if m.Item != nil {
			r.ItemName = m.Item.Name
		}
		if m.ReferenceID != nil {
			ref := m.ReferenceID.String()
			r.ReferenceID = &ref
		}
		resp.Data = append(resp.Data, r)
	}
	return resp, nil
}

func stockItemToResponse(s *model.StockItem) dto.StockItemResponse {
	return dto.StockItemResponse{
		ID:                s.ID.String(),
		Name:              s.Name,
		Category:          s.Category,
		SKU:               s.SKU,
		Description:       s.Description,
		Quantity:          s.Quantity,
		LowStockThreshold: s.LowStockThreshold,
		UnitCost:          s.UnitCost,
		RequiresTracking:  s.RequiresTracking,
		Level:             model.StockLevel(s.Quantity, s.LowStockThreshold),
	}
}
