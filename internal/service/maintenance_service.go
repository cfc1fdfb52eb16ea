package service

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"math"
	"sort"
	"strings"
	"time"

	"maintrack/internal/dto"
	"maintrack/internal/infra"
	"maintrack/internal/model"
	"maintrack/internal/repository"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// PhotoStore persists maintenance photos. *infra.DiskPhotoStore implements it.
type PhotoStore interface {
	Save(ext string, r io.Reader) (string, error)
	Remove(name string) error
}

type MaintenanceService interface {
	Create(ctx context.Context, actor model.Actor, equipmentID uuid.UUID, in dto.MaintenanceInput) (*dto.MaintenanceResponse, error)
	Edit(ctx context.Context, actor model.Actor, id uuid.UUID, in dto.MaintenanceInput) (*dto.MaintenanceResponse, error)
	Delete(ctx context.Context, actor model.Actor, id uuid.UUID) error
	DeletePhoto(ctx context.Context, actor model.Actor, imageID uuid.UUID) error
	Get(ctx context.Context, actor model.Actor, id uuid.UUID) (*dto.MaintenanceResponse, error)
	SheetPDF(ctx context.Context, actor model.Actor, id uuid.UUID) ([]byte, error)
}

type maintenanceService struct {
	repo      repository.MaintenanceRepository
	equipment repository.EquipmentRepository
	stock     repository.StockItemRepository
	movements repository.StockMovementRepository
	notifier  NotificationService
	photos    PhotoStore
}

func NewMaintenanceService(
	repo repository.MaintenanceRepository,
	equipment repository.EquipmentRepository,
	stock repository.StockItemRepository,
	movements repository.StockMovementRepository,
	notifier NotificationService,
	photos PhotoStore,
) MaintenanceService {
	return &maintenanceService{
		repo:      repo,
		equipment: equipment,
		stock:     stock,
		movements: movements,
		notifier:  notifier,
		photos:    photos,
	}
}

// ── Input normalization ──────────────────────────────────────────────────────

type maintenanceFields struct {
	date        time.Time
	category    model.MaintenanceCategory
	description string
	laborCost   decimal.Decimal
}

func parseMaintenanceFields(in dto.MaintenanceInput) (maintenanceFields, error) {
	var f maintenanceFields
	var err error
	if f.date, err = ParseDate("date", in.Date); err != nil {
		return f, err
	}
	f.category = model.MaintenanceCategory(strings.TrimSpace(in.Category))
	if !f.category.Valid() {
		return f, invalid("category", "must be one of Installation, Preventive, Corrective, Proactive")
	}
	f.description = strings.TrimSpace(in.Description)
	if f.laborCost, err = ParseLocaleDecimal("labor_cost", in.LaborCost); err != nil {
		return f, err
	}
	return f, nil
}

// MaxPartQuantity is the largest quantity the integer stock column holds.
const MaxPartQuantity = math.MaxInt32

type partQty struct {
	itemID uuid.UUID
	qty    int
}

// mergeParts sums repeated items and returns them ordered by id, which is
// also the order rows are locked in.
func mergeParts(parts []dto.PartRequest) ([]partQty, error) {
	sums := make(map[uuid.UUID]int, len(parts))
	for i, p := range parts {
		if p.StockItemID == uuid.Nil {
			return nil, invalid(fmt.Sprintf("parts[%d].stock_item_id", i), "is required")
		}
		if p.Quantity <= 0 || p.Quantity > MaxPartQuantity {
			return nil, invalid(fmt.Sprintf("parts[%d].quantity", i), fmt.Sprintf("must be between 1 and %d", MaxPartQuantity))
		}
		if p.Quantity > MaxPartQuantity-sums[p.StockItemID] {
			return nil, invalid(fmt.Sprintf("parts[%d].quantity", i), fmt.Sprintf("total for one item must not exceed %d", MaxPartQuantity))
		}
		sums[p.StockItemID] += p.Quantity
	}
	out := make([]partQty, 0, len(sums))
	for id, q := range sums {
		out = append(out, partQty{itemID: id, qty: q})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].itemID.String() < out[j].itemID.String() })
	return out, nil
}

func validatePhotos(photos []dto.PhotoUpload, existing int) error {
	if existing+len(photos) > model.MaxMaintenancePhotos {
		return invalid("photos", fmt.Sprintf("at most %d photos per maintenance record", model.MaxMaintenancePhotos))
	}
	for i, p := range photos {
		if infra.PhotoExtension(p.Filename) == "" {
			return invalid(fmt.Sprintf("photos[%d]", i), "must be a png, jpg, jpeg or gif image")
		}
	}
	return nil
}

type resolvedPart struct {
	item model.StockItem
	qty  int
}

// resolveParts checks every requested part against the quantity on hand
// before anything is written. credit holds quantities that the same
// operation returns first (the old parts of an edited record).
func (s *maintenanceService) resolveParts(ctx context.Context, parts []partQty, credit map[uuid.UUID]int) ([]resolvedPart, decimal.Decimal, error) {
	partsCost := decimal.Zero
	if len(parts) == 0 {
		return nil, partsCost, nil
	}
	ids := make([]uuid.UUID, len(parts))
	for i, p := range parts {
		ids[i] = p.itemID
	}
	items, err := s.stock.FindByIDs(ctx, ids)
	if err != nil {
		return nil, partsCost, err
	}
	byID := make(map[uuid.UUID]model.StockItem, len(items))
	for _, it := range items {
		byID[it.ID] = it
	}

	out := make([]resolvedPart, 0, len(parts))
	for _, p := range parts {
		item, ok := byID[p.itemID]
		if !ok {
			return nil, partsCost, fmt.Errorf("stock item %s: %w", p.itemID, ErrNotFound)
		}
		available := item.Quantity + credit[p.itemID]
		if available < p.qty {
			return nil, partsCost, &InsufficientStockError{Item: item.Name, Available: available, Requested: p.qty}
		}
		partsCost = partsCost.Add(item.UnitCostOrZero().Mul(decimal.NewFromInt(int64(p.qty))))
		out = append(out, resolvedPart{item: item, qty: p.qty})
	}
	return out, partsCost, nil
}

// ── Ledger steps (run inside the caller's transaction) ───────────────────────

func (s *maintenanceService) withdrawTx(tx *gorm.DB, actor model.Actor, recordID uuid.UUID, parts []resolvedPart) error {
	rows := make([]model.MaintenancePartUsed, 0, len(parts))
	for _, p := range parts {
		after, ok, err := s.stock.DeductTx(tx, p.item.ID, p.qty)
		if err != nil {
			return fmt.Errorf("deduct %s: %w", p.item.Name, err)
		}
		if !ok {
			// another transaction took the stock after the pre-check
			current, err := s.stock.FindByIDTx(tx, p.item.ID)
			if err != nil {
				return notFound(err, "stock item")
			}
			return &InsufficientStockError{Item: current.Name, Available: current.Quantity, Requested: p.qty}
		}
		ref, uid := recordID, actor.ID
		if err := s.movements.CreateTx(tx, &model.StockMovement{
			StockItemID:    p.item.ID,
			Kind:           model.MovementMaintenanceWithdrawal,
			Delta:          -p.qty,
			QuantityBefore: after + p.qty,
			QuantityAfter:  after,
			Reason:         "maintenance record",
			ReferenceID:    &ref,
			UserID:         &uid,
		}); err != nil {
			return err
		}
		rows = append(rows, model.MaintenancePartUsed{
			MaintenanceHistoryID: recordID,
			StockItemID:          p.item.ID,
			QuantityUsed:         p.qty,
		})
	}
	return s.repo.CreatePartsTx(tx, rows)
}

// restoreTx credits every part of the record back to stock and drops the
// parts-used rows.
func (s *maintenanceService) restoreTx(tx *gorm.DB, actor model.Actor, recordID uuid.UUID, reason string) error {
	parts, err := s.repo.LoadPartsTx(tx, recordID)
	if err != nil {
		return err
	}
	for _, p := range parts {
		after, err := s.stock.CreditTx(tx, p.StockItemID, p.QuantityUsed)
		if err != nil {
			return fmt.Errorf("restore stock %s: %w", p.StockItemID, err)
		}
		ref, uid := recordID, actor.ID
		if err := s.movements.CreateTx(tx, &model.StockMovement{
			StockItemID:    p.StockItemID,
			Kind:           model.MovementMaintenanceRestore,
			Delta:          p.QuantityUsed,
			QuantityBefore: after - p.QuantityUsed,
			QuantityAfter:  after,
			Reason:         reason,
			ReferenceID:    &ref,
			UserID:         &uid,
		}); err != nil {
			return err
		}
	}
	return s.repo.DeletePartsTx(tx, recordID)
}

// savePhotosTx writes the files and their rows. Names of written files are
// appended to *saved so the caller can remove them if the transaction fails.
func (s *maintenanceService) savePhotosTx(tx *gorm.DB, recordID uuid.UUID, photos []dto.PhotoUpload, saved *[]string) error {
	if len(photos) == 0 {
		return nil
	}
	if s.photos == nil {
		return errors.New("photo store not configured")
	}
	images := make([]model.MaintenanceImage, 0, len(photos))
	for _, p := range photos {
		name, err := s.photos.Save(infra.PhotoExtension(p.Filename), bytes.NewReader(p.Data))
		if err != nil {
			return err
		}
		*saved = append(*saved, name)
		images = append(images, model.MaintenanceImage{MaintenanceHistoryID: recordID, Filename: name})
	}
	return s.repo.CreateImagesTx(tx, images)
}

func (s *maintenanceService) removeFiles(names []string) {
	if s.photos == nil {
		return
	}
	for _, n := range names {
		if err := s.photos.Remove(n); err != nil {
			log.Warn().Err(err).Str("file", n).Msg("maintenance: photo file removal failed")
		}
	}
}

// ── Create ────────────────────────────────────────────────────────────────────
//   1. equipment exists, actor is admin or its technician
//   2. fields, photos and parts validated, stock checked for all parts
//   3. BEGIN TX: record, stock deduction + movements, parts rows, photos,
//      equipment last maintenance date, notifications
//   4. COMMIT, then (async) notification mail

func (s *maintenanceService) Create(ctx context.Context, actor model.Actor, equipmentID uuid.UUID, in dto.MaintenanceInput) (*dto.MaintenanceResponse, error) {
	eq, err := s.equipment.FindByID(ctx, equipmentID)
	if err != nil {
		return nil, notFound(err, "equipment")
	}
	if !actor.CanWorkOn(eq.UserID) {
		return nil, ErrForbidden
	}

	f, err := parseMaintenanceFields(in)
	if err != nil {
		return nil, err
	}
	if err := validatePhotos(in.Photos, 0); err != nil {
		return nil, err
	}
	merged, err := mergeParts(in.Parts)
	if err != nil {
		return nil, err
	}
	parts, partsCost, err := s.resolveParts(ctx, merged, nil)
	if err != nil {
		return nil, err
	}

	rec := model.MaintenanceHistory{
		ID:              uuid.New(),
		MaintenanceDate: f.date,
		Category:        f.category,
		Description:     f.description,
		EquipmentID:     eq.ID,
		TechnicianID:    actor.ID,
		LaborCost:       f.laborCost,
		Cost:            f.laborCost.Add(partsCost),
	}

	var saved []string
	var notes []model.Notification
	txErr := runTx(ctx, s.repo.DB(), func(tx *gorm.DB) error {
		if err := s.repo.CreateTx(tx, &rec); err != nil {
			return err
		}
		if err := s.withdrawTx(tx, actor, rec.ID, parts); err != nil {
			return err
		}
		if err := s.savePhotosTx(tx, rec.ID, in.Photos, &saved); err != nil {
			return err
		}
		if err := s.equipment.SetLastMaintenanceTx(tx, eq.ID, f.date); err != nil {
			return err
		}
		msg := fmt.Sprintf("New %s maintenance registered on equipment %s (%s)", f.category, eq.Code, eq.Model)
		tech := eq.UserID
		notes, err = s.notifier.FanOutTx(ctx, tx, msg, equipmentURL(eq.ID), actor.ID, &tech)
		return err
	})
	if txErr != nil {
		s.removeFiles(saved)
		return nil, txErr
	}

	log.Info().
		Str("maintenance_id", rec.ID.String()).
		Str("equipment", eq.Code).
		Str("cost", rec.Cost.StringFixed(2)).
		Int("parts", len(parts)).
		Msg("maintenance record created")
	s.notifier.Deliver(ctx, "New maintenance on "+eq.Code, notes)

	return s.Get(ctx, actor, rec.ID)
}

// ── Edit ──────────────────────────────────────────────────────────────────────
// Undo old, apply new as one unit: old parts are credited back before the new
// list is deducted, so availability is checked against the replenished stock.

func (s *maintenanceService) Edit(ctx context.Context, actor model.Actor, id uuid.UUID, in dto.MaintenanceInput) (*dto.MaintenanceResponse, error) {
	rec, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, notFound(err, "maintenance record")
	}
	if !actor.CanModifyRecord(rec.TechnicianID) {
		return nil, ErrForbidden
	}

	f, err := parseMaintenanceFields(in)
	if err != nil {
		return nil, err
	}

	owned := make(map[uuid.UUID]model.MaintenanceImage, len(rec.Images))
	for _, img := range rec.Images {
		owned[img.ID] = img
	}
	removeIDs := make([]uuid.UUID, 0, len(in.RemoveImages))
	var removedFiles []string
	seen := make(map[uuid.UUID]bool)
	for i, imgID := range in.RemoveImages {
		img, ok := owned[imgID]
		if !ok {
			return nil, invalid(fmt.Sprintf("remove_images[%d]", i), "image does not belong to this record")
		}
		if seen[imgID] {
			continue
		}
		seen[imgID] = true
		removeIDs = append(removeIDs, imgID)
		removedFiles = append(removedFiles, img.Filename)
	}
	if err := validatePhotos(in.Photos, len(rec.Images)-len(removeIDs)); err != nil {
		return nil, err
	}

	merged, err := mergeParts(in.Parts)
	if err != nil {
		return nil, err
	}
	credit := make(map[uuid.UUID]int, len(rec.PartsUsed))
	for _, p := range rec.PartsUsed {
		credit[p.StockItemID] += p.QuantityUsed
	}
	parts, partsCost, err := s.resolveParts(ctx, merged, credit)
	if err != nil {
		return nil, err
	}

	rec.MaintenanceDate = f.date
	rec.Category = f.category
	rec.Description = f.description
	rec.LaborCost = f.laborCost
	rec.Cost = f.laborCost.Add(partsCost)

	var saved []string
	var notes []model.Notification
	txErr := runTx(ctx, s.repo.DB(), func(tx *gorm.DB) error {
		if err := s.restoreTx(tx, actor, rec.ID, "maintenance record edited"); err != nil {
			return err
		}
		if err := s.withdrawTx(tx, actor, rec.ID, parts); err != nil {
			return err
		}
		if err := s.repo.UpdateTx(tx, rec); err != nil {
			return err
		}
		if err := s.repo.DeleteImagesTx(tx, rec.ID, removeIDs); err != nil {
			return err
		}
		if err := s.savePhotosTx(tx, rec.ID, in.Photos, &saved); err != nil {
			return err
		}
		code := rec.EquipmentID.String()
		var tech *uuid.UUID
		if rec.Equipment != nil {
			code = rec.Equipment.Code
			t := rec.Equipment.UserID
			tech = &t
		}
		msg := fmt.Sprintf("Maintenance of %s on equipment %s was edited", formatDate(f.date), code)
		notes, err = s.notifier.FanOutTx(ctx, tx, msg, equipmentURL(rec.EquipmentID), actor.ID, tech)
		return err
	})
	if txErr != nil {
		s.removeFiles(saved)
		return nil, txErr
	}

	s.removeFiles(removedFiles)
	log.Info().
		Str("maintenance_id", rec.ID.String()).
		Str("cost", rec.Cost.StringFixed(2)).
		Int("parts", len(parts)).
		Msg("maintenance record edited")
	s.notifier.Deliver(ctx, "Maintenance edited", notes)

	return s.Get(ctx, actor, rec.ID)
}

// ── Delete ────────────────────────────────────────────────────────────────────

func (s *maintenanceService) Delete(ctx context.Context, actor model.Actor, id uuid.UUID) error {
	rec, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return notFound(err, "maintenance record")
	}
	if !actor.CanModifyRecord(rec.TechnicianID) {
		return ErrForbidden
	}

	var files []string
	var notes []model.Notification
	txErr := runTx(ctx, s.repo.DB(), func(tx *gorm.DB) error {
		if err := s.restoreTx(tx, actor, rec.ID, "maintenance record deleted"); err != nil {
			return err
		}
		images, err := s.repo.LoadImagesTx(tx, rec.ID)
		if err != nil {
			return err
		}
		for _, img := range images {
			files = append(files, img.Filename)
		}
		if err := s.repo.DeleteRecordWithPartsTx(tx, rec.ID); err != nil {
			return notFound(err, "maintenance record")
		}
		code := rec.EquipmentID.String()
		var tech *uuid.UUID
		if rec.Equipment != nil {
			code = rec.Equipment.Code
			t := rec.Equipment.UserID
			tech = &t
		}
		msg := fmt.Sprintf("Maintenance of %s on equipment %s was deleted", formatDate(rec.MaintenanceDate), code)
		notes, err = s.notifier.FanOutTx(ctx, tx, msg, equipmentURL(rec.EquipmentID), actor.ID, tech)
		return err
	})
	if txErr != nil {
		return txErr
	}

	// file removal never blocks the deletion
	s.removeFiles(files)
	log.Info().Str("maintenance_id", rec.ID.String()).Msg("maintenance record deleted")
	s.notifier.Deliver(ctx, "Maintenance deleted", notes)
	return nil
}

func (s *maintenanceService) DeletePhoto(ctx context.Context, actor model.Actor, imageID uuid.UUID) error {
	img, err := s.repo.FindImageByID(ctx, imageID)
	if err != nil {
		return notFound(err, "image")
	}
	rec, err := s.repo.FindByID(ctx, img.MaintenanceHistoryID)
	if err != nil {
		return notFound(err, "maintenance record")
	}
	if !actor.CanModifyRecord(rec.TechnicianID) {
		return ErrForbidden
	}
	if err := s.repo.DeleteImage(ctx, img.ID); err != nil {
		return err
	}
	s.removeFiles([]string{img.Filename})
	return nil
}

// ── Reads ─────────────────────────────────────────────────────────────────────

// canView lets admins, the record's author and the equipment's technician in.
func canView(actor model.Actor, rec *model.MaintenanceHistory) bool {
	if actor.CanModifyRecord(rec.TechnicianID) {
		return true
	}
	return rec.Equipment != nil && actor.CanWorkOn(rec.Equipment.UserID)
}

func (s *maintenanceService) load(ctx context.Context, actor model.Actor, id uuid.UUID) (*model.MaintenanceHistory, error) {
	rec, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, notFound(err, "maintenance record")
	}
	if !canView(actor, rec) {
		return nil, ErrForbidden
	}
	return rec, nil
}

func (s *maintenanceService) Get(ctx context.Context, actor model.Actor, id uuid.UUID) (*dto.MaintenanceResponse, error) {
	rec, err := s.load(ctx, actor, id)
	if err != nil {
		return nil, err
	}
	resp := maintenanceToResponse(rec)
	return &resp, nil
}

func (s *maintenanceService) SheetPDF(ctx context.Context, actor model.Actor, id uuid.UUID) ([]byte, error) {
	rec, err := s.load(ctx, actor, id)
	if err != nil {
		return nil, err
	}
	return infra.GenerateMaintenanceSheet(rec)
}

func equipmentURL(id uuid.UUID) string { return "/v1/equipment/" + id.String() }

func maintenanceToResponse(rec *model.MaintenanceHistory) dto.MaintenanceResponse {
	resp := dto.MaintenanceResponse{
		ID:              rec.ID.String(),
		EquipmentID:     rec.EquipmentID.String(),
		TechnicianID:    rec.TechnicianID.String(),
		MaintenanceDate: formatDate(rec.MaintenanceDate),
		Category:        string(rec.Category),
		Description:     rec.Description,
		LaborCost:       rec.LaborCost,
		Cost:            rec.Cost,
		Parts:           make([]dto.PartUsedResponse, 0, len(rec.PartsUsed)),
		Images:          make([]dto.ImageResponse, 0, len(rec.Images)),
		CreatedAt:       rec.CreatedAt.Format(time.RFC3339),
	}
	if rec.Equipment != nil {
		resp.EquipmentCode = rec.Equipment.Code
	}
	if rec.Technician != nil {
		resp.TechnicianName = rec.Technician.Name
	}
	for _, p := range rec.PartsUsed {
		pr := dto.PartUsedResponse{StockItemID: p.StockItemID.String(), Quantity: p.QuantityUsed}
		if p.Item != nil {
			pr.Name = p.Item.Name
			pr.UnitCost = p.Item.UnitCostOrZero()
		}
		resp.Parts = append(resp.Parts, pr)
	}
	for _, img := range rec.Images {
		resp.Images = append(resp.Images, dto.ImageResponse{
			ID:       img.ID.String(),
			Filename: img.Filename,
			URL:      "/v1/uploads/" + img.Filename,
		})
	}
	return resp
}
