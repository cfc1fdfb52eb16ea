package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sort"
	"strings"
	"time"

	"maintrack/internal/model"
	"maintrack/internal/repository"
	"maintrack/internal/worker"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// In-memory repositories. DB() returns nil so runTx calls the body directly;
// services validate before mutating, which is what these stubs let us observe.

// ── users ─────────────────────────────────────────────────────────────────────

type stubUsers struct{ byID map[uuid.UUID]*model.User }

func (r *stubUsers) Create(_ context.Context, u *model.User) error {
	if u.ID == uuid.Nil {
		u.ID = uuid.New()
	}
	cp := *u
	r.byID[u.ID] = &cp
	return nil
}

func (r *stubUsers) FindByUsername(_ context.Context, username string) (*model.User, error) {
	for _, u := range r.byID {
		if u.Active && (u.Username == username || (u.Email != nil && strings.EqualFold(*u.Email, username))) {
			cp := *u
			return &cp, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *stubUsers) FindByID(_ context.Context, id uuid.UUID) (*model.User, error) {
	u, ok := r.byID[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	cp := *u
	return &cp, nil
}

func (r *stubUsers) List(_ context.Context, includeInactive bool) ([]model.User, error) {
	var out []model.User
	for _, u := range r.byID {
		if u.Active || includeInactive {
			out = append(out, *u)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (r *stubUsers) Deactivate(_ context.Context, id uuid.UUID) error {
	u, ok := r.byID[id]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	u.Active = false
	return nil
}

func (r *stubUsers) ListAdminsTx(_ *gorm.DB) ([]model.User, error) {
	var out []model.User
	for _, u := range r.byID {
		if u.Role == model.RoleAdmin && u.Active {
			out = append(out, *u)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (r *stubUsers) ListAdmins(context.Context) ([]model.User, error) { return r.ListAdminsTx(nil) }

// ── clients ───────────────────────────────────────────────────────────────────

type stubClients struct{ byID map[uuid.UUID]*model.Client }

func (r *stubClients) Create(_ context.Context, c *model.Client) error {
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	cp := *c
	r.byID[c.ID] = &cp
	return nil
}

func (r *stubClients) FindByID(_ context.Context, id uuid.UUID) (*model.Client, error) {
	c, ok := r.byID[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	cp := *c
	return &cp, nil
}

func (r *stubClients) FindByName(_ context.Context, name string) (*model.Client, error) {
	for _, c := range r.byID {
		if strings.EqualFold(c.Name, name) {
			cp := *c
			return &cp, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *stubClients) List(_ context.Context, archived bool) ([]model.Client, error) {
	var out []model.Client
	for _, c := range r.byID {
		if c.IsArchived == archived {
			out = append(out, *c)
		}
	}
	return out, nil
}

func (r *stubClients) Update(_ context.Context, c *model.Client) error {
	cp := *c
	r.byID[c.ID] = &cp
	return nil
}

// ── equipment ─────────────────────────────────────────────────────────────────

type stubEquipment struct {
	byID    map[uuid.UUID]*model.Equipment
	users   *stubUsers
	clients *stubClients
}

func (r *stubEquipment) hydrate(e model.Equipment) *model.Equipment {
	if u, ok := r.users.byID[e.UserID]; ok {
		cp := *u
		e.Technician = &cp
	}
	if c, ok := r.clients.byID[e.ClientID]; ok {
		cp := *c
		e.Client = &cp
	}
	return &e
}

func (r *stubEquipment) Create(_ context.Context, e *model.Equipment) error {
	if e.ID == uuid.Nil {
		e.ID = uuid.New()
	}
	cp := *e
	cp.Technician, cp.Client = nil, nil
	r.byID[e.ID] = &cp
	return nil
}

func (r *stubEquipment) FindByID(_ context.Context, id uuid.UUID) (*model.Equipment, error) {
	e, ok := r.byID[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return r.hydrate(*e), nil
}

func (r *stubEquipment) FindByCode(_ context.Context, code string) (*model.Equipment, error) {
	for _, e := range r.byID {
		if e.Code == code {
			return r.hydrate(*e), nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *stubEquipment) List(_ context.Context, f repository.EquipmentFilter) ([]model.Equipment, error) {
	var out []model.Equipment
	for _, e := range r.byID {
		if e.IsArchived != f.Archived {
			continue
		}
		if f.TechnicianID != nil && e.UserID != *f.TechnicianID {
			continue
		}
		if f.ClientID != nil && e.ClientID != *f.ClientID {
			continue
		}
		out = append(out, *r.hydrate(*e))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].NextMaintenanceDate.Before(out[j].NextMaintenanceDate) })
	return out, nil
}

func (r *stubEquipment) Update(ctx context.Context, e *model.Equipment) error {
	return r.Create(ctx, e)
}

func (r *stubEquipment) SetLastMaintenanceTx(_ *gorm.DB, id uuid.UUID, date time.Time) error {
	e, ok := r.byID[id]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	d := date
	e.LastMaintenanceDate = &d
	return nil
}

// ── stock ─────────────────────────────────────────────────────────────────────

type stubStock struct {
	byID map[uuid.UUID]*model.StockItem
}

func (r *stubStock) DB() *gorm.DB { return nil }

func (r *stubStock) Create(_ context.Context, s *model.StockItem) error {
	if s.ID == uuid.Nil {
		s.ID = uuid.New()
	}
	cp := *s
	r.byID[s.ID] = &cp
	return nil
}

func (r *stubStock) FindByID(_ context.Context, id uuid.UUID) (*model.StockItem, error) {
	return r.FindByIDTx(nil, id)
}

func (r *stubStock) FindByName(_ context.Context, name string) (*model.StockItem, error) {
	for _, s := range r.byID {
		if strings.EqualFold(s.Name, name) {
			cp := *s
			return &cp, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *stubStock) FindBySKU(_ context.Context, sku string) (*model.StockItem, error) {
	for _, s := range r.byID {
		if s.SKU != nil && *s.SKU == sku {
			cp := *s
			return &cp, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *stubStock) FindByIDs(_ context.Context, ids []uuid.UUID) ([]model.StockItem, error) {
	var out []model.StockItem
	for _, id := range ids {
		if s, ok := r.byID[id]; ok {
			out = append(out, *s)
		}
	}
	return out, nil
}

func (r *stubStock) List(_ context.Context, f repository.StockItemFilter) ([]model.StockItem, error) {
	var out []model.StockItem
	for _, s := range r.byID {
		if f.Category != "" && s.Category != f.Category {
			continue
		}
		if f.LowOnly && s.Quantity > s.LowStockThreshold {
			continue
		}
		out = append(out, *s)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (r *stubStock) Update(_ context.Context, s *model.StockItem) error {
	cur, ok := r.byID[s.ID]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	cp := *s
	cp.Quantity = cur.Quantity
	r.byID[s.ID] = &cp
	return nil
}

func (r *stubStock) Delete(_ context.Context, id uuid.UUID) error {
	if _, ok := r.byID[id]; !ok {
		return gorm.ErrRecordNotFound
	}
	delete(r.byID, id)
	return nil
}

func (r *stubStock) FindByIDTx(_ *gorm.DB, id uuid.UUID) (*model.StockItem, error) {
	s, ok := r.byID[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	cp := *s
	return &cp, nil
}

func (r *stubStock) DeductTx(_ *gorm.DB, id uuid.UUID, qty int) (int, bool, error) {
	if qty <= 0 {
		return 0, false, fmt.Errorf("deduct %s: non-positive quantity %d", id, qty)
	}
	s, ok := r.byID[id]
	if !ok || s.Quantity < qty {
		return 0, false, nil
	}
	s.Quantity -= qty
	return s.Quantity, true, nil
}

func (r *stubStock) CreditTx(_ *gorm.DB, id uuid.UUID, qty int) (int, error) {
	s, ok := r.byID[id]
	if !ok {
		return 0, gorm.ErrRecordNotFound
	}
	s.Quantity += qty
	return s.Quantity, nil
}

func (r *stubStock) qty(id uuid.UUID) int { return r.byID[id].Quantity }

// ── movements ─────────────────────────────────────────────────────────────────

type stubMovements struct{ list []model.StockMovement }

func (r *stubMovements) CreateTx(_ *gorm.DB, m *model.StockMovement) error {
	m.ID = uuid.New()
	m.CreatedAt = time.Now()
	r.list = append(r.list, *m)
	return nil
}

func (r *stubMovements) List(_ context.Context, f repository.StockMovementFilter) ([]model.StockMovement, int64, error) {
	var out []model.StockMovement
	for _, m := range r.list {
		if f.StockItemID != nil && m.StockItemID != *f.StockItemID {
			continue
		}
		if f.Kind != "" && m.Kind != f.Kind {
			continue
		}
		out = append(out, m)
	}
	return out, int64(len(out)), nil
}

// ── maintenance ───────────────────────────────────────────────────────────────

type stubMaintenance struct {
	recs   map[uuid.UUID]*model.MaintenanceHistory
	parts  map[uuid.UUID][]model.MaintenancePartUsed
	images map[uuid.UUID][]model.MaintenanceImage
	equip  *stubEquipment
	users  *stubUsers
	stock  *stubStock
}

func (r *stubMaintenance) DB() *gorm.DB { return nil }

func (r *stubMaintenance) assemble(rec model.MaintenanceHistory) *model.MaintenanceHistory {
	if e, ok := r.equip.byID[rec.EquipmentID]; ok {
		rec.Equipment = r.equip.hydrate(*e)
	}
	if u, ok := r.users.byID[rec.TechnicianID]; ok {
		cp := *u
		rec.Technician = &cp
	}
	rec.PartsUsed, _ = r.LoadPartsTx(nil, rec.ID)
	rec.Images = append([]model.MaintenanceImage(nil), r.images[rec.ID]...)
	return &rec
}

func (r *stubMaintenance) FindByID(_ context.Context, id uuid.UUID) (*model.MaintenanceHistory, error) {
	rec, ok := r.recs[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return r.assemble(*rec), nil
}

func (r *stubMaintenance) ListByEquipment(_ context.Context, equipmentID uuid.UUID) ([]model.MaintenanceHistory, error) {
	var out []model.MaintenanceHistory
	for _, rec := range r.recs {
		if rec.EquipmentID == equipmentID {
			out = append(out, *r.assemble(*rec))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].MaintenanceDate.After(out[j].MaintenanceDate) })
	return out, nil
}

func (r *stubMaintenance) CreateTx(_ *gorm.DB, rec *model.MaintenanceHistory) error {
	if rec.ID == uuid.Nil {
		rec.ID = uuid.New()
	}
	rec.CreatedAt = time.Now()
	cp := *rec
	cp.Equipment, cp.Technician, cp.PartsUsed, cp.Images = nil, nil, nil, nil
	r.recs[rec.ID] = &cp
	return nil
}

func (r *stubMaintenance) UpdateTx(_ *gorm.DB, rec *model.MaintenanceHistory) error {
	cur, ok := r.recs[rec.ID]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	cur.MaintenanceDate = rec.MaintenanceDate
	cur.Category = rec.Category
	cur.Description = rec.Description
	cur.LaborCost = rec.LaborCost
	cur.Cost = rec.Cost
	return nil
}

func (r *stubMaintenance) CreatePartsTx(_ *gorm.DB, parts []model.MaintenancePartUsed) error {
	for _, p := range parts {
		p.ID = uuid.New()
		r.parts[p.MaintenanceHistoryID] = append(r.parts[p.MaintenanceHistoryID], p)
	}
	return nil
}

func (r *stubMaintenance) CreateImagesTx(_ *gorm.DB, images []model.MaintenanceImage) error {
	for _, img := range images {
		img.ID = uuid.New()
		r.images[img.MaintenanceHistoryID] = append(r.images[img.MaintenanceHistoryID], img)
	}
	return nil
}

func (r *stubMaintenance) DeleteImagesTx(_ *gorm.DB, recordID uuid.UUID, ids []uuid.UUID) error {
	drop := make(map[uuid.UUID]bool, len(ids))
	for _, id := range ids {
		drop[id] = true
	}
	var kept []model.MaintenanceImage
	for _, img := range r.images[recordID] {
		if !drop[img.ID] {
			kept = append(kept, img)
		}
	}
	r.images[recordID] = kept
	return nil
}

func (r *stubMaintenance) LoadPartsTx(_ *gorm.DB, recordID uuid.UUID) ([]model.MaintenancePartUsed, error) {
	var out []model.MaintenancePartUsed
	for _, p := range r.parts[recordID] {
		if s, ok := r.stock.byID[p.StockItemID]; ok {
			cp := *s
			p.Item = &cp
		}
		out = append(out, p)
	}
	return out, nil
}

func (r *stubMaintenance) DeletePartsTx(_ *gorm.DB, recordID uuid.UUID) error {
	delete(r.parts, recordID)
	return nil
}

func (r *stubMaintenance) LoadImagesTx(_ *gorm.DB, recordID uuid.UUID) ([]model.MaintenanceImage, error) {
	return append([]model.MaintenanceImage(nil), r.images[recordID]...), nil
}

func (r *stubMaintenance) DeleteRecordWithPartsTx(_ *gorm.DB, recordID uuid.UUID) error {
	if _, ok := r.recs[recordID]; !ok {
		return gorm.ErrRecordNotFound
	}
	delete(r.images, recordID)
	delete(r.parts, recordID)
	delete(r.recs, recordID)
	return nil
}

func (r *stubMaintenance) FindImageByID(_ context.Context, id uuid.UUID) (*model.MaintenanceImage, error) {
	for _, imgs := range r.images {
		for _, img := range imgs {
			if img.ID == id {
				cp := img
				return &cp, nil
			}
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *stubMaintenance) DeleteImage(_ context.Context, id uuid.UUID) error {
	for recID := range r.images {
		_ = r.DeleteImagesTx(nil, recID, []uuid.UUID{id})
	}
	return nil
}

func (r *stubMaintenance) CountPartsByItem(_ context.Context, itemID uuid.UUID) (int64, error) {
	var n int64
	for _, parts := range r.parts {
		for _, p := range parts {
			if p.StockItemID == itemID {
				n++
			}
		}
	}
	return n, nil
}

func (r *stubMaintenance) Stats(_ context.Context, from, to time.Time) (repository.MaintenanceStats, error) {
	st := repository.MaintenanceStats{Revenue: decimal.Zero}
	for _, rec := range r.recs {
		if rec.MaintenanceDate.Before(from) || !rec.MaintenanceDate.Before(to) {
			continue
		}
		st.Count++
		st.Revenue = st.Revenue.Add(rec.Cost)
		switch rec.Category {
		case model.CategoryPreventive:
			st.Preventive++
		case model.CategoryCorrective:
			st.Corrective++
		}
	}
	return st, nil
}

func (r *stubMaintenance) ListFinancial(_ context.Context, f repository.FinancialFilter) ([]model.MaintenanceHistory, error) {
	var out []model.MaintenanceHistory
	for _, rec := range r.recs {
		full := r.assemble(*rec)
		if f.EquipmentID != nil && rec.EquipmentID != *f.EquipmentID {
			continue
		}
		if f.ClientID != nil && (full.Equipment == nil || full.Equipment.ClientID != *f.ClientID) {
			continue
		}
		if f.Start != nil && rec.MaintenanceDate.Before(*f.Start) {
			continue
		}
		if f.End != nil && rec.MaintenanceDate.After(*f.End) {
			continue
		}
		out = append(out, *full)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].MaintenanceDate.After(out[j].MaintenanceDate) })
	return out, nil
}

func (r *stubMaintenance) ListPartUsage(_ context.Context, f repository.UsageFilter) ([]repository.PartUsageRow, error) {
	var out []repository.PartUsageRow
	for recID, parts := range r.parts {
		rec := r.assemble(*r.recs[recID])
		for _, p := range parts {
			item := r.stock.byID[p.StockItemID]
			if f.StockItemID != nil && p.StockItemID != *f.StockItemID {
				continue
			}
			if f.Category != "" && item.Category != f.Category {
				continue
			}
			row := repository.PartUsageRow{
				MaintenanceID:   recID,
				MaintenanceDate: rec.MaintenanceDate,
				ItemName:        item.Name,
				ItemCategory:    item.Category,
				QuantityUsed:    p.QuantityUsed,
			}
			if rec.Equipment != nil {
				row.EquipmentCode = rec.Equipment.Code
				if rec.Equipment.Client != nil {
					row.ClientName = rec.Equipment.Client.Name
				}
			}
			out = append(out, row)
		}
	}
	return out, nil
}

// ── settings / notifications ─────────────────────────────────────────────────

type stubSettings struct {
	values map[string]string
	err    error
}

func (r *stubSettings) Get(_ context.Context, key string) (string, bool, error) {
	if r.err != nil {
		return "", false, r.err
	}
	v, ok := r.values[key]
	return v, ok, nil
}

func (r *stubSettings) Set(_ context.Context, key, value string) error {
	r.values[key] = value
	return nil
}

type stubNotifications struct{ list []model.Notification }

func (r *stubNotifications) CreateTx(_ *gorm.DB, list []model.Notification) error {
	for _, n := range list {
		n.ID = uuid.New()
		n.CreatedAt = time.Now()
		r.list = append(r.list, n)
	}
	return nil
}

func (r *stubNotifications) Create(_ context.Context, list []model.Notification) error {
	return r.CreateTx(nil, list)
}

func (r *stubNotifications) ListForUser(_ context.Context, userID uuid.UUID, _ int) ([]model.Notification, error) {
	var out []model.Notification
	for _, n := range r.list {
		if n.UserID == userID {
			out = append(out, n)
		}
	}
	return out, nil
}

func (r *stubNotifications) CountUnread(_ context.Context, userID uuid.UUID) (int64, error) {
	var c int64
	for _, n := range r.list {
		if n.UserID == userID && !n.IsRead {
			c++
		}
	}
	return c, nil
}

func (r *stubNotifications) MarkRead(_ context.Context, id, userID uuid.UUID) (bool, error) {
	for i := range r.list {
		if r.list[i].ID == id && r.list[i].UserID == userID {
			r.list[i].IsRead = true
			return true, nil
		}
	}
	return false, nil
}

func (r *stubNotifications) recipients() []uuid.UUID {
	out := make([]uuid.UUID, 0, len(r.list))
	for _, n := range r.list {
		out = append(out, n.UserID)
	}
	return out
}

// ── photos / mail ─────────────────────────────────────────────────────────────

type stubPhotos struct {
	files      map[string]string
	removed    []string
	failRemove bool
}

func (p *stubPhotos) Save(ext string, r io.Reader) (string, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return "", err
	}
	name := uuid.NewString() + "." + ext
	p.files[name] = string(data)
	return name, nil
}

func (p *stubPhotos) Remove(name string) error {
	p.removed = append(p.removed, name)
	if p.failRemove {
		return errors.New("disk unavailable")
	}
	delete(p.files, name)
	return nil
}

type stubMail struct{ jobs []worker.EmailJobPayload }

func (m *stubMail) EnqueueEmail(_ context.Context, payload interface{}) error {
	if p, ok := payload.(worker.EmailJobPayload); ok {
		m.jobs = append(m.jobs, p)
	}
	return nil
}

// ── tasks ─────────────────────────────────────────────────────────────────────

type stubTasks struct {
	byID        map[uuid.UUID]*model.Task
	assignments map[uuid.UUID]*model.TaskAssignment
	users       *stubUsers
	created     time.Time
}

func (r *stubTasks) DB() *gorm.DB { return nil }

func (r *stubTasks) CreateTx(_ *gorm.DB, t *model.Task) error {
	if t.CreatedAt.IsZero() {
		// strictly increasing creation times
		r.created = r.created.Add(time.Minute)
		t.CreatedAt = r.created
	}
	cp := *t
	cp.Assignments = nil
	r.byID[t.ID] = &cp
	return nil
}

func (r *stubTasks) UpdateTx(_ *gorm.DB, t *model.Task) error {
	cur, ok := r.byID[t.ID]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	cur.Title, cur.Description = t.Title, t.Description
	return nil
}

func (r *stubTasks) DeleteTx(_ *gorm.DB, id uuid.UUID) error {
	if _, ok := r.byID[id]; !ok {
		return gorm.ErrRecordNotFound
	}
	delete(r.byID, id)
	for aid, a := range r.assignments {
		if a.TaskID == id {
			delete(r.assignments, aid)
		}
	}
	return nil
}

func (r *stubTasks) AddAssignmentsTx(_ *gorm.DB, list []model.TaskAssignment) error {
	for _, a := range list {
		for _, cur := range r.assignments {
			if cur.TaskID == a.TaskID && cur.UserID == a.UserID {
				return errors.New("duplicate key value violates unique constraint")
			}
		}
		cp := a
		r.assignments[a.ID] = &cp
	}
	return nil
}

func (r *stubTasks) RemoveAssignmentsTx(_ *gorm.DB, taskID uuid.UUID, userIDs []uuid.UUID) error {
	for aid, a := range r.assignments {
		for _, u := range userIDs {
			if a.TaskID == taskID && a.UserID == u {
				delete(r.assignments, aid)
			}
		}
	}
	return nil
}

func (r *stubTasks) assemble(t model.Task) *model.Task {
	if u, ok := r.users.byID[t.CreatorID]; ok {
		cp := *u
		t.Creator = &cp
	}
	t.Assignments = nil
	for _, a := range r.assignments {
		if a.TaskID != t.ID {
			continue
		}
		cp := *a
		if u, ok := r.users.byID[a.UserID]; ok {
			uc := *u
			cp.User = &uc
		}
		t.Assignments = append(t.Assignments, cp)
	}
	sort.Slice(t.Assignments, func(i, j int) bool {
		return t.Assignments[i].UserID.String() < t.Assignments[j].UserID.String()
	})
	return &t
}

func (r *stubTasks) FindByID(_ context.Context, id uuid.UUID) (*model.Task, error) {
	t, ok := r.byID[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return r.assemble(*t), nil
}

func (r *stubTasks) List(context.Context) ([]model.Task, error) {
	var out []model.Task
	for _, t := range r.byID {
		out = append(out, *r.assemble(*t))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (r *stubTasks) FindAssignment(_ context.Context, id uuid.UUID) (*model.TaskAssignment, error) {
	a, ok := r.assignments[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	cp := *a
	if t, ok := r.byID[a.TaskID]; ok {
		tc := *t
		cp.Task = &tc
	}
	return &cp, nil
}

func (r *stubTasks) ListAssignmentsForUser(ctx context.Context, userID uuid.UUID) ([]model.TaskAssignment, error) {
	var out []model.TaskAssignment
	for id, a := range r.assignments {
		if a.UserID != userID {
			continue
		}
		full, _ := r.FindAssignment(ctx, id)
		out = append(out, *full)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Task.CreatedAt.After(out[j].Task.CreatedAt) })
	return out, nil
}

func (r *stubTasks) UpdateAssignment(_ context.Context, a *model.TaskAssignment) error {
	cur, ok := r.assignments[a.ID]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	cur.Status, cur.Observation = a.Status, a.Observation
	return nil
}

func (r *stubTasks) assignmentOf(taskID, userID uuid.UUID) *model.TaskAssignment {
	for _, a := range r.assignments {
		if a.TaskID == taskID && a.UserID == userID {
			return a
		}
	}
	return nil
}

// ── expenses ──────────────────────────────────────────────────────────────────

type stubExpenses struct {
	byID  map[uuid.UUID]*model.Expense
	users *stubUsers
}

func (r *stubExpenses) Create(_ context.Context, e *model.Expense) error {
	if e.ID == uuid.Nil {
		e.ID = uuid.New()
	}
	cp := *e
	r.byID[e.ID] = &cp
	return nil
}

func (r *stubExpenses) FindByID(_ context.Context, id uuid.UUID) (*model.Expense, error) {
	e, ok := r.byID[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	cp := *e
	return &cp, nil
}

func (r *stubExpenses) Delete(_ context.Context, id uuid.UUID) error {
	if _, ok := r.byID[id]; !ok {
		return gorm.ErrRecordNotFound
	}
	delete(r.byID, id)
	return nil
}

func (r *stubExpenses) List(_ context.Context, f repository.ExpenseFilter) ([]model.Expense, error) {
	var out []model.Expense
	for _, e := range r.byID {
		switch {
		case f.UserID != nil && e.UserID != *f.UserID,
			f.Category != "" && e.Category != f.Category,
			f.Start != nil && e.Date.Before(*f.Start),
			f.End != nil && e.Date.After(*f.End):
			continue
		}
		cp := *e
		if u, ok := r.users.byID[e.UserID]; ok {
			uc := *u
			cp.User = &uc
		}
		out = append(out, cp)
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].Date.Equal(out[j].Date) {
			return out[i].Date.After(out[j].Date)
		}
		return out[i].Value.LessThan(out[j].Value)
	})
	return out, nil
}

func (r *stubExpenses) Sum(ctx context.Context, f repository.ExpenseFilter) (decimal.Decimal, error) {
	list, _ := r.List(ctx, f)
	total := decimal.Zero
	for _, e := range list {
		total = total.Add(e.Value)
	}
	return total, nil
}

// ── time clock ────────────────────────────────────────────────────────────────

type stubClocks struct {
	list  []*model.TimeClock
	users *stubUsers
}

func (r *stubClocks) DB() *gorm.DB { return nil }

func (r *stubClocks) find(userID uuid.UUID, date time.Time) *model.TimeClock {
	for _, tc := range r.list {
		if tc.UserID == userID && tc.Date.Equal(date) {
			return tc
		}
	}
	return nil
}

func (r *stubClocks) FindForUserOn(_ context.Context, userID uuid.UUID, date time.Time) (*model.TimeClock, error) {
	tc := r.find(userID, date)
	if tc == nil {
		return nil, gorm.ErrRecordNotFound
	}
	cp := *tc
	return &cp, nil
}

// LockForUserOnTx stores the blank sheet at once; there is no rollback here.
func (r *stubClocks) LockForUserOnTx(_ *gorm.DB, userID uuid.UUID, date time.Time) (*model.TimeClock, error) {
	tc := r.find(userID, date)
	if tc == nil {
		tc = &model.TimeClock{ID: uuid.New(), UserID: userID, Date: date}
		r.list = append(r.list, tc)
	}
	cp := *tc
	return &cp, nil
}

func (r *stubClocks) SaveTx(_ *gorm.DB, tc *model.TimeClock) error {
	cur := r.find(tc.UserID, tc.Date)
	if cur == nil {
		return gorm.ErrRecordNotFound
	}
	*cur = *tc
	return nil
}

func (r *stubClocks) List(_ context.Context, f repository.TimeClockFilter) ([]model.TimeClock, error) {
	var out []model.TimeClock
	for _, tc := range r.list {
		if tc.Date.Before(f.Start) || tc.Date.After(f.End) || (f.UserID != nil && tc.UserID != *f.UserID) {
			continue
		}
		cp := *tc
		if u, ok := r.users.byID[tc.UserID]; ok {
			uc := *u
			cp.User = &uc
		}
		out = append(out, cp)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Date.After(out[j].Date) })
	return out, nil
}

// ── fixture ───────────────────────────────────────────────────────────────────

type fixture struct {
	users    *stubUsers
	clients  *stubClients
	equip    *stubEquipment
	stock    *stubStock
	moves    *stubMovements
	maint    *stubMaintenance
	settings *stubSettings
	notes    *stubNotifications
	photos   *stubPhotos
	mail     *stubMail
	tasks    *stubTasks
	expenses *stubExpenses
	clocks   *stubClocks

	admin, admin2, tech, tech2 model.User
	client                     model.Client
	equipment                  model.Equipment
}

func newFixture() *fixture {
	f := &fixture{
		users:    &stubUsers{byID: map[uuid.UUID]*model.User{}},
		clients:  &stubClients{byID: map[uuid.UUID]*model.Client{}},
		stock:    &stubStock{byID: map[uuid.UUID]*model.StockItem{}},
		moves:    &stubMovements{},
		settings: &stubSettings{values: map[string]string{}},
		notes:    &stubNotifications{},
		photos:   &stubPhotos{files: map[string]string{}},
		mail:     &stubMail{},
	}
	f.tasks = &stubTasks{
		byID:        map[uuid.UUID]*model.Task{},
		assignments: map[uuid.UUID]*model.TaskAssignment{},
		users:       f.users,
		created:     time.Date(2024, 6, 1, 8, 0, 0, 0, time.UTC),
	}
	f.expenses = &stubExpenses{byID: map[uuid.UUID]*model.Expense{}, users: f.users}
	f.clocks = &stubClocks{users: f.users}
	f.equip = &stubEquipment{byID: map[uuid.UUID]*model.Equipment{}, users: f.users, clients: f.clients}
	f.maint = &stubMaintenance{
		recs:   map[uuid.UUID]*model.MaintenanceHistory{},
		parts:  map[uuid.UUID][]model.MaintenancePartUsed{},
		images: map[uuid.UUID][]model.MaintenanceImage{},
		equip:  f.equip,
		users:  f.users,
		stock:  f.stock,
	}

	f.admin = f.addUser("alice", "Alice Admin", model.RoleAdmin)
	f.admin2 = f.addUser("bruno", "Bruno Admin", model.RoleAdmin)
	f.tech = f.addUser("carla", "Carla Tech", model.RoleTechnician)
	f.tech2 = f.addUser("diego", "Diego Tech", model.RoleTechnician)

	f.client = model.Client{ID: uuid.New(), Name: "ACME"}
	_ = f.clients.Create(context.Background(), &f.client)

	f.equipment = model.Equipment{
		ID:                  uuid.New(),
		Code:                "EQ-01",
		Model:               "Chiller 3000",
		Location:            "Roof",
		NextMaintenanceDate: time.Date(2024, 6, 16, 0, 0, 0, 0, time.UTC),
		UserID:              f.tech.ID,
		ClientID:            f.client.ID,
	}
	_ = f.equip.Create(context.Background(), &f.equipment)
	return f
}

func (f *fixture) addUser(username, name string, role model.Role) model.User {
	email := username + "@example.com"
	u := model.User{ID: uuid.New(), Username: username, Name: name, Email: &email, Role: role, Active: true}
	_ = f.users.Create(context.Background(), &u)
	return u
}

func (f *fixture) addItem(name string, qty int, unitCost string) model.StockItem {
	item := model.StockItem{ID: uuid.New(), Name: name, Category: "Spare Parts", Quantity: qty, LowStockThreshold: 2, RequiresTracking: true}
	if unitCost != "" {
		d := decimal.RequireFromString(unitCost)
		item.UnitCost = &d
	}
	_ = f.stock.Create(context.Background(), &item)
	return item
}

func actorOf(u model.User) model.Actor { return model.Actor{ID: u.ID, Role: u.Role} }

func (f *fixture) notifier() NotificationService {
	return NewNotificationService(f.notes, f.users, f.mail, "https://maintrack.example.com")
}

func (f *fixture) settingService(now time.Time) SettingService {
	s := NewSettingService(f.settings, time.UTC).(*settingService)
	s.now = func() time.Time { return now }
	return s
}

func (f *fixture) maintenanceService() MaintenanceService {
	return NewMaintenanceService(f.maint, f.equip, f.stock, f.moves, f.notifier(), f.photos)
}

func (f *fixture) stockService() StockService {
	return NewStockService(f.stock, f.moves, f.maint)
}

func (f *fixture) equipmentService(now time.Time) EquipmentService {
	return NewEquipmentService(f.equip, f.users, f.clients, f.maint, f.stock, f.settingService(now), f.notifier())
}

func (f *fixture) taskService() TaskService {
	return NewTaskService(f.tasks, f.users, f.notifier())
}

func (f *fixture) expenseService(now time.Time) ExpenseService {
	s := NewExpenseService(f.expenses, time.UTC).(*expenseService)
	s.now = func() time.Time { return now }
	return s
}

func (f *fixture) timeClockService(now *time.Time, loc *time.Location) TimeClockService {
	s := NewTimeClockService(f.clocks, loc).(*timeClockService)
	s.now = func() time.Time { return *now }
	return s
}

func (f *fixture) reportService(now time.Time) ReportService {
	s := NewReportService(f.maint, f.expenses, f.clocks, time.UTC).(*reportService)
	s.now = func() time.Time { return now }
	return s
}
