package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"maintrack/internal/dto"
	"maintrack/internal/model"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func (f *fixture) addEquipment(code string, next time.Time, tech model.User) model.Equipment {
	eq := model.Equipment{
		ID:                  uuid.New(),
		Code:                code,
		Model:               "Split 12k",
		Location:            "Office",
		NextMaintenanceDate: next,
		UserID:              tech.ID,
		ClientID:            f.client.ID,
	}
	_ = f.equip.Create(context.Background(), &eq)
	return eq
}

func date(y int, m time.Month, d int) time.Time { return time.Date(y, m, d, 0, 0, 0, 0, time.UTC) }

func equipmentRequest(f *fixture, code string) dto.EquipmentRequest {
	return dto.EquipmentRequest{
		Code:                code,
		Model:               "Split 18k",
		Location:            "Lobby",
		NextMaintenanceDate: "2024-09-01",
		TechnicianID:        f.tech.ID.String(),
		ClientID:            f.client.ID.String(),
	}
}

func TestEquipmentListClassifiesAgainstOneSnapshot(t *testing.T) {
	f := newFixture()
	f.addEquipment("EQ-02", date(2024, 5, 30), f.tech)
	f.addEquipment("EQ-03", date(2024, 7, 30), f.tech2)
	svc := f.equipmentService(june1)

	resp, err := svc.List(context.Background(), actorOf(f.admin), dto.EquipmentListQuery{})
	require.NoError(t, err)
	assert.Equal(t, "2024-06-01", resp.Today)
	assert.Equal(t, model.DefaultWarningDays, resp.WarningDays)

	got := map[string]string{}
	for _, it := range resp.Items {
		got[it.Code] = it.Status
	}
	assert.Equal(t, map[string]string{"EQ-01": "Upcoming", "EQ-02": "Overdue", "EQ-03": "OK"}, got)
	assert.Equal(t, "EQ-02", resp.Items[0].Code)

	resp, err = svc.List(context.Background(), actorOf(f.admin), dto.EquipmentListQuery{Status: "Overdue"})
	require.NoError(t, err)
	require.Len(t, resp.Items, 1)
	assert.Equal(t, "EQ-02", resp.Items[0].Code)
}

func TestEquipmentListScopedToTechnician(t *testing.T) {
	f := newFixture()
	f.addEquipment("EQ-03", date(2024, 7, 30), f.tech2)
	svc := f.equipmentService(june1)

	resp, err := svc.List(context.Background(), actorOf(f.tech2), dto.EquipmentListQuery{})
	require.NoError(t, err)
	require.Len(t, resp.Items, 1)
	assert.Equal(t, "EQ-03", resp.Items[0].Code)
	assert.Equal(t, "Diego Tech", resp.Items[0].TechnicianName)
	assert.Equal(t, "ACME", resp.Items[0].ClientName)
}

func TestEquipmentGet(t *testing.T) {
	f := newFixture()
	createRecord(t, f, f.maintenanceService(), baseInput())
	svc := f.equipmentService(june1)

	resp, err := svc.Get(context.Background(), actorOf(f.tech), f.equipment.ID)
	require.NoError(t, err)
	assert.Len(t, resp.History, 1)
	assert.Equal(t, "2024-06-01", *resp.LastMaintenanceDate)

	_, err = svc.Get(context.Background(), actorOf(f.tech2), f.equipment.ID)
	assert.ErrorIs(t, err, ErrForbidden)

	_, err = svc.Get(context.Background(), actorOf(f.admin), uuid.New())
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestEquipmentCreate(t *testing.T) {
	f := newFixture()
	svc := f.equipmentService(june1)

	resp, err := svc.Create(context.Background(), actorOf(f.admin), equipmentRequest(f, " EQ-10 "))
	require.NoError(t, err)
	assert.Equal(t, "EQ-10", resp.Code)
	assert.Equal(t, "OK", resp.Status)
	assert.ElementsMatch(t, []uuid.UUID{f.admin2.ID, f.tech.ID}, f.notes.recipients())
	assert.Len(t, f.mail.jobs, 2)

	_, err = svc.Create(context.Background(), actorOf(f.admin), equipmentRequest(f, "EQ-01"))
	assert.ErrorIs(t, err, ErrDuplicate)

	_, err = svc.Create(context.Background(), actorOf(f.tech), equipmentRequest(f, "EQ-11"))
	assert.ErrorIs(t, err, ErrForbidden)
}

func TestEquipmentCreateValidatesReferences(t *testing.T) {
	f := newFixture()
	svc := f.equipmentService(june1)
	var verr *ValidationError

	req := equipmentRequest(f, "EQ-20")
	req.TechnicianID = uuid.NewString()
	_, err := svc.Create(context.Background(), actorOf(f.admin), req)
	require.True(t, errors.As(err, &verr))
	assert.Equal(t, "technician_id", verr.Field)

	req = equipmentRequest(f, "EQ-20")
	req.ClientID = uuid.NewString()
	_, err = svc.Create(context.Background(), actorOf(f.admin), req)
	require.True(t, errors.As(err, &verr))
	assert.Equal(t, "client_id", verr.Field)

	req = equipmentRequest(f, "EQ-20")
	req.NextMaintenanceDate = "soon"
	_, err = svc.Create(context.Background(), actorOf(f.admin), req)
	require.True(t, errors.As(err, &verr))
	assert.Equal(t, "next_maintenance_date", verr.Field)

	f.users.byID[f.tech2.ID].Active = false
	req = equipmentRequest(f, "EQ-20")
	req.TechnicianID = f.tech2.ID.String()
	_, err = svc.Create(context.Background(), actorOf(f.admin), req)
	assert.True(t, errors.As(err, &verr))
}

func TestEquipmentUpdateAndArchive(t *testing.T) {
	f := newFixture()
	svc := f.equipmentService(june1)

	req := equipmentRequest(f, "EQ-01")
	req.TechnicianID = f.tech2.ID.String()
	resp, err := svc.Update(context.Background(), actorOf(f.admin), f.equipment.ID, req)
	require.NoError(t, err)
	assert.Equal(t, f.tech2.ID.String(), resp.TechnicianID)

	resp, err = svc.ToggleArchive(context.Background(), actorOf(f.admin), f.equipment.ID)
	require.NoError(t, err)
	assert.True(t, resp.IsArchived)

	list, err := svc.List(context.Background(), actorOf(f.admin), dto.EquipmentListQuery{})
	require.NoError(t, err)
	assert.Empty(t, list.Items)

	_, err = svc.ToggleArchive(context.Background(), actorOf(f.tech), f.equipment.ID)
	assert.ErrorIs(t, err, ErrForbidden)
}

func TestDashboard(t *testing.T) {
	f := newFixture()
	f.addEquipment("EQ-02", date(2024, 5, 30), f.tech2)
	f.addItem("Belt", 1, "1")
	x := f.addItem("Fuse", 50, "10")
	createRecord(t, f, f.maintenanceService(), baseInput(part(x, 1)))
	svc := f.equipmentService(june1)

	admin, err := svc.Dashboard(context.Background(), actorOf(f.admin))
	require.NoError(t, err)
	assert.Equal(t, 2, admin.Total)
	assert.Equal(t, 1, admin.Upcoming)
	assert.Equal(t, 1, admin.Overdue)
	assert.EqualValues(t, 1, admin.MonthMaintenance)
	assert.EqualValues(t, 1, admin.MonthPreventive)
	assert.Equal(t, "110.50", admin.MonthRevenue.StringFixed(2))
	assert.Equal(t, 1, admin.LowStockItems)

	tech, err := svc.Dashboard(context.Background(), actorOf(f.tech))
	require.NoError(t, err)
	assert.Equal(t, 1, tech.Total)
	assert.Equal(t, 1, tech.Upcoming)
	assert.Zero(t, tech.MonthMaintenance)
	assert.Zero(t, tech.LowStockItems)
}
