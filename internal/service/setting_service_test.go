package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"maintrack/internal/dto"
	"maintrack/internal/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var june1 = time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)

func TestWarningDaysFallsBackToDefault(t *testing.T) {
	f := newFixture()
	svc := f.settingService(june1)

	assert.Equal(t, model.DefaultWarningDays, svc.WarningDays(context.Background()))

	f.settings.values[model.SettingWarningDays] = "abc"
	assert.Equal(t, model.DefaultWarningDays, svc.WarningDays(context.Background()))

	f.settings.values[model.SettingWarningDays] = "-3"
	assert.Equal(t, model.DefaultWarningDays, svc.WarningDays(context.Background()))

	f.settings.values[model.SettingWarningDays] = " 30 "
	assert.Equal(t, 30, svc.WarningDays(context.Background()))

	f.settings.err = errors.New("connection refused")
	assert.Equal(t, model.DefaultWarningDays, svc.WarningDays(context.Background()))
}

func TestSetWarningDays(t *testing.T) {
	f := newFixture()
	svc := f.settingService(june1)

	assert.ErrorIs(t, svc.SetWarningDays(context.Background(), actorOf(f.tech), 10), ErrForbidden)

	var verr *ValidationError
	assert.True(t, errors.As(svc.SetWarningDays(context.Background(), actorOf(f.admin), -1), &verr))

	require.NoError(t, svc.SetWarningDays(context.Background(), actorOf(f.admin), 0))
	assert.Equal(t, 0, svc.WarningDays(context.Background()))
}

func TestSnapshotFixesTodayAndWindow(t *testing.T) {
	f := newFixture()
	f.settings.values[model.SettingWarningDays] = "7"
	svc := f.settingService(june1)

	snap := svc.Snapshot(context.Background())
	assert.Equal(t, 7, snap.WarningDays)
	assert.Equal(t, "2024-06-01", formatDate(snap.Today))
	assert.Equal(t, model.StatusUpcoming, snap.Status(time.Date(2024, 6, 8, 0, 0, 0, 0, time.UTC)))
	assert.Equal(t, model.StatusOK, snap.Status(time.Date(2024, 6, 9, 0, 0, 0, 0, time.UTC)))
}

func TestSnapshotUsesConfiguredZone(t *testing.T) {
	f := newFixture()
	loc := time.FixedZone("UTC-3", -3*3600)
	s := NewSettingService(f.settings, loc).(*settingService)
	s.now = func() time.Time { return time.Date(2024, 6, 1, 2, 0, 0, 0, time.UTC) }

	assert.Equal(t, "2024-05-31", formatDate(s.Snapshot(context.Background()).Today))
}

func TestSettingsUpdate(t *testing.T) {
	f := newFixture()
	svc := f.settingService(june1)

	got := svc.Get(context.Background())
	assert.Equal(t, model.DefaultWhatsAppTemplate, got.WhatsAppTemplate)

	days, tpl := 20, "Hi {client_name}"
	resp, err := svc.Update(context.Background(), actorOf(f.admin), dto.UpdateSettingsRequest{WarningDays: &days, WhatsAppTemplate: &tpl})
	require.NoError(t, err)
	assert.Equal(t, 20, resp.WarningDays)
	assert.Equal(t, tpl, resp.WhatsAppTemplate)

	blank := "  "
	_, err = svc.Update(context.Background(), actorOf(f.admin), dto.UpdateSettingsRequest{WhatsAppTemplate: &blank})
	var verr *ValidationError
	assert.True(t, errors.As(err, &verr))

	_, err = svc.Update(context.Background(), actorOf(f.tech), dto.UpdateSettingsRequest{WarningDays: &days})
	assert.ErrorIs(t, err, ErrForbidden)
}
