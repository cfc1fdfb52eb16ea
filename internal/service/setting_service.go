package service

import (
	"context"
	"strconv"
	"strings"
	"time"

	"maintrack/internal/dto"
	"maintrack/internal/model"
	"maintrack/internal/repository"

	"github.com/rs/zerolog/log"
)

type SettingService interface {
	WarningDays(ctx context.Context) int
	SetWarningDays(ctx context.Context, actor model.Actor, days int) error
	WhatsAppTemplate(ctx context.Context) string
	SetWhatsAppTemplate(ctx context.Context, actor model.Actor, tpl string) error

	// Snapshot reads the warning window once and fixes today's date, so a
	// whole equipment listing is classified against the same values.
	Snapshot(ctx context.Context) model.StatusClassifier

	Get(ctx context.Context) dto.SettingsResponse
	Update(ctx context.Context, actor model.Actor, req dto.UpdateSettingsRequest) (*dto.SettingsResponse, error)
}

type settingService struct {
	repo repository.SettingRepository
	loc  *time.Location
	now  func() time.Time
}

func NewSettingService(repo repository.SettingRepository, loc *time.Location) SettingService {
	if loc == nil {
		loc = time.UTC
	}
	return &settingService{repo: repo, loc: loc, now: time.Now}
}

func (s *settingService) WarningDays(ctx context.Context) int {
	raw, ok, err := s.repo.Get(ctx, model.SettingWarningDays)
	if err != nil {
		log.Error().Err(err).Msg("settings: read warning days")
		return model.DefaultWarningDays
	}
	if !ok {
		return model.DefaultWarningDays
	}
	days, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil || days < 0 {
		log.Warn().Str("value", raw).Msg("settings: invalid maintenance_warning_days, using default")
		return model.DefaultWarningDays
	}
	return days
}

func (s *settingService) SetWarningDays(ctx context.Context, actor model.Actor, days int) error {
	if !actor.IsAdmin() {
		return ErrForbidden
	}
	if days < 0 {
		return invalid("maintenance_warning_days", "must not be negative")
	}
	return s.repo.Set(ctx, model.SettingWarningDays, strconv.Itoa(days))
}

func (s *settingService) WhatsAppTemplate(ctx context.Context) string {
	raw, ok, err := s.repo.Get(ctx, model.SettingWhatsAppTemplate)
	if err != nil {
		log.Error().Err(err).Msg("settings: read whatsapp template")
		return model.DefaultWhatsAppTemplate
	}
	if !ok || strings.TrimSpace(raw) == "" {
		return model.DefaultWhatsAppTemplate
	}
	return raw
}

func (s *settingService) SetWhatsAppTemplate(ctx context.Context, actor model.Actor, tpl string) error {
	if !actor.IsAdmin() {
		return ErrForbidden
	}
	if strings.TrimSpace(tpl) == "" {
		return invalid("whatsapp_message_template", "must not be empty")
	}
	return s.repo.Set(ctx, model.SettingWhatsAppTemplate, tpl)
}

func (s *settingService) Snapshot(ctx context.Context) model.StatusClassifier {
	return model.NewStatusClassifier(s.now(), s.loc, s.WarningDays(ctx))
}

func (s *settingService) Get(ctx context.Context) dto.SettingsResponse {
	return dto.SettingsResponse{
		WarningDays:      s.WarningDays(ctx),
		WhatsAppTemplate: s.WhatsAppTemplate(ctx),
	}
}

func (s *settingService) Update(ctx context.Context, actor model.Actor, req dto.UpdateSettingsRequest) (*dto.SettingsResponse, error) {
	if !actor.IsAdmin() {
		return nil, ErrForbidden
	}
	if req.WarningDays != nil {
		if err := s.SetWarningDays(ctx, actor, *req.WarningDays); err != nil {
			return nil, err
		}
	}
	if req.WhatsAppTemplate != nil {
		if err := s.SetWhatsAppTemplate(ctx, actor, *req.WhatsAppTemplate); err != nil {
			return nil, err
		}
	}
	log.Info().Str("user_id", actor.ID.String()).Msg("settings updated")
	resp := s.Get(ctx)
	return &resp, nil
}
