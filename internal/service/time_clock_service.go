package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"maintrack/internal/dto"
	"maintrack/internal/model"
	"maintrack/internal/repository"

	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type TimeClockService interface {
	// Today returns the actor's sheet for the current business day; an empty
	// sheet when nothing was punched yet.
	Today(ctx context.Context, actor model.Actor) (*dto.TimeClockResponse, error)
	// Punch stamps the current time into the slot named by action. Slots fill
	// in order; anything else fails with model.ErrPunchOutOfOrder.
	Punch(ctx context.Context, actor model.Actor, req dto.PunchRequest) (*dto.TimeClockResponse, error)
}

type timeClockService struct {
	repo repository.TimeClockRepository
	loc  *time.Location
	now  func() time.Time
}

func NewTimeClockService(repo repository.TimeClockRepository, loc *time.Location) TimeClockService {
	if loc == nil {
		loc = time.UTC
	}
	return &timeClockService{repo: repo, loc: loc, now: time.Now}
}

func (s *timeClockService) Today(ctx context.Context, actor model.Actor) (*dto.TimeClockResponse, error) {
	today := model.CivilDate(s.now().In(s.loc))
	tc, err := s.repo.FindForUserOn(ctx, actor.ID, today)
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		tc = &model.TimeClock{UserID: actor.ID, Date: today}
	case err != nil:
		return nil, err
	}
	resp := timeClockToResponse(tc, s.loc)
	return &resp, nil
}

func (s *timeClockService) Punch(ctx context.Context, actor model.Actor, req dto.PunchRequest) (*dto.TimeClockResponse, error) {
	now := s.now().In(s.loc)
	today := model.CivilDate(now)
	action := model.PunchAction(req.Action)

	var tc *model.TimeClock
	err := runTx(ctx, s.repo.DB(), func(tx *gorm.DB) error {
		var err error
		if tc, err = s.repo.LockForUserOnTx(tx, actor.ID, today); err != nil {
			return fmt.Errorf("load time clock: %w", err)
		}
		if err := tc.Punch(action, now); err != nil {
			return err
		}
		return s.repo.SaveTx(tx, tc)
	})
	if err != nil {
		return nil, err
	}
	log.Info().Str("user_id", actor.ID.String()).Str("action", req.Action).Msg("time clock punch")
	resp := timeClockToResponse(tc, s.loc)
	return &resp, nil
}

// hours renders d as decimal hours with two places.
func hours(d time.Duration) decimal.Decimal {
	return decimal.NewFromInt(int64(d / time.Second)).Div(decimal.NewFromInt(3600)).Round(2)
}

func formatPunch(t *time.Time, loc *time.Location) *string {
	if t == nil {
		return nil
	}
	s := t.In(loc).Format(time.RFC3339)
	return &s
}

func timeClockToResponse(tc *model.TimeClock, loc *time.Location) dto.TimeClockResponse {
	return dto.TimeClockResponse{
		Date:              formatDate(tc.Date),
		MorningCheckIn:    formatPunch(tc.MorningCheckIn, loc),
		MorningCheckOut:   formatPunch(tc.MorningCheckOut, loc),
		AfternoonCheckIn:  formatPunch(tc.AfternoonCheckIn, loc),
		AfternoonCheckOut: formatPunch(tc.AfternoonCheckOut, loc),
		NextAction:        string(tc.NextPunch()),
		WorkedHours:       hours(tc.Worked()),
	}
}
