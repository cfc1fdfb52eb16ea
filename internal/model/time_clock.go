package model

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

type PunchAction string

const (
	PunchMorningIn    PunchAction = "morning_in"
	PunchMorningOut   PunchAction = "morning_out"
	PunchAfternoonIn  PunchAction = "afternoon_in"
	PunchAfternoonOut PunchAction = "afternoon_out"
)

var ErrPunchOutOfOrder = errors.New("punch out of order or already registered")

// TimeClock is one technician's attendance sheet for one calendar day.
type TimeClock struct {
	ID                uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	UserID            uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_time_clock_user_date"`
	Date              time.Time `gorm:"type:date;not null;uniqueIndex:idx_time_clock_user_date;index"`
	MorningCheckIn    *time.Time
	MorningCheckOut   *time.Time
	AfternoonCheckIn  *time.Time
	AfternoonCheckOut *time.Time
	UpdatedAt         time.Time

	User *User `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE"`
}

func (TimeClock) TableName() string { return "time_clock" }

// Punch stamps at into the slot named by action. Slots fill strictly in
// order and never get overwritten.
func (tc *TimeClock) Punch(action PunchAction, at time.Time) error {
	var slot **time.Time
	switch action {
	case PunchMorningIn:
		slot = &tc.MorningCheckIn
	case PunchMorningOut:
		if tc.MorningCheckIn != nil {
			slot = &tc.MorningCheckOut
		}
	case PunchAfternoonIn:
		if tc.MorningCheckOut != nil {
			slot = &tc.AfternoonCheckIn
		}
	case PunchAfternoonOut:
		if tc.AfternoonCheckIn != nil {
			slot = &tc.AfternoonCheckOut
		}
	default:
		return ErrPunchOutOfOrder
	}
	if slot == nil || *slot != nil {
		return ErrPunchOutOfOrder
	}
	t := at
	*slot = &t
	return nil
}

// Worked sums the closed morning and afternoon intervals.
func (tc *TimeClock) Worked() time.Duration {
	var d time.Duration
	if tc.MorningCheckIn != nil && tc.MorningCheckOut != nil {
		d += tc.MorningCheckOut.Sub(*tc.MorningCheckIn)
	}
	if tc.AfternoonCheckIn != nil && tc.AfternoonCheckOut != nil {
		d += tc.AfternoonCheckOut.Sub(*tc.AfternoonCheckIn)
	}
	return d
}

// NextPunch is the action the sheet accepts next, or "" once the day is closed.
func (tc *TimeClock) NextPunch() PunchAction {
	switch {
	case tc.MorningCheckIn == nil:
		return PunchMorningIn
	case tc.MorningCheckOut == nil:
		return PunchMorningOut
	case tc.AfternoonCheckIn == nil:
		return PunchAfternoonIn
	case tc.AfternoonCheckOut == nil:
		return PunchAfternoonOut
	}
	return ""
}
