package model

import "time"

// EquipmentStatus is derived from the next maintenance date; it is never stored.
type EquipmentStatus string

const (
	StatusOK       EquipmentStatus = "OK"
	StatusUpcoming EquipmentStatus = "Upcoming"
	StatusOverdue  EquipmentStatus = "Overdue"
)

// DefaultWarningDays applies when the maintenance_warning_days setting is absent.
const DefaultWarningDays = 15

// CivilDate drops the clock part of t, keeping the calendar date as seen in t's
// own location. The result is midnight UTC so dates compare with Before/After.
func CivilDate(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// ClassifyStatus compares calendar dates only:
//
//	next < today                          → Overdue
//	today <= next <= today + warningDays  → Upcoming
//	otherwise                             → OK
func ClassifyStatus(next, today time.Time, warningDays int) EquipmentStatus {
	if warningDays < 0 {
		warningDays = 0
	}
	n := CivilDate(next)
	t := CivilDate(today)
	switch {
	case n.Before(t):
		return StatusOverdue
	case !n.After(t.AddDate(0, 0, warningDays)):
		return StatusUpcoming
	default:
		return StatusOK
	}
}

// StatusClassifier freezes "today" and the warning window so that every
// equipment evaluated in one batch sees the same snapshot.
type StatusClassifier struct {
	Today       time.Time
	WarningDays int
}

// NewStatusClassifier builds a snapshot for the calendar date of now in loc.
func NewStatusClassifier(now time.Time, loc *time.Location, warningDays int) StatusClassifier {
	if loc != nil {
		now = now.In(loc)
	}
	return StatusClassifier{Today: CivilDate(now), WarningDays: warningDays}
}

func (c StatusClassifier) Status(next time.Time) EquipmentStatus {
	return ClassifyStatus(next, c.Today, c.WarningDays)
}
