package dto

import "github.com/shopspring/decimal"

type PunchRequest struct {
	Action string `json:"action" validate:"required,oneof=morning_in morning_out afternoon_in afternoon_out"`
}

// TimeClockResponse renders punches as RFC 3339 in the business time zone.
type TimeClockResponse struct {
	Date              string          `json:"date"`
	MorningCheckIn    *string         `json:"morning_check_in"`
	MorningCheckOut   *string         `json:"morning_check_out"`
	AfternoonCheckIn  *string         `json:"afternoon_check_in"`
	AfternoonCheckOut *string         `json:"afternoon_check_out"`
	NextAction        string          `json:"next_action,omitempty"`
	WorkedHours       decimal.Decimal `json:"worked_hours"`
}
