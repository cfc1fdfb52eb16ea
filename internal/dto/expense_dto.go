package dto

import "github.com/shopspring/decimal"

// ExpenseRequest keeps value as typed by the user; "," and "." are both
// accepted as decimal separator.
type ExpenseRequest struct {
	Date        string  `json:"date"        validate:"required"`
	Category    string  `json:"category"    validate:"required,max=50"`
	Value       string  `json:"value"       validate:"required,max=20"`
	Description *string `json:"description" validate:"omitempty,max=500"`
}

type ExpenseResponse struct {
	ID          string          `json:"id"`
	UserID      string          `json:"user_id"`
	Date        string          `json:"date"`
	Category    string          `json:"category"`
	Value       decimal.Decimal `json:"value"`
	Description *string         `json:"description"`
}

type ExpenseDayQuery struct {
	Date string `form:"date"`
}

// ExpenseDayResponse is one technician's day plus the running total of the
// Sunday-to-Saturday week that contains it.
type ExpenseDayResponse struct {
	Date        string            `json:"date"`
	Items       []ExpenseResponse `json:"items"`
	DayTotal    decimal.Decimal   `json:"day_total"`
	WeekStart   string            `json:"week_start"`
	WeekEnd     string            `json:"week_end"`
	WeeklyTotal decimal.Decimal   `json:"weekly_total"`
	Categories  []string          `json:"categories"`
}
