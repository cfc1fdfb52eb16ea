package service

import (
	"context"
	"strings"
	"time"

	"maintrack/internal/dto"
	"maintrack/internal/model"
	"maintrack/internal/repository"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// maxExpenseValue is the largest amount a decimal(10,2) column stores.
var maxExpenseValue = decimal.RequireFromString("99999999.99")

type ExpenseService interface {
	Create(ctx context.Context, actor model.Actor, req dto.ExpenseRequest) (*dto.ExpenseResponse, error)
	// Day returns the actor's expenses for one date (today when q.Date is
	// empty) with the weekly running total.
	Day(ctx context.Context, actor model.Actor, q dto.ExpenseDayQuery) (*dto.ExpenseDayResponse, error)
	Delete(ctx context.Context, actor model.Actor, id uuid.UUID) error
	Categories() []string
}

type expenseService struct {
	repo repository.ExpenseRepository
	loc  *time.Location
	now  func() time.Time
}

func NewExpenseService(repo repository.ExpenseRepository, loc *time.Location) ExpenseService {
	if loc == nil {
		loc = time.UTC
	}
	return &expenseService{repo: repo, loc: loc, now: time.Now}
}

func (s *expenseService) Categories() []string {
	return append([]string(nil), model.ExpenseCategories...)
}

func (s *expenseService) Create(ctx context.Context, actor model.Actor, req dto.ExpenseRequest) (*dto.ExpenseResponse, error) {
	date, err := ParseDate("date", req.Date)
	if err != nil {
		return nil, err
	}
	category := strings.TrimSpace(req.Category)
	if !model.ValidExpenseCategory(category) {
		return nil, invalid("category", "must be one of "+strings.Join(model.ExpenseCategories, ", "))
	}
	if strings.TrimSpace(req.Value) == "" {
		return nil, invalid("value", "is required")
	}
	value, err := ParseLocaleDecimal("value", req.Value)
	if err != nil {
		return nil, err
	}
	value = value.Round(2)
	if !value.IsPositive() {
		return nil, invalid("value", "must be greater than zero")
	}
	if value.GreaterThan(maxExpenseValue) {
		return nil, invalid("value", "must not exceed "+maxExpenseValue.String())
	}

	e := &model.Expense{
		ID:          uuid.New(),
		UserID:      actor.ID,
		Date:        date,
		Category:    category,
		Value:       value,
		Description: trimmedOrNil(req.Description),
	}
	if err := s.repo.Create(ctx, e); err != nil {
		return nil, err
	}
	resp := expenseToResponse(e)
	return &resp, nil
}

// weekBounds returns the Sunday and Saturday around date.
func weekBounds(date time.Time) (time.Time, time.Time) {
	start := date.AddDate(0, 0, -int(date.Weekday()))
	return start, start.AddDate(0, 0, 6)
}

func (s *expenseService) Day(ctx context.Context, actor model.Actor, q dto.ExpenseDayQuery) (*dto.ExpenseDayResponse, error) {
	date := model.CivilDate(s.now().In(s.loc))
	if strings.TrimSpace(q.Date) != "" {
		var err error
		if date, err = ParseDate("date", q.Date); err != nil {
			return nil, err
		}
	}
	weekStart, weekEnd := weekBounds(date)

	items, err := s.repo.List(ctx, repository.ExpenseFilter{UserID: &actor.ID, Start: &date, End: &date})
	if err != nil {
		return nil, err
	}
	weekly, err := s.repo.Sum(ctx, repository.ExpenseFilter{UserID: &actor.ID, Start: &weekStart, End: &weekEnd})
	if err != nil {
		return nil, err
	}

	resp := &dto.ExpenseDayResponse{
		Date:        formatDate(date),
		Items:       make([]dto.ExpenseResponse, 0, len(items)),
		DayTotal:    decimal.Zero,
		WeekStart:   formatDate(weekStart),
		WeekEnd:     formatDate(weekEnd),
		WeeklyTotal: weekly,
		Categories:  s.Categories(),
	}
	for i := range items {
		resp.DayTotal = resp.DayTotal.Add(items[i].Value)
		resp.Items = append(resp.Items, expenseToResponse(&items[i]))
	}
	return resp, nil
}

// Delete is allowed to the owner and to admins.
func (s *expenseService) Delete(ctx context.Context, actor model.Actor, id uuid.UUID) error {
	e, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return notFound(err, "expense")
	}
	if !actor.CanModifyRecord(e.UserID) {
		return ErrForbidden
	}
	return notFound(s.repo.Delete(ctx, id), "expense")
}

func expenseToResponse(e *model.Expense) dto.ExpenseResponse {
	return dto.ExpenseResponse{
		ID:          e.ID.String(),
		UserID:      e.UserID.String(),
		Date:        formatDate(e.Date),
		Category:    e.Category,
		Value:       e.Value,
		Description: e.Description,
	}
}
