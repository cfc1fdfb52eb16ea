package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"maintrack/internal/apierror"
	"maintrack/internal/dto"
	"maintrack/internal/model"
	"maintrack/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// ── Tasks ────────────────────────────────────────────────────────────────────

type stubTasks struct {
	service.TaskService
	actor  model.Actor
	req    dto.TaskRequest
	status dto.TaskStatusRequest
	err    error
}

func (s *stubTasks) Create(_ context.Context, actor model.Actor, req dto.TaskRequest) (*dto.TaskResponse, error) {
	s.actor, s.req = actor, req
	if s.err != nil {
		return nil, s.err
	}
	return &dto.TaskResponse{ID: uuid.NewString(), Title: req.Title}, nil
}

func (s *stubTasks) UpdateStatus(_ context.Context, actor model.Actor, id uuid.UUID, req dto.TaskStatusRequest) (*dto.MyTaskResponse, error) {
	s.actor, s.status = actor, req
	if s.err != nil {
		return nil, s.err
	}
	return &dto.MyTaskResponse{AssignmentID: id.String(), Status: req.Status}, nil
}

func TestCreateTaskHandler(t *testing.T) {
	svc := &stubTasks{}
	r := gin.New()
	r.POST("/tasks", withActor(adminActor), NewTaskHandler(svc).Create)

	tech := uuid.New()
	w := serve(r, jsonRequest(http.MethodPost, "/tasks", map[string]interface{}{
		"title": "Inspect chillers", "technician_ids": []string{tech.String()},
	}))
	require.Equal(t, http.StatusCreated, w.Code)
	assert.Equal(t, []uuid.UUID{tech}, svc.req.TechnicianIDs)
	assert.Equal(t, adminActor, svc.actor)

	w = serve(r, jsonRequest(http.MethodPost, "/tasks", map[string]interface{}{"title": "No one", "technician_ids": []string{}}))
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)

	w = serve(r, jsonRequest(http.MethodPost, "/tasks", map[string]interface{}{"title": "Bad", "technician_ids": []string{"x"}}))
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestUpdateTaskStatusHandler(t *testing.T) {
	svc := &stubTasks{}
	r := gin.New()
	r.PUT("/task-assignments/:id/status", withActor(techActor), NewTaskHandler(svc).UpdateStatus)
	path := "/task-assignments/" + uuid.NewString() + "/status"

	w := serve(r, jsonRequest(http.MethodPut, path, dto.TaskStatusRequest{Status: "In progress"}))
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "In progress", svc.status.Status)

	svc.err = service.ErrForbidden
	w = serve(r, jsonRequest(http.MethodPut, path, dto.TaskStatusRequest{Status: "Completed"}))
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = serve(r, jsonRequest(http.MethodPut, "/task-assignments/nope/status", dto.TaskStatusRequest{Status: "Completed"}))
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

// ── Expenses ─────────────────────────────────────────────────────────────────

type stubExpenses struct {
	service.ExpenseService
	req dto.ExpenseRequest
	day dto.ExpenseDayQuery
	err error
}

func (s *stubExpenses) Create(_ context.Context, actor model.Actor, req dto.ExpenseRequest) (*dto.ExpenseResponse, error) {
	s.req = req
	if s.err != nil {
		return nil, s.err
	}
	return &dto.ExpenseResponse{ID: uuid.NewString(), UserID: actor.ID.String(), Value: decimal.RequireFromString("42.5")}, nil
}

func (s *stubExpenses) Day(_ context.Context, _ model.Actor, q dto.ExpenseDayQuery) (*dto.ExpenseDayResponse, error) {
	s.day = q
	return &dto.ExpenseDayResponse{Date: q.Date}, nil
}

func (s *stubExpenses) Categories() []string { return model.ExpenseCategories }

func TestExpenseHandlers(t *testing.T) {
	svc := &stubExpenses{}
	h := NewExpenseHandler(svc)
	r := gin.New()
	r.Use(withActor(techActor))
	r.POST("/expenses", h.Create)
	r.GET("/expenses", h.Day)
	r.GET("/expenses/categories", h.Categories)

	w := serve(r, jsonRequest(http.MethodPost, "/expenses", dto.ExpenseRequest{Date: "2024-06-05", Category: "Fuel", Value: "42,5"}))
	require.Equal(t, http.StatusCreated, w.Code)
	assert.Equal(t, "42,5", svc.req.Value)
	assert.Contains(t, w.Body.String(), `"value":"42.5"`)

	w = serve(r, jsonRequest(http.MethodPost, "/expenses", dto.ExpenseRequest{Date: "2024-06-05", Category: "Fuel"}))
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)

	svc.err = &service.ValidationError{Field: "value", Message: "must be a number"}
	w = serve(r, jsonRequest(http.MethodPost, "/expenses", dto.ExpenseRequest{Date: "2024-06-05", Category: "Fuel", Value: "x"}))
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	var body apierror.ValidationError
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Contains(t, body.Fields, "value")

	w = serve(r, httptest.NewRequest(http.MethodGet, "/expenses?date=2024-06-02", nil))
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "2024-06-02", svc.day.Date)

	w = serve(r, httptest.NewRequest(http.MethodGet, "/expenses/categories", nil))
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "Miscellaneous")
}

// ── Time clock ───────────────────────────────────────────────────────────────

type stubTimeClock struct {
	service.TimeClockService
	action string
	err    error
}

func (s *stubTimeClock) Punch(_ context.Context, _ model.Actor, req dto.PunchRequest) (*dto.TimeClockResponse, error) {
	s.action = req.Action
	if s.err != nil {
		return nil, s.err
	}
	return &dto.TimeClockResponse{Date: "2024-06-03", NextAction: "morning_out"}, nil
}

func TestPunchHandler(t *testing.T) {
	svc := &stubTimeClock{}
	r := gin.New()
	r.POST("/time-clock/punch", withActor(techActor), NewTimeClockHandler(svc).Punch)

	w := serve(r, jsonRequest(http.MethodPost, "/time-clock/punch", dto.PunchRequest{Action: "morning_in"}))
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "morning_in", svc.action)

	svc.action = ""
	w = serve(r, jsonRequest(http.MethodPost, "/time-clock/punch", dto.PunchRequest{Action: "lunch"}))
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	assert.Empty(t, svc.action)

	svc.err = model.ErrPunchOutOfOrder
	w = serve(r, jsonRequest(http.MethodPost, "/time-clock/punch", dto.PunchRequest{Action: "afternoon_out"}))
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.True(t, strings.Contains(w.Body.String(), "out of order"))
}

// ── Reports ──────────────────────────────────────────────────────────────────

type stubReports struct {
	service.ReportService
	expenses dto.ExpenseReportQuery
	clock    dto.TimeClockReportQuery
}

func (s *stubReports) Expenses(_ context.Context, q dto.ExpenseReportQuery) (*dto.ExpenseReportResponse, error) {
	s.expenses = q
	return &dto.ExpenseReportResponse{Total: decimal.Zero}, nil
}

func (s *stubReports) TimeClock(_ context.Context, q dto.TimeClockReportQuery) (*dto.TimeClockReportResponse, error) {
	s.clock = q
	if q.Month == "bad" {
		return nil, &service.ValidationError{Field: "month", Message: "must be in YYYY-MM format"}
	}
	return &dto.TimeClockReportResponse{Month: q.Month, TotalHours: decimal.Zero}, nil
}

func TestFieldReportQueries(t *testing.T) {
	svc := &stubReports{}
	h := NewReportHandler(svc)
	r := gin.New()
	r.GET("/reports/expenses", h.Expenses)
	r.GET("/reports/time-clock", h.TimeClock)

	tech := uuid.NewString()
	w := serve(r, httptest.NewRequest(http.MethodGet, "/reports/expenses?technician_id="+tech+"&category=Fuel&start=2024-06-01", nil))
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, tech, svc.expenses.TechnicianID)
	assert.Equal(t, "Fuel", svc.expenses.Category)
	assert.Equal(t, "2024-06-01", svc.expenses.Start)

	w = serve(r, httptest.NewRequest(http.MethodGet, "/reports/expenses?technician_id=carla", nil))
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)

	w = serve(r, httptest.NewRequest(http.MethodGet, "/reports/time-clock?month=2024-06", nil))
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "2024-06", svc.clock.Month)

	w = serve(r, httptest.NewRequest(http.MethodGet, "/reports/time-clock?month=bad", nil))
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
}
