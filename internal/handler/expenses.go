package handler

import (
	"net/http"

	"maintrack/internal/dto"
	"maintrack/internal/service"

	"github.com/gin-gonic/gin"
)

type ExpenseHandler struct{ svc service.ExpenseService }

func NewExpenseHandler(svc service.ExpenseService) *ExpenseHandler {
	return &ExpenseHandler{svc: svc}
}

// Create godoc
// @Summary Record an expense for the authenticated user
// @Tags expenses
// @Accept json
// @Produce json
// @Param body body dto.ExpenseRequest true "Value accepts comma or dot decimals"
// @Success 201 {object} dto.ExpenseResponse
// @Failure 422 {object} apierror.ValidationError
// @Router /v1/expenses [post]
func (h *ExpenseHandler) Create(c *gin.Context) {
	actor, ok := actorFromContext(c)
	if !ok {
		return
	}
	var req dto.ExpenseRequest
	if !bindAndValidate(c, &req) {
		return
	}
	resp, err := h.svc.Create(c.Request.Context(), actor, req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, resp)
}

func (h *ExpenseHandler) Day(c *gin.Context) {
	actor, ok := actorFromContext(c)
	if !ok {
		return
	}
	var q dto.ExpenseDayQuery
	if !bindQuery(c, &q) {
		return
	}
	resp, err := h.svc.Day(c.Request.Context(), actor, q)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (h *ExpenseHandler) Delete(c *gin.Context) {
	actor, ok := actorFromContext(c)
	if !ok {
		return
	}
	id, ok := parseUUIDParam(c, "id")
	if !ok {
		return
	}
	if err := h.svc.Delete(c.Request.Context(), actor, id); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *ExpenseHandler) Categories(c *gin.Context) {
	c.JSON(http.StatusOK, h.svc.Categories())
}
