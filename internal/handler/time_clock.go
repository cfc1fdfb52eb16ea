package handler

import (
	"net/http"

	"maintrack/internal/dto"
	"maintrack/internal/service"

	"github.com/gin-gonic/gin"
)

type TimeClockHandler struct{ svc service.TimeClockService }

func NewTimeClockHandler(svc service.TimeClockService) *TimeClockHandler {
	return &TimeClockHandler{svc: svc}
}

func (h *TimeClockHandler) Today(c *gin.Context) {
	actor, ok := actorFromContext(c)
	if !ok {
		return
	}
	resp, err := h.svc.Today(c.Request.Context(), actor)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// Punch godoc
// @Summary Register the next time clock punch for today
// @Tags time-clock
// @Accept json
// @Produce json
// @Param body body dto.PunchRequest true "morning_in | morning_out | afternoon_in | afternoon_out"
// @Success 200 {object} dto.TimeClockResponse
// @Failure 409 {object} apierror.APIError
// @Router /v1/time-clock/punch [post]
func (h *TimeClockHandler) Punch(c *gin.Context) {
	actor, ok := actorFromContext(c)
	if !ok {
		return
	}
	var req dto.PunchRequest
	if !bindAndValidate(c, &req) {
		return
	}
	resp, err := h.svc.Punch(c.Request.Context(), actor, req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}
