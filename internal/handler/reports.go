package handler

import (
	"net/http"

	"maintrack/internal/dto"
	"maintrack/internal/service"

	"github.com/gin-gonic/gin"
)

type ReportHandler struct{ svc service.ReportService }

func NewReportHandler(svc service.ReportService) *ReportHandler {
	return &ReportHandler{svc: svc}
}

func (h *ReportHandler) Financial(c *gin.Context) {
	var q dto.FinancialReportQuery
	if !bindQuery(c, &q) {
		return
	}
	resp, err := h.svc.Financial(c.Request.Context(), q)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (h *ReportHandler) StockUsage(c *gin.Context) {
	var q dto.StockUsageQuery
	if !bindQuery(c, &q) {
		return
	}
	resp, err := h.svc.StockUsage(c.Request.Context(), q)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (h *ReportHandler) Expenses(c *gin.Context) {
	var q dto.ExpenseReportQuery
	if !bindQuery(c, &q) {
		return
	}
	resp, err := h.svc.Expenses(c.Request.Context(), q)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (h *ReportHandler) TimeClock(c *gin.Context) {
	var q dto.TimeClockReportQuery
	if !bindQuery(c, &q) {
		return
	}
	resp, err := h.svc.TimeClock(c.Request.Context(), q)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}
