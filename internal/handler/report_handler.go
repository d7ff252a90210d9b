package handler

import (
	"net/http"
	"strings"

	"github.com/dafibh/tally/tally-backend/internal/service"
	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog/log"
)

// ReportHandler handles monthly report HTTP requests
type ReportHandler struct {
	reportService *service.ReportService
}

// NewReportHandler creates a new ReportHandler
func NewReportHandler(reportService *service.ReportService) *ReportHandler {
	return &ReportHandler{reportService: reportService}
}

// GetMonthlyReport handles GET /api/v1/reports/:year/:month?user=
func (h *ReportHandler) GetMonthlyReport(c echo.Context) error {
	year, month, ok := parsePeriod(c)
	if !ok {
		return NewValidationError(c, "Invalid year or month", nil)
	}

	user := strings.TrimSpace(c.QueryParam("user"))
	if user == "" {
		return NewValidationError(c, "User is required", []ValidationError{{Field: "user", Message: "is required"}})
	}

	report, err := h.reportService.MonthlyReport(c.Request().Context(), year, month, user)
	if err != nil {
		if isClientError(err) {
			return clientError(c, err)
		}
		log.Error().Err(err).Str("user", user).Int("year", year).Int("month", month).Msg("Failed to build report")
		return NewInternalError(c, "Failed to build report")
	}

	return c.JSON(http.StatusOK, report)
}
