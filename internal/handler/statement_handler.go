package handler

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/dafibh/tally/tally-backend/internal/domain"
	"github.com/dafibh/tally/tally-backend/internal/service"
	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog/log"
)

// StatementHandler handles statement upload and decision review HTTP requests
type StatementHandler struct {
	statementService *service.StatementService
}

// NewStatementHandler creates a new StatementHandler
func NewStatementHandler(statementService *service.StatementService) *StatementHandler {
	return &StatementHandler{statementService: statementService}
}

// UploadStatementRequest represents a normalised statement upload
type UploadStatementRequest struct {
	Year          int      `json:"year"`
	Month         int      `json:"month"`
	User          string   `json:"user"`
	StatementName string   `json:"statementName"`
	Lines         []string `json:"lines"`
}

// UploadStatementResponse describes the outcome of an upload
type UploadStatementResponse struct {
	BatchID          string            `json:"batchId"`
	Status           string            `json:"status"`
	Year             int               `json:"year"`
	Month            int               `json:"month"`
	User             string            `json:"user"`
	StatementName    string            `json:"statementName"`
	MappingVersion   int               `json:"mappingVersion"`
	UnknownMerchants []string          `json:"unknownMerchants"`
	ArchiveKey       string            `json:"archiveKey,omitempty"`
	Decisions        []DecisionPayload `json:"decisions"`
}

// SubmitDecisionsRequest represents a reviewed decision batch
type SubmitDecisionsRequest struct {
	User          string            `json:"user"`
	StatementName string            `json:"statementName"`
	Decisions     []DecisionPayload `json:"decisions"`
}

// DecisionsResponse represents the decisions stored for a period
type DecisionsResponse struct {
	Year      int               `json:"year"`
	Month     int               `json:"month"`
	User      string            `json:"user"`
	Decisions []DecisionPayload `json:"decisions"`
}

// UploadStatement handles POST /api/v1/statements.
// 201 when the decisions were persisted, 202 when merchants still need mappings.
func (h *StatementHandler) UploadStatement(c echo.Context) error {
	var req UploadStatementRequest
	if err := c.Bind(&req); err != nil {
		return NewValidationError(c, "Invalid request body", nil)
	}

	upload := domain.StatementUpload{
		Metadata: domain.StatementMetadata{
			Year:          req.Year,
			Month:         req.Month,
			User:          strings.TrimSpace(req.User),
			StatementName: strings.TrimSpace(req.StatementName),
		},
		Lines: req.Lines,
	}

	result, err := h.statementService.Upload(c.Request().Context(), upload)
	if err != nil {
		if isClientError(err) {
			return clientError(c, err)
		}
		log.Error().Err(err).
			Str("user", upload.Metadata.User).
			Int("year", upload.Metadata.Year).
			Int("month", upload.Metadata.Month).
			Msg("Failed to process statement")
		return NewInternalError(c, "Failed to process statement")
	}

	status := http.StatusCreated
	if result.Status == domain.UploadStatusAwaitingMapping {
		status = http.StatusAccepted
	}
	return c.JSON(status, toUploadStatementResponse(result))
}

// GetDecisions handles GET /api/v1/decisions/:year/:month?user=
func (h *StatementHandler) GetDecisions(c echo.Context) error {
	year, month, ok := parsePeriod(c)
	if !ok {
		return NewValidationError(c, "Invalid year or month", nil)
	}
	user := strings.TrimSpace(c.QueryParam("user"))

	decisions, err := h.statementService.Decisions(c.Request().Context(), year, month, user)
	if err != nil {
		if isClientError(err) {
			return clientError(c, err)
		}
		log.Error().Err(err).Str("user", user).Int("year", year).Int("month", month).Msg("Failed to get decisions")
		return NewInternalError(c, "Failed to get decisions")
	}

	return c.JSON(http.StatusOK, DecisionsResponse{
		Year:      year,
		Month:     month,
		User:      user,
		Decisions: toDecisionPayloads(decisions),
	})
}

// SubmitDecisions handles PUT /api/v1/decisions/:year/:month
func (h *StatementHandler) SubmitDecisions(c echo.Context) error {
	year, month, ok := parsePeriod(c)
	if !ok {
		return NewValidationError(c, "Invalid year or month", nil)
	}

	var req SubmitDecisionsRequest
	if err := c.Bind(&req); err != nil {
		return NewValidationError(c, "Invalid request body", nil)
	}

	decisions, fieldErrors := toDomainDecisions(req.Decisions)
	if len(fieldErrors) > 0 {
		return NewValidationError(c, "Invalid decisions", fieldErrors)
	}

	meta := domain.StatementMetadata{
		Year:          year,
		Month:         month,
		User:          strings.TrimSpace(req.User),
		StatementName: strings.TrimSpace(req.StatementName),
	}
	if err := h.statementService.SubmitDecisions(c.Request().Context(), meta, decisions); err != nil {
		if isClientError(err) {
			return clientError(c, err)
		}
		log.Error().Err(err).Str("user", meta.User).Int("year", year).Int("month", month).Msg("Failed to save decisions")
		return NewInternalError(c, "Failed to save decisions")
	}

	return c.JSON(http.StatusOK, DecisionsResponse{
		Year:      year,
		Month:     month,
		User:      meta.User,
		Decisions: toDecisionPayloads(decisions),
	})
}

// parsePeriod reads the :year and :month path parameters
func parsePeriod(c echo.Context) (int, int, bool) {
	year, err := strconv.Atoi(c.Param("year"))
	if err != nil || year < 1900 || year > 2100 {
		return 0, 0, false
	}

	month, err := strconv.Atoi(c.Param("month"))
	if err != nil || month < 1 || month > 12 {
		return 0, 0, false
	}
	return year, month, true
}

func toUploadStatementResponse(result *domain.UploadResult) UploadStatementResponse {
	unknown := result.UnknownMerchants
	if unknown == nil {
		unknown = []string{}
	}
	return UploadStatementResponse{
		BatchID:          result.BatchID.String(),
		Status:           string(result.Status),
		Year:             result.Metadata.Year,
		Month:            result.Metadata.Month,
		User:             result.Metadata.User,
		StatementName:    result.Metadata.StatementName,
		MappingVersion:   result.MappingVersion,
		UnknownMerchants: unknown,
		ArchiveKey:       result.ArchiveKey,
		Decisions:        toDecisionPayloads(result.Decisions),
	}
}
