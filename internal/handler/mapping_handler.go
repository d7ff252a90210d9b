package handler

import (
	"net/http"

	"github.com/dafibh/tally/tally-backend/internal/service"
	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog/log"
)

// MappingHandler handles merchant mapping HTTP requests
type MappingHandler struct {
	mappingService *service.MappingService
}

// NewMappingHandler creates a new MappingHandler
func NewMappingHandler(mappingService *service.MappingService) *MappingHandler {
	return &MappingHandler{mappingService: mappingService}
}

// CreateMappingRequest is a raw merchantPattern,category,subcategory record
type CreateMappingRequest struct {
	Mapping string `json:"mapping"`
}

// GetMappings handles GET /api/v1/mappings
func (h *MappingHandler) GetMappings(c echo.Context) error {
	snapshot, err := h.mappingService.Snapshot(c.Request().Context())
	if err != nil {
		log.Error().Err(err).Msg("Failed to read mappings")
		return NewInternalError(c, "Failed to read mappings")
	}
	return c.JSON(http.StatusOK, snapshot)
}

// CreateMapping handles POST /api/v1/mappings
func (h *MappingHandler) CreateMapping(c echo.Context) error {
	var req CreateMappingRequest
	if err := c.Bind(&req); err != nil {
		return NewValidationError(c, "Invalid request body", nil)
	}

	mapping, err := h.mappingService.Append(c.Request().Context(), req.Mapping)
	if err != nil {
		if isClientError(err) {
			return clientError(c, err)
		}
		log.Error().Err(err).Str("mapping", req.Mapping).Msg("Failed to append mapping")
		return NewInternalError(c, "Failed to save mapping")
	}

	return c.JSON(http.StatusCreated, mapping)
}
