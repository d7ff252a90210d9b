package handler

import (
	"net/http"

	"github.com/dafibh/tally/tally-backend/internal/domain"
	"github.com/labstack/echo/v4"
)

// CategoryHandler serves the category schema
type CategoryHandler struct {
	schema domain.CategorySchema
}

// NewCategoryHandler creates a new CategoryHandler
func NewCategoryHandler(schema domain.CategorySchema) *CategoryHandler {
	return &CategoryHandler{schema: schema}
}

// GetCategories handles GET /api/v1/categories
func (h *CategoryHandler) GetCategories(c echo.Context) error {
	return c.JSON(http.StatusOK, h.schema.All())
}

// GetCategory handles GET /api/v1/categories/:title
func (h *CategoryHandler) GetCategory(c echo.Context) error {
	category, ok := domain.FindCategory(h.schema, c.Param("title"))
	if !ok {
		return NewNotFoundError(c, "Category not found")
	}
	return c.JSON(http.StatusOK, category)
}
