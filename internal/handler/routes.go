package handler

import (
	"github.com/labstack/echo/v4"
)

// Handlers groups the HTTP handlers served under /api/v1
type Handlers struct {
	Category  *CategoryHandler
	Mapping   *MappingHandler
	Statement *StatementHandler
	Report    *ReportHandler
	WebSocket *WebSocketHandler
}

// RegisterRoutes sets up all API routes. writeMiddleware (body and rate limits)
// guards the endpoints that persist data.
func RegisterRoutes(e *echo.Echo, h Handlers, writeMiddleware ...echo.MiddlewareFunc) {
	// API version 1
	api := e.Group("/api/v1")

	// Category schema (read-only)
	categories := api.Group("/categories")
	categories.GET("", h.Category.GetCategories)
	categories.GET("/:title", h.Category.GetCategory)

	// Merchant mappings
	mappings := api.Group("/mappings")
	mappings.GET("", h.Mapping.GetMappings)
	mappings.POST("", h.Mapping.CreateMapping, writeMiddleware...)

	// Statement uploads
	statements := api.Group("/statements")
	statements.POST("", h.Statement.UploadStatement, writeMiddleware...)

	// Decisions
	decisions := api.Group("/decisions")
	decisions.GET("/:year/:month", h.Statement.GetDecisions)
	decisions.PUT("/:year/:month", h.Statement.SubmitDecisions, writeMiddleware...)

	// Reports
	reports := api.Group("/reports")
	reports.GET("/:year/:month", h.Report.GetMonthlyReport)

	// WebSocket event stream
	e.GET("/ws", h.WebSocket.HandleWS)
}
