package handler

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/dafibh/tally/tally-backend/internal/domain"
	"github.com/labstack/echo/v4"
)

// ProblemDetails represents an RFC 7807 Problem Details response
type ProblemDetails struct {
	Type     string            `json:"type"`
	Title    string            `json:"title"`
	Status   int               `json:"status"`
	Detail   string            `json:"detail,omitempty"`
	Instance string            `json:"instance,omitempty"`
	Errors   []ValidationError `json:"errors,omitempty"`
	Line     int               `json:"line,omitempty"`
}

// ValidationError represents a single validation error
type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// Error types
const (
	ErrorTypeValidation = "https://tally.app/errors/validation"
	ErrorTypeParse      = "https://tally.app/errors/parse"
	ErrorTypeNoData     = "https://tally.app/errors/no-data"
	ErrorTypeNotFound   = "https://tally.app/errors/not-found"
	ErrorTypeInternal   = "https://tally.app/errors/internal"
)

// NewValidationError creates a validation error response
func NewValidationError(c echo.Context, detail string, errors []ValidationError) error {
	return c.JSON(http.StatusBadRequest, ProblemDetails{
		Type:     ErrorTypeValidation,
		Title:    "Validation Error",
		Status:   http.StatusBadRequest,
		Detail:   detail,
		Instance: c.Request().URL.Path,
		Errors:   errors,
	})
}

// NewNotFoundError creates a not found error response
func NewNotFoundError(c echo.Context, detail string) error {
	return c.JSON(http.StatusNotFound, ProblemDetails{
		Type:     ErrorTypeNotFound,
		Title:    "Not Found",
		Status:   http.StatusNotFound,
		Detail:   detail,
		Instance: c.Request().URL.Path,
	})
}

// NewInternalError creates an internal error response
func NewInternalError(c echo.Context, detail string) error {
	return c.JSON(http.StatusInternalServerError, ProblemDetails{
		Type:     ErrorTypeInternal,
		Title:    "Internal Server Error",
		Status:   http.StatusInternalServerError,
		Detail:   detail,
		Instance: c.Request().URL.Path,
	})
}

// NewParseError creates a response for a malformed statement line
func NewParseError(c echo.Context, parseErr *domain.ParseError) error {
	var fieldErrors []ValidationError
	if parseErr.Field != "" {
		fieldErrors = []ValidationError{{Field: parseErr.Field, Message: parseErr.Err.Error()}}
	}
	return c.JSON(http.StatusBadRequest, ProblemDetails{
		Type:     ErrorTypeParse,
		Title:    "Malformed Statement Line",
		Status:   http.StatusBadRequest,
		Detail:   fmt.Sprintf("Line %d could not be parsed: %v", parseErr.Line, parseErr.Err),
		Instance: c.Request().URL.Path,
		Errors:   fieldErrors,
		Line:     parseErr.Line,
	})
}

// NewNoDataError creates a response for a report requested over a period with no decisions
func NewNoDataError(c echo.Context, detail string) error {
	return c.JSON(http.StatusBadRequest, ProblemDetails{
		Type:     ErrorTypeNoData,
		Title:    "No Data",
		Status:   http.StatusBadRequest,
		Detail:   detail,
		Instance: c.Request().URL.Path,
	})
}

// isClientError reports whether err is caused by the request rather than the server
func isClientError(err error) bool {
	var validationErr *domain.ValidationError
	var parseErr *domain.ParseError
	return errors.As(err, &validationErr) || errors.As(err, &parseErr) || errors.Is(err, domain.ErrNoDecisions)
}

// clientError writes the problem response for an error accepted by isClientError
func clientError(c echo.Context, err error) error {
	var validationErr *domain.ValidationError
	if errors.As(err, &validationErr) {
		return NewValidationError(c, validationErr.Error(), []ValidationError{
			{Field: validationErr.Field, Message: validationErr.Message},
		})
	}

	var parseErr *domain.ParseError
	if errors.As(err, &parseErr) {
		return NewParseError(c, parseErr)
	}

	return NewNoDataError(c, "No decisions have been stored for this period")
}
