package handler

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/dafibh/fortuna/fortuna-ledger/internal/domain"
	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog/log"
)

// ProblemDetails represents an RFC 7807 Problem Details response
type ProblemDetails struct {
	Type     string            `json:"type"`
	Title    string            `json:"title"`
	Status   int               `json:"status"`
	Detail   string            `json:"detail,omitempty"`
	Instance string            `json:"instance,omitempty"`
	Errors   []ValidationError `json:"errors,omitempty"`
}

// ValidationError represents a single validation error
type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// Error types
const (
	ErrorTypeValidation   = "https://fortuna.app/errors/validation"
	ErrorTypeNotFound     = "https://fortuna.app/errors/not-found"
	ErrorTypeUnauthorized = "https://fortuna.app/errors/unauthorized"
	ErrorTypeConflict     = "https://fortuna.app/errors/conflict"
	ErrorTypeInternal     = "https://fortuna.app/errors/internal"
)

const dateLayout = "2006-01-02"

func problem(c echo.Context, status int, errType, title, detail string, errs []ValidationError) error {
	return c.JSON(status, ProblemDetails{
		Type:     errType,
		Title:    title,
		Status:   status,
		Detail:   detail,
		Instance: c.Request().URL.Path,
		Errors:   errs,
	})
}

// NewValidationError creates a validation error response
func NewValidationError(c echo.Context, detail string, errors []ValidationError) error {
	return problem(c, http.StatusBadRequest, ErrorTypeValidation, "Validation Error", detail, errors)
}

// NewNotFoundError creates a not found error response
func NewNotFoundError(c echo.Context, detail string) error {
	return problem(c, http.StatusNotFound, ErrorTypeNotFound, "Not Found", detail, nil)
}

// NewUnauthorizedError creates an unauthorized error response
func NewUnauthorizedError(c echo.Context, detail string) error {
	return problem(c, http.StatusUnauthorized, ErrorTypeUnauthorized, "Unauthorized", detail, nil)
}

// NewConflictError creates a conflict error response
func NewConflictError(c echo.Context, detail string) error {
	return problem(c, http.StatusConflict, ErrorTypeConflict, "Conflict", detail, nil)
}

// NewInternalError creates an internal error response
func NewInternalError(c echo.Context, detail string) error {
	return problem(c, http.StatusInternalServerError, ErrorTypeInternal, "Internal Server Error", detail, nil)
}

// fieldErrors maps validation failures to the request field they concern.
// Order matters: ErrCategoryTypeMismatch also matches ErrInvalidReference.
var fieldErrors = []struct {
	err     error
	field   string
	message string
}{
	{domain.ErrNameRequired, "name", "Name is required"},
	{domain.ErrNameTooLong, "name", "Name must be 255 characters or less"},
	{domain.ErrDescriptionTooLong, "description", "Description must be 1000 characters or less"},
	{domain.ErrInvalidAmount, "amount", "Amount must be positive with at most 4 decimal places"},
	{domain.ErrInvalidBalance, "initialBalance", "Initial balance must have at most 4 decimal places"},
	{domain.ErrInvalidTransactionType, "type", "Type must be one of: income, expense"},
	{domain.ErrInvalidAccountType, "accountType", "Account type must be one of: checking, savings, credit"},
	{domain.ErrInvalidFrequency, "frequency", "Frequency must be one of: daily, weekly, monthly"},
	{domain.ErrInvalidDate, "date", "Invalid date"},
	{domain.ErrInvalidPeriod, "month", "Year must be 1970-9999 and month 1-12"},
	{domain.ErrCategoryTypeMismatch, "categoryId", "Category type must match the transaction type"},
	{domain.ErrInvalidReference, "", "Referenced resource is invalid"},
}

// referenceErrors are rendered as validation errors when the missing entity was
// named in the request body rather than in the URL
var referenceErrors = []struct {
	err     error
	field   string
	message string
}{
	{domain.ErrAccountNotFound, "accountId", "Account not found"},
	{domain.ErrCategoryNotFound, "categoryId", "Category not found"},
}

// handleServiceError renders a service error as Problem Details. bodyRefs marks
// operations whose request body references accounts and categories.
func handleServiceError(c echo.Context, err error, workspaceID int32, operation string, bodyRefs bool) error {
	if bodyRefs {
		for _, ref := range referenceErrors {
			if errors.Is(err, ref.err) {
				return NewValidationError(c, "Validation failed", []ValidationError{{Field: ref.field, Message: ref.message}})
			}
		}
	}

	for _, fe := range fieldErrors {
		if errors.Is(err, fe.err) {
			var errs []ValidationError
			if fe.field != "" {
				errs = []ValidationError{{Field: fe.field, Message: fe.message}}
			}
			return NewValidationError(c, "Validation failed", errs)
		}
	}

	switch {
	case errors.Is(err, domain.ErrNotFound):
		return NewNotFoundError(c, err.Error())
	case errors.Is(err, domain.ErrCategoryInUse):
		return NewConflictError(c, "Category is still used by transactions or recurring definitions")
	case errors.Is(err, domain.ErrAlreadyExists):
		return NewConflictError(c, "Resource already exists")
	case errors.Is(err, domain.ErrConcurrentUpdateConflict):
		return NewConflictError(c, "The resource was modified concurrently, please retry")
	case errors.Is(err, domain.ErrInvalidInput):
		return NewValidationError(c, "Validation failed", nil)
	case errors.Is(err, domain.ErrUnauthorized):
		return NewUnauthorizedError(c, "Unauthorized")
	}

	log.Error().Err(err).Int32("workspace_id", workspaceID).Str("operation", operation).Msg("Failed to " + operation)
	return NewInternalError(c, "Failed to "+operation)
}

func parseID(c echo.Context, param string) (int32, bool) {
	id, err := strconv.ParseInt(c.Param(param), 10, 32)
	if err != nil || id <= 0 {
		return 0, false
	}
	return int32(id), true
}

func parseDate(raw string) (time.Time, error) {
	return time.Parse(dateLayout, raw)
}

func formatTimestamp(t time.Time) string {
	return t.Format(time.RFC3339)
}
