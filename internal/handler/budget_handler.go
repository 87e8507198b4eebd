package handler

import (
	"net/http"
	"strconv"

	"github.com/dafibh/fortuna/fortuna-ledger/internal/domain"
	"github.com/dafibh/fortuna/fortuna-ledger/internal/middleware"
	"github.com/dafibh/fortuna/fortuna-ledger/internal/service"
	"github.com/labstack/echo/v4"
	"github.com/shopspring/decimal"
)

// BudgetHandler handles budget-related HTTP requests
type BudgetHandler struct {
	budgetService *service.BudgetService
}

// NewBudgetHandler creates a new BudgetHandler
func NewBudgetHandler(budgetService *service.BudgetService) *BudgetHandler {
	return &BudgetHandler{budgetService: budgetService}
}

// SetBudgetRequest represents the request body for setting a category budget
type SetBudgetRequest struct {
	Amount string `json:"amount"`
}

// BudgetResponse represents a budget in API responses
type BudgetResponse struct {
	ID         int32  `json:"id"`
	CategoryID int32  `json:"categoryId"`
	Amount     string `json:"amount"`
	Year       int    `json:"year"`
	Month      int    `json:"month"`
}

// GetBudgets handles GET /api/v1/budgets/:year/:month
func (h *BudgetHandler) GetBudgets(c echo.Context) error {
	workspaceID := middleware.GetWorkspaceID(c)
	if workspaceID == 0 {
		return NewUnauthorizedError(c, "Workspace required")
	}

	year, month, verr := parsePeriodParams(c)
	if verr != nil {
		return NewValidationError(c, "Invalid period", []ValidationError{*verr})
	}

	budgets, err := h.budgetService.GetBudgets(c.Request().Context(), workspaceID, year, month)
	if err != nil {
		return handleServiceError(c, err, workspaceID, "get budgets", false)
	}

	response := make([]BudgetResponse, len(budgets))
	for i, b := range budgets {
		response[i] = toBudgetResponse(b)
	}
	return c.JSON(http.StatusOK, response)
}

// SetBudget handles PUT /api/v1/budgets/:year/:month/:categoryId
func (h *BudgetHandler) SetBudget(c echo.Context) error {
	workspaceID := middleware.GetWorkspaceID(c)
	if workspaceID == 0 {
		return NewUnauthorizedError(c, "Workspace required")
	}

	year, month, verr := parsePeriodParams(c)
	if verr != nil {
		return NewValidationError(c, "Invalid period", []ValidationError{*verr})
	}

	categoryID, ok := parseID(c, "categoryId")
	if !ok {
		return NewValidationError(c, "Invalid category ID", nil)
	}

	var req SetBudgetRequest
	if err := c.Bind(&req); err != nil {
		return NewValidationError(c, "Invalid request body", nil)
	}

	amount, err := decimal.NewFromString(req.Amount)
	if err != nil {
		return NewValidationError(c, "Invalid amount", []ValidationError{
			{Field: "amount", Message: "Must be a valid decimal number"},
		})
	}

	budget, err := h.budgetService.SetBudget(c.Request().Context(), workspaceID, service.SetBudgetInput{
		CategoryID: categoryID,
		Amount:     amount,
		Year:       year,
		Month:      month,
	})
	if err != nil {
		return handleServiceError(c, err, workspaceID, "set budget", true)
	}
	return c.JSON(http.StatusOK, toBudgetResponse(budget))
}

// DeleteBudget handles DELETE /api/v1/budgets/:id
func (h *BudgetHandler) DeleteBudget(c echo.Context) error {
	workspaceID := middleware.GetWorkspaceID(c)
	if workspaceID == 0 {
		return NewUnauthorizedError(c, "Workspace required")
	}

	id, ok := parseID(c, "id")
	if !ok {
		return NewValidationError(c, "Invalid budget ID", nil)
	}

	if err := h.budgetService.DeleteBudget(c.Request().Context(), workspaceID, id); err != nil {
		return handleServiceError(c, err, workspaceID, "delete budget", false)
	}
	return c.NoContent(http.StatusNoContent)
}

func parsePeriodParams(c echo.Context) (int, int, *ValidationError) {
	year, err := strconv.Atoi(c.Param("year"))
	if err != nil {
		return 0, 0, &ValidationError{Field: "year", Message: "Must be a valid integer"}
	}
	month, err := strconv.Atoi(c.Param("month"))
	if err != nil || month < 1 || month > 12 {
		return 0, 0, &ValidationError{Field: "month", Message: "Must be between 1 and 12"}
	}
	return year, month, nil
}

func toBudgetResponse(b *domain.Budget) BudgetResponse {
	return BudgetResponse{
		ID:         b.ID,
		CategoryID: b.CategoryID,
		Amount:     domain.FormatMoney(b.Amount),
		Year:       b.Year,
		Month:      b.Month,
	}
}
