package handler

import (
	"net/http"
	"strconv"
	"time"

	"github.com/dafibh/fortuna/fortuna-ledger/internal/domain"
	"github.com/dafibh/fortuna/fortuna-ledger/internal/middleware"
	"github.com/dafibh/fortuna/fortuna-ledger/internal/service"
	"github.com/labstack/echo/v4"
)

// DashboardHandler handles dashboard-related HTTP requests
type DashboardHandler struct {
	dashboardService *service.DashboardService
	now              func() time.Time
}

// NewDashboardHandler creates a new DashboardHandler
func NewDashboardHandler(dashboardService *service.DashboardService) *DashboardHandler {
	return &DashboardHandler{
		dashboardService: dashboardService,
		now:              time.Now,
	}
}

// CategoryAmountResponse is a per-category total
type CategoryAmountResponse struct {
	CategoryID int32  `json:"categoryId"`
	Name       string `json:"name"`
	Amount     string `json:"amount"`
}

// BudgetProgressResponse compares one budget with actual spending
type BudgetProgressResponse struct {
	BudgetID     int32  `json:"budgetId"`
	CategoryID   int32  `json:"categoryId"`
	CategoryName string `json:"categoryName"`
	Budgeted     string `json:"budgeted"`
	Spent        string `json:"spent"`
	Remaining    string `json:"remaining"`
	OverBudget   bool   `json:"overBudget"`
}

// DashboardSummaryResponse represents the dashboard summary API response
type DashboardSummaryResponse struct {
	Year              int                      `json:"year"`
	Month             int                      `json:"month"`
	TotalBalance      string                   `json:"totalBalance"`
	AccountCount      int                      `json:"accountCount"`
	MonthlyIncome     string                   `json:"monthlyIncome"`
	MonthlyExpense    string                   `json:"monthlyExpense"`
	Net               string                   `json:"net"`
	ExpenseByCategory []CategoryAmountResponse `json:"expenseByCategory"`
	Budgets           []BudgetProgressResponse `json:"budgets"`
}

// GetSummary handles GET /api/v1/dashboard/summary
// Accepts optional year and month query params for historical navigation
func (h *DashboardHandler) GetSummary(c echo.Context) error {
	workspaceID := middleware.GetWorkspaceID(c)
	if workspaceID == 0 {
		return NewUnauthorizedError(c, "Workspace required")
	}

	now := h.now().UTC()
	year := now.Year()
	month := int(now.Month())

	if yearStr := c.QueryParam("year"); yearStr != "" {
		parsedYear, err := strconv.Atoi(yearStr)
		if err != nil {
			return NewValidationError(c, "Invalid year format", []ValidationError{{Field: "year", Message: "Must be a valid integer"}})
		}
		year = parsedYear
	}
	if monthStr := c.QueryParam("month"); monthStr != "" {
		parsedMonth, err := strconv.Atoi(monthStr)
		if err != nil {
			return NewValidationError(c, "Invalid month format", []ValidationError{{Field: "month", Message: "Must be a valid integer"}})
		}
		month = parsedMonth
	}

	summary, err := h.dashboardService.GetSummaryForMonth(c.Request().Context(), workspaceID, year, month)
	if err != nil {
		return handleServiceError(c, err, workspaceID, "get dashboard summary", false)
	}

	byCategory := make([]CategoryAmountResponse, len(summary.ExpenseByCategory))
	for i, ca := range summary.ExpenseByCategory {
		byCategory[i] = CategoryAmountResponse{CategoryID: ca.CategoryID, Name: ca.Name, Amount: domain.FormatMoney(ca.Amount)}
	}

	budgets := make([]BudgetProgressResponse, len(summary.Budgets))
	for i, b := range summary.Budgets {
		budgets[i] = BudgetProgressResponse{
			BudgetID:     b.BudgetID,
			CategoryID:   b.CategoryID,
			CategoryName: b.CategoryName,
			Budgeted:     domain.FormatMoney(b.Budgeted),
			Spent:        domain.FormatMoney(b.Spent),
			Remaining:    domain.FormatMoney(b.Remaining),
			OverBudget:   b.OverBudget,
		}
	}

	return c.JSON(http.StatusOK, DashboardSummaryResponse{
		Year:              summary.Year,
		Month:             summary.Month,
		TotalBalance:      domain.FormatMoney(summary.TotalBalance),
		AccountCount:      summary.AccountCount,
		MonthlyIncome:     domain.FormatMoney(summary.MonthlyIncome),
		MonthlyExpense:    domain.FormatMoney(summary.MonthlyExpense),
		Net:               domain.FormatMoney(summary.Net),
		ExpenseByCategory: byCategory,
		Budgets:           budgets,
	})
}
