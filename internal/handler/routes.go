package handler

import (
	"github.com/dafibh/fortuna/fortuna-ledger/internal/middleware"
	"github.com/labstack/echo/v4"
)

// Handlers groups every HTTP handler the API serves
type Handlers struct {
	Health      *HealthHandler
	Workspace   *WorkspaceHandler
	Account     *AccountHandler
	Transaction *TransactionHandler
	Category    *CategoryHandler
	Budget      *BudgetHandler
	Recurring   *RecurringHandler
	Dashboard   *DashboardHandler
	WebSocket   *WebSocketHandler
}

// RegisterRoutes sets up all API routes. authenticate resolves the caller's
// workspace; limit is applied to every mutating route.
func RegisterRoutes(e *echo.Echo, authenticate echo.MiddlewareFunc, rateLimiter *middleware.RateLimiter, h Handlers) {
	e.GET("/health", h.Health.Health)
	e.GET("/ready", h.Health.Ready)

	limit := middleware.RateLimitMiddleware(rateLimiter)

	// WebSocket (token via access_token query param)
	e.GET("/ws", h.WebSocket.HandleWS, authenticate)

	api := e.Group("/api/v1")
	api.Use(authenticate)

	api.GET("/workspace", h.Workspace.GetWorkspace)

	accounts := api.Group("/accounts")
	accounts.POST("", h.Account.CreateAccount, limit)
	accounts.GET("", h.Account.GetAccounts)
	accounts.GET("/:id", h.Account.GetAccount)
	accounts.PUT("/:id", h.Account.UpdateAccount, limit)
	accounts.DELETE("/:id", h.Account.DeleteAccount, limit)
	accounts.POST("/:id/reconcile", h.Account.ReconcileAccount, limit)

	transactions := api.Group("/transactions")
	transactions.POST("", h.Transaction.CreateTransaction, limit)
	transactions.GET("", h.Transaction.GetTransactions)
	transactions.GET("/:id", h.Transaction.GetTransaction)
	transactions.PUT("/:id", h.Transaction.UpdateTransaction, limit)
	transactions.DELETE("/:id", h.Transaction.DeleteTransaction, limit)

	categories := api.Group("/categories")
	categories.POST("", h.Category.CreateCategory, limit)
	categories.GET("", h.Category.GetCategories)
	categories.PUT("/:id", h.Category.UpdateCategory, limit)
	categories.DELETE("/:id", h.Category.DeleteCategory, limit)

	budgets := api.Group("/budgets")
	budgets.GET("/:year/:month", h.Budget.GetBudgets)
	budgets.PUT("/:year/:month/:categoryId", h.Budget.SetBudget, limit)
	budgets.DELETE("/:id", h.Budget.DeleteBudget, limit)

	recurring := api.Group("/recurring")
	recurring.POST("", h.Recurring.CreateRecurring, limit)
	recurring.GET("", h.Recurring.GetRecurringList)
	recurring.POST("/run", h.Recurring.RunDue, limit)
	recurring.GET("/:id", h.Recurring.GetRecurring)
	recurring.PUT("/:id", h.Recurring.UpdateRecurring, limit)
	recurring.PATCH("/:id/active", h.Recurring.ToggleActive, limit)
	recurring.DELETE("/:id", h.Recurring.DeleteRecurring, limit)

	dashboard := api.Group("/dashboard")
	dashboard.GET("/summary", h.Dashboard.GetSummary)
}
