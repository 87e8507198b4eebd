package handler

import (
	"net/http"

	"github.com/dafibh/fortuna/fortuna-ledger/internal/domain"
	"github.com/dafibh/fortuna/fortuna-ledger/internal/middleware"
	"github.com/dafibh/fortuna/fortuna-ledger/internal/service"
	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
)

// AccountHandler handles account-related HTTP requests
type AccountHandler struct {
	accountService *service.AccountService
}

// NewAccountHandler creates a new AccountHandler
func NewAccountHandler(accountService *service.AccountService) *AccountHandler {
	return &AccountHandler{accountService: accountService}
}

// CreateAccountRequest represents the create account request body
type CreateAccountRequest struct {
	Name           string `json:"name"`
	AccountType    string `json:"accountType"`
	InitialBalance string `json:"initialBalance,omitempty"`
}

// UpdateAccountRequest represents the update account request body
type UpdateAccountRequest struct {
	Name string `json:"name"`
}

// AccountResponse represents an account in API responses
type AccountResponse struct {
	ID             int32   `json:"id"`
	WorkspaceID    int32   `json:"workspaceId"`
	Name           string  `json:"name"`
	AccountType    string  `json:"accountType"`
	InitialBalance string  `json:"initialBalance"`
	Balance        string  `json:"balance"`
	CreatedAt      string  `json:"createdAt"`
	UpdatedAt      string  `json:"updatedAt"`
	DeletedAt      *string `json:"deletedAt,omitempty"`
}

// ReconcileResponse reports the result of an account balance check
type ReconcileResponse struct {
	AccountID       int32  `json:"accountId"`
	CachedBalance   string `json:"cachedBalance"`
	ComputedBalance string `json:"computedBalance"`
	Drift           string `json:"drift"`
	InSync          bool   `json:"inSync"`
	Repaired        bool   `json:"repaired"`
}

// CreateAccount handles POST /api/v1/accounts
func (h *AccountHandler) CreateAccount(c echo.Context) error {
	workspaceID := middleware.GetWorkspaceID(c)
	if workspaceID == 0 {
		return NewUnauthorizedError(c, "Workspace required")
	}

	var req CreateAccountRequest
	if err := c.Bind(&req); err != nil {
		return NewValidationError(c, "Invalid request body", nil)
	}

	initialBalance := decimal.Zero
	if req.InitialBalance != "" {
		var err error
		initialBalance, err = decimal.NewFromString(req.InitialBalance)
		if err != nil {
			return NewValidationError(c, "Invalid initial balance", []ValidationError{
				{Field: "initialBalance", Message: "Must be a valid decimal number"},
			})
		}
	}

	account, err := h.accountService.CreateAccount(c.Request().Context(), workspaceID, service.CreateAccountInput{
		Name:           req.Name,
		AccountType:    domain.AccountType(req.AccountType),
		InitialBalance: initialBalance,
	})
	if err != nil {
		return handleServiceError(c, err, workspaceID, "create account", false)
	}

	log.Info().Int32("workspace_id", workspaceID).Int32("account_id", account.ID).Str("name", account.Name).Msg("Account created")

	return c.JSON(http.StatusCreated, toAccountResponse(account))
}

// GetAccounts handles GET /api/v1/accounts
func (h *AccountHandler) GetAccounts(c echo.Context) error {
	workspaceID := middleware.GetWorkspaceID(c)
	if workspaceID == 0 {
		return NewUnauthorizedError(c, "Workspace required")
	}

	includeArchived := c.QueryParam("includeArchived") == "true"

	accounts, err := h.accountService.GetAccounts(c.Request().Context(), workspaceID, includeArchived)
	if err != nil {
		return handleServiceError(c, err, workspaceID, "get accounts", false)
	}

	response := make([]AccountResponse, len(accounts))
	for i, account := range accounts {
		response[i] = toAccountResponse(account)
	}
	return c.JSON(http.StatusOK, response)
}

// GetAccount handles GET /api/v1/accounts/:id
func (h *AccountHandler) GetAccount(c echo.Context) error {
	workspaceID := middleware.GetWorkspaceID(c)
	if workspaceID == 0 {
		return NewUnauthorizedError(c, "Workspace required")
	}

	id, ok := parseID(c, "id")
	if !ok {
		return NewValidationError(c, "Invalid account ID", nil)
	}

	account, err := h.accountService.GetAccountByID(c.Request().Context(), workspaceID, id)
	if err != nil {
		return handleServiceError(c, err, workspaceID, "get account", false)
	}
	return c.JSON(http.StatusOK, toAccountResponse(account))
}

// UpdateAccount handles PUT /api/v1/accounts/:id
func (h *AccountHandler) UpdateAccount(c echo.Context) error {
	workspaceID := middleware.GetWorkspaceID(c)
	if workspaceID == 0 {
		return NewUnauthorizedError(c, "Workspace required")
	}

	id, ok := parseID(c, "id")
	if !ok {
		return NewValidationError(c, "Invalid account ID", nil)
	}

	var req UpdateAccountRequest
	if err := c.Bind(&req); err != nil {
		return NewValidationError(c, "Invalid request body", nil)
	}

	account, err := h.accountService.UpdateAccount(c.Request().Context(), workspaceID, id, req.Name)
	if err != nil {
		return handleServiceError(c, err, workspaceID, "update account", false)
	}

	log.Info().Int32("workspace_id", workspaceID).Int32("account_id", account.ID).Msg("Account updated")

	return c.JSON(http.StatusOK, toAccountResponse(account))
}

// DeleteAccount handles DELETE /api/v1/accounts/:id
func (h *AccountHandler) DeleteAccount(c echo.Context) error {
	workspaceID := middleware.GetWorkspaceID(c)
	if workspaceID == 0 {
		return NewUnauthorizedError(c, "Workspace required")
	}

	id, ok := parseID(c, "id")
	if !ok {
		return NewValidationError(c, "Invalid account ID", nil)
	}

	if err := h.accountService.DeleteAccount(c.Request().Context(), workspaceID, id); err != nil {
		return handleServiceError(c, err, workspaceID, "delete account", false)
	}

	log.Info().Int32("workspace_id", workspaceID).Int32("account_id", id).Msg("Account archived")

	return c.NoContent(http.StatusNoContent)
}

// ReconcileAccount handles POST /api/v1/accounts/:id/reconcile?repair=true
func (h *AccountHandler) ReconcileAccount(c echo.Context) error {
	workspaceID := middleware.GetWorkspaceID(c)
	if workspaceID == 0 {
		return NewUnauthorizedError(c, "Workspace required")
	}

	id, ok := parseID(c, "id")
	if !ok {
		return NewValidationError(c, "Invalid account ID", nil)
	}

	repair := c.QueryParam("repair") == "true"

	drift, err := h.accountService.Reconcile(c.Request().Context(), workspaceID, id, repair)
	if err != nil {
		return handleServiceError(c, err, workspaceID, "reconcile account", false)
	}

	return c.JSON(http.StatusOK, ReconcileResponse{
		AccountID:       drift.AccountID,
		CachedBalance:   domain.FormatMoney(drift.CachedBalance),
		ComputedBalance: domain.FormatMoney(drift.ComputedBalance),
		Drift:           domain.FormatMoney(drift.Drift),
		InSync:          drift.InSync(),
		Repaired:        drift.Repaired,
	})
}

func toAccountResponse(a *domain.Account) AccountResponse {
	resp := AccountResponse{
		ID:             a.ID,
		WorkspaceID:    a.WorkspaceID,
		Name:           a.Name,
		AccountType:    string(a.AccountType),
		InitialBalance: domain.FormatMoney(a.InitialBalance),
		Balance:        domain.FormatMoney(a.Balance),
		CreatedAt:      formatTimestamp(a.CreatedAt),
		UpdatedAt:      formatTimestamp(a.UpdatedAt),
	}
	if a.DeletedAt != nil {
		deletedAt := formatTimestamp(*a.DeletedAt)
		resp.DeletedAt = &deletedAt
	}
	return resp
}
