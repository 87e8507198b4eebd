package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/dafibh/fortuna/fortuna-ledger/internal/domain"
	"github.com/dafibh/fortuna/fortuna-ledger/internal/middleware"
	"github.com/dafibh/fortuna/fortuna-ledger/internal/service"
	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
)

// GenerationRunner runs one recurring generation pass. *service.SchedulerWorker
// implements it.
type GenerationRunner interface {
	RunOnce(ctx context.Context) (*domain.GenerationResult, error)
}

// RecurringHandler handles recurring definition HTTP requests
type RecurringHandler struct {
	recurringService *service.RecurringService
	runner           GenerationRunner
}

// NewRecurringHandler creates a new RecurringHandler
func NewRecurringHandler(recurringService *service.RecurringService, runner GenerationRunner) *RecurringHandler {
	return &RecurringHandler{
		recurringService: recurringService,
		runner:           runner,
	}
}

// CreateRecurringRequest represents the create recurring definition request body
type CreateRecurringRequest struct {
	AccountID   int32   `json:"accountId"`
	CategoryID  int32   `json:"categoryId"`
	Amount      string  `json:"amount"`
	Type        string  `json:"type"`
	Frequency   string  `json:"frequency"`
	StartDate   *string `json:"startDate,omitempty"`
	Description string  `json:"description"`
}

// UpdateRecurringRequest represents the update recurring definition request body
type UpdateRecurringRequest struct {
	AccountID   *int32  `json:"accountId,omitempty"`
	CategoryID  *int32  `json:"categoryId,omitempty"`
	Amount      *string `json:"amount,omitempty"`
	Type        *string `json:"type,omitempty"`
	Frequency   *string `json:"frequency,omitempty"`
	NextRunDate *string `json:"nextRunDate,omitempty"`
	Description *string `json:"description,omitempty"`
	IsActive    *bool   `json:"isActive,omitempty"`
}

// ToggleActiveRequest pauses or resumes a definition
type ToggleActiveRequest struct {
	IsActive bool `json:"isActive"`
}

// RecurringResponse represents a recurring definition in API responses
type RecurringResponse struct {
	ID          int32  `json:"id"`
	WorkspaceID int32  `json:"workspaceId"`
	AccountID   int32  `json:"accountId"`
	CategoryID  int32  `json:"categoryId"`
	Amount      string `json:"amount"`
	Type        string `json:"type"`
	Frequency   string `json:"frequency"`
	NextRunDate string `json:"nextRunDate"`
	Description string `json:"description"`
	IsActive    bool   `json:"isActive"`
	CreatedAt   string `json:"createdAt"`
	UpdatedAt   string `json:"updatedAt"`
}

// GenerationFailureResponse describes a definition that could not be materialized
type GenerationFailureResponse struct {
	DefinitionID int32  `json:"definitionId"`
	Error        string `json:"error"`
}

// GenerationResponse reports the caller's share of a generation pass
type GenerationResponse struct {
	GeneratedCount int                         `json:"generatedCount"`
	SkippedCount   int                         `json:"skippedCount"`
	Transactions   []TransactionResponse       `json:"transactions"`
	Failures       []GenerationFailureResponse `json:"failures"`
}

// CreateRecurring handles POST /api/v1/recurring
func (h *RecurringHandler) CreateRecurring(c echo.Context) error {
	workspaceID := middleware.GetWorkspaceID(c)
	if workspaceID == 0 {
		return NewUnauthorizedError(c, "Workspace required")
	}

	var req CreateRecurringRequest
	if err := c.Bind(&req); err != nil {
		return NewValidationError(c, "Invalid request body", nil)
	}

	amount, err := decimal.NewFromString(req.Amount)
	if err != nil {
		return NewValidationError(c, "Invalid amount", []ValidationError{
			{Field: "amount", Message: "Must be a valid decimal number"},
		})
	}

	var startDate *time.Time
	if req.StartDate != nil && *req.StartDate != "" {
		parsed, err := parseDate(*req.StartDate)
		if err != nil {
			return NewValidationError(c, "Invalid start date", []ValidationError{
				{Field: "startDate", Message: "Must be in YYYY-MM-DD format"},
			})
		}
		startDate = &parsed
	}

	def, err := h.recurringService.CreateRecurring(c.Request().Context(), workspaceID, service.CreateRecurringInput{
		AccountID:   req.AccountID,
		CategoryID:  req.CategoryID,
		Amount:      amount,
		Type:        domain.TransactionType(req.Type),
		Frequency:   domain.Frequency(req.Frequency),
		StartDate:   startDate,
		Description: req.Description,
	})
	if err != nil {
		return handleServiceError(c, err, workspaceID, "create recurring definition", true)
	}

	log.Info().Int32("workspace_id", workspaceID).Int32("recurring_id", def.ID).Str("frequency", string(def.Frequency)).Msg("Recurring definition created")

	return c.JSON(http.StatusCreated, toRecurringResponse(def))
}

// GetRecurringList handles GET /api/v1/recurring?active=true
func (h *RecurringHandler) GetRecurringList(c echo.Context) error {
	workspaceID := middleware.GetWorkspaceID(c)
	if workspaceID == 0 {
		return NewUnauthorizedError(c, "Workspace required")
	}

	activeOnly := c.QueryParam("active") == "true"

	defs, err := h.recurringService.ListRecurring(c.Request().Context(), workspaceID, activeOnly)
	if err != nil {
		return handleServiceError(c, err, workspaceID, "get recurring definitions", false)
	}

	response := make([]RecurringResponse, len(defs))
	for i, def := range defs {
		response[i] = toRecurringResponse(def)
	}
	return c.JSON(http.StatusOK, response)
}

// GetRecurring handles GET /api/v1/recurring/:id
func (h *RecurringHandler) GetRecurring(c echo.Context) error {
	workspaceID := middleware.GetWorkspaceID(c)
	if workspaceID == 0 {
		return NewUnauthorizedError(c, "Workspace required")
	}

	id, ok := parseID(c, "id")
	if !ok {
		return NewValidationError(c, "Invalid recurring definition ID", nil)
	}

	def, err := h.recurringService.GetRecurring(c.Request().Context(), workspaceID, id)
	if err != nil {
		return handleServiceError(c, err, workspaceID, "get recurring definition", false)
	}
	return c.JSON(http.StatusOK, toRecurringResponse(def))
}

// UpdateRecurring handles PUT /api/v1/recurring/:id
func (h *RecurringHandler) UpdateRecurring(c echo.Context) error {
	workspaceID := middleware.GetWorkspaceID(c)
	if workspaceID == 0 {
		return NewUnauthorizedError(c, "Workspace required")
	}

	id, ok := parseID(c, "id")
	if !ok {
		return NewValidationError(c, "Invalid recurring definition ID", nil)
	}

	var req UpdateRecurringRequest
	if err := c.Bind(&req); err != nil {
		return NewValidationError(c, "Invalid request body", nil)
	}

	input := service.UpdateRecurringInput{
		AccountID:   req.AccountID,
		CategoryID:  req.CategoryID,
		Description: req.Description,
		IsActive:    req.IsActive,
	}
	if req.Amount != nil {
		amount, err := decimal.NewFromString(*req.Amount)
		if err != nil {
			return NewValidationError(c, "Invalid amount", []ValidationError{
				{Field: "amount", Message: "Must be a valid decimal number"},
			})
		}
		input.Amount = &amount
	}
	if req.Type != nil {
		txType := domain.TransactionType(*req.Type)
		input.Type = &txType
	}
	if req.Frequency != nil {
		frequency := domain.Frequency(*req.Frequency)
		input.Frequency = &frequency
	}
	if req.NextRunDate != nil {
		next, err := parseDate(*req.NextRunDate)
		if err != nil {
			return NewValidationError(c, "Invalid next run date", []ValidationError{
				{Field: "nextRunDate", Message: "Must be in YYYY-MM-DD format"},
			})
		}
		input.NextRunDate = &next
	}

	def, err := h.recurringService.UpdateRecurring(c.Request().Context(), workspaceID, id, input)
	if err != nil {
		return handleServiceError(c, err, workspaceID, "update recurring definition", true)
	}
	return c.JSON(http.StatusOK, toRecurringResponse(def))
}

// ToggleActive handles PATCH /api/v1/recurring/:id/active
func (h *RecurringHandler) ToggleActive(c echo.Context) error {
	workspaceID := middleware.GetWorkspaceID(c)
	if workspaceID == 0 {
		return NewUnauthorizedError(c, "Workspace required")
	}

	id, ok := parseID(c, "id")
	if !ok {
		return NewValidationError(c, "Invalid recurring definition ID", nil)
	}

	var req ToggleActiveRequest
	if err := c.Bind(&req); err != nil {
		return NewValidationError(c, "Invalid request body", nil)
	}

	def, err := h.recurringService.SetActive(c.Request().Context(), workspaceID, id, req.IsActive)
	if err != nil {
		return handleServiceError(c, err, workspaceID, "toggle recurring definition", false)
	}

	statusText := "paused"
	if def.IsActive {
		statusText = "resumed"
	}
	log.Info().Int32("workspace_id", workspaceID).Int32("recurring_id", def.ID).Str("status", statusText).Msg("Recurring definition toggled")

	return c.JSON(http.StatusOK, toRecurringResponse(def))
}

// DeleteRecurring handles DELETE /api/v1/recurring/:id
func (h *RecurringHandler) DeleteRecurring(c echo.Context) error {
	workspaceID := middleware.GetWorkspaceID(c)
	if workspaceID == 0 {
		return NewUnauthorizedError(c, "Workspace required")
	}

	id, ok := parseID(c, "id")
	if !ok {
		return NewValidationError(c, "Invalid recurring definition ID", nil)
	}

	if err := h.recurringService.DeleteRecurring(c.Request().Context(), workspaceID, id); err != nil {
		return handleServiceError(c, err, workspaceID, "delete recurring definition", false)
	}
	return c.NoContent(http.StatusNoContent)
}

// RunDue handles POST /api/v1/recurring/run. The pass covers every workspace, but
// the response only reports the caller's transactions and failures.
func (h *RecurringHandler) RunDue(c echo.Context) error {
	workspaceID := middleware.GetWorkspaceID(c)
	if workspaceID == 0 {
		return NewUnauthorizedError(c, "Workspace required")
	}

	result, err := h.runner.RunOnce(c.Request().Context())
	if err != nil {
		return handleServiceError(c, err, workspaceID, "run recurring generation", false)
	}

	resp := GenerationResponse{
		SkippedCount: result.Skipped,
		Transactions: []TransactionResponse{},
		Failures:     []GenerationFailureResponse{},
	}
	for _, t := range result.Transactions {
		if t.WorkspaceID == workspaceID {
			resp.Transactions = append(resp.Transactions, toTransactionResponse(t))
		}
	}
	resp.GeneratedCount = len(resp.Transactions)
	for _, f := range result.Failures {
		if f.WorkspaceID == workspaceID {
			resp.Failures = append(resp.Failures, GenerationFailureResponse{
				DefinitionID: f.DefinitionID,
				Error:        f.Err.Error(),
			})
		}
	}

	log.Info().Int32("workspace_id", workspaceID).Int("generated", resp.GeneratedCount).Int("failed", len(resp.Failures)).Msg("Manual recurring generation")

	return c.JSON(http.StatusOK, resp)
}

func toRecurringResponse(d *domain.RecurringDefinition) RecurringResponse {
	return RecurringResponse{
		ID:          d.ID,
		WorkspaceID: d.WorkspaceID,
		AccountID:   d.AccountID,
		CategoryID:  d.CategoryID,
		Amount:      domain.FormatMoney(d.Amount),
		Type:        string(d.Type),
		Frequency:   string(d.Frequency),
		NextRunDate: d.NextRunDate.Format(dateLayout),
		Description: d.Description,
		IsActive:    d.IsActive,
		CreatedAt:   formatTimestamp(d.CreatedAt),
		UpdatedAt:   formatTimestamp(d.UpdatedAt),
	}
}
