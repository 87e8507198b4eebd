package service

import (
	"context"
	"strings"
	"time"

	"github.com/dafibh/fortuna/fortuna-ledger/internal/domain"
	"github.com/dafibh/fortuna/fortuna-ledger/internal/util"
	"github.com/shopspring/decimal"
)

// RecurringService manages recurring definitions. Materializing them is the
// RecurringScheduler's job.
type RecurringService struct {
	store domain.Store
	now   func() time.Time
}

// NewRecurringService creates a new RecurringService
func NewRecurringService(store domain.Store) *RecurringService {
	return &RecurringService{store: store, now: time.Now}
}

// CreateRecurringInput holds the input for creating a recurring definition
type CreateRecurringInput struct {
	AccountID   int32
	CategoryID  int32
	Amount      decimal.Decimal
	Type        domain.TransactionType
	Frequency   domain.Frequency
	StartDate   *time.Time // first run; defaults to today
	Description string
}

// UpdateRecurringInput is a partial update. Nil fields are left unchanged.
type UpdateRecurringInput struct {
	AccountID   *int32
	CategoryID  *int32
	Amount      *decimal.Decimal
	Type        *domain.TransactionType
	Frequency   *domain.Frequency
	NextRunDate *time.Time
	Description *string
	IsActive    *bool
}

// CreateRecurring creates an active recurring definition
func (s *RecurringService) CreateRecurring(ctx context.Context, workspaceID int32, input CreateRecurringInput) (*domain.RecurringDefinition, error) {
	start := util.DateOf(s.now())
	if input.StartDate != nil {
		start = util.DateOf(*input.StartDate)
	}

	def := &domain.RecurringDefinition{
		WorkspaceID: workspaceID,
		AccountID:   input.AccountID,
		CategoryID:  input.CategoryID,
		Amount:      input.Amount,
		Type:        input.Type,
		Frequency:   input.Frequency,
		NextRunDate: start,
		Description: strings.TrimSpace(input.Description),
		IsActive:    true,
	}
	if err := validateDefinition(def); err != nil {
		return nil, err
	}

	var created *domain.RecurringDefinition
	err := s.store.WithTx(ctx, func(tx domain.Store) error {
		if err := checkReferences(ctx, tx, workspaceID, def.AccountID, def.CategoryID, def.Type); err != nil {
			return err
		}
		var err error
		created, err = tx.Recurring().Create(ctx, def)
		return err
	})
	if err != nil {
		return nil, err
	}
	return created, nil
}

// GetRecurring retrieves a definition by ID within a workspace
func (s *RecurringService) GetRecurring(ctx context.Context, workspaceID int32, id int32) (*domain.RecurringDefinition, error) {
	return s.store.Recurring().GetByID(ctx, workspaceID, id)
}

// ListRecurring lists the definitions of a workspace
func (s *RecurringService) ListRecurring(ctx context.Context, workspaceID int32, activeOnly bool) ([]*domain.RecurringDefinition, error) {
	return s.store.Recurring().ListByWorkspace(ctx, workspaceID, activeOnly)
}

// UpdateRecurring applies a partial update to a definition. Transactions it already
// generated are not touched. Account and category are re-checked only when they, the
// type, or the active flag (on resume) change, so a definition whose account was
// archived can still be paused or edited.
func (s *RecurringService) UpdateRecurring(ctx context.Context, workspaceID int32, id int32, input UpdateRecurringInput) (*domain.RecurringDefinition, error) {
	var updated *domain.RecurringDefinition
	err := s.store.WithTx(ctx, func(tx domain.Store) error {
		current, err := tx.Recurring().GetByID(ctx, workspaceID, id)
		if err != nil {
			return err
		}

		next := applyRecurringPatch(*current, input)
		if err := validateDefinition(&next); err != nil {
			return err
		}
		if touchesReferences(current, &next) {
			if err := checkReferences(ctx, tx, workspaceID, next.AccountID, next.CategoryID, next.Type); err != nil {
				return err
			}
		}

		updated, err = tx.Recurring().Update(ctx, &next)
		return err
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

// SetActive pauses or resumes a definition
func (s *RecurringService) SetActive(ctx context.Context, workspaceID int32, id int32, active bool) (*domain.RecurringDefinition, error) {
	return s.UpdateRecurring(ctx, workspaceID, id, UpdateRecurringInput{IsActive: &active})
}

// DeleteRecurring removes a definition. Generated transactions keep their
// reference for history.
func (s *RecurringService) DeleteRecurring(ctx context.Context, workspaceID int32, id int32) error {
	return s.store.Recurring().Delete(ctx, workspaceID, id)
}

func touchesReferences(before, after *domain.RecurringDefinition) bool {
	return before.AccountID != after.AccountID ||
		before.CategoryID != after.CategoryID ||
		before.Type != after.Type ||
		(after.IsActive && !before.IsActive)
}

func applyRecurringPatch(d domain.RecurringDefinition, patch UpdateRecurringInput) domain.RecurringDefinition {
	if patch.AccountID != nil {
		d.AccountID = *patch.AccountID
	}
	if patch.CategoryID != nil {
		d.CategoryID = *patch.CategoryID
	}
	if patch.Amount != nil {
		d.Amount = *patch.Amount
	}
	if patch.Type != nil {
		d.Type = *patch.Type
	}
	if patch.Frequency != nil {
		d.Frequency = *patch.Frequency
	}
	if patch.NextRunDate != nil {
		d.NextRunDate = util.DateOf(*patch.NextRunDate)
	}
	if patch.Description != nil {
		d.Description = strings.TrimSpace(*patch.Description)
	}
	if patch.IsActive != nil {
		d.IsActive = *patch.IsActive
	}
	return d
}

func validateDefinition(d *domain.RecurringDefinition) error {
	if !domain.IsValidAmount(d.Amount) {
		return domain.ErrInvalidAmount
	}
	if !d.Type.IsValid() {
		return domain.ErrInvalidTransactionType
	}
	if !d.Frequency.IsValid() {
		return domain.ErrInvalidFrequency
	}
	if d.NextRunDate.IsZero() {
		return domain.ErrInvalidDate
	}
	if len(d.Description) > domain.MaxDescriptionLength {
		return domain.ErrDescriptionTooLong
	}
	return nil
}
