package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/dafibh/fortuna/fortuna-ledger/internal/domain"
	"github.com/dafibh/fortuna/fortuna-ledger/internal/util"
	"github.com/dafibh/fortuna/fortuna-ledger/internal/websocket"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

// LedgerConfig controls how the ledger reacts to lost storage races
type LedgerConfig struct {
	MaxConflictRetries int           // Extra attempts after ErrConcurrentUpdateConflict
	RetryBackoff       time.Duration // Multiplied by the attempt number between attempts
}

// DefaultLedgerConfig returns the settings used when none are configured
func DefaultLedgerConfig() LedgerConfig {
	return LedgerConfig{
		MaxConflictRetries: 3,
		RetryBackoff:       25 * time.Millisecond,
	}
}

// LedgerService is the only writer of transactions and account balances. Every
// mutation inserts, changes or removes the transaction row and applies the matching
// balance delta inside one store transaction.
type LedgerService struct {
	store          domain.Store
	config         LedgerConfig
	logger         zerolog.Logger
	eventPublisher websocket.EventPublisher
	now            func() time.Time
}

// NewLedgerService creates a new LedgerService
func NewLedgerService(store domain.Store, logger zerolog.Logger, config LedgerConfig) *LedgerService {
	if config.MaxConflictRetries < 0 {
		config.MaxConflictRetries = 0
	}
	return &LedgerService{
		store:  store,
		config: config,
		logger: logger.With().Str("component", "ledger").Logger(),
		now:    time.Now,
	}
}

// SetEventPublisher sets the publisher notified after each committed mutation
func (s *LedgerService) SetEventPublisher(publisher websocket.EventPublisher) {
	s.eventPublisher = publisher
}

func (s *LedgerService) publishEvent(workspaceID int32, event websocket.Event) {
	if s.eventPublisher != nil {
		s.eventPublisher.Publish(workspaceID, event)
	}
}

func (s *LedgerService) publishBalances(accounts []*domain.Account) {
	for _, account := range accounts {
		s.publishEvent(account.WorkspaceID, websocket.AccountBalanceChanged(account))
	}
}

// CreateTransactionInput holds the input for recording a transaction
type CreateTransactionInput struct {
	AccountID   int32
	CategoryID  int32
	Amount      decimal.Decimal
	Type        domain.TransactionType
	Date        *time.Time // defaults to today
	Description string
}

// UpdateTransactionInput is a partial update. Nil fields are left unchanged.
type UpdateTransactionInput struct {
	AccountID   *int32
	CategoryID  *int32
	Amount      *decimal.Decimal
	Type        *domain.TransactionType
	Date        *time.Time
	Description *string
}

// CreateTransaction validates and records a transaction, moving the account balance
// by its signed amount
func (s *LedgerService) CreateTransaction(ctx context.Context, workspaceID int32, input CreateTransactionInput) (*domain.Transaction, error) {
	date := util.DateOf(s.now())
	if input.Date != nil {
		date = util.DateOf(*input.Date)
	}

	draft := &domain.Transaction{
		WorkspaceID: workspaceID,
		AccountID:   input.AccountID,
		CategoryID:  input.CategoryID,
		Amount:      input.Amount,
		Type:        input.Type,
		Date:        date,
		Description: strings.TrimSpace(input.Description),
	}
	if err := validateTransaction(draft); err != nil {
		return nil, err
	}

	var created *domain.Transaction
	var account *domain.Account
	err := s.withRetry(ctx, "create", func(tx domain.Store) error {
		var err error
		created, account, err = s.create(ctx, tx, draft)
		return err
	})
	if err != nil {
		return nil, err
	}

	s.publishEvent(workspaceID, websocket.TransactionCreated(created))
	s.publishBalances([]*domain.Account{account})
	return created, nil
}

// create records draft against tx. It is shared with the recurring scheduler so a
// generated transaction joins the scheduler's unit of work.
func (s *LedgerService) create(ctx context.Context, tx domain.Store, draft *domain.Transaction) (*domain.Transaction, *domain.Account, error) {
	if err := checkReferences(ctx, tx, draft.WorkspaceID, draft.AccountID, draft.CategoryID, draft.Type); err != nil {
		return nil, nil, err
	}

	row := *draft
	created, err := tx.Transactions().Create(ctx, &row)
	if err != nil {
		return nil, nil, err
	}

	account, err := tx.Accounts().AdjustBalance(ctx, created.WorkspaceID, created.AccountID, created.Delta())
	if err != nil {
		return nil, nil, err
	}
	return created, account, nil
}

// UpdateTransaction applies a partial update. When the account is unchanged only the
// net difference of the signed amounts is applied; moving to another account reverts
// the old contribution there and applies the new one on the target.
func (s *LedgerService) UpdateTransaction(ctx context.Context, workspaceID int32, id int32, input UpdateTransactionInput) (*domain.Transaction, error) {
	var updated *domain.Transaction
	var touched []*domain.Account

	err := s.withRetry(ctx, "update", func(tx domain.Store) error {
		touched = nil

		before, err := tx.Transactions().GetByID(ctx, workspaceID, id)
		if err != nil {
			return err
		}

		after := applyTransactionPatch(*before, input)
		if err := validateTransaction(&after); err != nil {
			return err
		}
		if err := checkReferences(ctx, tx, workspaceID, after.AccountID, after.CategoryID, after.Type); err != nil {
			return err
		}

		updated, err = tx.Transactions().Update(ctx, &after)
		if err != nil {
			return err
		}

		if before.AccountID == updated.AccountID {
			net := updated.Delta().Sub(before.Delta())
			if net.IsZero() {
				return nil
			}
			account, err := tx.Accounts().AdjustBalance(ctx, workspaceID, updated.AccountID, net)
			if err != nil {
				return err
			}
			touched = append(touched, account)
			return nil
		}

		source, err := tx.Accounts().AdjustBalance(ctx, workspaceID, before.AccountID, before.Delta().Neg())
		if err != nil {
			return err
		}
		target, err := tx.Accounts().AdjustBalance(ctx, workspaceID, updated.AccountID, updated.Delta())
		if err != nil {
			return err
		}
		touched = append(touched, source, target)
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.publishEvent(workspaceID, websocket.TransactionUpdated(updated))
	s.publishBalances(touched)
	return updated, nil
}

// DeleteTransaction removes a transaction and reverts its contribution
func (s *LedgerService) DeleteTransaction(ctx context.Context, workspaceID int32, id int32) error {
	var removed *domain.Transaction
	var account *domain.Account

	err := s.withRetry(ctx, "delete", func(tx domain.Store) error {
		var err error
		removed, err = tx.Transactions().GetByID(ctx, workspaceID, id)
		if err != nil {
			return err
		}
		if err := tx.Transactions().Delete(ctx, workspaceID, id); err != nil {
			return err
		}
		account, err = tx.Accounts().AdjustBalance(ctx, workspaceID, removed.AccountID, removed.Delta().Neg())
		return err
	})
	if err != nil {
		return err
	}

	s.publishEvent(workspaceID, websocket.TransactionDeleted(removed))
	s.publishBalances([]*domain.Account{account})
	return nil
}

// GetTransaction returns one transaction owned by the workspace
func (s *LedgerService) GetTransaction(ctx context.Context, workspaceID int32, id int32) (*domain.Transaction, error) {
	return s.store.Transactions().GetByID(ctx, workspaceID, id)
}

// ListTransactions returns a filtered, paginated page of transactions
func (s *LedgerService) ListTransactions(ctx context.Context, workspaceID int32, filters *domain.TransactionFilters) (*domain.PaginatedTransactions, error) {
	if filters == nil {
		filters = &domain.TransactionFilters{}
	}
	if filters.StartDate != nil && filters.EndDate != nil && filters.EndDate.Before(*filters.StartDate) {
		return nil, domain.ErrInvalidDate
	}
	if filters.Type != nil && !filters.Type.IsValid() {
		return nil, domain.ErrInvalidTransactionType
	}
	return s.store.Transactions().GetByWorkspace(ctx, workspaceID, filters)
}

// withRetry runs fn in a store transaction, starting over when the store reports a
// lost race. Any other error is returned as is.
func (s *LedgerService) withRetry(ctx context.Context, op string, fn func(tx domain.Store) error) error {
	var err error
	for attempt := 0; attempt <= s.config.MaxConflictRetries; attempt++ {
		if attempt > 0 {
			s.logger.Warn().
				Str("op", op).
				Int("attempt", attempt).
				Msg("Retrying ledger mutation after conflict")

			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(s.config.RetryBackoff * time.Duration(attempt)):
			}
		}

		err = s.store.WithTx(ctx, fn)
		if !errors.Is(err, domain.ErrConcurrentUpdateConflict) {
			return err
		}
	}

	s.logger.Error().Err(err).Str("op", op).Msg("Ledger mutation kept conflicting")
	return err
}

func applyTransactionPatch(t domain.Transaction, patch UpdateTransactionInput) domain.Transaction {
	if patch.AccountID != nil {
		t.AccountID = *patch.AccountID
	}
	if patch.CategoryID != nil {
		t.CategoryID = *patch.CategoryID
	}
	if patch.Amount != nil {
		t.Amount = *patch.Amount
	}
	if patch.Type != nil {
		t.Type = *patch.Type
	}
	if patch.Date != nil {
		t.Date = util.DateOf(*patch.Date)
	}
	if patch.Description != nil {
		t.Description = strings.TrimSpace(*patch.Description)
	}
	return t
}

func validateTransaction(t *domain.Transaction) error {
	if !domain.IsValidAmount(t.Amount) {
		return domain.ErrInvalidAmount
	}
	if !t.Type.IsValid() {
		return domain.ErrInvalidTransactionType
	}
	if t.Date.IsZero() {
		return domain.ErrInvalidDate
	}
	if len(t.Description) > domain.MaxDescriptionLength {
		return domain.ErrDescriptionTooLong
	}
	return nil
}

// checkReferences verifies that the account and category exist in the workspace and
// that the category kind matches the transaction type
func checkReferences(ctx context.Context, store domain.Store, workspaceID, accountID, categoryID int32, txType domain.TransactionType) error {
	if _, err := store.Accounts().GetByID(ctx, workspaceID, accountID); err != nil {
		return err
	}
	category, err := store.Categories().GetByID(ctx, workspaceID, categoryID)
	if err != nil {
		return err
	}
	if category.Type != txType {
		return domain.ErrCategoryTypeMismatch
	}
	return nil
}
