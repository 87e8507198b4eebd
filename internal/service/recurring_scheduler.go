package service

import (
	"context"
	"errors"
	"time"

	"github.com/dafibh/fortuna/fortuna-ledger/internal/domain"
	"github.com/dafibh/fortuna/fortuna-ledger/internal/util"
	"github.com/dafibh/fortuna/fortuna-ledger/internal/websocket"
	"github.com/rs/zerolog"
)

// RecurringScheduler materializes due recurring definitions into transactions
type RecurringScheduler struct {
	store          domain.Store
	ledger         *LedgerService
	logger         zerolog.Logger
	eventPublisher websocket.EventPublisher
}

// NewRecurringScheduler creates a new RecurringScheduler
func NewRecurringScheduler(store domain.Store, ledger *LedgerService, logger zerolog.Logger) *RecurringScheduler {
	return &RecurringScheduler{
		store:  store,
		ledger: ledger,
		logger: logger.With().Str("component", "recurring_scheduler").Logger(),
	}
}

// SetEventPublisher sets the publisher notified for every generated transaction
func (s *RecurringScheduler) SetEventPublisher(publisher websocket.EventPublisher) {
	s.eventPublisher = publisher
}

// ListDue returns the active definitions of every workspace whose next run is at or
// before now, oldest first
func (s *RecurringScheduler) ListDue(ctx context.Context, now time.Time) ([]*domain.RecurringDefinition, error) {
	return s.store.Recurring().ListDue(ctx, now)
}

// GenerateDue runs one generation pass. Each due definition produces at most one
// transaction, in its own store transaction together with the advance of its
// schedule. A definition that fails is recorded in the result and left as it was;
// the pass moves on to the next one.
func (s *RecurringScheduler) GenerateDue(ctx context.Context, now time.Time) (*domain.GenerationResult, error) {
	due, err := s.ListDue(ctx, now)
	if err != nil {
		return nil, err
	}

	result := &domain.GenerationResult{
		Transactions: make([]*domain.Transaction, 0, len(due)),
		Failures:     make([]*domain.GenerationFailure, 0),
	}

	for _, def := range due {
		if err := ctx.Err(); err != nil {
			return result, err
		}

		created, account, err := s.generate(ctx, def.ID, now)
		switch {
		case errors.Is(err, domain.ErrNotDue):
			result.Skipped++
		case err != nil:
			s.logger.Warn().
				Err(err).
				Int32("definition_id", def.ID).
				Int32("workspace_id", def.WorkspaceID).
				Msg("Recurring generation failed")
			result.Failures = append(result.Failures, &domain.GenerationFailure{
				DefinitionID: def.ID,
				WorkspaceID:  def.WorkspaceID,
				Err:          err,
			})
		default:
			result.GeneratedCount++
			result.Transactions = append(result.Transactions, created)
			s.publish(created, account)
		}
	}

	return result, nil
}

// generate claims one definition, records its transaction and advances its schedule.
// All three steps commit together or not at all.
func (s *RecurringScheduler) generate(ctx context.Context, id int32, now time.Time) (*domain.Transaction, *domain.Account, error) {
	var created *domain.Transaction
	var account *domain.Account

	err := s.store.WithTx(ctx, func(tx domain.Store) error {
		def, err := tx.Recurring().ClaimDue(ctx, id, now)
		if err != nil {
			return err
		}

		next, err := def.Frequency.Next(def.NextRunDate)
		if err != nil {
			return err
		}

		recurringID := def.ID
		draft := &domain.Transaction{
			WorkspaceID: def.WorkspaceID,
			AccountID:   def.AccountID,
			CategoryID:  def.CategoryID,
			Amount:      def.Amount,
			Type:        def.Type,
			Date:        util.DateOf(now),
			Description: def.Description,
			RecurringID: &recurringID,
		}
		if err := validateTransaction(draft); err != nil {
			return err
		}

		created, account, err = s.ledger.create(ctx, tx, draft)
		if err != nil {
			return err
		}

		return tx.Recurring().AdvanceNextRun(ctx, def.ID, def.NextRunDate, next)
	})
	if err != nil {
		return nil, nil, err
	}
	return created, account, nil
}

func (s *RecurringScheduler) publish(created *domain.Transaction, account *domain.Account) {
	if s.eventPublisher == nil {
		return
	}
	s.eventPublisher.Publish(created.WorkspaceID, websocket.RecurringGenerated(created))
	s.eventPublisher.Publish(created.WorkspaceID, websocket.TransactionCreated(created))
	s.eventPublisher.Publish(account.WorkspaceID, websocket.AccountBalanceChanged(account))
}
