package service

import (
	"context"
	"strings"

	"github.com/dafibh/fortuna/fortuna-ledger/internal/domain"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"
)

// reconcileConcurrency bounds the number of accounts reconciled at once
const reconcileConcurrency = 4

// AccountService handles account-related business logic. It never moves a balance
// except through Reconcile's repair path, which uses the same atomic adjustment as
// the ledger.
type AccountService struct {
	store  domain.Store
	logger zerolog.Logger
}

// NewAccountService creates a new AccountService
func NewAccountService(store domain.Store, logger zerolog.Logger) *AccountService {
	return &AccountService{
		store:  store,
		logger: logger.With().Str("component", "accounts").Logger(),
	}
}

// CreateAccountInput holds the input for creating an account
type CreateAccountInput struct {
	Name           string
	AccountType    domain.AccountType
	InitialBalance decimal.Decimal
}

// CreateAccount opens an account whose cached balance starts at the initial balance
func (s *AccountService) CreateAccount(ctx context.Context, workspaceID int32, input CreateAccountInput) (*domain.Account, error) {
	name, err := validateName(input.Name)
	if err != nil {
		return nil, err
	}
	if !input.AccountType.IsValid() {
		return nil, domain.ErrInvalidAccountType
	}
	if !domain.IsStorableMoney(input.InitialBalance) {
		return nil, domain.ErrInvalidBalance
	}

	return s.store.Accounts().Create(ctx, &domain.Account{
		WorkspaceID:    workspaceID,
		Name:           name,
		AccountType:    input.AccountType,
		InitialBalance: input.InitialBalance,
		Balance:        input.InitialBalance,
	})
}

// GetAccounts retrieves all accounts for a workspace
func (s *AccountService) GetAccounts(ctx context.Context, workspaceID int32, includeArchived bool) ([]*domain.Account, error) {
	return s.store.Accounts().GetAllByWorkspace(ctx, workspaceID, includeArchived)
}

// GetAccountByID retrieves an account by ID within a workspace
func (s *AccountService) GetAccountByID(ctx context.Context, workspaceID int32, id int32) (*domain.Account, error) {
	return s.store.Accounts().GetByID(ctx, workspaceID, id)
}

// UpdateAccount renames an account. Balances are not editable.
func (s *AccountService) UpdateAccount(ctx context.Context, workspaceID int32, id int32, name string) (*domain.Account, error) {
	name, err := validateName(name)
	if err != nil {
		return nil, err
	}
	return s.store.Accounts().Update(ctx, workspaceID, id, name)
}

// DeleteAccount archives an account. Its transactions stay in history.
func (s *AccountService) DeleteAccount(ctx context.Context, workspaceID int32, id int32) error {
	return s.store.Accounts().SoftDelete(ctx, workspaceID, id)
}

// Reconcile recomputes an account's balance from its initial balance and full
// transaction history and reports the drift from the cached value. With repair set,
// a non-zero drift is applied to the cached balance in the same store transaction.
// The account row stays locked while history is summed, so a mutation committing
// in between cannot be counted in the history but missing from the balance.
func (s *AccountService) Reconcile(ctx context.Context, workspaceID int32, id int32, repair bool) (*domain.BalanceDrift, error) {
	var drift *domain.BalanceDrift

	err := s.store.WithTx(ctx, func(tx domain.Store) error {
		account, err := tx.Accounts().GetByIDForUpdate(ctx, workspaceID, id)
		if err != nil {
			return err
		}
		totals, err := tx.Transactions().SumByAccount(ctx, workspaceID, id)
		if err != nil {
			return err
		}

		computed := account.InitialBalance.Add(totals.TotalIncome).Sub(totals.TotalExpense)
		drift = &domain.BalanceDrift{
			AccountID:       account.ID,
			CachedBalance:   account.Balance,
			ComputedBalance: computed,
			Drift:           computed.Sub(account.Balance),
		}

		if !repair || drift.InSync() {
			return nil
		}
		if _, err := tx.Accounts().AdjustBalance(ctx, workspaceID, id, drift.Drift); err != nil {
			return err
		}
		drift.Repaired = true
		return nil
	})
	if err != nil {
		return nil, err
	}

	if !drift.InSync() {
		s.logger.Warn().
			Int32("workspace_id", workspaceID).
			Int32("account_id", id).
			Str("cached", drift.CachedBalance.String()).
			Str("computed", drift.ComputedBalance.String()).
			Bool("repaired", drift.Repaired).
			Msg("Balance drift detected")
	}
	return drift, nil
}

// ReconcileWorkspace reconciles every live account of a workspace concurrently and
// returns the reports in account order
func (s *AccountService) ReconcileWorkspace(ctx context.Context, workspaceID int32, repair bool) ([]*domain.BalanceDrift, error) {
	accounts, err := s.store.Accounts().GetAllByWorkspace(ctx, workspaceID, false)
	if err != nil {
		return nil, err
	}

	reports := make([]*domain.BalanceDrift, len(accounts))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(reconcileConcurrency)
	for i, account := range accounts {
		i, account := i, account
		g.Go(func() error {
			report, err := s.Reconcile(gctx, workspaceID, account.ID, repair)
			if err != nil {
				return err
			}
			reports[i] = report
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return reports, nil
}

func validateName(raw string) (string, error) {
	name := strings.TrimSpace(raw)
	if name == "" {
		return "", domain.ErrNameRequired
	}
	if len(name) > domain.MaxNameLength {
		return "", domain.ErrNameTooLong
	}
	return name, nil
}
