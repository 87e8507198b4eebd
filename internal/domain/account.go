package domain

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
)

type AccountType string

const (
	AccountTypeChecking AccountType = "checking"
	AccountTypeSavings  AccountType = "savings"
	AccountTypeCredit   AccountType = "credit"
)

// IsValid reports whether t is one of the supported account types
func (t AccountType) IsValid() bool {
	switch t {
	case AccountTypeChecking, AccountTypeSavings, AccountTypeCredit:
		return true
	}
	return false
}

// Account holds a cached Balance. Balance always equals InitialBalance plus the signed
// sum of the account's live transactions; only the ledger changes it.
type Account struct {
	ID             int32           `json:"id"`
	WorkspaceID    int32           `json:"workspaceId"`
	Name           string          `json:"name"`
	AccountType    AccountType     `json:"accountType"`
	InitialBalance decimal.Decimal `json:"initialBalance"`
	Balance        decimal.Decimal `json:"balance"`
	CreatedAt      time.Time       `json:"createdAt"`
	UpdatedAt      time.Time       `json:"updatedAt"`
	DeletedAt      *time.Time      `json:"deletedAt,omitempty"`
}

// BalanceDrift is the result of recomputing an account balance from its history
type BalanceDrift struct {
	AccountID       int32           `json:"accountId"`
	CachedBalance   decimal.Decimal `json:"cachedBalance"`
	ComputedBalance decimal.Decimal `json:"computedBalance"`
	Drift           decimal.Decimal `json:"drift"`
	Repaired        bool            `json:"repaired"`
}

// InSync reports whether the cached balance matches the transaction history
func (d *BalanceDrift) InSync() bool {
	return d.Drift.IsZero()
}

type AccountRepository interface {
	Create(ctx context.Context, account *Account) (*Account, error)
	GetByID(ctx context.Context, workspaceID int32, id int32) (*Account, error)
	// GetByIDForUpdate reads an account and holds its row lock until the store
	// transaction ends, blocking concurrent balance adjustments of that account.
	GetByIDForUpdate(ctx context.Context, workspaceID int32, id int32) (*Account, error)
	GetAllByWorkspace(ctx context.Context, workspaceID int32, includeArchived bool) ([]*Account, error)
	Update(ctx context.Context, workspaceID int32, id int32, name string) (*Account, error)
	SoftDelete(ctx context.Context, workspaceID int32, id int32) error
	// AdjustBalance atomically adds delta to the stored balance and returns the
	// updated account. It never reads the balance into application code first.
	AdjustBalance(ctx context.Context, workspaceID int32, id int32, delta decimal.Decimal) (*Account, error)
}
