package domain

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
)

type TransactionType string

const (
	TransactionTypeIncome  TransactionType = "income"
	TransactionTypeExpense TransactionType = "expense"
)

// IsValid reports whether t is income or expense
func (t TransactionType) IsValid() bool {
	return t == TransactionTypeIncome || t == TransactionTypeExpense
}

// SignedAmount returns the balance delta of amount under type t:
// +amount for income, -amount for expense.
func (t TransactionType) SignedAmount(amount decimal.Decimal) decimal.Decimal {
	if t == TransactionTypeIncome {
		return amount
	}
	return amount.Neg()
}

type Transaction struct {
	ID          int32           `json:"id"`
	WorkspaceID int32           `json:"workspaceId"`
	AccountID   int32           `json:"accountId"`
	CategoryID  int32           `json:"categoryId"`
	Amount      decimal.Decimal `json:"amount"`
	Type        TransactionType `json:"type"`
	Date        time.Time       `json:"date"`
	Description string          `json:"description"`
	RecurringID *int32          `json:"recurringId,omitempty"`
	CreatedAt   time.Time       `json:"createdAt"`
	UpdatedAt   time.Time       `json:"updatedAt"`
}

// Delta is the signed contribution of the transaction to its account balance
func (t *Transaction) Delta() decimal.Decimal {
	return t.Type.SignedAmount(t.Amount)
}

type TransactionFilters struct {
	AccountID  *int32
	CategoryID *int32
	StartDate  *time.Time
	EndDate    *time.Time
	Type       *TransactionType
	Page       int32
	PageSize   int32
}

const (
	DefaultPageSize = 20
	MaxPageSize     = 100
)

// PageOffset is the number of rows before page. It is computed in int64 since
// page*pageSize overflows int32 for large page numbers.
func PageOffset(page, pageSize int32) int64 {
	return (int64(page) - 1) * int64(pageSize)
}

type PaginatedTransactions struct {
	Data       []*Transaction `json:"data"`
	Page       int32          `json:"page"`
	PageSize   int32          `json:"pageSize"`
	TotalItems int64          `json:"totalItems"`
	TotalPages int32          `json:"totalPages"`
}

// AccountTotals holds the summed income and expense of one account's live transactions
type AccountTotals struct {
	AccountID    int32
	TotalIncome  decimal.Decimal
	TotalExpense decimal.Decimal
}

type TransactionRepository interface {
	Create(ctx context.Context, transaction *Transaction) (*Transaction, error)
	GetByID(ctx context.Context, workspaceID int32, id int32) (*Transaction, error)
	GetByWorkspace(ctx context.Context, workspaceID int32, filters *TransactionFilters) (*PaginatedTransactions, error)
	ListByDateRange(ctx context.Context, workspaceID int32, startDate, endDate time.Time) ([]*Transaction, error)
	Update(ctx context.Context, transaction *Transaction) (*Transaction, error)
	Delete(ctx context.Context, workspaceID int32, id int32) error
	SumByAccount(ctx context.Context, workspaceID int32, accountID int32) (*AccountTotals, error)
}
