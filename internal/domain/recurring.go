package domain

import (
	"context"
	"time"

	"github.com/dafibh/fortuna/fortuna-ledger/internal/util"
	"github.com/shopspring/decimal"
)

type Frequency string

const (
	FrequencyDaily   Frequency = "daily"
	FrequencyWeekly  Frequency = "weekly"
	FrequencyMonthly Frequency = "monthly"
)

// IsValid reports whether f is a supported recurrence period
func (f Frequency) IsValid() bool {
	switch f {
	case FrequencyDaily, FrequencyWeekly, FrequencyMonthly:
		return true
	}
	return false
}

// Next returns the occurrence after from. Monthly advancement clamps to the last day
// of the target month, so Jan 31 becomes Feb 28 (or Feb 29 in a leap year).
func (f Frequency) Next(from time.Time) (time.Time, error) {
	switch f {
	case FrequencyDaily:
		return from.AddDate(0, 0, 1), nil
	case FrequencyWeekly:
		return from.AddDate(0, 0, 7), nil
	case FrequencyMonthly:
		return util.AddMonthsClamped(from, 1), nil
	}
	return time.Time{}, ErrInvalidFrequency
}

// RecurringDefinition is a template that the scheduler materializes into a
// transaction every time NextRunDate is reached.
type RecurringDefinition struct {
	ID          int32           `json:"id"`
	WorkspaceID int32           `json:"workspaceId"`
	AccountID   int32           `json:"accountId"`
	CategoryID  int32           `json:"categoryId"`
	Amount      decimal.Decimal `json:"amount"`
	Description string          `json:"description"`
	Type        TransactionType `json:"type"`
	Frequency   Frequency       `json:"frequency"`
	NextRunDate time.Time       `json:"nextRunDate"`
	IsActive    bool            `json:"isActive"`
	CreatedAt   time.Time       `json:"createdAt"`
	UpdatedAt   time.Time       `json:"updatedAt"`
}

// IsDue reports whether the definition should generate at now
func (d *RecurringDefinition) IsDue(now time.Time) bool {
	return d.IsActive && !d.NextRunDate.After(now)
}

// GenerationResult summarizes one generation pass
type GenerationResult struct {
	GeneratedCount int                  `json:"generatedCount"`
	Transactions   []*Transaction       `json:"transactions"`
	Failures       []*GenerationFailure `json:"failures"`
	Skipped        int                  `json:"skipped"`
}

type RecurringRepository interface {
	Create(ctx context.Context, def *RecurringDefinition) (*RecurringDefinition, error)
	GetByID(ctx context.Context, workspaceID int32, id int32) (*RecurringDefinition, error)
	ListByWorkspace(ctx context.Context, workspaceID int32, activeOnly bool) ([]*RecurringDefinition, error)
	Update(ctx context.Context, def *RecurringDefinition) (*RecurringDefinition, error)
	Delete(ctx context.Context, workspaceID int32, id int32) error
	// ListDue returns active definitions with NextRunDate <= now across all workspaces,
	// ordered by NextRunDate then ID.
	ListDue(ctx context.Context, now time.Time) ([]*RecurringDefinition, error)
	// ClaimDue re-reads the definition and locks it for the rest of the enclosing
	// store transaction. It returns ErrNotDue if it is no longer due at now.
	ClaimDue(ctx context.Context, id int32, now time.Time) (*RecurringDefinition, error)
	// AdvanceNextRun moves NextRunDate from `from` to `to`. It returns
	// ErrConcurrentUpdateConflict if the stored date is no longer `from`.
	AdvanceNextRun(ctx context.Context, id int32, from, to time.Time) error
}
