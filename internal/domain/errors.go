package domain

import (
	"errors"
	"fmt"
)

// Domain errors
var (
	ErrNotFound         = errors.New("resource not found")
	ErrAlreadyExists    = errors.New("resource already exists")
	ErrInvalidInput     = errors.New("invalid input")
	ErrInvalidReference = errors.New("invalid reference")
	ErrUnauthorized     = errors.New("unauthorized")

	ErrWorkspaceNotFound   = fmt.Errorf("workspace %w", ErrNotFound)
	ErrAccountNotFound     = fmt.Errorf("account %w", ErrNotFound)
	ErrCategoryNotFound    = fmt.Errorf("category %w", ErrNotFound)
	ErrTransactionNotFound = fmt.Errorf("transaction %w", ErrNotFound)
	ErrRecurringNotFound   = fmt.Errorf("recurring definition %w", ErrNotFound)
	ErrBudgetNotFound      = fmt.Errorf("budget %w", ErrNotFound)

	ErrNameRequired           = errors.New("name is required")
	ErrNameTooLong            = errors.New("name exceeds maximum length")
	ErrDescriptionTooLong     = errors.New("description exceeds maximum length")
	ErrInvalidAmount          = errors.New("amount must be a positive decimal with at most 4 fractional digits")
	ErrInvalidBalance         = errors.New("balance must have at most 4 fractional digits and 15 integer digits")
	ErrInvalidTransactionType = errors.New("invalid transaction type")
	ErrInvalidAccountType     = errors.New("invalid account type")
	ErrInvalidFrequency       = errors.New("invalid frequency")
	ErrInvalidDate            = errors.New("invalid date")
	ErrInvalidPeriod          = errors.New("invalid budget period")
	ErrCategoryTypeMismatch   = fmt.Errorf("category type does not match transaction type: %w", ErrInvalidReference)
	ErrCategoryInUse          = errors.New("category is referenced by transactions")

	// ErrConcurrentUpdateConflict is returned by a store when a mutation lost a race
	// (serialization failure, deadlock, or a failed compare-and-set). The unit of work
	// was rolled back and may be retried.
	ErrConcurrentUpdateConflict = errors.New("concurrent update conflict")

	// ErrNotDue is returned by RecurringRepository.ClaimDue when the definition is no
	// longer due (paused, deleted, or already advanced by another pass).
	ErrNotDue = errors.New("recurring definition is not due")

	ErrGenerationFailed = errors.New("recurring generation failed")
)

// Validation constants
const (
	MaxNameLength        = 255
	MaxDescriptionLength = 1000
)

// GenerationFailure describes one recurring definition that could not be materialized
// during a generation pass. Its schedule was left untouched.
type GenerationFailure struct {
	DefinitionID int32 `json:"definitionId"`
	WorkspaceID  int32 `json:"workspaceId"`
	Err          error `json:"-"`
}

func (f *GenerationFailure) Error() string {
	return fmt.Sprintf("recurring definition %d: %v", f.DefinitionID, f.Err)
}

// Is makes errors.Is(err, ErrGenerationFailed) true for every failure
func (f *GenerationFailure) Is(target error) bool {
	return target == ErrGenerationFailed
}

func (f *GenerationFailure) Unwrap() error {
	return f.Err
}
