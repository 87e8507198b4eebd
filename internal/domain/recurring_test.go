package domain

import (
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
)

func TestFrequencyConstants(t *testing.T) {
	tests := []struct {
		name      string
		frequency Frequency
		expected  string
	}{
		{"daily frequency", FrequencyDaily, "daily"},
		{"weekly frequency", FrequencyWeekly, "weekly"},
		{"monthly frequency", FrequencyMonthly, "monthly"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if string(tt.frequency) != tt.expected {
				t.Errorf("Frequency constant %s = %s, want %s", tt.name, tt.frequency, tt.expected)
			}
			if !tt.frequency.IsValid() {
				t.Errorf("Expected %s to be valid", tt.frequency)
			}
		})
	}

	if Frequency("yearly").IsValid() {
		t.Error("Expected yearly to be invalid")
	}
}

func TestFrequencyNext(t *testing.T) {
	tests := []struct {
		name      string
		frequency Frequency
		from      time.Time
		want      time.Time
	}{
		{"daily", FrequencyDaily, date(2026, 3, 14), date(2026, 3, 15)},
		{"daily month end", FrequencyDaily, date(2026, 2, 28), date(2026, 3, 1)},
		{"weekly", FrequencyWeekly, date(2026, 3, 28), date(2026, 4, 4)},
		{"monthly", FrequencyMonthly, date(2026, 3, 14), date(2026, 4, 14)},
		{"monthly clamp non-leap", FrequencyMonthly, date(2026, 1, 31), date(2026, 2, 28)},
		{"monthly clamp leap", FrequencyMonthly, date(2028, 1, 31), date(2028, 2, 29)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := tt.frequency.Next(tt.from)
			if err != nil {
				t.Fatalf("Expected no error, got %v", err)
			}
			if !got.Equal(tt.want) {
				t.Errorf("Next(%s) = %s, want %s", tt.from.Format("2006-01-02"), got.Format("2006-01-02"), tt.want.Format("2006-01-02"))
			}
		})
	}
}

func TestFrequencyNext_Invalid(t *testing.T) {
	_, err := Frequency("hourly").Next(date(2026, 1, 1))
	if !errors.Is(err, ErrInvalidFrequency) {
		t.Errorf("Expected ErrInvalidFrequency, got %v", err)
	}
}

func TestRecurringDefinitionIsDue(t *testing.T) {
	now := time.Date(2026, 3, 14, 10, 0, 0, 0, time.UTC)

	tests := []struct {
		name     string
		def      RecurringDefinition
		expected bool
	}{
		{"past and active", RecurringDefinition{IsActive: true, NextRunDate: date(2026, 3, 13)}, true},
		{"today and active", RecurringDefinition{IsActive: true, NextRunDate: date(2026, 3, 14)}, true},
		{"future", RecurringDefinition{IsActive: true, NextRunDate: date(2026, 3, 15)}, false},
		{"paused", RecurringDefinition{IsActive: false, NextRunDate: date(2026, 3, 1)}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.def.IsDue(now); got != tt.expected {
				t.Errorf("IsDue() = %v, want %v", got, tt.expected)
			}
		})
	}
}

func TestTransactionDelta(t *testing.T) {
	income := Transaction{Amount: decimal.NewFromInt(100), Type: TransactionTypeIncome}
	expense := Transaction{Amount: decimal.NewFromInt(100), Type: TransactionTypeExpense}

	if !income.Delta().Equal(decimal.NewFromInt(100)) {
		t.Errorf("Expected income delta 100, got %s", income.Delta())
	}
	if !expense.Delta().Equal(decimal.NewFromInt(-100)) {
		t.Errorf("Expected expense delta -100, got %s", expense.Delta())
	}
}

func TestNotFoundErrorsWrapSentinel(t *testing.T) {
	for _, err := range []error{ErrAccountNotFound, ErrCategoryNotFound, ErrTransactionNotFound, ErrRecurringNotFound, ErrBudgetNotFound, ErrWorkspaceNotFound} {
		if !errors.Is(err, ErrNotFound) {
			t.Errorf("Expected %v to wrap ErrNotFound", err)
		}
	}
	if !errors.Is(ErrCategoryTypeMismatch, ErrInvalidReference) {
		t.Error("Expected ErrCategoryTypeMismatch to wrap ErrInvalidReference")
	}
}

func TestGenerationFailure(t *testing.T) {
	failure := &GenerationFailure{DefinitionID: 7, WorkspaceID: 1, Err: ErrAccountNotFound}

	var err error = failure
	if !errors.Is(err, ErrGenerationFailed) {
		t.Error("Expected failure to match ErrGenerationFailed")
	}
	if !errors.Is(err, ErrAccountNotFound) {
		t.Error("Expected failure to unwrap to its cause")
	}
	if err.Error() != "recurring definition 7: account resource not found" {
		t.Errorf("Unexpected message: %s", err.Error())
	}
}

func date(year int, month time.Month, day int) time.Time {
	return time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
}
