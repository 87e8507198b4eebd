package service

import (
	"context"
	"sort"
	"time"

	"github.com/dafibh/fortuna/fortuna-ledger/internal/domain"
	"github.com/dafibh/fortuna/fortuna-ledger/internal/util"
	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"
)

// DashboardService builds read-only aggregates over the stores. It never writes and
// keeps no cache, so every call reflects committed state.
type DashboardService struct {
	store domain.Store
	now   func() time.Time
}

// NewDashboardService creates a new DashboardService
func NewDashboardService(store domain.Store) *DashboardService {
	return &DashboardService{store: store, now: time.Now}
}

// GetSummary returns the dashboard summary for the current month
func (s *DashboardService) GetSummary(ctx context.Context, workspaceID int32) (*domain.DashboardSummary, error) {
	now := s.now().UTC()
	return s.GetSummaryForMonth(ctx, workspaceID, now.Year(), int(now.Month()))
}

// GetSummaryForMonth returns total balance, the month's income and expense, spending
// per category and budget progress for one month
func (s *DashboardService) GetSummaryForMonth(ctx context.Context, workspaceID int32, year, month int) (*domain.DashboardSummary, error) {
	if err := validatePeriod(year, month); err != nil {
		return nil, err
	}
	start, end := util.MonthRange(year, time.Month(month))

	var (
		accounts     []*domain.Account
		transactions []*domain.Transaction
		categories   []*domain.Category
		budgets      []*domain.Budget
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		accounts, err = s.store.Accounts().GetAllByWorkspace(gctx, workspaceID, false)
		return err
	})
	g.Go(func() (err error) {
		transactions, err = s.store.Transactions().ListByDateRange(gctx, workspaceID, start, end)
		return err
	})
	g.Go(func() (err error) {
		categories, err = s.store.Categories().GetAllByWorkspace(gctx, workspaceID)
		return err
	})
	g.Go(func() (err error) {
		budgets, err = s.store.Budgets().ListByPeriod(gctx, workspaceID, year, month)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	summary := &domain.DashboardSummary{
		Year:              year,
		Month:             month,
		TotalBalance:      decimal.Zero,
		AccountCount:      len(accounts),
		MonthlyIncome:     decimal.Zero,
		MonthlyExpense:    decimal.Zero,
		ExpenseByCategory: []domain.CategoryAmount{},
		Budgets:           []*domain.BudgetProgress{},
	}

	for _, account := range accounts {
		summary.TotalBalance = summary.TotalBalance.Add(account.Balance)
	}

	spent := make(map[int32]decimal.Decimal)
	for _, t := range transactions {
		switch t.Type {
		case domain.TransactionTypeIncome:
			summary.MonthlyIncome = summary.MonthlyIncome.Add(t.Amount)
		case domain.TransactionTypeExpense:
			summary.MonthlyExpense = summary.MonthlyExpense.Add(t.Amount)
			spent[t.CategoryID] = spent[t.CategoryID].Add(t.Amount)
		}
	}
	summary.Net = summary.MonthlyIncome.Sub(summary.MonthlyExpense)

	names := make(map[int32]string, len(categories))
	for _, c := range categories {
		names[c.ID] = c.Name
	}

	for categoryID, amount := range spent {
		summary.ExpenseByCategory = append(summary.ExpenseByCategory, domain.CategoryAmount{
			CategoryID: categoryID,
			Name:       names[categoryID],
			Amount:     amount,
		})
	}
	sort.Slice(summary.ExpenseByCategory, func(i, j int) bool {
		a, b := summary.ExpenseByCategory[i], summary.ExpenseByCategory[j]
		if !a.Amount.Equal(b.Amount) {
			return a.Amount.GreaterThan(b.Amount)
		}
		return a.CategoryID < b.CategoryID
	})

	for _, b := range budgets {
		used := spent[b.CategoryID]
		remaining := b.Amount.Sub(used)
		summary.Budgets = append(summary.Budgets, &domain.BudgetProgress{
			BudgetID:     b.ID,
			CategoryID:   b.CategoryID,
			CategoryName: names[b.CategoryID],
			Budgeted:     b.Amount,
			Spent:        used,
			Remaining:    remaining,
			OverBudget:   remaining.IsNegative(),
		})
	}

	return summary, nil
}
