package memory

import (
	"context"
	"sort"
	"time"

	"github.com/dafibh/fortuna/fortuna-ledger/internal/domain"
	"github.com/shopspring/decimal"
)

type transactionRepo struct {
	s *Store
}

func (r *transactionRepo) Create(ctx context.Context, transaction *domain.Transaction) (*domain.Transaction, error) {
	defer r.s.lock()()

	t := *transaction
	t.ID = r.s.db.nextID("transactions")
	t.CreatedAt = r.s.now()
	t.UpdatedAt = t.CreatedAt
	r.s.db.transactions[t.ID] = t
	return &t, nil
}

func (r *transactionRepo) GetByID(ctx context.Context, workspaceID int32, id int32) (*domain.Transaction, error) {
	defer r.s.lock()()

	t, ok := r.s.db.transactions[id]
	if !ok || t.WorkspaceID != workspaceID {
		return nil, domain.ErrTransactionNotFound
	}
	return &t, nil
}

func matchesFilters(t domain.Transaction, filters *domain.TransactionFilters) bool {
	if filters == nil {
		return true
	}
	if filters.AccountID != nil && t.AccountID != *filters.AccountID {
		return false
	}
	if filters.CategoryID != nil && t.CategoryID != *filters.CategoryID {
		return false
	}
	if filters.Type != nil && t.Type != *filters.Type {
		return false
	}
	if filters.StartDate != nil && t.Date.Before(*filters.StartDate) {
		return false
	}
	if filters.EndDate != nil && t.Date.After(*filters.EndDate) {
		return false
	}
	return true
}

// sortNewestFirst orders by date descending, then ID descending
func sortNewestFirst(txs []*domain.Transaction) {
	sort.Slice(txs, func(i, j int) bool {
		if !txs[i].Date.Equal(txs[j].Date) {
			return txs[i].Date.After(txs[j].Date)
		}
		return txs[i].ID > txs[j].ID
	})
}

func (r *transactionRepo) GetByWorkspace(ctx context.Context, workspaceID int32, filters *domain.TransactionFilters) (*domain.PaginatedTransactions, error) {
	defer r.s.lock()()

	page := int32(1)
	pageSize := int32(domain.DefaultPageSize)
	if filters != nil {
		if filters.Page > 0 {
			page = filters.Page
		}
		if filters.PageSize > 0 {
			pageSize = filters.PageSize
			if pageSize > domain.MaxPageSize {
				pageSize = domain.MaxPageSize
			}
		}
	}

	var matched []*domain.Transaction
	for _, t := range r.s.db.transactions {
		if t.WorkspaceID != workspaceID || !matchesFilters(t, filters) {
			continue
		}
		t := t
		matched = append(matched, &t)
	}
	sortNewestFirst(matched)

	total := int64(len(matched))
	offset := domain.PageOffset(page, pageSize)
	data := []*domain.Transaction{}
	if offset < total {
		end := offset + int64(pageSize)
		if end > total {
			end = total
		}
		data = matched[offset:end]
	}

	totalPages := int32((total + int64(pageSize) - 1) / int64(pageSize))

	return &domain.PaginatedTransactions{
		Data:       data,
		Page:       page,
		PageSize:   pageSize,
		TotalItems: total,
		TotalPages: totalPages,
	}, nil
}

func (r *transactionRepo) ListByDateRange(ctx context.Context, workspaceID int32, startDate, endDate time.Time) ([]*domain.Transaction, error) {
	defer r.s.lock()()

	result := []*domain.Transaction{}
	for _, t := range r.s.db.transactions {
		if t.WorkspaceID != workspaceID || t.Date.Before(startDate) || t.Date.After(endDate) {
			continue
		}
		t := t
		result = append(result, &t)
	}
	sortNewestFirst(result)
	return result, nil
}

func (r *transactionRepo) Update(ctx context.Context, transaction *domain.Transaction) (*domain.Transaction, error) {
	defer r.s.lock()()

	existing, ok := r.s.db.transactions[transaction.ID]
	if !ok || existing.WorkspaceID != transaction.WorkspaceID {
		return nil, domain.ErrTransactionNotFound
	}
	t := *transaction
	t.CreatedAt = existing.CreatedAt
	t.RecurringID = existing.RecurringID
	t.UpdatedAt = r.s.now()
	r.s.db.transactions[t.ID] = t
	return &t, nil
}

func (r *transactionRepo) Delete(ctx context.Context, workspaceID int32, id int32) error {
	defer r.s.lock()()

	t, ok := r.s.db.transactions[id]
	if !ok || t.WorkspaceID != workspaceID {
		return domain.ErrTransactionNotFound
	}
	delete(r.s.db.transactions, id)
	return nil
}

func (r *transactionRepo) SumByAccount(ctx context.Context, workspaceID int32, accountID int32) (*domain.AccountTotals, error) {
	defer r.s.lock()()

	totals := &domain.AccountTotals{
		AccountID:    accountID,
		TotalIncome:  decimal.Zero,
		TotalExpense: decimal.Zero,
	}
	for _, t := range r.s.db.transactions {
		if t.WorkspaceID != workspaceID || t.AccountID != accountID {
			continue
		}
		if t.Type == domain.TransactionTypeIncome {
			totals.TotalIncome = totals.TotalIncome.Add(t.Amount)
		} else {
			totals.TotalExpense = totals.TotalExpense.Add(t.Amount)
		}
	}
	return totals, nil
}
