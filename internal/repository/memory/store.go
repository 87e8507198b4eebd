// Package memory implements domain.Store in process memory. Every store transaction
// holds a single lock and restores a snapshot on error, which makes it serializable.
// It backs the test suites and the STORAGE=memory development mode.
package memory

import (
	"context"
	"sync"
	"time"

	"github.com/dafibh/fortuna/fortuna-ledger/internal/domain"
)

type state struct {
	workspaces   map[int32]domain.Workspace
	accounts     map[int32]domain.Account
	transactions map[int32]domain.Transaction
	categories   map[int32]domain.Category
	recurring    map[int32]domain.RecurringDefinition
	budgets      map[int32]domain.Budget
	seq          map[string]int32
}

func newState() *state {
	return &state{
		workspaces:   make(map[int32]domain.Workspace),
		accounts:     make(map[int32]domain.Account),
		transactions: make(map[int32]domain.Transaction),
		categories:   make(map[int32]domain.Category),
		recurring:    make(map[int32]domain.RecurringDefinition),
		budgets:      make(map[int32]domain.Budget),
		seq:          make(map[string]int32),
	}
}

func (st *state) clone() *state {
	c := newState()
	for k, v := range st.workspaces {
		c.workspaces[k] = v
	}
	for k, v := range st.accounts {
		c.accounts[k] = v
	}
	for k, v := range st.transactions {
		c.transactions[k] = v
	}
	for k, v := range st.categories {
		c.categories[k] = v
	}
	for k, v := range st.recurring {
		c.recurring[k] = v
	}
	for k, v := range st.budgets {
		c.budgets[k] = v
	}
	for k, v := range st.seq {
		c.seq[k] = v
	}
	return c
}

func (st *state) nextID(table string) int32 {
	st.seq[table]++
	return st.seq[table]
}

// Store is an in-memory domain.Store
type Store struct {
	mu   *sync.Mutex
	db   *state
	inTx bool
	now  func() time.Time
}

// Ensure Store implements domain.Store
var _ domain.Store = (*Store)(nil)

// NewStore creates an empty Store
func NewStore() *Store {
	return &Store{
		mu:  &sync.Mutex{},
		db:  newState(),
		now: func() time.Time { return time.Now().UTC() },
	}
}

// lock acquires the store lock unless the caller already holds it through WithTx
func (s *Store) lock() func() {
	if s.inTx {
		return func() {}
	}
	s.mu.Lock()
	return s.mu.Unlock
}

// WithTx implements domain.Store
func (s *Store) WithTx(ctx context.Context, fn func(tx domain.Store) error) error {
	if s.inTx {
		return fn(s)
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	snapshot := s.db.clone()
	tx := &Store{mu: s.mu, db: s.db, inTx: true, now: s.now}
	if err := fn(tx); err != nil {
		*s.db = *snapshot
		return err
	}
	return nil
}

func (s *Store) Accounts() domain.AccountRepository         { return &accountRepo{s: s} }
func (s *Store) Transactions() domain.TransactionRepository { return &transactionRepo{s: s} }
func (s *Store) Categories() domain.CategoryRepository     { return &categoryRepo{s: s} }
func (s *Store) Recurring() domain.RecurringRepository     { return &recurringRepo{s: s} }
func (s *Store) Budgets() domain.BudgetRepository          { return &budgetRepo{s: s} }
func (s *Store) Workspaces() domain.WorkspaceRepository    { return &workspaceRepo{s: s} }
