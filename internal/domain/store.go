package domain

import "context"

// Store is the explicit handle to persistence. Repositories returned by a Store
// obtained inside WithTx all share the same underlying transaction.
type Store interface {
	Accounts() AccountRepository
	Transactions() TransactionRepository
	Categories() CategoryRepository
	Recurring() RecurringRepository
	Budgets() BudgetRepository
	Workspaces() WorkspaceRepository

	// WithTx runs fn inside one store transaction. A non-nil error from fn rolls back
	// every write fn made. Calling WithTx on a transactional Store joins the
	// surrounding transaction.
	WithTx(ctx context.Context, fn func(tx Store) error) error
}
