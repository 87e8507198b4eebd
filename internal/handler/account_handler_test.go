package handler

import (
	"net/http"
	"strings"
	"testing"

	"github.com/dafibh/fortuna/fortuna-ledger/internal/domain"
)

func TestCreateAccount_Success(t *testing.T) {
	env := newTestEnv(t)

	c, rec := newContext(http.MethodPost, "/api/v1/accounts",
		strings.NewReader(`{"name": "My Savings", "accountType": "savings", "initialBalance": "1000.50"}`), testWorkspaceID)

	if err := env.handlers.Account.CreateAccount(c); err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	assertStatus(t, rec, http.StatusCreated)

	response := decode[AccountResponse](t, rec)
	if response.Name != "My Savings" {
		t.Errorf("Expected name 'My Savings', got %s", response.Name)
	}
	if response.AccountType != "savings" {
		t.Errorf("Expected account type 'savings', got %s", response.AccountType)
	}
	if response.InitialBalance != "1000.5000" || response.Balance != "1000.5000" {
		t.Errorf("Expected balances 1000.50, got %s / %s", response.InitialBalance, response.Balance)
	}
}

func TestCreateAccount_MissingWorkspace(t *testing.T) {
	env := newTestEnv(t)

	c, rec := newContext(http.MethodPost, "/api/v1/accounts", strings.NewReader(`{"name": "X", "accountType": "checking"}`), 0)

	if err := env.handlers.Account.CreateAccount(c); err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	assertStatus(t, rec, http.StatusUnauthorized)
}

func TestCreateAccount_ValidationErrors(t *testing.T) {
	tests := []struct {
		name  string
		body  string
		field string
	}{
		{"invalid balance", `{"name": "A", "accountType": "checking", "initialBalance": "lots"}`, "initialBalance"},
		{"invalid account type", `{"name": "A", "accountType": "brokerage"}`, "accountType"},
		{"missing name", `{"name": "  ", "accountType": "checking"}`, "name"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := newTestEnv(t)
			c, rec := newContext(http.MethodPost, "/api/v1/accounts", strings.NewReader(tt.body), testWorkspaceID)

			if err := env.handlers.Account.CreateAccount(c); err != nil {
				t.Fatalf("Expected no error, got %v", err)
			}
			assertFieldError(t, rec, tt.field)
		})
	}
}

func TestGetAccount_OtherWorkspaceIsNotFound(t *testing.T) {
	env := newTestEnv(t)
	account := env.fx.Account(2, "Theirs", "10")

	c, rec := newContext(http.MethodGet, "/api/v1/accounts/1", nil, testWorkspaceID)
	withParams(c, "id", itoa(account.ID))

	if err := env.handlers.Account.GetAccount(c); err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	assertStatus(t, rec, http.StatusNotFound)
}

func TestDeleteAccount_HidesFromList(t *testing.T) {
	env := newTestEnv(t)
	account := env.fx.Account(testWorkspaceID, "Old", "0")
	env.fx.Account(testWorkspaceID, "Current", "0")

	c, rec := newContext(http.MethodDelete, "/api/v1/accounts/1", nil, testWorkspaceID)
	withParams(c, "id", itoa(account.ID))
	if err := env.handlers.Account.DeleteAccount(c); err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	assertStatus(t, rec, http.StatusNoContent)

	c, rec = newContext(http.MethodGet, "/api/v1/accounts", nil, testWorkspaceID)
	if err := env.handlers.Account.GetAccounts(c); err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	accounts := decode[[]AccountResponse](t, rec)
	if len(accounts) != 1 || accounts[0].Name != "Current" {
		t.Errorf("Expected only 'Current', got %+v", accounts)
	}

	c, rec = newContext(http.MethodGet, "/api/v1/accounts?includeArchived=true", nil, testWorkspaceID)
	if err := env.handlers.Account.GetAccounts(c); err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if got := decode[[]AccountResponse](t, rec); len(got) != 2 {
		t.Errorf("Expected 2 accounts including archived, got %d", len(got))
	}
}

func TestReconcileAccount_InSync(t *testing.T) {
	env := newTestEnv(t)
	account := env.fx.Account(testWorkspaceID, "Checking", "250")
	category := env.fx.Category(testWorkspaceID, "Food", domain.TransactionTypeExpense)

	c, rec := newContext(http.MethodPost, "/api/v1/transactions",
		strings.NewReader(`{"accountId": `+itoa(account.ID)+`, "categoryId": `+itoa(category.ID)+`, "amount": "50", "type": "expense"}`), testWorkspaceID)
	if err := env.handlers.Transaction.CreateTransaction(c); err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	assertStatus(t, rec, http.StatusCreated)

	c, rec = newContext(http.MethodPost, "/api/v1/accounts/1/reconcile", nil, testWorkspaceID)
	withParams(c, "id", itoa(account.ID))
	if err := env.handlers.Account.ReconcileAccount(c); err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	assertStatus(t, rec, http.StatusOK)

	response := decode[ReconcileResponse](t, rec)
	if !response.InSync {
		t.Errorf("Expected account in sync, got %+v", response)
	}
	if response.CachedBalance != "200.0000" || response.ComputedBalance != "200.0000" {
		t.Errorf("Expected balances 200.00, got %+v", response)
	}
}
