package domain

import "github.com/shopspring/decimal"

// BudgetProgress compares a budget against the expenses recorded in its category
type BudgetProgress struct {
	BudgetID     int32           `json:"budgetId"`
	CategoryID   int32           `json:"categoryId"`
	CategoryName string          `json:"categoryName"`
	Budgeted     decimal.Decimal `json:"budgeted"`
	Spent        decimal.Decimal `json:"spent"`
	Remaining    decimal.Decimal `json:"remaining"`
	OverBudget   bool            `json:"overBudget"`
}

// CategoryAmount is a per-category total for a period
type CategoryAmount struct {
	CategoryID int32           `json:"categoryId"`
	Name       string          `json:"name"`
	Amount     decimal.Decimal `json:"amount"`
}

// DashboardSummary contains the main dashboard metrics for one month
type DashboardSummary struct {
	Year              int               `json:"year"`
	Month             int               `json:"month"`
	TotalBalance      decimal.Decimal   `json:"totalBalance"`
	AccountCount      int               `json:"accountCount"`
	MonthlyIncome     decimal.Decimal   `json:"monthlyIncome"`
	MonthlyExpense    decimal.Decimal   `json:"monthlyExpense"`
	Net               decimal.Decimal   `json:"net"`
	ExpenseByCategory []CategoryAmount  `json:"expenseByCategory"`
	Budgets           []*BudgetProgress `json:"budgets"`
}
