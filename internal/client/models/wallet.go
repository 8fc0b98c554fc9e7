package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// AccountType classifies a wallet account. The enumeration is closed.
type AccountType string

const (
	AccountTypeChecking   AccountType = "checking"
	AccountTypeSavings    AccountType = "savings"
	AccountTypeCredit     AccountType = "credit"
	AccountTypeInvestment AccountType = "investment"
)

// Valid reports whether t is one of the known account types.
func (t AccountType) Valid() bool {
	switch t {
	case AccountTypeChecking, AccountTypeSavings, AccountTypeCredit, AccountTypeInvestment:
		return true
	}
	return false
}

// TransactionType classifies a transaction. The enumeration is closed.
type TransactionType string

const (
	TransactionTypeIncome   TransactionType = "income"
	TransactionTypeExpense  TransactionType = "expense"
	TransactionTypeTransfer TransactionType = "transfer"
)

// Valid reports whether t is one of the known transaction types.
func (t TransactionType) Valid() bool {
	switch t {
	case TransactionTypeIncome, TransactionTypeExpense, TransactionTypeTransfer:
		return true
	}
	return false
}

// Account is a wallet account mirrored from the backend.
// Balance may be negative (credit accounts). AccountNumber is masked.
type Account struct {
	ID            string          `json:"id"`
	Name          string          `json:"name"`
	Type          AccountType     `json:"type"`
	Balance       decimal.Decimal `json:"balance"`
	Currency      string          `json:"currency"`
	AccountNumber string          `json:"accountNumber"`
	IsActive      bool            `json:"isActive"`
	CreatedAt     time.Time       `json:"createdAt"`
	UpdatedAt     time.Time       `json:"updatedAt"`
}

// Transaction is an immutable ledger entry against a single account.
// Amount is a non-negative magnitude; the sign is carried by Type.
// BalanceAfter snapshots the account balance right after posting.
type Transaction struct {
	ID           string          `json:"id"`
	AccountID    string          `json:"accountId"`
	Type         TransactionType `json:"type"`
	Amount       decimal.Decimal `json:"amount"`
	Description  string          `json:"description"`
	Category     string          `json:"category"`
	Date         time.Time       `json:"date"`
	BalanceAfter decimal.Decimal `json:"balanceAfter"`
}

// Summary is derived from the account and transaction collections; it is
// never mutated on its own.
type Summary struct {
	TotalBalance  decimal.Decimal `json:"totalBalance"`
	TotalIncome   decimal.Decimal `json:"totalIncome"`
	TotalExpenses decimal.Decimal `json:"totalExpenses"`
	AccountCount  int             `json:"accountCount"`
	Currency      string          `json:"currency"`
}
