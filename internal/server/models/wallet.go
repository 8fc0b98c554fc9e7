package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Account is a wallet account row. Balance may be negative.
type Account struct {
	ID            string
	UserID        string
	Name          string
	Type          string
	Balance       decimal.Decimal
	Currency      string
	AccountNumber string
	IsActive      bool
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// Transaction is an immutable ledger row. BalanceAfter snapshots the account
// balance right after the posting committed.
type Transaction struct {
	ID           string
	AccountID    string
	UserID       string
	Type         string
	Amount       decimal.Decimal
	Description  string
	Category     string
	Date         time.Time
	BalanceAfter decimal.Decimal
}
