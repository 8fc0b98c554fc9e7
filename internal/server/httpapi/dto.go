package httpapi

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/avasilkov/walletapp/internal/server/models"
)

// Wire DTOs. Field names follow the JSON contract the client consumes.

type userDTO struct {
	ID    string `json:"id"`
	Email string `json:"email"`
	Name  string `json:"name,omitempty"`
}

type authResponse struct {
	User  userDTO `json:"user"`
	Token string  `json:"token"`
}

type accountDTO struct {
	ID            string          `json:"id"`
	Name          string          `json:"name"`
	Type          string          `json:"type"`
	Balance       decimal.Decimal `json:"balance"`
	Currency      string          `json:"currency"`
	AccountNumber string          `json:"accountNumber"`
	IsActive      bool            `json:"isActive"`
	CreatedAt     time.Time       `json:"createdAt"`
	UpdatedAt     time.Time       `json:"updatedAt"`
}

type transactionDTO struct {
	ID           string          `json:"id"`
	AccountID    string          `json:"accountId"`
	Type         string          `json:"type"`
	Amount       decimal.Decimal `json:"amount"`
	Description  string          `json:"description"`
	Category     string          `json:"category"`
	Date         time.Time       `json:"date"`
	BalanceAfter decimal.Decimal `json:"balanceAfter"`
}

func toUserDTO(u *models.User) userDTO {
	return userDTO{ID: u.ID, Email: u.Email, Name: u.Name}
}

func toAccountDTO(a *models.Account) accountDTO {
	return accountDTO{
		ID:            a.ID,
		Name:          a.Name,
		Type:          a.Type,
		Balance:       a.Balance,
		Currency:      a.Currency,
		AccountNumber: a.AccountNumber,
		IsActive:      a.IsActive,
		CreatedAt:     a.CreatedAt,
		UpdatedAt:     a.UpdatedAt,
	}
}

func toAccountDTOs(accounts []models.Account) []accountDTO {
	out := make([]accountDTO, 0, len(accounts))
	for i := range accounts {
		out = append(out, toAccountDTO(&accounts[i]))
	}
	return out
}

func toTransactionDTO(t *models.Transaction) transactionDTO {
	return transactionDTO{
		ID:           t.ID,
		AccountID:    t.AccountID,
		Type:         t.Type,
		Amount:       t.Amount,
		Description:  t.Description,
		Category:     t.Category,
		Date:         t.Date,
		BalanceAfter: t.BalanceAfter,
	}
}

func toTransactionDTOs(txs []models.Transaction) []transactionDTO {
	out := make([]transactionDTO, 0, len(txs))
	for i := range txs {
		out = append(out, toTransactionDTO(&txs[i]))
	}
	return out
}
