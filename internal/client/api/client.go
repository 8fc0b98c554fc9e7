// Package api implements the wallet backend REST client: the transport used
// by the client services, and the request authorizer that attaches bearer
// tokens and drives the refresh-on-401 protocol.
package api

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"github.com/avasilkov/walletapp/internal/client/models"
)

// AuthResponse is the payload of successful login, register and refresh calls.
type AuthResponse struct {
	User  models.User `json:"user"`
	Token string      `json:"token"`
}

// UserPatch is a partial profile update. Nil fields are left unchanged.
type UserPatch struct {
	Email *string `json:"email,omitempty"`
	Name  *string `json:"name,omitempty"`
}

// NewAccount carries the caller-supplied fields of an account to create.
// ID and timestamps are assigned by the backend.
type NewAccount struct {
	Name          string             `json:"name"`
	Type          models.AccountType `json:"type"`
	Balance       decimal.Decimal    `json:"balance"`
	Currency      string             `json:"currency"`
	AccountNumber string             `json:"accountNumber"`
	IsActive      bool               `json:"isActive"`
}

// AccountPatch is a partial account update. Nil fields are left unchanged.
type AccountPatch struct {
	Name          *string             `json:"name,omitempty"`
	Type          *models.AccountType `json:"type,omitempty"`
	Balance       *decimal.Decimal    `json:"balance,omitempty"`
	Currency      *string             `json:"currency,omitempty"`
	AccountNumber *string             `json:"accountNumber,omitempty"`
	IsActive      *bool               `json:"isActive,omitempty"`
}

// NewTransaction carries the caller-supplied fields of a transaction to post.
// ID and BalanceAfter are assigned by the backend.
type NewTransaction struct {
	AccountID   string                 `json:"accountId"`
	Type        models.TransactionType `json:"type"`
	Amount      decimal.Decimal        `json:"amount"`
	Description string                 `json:"description"`
	Category    string                 `json:"category"`
	Date        time.Time              `json:"date"`
}

// Client is the transport contract the client services depend on. The live
// implementation is HTTPClient; tests substitute fakes.
type Client interface {
	Login(ctx context.Context, email, password string) (*AuthResponse, error)
	Register(ctx context.Context, email, password string) (*AuthResponse, error)
	Refresh(ctx context.Context) (*AuthResponse, error)
	UpdateProfile(ctx context.Context, patch UserPatch) (*models.User, error)
	ChangePassword(ctx context.Context, currentPassword, newPassword string) error
	ForgotPassword(ctx context.Context, email string) error
	ResetPassword(ctx context.Context, token, newPassword string) error

	Accounts(ctx context.Context) ([]models.Account, error)
	Account(ctx context.Context, id string) (*models.Account, error)
	CreateAccount(ctx context.Context, draft NewAccount) (*models.Account, error)
	UpdateAccount(ctx context.Context, id string, patch AccountPatch) (*models.Account, error)
	DeleteAccount(ctx context.Context, id string) error
	Transactions(ctx context.Context, accountID string) ([]models.Transaction, error)
	AddTransaction(ctx context.Context, draft NewTransaction) (*models.Transaction, error)

	Close() error
}
