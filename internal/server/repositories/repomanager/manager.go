// Package repomanager vends repository implementations bound to a DBTX, so
// services can run several repositories inside one transaction.
package repomanager

import (
	"context"
	"database/sql"

	"github.com/avasilkov/walletapp/internal/dbx"
	"github.com/avasilkov/walletapp/internal/server/repositories/accounts"
	"github.com/avasilkov/walletapp/internal/server/repositories/resettokens"
	"github.com/avasilkov/walletapp/internal/server/repositories/sessiontokens"
	"github.com/avasilkov/walletapp/internal/server/repositories/transactions"
	"github.com/avasilkov/walletapp/internal/server/repositories/users"
)

type RepositoryManager interface {
	Users(db dbx.DBTX) users.Repository
	SessionTokens(db dbx.DBTX) sessiontokens.Repository
	ResetTokens(db dbx.DBTX) resettokens.Repository
	Accounts(db dbx.DBTX) accounts.Repository
	Transactions(db dbx.DBTX) transactions.Repository
	RunMigrations(ctx context.Context, db *sql.DB) error
}
