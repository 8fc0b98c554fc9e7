package cli

import (
	"context"
	"fmt"
	"time"

	"github.com/avasilkov/walletapp/internal/client/api"
	"github.com/avasilkov/walletapp/internal/client/models"
	"github.com/avasilkov/walletapp/internal/client/services"
)

func (a *App) requireWallet() bool {
	if !a.isLoggedIn() {
		fmt.Fprintln(a.out, "Please log in first")
		return false
	}
	return true
}

func (a *App) listAccounts(ctx context.Context) {
	if !a.requireWallet() {
		return
	}
	accounts, err := a.wallet.Accounts(ctx)
	if err != nil {
		fmt.Fprintf(a.out, "error: %v\n", err)
		return
	}
	if len(accounts) == 0 {
		fmt.Fprintln(a.out, "No accounts yet")
		return
	}
	for _, acc := range accounts {
		fmt.Fprintf(a.out, "%s  %-22s %-10s %s\n",
			acc.ID, acc.Name, acc.Type, services.FormatCurrency(acc.Balance, acc.Currency))
	}
}

func (a *App) showAccount(ctx context.Context, args []string) {
	if !a.requireWallet() {
		return
	}
	if len(args) != 1 {
		fmt.Fprintln(a.out, "usage: account <id>")
		return
	}
	acc, err := a.wallet.AccountByID(ctx, args[0])
	if err != nil {
		fmt.Fprintf(a.out, "error: %v\n", err)
		return
	}
	if acc == nil {
		fmt.Fprintln(a.out, "Account not found")
		return
	}
	fmt.Fprintf(a.out, "%s (%s, %s)\n", acc.Name, acc.Type, acc.AccountNumber)
	fmt.Fprintf(a.out, "Balance: %s\n", services.FormatCurrency(acc.Balance, acc.Currency))
	fmt.Fprintf(a.out, "Active: %v, updated %s\n", acc.IsActive, acc.UpdatedAt.Format(time.RFC3339))
}

func (a *App) addAccount(ctx context.Context) {
	if !a.requireWallet() {
		return
	}
	name, err := GetSimpleText(a.reader, "Account name", a.out)
	if err != nil {
		fmt.Fprintf(a.out, "error: %v\n", err)
		return
	}
	accType, err := GetSimpleText(a.reader, "Type (checking/savings/credit/investment)", a.out)
	if err != nil {
		fmt.Fprintf(a.out, "error: %v\n", err)
		return
	}
	if !models.AccountType(accType).Valid() {
		fmt.Fprintf(a.out, "unknown account type %q\n", accType)
		return
	}
	balance, err := GetDecimal(a.reader, "Opening balance", a.out)
	if err != nil {
		fmt.Fprintf(a.out, "error: %v\n", err)
		return
	}
	currency, err := GetSimpleText(a.reader, "Currency (e.g. USD)", a.out)
	if err != nil {
		fmt.Fprintf(a.out, "error: %v\n", err)
		return
	}
	number, err := GetSimpleText(a.reader, "Masked account number (e.g. ****1234)", a.out)
	if err != nil {
		fmt.Fprintf(a.out, "error: %v\n", err)
		return
	}

	acc, err := a.wallet.CreateAccount(ctx, api.NewAccount{
		Name:          name,
		Type:          models.AccountType(accType),
		Balance:       balance,
		Currency:      currency,
		AccountNumber: number,
		IsActive:      true,
	})
	if err != nil {
		fmt.Fprintf(a.out, "Creating account failed: %v\n", err)
		return
	}
	fmt.Fprintf(a.out, "Created account %s\n", acc.ID)
}

func (a *App) editAccount(ctx context.Context, args []string) {
	if !a.requireWallet() {
		return
	}
	if len(args) != 1 {
		fmt.Fprintln(a.out, "usage: editaccount <id>")
		return
	}
	name, err := GetSimpleText(a.reader, "New name (empty to keep)", a.out)
	if err != nil {
		fmt.Fprintf(a.out, "error: %v\n", err)
		return
	}
	var patch api.AccountPatch
	if name != "" {
		patch.Name = &name
	}

	acc, err := a.wallet.UpdateAccount(ctx, args[0], patch)
	if err != nil {
		fmt.Fprintf(a.out, "Updating account failed: %v\n", err)
		return
	}
	fmt.Fprintf(a.out, "Updated account %s\n", acc.ID)
}

func (a *App) removeAccount(ctx context.Context, args []string) {
	if !a.requireWallet() {
		return
	}
	if len(args) != 1 {
		fmt.Fprintln(a.out, "usage: rmaccount <id>")
		return
	}
	if err := a.wallet.DeleteAccount(ctx, args[0]); err != nil {
		fmt.Fprintf(a.out, "Deleting account failed: %v\n", err)
		return
	}
	fmt.Fprintf(a.out, "Deleted account %s\n", args[0])
}

func (a *App) listTransactions(ctx context.Context, args []string) {
	if !a.requireWallet() {
		return
	}
	accountID := ""
	if len(args) > 0 {
		accountID = args[0]
	}
	txs, err := a.wallet.Transactions(ctx, accountID)
	if err != nil {
		fmt.Fprintf(a.out, "error: %v\n", err)
		return
	}
	if len(txs) == 0 {
		fmt.Fprintln(a.out, "No transactions")
		return
	}
	for _, tx := range txs {
		fmt.Fprintf(a.out, "%s  %s  %-8s %12s  %s\n",
			tx.Date.Format("2006-01-02"), tx.AccountID, tx.Type, tx.Amount.StringFixed(2), tx.Description)
	}
}

func (a *App) addTransaction(ctx context.Context) {
	if !a.requireWallet() {
		return
	}
	accountID, err := GetSimpleText(a.reader, "Account id", a.out)
	if err != nil {
		fmt.Fprintf(a.out, "error: %v\n", err)
		return
	}
	txType, err := GetSimpleText(a.reader, "Type (income/expense/transfer)", a.out)
	if err != nil {
		fmt.Fprintf(a.out, "error: %v\n", err)
		return
	}
	if !models.TransactionType(txType).Valid() {
		fmt.Fprintf(a.out, "unknown transaction type %q\n", txType)
		return
	}
	amount, err := GetDecimal(a.reader, "Amount", a.out)
	if err != nil {
		fmt.Fprintf(a.out, "error: %v\n", err)
		return
	}
	description, err := GetSimpleText(a.reader, "Description", a.out)
	if err != nil {
		fmt.Fprintf(a.out, "error: %v\n", err)
		return
	}
	category, err := GetSimpleText(a.reader, "Category", a.out)
	if err != nil {
		fmt.Fprintf(a.out, "error: %v\n", err)
		return
	}

	tx, err := a.wallet.AddTransaction(ctx, api.NewTransaction{
		AccountID:   accountID,
		Type:        models.TransactionType(txType),
		Amount:      amount,
		Description: description,
		Category:    category,
		Date:        time.Now().UTC(),
	})
	if err != nil {
		fmt.Fprintf(a.out, "Adding transaction failed: %v\n", err)
		return
	}
	fmt.Fprintf(a.out, "Posted transaction %s, balance after: %s\n", tx.ID, tx.BalanceAfter.StringFixed(2))
}

func (a *App) showSummary(ctx context.Context) {
	if !a.requireWallet() {
		return
	}
	summary, err := a.wallet.Summary(ctx)
	if err != nil {
		fmt.Fprintf(a.out, "error: %v\n", err)
		return
	}
	fmt.Fprintf(a.out, "Accounts:       %d\n", summary.AccountCount)
	fmt.Fprintf(a.out, "Total balance:  %s\n", services.FormatCurrency(summary.TotalBalance, summary.Currency))
	fmt.Fprintf(a.out, "Total income:   %s\n", services.FormatCurrency(summary.TotalIncome, summary.Currency))
	fmt.Fprintf(a.out, "Total expenses: %s\n", services.FormatCurrency(summary.TotalExpenses, summary.Currency))
}

func (a *App) resetDemoData() {
	if a.mock == nil {
		fmt.Fprintln(a.out, "reset is only available in demo mode")
		return
	}
	a.mock.ResetMockData()
	fmt.Fprintln(a.out, "Demo data restored")
}
