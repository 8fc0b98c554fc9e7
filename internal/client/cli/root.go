package cli

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strings"
)

func (a *App) getStatus() string {
	s := ""
	if a.session != nil {
		if u := a.session.CurrentUser(); u != nil {
			s = u.Email + " "
		}
	}
	s += string(a.Mode)
	return fmt.Sprintf("(%s)", s)
}

func (a *App) Root(ctx context.Context) {
	fmt.Fprintln(a.out, "Welcome to the wallet CLI (type 'help' for commands)")
	scanner := bufio.NewScanner(os.Stdin)

	for {
		fmt.Fprintf(a.out, "wallet %s> ", a.getStatus())
		if !scanner.Scan() {
			break
		}
		parts := strings.Fields(scanner.Text())
		if len(parts) == 0 {
			continue
		}

		cmd := parts[0]
		args := parts[1:]

		switch cmd {
		case "help":
			a.printHelp()
		case "register":
			a.register(ctx)
		case "login":
			a.login(ctx)
		case "logout":
			a.logout(ctx)
		case "whoami":
			a.whoami()
		case "profile":
			a.updateProfile(ctx)
		case "passwd":
			a.changePassword(ctx)
		case "forgot":
			a.forgotPassword(ctx)
		case "resetpw":
			a.resetPassword(ctx)
		case "accounts":
			a.listAccounts(ctx)
		case "account":
			a.showAccount(ctx, args)
		case "addaccount":
			a.addAccount(ctx)
		case "editaccount":
			a.editAccount(ctx, args)
		case "rmaccount":
			a.removeAccount(ctx, args)
		case "txs":
			a.listTransactions(ctx, args)
		case "addtx":
			a.addTransaction(ctx)
		case "summary":
			a.showSummary(ctx)
		case "reset":
			a.resetDemoData()
		case "exit", "quit":
			fmt.Fprintln(a.out, "Bye!")
			return
		default:
			fmt.Fprintf(a.out, "Unknown command %q, type 'help'\n", cmd)
		}
	}
}

func (a *App) printHelp() {
	if a.Mode == ModeDemo {
		fmt.Fprintln(a.out, "Wallet: accounts, account <id>, addaccount, editaccount <id>, rmaccount <id>, txs [accountId], addtx, summary, reset")
		fmt.Fprintln(a.out, "Other: help, exit")
		return
	}
	if a.isLoggedIn() {
		fmt.Fprintln(a.out, "Wallet: accounts, account <id>, addaccount, editaccount <id>, rmaccount <id>, txs [accountId], addtx, summary")
		fmt.Fprintln(a.out, "Session: whoami, profile, passwd, logout")
	} else {
		fmt.Fprintln(a.out, "Session: register, login, forgot, resetpw")
	}
	fmt.Fprintln(a.out, "Other: help, exit")
}
