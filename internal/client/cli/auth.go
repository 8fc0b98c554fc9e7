package cli

import (
	"context"
	"fmt"

	"github.com/avasilkov/walletapp/internal/client/api"
)

func (a *App) requireSession() bool {
	if a.Mode == ModeDemo {
		fmt.Fprintln(a.out, "Not available in demo mode")
		return false
	}
	return true
}

func (a *App) login(ctx context.Context) {
	if !a.requireSession() {
		return
	}
	email, err := GetSimpleText(a.reader, "Enter email", a.out)
	if err != nil {
		fmt.Fprintf(a.out, "error: %v\n", err)
		return
	}
	password, err := GetPassword(a.out, "Enter password")
	if err != nil {
		fmt.Fprintf(a.out, "error: %v\n", err)
		return
	}

	user, err := a.session.Login(ctx, email, password)
	if err != nil {
		fmt.Fprintf(a.out, "Login unsuccessful: %v\n", err)
		return
	}
	fmt.Fprintf(a.out, "Logged in as %s\n", user.Email)
}

func (a *App) register(ctx context.Context) {
	if !a.requireSession() {
		return
	}
	email, err := GetSimpleText(a.reader, "Enter email", a.out)
	if err != nil {
		fmt.Fprintf(a.out, "error: %v\n", err)
		return
	}
	password, err := GetPassword(a.out, "Choose a password")
	if err != nil {
		fmt.Fprintf(a.out, "error: %v\n", err)
		return
	}

	user, err := a.session.Register(ctx, email, password)
	if err != nil {
		fmt.Fprintf(a.out, "Registration unsuccessful: %v\n", err)
		return
	}
	fmt.Fprintf(a.out, "Registered and logged in as %s\n", user.Email)
}

func (a *App) logout(ctx context.Context) {
	if !a.requireSession() {
		return
	}
	a.session.Logout(ctx)
	fmt.Fprintln(a.out, "Logged out")
}

func (a *App) whoami() {
	if !a.requireSession() {
		return
	}
	user := a.session.CurrentUser()
	if user == nil {
		fmt.Fprintln(a.out, "Not logged in")
		return
	}
	fmt.Fprintf(a.out, "%s (%s)\n", user.Email, user.ID)
	if user.Name != "" {
		fmt.Fprintf(a.out, "Name: %s\n", user.Name)
	}
}

func (a *App) updateProfile(ctx context.Context) {
	if !a.requireSession() {
		return
	}
	name, err := GetSimpleText(a.reader, "New display name (empty to keep)", a.out)
	if err != nil {
		fmt.Fprintf(a.out, "error: %v\n", err)
		return
	}
	var patch api.UserPatch
	if name != "" {
		patch.Name = &name
	}

	user, err := a.session.UpdateProfile(ctx, patch)
	if err != nil {
		fmt.Fprintf(a.out, "Profile update failed: %v\n", err)
		return
	}
	fmt.Fprintf(a.out, "Profile updated: %s\n", user.Email)
}

func (a *App) changePassword(ctx context.Context) {
	if !a.requireSession() {
		return
	}
	current, err := GetPassword(a.out, "Current password")
	if err != nil {
		fmt.Fprintf(a.out, "error: %v\n", err)
		return
	}
	next, err := GetPassword(a.out, "New password")
	if err != nil {
		fmt.Fprintf(a.out, "error: %v\n", err)
		return
	}
	if err := a.session.ChangePassword(ctx, current, next); err != nil {
		fmt.Fprintf(a.out, "Password change failed: %v\n", err)
		return
	}
	fmt.Fprintln(a.out, "Password changed")
}

func (a *App) forgotPassword(ctx context.Context) {
	if !a.requireSession() {
		return
	}
	email, err := GetSimpleText(a.reader, "Enter email", a.out)
	if err != nil {
		fmt.Fprintf(a.out, "error: %v\n", err)
		return
	}
	if err := a.session.ForgotPassword(ctx, email); err != nil {
		fmt.Fprintf(a.out, "Request failed: %v\n", err)
		return
	}
	fmt.Fprintln(a.out, "If the address is registered, a reset token has been issued")
}

func (a *App) resetPassword(ctx context.Context) {
	if !a.requireSession() {
		return
	}
	token, err := GetSimpleText(a.reader, "Reset token", a.out)
	if err != nil {
		fmt.Fprintf(a.out, "error: %v\n", err)
		return
	}
	password, err := GetPassword(a.out, "New password")
	if err != nil {
		fmt.Fprintf(a.out, "error: %v\n", err)
		return
	}
	if err := a.session.ResetPassword(ctx, token, password); err != nil {
		fmt.Fprintf(a.out, "Password reset failed: %v\n", err)
		return
	}
	fmt.Fprintln(a.out, "Password reset, please log in")
}
