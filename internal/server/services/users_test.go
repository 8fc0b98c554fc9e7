package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"

	"github.com/avasilkov/walletapp/internal/common"
	"github.com/avasilkov/walletapp/internal/server/auth"
)

func newUserService(t *testing.T, rm *fakeRepoManager) (*UserService, sqlmock.Sqlmock) {
	t.Helper()
	db, mock := newSQLMockDB(t)
	t.Cleanup(func() { db.Close() })
	return NewUserService(db, rm, testConfig(), testLogger()), mock
}

func registerUser(t *testing.T, svc *UserService, email, password string) (string, string) {
	t.Helper()
	user, token, err := svc.Register(context.Background(), email, password)
	if err != nil {
		t.Fatalf("Register error: %v", err)
	}
	return user.ID, token
}

func TestRegister(t *testing.T) {
	rm := newFakeRepoManager()
	svc, _ := newUserService(t, rm)

	user, token, err := svc.Register(context.Background(), "  Anna@Example.COM ", "hunter22")
	if err != nil {
		t.Fatalf("Register error: %v", err)
	}
	if user.Email != "anna@example.com" {
		t.Errorf("email not normalized: got %q", user.Email)
	}
	if token == "" {
		t.Error("expected a token")
	}

	claims, err := auth.ParseToken(token, []byte("test-secret"))
	if err != nil {
		t.Fatalf("issued token does not parse: %v", err)
	}
	if claims.UserID != user.ID {
		t.Errorf("token subject = %q, want %q", claims.UserID, user.ID)
	}
	if _, ok := rm.s.sessions[claims.ID]; !ok {
		t.Error("no session row recorded for the issued jti")
	}
}

func TestRegisterValidation(t *testing.T) {
	tests := []struct {
		name     string
		email    string
		password string
		wantErr  error
	}{
		{"empty email", "", "hunter22", common.ErrorValidation},
		{"no at sign", "anna.example.com", "hunter22", common.ErrorValidation},
		{"short password", "anna@example.com", "12345", common.ErrorValidation},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, _ := newUserService(t, newFakeRepoManager())
			_, _, err := svc.Register(context.Background(), tt.email, tt.password)
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("Register error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestRegisterDuplicateEmail(t *testing.T) {
	svc, _ := newUserService(t, newFakeRepoManager())
	registerUser(t, svc, "anna@example.com", "hunter22")

	_, _, err := svc.Register(context.Background(), "anna@example.com", "another1")
	if !errors.Is(err, common.ErrorAlreadyExists) {
		t.Errorf("Register error = %v, want %v", err, common.ErrorAlreadyExists)
	}
}

func TestLogin(t *testing.T) {
	svc, _ := newUserService(t, newFakeRepoManager())
	userID, _ := registerUser(t, svc, "anna@example.com", "hunter22")

	user, token, err := svc.Login(context.Background(), "ANNA@example.com", "hunter22")
	if err != nil {
		t.Fatalf("Login error: %v", err)
	}
	if user.ID != userID {
		t.Errorf("logged-in user = %q, want %q", user.ID, userID)
	}
	if token == "" {
		t.Error("expected a token")
	}
}

func TestLoginWrongPassword(t *testing.T) {
	svc, _ := newUserService(t, newFakeRepoManager())
	registerUser(t, svc, "anna@example.com", "hunter22")

	_, _, err := svc.Login(context.Background(), "anna@example.com", "wrong-one")
	if !errors.Is(err, common.ErrorUnauthorized) {
		t.Errorf("Login error = %v, want %v", err, common.ErrorUnauthorized)
	}
}

func TestLoginUnknownEmail(t *testing.T) {
	svc, _ := newUserService(t, newFakeRepoManager())

	_, _, err := svc.Login(context.Background(), "ghost@example.com", "whatever1")
	if !errors.Is(err, common.ErrorUnauthorized) {
		t.Errorf("Login error = %v, want %v", err, common.ErrorUnauthorized)
	}
}

func TestRefreshRotatesSession(t *testing.T) {
	rm := newFakeRepoManager()
	svc, mock := newUserService(t, rm)
	userID, oldToken := registerUser(t, svc, "anna@example.com", "hunter22")

	oldClaims, err := auth.ParseToken(oldToken, []byte("test-secret"))
	if err != nil {
		t.Fatalf("parsing old token: %v", err)
	}

	mock.ExpectBegin()
	mock.ExpectCommit()

	user, newToken, err := svc.Refresh(context.Background(), oldToken)
	if err != nil {
		t.Fatalf("Refresh error: %v", err)
	}
	if user.ID != userID {
		t.Errorf("refreshed user = %q, want %q", user.ID, userID)
	}

	newClaims, err := auth.ParseToken(newToken, []byte("test-secret"))
	if err != nil {
		t.Fatalf("parsing new token: %v", err)
	}
	if newClaims.ID == oldClaims.ID {
		t.Error("jti was not rotated")
	}
	if _, ok := rm.s.sessions[oldClaims.ID]; ok {
		t.Error("old session row still present after refresh")
	}
	if _, ok := rm.s.sessions[newClaims.ID]; !ok {
		t.Error("new session row missing after refresh")
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet sql expectations: %v", err)
	}
}

func TestRefreshAcceptsExpiredToken(t *testing.T) {
	rm := newFakeRepoManager()
	svc, mock := newUserService(t, rm)
	userID, _ := registerUser(t, svc, "anna@example.com", "hunter22")

	// A token past its exp whose jti still names a live session.
	jti := "11111111-1111-1111-1111-111111111111"
	rm.s.Create(context.Background(), userID, jti, time.Hour)
	expired := signToken(t, userID, jti, -time.Minute)

	mock.ExpectBegin()
	mock.ExpectCommit()

	if _, _, err := svc.Refresh(context.Background(), expired); err != nil {
		t.Fatalf("Refresh of expired token error: %v", err)
	}
}

func TestRefreshRevokedSession(t *testing.T) {
	svc, _ := newUserService(t, newFakeRepoManager())
	userID := "22222222-2222-2222-2222-222222222222"
	token := signToken(t, userID, "33333333-3333-3333-3333-333333333333", time.Hour)

	_, _, err := svc.Refresh(context.Background(), token)
	if !errors.Is(err, common.ErrInvalidToken) {
		t.Errorf("Refresh error = %v, want %v", err, common.ErrInvalidToken)
	}
}

func TestRefreshExpiredSessionRow(t *testing.T) {
	rm := newFakeRepoManager()
	svc, _ := newUserService(t, rm)
	userID, _ := registerUser(t, svc, "anna@example.com", "hunter22")

	jti := "44444444-4444-4444-4444-444444444444"
	rm.s.Create(context.Background(), userID, jti, -time.Minute)
	token := signToken(t, userID, jti, time.Hour)

	_, _, err := svc.Refresh(context.Background(), token)
	if !errors.Is(err, common.ErrTokenExpired) {
		t.Errorf("Refresh error = %v, want %v", err, common.ErrTokenExpired)
	}
}

func TestAuthenticate(t *testing.T) {
	rm := newFakeRepoManager()
	svc, _ := newUserService(t, rm)
	userID, token := registerUser(t, svc, "anna@example.com", "hunter22")

	got, err := svc.Authenticate(context.Background(), token)
	if err != nil {
		t.Fatalf("Authenticate error: %v", err)
	}
	if got != userID {
		t.Errorf("Authenticate = %q, want %q", got, userID)
	}

	// Revoking the session invalidates the still-unexpired token.
	claims, _ := auth.ParseToken(token, []byte("test-secret"))
	rm.s.Delete(context.Background(), claims.ID)
	if _, err := svc.Authenticate(context.Background(), token); !errors.Is(err, common.ErrInvalidToken) {
		t.Errorf("Authenticate after revocation = %v, want %v", err, common.ErrInvalidToken)
	}
}

func TestUpdateProfile(t *testing.T) {
	rm := newFakeRepoManager()
	svc, _ := newUserService(t, rm)
	userID, _ := registerUser(t, svc, "anna@example.com", "hunter22")

	email := "New@Example.com"
	name := "  Anna K  "
	user, err := svc.UpdateProfile(context.Background(), userID, UserPatch{Email: &email, Name: &name})
	if err != nil {
		t.Fatalf("UpdateProfile error: %v", err)
	}
	if user.Email != "new@example.com" {
		t.Errorf("email = %q, want %q", user.Email, "new@example.com")
	}
	if user.Name != "Anna K" {
		t.Errorf("name = %q, want %q", user.Name, "Anna K")
	}

	stored := rm.u.users[userID]
	if stored.Email != "new@example.com" || stored.Name != "Anna K" {
		t.Errorf("stored user not updated: %+v", stored)
	}
}

func TestUpdateProfileBadEmail(t *testing.T) {
	svc, _ := newUserService(t, newFakeRepoManager())
	userID, _ := registerUser(t, svc, "anna@example.com", "hunter22")

	email := "not-an-address"
	_, err := svc.UpdateProfile(context.Background(), userID, UserPatch{Email: &email})
	if !errors.Is(err, common.ErrorValidation) {
		t.Errorf("UpdateProfile error = %v, want %v", err, common.ErrorValidation)
	}
}

func TestChangePassword(t *testing.T) {
	svc, _ := newUserService(t, newFakeRepoManager())
	userID, _ := registerUser(t, svc, "anna@example.com", "hunter22")

	if err := svc.ChangePassword(context.Background(), userID, "hunter22", "brand-new-1"); err != nil {
		t.Fatalf("ChangePassword error: %v", err)
	}

	if _, _, err := svc.Login(context.Background(), "anna@example.com", "hunter22"); !errors.Is(err, common.ErrorUnauthorized) {
		t.Error("old password still accepted")
	}
	if _, _, err := svc.Login(context.Background(), "anna@example.com", "brand-new-1"); err != nil {
		t.Errorf("new password rejected: %v", err)
	}
}

func TestChangePasswordWrongCurrent(t *testing.T) {
	svc, _ := newUserService(t, newFakeRepoManager())
	userID, _ := registerUser(t, svc, "anna@example.com", "hunter22")

	err := svc.ChangePassword(context.Background(), userID, "wrong-one", "brand-new-1")
	if !errors.Is(err, common.ErrorUnauthorized) {
		t.Errorf("ChangePassword error = %v, want %v", err, common.ErrorUnauthorized)
	}
}

func TestForgotPassword(t *testing.T) {
	rm := newFakeRepoManager()
	svc, _ := newUserService(t, rm)
	userID, _ := registerUser(t, svc, "anna@example.com", "hunter22")

	if err := svc.ForgotPassword(context.Background(), "Anna@Example.com"); err != nil {
		t.Fatalf("ForgotPassword error: %v", err)
	}
	if len(rm.r.tokens) != 1 {
		t.Fatalf("reset tokens stored = %d, want 1", len(rm.r.tokens))
	}
	for _, reset := range rm.r.tokens {
		if reset.UserID != userID {
			t.Errorf("reset token user = %q, want %q", reset.UserID, userID)
		}
	}
}

func TestForgotPasswordUnknownEmail(t *testing.T) {
	rm := newFakeRepoManager()
	svc, _ := newUserService(t, rm)

	// Unknown addresses succeed silently so callers cannot probe for accounts.
	if err := svc.ForgotPassword(context.Background(), "ghost@example.com"); err != nil {
		t.Fatalf("ForgotPassword error: %v", err)
	}
	if len(rm.r.tokens) != 0 {
		t.Errorf("reset tokens stored = %d, want 0", len(rm.r.tokens))
	}
}

func TestResetPassword(t *testing.T) {
	rm := newFakeRepoManager()
	svc, mock := newUserService(t, rm)
	registerUser(t, svc, "anna@example.com", "hunter22")

	if err := svc.ForgotPassword(context.Background(), "anna@example.com"); err != nil {
		t.Fatalf("ForgotPassword error: %v", err)
	}
	var token string
	for tok := range rm.r.tokens {
		token = tok
	}

	mock.ExpectBegin()
	mock.ExpectCommit()

	if err := svc.ResetPassword(context.Background(), token, "brand-new-1"); err != nil {
		t.Fatalf("ResetPassword error: %v", err)
	}

	if len(rm.r.tokens) != 0 {
		t.Error("reset token not consumed")
	}
	if len(rm.s.sessions) != 0 {
		t.Error("live sessions not revoked on password reset")
	}
	if _, _, err := svc.Login(context.Background(), "anna@example.com", "brand-new-1"); err != nil {
		t.Errorf("new password rejected: %v", err)
	}
}

func TestResetPasswordBadToken(t *testing.T) {
	svc, _ := newUserService(t, newFakeRepoManager())

	err := svc.ResetPassword(context.Background(), "no-such-token", "brand-new-1")
	if !errors.Is(err, common.ErrorValidation) {
		t.Errorf("ResetPassword error = %v, want %v", err, common.ErrorValidation)
	}
}

func TestResetPasswordExpiredToken(t *testing.T) {
	rm := newFakeRepoManager()
	svc, _ := newUserService(t, rm)
	userID, _ := registerUser(t, svc, "anna@example.com", "hunter22")

	rm.r.Create(context.Background(), userID, "stale-token", -time.Minute)

	err := svc.ResetPassword(context.Background(), "stale-token", "brand-new-1")
	if !errors.Is(err, common.ErrorValidation) {
		t.Errorf("ResetPassword error = %v, want %v", err, common.ErrorValidation)
	}
	if _, ok := rm.r.tokens["stale-token"]; ok {
		t.Error("expired reset token not deleted")
	}
}

func TestSweepExpiredSessions(t *testing.T) {
	rm := newFakeRepoManager()
	svc, _ := newUserService(t, rm)

	rm.s.Create(context.Background(), "u1", "live-jti", time.Hour)
	rm.s.Create(context.Background(), "u1", "dead-jti", -time.Minute)

	if err := svc.SweepExpiredSessions(context.Background()); err != nil {
		t.Fatalf("SweepExpiredSessions error: %v", err)
	}
	if _, ok := rm.s.sessions["dead-jti"]; ok {
		t.Error("expired session survived the sweep")
	}
	if _, ok := rm.s.sessions["live-jti"]; !ok {
		t.Error("live session was swept")
	}
}

// signToken builds a token directly so tests can control jti and expiry.
func signToken(t *testing.T, userID, jti string, validity time.Duration) string {
	t.Helper()
	token, err := auth.GenerateToken(userID, jti, []byte("test-secret"), validity)
	if err != nil {
		t.Fatalf("GenerateToken error: %v", err)
	}
	return token
}
