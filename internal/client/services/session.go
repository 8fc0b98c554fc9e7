// Package services contains the client application services: the session
// manager owning the auth lifecycle, and the wallet ledger engine owning the
// account/transaction collections and their derived summary.
package services

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/avasilkov/walletapp/internal/client/api"
	"github.com/avasilkov/walletapp/internal/client/models"
	"github.com/avasilkov/walletapp/internal/client/repositories/kvstore"
	"github.com/avasilkov/walletapp/internal/common"
	"github.com/avasilkov/walletapp/internal/logging"
	"github.com/avasilkov/walletapp/internal/observe"
)

// Persisted cache keys owned by the session manager.
const (
	keyAuthToken   = "auth_token"
	keyCurrentUser = "current_user"
)

// isCorruptValue reports whether a persisted value is one of the placeholder
// literals a prior bug or partial write may have left behind. Such values are
// treated as absent and purged on read.
func isCorruptValue(v string) bool {
	return v == "undefined" || v == "null"
}

// SessionService owns the current user identity, the bearer token and the
// token-refresh protocol. It is the single writer of the auth_token and
// current_user cache keys and implements api.Authority for the request
// authorizer.
//
// A session is authenticated exactly when both user and token are present.
type SessionService struct {
	client api.Client
	kv     kvstore.Repository
	logger logging.Logger

	mu    sync.RWMutex
	user  *models.User
	token string

	// refreshMu is the process-wide single-flight guard over the token
	// refresh call. TryLock keeps the fail-fast policy: a caller that finds
	// a refresh already running does not queue.
	refreshMu sync.Mutex

	currentUser   *observe.Value[*models.User]
	authenticated *observe.Value[bool]
}

// NewSessionService builds the session manager and restores a persisted
// session: corrupted placeholder values are purged first, and if both token
// and user survive, the session is marked authenticated without contacting
// the backend.
func NewSessionService(ctx context.Context, client api.Client, kv kvstore.Repository, logger logging.Logger) *SessionService {
	s := &SessionService{
		client:        client,
		kv:            kv,
		logger:        logger.With("component", "session"),
		currentUser:   observe.NewValue[*models.User](nil),
		authenticated: observe.NewValue(false),
	}
	s.restore(ctx)
	return s
}

// restore loads the persisted token and user, if any.
func (s *SessionService) restore(ctx context.Context) {
	token := s.readString(ctx, keyAuthToken)

	var user *models.User
	if raw := s.readString(ctx, keyCurrentUser); raw != "" {
		var u models.User
		if err := json.Unmarshal([]byte(raw), &u); err != nil {
			s.logger.Warn(ctx, "purging corrupt persisted user", "error", err)
			_ = s.kv.Delete(ctx, keyCurrentUser)
		} else {
			user = &u
		}
	}

	if token == "" || user == nil {
		return
	}

	s.setSession(user, token)
	s.logger.Info(ctx, "session restored", "email", user.Email)
}

// readString returns the persisted value for key, purging and discarding it
// when it holds a corruption sentinel.
func (s *SessionService) readString(ctx context.Context, key string) string {
	v, ok, err := s.kv.Get(ctx, key)
	if err != nil {
		s.logger.Warn(ctx, "cache read failed", "key", key, "error", err)
		return ""
	}
	if !ok {
		return ""
	}
	if isCorruptValue(v) {
		s.logger.Warn(ctx, "purging corrupt persisted value", "key", key)
		_ = s.kv.Delete(ctx, key)
		return ""
	}
	return v
}

// Login authenticates against the backend and establishes the session.
func (s *SessionService) Login(ctx context.Context, email, password string) (*models.User, error) {
	resp, err := s.client.Login(ctx, email, password)
	if err != nil {
		return nil, fmt.Errorf("login: %w", err)
	}
	s.establish(ctx, resp)
	s.logger.Info(ctx, "logged in", "email", resp.User.Email)
	return s.CurrentUser(), nil
}

// Register creates an account on the backend and establishes the session,
// with the same contract as Login.
func (s *SessionService) Register(ctx context.Context, email, password string) (*models.User, error) {
	resp, err := s.client.Register(ctx, email, password)
	if err != nil {
		return nil, fmt.Errorf("register: %w", err)
	}
	s.establish(ctx, resp)
	s.logger.Info(ctx, "registered", "email", resp.User.Email)
	return s.CurrentUser(), nil
}

// Logout destroys the session: memory, persisted copies and the
// authenticated flag. Subscribers observe the nil-user/false transition as
// the "session ended" signal.
func (s *SessionService) Logout(ctx context.Context) {
	s.mu.Lock()
	s.user = nil
	s.token = ""
	s.mu.Unlock()

	_ = s.kv.Delete(ctx, keyAuthToken)
	_ = s.kv.Delete(ctx, keyCurrentUser)

	s.currentUser.Set(nil)
	s.authenticated.Set(false)
	s.logger.Info(ctx, "logged out")
}

// Token returns the current bearer token, or "" when there is no session or
// the held value is a corruption placeholder.
func (s *SessionService) Token() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if isCorruptValue(s.token) {
		return ""
	}
	return s.token
}

// Reauthorize implements the refresh leg of the 401 recovery protocol.
//
// The first concurrent caller performs the refresh; on success the new token
// is stored and returned so the authorizer can retry the original request.
// On refresh failure the session is destroyed and the refresh error
// propagates. A caller that finds a refresh already in flight also destroys
// the session and fails with common.ErrAuthenticationFailed; it never starts
// a second refresh.
func (s *SessionService) Reauthorize(ctx context.Context) (string, error) {
	if !s.refreshMu.TryLock() {
		s.logger.Warn(ctx, "refresh already in flight, forcing logout")
		s.Logout(ctx)
		return "", common.ErrAuthenticationFailed
	}
	defer s.refreshMu.Unlock()

	resp, err := s.client.Refresh(ctx)
	if err != nil {
		s.logger.Warn(ctx, "token refresh failed", "error", err)
		s.Logout(ctx)
		return "", fmt.Errorf("token refresh: %w", err)
	}

	s.establish(ctx, resp)
	s.logger.Info(ctx, "token refreshed")
	return resp.Token, nil
}

// Refresh forces a token refresh outside the 401 path, with the same
// single-flight and forced-logout semantics.
func (s *SessionService) Refresh(ctx context.Context) error {
	_, err := s.Reauthorize(ctx)
	return err
}

// UpdateProfile applies a partial profile update. The token is untouched.
func (s *SessionService) UpdateProfile(ctx context.Context, patch api.UserPatch) (*models.User, error) {
	user, err := s.client.UpdateProfile(ctx, patch)
	if err != nil {
		return nil, fmt.Errorf("update profile: %w", err)
	}

	s.mu.Lock()
	s.user = user
	token := s.token
	s.mu.Unlock()

	s.persist(ctx, user, token)
	s.currentUser.Set(cloneUser(user))
	return cloneUser(user), nil
}

func (s *SessionService) ChangePassword(ctx context.Context, currentPassword, newPassword string) error {
	if err := s.client.ChangePassword(ctx, currentPassword, newPassword); err != nil {
		return fmt.Errorf("change password: %w", err)
	}
	return nil
}

func (s *SessionService) ForgotPassword(ctx context.Context, email string) error {
	if err := s.client.ForgotPassword(ctx, email); err != nil {
		return fmt.Errorf("forgot password: %w", err)
	}
	return nil
}

func (s *SessionService) ResetPassword(ctx context.Context, token, newPassword string) error {
	if err := s.client.ResetPassword(ctx, token, newPassword); err != nil {
		return fmt.Errorf("reset password: %w", err)
	}
	return nil
}

// CurrentUser returns a copy of the signed-in user, or nil.
func (s *SessionService) CurrentUser() *models.User {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return cloneUser(s.user)
}

// IsAuthenticated reports whether both user and token are present.
func (s *SessionService) IsAuthenticated() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.user != nil && s.token != "" && !isCorruptValue(s.token)
}

// CurrentUserChanges exposes the observable user; subscribers receive every
// transition in order, late subscribers only the latest value.
func (s *SessionService) CurrentUserChanges() *observe.Value[*models.User] {
	return s.currentUser
}

// AuthenticatedChanges exposes the observable authenticated flag.
func (s *SessionService) AuthenticatedChanges() *observe.Value[bool] {
	return s.authenticated
}

// establish commits a successful auth response: memory, persisted mirror,
// broadcasts.
func (s *SessionService) establish(ctx context.Context, resp *api.AuthResponse) {
	user := resp.User
	s.setSession(&user, resp.Token)
	s.persist(ctx, &user, resp.Token)
}

func (s *SessionService) setSession(user *models.User, token string) {
	s.mu.Lock()
	s.user = user
	s.token = token
	s.mu.Unlock()

	s.currentUser.Set(cloneUser(user))
	s.authenticated.Set(true)
}

// persist mirrors the session to the cache. Mirror failures are logged, not
// fatal: the cache is a convenience, not the source of truth.
func (s *SessionService) persist(ctx context.Context, user *models.User, token string) {
	if err := s.kv.Set(ctx, keyAuthToken, token); err != nil {
		s.logger.Warn(ctx, "persisting token failed", "error", err)
	}
	data, err := json.Marshal(user)
	if err != nil {
		s.logger.Warn(ctx, "encoding user failed", "error", err)
		return
	}
	if err := s.kv.Set(ctx, keyCurrentUser, string(data)); err != nil {
		s.logger.Warn(ctx, "persisting user failed", "error", err)
	}
}

func cloneUser(u *models.User) *models.User {
	if u == nil {
		return nil
	}
	copied := *u
	return &copied
}
