// Package services contains the server-side business logic: the users
// service owning authentication and profiles, and the wallet service owning
// accounts and the ledger.
package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/avasilkov/walletapp/internal/common"
	"github.com/avasilkov/walletapp/internal/dbx"
	"github.com/avasilkov/walletapp/internal/logging"
	"github.com/avasilkov/walletapp/internal/server/auth"
	"github.com/avasilkov/walletapp/internal/server/config"
	"github.com/avasilkov/walletapp/internal/server/models"
	"github.com/avasilkov/walletapp/internal/server/repositories/repomanager"
)

const minPasswordLength = 6

// UserPatch is a partial profile update. Nil fields are left unchanged.
type UserPatch struct {
	Email *string
	Name  *string
}

// UserService handles registration, login, token refresh and everything else
// tied to a user's credentials.
type UserService struct {
	db                    *sql.DB
	repos                 repomanager.RepositoryManager
	logger                logging.Logger
	jwtSecret             []byte
	tokenValidityDuration time.Duration
	resetTokenValidity    time.Duration
}

func NewUserService(db *sql.DB, m repomanager.RepositoryManager, cfg *config.Config, logger logging.Logger) *UserService {
	return &UserService{
		db:                    db,
		repos:                 m,
		logger:                logger.With("component", "users"),
		jwtSecret:             []byte(cfg.SecretKey),
		tokenValidityDuration: cfg.TokenValidityDuration,
		resetTokenValidity:    cfg.ResetTokenValidity,
	}
}

// Register creates a user and signs them in, returning the user and a fresh
// access token. A duplicate email yields common.ErrorAlreadyExists.
func (s *UserService) Register(ctx context.Context, email, password string) (*models.User, string, error) {
	email = strings.TrimSpace(strings.ToLower(email))
	if email == "" || !strings.Contains(email, "@") {
		return nil, "", fmt.Errorf("%w: invalid email", common.ErrorValidation)
	}
	if len(password) < minPasswordLength {
		return nil, "", fmt.Errorf("%w: password too short", common.ErrorValidation)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, "", common.ErrorInternal
	}

	user := &models.User{ID: uuid.NewString(), Email: email, PasswordHash: hash}
	user, err = s.repos.Users(s.db).Create(ctx, user)
	if err != nil {
		if errors.Is(err, common.ErrorAlreadyExists) {
			return nil, "", common.ErrorAlreadyExists
		}
		return nil, "", fmt.Errorf("creating user: %w", err)
	}

	token, err := s.issueToken(ctx, s.db, user.ID)
	if err != nil {
		return nil, "", err
	}
	s.logger.Info(ctx, "user registered", "email", email)
	return user, token, nil
}

// Login verifies the credentials and returns the user and a fresh access
// token. Unknown email and wrong password are indistinguishable to the
// caller.
func (s *UserService) Login(ctx context.Context, email, password string) (*models.User, string, error) {
	email = strings.TrimSpace(strings.ToLower(email))
	user, err := s.repos.Users(s.db).GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, "", common.ErrorUnauthorized
		}
		return nil, "", common.ErrorInternal
	}
	if bcrypt.CompareHashAndPassword(user.PasswordHash, []byte(password)) != nil {
		return nil, "", common.ErrorUnauthorized
	}

	token, err := s.issueToken(ctx, s.db, user.ID)
	if err != nil {
		return nil, "", err
	}
	s.logger.Info(ctx, "user logged in", "email", email)
	return user, token, nil
}

// Refresh rotates the session named by tokenString. The signature must be
// valid but the token may be expired; the jti must still name a live session
// row. The old session is deleted and a new token issued in one transaction.
func (s *UserService) Refresh(ctx context.Context, tokenString string) (*models.User, string, error) {
	claims, err := auth.ParseTokenAllowExpired(tokenString, s.jwtSecret)
	if err != nil {
		return nil, "", err
	}

	session, err := s.repos.SessionTokens(s.db).Find(ctx, claims.ID)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, "", common.ErrInvalidToken
		}
		return nil, "", common.ErrorInternal
	}
	if session.Expires.Before(time.Now()) {
		return nil, "", common.ErrTokenExpired
	}

	user, err := s.repos.Users(s.db).GetByID(ctx, session.UserID)
	if err != nil {
		return nil, "", common.ErrorInternal
	}

	var token string
	if err := dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		if err := s.repos.SessionTokens(tx).Delete(ctx, claims.ID); err != nil {
			return err
		}
		var issueErr error
		token, issueErr = s.issueToken(ctx, tx, user.ID)
		return issueErr
	}); err != nil {
		return nil, "", fmt.Errorf("rotating session: %w", err)
	}

	s.logger.Info(ctx, "token refreshed", "user_id", user.ID)
	return user, token, nil
}

// Authenticate validates an access token for a protected request and returns
// the user id. The jti must still exist server-side, so deleted sessions are
// rejected even before the token expires.
func (s *UserService) Authenticate(ctx context.Context, tokenString string) (string, error) {
	claims, err := auth.ParseToken(tokenString, s.jwtSecret)
	if err != nil {
		return "", err
	}
	if _, err := s.repos.SessionTokens(s.db).Find(ctx, claims.ID); err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return "", common.ErrInvalidToken
		}
		return "", common.ErrorInternal
	}
	return claims.UserID, nil
}

// UpdateProfile applies a partial update and returns the stored user.
func (s *UserService) UpdateProfile(ctx context.Context, userID string, patch UserPatch) (*models.User, error) {
	repo := s.repos.Users(s.db)
	user, err := repo.GetByID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("loading user: %w", err)
	}

	if patch.Email != nil {
		email := strings.TrimSpace(strings.ToLower(*patch.Email))
		if email == "" || !strings.Contains(email, "@") {
			return nil, fmt.Errorf("%w: invalid email", common.ErrorValidation)
		}
		user.Email = email
	}
	if patch.Name != nil {
		user.Name = strings.TrimSpace(*patch.Name)
	}

	if err := repo.Update(ctx, user); err != nil {
		return nil, fmt.Errorf("updating user: %w", err)
	}
	return user, nil
}

// ChangePassword verifies the current password before storing the new hash.
func (s *UserService) ChangePassword(ctx context.Context, userID, currentPassword, newPassword string) error {
	if len(newPassword) < minPasswordLength {
		return fmt.Errorf("%w: password too short", common.ErrorValidation)
	}

	repo := s.repos.Users(s.db)
	user, err := repo.GetByID(ctx, userID)
	if err != nil {
		return fmt.Errorf("loading user: %w", err)
	}
	if bcrypt.CompareHashAndPassword(user.PasswordHash, []byte(currentPassword)) != nil {
		return common.ErrorUnauthorized
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(newPassword), bcrypt.DefaultCost)
	if err != nil {
		return common.ErrorInternal
	}
	if err := repo.UpdatePassword(ctx, userID, hash); err != nil {
		return fmt.Errorf("storing password: %w", err)
	}
	return nil
}

// ForgotPassword issues a reset token for the address. An unknown address is
// not an error, so the endpoint cannot be used to enumerate accounts. The
// token is logged in place of outbound mail delivery.
func (s *UserService) ForgotPassword(ctx context.Context, email string) error {
	email = strings.TrimSpace(strings.ToLower(email))
	user, err := s.repos.Users(s.db).GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			s.logger.Info(ctx, "password reset requested for unknown email")
			return nil
		}
		return common.ErrorInternal
	}

	token, err := common.MakeRandHexString(32)
	if err != nil {
		return common.ErrorInternal
	}
	if err := s.repos.ResetTokens(s.db).Create(ctx, user.ID, token, s.resetTokenValidity); err != nil {
		return fmt.Errorf("storing reset token: %w", err)
	}

	s.logger.Info(ctx, "password reset token issued", "email", email, "token", token)
	return nil
}

// ResetPassword redeems a reset token. The token is single-use and every
// live session of the user is revoked.
func (s *UserService) ResetPassword(ctx context.Context, token, newPassword string) error {
	if len(newPassword) < minPasswordLength {
		return fmt.Errorf("%w: password too short", common.ErrorValidation)
	}

	reset, err := s.repos.ResetTokens(s.db).Find(ctx, token)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return fmt.Errorf("%w: invalid reset token", common.ErrorValidation)
		}
		return common.ErrorInternal
	}
	if reset.Expires.Before(time.Now()) {
		_ = s.repos.ResetTokens(s.db).Delete(ctx, token)
		return fmt.Errorf("%w: reset token expired", common.ErrorValidation)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(newPassword), bcrypt.DefaultCost)
	if err != nil {
		return common.ErrorInternal
	}

	if err := dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		if err := s.repos.Users(tx).UpdatePassword(ctx, reset.UserID, hash); err != nil {
			return err
		}
		if err := s.repos.ResetTokens(tx).Delete(ctx, token); err != nil {
			return err
		}
		return s.repos.SessionTokens(tx).DeleteForUser(ctx, reset.UserID)
	}); err != nil {
		return fmt.Errorf("resetting password: %w", err)
	}

	s.logger.Info(ctx, "password reset", "user_id", reset.UserID)
	return nil
}

// SweepExpiredSessions removes session rows past their expiry.
func (s *UserService) SweepExpiredSessions(ctx context.Context) error {
	n, err := s.repos.SessionTokens(s.db).DeleteExpired(ctx)
	if err != nil {
		return err
	}
	if n > 0 {
		s.logger.Info(ctx, "expired sessions swept", "count", n)
	}
	return nil
}

func (s *UserService) issueToken(ctx context.Context, db dbx.DBTX, userID string) (string, error) {
	jti := uuid.NewString()
	if err := s.repos.SessionTokens(db).Create(ctx, userID, jti, s.tokenValidityDuration); err != nil {
		return "", common.ErrorInternal
	}
	token, err := auth.GenerateToken(userID, jti, s.jwtSecret, s.tokenValidityDuration)
	if err != nil {
		return "", common.ErrorInternal
	}
	return token, nil
}
