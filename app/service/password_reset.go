package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"golang.org/x/crypto/bcrypt"

	"github.com/vibast-solutions/ms-go-todo/app/entity"
	"github.com/vibast-solutions/ms-go-todo/app/metrics"
	"github.com/vibast-solutions/ms-go-todo/app/repository"
	"github.com/vibast-solutions/ms-go-todo/config"
)

// ErrInvalidResetToken is deliberately the only failure a completion
// attempt can surface: missing, expired, used and revoked tokens are
// indistinguishable to the caller.
var ErrInvalidResetToken = errors.New("invalid or expired reset token")

type PasswordResetService struct {
	db       *sql.DB
	users    *repository.UserRepository
	sessions *repository.SessionRepository
	tokens   *repository.PasswordResetTokenRepository
	audits   *repository.AuditLogRepository
	policy   config.PasswordPolicy
	tokenTTL time.Duration
}

func NewPasswordResetService(
	db *sql.DB,
	users *repository.UserRepository,
	sessions *repository.SessionRepository,
	tokens *repository.PasswordResetTokenRepository,
	audits *repository.AuditLogRepository,
	cfg *config.Config,
) *PasswordResetService {
	return &PasswordResetService{
		db:       db,
		users:    users,
		sessions: sessions,
		tokens:   tokens,
		audits:   audits,
		policy:   cfg.PasswordPolicy,
		tokenTTL: cfg.ResetTokenTTL,
	}
}

// Request issues a reset token for the account behind email. It
// reports success whether or not the email is registered; the token is
// returned to the caller only for delivery, never in the HTTP
// response. Each user has at most one live token: a second request
// replaces the previous one in place.
func (s *PasswordResetService) Request(ctx context.Context, email string, meta RequestMeta) (token string, err error) {
	defer func() { metrics.ObserveAuth("reset_request", err) }()

	user, err := s.users.FindByEmail(ctx, email)
	if err != nil {
		return "", err
	}
	if user == nil || !user.Active() {
		return "", nil
	}

	now := time.Now().UTC()
	token = uuid.New().String()
	expiresAt := now.Add(s.tokenTTL)

	existing, err := s.tokens.FindByUserID(ctx, user.ID)
	if err != nil {
		return "", err
	}

	var tokenID string
	if existing != nil {
		tokenID = existing.ID
		if err = s.tokens.Replace(ctx, existing.ID, token, expiresAt, now); err != nil {
			return "", err
		}
	} else {
		tokenID = uuid.New().String()
		err = s.tokens.Create(ctx, &entity.PasswordResetToken{
			ID:        tokenID,
			UserID:    user.ID,
			Token:     token,
			ExpiresAt: expiresAt,
			CreatedAt: now,
			UpdatedAt: now,
		})
		if err != nil {
			return "", err
		}
	}

	s.auditReset(ctx, user.ID, "password_reset_requested", "password_reset_tokens", tokenID, meta)

	return token, nil
}

// Validate reports only a boolean; which of the four conditions failed
// is never leaked. Expiry uses the same UTC clock as issuance, with
// expires_at <= now meaning expired.
func (s *PasswordResetService) Validate(ctx context.Context, token string) (bool, error) {
	record, err := s.tokens.FindByToken(ctx, token)
	if err != nil {
		return false, err
	}
	if record == nil {
		return false, nil
	}
	return record.Usable(time.Now().UTC()), nil
}

// Complete re-checks every condition under a row lock, stores the new
// password, consumes the token and deletes all of the user's sessions
// so every outstanding refresh token dies with the old password.
func (s *PasswordResetService) Complete(ctx context.Context, token, newPassword string, meta RequestMeta) (err error) {
	defer func() { metrics.ObserveAuth("reset_complete", err) }()

	if policyErr := s.policy.Validate(newPassword); policyErr != nil {
		return fmt.Errorf("%w: %s", ErrWeakPassword, policyErr.Error())
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	txTokens := s.tokens.WithTx(tx)
	record, err := txTokens.FindByTokenForUpdate(ctx, token)
	if err != nil {
		return err
	}
	if record == nil {
		return ErrInvalidResetToken
	}

	now := time.Now().UTC()
	if !record.Usable(now) {
		return ErrInvalidResetToken
	}

	user, err := s.users.WithTx(tx).FindActiveByID(ctx, record.UserID)
	if err != nil {
		return err
	}
	if user == nil {
		return ErrInvalidResetToken
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(newPassword), bcrypt.DefaultCost)
	if err != nil {
		return err
	}

	if err = s.users.WithTx(tx).UpdatePassword(ctx, user.ID, string(hashedPassword), now); err != nil {
		return err
	}

	used, err := txTokens.MarkUsed(ctx, record.ID, now)
	if err != nil {
		return err
	}
	if used == 0 {
		return ErrInvalidResetToken
	}

	if err = s.sessions.WithTx(tx).DeleteByUserID(ctx, user.ID); err != nil {
		return err
	}

	if err = tx.Commit(); err != nil {
		return err
	}

	s.auditReset(ctx, user.ID, "password_reset", "users", user.ID, meta)

	return nil
}

func (s *PasswordResetService) auditReset(ctx context.Context, userID, action, entityType, entityID string, meta RequestMeta) {
	entry := &entity.AuditLog{
		ID:         uuid.New().String(),
		UserID:     userID,
		Action:     action,
		EntityType: entityType,
		EntityID:   entityID,
		IPAddress:  meta.IPAddress,
		UserAgent:  meta.UserAgent,
		CreatedAt:  time.Now().UTC(),
	}
	if err := s.audits.Create(ctx, entry); err != nil {
		logrus.WithError(err).WithField("action", action).Warn("Failed to write audit log")
	}
}
