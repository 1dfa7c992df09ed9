package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/mail"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"golang.org/x/crypto/bcrypt"

	"github.com/vibast-solutions/ms-go-todo/app/dto"
	"github.com/vibast-solutions/ms-go-todo/app/entity"
	"github.com/vibast-solutions/ms-go-todo/app/metrics"
	"github.com/vibast-solutions/ms-go-todo/app/repository"
	"github.com/vibast-solutions/ms-go-todo/config"
)

var (
	ErrEmailExists  = errors.New("email already registered")
	ErrInvalidEmail = errors.New("invalid email address")
	ErrWeakPassword = errors.New("password does not meet policy requirements")
	// ErrInvalidCredentials covers unknown email, wrong password and
	// deactivated accounts alike so responses cannot be used to probe
	// which emails are registered.
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrTokenExpired       = errors.New("token has expired")
)

// RequestMeta carries per-request caller details into sessions and
// audit entries.
type RequestMeta struct {
	IPAddress string
	UserAgent string
}

type AuthService struct {
	db       *sql.DB
	users    *repository.UserRepository
	sessions *repository.SessionRepository
	audits   *repository.AuditLogRepository
	issuer   *TokenIssuer
	policy   config.PasswordPolicy
}

func NewAuthService(
	db *sql.DB,
	users *repository.UserRepository,
	sessions *repository.SessionRepository,
	audits *repository.AuditLogRepository,
	issuer *TokenIssuer,
	cfg *config.Config,
) *AuthService {
	return &AuthService{
		db:       db,
		users:    users,
		sessions: sessions,
		audits:   audits,
		issuer:   issuer,
		policy:   cfg.PasswordPolicy,
	}
}

func (s *AuthService) Join(ctx context.Context, email, password string, meta RequestMeta) (result *dto.AuthResult, err error) {
	defer func() { metrics.ObserveAuth("join", err) }()

	if _, mailErr := mail.ParseAddress(email); mailErr != nil {
		return nil, ErrInvalidEmail
	}
	if policyErr := s.policy.Validate(password); policyErr != nil {
		return nil, fmt.Errorf("%w: %s", ErrWeakPassword, policyErr.Error())
	}

	existing, err := s.users.FindByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, ErrEmailExists
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	user := &entity.User{
		ID:           uuid.New().String(),
		Email:        email,
		PasswordHash: string(hashedPassword),
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	pair, err := s.issuer.Issue(user, now)
	if err != nil {
		return nil, err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	if err = s.users.WithTx(tx).Create(ctx, user); err != nil {
		return nil, err
	}
	if err = s.sessions.WithTx(tx).Create(ctx, newSession(user.ID, pair, meta, now)); err != nil {
		return nil, err
	}
	if err = tx.Commit(); err != nil {
		return nil, err
	}

	return &dto.AuthResult{User: user, Token: pair}, nil
}

func (s *AuthService) Login(ctx context.Context, email, password string, meta RequestMeta) (result *dto.AuthResult, err error) {
	defer func() { metrics.ObserveAuth("login", err) }()

	user, err := s.users.FindByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, ErrInvalidCredentials
	}
	if bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)) != nil {
		return nil, ErrInvalidCredentials
	}
	if !user.Active() {
		return nil, ErrInvalidCredentials
	}

	now := time.Now().UTC()
	pair, err := s.issuer.Issue(user, now)
	if err != nil {
		return nil, err
	}

	if err = s.sessions.Create(ctx, newSession(user.ID, pair, meta, now)); err != nil {
		return nil, err
	}

	s.audit(ctx, user.ID, "user_login", "sessions", "", meta)

	return &dto.AuthResult{User: user, Token: pair}, nil
}

// Refresh exchanges a live refresh token for a fresh pair, rotating
// the stored value in place. The rotation is a conditional write on
// the locked session row; when two requests race with the same stale
// token only one can win.
func (s *AuthService) Refresh(ctx context.Context, refreshToken string, meta RequestMeta) (result *dto.AuthResult, err error) {
	defer func() { metrics.ObserveAuth("refresh", err) }()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	txSessions := s.sessions.WithTx(tx)
	session, err := txSessions.FindByRefreshTokenForUpdate(ctx, refreshToken)
	if err != nil {
		return nil, err
	}
	if session == nil {
		return nil, ErrInvalidToken
	}

	now := time.Now().UTC()
	if !session.ExpiresAt.After(now) {
		return nil, ErrTokenExpired
	}

	user, err := s.users.WithTx(tx).FindActiveByID(ctx, session.UserID)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, ErrInvalidToken
	}

	pair, err := s.issuer.Issue(user, now)
	if err != nil {
		return nil, err
	}

	rotated, err := txSessions.Rotate(ctx, session.ID, refreshToken, pair.Refresh, pair.RefreshableUntil, now)
	if err != nil {
		return nil, err
	}
	if rotated == 0 {
		return nil, ErrInvalidToken
	}

	if err = tx.Commit(); err != nil {
		return nil, err
	}

	s.audit(ctx, user.ID, "token_refreshed", "sessions", session.ID, meta)

	return &dto.AuthResult{User: user, Token: pair}, nil
}

func (s *AuthService) Logout(ctx context.Context, userID, refreshToken string) error {
	_, err := s.sessions.DeleteByRefreshToken(ctx, refreshToken, userID)
	return err
}

func newSession(userID string, pair dto.TokenPair, meta RequestMeta, now time.Time) *entity.Session {
	session := &entity.Session{
		ID:           uuid.New().String(),
		UserID:       userID,
		RefreshToken: pair.Refresh,
		ExpiresAt:    pair.RefreshableUntil,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if meta.IPAddress != "" {
		session.IPAddress = sql.NullString{String: meta.IPAddress, Valid: true}
	}
	return session
}

// audit failures never fail the calling flow; the log line is the
// fallback trail.
func (s *AuthService) audit(ctx context.Context, userID, action, entityType, entityID string, meta RequestMeta) {
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
