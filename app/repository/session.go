package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/vibast-solutions/ms-go-todo/app/entity"
)

const sessionColumns = `id, user_id, refresh_token, expires_at, ip_address, created_at, updated_at`

type SessionRepository struct {
	db Querier
}

func NewSessionRepository(db Querier) *SessionRepository {
	return &SessionRepository{db: db}
}

func (r *SessionRepository) WithTx(tx *sql.Tx) *SessionRepository {
	return &SessionRepository{db: tx}
}

func (r *SessionRepository) Create(ctx context.Context, session *entity.Session) error {
	query := `
		INSERT INTO sessions (id, user_id, refresh_token, expires_at, ip_address, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`
	_, err := r.db.ExecContext(ctx, query,
		session.ID,
		session.UserID,
		session.RefreshToken,
		session.ExpiresAt,
		session.IPAddress,
		session.CreatedAt,
		session.UpdatedAt,
	)
	return err
}

// FindByRefreshTokenForUpdate locks the session row; callers must be
// inside a transaction for the lock to mean anything.
func (r *SessionRepository) FindByRefreshTokenForUpdate(ctx context.Context, token string) (*entity.Session, error) {
	query := `SELECT ` + sessionColumns + ` FROM sessions WHERE refresh_token = ? FOR UPDATE`
	return r.scanOne(r.db.QueryRowContext(ctx, query, token))
}

func (r *SessionRepository) FindByRefreshToken(ctx context.Context, token string) (*entity.Session, error) {
	query := `SELECT ` + sessionColumns + ` FROM sessions WHERE refresh_token = ?`
	return r.scanOne(r.db.QueryRowContext(ctx, query, token))
}

// Rotate swaps the refresh token in a single conditional write. A zero
// row count means another rotation already consumed oldToken, and the
// caller must treat the presented token as spent.
func (r *SessionRepository) Rotate(ctx context.Context, sessionID, oldToken, newToken string, expiresAt, now time.Time) (int64, error) {
	query := `
		UPDATE sessions SET refresh_token = ?, expires_at = ?, updated_at = ?
		WHERE id = ? AND refresh_token = ?
	`
	result, err := r.db.ExecContext(ctx, query, newToken, expiresAt, now, sessionID, oldToken)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}

func (r *SessionRepository) DeleteByRefreshToken(ctx context.Context, token, userID string) (int64, error) {
	query := `DELETE FROM sessions WHERE refresh_token = ? AND user_id = ?`
	result, err := r.db.ExecContext(ctx, query, token, userID)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}

func (r *SessionRepository) DeleteByUserID(ctx context.Context, userID string) error {
	query := `DELETE FROM sessions WHERE user_id = ?`
	_, err := r.db.ExecContext(ctx, query, userID)
	return err
}

func (r *SessionRepository) DeleteExpired(ctx context.Context, now time.Time) (int64, error) {
	query := `DELETE FROM sessions WHERE expires_at <= ?`
	result, err := r.db.ExecContext(ctx, query, now)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}

func (r *SessionRepository) scanOne(row *sql.Row) (*entity.Session, error) {
	session := &entity.Session{}
	err := row.Scan(
		&session.ID,
		&session.UserID,
		&session.RefreshToken,
		&session.ExpiresAt,
		&session.IPAddress,
		&session.CreatedAt,
		&session.UpdatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return session, nil
}
