package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/vibast-solutions/ms-go-todo/app/entity"
)

const resetTokenColumns = `id, user_id, token, expires_at, used_at, deleted_at, created_at, updated_at`

type PasswordResetTokenRepository struct {
	db Querier
}

func NewPasswordResetTokenRepository(db Querier) *PasswordResetTokenRepository {
	return &PasswordResetTokenRepository{db: db}
}

func (r *PasswordResetTokenRepository) WithTx(tx *sql.Tx) *PasswordResetTokenRepository {
	return &PasswordResetTokenRepository{db: tx}
}

func (r *PasswordResetTokenRepository) Create(ctx context.Context, token *entity.PasswordResetToken) error {
	query := `
		INSERT INTO password_reset_tokens (id, user_id, token, expires_at, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`
	_, err := r.db.ExecContext(ctx, query,
		token.ID,
		token.UserID,
		token.Token,
		token.ExpiresAt,
		token.CreatedAt,
		token.UpdatedAt,
	)
	return err
}

func (r *PasswordResetTokenRepository) FindByUserID(ctx context.Context, userID string) (*entity.PasswordResetToken, error) {
	query := `SELECT ` + resetTokenColumns + ` FROM password_reset_tokens WHERE user_id = ?`
	return r.scanOne(r.db.QueryRowContext(ctx, query, userID))
}

func (r *PasswordResetTokenRepository) FindByToken(ctx context.Context, token string) (*entity.PasswordResetToken, error) {
	query := `SELECT ` + resetTokenColumns + ` FROM password_reset_tokens WHERE token = ?`
	return r.scanOne(r.db.QueryRowContext(ctx, query, token))
}

func (r *PasswordResetTokenRepository) FindByTokenForUpdate(ctx context.Context, token string) (*entity.PasswordResetToken, error) {
	query := `SELECT ` + resetTokenColumns + ` FROM password_reset_tokens WHERE token = ? FOR UPDATE`
	return r.scanOne(r.db.QueryRowContext(ctx, query, token))
}

// Replace reuses the user's single token row for a fresh token,
// clearing any used/revoked markers. Keeps the one-live-token-per-user
// policy without a delete+insert pair.
func (r *PasswordResetTokenRepository) Replace(ctx context.Context, id, token string, expiresAt, now time.Time) error {
	query := `
		UPDATE password_reset_tokens SET token = ?, expires_at = ?, used_at = NULL, deleted_at = NULL, updated_at = ?
		WHERE id = ?
	`
	_, err := r.db.ExecContext(ctx, query, token, expiresAt, now, id)
	return err
}

// MarkUsed is conditional on used_at still being NULL so a token can
// only be consumed once even under concurrent completion attempts.
func (r *PasswordResetTokenRepository) MarkUsed(ctx context.Context, id string, now time.Time) (int64, error) {
	query := `UPDATE password_reset_tokens SET used_at = ?, updated_at = ? WHERE id = ? AND used_at IS NULL`
	result, err := r.db.ExecContext(ctx, query, now, now, id)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}

func (r *PasswordResetTokenRepository) scanOne(row *sql.Row) (*entity.PasswordResetToken, error) {
	token := &entity.PasswordResetToken{}
	err := row.Scan(
		&token.ID,
		&token.UserID,
		&token.Token,
		&token.ExpiresAt,
		&token.UsedAt,
		&token.DeletedAt,
		&token.CreatedAt,
		&token.UpdatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return token, nil
}
