package repository

import (
	"context"

	"github.com/vibast-solutions/ms-go-todo/app/entity"
)

// AuditLogRepository is append-only; there are deliberately no update
// or delete operations.
type AuditLogRepository struct {
	db Querier
}

func NewAuditLogRepository(db Querier) *AuditLogRepository {
	return &AuditLogRepository{db: db}
}

func (r *AuditLogRepository) Create(ctx context.Context, log *entity.AuditLog) error {
	query := `
		INSERT INTO audit_logs (id, user_id, action, entity_type, entity_id, ip_address, user_agent, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`
	_, err := r.db.ExecContext(ctx, query,
		log.ID,
		log.UserID,
		log.Action,
		log.EntityType,
		log.EntityID,
		log.IPAddress,
		log.UserAgent,
		log.CreatedAt,
	)
	return err
}
