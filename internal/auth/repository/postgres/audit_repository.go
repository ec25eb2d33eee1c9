package postgres

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/heybearc/quantshift-sub001/internal/auth/domain"
)

// PostgresAuditRepository appends events to the audit_events table. Rows are
// never updated or deleted here.
type PostgresAuditRepository struct {
	db DB
}

func NewPostgresAuditRepository(db DB) *PostgresAuditRepository {
	return &PostgresAuditRepository{db: db}
}

func (r *PostgresAuditRepository) Record(ctx context.Context, event *domain.AuditEvent) error {
	detail, err := json.Marshal(event.Detail)
	if err != nil {
		return fmt.Errorf("failed to marshal audit detail: %w", err)
	}

	query := `
		INSERT INTO audit_events (actor_id, action, resource_type, resource_id, ip_address, detail, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id;
	`

	err = r.db.QueryRow(ctx, query,
		event.ActorID, event.Action, event.ResourceType, event.ResourceID,
		event.IPAddress, detail, event.CreatedAt,
	).Scan(&event.ID)
	if err != nil {
		return fmt.Errorf("failed to record audit event: %w", err)
	}

	return nil
}
