package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/petrocom/permit-workflow/internal/application/port"
	"github.com/petrocom/permit-workflow/internal/domain/entity"
	"github.com/petrocom/permit-workflow/internal/infrastructure/persistence/sqlite"
	"go.uber.org/zap"
)

// AuditRepository implements port.AuditRepository on SQLite. The table is
// append-only; no update or delete statements exist here.
type AuditRepository struct {
	db     *sql.DB
	logger *zap.Logger
}

// NewAuditRepository creates a new audit repository.
func NewAuditRepository(db *sql.DB, logger *zap.Logger) port.AuditRepository {
	return &AuditRepository{
		db:     db,
		logger: logger,
	}
}

// Create appends an audit entry.
func (r *AuditRepository) Create(ctx context.Context, entry *entity.AuditEntry) error {
	query := `
		INSERT INTO audit_entries (
			application_id, prior_stage, new_stage, prior_sub_state,
			new_sub_state, outcome, actor_id, actor_role, action, reason, timestamp
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	result, err := sqlite.Executor(ctx, r.db).ExecContext(ctx, query,
		entry.ApplicationID,
		entry.PriorStage,
		entry.NewStage,
		entry.PriorSubState,
		entry.NewSubState,
		entry.Outcome,
		entry.ActorID,
		entry.ActorRole,
		entry.Action,
		entry.Reason,
		entry.Timestamp,
	)
	if err != nil {
		r.logger.Error("Failed to append audit entry",
			zap.String("application_id", entry.ApplicationID), zap.Error(err))
		return fmt.Errorf("failed to append audit entry: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get last insert id: %w", err)
	}
	entry.ID = id
	return nil
}

// GetByApplicationID retrieves all audit entries for an application in
// chronological order.
func (r *AuditRepository) GetByApplicationID(ctx context.Context, applicationID string) ([]*entity.AuditEntry, error) {
	query := `
		SELECT id, application_id, prior_stage, new_stage, prior_sub_state,
			new_sub_state, outcome, actor_id, actor_role, action, reason, timestamp
		FROM audit_entries
		WHERE application_id = ?
		ORDER BY timestamp ASC, id ASC
	`

	rows, err := sqlite.Executor(ctx, r.db).QueryContext(ctx, query, applicationID)
	if err != nil {
		r.logger.Error("Failed to get audit entries",
			zap.String("application_id", applicationID), zap.Error(err))
		return nil, fmt.Errorf("failed to get audit entries: %w", err)
	}
	defer rows.Close()

	var entries []*entity.AuditEntry
	for rows.Next() {
		var entry entity.AuditEntry
		err := rows.Scan(
			&entry.ID,
			&entry.ApplicationID,
			&entry.PriorStage,
			&entry.NewStage,
			&entry.PriorSubState,
			&entry.NewSubState,
			&entry.Outcome,
			&entry.ActorID,
			&entry.ActorRole,
			&entry.Action,
			&entry.Reason,
			&entry.Timestamp,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan audit entry: %w", err)
		}
		entries = append(entries, &entry)
	}
	return entries, rows.Err()
}

// Verify interface compliance.
var _ port.AuditRepository = (*AuditRepository)(nil)
