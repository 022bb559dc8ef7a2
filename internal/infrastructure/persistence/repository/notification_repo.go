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

// NotificationRepository implements port.NotificationRepository on SQLite.
type NotificationRepository struct {
	db     *sql.DB
	logger *zap.Logger
}

// NewNotificationRepository creates a new notification repository.
func NewNotificationRepository(db *sql.DB, logger *zap.Logger) port.NotificationRepository {
	return &NotificationRepository{
		db:     db,
		logger: logger,
	}
}

// Create enqueues a notification into the outbox.
func (r *NotificationRepository) Create(ctx context.Context, n *entity.Notification) error {
	query := `
		INSERT INTO notifications (
			application_id, target_role, target_actor_id, template_key, read, created_at
		) VALUES (?, ?, ?, ?, ?, ?)
	`

	result, err := sqlite.Executor(ctx, r.db).ExecContext(ctx, query,
		n.ApplicationID,
		n.TargetRole,
		n.TargetActorID,
		n.TemplateKey,
		n.Read,
		n.CreatedAt,
	)
	if err != nil {
		r.logger.Error("Failed to create notification",
			zap.String("application_id", n.ApplicationID), zap.Error(err))
		return fmt.Errorf("failed to create notification: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get last insert id: %w", err)
	}
	n.ID = id
	return nil
}

// GetByRole retrieves the most recent notifications targeted at a role.
func (r *NotificationRepository) GetByRole(ctx context.Context, role entity.Role, limit int) ([]*entity.Notification, error) {
	query := `
		SELECT id, application_id, target_role, target_actor_id, template_key, read, created_at
		FROM notifications
		WHERE target_role = ?
		ORDER BY created_at DESC
		LIMIT ?
	`

	rows, err := sqlite.Executor(ctx, r.db).QueryContext(ctx, query, role, limit)
	if err != nil {
		r.logger.Error("Failed to get notifications by role", zap.String("role", role.String()), zap.Error(err))
		return nil, fmt.Errorf("failed to get notifications: %w", err)
	}
	defer rows.Close()

	return collectNotifications(rows)
}

// GetByActor retrieves the most recent notifications targeted at an actor.
func (r *NotificationRepository) GetByActor(ctx context.Context, actorID string, limit int) ([]*entity.Notification, error) {
	query := `
		SELECT id, application_id, target_role, target_actor_id, template_key, read, created_at
		FROM notifications
		WHERE target_actor_id = ?
		ORDER BY created_at DESC
		LIMIT ?
	`

	rows, err := sqlite.Executor(ctx, r.db).QueryContext(ctx, query, actorID, limit)
	if err != nil {
		r.logger.Error("Failed to get notifications by actor", zap.String("actor_id", actorID), zap.Error(err))
		return nil, fmt.Errorf("failed to get notifications: %w", err)
	}
	defer rows.Close()

	return collectNotifications(rows)
}

// MarkRead flips the read flag on a notification.
func (r *NotificationRepository) MarkRead(ctx context.Context, id int64) error {
	result, err := sqlite.Executor(ctx, r.db).
		ExecContext(ctx, "UPDATE notifications SET read = 1 WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("failed to mark notification read: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("%w: notification %d", port.ErrNotFound, id)
	}
	return nil
}

func collectNotifications(rows *sql.Rows) ([]*entity.Notification, error) {
	var notifications []*entity.Notification
	for rows.Next() {
		var n entity.Notification
		err := rows.Scan(
			&n.ID,
			&n.ApplicationID,
			&n.TargetRole,
			&n.TargetActorID,
			&n.TemplateKey,
			&n.Read,
			&n.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan notification: %w", err)
		}
		notifications = append(notifications, &n)
	}
	return notifications, rows.Err()
}

// Verify interface compliance.
var _ port.NotificationRepository = (*NotificationRepository)(nil)
