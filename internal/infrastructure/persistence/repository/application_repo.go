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

// ApplicationRepository implements port.ApplicationRepository on SQLite.
type ApplicationRepository struct {
	db     *sql.DB
	logger *zap.Logger
}

// NewApplicationRepository creates a new application repository.
func NewApplicationRepository(db *sql.DB, logger *zap.Logger) port.ApplicationRepository {
	return &ApplicationRepository{
		db:     db,
		logger: logger,
	}
}

const applicationColumns = `
	id, app_type, stage_index, sub_state, outcome, submitter_id, assignee_id,
	payment_confirmed, documents_verified, stage_entered_at, version,
	submitted_at, created_at, updated_at
`

// Create inserts a new application.
func (r *ApplicationRepository) Create(ctx context.Context, app *entity.Application) error {
	query := `
		INSERT INTO applications (
			id, app_type, stage_index, sub_state, outcome, submitter_id,
			assignee_id, payment_confirmed, documents_verified,
			stage_entered_at, version, submitted_at, created_at, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	_, err := sqlite.Executor(ctx, r.db).ExecContext(ctx, query,
		app.ID,
		app.Type,
		app.StageIndex,
		app.SubState,
		app.Outcome,
		app.SubmitterID,
		app.AssigneeID,
		app.PaymentConfirmed,
		app.DocumentsVerified,
		app.StageEnteredAt,
		app.Version,
		app.SubmittedAt,
		app.CreatedAt,
		app.UpdatedAt,
	)
	if err != nil {
		r.logger.Error("Failed to create application", zap.String("id", app.ID), zap.Error(err))
		return fmt.Errorf("failed to create application: %w", err)
	}
	return nil
}

// GetByID retrieves an application by id.
func (r *ApplicationRepository) GetByID(ctx context.Context, id string) (*entity.Application, error) {
	query := `SELECT ` + applicationColumns + ` FROM applications WHERE id = ?`

	row := sqlite.Executor(ctx, r.db).QueryRowContext(ctx, query, id)
	app, err := scanApplication(row)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("%w: application %s", port.ErrNotFound, id)
	}
	if err != nil {
		r.logger.Error("Failed to get application", zap.String("id", id), zap.Error(err))
		return nil, fmt.Errorf("failed to get application: %w", err)
	}
	return app, nil
}

// Update persists the application guarded by the expected version. The
// version predicate in the WHERE clause is the whole concurrency-control
// mechanism; zero rows affected means another writer committed first.
func (r *ApplicationRepository) Update(ctx context.Context, app *entity.Application, expectedVersion int64) error {
	query := `
		UPDATE applications SET
			stage_index = ?, sub_state = ?, outcome = ?, assignee_id = ?,
			payment_confirmed = ?, documents_verified = ?, stage_entered_at = ?,
			version = version + 1, updated_at = ?
		WHERE id = ? AND version = ?
	`

	result, err := sqlite.Executor(ctx, r.db).ExecContext(ctx, query,
		app.StageIndex,
		app.SubState,
		app.Outcome,
		app.AssigneeID,
		app.PaymentConfirmed,
		app.DocumentsVerified,
		app.StageEnteredAt,
		app.UpdatedAt,
		app.ID,
		expectedVersion,
	)
	if err != nil {
		r.logger.Error("Failed to update application", zap.String("id", app.ID), zap.Error(err))
		return fmt.Errorf("failed to update application: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if affected == 0 {
		// Either the record vanished or the version moved; distinguish so
		// callers retry only on real conflicts.
		var exists int
		checkErr := sqlite.Executor(ctx, r.db).
			QueryRowContext(ctx, "SELECT COUNT(1) FROM applications WHERE id = ?", app.ID).
			Scan(&exists)
		if checkErr == nil && exists == 0 {
			return fmt.Errorf("%w: application %s", port.ErrNotFound, app.ID)
		}
		return fmt.Errorf("%w: application %s at version %d", port.ErrConcurrentModification, app.ID, expectedVersion)
	}

	app.Version = expectedVersion + 1
	return nil
}

// ListNonTerminal returns all applications without a decided outcome.
func (r *ApplicationRepository) ListNonTerminal(ctx context.Context) ([]*entity.Application, error) {
	query := `SELECT ` + applicationColumns + ` FROM applications WHERE outcome = ? ORDER BY stage_entered_at ASC`

	rows, err := sqlite.Executor(ctx, r.db).QueryContext(ctx, query, entity.OutcomeNone)
	if err != nil {
		r.logger.Error("Failed to list non-terminal applications", zap.Error(err))
		return nil, fmt.Errorf("failed to list applications: %w", err)
	}
	defer rows.Close()

	return collectApplications(rows)
}

// List returns a paginated list of applications, newest first.
func (r *ApplicationRepository) List(ctx context.Context, limit, offset int) ([]*entity.Application, error) {
	query := `SELECT ` + applicationColumns + ` FROM applications ORDER BY submitted_at DESC LIMIT ? OFFSET ?`

	rows, err := sqlite.Executor(ctx, r.db).QueryContext(ctx, query, limit, offset)
	if err != nil {
		r.logger.Error("Failed to list applications", zap.Error(err))
		return nil, fmt.Errorf("failed to list applications: %w", err)
	}
	defer rows.Close()

	return collectApplications(rows)
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanApplication(row rowScanner) (*entity.Application, error) {
	var app entity.Application
	err := row.Scan(
		&app.ID,
		&app.Type,
		&app.StageIndex,
		&app.SubState,
		&app.Outcome,
		&app.SubmitterID,
		&app.AssigneeID,
		&app.PaymentConfirmed,
		&app.DocumentsVerified,
		&app.StageEnteredAt,
		&app.Version,
		&app.SubmittedAt,
		&app.CreatedAt,
		&app.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &app, nil
}

func collectApplications(rows *sql.Rows) ([]*entity.Application, error) {
	var apps []*entity.Application
	for rows.Next() {
		app, err := scanApplication(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan application: %w", err)
		}
		apps = append(apps, app)
	}
	return apps, rows.Err()
}

// Verify interface compliance.
var _ port.ApplicationRepository = (*ApplicationRepository)(nil)
