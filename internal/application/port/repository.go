package port

import (
	"context"
	"errors"

	"github.com/petrocom/permit-workflow/internal/domain/entity"
)

// Storage-boundary errors. Repositories translate driver-level conditions
// into these so callers can branch with errors.Is.
var (
	// ErrNotFound is returned when a requested record does not exist.
	ErrNotFound = errors.New("record not found")

	// ErrConcurrentModification is returned when an optimistic-concurrency
	// save detects that another writer committed first.
	ErrConcurrentModification = errors.New("concurrent modification")
)

// ApplicationRepository defines persistence operations for Application.
type ApplicationRepository interface {
	Create(ctx context.Context, app *entity.Application) error
	GetByID(ctx context.Context, id string) (*entity.Application, error)

	// Update persists the application only if the stored version still equals
	// expectedVersion, then increments the version. A mismatch yields
	// ErrConcurrentModification and leaves the record untouched.
	Update(ctx context.Context, app *entity.Application, expectedVersion int64) error

	ListNonTerminal(ctx context.Context) ([]*entity.Application, error)
	List(ctx context.Context, limit, offset int) ([]*entity.Application, error)
}

// AuditRepository defines persistence operations for AuditEntry.
// Entries are append-only; there is no update or delete.
type AuditRepository interface {
	Create(ctx context.Context, entry *entity.AuditEntry) error
	GetByApplicationID(ctx context.Context, applicationID string) ([]*entity.AuditEntry, error)
}

// NotificationRepository is the notification outbox. Create is the enqueue
// operation; reads and the read flag serve the UI collaborator.
type NotificationRepository interface {
	Create(ctx context.Context, n *entity.Notification) error
	GetByRole(ctx context.Context, role entity.Role, limit int) ([]*entity.Notification, error)
	GetByActor(ctx context.Context, actorID string, limit int) ([]*entity.Notification, error)
	MarkRead(ctx context.Context, id int64) error
}

// TransactionManager executes a function within a storage transaction.
// Nested calls reuse the enclosing transaction.
type TransactionManager interface {
	WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error
}
