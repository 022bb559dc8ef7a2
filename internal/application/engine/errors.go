package engine

import (
	"errors"

	"github.com/petrocom/permit-workflow/internal/application/port"
	"github.com/petrocom/permit-workflow/internal/domain/catalog"
)

var (
	// ErrApplicationNotFound is returned when the application id is unknown.
	ErrApplicationNotFound = errors.New("application not found")

	// ErrUnauthorized is returned when the actor's role may not perform the
	// requested action at the application's current stage.
	ErrUnauthorized = errors.New("actor not authorized for action")

	// ErrIllegalStateForAction is returned when the action is not legal in
	// the application's current sub-state or terminal outcome.
	ErrIllegalStateForAction = errors.New("action not legal in current state")

	// ErrPaymentPending is returned when an advance targets a payment-gated
	// stage before payment has been confirmed.
	ErrPaymentPending = errors.New("payment not confirmed")

	// ErrDocumentsPending is returned when an advance targets a
	// document-gated stage before documents have been verified.
	ErrDocumentsPending = errors.New("documents not verified")

	// ErrMissingReason is returned when an action that requires a reason is
	// requested without one.
	ErrMissingReason = errors.New("reason is required for this action")

	// ErrMissingAssignee is returned when a reassign request names no new
	// assignee.
	ErrMissingAssignee = errors.New("new assignee is required for reassign")

	// ErrUnknownAction is returned for action kinds the engine does not know.
	ErrUnknownAction = errors.New("unknown action")

	// ErrUnknownApplicationType is surfaced when the application's type tag
	// has no registered workflow definition.
	ErrUnknownApplicationType = catalog.ErrUnknownApplicationType

	// ErrConcurrentModification is surfaced when another writer committed a
	// transition first; the caller should re-fetch and retry.
	ErrConcurrentModification = port.ErrConcurrentModification
)
