package engine

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/petrocom/permit-workflow/internal/application/dispatcher"
	"github.com/petrocom/permit-workflow/internal/application/gate"
	"github.com/petrocom/permit-workflow/internal/application/port"
	"github.com/petrocom/permit-workflow/internal/domain/catalog"
	"github.com/petrocom/permit-workflow/internal/domain/entity"
	"github.com/petrocom/permit-workflow/internal/domain/event"
)

// Logger interface for minimal logging dependency.
type Logger interface {
	Info(msg string, keysAndValues ...interface{})
	Warn(msg string, keysAndValues ...interface{})
	Error(msg string, keysAndValues ...interface{})
}

// Notifier enqueues the notifications owed for a committed transition.
// Enqueue failures do not fail the transition.
type Notifier interface {
	NotifyTransition(ctx context.Context, pre, post *entity.Application, action entity.Action, reason string) error
}

// Request describes one attempted transition.
type Request struct {
	ApplicationID string
	ActorID       string
	ActorRole     entity.Role
	Action        entity.Action
	Reason        string
	NewAssigneeID string
}

// Engine validates and applies workflow transitions. It is the only writer
// of Application state and audit entries; concurrent callers are serialized
// per application by the version check at save time, not by a lock.
type Engine struct {
	catalog      *catalog.Catalog
	appRepo      port.ApplicationRepository
	auditRepo    port.AuditRepository
	txManager    port.TransactionManager
	paymentGate  *gate.PaymentGate
	documentGate *gate.DocumentGate
	notifier     Notifier
	dispatcher   dispatcher.Dispatcher
	logger       Logger
	now          func() time.Time
}

// Option configures the engine.
type Option func(*Engine)

// WithNotifier sets the transition notifier.
func WithNotifier(n Notifier) Option {
	return func(e *Engine) { e.notifier = n }
}

// WithDispatcher sets the event dispatcher for post-commit events.
func WithDispatcher(d dispatcher.Dispatcher) Option {
	return func(e *Engine) { e.dispatcher = d }
}

// WithClock overrides the engine clock.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) { e.now = now }
}

// NewEngine creates a transition engine.
func NewEngine(
	cat *catalog.Catalog,
	appRepo port.ApplicationRepository,
	auditRepo port.AuditRepository,
	txManager port.TransactionManager,
	paymentGate *gate.PaymentGate,
	documentGate *gate.DocumentGate,
	logger Logger,
	opts ...Option,
) *Engine {
	e := &Engine{
		catalog:      cat,
		appRepo:      appRepo,
		auditRepo:    auditRepo,
		txManager:    txManager,
		paymentGate:  paymentGate,
		documentGate: documentGate,
		logger:       logger,
		now:          time.Now,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Apply validates and applies one transition. On version conflict it returns
// ErrConcurrentModification and the caller retries from a fresh load; a
// retried stale request cannot commit twice.
func (e *Engine) Apply(ctx context.Context, req Request) (*entity.Application, error) {
	if err := validateRequest(req); err != nil {
		return nil, err
	}

	app, err := e.appRepo.GetByID(ctx, req.ApplicationID)
	if err != nil {
		if errors.Is(err, port.ErrNotFound) {
			return nil, fmt.Errorf("%w: %s", ErrApplicationNotFound, req.ApplicationID)
		}
		return nil, fmt.Errorf("load application: %w", err)
	}

	if app.IsTerminal() {
		return nil, fmt.Errorf("%w: application %s already %s", ErrIllegalStateForAction, app.ID, app.Outcome)
	}

	stages, err := e.catalog.StagesFor(app.Type)
	if err != nil {
		return nil, err
	}
	stage := stages[app.StageIndex]

	if err := authorize(req, stage); err != nil {
		return nil, err
	}

	now := e.now()
	if err := e.checkState(app, stage, req.Action, now); err != nil {
		return nil, err
	}

	pre := app.Clone()

	if err := e.mutate(ctx, app, stages, req, now); err != nil {
		return nil, err
	}
	app.UpdatedAt = now

	entry := &entity.AuditEntry{
		ApplicationID: app.ID,
		PriorStage:    pre.StageIndex,
		NewStage:      app.StageIndex,
		PriorSubState: pre.SubState,
		NewSubState:   app.SubState,
		Outcome:       app.Outcome,
		ActorID:       req.ActorID,
		ActorRole:     req.ActorRole,
		Action:        req.Action,
		Reason:        req.Reason,
		Timestamp:     now,
	}

	// Mutation and audit entry commit together. An audit write failure
	// aborts the whole transition.
	err = e.txManager.WithTransaction(ctx, func(txCtx context.Context) error {
		if err := e.appRepo.Update(txCtx, app, pre.Version); err != nil {
			return err
		}
		return e.auditRepo.Create(txCtx, entry)
	})
	if err != nil {
		if errors.Is(err, port.ErrConcurrentModification) {
			e.logger.Warn("Concurrent transition detected",
				"application_id", app.ID,
				"action", req.Action,
				"expected_version", pre.Version)
		}
		return nil, err
	}

	e.logger.Info("Transition applied",
		"application_id", app.ID,
		"action", req.Action,
		"actor_id", req.ActorID,
		"actor_role", req.ActorRole,
		"prior_stage", pre.StageIndex,
		"new_stage", app.StageIndex,
		"sub_state", app.SubState,
		"outcome", app.Outcome,
		"version", app.Version)

	// Notifications are enqueued before returning but never fail the call.
	if e.notifier != nil {
		if nerr := e.notifier.NotifyTransition(ctx, pre, app, req.Action, req.Reason); nerr != nil {
			e.logger.Warn("Notification enqueue failed",
				"application_id", app.ID,
				"action", req.Action,
				"error", nerr)
		}
	}

	if e.dispatcher != nil {
		e.dispatcher.DispatchAsync(ctx, event.NewEvent(
			event.TypeApplicationTransitioned,
			app.ID,
			map[string]interface{}{
				"action":      req.Action.String(),
				"prior_stage": pre.StageIndex,
				"new_stage":   app.StageIndex,
				"sub_state":   app.SubState.String(),
				"outcome":     app.Outcome.String(),
			},
		))
		if req.Action == entity.ActionEscalate {
			e.dispatcher.DispatchAsync(ctx, event.NewEvent(
				event.TypeApplicationEscalated,
				app.ID,
				map[string]interface{}{"stage": app.StageIndex, "reason": req.Reason},
			))
		}
		if app.IsTerminal() {
			e.dispatcher.DispatchAsync(ctx, event.NewEvent(
				event.TypeApplicationFinalized,
				app.ID,
				map[string]interface{}{"outcome": app.Outcome.String()},
			))
		}
	}

	return app, nil
}

func validateRequest(req Request) error {
	switch req.Action {
	case entity.ActionAdvance, entity.ActionReject, entity.ActionRequestInfo,
		entity.ActionReturnInfo, entity.ActionEscalate, entity.ActionReassign:
	default:
		return fmt.Errorf("%w: %s", ErrUnknownAction, req.Action)
	}
	if req.Action.RequiresReason() && req.Reason == "" {
		return fmt.Errorf("%w: %s", ErrMissingReason, req.Action)
	}
	if req.Action == entity.ActionReassign && req.NewAssigneeID == "" {
		return ErrMissingAssignee
	}
	return nil
}

// authorize checks the actor role against the responsible role of the
// current stage for the requested action.
func authorize(req Request, stage catalog.StageDefinition) error {
	switch req.Action {
	case entity.ActionAdvance, entity.ActionReject, entity.ActionRequestInfo, entity.ActionReturnInfo:
		if req.ActorRole != stage.Role {
			return fmt.Errorf("%w: %s requires role %s, got %s", ErrUnauthorized, req.Action, stage.Role, req.ActorRole)
		}
	case entity.ActionEscalate:
		if req.ActorRole != stage.Role && req.ActorRole != entity.RoleSystem {
			return fmt.Errorf("%w: %s requires role %s or %s, got %s", ErrUnauthorized, req.Action, stage.Role, entity.RoleSystem, req.ActorRole)
		}
	case entity.ActionReassign:
		supervisor := entity.SupervisorOf(stage.Role)
		if supervisor == "" || req.ActorRole != supervisor {
			return fmt.Errorf("%w: %s at stage %q requires role %s, got %s", ErrUnauthorized, req.Action, stage.Name, supervisor, req.ActorRole)
		}
	}
	return nil
}

// checkState enforces sub-state legality. An escalated application stays
// workable: only an open info request blocks review actions.
func (e *Engine) checkState(app *entity.Application, stage catalog.StageDefinition, action entity.Action, now time.Time) error {
	switch action {
	case entity.ActionAdvance, entity.ActionReject, entity.ActionRequestInfo:
		if app.SubState == entity.SubStateInfoRequested {
			return fmt.Errorf("%w: %s while info requested", ErrIllegalStateForAction, action)
		}
	case entity.ActionReturnInfo:
		if app.SubState != entity.SubStateInfoRequested {
			return fmt.Errorf("%w: %s without open info request", ErrIllegalStateForAction, action)
		}
	case entity.ActionEscalate:
		if app.SubState == entity.SubStateEscalated {
			return fmt.Errorf("%w: already escalated", ErrIllegalStateForAction)
		}
		if app.TimeInStage(now) <= stage.EscalateAfter {
			return fmt.Errorf("%w: stage threshold not exceeded", ErrIllegalStateForAction)
		}
	case entity.ActionReassign:
		// Legal in any non-terminal sub-state.
	}
	return nil
}

// mutate applies the action to the in-memory record. No writes happen here.
func (e *Engine) mutate(ctx context.Context, app *entity.Application, stages []catalog.StageDefinition, req Request, now time.Time) error {
	switch req.Action {
	case entity.ActionAdvance:
		last := len(stages) - 1
		if app.StageIndex == last {
			app.Outcome = entity.OutcomeApproved
			return nil
		}
		next := stages[app.StageIndex+1]
		if err := e.checkGates(ctx, app, next); err != nil {
			return err
		}
		app.StageIndex++
		app.SubState = entity.SubStateNormal
		app.StageEnteredAt = now

	case entity.ActionReject:
		app.Outcome = entity.OutcomeRejected

	case entity.ActionRequestInfo:
		app.SubState = entity.SubStateInfoRequested

	case entity.ActionReturnInfo:
		// The stage clock is not reset: an info round-trip must not game the
		// escalation threshold.
		app.SubState = entity.SubStateNormal

	case entity.ActionEscalate:
		app.SubState = entity.SubStateEscalated

	case entity.ActionReassign:
		app.AssigneeID = req.NewAssigneeID
	}
	return nil
}

// checkGates verifies the entry preconditions of the target stage, flipping
// the record flags when the external collaborators have since confirmed.
func (e *Engine) checkGates(ctx context.Context, app *entity.Application, next catalog.StageDefinition) error {
	if next.RequiresPayment && !app.PaymentConfirmed {
		confirmed, err := e.paymentGate.IsConfirmed(ctx, app.ID)
		if err != nil {
			return fmt.Errorf("payment gate: %w", err)
		}
		if !confirmed {
			return fmt.Errorf("%w: stage %q", ErrPaymentPending, next.Name)
		}
		app.PaymentConfirmed = true
	}
	if next.RequiresDocuments && !app.DocumentsVerified {
		verified, err := e.documentGate.IsVerified(ctx, app.ID)
		if err != nil {
			return fmt.Errorf("document gate: %w", err)
		}
		if !verified {
			return fmt.Errorf("%w: stage %q", ErrDocumentsPending, next.Name)
		}
		app.DocumentsVerified = true
	}
	return nil
}
