package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/petrocom/permit-workflow/internal/application/dispatcher"
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

// ApplicationService handles submissions and read access. All subsequent
// mutation goes through the transition engine.
type ApplicationService struct {
	catalog    *catalog.Catalog
	appRepo    port.ApplicationRepository
	auditRepo  port.AuditRepository
	txManager  port.TransactionManager
	notifier   *NotificationService
	dispatcher dispatcher.Dispatcher
	logger     Logger
}

// NewApplicationService creates a new ApplicationService.
func NewApplicationService(
	cat *catalog.Catalog,
	appRepo port.ApplicationRepository,
	auditRepo port.AuditRepository,
	txManager port.TransactionManager,
	notifier *NotificationService,
	d dispatcher.Dispatcher,
	logger Logger,
) *ApplicationService {
	return &ApplicationService{
		catalog:    cat,
		appRepo:    appRepo,
		auditRepo:  auditRepo,
		txManager:  txManager,
		notifier:   notifier,
		dispatcher: d,
		logger:     logger,
	}
}

// Submit creates a new application at stage zero together with its first
// audit entry.
func (s *ApplicationService) Submit(ctx context.Context, appType entity.ApplicationType, submitterID string) (*entity.Application, error) {
	if _, err := s.catalog.StagesFor(appType); err != nil {
		return nil, err
	}
	if submitterID == "" {
		return nil, fmt.Errorf("submitter id is required")
	}

	now := time.Now()
	app := &entity.Application{
		ID:             entity.NewApplicationID(),
		Type:           appType,
		StageIndex:     0,
		SubState:       entity.SubStateNormal,
		Outcome:        entity.OutcomeNone,
		SubmitterID:    submitterID,
		StageEnteredAt: now,
		Version:        1,
		SubmittedAt:    now,
		CreatedAt:      now,
		UpdatedAt:      now,
	}

	entry := &entity.AuditEntry{
		ApplicationID: app.ID,
		PriorStage:    0,
		NewStage:      0,
		PriorSubState: entity.SubStateNormal,
		NewSubState:   entity.SubStateNormal,
		Outcome:       entity.OutcomeNone,
		ActorID:       submitterID,
		ActorRole:     entity.RoleApplicant,
		Action:        entity.ActionSubmit,
		Timestamp:     now,
	}

	err := s.txManager.WithTransaction(ctx, func(txCtx context.Context) error {
		if err := s.appRepo.Create(txCtx, app); err != nil {
			return fmt.Errorf("create application: %w", err)
		}
		if err := s.auditRepo.Create(txCtx, entry); err != nil {
			return fmt.Errorf("create audit entry: %w", err)
		}
		return nil
	})
	if err != nil {
		s.logger.Error("Failed to submit application", "error", err, "type", appType)
		return nil, err
	}

	s.logger.Info("Application submitted",
		"application_id", app.ID, "type", appType, "submitter_id", submitterID)

	if s.notifier != nil {
		if nerr := s.notifier.NotifySubmitted(ctx, app); nerr != nil {
			s.logger.Warn("Submission notification failed", "application_id", app.ID, "error", nerr)
		}
	}
	if s.dispatcher != nil {
		s.dispatcher.DispatchAsync(ctx, event.NewEvent(
			event.TypeApplicationSubmitted,
			app.ID,
			map[string]interface{}{"type": appType.String()},
		))
	}

	return app, nil
}

// Get retrieves an application by id.
func (s *ApplicationService) Get(ctx context.Context, id string) (*entity.Application, error) {
	app, err := s.appRepo.GetByID(ctx, id)
	if err != nil {
		if !errors.Is(err, port.ErrNotFound) {
			s.logger.Error("Failed to get application", "error", err, "id", id)
		}
		return nil, err
	}
	return app, nil
}

// List retrieves a paginated list of applications.
func (s *ApplicationService) List(ctx context.Context, limit, offset int) ([]*entity.Application, error) {
	apps, err := s.appRepo.List(ctx, limit, offset)
	if err != nil {
		s.logger.Error("Failed to list applications", "error", err)
		return nil, err
	}
	return apps, nil
}

// AuditTrail retrieves the full audit history of an application.
func (s *ApplicationService) AuditTrail(ctx context.Context, id string) ([]*entity.AuditEntry, error) {
	entries, err := s.auditRepo.GetByApplicationID(ctx, id)
	if err != nil {
		s.logger.Error("Failed to get audit trail", "error", err, "id", id)
		return nil, err
	}
	return entries, nil
}
