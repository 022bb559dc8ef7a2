package service

import (
	"context"
	"fmt"

	"github.com/petrocom/permit-workflow/internal/application/port"
	"github.com/petrocom/permit-workflow/internal/domain/catalog"
	"github.com/petrocom/permit-workflow/internal/domain/entity"
)

// NotificationService computes the notification target set for a committed
// transition and writes to the outbox. Delivery beyond the outbox is the UI
// collaborator's concern.
type NotificationService struct {
	catalog *catalog.Catalog
	repo    port.NotificationRepository
	logger  Logger
}

// NewNotificationService creates a new NotificationService.
func NewNotificationService(cat *catalog.Catalog, repo port.NotificationRepository, logger Logger) *NotificationService {
	return &NotificationService{
		catalog: cat,
		repo:    repo,
		logger:  logger,
	}
}

// NotifySubmitted notifies the first stage's responsible role of a new
// submission.
func (s *NotificationService) NotifySubmitted(ctx context.Context, app *entity.Application) error {
	stage, err := s.catalog.StageAt(app.Type, 0)
	if err != nil {
		return err
	}
	return s.enqueue(ctx, entity.ForRole(app.ID, stage.Role, entity.TemplateApplicationSubmitted))
}

// NotifyTransition implements engine.Notifier. Targets per action:
// advance notifies the new stage's role (the submitter on final approval),
// reject/request-info/escalate notify the submitter, reassign notifies the
// previous and new assignee.
func (s *NotificationService) NotifyTransition(ctx context.Context, pre, post *entity.Application, action entity.Action, reason string) error {
	var targets []*entity.Notification

	switch action {
	case entity.ActionAdvance:
		if post.Outcome == entity.OutcomeApproved {
			targets = append(targets, entity.ForActor(post.ID, post.SubmitterID, entity.TemplateApplicationApproved))
			break
		}
		stage, err := s.catalog.StageAt(post.Type, post.StageIndex)
		if err != nil {
			return err
		}
		targets = append(targets, entity.ForRole(post.ID, stage.Role, entity.TemplateApplicationAdvanced))

	case entity.ActionReject:
		targets = append(targets, entity.ForActor(post.ID, post.SubmitterID, entity.TemplateApplicationRejected))

	case entity.ActionRequestInfo:
		targets = append(targets, entity.ForActor(post.ID, post.SubmitterID, entity.TemplateInfoRequested))

	case entity.ActionEscalate:
		targets = append(targets, entity.ForActor(post.ID, post.SubmitterID, entity.TemplateApplicationEscalated))

	case entity.ActionReassign:
		if pre.AssigneeID != "" {
			targets = append(targets, entity.ForActor(post.ID, pre.AssigneeID, entity.TemplateApplicationReassigned))
		}
		targets = append(targets, entity.ForActor(post.ID, post.AssigneeID, entity.TemplateApplicationReassigned))

	case entity.ActionReturnInfo:
		// The responsible role resumes on its own; no notification owed.
		return nil
	}

	var firstErr error
	for _, n := range targets {
		if err := s.enqueue(ctx, n); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

func (s *NotificationService) enqueue(ctx context.Context, n *entity.Notification) error {
	if err := s.repo.Create(ctx, n); err != nil {
		s.logger.Error("Failed to enqueue notification",
			"application_id", n.ApplicationID,
			"template_key", n.TemplateKey,
			"error", err)
		return fmt.Errorf("enqueue notification: %w", err)
	}
	s.logger.Info("Notification enqueued",
		"application_id", n.ApplicationID,
		"template_key", n.TemplateKey,
		"target_role", n.TargetRole,
		"target_actor", n.TargetActorID)
	return nil
}

// ListForRole returns the most recent notifications targeted at a role.
func (s *NotificationService) ListForRole(ctx context.Context, role entity.Role, limit int) ([]*entity.Notification, error) {
	return s.repo.GetByRole(ctx, role, limit)
}

// ListForActor returns the most recent notifications targeted at an actor.
func (s *NotificationService) ListForActor(ctx context.Context, actorID string, limit int) ([]*entity.Notification, error) {
	return s.repo.GetByActor(ctx, actorID, limit)
}

// MarkRead flips the read flag on behalf of the UI collaborator.
func (s *NotificationService) MarkRead(ctx context.Context, id int64) error {
	return s.repo.MarkRead(ctx, id)
}
