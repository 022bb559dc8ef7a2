package worker

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/petrocom/permit-workflow/internal/application/engine"
	"github.com/petrocom/permit-workflow/internal/application/port"
	"github.com/petrocom/permit-workflow/internal/domain/catalog"
	"github.com/petrocom/permit-workflow/internal/domain/entity"
	"go.uber.org/zap"
)

const escalationReason = "threshold exceeded"

// systemActorID identifies the monitor in audit entries.
const systemActorID = "escalation-monitor"

// SweepStats summarizes one monitor pass.
type SweepStats struct {
	Scanned   int
	Escalated int
	Skipped   int
	Failed    int
}

// EscalationMonitor periodically scans non-terminal applications and
// escalates the ones that have sat in a stage past its threshold. Every
// escalation goes through the transition engine under the system role, so it
// gets the same concurrency and audit guarantees as human actions. The
// monitor holds nothing locked across a sweep: each application is a fresh
// snapshot and an independent attempt, and losing a race to a human actor is
// an expected, skippable outcome.
type EscalationMonitor struct {
	appRepo  port.ApplicationRepository
	catalog  *catalog.Catalog
	engine   *engine.Engine
	interval time.Duration
	logger   *zap.Logger
	now      func() time.Time

	mu     sync.Mutex
	cancel context.CancelFunc
	done   chan struct{}
}

// MonitorOption configures the escalation monitor.
type MonitorOption func(*EscalationMonitor)

// WithMonitorClock overrides the monitor clock.
func WithMonitorClock(now func() time.Time) MonitorOption {
	return func(m *EscalationMonitor) { m.now = now }
}

// NewEscalationMonitor creates a new escalation monitor.
func NewEscalationMonitor(
	appRepo port.ApplicationRepository,
	cat *catalog.Catalog,
	eng *engine.Engine,
	interval time.Duration,
	logger *zap.Logger,
	opts ...MonitorOption,
) *EscalationMonitor {
	m := &EscalationMonitor{
		appRepo:  appRepo,
		catalog:  cat,
		engine:   eng,
		interval: interval,
		logger:   logger,
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Name implements Worker.
func (m *EscalationMonitor) Name() string {
	return "escalation-monitor"
}

// Start implements Worker. The loop runs until the context is cancelled.
func (m *EscalationMonitor) Start(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	loopCtx, cancel := context.WithCancel(ctx)
	m.cancel = cancel
	m.done = make(chan struct{})

	go m.run(loopCtx)
	return nil
}

// Stop implements Worker.
func (m *EscalationMonitor) Stop() error {
	m.mu.Lock()
	cancel, done := m.cancel, m.done
	m.mu.Unlock()

	if cancel != nil {
		cancel()
	}
	if done != nil {
		<-done
	}
	return nil
}

func (m *EscalationMonitor) run(ctx context.Context) {
	defer close(m.done)

	ticker := time.NewTicker(m.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			stats := m.Sweep(ctx)
			if stats.Escalated > 0 || stats.Failed > 0 {
				m.logger.Info("Escalation sweep finished",
					zap.Int("scanned", stats.Scanned),
					zap.Int("escalated", stats.Escalated),
					zap.Int("skipped", stats.Skipped),
					zap.Int("failed", stats.Failed))
			}
		}
	}
}

// Sweep runs one scan. A failed escalation attempt is logged and skipped;
// the rest of the batch always proceeds.
func (m *EscalationMonitor) Sweep(ctx context.Context) SweepStats {
	var stats SweepStats

	apps, err := m.appRepo.ListNonTerminal(ctx)
	if err != nil {
		m.logger.Error("Escalation sweep failed to list applications", zap.Error(err))
		stats.Failed++
		return stats
	}

	now := m.now()
	for _, app := range apps {
		stats.Scanned++

		if app.SubState == entity.SubStateEscalated {
			stats.Skipped++
			continue
		}

		stage, err := m.catalog.StageAt(app.Type, app.StageIndex)
		if err != nil {
			m.logger.Error("Application references unknown stage",
				zap.String("application_id", app.ID),
				zap.String("type", app.Type.String()),
				zap.Int("stage_index", app.StageIndex),
				zap.Error(err))
			stats.Failed++
			continue
		}

		if app.TimeInStage(now) <= stage.EscalateAfter {
			stats.Skipped++
			continue
		}

		_, err = m.engine.Apply(ctx, engine.Request{
			ApplicationID: app.ID,
			ActorID:       systemActorID,
			ActorRole:     entity.RoleSystem,
			Action:        entity.ActionEscalate,
			Reason:        escalationReason,
		})
		if err != nil {
			// A human may have transitioned the application between the
			// snapshot and this attempt; that is not a sweep failure.
			if errors.Is(err, engine.ErrConcurrentModification) || errors.Is(err, engine.ErrIllegalStateForAction) {
				m.logger.Info("Escalation attempt lost race, skipping",
					zap.String("application_id", app.ID),
					zap.Error(err))
				stats.Skipped++
				continue
			}
			m.logger.Error("Escalation attempt failed",
				zap.String("application_id", app.ID),
				zap.Error(err))
			stats.Failed++
			continue
		}

		m.logger.Info("Application escalated",
			zap.String("application_id", app.ID),
			zap.String("stage", stage.Name),
			zap.Duration("time_in_stage", app.TimeInStage(now)),
			zap.Duration("threshold", stage.EscalateAfter))
		stats.Escalated++
	}

	return stats
}

// Verify interface compliance.
var _ Worker = (*EscalationMonitor)(nil)
