package worker

import (
	"context"
	"testing"
	"time"

	"github.com/petrocom/permit-workflow/internal/application/engine"
	"github.com/petrocom/permit-workflow/internal/application/gate"
	"github.com/petrocom/permit-workflow/internal/application/port"
	"github.com/petrocom/permit-workflow/internal/domain/catalog"
	"github.com/petrocom/permit-workflow/internal/domain/entity"
	"go.uber.org/zap"
)

type mockAppRepo struct {
	apps map[string]*entity.Application

	updateFunc func(ctx context.Context, app *entity.Application, expectedVersion int64) error
}

func (m *mockAppRepo) Create(ctx context.Context, app *entity.Application) error {
	m.apps[app.ID] = app.Clone()
	return nil
}

func (m *mockAppRepo) GetByID(ctx context.Context, id string) (*entity.Application, error) {
	app, ok := m.apps[id]
	if !ok {
		return nil, port.ErrNotFound
	}
	return app.Clone(), nil
}

func (m *mockAppRepo) Update(ctx context.Context, app *entity.Application, expectedVersion int64) error {
	if m.updateFunc != nil {
		return m.updateFunc(ctx, app, expectedVersion)
	}
	stored, ok := m.apps[app.ID]
	if !ok {
		return port.ErrNotFound
	}
	if stored.Version != expectedVersion {
		return port.ErrConcurrentModification
	}
	app.Version = expectedVersion + 1
	m.apps[app.ID] = app.Clone()
	return nil
}

func (m *mockAppRepo) ListNonTerminal(ctx context.Context) ([]*entity.Application, error) {
	var out []*entity.Application
	for _, app := range m.apps {
		if !app.IsTerminal() {
			out = append(out, app.Clone())
		}
	}
	return out, nil
}

func (m *mockAppRepo) List(ctx context.Context, limit, offset int) ([]*entity.Application, error) {
	return m.ListNonTerminal(ctx)
}

type mockAuditRepo struct {
	entries []*entity.AuditEntry
}

func (m *mockAuditRepo) Create(ctx context.Context, entry *entity.AuditEntry) error {
	m.entries = append(m.entries, entry)
	return nil
}

func (m *mockAuditRepo) GetByApplicationID(ctx context.Context, applicationID string) ([]*entity.AuditEntry, error) {
	return m.entries, nil
}

type mockTxManager struct{}

func (m *mockTxManager) WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

type stubProvider struct{}

func (stubProvider) IsConfirmed(ctx context.Context, applicationID string) (bool, error) {
	return false, nil
}

func (stubProvider) IsVerified(ctx context.Context, applicationID string) (bool, error) {
	return false, nil
}

type nopKVLogger struct{}

func (nopKVLogger) Info(msg string, keysAndValues ...interface{})  {}
func (nopKVLogger) Warn(msg string, keysAndValues ...interface{})  {}
func (nopKVLogger) Error(msg string, keysAndValues ...interface{}) {}

type monitorFixture struct {
	monitor *EscalationMonitor
	appRepo *mockAppRepo
	audit   *mockAuditRepo
	now     time.Time
}

func newMonitorFixture() *monitorFixture {
	f := &monitorFixture{
		appRepo: &mockAppRepo{apps: make(map[string]*entity.Application)},
		audit:   &mockAuditRepo{},
		now:     time.Date(2025, 6, 10, 9, 0, 0, 0, time.UTC),
	}

	cat := catalog.Default()
	eng := engine.NewEngine(
		cat,
		f.appRepo,
		f.audit,
		&mockTxManager{},
		gate.NewPaymentGate(stubProvider{}, nil),
		gate.NewDocumentGate(stubProvider{}, nil),
		nopKVLogger{},
		engine.WithClock(func() time.Time { return f.now }),
	)

	f.monitor = NewEscalationMonitor(
		f.appRepo,
		cat,
		eng,
		time.Minute,
		zap.NewNop(),
		WithMonitorClock(func() time.Time { return f.now }),
	)
	return f
}

func (f *monitorFixture) addApplication(id string, stageIndex int, enteredAgo time.Duration, subState entity.SubState) {
	f.appRepo.apps[id] = &entity.Application{
		ID:             id,
		Type:           entity.TypeRegularPermit,
		StageIndex:     stageIndex,
		SubState:       subState,
		Outcome:        entity.OutcomeNone,
		SubmitterID:    "company-1",
		StageEnteredAt: f.now.Add(-enteredAgo),
		Version:        1,
	}
}

func TestSweep_EscalatesOverdueApplications(t *testing.T) {
	f := newMonitorFixture()
	// Stage 0 threshold is 3 days.
	f.addApplication("APP-overdue", 0, 4*24*time.Hour, entity.SubStateNormal)
	f.addApplication("APP-fresh", 0, time.Hour, entity.SubStateNormal)

	stats := f.monitor.Sweep(context.Background())

	if stats.Scanned != 2 {
		t.Errorf("Scanned = %d, want 2", stats.Scanned)
	}
	if stats.Escalated != 1 {
		t.Errorf("Escalated = %d, want 1", stats.Escalated)
	}
	if stats.Skipped != 1 {
		t.Errorf("Skipped = %d, want 1", stats.Skipped)
	}

	overdue := f.appRepo.apps["APP-overdue"]
	if overdue.SubState != entity.SubStateEscalated {
		t.Errorf("overdue SubState = %s, want ESCALATED", overdue.SubState)
	}
	if overdue.Version != 2 {
		t.Errorf("overdue Version = %d, want 2", overdue.Version)
	}

	fresh := f.appRepo.apps["APP-fresh"]
	if fresh.SubState != entity.SubStateNormal {
		t.Errorf("fresh SubState = %s, want NORMAL", fresh.SubState)
	}
}

func TestSweep_EscalationWritesAuditEntry(t *testing.T) {
	f := newMonitorFixture()
	f.addApplication("APP-1", 1, 6*24*time.Hour, entity.SubStateNormal)

	f.monitor.Sweep(context.Background())

	if len(f.audit.entries) != 1 {
		t.Fatalf("audit entries = %d, want 1", len(f.audit.entries))
	}
	entry := f.audit.entries[0]
	if entry.Action != entity.ActionEscalate {
		t.Errorf("audit Action = %s, want ESCALATE", entry.Action)
	}
	if entry.ActorRole != entity.RoleSystem {
		t.Errorf("audit ActorRole = %s, want system", entry.ActorRole)
	}
	if entry.ActorID != "escalation-monitor" {
		t.Errorf("audit ActorID = %s", entry.ActorID)
	}
	if entry.Reason != "threshold exceeded" {
		t.Errorf("audit Reason = %q", entry.Reason)
	}
}

func TestSweep_SkipsAlreadyEscalated(t *testing.T) {
	f := newMonitorFixture()
	f.addApplication("APP-1", 0, 10*24*time.Hour, entity.SubStateEscalated)

	stats := f.monitor.Sweep(context.Background())

	if stats.Escalated != 0 {
		t.Errorf("Escalated = %d, want 0", stats.Escalated)
	}
	if stats.Skipped != 1 {
		t.Errorf("Skipped = %d, want 1", stats.Skipped)
	}
	if len(f.audit.entries) != 0 {
		t.Errorf("audit entries = %d, want 0", len(f.audit.entries))
	}
}

func TestSweep_LostRaceIsSkippedNotFailed(t *testing.T) {
	f := newMonitorFixture()
	f.addApplication("APP-1", 0, 4*24*time.Hour, entity.SubStateNormal)
	f.appRepo.updateFunc = func(ctx context.Context, app *entity.Application, expectedVersion int64) error {
		// A human transitioned the application between snapshot and save.
		return port.ErrConcurrentModification
	}

	stats := f.monitor.Sweep(context.Background())

	if stats.Failed != 0 {
		t.Errorf("Failed = %d, want 0 (lost race is a skip)", stats.Failed)
	}
	if stats.Skipped != 1 {
		t.Errorf("Skipped = %d, want 1", stats.Skipped)
	}
}

func TestSweep_FailureDoesNotAbortBatch(t *testing.T) {
	f := newMonitorFixture()
	// Unknown stage index forces a per-application failure.
	f.appRepo.apps["APP-bad"] = &entity.Application{
		ID:             "APP-bad",
		Type:           "unregistered_type",
		StageIndex:     0,
		SubState:       entity.SubStateNormal,
		Outcome:        entity.OutcomeNone,
		StageEnteredAt: f.now.Add(-30 * 24 * time.Hour),
		Version:        1,
	}
	f.addApplication("APP-good", 0, 4*24*time.Hour, entity.SubStateNormal)

	stats := f.monitor.Sweep(context.Background())

	if stats.Failed != 1 {
		t.Errorf("Failed = %d, want 1", stats.Failed)
	}
	if stats.Escalated != 1 {
		t.Errorf("Escalated = %d, want 1 (batch must continue)", stats.Escalated)
	}
}

func TestMonitor_StartStop(t *testing.T) {
	f := newMonitorFixture()

	if err := f.monitor.Start(context.Background()); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	if err := f.monitor.Stop(); err != nil {
		t.Fatalf("Stop() error = %v", err)
	}
}

func TestManager_Lifecycle(t *testing.T) {
	f := newMonitorFixture()
	manager := NewManager(zap.NewNop())
	manager.Register(f.monitor)

	if err := manager.StartAll(context.Background()); err != nil {
		t.Fatalf("StartAll() error = %v", err)
	}
	if !manager.IsRunning() {
		t.Error("expected manager to report running")
	}

	if err := manager.StartAll(context.Background()); err == nil {
		t.Error("expected second StartAll to fail")
	}

	if err := manager.StopAll(); err != nil {
		t.Fatalf("StopAll() error = %v", err)
	}
	if manager.IsRunning() {
		t.Error("expected manager to report stopped")
	}
}
