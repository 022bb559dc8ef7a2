package http

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/petrocom/permit-workflow/internal/application/dispatcher"
	"github.com/petrocom/permit-workflow/internal/application/engine"
	"github.com/petrocom/permit-workflow/internal/application/gate"
	"github.com/petrocom/permit-workflow/internal/application/service"
	"github.com/petrocom/permit-workflow/internal/domain/catalog"
	"github.com/petrocom/permit-workflow/internal/domain/entity"
	"github.com/petrocom/permit-workflow/internal/infrastructure/persistence/repository"
	"github.com/petrocom/permit-workflow/internal/infrastructure/persistence/sqlite"
	"github.com/petrocom/permit-workflow/pkg/database"
	"github.com/petrocom/permit-workflow/pkg/utils"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type testServer struct {
	router     *gin.Engine
	dispatcher dispatcher.Dispatcher
}

func setupServer(t *testing.T) *testServer {
	t.Helper()
	gin.SetMode(gin.TestMode)

	logger := zap.NewNop()
	db, err := database.New(database.Config{
		Path:            filepath.Join(t.TempDir(), "test.db"),
		MaxOpenConns:    5,
		MaxIdleConns:    2,
		ConnMaxLifetime: time.Minute,
	}, logger)
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	require.NoError(t, database.NewMigrator(db, logger).Run(database.Schema()))

	kvLogger := utils.NewKVLogger(logger)
	txManager := sqlite.NewDB(db.DB, logger)
	appRepo := repository.NewApplicationRepository(db.DB, logger)
	auditRepo := repository.NewAuditRepository(db.DB, logger)
	notificationRepo := repository.NewNotificationRepository(db.DB, logger)
	paymentRepo := repository.NewPaymentConfirmationRepository(db.DB, logger)
	documentRepo := repository.NewDocumentVerificationRepository(db.DB, logger)

	cat := catalog.Default()
	d := dispatcher.NewDispatcher()
	t.Cleanup(func() { _ = d.Close() })

	paymentGate := gate.NewPaymentGate(paymentRepo, kvLogger)
	paymentGate.SubscribeInvalidation(d)
	documentGate := gate.NewDocumentGate(documentRepo, kvLogger)
	documentGate.SubscribeInvalidation(d)

	notifications := service.NewNotificationService(cat, notificationRepo, kvLogger)
	eng := engine.NewEngine(cat, appRepo, auditRepo, txManager, paymentGate, documentGate, kvLogger,
		engine.WithNotifier(notifications))
	apps := service.NewApplicationService(cat, appRepo, auditRepo, txManager, notifications, d, kvLogger)

	webhooks := NewPaymentWebhook(paymentRepo, documentRepo, d, logger)
	handler := NewHandler(apps, eng, notifications, webhooks, logger)

	return &testServer{
		router:     NewRouter(handler, logger),
		dispatcher: d,
	}
}

func (s *testServer) do(t *testing.T, method, path string, body interface{}, actorID string, role entity.Role) *httptest.ResponseRecorder {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}

	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if actorID != "" {
		req.Header.Set("X-Actor-ID", actorID)
		req.Header.Set("X-Actor-Role", role.String())
	}

	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)
	return w
}

func (s *testServer) submit(t *testing.T, appType string) entity.Application {
	t.Helper()
	w := s.do(t, http.MethodPost, "/api/v1/applications",
		map[string]string{"type": appType}, "company-1", entity.RoleApplicant)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	var app entity.Application
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &app))
	return app
}

func TestHealthEndpoint(t *testing.T) {
	s := setupServer(t)
	w := s.do(t, http.MethodGet, "/health", nil, "", "")
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestSubmitApplication(t *testing.T) {
	s := setupServer(t)

	app := s.submit(t, "regular_permit")
	assert.Equal(t, entity.TypeRegularPermit, app.Type)
	assert.Equal(t, 0, app.StageIndex)
	assert.Equal(t, int64(1), app.Version)

	t.Run("unknown type", func(t *testing.T) {
		w := s.do(t, http.MethodPost, "/api/v1/applications",
			map[string]string{"type": "drone_permit"}, "company-1", entity.RoleApplicant)
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("missing actor headers", func(t *testing.T) {
		w := s.do(t, http.MethodPost, "/api/v1/applications",
			map[string]string{"type": "regular_permit"}, "", "")
		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})
}

func TestApplyAction_StatusCodes(t *testing.T) {
	s := setupServer(t)
	app := s.submit(t, "jv_compliance")
	actionsPath := fmt.Sprintf("/api/v1/applications/%s/actions", app.ID)

	t.Run("unauthorized role", func(t *testing.T) {
		w := s.do(t, http.MethodPost, actionsPath,
			map[string]string{"action": "ADVANCE"}, "u1", entity.RoleDirector)
		assert.Equal(t, http.StatusForbidden, w.Code)
	})

	t.Run("missing reason", func(t *testing.T) {
		w := s.do(t, http.MethodPost, actionsPath,
			map[string]string{"action": "REJECT"}, "u1", entity.RoleRegistryOfficer)
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("unknown action", func(t *testing.T) {
		w := s.do(t, http.MethodPost, actionsPath,
			map[string]string{"action": "FROB"}, "u1", entity.RoleRegistryOfficer)
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("unknown application", func(t *testing.T) {
		w := s.do(t, http.MethodPost, "/api/v1/applications/APP-missing/actions",
			map[string]string{"action": "ADVANCE"}, "u1", entity.RoleRegistryOfficer)
		assert.Equal(t, http.StatusNotFound, w.Code)
	})

	t.Run("gated advance", func(t *testing.T) {
		// Stage 0 -> 1 of jv_compliance requires document verification.
		w := s.do(t, http.MethodPost, actionsPath,
			map[string]string{"action": "ADVANCE"}, "u1", entity.RoleRegistryOfficer)
		assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	})
}

func TestWorkflowOverHTTP(t *testing.T) {
	s := setupServer(t)
	app := s.submit(t, "jv_compliance")
	actionsPath := fmt.Sprintf("/api/v1/applications/%s/actions", app.ID)

	// Verify documents through the webhook, then advance through all stages.
	w := s.do(t, http.MethodPost, "/webhook/documents",
		map[string]string{"application_id": app.ID}, "", "")
	require.Equal(t, http.StatusOK, w.Code)

	steps := []struct {
		role entity.Role
	}{
		{entity.RoleRegistryOfficer},
		{entity.RoleDocumentOfficer},
		{entity.RoleTechnicalOfficer},
		{entity.RoleComplianceOfficer},
		{entity.RoleDirector},
	}
	for i, step := range steps {
		w := s.do(t, http.MethodPost, actionsPath,
			map[string]string{"action": "ADVANCE"}, "officer", step.role)
		require.Equal(t, http.StatusOK, w.Code, "step %d: %s", i, w.Body.String())
	}

	w = s.do(t, http.MethodGet, "/api/v1/applications/"+app.ID, nil, "u1", entity.RoleRegistryOfficer)
	require.Equal(t, http.StatusOK, w.Code)
	var final entity.Application
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &final))
	assert.Equal(t, entity.OutcomeApproved, final.Outcome)
	assert.Equal(t, 4, final.StageIndex)

	// Audit trail: one SUBMIT plus five ADVANCE entries.
	w = s.do(t, http.MethodGet, "/api/v1/applications/"+app.ID+"/audit", nil, "u1", entity.RoleRegistryOfficer)
	require.Equal(t, http.StatusOK, w.Code)
	var audit struct {
		Entries []entity.AuditEntry `json:"entries"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &audit))
	assert.Len(t, audit.Entries, 6)
	assert.Equal(t, entity.ActionSubmit, audit.Entries[0].Action)

	// The submitter was notified of the approval.
	w = s.do(t, http.MethodGet, "/api/v1/notifications?actor=company-1", nil, "u1", entity.RoleRegistryOfficer)
	require.Equal(t, http.StatusOK, w.Code)
	var notifications struct {
		Notifications []entity.Notification `json:"notifications"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &notifications))
	require.NotEmpty(t, notifications.Notifications)
	assert.Equal(t, entity.TemplateApplicationApproved, notifications.Notifications[0].TemplateKey)
}

func TestAdvanceWhileInfoRequested(t *testing.T) {
	s := setupServer(t)
	app := s.submit(t, "local_content")
	actionsPath := fmt.Sprintf("/api/v1/applications/%s/actions", app.ID)

	w := s.do(t, http.MethodPost, actionsPath,
		map[string]interface{}{"action": "REQUEST_INFO", "reason": "clarify scope"},
		"u1", entity.RoleRegistryOfficer)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w = s.do(t, http.MethodPost, actionsPath,
		map[string]string{"action": "ADVANCE"}, "u1", entity.RoleRegistryOfficer)
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
}

func TestNotificationEndpoints(t *testing.T) {
	s := setupServer(t)
	s.submit(t, "regular_permit")

	// Submission notifies the first stage's role.
	w := s.do(t, http.MethodGet, "/api/v1/notifications?role=registry_officer", nil, "u1", entity.RoleRegistryOfficer)
	require.Equal(t, http.StatusOK, w.Code)
	var resp struct {
		Notifications []entity.Notification `json:"notifications"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.NotEmpty(t, resp.Notifications)

	id := resp.Notifications[0].ID
	w = s.do(t, http.MethodPost, fmt.Sprintf("/api/v1/notifications/%d/read", id), nil, "u1", entity.RoleRegistryOfficer)
	assert.Equal(t, http.StatusOK, w.Code)

	t.Run("missing filter", func(t *testing.T) {
		w := s.do(t, http.MethodGet, "/api/v1/notifications", nil, "u1", entity.RoleRegistryOfficer)
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("mark read unknown id", func(t *testing.T) {
		w := s.do(t, http.MethodPost, "/api/v1/notifications/99999/read", nil, "u1", entity.RoleRegistryOfficer)
		assert.Equal(t, http.StatusNotFound, w.Code)
	})
}

func TestPaymentWebhookFlow(t *testing.T) {
	s := setupServer(t)
	app := s.submit(t, "regular_permit")

	t.Run("missing application id", func(t *testing.T) {
		w := s.do(t, http.MethodPost, "/webhook/payment", map[string]string{}, "", "")
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	w := s.do(t, http.MethodPost, "/webhook/payment",
		map[string]string{"application_id": app.ID}, "", "")
	assert.Equal(t, http.StatusOK, w.Code)

	// Retries are harmless.
	w = s.do(t, http.MethodPost, "/webhook/payment",
		map[string]string{"application_id": app.ID}, "", "")
	assert.Equal(t, http.StatusOK, w.Code)
}
