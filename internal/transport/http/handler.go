package http

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/petrocom/permit-workflow/internal/application/engine"
	"github.com/petrocom/permit-workflow/internal/application/port"
	"github.com/petrocom/permit-workflow/internal/application/service"
	"github.com/petrocom/permit-workflow/internal/domain/entity"
	"go.uber.org/zap"
)

// Handler bundles the HTTP endpoints over the workflow core.
type Handler struct {
	apps          *service.ApplicationService
	engine        *engine.Engine
	notifications *service.NotificationService
	payments      *PaymentWebhook
	logger        *zap.Logger
}

// NewHandler creates the HTTP handler set.
func NewHandler(
	apps *service.ApplicationService,
	eng *engine.Engine,
	notifications *service.NotificationService,
	payments *PaymentWebhook,
	logger *zap.Logger,
) *Handler {
	return &Handler{
		apps:          apps,
		engine:        eng,
		notifications: notifications,
		payments:      payments,
		logger:        logger,
	}
}

type submitRequest struct {
	Type string `json:"type" binding:"required"`
}

// SubmitApplication handles POST /api/v1/applications.
func (h *Handler) SubmitApplication(c *gin.Context) {
	actor, ok := currentActor(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "no actor"})
		return
	}

	var req submitRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	app, err := h.apps.Submit(c.Request.Context(), entity.ApplicationType(req.Type), actor.ID)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, app)
}

type actionRequest struct {
	Action        string `json:"action" binding:"required"`
	Reason        string `json:"reason"`
	NewAssigneeID string `json:"new_assignee_id"`
}

// ApplyAction handles POST /api/v1/applications/:id/actions.
func (h *Handler) ApplyAction(c *gin.Context) {
	actor, ok := currentActor(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "no actor"})
		return
	}

	var req actionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	app, err := h.engine.Apply(c.Request.Context(), engine.Request{
		ApplicationID: c.Param("id"),
		ActorID:       actor.ID,
		ActorRole:     actor.Role,
		Action:        entity.Action(req.Action),
		Reason:        req.Reason,
		NewAssigneeID: req.NewAssigneeID,
	})
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, app)
}

// GetApplication handles GET /api/v1/applications/:id.
func (h *Handler) GetApplication(c *gin.Context) {
	app, err := h.apps.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, app)
}

// ListApplications handles GET /api/v1/applications.
func (h *Handler) ListApplications(c *gin.Context) {
	limit := intQuery(c, "limit", 50)
	offset := intQuery(c, "offset", 0)

	apps, err := h.apps.List(c.Request.Context(), limit, offset)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"applications": apps})
}

// GetAuditTrail handles GET /api/v1/applications/:id/audit.
func (h *Handler) GetAuditTrail(c *gin.Context) {
	entries, err := h.apps.AuditTrail(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"entries": entries})
}

// ListNotifications handles GET /api/v1/notifications.
func (h *Handler) ListNotifications(c *gin.Context) {
	limit := intQuery(c, "limit", 50)

	if role := c.Query("role"); role != "" {
		notifications, err := h.notifications.ListForRole(c.Request.Context(), entity.Role(role), limit)
		if err != nil {
			h.writeError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"notifications": notifications})
		return
	}

	if actorID := c.Query("actor"); actorID != "" {
		notifications, err := h.notifications.ListForActor(c.Request.Context(), actorID, limit)
		if err != nil {
			h.writeError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"notifications": notifications})
		return
	}

	c.JSON(http.StatusBadRequest, gin.H{"error": "role or actor query parameter required"})
}

// MarkNotificationRead handles POST /api/v1/notifications/:id/read.
func (h *Handler) MarkNotificationRead(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid notification id"})
		return
	}

	if err := h.notifications.MarkRead(c.Request.Context(), id); err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "read"})
}

func intQuery(c *gin.Context, name string, fallback int) int {
	raw := c.Query(name)
	if raw == "" {
		return fallback
	}
	val, err := strconv.Atoi(raw)
	if err != nil || val < 0 {
		return fallback
	}
	return val
}

// writeError maps core errors onto HTTP status codes.
func (h *Handler) writeError(c *gin.Context, err error) {
	status := http.StatusInternalServerError

	switch {
	case errors.Is(err, engine.ErrApplicationNotFound), errors.Is(err, port.ErrNotFound):
		status = http.StatusNotFound
	case errors.Is(err, engine.ErrUnauthorized):
		status = http.StatusForbidden
	case errors.Is(err, engine.ErrConcurrentModification):
		status = http.StatusConflict
	case errors.Is(err, engine.ErrIllegalStateForAction),
		errors.Is(err, engine.ErrPaymentPending),
		errors.Is(err, engine.ErrDocumentsPending):
		status = http.StatusUnprocessableEntity
	case errors.Is(err, engine.ErrMissingReason),
		errors.Is(err, engine.ErrMissingAssignee),
		errors.Is(err, engine.ErrUnknownAction),
		errors.Is(err, engine.ErrUnknownApplicationType):
		status = http.StatusBadRequest
	}

	if status == http.StatusInternalServerError {
		h.logger.Error("Request failed", zap.Error(err))
		c.JSON(status, gin.H{"error": "internal error"})
		return
	}
	c.JSON(status, gin.H{"error": err.Error()})
}
