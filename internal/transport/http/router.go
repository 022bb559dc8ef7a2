package http

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// NewRouter builds the gin router with all endpoints registered.
func NewRouter(h *Handler, logger *zap.Logger) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(LoggingMiddleware(logger))

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":  "healthy",
			"service": "permit-workflow",
			"time":    time.Now().Format(time.RFC3339),
		})
	})

	// Collaborator webhooks carry no actor identity.
	router.POST("/webhook/payment", h.payments.HandlePayment)
	router.POST("/webhook/documents", h.payments.HandleDocuments)

	api := router.Group("/api/v1")
	api.Use(ActorMiddleware())
	{
		api.POST("/applications", h.SubmitApplication)
		api.GET("/applications", h.ListApplications)
		api.GET("/applications/:id", h.GetApplication)
		api.POST("/applications/:id/actions", h.ApplyAction)
		api.GET("/applications/:id/audit", h.GetAuditTrail)

		api.GET("/notifications", h.ListNotifications)
		api.POST("/notifications/:id/read", h.MarkNotificationRead)
	}

	return router
}
