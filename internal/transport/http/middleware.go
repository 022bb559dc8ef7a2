package http

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/petrocom/permit-workflow/internal/application/port"
	"github.com/petrocom/permit-workflow/internal/domain/entity"
	"go.uber.org/zap"
)

const (
	headerActorID   = "X-Actor-ID"
	headerActorRole = "X-Actor-Role"

	actorContextKey = "actor"
)

// ActorMiddleware extracts the authenticated actor from request headers.
// The headers stand in for the trusted identity/session collaborator; the
// workflow core does not authenticate.
func ActorMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		actorID := c.GetHeader(headerActorID)
		role := entity.Role(c.GetHeader(headerActorRole))

		if actorID == "" || !role.IsValid() {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"error": "missing or invalid actor headers",
			})
			return
		}

		c.Set(actorContextKey, port.Actor{ID: actorID, Role: role})
		c.Next()
	}
}

// currentActor returns the actor placed in the context by ActorMiddleware.
func currentActor(c *gin.Context) (port.Actor, bool) {
	val, ok := c.Get(actorContextKey)
	if !ok {
		return port.Actor{}, false
	}
	actor, ok := val.(port.Actor)
	return actor, ok
}

// LoggingMiddleware logs each request with latency and status.
func LoggingMiddleware(logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		logger.Info("HTTP request",
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("latency", time.Since(start)))
	}
}
