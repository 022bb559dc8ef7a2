package http

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/petrocom/permit-workflow/internal/application/dispatcher"
	"github.com/petrocom/permit-workflow/internal/domain/event"
	"github.com/petrocom/permit-workflow/internal/infrastructure/persistence/repository"
	"go.uber.org/zap"
)

// PaymentWebhook receives confirmations from the external payment and
// document collaborators. It records the external fact and emits the
// matching event so gate caches invalidate; it never transitions
// applications itself.
type PaymentWebhook struct {
	payments   *repository.PaymentConfirmationRepository
	documents  *repository.DocumentVerificationRepository
	dispatcher dispatcher.Dispatcher
	logger     *zap.Logger
}

// NewPaymentWebhook creates the webhook handler set.
func NewPaymentWebhook(
	payments *repository.PaymentConfirmationRepository,
	documents *repository.DocumentVerificationRepository,
	d dispatcher.Dispatcher,
	logger *zap.Logger,
) *PaymentWebhook {
	return &PaymentWebhook{
		payments:   payments,
		documents:  documents,
		dispatcher: d,
		logger:     logger,
	}
}

type confirmationRequest struct {
	ApplicationID string `json:"application_id" binding:"required"`
}

// HandlePayment handles POST /webhook/payment.
func (w *PaymentWebhook) HandlePayment(c *gin.Context) {
	var req confirmationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if err := w.payments.Confirm(c.Request.Context(), req.ApplicationID); err != nil {
		w.logger.Error("Failed to record payment confirmation", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
		return
	}

	w.dispatcher.DispatchAsync(c.Request.Context(), event.NewEvent(
		event.TypePaymentConfirmed,
		req.ApplicationID,
		nil,
	))

	w.logger.Info("Payment confirmed", zap.String("application_id", req.ApplicationID))
	c.JSON(http.StatusOK, gin.H{"status": "confirmed"})
}

// HandleDocuments handles POST /webhook/documents.
func (w *PaymentWebhook) HandleDocuments(c *gin.Context) {
	var req confirmationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if err := w.documents.Verify(c.Request.Context(), req.ApplicationID); err != nil {
		w.logger.Error("Failed to record document verification", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
		return
	}

	w.dispatcher.DispatchAsync(c.Request.Context(), event.NewEvent(
		event.TypeDocumentsVerified,
		req.ApplicationID,
		nil,
	))

	w.logger.Info("Documents verified", zap.String("application_id", req.ApplicationID))
	c.JSON(http.StatusOK, gin.H{"status": "verified"})
}
