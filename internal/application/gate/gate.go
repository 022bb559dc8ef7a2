package gate

import (
	"context"
	"sync"

	"github.com/petrocom/permit-workflow/internal/application/dispatcher"
	"github.com/petrocom/permit-workflow/internal/application/port"
	"github.com/petrocom/permit-workflow/internal/domain/event"
)

// Logger interface for minimal logging dependency.
type Logger interface {
	Info(msg string, keysAndValues ...interface{})
	Error(msg string, keysAndValues ...interface{})
}

// PaymentGate is the predicate consulted before advancing into
// payment-dependent stages. Results are cached per application; the cache is
// invalidated when the payment collaborator confirms a new payment.
type PaymentGate struct {
	provider port.PaymentProvider
	logger   Logger

	mu    sync.RWMutex
	cache map[string]bool
}

// NewPaymentGate creates a payment gate backed by the external provider.
func NewPaymentGate(provider port.PaymentProvider, logger Logger) *PaymentGate {
	return &PaymentGate{
		provider: provider,
		logger:   logger,
		cache:    make(map[string]bool),
	}
}

// IsConfirmed reports whether payment for the application has been settled.
// Unconfirmed results are cached too; the confirmation event invalidates.
func (g *PaymentGate) IsConfirmed(ctx context.Context, applicationID string) (bool, error) {
	g.mu.RLock()
	confirmed, ok := g.cache[applicationID]
	g.mu.RUnlock()
	if ok {
		return confirmed, nil
	}

	confirmed, err := g.provider.IsConfirmed(ctx, applicationID)
	if err != nil {
		return false, err
	}

	g.mu.Lock()
	g.cache[applicationID] = confirmed
	g.mu.Unlock()

	return confirmed, nil
}

// Invalidate drops the cached result for an application.
func (g *PaymentGate) Invalidate(applicationID string) {
	g.mu.Lock()
	delete(g.cache, applicationID)
	g.mu.Unlock()
}

// SubscribeInvalidation registers the gate's cache invalidation on payment
// confirmation events.
func (g *PaymentGate) SubscribeInvalidation(d dispatcher.Dispatcher) {
	d.SubscribeNamed(event.TypePaymentConfirmed, "payment-gate-invalidation",
		func(ctx context.Context, evt *event.Event) error {
			g.Invalidate(evt.ApplicationID)
			if g.logger != nil {
				g.logger.Info("Payment gate cache invalidated", "application_id", evt.ApplicationID)
			}
			return nil
		})
}

// DocumentGate mirrors PaymentGate over the document verification
// collaborator.
type DocumentGate struct {
	verifier port.DocumentVerifier
	logger   Logger

	mu    sync.RWMutex
	cache map[string]bool
}

// NewDocumentGate creates a document gate backed by the external verifier.
func NewDocumentGate(verifier port.DocumentVerifier, logger Logger) *DocumentGate {
	return &DocumentGate{
		verifier: verifier,
		logger:   logger,
		cache:    make(map[string]bool),
	}
}

// IsVerified reports whether the application's documents have been verified.
func (g *DocumentGate) IsVerified(ctx context.Context, applicationID string) (bool, error) {
	g.mu.RLock()
	verified, ok := g.cache[applicationID]
	g.mu.RUnlock()
	if ok {
		return verified, nil
	}

	verified, err := g.verifier.IsVerified(ctx, applicationID)
	if err != nil {
		return false, err
	}

	g.mu.Lock()
	g.cache[applicationID] = verified
	g.mu.Unlock()

	return verified, nil
}

// Invalidate drops the cached result for an application.
func (g *DocumentGate) Invalidate(applicationID string) {
	g.mu.Lock()
	delete(g.cache, applicationID)
	g.mu.Unlock()
}

// SubscribeInvalidation registers the gate's cache invalidation on document
// verification events.
func (g *DocumentGate) SubscribeInvalidation(d dispatcher.Dispatcher) {
	d.SubscribeNamed(event.TypeDocumentsVerified, "document-gate-invalidation",
		func(ctx context.Context, evt *event.Event) error {
			g.Invalidate(evt.ApplicationID)
			return nil
		})
}
