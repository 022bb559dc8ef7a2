package gate

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/petrocom/permit-workflow/internal/application/dispatcher"
	"github.com/petrocom/permit-workflow/internal/domain/event"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type mockProvider struct {
	confirmed map[string]bool
	err       error
	calls     int
}

func (m *mockProvider) IsConfirmed(ctx context.Context, applicationID string) (bool, error) {
	m.calls++
	if m.err != nil {
		return false, m.err
	}
	return m.confirmed[applicationID], nil
}

func (m *mockProvider) IsVerified(ctx context.Context, applicationID string) (bool, error) {
	return m.IsConfirmed(ctx, applicationID)
}

func TestPaymentGate_CachesResults(t *testing.T) {
	provider := &mockProvider{confirmed: map[string]bool{"APP-1": true}}
	g := NewPaymentGate(provider, nil)

	for i := 0; i < 3; i++ {
		confirmed, err := g.IsConfirmed(context.Background(), "APP-1")
		require.NoError(t, err)
		assert.True(t, confirmed)
	}
	assert.Equal(t, 1, provider.calls, "repeated checks must hit the cache")
}

func TestPaymentGate_CachesNegativeResults(t *testing.T) {
	provider := &mockProvider{confirmed: map[string]bool{}}
	g := NewPaymentGate(provider, nil)

	confirmed, err := g.IsConfirmed(context.Background(), "APP-1")
	require.NoError(t, err)
	assert.False(t, confirmed)

	// The provider flips, but the stale negative stays until invalidated.
	provider.confirmed["APP-1"] = true
	confirmed, err = g.IsConfirmed(context.Background(), "APP-1")
	require.NoError(t, err)
	assert.False(t, confirmed)
	assert.Equal(t, 1, provider.calls)

	g.Invalidate("APP-1")
	confirmed, err = g.IsConfirmed(context.Background(), "APP-1")
	require.NoError(t, err)
	assert.True(t, confirmed)
}

func TestPaymentGate_ProviderErrorNotCached(t *testing.T) {
	provider := &mockProvider{err: errors.New("provider down")}
	g := NewPaymentGate(provider, nil)

	_, err := g.IsConfirmed(context.Background(), "APP-1")
	require.Error(t, err)

	provider.err = nil
	provider.confirmed = map[string]bool{"APP-1": true}
	confirmed, err := g.IsConfirmed(context.Background(), "APP-1")
	require.NoError(t, err)
	assert.True(t, confirmed)
}

func TestPaymentGate_EventInvalidation(t *testing.T) {
	provider := &mockProvider{confirmed: map[string]bool{}}
	g := NewPaymentGate(provider, nil)

	d := dispatcher.NewDispatcher()
	g.SubscribeInvalidation(d)

	// Prime the cache with a negative result.
	confirmed, err := g.IsConfirmed(context.Background(), "APP-1")
	require.NoError(t, err)
	require.False(t, confirmed)

	provider.confirmed["APP-1"] = true
	d.DispatchAsync(context.Background(), event.NewEvent(event.TypePaymentConfirmed, "APP-1", nil))
	require.NoError(t, d.Close())

	confirmed, err = g.IsConfirmed(context.Background(), "APP-1")
	require.NoError(t, err)
	assert.True(t, confirmed, "confirmation event must invalidate the cached negative")
}

func TestDocumentGate_EventInvalidation(t *testing.T) {
	provider := &mockProvider{confirmed: map[string]bool{}}
	g := NewDocumentGate(provider, nil)

	d := dispatcher.NewDispatcher()
	g.SubscribeInvalidation(d)

	verified, err := g.IsVerified(context.Background(), "APP-2")
	require.NoError(t, err)
	require.False(t, verified)

	provider.confirmed["APP-2"] = true
	d.DispatchAsync(context.Background(), event.NewEvent(event.TypeDocumentsVerified, "APP-2", nil))
	require.NoError(t, d.Close())

	verified, err = g.IsVerified(context.Background(), "APP-2")
	require.NoError(t, err)
	assert.True(t, verified)
}

func TestPaymentGate_ConcurrentAccess(t *testing.T) {
	provider := &mockProvider{confirmed: map[string]bool{"APP-1": true}}
	g := NewPaymentGate(provider, nil)

	done := make(chan struct{})
	go func() {
		defer close(done)
		for i := 0; i < 100; i++ {
			_, _ = g.IsConfirmed(context.Background(), "APP-1")
		}
	}()
	for i := 0; i < 100; i++ {
		g.Invalidate("APP-1")
	}

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("concurrent access deadlocked")
	}
}
