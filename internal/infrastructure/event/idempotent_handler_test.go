package event

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/campus/backend/internal/domain/shared"
	"github.com/campus/backend/internal/infrastructure/cache"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type MockEventHandler struct {
	mock.Mock
}

func (m *MockEventHandler) Handle(ctx context.Context, event shared.DomainEvent) error {
	args := m.Called(ctx, event)
	return args.Error(0)
}

func (m *MockEventHandler) EventTypes() []string {
	args := m.Called()
	return args.Get(0).([]string)
}

type MockIdempotencyStore struct {
	mock.Mock
}

func (m *MockIdempotencyStore) MarkProcessed(ctx context.Context, key string, ttl time.Duration) (bool, error) {
	args := m.Called(ctx, key, ttl)
	return args.Bool(0), args.Error(1)
}

func (m *MockIdempotencyStore) IsProcessed(ctx context.Context, key string) (bool, error) {
	args := m.Called(ctx, key)
	return args.Bool(0), args.Error(1)
}

func (m *MockIdempotencyStore) Release(ctx context.Context, key string) error {
	args := m.Called(ctx, key)
	return args.Error(0)
}

func (m *MockIdempotencyStore) Close() error {
	args := m.Called()
	return args.Error(0)
}

func newAuditedEvent() *billingEvent {
	return newBillingEvent("PaymentRegistered", uuid.New())
}

func TestIdempotentHandlerHandle(t *testing.T) {
	t.Run("handles a first-seen event", func(t *testing.T) {
		store := cache.NewInMemoryIdempotencyStore()
		defer store.Close()

		inner := new(MockEventHandler)
		event := newAuditedEvent()
		inner.On("Handle", mock.Anything, event).Return(nil)

		handler := NewIdempotentHandler(inner, store, zap.NewNop())
		require.NoError(t, handler.Handle(context.Background(), event))

		inner.AssertExpectations(t)
		stats := handler.Stats()
		assert.Equal(t, int64(1), stats.EventsProcessed)
		assert.Equal(t, int64(0), stats.EventsDuplicate)
	})

	t.Run("swallows redeliveries of the same event ID", func(t *testing.T) {
		store := cache.NewInMemoryIdempotencyStore()
		defer store.Close()

		inner := new(MockEventHandler)
		event := newAuditedEvent()
		inner.On("Handle", mock.Anything, event).Return(nil).Once()

		handler := NewIdempotentHandler(inner, store, zap.NewNop())
		for i := 0; i < 3; i++ {
			require.NoError(t, handler.Handle(context.Background(), event))
		}

		inner.AssertExpectations(t)
		stats := handler.Stats()
		assert.Equal(t, int64(1), stats.EventsProcessed)
		assert.Equal(t, int64(2), stats.EventsDuplicate)
	})

	t.Run("propagates the wrapped handler's error", func(t *testing.T) {
		store := cache.NewInMemoryIdempotencyStore()
		defer store.Close()

		inner := new(MockEventHandler)
		event := newAuditedEvent()
		sinkErr := errors.New("audit sink unavailable")
		inner.On("Handle", mock.Anything, event).Return(sinkErr)

		handler := NewIdempotentHandler(inner, store, zap.NewNop())
		err := handler.Handle(context.Background(), event)

		require.ErrorIs(t, err, sinkErr)
		stats := handler.Stats()
		assert.Equal(t, int64(0), stats.EventsProcessed)
		assert.Equal(t, int64(1), stats.EventsFailed)
	})

	t.Run("handles the event when the store is unreachable", func(t *testing.T) {
		store := new(MockIdempotencyStore)
		inner := new(MockEventHandler)
		event := newAuditedEvent()

		store.On("MarkProcessed", mock.Anything, event.EventID().String(), mock.Anything).
			Return(false, errors.New("redis: connection refused"))
		inner.On("Handle", mock.Anything, event).Return(nil)

		handler := NewIdempotentHandler(inner, store, zap.NewNop())
		require.NoError(t, handler.Handle(context.Background(), event))

		store.AssertExpectations(t)
		inner.AssertExpectations(t)
	})

	t.Run("passes everything through when dedupe is disabled", func(t *testing.T) {
		store := cache.NewInMemoryIdempotencyStore()
		defer store.Close()

		inner := new(MockEventHandler)
		event := newAuditedEvent()
		inner.On("Handle", mock.Anything, event).Return(nil).Times(3)

		config := shared.DefaultIdempotencyConfig()
		config.Enabled = false
		handler := NewIdempotentHandler(inner, store, zap.NewNop(), WithIdempotencyConfig(config))

		for i := 0; i < 3; i++ {
			require.NoError(t, handler.Handle(context.Background(), event))
		}

		inner.AssertExpectations(t)
		assert.Equal(t, int64(0), handler.Stats().EventsProcessed)
	})
}

func TestIdempotentHandlerEventTypes(t *testing.T) {
	store := cache.NewInMemoryIdempotencyStore()
	defer store.Close()

	inner := new(MockEventHandler)
	inner.On("EventTypes").Return([]string{"PaymentRegistered", "CommitmentPaid"})

	handler := NewIdempotentHandler(inner, store, zap.NewNop())
	assert.Equal(t, []string{"PaymentRegistered", "CommitmentPaid"}, handler.EventTypes())
	inner.AssertExpectations(t)
}

func TestIdempotentHandlerCustomTTL(t *testing.T) {
	store := new(MockIdempotencyStore)
	inner := new(MockEventHandler)
	event := newAuditedEvent()

	store.On("MarkProcessed", mock.Anything, event.EventID().String(), time.Hour).
		Return(true, nil)
	inner.On("Handle", mock.Anything, event).Return(nil)

	handler := NewIdempotentHandler(inner, store, zap.NewNop(),
		WithIdempotencyConfig(shared.IdempotencyConfig{Enabled: true, TTL: time.Hour}))

	require.NoError(t, handler.Handle(context.Background(), event))
	store.AssertExpectations(t)
}

func TestIdempotentHandlerConcurrentDeliveries(t *testing.T) {
	store := cache.NewInMemoryIdempotencyStore()
	defer store.Close()

	inner := new(MockEventHandler)
	event := newAuditedEvent()
	inner.On("Handle", mock.Anything, event).Return(nil).Once()

	handler := NewIdempotentHandler(inner, store, zap.NewNop())

	const deliveries = 50
	errs := make(chan error, deliveries)
	for i := 0; i < deliveries; i++ {
		go func() {
			errs <- handler.Handle(context.Background(), event)
		}()
	}
	for i := 0; i < deliveries; i++ {
		assert.NoError(t, <-errs)
	}

	inner.AssertExpectations(t)
	stats := handler.Stats()
	assert.Equal(t, int64(1), stats.EventsProcessed)
	assert.Equal(t, int64(deliveries-1), stats.EventsDuplicate)
}
