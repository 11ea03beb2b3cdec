package cache

import (
	"context"
	"sync"
	"time"

	"github.com/campus/backend/internal/domain/shared"
)

// sweepInterval controls how often expired claims are purged.
const sweepInterval = 5 * time.Minute

// InMemoryIdempotencyStore keeps idempotency claims in a process-local map.
// Single-instance deployments and tests use it when Redis is unavailable;
// claims do not survive a restart and are not shared across replicas.
type InMemoryIdempotencyStore struct {
	mu        sync.RWMutex
	claims    map[string]time.Time
	stop      chan struct{}
	done      sync.WaitGroup
	closeOnce sync.Once
}

// NewInMemoryIdempotencyStore returns a store with a background sweeper
// that purges expired claims. Call Close to stop the sweeper.
func NewInMemoryIdempotencyStore() *InMemoryIdempotencyStore {
	s := &InMemoryIdempotencyStore{
		claims: make(map[string]time.Time),
		stop:   make(chan struct{}),
	}
	s.done.Add(1)
	go s.sweepLoop()
	return s
}

// MarkProcessed claims the key for ttl. It reports true when the claim is
// new and false when a live claim already holds the key.
func (s *InMemoryIdempotencyStore) MarkProcessed(ctx context.Context, key string, ttl time.Duration) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if expiry, ok := s.claims[key]; ok && time.Now().Before(expiry) {
		return false, nil
	}
	s.claims[key] = time.Now().Add(ttl)
	return true, nil
}

// IsProcessed reports whether the key holds a live claim. An expired claim
// counts as not processed even if the sweeper has not removed it yet.
func (s *InMemoryIdempotencyStore) IsProcessed(ctx context.Context, key string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	expiry, ok := s.claims[key]
	return ok && time.Now().Before(expiry), nil
}

// Release drops the claim so the key can be claimed again.
func (s *InMemoryIdempotencyStore) Release(ctx context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.claims, key)
	return nil
}

// Close stops the sweeper. Safe to call more than once.
func (s *InMemoryIdempotencyStore) Close() error {
	s.closeOnce.Do(func() {
		close(s.stop)
		s.done.Wait()
	})
	return nil
}

func (s *InMemoryIdempotencyStore) sweepLoop() {
	defer s.done.Done()

	ticker := time.NewTicker(sweepInterval)
	defer ticker.Stop()

	for {
		select {
		case <-s.stop:
			return
		case <-ticker.C:
			s.sweep()
		}
	}
}

func (s *InMemoryIdempotencyStore) sweep() {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now()
	for key, expiry := range s.claims {
		if now.After(expiry) {
			delete(s.claims, key)
		}
	}
}

// Size reports the number of stored claims, expired ones included.
func (s *InMemoryIdempotencyStore) Size() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.claims)
}

var _ shared.IdempotencyStore = (*InMemoryIdempotencyStore)(nil)
