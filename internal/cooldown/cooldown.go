// Package cooldown rate-limits repeated actions such as OTP resends.
package cooldown

import (
	"context"
	"sync"
	"time"
)

// Store grants at most one Acquire per key until the TTL lapses.
type Store interface {
	// Acquire returns true when the key was free. Otherwise it reports how
	// long the caller still has to wait.
	Acquire(ctx context.Context, key string, ttl time.Duration) (bool, time.Duration, error)
	Release(ctx context.Context, key string) error
}

// Memory is a process-local Store. Expired keys are dropped lazily.
type Memory struct {
	mu      sync.Mutex
	expires map[string]time.Time
	now     func() time.Time
}

func NewMemory() *Memory {
	return &Memory{
		expires: make(map[string]time.Time),
		now:     time.Now,
	}
}

func (m *Memory) Acquire(_ context.Context, key string, ttl time.Duration) (bool, time.Duration, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.now()
	if until, ok := m.expires[key]; ok && now.Before(until) {
		return false, until.Sub(now), nil
	}

	m.expires[key] = now.Add(ttl)

	// Opportunistic sweep so the map does not grow without bound.
	if len(m.expires) > 1024 {
		for k, until := range m.expires {
			if !now.Before(until) {
				delete(m.expires, k)
			}
		}
	}

	return true, 0, nil
}

func (m *Memory) Release(_ context.Context, key string) error {
	m.mu.Lock()
	delete(m.expires, key)
	m.mu.Unlock()
	return nil
}
