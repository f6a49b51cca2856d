package httpapi

import (
	"context"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// pruneThreshold bounds the client map before Allow sweeps idle entries inline.
const pruneThreshold = 10000

// MemoryLimiter is a per-client token bucket held in process memory.
type MemoryLimiter struct {
	mu      sync.Mutex
	clients map[string]*clientEntry
	limit   rate.Limit
	burst   int
	maxIdle time.Duration
	now     func() time.Time
}

type clientEntry struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// NewMemoryLimiter allows rpm requests per minute per client with the given burst.
func NewMemoryLimiter(rpm, burst int) *MemoryLimiter {
	return &MemoryLimiter{
		clients: make(map[string]*clientEntry),
		limit:   rate.Limit(float64(rpm) / 60),
		burst:   burst,
		maxIdle: 10 * time.Minute,
		now:     time.Now,
	}
}

// Allow takes one token from key's bucket.
func (m *MemoryLimiter) Allow(_ context.Context, key string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.now()
	if len(m.clients) > pruneThreshold {
		m.pruneLocked(now.Add(-m.maxIdle))
	}

	e, ok := m.clients[key]
	if !ok {
		e = &clientEntry{limiter: rate.NewLimiter(m.limit, m.burst)}
		m.clients[key] = e
	}
	e.lastSeen = now
	return e.limiter.AllowN(now, 1), nil
}

// Prune drops clients idle for longer than idle and reports how many were removed.
func (m *MemoryLimiter) Prune(idle time.Duration) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.pruneLocked(m.now().Add(-idle))
}

func (m *MemoryLimiter) pruneLocked(cutoff time.Time) int {
	n := 0
	for k, e := range m.clients {
		if e.lastSeen.Before(cutoff) {
			delete(m.clients, k)
			n++
		}
	}
	return n
}

// Run prunes idle clients every interval until ctx is done.
func (m *MemoryLimiter) Run(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			m.Prune(interval)
		}
	}
}

// Clients reports how many clients are tracked.
func (m *MemoryLimiter) Clients() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.clients)
}
