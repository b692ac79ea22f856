package status

import (
	"context"
	"sync"
	"time"

	"github.com/gpu-yield/price-feed/pkg/models/domain"
)

// Memory holds the latest snapshot in process, for tests and for
// deployments without redis.
type Memory struct {
	mu        sync.RWMutex
	stats     domain.ScrapeStats
	expiresAt time.Time
	ttl       time.Duration
}

func NewMemory(ttl time.Duration) *Memory {
	if ttl <= 0 {
		ttl = DefaultStatsTTL
	}
	return &Memory{ttl: ttl}
}

func (m *Memory) SaveScrapeStats(_ context.Context, stats domain.ScrapeStats) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.stats = stats
	m.expiresAt = time.Now().Add(m.ttl)
	return nil
}

func (m *Memory) LoadScrapeStats(context.Context) (domain.ScrapeStats, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.expiresAt.IsZero() || time.Now().After(m.expiresAt) {
		return domain.ScrapeStats{}, false, nil
	}
	return m.stats, true, nil
}
