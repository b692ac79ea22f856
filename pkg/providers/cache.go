package providers

import (
	"sync"
	"time"

	"github.com/gpu-yield/price-feed/pkg/models/domain"
)

// DefaultResultTTL keeps fetch results fresh enough for pricing while
// sparing the upstream APIs between scrape cycles.
const DefaultResultTTL = 5 * time.Minute

// ResultCache keeps the last successful fetch per source so back-to-back
// cycles inside the window reuse it instead of hitting the market again.
type ResultCache struct {
	data  map[string]*resultEntry
	ttl   time.Duration
	mutex sync.Mutex
}

type resultEntry struct {
	offers    []domain.RawOffer
	expiresAt time.Time
}

func NewResultCache(ttl time.Duration) *ResultCache {
	if ttl <= 0 {
		ttl = DefaultResultTTL
	}
	return &ResultCache{
		data: make(map[string]*resultEntry),
		ttl:  ttl,
	}
}

func (c *ResultCache) Get(source string) ([]domain.RawOffer, bool) {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	entry, exists := c.data[source]
	if !exists {
		return nil, false
	}
	if time.Now().After(entry.expiresAt) {
		delete(c.data, source)
		return nil, false
	}
	return entry.offers, true
}

func (c *ResultCache) Set(source string, offers []domain.RawOffer) {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	c.data[source] = &resultEntry{
		offers:    offers,
		expiresAt: time.Now().Add(c.ttl),
	}
}

func (c *ResultCache) Clear() {
	c.mutex.Lock()
	defer c.mutex.Unlock()
	c.data = make(map[string]*resultEntry)
}
