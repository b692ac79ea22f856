package feed

import (
	"context"
	"maps"
	"strconv"
	"sync"

	"github.com/gpu-yield/price-feed/pkg/models/store"
)

// Memory is an in-process feed for tests and single-node development.
type Memory struct {
	mu      sync.RWMutex
	records []store.FeedRecord
	nextID  int64
}

func NewMemory() *Memory {
	return &Memory{nextID: 1}
}

func (m *Memory) Append(_ context.Context, rec store.FeedRecord) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	rec.ID = strconv.FormatInt(m.nextID, 10)
	rec.Fields = maps.Clone(rec.Fields)
	m.nextID++
	m.records = append(m.records, rec)
	return rec.ID, nil
}

func (m *Memory) Recent(_ context.Context, count int) ([]store.FeedRecord, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if count > len(m.records) {
		count = len(m.records)
	}

	out := make([]store.FeedRecord, 0, count)
	for i := len(m.records) - 1; i >= len(m.records)-count; i-- {
		rec := m.records[i]
		rec.Fields = maps.Clone(rec.Fields)
		out = append(out, rec)
	}
	return out, nil
}

func (m *Memory) Trim(_ context.Context, maxLen int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if int64(len(m.records)) <= maxLen {
		return nil
	}
	m.records = m.records[int64(len(m.records))-maxLen:]
	return nil
}

func (m *Memory) Len(_ context.Context) (int64, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return int64(len(m.records)), nil
}

func (m *Memory) Ping(context.Context) error { return nil }

func (m *Memory) Close() error { return nil }
