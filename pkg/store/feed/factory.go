package feed

import (
	"context"
	"fmt"
	"strings"
)

const (
	BackendRedis    = "redis"
	BackendPostgres = "postgres"
	BackendMemory   = "memory"
)

// Config selects and parameterizes a feed backend.
type Config struct {
	Backend     string
	RedisURL    string
	DatabaseURL string
}

// NewStore builds the configured feed backend. An empty backend defaults
// to redis, matching the deployed topology.
func NewStore(ctx context.Context, cfg Config) (Store, error) {
	switch strings.ToLower(cfg.Backend) {
	case BackendRedis, "":
		return NewRedis(ctx, cfg.RedisURL)
	case BackendPostgres:
		return NewPostgres(cfg.DatabaseURL)
	case BackendMemory:
		return NewMemory(), nil
	default:
		return nil, fmt.Errorf("unsupported feed backend: %s", cfg.Backend)
	}
}
