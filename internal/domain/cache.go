package domain

import (
	"context"
	"time"
)

// Cache defines the interface for caching operations.
// Supports two-phase caching: local LRU (Community) + Redis (Pro).
// All methods require tenantID for strict multi-tenancy isolation.
type Cache interface {
	// Get retrieves a value from cache.
	// Returns nil, nil if key not found.
	Get(ctx context.Context, tenantID string, key string) ([]byte, error)

	// Set stores a value in cache with expiration.
	Set(ctx context.Context, tenantID string, key string, value []byte, ttl time.Duration) error

	// Delete removes a value from cache.
	Delete(ctx context.Context, tenantID string, key string) error

	// GetReputation retrieves a cached reputation entry.
	GetReputation(ctx context.Context, tenantID string, kind string, key string) (*ReputationEntry, error)

	// SetReputation caches a reputation entry for feature extraction.
	SetReputation(ctx context.Context, tenantID string, entry *ReputationEntry, ttl time.Duration) error

	// InvalidateReputation drops a cached reputation entry so the next
	// lookup reads the repository.
	InvalidateReputation(ctx context.Context, tenantID string, kind string, key string) error

	// IncrementCounter atomically increments a counter and returns the
	// new value. Used for transaction frequency windows.
	IncrementCounter(ctx context.Context, tenantID string, key string, window time.Duration) (int64, error)

	// Health check
	Ping(ctx context.Context) error

	// Lifecycle
	Close() error
}

// ReputationEntry is a cached location or IP risk score.
type ReputationEntry struct {
	Kind      string  `json:"kind"` // "location" or "ip"
	Key       string  `json:"key"`
	Risk      float64 `json:"risk"`
	UpdatedAt string  `json:"updatedAt"`
}

// CacheConfig holds configuration for cache initialization.
type CacheConfig struct {
	// Type is the cache type: "memory" or "redis"
	Type string

	// Local LRU cache settings (Community tier)
	LocalMaxSize int
	LocalTTL     time.Duration

	// Redis settings (Pro tier)
	RedisAddr     string
	RedisPassword string
	RedisDB       int

	// Two-phase settings
	EnableTwoPhase bool // If true, check local first, then Redis
}
