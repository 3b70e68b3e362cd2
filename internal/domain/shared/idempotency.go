package shared

import (
	"context"
	"time"
)

// IdempotencyStore remembers request keys that have already produced a result,
// so retried submissions can be answered with the original outcome instead of
// creating duplicates.
type IdempotencyStore interface {
	// Remember stores the result reference for a key with a TTL.
	// Returns false if the key was already present.
	Remember(ctx context.Context, key, resultID string, ttl time.Duration) (bool, error)

	// Lookup returns the stored result reference for a key, or "" if absent.
	Lookup(ctx context.Context, key string) (string, error)

	// Close releases any resources held by the store.
	Close() error
}

// IdempotencyConfig holds configuration for idempotency handling
type IdempotencyConfig struct {
	// TTL is how long a processed key is remembered.
	// Default: 24 hours
	TTL time.Duration

	// Enabled determines whether idempotency checking is enabled
	Enabled bool
}

// DefaultIdempotencyConfig returns the default idempotency configuration
func DefaultIdempotencyConfig() IdempotencyConfig {
	return IdempotencyConfig{
		TTL:     24 * time.Hour,
		Enabled: true,
	}
}
