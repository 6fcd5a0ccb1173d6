package shared

import (
	"context"
	"time"
)

// IdempotencyStore remembers client-supplied request keys so a retried
// POST returns the document produced by the first attempt.
//
// A key moves through two states: reserved (request in flight) and
// completed (result recorded). Release drops a reservation after a
// failed attempt so the client may retry with the same key.
type IdempotencyStore interface {
	// Reserve claims the key. Returns false if the key is already reserved or completed.
	Reserve(ctx context.Context, key string, ttl time.Duration) (bool, error)

	// Complete records the result (typically a document ID) for a reserved key
	Complete(ctx context.Context, key, result string, ttl time.Duration) error

	// Lookup returns the recorded result. found is false for unknown keys;
	// a reserved key without a result yields found=true and an empty result.
	Lookup(ctx context.Context, key string) (result string, found bool, err error)

	// Release removes a reservation
	Release(ctx context.Context, key string) error

	// Close closes the store and releases resources
	Close() error
}

// IdempotencyConfig holds configuration for request idempotency
type IdempotencyConfig struct {
	// TTL is how long a completed key is remembered. Default: 24 hours
	TTL time.Duration

	// Enabled determines whether Idempotency-Key headers are honoured
	Enabled bool
}

// DefaultIdempotencyConfig returns the default idempotency configuration
func DefaultIdempotencyConfig() IdempotencyConfig {
	return IdempotencyConfig{
		TTL:     24 * time.Hour,
		Enabled: true,
	}
}
