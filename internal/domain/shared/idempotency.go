package shared

import (
	"context"
	"time"
)

// IdempotencyStore tracks processed request keys to guard against
// duplicate mutations (e.g. a client retrying a payment submission)
type IdempotencyStore interface {
	// MarkProcessed marks a key as processed with a TTL.
	// Returns true if the key was newly marked, false if it was
	// already processed.
	MarkProcessed(ctx context.Context, key string, ttl time.Duration) (bool, error)

	// IsProcessed checks if a key has already been processed
	IsProcessed(ctx context.Context, key string) (bool, error)

	// Release forgets a claimed key so the same request may be
	// retried, used when the guarded mutation fails after the claim
	Release(ctx context.Context, key string) error

	// Close closes the store and releases resources
	Close() error
}
