package domain

import "context"

// ReviewRepository owns the persisted review collection.
type ReviewRepository interface {
	// Save persists a new review and returns it with its assigned ID.
	Save(ctx context.Context, in ReviewInput) (Review, error)
	// FindNear returns every review inside Around(lat, lng). Never nil on success.
	FindNear(ctx context.Context, lat, lng float64) ([]Review, error)
}

// Pinger reports whether a backing store is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Cache is a JSON value cache with an integer counter for lookup generations.
type Cache interface {
	Get(ctx context.Context, key string, dst any) (bool, error)
	Set(ctx context.Context, key string, v any, ttlSec int) error
	Incr(ctx context.Context, key string) (int64, error)
}
