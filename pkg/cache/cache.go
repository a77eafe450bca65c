package cache

import (
	"context"
	"time"
)

// TokenCache stores short-lived secrets, such as gateway bearer tokens,
// so that several API instances can share them.
type TokenCache interface {
	// Get returns the value and whether it was present and unexpired.
	Get(ctx context.Context, key string) (string, bool, error)
	Set(ctx context.Context, key, value string, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
}
