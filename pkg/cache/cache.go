// Package cache provides response caching for generation calls, with
// in-memory and Redis backends. Cached values are keyed by a digest of
// the provider, model, conversation and generation options, so identical
// calls are served without hitting the provider.
package cache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"time"
)

///////////////////////////////////////////////////////////////////////////////
// TYPES

// Cache is the interface for response cache backends. Get returns
// (nil, nil) on a miss.
type Cache interface {
	// Get retrieves the value for a key, or nil if not present
	Get(ctx context.Context, key string) ([]byte, error)

	// Set stores a value under a key with an optional expiry.
	// A zero ttl stores the value without expiry.
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error

	// Delete removes a key
	Delete(ctx context.Context, key string) error
}

///////////////////////////////////////////////////////////////////////////////
// PUBLIC METHODS

// Key produces a deterministic cache key from the given parts. Each part
// is JSON-marshalled into a SHA-256 digest; parts that cannot be
// marshalled contribute their type only.
func Key(parts ...any) string {
	hash := sha256.New()
	for _, part := range parts {
		if data, err := json.Marshal(part); err == nil {
			hash.Write(data)
		} else {
			fmt.Fprintf(hash, "%T", part)
		}
		hash.Write([]byte{0})
	}
	return hex.EncodeToString(hash.Sum(nil))
}
