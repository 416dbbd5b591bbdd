package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	appErrors "github.com/noah-isme/idp-session-api/pkg/errors"
)

// CacheRepository provides helpers around Redis interactions. It backs two
// concerns: the replay cache that serves retry responses during the reuse
// leeway window, and the role permission cache used by claims assembly.
type CacheRepository struct {
	client *redis.Client
	logger *zap.Logger
}

// NewCacheRepository constructs a cache repository.
func NewCacheRepository(client *redis.Client, logger *zap.Logger) *CacheRepository {
	return &CacheRepository{client: client, logger: logger}
}

// ReplayPayload is what the winning rotation parks for a possible retry:
// the secret it issued and the expiry it computed. Keyed by the digest of
// the superseded secret, so the raw secret never appears in a key.
type ReplayPayload struct {
	RefreshToken  string    `json:"refreshToken"`
	SlidingExpiry time.Time `json:"slidingExpiry"`
}

func replayKey(supersededHash string) string {
	return "replay:" + supersededHash
}

// PutReplay stores the rotation outcome for the leeway window.
func (r *CacheRepository) PutReplay(ctx context.Context, supersededHash string, payload ReplayPayload, ttl time.Duration) error {
	return r.Set(ctx, replayKey(supersededHash), payload, ttl)
}

// GetReplay fetches a parked rotation outcome. Returns ErrCacheMiss when
// the window has elapsed or the entry was evicted.
func (r *CacheRepository) GetReplay(ctx context.Context, supersededHash string) (*ReplayPayload, error) {
	var payload ReplayPayload
	if err := r.Get(ctx, replayKey(supersededHash), &payload); err != nil {
		return nil, err
	}
	return &payload, nil
}

// Get retrieves and unmarshals the cached value into the provided destination.
func (r *CacheRepository) Get(ctx context.Context, key string, dest interface{}) error {
	if r.client == nil {
		return appErrors.ErrCacheMiss
	}

	raw, err := r.client.Get(ctx, key).Bytes()
	if err != nil {
		if err == redis.Nil {
			return appErrors.ErrCacheMiss
		}
		return fmt.Errorf("redis get %s: %w", key, err)
	}

	if err := json.Unmarshal(raw, dest); err != nil {
		return fmt.Errorf("unmarshal cache value for %s: %w", key, err)
	}

	return nil
}

// Set marshals the provided value and stores it with the given TTL.
func (r *CacheRepository) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	if r.client == nil {
		return nil
	}

	payload, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("marshal cache value for %s: %w", key, err)
	}

	if err := r.client.Set(ctx, key, payload, ttl).Err(); err != nil {
		return fmt.Errorf("redis set %s: %w", key, err)
	}

	return nil
}

// Delete removes a single cached entry.
func (r *CacheRepository) Delete(ctx context.Context, key string) error {
	if r.client == nil {
		return nil
	}
	if err := r.client.Del(ctx, key).Err(); err != nil {
		return fmt.Errorf("redis delete %s: %w", key, err)
	}
	return nil
}

// Close releases the underlying Redis connection if present.
func (r *CacheRepository) Close() error {
	if r.client == nil {
		return nil
	}
	return r.client.Close()
}
