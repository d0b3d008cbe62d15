package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/sinergy/sinergy-web/internal/core/domain"
	"github.com/sinergy/sinergy-web/internal/core/ports"
)

// DefaultRememberTTL is how long a remembered login survives without use.
const DefaultRememberTTL = 30 * 24 * time.Hour

// RememberedStore keeps the durable identity scope server-side.
// Key format: remember:<token> (hash of scope keys)
type RememberedStore struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRememberedStore creates a RememberedStore wrapping the given Redis client.
// A non-positive ttl selects DefaultRememberTTL.
func NewRememberedStore(client *redis.Client, ttl time.Duration) ports.RememberedStore {
	if ttl <= 0 {
		ttl = DefaultRememberTTL
	}
	return &RememberedStore{client: client, ttl: ttl}
}

// Load returns the values stored under token, or empty values when the token
// is unknown or expired.
func (s *RememberedStore) Load(ctx context.Context, token string) (domain.ScopeValues, error) {
	m, err := s.client.HGetAll(ctx, s.key(token)).Result()
	if err != nil {
		return nil, fmt.Errorf("remembered load: %w", err)
	}
	return domain.ScopeValues(m), nil
}

// Save replaces the values under token and refreshes its expiry.
func (s *RememberedStore) Save(ctx context.Context, token string, values domain.ScopeValues) error {
	key := s.key(token)
	_, err := s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Del(ctx, key)
		if len(values) > 0 {
			fields := make(map[string]any, len(values))
			for k, v := range values {
				fields[k] = v
			}
			pipe.HSet(ctx, key, fields)
			pipe.Expire(ctx, key, s.ttl)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("remembered save: %w", err)
	}
	return nil
}

// Delete forgets token.
func (s *RememberedStore) Delete(ctx context.Context, token string) error {
	if err := s.client.Del(ctx, s.key(token)).Err(); err != nil {
		return fmt.Errorf("remembered delete: %w", err)
	}
	return nil
}

func (s *RememberedStore) key(token string) string {
	return "remember:" + token
}
