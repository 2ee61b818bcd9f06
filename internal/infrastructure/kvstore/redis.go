package kvstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/communityboard/board-client/internal/core/domain"
	"github.com/communityboard/board-client/internal/core/ports"
)

const changesChannel = "changes"

// DefaultRedisPrefix namespaces the store's keys when no prefix is configured.
const DefaultRedisPrefix = "board:session:"

type changeMessage struct {
	Keys    []string `json:"keys"`
	Deleted bool     `json:"deleted,omitempty"`
}

// RedisStore shares the namespace between every client pointed at the same
// Redis database and prefix. Writes publish their keys on a pub/sub channel.
type RedisStore struct {
	client *redis.Client
	prefix string
	log    zerolog.Logger
}

// NewRedisStore wraps client. An empty prefix uses DefaultRedisPrefix.
func NewRedisStore(client *redis.Client, prefix string, log zerolog.Logger) *RedisStore {
	if prefix == "" {
		prefix = DefaultRedisPrefix
	}
	return &RedisStore{client: client, prefix: prefix, log: log}
}

// Get returns the value under key.
func (r *RedisStore) Get(ctx context.Context, key string) (string, error) {
	v, err := r.client.Get(ctx, r.key(key)).Result()
	if errors.Is(err, redis.Nil) {
		return "", domain.ErrKeyNotFound
	}
	if err != nil {
		return "", fmt.Errorf("redis get %s: %w", key, err)
	}
	return v, nil
}

// Set stores value under key; Redis expires it after ttl.
func (r *RedisStore) Set(ctx context.Context, key, value string, ttl time.Duration) error {
	if ttl < 0 {
		ttl = 0
	}
	if err := r.client.Set(ctx, r.key(key), value, ttl).Err(); err != nil {
		return fmt.Errorf("redis set %s: %w", key, err)
	}
	r.notify(ctx, changeMessage{Keys: []string{key}})
	return nil
}

// SetMany stores all values in one MULTI/EXEC transaction.
func (r *RedisStore) SetMany(ctx context.Context, values map[string]string) error {
	keys := make([]string, 0, len(values))
	for k := range values {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	_, err := r.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		for _, k := range keys {
			pipe.Set(ctx, r.key(k), values[k], 0)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("redis set many: %w", err)
	}
	r.notify(ctx, changeMessage{Keys: keys})
	return nil
}

// Delete removes keys with a single DEL.
func (r *RedisStore) Delete(ctx context.Context, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}
	full := make([]string, len(keys))
	for i, k := range keys {
		full[i] = r.key(k)
	}
	if err := r.client.Del(ctx, full...).Err(); err != nil {
		return fmt.Errorf("redis del: %w", err)
	}
	r.notify(ctx, changeMessage{Keys: keys, Deleted: true})
	return nil
}

// Subscribe streams change notifications published by every sharer.
func (r *RedisStore) Subscribe(ctx context.Context) (<-chan ports.ChangeEvent, error) {
	sub := r.client.Subscribe(ctx, r.key(changesChannel))
	if _, err := sub.Receive(ctx); err != nil {
		_ = sub.Close()
		return nil, fmt.Errorf("redis subscribe: %w", err)
	}

	out := make(chan ports.ChangeEvent, subscriberBuffer)
	go func() {
		defer close(out)
		defer sub.Close()

		msgs := sub.Channel()
		for {
			select {
			case <-ctx.Done():
				return
			case msg, ok := <-msgs:
				if !ok {
					return
				}
				var change changeMessage
				if err := json.Unmarshal([]byte(msg.Payload), &change); err != nil {
					r.log.Warn().Err(err).Msg("malformed change notification")
					continue
				}
				select {
				case out <- ports.ChangeEvent{Keys: change.Keys, Deleted: change.Deleted}:
				default:
				}
			}
		}
	}()
	return out, nil
}

func (r *RedisStore) notify(ctx context.Context, change changeMessage) {
	payload, err := json.Marshal(change)
	if err != nil {
		return
	}
	if err := r.client.Publish(ctx, r.key(changesChannel), payload).Err(); err != nil {
		r.log.Warn().Err(err).Msg("publish change notification")
	}
}

func (r *RedisStore) key(k string) string {
	return r.prefix + k
}
