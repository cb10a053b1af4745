package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/namelens/dentalnames/internal/config"
	"github.com/namelens/dentalnames/internal/core"
)

const (
	defaultRedisPrefix = "dentalnames:"
	windowSegment      = "ratelimit:"
	domainSegment      = "domain:"
	maxWatchRetries    = 5
)

// RedisStore keeps windows and domain results in Redis so several server
// instances share one view of each client.
type RedisStore struct {
	Client *redis.Client
	Prefix string
}

// OpenRedis connects to the configured Redis server.
func OpenRedis(ctx context.Context, cfg config.RedisConfig) (*RedisStore, error) {
	client := redis.NewClient(&redis.Options{
		Addr:         cfg.Address,
		Password:     cfg.Password,
		DB:           cfg.DB,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
		PoolSize:     10,
		MinIdleConns: 2,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("redis ping failed: %w", err)
	}
	return NewRedisStore(client, cfg.Prefix), nil
}

func NewRedisStore(client *redis.Client, prefix string) *RedisStore {
	if strings.TrimSpace(prefix) == "" {
		prefix = defaultRedisPrefix
	}
	return &RedisStore{Client: client, Prefix: prefix}
}

func (r *RedisStore) Close() error {
	if r == nil || r.Client == nil {
		return nil
	}
	return r.Client.Close()
}

// CheckHealth pings the server.
func (r *RedisStore) CheckHealth(ctx context.Context) error {
	if r == nil || r.Client == nil {
		return errors.New("redis store is not open")
	}
	return r.Client.Ping(ctx).Err()
}

func (r *RedisStore) windowKey(key string) string {
	return r.Prefix + windowSegment + key
}

func (r *RedisStore) domainKey(domain string) string {
	return r.Prefix + domainSegment + strings.ToLower(strings.TrimSpace(domain))
}

// UpdateWindow applies fn under WATCH so concurrent writers retry instead of
// overwriting each other.
func (r *RedisStore) UpdateWindow(ctx context.Context, key string, ttl time.Duration, fn func(*core.WindowState) *core.WindowState) error {
	if r == nil || r.Client == nil {
		return errors.New("redis store is not initialized")
	}
	redisKey := r.windowKey(key)

	txf := func(tx *redis.Tx) error {
		current, err := readWindow(ctx, tx, redisKey)
		if err != nil {
			return err
		}
		next := fn(current)
		if next == nil {
			return nil
		}
		payload, err := json.Marshal(next)
		if err != nil {
			return fmt.Errorf("encode rate limit: %w", err)
		}
		// Redis drops the key at its deadline; the extra second keeps a window
		// readable through its last instant so the limiter decides the reset.
		expiry := time.Until(next.LastRequest.Add(ttl)) + time.Second
		if expiry <= time.Second {
			expiry = ttl + time.Second
		}
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, redisKey, payload, expiry)
			return nil
		})
		return err
	}

	for i := 0; i < maxWatchRetries; i++ {
		err := r.Client.Watch(ctx, txf, redisKey)
		if err == nil {
			return nil
		}
		if errors.Is(err, redis.TxFailedErr) {
			continue
		}
		return fmt.Errorf("update rate limit: %w", err)
	}
	return fmt.Errorf("update rate limit: %w", redis.TxFailedErr)
}

func readWindow(ctx context.Context, cmd redis.Cmdable, key string) (*core.WindowState, error) {
	raw, err := cmd.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("fetch rate limit: %w", err)
	}
	var state core.WindowState
	if err := json.Unmarshal(raw, &state); err != nil {
		return nil, fmt.Errorf("decode rate limit: %w", err)
	}
	return &state, nil
}

func (r *RedisStore) ListRateLimits(ctx context.Context, q RateLimitQuery) ([]RateLimitEntry, error) {
	keys, err := r.matchingKeys(ctx, q)
	if err != nil {
		return nil, err
	}

	entries := []RateLimitEntry{}
	for _, redisKey := range keys {
		state, err := readWindow(ctx, r.Client, redisKey)
		if err != nil {
			return nil, err
		}
		if state == nil {
			continue
		}
		entry := RateLimitEntry{Key: strings.TrimPrefix(redisKey, r.windowKey("")), State: *state}
		if ttl, err := r.Client.TTL(ctx, redisKey).Result(); err == nil && ttl > 0 {
			entry.ExpiresAt = time.Now().UTC().Add(ttl)
		}
		entries = append(entries, entry)
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].Key < entries[j].Key })
	return entries, nil
}

func (r *RedisStore) ResetRateLimits(ctx context.Context, q RateLimitQuery) (int64, error) {
	keys, err := r.matchingKeys(ctx, q)
	if err != nil {
		return 0, err
	}
	if len(keys) == 0 {
		return 0, nil
	}
	removed, err := r.Client.Del(ctx, keys...).Result()
	if err != nil {
		return 0, fmt.Errorf("reset rate limits: %w", err)
	}
	return removed, nil
}

func (r *RedisStore) matchingKeys(ctx context.Context, q RateLimitQuery) ([]string, error) {
	if err := q.Validate(); err != nil {
		return nil, err
	}
	if r == nil || r.Client == nil {
		return nil, errors.New("redis store is not initialized")
	}
	if key := strings.TrimSpace(q.Key); key != "" && !q.All {
		return []string{r.windowKey(key)}, nil
	}

	pattern := r.windowKey("*")
	if !q.All {
		pattern = r.windowKey(strings.TrimSpace(q.Prefix)) + "*"
	}

	var keys []string
	iter := r.Client.Scan(ctx, 0, pattern, 100).Iterator()
	for iter.Next(ctx) {
		keys = append(keys, iter.Val())
	}
	if err := iter.Err(); err != nil {
		return nil, fmt.Errorf("scan rate limits: %w", err)
	}
	return keys, nil
}

func (r *RedisStore) GetDomainResult(ctx context.Context, domain string) (*core.DomainResult, error) {
	raw, err := r.Client.Get(ctx, r.domainKey(domain)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("fetch cached domain: %w", err)
	}
	var result core.DomainResult
	if err := json.Unmarshal(raw, &result); err != nil {
		return nil, fmt.Errorf("decode cached domain: %w", err)
	}
	return &result, nil
}

func (r *RedisStore) SetDomainResult(ctx context.Context, result *core.DomainResult, ttl time.Duration) error {
	if result == nil || ttl <= 0 {
		return nil
	}
	payload, err := json.Marshal(result)
	if err != nil {
		return fmt.Errorf("encode cached domain: %w", err)
	}
	if err := r.Client.Set(ctx, r.domainKey(result.Domain), payload, ttl).Err(); err != nil {
		return fmt.Errorf("store cached domain: %w", err)
	}
	return nil
}
