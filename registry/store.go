package registry

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	ev "github.com/uvacab/ev5validator"
	"github.com/uvacab/ev5validator/pkg/logger"
)

// DefaultRedisKey holds the last good registry snapshot.
const DefaultRedisKey = "ev5:registry:snapshot"

// ErrNoSnapshot is returned by a Store that has nothing saved.
var ErrNoSnapshot = errors.New("no stored registry snapshot")

// Store persists the last good registry fetch.
type Store interface {
	Save(ctx context.Context, codes []ev.RegistryCode) error
	Load(ctx context.Context) ([]ev.RegistryCode, error)
}

// RedisStore keeps the snapshot as one JSON value in Redis.
type RedisStore struct {
	client *redis.Client
	key    string
	ttl    time.Duration
}

// NewRedisStore creates a RedisStore. An empty key uses DefaultRedisKey;
// ttl 0 keeps the value forever.
func NewRedisStore(client *redis.Client, key string, ttl time.Duration) *RedisStore {
	if key == "" {
		key = DefaultRedisKey
	}
	return &RedisStore{client: client, key: key, ttl: ttl}
}

// DialRedis connects to addr and verifies the connection with PING.
func DialRedis(ctx context.Context, addr string) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr: addr,
		DB:   0,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("connect redis %s: %w", addr, err)
	}
	return client, nil
}

// Save stores codes.
func (s *RedisStore) Save(ctx context.Context, codes []ev.RegistryCode) error {
	data, err := json.Marshal(Response{Results: codes})
	if err != nil {
		return err
	}
	return s.client.Set(ctx, s.key, data, s.ttl).Err()
}

// Load returns the stored codes, or ErrNoSnapshot.
func (s *RedisStore) Load(ctx context.Context) ([]ev.RegistryCode, error) {
	val, err := s.client.Get(ctx, s.key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrNoSnapshot
		}
		return nil, err
	}
	var resp Response
	if err := json.Unmarshal(val, &resp); err != nil {
		return nil, fmt.Errorf("decode stored snapshot: %w", err)
	}
	return resp.Results, nil
}

// CachedSource wraps a Source with a Store: a successful fetch is saved, and
// when the source is down the stored snapshot is served instead.
type CachedSource struct {
	source Source
	store  Store

	// stale is set when the last Fetch came from the store.
	stale bool
}

// NewCachedSource creates a CachedSource.
func NewCachedSource(source Source, store Store) *CachedSource {
	return &CachedSource{source: source, store: store}
}

// Ping succeeds if either the source is up or a snapshot is stored.
func (c *CachedSource) Ping(ctx context.Context) error {
	err := c.source.Ping(ctx)
	if err == nil {
		return nil
	}
	if codes, lerr := c.store.Load(ctx); lerr == nil && len(codes) > 0 {
		logger.Warn("%v; using stored snapshot", err)
		return nil
	}
	return err
}

// Fetch fetches from the source, falling back to the store.
func (c *CachedSource) Fetch(ctx context.Context) ([]ev.RegistryCode, error) {
	codes, err := c.source.Fetch(ctx)
	if err == nil && len(codes) > 0 {
		c.stale = false
		if serr := c.store.Save(ctx, codes); serr != nil {
			logger.Warn("failed to store registry snapshot: %v", serr)
		}
		return codes, nil
	}

	stored, lerr := c.store.Load(ctx)
	if lerr != nil || len(stored) == 0 {
		if err == nil {
			// The source answered with nothing and there is no fallback.
			return codes, nil
		}
		return nil, err
	}

	if err == nil {
		err = errors.New("empty response")
	}
	c.stale = true
	logger.Warn("registry fetch failed (%v); using %d stored codes", err, len(stored))
	return stored, nil
}

// Stale reports whether the last Fetch was served from the store.
func (c *CachedSource) Stale() bool {
	return c.stale
}

var _ Source = (*CachedSource)(nil)
