package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/trogers1052/finance-eye/internal/models"
)

const defaultRedisPrefix = "financeeye:series:"

// RedisSeriesStore shares cached series between instances.
// Expiry is delegated to Redis via the key TTL.
type RedisSeriesStore struct {
	client redis.Cmdable
	ttl    time.Duration
	prefix string
}

// NewRedisSeriesStore creates a store on top of an existing client
func NewRedisSeriesStore(client redis.Cmdable, ttl time.Duration) *RedisSeriesStore {
	return &RedisSeriesStore{
		client: client,
		ttl:    ttl,
		prefix: defaultRedisPrefix,
	}
}

// NewRedisClient connects to Redis and verifies the connection
func NewRedisClient(ctx context.Context, addr, password string, db int) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to ping redis at %s: %w", addr, err)
	}
	return client, nil
}

func (s *RedisSeriesStore) Get(ctx context.Context, key Key) (*models.PriceSeries, bool, error) {
	data, err := s.client.Get(ctx, s.prefix+key.String()).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("failed to read cached series %s: %w", key, err)
	}

	var series models.PriceSeries
	if err := json.Unmarshal(data, &series); err != nil {
		return nil, false, fmt.Errorf("failed to decode cached series %s: %w", key, err)
	}
	return &series, true, nil
}

func (s *RedisSeriesStore) Set(ctx context.Context, key Key, series *models.PriceSeries) error {
	data, err := json.Marshal(series)
	if err != nil {
		return fmt.Errorf("failed to encode series %s: %w", key, err)
	}
	if err := s.client.Set(ctx, s.prefix+key.String(), data, s.ttl).Err(); err != nil {
		return fmt.Errorf("failed to write cached series %s: %w", key, err)
	}
	return nil
}

func (s *RedisSeriesStore) DeleteSymbol(ctx context.Context, symbol string) (int, error) {
	pattern := s.prefix + escapeGlob(SymbolPrefix(symbol)) + "*"

	var keys []string
	iter := s.client.Scan(ctx, 0, pattern, 100).Iterator()
	for iter.Next(ctx) {
		keys = append(keys, iter.Val())
	}
	if err := iter.Err(); err != nil {
		return 0, fmt.Errorf("failed to scan cached series for %s: %w", symbol, err)
	}
	if len(keys) == 0 {
		return 0, nil
	}

	n, err := s.client.Del(ctx, keys...).Result()
	if err != nil {
		return 0, fmt.Errorf("failed to delete cached series for %s: %w", symbol, err)
	}
	return int(n), nil
}

func escapeGlob(s string) string {
	r := strings.NewReplacer(`\`, `\\`, "*", `\*`, "?", `\?`, "[", `\[`, "]", `\]`)
	return r.Replace(s)
}
