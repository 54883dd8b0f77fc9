package geo

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/example/ride-signal/internal/models"
)

// RedisMirror keeps a best-effort copy of driver positions in a Redis GEO key
// so external consumers can query them without talking to this process. The
// relay never waits on it and never treats its errors as fatal.
type RedisMirror struct {
	client  *redis.Client
	key     string
	timeout time.Duration
}

func NewRedisMirror(addr, password, key string) *RedisMirror {
	c := redis.NewClient(&redis.Options{Addr: addr, Password: password})
	return &RedisMirror{client: c, key: key, timeout: 2 * time.Second}
}

func (m *RedisMirror) Upsert(id string, loc models.Coordinate) error {
	ctx, cancel := context.WithTimeout(context.Background(), m.timeout)
	defer cancel()
	if _, err := m.client.GeoAdd(ctx, m.key, &redis.GeoLocation{
		Longitude: loc.Longitude,
		Latitude:  loc.Latitude,
		Name:      id,
	}).Result(); err != nil {
		return err
	}
	return m.client.HSet(ctx, metaKey(id), map[string]interface{}{
		"updated": time.Now().Format(time.RFC3339),
	}).Err()
}

func (m *RedisMirror) Remove(id string) error {
	ctx, cancel := context.WithTimeout(context.Background(), m.timeout)
	defer cancel()
	if err := m.client.ZRem(ctx, m.key, id).Err(); err != nil {
		return err
	}
	return m.client.Del(ctx, metaKey(id)).Err()
}

func (m *RedisMirror) Close() error { return m.client.Close() }

func metaKey(id string) string { return "driver:meta:" + id }
