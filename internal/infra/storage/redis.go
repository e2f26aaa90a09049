// Package storage holds the persistence adapters: cart stores on disk and in
// Redis, and the relay's Redis-backed rider location index.
package storage

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"
)

func NewRedisClient(ctx context.Context, host, port string) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{Addr: fmt.Sprintf("%s:%s", host, port)})
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("redis %s:%s unreachable: %w", host, port, err)
	}
	return client, nil
}
