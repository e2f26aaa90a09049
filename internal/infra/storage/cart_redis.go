package storage

import (
	"context"
	"errors"

	"github.com/redis/go-redis/v9"

	"github.com/DioGolang/GoTrack/internal/application/port/outbound"
	"github.com/DioGolang/GoTrack/internal/domain/entity"
)

// RedisCartStore keeps the cart JSON under cart:<namespace>, without expiry.
type RedisCartStore struct {
	client *redis.Client
	key    string
}

var _ outbound.CartStore = (*RedisCartStore)(nil)

func NewRedisCartStore(client *redis.Client, namespace string) *RedisCartStore {
	if namespace == "" {
		namespace = DefaultCartNamespace
	}
	return &RedisCartStore{client: client, key: "cart:" + namespace}
}

func (s *RedisCartStore) Load(ctx context.Context) (entity.CartSnapshot, error) {
	data, err := s.client.Get(ctx, s.key).Bytes()
	if errors.Is(err, redis.Nil) {
		return entity.CartSnapshot{Items: []entity.CartLine{}}, nil
	}
	if err != nil {
		return entity.CartSnapshot{}, err
	}
	return decodeCart(data)
}

func (s *RedisCartStore) Save(ctx context.Context, snap entity.CartSnapshot) error {
	data, err := encodeCart(snap)
	if err != nil {
		return err
	}
	return s.client.Set(ctx, s.key, data, 0).Err()
}
