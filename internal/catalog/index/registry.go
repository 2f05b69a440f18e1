package index

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	registryKeyPrefix  = "catalog:index:product:"
	healthCheckTimeout = 2 * time.Second
)

// RedisRegistry remembers which index documents were written for a product so
// they can be found again on delete. The vector store itself only deletes by
// document id.
type RedisRegistry struct {
	client *redis.Client
}

func NewRedisRegistry(client *redis.Client) *RedisRegistry {
	return &RedisRegistry{client: client}
}

func registryKey(productID int64) string {
	return fmt.Sprintf("%s%d", registryKeyPrefix, productID)
}

func (r *RedisRegistry) Add(ctx context.Context, productID int64, documentID string) error {
	if err := r.client.SAdd(ctx, registryKey(productID), documentID).Err(); err != nil {
		return fmt.Errorf("register document %s for product %d: %w", documentID, productID, err)
	}
	return nil
}

func (r *RedisRegistry) Documents(ctx context.Context, productID int64) ([]string, error) {
	ids, err := r.client.SMembers(ctx, registryKey(productID)).Result()
	if err != nil {
		return nil, fmt.Errorf("list documents for product %d: %w", productID, err)
	}
	return ids, nil
}

func (r *RedisRegistry) Remove(ctx context.Context, productID int64, documentID string) error {
	if err := r.client.SRem(ctx, registryKey(productID), documentID).Err(); err != nil {
		return fmt.Errorf("unregister document %s for product %d: %w", documentID, productID, err)
	}
	return nil
}

func (r *RedisRegistry) Health() error {
	ctx, cancel := context.WithTimeout(context.Background(), healthCheckTimeout)
	defer cancel()
	return r.client.Ping(ctx).Err()
}
