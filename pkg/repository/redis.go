package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"

	"github.com/example/storefront/pkg/config"
	"github.com/example/storefront/pkg/models"
	"github.com/go-redis/redis/v8"
)

// RedisCartRepository stores each cart as a hash at cart:<userID>, one field
// per product id holding the JSON line.
type RedisCartRepository struct {
	client *redis.Client
	config *config.RedisConfig
}

func NewRedisCartRepository(cfg *config.RedisConfig) *RedisCartRepository {
	return &RedisCartRepository{
		client: redis.NewClient(&redis.Options{
			Addr:     cfg.Addr,
			Password: cfg.Password,
			DB:       cfg.DB,
			PoolSize: cfg.PoolSize,
		}),
		config: cfg,
	}
}

func (r *RedisCartRepository) Ping(ctx context.Context) error {
	return r.client.Ping(ctx).Err()
}

func (r *RedisCartRepository) Close() error {
	return r.client.Close()
}

func cartKey(userID string) string {
	return fmt.Sprintf("cart:%s", userID)
}

// Lines returns the cart ordered by when each line was first added.
func (r *RedisCartRepository) Lines(ctx context.Context, userID string) ([]models.CartLine, error) {
	fields, err := r.client.HGetAll(ctx, cartKey(userID)).Result()
	if err != nil {
		return nil, err
	}

	lines := make([]models.CartLine, 0, len(fields))
	for productID, raw := range fields {
		var line models.CartLine
		if err := json.Unmarshal([]byte(raw), &line); err != nil {
			return nil, fmt.Errorf("corrupt cart line %s: %w", productID, err)
		}
		lines = append(lines, line)
	}
	sort.Slice(lines, func(i, j int) bool {
		if !lines[i].AddedAt.Equal(lines[j].AddedAt) {
			return lines[i].AddedAt.Before(lines[j].AddedAt)
		}
		return lines[i].ProductID < lines[j].ProductID
	})
	return lines, nil
}

func (r *RedisCartRepository) Get(ctx context.Context, userID, productID string) (models.CartLine, bool, error) {
	raw, err := r.client.HGet(ctx, cartKey(userID), productID).Result()
	if err == redis.Nil {
		return models.CartLine{}, false, nil
	}
	if err != nil {
		return models.CartLine{}, false, err
	}
	var line models.CartLine
	if err := json.Unmarshal([]byte(raw), &line); err != nil {
		return models.CartLine{}, false, err
	}
	return line, true, nil
}

func (r *RedisCartRepository) Put(ctx context.Context, userID string, line models.CartLine) error {
	data, err := json.Marshal(line)
	if err != nil {
		return err
	}
	key := cartKey(userID)
	pipe := r.client.TxPipeline()
	pipe.HSet(ctx, key, line.ProductID, data)
	if r.config.CartTTL > 0 {
		pipe.Expire(ctx, key, r.config.CartTTL)
	}
	_, err = pipe.Exec(ctx)
	return err
}

func (r *RedisCartRepository) Delete(ctx context.Context, userID, productID string) error {
	return r.client.HDel(ctx, cartKey(userID), productID).Err()
}

func (r *RedisCartRepository) Clear(ctx context.Context, userID string) error {
	return r.client.Del(ctx, cartKey(userID)).Err()
}
