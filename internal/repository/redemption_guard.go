package repository

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
)

const redemptionKeyPrefix = "assessment:redeemed:"

// RedisRedemptionGuard claims invitation ids with SETNX so two concurrent submissions for
// the same link cannot both redeem it.
type RedisRedemptionGuard struct {
	client *redis.Client
	ttl    time.Duration
}

func NewRedisRedemptionGuard(client *redis.Client, ttl time.Duration) *RedisRedemptionGuard {
	if ttl <= 0 {
		ttl = 48 * time.Hour
	}
	return &RedisRedemptionGuard{client: client, ttl: ttl}
}

// Claim returns true for exactly one caller per token id until the key expires.
func (g *RedisRedemptionGuard) Claim(ctx context.Context, tokenID string) (bool, error) {
	return g.client.SetNX(ctx, redemptionKeyPrefix+tokenID, time.Now().UTC().Format(time.RFC3339), g.ttl).Result()
}

func (g *RedisRedemptionGuard) IsClaimed(ctx context.Context, tokenID string) (bool, error) {
	n, err := g.client.Exists(ctx, redemptionKeyPrefix+tokenID).Result()
	return n > 0, err
}

// Release drops a claim whose durable insert failed, so a later retry can redeem.
func (g *RedisRedemptionGuard) Release(ctx context.Context, tokenID string) error {
	return g.client.Del(ctx, redemptionKeyPrefix+tokenID).Err()
}
