package store

import (
	"context"
	"fmt"
	"time"

	"Weave/storage/redis"
)

const (
	processedPrefix = "notify:processed"

	processedTTL = 48 * time.Hour
)

// TryMarkProcessing 消费者幂等标记，SETNX 成功表示首次处理
func TryMarkProcessing(ctx context.Context, messageID string, ttl time.Duration) (bool, error) {
	if ttl <= 0 {
		ttl = processedTTL
	}
	ok, err := redis.Client().SetNX(ctx, redis.Key(processedPrefix, messageID), "processing", ttl).Result()
	if err != nil {
		return false, fmt.Errorf("failed to mark message as processing: %w", err)
	}
	return ok, nil
}

// UnmarkProcessing 处理失败时清除标记，允许重投
func UnmarkProcessing(ctx context.Context, messageID string) error {
	return redis.Client().Del(ctx, redis.Key(processedPrefix, messageID)).Err()
}

// MarkProcessed 处理成功后落定标记
func MarkProcessed(ctx context.Context, messageID string) error {
	return redis.Client().Set(ctx, redis.Key(processedPrefix, messageID), "completed", processedTTL).Err()
}
