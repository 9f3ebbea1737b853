package store

import (
	"context"
	"fmt"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"Weave/internal/model"
	"Weave/storage/redis"
)

const (
	ignorePrefix = "notify:ignored"

	// IgnoreSuppressThreshold 连续忽略达到该值后，该渠道停止推送
	IgnoreSuppressThreshold = 3

	// 计数 90 天无变化后自然过期，视为用户态度已过时
	ignoreTTL = 90 * 24 * time.Hour
)

func ignoreKey(userID int64, t model.NotificationType) string {
	return redis.Key(ignorePrefix, string(t), fmt.Sprintf("%d", userID))
}

// GetIgnoreCount 获取渠道连续忽略次数，无记录返回 0
func GetIgnoreCount(ctx context.Context, userID int64, t model.NotificationType) (int, error) {
	count, err := redis.Client().Get(ctx, ignoreKey(userID, t)).Int()
	if err == goredis.Nil {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("failed to get ignore count: %w", err)
	}
	return count, nil
}

// IncrementIgnoreCount 投递后未被点按时累加忽略计数
func IncrementIgnoreCount(ctx context.Context, userID int64, t model.NotificationType) error {
	key := ignoreKey(userID, t)
	pipe := redis.Client().Pipeline()
	pipe.Incr(ctx, key)
	pipe.Expire(ctx, key, ignoreTTL)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to increment ignore count: %w", err)
	}
	return nil
}

// ResetIgnoreCount 用户点按任意该渠道通知后清零
func ResetIgnoreCount(ctx context.Context, userID int64, t model.NotificationType) error {
	if err := redis.Client().Del(ctx, ignoreKey(userID, t)).Err(); err != nil {
		return fmt.Errorf("failed to reset ignore count: %w", err)
	}
	return nil
}

// IsTypeSuppressed 检查渠道是否因连续忽略被抑制。
// 查询失败时降级为不抑制，宁可多发一条也不静默卡死。
func IsTypeSuppressed(ctx context.Context, userID int64, t model.NotificationType) bool {
	count, err := GetIgnoreCount(ctx, userID, t)
	if err != nil {
		return false
	}
	return count >= IgnoreSuppressThreshold
}
