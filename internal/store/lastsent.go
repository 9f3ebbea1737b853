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
	lastSentPrefix = "notify:lastsent"

	lastSentTTL = 30 * 24 * time.Hour
)

func lastSentKey(userID int64, t model.NotificationType) string {
	return redis.Key(lastSentPrefix, string(t), fmt.Sprintf("%d", userID))
}

// MarkSent 记录渠道最近一次投递时间，冷却检查用
func MarkSent(ctx context.Context, userID int64, t model.NotificationType, at time.Time) error {
	key := lastSentKey(userID, t)
	if err := redis.Client().Set(ctx, key, at.Format(time.RFC3339), lastSentTTL).Err(); err != nil {
		return fmt.Errorf("failed to mark notification sent: %w", err)
	}
	return nil
}

// GetLastSent 最近一次投递时间，无记录返回零值
func GetLastSent(ctx context.Context, userID int64, t model.NotificationType) (time.Time, error) {
	raw, err := redis.Client().Get(ctx, lastSentKey(userID, t)).Result()
	if err == goredis.Nil {
		return time.Time{}, nil
	}
	if err != nil {
		return time.Time{}, fmt.Errorf("failed to get last sent time: %w", err)
	}
	at, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		return time.Time{}, fmt.Errorf("failed to parse last sent time: %w", err)
	}
	return at, nil
}

// IsInCooldown 距上次投递不足 cooldown 返回 true。查询失败降级为不在冷却中。
func IsInCooldown(ctx context.Context, userID int64, t model.NotificationType, cooldown time.Duration, now time.Time) bool {
	if cooldown <= 0 {
		return false
	}
	last, err := GetLastSent(ctx, userID, t)
	if err != nil || last.IsZero() {
		return false
	}
	return now.Sub(last) < cooldown
}
