package store

import (
	"context"
	"fmt"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"Weave/internal/model"
	"Weave/storage/redis"
)

// 在途通知集合。member 是通知 ID，score 是计划投递时间（unix 秒）。
// 延迟消息一旦发出便无法从交换机撤回，取消通过把 ID 移出集合实现，
// 消费者投递前检查 ID 是否仍在途，不在即丢弃。
const livePrefix = "notify:live"

func liveKey(userID int64, t model.NotificationType) string {
	return redis.Key(livePrefix, string(t), fmt.Sprintf("%d", userID))
}

// RegisterLive 登记在途通知
func RegisterLive(ctx context.Context, userID int64, t model.NotificationType, notificationID string, scheduledFor time.Time) error {
	key := liveKey(userID, t)
	pipe := redis.Client().Pipeline()
	pipe.ZAdd(ctx, key, goredis.Z{Score: float64(scheduledFor.Unix()), Member: notificationID})
	pipe.Expire(ctx, key, 60*24*time.Hour)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to register live notification: %w", err)
	}
	return nil
}

// UnregisterLive 移除在途登记，返回是否确有移除
func UnregisterLive(ctx context.Context, userID int64, t model.NotificationType, notificationID string) (bool, error) {
	removed, err := redis.Client().ZRem(ctx, liveKey(userID, t), notificationID).Result()
	if err != nil {
		return false, fmt.Errorf("failed to unregister live notification: %w", err)
	}
	return removed > 0, nil
}

// IsLive 投递前检查通知是否仍在途
func IsLive(ctx context.Context, userID int64, t model.NotificationType, notificationID string) (bool, error) {
	_, err := redis.Client().ZScore(ctx, liveKey(userID, t), notificationID).Result()
	if err == goredis.Nil {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to check live notification: %w", err)
	}
	return true, nil
}

// IsLiveAt 投递前检查通知是否仍按给定时间在途。
// 同一 ID 改期后 score 被覆盖，旧时刻的延迟消息在这里被识别为过期。
func IsLiveAt(ctx context.Context, userID int64, t model.NotificationType, notificationID string, scheduledFor time.Time) (bool, error) {
	score, err := redis.Client().ZScore(ctx, liveKey(userID, t), notificationID).Result()
	if err == goredis.Nil {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to check live notification: %w", err)
	}
	return int64(score) == scheduledFor.Unix(), nil
}

// ScheduledEntry 在途通知条目
type ScheduledEntry struct {
	NotificationID string
	ScheduledFor   time.Time
}

// ListLive 按计划时间升序列出渠道的在途通知
func ListLive(ctx context.Context, userID int64, t model.NotificationType) ([]ScheduledEntry, error) {
	zs, err := redis.Client().ZRangeWithScores(ctx, liveKey(userID, t), 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to list live notifications: %w", err)
	}
	entries := make([]ScheduledEntry, 0, len(zs))
	for _, z := range zs {
		id, ok := z.Member.(string)
		if !ok {
			continue
		}
		entries = append(entries, ScheduledEntry{
			NotificationID: id,
			ScheduledFor:   time.Unix(int64(z.Score), 0),
		})
	}
	return entries, nil
}

// CountLiveAfter 计划时间晚于 after 的在途数量
func CountLiveAfter(ctx context.Context, userID int64, t model.NotificationType, after time.Time) (int, error) {
	n, err := redis.Client().ZCount(ctx, liveKey(userID, t),
		fmt.Sprintf("(%d", after.Unix()), "+inf").Result()
	if err != nil {
		return 0, fmt.Errorf("failed to count live notifications: %w", err)
	}
	return int(n), nil
}

// ClearLive 清空渠道的全部在途登记，返回移除的 ID 列表
func ClearLive(ctx context.Context, userID int64, t model.NotificationType) ([]string, error) {
	key := liveKey(userID, t)
	ids, err := redis.Client().ZRange(ctx, key, 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to list live notifications for clear: %w", err)
	}
	if len(ids) == 0 {
		return nil, nil
	}
	if err := redis.Client().Del(ctx, key).Err(); err != nil {
		return nil, fmt.Errorf("failed to clear live notifications: %w", err)
	}
	return ids, nil
}
