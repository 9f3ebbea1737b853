package store

import (
	"context"
	"fmt"
	"time"

	"Weave/storage/redis"
	"Weave/utils"
)

const throttlePrefix = "notify:throttle:foreground"

func throttleKey(userID int64) string {
	return redis.Key(throttlePrefix, fmt.Sprintf("%d", userID))
}

// TryMarkForegroundPass 前台全量检查节流。SETNX 成功表示允许本次执行，
// 失败且标记仍在同一天内表示应跳过。跨天后即使标记未过期也放行。
func TryMarkForegroundPass(ctx context.Context, userID int64, window time.Duration, now time.Time) (bool, error) {
	key := throttleKey(userID)
	ok, err := redis.Client().SetNX(ctx, key, utils.DayKey(now), window).Result()
	if err != nil {
		return false, fmt.Errorf("failed to mark foreground pass: %w", err)
	}
	if ok {
		return true, nil
	}

	day, err := redis.Client().Get(ctx, key).Result()
	if err != nil {
		return true, nil // 标记恰好过期或查询失败，放行
	}
	if day != utils.DayKey(now) {
		// 跨天了，刷新标记并放行
		if err := redis.Client().Set(ctx, key, utils.DayKey(now), window).Err(); err != nil {
			return true, nil
		}
		return true, nil
	}
	return false, nil
}
