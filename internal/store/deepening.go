package store

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"Weave/internal/model"
	"Weave/storage/redis"
	"Weave/utils"
)

const (
	deepeningPrefix = "notify:deepening"

	// DeepeningDailyLimit 深化提醒每日上限
	DeepeningDailyLimit = 2

	deepeningTTL = 48 * time.Hour
)

func deepeningKey(userID int64, day string) string {
	return redis.Key(deepeningPrefix, day, fmt.Sprintf("%d", userID))
}

// AddDeepeningRecord 登记当日深化提醒，按约定 ID 去重。
// 返回 false 表示该约定当日已有记录。
func AddDeepeningRecord(ctx context.Context, userID int64, rec model.DeepeningRecord, now time.Time) (bool, error) {
	key := deepeningKey(userID, utils.DayKey(now))
	data, err := json.Marshal(rec)
	if err != nil {
		return false, fmt.Errorf("failed to marshal deepening record: %w", err)
	}

	field := fmt.Sprintf("%d", rec.InteractionID)
	added, err := redis.Client().HSetNX(ctx, key, field, string(data)).Result()
	if err != nil {
		return false, fmt.Errorf("failed to add deepening record: %w", err)
	}
	if added {
		redis.Client().Expire(ctx, key, deepeningTTL)
	}
	return added, nil
}

// CountDeepeningToday 当日已登记的深化提醒数量
func CountDeepeningToday(ctx context.Context, userID int64, now time.Time) (int, error) {
	n, err := redis.Client().HLen(ctx, deepeningKey(userID, utils.DayKey(now))).Result()
	if err != nil {
		return 0, fmt.Errorf("failed to count deepening records: %w", err)
	}
	return int(n), nil
}

// HasDeepeningRecord 约定当日是否已有深化提醒
func HasDeepeningRecord(ctx context.Context, userID int64, interactionID int64, now time.Time) (bool, error) {
	key := deepeningKey(userID, utils.DayKey(now))
	ok, err := redis.Client().HExists(ctx, key, fmt.Sprintf("%d", interactionID)).Result()
	if err != nil {
		return false, fmt.Errorf("failed to check deepening record: %w", err)
	}
	return ok, nil
}
