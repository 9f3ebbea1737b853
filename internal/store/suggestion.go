package store

import (
	"context"
	"fmt"
	"time"

	"Weave/storage/redis"
	"Weave/utils"
)

const (
	suggestDailyPrefix  = "notify:suggest:daily"
	suggestFriendPrefix = "notify:suggest:friend"

	suggestDailyTTL = 48 * time.Hour
	// SuggestFriendDedupeTTL 同一朋友 24 小时内不重复建议
	SuggestFriendDedupeTTL = 24 * time.Hour
)

// userID 统一放在 key 末尾，ClearUserState 靠这个约定做前缀扫描

func suggestDailyKey(userID int64, day string) string {
	return redis.Key(suggestDailyPrefix, day, fmt.Sprintf("%d", userID))
}

func suggestFriendKey(userID, friendID int64) string {
	return redis.Key(suggestFriendPrefix, fmt.Sprintf("%d", friendID), fmt.Sprintf("%d", userID))
}

// RecordDailySuggestion 登记当日已排期的建议 ID
func RecordDailySuggestion(ctx context.Context, userID int64, suggestionID string, now time.Time) error {
	key := suggestDailyKey(userID, utils.DayKey(now))
	pipe := redis.Client().Pipeline()
	pipe.SAdd(ctx, key, suggestionID)
	pipe.Expire(ctx, key, suggestDailyTTL)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to record daily suggestion: %w", err)
	}
	return nil
}

// CountDailySuggestions 当日已排期的建议数量
func CountDailySuggestions(ctx context.Context, userID int64, now time.Time) (int, error) {
	n, err := redis.Client().SCard(ctx, suggestDailyKey(userID, utils.DayKey(now))).Result()
	if err != nil {
		return 0, fmt.Errorf("failed to count daily suggestions: %w", err)
	}
	return int(n), nil
}

// MarkFriendSuggested 标记朋友已被建议，24 小时内去重
func MarkFriendSuggested(ctx context.Context, userID, friendID int64) error {
	key := suggestFriendKey(userID, friendID)
	if err := redis.Client().Set(ctx, key, "1", SuggestFriendDedupeTTL).Err(); err != nil {
		return fmt.Errorf("failed to mark friend suggested: %w", err)
	}
	return nil
}

// WasFriendRecentlySuggested 朋友是否在去重窗口内被建议过。查询失败降级为未建议。
func WasFriendRecentlySuggested(ctx context.Context, userID, friendID int64) bool {
	n, err := redis.Client().Exists(ctx, suggestFriendKey(userID, friendID)).Result()
	if err != nil {
		return false
	}
	return n > 0
}
