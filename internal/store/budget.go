package store

import (
	"context"
	"fmt"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"Weave/storage/redis"
	"Weave/utils"
)

const (
	budgetPrefix = "notify:budget"

	budgetTTL = 48 * time.Hour
)

// budgetScript 原子地检查并占用预算额度。
// KEYS[1] 当日计数 key，ARGV[1] 上限，ARGV[2] 消耗额度，ARGV[3] TTL 秒。
// 返回 1 表示占用成功，0 表示预算已满。
var budgetScript = goredis.NewScript(`
local used = tonumber(redis.call('GET', KEYS[1]) or '0')
local limit = tonumber(ARGV[1])
local cost = tonumber(ARGV[2])
if used + cost > limit then
	return 0
end
redis.call('INCRBY', KEYS[1], cost)
redis.call('EXPIRE', KEYS[1], ARGV[3])
return 1
`)

func budgetKey(userID int64, day string) string {
	return redis.Key(budgetPrefix, day, fmt.Sprintf("%d", userID))
}

// CheckAndConsumeBudget 检查当日预算并原子占用额度。
// key 按日期分片，自然随日期翻转归零。
func CheckAndConsumeBudget(ctx context.Context, userID int64, limit, cost int, now time.Time) (bool, error) {
	if cost <= 0 {
		return true, nil // 不计预算的渠道直接放行
	}
	if limit <= 0 {
		return false, nil
	}

	key := budgetKey(userID, utils.DayKey(now))
	ok, err := budgetScript.Run(ctx, redis.Client(), []string{key},
		limit, cost, int(budgetTTL.Seconds())).Int()
	if err != nil {
		return false, fmt.Errorf("failed to consume notification budget: %w", err)
	}
	return ok == 1, nil
}

// GetBudgetUsed 获取当日已用预算，key 不存在返回 0
func GetBudgetUsed(ctx context.Context, userID int64, now time.Time) (int, error) {
	key := budgetKey(userID, utils.DayKey(now))
	used, err := redis.Client().Get(ctx, key).Int()
	if err == goredis.Nil {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("failed to get budget usage: %w", err)
	}
	return used, nil
}

// RefundBudget 投递最终未发生时退还额度（例如取消已排期的通知）
func RefundBudget(ctx context.Context, userID int64, cost int, now time.Time) error {
	if cost <= 0 {
		return nil
	}
	key := budgetKey(userID, utils.DayKey(now))
	if err := redis.Client().DecrBy(ctx, key, int64(cost)).Err(); err != nil {
		return fmt.Errorf("failed to refund budget: %w", err)
	}
	return nil
}

