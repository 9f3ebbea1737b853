package store

import (
	"context"
	"fmt"

	"Weave/storage/redis"
)

// ClearUserState 清空用户的全部通知状态（预算、忽略计数、在途登记等）。
// 依赖 userID 位于 key 末尾的统一约定做模式扫描。
func ClearUserState(ctx context.Context, userID int64) error {
	pattern := redis.Key("notify") + ":*:" + fmt.Sprintf("%d", userID)

	iter := redis.Client().Scan(ctx, 0, pattern, 100).Iterator()
	for iter.Next(ctx) {
		if err := redis.Client().Del(ctx, iter.Val()).Err(); err != nil {
			return fmt.Errorf("failed to delete notification state key: %w", err)
		}
	}
	if err := iter.Err(); err != nil {
		return fmt.Errorf("failed to scan notification state keys: %w", err)
	}
	return nil
}
