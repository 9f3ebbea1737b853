package store

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"Weave/internal/model"
	"Weave/storage/redis"
)

// 待进入晚间摘要的事件建议批次。事件不直接推送，积攒到摘要里一次性呈现。
const pendingEventsPrefix = "notify:pending_events"

const pendingEventsTTL = 7 * 24 * time.Hour

func pendingEventsKey(userID int64) string {
	return redis.Key(pendingEventsPrefix, fmt.Sprintf("%d", userID))
}

// AddPendingEvent 加入批次，按 EventID 去重。返回 false 表示已存在。
func AddPendingEvent(ctx context.Context, userID int64, ev model.PendingEvent) (bool, error) {
	data, err := json.Marshal(ev)
	if err != nil {
		return false, fmt.Errorf("failed to marshal pending event: %w", err)
	}

	key := pendingEventsKey(userID)
	added, err := redis.Client().HSetNX(ctx, key, ev.EventID, string(data)).Result()
	if err != nil {
		return false, fmt.Errorf("failed to add pending event: %w", err)
	}
	if added {
		redis.Client().Expire(ctx, key, pendingEventsTTL)
	}
	return added, nil
}

// ListPendingEvents 列出批次中的全部事件
func ListPendingEvents(ctx context.Context, userID int64) ([]model.PendingEvent, error) {
	raw, err := redis.Client().HGetAll(ctx, pendingEventsKey(userID)).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to list pending events: %w", err)
	}

	events := make([]model.PendingEvent, 0, len(raw))
	for _, v := range raw {
		var ev model.PendingEvent
		if err := json.Unmarshal([]byte(v), &ev); err != nil {
			continue // 损坏的条目直接跳过
		}
		events = append(events, ev)
	}
	return events, nil
}

// DrainPendingEvents 取出并清空批次，摘要生成时调用
func DrainPendingEvents(ctx context.Context, userID int64) ([]model.PendingEvent, error) {
	events, err := ListPendingEvents(ctx, userID)
	if err != nil {
		return nil, err
	}
	if len(events) == 0 {
		return nil, nil
	}
	if err := redis.Client().Del(ctx, pendingEventsKey(userID)).Err(); err != nil {
		return nil, fmt.Errorf("failed to drain pending events: %w", err)
	}
	return events, nil
}
