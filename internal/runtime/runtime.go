package runtime

import (
	"context"
	"time"

	"Weave/internal/model"
	"Weave/internal/store"
)

// Notification 一次待投递的通知。ID 由调用方给出且对同一逻辑槽位
// 保持稳定（如「某用户某日的电量打卡」），重复排期先取消旧的再登记新的。
type Notification struct {
	ID           string
	UserID       int64
	Type         model.NotificationType
	Title        string
	Body         string
	Payload      model.TapPayload
	ScheduledFor time.Time
}

// Runtime 平台通知运行时的抽象。生产实现走延迟消息队列，
// 测试用内存替身。
type Runtime interface {
	// Schedule 排期通知。同 ID 的旧排期被替换。
	Schedule(ctx context.Context, n Notification) error
	// Cancel 取消单条在途通知，不存在时静默成功
	Cancel(ctx context.Context, userID int64, t model.NotificationType, notificationID string) error
	// CancelType 取消渠道的全部在途通知，返回取消数量
	CancelType(ctx context.Context, userID int64, t model.NotificationType) (int, error)
	// ListScheduled 按计划时间升序列出渠道在途通知
	ListScheduled(ctx context.Context, userID int64, t model.NotificationType) ([]store.ScheduledEntry, error)
}

// CountScheduledAfter 计划时间晚于 after 的在途数量的便捷统计
func CountScheduledAfter(ctx context.Context, rt Runtime, userID int64, t model.NotificationType, after time.Time) (int, error) {
	entries, err := rt.ListScheduled(ctx, userID, t)
	if err != nil {
		return 0, err
	}
	n := 0
	for _, e := range entries {
		if e.ScheduledFor.After(after) {
			n++
		}
	}
	return n, nil
}
