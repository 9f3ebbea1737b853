package runtime

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"Weave/internal/model"
	"Weave/internal/store"
	"Weave/pkg/logger"
	"Weave/pkg/metrics"
	"Weave/storage/mq"
)

// MQRuntime 生产环境运行时：通过延迟交换机投递，
// 取消靠移除 Redis 在途登记实现（消费者投递前校验）。
type MQRuntime struct{}

func NewMQRuntime() *MQRuntime {
	return &MQRuntime{}
}

func (r *MQRuntime) Schedule(ctx context.Context, n Notification) error {
	if n.ScheduledFor.IsZero() {
		return fmt.Errorf("notification %s has no scheduled time", n.ID)
	}

	// 同一逻辑槽位重复排期：重新登记会覆盖计划时间，
	// 旧时刻的延迟消息到期后因时间不符而被丢弃
	if _, err := store.UnregisterLive(ctx, n.UserID, n.Type, n.ID); err != nil {
		return err
	}

	payload := ""
	if n.Payload != nil {
		encoded, err := model.EncodeTapPayload(n.Payload)
		if err != nil {
			return fmt.Errorf("failed to encode tap payload: %w", err)
		}
		payload = encoded
	}

	now := time.Now()
	delay := n.ScheduledFor.Sub(now)
	if delay < 0 {
		delay = 0
	}

	msg := model.DeliveryMessage{
		MessageID:      uuid.NewString(),
		NotificationID: n.ID,
		UserID:         n.UserID,
		Type:           n.Type,
		Title:          n.Title,
		Body:           n.Body,
		Payload:        payload,
		DelaySeconds:   int64(delay.Seconds()),
		ScheduledFor:   n.ScheduledFor,
		CreatedAt:      now,
	}

	routingKey := fmt.Sprintf("%s.%s", mq.DeliverRoutingPrefix, n.Type)
	if err := mq.PublishDelayedMessage(mq.DelayedExchange, routingKey, delay, msg); err != nil {
		return fmt.Errorf("failed to publish delivery message: %w", err)
	}

	if err := store.RegisterLive(ctx, n.UserID, n.Type, n.ID, n.ScheduledFor); err != nil {
		return err
	}

	metrics.GetMetrics().RecordScheduled(ctx, string(n.Type))
	logger.Logger.Info("Notification scheduled",
		zap.String("notification_id", n.ID),
		zap.String("type", string(n.Type)),
		zap.Int64("user_id", n.UserID),
		zap.Time("scheduled_for", n.ScheduledFor),
	)
	return nil
}

func (r *MQRuntime) Cancel(ctx context.Context, userID int64, t model.NotificationType, notificationID string) error {
	removed, err := store.UnregisterLive(ctx, userID, t, notificationID)
	if err != nil {
		return err
	}
	if removed {
		metrics.GetMetrics().RecordCancelled(ctx, string(t), 1)
	}
	return nil
}

func (r *MQRuntime) CancelType(ctx context.Context, userID int64, t model.NotificationType) (int, error) {
	ids, err := store.ClearLive(ctx, userID, t)
	if err != nil {
		return 0, err
	}
	metrics.GetMetrics().RecordCancelled(ctx, string(t), int64(len(ids)))
	return len(ids), nil
}

func (r *MQRuntime) ListScheduled(ctx context.Context, userID int64, t model.NotificationType) ([]store.ScheduledEntry, error) {
	return store.ListLive(ctx, userID, t)
}
