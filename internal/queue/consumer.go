package queue

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"Weave/config"
	"Weave/internal/model"
	"Weave/internal/orchestrate"
	"Weave/internal/repository"
	"Weave/internal/store"
	weaveerrors "Weave/pkg/errors"
	"Weave/pkg/logger"
	"Weave/pkg/metrics"
	"Weave/pkg/push"
	"Weave/storage/mq"
)

// StartDeliveryConsumer 投递消费者：延迟消息到期后真正把通知
// 推到用户设备。阻塞运行，连接断开后返回。
func StartDeliveryConsumer(ctx context.Context) error {
	return mq.Consume(mq.ConsumeOptions{
		Queue:         mq.DeliverQueue,
		ConsumerTag:   "weave-delivery",
		PrefetchCount: config.Cfg.WorkerPrefetch,
		Handler: func(body []byte) error {
			return handleDelivery(ctx, body)
		},
	})
}

func handleDelivery(ctx context.Context, body []byte) error {
	var msg model.DeliveryMessage
	if err := json.Unmarshal(body, &msg); err != nil {
		return &weaveerrors.SkipMessageError{Reason: "malformed delivery message"}
	}

	// 消息级幂等：同一条消息只处理一次
	first, err := store.TryMarkProcessing(ctx, msg.MessageID, 0)
	if err != nil {
		return err
	}
	if !first {
		return &weaveerrors.SkipMessageError{Reason: "duplicate message"}
	}

	// 在途校验：被取消的通知到期后静默丢弃。
	// 改期会覆盖同一 ID 的登记时间，旧时刻的消息同样在这里被丢弃。
	live, err := store.IsLiveAt(ctx, msg.UserID, msg.Type, msg.NotificationID, msg.ScheduledFor)
	if err != nil {
		store.UnmarkProcessing(ctx, msg.MessageID)
		return err
	}
	if !live {
		_ = store.MarkProcessed(ctx, msg.MessageID)
		return &weaveerrors.SkipMessageError{Reason: "notification cancelled"}
	}

	user, err := repository.GetUserByID(ctx, msg.UserID)
	if err != nil {
		store.UnmarkProcessing(ctx, msg.MessageID)
		return err
	}
	if user.PushTarget == "" {
		_ = store.MarkProcessed(ctx, msg.MessageID)
		return &weaveerrors.SkipMessageError{Reason: "no push target"}
	}

	if _, err := push.Send(ctx, user.PushTarget, msg.Title, msg.Body, msg.Payload); err != nil {
		store.UnmarkProcessing(ctx, msg.MessageID)
		return fmt.Errorf("failed to push notification: %w", err)
	}

	// 投递完成：出在途、记时间、累计连续忽略（点按时清零）
	if _, err := store.UnregisterLive(ctx, msg.UserID, msg.Type, msg.NotificationID); err != nil {
		logger.Logger.Warn("Failed to unregister delivered notification", zap.Error(err))
	}
	if err := store.MarkSent(ctx, msg.UserID, msg.Type, time.Now()); err != nil {
		logger.Logger.Warn("Failed to mark notification sent", zap.Error(err))
	}
	if err := store.IncrementIgnoreCount(ctx, msg.UserID, msg.Type); err != nil {
		logger.Logger.Warn("Failed to increment ignore count", zap.Error(err))
	}

	metrics.GetMetrics().RecordDelivered(ctx, string(msg.Type), config.Cfg.PushProvider)

	logger.Logger.Info("Notification delivered",
		zap.String("notification_id", msg.NotificationID),
		zap.String("type", string(msg.Type)),
		zap.Int64("user_id", msg.UserID),
	)
	return store.MarkProcessed(ctx, msg.MessageID)
}

// StartInteractionConsumer 约定事件消费者：生命周期事件驱动
// 提醒重排、取消与深化跟进。
func StartInteractionConsumer(ctx context.Context, orch *orchestrate.Orchestrator) error {
	return mq.Consume(mq.ConsumeOptions{
		Queue:         mq.InteractionEventQueue,
		ConsumerTag:   "weave-interaction",
		PrefetchCount: config.Cfg.WorkerPrefetch,
		Handler: func(body []byte) error {
			return handleInteractionEvent(ctx, orch, body)
		},
	})
}

func handleInteractionEvent(ctx context.Context, orch *orchestrate.Orchestrator, body []byte) error {
	var msg model.InteractionEventMessage
	if err := json.Unmarshal(body, &msg); err != nil {
		return &weaveerrors.SkipMessageError{Reason: "malformed interaction event"}
	}

	first, err := store.TryMarkProcessing(ctx, msg.MessageID, 0)
	if err != nil {
		return err
	}
	if !first {
		return &weaveerrors.SkipMessageError{Reason: "duplicate message"}
	}

	if err := orch.HandleInteractionEvent(ctx, msg); err != nil {
		store.UnmarkProcessing(ctx, msg.MessageID)
		return err
	}
	return store.MarkProcessed(ctx, msg.MessageID)
}

// StartAllConsumers 启动所有消费者（worker 进程入口调用），阻塞到全部退出
func StartAllConsumers(ctx context.Context, orch *orchestrate.Orchestrator) {
	var wg sync.WaitGroup

	consumers := []struct {
		name     string
		consumer func(context.Context) error
	}{
		{"delivery", StartDeliveryConsumer},
		{"interaction_event", func(ctx context.Context) error {
			return StartInteractionConsumer(ctx, orch)
		}},
	}

	for _, c := range consumers {
		wg.Add(1)
		go func(name string, consumer func(context.Context) error) {
			defer wg.Done()

			logger.Logger.Info("Starting consumer",
				zap.String("consumer_name", name),
			)

			if err := consumer(ctx); err != nil {
				logger.Logger.Error("Consumer exited with error",
					zap.String("consumer_name", name),
					zap.Error(err),
				)
			}
		}(c.name, c.consumer)
	}

	wg.Wait()
}
