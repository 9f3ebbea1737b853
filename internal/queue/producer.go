package queue

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"Weave/internal/model"
	"Weave/storage/mq"
)

// PublishInteractionEvent 广播约定生命周期事件
func PublishInteractionEvent(ctx context.Context, msg model.InteractionEventMessage) error {
	if msg.MessageID == "" {
		msg.MessageID = uuid.NewString()
	}
	if msg.EmittedAt.IsZero() {
		msg.EmittedAt = time.Now()
	}

	routingKey := fmt.Sprintf("%s.%s", mq.InteractionRoutingPrefix, msg.Kind)
	if err := mq.PublishMessage(mq.EventsExchange, routingKey, msg); err != nil {
		return fmt.Errorf("failed to publish interaction event: %w", err)
	}
	return nil
}

// MQIntentPublisher 把导航意图发给客户端长连接网关
type MQIntentPublisher struct{}

func (MQIntentPublisher) PublishUIIntent(ctx context.Context, msg model.UIIntentMessage) error {
	if msg.MessageID == "" {
		msg.MessageID = uuid.NewString()
	}
	if msg.EmittedAt.IsZero() {
		msg.EmittedAt = time.Now()
	}

	routingKey := fmt.Sprintf("%s.%s", mq.UIRoutingPrefix, msg.Intent)
	if err := mq.PublishMessage(mq.EventsExchange, routingKey, msg); err != nil {
		return fmt.Errorf("failed to publish ui intent: %w", err)
	}
	return nil
}
