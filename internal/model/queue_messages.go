package model

import "time"

// DeliveryMessage 延迟投递消息，MessageID 用于 Redis SETNX 幂等去重
type DeliveryMessage struct {
	MessageID      string           `json:"message_id"`
	NotificationID string           `json:"notification_id"`
	UserID         int64            `json:"user_id"`
	Type           NotificationType `json:"type"`
	Title          string           `json:"title"`
	Body           string           `json:"body"`
	Payload        string           `json:"payload"` // TapEnvelope JSON
	DelaySeconds   int64            `json:"delay_seconds"`
	ScheduledFor   time.Time        `json:"scheduled_for"`
	CreatedAt      time.Time        `json:"created_at"`
}

// InteractionEventKind 约定生命周期事件
type InteractionEventKind string

const (
	InteractionCreated   InteractionEventKind = "created"
	InteractionUpdated   InteractionEventKind = "updated"
	InteractionCompleted InteractionEventKind = "completed"
	InteractionCancelled InteractionEventKind = "cancelled"
)

// InteractionEventMessage 约定变更事件，驱动提醒的重排与取消
type InteractionEventMessage struct {
	MessageID     string               `json:"message_id"`
	Kind          InteractionEventKind `json:"kind"`
	UserID        int64                `json:"user_id"`
	InteractionID int64                `json:"interaction_id"`
	OccursAt      time.Time            `json:"occurs_at"`
	Title         string               `json:"title"`
	Category      InteractionCategory  `json:"category"`
	EmittedAt     time.Time            `json:"emitted_at"`
}

// UIIntent 点按后希望客户端执行的导航动作
type UIIntent string

const (
	IntentOpenCheckin    UIIntent = "open_checkin"
	IntentOpenReflection UIIntent = "open_reflection"
	IntentOpenDigest     UIIntent = "open_digest"
	IntentOpenFriend     UIIntent = "open_friend"
	IntentOpenEvent      UIIntent = "open_event"
)

// UIIntentMessage 推送给客户端长连接网关的导航意图
type UIIntentMessage struct {
	MessageID string           `json:"message_id"`
	UserID    int64            `json:"user_id"`
	Intent    UIIntent         `json:"intent"`
	Source    NotificationType `json:"source"`
	RefID     int64            `json:"ref_id,omitempty"`
	RefKey    string           `json:"ref_key,omitempty"`
	EmittedAt time.Time        `json:"emitted_at"`
}
