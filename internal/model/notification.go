package model

import (
	"encoding/json"
	"fmt"
)

// NotificationType 通知类别，同时是渠道 ID 和调度标识前缀
type NotificationType string

const (
	TypeBatteryCheckin   NotificationType = "battery_checkin"
	TypeWeeklyReflection NotificationType = "weekly_reflection"
	TypeEveningDigest    NotificationType = "evening_digest"
	TypeMemoryNudge      NotificationType = "memory_nudge"
	TypeFriendSuggestion NotificationType = "friend_suggestion"
	TypeEventReminder    NotificationType = "event_reminder"
	TypeDeepeningNudge   NotificationType = "deepening_nudge"
	TypeEventSuggestion  NotificationType = "event_suggestion"
)

// AllNotificationTypes 固定的渠道遍历顺序
var AllNotificationTypes = []NotificationType{
	TypeBatteryCheckin,
	TypeWeeklyReflection,
	TypeEveningDigest,
	TypeMemoryNudge,
	TypeFriendSuggestion,
	TypeEventReminder,
	TypeDeepeningNudge,
	TypeEventSuggestion,
}

// Urgency 建议紧急度
type Urgency string

const (
	UrgencyCritical Urgency = "critical"
	UrgencyHigh     Urgency = "high"
	UrgencyMedium   Urgency = "medium"
	UrgencyLow      Urgency = "low"
)

// UrgencyRank 返回紧急度排序值，越大越紧急
func UrgencyRank(u Urgency) int {
	switch u {
	case UrgencyCritical:
		return 4
	case UrgencyHigh:
		return 3
	case UrgencyMedium:
		return 2
	case UrgencyLow:
		return 1
	default:
		return 0
	}
}

// SuggestionCategory 建议类别，季节策略按类别放行
type SuggestionCategory string

const (
	SuggestionCategoryCriticalDrift SuggestionCategory = "critical-drift"
	SuggestionCategoryLifeEvent     SuggestionCategory = "life-event"
	SuggestionCategoryReconnect     SuggestionCategory = "reconnect"
	SuggestionCategoryMaintain      SuggestionCategory = "maintain"
)

// TapPayload 通知的点按负载，按 NotificationType 区分的和类型。
// 响应路由器对其做穷尽匹配，不再需要防御性的字段存在性检查。
type TapPayload interface {
	NotificationType() NotificationType
}

type BatteryCheckinTap struct {
	Date string `json:"date"`
}

func (BatteryCheckinTap) NotificationType() NotificationType { return TypeBatteryCheckin }

type WeeklyReflectionTap struct {
	WeekOf string `json:"week_of"`
}

func (WeeklyReflectionTap) NotificationType() NotificationType { return TypeWeeklyReflection }

type EveningDigestTap struct {
	Date string `json:"date"`
}

func (EveningDigestTap) NotificationType() NotificationType { return TypeEveningDigest }

type MemoryNudgeTap struct {
	FriendID   int64  `json:"friend_id"`
	MemoryDate string `json:"memory_date"`
}

func (MemoryNudgeTap) NotificationType() NotificationType { return TypeMemoryNudge }

type FriendSuggestionTap struct {
	FriendID     int64   `json:"friend_id"`
	SuggestionID string  `json:"suggestion_id"`
	Urgency      Urgency `json:"urgency"`
}

func (FriendSuggestionTap) NotificationType() NotificationType { return TypeFriendSuggestion }

type EventReminderTap struct {
	InteractionID int64 `json:"interaction_id"`
}

func (EventReminderTap) NotificationType() NotificationType { return TypeEventReminder }

type DeepeningNudgeTap struct {
	InteractionID int64 `json:"interaction_id"`
}

func (DeepeningNudgeTap) NotificationType() NotificationType { return TypeDeepeningNudge }

// TapEnvelope 点按负载的传输格式
type TapEnvelope struct {
	Type NotificationType `json:"type"`
	Data json.RawMessage  `json:"data"`
}

// EncodeTapPayload 序列化点按负载
func EncodeTapPayload(p TapPayload) (string, error) {
	data, err := json.Marshal(p)
	if err != nil {
		return "", err
	}
	env, err := json.Marshal(TapEnvelope{Type: p.NotificationType(), Data: data})
	if err != nil {
		return "", err
	}
	return string(env), nil
}

// DecodeTapPayload 反序列化点按负载，未知类型返回错误
func DecodeTapPayload(raw []byte) (TapPayload, error) {
	var env TapEnvelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return nil, fmt.Errorf("failed to unmarshal tap envelope: %w", err)
	}

	var p TapPayload
	switch env.Type {
	case TypeBatteryCheckin:
		p = &BatteryCheckinTap{}
	case TypeWeeklyReflection:
		p = &WeeklyReflectionTap{}
	case TypeEveningDigest:
		p = &EveningDigestTap{}
	case TypeMemoryNudge:
		p = &MemoryNudgeTap{}
	case TypeFriendSuggestion:
		p = &FriendSuggestionTap{}
	case TypeEventReminder:
		p = &EventReminderTap{}
	case TypeDeepeningNudge:
		p = &DeepeningNudgeTap{}
	default:
		return nil, fmt.Errorf("unknown notification type: %s", env.Type)
	}

	if len(env.Data) > 0 {
		if err := json.Unmarshal(env.Data, p); err != nil {
			return nil, fmt.Errorf("failed to unmarshal tap payload: %w", err)
		}
	}

	return p, nil
}

// PendingEvent 待纳入晚间摘要的事件（按 EventID 去重）
type PendingEvent struct {
	EventID           string             `json:"event_id"`
	Title             string             `json:"title"`
	FriendNames       []string           `json:"friend_names"`
	FriendIDs         []int64            `json:"friend_ids"`
	EventDate         string             `json:"event_date"`
	SuggestedCategory SuggestionCategory `json:"suggested_category"`
}

// DeepeningRecord 深化提醒记录，每日最多 2 条
type DeepeningRecord struct {
	InteractionID  int64  `json:"interaction_id"`
	ScheduledAt    string `json:"scheduled_at"` // RFC3339
	NotificationID string `json:"notification_id"`
}
