package model

import "time"

// InteractionStatus 互动状态枚举
type InteractionStatus string

const (
	InteractionStatusPlanned   InteractionStatus = "planned"   // 已计划
	InteractionStatusCompleted InteractionStatus = "completed" // 已完成
	InteractionStatusCancelled InteractionStatus = "cancelled" // 已取消
)

// InteractionCategory 互动类别
type InteractionCategory string

const (
	CategoryCall      InteractionCategory = "call"
	CategoryMeet      InteractionCategory = "meet"
	CategoryMessage   InteractionCategory = "message"
	CategoryLifeEvent InteractionCategory = "life_event" // 人生大事，季节策略豁免
)

// Interaction 一次记录的社交互动（weave）
type Interaction struct {
	BaseModel
	PublicID    int64               `gorm:"uniqueIndex;not null" json:"public_id"`
	UserID      int64               `gorm:"not null;index:idx_interactions_user_status" json:"user_id"`
	Status      InteractionStatus   `gorm:"type:varchar(16);not null;default:'completed';index:idx_interactions_user_status" json:"status"`
	Category    InteractionCategory `gorm:"type:varchar(16);not null;default:'meet'" json:"category"`
	Title       string              `gorm:"type:varchar(128);not null;default:''" json:"title"`
	OccursAt    time.Time           `gorm:"type:timestamptz;not null;index:idx_interactions_occurs" json:"occurs_at"`
	CompletedAt *time.Time          `gorm:"type:timestamptz" json:"completed_at,omitempty"`
}

// TableName 指定表名
func (Interaction) TableName() string {
	return "interactions"
}

// InteractionFriend 互动-好友关联
type InteractionFriend struct {
	BaseModel
	InteractionID int64 `gorm:"not null;index:idx_interaction_friends_interaction" json:"interaction_id"`
	FriendID      int64 `gorm:"not null;index:idx_interaction_friends_friend" json:"friend_id"`
}

// TableName 指定表名
func (InteractionFriend) TableName() string {
	return "interaction_friends"
}
