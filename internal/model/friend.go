package model

import "time"

// Friend 好友模型
type Friend struct {
	BaseModel
	PublicID            int64      `gorm:"uniqueIndex;not null" json:"public_id"`
	UserID              int64      `gorm:"not null;index:idx_friends_user" json:"user_id"`
	Name                string     `gorm:"type:varchar(64);not null" json:"name"`
	Circle              string     `gorm:"type:varchar(32);not null;default:''" json:"circle"` // inner, close, community
	LastInteractionAt   *time.Time `gorm:"type:timestamptz" json:"last_interaction_at,omitempty"`
	InteractionCount    int        `gorm:"not null;default:0" json:"interaction_count"`
	AnniversaryDate     *time.Time `gorm:"type:date" json:"anniversary_date,omitempty"` // 认识纪念日，回忆提醒用
	Archived            bool       `gorm:"not null;default:false" json:"archived"`
}

// TableName 指定表名
func (Friend) TableName() string {
	return "friends"
}
