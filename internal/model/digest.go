package model

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
	"sort"
	"time"
)

// DigestItem 晚间摘要里的一条内容，按 Priority 降序展示
// 100=今日计划 90=明日关键日期 80=今日完成 70=待确认 60/50/40=建议（按紧急度） 30=较远的将来日期
type DigestItem struct {
	Priority   int    `json:"priority"`
	Kind       string `json:"kind"`
	Title      string `json:"title"`
	Body       string `json:"body"`
	FriendName string `json:"friend_name,omitempty"`
	RefID      int64  `json:"ref_id,omitempty"`   // 关联的约定 ID
	EventID    string `json:"event_id,omitempty"` // 关联的事件建议 ID
}

// DigestItem.Kind 取值
const (
	DigestItemPlan       = "plan"
	DigestItemUpcoming   = "upcoming"
	DigestItemCompleted  = "completed"
	DigestItemPending    = "pending"
	DigestItemSuggestion = "suggestion"
)

// DigestItems JSONB 数组
type DigestItems []DigestItem

// SortByPriority 按优先级降序排列，同级保持插入顺序
func (d DigestItems) SortByPriority() {
	sort.SliceStable(d, func(i, j int) bool {
		return d[i].Priority > d[j].Priority
	})
}

func (d DigestItems) Value() (driver.Value, error) {
	if d == nil {
		return nil, nil
	}
	return json.Marshal(d)
}

func (d *DigestItems) Scan(value interface{}) error {
	if value == nil {
		*d = nil
		return nil
	}
	bytes, ok := value.([]byte)
	if !ok {
		return errors.New("failed to unmarshal DigestItems value")
	}
	return json.Unmarshal(bytes, d)
}

// DailyDigest 按天落库的晚间摘要，用户点按通知后生成并可重复查看
type DailyDigest struct {
	BaseModel
	UserID      int64       `gorm:"not null;uniqueIndex:idx_daily_digests_user_date" json:"user_id"`
	DigestDate  time.Time   `gorm:"type:date;not null;uniqueIndex:idx_daily_digests_user_date" json:"digest_date"`
	Items       DigestItems `gorm:"type:jsonb;not null;default:'[]'" json:"items"`
	GeneratedAt time.Time   `gorm:"type:timestamptz;not null" json:"generated_at"`
}

// TableName 指定表名
func (DailyDigest) TableName() string {
	return "daily_digests"
}
