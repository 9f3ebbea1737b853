package model

// UserStatus 用户状态枚举
type UserStatus string

const (
	UserStatusOnboarding UserStatus = "onboarding" // 引导中
	UserStatusActive     UserStatus = "active"     // 正常使用
)

// NotificationFrequency 通知频率档位
type NotificationFrequency string

const (
	FrequencyLight     NotificationFrequency = "light"     // 每日预算 3
	FrequencyModerate  NotificationFrequency = "moderate"  // 每日预算 5
	FrequencyProactive NotificationFrequency = "proactive" // 每日预算 8
)

// DailyBudgetBase 返回频率档位对应的基础每日预算
func (f NotificationFrequency) DailyBudgetBase() int {
	switch f {
	case FrequencyLight:
		return 3
	case FrequencyProactive:
		return 8
	default:
		return 5
	}
}

// SocialSeason 社交季节，粗粒度的用户状态分类，用于缩放通知频率
type SocialSeason string

const (
	SeasonResting  SocialSeason = "resting"
	SeasonBalanced SocialSeason = "balanced"
	SeasonBlooming SocialSeason = "blooming"
)

// User 用户模型，通知偏好直接挂在用户档案上（读多写少）
type User struct {
	BaseModel
	PublicID  int64      `gorm:"uniqueIndex;not null" json:"public_id"`
	Nickname  string     `gorm:"type:varchar(64);not null;default:''" json:"nickname"`
	Status    UserStatus `gorm:"type:varchar(16);not null;default:'onboarding';index:idx_users_status" json:"status"`
	Timezone  string     `gorm:"type:varchar(64);not null;default:'Asia/Shanghai'" json:"timezone"`
	PushTarget string    `gorm:"type:varchar(128);not null;default:''" json:"-"` // 投递目标（设备令牌/手机号）

	// 通知偏好
	Frequency           NotificationFrequency `gorm:"type:varchar(16);not null;default:'moderate'" json:"frequency"`
	QuietHoursStart     int                   `gorm:"type:smallint;not null;default:22" json:"quiet_hours_start"`
	QuietHoursEnd       int                   `gorm:"type:smallint;not null;default:8" json:"quiet_hours_end"`
	RespectBattery      bool                  `gorm:"not null;default:true" json:"respect_battery"`
	DigestEnabled       bool                  `gorm:"not null;default:true" json:"digest_enabled"`
	DigestTime          string                `gorm:"type:varchar(8);not null;default:'19:30:00'" json:"digest_time"`
	MaxDailySuggestions int                   `gorm:"type:smallint;not null;default:3" json:"max_daily_suggestions"`
	ReflectionWeekday   int                   `gorm:"type:smallint;not null;default:0" json:"reflection_weekday"` // 0 = Sunday
	ReflectionTime      string                `gorm:"type:varchar(8);not null;default:'18:00:00'" json:"reflection_time"`
	CheckinRemindAt     string                `gorm:"type:varchar(8);not null;default:'20:00:00'" json:"checkin_remind_at"`

	// 社交状态，外部分类器写入
	Season      SocialSeason `gorm:"type:varchar(16);not null;default:'balanced'" json:"season"`
	EnergyLevel int          `gorm:"type:smallint;not null;default:70" json:"energy_level"` // 0-100 社交电量
}

// TableName 指定表名
func (User) TableName() string {
	return "users"
}

// Preferences 用户通知偏好的只读视图，渠道评估时传递
type Preferences struct {
	Frequency           NotificationFrequency
	QuietHoursStart     int
	QuietHoursEnd       int
	RespectBattery      bool
	DigestEnabled       bool
	DigestTime          string
	MaxDailySuggestions int
	ReflectionWeekday   int
	ReflectionTime      string
	CheckinRemindAt     string
	Timezone            string
	Season              SocialSeason
	EnergyLevel         int
}

// Prefs 提取用户的通知偏好视图
func (u *User) Prefs() Preferences {
	return Preferences{
		Frequency:           u.Frequency,
		QuietHoursStart:     u.QuietHoursStart,
		QuietHoursEnd:       u.QuietHoursEnd,
		RespectBattery:      u.RespectBattery,
		DigestEnabled:       u.DigestEnabled,
		DigestTime:          u.DigestTime,
		MaxDailySuggestions: u.MaxDailySuggestions,
		ReflectionWeekday:   u.ReflectionWeekday,
		ReflectionTime:      u.ReflectionTime,
		CheckinRemindAt:     u.CheckinRemindAt,
		Timezone:            u.Timezone,
		Season:              u.Season,
		EnergyLevel:         u.EnergyLevel,
	}
}
