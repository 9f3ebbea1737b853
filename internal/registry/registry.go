package registry

import (
	"time"

	"Weave/internal/model"
)

// ChannelDefinition 渠道的静态元数据。运行期行为在 internal/channel，
// 这里只放预算、冷却与文案模板等声明性配置。
type ChannelDefinition struct {
	Type model.NotificationType
	// BudgetCost 每次投递消耗的每日预算额度，0 表示不计入预算
	BudgetCost int
	// Cooldown 同渠道两次投递的最小间隔，0 表示无冷却
	Cooldown time.Duration
	// Critical 免受季节静默与勿扰时段限制
	Critical bool
	// Templates 渠道文案模板，键为模板名
	Templates map[string]Template
}

var definitions = map[model.NotificationType]ChannelDefinition{
	model.TypeBatteryCheckin: {
		Type:       model.TypeBatteryCheckin,
		BudgetCost: 0, // 用户显式开启的例行提醒，不占预算
		Templates: map[string]Template{
			"default": {
				Title: "Social battery check-in",
				Body:  "How's your social energy today?",
			},
		},
	},
	model.TypeWeeklyReflection: {
		Type:       model.TypeWeeklyReflection,
		BudgetCost: 0,
		Critical:   true, // 每周仅一条，始终放行
		Templates: map[string]Template{
			"default": {
				Title: "Weekly reflection",
				Body:  "Take a minute to look back at your week with {{friend_count}} friends.",
			},
		},
	},
	model.TypeEveningDigest: {
		Type:       model.TypeEveningDigest,
		BudgetCost: 0,
		Templates: map[string]Template{
			"default": {
				Title: "Your evening digest",
				Body:  "{{item_count}} things worth a look tonight.",
			},
			"empty": {
				Title: "Your evening digest",
				Body:  "All quiet today. Enjoy your evening.",
			},
		},
	},
	model.TypeMemoryNudge: {
		Type:       model.TypeMemoryNudge,
		BudgetCost: 1,
		Cooldown:   20 * time.Hour,
		Templates: map[string]Template{
			"default": {
				Title: "A year ago today",
				Body:  "You and {{friend_name}} shared {{memory_title}} a year ago.",
			},
		},
	},
	model.TypeFriendSuggestion: {
		Type:       model.TypeFriendSuggestion,
		BudgetCost: 1,
		Cooldown:   2 * time.Hour, // 与同日建议的最小间隔保持一致
		Templates: map[string]Template{
			"reconnect": {
				Title: "Thinking of {{friend_name}}?",
				Body:  "It's been {{days_since}} days since you last caught up.",
			},
			"critical-drift": {
				Title: "Don't lose touch with {{friend_name}}",
				Body:  "It's been over {{days_since}} days. A quick message goes a long way.",
			},
			"life-event": {
				Title: "{{friend_name}} has something coming up",
				Body:  "{{event_title}} is on {{event_date}}.",
			},
		},
	},
	model.TypeEventReminder: {
		Type:       model.TypeEventReminder,
		BudgetCost: 0,
		Critical:   true, // 用户自己安排的约定，任何时候都提醒
		Templates: map[string]Template{
			"default": {
				Title: "Coming up: {{event_title}}",
				Body:  "{{event_title}} with {{friend_names}} starts at {{event_time}}.",
			},
		},
	},
	model.TypeDeepeningNudge: {
		Type:       model.TypeDeepeningNudge,
		BudgetCost: 1,
		Templates: map[string]Template{
			"default": {
				Title: "How did it go?",
				Body:  "You met {{friend_name}} earlier. Anything worth noting down?",
			},
		},
	},
	model.TypeEventSuggestion: {
		Type:       model.TypeEventSuggestion,
		BudgetCost: 0, // 只写入摘要批次，不直接投递
		Templates:  map[string]Template{},
	},
}

// Get 返回渠道定义，未注册的类型返回 false
func Get(t model.NotificationType) (ChannelDefinition, bool) {
	def, ok := definitions[t]
	return def, ok
}

// MustGet 已注册类型的便捷取值，仅供使用常量的调用方
func MustGet(t model.NotificationType) ChannelDefinition {
	def, ok := definitions[t]
	if !ok {
		panic("registry: unknown notification type " + string(t))
	}
	return def
}

// IsCritical 渠道是否豁免季节与勿扰限制
func IsCritical(t model.NotificationType) bool {
	def, ok := definitions[t]
	return ok && def.Critical
}
