package policy

import (
	"math"
	"time"

	"Weave/internal/model"
	"Weave/internal/registry"
)

// Decision 策略判定结果
type Decision struct {
	Allow  bool
	Reason string
}

func allow() Decision { return Decision{Allow: true} }

func deny(reason string) Decision { return Decision{Allow: false, Reason: reason} }

// ShouldSendNotification 季节与勿扰策略总闸。
// 关键渠道（事件提醒、每周回顾）无条件放行；
// critical 紧急度与生活事件类建议同样豁免季节限制。
func ShouldSendNotification(prefs model.Preferences, t model.NotificationType, category model.SuggestionCategory, urgency model.Urgency, now time.Time) Decision {
	if registry.IsCritical(t) {
		return allow()
	}
	if urgency == model.UrgencyCritical {
		return allow()
	}
	if category == model.SuggestionCategoryLifeEvent {
		return allow()
	}

	profile := registry.GetSeasonProfile(prefs.Season)
	if profile.DisabledTypes[t] {
		return deny("season_disabled")
	}

	// resting 季节下的建议只放行白名单类别
	if t == model.TypeFriendSuggestion && profile.AllowedSuggestionCategories != nil {
		if !profile.AllowedSuggestionCategories[category] {
			return deny("season_category_blocked")
		}
	}

	if IsQuietHours(prefs.QuietHoursStart, prefs.QuietHoursEnd, now) {
		return deny("quiet_hours")
	}

	return allow()
}

// ApplySeasonLimit 按季节乘数缩放每日上限。
// 基数为 0 保持 0（显式关闭不因季节复活），否则至少保留 1。
func ApplySeasonLimit(base int, season model.SocialSeason) int {
	if base == 0 {
		return 0
	}
	mult := registry.GetSeasonProfile(season).BudgetMultiplier
	scaled := int(math.Round(float64(base) * mult))
	if scaled < 1 {
		return 1
	}
	return scaled
}

// DailyBudget 用户当日通知预算：频率档位基数 × 季节乘数
func DailyBudget(prefs model.Preferences) int {
	return ApplySeasonLimit(prefs.Frequency.DailyBudgetBase(), prefs.Season)
}

// ScaleInterval 按季节拉伸建议间隔
func ScaleInterval(d time.Duration, season model.SocialSeason) time.Duration {
	scale := registry.GetSeasonProfile(season).IntervalScale
	if scale <= 0 {
		return d
	}
	return time.Duration(float64(d) * scale)
}
