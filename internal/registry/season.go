package registry

import "Weave/internal/model"

// SeasonProfile 社交季节对通知强度的调节
type SeasonProfile struct {
	Season model.SocialSeason
	// BudgetMultiplier 每日预算乘数
	BudgetMultiplier float64
	// DisabledTypes 该季节整体关闭的渠道
	DisabledTypes map[model.NotificationType]bool
	// AllowedSuggestionCategories resting 季节下仍放行的建议类别，
	// 其余季节为 nil 表示全部放行
	AllowedSuggestionCategories map[model.SuggestionCategory]bool
	// IntervalScale 建议间隔拉伸倍数，1 为不变
	IntervalScale float64
}

var seasonProfiles = map[model.SocialSeason]SeasonProfile{
	model.SeasonResting: {
		Season:           model.SeasonResting,
		BudgetMultiplier: 0.5,
		DisabledTypes: map[model.NotificationType]bool{
			model.TypeMemoryNudge:    true,
			model.TypeDeepeningNudge: true,
		},
		AllowedSuggestionCategories: map[model.SuggestionCategory]bool{
			model.SuggestionCategoryCriticalDrift: true,
			model.SuggestionCategoryLifeEvent:     true,
		},
		IntervalScale: 2,
	},
	model.SeasonBalanced: {
		Season:           model.SeasonBalanced,
		BudgetMultiplier: 1,
		IntervalScale:    1,
	},
	model.SeasonBlooming: {
		Season:           model.SeasonBlooming,
		BudgetMultiplier: 1.5,
		IntervalScale:    0.75,
	},
}

// GetSeasonProfile 未知季节按 balanced 兜底
func GetSeasonProfile(s model.SocialSeason) SeasonProfile {
	if p, ok := seasonProfiles[s]; ok {
		return p
	}
	return seasonProfiles[model.SeasonBalanced]
}
