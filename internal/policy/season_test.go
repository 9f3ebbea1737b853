package policy

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"Weave/internal/model"
)

func prefsWith(season model.SocialSeason) model.Preferences {
	return model.Preferences{
		Frequency:       model.FrequencyModerate,
		QuietHoursStart: 22,
		QuietHoursEnd:   8,
		Season:          season,
	}
}

func TestShouldSendNotificationCriticalBypass(t *testing.T) {
	prefs := prefsWith(model.SeasonResting)
	// 勿扰时段深夜
	night := time.Date(2026, 3, 10, 23, 0, 0, 0, time.UTC)

	// 关键渠道无视季节与勿扰
	d := ShouldSendNotification(prefs, model.TypeEventReminder, "", "", night)
	assert.True(t, d.Allow)

	d = ShouldSendNotification(prefs, model.TypeWeeklyReflection, "", "", night)
	assert.True(t, d.Allow)

	// 普通渠道在勿扰时段被拒
	d = ShouldSendNotification(prefs, model.TypeEveningDigest, "", "", night)
	assert.False(t, d.Allow)
	assert.Equal(t, "quiet_hours", d.Reason)
}

func TestShouldSendNotificationSeasonDisabled(t *testing.T) {
	prefs := prefsWith(model.SeasonResting)
	noon := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)

	d := ShouldSendNotification(prefs, model.TypeMemoryNudge, "", "", noon)
	assert.False(t, d.Allow)
	assert.Equal(t, "season_disabled", d.Reason)

	d = ShouldSendNotification(prefs, model.TypeDeepeningNudge, "", "", noon)
	assert.False(t, d.Allow)

	// balanced 季节不关闭任何渠道
	d = ShouldSendNotification(prefsWith(model.SeasonBalanced), model.TypeMemoryNudge, "", "", noon)
	assert.True(t, d.Allow)
}

func TestShouldSendNotificationSuggestionCategories(t *testing.T) {
	prefs := prefsWith(model.SeasonResting)
	noon := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)

	// resting 下只放行白名单类别
	d := ShouldSendNotification(prefs, model.TypeFriendSuggestion, model.SuggestionCategoryMaintain, "", noon)
	assert.False(t, d.Allow)
	assert.Equal(t, "season_category_blocked", d.Reason)

	d = ShouldSendNotification(prefs, model.TypeFriendSuggestion, model.SuggestionCategoryCriticalDrift, "", noon)
	assert.True(t, d.Allow)

	// 生活事件类建议在任何季节都豁免
	night := time.Date(2026, 3, 10, 23, 0, 0, 0, time.UTC)
	d = ShouldSendNotification(prefs, model.TypeFriendSuggestion, model.SuggestionCategoryLifeEvent, "", night)
	assert.True(t, d.Allow)

	// blooming 下全类别放行
	d = ShouldSendNotification(prefsWith(model.SeasonBlooming), model.TypeFriendSuggestion, model.SuggestionCategoryMaintain, "", noon)
	assert.True(t, d.Allow)
}

func TestShouldSendNotificationCriticalUrgency(t *testing.T) {
	prefs := prefsWith(model.SeasonResting)
	noon := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)

	// critical 紧急度豁免季节限制，不看类别白名单
	d := ShouldSendNotification(prefs, model.TypeFriendSuggestion, model.SuggestionCategoryMaintain, model.UrgencyCritical, noon)
	assert.True(t, d.Allow)

	// 季节关停的渠道同样被 critical 紧急度越过
	d = ShouldSendNotification(prefs, model.TypeMemoryNudge, "", model.UrgencyCritical, noon)
	assert.True(t, d.Allow)

	// 低紧急度不享受豁免
	d = ShouldSendNotification(prefs, model.TypeFriendSuggestion, model.SuggestionCategoryMaintain, model.UrgencyHigh, noon)
	assert.False(t, d.Allow)
	assert.Equal(t, "season_category_blocked", d.Reason)
}

func TestApplySeasonLimit(t *testing.T) {
	// 显式关闭不因季节复活
	assert.Equal(t, 0, ApplySeasonLimit(0, model.SeasonBlooming))

	assert.Equal(t, 3, ApplySeasonLimit(3, model.SeasonBalanced))
	assert.Equal(t, 2, ApplySeasonLimit(3, model.SeasonResting))
	assert.Equal(t, 5, ApplySeasonLimit(3, model.SeasonBlooming))

	// 缩放后至少保留 1
	assert.Equal(t, 1, ApplySeasonLimit(1, model.SeasonResting))

	// 未知季节按 balanced 兜底
	assert.Equal(t, 3, ApplySeasonLimit(3, model.SocialSeason("unknown")))
}

func TestDailyBudget(t *testing.T) {
	cases := []struct {
		frequency model.NotificationFrequency
		season    model.SocialSeason
		want      int
	}{
		{model.FrequencyLight, model.SeasonBalanced, 3},
		{model.FrequencyModerate, model.SeasonBalanced, 5},
		{model.FrequencyProactive, model.SeasonBalanced, 8},
		{model.FrequencyLight, model.SeasonResting, 2},
		{model.FrequencyModerate, model.SeasonResting, 3},
		{model.FrequencyProactive, model.SeasonBlooming, 12},
	}
	for _, c := range cases {
		prefs := model.Preferences{Frequency: c.frequency, Season: c.season}
		assert.Equal(t, c.want, DailyBudget(prefs), "%s/%s", c.frequency, c.season)
	}
}

func TestScaleInterval(t *testing.T) {
	week := 7 * 24 * time.Hour

	assert.Equal(t, week, ScaleInterval(week, model.SeasonBalanced))
	assert.Equal(t, 2*week, ScaleInterval(week, model.SeasonResting))
	assert.Equal(t, time.Duration(float64(week)*0.75), ScaleInterval(week, model.SeasonBlooming))
}
