package registry

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"Weave/internal/model"
)

func TestRegistryCoversAllTypes(t *testing.T) {
	for _, typ := range model.AllNotificationTypes {
		def, ok := Get(typ)
		require.True(t, ok, "missing definition for %s", typ)
		assert.Equal(t, typ, def.Type)
	}

	_, ok := Get(model.NotificationType("bogus"))
	assert.False(t, ok)
}

func TestMustGetPanicsOnUnknown(t *testing.T) {
	assert.NotPanics(t, func() { MustGet(model.TypeEveningDigest) })
	assert.Panics(t, func() { MustGet(model.NotificationType("bogus")) })
}

func TestChannelCooldowns(t *testing.T) {
	// 建议渠道的冷却与同日建议最小间隔一致，否则冷却闸门对它是空操作
	assert.Equal(t, 2*time.Hour, MustGet(model.TypeFriendSuggestion).Cooldown)
	assert.Equal(t, 20*time.Hour, MustGet(model.TypeMemoryNudge).Cooldown)
	// 深化提醒靠每日上限控制频次，不设冷却
	assert.Zero(t, MustGet(model.TypeDeepeningNudge).Cooldown)
}

func TestIsCritical(t *testing.T) {
	assert.True(t, IsCritical(model.TypeEventReminder))
	assert.True(t, IsCritical(model.TypeWeeklyReflection))
	assert.False(t, IsCritical(model.TypeMemoryNudge))
	assert.False(t, IsCritical(model.TypeFriendSuggestion))
}

func TestTemplateResolve(t *testing.T) {
	tpl := Template{Title: "和{{name}}聊聊", Body: "已经 {{days}} 天没联系{{name}}了"}

	title, body := tpl.Resolve(map[string]string{"name": "小林", "days": "21"})
	assert.Equal(t, "和小林聊聊", title)
	assert.Equal(t, "已经 21 天没联系小林了", body)

	// 未提供值的占位符原样保留，不产生空白文案
	title, body = tpl.Resolve(map[string]string{"name": "小林"})
	assert.Equal(t, "和小林聊聊", title)
	assert.Contains(t, body, "{{days}}")
}

func TestResolveTemplateFallback(t *testing.T) {
	def := MustGet(model.TypeFriendSuggestion)

	// 未知模板名回落到 default
	title, body := ResolveTemplate(def, "nonexistent", map[string]string{"name": "小林"})
	assert.NotEmpty(t, title)
	assert.NotEmpty(t, body)

	// 无模板的渠道回落到类型名，保证永不为空
	noTpl := MustGet(model.TypeEventSuggestion)
	title, body = ResolveTemplate(noTpl, "anything", nil)
	assert.Equal(t, string(model.TypeEventSuggestion), title)
	assert.Equal(t, string(model.TypeEventSuggestion), body)
}

func TestSeasonProfiles(t *testing.T) {
	resting := GetSeasonProfile(model.SeasonResting)
	assert.Equal(t, 0.5, resting.BudgetMultiplier)
	assert.True(t, resting.DisabledTypes[model.TypeMemoryNudge])
	assert.True(t, resting.DisabledTypes[model.TypeDeepeningNudge])
	assert.False(t, resting.AllowedSuggestionCategories[model.SuggestionCategoryMaintain])
	assert.True(t, resting.AllowedSuggestionCategories[model.SuggestionCategoryCriticalDrift])

	balanced := GetSeasonProfile(model.SeasonBalanced)
	assert.Equal(t, 1.0, balanced.BudgetMultiplier)
	assert.Empty(t, balanced.DisabledTypes)
	assert.Nil(t, balanced.AllowedSuggestionCategories)

	// 未知季节兜底到 balanced
	fallback := GetSeasonProfile(model.SocialSeason("weird"))
	assert.Equal(t, model.SeasonBalanced, fallback.Season)
}
