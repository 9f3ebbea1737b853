package suggest

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"Weave/internal/model"
)

func days(n float64) time.Duration {
	return time.Duration(n * 24 * float64(time.Hour))
}

func TestClassifyThresholds(t *testing.T) {
	expected := days(7)

	cases := []struct {
		since    time.Duration
		urgency  model.Urgency
		category model.SuggestionCategory
		ok       bool
	}{
		{days(6), "", "", false},                                                        // 未到期
		{days(7), model.UrgencyLow, model.SuggestionCategoryMaintain, true},             // 恰好到期
		{days(8.68), model.UrgencyLow, model.SuggestionCategoryMaintain, true},          // ratio 1.24
		{days(8.75), model.UrgencyMedium, model.SuggestionCategoryReconnect, true},      // ratio 1.25
		{days(14), model.UrgencyHigh, model.SuggestionCategoryReconnect, true},          // ratio 2
		{days(20.9), model.UrgencyHigh, model.SuggestionCategoryReconnect, true},        // ratio < 3
		{days(21), model.UrgencyCritical, model.SuggestionCategoryCriticalDrift, true},  // ratio 3
		{days(100), model.UrgencyCritical, model.SuggestionCategoryCriticalDrift, true}, // 严重漂移
	}
	for _, c := range cases {
		urgency, category, ok := Classify(c.since, expected)
		assert.Equal(t, c.ok, ok, "since=%v", c.since)
		assert.Equal(t, c.urgency, urgency, "since=%v", c.since)
		assert.Equal(t, c.category, category, "since=%v", c.since)
	}

	_, _, ok := Classify(days(100), 0)
	assert.False(t, ok, "zero expected interval never classifies")
}

func TestExpectedInterval(t *testing.T) {
	assert.Equal(t, days(7), ExpectedInterval("inner"))
	assert.Equal(t, days(21), ExpectedInterval("close"))
	assert.Equal(t, days(60), ExpectedInterval("community"))
	assert.Equal(t, days(30), ExpectedInterval(""))
	assert.Equal(t, days(30), ExpectedInterval("somethingelse"))
}

type stubFriendLister struct {
	user    *model.User
	friends []model.Friend
}

func (s stubFriendLister) ListFriends(ctx context.Context, userID int64) ([]model.Friend, error) {
	return s.friends, nil
}

func (s stubFriendLister) GetUser(ctx context.Context, userID int64) (*model.User, error) {
	return s.user, nil
}

func friendAt(id int64, name, circle string, lastAt time.Time) model.Friend {
	f := model.Friend{Name: name, Circle: circle, LastInteractionAt: &lastAt}
	f.ID = id
	return f
}

func TestDriftSourceGenerate(t *testing.T) {
	now := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)

	fresh := friendAt(1, "阿青", "inner", now.Add(-days(2)))
	overdue := friendAt(2, "小林", "inner", now.Add(-days(10)))
	drifted := friendAt(3, "老王", "inner", now.Add(-days(30)))

	src := NewDriftSource(stubFriendLister{
		user:    &model.User{Season: model.SeasonBalanced},
		friends: []model.Friend{fresh, overdue, drifted},
	})

	out, err := src.Generate(context.Background(), 101, now)
	require.NoError(t, err)
	require.Len(t, out, 2, "fresh contact must not be suggested")

	// 紧急度降序
	assert.Equal(t, int64(3), out[0].FriendID)
	assert.Equal(t, model.UrgencyCritical, out[0].Urgency)
	assert.Equal(t, model.SuggestionCategoryCriticalDrift, out[0].Category)
	assert.Equal(t, int64(2), out[1].FriendID)
	assert.Equal(t, 30, out[0].DaysSince)

	// 同一天的 ID 稳定，可用于幂等覆盖
	assert.Equal(t, SuggestionID(3, "2026-03-10"), out[0].ID)
}

func TestDriftSourceNeverInteracted(t *testing.T) {
	now := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)

	// 从未互动过的朋友从建档时间起算
	justAdded := model.Friend{Name: "新朋友", Circle: "inner"}
	justAdded.ID = 4
	justAdded.CreatedAt = now.Add(-days(1))

	longAgo := model.Friend{Name: "老朋友", Circle: "inner"}
	longAgo.ID = 5
	longAgo.CreatedAt = now.Add(-days(15))

	src := NewDriftSource(stubFriendLister{
		user:    &model.User{Season: model.SeasonBalanced},
		friends: []model.Friend{justAdded, longAgo},
	})

	out, err := src.Generate(context.Background(), 101, now)
	require.NoError(t, err)
	require.Len(t, out, 1, "newly added friend is not nagged immediately")
	assert.Equal(t, int64(5), out[0].FriendID)
}

func TestDriftSourceSeasonScaling(t *testing.T) {
	now := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)

	// inner 圈 10 天未联络：balanced 下到期，resting 下间隔翻倍未到期
	f := friendAt(2, "小林", "inner", now.Add(-days(10)))

	balanced := NewDriftSource(stubFriendLister{
		user:    &model.User{Season: model.SeasonBalanced},
		friends: []model.Friend{f},
	})
	out, err := balanced.Generate(context.Background(), 101, now)
	require.NoError(t, err)
	assert.Len(t, out, 1)

	resting := NewDriftSource(stubFriendLister{
		user:    &model.User{Season: model.SeasonResting},
		friends: []model.Friend{f},
	})
	out, err = resting.Generate(context.Background(), 101, now)
	require.NoError(t, err)
	assert.Empty(t, out)
}
