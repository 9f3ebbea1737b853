package channel

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	goredis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"Weave/internal/model"
	"Weave/internal/policy"
	"Weave/internal/runtime"
	"Weave/internal/store"
	"Weave/internal/suggest"
	"Weave/storage/redis"
)

// stubCounter 宽限期判定的测试替身
type stubCounter struct {
	friends      int
	interactions int
}

func (s stubCounter) CountFriends(ctx context.Context, userID int64) (int, error) {
	return s.friends, nil
}

func (s stubCounter) CountInteractions(ctx context.Context, userID int64) (int, error) {
	return s.interactions, nil
}

// stubData 内存数据面
type stubData struct {
	user         *model.User
	friends      []model.Friend
	anniversary  []model.Friend
	interactions []model.Interaction
	linked       map[int64][]model.Friend
	plannedWith  map[int64]bool
	digests      []*model.DailyDigest
}

func (s *stubData) GetUser(ctx context.Context, userID int64) (*model.User, error) {
	return s.user, nil
}

func (s *stubData) ListFriends(ctx context.Context, userID int64) ([]model.Friend, error) {
	return s.friends, nil
}

func (s *stubData) GetFriendByID(ctx context.Context, userID, friendID int64) (*model.Friend, error) {
	for i := range s.friends {
		if s.friends[i].ID == friendID {
			return &s.friends[i], nil
		}
	}
	return nil, nil
}

func (s *stubData) ListFriendsWithAnniversaryAround(ctx context.Context, userID int64, from, to time.Time) ([]model.Friend, error) {
	return s.anniversary, nil
}

func (s *stubData) GetInteractionByID(ctx context.Context, userID, interactionID int64) (*model.Interaction, error) {
	for i := range s.interactions {
		if s.interactions[i].ID == interactionID {
			return &s.interactions[i], nil
		}
	}
	return nil, nil
}

func (s *stubData) ListPlannedBetween(ctx context.Context, userID int64, from, to time.Time) ([]model.Interaction, error) {
	var out []model.Interaction
	for _, it := range s.interactions {
		if it.Status == model.InteractionStatusPlanned && !it.OccursAt.Before(from) && it.OccursAt.Before(to) {
			out = append(out, it)
		}
	}
	return out, nil
}

func (s *stubData) ListCompletedBetween(ctx context.Context, userID int64, from, to time.Time) ([]model.Interaction, error) {
	var out []model.Interaction
	for _, it := range s.interactions {
		if it.Status != model.InteractionStatusCompleted || it.CompletedAt == nil {
			continue
		}
		if !it.CompletedAt.Before(from) && it.CompletedAt.Before(to) {
			out = append(out, it)
		}
	}
	return out, nil
}

func (s *stubData) ListInteractionFriends(ctx context.Context, interactionID int64) ([]model.Friend, error) {
	return s.linked[interactionID], nil
}

func (s *stubData) HasPlannedWithFriend(ctx context.Context, userID, friendID int64, from, to time.Time) (bool, error) {
	return s.plannedWith[friendID], nil
}

func (s *stubData) UpsertDailyDigest(ctx context.Context, digest *model.DailyDigest) error {
	s.digests = append(s.digests, digest)
	return nil
}

func (s *stubData) GetDailyDigest(ctx context.Context, userID int64, day time.Time) (*model.DailyDigest, error) {
	if len(s.digests) == 0 {
		return nil, nil
	}
	return s.digests[len(s.digests)-1], nil
}

// stubSuggestSource 固定候选列表
type stubSuggestSource struct {
	suggestions []suggest.Suggestion
}

func (s stubSuggestSource) Generate(ctx context.Context, userID int64, now time.Time) ([]suggest.Suggestion, error) {
	return s.suggestions, nil
}

func testUser() *model.User {
	u := &model.User{
		Status:              model.UserStatusActive,
		Frequency:           model.FrequencyModerate,
		QuietHoursStart:     22,
		QuietHoursEnd:       8,
		RespectBattery:      true,
		DigestEnabled:       true,
		DigestTime:          "19:30:00",
		MaxDailySuggestions: 3,
		ReflectionWeekday:   0,
		ReflectionTime:      "18:00:00",
		CheckinRemindAt:     "20:00:00",
		Season:              model.SeasonBalanced,
		EnergyLevel:         70,
	}
	u.ID = 101
	return u
}

// testDeps miniredis + 内存运行时 + 充分活跃的档案
func testDeps(t *testing.T, data *stubData) (*Deps, *runtime.MockRuntime) {
	t.Helper()

	mr := miniredis.RunT(t)
	client := goredis.NewClient(&goredis.Options{Addr: mr.Addr()})
	redis.SetClient(client)
	t.Cleanup(func() { client.Close() })

	rt := runtime.NewMockRuntime()
	deps := &Deps{
		Runtime:     rt,
		Data:        data,
		Grace:       policy.NewGraceEvaluator(stubCounter{friends: 5, interactions: 5}),
		Suggestions: stubSuggestSource{},
	}
	return deps, rt
}

// 2026-03-10 是周二
var testNow = time.Date(2026, 3, 10, 10, 0, 0, 0, time.UTC)

func TestBatteryScheduleFillsBatch(t *testing.T) {
	user := testUser()
	deps, rt := testDeps(t, &stubData{user: user})
	c := NewBatteryCheckin(deps)

	out, err := c.Schedule(context.Background(), user, testNow)
	require.NoError(t, err)
	assert.Equal(t, batteryBatchDays, out.Scheduled)

	// 今天的 20:00 还没到，批次从今天开始
	n, ok := rt.Get(user.ID, model.TypeBatteryCheckin, "battery:2026-03-10")
	require.True(t, ok)
	assert.Equal(t, 20, n.ScheduledFor.Hour())

	// 重复排期幂等
	out, err = c.Schedule(context.Background(), user, testNow)
	require.NoError(t, err)
	assert.Zero(t, out.Scheduled)
	assert.Equal(t, batteryBatchDays, rt.Count())

	// 批次充足时续排是空操作
	out, err = c.CheckAndExtendBatch(context.Background(), user, testNow)
	require.NoError(t, err)
	assert.Equal(t, "batch_sufficient", out.Reason)
}

func TestBatteryBatchExtension(t *testing.T) {
	user := testUser()
	deps, rt := testDeps(t, &stubData{user: user})
	c := NewBatteryCheckin(deps)

	_, err := c.Schedule(context.Background(), user, testNow)
	require.NoError(t, err)

	// 13 天后未来只剩一条，应续排整个批次
	later := testNow.AddDate(0, 0, 13)
	out, err := c.CheckAndExtendBatch(context.Background(), user, later)
	require.NoError(t, err)
	assert.Equal(t, 13, out.Scheduled)

	remaining, err := runtime.CountScheduledAfter(context.Background(), rt, user.ID, model.TypeBatteryCheckin, later)
	require.NoError(t, err)
	assert.Equal(t, batteryBatchDays, remaining)
}

func TestBatteryDisabledCancelsResiduals(t *testing.T) {
	user := testUser()
	deps, rt := testDeps(t, &stubData{user: user})
	c := NewBatteryCheckin(deps)

	_, err := c.Schedule(context.Background(), user, testNow)
	require.NoError(t, err)
	require.Equal(t, batteryBatchDays, rt.Count())

	user.CheckinRemindAt = ""
	out, err := c.Schedule(context.Background(), user, testNow)
	require.NoError(t, err)
	assert.Equal(t, "disabled", out.Reason)
	assert.Equal(t, batteryBatchDays, out.Cancelled)
	assert.Zero(t, rt.Count())
}

func TestBatteryScheduleDuringQuietHours(t *testing.T) {
	user := testUser()
	deps, rt := testDeps(t, &stubData{user: user})
	c := NewBatteryCheckin(deps)

	// 凌晨巡检落在勿扰时段，但投递时刻 20:00 不在，排期不受影响
	midnight := time.Date(2026, 3, 10, 0, 30, 0, 0, time.UTC)
	out, err := c.Schedule(context.Background(), user, midnight)
	require.NoError(t, err)
	assert.Empty(t, out.Reason)
	assert.Equal(t, batteryBatchDays, out.Scheduled)
	assert.Equal(t, batteryBatchDays, rt.Count())
}

func TestWeeklyReflectionSchedulesNextOccurrence(t *testing.T) {
	user := testUser()
	deps, rt := testDeps(t, &stubData{user: user})
	c := NewWeeklyReflection(deps)

	out, err := c.Schedule(context.Background(), user, testNow)
	require.NoError(t, err)
	assert.Equal(t, 1, out.Scheduled)

	// 周二排期，下个周日 18:00
	want := time.Date(2026, 3, 15, 18, 0, 0, 0, time.UTC)
	n, ok := rt.Get(user.ID, model.TypeWeeklyReflection, "reflection:2026-03-15")
	require.True(t, ok)
	assert.True(t, n.ScheduledFor.Equal(want))
}

func TestWeeklyReflectionEnsureScheduledHealsGhosts(t *testing.T) {
	user := testUser()
	deps, rt := testDeps(t, &stubData{user: user})
	c := NewWeeklyReflection(deps)

	_, err := c.Schedule(context.Background(), user, testNow)
	require.NoError(t, err)

	// 排期正确时自检不动
	out, err := c.EnsureScheduled(context.Background(), user, testNow)
	require.NoError(t, err)
	assert.Equal(t, "already_scheduled", out.Reason)

	// 偏好变更后时刻不再匹配，自检重建
	user.ReflectionWeekday = 3
	out, err = c.EnsureScheduled(context.Background(), user, testNow)
	require.NoError(t, err)
	assert.Equal(t, 1, out.Scheduled)
	assert.Equal(t, 1, out.Cancelled)

	entries, err := rt.ListScheduled(context.Background(), user.ID, model.TypeWeeklyReflection)
	require.NoError(t, err)
	require.Len(t, entries, 1, "only one reflection may be live")
	assert.Equal(t, time.Wednesday, entries[0].ScheduledFor.Weekday())
}

func TestEveningDigestScheduleAndDisable(t *testing.T) {
	user := testUser()
	deps, rt := testDeps(t, &stubData{user: user})
	c := NewEveningDigest(deps)

	out, err := c.Schedule(context.Background(), user, testNow)
	require.NoError(t, err)
	assert.Equal(t, 1, out.Scheduled)

	n, ok := rt.Get(user.ID, model.TypeEveningDigest, "digest:2026-03-10")
	require.True(t, ok)
	assert.Equal(t, 19, n.ScheduledFor.Hour())
	assert.Equal(t, 30, n.ScheduledFor.Minute())

	// 设定时刻已过则排到明天
	evening := time.Date(2026, 3, 10, 21, 0, 0, 0, time.UTC)
	out, err = c.Schedule(context.Background(), user, evening)
	require.NoError(t, err)
	assert.Equal(t, 1, out.Scheduled)
	assert.Equal(t, 1, out.Cancelled, "previous digest replaced")
	_, ok = rt.Get(user.ID, model.TypeEveningDigest, "digest:2026-03-11")
	assert.True(t, ok)

	// 关闭摘要时清掉残留
	user.DigestEnabled = false
	out, err = c.Schedule(context.Background(), user, testNow)
	require.NoError(t, err)
	assert.Equal(t, "disabled", out.Reason)
	assert.Equal(t, 1, out.Cancelled)
	assert.Zero(t, rt.Count())
}

func TestEveningDigestScheduleDuringQuietHours(t *testing.T) {
	user := testUser()
	deps, rt := testDeps(t, &stubData{user: user})
	c := NewEveningDigest(deps)

	// 凌晨巡检落在勿扰时段，摘要按 19:30 的投递时刻过闸
	midnight := time.Date(2026, 3, 10, 0, 30, 0, 0, time.UTC)
	out, err := c.Schedule(context.Background(), user, midnight)
	require.NoError(t, err)
	assert.Empty(t, out.Reason)
	assert.Equal(t, 1, out.Scheduled)

	n, ok := rt.Get(user.ID, model.TypeEveningDigest, "digest:2026-03-10")
	require.True(t, ok)
	assert.Equal(t, 19, n.ScheduledFor.Hour())
}

func TestGenerateDigestMergesAndDrains(t *testing.T) {
	user := testUser()
	completedAt := testNow.Add(-2 * time.Hour)
	data := &stubData{
		user: user,
		interactions: []model.Interaction{
			func() model.Interaction {
				it := model.Interaction{Status: model.InteractionStatusPlanned, Title: "晚饭", OccursAt: testNow.Add(8 * time.Hour)}
				it.ID = 1
				return it
			}(),
			func() model.Interaction {
				it := model.Interaction{Status: model.InteractionStatusCompleted, Title: "晨跑", OccursAt: completedAt, CompletedAt: &completedAt}
				it.ID = 2
				return it
			}(),
		},
	}
	deps, _ := testDeps(t, data)
	c := NewEveningDigest(deps)
	ctx := context.Background()

	// 积攒一条事件建议
	_, err := store.AddPendingEvent(ctx, user.ID, model.PendingEvent{
		EventID:           "anniversary:5:2026",
		Title:             "认识纪念日",
		SuggestedCategory: model.SuggestionCategoryLifeEvent,
	})
	require.NoError(t, err)

	digest, err := c.GenerateDigest(ctx, user, testNow)
	require.NoError(t, err)
	require.Len(t, digest.Items, 3)

	// 优先级降序：今日计划 > 今日完成 > 事件建议
	assert.Equal(t, model.DigestItemPlan, digest.Items[0].Kind)
	assert.Equal(t, model.DigestItemCompleted, digest.Items[1].Kind)
	assert.Equal(t, model.DigestItemSuggestion, digest.Items[2].Kind)
	assert.Equal(t, "anniversary:5:2026", digest.Items[2].EventID)

	// 批次生成后被清空
	events, err := store.ListPendingEvents(ctx, user.ID)
	require.NoError(t, err)
	assert.Empty(t, events)

	require.Len(t, data.digests, 1, "digest persisted")
}

func TestGenerateDigestPendingAndDistantTiers(t *testing.T) {
	user := testUser()
	annDate := time.Date(2020, 4, 2, 0, 0, 0, 0, time.UTC)
	friend := model.Friend{Name: "小林", AnniversaryDate: &annDate}
	friend.ID = 5
	data := &stubData{
		user:        user,
		anniversary: []model.Friend{friend},
		interactions: []model.Interaction{
			func() model.Interaction {
				it := model.Interaction{Status: model.InteractionStatusPlanned, Title: "晚饭", OccursAt: testNow.Add(8 * time.Hour)}
				it.ID = 1
				return it
			}(),
			func() model.Interaction {
				it := model.Interaction{Status: model.InteractionStatusPlanned, Title: "周末爬山", OccursAt: testNow.AddDate(0, 0, 3)}
				it.ID = 2
				return it
			}(),
		},
	}
	deps, _ := testDeps(t, data)
	c := NewEveningDigest(deps)

	digest, err := c.GenerateDigest(context.Background(), user, testNow)
	require.NoError(t, err)
	require.Len(t, digest.Items, 3)

	// 今日计划 > 后天以后的待确认计划 > 远期纪念日
	assert.Equal(t, model.DigestItemPlan, digest.Items[0].Kind)
	assert.Equal(t, model.DigestItemPending, digest.Items[1].Kind)
	assert.Equal(t, "周末爬山", digest.Items[1].Title)
	assert.Equal(t, model.DigestItemUpcoming, digest.Items[2].Kind)
	assert.Contains(t, digest.Items[2].Title, "小林")
}

func TestMemoryNudgeSchedulesMorningAfter(t *testing.T) {
	user := testUser()
	annDate := time.Date(2020, 3, 12, 0, 0, 0, 0, time.UTC)
	friend := model.Friend{Name: "小林", AnniversaryDate: &annDate}
	friend.ID = 5

	deps, rt := testDeps(t, &stubData{user: user, anniversary: []model.Friend{friend}})
	c := NewMemoryNudge(deps)

	out, err := c.Schedule(context.Background(), user, testNow)
	require.NoError(t, err)
	assert.Equal(t, 1, out.Scheduled)

	n, ok := rt.Get(user.ID, model.TypeMemoryNudge, "memory:2026-03-11")
	require.True(t, ok)
	assert.Equal(t, memoryNudgeHour, n.ScheduledFor.Hour())

	tap, ok := n.Payload.(*model.MemoryNudgeTap)
	require.True(t, ok)
	assert.Equal(t, int64(5), tap.FriendID)

	// 重新评估完全取代旧排期，同时最多一条在途
	out, err = c.Schedule(context.Background(), user, testNow)
	require.NoError(t, err)
	assert.Equal(t, 1, out.Scheduled)
	assert.Equal(t, 1, out.Cancelled)
	assert.Equal(t, 1, rt.Count())
}

func TestMemoryNudgeDisabledInResting(t *testing.T) {
	user := testUser()
	user.Season = model.SeasonResting
	annDate := time.Date(2020, 3, 12, 0, 0, 0, 0, time.UTC)
	friend := model.Friend{Name: "小林", AnniversaryDate: &annDate}
	friend.ID = 5

	deps, rt := testDeps(t, &stubData{user: user, anniversary: []model.Friend{friend}})
	c := NewMemoryNudge(deps)

	out, err := c.Schedule(context.Background(), user, testNow)
	require.NoError(t, err)
	assert.Equal(t, "season_disabled", out.Reason)
	assert.Zero(t, rt.Count())
}

func TestMemoryNudgeCancelledOnRestingTransition(t *testing.T) {
	user := testUser()
	annDate := time.Date(2020, 3, 12, 0, 0, 0, 0, time.UTC)
	friend := model.Friend{Name: "小林", AnniversaryDate: &annDate}
	friend.ID = 5

	deps, rt := testDeps(t, &stubData{user: user, anniversary: []model.Friend{friend}})
	c := NewMemoryNudge(deps)

	out, err := c.Schedule(context.Background(), user, testNow)
	require.NoError(t, err)
	require.Equal(t, 1, out.Scheduled)

	// 切到 resting 后巡检主动撤掉在途的回忆提醒
	user.Season = model.SeasonResting
	out, err = c.Schedule(context.Background(), user, testNow)
	require.NoError(t, err)
	assert.Equal(t, "season_disabled", out.Reason)
	assert.Equal(t, 1, out.Cancelled)
	assert.Zero(t, rt.Count())
}

func TestDeepeningNudgeCancelledOnRestingTransition(t *testing.T) {
	user := testUser()
	completedAt := testNow.Add(-2 * time.Hour)
	it := model.Interaction{
		Status:      model.InteractionStatusCompleted,
		Category:    model.CategoryMeet,
		Title:       "一起午饭",
		OccursAt:    completedAt,
		CompletedAt: &completedAt,
	}
	it.ID = 7
	data := &stubData{user: user, interactions: []model.Interaction{it}}
	deps, rt := testDeps(t, data)
	c := NewDeepeningNudge(deps)

	out, err := c.Schedule(context.Background(), user, testNow)
	require.NoError(t, err)
	require.Equal(t, 1, out.Scheduled)

	user.Season = model.SeasonResting
	out, err = c.Schedule(context.Background(), user, testNow)
	require.NoError(t, err)
	assert.Equal(t, "season_disabled", out.Reason)
	assert.Equal(t, 1, out.Cancelled)
	assert.Zero(t, rt.Count())
}

func suggestionCandidate(friendID int64, name string, urgency model.Urgency) suggest.Suggestion {
	return suggest.Suggestion{
		ID:         suggest.SuggestionID(friendID, "2026-03-10"),
		FriendID:   friendID,
		FriendName: name,
		Category:   model.SuggestionCategoryReconnect,
		Urgency:    urgency,
		DaysSince:  20,
	}
}

func TestFriendSuggestionDailyCap(t *testing.T) {
	user := testUser()
	user.MaxDailySuggestions = 2
	deps, rt := testDeps(t, &stubData{user: user, plannedWith: map[int64]bool{}})
	deps.Suggestions = stubSuggestSource{suggestions: []suggest.Suggestion{
		suggestionCandidate(1, "阿青", model.UrgencyHigh),
		suggestionCandidate(2, "小林", model.UrgencyHigh),
		suggestionCandidate(3, "老王", model.UrgencyHigh),
	}}
	c := NewFriendSuggestion(deps)

	out, err := c.Schedule(context.Background(), user, testNow)
	require.NoError(t, err)
	assert.Equal(t, 2, out.Scheduled, "daily cap limits the batch")
	assert.Equal(t, 2, rt.Count())

	// 余量用尽后再排直接拒绝
	out, err = c.Schedule(context.Background(), user, testNow)
	require.NoError(t, err)
	assert.Equal(t, "daily_limit", out.Reason)
}

func TestFriendSuggestionEnergyFilter(t *testing.T) {
	user := testUser()
	user.EnergyLevel = 20
	deps, rt := testDeps(t, &stubData{user: user, plannedWith: map[int64]bool{}})
	deps.Suggestions = stubSuggestSource{suggestions: []suggest.Suggestion{
		suggestionCandidate(1, "阿青", model.UrgencyLow),
		suggestionCandidate(2, "小林", model.UrgencyMedium),
		suggestionCandidate(3, "老王", model.UrgencyHigh),
		suggestionCandidate(4, "阿康", model.UrgencyCritical),
	}}
	c := NewFriendSuggestion(deps)

	out, err := c.Schedule(context.Background(), user, testNow)
	require.NoError(t, err)
	// 电量低于 30 只放行 high，critical 无条件放行
	assert.Equal(t, 2, out.Scheduled)
	assert.Equal(t, 2, rt.Count())

	_, ok := rt.Get(user.ID, model.TypeFriendSuggestion, suggest.SuggestionID(3, "2026-03-10"))
	assert.True(t, ok)
	_, ok = rt.Get(user.ID, model.TypeFriendSuggestion, suggest.SuggestionID(4, "2026-03-10"))
	assert.True(t, ok)
}

func TestFriendSuggestionEnergyBypass(t *testing.T) {
	user := testUser()
	user.EnergyLevel = 20
	user.RespectBattery = false
	deps, _ := testDeps(t, &stubData{user: user, plannedWith: map[int64]bool{}})
	deps.Suggestions = stubSuggestSource{suggestions: []suggest.Suggestion{
		suggestionCandidate(1, "阿青", model.UrgencyLow),
	}}
	c := NewFriendSuggestion(deps)

	out, err := c.Schedule(context.Background(), user, testNow)
	require.NoError(t, err)
	assert.Equal(t, 1, out.Scheduled, "battery opt-out disables the energy filter")
}

func TestFriendSuggestionCriticalUrgencyInResting(t *testing.T) {
	user := testUser()
	user.Season = model.SeasonResting
	deps, rt := testDeps(t, &stubData{user: user, plannedWith: map[int64]bool{}})
	critical := suggestionCandidate(1, "阿青", model.UrgencyCritical)
	critical.Category = model.SuggestionCategoryMaintain
	blocked := suggestionCandidate(2, "小林", model.UrgencyHigh)
	blocked.Category = model.SuggestionCategoryMaintain
	deps.Suggestions = stubSuggestSource{suggestions: []suggest.Suggestion{critical, blocked}}
	c := NewFriendSuggestion(deps)

	out, err := c.Schedule(context.Background(), user, testNow)
	require.NoError(t, err)
	// critical 紧急度豁免季节类别白名单，其余 maintain 候选仍被拦
	assert.Equal(t, 1, out.Scheduled)
	_, ok := rt.Get(user.ID, model.TypeFriendSuggestion, suggest.SuggestionID(1, "2026-03-10"))
	assert.True(t, ok)
	_, ok = rt.Get(user.ID, model.TypeFriendSuggestion, suggest.SuggestionID(2, "2026-03-10"))
	assert.False(t, ok)
}

func TestFriendSuggestionDedupeAndPlannedSkip(t *testing.T) {
	user := testUser()
	deps, rt := testDeps(t, &stubData{user: user, plannedWith: map[int64]bool{2: true}})
	deps.Suggestions = stubSuggestSource{suggestions: []suggest.Suggestion{
		suggestionCandidate(1, "阿青", model.UrgencyHigh),
		suggestionCandidate(2, "小林", model.UrgencyHigh),
		suggestionCandidate(3, "老王", model.UrgencyHigh),
	}}
	c := NewFriendSuggestion(deps)
	ctx := context.Background()

	// 朋友 1 在 24 小时去重窗口内
	require.NoError(t, store.MarkFriendSuggested(ctx, user.ID, 1))

	out, err := c.Schedule(ctx, user, testNow)
	require.NoError(t, err)
	// 朋友 1 被去重、朋友 2 已有约定，只剩朋友 3
	assert.Equal(t, 1, out.Scheduled)
	_, ok := rt.Get(user.ID, model.TypeFriendSuggestion, suggest.SuggestionID(3, "2026-03-10"))
	assert.True(t, ok)
}

func TestFriendSuggestionBudgetStopsBatch(t *testing.T) {
	user := testUser()
	user.Frequency = model.FrequencyLight // 每日预算 3
	user.MaxDailySuggestions = 5
	deps, rt := testDeps(t, &stubData{user: user, plannedWith: map[int64]bool{}})
	deps.Suggestions = stubSuggestSource{suggestions: []suggest.Suggestion{
		suggestionCandidate(1, "阿青", model.UrgencyHigh),
		suggestionCandidate(2, "小林", model.UrgencyHigh),
		suggestionCandidate(3, "老王", model.UrgencyHigh),
		suggestionCandidate(4, "阿康", model.UrgencyHigh),
		suggestionCandidate(5, "阿梅", model.UrgencyHigh),
	}}
	c := NewFriendSuggestion(deps)

	out, err := c.Schedule(context.Background(), user, testNow)
	require.NoError(t, err)
	assert.Equal(t, 3, out.Scheduled, "budget caps the batch below the daily suggestion cap")
	assert.Equal(t, 3, rt.Count())
}

func TestFriendSuggestionSpreadsAcrossTime(t *testing.T) {
	user := testUser()
	deps, rt := testDeps(t, &stubData{user: user, plannedWith: map[int64]bool{}})
	deps.Suggestions = stubSuggestSource{suggestions: []suggest.Suggestion{
		suggestionCandidate(1, "阿青", model.UrgencyHigh),
		suggestionCandidate(2, "小林", model.UrgencyHigh),
	}}
	c := NewFriendSuggestion(deps)

	_, err := c.Schedule(context.Background(), user, testNow)
	require.NoError(t, err)

	entries, err := rt.ListScheduled(context.Background(), user.ID, model.TypeFriendSuggestion)
	require.NoError(t, err)
	require.Len(t, entries, 2)

	// 第一条至少 2 小时后（含 ±15 分钟抖动），两条间隔至少 45 分钟
	assert.GreaterOrEqual(t, entries[0].ScheduledFor.Sub(testNow), suggestionMinGap-suggestionJitter)
	assert.GreaterOrEqual(t, entries[1].ScheduledFor.Sub(entries[0].ScheduledFor), suggestionStep-2*suggestionJitter)
}

func TestEventReminderScheduleFor(t *testing.T) {
	user := testUser()
	it := model.Interaction{
		Status:   model.InteractionStatusPlanned,
		Title:    "和小林吃晚饭",
		OccursAt: testNow.Add(5 * time.Hour),
	}
	it.ID = 7
	friend := model.Friend{Name: "小林"}
	friend.ID = 5

	deps, rt := testDeps(t, &stubData{user: user, linked: map[int64][]model.Friend{7: {friend}}})
	c := NewEventReminder(deps)

	out, err := c.ScheduleFor(context.Background(), user, &it, testNow)
	require.NoError(t, err)
	assert.Equal(t, 1, out.Scheduled)

	n, ok := rt.Get(user.ID, model.TypeEventReminder, "event:7")
	require.True(t, ok)
	assert.True(t, n.ScheduledFor.Equal(it.OccursAt.Add(-eventReminderLead)))

	// 改期后同 ID 覆盖
	it.OccursAt = testNow.Add(8 * time.Hour)
	_, err = c.ScheduleFor(context.Background(), user, &it, testNow)
	require.NoError(t, err)
	n, _ = rt.Get(user.ID, model.TypeEventReminder, "event:7")
	assert.True(t, n.ScheduledFor.Equal(it.OccursAt.Add(-eventReminderLead)))
	assert.Equal(t, 1, rt.Count())

	// 取消约定撤掉提醒
	require.NoError(t, c.CancelFor(context.Background(), user.ID, 7))
	assert.Zero(t, rt.Count())
}

func TestEventReminderEdgeTiming(t *testing.T) {
	user := testUser()
	deps, rt := testDeps(t, &stubData{user: user, linked: map[int64][]model.Friend{}})
	c := NewEventReminder(deps)
	ctx := context.Background()

	// 开始前不足一小时：立即提醒
	soon := model.Interaction{Status: model.InteractionStatusPlanned, OccursAt: testNow.Add(30 * time.Minute)}
	soon.ID = 8
	out, err := c.ScheduleFor(ctx, user, &soon, testNow)
	require.NoError(t, err)
	assert.Equal(t, 1, out.Scheduled)
	n, _ := rt.Get(user.ID, model.TypeEventReminder, "event:8")
	assert.True(t, n.ScheduledFor.After(testNow))

	// 已经开始的约定不提醒
	started := model.Interaction{Status: model.InteractionStatusPlanned, OccursAt: testNow.Add(-time.Minute)}
	started.ID = 9
	out, err = c.ScheduleFor(ctx, user, &started, testNow)
	require.NoError(t, err)
	assert.Equal(t, "already_started", out.Reason)

	// 非 planned 状态不提醒
	done := model.Interaction{Status: model.InteractionStatusCompleted, OccursAt: testNow.Add(5 * time.Hour)}
	done.ID = 10
	out, err = c.ScheduleFor(ctx, user, &done, testNow)
	require.NoError(t, err)
	assert.Equal(t, "not_planned", out.Reason)
}

func TestEventReminderIgnoresQuietHoursAndBudget(t *testing.T) {
	user := testUser()
	// 勿扰深夜 + resting 季节，关键渠道仍然照常
	user.Season = model.SeasonResting
	night := time.Date(2026, 3, 10, 23, 0, 0, 0, time.UTC)

	it := model.Interaction{Status: model.InteractionStatusPlanned, OccursAt: night.Add(5 * time.Hour)}
	it.ID = 7

	deps, rt := testDeps(t, &stubData{user: user, linked: map[int64][]model.Friend{}})
	c := NewEventReminder(deps)

	out, err := c.ScheduleFor(context.Background(), user, &it, night)
	require.NoError(t, err)
	assert.Equal(t, 1, out.Scheduled)
	assert.Equal(t, 1, rt.Count())
}

func TestDeepeningNudgeScheduleFor(t *testing.T) {
	user := testUser()
	completedAt := testNow.Add(-time.Hour)
	it := model.Interaction{
		Status:      model.InteractionStatusCompleted,
		Category:    model.CategoryMeet,
		CompletedAt: &completedAt,
	}
	it.ID = 7
	friend := model.Friend{Name: "小林"}
	friend.ID = 5

	deps, rt := testDeps(t, &stubData{user: user, linked: map[int64][]model.Friend{7: {friend}}})
	c := NewDeepeningNudge(deps)
	ctx := context.Background()

	out, err := c.ScheduleFor(ctx, user, &it, testNow)
	require.NoError(t, err)
	assert.Equal(t, 1, out.Scheduled)

	n, ok := rt.Get(user.ID, model.TypeDeepeningNudge, "deepening:7")
	require.True(t, ok)
	delay := n.ScheduledFor.Sub(completedAt)
	assert.GreaterOrEqual(t, delay, deepeningMinDelay)
	assert.Less(t, delay, deepeningMaxDelay)

	// 同一互动当日只追一次
	out, err = c.ScheduleFor(ctx, user, &it, testNow)
	require.NoError(t, err)
	assert.Equal(t, "already_nudged", out.Reason)
}

func TestDeepeningNudgeEligibility(t *testing.T) {
	user := testUser()
	deps, _ := testDeps(t, &stubData{user: user, linked: map[int64][]model.Friend{}})
	c := NewDeepeningNudge(deps)
	ctx := context.Background()

	// message 类互动不追
	completedAt := testNow.Add(-time.Hour)
	msg := model.Interaction{Status: model.InteractionStatusCompleted, Category: model.CategoryMessage, CompletedAt: &completedAt}
	msg.ID = 1
	out, err := c.ScheduleFor(ctx, user, &msg, testNow)
	require.NoError(t, err)
	assert.Equal(t, "category_not_eligible", out.Reason)

	// 完成超过 24 小时不追
	stale := testNow.Add(-25 * time.Hour)
	old := model.Interaction{Status: model.InteractionStatusCompleted, Category: model.CategoryMeet, CompletedAt: &stale}
	old.ID = 2
	out, err = c.ScheduleFor(ctx, user, &old, testNow)
	require.NoError(t, err)
	assert.Equal(t, "too_old", out.Reason)
}

func TestDeepeningNudgeDailyLimit(t *testing.T) {
	user := testUser()
	completedAt := testNow.Add(-time.Hour)
	deps, rt := testDeps(t, &stubData{user: user, linked: map[int64][]model.Friend{}})
	c := NewDeepeningNudge(deps)
	ctx := context.Background()

	for i := int64(1); i <= 3; i++ {
		it := model.Interaction{Status: model.InteractionStatusCompleted, Category: model.CategoryMeet, CompletedAt: &completedAt}
		it.ID = i
		out, err := c.ScheduleFor(ctx, user, &it, testNow)
		require.NoError(t, err)
		if i <= store.DeepeningDailyLimit {
			assert.Equal(t, 1, out.Scheduled, "interaction %d", i)
		} else {
			assert.Equal(t, "daily_limit", out.Reason)
		}
	}
	assert.Equal(t, store.DeepeningDailyLimit, rt.Count())
}

func TestEventSuggestionBatchesPendingEvents(t *testing.T) {
	user := testUser()
	annDate := testNow.AddDate(0, 0, 3)
	friend := model.Friend{Name: "小林", AnniversaryDate: &annDate}
	friend.ID = 5

	lifeEvent := model.Interaction{
		Status:   model.InteractionStatusPlanned,
		Category: model.CategoryLifeEvent,
		Title:    "小林的乔迁",
		OccursAt: testNow.AddDate(0, 0, 4),
	}
	lifeEvent.ID = 7

	deps, rt := testDeps(t, &stubData{
		user:         user,
		anniversary:  []model.Friend{friend},
		interactions: []model.Interaction{lifeEvent},
		linked:       map[int64][]model.Friend{7: {friend}},
	})
	c := NewEventSuggestion(deps)
	ctx := context.Background()

	out, err := c.Schedule(ctx, user, testNow)
	require.NoError(t, err)
	assert.Equal(t, 2, out.Scheduled)
	assert.Zero(t, rt.Count(), "event suggestions never push directly")

	// 重复巡检不重复积攒
	out, err = c.Schedule(ctx, user, testNow)
	require.NoError(t, err)
	assert.Zero(t, out.Scheduled)

	events, err := store.ListPendingEvents(ctx, user.ID)
	require.NoError(t, err)
	assert.Len(t, events, 2)

	// Cancel 清空批次
	cancelOut, err := c.Cancel(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, cancelOut.Cancelled)
}

func TestGatesSuppressAfterRepeatedIgnores(t *testing.T) {
	user := testUser()
	annDate := time.Date(2020, 3, 12, 0, 0, 0, 0, time.UTC)
	friend := model.Friend{Name: "小林", AnniversaryDate: &annDate}
	friend.ID = 5

	deps, rt := testDeps(t, &stubData{user: user, anniversary: []model.Friend{friend}})
	c := NewMemoryNudge(deps)
	ctx := context.Background()

	for i := 0; i < store.IgnoreSuppressThreshold; i++ {
		require.NoError(t, store.IncrementIgnoreCount(ctx, user.ID, model.TypeMemoryNudge))
	}

	out, err := c.Schedule(ctx, user, testNow)
	require.NoError(t, err)
	assert.Equal(t, "ignore_suppressed", out.Reason)
	assert.Zero(t, rt.Count())

	// 点按任意该渠道通知后恢复
	require.NoError(t, store.ResetIgnoreCount(ctx, user.ID, model.TypeMemoryNudge))
	out, err = c.Schedule(ctx, user, testNow)
	require.NoError(t, err)
	assert.Equal(t, 1, out.Scheduled)
}

func TestGatesGracePeriod(t *testing.T) {
	user := testUser()
	deps, rt := testDeps(t, &stubData{user: user})
	// 档案太空：一个朋友、零互动
	deps.Grace = policy.NewGraceEvaluator(stubCounter{friends: 1, interactions: 0})

	battery := NewBatteryCheckin(deps)
	out, err := battery.Schedule(context.Background(), user, testNow)
	require.NoError(t, err)
	assert.Equal(t, "grace_period", out.Reason)
	assert.Zero(t, rt.Count())
}

type captureIntents struct {
	msgs []model.UIIntentMessage
}

func (c *captureIntents) PublishUIIntent(ctx context.Context, msg model.UIIntentMessage) error {
	c.msgs = append(c.msgs, msg)
	return nil
}

func TestResponseRouterHandleTap(t *testing.T) {
	user := testUser()
	deps, _ := testDeps(t, &stubData{user: user})
	intents := &captureIntents{}
	router := NewResponseRouter(deps, NewEveningDigest(deps), intents)
	ctx := context.Background()

	// 点按前积累两次忽略
	require.NoError(t, store.IncrementIgnoreCount(ctx, user.ID, model.TypeFriendSuggestion))
	require.NoError(t, store.IncrementIgnoreCount(ctx, user.ID, model.TypeFriendSuggestion))

	raw, err := model.EncodeTapPayload(model.FriendSuggestionTap{FriendID: 5, SuggestionID: "suggest:5:2026-03-10"})
	require.NoError(t, err)

	intent, err := router.HandleTap(ctx, user.ID, []byte(raw))
	require.NoError(t, err)
	assert.Equal(t, model.IntentOpenFriend, intent)

	// 点按清零忽略计数
	count, err := store.GetIgnoreCount(ctx, user.ID, model.TypeFriendSuggestion)
	require.NoError(t, err)
	assert.Zero(t, count)

	require.Len(t, intents.msgs, 1)
	assert.Equal(t, int64(5), intents.msgs[0].RefID)
	assert.Equal(t, model.TypeFriendSuggestion, intents.msgs[0].Source)
}

func TestResponseRouterDigestTapGenerates(t *testing.T) {
	user := testUser()
	data := &stubData{user: user}
	deps, _ := testDeps(t, data)
	router := NewResponseRouter(deps, NewEveningDigest(deps), &captureIntents{})

	raw, err := model.EncodeTapPayload(model.EveningDigestTap{Date: "2026-03-10"})
	require.NoError(t, err)

	intent, err := router.HandleTap(context.Background(), user.ID, []byte(raw))
	require.NoError(t, err)
	assert.Equal(t, model.IntentOpenDigest, intent)
	assert.Len(t, data.digests, 1, "digest tap generates content on demand")
}

func TestResponseRouterRejectsMalformedPayload(t *testing.T) {
	user := testUser()
	deps, _ := testDeps(t, &stubData{user: user})
	router := NewResponseRouter(deps, NewEveningDigest(deps), &captureIntents{})

	_, err := router.HandleTap(context.Background(), user.ID, []byte(`{"type":"carrier_pigeon"}`))
	assert.Error(t, err)
}
