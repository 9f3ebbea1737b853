package channel

import (
	"context"
	"fmt"
	"time"

	"Weave/internal/model"
	"Weave/internal/registry"
	"Weave/internal/runtime"
	"Weave/internal/store"
	"Weave/utils"
)

// EveningDigest 晚间摘要。每天用户设定的时刻一条，内容在点按时生成：
// 当日计划、完成情况、积攒的事件建议合并为一份可反复查看的摘要。
type EveningDigest struct {
	deps *Deps
}

func NewEveningDigest(deps *Deps) *EveningDigest {
	return &EveningDigest{deps: deps}
}

func (c *EveningDigest) Type() model.NotificationType {
	return model.TypeEveningDigest
}

func digestNotificationID(day string) string {
	return "digest:" + day
}

func (c *EveningDigest) Schedule(ctx context.Context, user *model.User, now time.Time) (Outcome, error) {
	if !user.DigestEnabled {
		// 关闭的渠道不只是不排新，还要清掉残留
		n, err := c.deps.Runtime.CancelType(ctx, user.ID, c.Type())
		if err != nil {
			return Outcome{}, err
		}
		return Outcome{Cancelled: n, Reason: "disabled"}, nil
	}

	sendAt, err := utils.ParseTime(user.DigestTime, now)
	if err != nil {
		return Outcome{}, fmt.Errorf("invalid digest time %q: %w", user.DigestTime, err)
	}
	if !sendAt.After(now) {
		sendAt = sendAt.AddDate(0, 0, 1)
	}

	// 闸门按投递时刻评估，凌晨巡检不应被勿扰时段拦下
	if ok, reason := c.deps.passGates(ctx, user, c.Type(), "", "", sendAt); !ok {
		return recordDecline(ctx, c.Type(), reason), nil
	}

	cancelled, err := c.deps.Runtime.CancelType(ctx, user.ID, c.Type())
	if err != nil {
		return Outcome{}, err
	}

	def := registry.MustGet(c.Type())
	title, body := registry.ResolveTemplate(def, "default", map[string]string{
		"item_count": "A few",
	})
	err = c.deps.Runtime.Schedule(ctx, runtime.Notification{
		ID:           digestNotificationID(utils.DayKey(sendAt)),
		UserID:       user.ID,
		Type:         c.Type(),
		Title:        title,
		Body:         body,
		Payload:      &model.EveningDigestTap{Date: utils.DayKey(sendAt)},
		ScheduledFor: sendAt,
	})
	if err != nil {
		return Outcome{}, err
	}
	return Outcome{Scheduled: 1, Cancelled: cancelled}, nil
}

func (c *EveningDigest) Cancel(ctx context.Context, userID int64) (Outcome, error) {
	n, err := c.deps.Runtime.CancelType(ctx, userID, c.Type())
	if err != nil {
		return Outcome{}, err
	}
	return Outcome{Cancelled: n}, nil
}

// EnsureScheduled 无在途排期时补排
func (c *EveningDigest) EnsureScheduled(ctx context.Context, user *model.User, now time.Time) (Outcome, error) {
	if !user.DigestEnabled {
		return c.Schedule(ctx, user, now) // 走取消残留的分支
	}
	entries, err := c.deps.Runtime.ListScheduled(ctx, user.ID, c.Type())
	if err != nil {
		return Outcome{}, err
	}
	for _, e := range entries {
		if e.ScheduledFor.After(now) {
			return skipped("already_scheduled"), nil
		}
	}
	return c.Schedule(ctx, user, now)
}

// 摘要条目优先级（越大越靠前）
const (
	digestPriorityTodayPlan      = 100
	digestPriorityTomorrowEvent  = 90
	digestPriorityCompletedToday = 80
	digestPriorityPendingPlan    = 70
	digestPriorityEventCritical  = 60
	digestPriorityEventHigh      = 50
	digestPriorityEventOther     = 40
	digestPriorityDistantDate    = 30
)

// digestDistantLookaheadDays 摘要尾部带出的远期关键日期窗口
const digestDistantLookaheadDays = 30

// GenerateDigest 生成并落库当日摘要，重复生成覆盖旧内容。
// 积攒的事件建议批次在这里被取出并清空。
func (c *EveningDigest) GenerateDigest(ctx context.Context, user *model.User, day time.Time) (*model.DailyDigest, error) {
	start := utils.StartOfDay(day)
	end := start.Add(24 * time.Hour)

	var items model.DigestItems

	planned, err := c.deps.Data.ListPlannedBetween(ctx, user.ID, start, end)
	if err != nil {
		return nil, err
	}
	for _, it := range planned {
		items = append(items, model.DigestItem{
			Kind:     model.DigestItemPlan,
			Priority: digestPriorityTodayPlan,
			Title:    it.Title,
			RefID:    it.ID,
		})
	}

	tomorrow, err := c.deps.Data.ListPlannedBetween(ctx, user.ID, end, end.Add(24*time.Hour))
	if err != nil {
		return nil, err
	}
	for _, it := range tomorrow {
		if it.Category == model.CategoryLifeEvent {
			items = append(items, model.DigestItem{
				Kind:     model.DigestItemUpcoming,
				Priority: digestPriorityTomorrowEvent,
				Title:    it.Title,
				RefID:    it.ID,
			})
		}
	}

	// 后天起一周内的计划，等用户确认
	pending, err := c.deps.Data.ListPlannedBetween(ctx, user.ID, end.Add(24*time.Hour), end.Add(8*24*time.Hour))
	if err != nil {
		return nil, err
	}
	for _, it := range pending {
		items = append(items, model.DigestItem{
			Kind:     model.DigestItemPending,
			Priority: digestPriorityPendingPlan,
			Title:    it.Title,
			RefID:    it.ID,
		})
	}

	completed, err := c.deps.Data.ListCompletedBetween(ctx, user.ID, start, end)
	if err != nil {
		return nil, err
	}
	for _, it := range completed {
		items = append(items, model.DigestItem{
			Kind:     model.DigestItemCompleted,
			Priority: digestPriorityCompletedToday,
			Title:    it.Title,
			RefID:    it.ID,
		})
	}

	events, err := store.DrainPendingEvents(ctx, user.ID)
	if err != nil {
		return nil, err
	}
	for _, ev := range events {
		priority := digestPriorityEventOther
		switch ev.SuggestedCategory {
		case model.SuggestionCategoryCriticalDrift:
			priority = digestPriorityEventCritical
		case model.SuggestionCategoryLifeEvent:
			priority = digestPriorityEventHigh
		}
		items = append(items, model.DigestItem{
			Kind:     model.DigestItemSuggestion,
			Priority: priority,
			Title:    ev.Title,
			EventID:  ev.EventID,
		})
	}

	// 远期纪念日放在最末，仅作预告
	distant, err := c.deps.Data.ListFriendsWithAnniversaryAround(ctx, user.ID,
		end.Add(24*time.Hour), start.AddDate(0, 0, digestDistantLookaheadDays))
	if err != nil {
		return nil, err
	}
	for _, f := range distant {
		items = append(items, model.DigestItem{
			Kind:     model.DigestItemUpcoming,
			Priority: digestPriorityDistantDate,
			Title:    "Anniversary with " + f.Name,
			RefID:    f.ID,
		})
	}

	items.SortByPriority()

	digest := &model.DailyDigest{
		UserID:      user.ID,
		DigestDate:  start,
		Items:       items,
		GeneratedAt: time.Now(),
	}
	if err := c.deps.Data.UpsertDailyDigest(ctx, digest); err != nil {
		return nil, err
	}
	return digest, nil
}
