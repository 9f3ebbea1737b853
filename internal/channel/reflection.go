package channel

import (
	"context"
	"fmt"
	"time"

	"Weave/internal/model"
	"Weave/internal/registry"
	"Weave/internal/runtime"
	"Weave/utils"
)

// WeeklyReflection 每周回顾。每周固定的星期与时刻一条，
// 始终只保留一条在途排期。
type WeeklyReflection struct {
	deps *Deps
}

func NewWeeklyReflection(deps *Deps) *WeeklyReflection {
	return &WeeklyReflection{deps: deps}
}

func (c *WeeklyReflection) Type() model.NotificationType {
	return model.TypeWeeklyReflection
}

func reflectionNotificationID(day string) string {
	return "reflection:" + day
}

// nextOccurrence 下一次回顾时刻（严格晚于 now）
func (c *WeeklyReflection) nextOccurrence(user *model.User, now time.Time) (time.Time, error) {
	at, err := utils.ParseTime(user.ReflectionTime, now)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid reflection time %q: %w", user.ReflectionTime, err)
	}

	daysAhead := (user.ReflectionWeekday - int(now.Weekday()) + 7) % 7
	candidate := time.Date(now.Year(), now.Month(), now.Day(),
		at.Hour(), at.Minute(), 0, 0, now.Location()).AddDate(0, 0, daysAhead)
	if !candidate.After(now) {
		candidate = candidate.AddDate(0, 0, 7)
	}
	return candidate, nil
}

func (c *WeeklyReflection) Schedule(ctx context.Context, user *model.User, now time.Time) (Outcome, error) {
	if ok, reason := c.deps.passGates(ctx, user, c.Type(), "", "", now); !ok {
		return recordDecline(ctx, c.Type(), reason), nil
	}

	sendAt, err := c.nextOccurrence(user, now)
	if err != nil {
		return Outcome{}, err
	}

	// 只保留一条在途：旧排期（包括改偏好前的残留）先清掉
	cancelled, err := c.deps.Runtime.CancelType(ctx, user.ID, c.Type())
	if err != nil {
		return Outcome{}, err
	}

	def := registry.MustGet(c.Type())
	title, body := registry.ResolveTemplate(def, "default", map[string]string{
		"friend_count": "your",
	})
	err = c.deps.Runtime.Schedule(ctx, runtime.Notification{
		ID:           reflectionNotificationID(utils.DayKey(sendAt)),
		UserID:       user.ID,
		Type:         c.Type(),
		Title:        title,
		Body:         body,
		Payload:      &model.WeeklyReflectionTap{WeekOf: utils.DayKey(utils.StartOfDay(sendAt))},
		ScheduledFor: sendAt,
	})
	if err != nil {
		return Outcome{}, err
	}
	return Outcome{Scheduled: 1, Cancelled: cancelled}, nil
}

func (c *WeeklyReflection) Cancel(ctx context.Context, userID int64) (Outcome, error) {
	n, err := c.deps.Runtime.CancelType(ctx, userID, c.Type())
	if err != nil {
		return Outcome{}, err
	}
	return Outcome{Cancelled: n}, nil
}

// EnsureScheduled 自检：在途恰好一条且时刻正确则不动，
// 否则重建。偏好变更后遗留的幽灵排期在这里被清理。
func (c *WeeklyReflection) EnsureScheduled(ctx context.Context, user *model.User, now time.Time) (Outcome, error) {
	expected, err := c.nextOccurrence(user, now)
	if err != nil {
		return Outcome{}, err
	}

	entries, err := c.deps.Runtime.ListScheduled(ctx, user.ID, c.Type())
	if err != nil {
		return Outcome{}, err
	}

	if len(entries) == 1 && entries[0].ScheduledFor.Equal(expected) {
		return skipped("already_scheduled"), nil
	}
	return c.Schedule(ctx, user, now)
}
