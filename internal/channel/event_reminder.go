package channel

import (
	"context"
	"fmt"
	"strings"
	"time"

	"Weave/internal/model"
	"Weave/internal/registry"
	"Weave/internal/runtime"
)

const (
	// eventReminderLead 约定开始前多久提醒
	eventReminderLead = time.Hour
	// eventRecoveryWindow 冷启动恢复时向前看的窗口
	eventRecoveryWindow = 7 * 24 * time.Hour
)

// EventReminder 约定提醒。用户自己安排的约定开始前一小时提醒，
// 关键渠道，不受季节、预算与勿扰限制。
type EventReminder struct {
	deps *Deps
}

func NewEventReminder(deps *Deps) *EventReminder {
	return &EventReminder{deps: deps}
}

func (c *EventReminder) Type() model.NotificationType {
	return model.TypeEventReminder
}

func eventNotificationID(interactionID int64) string {
	return fmt.Sprintf("event:%d", interactionID)
}

// ScheduleFor 为单个约定排期提醒。约定改期时同 ID 覆盖旧排期。
func (c *EventReminder) ScheduleFor(ctx context.Context, user *model.User, it *model.Interaction, now time.Time) (Outcome, error) {
	if it.Status != model.InteractionStatusPlanned {
		return skipped("not_planned"), nil
	}

	sendAt := it.OccursAt.Add(-eventReminderLead)
	if !sendAt.After(now) {
		// 开始前一小时已过但约定还没开始，立即提醒
		if it.OccursAt.After(now) {
			sendAt = now.Add(time.Minute)
		} else {
			return skipped("already_started"), nil
		}
	}

	friends, err := c.deps.Data.ListInteractionFriends(ctx, it.ID)
	if err != nil {
		return Outcome{}, err
	}
	names := make([]string, 0, len(friends))
	for _, f := range friends {
		names = append(names, f.Name)
	}
	friendNames := strings.Join(names, ", ")
	if friendNames == "" {
		friendNames = "friends"
	}

	def := registry.MustGet(c.Type())
	title, body := registry.ResolveTemplate(def, "default", map[string]string{
		"event_title":  it.Title,
		"friend_names": friendNames,
		"event_time":   it.OccursAt.Format("15:04"),
	})
	err = c.deps.Runtime.Schedule(ctx, runtime.Notification{
		ID:           eventNotificationID(it.ID),
		UserID:       user.ID,
		Type:         c.Type(),
		Title:        title,
		Body:         body,
		Payload:      &model.EventReminderTap{InteractionID: it.ID},
		ScheduledFor: sendAt,
	})
	if err != nil {
		return Outcome{}, err
	}
	return Outcome{Scheduled: 1}, nil
}

// CancelFor 约定取消或完成时撤掉提醒
func (c *EventReminder) CancelFor(ctx context.Context, userID, interactionID int64) error {
	return c.deps.Runtime.Cancel(ctx, userID, c.Type(), eventNotificationID(interactionID))
}

// Schedule 等价于未来 7 天的全量恢复
func (c *EventReminder) Schedule(ctx context.Context, user *model.User, now time.Time) (Outcome, error) {
	return c.ScheduleAll(ctx, user, now)
}

// ScheduleAll 冷启动恢复：为窗口内全部待执行约定重建提醒
func (c *EventReminder) ScheduleAll(ctx context.Context, user *model.User, now time.Time) (Outcome, error) {
	its, err := c.deps.Data.ListPlannedBetween(ctx, user.ID, now, now.Add(eventRecoveryWindow))
	if err != nil {
		return Outcome{}, err
	}

	out := Outcome{}
	for i := range its {
		res, err := c.ScheduleFor(ctx, user, &its[i], now)
		if err != nil {
			return out, err
		}
		out.Scheduled += res.Scheduled
	}
	return out, nil
}

func (c *EventReminder) Cancel(ctx context.Context, userID int64) (Outcome, error) {
	n, err := c.deps.Runtime.CancelType(ctx, userID, c.Type())
	if err != nil {
		return Outcome{}, err
	}
	return Outcome{Cancelled: n}, nil
}
