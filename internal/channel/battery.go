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

const (
	// batteryBatchDays 电量打卡一次排满的天数
	batteryBatchDays = 14
	// batteryExtendThreshold 未来在途少于该值时续排整个批次
	batteryExtendThreshold = 2
)

// BatteryCheckin 社交电量打卡。每天固定时刻一条，批量排期 14 天，
// 批次快耗尽时滚动续排。
type BatteryCheckin struct {
	deps *Deps
}

func NewBatteryCheckin(deps *Deps) *BatteryCheckin {
	return &BatteryCheckin{deps: deps}
}

func (c *BatteryCheckin) Type() model.NotificationType {
	return model.TypeBatteryCheckin
}

func batteryNotificationID(day string) string {
	return "battery:" + day
}

// Schedule 补齐未来 14 天的打卡批次。已排期的日子跳过，幂等。
func (c *BatteryCheckin) Schedule(ctx context.Context, user *model.User, now time.Time) (Outcome, error) {
	if user.CheckinRemindAt == "" {
		// 关闭打卡时清掉残留批次
		n, err := c.deps.Runtime.CancelType(ctx, user.ID, c.Type())
		if err != nil {
			return Outcome{}, err
		}
		return Outcome{Cancelled: n, Reason: "disabled"}, nil
	}

	remindAt, err := utils.ParseTime(user.CheckinRemindAt, now)
	if err != nil {
		return Outcome{}, fmt.Errorf("invalid checkin remind time %q: %w", user.CheckinRemindAt, err)
	}

	// 闸门按首条实际投递时刻评估，排期动作本身可以发生在勿扰时段内
	firstAt := remindAt
	if !firstAt.After(now) {
		firstAt = firstAt.AddDate(0, 0, 1)
	}
	if ok, reason := c.deps.passGates(ctx, user, c.Type(), "", "", firstAt); !ok {
		return recordDecline(ctx, c.Type(), reason), nil
	}

	existing, err := c.deps.Runtime.ListScheduled(ctx, user.ID, c.Type())
	if err != nil {
		return Outcome{}, err
	}
	scheduled := make(map[string]bool, len(existing))
	for _, e := range existing {
		if e.ScheduledFor.After(now) {
			scheduled[e.NotificationID] = true
		}
	}

	def := registry.MustGet(c.Type())
	out := Outcome{}
	for i := 0; i < batteryBatchDays; i++ {
		day := now.AddDate(0, 0, i)
		sendAt := time.Date(day.Year(), day.Month(), day.Day(),
			remindAt.Hour(), remindAt.Minute(), 0, 0, now.Location())
		if !sendAt.After(now) {
			continue // 今天的时刻已过
		}

		id := batteryNotificationID(utils.DayKey(day))
		if scheduled[id] {
			continue
		}

		title, body := registry.ResolveTemplate(def, "default", nil)
		err := c.deps.Runtime.Schedule(ctx, runtime.Notification{
			ID:           id,
			UserID:       user.ID,
			Type:         c.Type(),
			Title:        title,
			Body:         body,
			Payload:      &model.BatteryCheckinTap{Date: utils.DayKey(day)},
			ScheduledFor: sendAt,
		})
		if err != nil {
			return out, err
		}
		out.Scheduled++
	}
	return out, nil
}

func (c *BatteryCheckin) Cancel(ctx context.Context, userID int64) (Outcome, error) {
	n, err := c.deps.Runtime.CancelType(ctx, userID, c.Type())
	if err != nil {
		return Outcome{}, err
	}
	return Outcome{Cancelled: n}, nil
}

// CheckAndExtendBatch 未来在途不足两条时重新排满批次
func (c *BatteryCheckin) CheckAndExtendBatch(ctx context.Context, user *model.User, now time.Time) (Outcome, error) {
	if user.CheckinRemindAt == "" {
		return skipped("disabled"), nil
	}

	remaining, err := runtime.CountScheduledAfter(ctx, c.deps.Runtime, user.ID, c.Type(), now)
	if err != nil {
		return Outcome{}, err
	}
	if remaining >= batteryExtendThreshold {
		return skipped("batch_sufficient"), nil
	}
	return c.Schedule(ctx, user, now)
}

// ScheduleAll 冷启动恢复，等价于排满一个批次
func (c *BatteryCheckin) ScheduleAll(ctx context.Context, user *model.User, now time.Time) (Outcome, error) {
	return c.Schedule(ctx, user, now)
}
