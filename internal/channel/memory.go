package channel

import (
	"context"
	"time"

	"Weave/internal/model"
	"Weave/internal/policy"
	"Weave/internal/registry"
	"Weave/internal/runtime"
	"Weave/utils"
)

const (
	// memoryWindowDays 纪念日匹配窗口 ±3 天
	memoryWindowDays = 3
	// memoryNudgeHour 回忆提醒固定在次日上午
	memoryNudgeHour = 9
)

// MemoryNudge 回忆提醒。纪念日或一年前的共同经历临近时，
// 次日上午轻轻提一句。同时最多一条在途。
type MemoryNudge struct {
	deps *Deps
}

func NewMemoryNudge(deps *Deps) *MemoryNudge {
	return &MemoryNudge{deps: deps}
}

func (c *MemoryNudge) Type() model.NotificationType {
	return model.TypeMemoryNudge
}

func memoryNotificationID(day string) string {
	return "memory:" + day
}

// findMemory 在 ±3 天窗口内找一条可提醒的回忆，优先纪念日，
// 其次一年前完成的互动。
func (c *MemoryNudge) findMemory(ctx context.Context, user *model.User, now time.Time) (*model.Friend, string, string, error) {
	from := now.AddDate(0, 0, -memoryWindowDays)
	to := now.AddDate(0, 0, memoryWindowDays)

	friends, err := c.deps.Data.ListFriendsWithAnniversaryAround(ctx, user.ID, from, to)
	if err != nil {
		return nil, "", "", err
	}
	if len(friends) > 0 {
		f := friends[0]
		return &f, "the day you met", utils.DayKey(*f.AnniversaryDate), nil
	}

	// 一年前同一窗口内完成的互动
	yearAgo := now.AddDate(-1, 0, 0)
	its, err := c.deps.Data.ListCompletedBetween(ctx, user.ID,
		yearAgo.AddDate(0, 0, -memoryWindowDays), yearAgo.AddDate(0, 0, memoryWindowDays+1))
	if err != nil {
		return nil, "", "", err
	}
	for _, it := range its {
		linked, err := c.deps.Data.ListInteractionFriends(ctx, it.ID)
		if err != nil {
			return nil, "", "", err
		}
		if len(linked) == 0 {
			continue
		}
		title := it.Title
		if title == "" {
			title = "a good time"
		}
		return &linked[0], title, utils.DayKey(it.OccursAt), nil
	}
	return nil, "", "", nil
}

func (c *MemoryNudge) Schedule(ctx context.Context, user *model.User, now time.Time) (Outcome, error) {
	// 季节关停渠道时主动清场，在途的也不投
	if registry.GetSeasonProfile(user.Prefs().Season).DisabledTypes[c.Type()] {
		n, err := c.deps.Runtime.CancelType(ctx, user.ID, c.Type())
		if err != nil {
			return Outcome{}, err
		}
		return Outcome{Cancelled: n, Reason: "season_disabled"}, nil
	}

	friend, memoryTitle, memoryDate, err := c.findMemory(ctx, user, now)
	if err != nil {
		return Outcome{}, err
	}
	if friend == nil {
		return skipped("no_memory"), nil
	}

	// 次日上午投递，落在勿扰时段则顺延到勿扰结束
	sendAt := time.Date(now.Year(), now.Month(), now.Day(),
		memoryNudgeHour, 0, 0, 0, now.Location()).AddDate(0, 0, 1)
	prefs := user.Prefs()
	sendAt = policy.NextQuietEnd(prefs.QuietHoursStart, prefs.QuietHoursEnd, sendAt)

	if ok, reason := c.deps.passGates(ctx, user, c.Type(), "", "", sendAt); !ok {
		return recordDecline(ctx, c.Type(), reason), nil
	}

	// 新一轮评估完全取代旧排期，同时最多一条在途
	cancelled, err := c.deps.Runtime.CancelType(ctx, user.ID, c.Type())
	if err != nil {
		return Outcome{}, err
	}

	def := registry.MustGet(c.Type())
	title, body := registry.ResolveTemplate(def, "default", map[string]string{
		"friend_name":  friend.Name,
		"memory_title": memoryTitle,
	})
	err = c.deps.Runtime.Schedule(ctx, runtime.Notification{
		ID:           memoryNotificationID(utils.DayKey(sendAt)),
		UserID:       user.ID,
		Type:         c.Type(),
		Title:        title,
		Body:         body,
		Payload:      &model.MemoryNudgeTap{FriendID: friend.ID, MemoryDate: memoryDate},
		ScheduledFor: sendAt,
	})
	if err != nil {
		return Outcome{}, err
	}
	return Outcome{Scheduled: 1, Cancelled: cancelled}, nil
}

func (c *MemoryNudge) Cancel(ctx context.Context, userID int64) (Outcome, error) {
	n, err := c.deps.Runtime.CancelType(ctx, userID, c.Type())
	if err != nil {
		return Outcome{}, err
	}
	return Outcome{Cancelled: n}, nil
}
