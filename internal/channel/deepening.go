package channel

import (
	"context"
	"fmt"
	"math/rand"
	"time"

	"Weave/internal/model"
	"Weave/internal/registry"
	"Weave/internal/runtime"
	"Weave/internal/store"
)

const (
	// deepening 提醒在互动完成后 3~6 小时之间随机投递
	deepeningMinDelay = 3 * time.Hour
	deepeningMaxDelay = 6 * time.Hour
	// deepeningFreshness 完成超过 24 小时的互动不再跟进
	deepeningFreshness = 24 * time.Hour
)

// DeepeningNudge 深化提醒。一次见面或通话后几小时，提醒用户记下
// 值得记住的细节。每天最多两条，太久之前的互动不追。
type DeepeningNudge struct {
	deps *Deps
	rand *rand.Rand
}

func NewDeepeningNudge(deps *Deps) *DeepeningNudge {
	return &DeepeningNudge{
		deps: deps,
		rand: rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

func (c *DeepeningNudge) Type() model.NotificationType {
	return model.TypeDeepeningNudge
}

func deepeningNotificationID(interactionID int64) string {
	return fmt.Sprintf("deepening:%d", interactionID)
}

// ScheduleFor 互动完成事件触发，为单次互动排一条跟进
func (c *DeepeningNudge) ScheduleFor(ctx context.Context, user *model.User, it *model.Interaction, now time.Time) (Outcome, error) {
	if it.Status != model.InteractionStatusCompleted || it.CompletedAt == nil {
		return skipped("not_completed"), nil
	}
	if it.Category != model.CategoryMeet && it.Category != model.CategoryCall {
		return skipped("category_not_eligible"), nil
	}
	if now.Sub(*it.CompletedAt) > deepeningFreshness {
		return skipped("too_old"), nil
	}

	count, err := store.CountDeepeningToday(ctx, user.ID, now)
	if err != nil {
		return Outcome{}, err
	}
	if count >= store.DeepeningDailyLimit {
		return recordDecline(ctx, c.Type(), "daily_limit"), nil
	}

	spread := deepeningMaxDelay - deepeningMinDelay
	delay := deepeningMinDelay + time.Duration(c.rand.Int63n(int64(spread)))
	sendAt := it.CompletedAt.Add(delay)
	if !sendAt.After(now) {
		sendAt = now.Add(time.Minute)
	}

	if ok, reason := c.deps.passGates(ctx, user, c.Type(), "", "", sendAt); !ok {
		return recordDecline(ctx, c.Type(), reason), nil
	}

	id := deepeningNotificationID(it.ID)
	added, err := store.AddDeepeningRecord(ctx, user.ID, model.DeepeningRecord{
		InteractionID:  it.ID,
		ScheduledAt:    sendAt.Format(time.RFC3339),
		NotificationID: id,
	}, now)
	if err != nil {
		return Outcome{}, err
	}
	if !added {
		return skipped("already_nudged"), nil
	}

	friendName := "them"
	friends, err := c.deps.Data.ListInteractionFriends(ctx, it.ID)
	if err == nil && len(friends) > 0 {
		friendName = friends[0].Name
	}

	def := registry.MustGet(c.Type())
	title, body := registry.ResolveTemplate(def, "default", map[string]string{
		"friend_name": friendName,
	})
	err = c.deps.Runtime.Schedule(ctx, runtime.Notification{
		ID:           id,
		UserID:       user.ID,
		Type:         c.Type(),
		Title:        title,
		Body:         body,
		Payload:      &model.DeepeningNudgeTap{InteractionID: it.ID},
		ScheduledFor: sendAt,
	})
	if err != nil {
		return Outcome{}, err
	}
	return Outcome{Scheduled: 1}, nil
}

// Schedule 巡检入口：为最近完成且尚未跟进的互动补排
func (c *DeepeningNudge) Schedule(ctx context.Context, user *model.User, now time.Time) (Outcome, error) {
	// 季节关停渠道时主动清场，在途的也不投
	if registry.GetSeasonProfile(user.Prefs().Season).DisabledTypes[c.Type()] {
		n, err := c.deps.Runtime.CancelType(ctx, user.ID, c.Type())
		if err != nil {
			return Outcome{}, err
		}
		return Outcome{Cancelled: n, Reason: "season_disabled"}, nil
	}

	its, err := c.deps.Data.ListCompletedBetween(ctx, user.ID, now.Add(-deepeningFreshness), now)
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
		if res.Reason == "daily_limit" {
			break
		}
	}
	return out, nil
}

func (c *DeepeningNudge) Cancel(ctx context.Context, userID int64) (Outcome, error) {
	n, err := c.deps.Runtime.CancelType(ctx, userID, c.Type())
	if err != nil {
		return Outcome{}, err
	}
	return Outcome{Cancelled: n}, nil
}
