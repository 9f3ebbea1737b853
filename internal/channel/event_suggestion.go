package channel

import (
	"context"
	"fmt"
	"time"

	"Weave/internal/model"
	"Weave/internal/store"
	"Weave/utils"
)

// eventSuggestionLookahead 往前看多少天的关键日期
const eventSuggestionLookahead = 7

// EventSuggestion 事件建议。不直接推送，发现临近的关键日期后写入
// 待呈现批次，由晚间摘要一次性带出。
type EventSuggestion struct {
	deps *Deps
}

func NewEventSuggestion(deps *Deps) *EventSuggestion {
	return &EventSuggestion{deps: deps}
}

func (c *EventSuggestion) Type() model.NotificationType {
	return model.TypeEventSuggestion
}

func (c *EventSuggestion) Schedule(ctx context.Context, user *model.User, now time.Time) (Outcome, error) {
	if c.deps.Grace != nil && c.deps.Grace.InGracePeriod(ctx, user.ID, c.Type()) {
		return recordDecline(ctx, c.Type(), "grace_period"), nil
	}

	out := Outcome{}

	// 未来一周的纪念日
	friends, err := c.deps.Data.ListFriendsWithAnniversaryAround(ctx, user.ID, now, now.AddDate(0, 0, eventSuggestionLookahead))
	if err != nil {
		return Outcome{}, err
	}
	for _, f := range friends {
		ev := model.PendingEvent{
			EventID:           fmt.Sprintf("anniversary:%d:%d", f.ID, now.Year()),
			Title:             "Anniversary with " + f.Name,
			FriendNames:       []string{f.Name},
			FriendIDs:         []int64{f.ID},
			EventDate:         utils.DayKey(*f.AnniversaryDate),
			SuggestedCategory: model.SuggestionCategoryLifeEvent,
		}
		added, err := store.AddPendingEvent(ctx, user.ID, ev)
		if err != nil {
			return out, err
		}
		if added {
			out.Scheduled++
		}
	}

	// 未来一周计划中的人生大事
	its, err := c.deps.Data.ListPlannedBetween(ctx, user.ID, now, now.AddDate(0, 0, eventSuggestionLookahead))
	if err != nil {
		return out, err
	}
	for _, it := range its {
		if it.Category != model.CategoryLifeEvent {
			continue
		}
		linked, err := c.deps.Data.ListInteractionFriends(ctx, it.ID)
		if err != nil {
			return out, err
		}
		names := make([]string, 0, len(linked))
		ids := make([]int64, 0, len(linked))
		for _, f := range linked {
			names = append(names, f.Name)
			ids = append(ids, f.ID)
		}

		ev := model.PendingEvent{
			EventID:           fmt.Sprintf("life_event:%d", it.ID),
			Title:             it.Title,
			FriendNames:       names,
			FriendIDs:         ids,
			EventDate:         utils.DayKey(it.OccursAt),
			SuggestedCategory: model.SuggestionCategoryLifeEvent,
		}
		added, err := store.AddPendingEvent(ctx, user.ID, ev)
		if err != nil {
			return out, err
		}
		if added {
			out.Scheduled++
		}
	}

	return out, nil
}

// Cancel 批次型渠道没有在途通知，清空待呈现批次即可
func (c *EventSuggestion) Cancel(ctx context.Context, userID int64) (Outcome, error) {
	events, err := store.DrainPendingEvents(ctx, userID)
	if err != nil {
		return Outcome{}, err
	}
	return Outcome{Cancelled: len(events)}, nil
}
