package channel

import (
	"context"
	"math/rand"
	"strconv"
	"time"

	"go.uber.org/zap"

	"Weave/internal/model"
	"Weave/internal/policy"
	"Weave/internal/registry"
	"Weave/internal/runtime"
	"Weave/internal/store"
	"Weave/pkg/logger"
)

const (
	// suggestionMinGap 同日两条建议的最小间隔
	suggestionMinGap = 2 * time.Hour
	// suggestionStep 依次排期时逐条后移的步长
	suggestionStep = time.Hour
	// suggestionMaxLead 建议最晚不排到 24 小时之后
	suggestionMaxLead = 24 * time.Hour
	// suggestionJitter 投递时刻的随机抖动半径
	suggestionJitter = 15 * time.Minute
	// suggestionPlanWindow 已有约定的朋友 7 天内不再建议
	suggestionPlanWindow = 7 * 24 * time.Hour
)

// FriendSuggestion 联络建议。候选按紧急度排序，过滤后取每日余量，
// 在时间轴上摊开投递，避免一口气连响几条。
type FriendSuggestion struct {
	deps *Deps
	rand *rand.Rand
}

func NewFriendSuggestion(deps *Deps) *FriendSuggestion {
	return &FriendSuggestion{
		deps: deps,
		rand: rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

func (c *FriendSuggestion) Type() model.NotificationType {
	return model.TypeFriendSuggestion
}

// energyAllows 社交电量过滤：电量越低，放行的紧急度门槛越高。
// critical 永远放行。
func energyAllows(prefs model.Preferences, u model.Urgency) bool {
	if u == model.UrgencyCritical {
		return true
	}
	if !prefs.RespectBattery {
		return true
	}
	switch {
	case prefs.EnergyLevel < 30:
		return u == model.UrgencyHigh
	case prefs.EnergyLevel < 50:
		return u == model.UrgencyHigh || u == model.UrgencyMedium
	default:
		return true
	}
}

func (c *FriendSuggestion) Schedule(ctx context.Context, user *model.User, now time.Time) (Outcome, error) {
	prefs := user.Prefs()

	if c.deps.Grace != nil && c.deps.Grace.InGracePeriod(ctx, user.ID, c.Type()) {
		return recordDecline(ctx, c.Type(), "grace_period"), nil
	}
	if store.IsTypeSuppressed(ctx, user.ID, c.Type()) {
		return recordDecline(ctx, c.Type(), "ignore_suppressed"), nil
	}

	// 当日余量：用户上限 × 季节缩放 − 已排
	limit := policy.ApplySeasonLimit(prefs.MaxDailySuggestions, prefs.Season)
	already, err := store.CountDailySuggestions(ctx, user.ID, now)
	if err != nil {
		return Outcome{}, err
	}
	remaining := limit - already
	if remaining <= 0 {
		return recordDecline(ctx, c.Type(), "daily_limit"), nil
	}

	candidates, err := c.deps.Suggestions.Generate(ctx, user.ID, now)
	if err != nil {
		return Outcome{}, err
	}

	def := registry.MustGet(c.Type())
	out := Outcome{}
	next := now.Add(suggestionMinGap)

	for _, s := range candidates {
		if out.Scheduled >= remaining {
			break
		}
		if !energyAllows(prefs, s.Urgency) {
			continue
		}
		if store.WasFriendRecentlySuggested(ctx, user.ID, s.FriendID) {
			continue
		}
		planned, err := c.deps.Data.HasPlannedWithFriend(ctx, user.ID, s.FriendID, now, now.Add(suggestionPlanWindow))
		if err != nil {
			return out, err
		}
		if planned {
			continue
		}

		sendAt := c.spreadTime(prefs, next)
		if sendAt.Sub(now) > suggestionMaxLead {
			break // 今天摊不下了，剩下的明天再说
		}

		if ok, reason := c.deps.passGates(ctx, user, c.Type(), s.Category, s.Urgency, sendAt); !ok {
			if reason == "budget_exhausted" {
				return out, nil
			}
			out.Reason = reason
			continue
		}

		title, body := registry.ResolveTemplate(def, string(s.Category), map[string]string{
			"friend_name": s.FriendName,
			"days_since":  strconv.Itoa(s.DaysSince),
			"event_title": s.EventTitle,
			"event_date":  s.EventDate,
		})
		err = c.deps.Runtime.Schedule(ctx, runtime.Notification{
			ID:           s.ID,
			UserID:       user.ID,
			Type:         c.Type(),
			Title:        title,
			Body:         body,
			Payload:      &model.FriendSuggestionTap{FriendID: s.FriendID, SuggestionID: s.ID, Urgency: s.Urgency},
			ScheduledFor: sendAt,
		})
		if err != nil {
			return out, err
		}

		if err := store.RecordDailySuggestion(ctx, user.ID, s.ID, now); err != nil {
			logger.Logger.Warn("Failed to record daily suggestion", zap.Error(err))
		}
		if err := store.MarkFriendSuggested(ctx, user.ID, s.FriendID); err != nil {
			logger.Logger.Warn("Failed to mark friend suggested", zap.Error(err))
		}

		out.Scheduled++
		next = sendAt.Add(suggestionStep)
	}
	return out, nil
}

// spreadTime 给投递时刻加抖动并避开勿扰时段
func (c *FriendSuggestion) spreadTime(prefs model.Preferences, at time.Time) time.Time {
	jitter := time.Duration(c.rand.Int63n(int64(2*suggestionJitter))) - suggestionJitter
	at = at.Add(jitter)
	return policy.NextQuietEnd(prefs.QuietHoursStart, prefs.QuietHoursEnd, at)
}

func (c *FriendSuggestion) Cancel(ctx context.Context, userID int64) (Outcome, error) {
	n, err := c.deps.Runtime.CancelType(ctx, userID, c.Type())
	if err != nil {
		return Outcome{}, err
	}
	return Outcome{Cancelled: n}, nil
}
