package channel

import (
	"context"
	"time"

	"go.uber.org/zap"

	"Weave/internal/model"
	"Weave/internal/policy"
	"Weave/internal/registry"
	"Weave/internal/store"
	"Weave/pkg/logger"
	"Weave/pkg/metrics"
)

// 各渠道排期前的统一闸门，固定顺序：
// 宽限期 → 忽略抑制 → 季节/勿扰策略 → 冷却 → 预算。
// 任何一道拒绝即short-circuit，预算额度只在全部通过后才真正占用。
func (d *Deps) passGates(ctx context.Context, user *model.User, t model.NotificationType, category model.SuggestionCategory, urgency model.Urgency, sendAt time.Time) (bool, string) {
	def := registry.MustGet(t)
	prefs := user.Prefs()

	if d.Grace != nil && d.Grace.InGracePeriod(ctx, user.ID, t) {
		return false, "grace_period"
	}

	if store.IsTypeSuppressed(ctx, user.ID, t) {
		return false, "ignore_suppressed"
	}

	if dec := policy.ShouldSendNotification(prefs, t, category, urgency, sendAt); !dec.Allow {
		return false, dec.Reason
	}

	if store.IsInCooldown(ctx, user.ID, t, def.Cooldown, time.Now()) {
		return false, "cooldown"
	}

	if def.BudgetCost > 0 {
		limit := policy.DailyBudget(prefs)
		ok, err := store.CheckAndConsumeBudget(ctx, user.ID, limit, def.BudgetCost, sendAt)
		if err != nil {
			// 预算查询失败不拦投递，记日志后放行
			logger.Logger.Warn("Budget check failed, allowing notification",
				zap.Int64("user_id", user.ID),
				zap.String("type", string(t)),
				zap.Error(err),
			)
			return true, ""
		}
		if !ok {
			metrics.GetMetrics().RecordBudgetExhausted(ctx, string(t))
			return false, "budget_exhausted"
		}
	}

	return true, ""
}

// recordDecline 统一记录被闸门拦下的排期
func recordDecline(ctx context.Context, t model.NotificationType, reason string) Outcome {
	metrics.GetMetrics().RecordDeclined(ctx, string(t), reason)
	return skipped(reason)
}
