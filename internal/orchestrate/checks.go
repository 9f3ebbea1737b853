package orchestrate

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"Weave/config"
	"Weave/internal/channel"
	"Weave/internal/model"
	"Weave/internal/policy"
	"Weave/internal/store"
	"Weave/pkg/logger"
	"Weave/pkg/metrics"
)

type checkStep struct {
	name string
	run  func(ctx context.Context, user *model.User, now time.Time) (channel.Outcome, error)
}

// startupSteps 启动巡检的固定顺序。顺序即优先级：先把确定性的
// 例行渠道扶正，再跑机会性的建议类渠道。
func (o *Orchestrator) startupSteps() []checkStep {
	return []checkStep{
		{"memory_nudge", o.memory.Schedule},
		{"evening_digest", o.digest.EnsureScheduled},
		{"friend_suggestions", o.runSuggestionsUnlessQuiet},
		{"battery_batch", o.battery.CheckAndExtendBatch},
		{"weekly_reflection", o.reflection.EnsureScheduled},
		{"event_recovery", o.reminder.ScheduleAll},
		{"event_suggestions", o.eventSugg.Schedule},
	}
}

// runSuggestionsUnlessQuiet 勿扰时段内跳过建议生成，等窗口过了再说
func (o *Orchestrator) runSuggestionsUnlessQuiet(ctx context.Context, user *model.User, now time.Time) (channel.Outcome, error) {
	if policy.IsQuietHours(user.QuietHoursStart, user.QuietHoursEnd, now) {
		return channel.Outcome{Reason: "quiet_hours"}, nil
	}
	return o.suggestion.Schedule(ctx, user, now)
}

// RunStartupChecks 应用冷启动后的全量巡检
func (o *Orchestrator) RunStartupChecks(ctx context.Context, userID int64) error {
	if err := o.ensureReady(); err != nil {
		return err
	}

	user, err := o.deps.Data.GetUser(ctx, userID)
	if err != nil {
		return err
	}

	started := time.Now()
	if err := o.runSteps(ctx, user, o.startupSteps()); err != nil {
		return err
	}
	metrics.GetMetrics().RecordSchedulePass(ctx, "startup", time.Since(started).Seconds())
	return nil
}

// OnAppForeground 前台快速检查：建议每次都评估，完整巡检按
// 节流窗口限频（跨天强制放行）。
func (o *Orchestrator) OnAppForeground(ctx context.Context, userID int64) error {
	if err := o.ensureReady(); err != nil {
		return err
	}

	user, err := o.deps.Data.GetUser(ctx, userID)
	if err != nil {
		return err
	}
	now := time.Now()

	if _, err := o.runSuggestionsUnlessQuiet(ctx, user, now); err != nil {
		logger.Logger.Warn("Foreground suggestion pass failed",
			zap.Int64("user_id", userID),
			zap.Error(err),
		)
	}

	window := time.Duration(config.Cfg.ForegroundThrottleMin) * time.Minute
	allowed, err := store.TryMarkForegroundPass(ctx, userID, window, now)
	if err != nil || !allowed {
		return nil
	}

	started := time.Now()
	if err := o.runSteps(ctx, user, o.startupSteps()); err != nil {
		return err
	}
	metrics.GetMetrics().RecordSchedulePass(ctx, "foreground", time.Since(started).Seconds())
	return nil
}

// RunBackgroundChecks 后台例行检查。单步失败不中断其余步骤，
// 多数步骤失败才整体报错。
func (o *Orchestrator) RunBackgroundChecks(ctx context.Context, userID int64) error {
	if err := o.ensureReady(); err != nil {
		return err
	}

	user, err := o.deps.Data.GetUser(ctx, userID)
	if err != nil {
		return err
	}
	now := time.Now()

	steps := []checkStep{
		{"battery_batch", o.battery.CheckAndExtendBatch},
		{"evening_digest", o.digest.EnsureScheduled},
		{"weekly_reflection", o.reflection.EnsureScheduled},
		{"memory_nudge", o.memory.Schedule},
		{"friend_suggestions", o.runSuggestionsUnlessQuiet},
		{"event_suggestions", o.eventSugg.Schedule},
		{"deepening_nudge", o.deepening.Schedule},
	}

	failed := 0
	started := time.Now()
	for _, step := range steps {
		if err := o.runStepRecovered(ctx, user, now, step); err != nil {
			failed++
			logger.Logger.Error("Background check step failed",
				zap.String("step", step.name),
				zap.Int64("user_id", userID),
				zap.Error(err),
			)
		}
	}
	metrics.GetMetrics().RecordSchedulePass(ctx, "background", time.Since(started).Seconds())

	if failed >= 3 {
		return fmt.Errorf("background checks degraded: %d of %d steps failed", failed, len(steps))
	}
	return nil
}

func (o *Orchestrator) runSteps(ctx context.Context, user *model.User, steps []checkStep) error {
	now := time.Now()
	for _, step := range steps {
		out, err := step.run(ctx, user, now)
		if err != nil {
			return fmt.Errorf("%s: %w", step.name, err)
		}
		if out.Scheduled > 0 || out.Cancelled > 0 {
			logger.Logger.Info("Check step done",
				zap.String("step", step.name),
				zap.Int64("user_id", user.ID),
				zap.Int("scheduled", out.Scheduled),
				zap.Int("cancelled", out.Cancelled),
			)
		}
	}
	return nil
}

// runStepRecovered 单步兜底，panic 也只折损这一步
func (o *Orchestrator) runStepRecovered(ctx context.Context, user *model.User, now time.Time, step checkStep) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("step %s panicked: %v", step.name, r)
		}
	}()
	_, err = step.run(ctx, user, now)
	return err
}
