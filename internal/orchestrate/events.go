package orchestrate

import (
	"context"
	"time"

	"go.uber.org/zap"

	"Weave/internal/model"
	"Weave/pkg/logger"
)

// HandleInteractionEvent 约定生命周期事件驱动的增量调度：
// 新建或改期重排提醒，完成触发深化跟进，取消撤掉提醒。
func (o *Orchestrator) HandleInteractionEvent(ctx context.Context, msg model.InteractionEventMessage) error {
	if err := o.ensureReady(); err != nil {
		return err
	}

	user, err := o.deps.Data.GetUser(ctx, msg.UserID)
	if err != nil {
		return err
	}
	now := time.Now()

	switch msg.Kind {
	case model.InteractionCreated, model.InteractionUpdated:
		it, err := o.deps.Data.GetInteractionByID(ctx, msg.UserID, msg.InteractionID)
		if err != nil {
			return err
		}
		out, err := o.reminder.ScheduleFor(ctx, user, it, now)
		if err != nil {
			return err
		}
		logger.Logger.Info("Event reminder rescheduled",
			zap.Int64("interaction_id", msg.InteractionID),
			zap.Int("scheduled", out.Scheduled),
		)
		return nil

	case model.InteractionCompleted:
		if err := o.reminder.CancelFor(ctx, msg.UserID, msg.InteractionID); err != nil {
			return err
		}
		it, err := o.deps.Data.GetInteractionByID(ctx, msg.UserID, msg.InteractionID)
		if err != nil {
			return err
		}
		_, err = o.deepening.ScheduleFor(ctx, user, it, now)
		return err

	case model.InteractionCancelled:
		return o.reminder.CancelFor(ctx, msg.UserID, msg.InteractionID)

	default:
		logger.Logger.Warn("Unknown interaction event kind",
			zap.String("kind", string(msg.Kind)),
		)
		return nil
	}
}
