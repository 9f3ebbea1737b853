package channel

import (
	"context"
	"time"

	"go.uber.org/zap"

	"Weave/internal/model"
	"Weave/internal/store"
	weaveerrors "Weave/pkg/errors"
	"Weave/pkg/logger"
	"Weave/pkg/metrics"
)

// IntentPublisher 把点按产生的导航意图发给客户端网关
type IntentPublisher interface {
	PublishUIIntent(ctx context.Context, msg model.UIIntentMessage) error
}

// ResponseRouter 点按路由。负载是按渠道区分的和类型，这里穷尽匹配：
// 新增渠道漏写分支会在编译期之外立刻以 unknown type 暴露。
type ResponseRouter struct {
	deps    *Deps
	digest  *EveningDigest
	intents IntentPublisher
}

func NewResponseRouter(deps *Deps, digest *EveningDigest, intents IntentPublisher) *ResponseRouter {
	return &ResponseRouter{deps: deps, digest: digest, intents: intents}
}

// HandleTap 处理一次通知点按。任何点按都清零该渠道的连续忽略计数。
func (r *ResponseRouter) HandleTap(ctx context.Context, userID int64, raw []byte) (model.UIIntent, error) {
	payload, err := model.DecodeTapPayload(raw)
	if err != nil {
		return "", weaveerrors.TapPayloadInvalid
	}

	t := payload.NotificationType()
	if err := store.ResetIgnoreCount(ctx, userID, t); err != nil {
		logger.Logger.Warn("Failed to reset ignore count",
			zap.Int64("user_id", userID),
			zap.String("type", string(t)),
			zap.Error(err),
		)
	}
	metrics.GetMetrics().RecordTapped(ctx, string(t))

	var (
		intent model.UIIntent
		refID  int64
		refKey string
	)

	switch p := payload.(type) {
	case *model.BatteryCheckinTap:
		intent = model.IntentOpenCheckin
		refKey = p.Date

	case *model.WeeklyReflectionTap:
		intent = model.IntentOpenReflection
		refKey = p.WeekOf

	case *model.EveningDigestTap:
		intent = model.IntentOpenDigest
		refKey = p.Date
		if err := r.generateDigest(ctx, userID, p.Date); err != nil {
			return "", err
		}

	case *model.MemoryNudgeTap:
		intent = model.IntentOpenFriend
		refID = p.FriendID

	case *model.FriendSuggestionTap:
		intent = model.IntentOpenFriend
		refID = p.FriendID

	case *model.EventReminderTap:
		intent = model.IntentOpenEvent
		refID = p.InteractionID

	case *model.DeepeningNudgeTap:
		intent = model.IntentOpenEvent
		refID = p.InteractionID

	default:
		return "", weaveerrors.TapPayloadInvalid
	}

	if r.intents != nil {
		msg := model.UIIntentMessage{
			UserID:    userID,
			Intent:    intent,
			Source:    t,
			RefID:     refID,
			RefKey:    refKey,
			EmittedAt: time.Now(),
		}
		if err := r.intents.PublishUIIntent(ctx, msg); err != nil {
			logger.Logger.Warn("Failed to publish UI intent",
				zap.Int64("user_id", userID),
				zap.String("intent", string(intent)),
				zap.Error(err),
			)
		}
	}

	return intent, nil
}

// generateDigest 摘要点按即生成：内容永远是打开那一刻的最新状态
func (r *ResponseRouter) generateDigest(ctx context.Context, userID int64, date string) error {
	user, err := r.deps.Data.GetUser(ctx, userID)
	if err != nil {
		return err
	}

	day, err := time.ParseInLocation("2006-01-02", date, time.Local)
	if err != nil {
		day = time.Now()
	}

	_, err = r.digest.GenerateDigest(ctx, user, day)
	return err
}
