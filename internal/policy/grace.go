package policy

import (
	"context"

	"Weave/internal/model"
)

// ActivityCounter 宽限期判定需要的最小活动统计
type ActivityCounter interface {
	CountFriends(ctx context.Context, userID int64) (int, error)
	CountInteractions(ctx context.Context, userID int64) (int, error)
}

// GraceEvaluator 新用户宽限期：档案里还没有足够数据之前，
// 各渠道保持沉默，避免对空数据集推送空洞内容。
type GraceEvaluator struct {
	counter ActivityCounter
}

func NewGraceEvaluator(counter ActivityCounter) *GraceEvaluator {
	return &GraceEvaluator{counter: counter}
}

// 各渠道解除沉默需要的最小活动量
const (
	graceMinInteractionsGeneric = 1
	graceMinFriendsAmbient      = 2
	graceMinInteractions        = 3
)

// InGracePeriod 渠道是否仍处于宽限期。统计失败时保守地视为仍在宽限期。
func (g *GraceEvaluator) InGracePeriod(ctx context.Context, userID int64, t model.NotificationType) bool {
	switch t {
	case model.TypeWeeklyReflection, model.TypeBatteryCheckin:
		// 例行回顾类渠道要求用户已经记录过几次约定
		n, err := g.counter.CountInteractions(ctx, userID)
		if err != nil {
			return true
		}
		return n < graceMinInteractions

	case model.TypeMemoryNudge, model.TypeFriendSuggestion, model.TypeDeepeningNudge, model.TypeEventSuggestion:
		// 氛围类渠道要求档案里至少有两位朋友
		n, err := g.counter.CountFriends(ctx, userID)
		if err != nil {
			return true
		}
		return n < graceMinFriendsAmbient

	default:
		// 其余渠道只要求记录过一次互动
		n, err := g.counter.CountInteractions(ctx, userID)
		if err != nil {
			return true
		}
		return n < graceMinInteractionsGeneric
	}
}
