package channel

import (
	"context"
	"time"

	"Weave/internal/model"
	"Weave/internal/policy"
	"Weave/internal/runtime"
	"Weave/internal/suggest"
)

// Outcome 一次渠道操作的结果
type Outcome struct {
	Scheduled int
	Cancelled int
	// Reason 未排期时的原因（grace_period、ignore_suppressed、quiet_hours 等）
	Reason string
}

func skipped(reason string) Outcome {
	return Outcome{Reason: reason}
}

// Channel 通知渠道。每个渠道独立决定是否排期、何时投递、点按后做什么。
type Channel interface {
	Type() model.NotificationType
	// Schedule 评估并排期。已有等价排期时先取消再登记，保证幂等。
	Schedule(ctx context.Context, user *model.User, now time.Time) (Outcome, error)
	// Cancel 取消渠道全部在途通知
	Cancel(ctx context.Context, userID int64) (Outcome, error)
}

// SelfHealing 启动巡检时自检：排期丢失则补排，多余的清掉
type SelfHealing interface {
	EnsureScheduled(ctx context.Context, user *model.User, now time.Time) (Outcome, error)
}

// BatchRecoverable 冷启动恢复：为未来窗口内的全部目标重建排期
type BatchRecoverable interface {
	ScheduleAll(ctx context.Context, user *model.User, now time.Time) (Outcome, error)
}

// BatchExtendable 批次型渠道的滚动续排
type BatchExtendable interface {
	CheckAndExtendBatch(ctx context.Context, user *model.User, now time.Time) (Outcome, error)
}

// DataSource 渠道需要的数据面，生产实现走 repository
type DataSource interface {
	GetUser(ctx context.Context, userID int64) (*model.User, error)
	ListFriends(ctx context.Context, userID int64) ([]model.Friend, error)
	GetFriendByID(ctx context.Context, userID, friendID int64) (*model.Friend, error)
	ListFriendsWithAnniversaryAround(ctx context.Context, userID int64, from, to time.Time) ([]model.Friend, error)
	GetInteractionByID(ctx context.Context, userID, interactionID int64) (*model.Interaction, error)
	ListPlannedBetween(ctx context.Context, userID int64, from, to time.Time) ([]model.Interaction, error)
	ListCompletedBetween(ctx context.Context, userID int64, from, to time.Time) ([]model.Interaction, error)
	ListInteractionFriends(ctx context.Context, interactionID int64) ([]model.Friend, error)
	HasPlannedWithFriend(ctx context.Context, userID, friendID int64, from, to time.Time) (bool, error)
	UpsertDailyDigest(ctx context.Context, digest *model.DailyDigest) error
	GetDailyDigest(ctx context.Context, userID int64, day time.Time) (*model.DailyDigest, error)
}

// Deps 渠道共享依赖
type Deps struct {
	Runtime     runtime.Runtime
	Data        DataSource
	Grace       *policy.GraceEvaluator
	Suggestions suggest.Source
}
