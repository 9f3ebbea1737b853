package orchestrate

import (
	"context"
	"fmt"
	"sync"

	"go.uber.org/zap"

	"Weave/internal/channel"
	"Weave/internal/model"
	"Weave/internal/store"
	weaveerrors "Weave/pkg/errors"
	"Weave/pkg/logger"
)

// Orchestrator 通知编排器。持有全部渠道，驱动启动巡检、
// 前台快速检查与后台例行检查。
type Orchestrator struct {
	mu          sync.Mutex
	initialized bool
	// pending 非 nil 表示有初始化正在进行，完成时关闭
	pending chan struct{}

	deps *channel.Deps

	battery    *channel.BatteryCheckin
	reflection *channel.WeeklyReflection
	digest     *channel.EveningDigest
	memory     *channel.MemoryNudge
	suggestion *channel.FriendSuggestion
	reminder   *channel.EventReminder
	deepening  *channel.DeepeningNudge
	eventSugg  *channel.EventSuggestion

	router *channel.ResponseRouter

	// validate 初始化时的依赖自检，测试里可替换
	validate func(ctx context.Context) error
}

func New(deps *channel.Deps, intents channel.IntentPublisher) *Orchestrator {
	o := &Orchestrator{deps: deps}
	o.battery = channel.NewBatteryCheckin(deps)
	o.reflection = channel.NewWeeklyReflection(deps)
	o.digest = channel.NewEveningDigest(deps)
	o.memory = channel.NewMemoryNudge(deps)
	o.suggestion = channel.NewFriendSuggestion(deps)
	o.reminder = channel.NewEventReminder(deps)
	o.deepening = channel.NewDeepeningNudge(deps)
	o.eventSugg = channel.NewEventSuggestion(deps)
	o.router = channel.NewResponseRouter(deps, o.digest, intents)
	o.validate = func(ctx context.Context) error { return nil }
	return o
}

// SetValidator 注入初始化自检逻辑
func (o *Orchestrator) SetValidator(fn func(ctx context.Context) error) {
	if fn != nil {
		o.validate = fn
	}
}

// Init 初始化编排器。并发调用只有一个真正执行，其余等待在途的
// 初始化完成：成功则一并返回 nil，失败则返回 not-ready 并允许重试。
func (o *Orchestrator) Init(ctx context.Context) error {
	o.mu.Lock()
	if o.initialized {
		o.mu.Unlock()
		return nil
	}
	if o.pending != nil {
		done := o.pending
		o.mu.Unlock()
		select {
		case <-done:
		case <-ctx.Done():
			return ctx.Err()
		}
		o.mu.Lock()
		ok := o.initialized
		o.mu.Unlock()
		if !ok {
			return weaveerrors.OrchestratorNotReady
		}
		return nil
	}
	done := make(chan struct{})
	o.pending = done
	o.mu.Unlock()

	err := o.validate(ctx)

	o.mu.Lock()
	o.pending = nil
	if err == nil {
		o.initialized = true
	}
	o.mu.Unlock()
	close(done)

	if err != nil {
		logger.Logger.Error("Orchestrator init failed", zap.Error(err))
		return fmt.Errorf("orchestrator init: %w", err)
	}
	logger.Logger.Info("Orchestrator initialized")
	return nil
}

// Ready 是否已完成初始化
func (o *Orchestrator) Ready() bool {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.initialized
}

func (o *Orchestrator) ensureReady() error {
	if !o.Ready() {
		return weaveerrors.OrchestratorNotReady
	}
	return nil
}

// Router 点按路由入口
func (o *Orchestrator) Router() *channel.ResponseRouter {
	return o.router
}

// Channel 按类型取渠道，API 的单渠道评估入口用
func (o *Orchestrator) Channel(t model.NotificationType) (channel.Channel, bool) {
	switch t {
	case model.TypeBatteryCheckin:
		return o.battery, true
	case model.TypeWeeklyReflection:
		return o.reflection, true
	case model.TypeEveningDigest:
		return o.digest, true
	case model.TypeMemoryNudge:
		return o.memory, true
	case model.TypeFriendSuggestion:
		return o.suggestion, true
	case model.TypeEventReminder:
		return o.reminder, true
	case model.TypeDeepeningNudge:
		return o.deepening, true
	case model.TypeEventSuggestion:
		return o.eventSugg, true
	default:
		return nil, false
	}
}

// User 取用户档案，各入口共用
func (o *Orchestrator) User(ctx context.Context, userID int64) (*model.User, error) {
	return o.deps.Data.GetUser(ctx, userID)
}

// Scheduled 查询某渠道的在途排期
func (o *Orchestrator) Scheduled(ctx context.Context, userID int64, t model.NotificationType) ([]store.ScheduledEntry, error) {
	return o.deps.Runtime.ListScheduled(ctx, userID, t)
}

// CancelAll 取消用户全部在途通知
func (o *Orchestrator) CancelAll(ctx context.Context, userID int64) (int, error) {
	total := 0
	for _, t := range model.AllNotificationTypes {
		ch, ok := o.Channel(t)
		if !ok {
			continue
		}
		out, err := ch.Cancel(ctx, userID)
		if err != nil {
			return total, err
		}
		total += out.Cancelled
	}
	return total, nil
}
