package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"Weave/config"
	"Weave/internal/channel"
	"Weave/internal/orchestrate"
	"Weave/internal/policy"
	"Weave/internal/queue"
	"Weave/internal/repository"
	"Weave/internal/runtime"
	"Weave/internal/suggest"
	"Weave/pkg/logger"
	"Weave/pkg/metrics"
	"Weave/pkg/snowflake"
	"Weave/storage"
)

// 全量巡检分页大小
const sweepPageSize = 200

func main() {

	logger.Init()
	defer logger.Sync()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)

	go func() {
		sig := <-sigCh
		logger.Logger.Info("Scheduler received shutdown signal",
			zap.String("signal", sig.String()),
		)
		cancel()
	}()

	if err := storage.Init(); err != nil {
		logger.Logger.Fatal("Failed to initialize storage for scheduler", zap.Error(err))
	}
	defer storage.Close()

	if err := snowflake.Init(config.Cfg.SnowflakeMachineID, config.Cfg.SnowflakeDataCenter); err != nil {
		logger.Logger.Fatal("Failed to initialize snowflake for scheduler", zap.Error(err))
	}

	if err := metrics.InitMetrics(); err != nil {
		logger.Logger.Warn("Failed to initialize notification metrics", zap.Error(err))
	}

	deps := &channel.Deps{
		Runtime:     runtime.NewMQRuntime(),
		Data:        channel.RepositoryDataSource{},
		Grace:       policy.NewGraceEvaluator(repository.Activity{}),
		Suggestions: suggest.NewDriftSource(suggest.RepositoryFriendLister{}),
	}
	orch := orchestrate.New(deps, queue.MQIntentPublisher{})
	if err := orch.Init(ctx); err != nil {
		logger.Logger.Fatal("Failed to initialize orchestrator for scheduler", zap.Error(err))
	}

	logger.Logger.Info("Scheduler service starting",
		zap.String("service", "weave-scheduler"),
		zap.String("environment", config.Cfg.Environment),
	)

	go runDailySweepLoop(ctx, orch)
	go runBackgroundTickLoop(ctx, orch)

	<-ctx.Done()

	logger.Logger.Info("Scheduler service shutting down gracefully")
}

// runDailySweepLoop 每天固定时间做一次全量巡检，兜底补齐所有用户的排程
// 当前实现：每天本地时间 00:05 触发一次
func runDailySweepLoop(ctx context.Context, orch *orchestrate.Orchestrator) {
	// 在 development 环境下，为了方便本地调试，将每日巡检改为每 1 分钟执行一次
	if config.Cfg.Environment == "development" {
		ticker := time.NewTicker(1 * time.Minute)
		defer ticker.Stop()

		logger.Logger.Info("Daily sweep running in development mode with 1m interval")

		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				runCtx, cancel := context.WithTimeout(ctx, 15*time.Minute)
				sweepAllUsers(runCtx, orch)
				cancel()
			}
		}
	}

	for {
		// 计算下一次运行时间（今天/明天的 00:05）
		now := time.Now()
		next := time.Date(now.Year(), now.Month(), now.Day(), 0, 5, 0, 0, now.Location())
		if !next.After(now) {
			// 如果已经过了今天 00:05，则设置为明天
			next = next.Add(24 * time.Hour)
		}

		delay := time.Until(next)
		logger.Logger.Info("Scheduled next daily sweep",
			zap.Time("now", now),
			zap.Time("next_run", next),
			zap.Duration("delay", delay),
		)

		timer := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return
		case <-timer.C:
			runCtx, cancel := context.WithTimeout(ctx, 15*time.Minute)
			sweepAllUsers(runCtx, orch)
			cancel()
		}
	}
}

// runBackgroundTickLoop 周期性全量后台检查，间隔可配置
func runBackgroundTickLoop(ctx context.Context, orch *orchestrate.Orchestrator) {
	interval := time.Duration(config.Cfg.BackgroundTickMinutes) * time.Minute
	if config.Cfg.Environment == "development" {
		interval = 1 * time.Minute
		logger.Logger.Info("Background tick loop running in development mode with 1m interval")
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			runCtx, cancel := context.WithTimeout(ctx, 10*time.Minute)
			sweepAllUsers(runCtx, orch)
			cancel()
		}
	}
}

// sweepAllUsers 分页遍历活跃用户，逐个跑后台检查。
// 单个用户失败只记日志，不影响其余用户。
func sweepAllUsers(ctx context.Context, orch *orchestrate.Orchestrator) {
	started := time.Now()
	var afterID int64
	total, failed := 0, 0

	for {
		ids, err := repository.ListActiveUserIDs(ctx, afterID, sweepPageSize)
		if err != nil {
			logger.Logger.Error("Failed to list active users for sweep", zap.Error(err))
			return
		}
		if len(ids) == 0 {
			break
		}

		for _, userID := range ids {
			if ctx.Err() != nil {
				logger.Logger.Warn("Sweep aborted",
					zap.Int("processed", total),
					zap.Error(ctx.Err()),
				)
				return
			}
			if err := orch.RunBackgroundChecks(ctx, userID); err != nil {
				failed++
				logger.Logger.Error("Background checks failed for user",
					zap.Int64("user_id", userID),
					zap.Error(err),
				)
			}
			total++
		}

		afterID = ids[len(ids)-1]
	}

	logger.Logger.Info("Sweep completed",
		zap.Int("users", total),
		zap.Int("failed", failed),
		zap.Duration("elapsed", time.Since(started)),
	)
}
