package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

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
	"Weave/pkg/push"
	"Weave/pkg/snowflake"
	"Weave/storage"
)

func main() {

	logger.Init()
	defer logger.Sync()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	go func() {
		sig := <-sigChan
		logger.Logger.Info("Received shutdown signal",
			zap.String("signal", sig.String()),
		)
		cancel()
	}()

	if err := storage.Init(); err != nil {
		logger.Logger.Fatal("Failed to initialize storage", zap.Error(err))
	}
	defer storage.Close()

	if err := snowflake.Init(config.Cfg.SnowflakeMachineID, config.Cfg.SnowflakeDataCenter); err != nil {
		logger.Logger.Fatal("Failed to initialize snowflake", zap.Error(err))
	}

	// 推送通道不可用时仍然消费事件，投递消息会重新入队
	if err := push.Init(); err != nil {
		logger.Logger.Warn("Failed to initialize push service", zap.Error(err))
		logger.Logger.Info("Push delivery will fail and requeue until the provider recovers")
	}

	if err := metrics.InitMetrics(); err != nil {
		logger.Logger.Warn("Failed to initialize notification metrics", zap.Error(err))
	}

	// 交互事件消费需要完整的渠道编排器
	deps := &channel.Deps{
		Runtime:     runtime.NewMQRuntime(),
		Data:        channel.RepositoryDataSource{},
		Grace:       policy.NewGraceEvaluator(repository.Activity{}),
		Suggestions: suggest.NewDriftSource(suggest.RepositoryFriendLister{}),
	}
	orch := orchestrate.New(deps, queue.MQIntentPublisher{})
	if err := orch.Init(ctx); err != nil {
		logger.Logger.Fatal("Failed to initialize orchestrator", zap.Error(err))
	}

	logger.Logger.Info("Worker service starting",
		zap.String("service", "weave-worker"),
		zap.String("environment", config.Cfg.Environment),
	)

	// 启动所有的消费者部分
	queue.StartAllConsumers(ctx, orch)

	logger.Logger.Info("Worker service shutting down gracefully")
}
