package main

import (
	"context"
	"net"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/cloudwego/hertz/pkg/app/server"
	sdkotel "go.opentelemetry.io/otel"
	"go.uber.org/zap"

	"Weave/config"
	"Weave/internal/channel"
	"Weave/internal/handler"
	"Weave/internal/middleware"
	"Weave/internal/orchestrate"
	"Weave/internal/policy"
	"Weave/internal/queue"
	"Weave/internal/repository"
	"Weave/internal/router"
	"Weave/internal/runtime"
	"Weave/internal/suggest"
	"Weave/pkg/logger"
	"Weave/pkg/metrics"
	"Weave/pkg/otel"
	"Weave/pkg/snowflake"
	"Weave/storage"
)

func main() {
	// 日志部分
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

	// 初始化存储层，记得关闭外部连接
	if err := storage.Init(); err != nil {
		logger.Logger.Fatal("Failed to initialize storage", zap.Error(err))
	}

	defer storage.Close()

	if err := snowflake.Init(config.Cfg.SnowflakeMachineID, config.Cfg.SnowflakeDataCenter); err != nil {
		logger.Logger.Fatal("Failed to initialize snowflake", zap.Error(err))
	}

	// 初始化 OpenTelemetry，失败时降级为无观测运行
	otelShutdown, err := otel.InitOpenTelemetry(ctx, otel.Config{
		ServiceName:  config.Cfg.ServiceName,
		Environment:  config.Cfg.Environment,
		OTLPEndpoint: config.Cfg.OTLPEndpoint,
		SampleRatio:  config.Cfg.OTLPSampler,
	})
	if err != nil {
		logger.Logger.Warn("Failed to initialize OpenTelemetry", zap.Error(err))
		logger.Logger.Info("Telemetry export will be disabled")
	} else {
		defer func() {
			if err := otelShutdown(context.Background()); err != nil {
				logger.Logger.Error("Failed to shutdown OpenTelemetry", zap.Error(err))
			}
		}()
	}

	if err := metrics.InitMetrics(); err != nil {
		logger.Logger.Warn("Failed to initialize notification metrics", zap.Error(err))
	}

	if err := middleware.InitMetrics(sdkotel.Meter("weave-http")); err != nil {
		logger.Logger.Warn("Failed to initialize HTTP metrics", zap.Error(err))
	}

	orch := buildOrchestrator()
	handler.Setup(orch)

	logger.Logger.Info("Server starting",
		zap.String("service", config.Cfg.ServiceName),
		zap.String("port", config.Cfg.ServerPort),
		zap.String("environment", config.Cfg.Environment),
	)

	addr := net.JoinHostPort(config.Cfg.ServerHost, config.Cfg.ServerPort)

	tracerOpt, tracerMW := middleware.NewServerTracerConfig()
	h := server.Default(server.WithHostPorts(addr), tracerOpt)
	h.Use(tracerMW)

	router.Register(h)

	// 优雅关闭：在单独的 goroutine 中监听关闭信号并调用 Shutdown
	go func() {
		<-ctx.Done()
		logger.Logger.Info("Initiating graceful shutdown...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		if err := h.Shutdown(shutdownCtx); err != nil {
			logger.Logger.Error("Failed to shutdown HTTP server", zap.Error(err))
		}
	}()

	logger.Logger.Info("HTTP server listening", zap.String("addr", addr))

	h.Spin()

	logger.Logger.Info("Server shutting down gracefully")
}

// buildOrchestrator 组装生产依赖：MQ 调度运行时 + 数据库数据面
func buildOrchestrator() *orchestrate.Orchestrator {
	deps := &channel.Deps{
		Runtime:     runtime.NewMQRuntime(),
		Data:        channel.RepositoryDataSource{},
		Grace:       policy.NewGraceEvaluator(repository.Activity{}),
		Suggestions: suggest.NewDriftSource(suggest.RepositoryFriendLister{}),
	}
	return orchestrate.New(deps, queue.MQIntentPublisher{})
}
