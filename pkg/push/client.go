package push

import (
	"context"
	"fmt"
	"sync"

	"Weave/config"
	"Weave/pkg/logger"

	"go.uber.org/zap"
)

// SendResponse 推送发送响应
type SendResponse struct {
	MessageID  string // 提供商返回的消息ID
	StatusCode string // 提供商返回的状态码
	Message    string // 错误消息（如果有）
	RequestID  string // 请求ID
	Provider   string // 服务提供商（"aliyun" / "mock"）
	Template   string // 模板代码（用于监控）
}

// Client 推送客户端接口，负责把已经编排好的通知真正送到用户设备。
// target: 投递目标（设备令牌或手机号，由用户档案提供）
// title/body: 渲染后的通知内容
// payload: 透传数据（JSON 字符串），客户端点按时回传
type Client interface {
	Send(ctx context.Context, target, title, body, payload string) (*SendResponse, error)
}

var (
	pushClient Client
	pushOnce   sync.Once
	pushErr    error
)

// Init 初始化推送客户端
func Init() error {
	pushOnce.Do(func() {
		cfg := config.Cfg

		switch cfg.PushProvider {
		case "aliyun":
			pushClient, pushErr = NewAliyunClient()
		case "mock":
			pushClient = NewMockClient()
		default:
			pushErr = fmt.Errorf("unsupported push provider: %s", cfg.PushProvider)
		}

		if pushErr != nil {
			logger.Logger.Error("Failed to initialize push client", zap.Error(pushErr))
			return
		}

		logger.Logger.Info("Push client initialized successfully",
			zap.String("provider", cfg.PushProvider),
		)
	})

	return pushErr
}

func GetClient() Client {
	if pushClient == nil {
		panic("Push client not initialized, call push.Init() first")
	}
	return pushClient
}

func Send(ctx context.Context, target, title, body, payload string) (*SendResponse, error) {
	return GetClient().Send(ctx, target, title, body, payload)
}
