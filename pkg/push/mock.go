package push

import (
	"context"
	"errors"
	"sync"
)

type MockCall struct {
	Target  string
	Title   string
	Body    string
	Payload string
}

// MockClient 可配置的推送客户端 mock，实现 Client 接口
type MockClient struct {
	mu    sync.Mutex
	Calls []MockCall

	// FailNext 置为 true 时，下一次调用返回 mock 错误并自动复位
	FailNext bool
}

func NewMockClient() *MockClient {
	return &MockClient{
		Calls: make([]MockCall, 0),
	}
}

func (m *MockClient) Send(ctx context.Context, target, title, body, payload string) (*SendResponse, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.Calls = append(m.Calls, MockCall{
		Target:  target,
		Title:   title,
		Body:    body,
		Payload: payload,
	})

	if m.FailNext {
		m.FailNext = false
		return nil, errors.New("mock push send failure")
	}

	return &SendResponse{
		MessageID:  "mock-message-id",
		StatusCode: "OK",
		Message:    "mock send success",
		RequestID:  "mock-request-id",
		Provider:   "mock",
	}, nil
}
