package runtime

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"

	"Weave/internal/model"
	"Weave/internal/store"
)

var errScheduleFailed = errors.New("mock runtime: schedule failed")

// MockRuntime 内存实现，测试里替代消息队列
type MockRuntime struct {
	mu        sync.Mutex
	scheduled map[string]Notification // key: userID:type:id
	Cancelled []string
	FailNext  bool
}

func NewMockRuntime() *MockRuntime {
	return &MockRuntime{scheduled: make(map[string]Notification)}
}

func mockKey(userID int64, t model.NotificationType, id string) string {
	return fmt.Sprintf("%d:%s:%s", userID, t, id)
}

func (m *MockRuntime) Schedule(ctx context.Context, n Notification) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.FailNext {
		m.FailNext = false
		return errScheduleFailed
	}
	m.scheduled[mockKey(n.UserID, n.Type, n.ID)] = n
	return nil
}

func (m *MockRuntime) Cancel(ctx context.Context, userID int64, t model.NotificationType, notificationID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	key := mockKey(userID, t, notificationID)
	if _, ok := m.scheduled[key]; ok {
		delete(m.scheduled, key)
		m.Cancelled = append(m.Cancelled, notificationID)
	}
	return nil
}

func (m *MockRuntime) CancelType(ctx context.Context, userID int64, t model.NotificationType) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for key, notif := range m.scheduled {
		if notif.UserID == userID && notif.Type == t {
			delete(m.scheduled, key)
			m.Cancelled = append(m.Cancelled, notif.ID)
			n++
		}
	}
	return n, nil
}

func (m *MockRuntime) ListScheduled(ctx context.Context, userID int64, t model.NotificationType) ([]store.ScheduledEntry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var entries []store.ScheduledEntry
	for _, notif := range m.scheduled {
		if notif.UserID == userID && notif.Type == t {
			entries = append(entries, store.ScheduledEntry{
				NotificationID: notif.ID,
				ScheduledFor:   notif.ScheduledFor,
			})
		}
	}
	sort.Slice(entries, func(i, j int) bool {
		return entries[i].ScheduledFor.Before(entries[j].ScheduledFor)
	})
	return entries, nil
}

// Get 按 ID 查找已排期通知，测试断言用
func (m *MockRuntime) Get(userID int64, t model.NotificationType, id string) (Notification, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	n, ok := m.scheduled[mockKey(userID, t, id)]
	return n, ok
}

// Count 已排期通知总数
func (m *MockRuntime) Count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.scheduled)
}
