package mocks

import (
	"context"
	"time"

	"github.com/stretchr/testify/mock"

	"collabify/internal/domain"
)

// StateRepository 是 repository.StateRepository 的 Mock 实现，供测试使用。
type StateRepository struct {
	mock.Mock
}

// AcquireRoomLock 提供 AcquireRoomLock 方法的 Mock
func (m *StateRepository) AcquireRoomLock(ctx context.Context, code string, ttl, wait time.Duration) (string, bool, error) {
	args := m.Called(ctx, code, ttl, wait)
	return args.String(0), args.Bool(1), args.Error(2)
}

// ReleaseRoomLock 提供 ReleaseRoomLock 方法的 Mock
func (m *StateRepository) ReleaseRoomLock(ctx context.Context, code, token string) error {
	args := m.Called(ctx, code, token)
	return args.Error(0)
}

// PublishRoomEvent 提供 PublishRoomEvent 方法的 Mock
func (m *StateRepository) PublishRoomEvent(ctx context.Context, code string, event domain.RoomEvent) error {
	args := m.Called(ctx, code, event)
	return args.Error(0)
}
