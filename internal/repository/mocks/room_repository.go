package mocks

import (
	"context"
	"time"

	"github.com/stretchr/testify/mock"

	"collabify/internal/domain"
)

// RoomRepository 是 repository.RoomRepository 的 Mock 实现，供测试使用。
type RoomRepository struct {
	mock.Mock
}

// FindByCode 提供 FindByCode 方法的 Mock
func (m *RoomRepository) FindByCode(ctx context.Context, code string) (*domain.Room, error) {
	args := m.Called(ctx, code)
	var room *domain.Room
	if args.Get(0) != nil {
		room = args.Get(0).(*domain.Room)
	}
	return room, args.Error(1)
}

// Save 提供 Save 方法的 Mock
func (m *RoomRepository) Save(ctx context.Context, room *domain.Room) error {
	args := m.Called(ctx, room)
	return args.Error(0)
}

// Delete 提供 Delete 方法的 Mock
func (m *RoomRepository) Delete(ctx context.Context, code string) error {
	args := m.Called(ctx, code)
	return args.Error(0)
}

// IsCodeExists 提供 IsCodeExists 方法的 Mock
func (m *RoomRepository) IsCodeExists(ctx context.Context, code string) (bool, error) {
	args := m.Called(ctx, code)
	return args.Bool(0), args.Error(1)
}

// TouchLastActive 提供 TouchLastActive 方法的 Mock
func (m *RoomRepository) TouchLastActive(ctx context.Context, code string, t time.Time) error {
	args := m.Called(ctx, code, t)
	return args.Error(0)
}

// UpdateDevice 提供 UpdateDevice 方法的 Mock
func (m *RoomRepository) UpdateDevice(ctx context.Context, code, deviceID string, t time.Time) error {
	args := m.Called(ctx, code, deviceID, t)
	return args.Error(0)
}

// FindInactiveSince 提供 FindInactiveSince 方法的 Mock
func (m *RoomRepository) FindInactiveSince(ctx context.Context, cutoff time.Time) ([]domain.Room, error) {
	args := m.Called(ctx, cutoff)
	var rooms []domain.Room
	if args.Get(0) != nil {
		rooms = args.Get(0).([]domain.Room)
	}
	return rooms, args.Error(1)
}
