package service_test // 测试包

import (
	"context"
	"errors"
	"testing"
	"time"

	// 导入必要的包
	"collabify/internal/domain"
	musicmocks "collabify/internal/music/mocks"
	"collabify/internal/repository"
	"collabify/internal/repository/mocks" // 导入 Mock 实现
	"collabify/internal/service"          // 导入被测试的包
	"github.com/stretchr/testify/assert"  // 导入断言库
	"github.com/stretchr/testify/mock"    // 导入 Mock 库
	"github.com/stretchr/testify/require" // 导入 Require 断言库

	"collabify/internal/music"
)

// --- 测试 CreateRoom 方法 ---

func TestRoomService_CreateRoom_Success(t *testing.T) {
	// Arrange: 准备 Mock 对象, Service 实例, 和测试数据
	mockRoomRepo := new(mocks.RoomRepository)
	mockMusic := new(musicmocks.Client)
	roomService := service.NewRoomService(mockRoomRepo, mockMusic)

	ctx := context.Background()
	accessToken := "BQ-host-token"

	// 设置 Mock 预期:
	// 1. 第一次生成的房间码就没有撞码
	mockRoomRepo.On("IsCodeExists", ctx, mock.MatchedBy(func(code string) bool {
		return len(code) == 5
	})).Return(false, nil).Once()

	// 2. 在供应商侧用固定名称创建播放列表
	mockMusic.On("CreatePlaylist", ctx, accessToken, service.PlaylistName).
		Return(music.Playlist{ID: "pl-123", URI: "spotify:playlist:pl-123"}, nil).
		Once()

	// 3. 保存房间记录
	mockRoomRepo.On("Save", ctx, mock.MatchedBy(func(room *domain.Room) bool {
		assert.Len(t, room.Code, 5, "房间码应为 5 个字符")
		assert.Equal(t, accessToken, room.AccessToken)
		assert.Equal(t, "pl-123", room.PlaylistID)
		assert.Equal(t, "spotify:playlist:pl-123", room.PlaylistURI)
		assert.Equal(t, 0, room.TrackCount, "新房间计数应为 0")
		assert.False(t, room.LastActive.IsZero(), "活跃时间应被设置")
		return true
	})).Return(nil).Once()

	// Act: 执行被测试的 CreateRoom 方法
	room, err := roomService.CreateRoom(ctx, accessToken)

	// Assert
	assert.NoError(t, err, "成功创建房间时不应有错误")
	require.NotNil(t, room, "成功创建时应返回房间对象")
	assert.Len(t, room.Code, 5)
	assert.Equal(t, 0, room.TrackCount)

	// Verify: 创建阶段不应触发任何播放调用
	mockRoomRepo.AssertExpectations(t)
	mockMusic.AssertExpectations(t)
	mockMusic.AssertNotCalled(t, "StartPlaybackContext", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestRoomService_CreateRoom_CodeCollisionRetries(t *testing.T) {
	// Arrange
	mockRoomRepo := new(mocks.RoomRepository)
	mockMusic := new(musicmocks.Client)
	roomService := service.NewRoomService(mockRoomRepo, mockMusic)
	ctx := context.Background()

	// 设置 Mock 预期: 前两次撞码，第三次成功
	mockRoomRepo.On("IsCodeExists", ctx, mock.AnythingOfType("string")).Return(true, nil).Twice()
	mockRoomRepo.On("IsCodeExists", ctx, mock.AnythingOfType("string")).Return(false, nil).Once()
	mockMusic.On("CreatePlaylist", ctx, "token", service.PlaylistName).
		Return(music.Playlist{ID: "pl-1", URI: "spotify:playlist:pl-1"}, nil).Once()
	mockRoomRepo.On("Save", ctx, mock.AnythingOfType("*domain.Room")).Return(nil).Once()

	// Act
	room, err := roomService.CreateRoom(ctx, "token")

	// Assert
	assert.NoError(t, err, "撞码后重掷应最终成功")
	require.NotNil(t, room)

	// Verify
	mockRoomRepo.AssertExpectations(t)
	mockRoomRepo.AssertNumberOfCalls(t, "IsCodeExists", 3)
}

func TestRoomService_CreateRoom_CodeSpaceExhausted(t *testing.T) {
	// Arrange
	mockRoomRepo := new(mocks.RoomRepository)
	mockMusic := new(musicmocks.Client)
	roomService := service.NewRoomService(mockRoomRepo, mockMusic)
	ctx := context.Background()

	// 设置 Mock 预期: 每次生成的码都已被占用
	mockRoomRepo.On("IsCodeExists", ctx, mock.AnythingOfType("string")).Return(true, nil)

	// Act
	room, err := roomService.CreateRoom(ctx, "token")

	// Assert: 重试耗尽后应返回明确的错误，而不是死循环
	require.Error(t, err)
	assert.Nil(t, room)
	assert.True(t, errors.Is(err, service.ErrCodeSpaceExhausted), "错误类型应为 ErrCodeSpaceExhausted")

	// Verify: 播放列表和房间记录都不应被创建
	mockMusic.AssertNotCalled(t, "CreatePlaylist", mock.Anything, mock.Anything, mock.Anything)
	mockRoomRepo.AssertNotCalled(t, "Save", mock.Anything, mock.Anything)
}

func TestRoomService_CreateRoom_PlaylistCreationFails(t *testing.T) {
	// Arrange
	mockRoomRepo := new(mocks.RoomRepository)
	mockMusic := new(musicmocks.Client)
	roomService := service.NewRoomService(mockRoomRepo, mockMusic)
	ctx := context.Background()

	mockRoomRepo.On("IsCodeExists", ctx, mock.AnythingOfType("string")).Return(false, nil).Once()
	// 设置 Mock 预期: 供应商返回凭证过期
	mockMusic.On("CreatePlaylist", ctx, "stale-token", service.PlaylistName).
		Return(music.Playlist{}, music.ErrAuthExpired).Once()

	// Act
	room, err := roomService.CreateRoom(ctx, "stale-token")

	// Assert: music 包的错误类型应原样透传给 Handler 做状态码映射
	require.Error(t, err)
	assert.Nil(t, room)
	assert.True(t, errors.Is(err, music.ErrAuthExpired))

	// Verify
	mockRoomRepo.AssertNotCalled(t, "Save", mock.Anything, mock.Anything)
}

// --- 测试 FindRoom 方法 ---

func TestRoomService_FindRoom_Success_RefreshesLastActive(t *testing.T) {
	// Arrange
	mockRoomRepo := new(mocks.RoomRepository)
	mockMusic := new(musicmocks.Client)
	roomService := service.NewRoomService(mockRoomRepo, mockMusic)
	ctx := context.Background()

	staleTime := time.Now().Add(-2 * time.Hour)
	roomInDb := &domain.Room{Code: "ab1cd", AccessToken: "token", TrackCount: 3, LastActive: staleTime}

	mockRoomRepo.On("FindByCode", ctx, "ab1cd").Return(roomInDb, nil).Once()
	// 查找成功后只刷新 last_active 这一列
	mockRoomRepo.On("TouchLastActive", ctx, "ab1cd", mock.MatchedBy(func(ts time.Time) bool {
		return ts.After(staleTime)
	})).Return(nil).Once()

	// Act
	room, err := roomService.FindRoom(ctx, "ab1cd")

	// Assert
	assert.NoError(t, err)
	require.NotNil(t, room)
	assert.Equal(t, 3, room.TrackCount)
	assert.True(t, room.LastActive.After(staleTime), "活跃时间应被刷新")

	// Verify: 查找方不持房间锁，不允许整行覆盖——
	// 否则会把读到的旧计数写回去，抹掉并发加歌的递增
	mockRoomRepo.AssertExpectations(t)
	mockRoomRepo.AssertNotCalled(t, "Save", mock.Anything, mock.Anything)
}

func TestRoomService_FindRoom_DoesNotClobberConcurrentIncrement(t *testing.T) {
	// Arrange: 模拟查找期间另一个请求在锁内把计数从 4 递增到 5。
	// 查找方手里的内存副本还是 4，绝不能整行写回数据库。
	mockRoomRepo := new(mocks.RoomRepository)
	mockMusic := new(musicmocks.Client)
	roomService := service.NewRoomService(mockRoomRepo, mockMusic)
	ctx := context.Background()

	staleCopy := &domain.Room{Code: "ab1cd", TrackCount: 4, LastActive: time.Now().Add(-time.Minute)}
	mockRoomRepo.On("FindByCode", ctx, "ab1cd").Return(staleCopy, nil).Once()
	mockRoomRepo.On("TouchLastActive", ctx, "ab1cd", mock.AnythingOfType("time.Time")).Return(nil).Once()

	// Act
	_, err := roomService.FindRoom(ctx, "ab1cd")

	// Assert
	assert.NoError(t, err)

	// Verify: 刷新活跃时间必须是列级更新，track_count 列不经手
	mockRoomRepo.AssertNotCalled(t, "Save", mock.Anything, mock.Anything)
	mockRoomRepo.AssertExpectations(t)
}

func TestRoomService_FindRoom_NotFound(t *testing.T) {
	// Arrange
	mockRoomRepo := new(mocks.RoomRepository)
	mockMusic := new(musicmocks.Client)
	roomService := service.NewRoomService(mockRoomRepo, mockMusic)
	ctx := context.Background()

	mockRoomRepo.On("FindByCode", ctx, "zzzzz").Return(nil, repository.ErrRoomNotFound).Once()

	// Act
	room, err := roomService.FindRoom(ctx, "zzzzz")

	// Assert
	require.Error(t, err)
	assert.Nil(t, room)
	assert.True(t, errors.Is(err, service.ErrRoomNotFound))

	// Verify
	mockRoomRepo.AssertExpectations(t)
	mockRoomRepo.AssertNotCalled(t, "Save", mock.Anything, mock.Anything)
}

// --- 测试 EndRoom 方法 ---

func TestRoomService_EndRoom_Success(t *testing.T) {
	// Arrange
	mockRoomRepo := new(mocks.RoomRepository)
	mockMusic := new(musicmocks.Client)
	roomService := service.NewRoomService(mockRoomRepo, mockMusic)
	ctx := context.Background()

	mockRoomRepo.On("Delete", ctx, "ab1cd").Return(nil).Once()

	// Act & Assert
	assert.NoError(t, roomService.EndRoom(ctx, "ab1cd"))
	mockRoomRepo.AssertExpectations(t)
}

func TestRoomService_EndRoom_NotFound(t *testing.T) {
	// Arrange
	mockRoomRepo := new(mocks.RoomRepository)
	mockMusic := new(musicmocks.Client)
	roomService := service.NewRoomService(mockRoomRepo, mockMusic)
	ctx := context.Background()

	mockRoomRepo.On("Delete", ctx, "zzzzz").Return(repository.ErrRoomNotFound).Once()

	// Act
	err := roomService.EndRoom(ctx, "zzzzz")

	// Assert
	require.Error(t, err)
	assert.True(t, errors.Is(err, service.ErrRoomNotFound))
}

// --- 测试 CleanupInactive 方法 ---

func TestRoomService_CleanupInactive_DeletesStaleRooms(t *testing.T) {
	// Arrange
	mockRoomRepo := new(mocks.RoomRepository)
	mockMusic := new(musicmocks.Client)
	roomService := service.NewRoomService(mockRoomRepo, mockMusic)
	ctx := context.Background()
	cutoff := time.Now().Add(-24 * time.Hour)

	staleRooms := []domain.Room{
		{Code: "aaaaa"},
		{Code: "bbbbb"},
		{Code: "ccccc"},
	}
	mockRoomRepo.On("FindInactiveSince", ctx, cutoff).Return(staleRooms, nil).Once()
	mockRoomRepo.On("Delete", ctx, "aaaaa").Return(nil).Once()
	// 第二个房间已被并发清理，不应计入也不应中断
	mockRoomRepo.On("Delete", ctx, "bbbbb").Return(repository.ErrRoomNotFound).Once()
	mockRoomRepo.On("Delete", ctx, "ccccc").Return(nil).Once()

	// Act
	deleted, err := roomService.CleanupInactive(ctx, cutoff)

	// Assert
	assert.NoError(t, err)
	assert.Equal(t, 2, deleted, "只有真正删除的房间才计数")

	// Verify
	mockRoomRepo.AssertExpectations(t)
}

func TestRoomService_CleanupInactive_NothingToDo(t *testing.T) {
	// Arrange
	mockRoomRepo := new(mocks.RoomRepository)
	mockMusic := new(musicmocks.Client)
	roomService := service.NewRoomService(mockRoomRepo, mockMusic)
	ctx := context.Background()
	cutoff := time.Now().Add(-24 * time.Hour)

	mockRoomRepo.On("FindInactiveSince", ctx, cutoff).Return([]domain.Room{}, nil).Once()

	// Act
	deleted, err := roomService.CleanupInactive(ctx, cutoff)

	// Assert
	assert.NoError(t, err)
	assert.Zero(t, deleted)
	mockRoomRepo.AssertNotCalled(t, "Delete", mock.Anything, mock.Anything)
}
