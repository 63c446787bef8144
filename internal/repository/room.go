package repository

import (
	"context"
	"time"

	"collabify/internal/domain"
)

// RoomRepository 定义了房间数据的存储和检索操作。
type RoomRepository interface {
	// FindByCode 根据房间码查找房间。
	// 如果房间不存在，应返回 ErrRoomNotFound。
	FindByCode(ctx context.Context, code string) (*domain.Room, error)

	// Save 保存房间信息。
	// 如果房间已存在 (基于 Code)，则更新；否则创建新房间。
	Save(ctx context.Context, room *domain.Room) error

	// Delete 删除指定房间码的房间记录。
	// 如果房间不存在，应返回 ErrRoomNotFound。
	Delete(ctx context.Context, code string) error

	// IsCodeExists 检查房间码是否已被占用。
	IsCodeExists(ctx context.Context, code string) (bool, error)

	// TouchLastActive 只更新房间的 LastActive 列。
	// 不持有房间锁的写入方必须用它而不是 Save：整行覆盖会把
	// 读取时的旧计数写回去，抹掉锁内并发完成的递增。
	TouchLastActive(ctx context.Context, code string, t time.Time) error

	// UpdateDevice 只更新房间的 DeviceID 和 LastActive 列。
	UpdateDevice(ctx context.Context, code, deviceID string, t time.Time) error

	// FindInactiveSince 查询 LastActive 早于给定时刻的房间列表。
	// 主要用于后台清理任务。
	FindInactiveSince(ctx context.Context, cutoff time.Time) ([]domain.Room, error)
}
