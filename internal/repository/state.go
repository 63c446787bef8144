package repository

import (
	"context"
	"time"

	"collabify/internal/domain"
)

// StateRepository 定义了房间运行时状态的操作 (锁、事件广播)。
// 这些状态是易失的，存放在 Redis 而不是关系库中。
type StateRepository interface {
	// AcquireRoomLock 尝试获取指定房间的互斥锁。
	// 加歌的读-改-写序列必须在该锁的保护下执行。
	// 成功时返回本次持锁的令牌；在 wait 时间内未能获取到锁时
	// acquired 为 false。
	AcquireRoomLock(ctx context.Context, code string, ttl, wait time.Duration) (token string, acquired bool, err error)

	// ReleaseRoomLock 释放指定房间的互斥锁。
	// 只有令牌仍与锁值一致时才删除：持锁超过 TTL 后锁可能已经
	// 易主，不能把别人的锁删掉。
	ReleaseRoomLock(ctx context.Context, code, token string) error

	// PublishRoomEvent 将队列事件发布到房间的广播频道。
	// 任何订阅了该房间的进程都会把事件转发给本地 WebSocket 客户端。
	PublishRoomEvent(ctx context.Context, code string, event domain.RoomEvent) error
}
