package worker

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/hibiken/asynq"
	"github.com/sirupsen/logrus"

	"collabify/internal/service"
	"collabify/internal/tasks"
)

// 默认的房间最大闲置时长。凭证不刷新，闲置超过一天的房间
// 大概率已经不可用了，留着只会让表无界增长。
const defaultMaxIdleHours = 24

// RoomCleanupHandler 处理周期性的不活跃房间清理任务
type RoomCleanupHandler struct {
	roomService *service.RoomService
}

// NewRoomCleanupHandler 创建 RoomCleanupHandler 实例
func NewRoomCleanupHandler(roomService *service.RoomService) *RoomCleanupHandler {
	if roomService == nil {
		panic("RoomService cannot be nil for RoomCleanupHandler")
	}
	return &RoomCleanupHandler{roomService: roomService}
}

// ProcessTask 执行一轮不活跃房间清理
func (h *RoomCleanupHandler) ProcessTask(ctx context.Context, task *asynq.Task) error {
	var payload tasks.RoomCleanupPayload
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		return fmt.Errorf("failed to unmarshal room cleanup payload: %w", err)
	}
	if payload.MaxIdleHours <= 0 {
		payload.MaxIdleHours = defaultMaxIdleHours
	}

	cutoff := time.Now().Add(-time.Duration(payload.MaxIdleHours) * time.Hour)
	deleted, err := h.roomService.CleanupInactive(ctx, cutoff)
	if err != nil {
		return fmt.Errorf("room cleanup failed: %w", err)
	}

	logrus.WithFields(logrus.Fields{
		"deleted":        deleted,
		"max_idle_hours": payload.MaxIdleHours,
	}).Info("Room cleanup task completed")
	return nil
}
