package tasks

import "encoding/json"

// 定义任务类型常量
const (
	// TypeRoomCleanup 周期性清理不活跃房间的任务类型
	TypeRoomCleanup = "room:cleanup_inactive"
)

// RoomCleanupPayload 定义了房间清理任务的数据结构
type RoomCleanupPayload struct {
	// MaxIdleHours 房间允许的最大闲置小时数，超过即删除
	MaxIdleHours int `json:"max_idle_hours"`
}

// NewRoomCleanupTask 创建一个新的房间清理任务 payload
func NewRoomCleanupTask(maxIdleHours int) ([]byte, error) {
	payload := RoomCleanupPayload{MaxIdleHours: maxIdleHours}
	return json.Marshal(payload)
}
