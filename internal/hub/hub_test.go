package hub_test // 测试包

import (
	"testing"

	"github.com/go-redis/redis/v8"
	"github.com/stretchr/testify/assert"

	"collabify/internal/hub"
	redisstate "collabify/internal/infra/state/redis"
)

// newTestHub 构造一个不依赖运行中 Redis 的 Hub (不调用 Run)。
func newTestHub() *hub.Hub {
	client := redis.NewClient(&redis.Options{})
	return hub.NewHub(client, redisstate.NewRedisStateRepository(client, "cf:"))
}

func TestHub_QueueMessage_BeforeShutdown(t *testing.T) {
	h := newTestHub()

	ok := h.QueueMessage(hub.HubMessage{Type: "register", RoomCode: "ab1cd"})
	assert.True(t, ok, "正常状态下消息应成功入队")
}

func TestHub_QueueMessage_AfterShutdown_DoesNotPanic(t *testing.T) {
	// 关闭窗口内客户端断开会触发注销消息，
	// 它必须被拒收而不是打在已关闭的通道上
	h := newTestHub()
	h.StopAllSubscriptions()

	assert.NotPanics(t, func() {
		ok := h.QueueMessage(hub.HubMessage{Type: "unregister", RoomCode: "ab1cd"})
		assert.False(t, ok, "Hub 关闭后消息应被拒收")
	})
}

func TestHub_StopAllSubscriptions_Idempotent(t *testing.T) {
	h := newTestHub()

	assert.NotPanics(t, func() {
		h.StopAllSubscriptions()
		h.StopAllSubscriptions()
	})
}
