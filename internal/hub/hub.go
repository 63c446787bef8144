package hub

import (
	"context"
	"sync"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/sirupsen/logrus"

	redisstate "collabify/internal/infra/state/redis"
)

// 包级别的 WebSocket 常量，供 hub 和 client 使用
const (
	// Time allowed to write a message to the peer.
	writeWait = 10 * time.Second

	// Time allowed to read the next pong message from the peer.
	pongWait = 60 * time.Second

	// Send pings to peer with this period. Must be less than pongWait.
	pingPeriod = (pongWait * 9) / 10

	// Maximum message size allowed from peer.
	maxMessageSize = 512
)

// HubMessage 定义了在 Hub 内部通道传递的消息类型
type HubMessage struct {
	Type     string  // "register", "unregister"
	RoomCode string  // 房间码
	Client   *Client // 要注册/注销的客户端
}

// Hub 维护每个房间的 WebSocket 客户端集合，并把 Redis 上的房间事件
// 转发给本地客户端。事件经由 Redis pub/sub 传递，所以任何一个进程
// 处理的点歌都会广播到所有进程的客户端。
// 频道命名统一走 RedisStateRepository 的辅助方法，发布端和订阅端
// 不各自拼格式串。
type Hub struct {
	// 内部通道，处理客户端注册/注销
	messageChan chan HubMessage
	// closed 置位后拒绝新消息，关闭流程中的客户端注销不会
	// 撞上已关闭的通道
	closed   bool
	closedMu sync.RWMutex

	// 客户端集合，按房间码组织
	// map[roomCode]map[*Client]bool
	rooms   map[string]map[*Client]bool
	roomsMu sync.RWMutex

	redisClient *redis.Client
	events      *redisstate.RedisStateRepository

	// 订阅生命周期控制
	pubsub     *redis.PubSub
	cancelSubs context.CancelFunc
}

// NewHub 创建并返回一个新的 Hub 实例
func NewHub(redisClient *redis.Client, events *redisstate.RedisStateRepository) *Hub {
	if redisClient == nil {
		panic("redis client cannot be nil for Hub")
	}
	if events == nil {
		panic("state repository cannot be nil for Hub")
	}
	return &Hub{
		messageChan: make(chan HubMessage, 256),
		rooms:       make(map[string]map[*Client]bool),
		redisClient: redisClient,
		events:      events,
	}
}

// Run 启动 Hub 的主事件处理循环。
// 它应该在一个单独的 goroutine 中运行。
func (h *Hub) Run() {
	log := logrus.WithField("component", "hub")
	log.Info("Hub is running...")

	// 一个 PSUBSCRIBE 覆盖所有房间的事件频道
	ctx, cancel := context.WithCancel(context.Background())
	h.cancelSubs = cancel
	h.pubsub = h.redisClient.PSubscribe(ctx, h.events.RoomEventPattern())
	go h.forwardEvents(ctx)

	for msg := range h.messageChan {
		switch msg.Type {
		case "register":
			h.registerClient(msg.Client)
		case "unregister":
			h.unregisterClient(msg.Client)
		default:
			log.Warnf("Hub: Received unknown message type: %s for room %s", msg.Type, msg.RoomCode)
		}
	}
	log.Info("Hub is shutting down...")
}

// forwardEvents 把 Redis 频道上的房间事件转发给对应房间的本地客户端。
func (h *Hub) forwardEvents(ctx context.Context) {
	log := logrus.WithField("component", "hub")
	ch := h.pubsub.Channel()
	for {
		select {
		case <-ctx.Done():
			return
		case msg, ok := <-ch:
			if !ok {
				log.Info("Hub: Redis pubsub channel closed")
				return
			}
			code := h.events.RoomCodeFromEventChannel(msg.Channel)
			if code == "" {
				log.Warnf("Hub: Could not parse room code from channel %s", msg.Channel)
				continue
			}
			h.broadcast(code, []byte(msg.Payload))
		}
	}
}

// registerClient 处理客户端注册逻辑
func (h *Hub) registerClient(client *Client) {
	if client == nil {
		logrus.Error("Hub: Attempted to register a nil client")
		return
	}
	code := client.RoomCode()
	logCtx := logrus.WithFields(logrus.Fields{"room_code": code, "action": "registerClient"})

	h.roomsMu.Lock()
	if _, ok := h.rooms[code]; !ok {
		h.rooms[code] = make(map[*Client]bool)
		logCtx.Info("Client list created for new room")
	}
	h.rooms[code][client] = true
	h.roomsMu.Unlock()
	logCtx.Info("Client registered to Hub")
}

// unregisterClient 处理客户端注销逻辑
func (h *Hub) unregisterClient(client *Client) {
	if client == nil {
		logrus.Error("Hub: Attempted to unregister a nil client")
		return
	}
	code := client.RoomCode()
	logCtx := logrus.WithFields(logrus.Fields{"room_code": code, "action": "unregisterClient"})

	h.roomsMu.Lock()
	if roomClients, roomExists := h.rooms[code]; roomExists {
		if _, clientExists := roomClients[client]; clientExists {
			delete(roomClients, client)

			// 关闭此客户端的 send 通道，这将导致其 WritePump 退出
			select {
			case <-client.send:
				logCtx.Warn("Client send channel already closed or has data during unregister")
			default:
				close(client.send)
			}

			if len(roomClients) == 0 {
				delete(h.rooms, code)
				logCtx.Info("Room empty, removed from Hub")
			}
		} else {
			logCtx.Warn("Client not found in room during unregister")
		}
	} else {
		logCtx.Warn("Room not found during client unregister")
	}
	h.roomsMu.Unlock()
	logCtx.Info("Client unregistered from Hub")
}

// broadcast 将消息发送给指定房间的所有本地客户端
func (h *Hub) broadcast(code string, message []byte) {
	h.roomsMu.RLock()
	roomClients, ok := h.rooms[code]
	clientsToSend := make([]*Client, 0, len(roomClients))
	if ok {
		for client := range roomClients {
			clientsToSend = append(clientsToSend, client)
		}
	}
	h.roomsMu.RUnlock()

	if len(clientsToSend) == 0 {
		return
	}

	logCtx := logrus.WithFields(logrus.Fields{
		"room_code":       code,
		"message_size":    len(message),
		"recipient_count": len(clientsToSend),
	})
	logCtx.Debug("Broadcasting room event to clients")

	for _, client := range clientsToSend {
		// 非阻塞发送，避免单个慢客户端阻塞广播
		select {
		case client.send <- message:
		default:
			logCtx.Warn("Client send channel full during broadcast, skipping this client")
		}
	}
}

// QueueMessage 将消息放入 Hub 的处理队列 (非阻塞)。
// 返回 true 如果消息成功入队；队列已满或 Hub 已关闭时返回 false。
// 读锁覆盖整个发送过程，保证关闭通道时没有发送在途。
func (h *Hub) QueueMessage(msg HubMessage) bool {
	h.closedMu.RLock()
	defer h.closedMu.RUnlock()
	if h.closed {
		logrus.WithFields(logrus.Fields{
			"message_type": msg.Type,
			"room_code":    msg.RoomCode,
		}).Debug("Hub already closed, dropping message")
		return false
	}
	select {
	case h.messageChan <- msg:
		return true
	default:
		logrus.WithFields(logrus.Fields{
			"message_type": msg.Type,
			"room_code":    msg.RoomCode,
		}).Warn("Hub message channel full, dropping message")
		return false
	}
}

// StopAllSubscriptions 停止 Redis 订阅并关闭消息队列，用于优雅关闭。
func (h *Hub) StopAllSubscriptions() {
	if h.cancelSubs != nil {
		h.cancelSubs()
	}
	if h.pubsub != nil {
		if err := h.pubsub.Close(); err != nil {
			logrus.WithError(err).Warn("Hub: Failed to close Redis pubsub")
		}
	}

	// 先拒绝新消息再关通道，避免迟到的注销消息打在关闭的通道上
	h.closedMu.Lock()
	if !h.closed {
		h.closed = true
		close(h.messageChan)
	}
	h.closedMu.Unlock()
}
