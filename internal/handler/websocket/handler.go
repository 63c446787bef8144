package websocket

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"

	"collabify/internal/hub"
	"collabify/internal/service"
)

// WebSocketHandler 负责处理 WebSocket 升级请求和客户端注册
type WebSocketHandler struct {
	upgrader    websocket.Upgrader
	hub         *hub.Hub
	roomService *service.RoomService // 升级前验证房间存在
}

// NewWebSocketHandler 创建 WebSocketHandler 实例
func NewWebSocketHandler(hubInstance *hub.Hub, roomService *service.RoomService) *WebSocketHandler {
	if hubInstance == nil {
		panic("Hub cannot be nil for WebSocketHandler")
	}
	if roomService == nil {
		panic("RoomService cannot be nil for WebSocketHandler")
	}

	upgrader := websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		// 允许所有来源连接 (生产环境应配置具体的允许来源)
		CheckOrigin: func(r *http.Request) bool {
			return true
		},
	}

	return &WebSocketHandler{
		upgrader:    upgrader,
		hub:         hubInstance,
		roomService: roomService,
	}
}

// HandleConnection 处理 WebSocket 连接请求
// URL 预期格式: /ws/room/{code}
func (h *WebSocketHandler) HandleConnection(c *gin.Context) {
	code := c.Param("code")
	logCtx := logrus.WithField("room_code", code)

	// 1. 升级前先验证房间存在
	if _, err := h.roomService.FindRoom(c.Request.Context(), code); err != nil {
		logCtx.WithError(err).Warn("WS Handler: Room lookup failed before upgrade")
		c.JSON(http.StatusNotFound, gin.H{"error": "Room not found"})
		return
	}

	// 2. 升级到 WebSocket
	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		// Upgrade 失败时 gorilla 已经写了响应
		logCtx.WithError(err).Error("WS Handler: Failed to upgrade connection")
		return
	}

	// 3. 创建客户端并注册到 Hub
	client := hub.NewClient(h.hub, conn, code)
	registered := h.hub.QueueMessage(hub.HubMessage{
		Type:     "register",
		RoomCode: code,
		Client:   client,
	})
	if !registered {
		logCtx.Error("WS Handler: Hub queue full, closing connection")
		conn.Close()
		return
	}

	client.Run()
	logCtx.Info("WS Handler: Client connected to room event feed")
}
