package hub

import (
	"time"

	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"
)

// Client 代表一个连接到 Hub 的 WebSocket 客户端。
// 事件流是单向的：服务端推送房间事件，客户端只需要保活。
type Client struct {
	hub      *Hub
	conn     *websocket.Conn
	roomCode string
	send     chan []byte
}

// NewClient 创建一个新的 Client 实例
func NewClient(hub *Hub, conn *websocket.Conn, roomCode string) *Client {
	return &Client{
		hub:      hub,
		conn:     conn,
		roomCode: roomCode,
		send:     make(chan []byte, 64),
	}
}

// Run 启动客户端的读写 goroutine
func (c *Client) Run() {
	go c.WritePump()
	go c.ReadPump()
}

// ReadPump 消费连接上的入站帧以驱动 Pong 处理，检测断开。
// 事件流不接受客户端消息，读到的文本帧直接丢弃。
func (c *Client) ReadPump() {
	defer func() {
		// 经由 QueueMessage 注销：Hub 关闭后它直接拒收，
		// 不会打在已关闭的通道上
		unregisterMsg := HubMessage{Type: "unregister", RoomCode: c.roomCode, Client: c}
		if !c.hub.QueueMessage(unregisterMsg) {
			logrus.WithField("room_code", c.roomCode).Warn("Hub unavailable, client unregister dropped")
		}
		c.conn.Close()
		logrus.WithField("room_code", c.roomCode).Info("ReadPump exited, unregistered client")
	}()

	c.conn.SetReadLimit(maxMessageSize)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, _, err := c.conn.ReadMessage()
		if err != nil {
			logCtx := logrus.WithField("room_code", c.roomCode)
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				logCtx.WithError(err).Warn("WebSocket read error (unexpected close)")
			} else {
				logCtx.Debug("WebSocket connection closed normally or read error")
			}
			break
		}
	}
}

// WritePump 将 send 通道里的事件写入 WebSocket 连接，定期发送 Ping。
func (c *Client) WritePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
		logrus.WithField("room_code", c.roomCode).Info("WritePump exited")
	}()

	for {
		select {
		case message, ok := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				// send 通道被 Hub 关闭了 (通常在注销时)
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
				logrus.WithField("room_code", c.roomCode).WithError(err).Warn("Failed to write message to websocket")
				return
			}
			_ = c.conn.SetWriteDeadline(time.Time{})

		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				logrus.WithField("room_code", c.roomCode).WithError(err).Warn("Failed to send ping message")
				return
			}
			_ = c.conn.SetWriteDeadline(time.Time{})
		}
	}
}

func (c *Client) RoomCode() string { return c.roomCode }
func (c *Client) CloseConn()       { c.conn.Close() }
