package http

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"collabify/internal/service"
)

// RoomHandler 封装了与房间管理相关的 HTTP 处理逻辑
type RoomHandler struct {
	roomService *service.RoomService
}

// NewRoomHandler 创建 RoomHandler 实例
func NewRoomHandler(roomService *service.RoomService) *RoomHandler {
	return &RoomHandler{roomService: roomService}
}

// FindRoomResponse 定义查找房间成功的响应结构体
type FindRoomResponse struct {
	Message    string `json:"message"`
	RoomCode   string `json:"room_code"`
	TrackCount int    `json:"track_count"`
}

// FindRoom 处理参与者按房间码加入的请求 (表单字段 rc)。
func (h *RoomHandler) FindRoom(c *gin.Context) {
	code := c.PostForm("rc")
	if code == "" {
		ErrorResponse(c, http.StatusBadRequest, "Invalid input: rc is required")
		return
	}
	logCtx := logrus.WithField("room_code", code)

	room, err := h.roomService.FindRoom(c.Request.Context(), code)
	if err != nil {
		logCtx.WithError(err).Warn("Handler.FindRoom: Lookup failed")
		HandleServiceError(c, err)
		return
	}

	logCtx.Info("Handler.FindRoom: Room found")
	SuccessResponse(c, http.StatusOK, FindRoomResponse{
		Message:    "Room found",
		RoomCode:   room.Code,
		TrackCount: room.TrackCount,
	})
}

// EndRoom 处理显式结束房间的请求。
func (h *RoomHandler) EndRoom(c *gin.Context) {
	code := c.Param("code")
	logCtx := logrus.WithField("room_code", code)

	if err := h.roomService.EndRoom(c.Request.Context(), code); err != nil {
		logCtx.WithError(err).Warn("Handler.EndRoom: Failed to end room")
		HandleServiceError(c, err)
		return
	}

	logCtx.Info("Handler.EndRoom: Room ended")
	SuccessResponse(c, http.StatusOK, gin.H{"message": "Room ended"})
}
