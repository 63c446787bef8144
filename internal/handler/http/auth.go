package http

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"collabify/internal/music"
	"collabify/internal/service"
)

// AuthHandler 封装供应商 OAuth 流程与房间创建的 HTTP 处理逻辑。
type AuthHandler struct {
	authenticator   music.Authenticator
	roomService     *service.RoomService
	playbackService *service.PlaybackService
}

// NewAuthHandler 创建 AuthHandler 实例
func NewAuthHandler(authenticator music.Authenticator, roomService *service.RoomService, playbackService *service.PlaybackService) *AuthHandler {
	return &AuthHandler{
		authenticator:   authenticator,
		roomService:     roomService,
		playbackService: playbackService,
	}
}

// Authenticate 把房主重定向到供应商授权页 (固定 scope 与回调地址)。
func (h *AuthHandler) Authenticate(c *gin.Context) {
	c.Redirect(http.StatusFound, h.authenticator.AuthURL(""))
}

// CallbackResponse 定义授权回调成功的响应结构体
type CallbackResponse struct {
	Message  string         `json:"message"`
	RoomCode string         `json:"room_code"`
	Devices  []music.Device `json:"devices"`
}

// Callback 处理供应商授权回调：换取凭证、创建房间、返回房间码和
// 可用设备列表 (供房主完成播放设置)。
func (h *AuthHandler) Callback(c *gin.Context) {
	authCode := c.Query("code")
	if authCode == "" {
		ErrorResponse(c, http.StatusBadRequest, "missing authorization code")
		return
	}

	token, err := h.authenticator.Exchange(c.Request.Context(), authCode)
	if err != nil {
		logrus.WithError(err).Error("Handler.Callback: Token exchange failed")
		ErrorResponse(c, http.StatusBadGateway, "failed to exchange authorization code")
		return
	}

	room, err := h.roomService.CreateRoom(c.Request.Context(), token)
	if err != nil {
		logrus.WithError(err).Error("Handler.Callback: Failed to create room")
		HandleServiceError(c, err)
		return
	}
	logCtx := logrus.WithField("room_code", room.Code)

	// 设备列表拿不到也不挡房间创建，返回空列表即可
	devices, err := h.playbackService.Devices(c.Request.Context(), room.Code)
	if err != nil {
		logCtx.WithError(err).Warn("Handler.Callback: Failed to list devices for new room")
		devices = nil
	}

	logCtx.Info("Handler.Callback: Room created via OAuth callback")
	SuccessResponse(c, http.StatusOK, CallbackResponse{
		Message:  "Room created successfully",
		RoomCode: room.Code,
		Devices:  devices,
	})
}
