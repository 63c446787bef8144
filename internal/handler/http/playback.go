package http

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"collabify/internal/music"
	"collabify/internal/service"
)

// PlaybackHandler 封装点歌、搜索与播放控制的 HTTP 处理逻辑。
type PlaybackHandler struct {
	playbackService *service.PlaybackService
}

// NewPlaybackHandler 创建 PlaybackHandler 实例
func NewPlaybackHandler(playbackService *service.PlaybackService) *PlaybackHandler {
	return &PlaybackHandler{playbackService: playbackService}
}

// SearchResponse 定义搜索成功的响应结构体
type SearchResponse struct {
	RoomCode string        `json:"room_code"`
	Tracks   []music.Track `json:"tracks"`
}

// Search 处理曲目搜索请求 (表单字段 search)。
func (h *PlaybackHandler) Search(c *gin.Context) {
	code := c.Param("code")
	query := c.PostForm("search")
	if query == "" {
		ErrorResponse(c, http.StatusBadRequest, "Invalid input: search is required")
		return
	}

	tracks, err := h.playbackService.Search(c.Request.Context(), code, query)
	if err != nil {
		HandleServiceError(c, err)
		return
	}
	SuccessResponse(c, http.StatusOK, SearchResponse{
		RoomCode: code,
		Tracks:   tracks,
	})
}

// AddTrackResponse 定义点歌成功的响应结构体
type AddTrackResponse struct {
	Message    string `json:"message"`
	RoomCode   string `json:"room_code"`
	TrackCount int    `json:"track_count"`
}

// AddTrack 处理点歌请求：追加曲目并执行回放对账。
func (h *PlaybackHandler) AddTrack(c *gin.Context) {
	code := c.Param("code")
	trackURI := c.Param("uri")
	logCtx := logrus.WithFields(logrus.Fields{"room_code": code, "track_uri": trackURI})

	room, err := h.playbackService.AddTrack(c.Request.Context(), code, trackURI)
	if err != nil {
		logCtx.WithError(err).Warn("Handler.AddTrack: Failed to add track")
		HandleServiceError(c, err)
		return
	}

	logCtx.WithField("track_count", room.TrackCount).Info("Handler.AddTrack: Track added")
	SuccessResponse(c, http.StatusOK, AddTrackResponse{
		Message:    "Track added",
		RoomCode:   room.Code,
		TrackCount: room.TrackCount,
	})
}

// Devices 列出房间可用的播放设备。
func (h *PlaybackHandler) Devices(c *gin.Context) {
	code := c.Param("code")
	devices, err := h.playbackService.Devices(c.Request.Context(), code)
	if err != nil {
		HandleServiceError(c, err)
		return
	}
	SuccessResponse(c, http.StatusOK, gin.H{"room_code": code, "devices": devices})
}

// SelectDevice 将房间播放转移到指定设备。
func (h *PlaybackHandler) SelectDevice(c *gin.Context) {
	code := c.Param("code")
	deviceID := c.Param("device")

	if err := h.playbackService.SelectDevice(c.Request.Context(), code, deviceID); err != nil {
		HandleServiceError(c, err)
		return
	}
	SuccessResponse(c, http.StatusOK, gin.H{"message": "Playback device selected", "room_code": code})
}

// Play 恢复播放。
func (h *PlaybackHandler) Play(c *gin.Context) {
	h.transport(c, h.playbackService.Play)
}

// Pause 暂停播放。
func (h *PlaybackHandler) Pause(c *gin.Context) {
	h.transport(c, h.playbackService.Pause)
}

// Forward 跳到下一曲。
func (h *PlaybackHandler) Forward(c *gin.Context) {
	h.transport(c, h.playbackService.Forward)
}

// Rewind 跳回上一曲。
func (h *PlaybackHandler) Rewind(c *gin.Context) {
	h.transport(c, h.playbackService.Rewind)
}

// transport 是四个播放控制端点的公共路径。
func (h *PlaybackHandler) transport(c *gin.Context, call func(ctx context.Context, code string) error) {
	code := c.Param("code")
	if err := call(c.Request.Context(), code); err != nil {
		HandleServiceError(c, err)
		return
	}
	SuccessResponse(c, http.StatusOK, gin.H{"message": "OK", "room_code": code})
}
