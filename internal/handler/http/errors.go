package http

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"collabify/internal/music"
	"collabify/internal/service"
)

func ErrorResponse(c *gin.Context, code int, message string) {
	c.JSON(code, gin.H{"error": message})
}

func SuccessResponse(c *gin.Context, code int, data interface{}) {
	c.JSON(code, data)
}

// HandleServiceError 将 Service / music 层的错误映射为 HTTP 状态。
// 凭证过期 (401) 单独区分：房间凭证从不刷新，这是最常见的失败。
func HandleServiceError(c *gin.Context, err error) {
	var upstreamErr *music.UpstreamError
	switch {
	case errors.Is(err, service.ErrRoomNotFound):
		ErrorResponse(c, http.StatusNotFound, err.Error())
	case errors.Is(err, service.ErrRoomBusy):
		ErrorResponse(c, http.StatusConflict, err.Error())
	case errors.Is(err, music.ErrAuthExpired):
		ErrorResponse(c, http.StatusUnauthorized, "room session expired, the host must authenticate again")
	case errors.As(err, &upstreamErr):
		logrus.WithError(err).Warn("Upstream music service error")
		ErrorResponse(c, http.StatusBadGateway, err.Error())
	case errors.Is(err, service.ErrCodeSpaceExhausted):
		logrus.WithError(err).Error("Room code space exhausted")
		ErrorResponse(c, http.StatusInternalServerError, err.Error())
	default:
		// Log the internal error for debugging
		logrus.WithError(err).Error("Unhandled internal server error")
		ErrorResponse(c, http.StatusInternalServerError, "An unexpected error occurred")
	}
}
