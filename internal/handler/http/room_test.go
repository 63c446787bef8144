package http_test // 测试包

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"collabify/internal/domain"
	httpHandler "collabify/internal/handler/http"
	"collabify/internal/music"
	musicmocks "collabify/internal/music/mocks"
	"collabify/internal/repository"
	"collabify/internal/repository/mocks"
	"collabify/internal/service"
)

// newTestRouter 用 Mock 仓库搭出真实的 Service + Handler + 路由。
func newTestRouter(mockRoomRepo *mocks.RoomRepository, mockStateRepo *mocks.StateRepository, mockMusic *musicmocks.Client) *gin.Engine {
	gin.SetMode(gin.TestMode)
	roomService := service.NewRoomService(mockRoomRepo, mockMusic)
	playbackService := service.NewPlaybackService(mockRoomRepo, mockStateRepo, mockMusic)

	roomHandler := httpHandler.NewRoomHandler(roomService)
	playbackHandler := httpHandler.NewPlaybackHandler(playbackService)

	router := gin.New()
	router.POST("/find_room", roomHandler.FindRoom)
	router.DELETE("/rooms/:code", roomHandler.EndRoom)
	router.GET("/add/:code/:uri", playbackHandler.AddTrack)
	return router
}

func TestRoomHandler_FindRoom_Success(t *testing.T) {
	// Arrange
	mockRoomRepo := new(mocks.RoomRepository)
	router := newTestRouter(mockRoomRepo, new(mocks.StateRepository), new(musicmocks.Client))

	room := &domain.Room{Code: "ab1cd", TrackCount: 7, LastActive: time.Now().Add(-time.Hour)}
	mockRoomRepo.On("FindByCode", mock.Anything, "ab1cd").Return(room, nil).Once()
	mockRoomRepo.On("TouchLastActive", mock.Anything, "ab1cd", mock.AnythingOfType("time.Time")).Return(nil).Once()

	// Act
	w := httptest.NewRecorder()
	req, _ := http.NewRequest("POST", "/find_room", strings.NewReader("rc=ab1cd"))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	router.ServeHTTP(w, req)

	// Assert
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"room_code":"ab1cd"`)
	assert.Contains(t, w.Body.String(), `"track_count":7`)
	mockRoomRepo.AssertExpectations(t)
}

func TestRoomHandler_FindRoom_MissingCode(t *testing.T) {
	// Arrange
	router := newTestRouter(new(mocks.RoomRepository), new(mocks.StateRepository), new(musicmocks.Client))

	// Act: 不带 rc 字段
	w := httptest.NewRecorder()
	req, _ := http.NewRequest("POST", "/find_room", strings.NewReader(""))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	router.ServeHTTP(w, req)

	// Assert
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestRoomHandler_FindRoom_NotFound(t *testing.T) {
	// Arrange
	mockRoomRepo := new(mocks.RoomRepository)
	router := newTestRouter(mockRoomRepo, new(mocks.StateRepository), new(musicmocks.Client))

	mockRoomRepo.On("FindByCode", mock.Anything, "zzzzz").Return(nil, repository.ErrRoomNotFound).Once()

	// Act
	w := httptest.NewRecorder()
	req, _ := http.NewRequest("POST", "/find_room", strings.NewReader("rc=zzzzz"))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	router.ServeHTTP(w, req)

	// Assert
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestPlaybackHandler_AddTrack_RoomBusy_MapsTo409(t *testing.T) {
	// Arrange: 房间锁被占，点歌请求应得到 409 而不是悄悄丢更新
	mockStateRepo := new(mocks.StateRepository)
	router := newTestRouter(new(mocks.RoomRepository), mockStateRepo, new(musicmocks.Client))

	mockStateRepo.On("AcquireRoomLock", mock.Anything, "ab1cd", mock.Anything, mock.Anything).
		Return("", false, nil).Once()

	// Act
	w := httptest.NewRecorder()
	req, _ := http.NewRequest("GET", "/add/ab1cd/spotify:track:abc123", nil)
	router.ServeHTTP(w, req)

	// Assert
	assert.Equal(t, http.StatusConflict, w.Code)
}

func TestPlaybackHandler_AddTrack_AuthExpired_MapsTo401(t *testing.T) {
	// Arrange: 房间凭证过期，上游拒绝加歌
	mockRoomRepo := new(mocks.RoomRepository)
	mockStateRepo := new(mocks.StateRepository)
	mockMusic := new(musicmocks.Client)
	router := newTestRouter(mockRoomRepo, mockStateRepo, mockMusic)

	mockStateRepo.On("AcquireRoomLock", mock.Anything, "ab1cd", mock.Anything, mock.Anything).
		Return("lock-token-1", true, nil).Once()
	mockStateRepo.On("ReleaseRoomLock", mock.Anything, "ab1cd", "lock-token-1").Return(nil).Once()
	room := &domain.Room{Code: "ab1cd", AccessToken: "stale", PlaylistID: "pl-1", PlaylistURI: "spotify:playlist:pl-1"}
	mockRoomRepo.On("FindByCode", mock.Anything, "ab1cd").Return(room, nil).Once()
	mockMusic.On("AddTrack", mock.Anything, "stale", "pl-1", "spotify:track:abc123").
		Return(music.ErrAuthExpired).Once()

	// Act
	w := httptest.NewRecorder()
	req, _ := http.NewRequest("GET", "/add/ab1cd/spotify:track:abc123", nil)
	router.ServeHTTP(w, req)

	// Assert
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Contains(t, w.Body.String(), "authenticate")
}

func TestRoomHandler_EndRoom_Success(t *testing.T) {
	// Arrange
	mockRoomRepo := new(mocks.RoomRepository)
	router := newTestRouter(mockRoomRepo, new(mocks.StateRepository), new(musicmocks.Client))

	mockRoomRepo.On("Delete", mock.Anything, "ab1cd").Return(nil).Once()

	// Act
	w := httptest.NewRecorder()
	req, _ := http.NewRequest("DELETE", "/rooms/ab1cd", nil)
	router.ServeHTTP(w, req)

	// Assert
	assert.Equal(t, http.StatusOK, w.Code)
	mockRoomRepo.AssertExpectations(t)
}
