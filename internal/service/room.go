package service

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"collabify/internal/domain"
	"collabify/internal/music"
	"collabify/internal/repository"
)

// PlaylistName 是每个房间背后新建播放列表的固定名称。
const PlaylistName = "Collabify"

const (
	// 房间码取 UUID 文本形式的第 24~29 位，共 5 个字符
	roomCodeStart  = 24
	roomCodeLength = 5
	// 撞码重试上限。5 位码的生日碰撞概率可以忽略，
	// 设上限只是为了避免无界循环
	maxCodeAttempts = 32
)

// RoomService 负责房间生命周期相关的业务逻辑。
type RoomService struct {
	roomRepo    repository.RoomRepository
	musicClient music.Client
}

// NewRoomService 创建 RoomService 实例。
func NewRoomService(roomRepo repository.RoomRepository, musicClient music.Client) *RoomService {
	if roomRepo == nil {
		panic("RoomRepository cannot be nil for RoomService")
	}
	if musicClient == nil {
		panic("music.Client cannot be nil for RoomService")
	}
	return &RoomService{
		roomRepo:    roomRepo,
		musicClient: musicClient,
	}
}

// CreateRoom 用授权完成后拿到的凭证创建一个新房间：
// 生成唯一房间码，在供应商侧创建房间播放列表，持久化计数为 0 的房间记录。
// 创建阶段不会触发任何播放调用。
func (s *RoomService) CreateRoom(ctx context.Context, accessToken string) (*domain.Room, error) {
	// 1. 生成唯一的房间码
	code, err := s.generateUniqueRoomCode(ctx)
	if err != nil {
		logrus.WithError(err).Error("Failed to generate unique room code")
		return nil, err
	}
	logCtx := logrus.WithField("room_code", code)

	// 2. 在供应商侧创建房间播放列表
	playlist, err := s.musicClient.CreatePlaylist(ctx, accessToken, PlaylistName)
	if err != nil {
		logCtx.WithError(err).Error("Failed to create backing playlist")
		// 保留 music 包的错误类型，由 Handler 映射为 HTTP 状态
		return nil, err
	}
	logCtx = logCtx.WithField("playlist_id", playlist.ID)

	// 3. 持久化房间记录
	room := &domain.Room{
		Code:        code,
		AccessToken: accessToken,
		PlaylistID:  playlist.ID,
		PlaylistURI: playlist.URI,
		TrackCount:  0,
		LastActive:  time.Now(),
	}
	if err := s.roomRepo.Save(ctx, room); err != nil {
		if errors.Is(err, repository.ErrDuplicateEntry) {
			// 码在生成检查和插入之间被抢注，理论上几乎不可能
			logCtx.WithError(err).Error("Failed to save new room due to duplicate entry (room code conflict?)")
			return nil, ErrInternalServer
		}
		logCtx.WithError(err).Error("Failed to save new room to database")
		return nil, ErrInternalServer
	}

	logCtx.Info("Room created successfully")
	return room, nil
}

// FindRoom 根据房间码查找房间，顺带刷新 LastActive。
func (s *RoomService) FindRoom(ctx context.Context, code string) (*domain.Room, error) {
	logCtx := logrus.WithField("room_code", code)
	room, err := s.roomRepo.FindByCode(ctx, code)
	if err != nil {
		if errors.Is(err, repository.ErrRoomNotFound) {
			logCtx.Warn("FindRoom: Room not found")
			return nil, ErrRoomNotFound
		}
		logCtx.WithError(err).Error("FindRoom: Repository error")
		return nil, ErrInternalServer
	}

	// 列级更新而不是 Save：这里不持房间锁，整行覆盖会把
	// 刚读到的旧计数写回去，抹掉并发加歌的递增
	now := time.Now()
	if err := s.roomRepo.TouchLastActive(ctx, code, now); err != nil {
		// 刷新活跃时间失败不影响查找结果
		logCtx.WithError(err).Warn("FindRoom: Failed to refresh LastActive")
	} else {
		room.LastActive = now
	}
	return room, nil
}

// EndRoom 删除房间记录。房间的播放列表保留在用户账号里。
func (s *RoomService) EndRoom(ctx context.Context, code string) error {
	logCtx := logrus.WithField("room_code", code)
	err := s.roomRepo.Delete(ctx, code)
	if err != nil {
		if errors.Is(err, repository.ErrRoomNotFound) {
			logCtx.Warn("EndRoom: Room not found")
			return ErrRoomNotFound
		}
		logCtx.WithError(err).Error("EndRoom: Repository error")
		return ErrInternalServer
	}
	logCtx.Info("Room ended")
	return nil
}

// CleanupInactive 删除 LastActive 早于 cutoff 的房间，返回删除数量。
// 由后台周期任务调用；房间凭证不会刷新，闲置过久的房间早已不可用。
func (s *RoomService) CleanupInactive(ctx context.Context, cutoff time.Time) (int, error) {
	rooms, err := s.roomRepo.FindInactiveSince(ctx, cutoff)
	if err != nil {
		logrus.WithError(err).Error("CleanupInactive: Failed to list inactive rooms")
		return 0, ErrInternalServer
	}

	deleted := 0
	for _, room := range rooms {
		if err := s.roomRepo.Delete(ctx, room.Code); err != nil {
			if errors.Is(err, repository.ErrRoomNotFound) {
				continue // 已被并发清理
			}
			logrus.WithError(err).WithField("room_code", room.Code).Warn("CleanupInactive: Failed to delete room")
			continue
		}
		deleted++
	}
	if deleted > 0 {
		logrus.WithFields(logrus.Fields{"deleted": deleted, "cutoff": cutoff}).Info("Inactive rooms cleaned up")
	}
	return deleted, nil
}

// --- 私有辅助函数 ---

// generateUniqueRoomCode 生成唯一的房间码。
// 码取随机 UUID 文本形式的一个定长片段，撞码就重掷，设重试上限。
func (s *RoomService) generateUniqueRoomCode(ctx context.Context) (string, error) {
	for attempt := 0; attempt < maxCodeAttempts; attempt++ {
		id := uuid.New().String()
		code := id[roomCodeStart : roomCodeStart+roomCodeLength]

		exists, err := s.roomRepo.IsCodeExists(ctx, code)
		if err != nil {
			logrus.WithError(err).WithField("room_code", code).Error("Database error checking room code uniqueness")
			return "", ErrInternalServer
		}
		if !exists {
			logrus.WithField("room_code", code).Debugf("Generated unique room code after %d attempt(s).", attempt+1)
			return code, nil
		}
		logrus.WithField("room_code", code).Warnf("Generated room code already exists, retrying (attempt %d)...", attempt+1)
	}
	logrus.Errorf("Failed to generate a unique room code after %d attempts", maxCodeAttempts)
	return "", ErrCodeSpaceExhausted
}
