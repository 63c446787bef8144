package service

import (
	"context"
	"errors"
	"time"

	"github.com/sirupsen/logrus"

	"collabify/internal/domain"
	"collabify/internal/music"
	"collabify/internal/repository"
)

const (
	// 房间锁 TTL：持有者崩溃后锁最多存活这么久
	roomLockTTL = 10 * time.Second
	// 等待获取房间锁的上限，超过即返回 ErrRoomBusy
	roomLockWait = 5 * time.Second
)

// PlaybackService 负责点歌、搜索和播放控制。
// 核心是 AddTrack 里的回放对账：加歌之后决定是否需要 (重新) 启动播放。
type PlaybackService struct {
	roomRepo    repository.RoomRepository
	stateRepo   repository.StateRepository
	musicClient music.Client
}

// NewPlaybackService 创建 PlaybackService 实例。
func NewPlaybackService(roomRepo repository.RoomRepository, stateRepo repository.StateRepository, musicClient music.Client) *PlaybackService {
	if roomRepo == nil {
		panic("RoomRepository cannot be nil for PlaybackService")
	}
	if stateRepo == nil {
		panic("StateRepository cannot be nil for PlaybackService")
	}
	if musicClient == nil {
		panic("music.Client cannot be nil for PlaybackService")
	}
	return &PlaybackService{
		roomRepo:    roomRepo,
		stateRepo:   stateRepo,
		musicClient: musicClient,
	}
}

// AddTrack 向房间队列追加一首曲目，然后执行回放对账。
// 整个读-改-写序列在房间互斥锁内执行：同一房间的并发加歌会相互排队，
// 避免计数器出现丢失更新。
//
// 没有幂等保护：同一 URI 加两次就会在播放列表里出现两次，计数也加两次。
func (s *PlaybackService) AddTrack(ctx context.Context, code, trackURI string) (*domain.Room, error) {
	logCtx := logrus.WithFields(logrus.Fields{"room_code": code, "track_uri": trackURI})

	lockToken, acquired, err := s.stateRepo.AcquireRoomLock(ctx, code, roomLockTTL, roomLockWait)
	if err != nil {
		logCtx.WithError(err).Error("AddTrack: Failed to acquire room lock")
		return nil, ErrInternalServer
	}
	if !acquired {
		logCtx.Warn("AddTrack: Room lock busy")
		return nil, ErrRoomBusy
	}
	defer func() {
		if err := s.stateRepo.ReleaseRoomLock(ctx, code, lockToken); err != nil {
			logCtx.WithError(err).Warn("AddTrack: Failed to release room lock")
		}
	}()

	room, err := s.findRoom(ctx, code)
	if err != nil {
		return nil, err
	}

	// 1. 追加曲目
	if err := s.musicClient.AddTrack(ctx, room.AccessToken, room.PlaylistID, trackURI); err != nil {
		logCtx.WithError(err).Error("AddTrack: Upstream add failed")
		return nil, err
	}

	// 2. 更新房间计数 (只增不减)
	room.TrackCount++
	room.LastActive = time.Now()
	if err := s.roomRepo.Save(ctx, room); err != nil {
		logCtx.WithError(err).Error("AddTrack: Failed to persist incremented track count")
		return nil, ErrInternalServer
	}
	logCtx = logCtx.WithField("track_count", room.TrackCount)

	// 3. 回放对账
	started, offset, err := s.reconcile(ctx, room)
	if err != nil {
		logCtx.WithError(err).Error("AddTrack: Playback reconciliation failed")
		return nil, err
	}

	// 4. 广播队列事件
	s.publishEvent(ctx, code, domain.RoomEvent{
		Type:       "track_added",
		RoomCode:   code,
		TrackURI:   trackURI,
		TrackCount: room.TrackCount,
	})
	if started {
		s.publishEvent(ctx, code, domain.RoomEvent{
			Type:     "playback_restarted",
			RoomCode: code,
			Offset:   offset,
		})
	}

	logCtx.WithField("playback_started", started).Info("Track added")
	return room, nil
}

// reconcile 决定刚刚加歌之后是否需要 (重新) 启动播放。
//
// 供应商的 context 播放有一个不直观的行为：播放走到 context 末尾并
// 落入自动播放/电台续播之后，不会自动推进到之后才追加的曲目，必须
// 带 offset 显式重启 context。规则按顺序求值，先匹配先生效：
//
//  1. 房间计数 == 1：这是空房间的第一首歌，无条件从头启动播放。
//  2. (暂停 或 自动播放中) 且 房间计数 == 播放列表实际长度：
//     刚加的歌落在服务商眼里的最后一个位置，而播放已经停掉或漂走，
//     从 offset = 计数-1 (即新歌) 重启。
//  3. 其他情况不动播放器，曲目静静排队等当前 context 播到它。
//
// 已知缺口 (保留原行为)：房间计数在删除时不会回落，与实际长度出现
// 偏差后，规则 2 可能被错误地抑制或提前触发。
func (s *PlaybackService) reconcile(ctx context.Context, room *domain.Room) (started bool, offset *int, err error) {
	trueLength, err := s.musicClient.PlaylistTrackCount(ctx, room.AccessToken, room.PlaylistID)
	if err != nil {
		return false, nil, err
	}
	state, err := s.musicClient.PlayerState(ctx, room.AccessToken)
	if err != nil {
		return false, nil, err
	}

	if room.TrackCount == 1 {
		if err := s.musicClient.StartPlaybackContext(ctx, room.AccessToken, room.PlaylistURI, nil); err != nil {
			return false, nil, err
		}
		return true, nil, nil
	}

	paused := !state.Playing
	autoplaying := state.ContextURI == ""
	if (paused || autoplaying) && room.TrackCount == trueLength {
		pos := room.TrackCount - 1
		if err := s.musicClient.StartPlaybackContext(ctx, room.AccessToken, room.PlaylistURI, &pos); err != nil {
			return false, nil, err
		}
		return true, &pos, nil
	}

	return false, nil, nil
}

// Search 在曲库中按关键词搜索曲目。只读操作，不上房间锁。
func (s *PlaybackService) Search(ctx context.Context, code, query string) ([]music.Track, error) {
	room, err := s.findRoom(ctx, code)
	if err != nil {
		return nil, err
	}
	tracks, err := s.musicClient.Search(ctx, room.AccessToken, query)
	if err != nil {
		logrus.WithError(err).WithField("room_code", code).Error("Search: Upstream search failed")
		return nil, err
	}
	return tracks, nil
}

// Devices 列出房间凭证下可用的播放设备。只读操作。
func (s *PlaybackService) Devices(ctx context.Context, code string) ([]music.Device, error) {
	room, err := s.findRoom(ctx, code)
	if err != nil {
		return nil, err
	}
	devices, err := s.musicClient.Devices(ctx, room.AccessToken)
	if err != nil {
		logrus.WithError(err).WithField("room_code", code).Error("Devices: Upstream device list failed")
		return nil, err
	}
	return devices, nil
}

// SelectDevice 将房间的播放转移到指定设备并记录设备 ID。
// 不校验设备是否真正接受了转移。
func (s *PlaybackService) SelectDevice(ctx context.Context, code, deviceID string) error {
	logCtx := logrus.WithFields(logrus.Fields{"room_code": code, "device_id": deviceID})
	room, err := s.findRoom(ctx, code)
	if err != nil {
		return err
	}
	if err := s.musicClient.TransferPlayback(ctx, room.AccessToken, deviceID); err != nil {
		logCtx.WithError(err).Error("SelectDevice: Upstream transfer failed")
		return err
	}

	// 列级更新而不是 Save：不持房间锁，不能整行覆盖计数
	if err := s.roomRepo.UpdateDevice(ctx, code, deviceID, time.Now()); err != nil {
		logCtx.WithError(err).Error("SelectDevice: Failed to persist device selection")
		return ErrInternalServer
	}

	s.publishEvent(ctx, code, domain.RoomEvent{
		Type:     "device_selected",
		RoomCode: code,
	})
	logCtx.Info("Playback device selected")
	return nil
}

// Play 恢复房间的播放。
func (s *PlaybackService) Play(ctx context.Context, code string) error {
	return s.transport(ctx, code, "play", s.musicClient.Play)
}

// Pause 暂停房间的播放。
func (s *PlaybackService) Pause(ctx context.Context, code string) error {
	return s.transport(ctx, code, "pause", s.musicClient.Pause)
}

// Forward 跳到下一曲。
func (s *PlaybackService) Forward(ctx context.Context, code string) error {
	return s.transport(ctx, code, "forward", s.musicClient.Next)
}

// Rewind 跳回上一曲。
func (s *PlaybackService) Rewind(ctx context.Context, code string) error {
	return s.transport(ctx, code, "rewind", s.musicClient.Previous)
}

// transport 是四个播放控制操作的公共路径：查房间、调上游、刷新活跃时间。
func (s *PlaybackService) transport(ctx context.Context, code, name string, call func(context.Context, string) error) error {
	logCtx := logrus.WithFields(logrus.Fields{"room_code": code, "transport": name})
	room, err := s.findRoom(ctx, code)
	if err != nil {
		return err
	}
	if err := call(ctx, room.AccessToken); err != nil {
		logCtx.WithError(err).Error("Transport action failed upstream")
		return err
	}

	// 列级更新而不是 Save：不持房间锁，不能整行覆盖计数。
	// 控制指令已经生效，活跃时间刷新失败只记日志
	if err := s.roomRepo.TouchLastActive(ctx, code, time.Now()); err != nil {
		logCtx.WithError(err).Warn("Failed to refresh LastActive after transport action")
	}
	return nil
}

// findRoom 查房间并把仓库错误映射为业务错误。
func (s *PlaybackService) findRoom(ctx context.Context, code string) (*domain.Room, error) {
	room, err := s.roomRepo.FindByCode(ctx, code)
	if err != nil {
		if errors.Is(err, repository.ErrRoomNotFound) {
			return nil, ErrRoomNotFound
		}
		logrus.WithError(err).WithField("room_code", code).Error("Repository error looking up room")
		return nil, ErrInternalServer
	}
	return room, nil
}

// publishEvent 发布房间事件，失败只记日志，不影响主流程。
func (s *PlaybackService) publishEvent(ctx context.Context, code string, event domain.RoomEvent) {
	if err := s.stateRepo.PublishRoomEvent(ctx, code, event); err != nil {
		logrus.WithError(err).WithFields(logrus.Fields{
			"room_code":  code,
			"event_type": event.Type,
		}).Warn("Failed to publish room event")
	}
}
