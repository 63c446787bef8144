package domain

import "time"

// Room 表示一个共享的点歌房间。
// 一个房间由创建者的授权凭证和一个专属播放列表支撑，
// 其他参与者通过 5 位房间码加入。
type Room struct {
	Code        string    `gorm:"primaryKey;size:5"`  // 房间码 (主键)，由 UUID 片段生成，不由用户指定
	AccessToken string    `gorm:"size:512;not null"`  // 创建者的 Bearer 凭证，每个房间一个 (不做刷新)
	PlaylistID  string    `gorm:"size:64;not null"`   // 房间播放列表 ID，创建后不可变
	PlaylistURI string    `gorm:"size:128;not null"`  // 播放列表 context URI，用于 (重新) 启动播放
	DeviceID    string    `gorm:"size:64"`            // 当前选择的播放设备 ID，空表示未选择
	TrackCount  int       `gorm:"not null;default:0"` // 房间自己的点歌计数，只增不减
	CreatedAt   time.Time `gorm:"autoCreateTime"`     // 房间创建时间 (GORM 自动填充)
	LastActive  time.Time `gorm:"index"`              // 房间最后活跃时间，用于清理不活跃房间
	UpdatedAt   time.Time `gorm:"autoUpdateTime"`     // 记录最后更新时间 (GORM 自动填充)
}

// RoomEvent 是广播给房间内 WebSocket 客户端的队列事件。
type RoomEvent struct {
	Type       string `json:"type"` // "track_added" / "playback_restarted" / "device_selected"
	RoomCode   string `json:"room_code"`
	TrackURI   string `json:"track_uri,omitempty"`   // track_added 时填充
	TrackCount int    `json:"track_count,omitempty"` // 事件发生后的房间计数
	Offset     *int   `json:"offset,omitempty"`      // playback_restarted 时的起始偏移 (nil 表示从头)
}
