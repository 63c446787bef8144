package music

import "context"

// Playlist 是新建播放列表的标识信息。
type Playlist struct {
	ID  string // 播放列表 ID，用于加歌和读取曲目总数
	URI string // 播放列表 context URI，用于 (重新) 启动播放
}

// Track 是搜索结果中的单个曲目。
type Track struct {
	URI      string `json:"uri"`
	Name     string `json:"name"`
	Artists  string `json:"artists"`
	Album    string `json:"album"`
	Duration int    `json:"duration_ms"`
}

// Device 是一个可用的播放设备。
type Device struct {
	ID     string `json:"id"`
	Name   string `json:"name"`
	Type   string `json:"type"`
	Active bool   `json:"active"`
}

// PlayerState 是播放器的当前状态，用于加歌后的回放对账。
// ContextURI 为空表示播放已经脱离播放列表 context (自动播放/电台续播)。
type PlayerState struct {
	Playing    bool
	ContextURI string
}

// Client 封装对外部音乐服务的出站调用。
// 每个操作都以某个房间的 Bearer 凭证执行一次 API 调用，
// 失败时返回 ErrAuthExpired 或 *UpstreamError，不做重试。
type Client interface {
	// CreatePlaylist 以给定名称为凭证对应的用户创建一个播放列表。
	CreatePlaylist(ctx context.Context, token, name string) (Playlist, error)

	// Search 按关键词搜索曲目。
	Search(ctx context.Context, token, query string) ([]Track, error)

	// AddTrack 向播放列表追加一首曲目。
	// 没有幂等保护：同一 URI 追加两次就会出现两次。
	AddTrack(ctx context.Context, token, playlistID, trackURI string) error

	// Devices 列出可用播放设备。只读，不改变任何状态。
	Devices(ctx context.Context, token string) ([]Device, error)

	// TransferPlayback 将播放转移到指定设备。不校验设备是否真正接受了转移。
	TransferPlayback(ctx context.Context, token, deviceID string) error

	// Play / Pause / Next / Previous 是即发即弃的播放控制。
	Play(ctx context.Context, token string) error
	Pause(ctx context.Context, token string) error
	Next(ctx context.Context, token string) error
	Previous(ctx context.Context, token string) error

	// StartPlaybackContext 先无条件关闭随机播放，再从给定 context 启动播放。
	// offset 为 nil 表示从头开始，否则从指定曲目位置开始。
	StartPlaybackContext(ctx context.Context, token, contextURI string, offset *int) error

	// PlayerState 读取播放器当前状态。只读，不改变任何状态。
	PlayerState(ctx context.Context, token string) (PlayerState, error)

	// PlaylistTrackCount 读取播放列表元数据中的曲目总数。
	// 这是与房间自身计数独立维护的第二个计数，两者可能出现偏差。
	PlaylistTrackCount(ctx context.Context, token, playlistID string) (int, error)
}

// Authenticator 封装供应商 OAuth 授权码流程。
type Authenticator interface {
	// AuthURL 返回带固定 scope 与回调地址的授权跳转 URL。
	AuthURL(state string) string

	// Exchange 用回调请求中的授权码换取 Bearer 凭证。
	Exchange(ctx context.Context, code string) (string, error)
}
