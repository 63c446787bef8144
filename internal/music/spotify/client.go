package spotifymusic

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/zmb3/spotify/v2"
	"golang.org/x/oauth2"

	"collabify/internal/music"
)

// SpotifyClient 是 music.Client 接口的 Spotify Web API 实现。
// 它不持有任何凭证：每次调用都用传入的房间凭证构造一个带
// Bearer 头的 HTTP 客户端，对应 "每个房间一个凭证" 的模型。
type SpotifyClient struct{}

// NewSpotifyClient 创建 SpotifyClient 实例。
func NewSpotifyClient() *SpotifyClient {
	return &SpotifyClient{}
}

// api 用给定凭证构造一个一次性的 Spotify API 客户端。
func (c *SpotifyClient) api(ctx context.Context, token string) *spotify.Client {
	httpClient := oauth2.NewClient(ctx, oauth2.StaticTokenSource(&oauth2.Token{
		AccessToken: token,
		TokenType:   "Bearer",
	}))
	return spotify.New(httpClient)
}

// mapErr 将 Spotify 库的错误映射为 music 包定义的错误类型。
// 401 视为凭证过期 (房间凭证从不刷新)，其余非 2xx 映射为上游错误。
func mapErr(err error) error {
	if err == nil {
		return nil
	}
	var se spotify.Error
	if errors.As(err, &se) {
		if se.Status == http.StatusUnauthorized {
			return music.ErrAuthExpired
		}
		return &music.UpstreamError{Status: se.Status, Body: se.Message}
	}
	return err
}

// trackID 从 "spotify:track:xxx" 形式的 URI 中取出裸 ID。
// 传入的已经是裸 ID 时原样返回。
func trackID(trackURI string) spotify.ID {
	if idx := strings.LastIndex(trackURI, ":"); idx >= 0 {
		return spotify.ID(trackURI[idx+1:])
	}
	return spotify.ID(trackURI)
}

// CreatePlaylist 为凭证对应的用户创建一个播放列表。
func (c *SpotifyClient) CreatePlaylist(ctx context.Context, token, name string) (music.Playlist, error) {
	api := c.api(ctx, token)
	user, err := api.CurrentUser(ctx)
	if err != nil {
		return music.Playlist{}, mapErr(err)
	}
	playlist, err := api.CreatePlaylistForUser(ctx, user.ID, name, "", true, false)
	if err != nil {
		return music.Playlist{}, mapErr(err)
	}
	return music.Playlist{
		ID:  string(playlist.ID),
		URI: string(playlist.URI),
	}, nil
}

// Search 按关键词搜索曲目。
func (c *SpotifyClient) Search(ctx context.Context, token, query string) ([]music.Track, error) {
	api := c.api(ctx, token)
	results, err := api.Search(ctx, query, spotify.SearchTypeTrack)
	if err != nil {
		return nil, mapErr(err)
	}
	if results.Tracks == nil {
		return nil, nil
	}
	tracks := make([]music.Track, 0, len(results.Tracks.Tracks))
	for _, t := range results.Tracks.Tracks {
		artistNames := make([]string, 0, len(t.Artists))
		for _, a := range t.Artists {
			artistNames = append(artistNames, a.Name)
		}
		tracks = append(tracks, music.Track{
			URI:      string(t.URI),
			Name:     t.Name,
			Artists:  strings.Join(artistNames, ", "),
			Album:    t.Album.Name,
			Duration: int(t.Duration),
		})
	}
	return tracks, nil
}

// AddTrack 向播放列表追加一首曲目。
func (c *SpotifyClient) AddTrack(ctx context.Context, token, playlistID, trackURI string) error {
	api := c.api(ctx, token)
	_, err := api.AddTracksToPlaylist(ctx, spotify.ID(playlistID), trackID(trackURI))
	return mapErr(err)
}

// Devices 列出可用播放设备。
func (c *SpotifyClient) Devices(ctx context.Context, token string) ([]music.Device, error) {
	api := c.api(ctx, token)
	playerDevices, err := api.PlayerDevices(ctx)
	if err != nil {
		return nil, mapErr(err)
	}
	devices := make([]music.Device, 0, len(playerDevices))
	for _, d := range playerDevices {
		devices = append(devices, music.Device{
			ID:     string(d.ID),
			Name:   d.Name,
			Type:   d.Type,
			Active: d.Active,
		})
	}
	return devices, nil
}

// TransferPlayback 将播放转移到指定设备。不校验设备是否接受了转移。
func (c *SpotifyClient) TransferPlayback(ctx context.Context, token, deviceID string) error {
	api := c.api(ctx, token)
	return mapErr(api.TransferPlayback(ctx, spotify.ID(deviceID), false))
}

// Play 恢复当前播放。
func (c *SpotifyClient) Play(ctx context.Context, token string) error {
	return mapErr(c.api(ctx, token).Play(ctx))
}

// Pause 暂停当前播放。
func (c *SpotifyClient) Pause(ctx context.Context, token string) error {
	return mapErr(c.api(ctx, token).Pause(ctx))
}

// Next 跳到下一曲。
func (c *SpotifyClient) Next(ctx context.Context, token string) error {
	return mapErr(c.api(ctx, token).Next(ctx))
}

// Previous 跳回上一曲。
func (c *SpotifyClient) Previous(ctx context.Context, token string) error {
	return mapErr(c.api(ctx, token).Previous(ctx))
}

// StartPlaybackContext 先关闭随机播放，再从给定 context 启动播放。
// 供应商的 context 播放不会自动推进到播放耗尽后才追加的曲目，
// 所以队列尾部追加后必须带 offset 重新启动 context。
func (c *SpotifyClient) StartPlaybackContext(ctx context.Context, token, contextURI string, offset *int) error {
	api := c.api(ctx, token)
	if err := api.Shuffle(ctx, false); err != nil {
		return mapErr(err)
	}
	playbackContext := spotify.URI(contextURI)
	opts := &spotify.PlayOptions{
		PlaybackContext: &playbackContext,
	}
	if offset != nil {
		opts.PlaybackOffset = &spotify.PlaybackOffset{Position: offset}
	}
	return mapErr(api.PlayOpt(ctx, opts))
}

// PlayerState 读取播放器当前状态。
// ContextURI 为空表示播放已经漂移到自动播放/电台续播。
func (c *SpotifyClient) PlayerState(ctx context.Context, token string) (music.PlayerState, error) {
	api := c.api(ctx, token)
	state, err := api.PlayerState(ctx)
	if err != nil {
		return music.PlayerState{}, mapErr(err)
	}
	return music.PlayerState{
		Playing:    state.Playing,
		ContextURI: string(state.PlaybackContext.URI),
	}, nil
}

// PlaylistTrackCount 读取播放列表元数据中的曲目总数。
func (c *SpotifyClient) PlaylistTrackCount(ctx context.Context, token, playlistID string) (int, error) {
	api := c.api(ctx, token)
	playlist, err := api.GetPlaylist(ctx, spotify.ID(playlistID))
	if err != nil {
		return 0, mapErr(err)
	}
	return int(playlist.Tracks.Total), nil
}
