package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"collabify/internal/music"
)

// Client 是 music.Client 的 Mock 实现，供测试使用。
type Client struct {
	mock.Mock
}

// CreatePlaylist 提供 CreatePlaylist 方法的 Mock
func (m *Client) CreatePlaylist(ctx context.Context, token, name string) (music.Playlist, error) {
	args := m.Called(ctx, token, name)
	return args.Get(0).(music.Playlist), args.Error(1)
}

// Search 提供 Search 方法的 Mock
func (m *Client) Search(ctx context.Context, token, query string) ([]music.Track, error) {
	args := m.Called(ctx, token, query)
	var tracks []music.Track
	if args.Get(0) != nil {
		tracks = args.Get(0).([]music.Track)
	}
	return tracks, args.Error(1)
}

// AddTrack 提供 AddTrack 方法的 Mock
func (m *Client) AddTrack(ctx context.Context, token, playlistID, trackURI string) error {
	args := m.Called(ctx, token, playlistID, trackURI)
	return args.Error(0)
}

// Devices 提供 Devices 方法的 Mock
func (m *Client) Devices(ctx context.Context, token string) ([]music.Device, error) {
	args := m.Called(ctx, token)
	var devices []music.Device
	if args.Get(0) != nil {
		devices = args.Get(0).([]music.Device)
	}
	return devices, args.Error(1)
}

// TransferPlayback 提供 TransferPlayback 方法的 Mock
func (m *Client) TransferPlayback(ctx context.Context, token, deviceID string) error {
	args := m.Called(ctx, token, deviceID)
	return args.Error(0)
}

// Play 提供 Play 方法的 Mock
func (m *Client) Play(ctx context.Context, token string) error {
	args := m.Called(ctx, token)
	return args.Error(0)
}

// Pause 提供 Pause 方法的 Mock
func (m *Client) Pause(ctx context.Context, token string) error {
	args := m.Called(ctx, token)
	return args.Error(0)
}

// Next 提供 Next 方法的 Mock
func (m *Client) Next(ctx context.Context, token string) error {
	args := m.Called(ctx, token)
	return args.Error(0)
}

// Previous 提供 Previous 方法的 Mock
func (m *Client) Previous(ctx context.Context, token string) error {
	args := m.Called(ctx, token)
	return args.Error(0)
}

// StartPlaybackContext 提供 StartPlaybackContext 方法的 Mock
func (m *Client) StartPlaybackContext(ctx context.Context, token, contextURI string, offset *int) error {
	args := m.Called(ctx, token, contextURI, offset)
	return args.Error(0)
}

// PlayerState 提供 PlayerState 方法的 Mock
func (m *Client) PlayerState(ctx context.Context, token string) (music.PlayerState, error) {
	args := m.Called(ctx, token)
	return args.Get(0).(music.PlayerState), args.Error(1)
}

// PlaylistTrackCount 提供 PlaylistTrackCount 方法的 Mock
func (m *Client) PlaylistTrackCount(ctx context.Context, token, playlistID string) (int, error) {
	args := m.Called(ctx, token, playlistID)
	return args.Int(0), args.Error(1)
}
