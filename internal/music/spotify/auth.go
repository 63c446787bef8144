package spotifymusic

import (
	"context"

	spotifyauth "github.com/zmb3/spotify/v2/auth"
)

// SpotifyAuthenticator 是 music.Authenticator 接口的 Spotify 实现，
// 封装标准授权码流程 (固定 scope 列表、固定回调地址)。
type SpotifyAuthenticator struct {
	auth *spotifyauth.Authenticator
}

// NewSpotifyAuthenticator 创建 SpotifyAuthenticator 实例。
func NewSpotifyAuthenticator(clientID, clientSecret, redirectURL string) *SpotifyAuthenticator {
	return &SpotifyAuthenticator{
		auth: spotifyauth.New(
			spotifyauth.WithClientID(clientID),
			spotifyauth.WithClientSecret(clientSecret),
			spotifyauth.WithRedirectURL(redirectURL),
			spotifyauth.WithScopes(
				spotifyauth.ScopePlaylistModifyPublic,
				spotifyauth.ScopePlaylistModifyPrivate,
				spotifyauth.ScopeUserReadPlaybackState,
				spotifyauth.ScopeUserModifyPlaybackState,
			),
		),
	}
}

// AuthURL 返回供应商授权页的跳转地址。
func (a *SpotifyAuthenticator) AuthURL(state string) string {
	return a.auth.AuthURL(state)
}

// Exchange 用授权码换取 Bearer 凭证。
// 返回值只保留 access token：房间不保存 refresh token，也不做刷新。
func (a *SpotifyAuthenticator) Exchange(ctx context.Context, code string) (string, error) {
	token, err := a.auth.Exchange(ctx, code)
	if err != nil {
		return "", err
	}
	return token.AccessToken, nil
}
