package music

import (
	"errors"
	"fmt"
)

// ErrAuthExpired 表示房间的 Bearer 凭证已失效 (上游返回 401)。
// 由于不做刷新，这是线上最主要的失败模式。
var ErrAuthExpired = errors.New("music: access token expired or revoked")

// UpstreamError 表示外部音乐服务返回了非 2xx 响应。
type UpstreamError struct {
	Status int    // 上游 HTTP 状态码
	Body   string // 上游返回的错误消息
}

func (e *UpstreamError) Error() string {
	return fmt.Sprintf("music: upstream returned %d: %s", e.Status, e.Body)
}
