package redisstate

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"collabify/internal/domain"
)

// releaseLockScript 只在锁值仍是自己的令牌时删除锁。
// 持锁超过 TTL 后锁可能已被下一个请求拿走，无条件 DEL 会把
// 别人的锁删掉。
var releaseLockScript = redis.NewScript(`
if redis.call("get", KEYS[1]) == ARGV[1] then
	return redis.call("del", KEYS[1])
else
	return 0
end
`)

// RedisStateRepository 是 StateRepository 接口的 Redis 实现。
// 房间互斥锁和事件广播都放在 Redis 上，保证多进程部署下依然成立。
type RedisStateRepository struct {
	client    *redis.Client
	keyPrefix string
}

// NewRedisStateRepository 创建 RedisStateRepository 实例
func NewRedisStateRepository(client *redis.Client, keyPrefix string) *RedisStateRepository {
	if client == nil {
		panic("redis client cannot be nil for RedisStateRepository")
	}
	if keyPrefix == "" {
		keyPrefix = "cf:" // 默认前缀 "cf:" (collabify)
	}
	return &RedisStateRepository{
		client:    client,
		keyPrefix: keyPrefix,
	}
}

// --- Key Generation Helpers ---

func (r *RedisStateRepository) roomLockKey(code string) string {
	return fmt.Sprintf("%sroom:%s:lock", r.keyPrefix, code)
}

// RoomEventChannel 返回指定房间的事件广播频道名。
func (r *RedisStateRepository) RoomEventChannel(code string) string {
	return fmt.Sprintf("%sroom:%s:events", r.keyPrefix, code)
}

// RoomEventPattern 返回匹配所有房间事件频道的 PSUBSCRIBE 模式。
// Hub 订阅时必须用这个模式，保证和 RoomEventChannel 的格式一致。
func (r *RedisStateRepository) RoomEventPattern() string {
	return r.keyPrefix + "room:*:events"
}

// RoomCodeFromEventChannel 从事件频道名中取出房间码。
// 频道名不符合 RoomEventChannel 的格式时返回空串。
func (r *RedisStateRepository) RoomCodeFromEventChannel(channel string) string {
	trimmed := strings.TrimPrefix(channel, r.keyPrefix+"room:")
	trimmed = strings.TrimSuffix(trimmed, ":events")
	if trimmed == channel {
		return ""
	}
	return trimmed
}

// --- StateRepository Interface Implementation ---

// AcquireRoomLock 用 SET NX 获取房间互斥锁，在 wait 时间内轮询重试。
// 锁带 TTL，持有者崩溃后最多 ttl 时间自动释放。
// 锁值是本次获取专属的令牌，释放时用它校验锁还属不属于自己。
func (r *RedisStateRepository) AcquireRoomLock(ctx context.Context, code string, ttl, wait time.Duration) (string, bool, error) {
	key := r.roomLockKey(code)
	token := uuid.New().String()
	deadline := time.Now().Add(wait)
	for {
		ok, err := r.client.SetNX(ctx, key, token, ttl).Result()
		if err != nil {
			return "", false, fmt.Errorf("redis: failed to acquire room lock on key %s: %w", key, err)
		}
		if ok {
			return token, true, nil
		}
		if time.Now().After(deadline) {
			return "", false, nil
		}
		select {
		case <-ctx.Done():
			return "", false, ctx.Err()
		case <-time.After(25 * time.Millisecond):
		}
	}
}

// ReleaseRoomLock 释放房间互斥锁 (check-and-delete)。
// 令牌不匹配时静默返回：锁已经过期易主，删了反而是错的。
func (r *RedisStateRepository) ReleaseRoomLock(ctx context.Context, code, token string) error {
	key := r.roomLockKey(code)
	deleted, err := releaseLockScript.Run(ctx, r.client, []string{key}, token).Int()
	if err != nil {
		return fmt.Errorf("redis: failed to release room lock on key %s: %w", key, err)
	}
	if deleted == 0 {
		logrus.WithFields(logrus.Fields{
			"room_code": code,
			"lock_key":  key,
		}).Warn("Room lock already expired or taken over, nothing released")
	}
	return nil
}

// PublishRoomEvent 将队列事件发布到房间的广播频道。
func (r *RedisStateRepository) PublishRoomEvent(ctx context.Context, code string, event domain.RoomEvent) error {
	channel := r.RoomEventChannel(code)
	payloadBytes, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("redis: failed to marshal room event (type %s): %w", event.Type, err)
	}
	payload := string(payloadBytes)
	err = r.client.Publish(ctx, channel, payload).Err()
	if err != nil {
		logrus.WithFields(logrus.Fields{
			"channel":      channel,
			"payload_size": len(payload),
			"event_type":   event.Type,
			"room_code":    code,
		}).WithError(err).Error("Redis Publish failed")
		return fmt.Errorf("redis: failed to publish room event to channel %s: %w", channel, err)
	}
	return nil
}
