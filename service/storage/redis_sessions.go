package storage

import (
	"context"
	"time"

	rds "TMProject/service/storage/redis"

	"github.com/pkg/errors"
	"github.com/redis/go-redis/v9"
)

// session key: tm:session:<user>
// 值为 access token 的 sha256 hash，TTL 即令牌有效期。
// 登出删除 key；重登录覆盖旧会话（单活跃会话语义）。
func sessionKey(user string) string { return "tm:session:" + user }

// SessionPut 记录用户当前会话的 token hash
func SessionPut(ctx context.Context, user, tokenHash string, ttl time.Duration) error {
	rdb := rds.GetRedis()
	if rdb == nil {
		return errors.New("redis not initialized")
	}
	return errors.Wrap(rdb.Set(ctx, sessionKey(user), tokenHash, ttl).Err(), "session put")
}

// SessionDrop 删除用户会话（登出）
func SessionDrop(ctx context.Context, user string) error {
	rdb := rds.GetRedis()
	if rdb == nil {
		return errors.New("redis not initialized")
	}
	return errors.Wrap(rdb.Del(ctx, sessionKey(user)).Err(), "session drop")
}

// SessionCheck 校验 token hash 是否仍是该用户的活跃会话。
// redis 未初始化时返回 true：会话层是可选的加固，不是令牌有效性的来源。
func SessionCheck(ctx context.Context, user, tokenHash string) (bool, error) {
	rdb := rds.GetRedis()
	if rdb == nil {
		return true, nil
	}
	val, err := rdb.Get(ctx, sessionKey(user)).Result()
	if errors.Is(err, redis.Nil) {
		return false, nil
	}
	if err != nil {
		return false, errors.Wrap(err, "session check")
	}
	return val == tokenHash, nil
}
