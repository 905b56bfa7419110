package otp

import (
	"context"
	"fmt"

	"github.com/gomodule/redigo/redis"

	"forum/pkg/common"
)

const redisNS = "forumOtp:"

// verifyScript consumes KEYS[1] only when it holds ARGV[1].
// Returns 1 on match, 0 when missing or different.
var verifyScript = redis.NewScript(1, `
local stored = redis.call('GET', KEYS[1])
if not stored then
	return 0
end
if stored ~= ARGV[1] then
	return 0
end
redis.call('DEL', KEYS[1])
return 1
`)

// RedisStore leaves expiry to Redis key TTLs.
type RedisStore struct {
	pool *redis.Pool
}

func NewRedisStore(pool *redis.Pool) *RedisStore {
	return &RedisStore{pool: pool}
}

func otpKey(identity string) string {
	return redisNS + Normalize(identity)
}

func (s *RedisStore) conn(ctx context.Context) (redis.Conn, error) {
	c, err := s.pool.GetContext(ctx)
	if err != nil {
		return nil, common.StoreErr("otp/redis: no redis connection", err)
	}
	return c, nil
}

func (s *RedisStore) Generate(ctx context.Context, identity string) (string, error) {
	code, err := newCode()
	if err != nil {
		return "", err
	}

	c, err := s.conn(ctx)
	if err != nil {
		return "", err
	}
	defer c.Close()

	if _, err := c.Do("SET", otpKey(identity), code, "PX", TTL.Milliseconds()); err != nil {
		return "", common.StoreErr("otp/redis: can't store code", err)
	}
	return code, nil
}

func (s *RedisStore) Verify(ctx context.Context, identity, code string) (bool, error) {
	c, err := s.conn(ctx)
	if err != nil {
		return false, err
	}
	defer c.Close()

	n, err := redis.Int(verifyScript.Do(c, otpKey(identity), code))
	if err != nil {
		return false, common.StoreErr(fmt.Sprintf("otp/redis: verify script failed for %s", Normalize(identity)), err)
	}
	return n == 1, nil
}

func (s *RedisStore) Invalidate(ctx context.Context, identity string) error {
	c, err := s.conn(ctx)
	if err != nil {
		return err
	}
	defer c.Close()

	if _, err := c.Do("DEL", otpKey(identity)); err != nil {
		return common.StoreErr("otp/redis: can't delete code", err)
	}
	return nil
}
