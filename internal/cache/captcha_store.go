package cache

import (
	"context"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

const captchaStoreTimeout = 2 * time.Second

// CaptchaStore 基于 Redis 的图片验证码答案存储，多实例部署时共享
type CaptchaStore struct {
	ttl time.Duration
}

// NewCaptchaStore 创建验证码存储
func NewCaptchaStore(ttl time.Duration) *CaptchaStore {
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	return &CaptchaStore{ttl: ttl}
}

func captchaKey(id string) string {
	return buildKey("captcha:" + strings.TrimSpace(id))
}

// Set 保存答案
func (s *CaptchaStore) Set(id string, value string) error {
	if !Enabled() {
		return nil
	}
	ctx, cancel := context.WithTimeout(context.Background(), captchaStoreTimeout)
	defer cancel()
	return redisClient.Set(ctx, captchaKey(id), value, s.ttl).Err()
}

// Get 读取答案，clear 为 true 时读取后删除
func (s *CaptchaStore) Get(id string, clear bool) string {
	if !Enabled() || strings.TrimSpace(id) == "" {
		return ""
	}
	ctx, cancel := context.WithTimeout(context.Background(), captchaStoreTimeout)
	defer cancel()
	var (
		val string
		err error
	)
	if clear {
		val, err = redisClient.GetDel(ctx, captchaKey(id)).Result()
	} else {
		val, err = redisClient.Get(ctx, captchaKey(id)).Result()
	}
	if err != nil && err != redis.Nil {
		return ""
	}
	return val
}

// Verify 校验答案（忽略大小写）
func (s *CaptchaStore) Verify(id, answer string, clear bool) bool {
	expected := s.Get(id, clear)
	if expected == "" {
		return false
	}
	return strings.EqualFold(expected, strings.TrimSpace(answer))
}
