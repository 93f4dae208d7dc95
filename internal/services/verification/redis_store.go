package verification

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/vtart/go-gallery/internal/pkg/cache"
	"github.com/vtart/go-gallery/internal/pkg/logger"
	"go.uber.org/zap"
)

// redis key 统一前缀，避免与文件缓存键冲突
const redisKeyPrefix = "vcode:"

// RedisStore 是基于 Redis 的 Store 实现，供多实例部署使用
// 记录以 JSON 存储，并设置略长于验证码有效期的 Redis TTL 作为兜底清理
type RedisStore struct {
	cache cache.Cache
	ttl   time.Duration
}

var _ Store = (*RedisStore)(nil)

// NewRedisStore 创建 Redis 验证码存储
// codeTTL 是验证码本身的有效期，Redis 键的过期时间在此基础上加10分钟，
// 使过期记录在被扫描清理前仍可用于统计
func NewRedisStore(c cache.Cache, codeTTL time.Duration) *RedisStore {
	return &RedisStore{cache: c, ttl: codeTTL + 10*time.Minute}
}

func (s *RedisStore) Put(ctx context.Context, key string, code *Code) error {
	if err := s.cache.Set(ctx, redisKeyPrefix+key, code, s.ttl); err != nil {
		return fmt.Errorf("写入验证码记录失败: %w", err)
	}
	return nil
}

func (s *RedisStore) Get(ctx context.Context, key string) (*Code, error) {
	var code Code
	err := s.cache.Get(ctx, redisKeyPrefix+key, &code)
	if err != nil {
		if errors.Is(err, cache.ErrCacheMiss) {
			return nil, nil
		}
		return nil, fmt.Errorf("读取验证码记录失败: %w", err)
	}
	return &code, nil
}

func (s *RedisStore) Delete(ctx context.Context, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}
	prefixed := make([]string, len(keys))
	for i, key := range keys {
		prefixed[i] = redisKeyPrefix + key
	}
	if err := s.cache.Del(ctx, prefixed...); err != nil {
		return fmt.Errorf("删除验证码记录失败: %w", err)
	}
	return nil
}

func (s *RedisStore) List(ctx context.Context, prefix string) (map[string]*Code, error) {
	keys, err := s.cache.ScanKeys(ctx, redisKeyPrefix+prefix)
	if err != nil {
		return nil, fmt.Errorf("扫描验证码记录失败: %w", err)
	}

	result := make(map[string]*Code, len(keys))
	for _, fullKey := range keys {
		var code Code
		err := s.cache.Get(ctx, fullKey, &code)
		if err != nil {
			if errors.Is(err, cache.ErrCacheMiss) {
				// SCAN 和 GET 之间键过期了，跳过
				continue
			}
			logger.Error("RedisStore: Failed to load code during list", zap.String("key", fullKey), zap.Error(err))
			return nil, fmt.Errorf("读取验证码记录失败: %w", err)
		}
		result[fullKey[len(redisKeyPrefix):]] = &code
	}
	return result, nil
}
