package verification

import (
	"context"
	"strings"
	"sync"
)

// Store 是验证码注册表的底层存储抽象
// 进程内实现用于测试和单机部署，Redis 实现用于多实例部署
// 实现只负责存取，不负责互斥：并发控制由 Service 的按键锁保证
type Store interface {
	// Put 写入或覆盖一条验证码记录
	Put(ctx context.Context, key string, code *Code) error
	// Get 返回指定key的记录，不存在时返回 (nil, nil)
	Get(ctx context.Context, key string) (*Code, error)
	// Delete 删除一个或多个key，不存在的key忽略
	Delete(ctx context.Context, keys ...string) error
	// List 返回所有以 prefix 开头的记录，prefix 为空时返回全部
	List(ctx context.Context, prefix string) (map[string]*Code, error)
}

// MemoryStore 是基于进程内 map 的 Store 实现
type MemoryStore struct {
	mu    sync.RWMutex
	codes map[string]Code
}

var _ Store = (*MemoryStore)(nil)

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{codes: make(map[string]Code)}
}

func (s *MemoryStore) Put(_ context.Context, key string, code *Code) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.codes[key] = *code
	return nil
}

func (s *MemoryStore) Get(_ context.Context, key string) (*Code, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	c, ok := s.codes[key]
	if !ok {
		return nil, nil
	}
	return &c, nil
}

func (s *MemoryStore) Delete(_ context.Context, keys ...string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, key := range keys {
		delete(s.codes, key)
	}
	return nil
}

func (s *MemoryStore) List(_ context.Context, prefix string) (map[string]*Code, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	result := make(map[string]*Code)
	for key, c := range s.codes {
		if prefix == "" || strings.HasPrefix(key, prefix) {
			code := c
			result[key] = &code
		}
	}
	return result, nil
}
