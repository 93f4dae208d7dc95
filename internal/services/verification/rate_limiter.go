package verification

import (
	"fmt"
	"math"
	"sync"
	"time"
)

// RateLimitResult 是一次限流检查的结果
type RateLimitResult struct {
	Allowed          bool `json:"allowed"`
	RemainingSeconds int  `json:"remaining_seconds,omitempty"`
}

// RateLimiter 限制同一 (email, type) 的验证码发送频率
// 标记是进程内尽力而为的状态，重启丢失只会导致用户可以立即重发，无正确性影响
type RateLimiter struct {
	mu     sync.Mutex
	window time.Duration
	marks  map[string]time.Time // key -> 上次发送时间
}

// NewRateLimiter 创建一个发送频率限制器，window 为最小发送间隔
func NewRateLimiter(window time.Duration) *RateLimiter {
	return &RateLimiter{
		window: window,
		marks:  make(map[string]time.Time),
	}
}

// CheckAndMark 检查是否允许发送，允许时同时记录本次发送时间
// 检查和记录在同一把锁内完成，避免两个并发请求同时通过
func (rl *RateLimiter) CheckAndMark(email string, codeType CodeType) RateLimitResult {
	key := rateKey(email, codeType)

	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := time.Now()
	if last, ok := rl.marks[key]; ok {
		elapsed := now.Sub(last)
		if elapsed < rl.window {
			remaining := int(math.Ceil((rl.window - elapsed).Seconds()))
			return RateLimitResult{Allowed: false, RemainingSeconds: remaining}
		}
	}

	rl.marks[key] = now
	return RateLimitResult{Allowed: true}
}

// Clear 移除指定 (email, type) 的发送标记
func (rl *RateLimiter) Clear(email string, codeType CodeType) {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	delete(rl.marks, rateKey(email, codeType))
}

// Sweep 回收超出限流窗口的旧标记，返回清理数量
func (rl *RateLimiter) Sweep(now time.Time) int {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	removed := 0
	for key, last := range rl.marks {
		if now.Sub(last) > rl.window {
			delete(rl.marks, key)
			removed++
		}
	}
	return removed
}

func rateKey(email string, codeType CodeType) string {
	return fmt.Sprintf("%s_%s_rate", email, codeType)
}
