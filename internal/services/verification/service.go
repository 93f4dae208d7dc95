package verification

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/vtart/go-gallery/internal/config"
	"github.com/vtart/go-gallery/internal/pkg/logger"
	"go.uber.org/zap"
)

// Service 管理验证码的签发、消费、统计与清理
// 同一 (email, type) 上的容量淘汰和消费判定必须串行，
// 由按键互斥锁保证，与底层 Store 的实现无关
type Service struct {
	store   Store
	limiter *RateLimiter
	cfg     config.VerificationConfig

	lockMu   sync.Mutex
	keyLocks map[string]*sync.Mutex

	stopOnce sync.Once
	stopCh   chan struct{}
}

// NewService 创建验证码服务
func NewService(store Store, limiter *RateLimiter, cfg config.VerificationConfig) *Service {
	return &Service{
		store:    store,
		limiter:  limiter,
		cfg:      cfg,
		keyLocks: make(map[string]*sync.Mutex),
		stopCh:   make(chan struct{}),
	}
}

// Limiter 返回配套的发送频率限制器
func (s *Service) Limiter() *RateLimiter {
	return s.limiter
}

// Issue 为 (email, type) 签发一个新验证码，返回明文验证码
// 传输（如发送邮件）由调用方负责；调用方必须先通过限流检查
// 同一 (email, type) 最多保留 MaxCodesPerEmail 条记录，超出时淘汰最旧的一条
func (s *Service) Issue(ctx context.Context, email string, codeType CodeType, boundUserID *uint64) (string, error) {
	if !ValidType(codeType) {
		return "", fmt.Errorf("verification: 验证码类型无效: %s", codeType)
	}

	unlock := s.lockKey(email, codeType)
	defer unlock()

	plain, err := generateCode()
	if err != nil {
		return "", fmt.Errorf("verification: %w", err)
	}

	now := time.Now()
	code := &Code{
		CodeID:      uuid.NewString(),
		Code:        plain,
		Email:       email,
		Type:        codeType,
		BoundUserID: boundUserID,
		CreatedAt:   now,
		ExpiresAt:   now.Add(s.cfg.CodeTTL),
		MaxAttempts: s.cfg.MaxAttempts,
	}

	// 容量检查：同一 (email, type) 超过上限时淘汰最旧的验证码
	existing, err := s.listPair(ctx, email, codeType)
	if err != nil {
		return "", fmt.Errorf("verification: 查询现有验证码失败: %w", err)
	}
	if len(existing) >= s.cfg.MaxCodesPerEmail {
		oldestKey := ""
		var oldestAt time.Time
		for key, c := range existing {
			if oldestKey == "" || c.CreatedAt.Before(oldestAt) {
				oldestKey = key
				oldestAt = c.CreatedAt
			}
		}
		if err := s.store.Delete(ctx, oldestKey); err != nil {
			return "", fmt.Errorf("verification: 淘汰最旧验证码失败: %w", err)
		}
	}

	if err := s.store.Put(ctx, codeKey(email, codeType, code.CodeID), code); err != nil {
		return "", fmt.Errorf("verification: 存储验证码失败: %w", err)
	}

	// 顺带清理过期记录
	if _, err := s.Sweep(ctx); err != nil {
		logger.Warn("Issue: opportunistic sweep failed", zap.Error(err))
	}

	logger.Info("Verification code issued",
		zap.String("email", email),
		zap.String("type", string(codeType)),
		zap.String("codeID", code.CodeID))
	return plain, nil
}

// Consume 尝试消费一个验证码
// 预期内的失败通过 ConsumeResult 表达；error 仅用于存储层故障
func (s *Service) Consume(ctx context.Context, email, submitted string, codeType CodeType, vctx Context) (ConsumeResult, error) {
	if vctx.Kind == "" {
		vctx.Kind = KindNone
	}

	unlock := s.lockKey(email, codeType)
	defer unlock()

	now := time.Now()
	codes, err := s.listPair(ctx, email, codeType)
	if err != nil {
		return ConsumeResult{}, fmt.Errorf("verification: 查询验证码失败: %w", err)
	}
	if len(codes) == 0 {
		return ConsumeResult{Valid: false, Message: "验证码不存在或已过期"}, nil
	}

	// 查找匹配且未使用的验证码；已使用的验证码即使尚未删除也不再匹配
	var matched *Code
	matchedKey := ""
	for key, c := range codes {
		if c.Code == submitted && !c.Used {
			matched = c
			matchedKey = key
			break
		}
	}

	if matched == nil {
		// 惩罚猜测行为：增加该 (email, type) 下所有验证码的尝试次数
		for key, c := range codes {
			c.Attempts++
			if err := s.store.Put(ctx, key, c); err != nil {
				return ConsumeResult{}, fmt.Errorf("verification: 更新尝试次数失败: %w", err)
			}
		}
		return ConsumeResult{Valid: false, Message: "验证码错误"}, nil
	}

	if matched.Expired(now) {
		if err := s.store.Delete(ctx, matchedKey); err != nil {
			return ConsumeResult{}, fmt.Errorf("verification: 删除过期验证码失败: %w", err)
		}
		return ConsumeResult{Valid: false, Message: "验证码已过期"}, nil
	}

	if matched.Attempts >= matched.MaxAttempts {
		if err := s.store.Delete(ctx, matchedKey); err != nil {
			return ConsumeResult{}, fmt.Errorf("verification: 删除失效验证码失败: %w", err)
		}
		return ConsumeResult{Valid: false, Message: "验证码尝试次数过多，已失效"}, nil
	}

	// 所有权检查（上下文携带身份断言时）
	var requiresDB bool
	if vctx.Kind != KindNone {
		ownership := VerifyOwnership(matched, vctx)
		if !ownership.Valid {
			matched.Attempts++
			if err := s.store.Put(ctx, matchedKey, matched); err != nil {
				return ConsumeResult{}, fmt.Errorf("verification: 更新尝试次数失败: %w", err)
			}
			return ConsumeResult{Valid: false, Message: ownership.Message}, nil
		}
		matched.OwnershipVerified = true
		requiresDB = ownership.RequiresDBVerification
	}

	// 消费成功：标记已使用并记录审计信息
	matched.Used = true
	matched.UsedAt = &now
	matched.IPAddress = vctx.IPAddress
	matched.UserAgent = vctx.UserAgent
	verifiedBy := &VerifiedBy{Username: vctx.Username, Email: vctx.Email}
	if vctx.Kind == KindAuthenticated {
		userID := vctx.UserID
		verifiedBy.UserID = &userID
	}
	matched.VerifiedBy = verifiedBy

	if err := s.store.Put(ctx, matchedKey, matched); err != nil {
		return ConsumeResult{}, fmt.Errorf("verification: 标记验证码已使用失败: %w", err)
	}

	// 删除该 (email, type) 的其余验证码，防止重放
	var siblings []string
	for key := range codes {
		if key != matchedKey {
			siblings = append(siblings, key)
		}
	}
	if len(siblings) > 0 {
		if err := s.store.Delete(ctx, siblings...); err != nil {
			return ConsumeResult{}, fmt.Errorf("verification: 清理同组验证码失败: %w", err)
		}
	}

	logger.Info("Verification code consumed",
		zap.String("email", email),
		zap.String("type", string(codeType)),
		zap.String("codeID", matched.CodeID),
		zap.Bool("ownershipVerified", matched.OwnershipVerified))

	return ConsumeResult{
		Valid:                  true,
		Message:                "验证码正确",
		CodeID:                 matched.CodeID,
		OwnershipVerified:      matched.OwnershipVerified,
		RequiresDBVerification: requiresDB,
	}, nil
}

// Stats 返回 (email, type) 下验证码的只读统计信息
func (s *Service) Stats(ctx context.Context, email string, codeType CodeType) (Stats, error) {
	codes, err := s.listPair(ctx, email, codeType)
	if err != nil {
		return Stats{}, fmt.Errorf("verification: 查询验证码失败: %w", err)
	}

	now := time.Now()
	stats := Stats{Total: len(codes)}
	for _, c := range codes {
		switch {
		case c.Used:
			stats.Used++
		case c.Expired(now):
			stats.Expired++
		default:
			stats.Active++
		}
		if c.Attempts >= c.MaxAttempts {
			stats.MaxAttemptsReached++
		}
	}
	return stats, nil
}

// AuditTrail 返回 (email, type) 下全部验证码记录（按创建时间排序），供管理端排查
func (s *Service) AuditTrail(ctx context.Context, email string, codeType CodeType) ([]Code, error) {
	codes, err := s.listPair(ctx, email, codeType)
	if err != nil {
		return nil, fmt.Errorf("verification: 查询验证码失败: %w", err)
	}

	trail := make([]Code, 0, len(codes))
	for _, c := range codes {
		trail = append(trail, *c)
	}
	sort.Slice(trail, func(i, j int) bool { return trail[i].CreatedAt.Before(trail[j].CreatedAt) })
	return trail, nil
}

// ClearByEmail 清除 (email, type) 下的全部验证码和发送标记，返回清除数量
func (s *Service) ClearByEmail(ctx context.Context, email string, codeType CodeType) (int, error) {
	unlock := s.lockKey(email, codeType)
	defer unlock()

	codes, err := s.listPair(ctx, email, codeType)
	if err != nil {
		return 0, fmt.Errorf("verification: 查询验证码失败: %w", err)
	}

	keys := make([]string, 0, len(codes))
	for key := range codes {
		keys = append(keys, key)
	}
	if len(keys) > 0 {
		if err := s.store.Delete(ctx, keys...); err != nil {
			return 0, fmt.Errorf("verification: 删除验证码失败: %w", err)
		}
	}
	s.limiter.Clear(email, codeType)
	return len(keys), nil
}

// ClearByUser 清除绑定到指定用户的全部该类型验证码，返回清除数量
func (s *Service) ClearByUser(ctx context.Context, userID uint64, codeType CodeType) (int, error) {
	all, err := s.store.List(ctx, "")
	if err != nil {
		return 0, fmt.Errorf("verification: 查询验证码失败: %w", err)
	}

	var keys []string
	for key, c := range all {
		if c.BoundUserID != nil && *c.BoundUserID == userID && c.Type == codeType {
			keys = append(keys, key)
		}
	}
	if len(keys) > 0 {
		if err := s.store.Delete(ctx, keys...); err != nil {
			return 0, fmt.Errorf("verification: 删除验证码失败: %w", err)
		}
	}
	return len(keys), nil
}

// Sweep 删除所有已过期的验证码并回收过期的限流标记，返回清理数量
func (s *Service) Sweep(ctx context.Context) (int, error) {
	now := time.Now()
	all, err := s.store.List(ctx, "")
	if err != nil {
		return 0, fmt.Errorf("verification: 查询验证码失败: %w", err)
	}

	var expired []string
	for key, c := range all {
		if c.Expired(now) {
			expired = append(expired, key)
		}
	}
	if len(expired) > 0 {
		if err := s.store.Delete(ctx, expired...); err != nil {
			return 0, fmt.Errorf("verification: 删除过期验证码失败: %w", err)
		}
	}

	removed := len(expired) + s.limiter.Sweep(now)
	if removed > 0 {
		logger.Debug("Sweep removed stale verification records", zap.Int("count", removed))
	}
	return removed, nil
}

// StartSweeper 启动后台定期清理，间隔取自配置，Stop 后退出
// 进程内状态重启即失，后台清理只是对机会式清理的兜底
func (s *Service) StartSweeper(ctx context.Context) {
	go func() {
		ticker := time.NewTicker(s.cfg.SweepInterval)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				if _, err := s.Sweep(ctx); err != nil {
					logger.Error("Background sweep failed", zap.Error(err))
				}
			case <-s.stopCh:
				return
			case <-ctx.Done():
				return
			}
		}
	}()
	logger.Info("Verification sweeper started", zap.Duration("interval", s.cfg.SweepInterval))
}

// Stop 停止后台清理任务
func (s *Service) Stop() {
	s.stopOnce.Do(func() { close(s.stopCh) })
}

// listPair 按前缀扫描后再按字段过滤
// 键由 email 和 type 用下划线拼接，邮箱本身含下划线时前缀可能撞上
// 别的 (email, type) 组合，只有字段匹配的记录才算这一组的
func (s *Service) listPair(ctx context.Context, email string, codeType CodeType) (map[string]*Code, error) {
	codes, err := s.store.List(ctx, keyPrefix(email, codeType))
	if err != nil {
		return nil, err
	}
	for key, c := range codes {
		if c.Email != email || c.Type != codeType {
			delete(codes, key)
		}
	}
	return codes, nil
}

// lockKey 获取 (email, type) 对应的互斥锁并加锁，返回解锁函数
func (s *Service) lockKey(email string, codeType CodeType) func() {
	key := keyPrefix(email, codeType)

	s.lockMu.Lock()
	mu, ok := s.keyLocks[key]
	if !ok {
		mu = &sync.Mutex{}
		s.keyLocks[key] = mu
	}
	s.lockMu.Unlock()

	mu.Lock()
	return mu.Unlock
}

func codeKey(email string, codeType CodeType, codeID string) string {
	return fmt.Sprintf("%s_%s_%s", email, codeType, codeID)
}

func keyPrefix(email string, codeType CodeType) string {
	return fmt.Sprintf("%s_%s_", email, codeType)
}
