package explorer

import (
	"fmt"

	"github.com/vtart/go-gallery/internal/pkg/logger"
	"github.com/vtart/go-gallery/internal/pkg/xerr"
	"github.com/vtart/go-gallery/internal/repositories"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// QuotaLedger 管理用户存储配额的检查与记账
//
// CheckAvailable 只是一个非约束性的预检，真正的防超额守卫在 Commit 里：
// 配额比较和扣减写在同一条 UPDATE 语句中，并发提交时只有不超额的那部分会成功。
type QuotaLedger interface {
	// CheckAvailable 预检剩余空间，不做任何修改
	CheckAvailable(userID uint64, size uint64) error
	// Commit 在事务内原子占用空间，超出配额时返回 ErrInsufficientStorage
	Commit(tx *gorm.DB, userID uint64, size uint64) error
	// Release 在事务内归还空间
	Release(tx *gorm.DB, userID uint64, size uint64) error
	// SetLimit 调整配额上限，新上限低于已用空间时拒绝
	SetLimit(userID uint64, limit uint64) error
	// Usage 返回用户当前已用空间和配额上限
	Usage(userID uint64) (used uint64, limit uint64, err error)
}

type quotaLedger struct {
	userRepo repositories.UserRepository
}

var _ QuotaLedger = (*quotaLedger)(nil)

func NewQuotaLedger(userRepo repositories.UserRepository) QuotaLedger {
	return &quotaLedger{userRepo: userRepo}
}

func (l *quotaLedger) CheckAvailable(userID uint64, size uint64) error {
	user, err := l.userRepo.GetUserByID(userID)
	if err != nil {
		return fmt.Errorf("quota ledger: failed to get user: %w", xerr.ErrDatabaseError)
	}
	if user == nil {
		return fmt.Errorf("quota ledger: %w", xerr.ErrUserNotFound)
	}
	if user.UsedStorage+size > user.StorageLimit {
		logger.Warn("CheckAvailable: Insufficient storage",
			zap.Uint64("userID", userID),
			zap.Uint64("used", user.UsedStorage),
			zap.Uint64("limit", user.StorageLimit),
			zap.Uint64("requested", size))
		return fmt.Errorf("quota ledger: %w", xerr.ErrInsufficientStorage)
	}
	return nil
}

func (l *quotaLedger) Commit(tx *gorm.DB, userID uint64, size uint64) error {
	ok, err := l.userRepo.AddUsedStorage(tx, userID, size)
	if err != nil {
		return fmt.Errorf("quota ledger: failed to commit storage: %w", xerr.ErrDatabaseError)
	}
	if !ok {
		logger.Warn("Commit: Quota guard rejected storage commit",
			zap.Uint64("userID", userID),
			zap.Uint64("size", size))
		return fmt.Errorf("quota ledger: %w", xerr.ErrInsufficientStorage)
	}
	return nil
}

func (l *quotaLedger) Release(tx *gorm.DB, userID uint64, size uint64) error {
	if err := l.userRepo.SubUsedStorage(tx, userID, size); err != nil {
		return fmt.Errorf("quota ledger: failed to release storage: %w", xerr.ErrDatabaseError)
	}
	return nil
}

func (l *quotaLedger) SetLimit(userID uint64, limit uint64) error {
	ok, err := l.userRepo.SetStorageLimit(userID, limit)
	if err != nil {
		return fmt.Errorf("quota ledger: failed to set limit: %w", xerr.ErrDatabaseError)
	}
	if ok {
		logger.Info("SetLimit: Storage limit updated", zap.Uint64("userID", userID), zap.Uint64("limit", limit))
		return nil
	}

	// 守卫未命中：区分用户不存在和配额低于已用量
	user, err := l.userRepo.GetUserByID(userID)
	if err != nil {
		return fmt.Errorf("quota ledger: failed to get user: %w", xerr.ErrDatabaseError)
	}
	if user == nil {
		return fmt.Errorf("quota ledger: %w", xerr.ErrUserNotFound)
	}
	logger.Warn("SetLimit: New limit below current usage",
		zap.Uint64("userID", userID),
		zap.Uint64("used", user.UsedStorage),
		zap.Uint64("limit", limit))
	return fmt.Errorf("quota ledger: %w", xerr.ErrQuotaBelowUsage)
}

func (l *quotaLedger) Usage(userID uint64) (uint64, uint64, error) {
	user, err := l.userRepo.GetUserByID(userID)
	if err != nil {
		return 0, 0, fmt.Errorf("quota ledger: failed to get user: %w", xerr.ErrDatabaseError)
	}
	if user == nil {
		return 0, 0, fmt.Errorf("quota ledger: %w", xerr.ErrUserNotFound)
	}
	return user.UsedStorage, user.StorageLimit, nil
}
