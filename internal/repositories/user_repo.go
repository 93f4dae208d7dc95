package repositories

import (
	"errors"

	"github.com/vtart/go-gallery/internal/models"
	"github.com/vtart/go-gallery/internal/pkg/logger"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type UserRepository interface {
	CreateUser(user *models.User) error
	GetUserByUsername(username string) (*models.User, error)
	GetUserByEmail(email string) (*models.User, error)
	GetUserByID(id uint64) (*models.User, error)
	UpdateUser(user *models.User) error
	ListUsers(offset, limit int) ([]models.User, int64, error)

	// AddUsedStorage 在事务内原子增加已用空间，超出配额时返回 false 且不做任何修改
	AddUsedStorage(tx *gorm.DB, userID uint64, delta uint64) (bool, error)
	// SubUsedStorage 在事务内减少已用空间，下限为 0
	SubUsedStorage(tx *gorm.DB, userID uint64, delta uint64) error
	// SetStorageLimit 原子更新配额上限，新上限低于已用空间时返回 false
	SetStorageLimit(userID uint64, limit uint64) (bool, error)
	// StorageStats 汇总全站已用空间与配额总量
	StorageStats() (totalUsed uint64, totalLimit uint64, err error)
}

type userRepository struct {
	db *gorm.DB
}

var _ UserRepository = (*userRepository)(nil)

// NewUserRepository 创建一个新的 UserRepository 实例
func NewUserRepository(db *gorm.DB) UserRepository {
	return &userRepository{db: db}
}

func (r *userRepository) CreateUser(user *models.User) error {
	err := r.db.Create(user).Error
	if err != nil {
		logger.Error("Error creating user", zap.Error(err))
		return err
	}
	return nil
}

func (r *userRepository) GetUserByUsername(username string) (*models.User, error) {
	var user models.User
	err := r.db.Where("username = ?", username).First(&user).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil // 用户不存在，返回 nil
		}
		logger.Error("Error getting user by username", zap.String("username", username), zap.Error(err))
		return nil, err
	}
	return &user, nil
}

func (r *userRepository) GetUserByEmail(email string) (*models.User, error) {
	var user models.User
	err := r.db.Where("email = ?", email).First(&user).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		logger.Error("Error getting user by email", zap.String("email", email), zap.Error(err))
		return nil, err
	}
	return &user, nil
}

func (r *userRepository) GetUserByID(id uint64) (*models.User, error) {
	var user models.User
	err := r.db.Where("id = ?", id).First(&user).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		logger.Error("Error getting user by ID", zap.Uint64("userID", id), zap.Error(err))
		return nil, err
	}
	return &user, nil
}

func (r *userRepository) UpdateUser(user *models.User) error {
	err := r.db.Save(user).Error
	if err != nil {
		logger.Error("Error updating user", zap.Uint64("userID", user.ID), zap.Error(err))
		return err
	}
	return nil
}

func (r *userRepository) ListUsers(offset, limit int) ([]models.User, int64, error) {
	var users []models.User
	var total int64
	if err := r.db.Model(&models.User{}).Count(&total).Error; err != nil {
		return nil, 0, err
	}
	err := r.db.Order("id ASC").Offset(offset).Limit(limit).Find(&users).Error
	if err != nil {
		logger.Error("Error listing users", zap.Error(err))
		return nil, 0, err
	}
	return users, total, nil
}

// AddUsedStorage 的守卫条件写在 SQL 里，保证并发上传时配额检查和扣减是同一个原子操作
func (r *userRepository) AddUsedStorage(tx *gorm.DB, userID uint64, delta uint64) (bool, error) {
	db := r.db
	if tx != nil {
		db = tx
	}
	res := db.Model(&models.User{}).
		Where("id = ? AND used_storage + ? <= storage_limit", userID, delta).
		Update("used_storage", gorm.Expr("used_storage + ?", delta))
	if res.Error != nil {
		logger.Error("Error adding used storage", zap.Uint64("userID", userID), zap.Error(res.Error))
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

func (r *userRepository) SubUsedStorage(tx *gorm.DB, userID uint64, delta uint64) error {
	db := r.db
	if tx != nil {
		db = tx
	}
	// used_storage 是无符号列，防止回退时下溢
	res := db.Model(&models.User{}).
		Where("id = ?", userID).
		Update("used_storage", gorm.Expr("IF(used_storage >= ?, used_storage - ?, 0)", delta, delta))
	if res.Error != nil {
		logger.Error("Error subtracting used storage", zap.Uint64("userID", userID), zap.Error(res.Error))
		return res.Error
	}
	return nil
}

func (r *userRepository) SetStorageLimit(userID uint64, limit uint64) (bool, error) {
	res := r.db.Model(&models.User{}).
		Where("id = ? AND used_storage <= ?", userID, limit).
		Update("storage_limit", limit)
	if res.Error != nil {
		logger.Error("Error setting storage limit", zap.Uint64("userID", userID), zap.Error(res.Error))
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

func (r *userRepository) StorageStats() (uint64, uint64, error) {
	type row struct {
		TotalUsed  uint64
		TotalLimit uint64
	}
	var out row
	err := r.db.Model(&models.User{}).
		Select("COALESCE(SUM(used_storage),0) AS total_used, COALESCE(SUM(storage_limit),0) AS total_limit").
		Scan(&out).Error
	if err != nil {
		logger.Error("Error aggregating storage stats", zap.Error(err))
		return 0, 0, err
	}
	return out.TotalUsed, out.TotalLimit, nil
}
