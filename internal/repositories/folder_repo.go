package repositories

import (
	"errors"

	"github.com/vtart/go-gallery/internal/models"
	"github.com/vtart/go-gallery/internal/pkg/logger"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type FolderRepository interface {
	Create(folder *models.Folder) error
	FindByID(id uint64) (*models.Folder, error)
	FindByUserID(userID uint64, parentID *uint64) ([]models.Folder, error)
	Update(folder *models.Folder) error
	Delete(id uint64) error
	// CountChildren 统计文件夹下的直接子文件夹数量
	CountChildren(folderID uint64) (int64, error)
}

type folderRepository struct {
	db *gorm.DB
}

var _ FolderRepository = (*folderRepository)(nil)

// NewFolderRepository 创建一个新的 FolderRepository 实例
func NewFolderRepository(db *gorm.DB) FolderRepository {
	return &folderRepository{db: db}
}

func (r *folderRepository) Create(folder *models.Folder) error {
	err := r.db.Create(folder).Error
	if err != nil {
		logger.Error("Error creating folder", zap.Uint64("userID", folder.UserID), zap.Error(err))
		return err
	}
	return nil
}

func (r *folderRepository) FindByID(id uint64) (*models.Folder, error) {
	var folder models.Folder
	err := r.db.Where("id = ?", id).First(&folder).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil // 文件夹不存在，返回 nil
		}
		logger.Error("Error getting folder by ID", zap.Uint64("folderID", id), zap.Error(err))
		return nil, err
	}
	return &folder, nil
}

func (r *folderRepository) FindByUserID(userID uint64, parentID *uint64) ([]models.Folder, error) {
	query := r.db.Where("user_id = ?", userID)
	if parentID == nil {
		query = query.Where("parent_id IS NULL")
	} else {
		query = query.Where("parent_id = ?", *parentID)
	}

	var folders []models.Folder
	err := query.Order("name ASC").Find(&folders).Error
	if err != nil {
		logger.Error("Error listing folders", zap.Uint64("userID", userID), zap.Error(err))
		return nil, err
	}
	return folders, nil
}

func (r *folderRepository) Update(folder *models.Folder) error {
	err := r.db.Save(folder).Error
	if err != nil {
		logger.Error("Error updating folder", zap.Uint64("folderID", folder.ID), zap.Error(err))
		return err
	}
	return nil
}

func (r *folderRepository) Delete(id uint64) error {
	err := r.db.Unscoped().Delete(&models.Folder{}, id).Error
	if err != nil {
		logger.Error("Error deleting folder", zap.Uint64("folderID", id), zap.Error(err))
		return err
	}
	return nil
}

func (r *folderRepository) CountChildren(folderID uint64) (int64, error) {
	var count int64
	err := r.db.Model(&models.Folder{}).Where("parent_id = ?", folderID).Count(&count).Error
	if err != nil {
		return 0, err
	}
	return count, nil
}
