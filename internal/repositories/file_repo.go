package repositories

import (
	"errors"

	"github.com/vtart/go-gallery/internal/models"
	"github.com/vtart/go-gallery/internal/pkg/logger"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type FileRepository interface {
	// Create 插入文件记录，tx 为 nil 时在默认连接上执行
	Create(tx *gorm.DB, file *models.File) error
	FindByID(id uint64) (*models.File, error)
	// FindByIDs 按ID集合查找某用户的文件，静默跳过不属于该用户的ID
	FindByIDs(userID uint64, ids []uint64) ([]models.File, error)
	FindByUserIDAndFolderID(userID uint64, folderID *uint64, fileType string, offset, limit int) ([]models.File, int64, error)
	Update(tx *gorm.DB, file *models.File) error
	// Delete 物理删除文件记录
	Delete(tx *gorm.DB, id uint64) error
	CountByFolderID(folderID uint64) (int64, error)
	CountAll() (int64, error)
}

type fileRepository struct {
	db *gorm.DB
}

var _ FileRepository = (*fileRepository)(nil)

// NewFileRepository 创建一个新的 FileRepository 实例
func NewFileRepository(db *gorm.DB) FileRepository {
	return &fileRepository{db: db}
}

func (r *fileRepository) Create(tx *gorm.DB, file *models.File) error {
	db := r.db
	if tx != nil {
		db = tx
	}
	err := db.Create(file).Error
	if err != nil {
		logger.Error("Error creating file record", zap.Uint64("userID", file.UserID), zap.Error(err))
		return err
	}
	return nil
}

func (r *fileRepository) FindByID(id uint64) (*models.File, error) {
	var file models.File
	err := r.db.Where("id = ?", id).First(&file).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil // 文件不存在，返回 nil
		}
		logger.Error("Error getting file by ID", zap.Uint64("fileID", id), zap.Error(err))
		return nil, err
	}
	return &file, nil
}

func (r *fileRepository) FindByIDs(userID uint64, ids []uint64) ([]models.File, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	var files []models.File
	err := r.db.Where("user_id = ? AND id IN ?", userID, ids).Find(&files).Error
	if err != nil {
		logger.Error("Error getting files by IDs", zap.Uint64("userID", userID), zap.Error(err))
		return nil, err
	}
	return files, nil
}

func (r *fileRepository) FindByUserIDAndFolderID(userID uint64, folderID *uint64, fileType string, offset, limit int) ([]models.File, int64, error) {
	query := r.db.Model(&models.File{}).Where("user_id = ?", userID)
	if folderID == nil {
		query = query.Where("folder_id IS NULL")
	} else {
		query = query.Where("folder_id = ?", *folderID)
	}
	if fileType != "" {
		query = query.Where("file_type = ?", fileType)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var files []models.File
	err := query.Order("created_at DESC").Offset(offset).Limit(limit).Find(&files).Error
	if err != nil {
		logger.Error("Error listing files", zap.Uint64("userID", userID), zap.Error(err))
		return nil, 0, err
	}
	return files, total, nil
}

func (r *fileRepository) Update(tx *gorm.DB, file *models.File) error {
	db := r.db
	if tx != nil {
		db = tx
	}
	err := db.Save(file).Error
	if err != nil {
		logger.Error("Error updating file record", zap.Uint64("fileID", file.ID), zap.Error(err))
		return err
	}
	return nil
}

func (r *fileRepository) Delete(tx *gorm.DB, id uint64) error {
	db := r.db
	if tx != nil {
		db = tx
	}
	err := db.Unscoped().Delete(&models.File{}, id).Error
	if err != nil {
		logger.Error("Error deleting file record", zap.Uint64("fileID", id), zap.Error(err))
		return err
	}
	return nil
}

func (r *fileRepository) CountByFolderID(folderID uint64) (int64, error) {
	var count int64
	err := r.db.Model(&models.File{}).Where("folder_id = ?", folderID).Count(&count).Error
	if err != nil {
		return 0, err
	}
	return count, nil
}

func (r *fileRepository) CountAll() (int64, error) {
	var count int64
	err := r.db.Model(&models.File{}).Count(&count).Error
	if err != nil {
		return 0, err
	}
	return count, nil
}
