package explorer

import (
	"fmt"

	"github.com/vtart/go-gallery/internal/models"
	"github.com/vtart/go-gallery/internal/pkg/logger"
	"github.com/vtart/go-gallery/internal/pkg/xerr"
	"github.com/vtart/go-gallery/internal/repositories"
	"go.uber.org/zap"
)

// FileDomainService 集中文件相关的归属与状态检查
type FileDomainService interface {
	// CheckFile 确认文件存在且属于该用户
	CheckFile(userID uint64, fileID uint64) (*models.File, error)
	// CheckFolder 确认文件夹存在且属于该用户，folderID 为 nil 表示根目录
	CheckFolder(userID uint64, folderID *uint64) (*models.Folder, error)
	// CheckDeletable 确认文件可以删除（未被用作头像）
	CheckDeletable(userID uint64, file *models.File) error
}

type fileDomainService struct {
	fileRepo   repositories.FileRepository
	folderRepo repositories.FolderRepository
	userRepo   repositories.UserRepository
}

var _ FileDomainService = (*fileDomainService)(nil)

func NewFileDomainService(
	fileRepo repositories.FileRepository,
	folderRepo repositories.FolderRepository,
	userRepo repositories.UserRepository,
) FileDomainService {
	return &fileDomainService{
		fileRepo:   fileRepo,
		folderRepo: folderRepo,
		userRepo:   userRepo,
	}
}

func (s *fileDomainService) CheckFile(userID uint64, fileID uint64) (*models.File, error) {
	file, err := s.fileRepo.FindByID(fileID)
	if err != nil {
		return nil, fmt.Errorf("file domain: failed to get file: %w", xerr.ErrDatabaseError)
	}
	if file == nil {
		logger.Warn("CheckFile: File not found", zap.Uint64("fileID", fileID))
		return nil, fmt.Errorf("file domain: %w", xerr.ErrFileNotFound)
	}
	if file.UserID != userID {
		logger.Warn("CheckFile: Permission denied",
			zap.Uint64("userID", userID),
			zap.Uint64("fileID", fileID),
			zap.Uint64("ownerID", file.UserID))
		return nil, fmt.Errorf("file domain: %w", xerr.ErrPermissionDenied)
	}
	return file, nil
}

func (s *fileDomainService) CheckFolder(userID uint64, folderID *uint64) (*models.Folder, error) {
	if folderID == nil {
		return nil, nil // 根目录
	}

	folder, err := s.folderRepo.FindByID(*folderID)
	if err != nil {
		return nil, fmt.Errorf("file domain: failed to get folder: %w", xerr.ErrDatabaseError)
	}
	if folder == nil {
		logger.Warn("CheckFolder: Folder not found", zap.Uint64("folderID", *folderID))
		return nil, fmt.Errorf("file domain: %w", xerr.ErrFolderNotFound)
	}
	if folder.UserID != userID {
		logger.Warn("CheckFolder: Permission denied",
			zap.Uint64("userID", userID),
			zap.Uint64("folderID", *folderID))
		return nil, fmt.Errorf("file domain: %w", xerr.ErrPermissionDenied)
	}
	return folder, nil
}

func (s *fileDomainService) CheckDeletable(userID uint64, file *models.File) error {
	user, err := s.userRepo.GetUserByID(userID)
	if err != nil {
		return fmt.Errorf("file domain: failed to get user: %w", xerr.ErrDatabaseError)
	}
	if user == nil {
		return fmt.Errorf("file domain: %w", xerr.ErrUserNotFound)
	}
	if user.AvatarFileID != nil && *user.AvatarFileID == file.ID {
		logger.Warn("CheckDeletable: File is in use as avatar",
			zap.Uint64("userID", userID),
			zap.Uint64("fileID", file.ID))
		return fmt.Errorf("file domain: %w", xerr.ErrFileProtected)
	}
	return nil
}
