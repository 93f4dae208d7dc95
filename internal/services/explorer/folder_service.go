package explorer

import (
	"fmt"
	"strings"

	"github.com/vtart/go-gallery/internal/models"
	"github.com/vtart/go-gallery/internal/pkg/logger"
	"github.com/vtart/go-gallery/internal/pkg/xerr"
	"github.com/vtart/go-gallery/internal/repositories"
	"go.uber.org/zap"
)

type FolderService interface {
	CreateFolder(userID uint64, name string, parentID *uint64) (*models.Folder, error)
	ListFolders(userID uint64, parentID *uint64) ([]models.Folder, error)
	RenameFolder(userID uint64, folderID uint64, newName string) (*models.Folder, error)
	// DeleteFolder 只允许删除空文件夹
	DeleteFolder(userID uint64, folderID uint64) error
}

type folderService struct {
	folderRepo    repositories.FolderRepository
	fileRepo      repositories.FileRepository
	domainService FileDomainService
}

var _ FolderService = (*folderService)(nil)

// NewFolderService 创建一个新的文件夹服务实例
func NewFolderService(
	folderRepo repositories.FolderRepository,
	fileRepo repositories.FileRepository,
	domainService FileDomainService,
) FolderService {
	return &folderService{
		folderRepo:    folderRepo,
		fileRepo:      fileRepo,
		domainService: domainService,
	}
}

func validFolderName(name string) bool {
	return name != "" && !strings.ContainsAny(name, "/\\")
}

func (s *folderService) CreateFolder(userID uint64, name string, parentID *uint64) (*models.Folder, error) {
	name = strings.TrimSpace(name)
	if !validFolderName(name) {
		return nil, fmt.Errorf("folder service: %w", xerr.ErrFileNameInvalid)
	}

	if _, err := s.domainService.CheckFolder(userID, parentID); err != nil {
		return nil, err
	}

	folder := &models.Folder{
		UserID:   userID,
		Name:     name,
		ParentID: parentID,
	}
	if err := s.folderRepo.Create(folder); err != nil {
		return nil, fmt.Errorf("folder service: failed to create folder: %w", xerr.ErrDatabaseError)
	}

	logger.Info("CreateFolder: Folder created successfully",
		zap.Uint64("userID", userID),
		zap.Uint64("folderID", folder.ID),
		zap.String("name", name))
	return folder, nil
}

func (s *folderService) ListFolders(userID uint64, parentID *uint64) ([]models.Folder, error) {
	if _, err := s.domainService.CheckFolder(userID, parentID); err != nil {
		return nil, err
	}

	folders, err := s.folderRepo.FindByUserID(userID, parentID)
	if err != nil {
		return nil, fmt.Errorf("folder service: failed to list folders: %w", xerr.ErrDatabaseError)
	}
	return folders, nil
}

func (s *folderService) RenameFolder(userID uint64, folderID uint64, newName string) (*models.Folder, error) {
	newName = strings.TrimSpace(newName)
	if !validFolderName(newName) {
		return nil, fmt.Errorf("folder service: %w", xerr.ErrFileNameInvalid)
	}

	folder, err := s.domainService.CheckFolder(userID, &folderID)
	if err != nil {
		return nil, err
	}
	if folder.Name == newName {
		return folder, nil
	}

	folder.Name = newName
	if err := s.folderRepo.Update(folder); err != nil {
		return nil, fmt.Errorf("folder service: failed to rename folder: %w", xerr.ErrDatabaseError)
	}

	logger.Info("RenameFolder: Folder renamed successfully",
		zap.Uint64("userID", userID),
		zap.Uint64("folderID", folderID),
		zap.String("newName", newName))
	return folder, nil
}

func (s *folderService) DeleteFolder(userID uint64, folderID uint64) error {
	folder, err := s.domainService.CheckFolder(userID, &folderID)
	if err != nil {
		return err
	}

	fileCount, err := s.fileRepo.CountByFolderID(folder.ID)
	if err != nil {
		return fmt.Errorf("folder service: failed to count files: %w", xerr.ErrDatabaseError)
	}
	childCount, err := s.folderRepo.CountChildren(folder.ID)
	if err != nil {
		return fmt.Errorf("folder service: failed to count children: %w", xerr.ErrDatabaseError)
	}
	if fileCount > 0 || childCount > 0 {
		logger.Warn("DeleteFolder: Folder not empty",
			zap.Uint64("folderID", folderID),
			zap.Int64("fileCount", fileCount),
			zap.Int64("childCount", childCount))
		return fmt.Errorf("folder service: %w", xerr.ErrFolderNotEmpty)
	}

	if err := s.folderRepo.Delete(folder.ID); err != nil {
		return fmt.Errorf("folder service: failed to delete folder: %w", xerr.ErrDatabaseError)
	}

	logger.Info("DeleteFolder: Folder deleted successfully",
		zap.Uint64("userID", userID),
		zap.Uint64("folderID", folderID))
	return nil
}
