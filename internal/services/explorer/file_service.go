package explorer

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/vtart/go-gallery/internal/config"
	"github.com/vtart/go-gallery/internal/models"
	"github.com/vtart/go-gallery/internal/pkg/logger"
	"github.com/vtart/go-gallery/internal/pkg/storage"
	"github.com/vtart/go-gallery/internal/pkg/thumbnail"
	"github.com/vtart/go-gallery/internal/pkg/xerr"
	"github.com/vtart/go-gallery/internal/repositories"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// UploadInput 上传请求参数
type UploadInput struct {
	OriginalName string
	MimeType     string
	Size         int64
	FolderID     *uint64
	Content      io.Reader
}

// BatchDeleteResult 批量删除的统计结果
type BatchDeleteResult struct {
	DeletedCount int      `json:"deleted_count"`
	FreedBytes   uint64   `json:"freed_bytes"`
	SkippedIDs   []uint64 `json:"skipped_ids,omitempty"` // 被跳过的文件（如正在用作头像）
}

// FileView 带预览URL的文件视图，供接口层返回
type FileView struct {
	models.File
	URL          string `json:"url"`
	ThumbnailURL string `json:"thumbnail_url,omitempty"`
}

type FileService interface {
	// 文件查询
	GetFileByID(userID uint64, fileID uint64) (*models.File, error)
	List(userID uint64, folderID *uint64, fileType string, page, pageSize int) ([]models.File, int64, error)

	// 文件上传与下载
	Upload(ctx context.Context, userID uint64, in *UploadInput) (*models.File, error)
	Download(ctx context.Context, userID uint64, fileID uint64) (*models.File, io.ReadCloser, error)

	// 文件删除
	Delete(ctx context.Context, userID uint64, fileID uint64) error
	BatchDelete(ctx context.Context, userID uint64, fileIDs []uint64) (*BatchDeleteResult, error)

	// 文件操作
	Copy(ctx context.Context, userID uint64, fileID uint64, targetFolderID *uint64) (*models.File, error)
	Move(userID uint64, fileID uint64, targetFolderID *uint64) (*models.File, error)
	BatchMove(ctx context.Context, userID uint64, fileIDs []uint64, targetFolderID *uint64) (int, error)
	Rename(userID uint64, fileID uint64, newName string) (*models.File, error)

	// 视图
	View(file *models.File) *FileView
	Views(files []models.File) []FileView
}

type fileService struct {
	fileRepo           repositories.FileRepository
	domainService      FileDomainService  // 归属与状态检查
	quota              QuotaLedger        // 配额记账
	transactionManager TransactionManager // 事务管理
	storageService     storage.StorageService
	thumbGen           *thumbnail.Generator
	cfg                *config.Config
}

var _ FileService = (*fileService)(nil)

// NewFileService 创建一个新的文件服务实例
func NewFileService(
	fileRepo repositories.FileRepository,
	domainService FileDomainService,
	quota QuotaLedger,
	transactionManager TransactionManager,
	storageService storage.StorageService,
	thumbGen *thumbnail.Generator,
	cfg *config.Config,
) FileService {
	return &fileService{
		fileRepo:           fileRepo,
		domainService:      domainService,
		quota:              quota,
		transactionManager: transactionManager,
		storageService:     storageService,
		thumbGen:           thumbGen,
		cfg:                cfg,
	}
}

func (s *fileService) GetFileByID(userID uint64, fileID uint64) (*models.File, error) {
	file, err := s.domainService.CheckFile(userID, fileID)
	if err != nil {
		return nil, err // 错误已在 domainService 中包裹
	}
	return file, nil
}

func (s *fileService) List(userID uint64, folderID *uint64, fileType string, page, pageSize int) ([]models.File, int64, error) {
	if _, err := s.domainService.CheckFolder(userID, folderID); err != nil {
		return nil, 0, err
	}
	if fileType != "" && fileType != models.FileTypeImage && fileType != models.FileTypeVideo {
		return nil, 0, fmt.Errorf("file service: %w", xerr.ErrInvalidParams)
	}

	if page < 1 {
		page = 1
	}
	if pageSize < 1 || pageSize > 100 {
		pageSize = 20
	}

	files, total, err := s.fileRepo.FindByUserIDAndFolderID(userID, folderID, fileType, (page-1)*pageSize, pageSize)
	if err != nil {
		return nil, 0, fmt.Errorf("file service: failed to list files: %w", xerr.ErrDatabaseError)
	}
	return files, total, nil
}

// Upload 上传文件
//
// 失败时任何一步都不能留下半成品：物理写入成功但数据库事务失败时，
// 删除已写入的对象作为补偿。配额的最终防线是 QuotaLedger.Commit 里的守卫更新，
// 和文件记录插入处于同一个事务，要么都生效要么都回滚。
func (s *fileService) Upload(ctx context.Context, userID uint64, in *UploadInput) (*models.File, error) {
	originalName := strings.TrimSpace(in.OriginalName)
	if originalName == "" || strings.ContainsAny(originalName, "/\\") {
		return nil, fmt.Errorf("file service: %w", xerr.ErrFileNameInvalid)
	}

	fileType, ok := detectFileType(in.MimeType)
	if !ok {
		logger.Warn("Upload: Unsupported mime type", zap.Uint64("userID", userID), zap.String("mimeType", in.MimeType))
		return nil, fmt.Errorf("file service: %w", xerr.ErrInvalidFile)
	}
	if in.Size <= 0 {
		return nil, fmt.Errorf("file service: %w", xerr.ErrInvalidFile)
	}
	if s.cfg.Storage.MaxUploadSize > 0 && in.Size > s.cfg.Storage.MaxUploadSize {
		return nil, fmt.Errorf("file service: %w", xerr.ErrFileTooLarge)
	}

	if _, err := s.domainService.CheckFolder(userID, in.FolderID); err != nil {
		return nil, err
	}

	// 预检配额，尽早拒绝明显超额的上传。真正的守卫在事务内的 Commit
	if err := s.quota.CheckAvailable(userID, uint64(in.Size)); err != nil {
		return nil, err
	}

	fileName := physicalFileName(originalName)
	key := objectKey(userID, fileType, fileName)

	written, err := s.storageService.PutObject(ctx, key, in.Content, in.Size, in.MimeType)
	if err != nil {
		logger.Error("Upload: Failed to write object",
			zap.Uint64("userID", userID),
			zap.String("key", key),
			zap.Error(err))
		return nil, fmt.Errorf("file service: %w", xerr.ErrWriteFailed)
	}

	newFile := &models.File{
		UserID:       userID,
		FolderID:     in.FolderID,
		FileName:     fileName,
		OriginalName: originalName,
		FileType:     fileType,
		FileSize:     uint64(written),
		FilePath:     key,
	}
	if in.MimeType != "" {
		mime := in.MimeType
		newFile.MimeType = &mime
	}

	// 缩略图只针对图片生成，失败不影响上传本身
	if fileType == models.FileTypeImage {
		s.generateThumbnail(ctx, newFile)
	}

	err = s.transactionManager.WithTransaction(ctx, func(tx *gorm.DB) error {
		if err := s.fileRepo.Create(tx, newFile); err != nil {
			return fmt.Errorf("file service: failed to create file record: %w", xerr.ErrDatabaseError)
		}
		return s.quota.Commit(tx, userID, uint64(written))
	})
	if err != nil {
		// 补偿：数据库未记账，物理文件必须移除
		s.removePhysical(ctx, newFile)
		return nil, err
	}

	logger.Info("Upload: File uploaded successfully",
		zap.Uint64("userID", userID),
		zap.Uint64("fileID", newFile.ID),
		zap.String("fileType", fileType),
		zap.Int64("size", written))
	return newFile, nil
}

// generateThumbnail 重新读取已写入的对象生成缩略图，并回填原图尺寸
func (s *fileService) generateThumbnail(ctx context.Context, file *models.File) {
	src, err := s.storageService.GetObject(ctx, file.FilePath)
	if err != nil {
		logger.Warn("generateThumbnail: Failed to read object", zap.String("key", file.FilePath), zap.Error(err))
		return
	}
	defer src.Close()

	result, err := s.thumbGen.Generate(src)
	if err != nil {
		logger.Warn("generateThumbnail: Failed to generate thumbnail", zap.String("key", file.FilePath), zap.Error(err))
		return
	}

	thumbKey := thumbnailKey(file.FilePath)
	if _, err := s.storageService.PutObject(ctx, thumbKey, result.Data, int64(result.Data.Len()), "image/jpeg"); err != nil {
		logger.Warn("generateThumbnail: Failed to write thumbnail", zap.String("key", thumbKey), zap.Error(err))
		return
	}

	file.ThumbnailPath = &thumbKey
	file.Width = &result.Width
	file.Height = &result.Height

	logger.Debug("generateThumbnail: Thumbnail written",
		zap.String("key", thumbKey),
		zap.Int("thumbWidth", result.ThumbSize.X),
		zap.Int("thumbHeight", result.ThumbSize.Y))
}

// removePhysical 移除文件对应的物理对象和缩略图，失败只记录日志
func (s *fileService) removePhysical(ctx context.Context, file *models.File) {
	if err := s.storageService.RemoveObject(ctx, file.FilePath); err != nil {
		logger.Error("removePhysical: Failed to remove object", zap.String("key", file.FilePath), zap.Error(err))
	}
	if file.ThumbnailPath != nil {
		if err := s.storageService.RemoveObject(ctx, *file.ThumbnailPath); err != nil {
			logger.Error("removePhysical: Failed to remove thumbnail", zap.String("key", *file.ThumbnailPath), zap.Error(err))
		}
	}
}

func (s *fileService) Download(ctx context.Context, userID uint64, fileID uint64) (*models.File, io.ReadCloser, error) {
	file, err := s.domainService.CheckFile(userID, fileID)
	if err != nil {
		return nil, nil, err
	}

	reader, err := s.storageService.GetObject(ctx, file.FilePath)
	if err != nil {
		logger.Error("Download: Failed to open object",
			zap.Uint64("fileID", fileID),
			zap.String("key", file.FilePath),
			zap.Error(err))
		return nil, nil, fmt.Errorf("file service: %w", xerr.ErrStorageError)
	}
	return file, reader, nil
}

// Delete 删除单个文件
//
// 数据库是事实来源：记录删除和配额归还在一个事务里提交，
// 物理对象随后尽力移除，失败只记日志，不回滚账目。
func (s *fileService) Delete(ctx context.Context, userID uint64, fileID uint64) error {
	file, err := s.domainService.CheckFile(userID, fileID)
	if err != nil {
		return err
	}
	if err := s.domainService.CheckDeletable(userID, file); err != nil {
		return err
	}

	err = s.transactionManager.WithTransaction(ctx, func(tx *gorm.DB) error {
		if err := s.fileRepo.Delete(tx, file.ID); err != nil {
			return fmt.Errorf("file service: failed to delete file record: %w", xerr.ErrDatabaseError)
		}
		return s.quota.Release(tx, userID, file.FileSize)
	})
	if err != nil {
		return err
	}

	s.removePhysical(ctx, file)

	logger.Info("Delete: File deleted successfully",
		zap.Uint64("userID", userID),
		zap.Uint64("fileID", fileID),
		zap.Uint64("freedBytes", file.FileSize))
	return nil
}

// BatchDelete 批量删除，跳过受保护的文件，返回删除数量和释放的空间
func (s *fileService) BatchDelete(ctx context.Context, userID uint64, fileIDs []uint64) (*BatchDeleteResult, error) {
	if len(fileIDs) == 0 {
		return nil, fmt.Errorf("file service: %w", xerr.ErrInvalidParams)
	}

	files, err := s.fileRepo.FindByIDs(userID, fileIDs)
	if err != nil {
		return nil, fmt.Errorf("file service: failed to get files: %w", xerr.ErrDatabaseError)
	}

	result := &BatchDeleteResult{}
	var deletable []models.File
	for _, f := range files {
		if err := s.domainService.CheckDeletable(userID, &f); err != nil {
			logger.Warn("BatchDelete: Skipping protected file",
				zap.Uint64("userID", userID),
				zap.Uint64("fileID", f.ID))
			result.SkippedIDs = append(result.SkippedIDs, f.ID)
			continue
		}
		deletable = append(deletable, f)
	}
	if len(deletable) == 0 {
		return result, nil
	}

	var freed uint64
	err = s.transactionManager.WithTransaction(ctx, func(tx *gorm.DB) error {
		freed = 0
		for _, f := range deletable {
			if err := s.fileRepo.Delete(tx, f.ID); err != nil {
				return fmt.Errorf("file service: failed to delete file record: %w", xerr.ErrDatabaseError)
			}
			freed += f.FileSize
		}
		return s.quota.Release(tx, userID, freed)
	})
	if err != nil {
		return nil, err
	}

	for i := range deletable {
		s.removePhysical(ctx, &deletable[i])
	}

	result.DeletedCount = len(deletable)
	result.FreedBytes = freed
	logger.Info("BatchDelete: Files deleted",
		zap.Uint64("userID", userID),
		zap.Int("deletedCount", result.DeletedCount),
		zap.Uint64("freedBytes", result.FreedBytes))
	return result, nil
}

// Copy 复制文件到目标文件夹，副本重新占用配额
func (s *fileService) Copy(ctx context.Context, userID uint64, fileID uint64, targetFolderID *uint64) (*models.File, error) {
	src, err := s.domainService.CheckFile(userID, fileID)
	if err != nil {
		return nil, err
	}
	if _, err := s.domainService.CheckFolder(userID, targetFolderID); err != nil {
		return nil, err
	}

	if err := s.quota.CheckAvailable(userID, src.FileSize); err != nil {
		return nil, err
	}

	fileName := physicalFileName(src.OriginalName)
	dstKey := objectKey(userID, src.FileType, fileName)

	copied, err := s.storageService.CopyObject(ctx, src.FilePath, dstKey)
	if err != nil {
		logger.Error("Copy: Failed to copy object",
			zap.String("srcKey", src.FilePath),
			zap.String("dstKey", dstKey),
			zap.Error(err))
		return nil, fmt.Errorf("file service: %w", xerr.ErrStorageError)
	}
	if copied <= 0 {
		copied = int64(src.FileSize)
	}

	newFile := &models.File{
		UserID:       userID,
		FolderID:     targetFolderID,
		FileName:     fileName,
		OriginalName: src.OriginalName,
		FileType:     src.FileType,
		FileSize:     uint64(copied),
		FilePath:     dstKey,
		MimeType:     src.MimeType,
		Width:        src.Width,
		Height:       src.Height,
	}

	// 缩略图一并复制，失败不影响复制本身
	if src.ThumbnailPath != nil {
		dstThumbKey := thumbnailKey(dstKey)
		if _, err := s.storageService.CopyObject(ctx, *src.ThumbnailPath, dstThumbKey); err != nil {
			logger.Warn("Copy: Failed to copy thumbnail", zap.String("srcKey", *src.ThumbnailPath), zap.Error(err))
		} else {
			newFile.ThumbnailPath = &dstThumbKey
		}
	}

	err = s.transactionManager.WithTransaction(ctx, func(tx *gorm.DB) error {
		if err := s.fileRepo.Create(tx, newFile); err != nil {
			return fmt.Errorf("file service: failed to create file record: %w", xerr.ErrDatabaseError)
		}
		return s.quota.Commit(tx, userID, newFile.FileSize)
	})
	if err != nil {
		s.removePhysical(ctx, newFile)
		return nil, err
	}

	logger.Info("Copy: File copied successfully",
		zap.Uint64("userID", userID),
		zap.Uint64("srcFileID", fileID),
		zap.Uint64("newFileID", newFile.ID))
	return newFile, nil
}

// Move 移动文件到目标文件夹，不产生配额变化
func (s *fileService) Move(userID uint64, fileID uint64, targetFolderID *uint64) (*models.File, error) {
	file, err := s.domainService.CheckFile(userID, fileID)
	if err != nil {
		return nil, err
	}
	if _, err := s.domainService.CheckFolder(userID, targetFolderID); err != nil {
		return nil, err
	}

	file.FolderID = targetFolderID
	if err := s.fileRepo.Update(nil, file); err != nil {
		return nil, fmt.Errorf("file service: failed to move file: %w", xerr.ErrDatabaseError)
	}

	logger.Info("Move: File moved successfully",
		zap.Uint64("userID", userID),
		zap.Uint64("fileID", fileID),
		zap.Any("targetFolderID", targetFolderID))
	return file, nil
}

// BatchMove 批量移动文件到目标文件夹，一个事务内完成，返回移动数量
func (s *fileService) BatchMove(ctx context.Context, userID uint64, fileIDs []uint64, targetFolderID *uint64) (int, error) {
	if len(fileIDs) == 0 {
		return 0, fmt.Errorf("file service: %w", xerr.ErrInvalidParams)
	}
	if _, err := s.domainService.CheckFolder(userID, targetFolderID); err != nil {
		return 0, err
	}

	files, err := s.fileRepo.FindByIDs(userID, fileIDs)
	if err != nil {
		return 0, fmt.Errorf("file service: failed to get files: %w", xerr.ErrDatabaseError)
	}
	if len(files) == 0 {
		return 0, nil
	}

	err = s.transactionManager.WithTransaction(ctx, func(tx *gorm.DB) error {
		for i := range files {
			files[i].FolderID = targetFolderID
			if err := s.fileRepo.Update(tx, &files[i]); err != nil {
				return fmt.Errorf("file service: failed to move file: %w", xerr.ErrDatabaseError)
			}
		}
		return nil
	})
	if err != nil {
		return 0, err
	}

	logger.Info("BatchMove: Files moved",
		zap.Uint64("userID", userID),
		zap.Int("count", len(files)),
		zap.Any("targetFolderID", targetFolderID))
	return len(files), nil
}

func (s *fileService) View(file *models.File) *FileView {
	if file == nil {
		return nil
	}
	view := &FileView{File: *file, URL: s.storageService.ObjectURL(file.FilePath)}
	if file.ThumbnailPath != nil {
		view.ThumbnailURL = s.storageService.ObjectURL(*file.ThumbnailPath)
	}
	return view
}

func (s *fileService) Views(files []models.File) []FileView {
	views := make([]FileView, 0, len(files))
	for i := range files {
		views = append(views, *s.View(&files[i]))
	}
	return views
}

func (s *fileService) Rename(userID uint64, fileID uint64, newName string) (*models.File, error) {
	file, err := s.domainService.CheckFile(userID, fileID)
	if err != nil {
		return nil, err
	}

	newName = strings.TrimSpace(newName)
	if newName == "" || strings.ContainsAny(newName, "/\\") {
		return nil, fmt.Errorf("file service: %w", xerr.ErrFileNameInvalid)
	}
	if file.OriginalName == newName {
		return file, nil
	}

	file.OriginalName = newName
	if err := s.fileRepo.Update(nil, file); err != nil {
		return nil, fmt.Errorf("file service: failed to rename file: %w", xerr.ErrDatabaseError)
	}

	logger.Info("Rename: File renamed successfully",
		zap.Uint64("userID", userID),
		zap.Uint64("fileID", fileID),
		zap.String("newName", newName))
	return file, nil
}
