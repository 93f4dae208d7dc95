package services

import (
	"fmt"

	"github.com/vtart/go-gallery/internal/models"
	"github.com/vtart/go-gallery/internal/pkg/logger"
	"github.com/vtart/go-gallery/internal/pkg/xerr"
	"github.com/vtart/go-gallery/internal/repositories"
	"github.com/vtart/go-gallery/internal/services/explorer"
	"go.uber.org/zap"
)

// QuotaUsage 用户配额使用情况
type QuotaUsage struct {
	UsedStorage  uint64 `json:"used_storage"`
	StorageLimit uint64 `json:"storage_limit"`
	Available    uint64 `json:"available"`
}

type UserService interface {
	GetProfile(userID uint64) (*models.User, error)
	GetQuotaUsage(userID uint64) (*QuotaUsage, error)
	// SetAvatar 把用户的一张图片设为头像，头像文件将受删除保护
	SetAvatar(userID uint64, fileID uint64) error
	ClearAvatar(userID uint64) error
}

type userService struct {
	userRepo      repositories.UserRepository
	domainService explorer.FileDomainService
	quota         explorer.QuotaLedger
}

var _ UserService = (*userService)(nil)

func NewUserService(
	userRepo repositories.UserRepository,
	domainService explorer.FileDomainService,
	quota explorer.QuotaLedger,
) UserService {
	return &userService{
		userRepo:      userRepo,
		domainService: domainService,
		quota:         quota,
	}
}

func (s *userService) GetProfile(userID uint64) (*models.User, error) {
	user, err := s.userRepo.GetUserByID(userID)
	if err != nil {
		return nil, fmt.Errorf("user service: %w", xerr.ErrDatabaseError)
	}
	if user == nil {
		return nil, fmt.Errorf("user service: %w", xerr.ErrUserNotFound)
	}
	return user, nil
}

func (s *userService) GetQuotaUsage(userID uint64) (*QuotaUsage, error) {
	used, limit, err := s.quota.Usage(userID)
	if err != nil {
		return nil, err
	}
	usage := &QuotaUsage{UsedStorage: used, StorageLimit: limit}
	if limit > used {
		usage.Available = limit - used
	}
	return usage, nil
}

func (s *userService) SetAvatar(userID uint64, fileID uint64) error {
	file, err := s.domainService.CheckFile(userID, fileID)
	if err != nil {
		return err
	}
	if !file.IsImage() {
		return fmt.Errorf("user service: %w", xerr.ErrInvalidFile)
	}

	user, err := s.userRepo.GetUserByID(userID)
	if err != nil {
		return fmt.Errorf("user service: %w", xerr.ErrDatabaseError)
	}
	if user == nil {
		return fmt.Errorf("user service: %w", xerr.ErrUserNotFound)
	}

	user.AvatarFileID = &file.ID
	if err := s.userRepo.UpdateUser(user); err != nil {
		return fmt.Errorf("user service: %w", xerr.ErrDatabaseError)
	}

	logger.Info("SetAvatar: Avatar updated", zap.Uint64("userID", userID), zap.Uint64("fileID", fileID))
	return nil
}

func (s *userService) ClearAvatar(userID uint64) error {
	user, err := s.userRepo.GetUserByID(userID)
	if err != nil {
		return fmt.Errorf("user service: %w", xerr.ErrDatabaseError)
	}
	if user == nil {
		return fmt.Errorf("user service: %w", xerr.ErrUserNotFound)
	}

	user.AvatarFileID = nil
	if err := s.userRepo.UpdateUser(user); err != nil {
		return fmt.Errorf("user service: %w", xerr.ErrDatabaseError)
	}

	logger.Info("ClearAvatar: Avatar cleared", zap.Uint64("userID", userID))
	return nil
}
