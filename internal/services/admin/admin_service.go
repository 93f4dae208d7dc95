package admin

import (
	"context"
	"fmt"

	"github.com/vtart/go-gallery/internal/models"
	"github.com/vtart/go-gallery/internal/pkg/logger"
	"github.com/vtart/go-gallery/internal/pkg/utils"
	"github.com/vtart/go-gallery/internal/pkg/xerr"
	"github.com/vtart/go-gallery/internal/repositories"
	"github.com/vtart/go-gallery/internal/services/explorer"
	"github.com/vtart/go-gallery/internal/services/verification"
	"go.uber.org/zap"
)

// StorageStats 全站存储统计
type StorageStats struct {
	TotalUsed  uint64 `json:"total_used"`
	TotalLimit uint64 `json:"total_limit"`
	FileCount  int64  `json:"file_count"`
	UserCount  int64  `json:"user_count"`
}

type AdminService interface {
	ListUsers(page, pageSize int) ([]models.User, int64, error)
	CreateUser(username, password, email, role string, storageLimit uint64) (*models.User, error)
	// SetStorageLimit 调整用户配额，新上限低于已用空间时拒绝
	SetStorageLimit(userID uint64, limit uint64) error
	GetStorageStats() (*StorageStats, error)

	// 验证码运维入口
	GetCodeStats(ctx context.Context, email string, codeType verification.CodeType) (verification.Stats, error)
	GetCodeAuditTrail(ctx context.Context, email string, codeType verification.CodeType) ([]verification.Code, error)
	PurgeCodes(ctx context.Context, email string, codeType verification.CodeType) (int, error)
	SweepCodes(ctx context.Context) (int, error)
}

type adminService struct {
	userRepo repositories.UserRepository
	fileRepo repositories.FileRepository
	quota    explorer.QuotaLedger
	verifier *verification.Service
}

var _ AdminService = (*adminService)(nil)

func NewAdminService(
	userRepo repositories.UserRepository,
	fileRepo repositories.FileRepository,
	quota explorer.QuotaLedger,
	verifier *verification.Service,
) AdminService {
	return &adminService{
		userRepo: userRepo,
		fileRepo: fileRepo,
		quota:    quota,
		verifier: verifier,
	}
}

func (s *adminService) ListUsers(page, pageSize int) ([]models.User, int64, error) {
	if page < 1 {
		page = 1
	}
	if pageSize < 1 || pageSize > 100 {
		pageSize = 20
	}
	users, total, err := s.userRepo.ListUsers((page-1)*pageSize, pageSize)
	if err != nil {
		return nil, 0, fmt.Errorf("admin service: %w", xerr.ErrDatabaseError)
	}
	return users, total, nil
}

func (s *adminService) CreateUser(username, password, email, role string, storageLimit uint64) (*models.User, error) {
	if role != models.RoleUser && role != models.RoleAdmin {
		return nil, fmt.Errorf("admin service: %w", xerr.ErrInvalidParams)
	}

	existing, err := s.userRepo.GetUserByUsername(username)
	if err != nil {
		return nil, fmt.Errorf("admin service: %w", xerr.ErrDatabaseError)
	}
	if existing != nil {
		return nil, fmt.Errorf("admin service: %w", xerr.ErrUserAlreadyExists)
	}
	existing, err = s.userRepo.GetUserByEmail(email)
	if err != nil {
		return nil, fmt.Errorf("admin service: %w", xerr.ErrDatabaseError)
	}
	if existing != nil {
		return nil, fmt.Errorf("admin service: %w", xerr.ErrEmailAlreadyExists)
	}

	hashedPassword, err := utils.HashPassword(password)
	if err != nil {
		return nil, fmt.Errorf("admin service: %w", xerr.ErrInternalServer)
	}

	if storageLimit == 0 {
		storageLimit = 1073741824 // 默认 1GB
	}
	user := &models.User{
		Username:     username,
		PasswordHash: hashedPassword,
		Email:        email,
		Role:         role,
		StorageLimit: storageLimit,
		UsedStorage:  0,
		Status:       1,
	}
	if err := s.userRepo.CreateUser(user); err != nil {
		return nil, fmt.Errorf("admin service: %w", xerr.ErrDatabaseError)
	}

	logger.Info("CreateUser: User created by admin",
		zap.Uint64("userID", user.ID),
		zap.String("username", username),
		zap.String("role", role))
	return user, nil
}

func (s *adminService) SetStorageLimit(userID uint64, limit uint64) error {
	return s.quota.SetLimit(userID, limit)
}

func (s *adminService) GetStorageStats() (*StorageStats, error) {
	totalUsed, totalLimit, err := s.userRepo.StorageStats()
	if err != nil {
		return nil, fmt.Errorf("admin service: %w", xerr.ErrDatabaseError)
	}
	fileCount, err := s.fileRepo.CountAll()
	if err != nil {
		return nil, fmt.Errorf("admin service: %w", xerr.ErrDatabaseError)
	}
	_, userCount, err := s.userRepo.ListUsers(0, 1)
	if err != nil {
		return nil, fmt.Errorf("admin service: %w", xerr.ErrDatabaseError)
	}

	return &StorageStats{
		TotalUsed:  totalUsed,
		TotalLimit: totalLimit,
		FileCount:  fileCount,
		UserCount:  userCount,
	}, nil
}

func (s *adminService) GetCodeStats(ctx context.Context, email string, codeType verification.CodeType) (verification.Stats, error) {
	if !verification.ValidType(codeType) {
		return verification.Stats{}, fmt.Errorf("admin service: %w", xerr.ErrInvalidParams)
	}
	return s.verifier.Stats(ctx, email, codeType)
}

func (s *adminService) GetCodeAuditTrail(ctx context.Context, email string, codeType verification.CodeType) ([]verification.Code, error) {
	if !verification.ValidType(codeType) {
		return nil, fmt.Errorf("admin service: %w", xerr.ErrInvalidParams)
	}
	return s.verifier.AuditTrail(ctx, email, codeType)
}

func (s *adminService) PurgeCodes(ctx context.Context, email string, codeType verification.CodeType) (int, error) {
	if !verification.ValidType(codeType) {
		return 0, fmt.Errorf("admin service: %w", xerr.ErrInvalidParams)
	}
	removed, err := s.verifier.ClearByEmail(ctx, email, codeType)
	if err != nil {
		return 0, err
	}
	logger.Info("PurgeCodes: Codes purged by admin",
		zap.String("email", email),
		zap.String("type", string(codeType)),
		zap.Int("removed", removed))
	return removed, nil
}

func (s *adminService) SweepCodes(ctx context.Context) (int, error) {
	return s.verifier.Sweep(ctx)
}
