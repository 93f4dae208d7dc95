package services

import (
	"context"
	"fmt"

	"github.com/vtart/go-gallery/internal/config"
	"github.com/vtart/go-gallery/internal/models"
	"github.com/vtart/go-gallery/internal/pkg/logger"
	"github.com/vtart/go-gallery/internal/pkg/mailer"
	"github.com/vtart/go-gallery/internal/pkg/utils"
	"github.com/vtart/go-gallery/internal/pkg/xerr"
	"github.com/vtart/go-gallery/internal/repositories"
	"github.com/vtart/go-gallery/internal/services/verification"
	"go.uber.org/zap"
)

type AuthService interface {
	// SendCode 发送验证码邮件，限流拒绝时返回剩余等待秒数
	SendCode(ctx context.Context, email string, codeType verification.CodeType, requester *models.User) (int, error)
	Register(ctx context.Context, username, password, email, code string, meta ClientMeta) (*models.User, error)
	Login(username, password string) (string, *models.User, error)
	ChangeEmail(ctx context.Context, userID uint64, newEmail, code string, meta ClientMeta) error
	ChangePassword(ctx context.Context, userID uint64, code, newPassword string, meta ClientMeta) error
	// ResetPassword 忘记密码流程，身份由 username+email+验证码共同证明
	ResetPassword(ctx context.Context, username, email, code, newPassword string, meta ClientMeta) error
}

type authService struct {
	userRepo repositories.UserRepository
	verifier *verification.Service
	mail     mailer.Mailer
	cfg      *config.Config
}

// 确保authService实现了AuthService的方法
var _ AuthService = (*authService)(nil)

func NewAuthService(
	userRepo repositories.UserRepository,
	verifier *verification.Service,
	mail mailer.Mailer,
	cfg *config.Config,
) AuthService {
	return &authService{
		userRepo: userRepo,
		verifier: verifier,
		mail:     mail,
		cfg:      cfg,
	}
}

func (s *authService) SendCode(ctx context.Context, email string, codeType verification.CodeType, requester *models.User) (int, error) {
	if email == "" || !verification.ValidType(codeType) {
		return 0, fmt.Errorf("auth service: %w", xerr.ErrInvalidParams)
	}

	// 限流检查必须先于一切业务校验，防止探测接口被刷
	rl := s.verifier.Limiter().CheckAndMark(email, codeType)
	if !rl.Allowed {
		logger.Warn("SendCode: Rate limited",
			zap.String("email", email),
			zap.String("type", string(codeType)),
			zap.Int("remainingSeconds", rl.RemainingSeconds))
		return rl.RemainingSeconds, fmt.Errorf("auth service: %w", xerr.ErrRateLimited)
	}

	var boundUserID *uint64
	switch codeType {
	case verification.TypeVerifyEmail:
		// 注册场景，邮箱必须未被占用
		existing, err := s.userRepo.GetUserByEmail(email)
		if err != nil {
			return 0, fmt.Errorf("auth service: %w", xerr.ErrDatabaseError)
		}
		if existing != nil {
			return 0, fmt.Errorf("auth service: %w", xerr.ErrEmailAlreadyExists)
		}
	case verification.TypeForgotPassword:
		existing, err := s.userRepo.GetUserByEmail(email)
		if err != nil {
			return 0, fmt.Errorf("auth service: %w", xerr.ErrDatabaseError)
		}
		if existing == nil {
			return 0, fmt.Errorf("auth service: %w", xerr.ErrUserNotFound)
		}
	case verification.TypeChangeEmail:
		if requester == nil {
			return 0, fmt.Errorf("auth service: %w", xerr.ErrUnauthorized)
		}
		existing, err := s.userRepo.GetUserByEmail(email)
		if err != nil {
			return 0, fmt.Errorf("auth service: %w", xerr.ErrDatabaseError)
		}
		if existing != nil {
			return 0, fmt.Errorf("auth service: %w", xerr.ErrEmailAlreadyExists)
		}
		id := requester.ID
		boundUserID = &id
	case verification.TypePasswordChange:
		if requester == nil {
			return 0, fmt.Errorf("auth service: %w", xerr.ErrUnauthorized)
		}
		if requester.Email != email {
			return 0, fmt.Errorf("auth service: %w", xerr.ErrPermissionDenied)
		}
		id := requester.ID
		boundUserID = &id
	}

	plain, err := s.verifier.Issue(ctx, email, codeType, boundUserID)
	if err != nil {
		logger.Error("SendCode: Failed to issue code", zap.String("email", email), zap.Error(err))
		return 0, fmt.Errorf("auth service: %w", xerr.ErrInternalServer)
	}

	ttlMinutes := int(s.cfg.Verification.CodeTTL.Minutes())
	subject := mailer.VerificationCodeSubject(string(codeType))
	body := mailer.VerificationCodeBody(plain, ttlMinutes)
	if err := s.mail.Send(ctx, email, subject, body); err != nil {
		return 0, fmt.Errorf("auth service: %w", xerr.ErrMailError)
	}

	logger.Info("SendCode: Verification code sent",
		zap.String("email", email),
		zap.String("type", string(codeType)))
	return 0, nil
}

func (s *authService) Register(ctx context.Context, username, password, email, code string, meta ClientMeta) (*models.User, error) {
	// 注册时用户尚不存在，消费验证码不携带身份断言
	vctx := verification.Context{Kind: verification.KindNone, IPAddress: meta.IPAddress, UserAgent: meta.UserAgent}
	res, err := s.verifier.Consume(ctx, email, code, verification.TypeVerifyEmail, vctx)
	if err != nil {
		return nil, fmt.Errorf("auth service: %w", xerr.ErrInternalServer)
	}
	if err := codeConsumeError(res); err != nil {
		return nil, err
	}

	// 检查用户名是否存在
	existing, err := s.userRepo.GetUserByUsername(username)
	if err != nil {
		return nil, fmt.Errorf("auth service: %w", xerr.ErrDatabaseError)
	}
	if existing != nil {
		return nil, fmt.Errorf("auth service: %w", xerr.ErrUserAlreadyExists)
	}

	// 检查邮箱是否存在
	existing, err = s.userRepo.GetUserByEmail(email)
	if err != nil {
		return nil, fmt.Errorf("auth service: %w", xerr.ErrDatabaseError)
	}
	if existing != nil {
		return nil, fmt.Errorf("auth service: %w", xerr.ErrEmailAlreadyExists)
	}

	// 哈希密码
	hashedPassword, err := utils.HashPassword(password)
	if err != nil {
		return nil, fmt.Errorf("auth service: %w", xerr.ErrInternalServer)
	}

	user := &models.User{
		Username:     username,
		PasswordHash: hashedPassword,
		Email:        email,
		Role:         models.RoleUser,
		StorageLimit: 1073741824, // 默认给每个新用户 1GB 空间
		UsedStorage:  0,
		Status:       1,
	}
	if err := s.userRepo.CreateUser(user); err != nil {
		return nil, fmt.Errorf("auth service: %w", xerr.ErrDatabaseError)
	}

	logger.Info("Register: User registered successfully",
		zap.Uint64("userID", user.ID),
		zap.String("username", username))
	return user, nil
}

func (s *authService) Login(username, password string) (string, *models.User, error) {
	user, err := s.userRepo.GetUserByUsername(username)
	if err != nil {
		return "", nil, fmt.Errorf("auth service: %w", xerr.ErrDatabaseError)
	}
	if user == nil || !utils.CheckPasswordHash(password, user.PasswordHash) {
		logger.Warn("Login: Invalid credentials", zap.String("username", username))
		return "", nil, fmt.Errorf("auth service: %w", xerr.ErrInvalidCredentials)
	}
	if user.Status != 1 {
		return "", nil, fmt.Errorf("auth service: %w", xerr.ErrForbidden)
	}

	token, err := utils.GenerateToken(user.ID, user.Username, user.Email, user.Role,
		s.cfg.JWT.SecretKey, s.cfg.JWT.Issuer, s.cfg.JWT.ExpiresIn)
	if err != nil {
		logger.Error("Login: Failed to generate token", zap.Uint64("userID", user.ID), zap.Error(err))
		return "", nil, fmt.Errorf("auth service: %w", xerr.ErrInternalServer)
	}

	logger.Info("Login: User logged in", zap.Uint64("userID", user.ID), zap.String("username", username))
	return token, user, nil
}

func (s *authService) ChangeEmail(ctx context.Context, userID uint64, newEmail, code string, meta ClientMeta) error {
	user, err := s.userRepo.GetUserByID(userID)
	if err != nil {
		return fmt.Errorf("auth service: %w", xerr.ErrDatabaseError)
	}
	if user == nil {
		return fmt.Errorf("auth service: %w", xerr.ErrUserNotFound)
	}

	// 验证码发往新邮箱，消费时绑定当前用户
	vctx := verification.AuthenticatedContext(userID)
	vctx.IPAddress = meta.IPAddress
	vctx.UserAgent = meta.UserAgent
	res, err := s.verifier.Consume(ctx, newEmail, code, verification.TypeChangeEmail, vctx)
	if err != nil {
		return fmt.Errorf("auth service: %w", xerr.ErrInternalServer)
	}
	if err := codeConsumeError(res); err != nil {
		return err
	}

	existing, err := s.userRepo.GetUserByEmail(newEmail)
	if err != nil {
		return fmt.Errorf("auth service: %w", xerr.ErrDatabaseError)
	}
	if existing != nil && existing.ID != userID {
		return fmt.Errorf("auth service: %w", xerr.ErrEmailAlreadyExists)
	}

	user.Email = newEmail
	if err := s.userRepo.UpdateUser(user); err != nil {
		return fmt.Errorf("auth service: %w", xerr.ErrDatabaseError)
	}

	logger.Info("ChangeEmail: Email changed successfully",
		zap.Uint64("userID", userID),
		zap.String("newEmail", newEmail))
	return nil
}

func (s *authService) ChangePassword(ctx context.Context, userID uint64, code, newPassword string, meta ClientMeta) error {
	user, err := s.userRepo.GetUserByID(userID)
	if err != nil {
		return fmt.Errorf("auth service: %w", xerr.ErrDatabaseError)
	}
	if user == nil {
		return fmt.Errorf("auth service: %w", xerr.ErrUserNotFound)
	}

	vctx := verification.AuthenticatedContext(userID)
	vctx.IPAddress = meta.IPAddress
	vctx.UserAgent = meta.UserAgent
	res, err := s.verifier.Consume(ctx, user.Email, code, verification.TypePasswordChange, vctx)
	if err != nil {
		return fmt.Errorf("auth service: %w", xerr.ErrInternalServer)
	}
	if err := codeConsumeError(res); err != nil {
		return err
	}

	hashedPassword, err := utils.HashPassword(newPassword)
	if err != nil {
		return fmt.Errorf("auth service: %w", xerr.ErrInternalServer)
	}
	user.PasswordHash = hashedPassword
	if err := s.userRepo.UpdateUser(user); err != nil {
		return fmt.Errorf("auth service: %w", xerr.ErrDatabaseError)
	}

	logger.Info("ChangePassword: Password changed successfully", zap.Uint64("userID", userID))
	return nil
}

func (s *authService) ResetPassword(ctx context.Context, username, email, code, newPassword string, meta ClientMeta) error {
	vctx := verification.ClaimedContext(username, email)
	vctx.IPAddress = meta.IPAddress
	vctx.UserAgent = meta.UserAgent
	res, err := s.verifier.Consume(ctx, email, code, verification.TypeForgotPassword, vctx)
	if err != nil {
		return fmt.Errorf("auth service: %w", xerr.ErrInternalServer)
	}
	if err := codeConsumeError(res); err != nil {
		return err
	}

	user, err := s.userRepo.GetUserByUsername(username)
	if err != nil {
		return fmt.Errorf("auth service: %w", xerr.ErrDatabaseError)
	}

	// 验证层只确认了验证码正确，username 和 email 指向同一账号必须由数据库确认
	if res.RequiresDBVerification {
		if user == nil || user.Email != email {
			logger.Warn("ResetPassword: Username and email mismatch",
				zap.String("username", username),
				zap.String("email", email))
			return fmt.Errorf("auth service: %w", xerr.ErrPermissionDenied)
		}
	}
	if user == nil {
		return fmt.Errorf("auth service: %w", xerr.ErrUserNotFound)
	}

	hashedPassword, err := utils.HashPassword(newPassword)
	if err != nil {
		return fmt.Errorf("auth service: %w", xerr.ErrInternalServer)
	}
	user.PasswordHash = hashedPassword
	if err := s.userRepo.UpdateUser(user); err != nil {
		return fmt.Errorf("auth service: %w", xerr.ErrDatabaseError)
	}

	logger.Info("ResetPassword: Password reset successfully", zap.Uint64("userID", user.ID))
	return nil
}
