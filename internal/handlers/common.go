package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/vtart/go-gallery/internal/pkg/xerr"
	"github.com/vtart/go-gallery/internal/services"
)

// currentUserID 从 Gin Context 取出认证中间件注入的用户ID
func currentUserID(c *gin.Context) (uint64, bool) {
	v, exists := c.Get("userID")
	if !exists {
		xerr.AbortWithError(c, http.StatusInternalServerError, xerr.InternalServerErrorCode, "User ID not found in context")
		return 0, false
	}
	userID, ok := v.(uint64)
	if !ok {
		xerr.AbortWithError(c, http.StatusInternalServerError, xerr.InternalServerErrorCode, "Invalid user ID type in context")
		return 0, false
	}
	return userID, true
}

// clientMeta 提取请求方的审计信息
func clientMeta(c *gin.Context) services.ClientMeta {
	return services.ClientMeta{
		IPAddress: c.ClientIP(),
		UserAgent: c.GetHeader("User-Agent"),
	}
}

// 业务错误到 HTTP 状态和业务码的映射表
var errCodeTable = []struct {
	sentinel   error
	httpStatus int
	code       int
}{
	{xerr.ErrInvalidParams, http.StatusBadRequest, xerr.InvalidParamsCode},
	{xerr.ErrValidationFailed, http.StatusBadRequest, xerr.ValidationFailedCode},
	{xerr.ErrFileTooLarge, http.StatusBadRequest, xerr.FileTooLargeCode},
	{xerr.ErrInvalidFile, http.StatusBadRequest, xerr.InvalidFileCode},
	{xerr.ErrFileNameInvalid, http.StatusBadRequest, xerr.FileNameInvalidCode},
	{xerr.ErrCodeInvalid, http.StatusBadRequest, xerr.CodeInvalidCode},
	{xerr.ErrCodeNotFound, http.StatusBadRequest, xerr.CodeInvalidCode},
	{xerr.ErrCodeExpired, http.StatusBadRequest, xerr.CodeExpiredCode},
	{xerr.ErrCodeMaxAttempts, http.StatusBadRequest, xerr.CodeMaxAttemptsCode},
	{xerr.ErrCodeUsed, http.StatusBadRequest, xerr.CodeUsedCode},
	{xerr.ErrFolderNotEmpty, http.StatusBadRequest, xerr.FolderNotEmptyCode},
	{xerr.ErrUnauthorized, http.StatusUnauthorized, xerr.UnauthorizedCode},
	{xerr.ErrTokenInvalid, http.StatusUnauthorized, xerr.TokenInvalidCode},
	{xerr.ErrInvalidCredentials, http.StatusUnauthorized, xerr.InvalidCredentialsCode},
	{xerr.ErrForbidden, http.StatusForbidden, xerr.ForbiddenCode},
	{xerr.ErrPermissionDenied, http.StatusForbidden, xerr.PermissionDeniedCode},
	{xerr.ErrCodeNotOwned, http.StatusForbidden, xerr.CodeNotOwnedCode},
	{xerr.ErrCodeWrongEmail, http.StatusForbidden, xerr.CodeNotOwnedCode},
	{xerr.ErrFileProtected, http.StatusForbidden, xerr.FileProtectedCode},
	{xerr.ErrUserNotFound, http.StatusNotFound, xerr.UserNotFoundCode},
	{xerr.ErrFileNotFound, http.StatusNotFound, xerr.FileNotFoundCode},
	{xerr.ErrFolderNotFound, http.StatusNotFound, xerr.FolderNotFoundCode},
	{xerr.ErrUserAlreadyExists, http.StatusConflict, xerr.UserAlreadyExistsCode},
	{xerr.ErrEmailAlreadyExists, http.StatusConflict, xerr.EmailAlreadyExistsCode},
	{xerr.ErrRateLimited, http.StatusTooManyRequests, xerr.RateLimitedCode},
	{xerr.ErrInsufficientStorage, http.StatusInsufficientStorage, xerr.InsufficientStorageCode},
	{xerr.ErrQuotaBelowUsage, http.StatusBadRequest, xerr.QuotaBelowUsageCode},
	{xerr.ErrMailError, http.StatusInternalServerError, xerr.MailErrorCode},
	{xerr.ErrWriteFailed, http.StatusInternalServerError, xerr.StorageErrorCode},
	{xerr.ErrStorageError, http.StatusInternalServerError, xerr.StorageErrorCode},
	{xerr.ErrDatabaseError, http.StatusInternalServerError, xerr.DatabaseErrorCode},
}

// respondError 按服务层包裹的业务错误发送统一错误响应
func respondError(c *gin.Context, err error) {
	for _, entry := range errCodeTable {
		if errors.Is(err, entry.sentinel) {
			xerr.Error(c, entry.httpStatus, entry.code, entry.sentinel.Error())
			return
		}
	}
	xerr.Error(c, http.StatusInternalServerError, xerr.InternalServerErrorCode, xerr.ErrInternalServer.Error())
}
