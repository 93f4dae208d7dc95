package xerr

import "errors"

var (
	// 通用错误
	ErrSuccess        = errors.New("操作成功")
	ErrInternalServer = errors.New("服务器内部错误")

	// 客户端请求错误
	ErrInvalidParams    = errors.New("无效的请求参数")
	ErrValidationFailed = errors.New("参数验证失败")
	ErrFileTooLarge     = errors.New("上传文件过大，超出限制")
	ErrInvalidFile      = errors.New("文件类型不支持或内容无效")
	ErrFileNameInvalid  = errors.New("文件名包含非法字符")

	// 验证码错误
	ErrCodeInvalid     = errors.New("验证码错误")
	ErrCodeNotFound    = errors.New("验证码不存在或已过期")
	ErrCodeExpired     = errors.New("验证码已过期")
	ErrCodeMaxAttempts = errors.New("验证码尝试次数过多，已失效")
	ErrCodeUsed        = errors.New("验证码已被使用")
	ErrCodeNotOwned    = errors.New("验证码不属于当前用户，无法使用")
	ErrCodeWrongEmail  = errors.New("验证码只能由目标邮箱所有者使用")
	ErrRateLimited     = errors.New("发送过于频繁，请稍后再试")

	// 认证与授权错误
	ErrUnauthorized       = errors.New("用户未授权")
	ErrTokenInvalid       = errors.New("认证 Token 无效或已过期")
	ErrInvalidCredentials = errors.New("用户名或密码不正确")
	ErrUserAlreadyExists  = errors.New("该用户名已被注册")
	ErrEmailAlreadyExists = errors.New("邮箱已被注册")

	// 权限错误
	ErrForbidden        = errors.New("禁止访问")
	ErrPermissionDenied = errors.New("您没有操作此资源的权限")
	ErrFileProtected    = errors.New("文件正在被用作头像，无法删除")

	// 资源未找到错误
	ErrUserNotFound   = errors.New("用户不存在")
	ErrFileNotFound   = errors.New("文件不存在")
	ErrFolderNotFound = errors.New("文件夹不存在")

	// 业务逻辑冲突
	ErrFolderNotEmpty = errors.New("文件夹不为空，无法删除")

	// 配额错误
	ErrInsufficientStorage = errors.New("存储空间不足")
	ErrQuotaBelowUsage     = errors.New("新容量不能小于已使用容量")

	// 数据库与外部服务错误
	ErrDatabaseError = errors.New("数据库操作失败")
	ErrStorageError  = errors.New("存储服务操作失败")
	ErrMailError     = errors.New("邮件发送失败")
	ErrWriteFailed   = errors.New("文件写入失败")
)
