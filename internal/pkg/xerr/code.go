package xerr

// 定义了统一的业务错误码
const (
	SuccessCode = 20000 // 通用成功码

	// --- 客户端请求错误系列 (400xx) ---
	InvalidParamsCode    = 40000 // 无效的请求参数
	ValidationFailedCode = 40001 // 参数验证失败
	FileTooLargeCode     = 40002 // 文件过大
	InvalidFileCode      = 40003 // 文件类型不支持或内容无效
	FileNameInvalidCode  = 40004 // 文件名无效
	CodeInvalidCode      = 40005 // 验证码错误
	CodeExpiredCode      = 40006 // 验证码已过期
	CodeMaxAttemptsCode  = 40007 // 验证码尝试次数过多
	CodeUsedCode         = 40008 // 验证码已被使用
	FolderNotEmptyCode   = 40009 // 文件夹不为空

	// --- 认证与授权错误系列 (401xx) ---
	UnauthorizedCode       = 40100 // 通用未授权
	TokenInvalidCode       = 40101 // Token 无效或过期
	InvalidCredentialsCode = 40102 // 用户名或密码错误

	// --- 权限错误系列 (403xx) ---
	ForbiddenCode        = 40300 // 通用无权限
	PermissionDeniedCode = 40301 // 权限不足 (细分)
	CodeNotOwnedCode     = 40302 // 验证码不属于当前用户
	FileProtectedCode    = 40303 // 文件受保护，禁止删除

	// --- 资源未找到错误系列 (404xx) ---
	NotFoundCode       = 40400 // 通用资源未找到
	UserNotFoundCode   = 40401 // 用户不存在
	FileNotFoundCode   = 40402 // 文件不存在
	FolderNotFoundCode = 40403 // 文件夹不存在

	// --- 业务逻辑冲突系列 (409xx) ---
	UserAlreadyExistsCode  = 40900 // 用户名已存在
	EmailAlreadyExistsCode = 40901 // 邮箱已存在

	// --- 限流与配额系列 ---
	RateLimitedCode         = 42900 // 验证码发送过于频繁
	InsufficientStorageCode = 50700 // 存储空间不足
	QuotaBelowUsageCode     = 50701 // 新配额低于已用空间

	// --- 服务器内部错误系列 (500xx) ---
	InternalServerErrorCode = 50000 // 服务器内部通用错误
	DatabaseErrorCode       = 50001 // 数据库操作失败
	StorageErrorCode        = 50002 // 存储服务操作失败
	MailErrorCode           = 50003 // 邮件发送失败
)
