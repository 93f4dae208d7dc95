package verification

import (
	"crypto/rand"
	"encoding/binary"
	"fmt"
	"time"
)

// CodeType 决定验证码的所有权规则
type CodeType string

const (
	TypeChangeEmail    CodeType = "change_email"
	TypeVerifyEmail    CodeType = "verify_email"
	TypeForgotPassword CodeType = "forgot_password"
	TypePasswordChange CodeType = "password_change"
)

// ValidType 检查验证码类型是否合法
func ValidType(t CodeType) bool {
	switch t {
	case TypeChangeEmail, TypeVerifyEmail, TypeForgotPassword, TypePasswordChange:
		return true
	}
	return false
}

// Code 描述一条未决的验证码记录
type Code struct {
	CodeID      string   `json:"code_id"`
	Code        string   `json:"code"` // 6位数字
	Email       string   `json:"email"`
	Type        CodeType `json:"type"`
	BoundUserID *uint64  `json:"bound_user_id,omitempty"` // 绑定用户ID，仅该用户可消费

	CreatedAt time.Time `json:"created_at"`
	ExpiresAt time.Time `json:"expires_at"`

	Attempts    int  `json:"attempts"`
	MaxAttempts int  `json:"max_attempts"`
	Used        bool `json:"used"` // 只允许 false -> true 单向变化

	// 审计字段，仅在消费成功时填充
	UsedAt            *time.Time  `json:"used_at,omitempty"`
	IPAddress         string      `json:"ip_address,omitempty"`
	UserAgent         string      `json:"user_agent,omitempty"`
	VerifiedBy        *VerifiedBy `json:"verified_by,omitempty"`
	OwnershipVerified bool        `json:"ownership_verified"`
}

// VerifiedBy 记录消费验证码的身份信息
type VerifiedBy struct {
	UserID   *uint64 `json:"user_id,omitempty"`
	Username string  `json:"username,omitempty"`
	Email    string  `json:"email,omitempty"`
}

// Expired 判断验证码在给定时刻是否已过期
func (c *Code) Expired(now time.Time) bool {
	return now.After(c.ExpiresAt)
}

// ContextKind 区分消费验证码时的身份断言方式
type ContextKind string

const (
	// KindNone 无身份断言（例如注册时验证新邮箱）
	KindNone ContextKind = "none"
	// KindAuthenticated 已登录用户，携带 userID
	KindAuthenticated ContextKind = "authenticated"
	// KindClaimed 匿名声称的 username+email（忘记密码流程），需调用方做数据库交叉校验
	KindClaimed ContextKind = "claimed"
)

// Context 是消费验证码时的验证上下文
type Context struct {
	Kind     ContextKind
	UserID   uint64 // Kind == KindAuthenticated 时有效
	Username string // Kind == KindClaimed 时有效
	Email    string // Kind == KindClaimed 时有效

	// 审计信息，任何 Kind 下都可携带
	IPAddress string
	UserAgent string
}

// AuthenticatedContext 构造已登录用户的验证上下文
func AuthenticatedContext(userID uint64) Context {
	return Context{Kind: KindAuthenticated, UserID: userID}
}

// ClaimedContext 构造忘记密码流程的验证上下文
func ClaimedContext(username, email string) Context {
	return Context{Kind: KindClaimed, Username: username, Email: email}
}

// ConsumeResult 是一次验证尝试的结果
// 预期内的失败（验证码错误、过期等）通过 Valid=false + Message 表达，不作为 error 返回
type ConsumeResult struct {
	Valid                  bool   `json:"valid"`
	Message                string `json:"message"`
	CodeID                 string `json:"code_id,omitempty"`
	OwnershipVerified      bool   `json:"ownership_verified"`
	RequiresDBVerification bool   `json:"requires_db_verification"`
}

// Stats 是某 (email, type) 下验证码的只读统计
type Stats struct {
	Total              int `json:"total"`
	Active             int `json:"active"`
	Expired            int `json:"expired"`
	Used               int `json:"used"`
	MaxAttemptsReached int `json:"max_attempts_reached"`
}

// generateCode 生成加密安全的6位数字验证码，均匀分布在 [100000, 999999]
func generateCode() (string, error) {
	// 2^32 不是 900000 的整数倍，直接取模会让一小段值域偏多，
	// 超出最大整数倍的采样丢弃重来
	const rejectAbove = uint32(4294800000) // 900000 * 4772
	for i := 0; i < 16; i++ {
		var buf [4]byte
		if _, err := rand.Read(buf[:]); err != nil {
			return "", fmt.Errorf("读取随机源失败: %w", err)
		}
		n := binary.BigEndian.Uint32(buf[:])
		if n >= rejectAbove {
			continue
		}
		return fmt.Sprintf("%d", 100000+n%900000), nil
	}
	return "", fmt.Errorf("验证码生成退化，重试次数耗尽")
}
