package services

import (
	"fmt"

	"github.com/vtart/go-gallery/internal/pkg/xerr"
	"github.com/vtart/go-gallery/internal/services/verification"
)

// ClientMeta 携带请求方的审计信息
type ClientMeta struct {
	IPAddress string
	UserAgent string
}

// codeConsumeError 把验证码消费的预期内失败翻译为业务错误
func codeConsumeError(res verification.ConsumeResult) error {
	if res.Valid {
		return nil
	}
	for _, sentinel := range []error{
		xerr.ErrCodeInvalid,
		xerr.ErrCodeNotFound,
		xerr.ErrCodeExpired,
		xerr.ErrCodeMaxAttempts,
		xerr.ErrCodeNotOwned,
		xerr.ErrCodeWrongEmail,
	} {
		if res.Message == sentinel.Error() {
			return fmt.Errorf("auth service: %w", sentinel)
		}
	}
	return fmt.Errorf("auth service: %w", xerr.ErrCodeInvalid)
}
