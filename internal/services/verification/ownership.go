package verification

// OwnershipResult 是所有权检查的结果
// RequiresDBVerification 为 true 时表示本层无法访问用户表，
// 调用方必须另行确认 username 和 email 指向同一账号
type OwnershipResult struct {
	Valid                  bool
	Message                string
	RequiresDBVerification bool
}

// VerifyOwnership 判断给定验证上下文是否有权消费该验证码
// 规则按顺序评估：
//  1. 验证码绑定了用户ID且上下文携带用户ID时，必须完全一致
//  2. 忘记密码流程中声称的 username+email 暂时放行，但标记需要数据库交叉校验
//  3. 更改邮箱/注册验证场景，验证码只能用于其目标邮箱
//  4. 其余情况放行
func VerifyOwnership(code *Code, vctx Context) OwnershipResult {
	// 规则1: 绑定用户检查
	if code.BoundUserID != nil && vctx.Kind == KindAuthenticated {
		if *code.BoundUserID != vctx.UserID {
			return OwnershipResult{Valid: false, Message: "验证码不属于当前用户，无法使用"}
		}
	}

	// 规则2: 忘记密码流程，所有权暂时放行，交由调用方做数据库校验
	if code.Type == TypeForgotPassword && vctx.Kind == KindClaimed && vctx.Username != "" && vctx.Email != "" {
		return OwnershipResult{
			Valid:                  true,
			Message:                "需要数据库验证用户名和邮箱匹配",
			RequiresDBVerification: true,
		}
	}

	// 规则3: 邮箱绑定场景，验证码只能由目标邮箱使用
	if (code.Type == TypeChangeEmail || code.Type == TypeVerifyEmail) && vctx.Kind == KindClaimed {
		if code.Email != vctx.Email {
			return OwnershipResult{Valid: false, Message: "验证码只能由目标邮箱所有者使用"}
		}
	}

	return OwnershipResult{Valid: true, Message: "所有权验证通过"}
}
