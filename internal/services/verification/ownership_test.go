package verification

import "testing"

func TestVerifyOwnership(t *testing.T) {
	owner := uint64(42)

	tests := []struct {
		name       string
		code       *Code
		vctx       Context
		wantValid  bool
		wantNeedDB bool
	}{
		{
			name:      "绑定用户匹配",
			code:      &Code{Type: TypePasswordChange, Email: "a@x.com", BoundUserID: &owner},
			vctx:      AuthenticatedContext(42),
			wantValid: true,
		},
		{
			name:      "绑定用户不匹配",
			code:      &Code{Type: TypePasswordChange, Email: "a@x.com", BoundUserID: &owner},
			vctx:      AuthenticatedContext(7),
			wantValid: false,
		},
		{
			name:       "忘记密码声称身份放行并要求数据库校验",
			code:       &Code{Type: TypeForgotPassword, Email: "a@x.com"},
			vctx:       ClaimedContext("alice", "a@x.com"),
			wantValid:  true,
			wantNeedDB: true,
		},
		{
			name:      "忘记密码缺少用户名不触发放行规则",
			code:      &Code{Type: TypeForgotPassword, Email: "a@x.com"},
			vctx:      Context{Kind: KindClaimed, Email: "a@x.com"},
			wantValid: true, // 不命中规则2和规则3，走默认放行
		},
		{
			name:      "更改邮箱验证码邮箱一致",
			code:      &Code{Type: TypeChangeEmail, Email: "new@x.com"},
			vctx:      ClaimedContext("alice", "new@x.com"),
			wantValid: true,
		},
		{
			name:      "更改邮箱验证码邮箱不一致",
			code:      &Code{Type: TypeChangeEmail, Email: "new@x.com"},
			vctx:      ClaimedContext("mallory", "evil@x.com"),
			wantValid: false,
		},
		{
			name:      "注册验证码邮箱不一致",
			code:      &Code{Type: TypeVerifyEmail, Email: "new@x.com"},
			vctx:      ClaimedContext("mallory", "evil@x.com"),
			wantValid: false,
		},
		{
			name:      "无绑定无声称默认放行",
			code:      &Code{Type: TypeVerifyEmail, Email: "a@x.com"},
			vctx:      AuthenticatedContext(7),
			wantValid: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := VerifyOwnership(tt.code, tt.vctx)
			if got.Valid != tt.wantValid {
				t.Fatalf("Valid = %v, want %v (message %q)", got.Valid, tt.wantValid, got.Message)
			}
			if got.RequiresDBVerification != tt.wantNeedDB {
				t.Fatalf("RequiresDBVerification = %v, want %v", got.RequiresDBVerification, tt.wantNeedDB)
			}
		})
	}
}
