package mailer

import "fmt"

// 各类验证码邮件的主题
var codeSubjects = map[string]string{
	"change_email":    "邮箱变更验证码",
	"verify_email":    "邮箱验证码",
	"forgot_password": "密码重置验证码",
	"password_change": "密码修改验证码",
}

// VerificationCodeSubject 返回验证码类型对应的邮件主题
func VerificationCodeSubject(codeType string) string {
	if s, ok := codeSubjects[codeType]; ok {
		return s
	}
	return "验证码"
}

// VerificationCodeBody 渲染验证码邮件的HTML正文
func VerificationCodeBody(code string, ttlMinutes int) string {
	return fmt.Sprintf(`
<div style="max-width:600px;margin:0 auto;padding:20px;font-family:Arial,sans-serif;">
  <h2 style="color:#333;">您的验证码</h2>
  <p style="color:#666;">请使用以下验证码完成操作：</p>
  <div style="background:#f4f4f4;border-radius:8px;padding:16px;text-align:center;margin:20px 0;">
    <span style="font-size:32px;letter-spacing:8px;font-weight:bold;color:#1a73e8;">%s</span>
  </div>
  <p style="color:#666;">验证码 %d 分钟内有效，请勿泄露给他人。</p>
  <p style="color:#999;font-size:12px;">如果这不是您本人的操作，请忽略本邮件。</p>
</div>`, code, ttlMinutes)
}
