package mailer

import (
	"context"
	"fmt"
	"net/smtp"
	"strings"

	"github.com/vtart/go-gallery/internal/config"
	"github.com/vtart/go-gallery/internal/pkg/logger"
	"go.uber.org/zap"
)

// Mailer 邮件发送接口
type Mailer interface {
	Send(ctx context.Context, to, subject, htmlBody string) error
}

// SMTPMailer 通过 SMTP 发送邮件
type SMTPMailer struct {
	cfg *config.SMTPConfig
}

var _ Mailer = (*SMTPMailer)(nil)

func NewSMTPMailer(cfg *config.SMTPConfig) *SMTPMailer {
	return &SMTPMailer{cfg: cfg}
}

func (m *SMTPMailer) Send(ctx context.Context, to, subject, htmlBody string) error {
	addr := fmt.Sprintf("%s:%d", m.cfg.Host, m.cfg.Port)
	auth := smtp.PlainAuth("", m.cfg.Username, m.cfg.Password, m.cfg.Host)

	var msg strings.Builder
	msg.WriteString("From: " + m.cfg.From + "\r\n")
	msg.WriteString("To: " + to + "\r\n")
	msg.WriteString("Subject: " + subject + "\r\n")
	msg.WriteString("MIME-Version: 1.0\r\n")
	msg.WriteString("Content-Type: text/html; charset=UTF-8\r\n")
	msg.WriteString("\r\n")
	msg.WriteString(htmlBody)

	if err := smtp.SendMail(addr, auth, m.cfg.From, []string{to}, []byte(msg.String())); err != nil {
		logger.Error("Failed to send email", zap.String("to", to), zap.String("subject", subject), zap.Error(err))
		return fmt.Errorf("发送邮件失败: %w", err)
	}
	logger.Info("Email sent", zap.String("to", to), zap.String("subject", subject))
	return nil
}

// NoopMailer 只记录日志不实际发信，用于本地开发和测试
type NoopMailer struct{}

var _ Mailer = (*NoopMailer)(nil)

func (NoopMailer) Send(ctx context.Context, to, subject, htmlBody string) error {
	logger.Info("NoopMailer: Email suppressed", zap.String("to", to), zap.String("subject", subject))
	return nil
}

// NewMailer 根据配置选择实现：未配置 SMTP 主机时退化为 NoopMailer
func NewMailer(cfg *config.SMTPConfig) Mailer {
	if cfg == nil || cfg.Host == "" {
		logger.Warn("SMTP not configured, emails will be logged only")
		return NoopMailer{}
	}
	return NewSMTPMailer(cfg)
}
