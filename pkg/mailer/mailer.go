package mailer

import (
	"encoding/base64"
	"fmt"
	"net/smtp"
	"strings"

	"go.uber.org/zap"

	"fieldops/backend/config"
)

// Attachment 邮件附件
type Attachment struct {
	Filename    string // 附件文件名
	ContentType string // MIME 类型，如 "text/calendar"
	Content     []byte // 原始内容
}

// Mailer SMTP 邮件发送器
// 未启用（mail.enabled=false）时 Send 仅记录日志并返回 nil，
// 便于开发环境无 SMTP 凭证运行
type Mailer struct {
	cfg    *config.MailConfig
	logger *zap.Logger
}

// NewMailer 创建邮件发送器
func NewMailer(cfg *config.MailConfig, logger *zap.Logger) *Mailer {
	return &Mailer{cfg: cfg, logger: logger}
}

// Send 发送一封邮件（纯文本正文 + 可选附件）
func (m *Mailer) Send(to, subject, body string, attachments ...Attachment) error {
	if !m.cfg.Enabled {
		m.logger.Info("邮件未启用，跳过发送",
			zap.String("to", to),
			zap.String("subject", subject),
		)
		return nil
	}
	if m.cfg.SMTPHost == "" {
		return fmt.Errorf("邮件配置不完整: smtp_host 为空")
	}

	msg := m.buildMessage(to, subject, body, attachments)

	addr := fmt.Sprintf("%s:%d", m.cfg.SMTPHost, m.cfg.SMTPPort)
	var auth smtp.Auth
	if m.cfg.Username != "" {
		auth = smtp.PlainAuth("", m.cfg.Username, m.cfg.Password, m.cfg.SMTPHost)
	}

	if err := smtp.SendMail(addr, auth, m.cfg.From, []string{to}, msg); err != nil {
		return fmt.Errorf("发送邮件失败: %w", err)
	}

	m.logger.Info("邮件发送成功", zap.String("to", to), zap.String("subject", subject))
	return nil
}

// buildMessage 组装 MIME 报文，有附件时使用 multipart/mixed
func (m *Mailer) buildMessage(to, subject, body string, attachments []Attachment) []byte {
	var sb strings.Builder

	from := m.cfg.From
	if m.cfg.FromName != "" {
		from = fmt.Sprintf("%s <%s>", m.cfg.FromName, m.cfg.From)
	}

	sb.WriteString("From: " + from + "\r\n")
	sb.WriteString("To: " + to + "\r\n")
	sb.WriteString("Subject: " + subject + "\r\n")
	sb.WriteString("MIME-Version: 1.0\r\n")

	if len(attachments) == 0 {
		sb.WriteString("Content-Type: text/plain; charset=utf-8\r\n\r\n")
		sb.WriteString(body)
		return []byte(sb.String())
	}

	const boundary = "fieldops-mail-boundary"
	sb.WriteString("Content-Type: multipart/mixed; boundary=" + boundary + "\r\n\r\n")

	sb.WriteString("--" + boundary + "\r\n")
	sb.WriteString("Content-Type: text/plain; charset=utf-8\r\n\r\n")
	sb.WriteString(body + "\r\n")

	for _, a := range attachments {
		sb.WriteString("--" + boundary + "\r\n")
		sb.WriteString(fmt.Sprintf("Content-Type: %s; name=%q\r\n", a.ContentType, a.Filename))
		sb.WriteString("Content-Transfer-Encoding: base64\r\n")
		sb.WriteString(fmt.Sprintf("Content-Disposition: attachment; filename=%q\r\n\r\n", a.Filename))

		encoded := base64.StdEncoding.EncodeToString(a.Content)
		// 每 76 字符换行，符合 RFC 2045
		for len(encoded) > 76 {
			sb.WriteString(encoded[:76] + "\r\n")
			encoded = encoded[76:]
		}
		sb.WriteString(encoded + "\r\n")
	}
	sb.WriteString("--" + boundary + "--\r\n")

	return []byte(sb.String())
}
