package notification

import (
	"context"
	"fmt"
	"strings"

	"github.com/wneessen/go-mail"

	"timetrack/pkg/config"
	"timetrack/pkg/logger"
)

// Message plain text email
type Message struct {
	To      []string
	Subject string
	Body    string
}

// Mailer delivers email
type Mailer interface {
	Send(ctx context.Context, msg *Message) error
}

// SMTPMailer sends mail through an SMTP relay
type SMTPMailer struct {
	cfg config.SMTPConfig
}

// NewSMTPMailer creates an SMTP mailer; an empty host disables delivery
func NewSMTPMailer(cfg config.SMTPConfig) *SMTPMailer {
	if cfg.Host == "" {
		logger.Warn("SMTP host not configured, feedback emails will be skipped")
	}
	return &SMTPMailer{cfg: cfg}
}

// DefaultRecipients recipients taken from configuration
func (m *SMTPMailer) DefaultRecipients() []string {
	var out []string
	for _, addr := range strings.Split(m.cfg.To, ",") {
		if addr = strings.TrimSpace(addr); addr != "" {
			out = append(out, addr)
		}
	}
	return out
}

// Send sends msg, falling back to the configured recipients when msg.To is empty
func (m *SMTPMailer) Send(ctx context.Context, msg *Message) error {
	if m.cfg.Host == "" {
		logger.WarnCtx(ctx, "SMTP host not configured, skipping email: %s", msg.Subject)
		return nil
	}

	mailMsg, err := m.buildMessage(msg)
	if err != nil {
		return err
	}

	opts := []mail.Option{
		mail.WithPort(m.cfg.Port),
		mail.WithTLSPolicy(mail.TLSOpportunistic),
	}
	if m.cfg.Username != "" {
		opts = append(opts,
			mail.WithSMTPAuth(mail.SMTPAuthPlain),
			mail.WithUsername(m.cfg.Username),
			mail.WithPassword(m.cfg.Password),
		)
	}

	client, err := mail.NewClient(m.cfg.Host, opts...)
	if err != nil {
		return fmt.Errorf("failed to create smtp client: %w", err)
	}

	if err := client.DialAndSendWithContext(ctx, mailMsg); err != nil {
		return fmt.Errorf("failed to send email: %w", err)
	}

	logger.InfoCtx(ctx, "email sent: %s", msg.Subject)
	return nil
}

func (m *SMTPMailer) buildMessage(msg *Message) (*mail.Msg, error) {
	to := msg.To
	if len(to) == 0 {
		to = m.DefaultRecipients()
	}
	if len(to) == 0 {
		return nil, fmt.Errorf("no email recipients configured")
	}

	mailMsg := mail.NewMsg()
	if err := mailMsg.From(m.cfg.From); err != nil {
		return nil, fmt.Errorf("invalid sender address: %w", err)
	}
	if err := mailMsg.To(to...); err != nil {
		return nil, fmt.Errorf("invalid recipient address: %w", err)
	}
	mailMsg.Subject(msg.Subject)
	mailMsg.SetBodyString(mail.TypeTextPlain, msg.Body)
	return mailMsg, nil
}
