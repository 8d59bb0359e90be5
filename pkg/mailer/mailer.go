package mailer

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/wneessen/go-mail"

	"github.com/angelmondragon/storefront-backend/pkg/config"
	"github.com/angelmondragon/storefront-backend/pkg/logger"
)

// Message is one outgoing HTML email.
type Message struct {
	To      string
	ToName  string
	Subject string
	HTML    string
}

// Sender delivers email.
type Sender interface {
	Send(ctx context.Context, msg Message) error
}

// New returns an SMTP sender when a host is configured and a log-only sender
// otherwise.
func New(cfg config.SMTPConfig, logg *logger.Logger) Sender {
	if strings.TrimSpace(cfg.Host) == "" {
		return &LogSender{logg: logg}
	}
	return NewSMTPSender(cfg)
}

// SMTPSender sends mail through a single SMTP relay per message.
type SMTPSender struct {
	cfg config.SMTPConfig
}

func NewSMTPSender(cfg config.SMTPConfig) *SMTPSender {
	return &SMTPSender{cfg: cfg}
}

func (s *SMTPSender) Send(ctx context.Context, m Message) error {
	msg, err := buildMessage(s.cfg, m)
	if err != nil {
		return err
	}
	client, err := mail.NewClient(s.cfg.Host, s.clientOptions()...)
	if err != nil {
		return fmt.Errorf("smtp client: %w", err)
	}
	if err := client.DialAndSendWithContext(ctx, msg); err != nil {
		return fmt.Errorf("smtp send: %w", err)
	}
	return nil
}

func (s *SMTPSender) clientOptions() []mail.Option {
	opts := []mail.Option{mail.WithPort(s.cfg.Port)}
	if s.cfg.Username != "" {
		opts = append(opts,
			mail.WithSMTPAuth(mail.SMTPAuthLogin),
			mail.WithUsername(s.cfg.Username),
			mail.WithPassword(s.cfg.Password),
		)
	}
	if s.cfg.TLS {
		opts = append(opts, mail.WithTLSPolicy(mail.TLSMandatory))
	} else {
		opts = append(opts, mail.WithTLSPolicy(mail.NoTLS))
	}
	return opts
}

func buildMessage(cfg config.SMTPConfig, m Message) (*mail.Msg, error) {
	if strings.TrimSpace(m.To) == "" {
		return nil, errors.New("recipient is required")
	}
	msg := mail.NewMsg()
	if err := msg.FromFormat(cfg.FromName, cfg.From); err != nil {
		return nil, fmt.Errorf("from address: %w", err)
	}
	if m.ToName != "" {
		if err := msg.AddToFormat(m.ToName, m.To); err != nil {
			return nil, fmt.Errorf("to address: %w", err)
		}
	} else if err := msg.To(m.To); err != nil {
		return nil, fmt.Errorf("to address: %w", err)
	}
	msg.Subject(m.Subject)
	msg.SetBodyString(mail.TypeTextHTML, m.HTML)
	return msg, nil
}

// LogSender records that a message would have been sent. Bodies are never
// logged because they can carry delivery codes.
type LogSender struct {
	logg *logger.Logger
}

func (s *LogSender) Send(ctx context.Context, m Message) error {
	if strings.TrimSpace(m.To) == "" {
		return errors.New("recipient is required")
	}
	if s.logg != nil {
		logCtx := s.logg.WithFields(ctx, map[string]any{
			"mail_to":      m.To,
			"mail_subject": m.Subject,
		})
		s.logg.Info(logCtx, "smtp not configured; email suppressed")
	}
	return nil
}
