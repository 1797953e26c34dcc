package mail

import (
	"context"
	"crypto/tls"
	"fmt"
	"net/mail"
	"net/url"
	"strings"

	"github.com/dajohi/goemail"
	"go.uber.org/zap"

	"github.com/srCredoftn/dao-dash/internal/core/port"
	"github.com/srCredoftn/dao-dash/internal/infra/config"
)

// NewMailer returns an SMTP-backed mailer, or the logging fallback when no
// SMTP transport is configured. The fallback writes the full message body to
// the log so flows that hand out one-time secrets stay usable without a mail
// server.
func NewMailer(cfg config.SMTPSettings, log *zap.Logger) (port.Mailer, error) {
	if cfg.Host == "" || cfg.User == "" || cfg.Password == "" {
		log.Info("smtp not configured, falling back to log delivery")
		return &logMailer{log: log}, nil
	}

	raw := fmt.Sprintf("smtps://%s:%s@%s", url.QueryEscape(cfg.User), url.QueryEscape(cfg.Password), cfg.Host)
	u, err := url.Parse(raw)
	if err != nil {
		return nil, fmt.Errorf("parse smtp host: %w", err)
	}

	addr, err := mail.ParseAddress(cfg.FromAddress)
	if err != nil {
		return nil, fmt.Errorf("parse from address: %w", err)
	}

	client, err := goemail.NewSMTP(u.String(), &tls.Config{InsecureSkipVerify: cfg.SkipVerify})
	if err != nil {
		return nil, fmt.Errorf("init smtp client: %w", err)
	}

	return &smtpMailer{
		client:   client,
		fromAddr: addr.Address,
		fromName: cfg.FromName,
		log:      log,
	}, nil
}

type smtpMailer struct {
	client   *goemail.SMTP
	fromAddr string
	fromName string
	log      *zap.Logger
}

func (m *smtpMailer) Send(_ context.Context, to, subject, htmlBody string) error {
	to = strings.TrimSpace(to)
	if _, err := mail.ParseAddress(to); err != nil {
		return fmt.Errorf("parse recipient: %w", err)
	}

	msg := goemail.NewHTMLMessage(m.fromAddr, subject, htmlBody)
	msg.SetName(m.fromName)
	msg.AddTo(to)

	if err := m.client.Send(msg); err != nil {
		return fmt.Errorf("send mail: %w", err)
	}

	return nil
}

// logMailer writes messages to the log instead of delivering them. The body
// is logged verbatim, secrets included, which is the intended behaviour for
// local and test deployments.
type logMailer struct {
	log *zap.Logger
}

func (m *logMailer) Send(_ context.Context, to, subject, htmlBody string) error {
	m.log.Info("mail delivery skipped (smtp not configured)",
		zap.String("to", to),
		zap.String("subject", subject),
		zap.String("body", htmlBody),
	)
	return nil
}
