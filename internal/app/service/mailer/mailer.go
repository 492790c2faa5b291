package mailer

import (
	"context"
	"fmt"
	"net/smtp"
	"time"

	cfgpkg "github.com/propmarket/portal/pkg/config"

	"go.uber.org/fx"
	"go.uber.org/zap"
)

// Sender delivers one plain-text mail. Flows treat delivery as best-effort:
// a send failure is logged and reported as a flag, never escalated into a
// request failure.
type Sender interface {
	Send(ctx context.Context, to, subject, body string) error
}

type smtpSender struct {
	cfg *cfgpkg.Config
	log *zap.SugaredLogger
}

func NewSMTPSender(cfg *cfgpkg.Config, log *zap.SugaredLogger) Sender {
	return &smtpSender{cfg: cfg, log: log}
}

func (s *smtpSender) Send(_ context.Context, to, subject, body string) error {
	c := s.cfg.SMTP
	if c.Host == "" || c.FromAddr == "" {
		return fmt.Errorf("smtp not configured")
	}

	msg := []byte(fmt.Sprintf("From: %s <%s>\r\n"+
		"To: %s\r\n"+
		"Subject: %s\r\n"+
		"Content-Type: text/plain; charset=UTF-8\r\n\r\n"+
		"%s",
		c.FromName, c.FromAddr, to, subject, body))

	var auth smtp.Auth
	if c.User != "" {
		auth = smtp.PlainAuth("", c.User, c.Password, c.Host)
	}

	addr := fmt.Sprintf("%s:%d", c.Host, c.Port)
	if err := smtp.SendMail(addr, auth, c.FromAddr, []string{to}, msg); err != nil {
		return fmt.Errorf("failed to send email: %w", err)
	}
	return nil
}

// Service composes the domain notifications on top of a Sender.
type Service struct {
	sender Sender
	log    *zap.SugaredLogger
}

func NewService(sender Sender, log *zap.SugaredLogger) *Service {
	return &Service{sender: sender, log: log}
}

// SendWelcome greets a freshly registered user. Returns false when delivery
// failed; the caller surfaces that as emailSent:false.
func (s *Service) SendWelcome(ctx context.Context, to, name string, expiresAt time.Time) bool {
	body := fmt.Sprintf("Hi %s,\n\nYour account is active. Your subscription runs until %s.\n\nThe PropMarket team",
		name, expiresAt.Format("02 Jan 2006"))
	return s.deliver(ctx, to, "Welcome to PropMarket", body)
}

func (s *Service) SendRenewalConfirmation(ctx context.Context, to, name string, expiresAt time.Time) bool {
	body := fmt.Sprintf("Hi %s,\n\nYour subscription has been renewed and now runs until %s.\n\nThe PropMarket team",
		name, expiresAt.Format("02 Jan 2006"))
	return s.deliver(ctx, to, "Subscription renewed", body)
}

func (s *Service) SendExpiryReminder(ctx context.Context, to, name string, daysLeft int, expiresAt time.Time) bool {
	body := fmt.Sprintf("Hi %s,\n\nYour subscription expires in %d day(s), on %s. Renew to keep your listings visible.\n\nThe PropMarket team",
		name, daysLeft, expiresAt.Format("02 Jan 2006"))
	return s.deliver(ctx, to, "Your subscription is about to expire", body)
}

func (s *Service) SendExpired(ctx context.Context, to, name string) bool {
	body := fmt.Sprintf("Hi %s,\n\nYour subscription has expired and your listings are no longer visible. Renew any time to restore access.\n\nThe PropMarket team", name)
	return s.deliver(ctx, to, "Your subscription has expired", body)
}

func (s *Service) deliver(ctx context.Context, to, subject, body string) bool {
	if err := s.sender.Send(ctx, to, subject, body); err != nil {
		s.log.Warnw("mail delivery failed", "to", to, "subject", subject, "err", err)
		return false
	}
	return true
}

var Module = fx.Options(
	fx.Provide(NewSMTPSender),
	fx.Provide(NewService),
)
