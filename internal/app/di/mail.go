package di

import (
	"fmt"
	"time"

	"task_backend/internal/config"
	"task_backend/internal/platform/externalapi/sendgrid"
	infrahttp "task_backend/internal/platform/http"
	"task_backend/internal/platform/mail"
	"task_backend/internal/shared/ratelimiter"
)

// NewMailSender creates the mail.Sender of the configured driver.
func NewMailSender(cfg config.MailConfig) (mail.Sender, error) {
	switch cfg.Driver {
	case config.MailSendGrid:
		httpClient := infrahttp.NewHTTPClient(cfg.Timeout)
		return sendgrid.NewClient(sendgrid.Config{
			APIKey:  cfg.APIKey,
			BaseURL: cfg.BaseURL,
			From:    cfg.From,
			Timeout: cfg.Timeout,
		}, httpClient), nil
	case config.MailSMTP:
		return mail.NewSMTPSender(mail.SMTPConfig{
			Host:     cfg.SMTPHost,
			Port:     cfg.SMTPPort,
			Username: cfg.SMTPUsername,
			Password: cfg.SMTPPassword,
			From:     cfg.From,
		}), nil
	case config.MailLog:
		return mail.LogSender{}, nil
	default:
		return nil, fmt.Errorf("unsupported mail driver %q", cfg.Driver)
	}
}

// NewNotifier creates a fully configured Notifier throttled to cfg.RateLimit messages per minute.
func NewNotifier(cfg config.MailConfig) (*mail.Notifier, error) {
	sender, err := NewMailSender(cfg)
	if err != nil {
		return nil, err
	}
	limiter := ratelimiter.NewRateLimiter(cfg.RateLimit, time.Minute)
	return mail.NewNotifier(sender, limiter, cfg.Timeout), nil
}
