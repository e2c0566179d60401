package cmd

import (
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/vibast-solutions/ms-go-academy/app/notification"
	"github.com/vibast-solutions/ms-go-academy/config"
)

func newMailer(cfg *config.Config) (*notification.Mailer, error) {
	var transport notification.Transport

	switch cfg.Mail.Driver {
	case config.MailSMTP:
		transport = notification.NewSMTPTransport(notification.SMTPOptions{
			Host:     cfg.Mail.SMTP.Host,
			Port:     cfg.Mail.SMTP.Port,
			Username: cfg.Mail.SMTP.Username,
			Password: cfg.Mail.SMTP.Password,
			From:     cfg.Mail.From,
			FromName: cfg.Mail.FromName,
		})
	case config.MailPostmark:
		pm, err := notification.NewPostmarkTransport(notification.PostmarkOptions{
			ServerToken:  cfg.Mail.Postmark.ServerToken,
			AccountToken: cfg.Mail.Postmark.AccountToken,
			From:         cfg.Mail.From,
		})
		if err != nil {
			return nil, err
		}
		transport = pm
	case config.MailLog:
		transport = notification.NewLogTransport(logrus.StandardLogger())
	default:
		return nil, fmt.Errorf("unsupported mail driver %q", cfg.Mail.Driver)
	}

	return notification.NewMailer(transport, cfg.Mail.FromName), nil
}
