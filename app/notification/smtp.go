package notification

import (
	"context"
	"errors"

	"gopkg.in/gomail.v2"
)

// Dialer is the subset of gomail.Dialer used to deliver messages.
type Dialer interface {
	DialAndSend(m ...*gomail.Message) error
}

type SMTPOptions struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
	FromName string
}

type SMTPTransport struct {
	dialer   Dialer
	from     string
	fromName string
}

func NewSMTPTransport(opts SMTPOptions) *SMTPTransport {
	return NewSMTPTransportWithDialer(
		gomail.NewDialer(opts.Host, opts.Port, opts.Username, opts.Password),
		opts.From,
		opts.FromName,
	)
}

func NewSMTPTransportWithDialer(dialer Dialer, from, fromName string) *SMTPTransport {
	return &SMTPTransport{dialer: dialer, from: from, fromName: fromName}
}

func (t *SMTPTransport) Deliver(ctx context.Context, msg Message) error {
	if err := ctx.Err(); err != nil {
		return errors.Join(ErrSendFailed, err)
	}

	m := gomail.NewMessage()
	m.SetAddressHeader("From", t.from, t.fromName)
	m.SetHeader("To", msg.To)
	m.SetHeader("Subject", msg.Subject)
	if msg.Tag != "" {
		m.SetHeader("X-Tag", msg.Tag)
	}
	m.SetBody("text/html", msg.HTML)

	if err := t.dialer.DialAndSend(m); err != nil {
		return errors.Join(ErrSendFailed, err)
	}
	return nil
}
