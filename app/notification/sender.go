package notification

import (
	"context"
	"errors"
	"strings"
)

var (
	ErrSendFailed     = errors.New("failed to send email")
	ErrInvalidMessage = errors.New("invalid email message")
)

const (
	TagVerification  = "email-verification"
	TagPasswordReset = "password-reset"
)

// Sender delivers the account emails issued by the auth flows.
type Sender interface {
	SendVerification(ctx context.Context, to, name, link string) error
	SendPasswordReset(ctx context.Context, to, name, link string) error
}

// Message is a rendered email ready for a Transport.
type Message struct {
	To      string
	Subject string
	HTML    string
	Tag     string
	Link    string
}

func (m Message) Validate() error {
	if strings.TrimSpace(m.To) == "" {
		return errors.Join(ErrInvalidMessage, errors.New("recipient is required"))
	}
	if strings.TrimSpace(m.Subject) == "" {
		return errors.Join(ErrInvalidMessage, errors.New("subject is required"))
	}
	if strings.TrimSpace(m.HTML) == "" {
		return errors.Join(ErrInvalidMessage, errors.New("body is required"))
	}
	return nil
}

// Transport hands a rendered message to a delivery backend.
type Transport interface {
	Deliver(ctx context.Context, msg Message) error
}

// Mailer renders the account templates and delivers them through a Transport.
type Mailer struct {
	transport Transport
	appName   string
}

func NewMailer(transport Transport, appName string) *Mailer {
	if appName == "" {
		appName = "Academy"
	}
	return &Mailer{transport: transport, appName: appName}
}

func (m *Mailer) SendVerification(ctx context.Context, to, name, link string) error {
	body, err := render(verificationTemplate, templateData{AppName: m.appName, Name: name, Link: link})
	if err != nil {
		return err
	}
	return m.deliver(ctx, Message{
		To:      to,
		Subject: "Verify Your Email Address - " + m.appName,
		HTML:    body,
		Tag:     TagVerification,
		Link:    link,
	})
}

func (m *Mailer) SendPasswordReset(ctx context.Context, to, name, link string) error {
	body, err := render(passwordResetTemplate, templateData{AppName: m.appName, Name: name, Link: link})
	if err != nil {
		return err
	}
	return m.deliver(ctx, Message{
		To:      to,
		Subject: "Password Reset Request",
		HTML:    body,
		Tag:     TagPasswordReset,
		Link:    link,
	})
}

func (m *Mailer) deliver(ctx context.Context, msg Message) error {
	if err := msg.Validate(); err != nil {
		return err
	}
	return m.transport.Deliver(ctx, msg)
}
