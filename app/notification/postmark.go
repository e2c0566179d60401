package notification

import (
	"context"
	"errors"
	"fmt"

	"github.com/mrz1836/postmark"
)

// PostmarkAPI is the subset of the postmark client used to deliver messages.
type PostmarkAPI interface {
	SendEmail(ctx context.Context, email postmark.Email) (postmark.EmailResponse, error)
}

type PostmarkOptions struct {
	ServerToken  string
	AccountToken string
	From         string
	ReplyTo      string
}

type PostmarkTransport struct {
	client  PostmarkAPI
	from    string
	replyTo string
}

func NewPostmarkTransport(opts PostmarkOptions) (*PostmarkTransport, error) {
	if opts.ServerToken == "" || opts.AccountToken == "" {
		return nil, errors.New("postmark server and account tokens are required")
	}
	if opts.From == "" {
		return nil, errors.New("postmark sender address is required")
	}
	return NewPostmarkTransportWithClient(
		postmark.NewClient(opts.ServerToken, opts.AccountToken),
		opts.From,
		opts.ReplyTo,
	), nil
}

func NewPostmarkTransportWithClient(client PostmarkAPI, from, replyTo string) *PostmarkTransport {
	return &PostmarkTransport{client: client, from: from, replyTo: replyTo}
}

func (t *PostmarkTransport) Deliver(ctx context.Context, msg Message) error {
	resp, err := t.client.SendEmail(ctx, postmark.Email{
		From:       t.from,
		ReplyTo:    t.replyTo,
		To:         msg.To,
		Subject:    msg.Subject,
		Tag:        msg.Tag,
		HTMLBody:   msg.HTML,
		TrackOpens: false,
	})
	if err != nil {
		return errors.Join(ErrSendFailed, err)
	}
	if resp.ErrorCode > 0 {
		return errors.Join(ErrSendFailed, fmt.Errorf("postmark error: %d - %s", resp.ErrorCode, resp.Message))
	}
	return nil
}
