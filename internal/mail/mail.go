// Package mail delivers outbound notification email. Delivery is decoupled
// from request handling: callers enqueue a message and move on, a background
// dispatcher performs the send and logs failures. A lost email never fails
// the request that produced it.
package mail

import (
	"context"

	gomail "github.com/wneessen/go-mail"

	"github.com/ybilyk/contactbook/internal/config"
)

// Message is a single outbound email.
type Message struct {
	To      string
	Subject string
	HTML    string
}

// Sender performs a synchronous delivery attempt.
type Sender interface {
	Send(ctx context.Context, msg Message) error
}

// SMTPSender delivers messages over SMTP.
type SMTPSender struct {
	client *gomail.Client
	from   string
}

// NewSMTPSender constructs an SMTP sender from configuration.
func NewSMTPSender(cfg config.Config) (*SMTPSender, error) {
	opts := []gomail.Option{
		gomail.WithPort(cfg.SMTPPort),
		gomail.WithSMTPAuth(gomail.SMTPAuthPlain),
		gomail.WithUsername(cfg.SMTPUsername),
		gomail.WithPassword(cfg.SMTPPassword),
	}
	if cfg.SMTPPort == 465 {
		opts = append(opts, gomail.WithSSL())
	}
	client, err := gomail.NewClient(cfg.SMTPHost, opts...)
	if err != nil {
		return nil, err
	}
	from := cfg.SMTPFrom
	if from == "" {
		from = cfg.SMTPUsername
	}
	return &SMTPSender{client: client, from: from}, nil
}

// Send delivers a single message.
func (s *SMTPSender) Send(ctx context.Context, msg Message) error {
	m := gomail.NewMsg()
	if err := m.From(s.from); err != nil {
		return err
	}
	if err := m.To(msg.To); err != nil {
		return err
	}
	m.Subject(msg.Subject)
	m.SetBodyString(gomail.TypeTextHTML, msg.HTML)
	return s.client.DialAndSendWithContext(ctx, m)
}
