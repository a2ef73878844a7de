package mailer

import (
	"context"
	"errors"
	"fmt"
	"seafood_shop/internal/pkg/config"

	"gopkg.in/gomail.v2"
)

var ErrNotConfigured = errors.New("mail server is not configured")

// Message 一封 HTML 邮件
type Message struct {
	To      string
	Subject string
	HTML    string
}

type Mailer interface {
	Send(ctx context.Context, msg Message) error
}

// sender 抽取 gomail.Dialer，便于测试
type sender interface {
	DialAndSend(m ...*gomail.Message) error
}

type SMTPMailer struct {
	dialer sender
	from   string
}

func NewSMTPMailer(cfg config.MailConfig) (*SMTPMailer, error) {
	if cfg.Host == "" || cfg.From == "" {
		return nil, ErrNotConfigured
	}
	return &SMTPMailer{
		dialer: gomail.NewDialer(cfg.Host, cfg.Port, cfg.Username, cfg.Password),
		from:   cfg.From,
	}, nil
}

func (m *SMTPMailer) Send(ctx context.Context, msg Message) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	gm := gomail.NewMessage()
	gm.SetHeader("From", m.from)
	gm.SetHeader("To", msg.To)
	gm.SetHeader("Subject", msg.Subject)
	gm.SetBody("text/html", msg.HTML)

	if err := m.dialer.DialAndSend(gm); err != nil {
		return fmt.Errorf("send mail to %s: %w", msg.To, err)
	}
	return nil
}

// Task 通过 worker 池异步发送
type Task struct {
	Mailer  Mailer
	Message Message
}

func (t Task) Name() string { return "mail" }

func (t Task) Execute(ctx context.Context) error {
	return t.Mailer.Send(ctx, t.Message)
}
