package notify

import (
	"context"

	"gopkg.in/gomail.v2"
)

type Mail struct {
	ReplyTo string
	Subject string
	HTML    string
}

// Mailer delivers to a fixed inbox over SMTP.
type Mailer struct {
	dialer *gomail.Dialer
	from   string
	inbox  string
}

func NewMailer(host string, port int, user, password, inbox string) *Mailer {
	return &Mailer{
		dialer: gomail.NewDialer(host, port, user, password),
		from:   user,
		inbox:  inbox,
	}
}

func (m *Mailer) message(mail Mail) *gomail.Message {
	msg := gomail.NewMessage()
	msg.SetHeader("From", m.from)
	msg.SetHeader("To", m.inbox)
	if mail.ReplyTo != "" {
		msg.SetHeader("Reply-To", mail.ReplyTo)
	}
	msg.SetHeader("Subject", mail.Subject)
	msg.SetBody("text/html", mail.HTML)
	return msg
}

func (m *Mailer) Send(ctx context.Context, mail Mail) error {
	done := make(chan error, 1)
	go func() { done <- m.dialer.DialAndSend(m.message(mail)) }()
	select {
	case err := <-done:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}
