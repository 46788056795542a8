// Package mail sends transactional email.
package mail

import (
	"context"
	"fmt"
	"log"

	"gopkg.in/gomail.v2"
)

// Message is a single outgoing email.
type Message struct {
	To       string
	Subject  string
	HTMLBody string
	TextBody string
}

// Mailer delivers messages.
type Mailer interface {
	Send(ctx context.Context, msg Message) error
}

// SMTPMailer delivers mail through an SMTP relay.
type SMTPMailer struct {
	dialer *gomail.Dialer
	from   string
}

// NewSMTPMailer creates a mailer for the given relay. from defaults to user.
func NewSMTPMailer(host string, port int, user, password, from string) *SMTPMailer {
	if from == "" {
		from = user
	}
	return &SMTPMailer{
		dialer: gomail.NewDialer(host, port, user, password),
		from:   from,
	}
}

func (m *SMTPMailer) Send(ctx context.Context, msg Message) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := m.dialer.DialAndSend(m.build(msg)); err != nil {
		return fmt.Errorf("failed to send mail to %s: %w", msg.To, err)
	}
	log.Printf("[mail] sent %q to %s", msg.Subject, msg.To)
	return nil
}

func (m *SMTPMailer) build(msg Message) *gomail.Message {
	gm := gomail.NewMessage()
	gm.SetHeader("From", m.from)
	gm.SetHeader("To", msg.To)
	gm.SetHeader("Subject", msg.Subject)
	if msg.TextBody != "" {
		gm.SetBody("text/plain", msg.TextBody)
		if msg.HTMLBody != "" {
			gm.AddAlternative("text/html", msg.HTMLBody)
		}
	} else {
		gm.SetBody("text/html", msg.HTMLBody)
	}
	return gm
}

// PasswordResetMessage builds the email carrying a password reset link.
func PasswordResetMessage(to, link string) Message {
	return Message{
		To:      to,
		Subject: "Password Reset Request",
		TextBody: fmt.Sprintf("You are receiving this because you (or someone else) requested a password reset for your account.\n\n"+
			"Open the following link to choose a new password. It expires in one hour:\n\n%s\n\n"+
			"If you did not request this, ignore this email and your password will stay unchanged.\n", link),
		HTMLBody: fmt.Sprintf(`<p>You are receiving this because you (or someone else) requested a password reset for your account.</p>
<p><a href="%s">Reset your password</a>. The link expires in one hour.</p>
<p>If you did not request this, ignore this email and your password will stay unchanged.</p>`, link),
	}
}
