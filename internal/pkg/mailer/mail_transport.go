// FILE: internal/pkg/mailer/mail_transport.go
package mailer

import (
	"context"
	"fmt"
	"time"

	"gopkg.in/gomail.v2"
)

// MinSendTimeout covers gomail's fixed 10s dial timeout plus a slow SMTP
// exchange. gomail sets no deadline after dialing, so a shorter context can
// give up on a send that still succeeds and the retry delivers it again.
// Delivery is at least once; this keeps the duplicate window to stalled
// servers.
const MinSendTimeout = 30 * time.Second

// IMailTransport delivers one rendered message.
type IMailTransport interface {
	Send(ctx context.Context, recipient, subject, html string) error
}

type smtpTransport struct {
	dialer      *gomail.Dialer
	senderEmail string
	senderName  string
}

func NewSMTPTransport(host string, port int, username, password, senderName string) IMailTransport {
	d := gomail.NewDialer(host, port, username, password)

	return &smtpTransport{
		dialer:      d,
		senderEmail: username,
		senderName:  senderName,
	}
}

func (s *smtpTransport) Send(ctx context.Context, recipient, subject, html string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	m := gomail.NewMessage()
	m.SetAddressHeader("From", s.senderEmail, s.senderName)
	m.SetHeader("To", recipient)
	m.SetHeader("Subject", subject)
	m.SetBody("text/html", html)

	// gomail has no context support; the send outlives a cancelled ctx but
	// the caller stops waiting for it. See MinSendTimeout.
	done := make(chan error, 1)
	go func() {
		done <- s.dialer.DialAndSend(m)
	}()

	select {
	case err := <-done:
		if err != nil {
			return fmt.Errorf("smtp send to %s: %w", recipient, err)
		}
		return nil
	case <-ctx.Done():
		return fmt.Errorf("smtp send to %s: %w", recipient, ctx.Err())
	}
}
