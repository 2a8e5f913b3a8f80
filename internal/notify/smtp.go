package notify

import (
	"context"
	"fmt"
	"net/smtp"
	"strings"
)

// SMTPNotifier emails reports through a STARTTLS-capable SMTP relay.
type SMTPNotifier struct {
	Addr string // host:port
	User string
	Pass string
	From string
	To   string
}

// NewSMTPNotifier constructs an SMTP notifier, or nil when any required
// setting is missing so callers can fall back to Noop.
func NewSMTPNotifier(host, user, pass, from, to string) *SMTPNotifier {
	if host == "" || user == "" || pass == "" || from == "" {
		return nil
	}
	if to == "" {
		to = from
	}
	if !strings.Contains(host, ":") {
		host += ":587"
	}
	return &SMTPNotifier{Addr: host, User: user, Pass: pass, From: from, To: to}
}

// SendReport emails the report body with the given subject line.
func (n *SMTPNotifier) SendReport(ctx context.Context, subject, body string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	host := n.Addr
	if i := strings.Index(host, ":"); i >= 0 {
		host = host[:i]
	}
	msg := fmt.Sprintf("From: %s\r\nTo: %s\r\nSubject: %s\r\nMIME-Version: 1.0\r\nContent-Type: text/plain; charset=utf-8\r\n\r\n%s",
		n.From, n.To, subject, body)
	auth := smtp.PlainAuth("", n.User, n.Pass, host)
	if err := smtp.SendMail(n.Addr, auth, n.From, []string{n.To}, []byte(msg)); err != nil {
		return fmt.Errorf("smtp send: %w", err)
	}
	return nil
}

var _ Notifier = (*SMTPNotifier)(nil)
