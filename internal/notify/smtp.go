package notify

import (
	"fmt"
	"net/smtp"
	"strings"
)

// SMTPNotifier sends plain-text mail to a fixed recipient. SendMail
// negotiates STARTTLS with servers that advertise it.
type SMTPNotifier struct {
	Host     string
	Port     int
	From     string
	Password string
	To       string
}

var _ Notifier = (*SMTPNotifier)(nil)

func (n *SMTPNotifier) Send(subject, body string) error {
	addr := fmt.Sprintf("%s:%d", n.Host, n.Port)
	auth := smtp.PlainAuth("", n.From, n.Password, n.Host)

	var msg strings.Builder
	fmt.Fprintf(&msg, "From: %s\r\n", n.From)
	fmt.Fprintf(&msg, "To: %s\r\n", n.To)
	fmt.Fprintf(&msg, "Subject: %s\r\n", subject)
	msg.WriteString("MIME-Version: 1.0\r\n")
	msg.WriteString("Content-Type: text/plain; charset=UTF-8\r\n")
	msg.WriteString("\r\n")
	msg.WriteString(body)

	if err := smtp.SendMail(addr, auth, n.From, []string{n.To}, []byte(msg.String())); err != nil {
		return fmt.Errorf("send mail via %s: %w", addr, err)
	}
	return nil
}
