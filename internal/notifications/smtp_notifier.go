package notifications

import (
	"context"
	"fmt"
	"net/smtp"
	"strings"

	"github.com/taskcal/taskcal/internal/calendar"
)

type SMTPConfig struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
}

// SMTPNotifier delivers share summaries over plain SMTP.
type SMTPNotifier struct {
	cfg SMTPConfig
	// send is swappable for tests; defaults to smtp.SendMail
	send func(addr string, a smtp.Auth, from string, to []string, msg []byte) error
}

func NewSMTPNotifier(cfg SMTPConfig) *SMTPNotifier {
	return &SMTPNotifier{
		cfg:  cfg,
		send: smtp.SendMail,
	}
}

func (n *SMTPNotifier) SendShareSummary(ctx context.Context, in ShareSummaryInput) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	addr := fmt.Sprintf("%s:%d", n.cfg.Host, n.cfg.Port)

	var auth smtp.Auth

	if n.cfg.Username != "" {
		auth = smtp.PlainAuth("", n.cfg.Username, n.cfg.Password, n.cfg.Host)
	}

	msg := buildMessage(n.cfg.From, in)

	return n.send(addr, auth, n.cfg.From, []string{in.ToEmail}, msg)
}

func buildMessage(from string, in ShareSummaryInput) []byte {
	var b strings.Builder

	fmt.Fprintf(&b, "From: %s\r\n", from)
	fmt.Fprintf(&b, "To: %s\r\n", in.ToEmail)
	fmt.Fprintf(&b, "Subject: %s shared their schedule with you\r\n", in.FromUsername)
	b.WriteString("MIME-Version: 1.0\r\nContent-Type: text/plain; charset=utf-8\r\n\r\n")

	fmt.Fprintf(&b, "Hello,\r\n\r\n%s shared their schedule with you.\r\n", in.FromUsername)

	if in.Message != "" {
		fmt.Fprintf(&b, "\r\nMessage: %s\r\n", in.Message)
	}

	fmt.Fprintf(&b, "\r\nTotal tasks: %d\r\n", len(in.Tasks))

	for _, t := range calendar.SortForDisplay(in.Tasks) {
		line := t.Date

		if t.Time != "" {
			line += " " + t.Time
		}

		fmt.Fprintf(&b, "  - %s  %s [%s/%s]\r\n", line, t.Title, t.Priority, t.Status)
	}

	b.WriteString("\r\nOpen the app to see the details.\r\n")

	return []byte(b.String())
}
