package mail

import (
	"context"
	"fmt"
	"net/smtp"
	"strings"

	"github.com/mailflow-io/mailflow/internal/config"
)

// SMTPTransport sends mail through a single SMTP host with PLAIN auth.
type SMTPTransport struct {
	addr string
	host string
	auth smtp.Auth
}

// NewSMTPTransport builds a transport from the SMTP configuration.
func NewSMTPTransport(cfg *config.SMTPConfig) *SMTPTransport {
	var auth smtp.Auth
	if cfg.User != "" {
		auth = smtp.PlainAuth("", cfg.User, cfg.Password, cfg.Host)
	}
	return &SMTPTransport{
		addr: cfg.Addr(),
		host: cfg.Host,
		auth: auth,
	}
}

// Send delivers one message to one recipient. Failures come back as
// *TransportError with the server response classified into a kind.
func (t *SMTPTransport) Send(ctx context.Context, subject, body, from, to string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	msg := buildMessage(subject, body, from, to)
	if err := smtp.SendMail(t.addr, t.auth, from, []string{to}, msg); err != nil {
		return classify(err)
	}
	return nil
}

func buildMessage(subject, body, from, to string) []byte {
	var b strings.Builder
	fmt.Fprintf(&b, "From: %s\r\n", from)
	fmt.Fprintf(&b, "To: %s\r\n", to)
	fmt.Fprintf(&b, "Subject: %s\r\n", subject)
	b.WriteString("MIME-Version: 1.0\r\n")
	b.WriteString("Content-Type: text/plain; charset=\"utf-8\"\r\n")
	b.WriteString("\r\n")
	b.WriteString(body)
	return []byte(b.String())
}

// classify maps an SMTP server response onto a TransportError kind. The
// reply codes are the contract here; the text checks only back up servers
// that answer with nonstandard codes.
func classify(err error) *TransportError {
	detail := err.Error()
	lower := strings.ToLower(detail)

	switch {
	case strings.Contains(detail, "535") || strings.Contains(lower, "authentication"):
		return &TransportError{Kind: KindAuth, Detail: detail}
	case strings.Contains(detail, "421") || strings.Contains(detail, "450") ||
		strings.Contains(detail, "550") || strings.Contains(lower, "spam") ||
		strings.Contains(lower, "rate"):
		return &TransportError{Kind: KindRejected, Detail: detail}
	default:
		return &TransportError{Kind: KindOther, Detail: detail}
	}
}
