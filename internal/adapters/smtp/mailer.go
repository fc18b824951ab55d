// Package smtp delivers export artifacts as email attachments through a
// plain SMTP relay.
package smtp

import (
	"bytes"
	"context"
	"encoding/base64"
	"fmt"
	"net/smtp"
	"strings"

	"github.com/a-steris/paydash/internal/app/domain"
)

// Mailer speaks SMTP with optional PLAIN auth. The artifact CSV travels
// as a base64 MIME attachment.
type Mailer struct {
	host     string
	port     int
	username string
	password string
	from     string

	// send is swappable for tests.
	send func(addr string, a smtp.Auth, from string, to []string, msg []byte) error
}

func NewMailer(host string, port int, username, password, from string) *Mailer {
	return &Mailer{
		host:     host,
		port:     port,
		username: username,
		password: password,
		from:     from,
		send:     smtp.SendMail,
	}
}

func (m *Mailer) Send(ctx context.Context, to, subject string, artifact domain.ExportArtifact) error {
	if m.host == "" {
		return &domain.DeliveryError{Channel: "email", Message: "SMTP relay not configured"}
	}
	if strings.TrimSpace(to) == "" {
		return &domain.DeliveryError{Channel: "email", Message: "recipient address required"}
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	var auth smtp.Auth
	if m.username != "" {
		auth = smtp.PlainAuth("", m.username, m.password, m.host)
	}

	msg := m.buildMessage(to, subject, artifact)
	addr := fmt.Sprintf("%s:%d", m.host, m.port)
	if err := m.send(addr, auth, m.from, []string{to}, msg); err != nil {
		return &domain.DeliveryError{Channel: "email", Message: err.Error()}
	}
	return nil
}

func (m *Mailer) buildMessage(to, subject string, artifact domain.ExportArtifact) []byte {
	const boundary = "paydash-artifact-boundary"

	var buf bytes.Buffer
	fmt.Fprintf(&buf, "From: %s\r\n", m.from)
	fmt.Fprintf(&buf, "To: %s\r\n", to)
	fmt.Fprintf(&buf, "Subject: %s\r\n", subject)
	buf.WriteString("MIME-Version: 1.0\r\n")
	fmt.Fprintf(&buf, "Content-Type: multipart/mixed; boundary=%q\r\n\r\n", boundary)

	fmt.Fprintf(&buf, "--%s\r\n", boundary)
	buf.WriteString("Content-Type: text/plain; charset=utf-8\r\n\r\n")
	fmt.Fprintf(&buf, "Attached: %s report (%s).\r\n\r\n", artifact.ReportType, artifact.Filename)

	fmt.Fprintf(&buf, "--%s\r\n", boundary)
	fmt.Fprintf(&buf, "Content-Type: text/csv; name=%q\r\n", artifact.Filename)
	buf.WriteString("Content-Transfer-Encoding: base64\r\n")
	fmt.Fprintf(&buf, "Content-Disposition: attachment; filename=%q\r\n\r\n", artifact.Filename)

	encoded := base64.StdEncoding.EncodeToString(artifact.Bytes)
	for len(encoded) > 76 {
		buf.WriteString(encoded[:76] + "\r\n")
		encoded = encoded[76:]
	}
	buf.WriteString(encoded + "\r\n")
	fmt.Fprintf(&buf, "--%s--\r\n", boundary)
	return buf.Bytes()
}
