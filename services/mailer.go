package services

import (
	"encoding/base64"
	"fmt"
	"net/smtp"
	"os"
	"path/filepath"
	"strings"
)

// Mailer delivers the finished mashup. The pipeline's only obligation
// toward it is a valid, fully written attachment path.
type Mailer interface {
	Send(to, subject, body, attachmentPath string) error
}

// SMTPMailer sends mail through an authenticated SMTP relay
// (gmail's submission port by default).
type SMTPMailer struct {
	addr     string // host:port
	host     string
	from     string
	password string
}

// NewSMTPMailer creates a mailer for the given relay and sender
// credentials.
func NewSMTPMailer(addr, host, from, password string) *SMTPMailer {
	return &SMTPMailer{addr: addr, host: host, from: from, password: password}
}

// Send builds a multipart MIME message with the zip attached and
// submits it. smtp.SendMail negotiates STARTTLS when the server
// offers it.
func (m *SMTPMailer) Send(to, subject, body, attachmentPath string) error {
	payload, err := os.ReadFile(attachmentPath)
	if err != nil {
		return fmt.Errorf("read attachment: %w", err)
	}

	msg := buildMIMEMessage(m.from, to, subject, body, filepath.Base(attachmentPath), payload)

	auth := smtp.PlainAuth("", m.from, m.password, m.host)
	if err := smtp.SendMail(m.addr, auth, m.from, []string{to}, []byte(msg)); err != nil {
		return fmt.Errorf("send mail to %s: %w", to, err)
	}
	return nil
}

// buildMIMEMessage assembles an RFC 2822 multipart/mixed message with
// a plain text part and one base64 zip attachment.
func buildMIMEMessage(from, to, subject, body, filename string, attachment []byte) string {
	const boundary = "mashup-boundary-7f3a"

	var msg strings.Builder
	msg.WriteString(fmt.Sprintf("From: %s\r\n", from))
	msg.WriteString(fmt.Sprintf("To: %s\r\n", to))
	msg.WriteString(fmt.Sprintf("Subject: %s\r\n", subject))
	msg.WriteString("MIME-Version: 1.0\r\n")
	msg.WriteString(fmt.Sprintf("Content-Type: multipart/mixed; boundary=%q\r\n\r\n", boundary))

	msg.WriteString(fmt.Sprintf("--%s\r\n", boundary))
	msg.WriteString("Content-Type: text/plain; charset=\"UTF-8\"\r\n\r\n")
	msg.WriteString(body)
	msg.WriteString("\r\n\r\n")

	msg.WriteString(fmt.Sprintf("--%s\r\n", boundary))
	msg.WriteString("Content-Type: application/zip\r\n")
	msg.WriteString("Content-Transfer-Encoding: base64\r\n")
	msg.WriteString(fmt.Sprintf("Content-Disposition: attachment; filename=%q\r\n\r\n", filename))

	encoded := base64.StdEncoding.EncodeToString(attachment)
	// Wrap base64 at 76 columns per RFC 2045
	for len(encoded) > 76 {
		msg.WriteString(encoded[:76])
		msg.WriteString("\r\n")
		encoded = encoded[76:]
	}
	msg.WriteString(encoded)
	msg.WriteString("\r\n\r\n")

	msg.WriteString(fmt.Sprintf("--%s--\r\n", boundary))
	return msg.String()
}

var _ Mailer = (*SMTPMailer)(nil)
