package digest

import (
	"bytes"
	"context"
	"crypto/rand"
	"crypto/tls"
	"encoding/base64"
	"encoding/hex"
	"errors"
	"fmt"
	"mime"
	"net"
	"net/smtp"
	"strconv"
	"time"

	"funding_digest/internal/config"
	"funding_digest/internal/logger"
	"funding_digest/internal/models"
)

var ErrMailNotConfigured = errors.New("smtp host, sender and recipient are required")

// SendFunc transmits a prepared message.
type SendFunc func(addr string, auth smtp.Auth, from string, to []string, msg []byte) error

// Mailer delivers the digest as an HTML mail with a plain-text alternative.
type Mailer struct {
	cfg  config.SMTPConfig
	send SendFunc
	now  func() time.Time
}

// NewMailer returns a mailer for cfg. Port 465 uses implicit TLS, other ports STARTTLS when offered.
func NewMailer(cfg config.SMTPConfig) *Mailer {
	m := &Mailer{cfg: cfg, now: time.Now}
	if cfg.Port == 465 {
		m.send = sendTLS
	} else {
		m.send = smtp.SendMail
	}
	return m
}

// WithSender replaces the transport. Used by tests.
func (m *Mailer) WithSender(send SendFunc) *Mailer {
	m.send = send
	return m
}

// WithClock replaces the time source for the subject date.
func (m *Mailer) WithClock(now func() time.Time) *Mailer {
	m.now = now
	return m
}

// Deliver renders and sends the digest. An empty list still produces a mail.
func (m *Mailer) Deliver(ctx context.Context, records []models.Record, count int) error {
	if !m.cfg.Enabled() {
		return ErrMailNotConfigured
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	date := m.now()
	text := Markdown(records, count, date)
	body, err := HTML(text)
	if err != nil {
		return err
	}
	subject := Subject(count, date)
	msg := BuildMessage(m.cfg.From, m.cfg.To, subject, text, body)

	var auth smtp.Auth
	if m.cfg.Username != "" {
		auth = smtp.PlainAuth("", m.cfg.Username, m.cfg.Password, m.cfg.Host)
	}
	addr := net.JoinHostPort(m.cfg.Host, strconv.Itoa(m.cfg.Port))
	if err := m.send(addr, auth, m.cfg.From, []string{m.cfg.To}, msg); err != nil {
		return fmt.Errorf("send mail: %w", err)
	}

	logger.Log.WithFields(logger.Fields{
		"to":      m.cfg.To,
		"records": count,
	}).Info("Digest mailed")
	return nil
}

// BuildMessage assembles a multipart/alternative message with base64 bodies.
func BuildMessage(from, to, subject, text, html string) []byte {
	boundary := newBoundary()

	var b bytes.Buffer
	fmt.Fprintf(&b, "From: %s\r\n", from)
	fmt.Fprintf(&b, "To: %s\r\n", to)
	fmt.Fprintf(&b, "Subject: %s\r\n", mime.QEncoding.Encode("utf-8", subject))
	b.WriteString("MIME-Version: 1.0\r\n")
	fmt.Fprintf(&b, "Content-Type: multipart/alternative; boundary=\"%s\"\r\n\r\n", boundary)

	writePart(&b, boundary, "text/plain", text)
	writePart(&b, boundary, "text/html", html)
	fmt.Fprintf(&b, "--%s--\r\n", boundary)
	return b.Bytes()
}

func writePart(b *bytes.Buffer, boundary, contentType, body string) {
	fmt.Fprintf(b, "--%s\r\n", boundary)
	fmt.Fprintf(b, "Content-Type: %s; charset=\"UTF-8\"\r\n", contentType)
	b.WriteString("Content-Transfer-Encoding: base64\r\n\r\n")

	encoded := base64.StdEncoding.EncodeToString([]byte(body))
	for len(encoded) > 76 {
		b.WriteString(encoded[:76])
		b.WriteString("\r\n")
		encoded = encoded[76:]
	}
	b.WriteString(encoded)
	b.WriteString("\r\n")
}

func newBoundary() string {
	buf := make([]byte, 12)
	if _, err := rand.Read(buf); err != nil {
		return "digest-boundary"
	}
	return "digest-" + hex.EncodeToString(buf)
}

func sendTLS(addr string, auth smtp.Auth, from string, to []string, msg []byte) error {
	host, _, err := net.SplitHostPort(addr)
	if err != nil {
		return err
	}
	conn, err := tls.Dial("tcp", addr, &tls.Config{ServerName: host})
	if err != nil {
		return fmt.Errorf("tls dial: %w", err)
	}
	defer conn.Close()

	client, err := smtp.NewClient(conn, host)
	if err != nil {
		return fmt.Errorf("smtp client: %w", err)
	}
	defer client.Close()

	if auth != nil {
		if err := client.Auth(auth); err != nil {
			return fmt.Errorf("smtp auth: %w", err)
		}
	}
	if err := client.Mail(from); err != nil {
		return err
	}
	for _, rcpt := range to {
		if err := client.Rcpt(rcpt); err != nil {
			return err
		}
	}
	w, err := client.Data()
	if err != nil {
		return err
	}
	if _, err := w.Write(msg); err != nil {
		return err
	}
	if err := w.Close(); err != nil {
		return err
	}
	return client.Quit()
}
