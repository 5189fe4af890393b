package notifier

import (
	"context"
	"crypto/tls"
	"crypto/x509"
	"fmt"
	"mime"
	"net"
	"net/smtp"
	"strconv"
	"strings"
	"time"

	"github.com/semmidev/vigil/internal/config"
	"github.com/semmidev/vigil/internal/domain"
)

// EmailNotifier submits plain-text reports over SMTP with STARTTLS and
// PLAIN authentication.
type EmailNotifier struct {
	cfg config.EmailConfig
	now func() time.Time
	// rootCAs overrides the system pool when verifying the server.
	rootCAs *x509.CertPool
}

func NewEmail(cfg config.EmailConfig) *EmailNotifier {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}
	return &EmailNotifier{cfg: cfg, now: time.Now}
}

func (e *EmailNotifier) Name() string {
	return "email"
}

func (e *EmailNotifier) Send(ctx context.Context, subject, body string) error {
	if err := e.send(ctx, subject, body); err != nil {
		return &domain.NotificationError{Channel: e.Name(), Err: err}
	}
	return nil
}

func (e *EmailNotifier) send(ctx context.Context, subject, body string) error {
	if e.cfg.Sender == "" || e.cfg.Receiver == "" {
		return fmt.Errorf("sender and receiver must be configured")
	}

	addr := net.JoinHostPort(e.cfg.Host, strconv.Itoa(e.cfg.Port))

	dialer := &net.Dialer{Timeout: e.cfg.Timeout}
	conn, err := dialer.DialContext(ctx, "tcp", addr)
	if err != nil {
		return fmt.Errorf("failed to connect to SMTP server: %w", err)
	}
	defer conn.Close()

	// One deadline covers the whole session.
	if err := conn.SetDeadline(time.Now().Add(e.cfg.Timeout)); err != nil {
		return fmt.Errorf("failed to set SMTP deadline: %w", err)
	}

	client, err := smtp.NewClient(conn, e.cfg.Host)
	if err != nil {
		return fmt.Errorf("failed to create SMTP client: %w", err)
	}
	defer client.Close()

	if e.cfg.UseTLS {
		tlsConfig := &tls.Config{
			ServerName: e.cfg.Host,
			RootCAs:    e.rootCAs,
			MinVersion: tls.VersionTLS12,
		}
		if err := client.StartTLS(tlsConfig); err != nil {
			return fmt.Errorf("failed to start TLS: %w", err)
		}
	}

	if e.cfg.Password != "" {
		auth := smtp.PlainAuth("", e.cfg.Sender, e.cfg.Password, e.cfg.Host)
		if err := client.Auth(auth); err != nil {
			return fmt.Errorf("SMTP authentication failed: %w", err)
		}
	}

	if err := client.Mail(e.cfg.Sender); err != nil {
		return fmt.Errorf("failed to set sender: %w", err)
	}
	if err := client.Rcpt(e.cfg.Receiver); err != nil {
		return fmt.Errorf("failed to set recipient: %w", err)
	}

	w, err := client.Data()
	if err != nil {
		return fmt.Errorf("failed to start message data: %w", err)
	}
	if _, err := w.Write([]byte(e.buildMessage(subject, body))); err != nil {
		return fmt.Errorf("failed to write message: %w", err)
	}
	if err := w.Close(); err != nil {
		return fmt.Errorf("failed to finish message: %w", err)
	}

	return client.Quit()
}

func (e *EmailNotifier) buildMessage(subject, body string) string {
	var msg strings.Builder

	msg.WriteString(fmt.Sprintf("From: %s\r\n", e.cfg.Sender))
	msg.WriteString(fmt.Sprintf("To: %s\r\n", e.cfg.Receiver))
	msg.WriteString(fmt.Sprintf("Subject: %s\r\n", mime.QEncoding.Encode("utf-8", subject)))
	msg.WriteString(fmt.Sprintf("Date: %s\r\n", e.now().Format(time.RFC1123Z)))
	msg.WriteString("MIME-Version: 1.0\r\n")
	msg.WriteString("Content-Type: text/plain; charset=UTF-8\r\n")
	msg.WriteString("Content-Transfer-Encoding: 8bit\r\n")
	msg.WriteString("\r\n")

	body = strings.ReplaceAll(body, "\r\n", "\n")
	msg.WriteString(strings.ReplaceAll(body, "\n", "\r\n"))

	return msg.String()
}
