package mail

import (
	"context"
	"crypto/tls"
	"fmt"
	"net/smtp"
)

// SMTPMailer sends mail over implicit-TLS SMTP (port 465 style).
type SMTPMailer struct {
	host     string
	port     string
	username string
	password string
	from     string
}

// NewSMTPMailer constructs an SMTP-backed mailer. When from is empty the
// authenticated username is used as the sender address.
func NewSMTPMailer(host, port, username, password, from string) *SMTPMailer {
	if from == "" {
		from = username
	}
	return &SMTPMailer{host: host, port: port, username: username, password: password, from: from}
}

// Send delivers a single message. The context is honored only between protocol
// steps; net/smtp has no native cancellation.
func (m *SMTPMailer) Send(ctx context.Context, msg Message) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("%w: %w", ErrDelivery, err)
	}

	payload := []byte(
		fmt.Sprintf("From: %s\r\n", m.from) +
			fmt.Sprintf("To: %s\r\n", msg.To) +
			fmt.Sprintf("Subject: %s\r\n", msg.Subject) +
			"MIME-Version: 1.0\r\n" +
			"Content-Type: text/html; charset=\"utf-8\"\r\n" +
			"\r\n" +
			msg.Body,
	)

	conn, err := tls.Dial("tcp", m.host+":"+m.port, &tls.Config{ServerName: m.host})
	if err != nil {
		return fmt.Errorf("%w: dial: %w", ErrDelivery, err)
	}
	defer conn.Close()

	client, err := smtp.NewClient(conn, m.host)
	if err != nil {
		return fmt.Errorf("%w: handshake: %w", ErrDelivery, err)
	}
	defer client.Quit()

	auth := smtp.PlainAuth("", m.username, m.password, m.host)
	if err := client.Auth(auth); err != nil {
		return fmt.Errorf("%w: auth: %w", ErrDelivery, err)
	}

	if err := client.Mail(m.from); err != nil {
		return fmt.Errorf("%w: mail from: %w", ErrDelivery, err)
	}
	if err := client.Rcpt(msg.To); err != nil {
		return fmt.Errorf("%w: rcpt to: %w", ErrDelivery, err)
	}

	w, err := client.Data()
	if err != nil {
		return fmt.Errorf("%w: data: %w", ErrDelivery, err)
	}
	if _, err := w.Write(payload); err != nil {
		return fmt.Errorf("%w: write: %w", ErrDelivery, err)
	}
	if err := w.Close(); err != nil {
		return fmt.Errorf("%w: close: %w", ErrDelivery, err)
	}

	return nil
}
