package mail

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
)

// ErrDelivery wraps transport-level failures so callers can map them to a
// stable error category.
var ErrDelivery = errors.New("mail delivery failed")

// Message describes an outbound email.
type Message struct {
	To      string
	Subject string
	Body    string
}

// Mailer delivers messages to recipients.
type Mailer interface {
	Send(ctx context.Context, msg Message) error
}

// LogMailer writes messages to the structured logger instead of sending them.
// Used in development when SMTP is not configured.
type LogMailer struct {
	logger *slog.Logger
}

// NewLogMailer constructs a logging mailer.
func NewLogMailer(logger *slog.Logger) *LogMailer {
	return &LogMailer{logger: logger}
}

// Send writes the message to the structured logger.
func (m *LogMailer) Send(_ context.Context, msg Message) error {
	if m == nil || m.logger == nil {
		return nil
	}
	m.logger.Info("mail", "to", msg.To, "subject", msg.Subject, "body", msg.Body)
	return nil
}

// Recorder captures sent messages for tests.
type Recorder struct {
	mu       sync.Mutex
	Messages []Message
	Err      error
}

// Send records the message, or returns the configured error.
func (r *Recorder) Send(_ context.Context, msg Message) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.Err != nil {
		return fmt.Errorf("%w: %w", ErrDelivery, r.Err)
	}
	r.Messages = append(r.Messages, msg)
	return nil
}

// Last returns the most recently recorded message.
func (r *Recorder) Last() (Message, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.Messages) == 0 {
		return Message{}, false
	}
	return r.Messages[len(r.Messages)-1], true
}
