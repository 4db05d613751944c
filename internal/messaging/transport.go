// Package messaging delivers outbound text to a speaker's contact address.
package messaging

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/ideaflow/internal/config"
)

// Delivery acknowledges a sent message.
type Delivery struct {
	ID      string    `json:"id"`
	Contact string    `json:"contact"`
	SentAt  time.Time `json:"sent_at"`
}

// Transport sends a message to a contact.
type Transport interface {
	Send(ctx context.Context, contact, text string) (*Delivery, error)
}

// New builds the transport selected by cfg.Transport.
func New(cfg config.MessagingConfig) (Transport, error) {
	switch strings.ToLower(cfg.Transport) {
	case "", "log":
		return LogTransport{}, nil
	case "memory":
		return &MemoryTransport{}, nil
	case "webhook":
		if cfg.WebhookURL == "" {
			return nil, eris.New("messaging: webhook_url is required for the webhook transport")
		}
		return NewWebhookTransport(cfg), nil
	default:
		return nil, eris.Errorf("messaging: unknown transport %q", cfg.Transport)
	}
}

// LogTransport writes messages to the log instead of sending them.
type LogTransport struct{}

// Send logs the message.
func (LogTransport) Send(_ context.Context, contact, text string) (*Delivery, error) {
	d := &Delivery{ID: uuid.NewString(), Contact: contact, SentAt: time.Now().UTC()}
	zap.L().Info("messaging: outbound",
		zap.String("delivery_id", d.ID),
		zap.String("contact", contact),
		zap.String("text", text),
	)
	return d, nil
}

// Message is a message captured by MemoryTransport.
type Message struct {
	Contact string
	Text    string
}

// MemoryTransport keeps sent messages in memory. Err, when set, fails every send.
type MemoryTransport struct {
	mu   sync.Mutex
	sent []Message
	Err  error
}

// Send records the message.
func (m *MemoryTransport) Send(_ context.Context, contact, text string) (*Delivery, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return nil, m.Err
	}
	m.sent = append(m.sent, Message{Contact: contact, Text: text})
	return &Delivery{ID: uuid.NewString(), Contact: contact, SentAt: time.Now().UTC()}, nil
}

// Sent returns a copy of the recorded messages.
func (m *MemoryTransport) Sent() []Message {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]Message(nil), m.sent...)
}

// Last returns the most recent message, if any.
func (m *MemoryTransport) Last() (Message, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.sent) == 0 {
		return Message{}, false
	}
	return m.sent[len(m.sent)-1], true
}
