package notify

import (
	"context"
	"sync"
)

// MemoryMailer records messages instead of sending them. For local runs and
// tests.
type MemoryMailer struct {
	mu   sync.Mutex
	sent []Email
}

// NewMemoryMailer constructs a MemoryMailer.
func NewMemoryMailer() *MemoryMailer {
	return &MemoryMailer{}
}

// Send records the message.
func (m *MemoryMailer) Send(ctx context.Context, msg Email) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sent = append(m.sent, msg)
	return nil
}

// Sent returns a copy of everything recorded so far.
func (m *MemoryMailer) Sent() []Email {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]Email(nil), m.sent...)
}

var _ Mailer = (*MemoryMailer)(nil)
