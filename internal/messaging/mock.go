package messaging

import (
	"context"
	"sync"
)

// SentMessage records one MockSender delivery.
type SentMessage struct {
	Recipient string
	Channel   string
	Text      string
}

// MockSender records outbound messages for tests and for running without
// messaging credentials.
type MockSender struct {
	mu   sync.Mutex
	Sent []SentMessage
}

func (m *MockSender) SendText(ctx context.Context, recipient, channel, text string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Sent = append(m.Sent, SentMessage{Recipient: recipient, Channel: channel, Text: text})
	return nil
}

func (m *MockSender) Messages() []SentMessage {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]SentMessage, len(m.Sent))
	copy(out, m.Sent)
	return out
}
