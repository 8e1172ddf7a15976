package notify

import (
	"context"
	"sync"
)

// Escalation describes an issue routed to a human reviewer.
type Escalation struct {
	IssueID  string
	Unit     string
	Category string
	Urgency  string
	Summary  string
	RecordID string
}

// Notifier delivers escalation alerts to the on-call reviewer.
type Notifier interface {
	EscalatedIssue(ctx context.Context, n Escalation) error
}

// MockNotifier records escalations for tests and credential-less runs.
type MockNotifier struct {
	mu    sync.Mutex
	Calls []Escalation
}

func (m *MockNotifier) EscalatedIssue(ctx context.Context, n Escalation) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Calls = append(m.Calls, n)
	return nil
}

func (m *MockNotifier) Notifications() []Escalation {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]Escalation, len(m.Calls))
	copy(out, m.Calls)
	return out
}
