package notify

import (
	"context"
	"sync"
)

// InMemory collects messages for tests and single-node deployments without a
// broker.
type InMemory struct {
	mu       sync.Mutex
	messages []Message
}

func NewInMemory() *InMemory {
	return &InMemory{}
}

func (d *InMemory) Send(_ context.Context, msg Message) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.messages = append(d.messages, msg)
	return nil
}

// Sent returns a copy of everything dispatched so far.
func (d *InMemory) Sent() []Message {
	d.mu.Lock()
	defer d.mu.Unlock()
	out := make([]Message, len(d.messages))
	copy(out, d.messages)
	return out
}
