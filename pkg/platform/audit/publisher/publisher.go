// Package publisher fans audit events out to a store, synchronously by
// default or through a buffered channel when async mode is enabled.
package publisher

import (
	"context"
	"sync"

	id "bloodlink/pkg/domain"
	audit "bloodlink/pkg/platform/audit"
)

// Publisher emits audit events to its backing store. In async mode events are
// buffered and drained by a background goroutine; Close flushes the buffer.
type Publisher struct {
	store audit.Store

	inbox  chan audit.Event
	wg     sync.WaitGroup
	closed chan struct{}
	once   sync.Once
}

// Option configures a Publisher.
type Option func(*Publisher)

// WithAsyncBuffer enables async emission with the given buffer size.
func WithAsyncBuffer(size int) Option {
	return func(p *Publisher) {
		p.inbox = make(chan audit.Event, size)
	}
}

// NewPublisher constructs a publisher over the given store.
func NewPublisher(store audit.Store, opts ...Option) *Publisher {
	p := &Publisher{
		store:  store,
		closed: make(chan struct{}),
	}
	for _, opt := range opts {
		opt(p)
	}
	if p.inbox != nil {
		p.wg.Add(1)
		go p.drain()
	}
	return p
}

// Emit records an audit event. In sync mode failures propagate; in async mode
// the event is buffered and Emit only fails when the publisher is closed.
func (p *Publisher) Emit(ctx context.Context, event audit.Event) error {
	if p.inbox == nil {
		return p.store.Append(ctx, event)
	}
	select {
	case <-p.closed:
		return nil
	case p.inbox <- event:
		return nil
	}
}

// List returns the recorded events for an actor.
func (p *Publisher) List(ctx context.Context, actorID id.UserID) ([]audit.Event, error) {
	return p.store.List(ctx, actorID)
}

// Close stops the background drain and flushes buffered events. The inbox is
// never closed so a concurrent Emit can never panic; late events race the
// shutdown and may be dropped, which async mode already allows.
func (p *Publisher) Close() {
	p.once.Do(func() {
		close(p.closed)
		if p.inbox != nil {
			p.wg.Wait()
		}
	})
}

func (p *Publisher) drain() {
	defer p.wg.Done()
	for {
		select {
		case event := <-p.inbox:
			// Best effort: audit persistence failures must not crash the drain.
			_ = p.store.Append(context.Background(), event)
		case <-p.closed:
			for {
				select {
				case event := <-p.inbox:
					_ = p.store.Append(context.Background(), event)
				default:
					return
				}
			}
		}
	}
}
