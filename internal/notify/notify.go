// Package notify delivers out-of-band messages to donors: donation
// reminders, compatible-donor appeals. Delivery is best effort; the domain
// never blocks on it.
package notify

import (
	"context"

	id "bloodlink/pkg/domain"
)

// Message is one notification addressed to a user.
type Message struct {
	UserID id.UserID `json:"user_id"`
	Title  string    `json:"title"`
	Body   string    `json:"body"`
}

// Dispatcher sends messages. Implementations must be safe for concurrent
// use.
type Dispatcher interface {
	Send(ctx context.Context, msg Message) error
}
