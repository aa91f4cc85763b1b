// Package notify fans out shop events (payments, order changes, overdue balances) to
// connected consoles.
package notify

import (
	"context"
	"time"

	"github.com/google/uuid"
)

type Kind string

const (
	KindOrderCreated    Kind = "order_created"
	KindOrderStatus     Kind = "order_status"
	KindPaymentRecorded Kind = "payment_recorded"
	KindMessageLogged   Kind = "message_logged"
	KindOverdue         Kind = "overdue"
)

// Notification is one event shown in the console's notification tray.
type Notification struct {
	ID         string    `json:"id"`
	Kind       Kind      `json:"kind"`
	Title      string    `json:"title"`
	Body       string    `json:"body"`
	EntityType string    `json:"entity_type,omitempty"`
	EntityID   int       `json:"entity_id,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
}

// Publisher delivers notifications to live subscribers and keeps a short backlog.
type Publisher interface {
	Publish(ctx context.Context, n Notification) error
	// Recent returns up to limit notifications, newest first.
	Recent(ctx context.Context, limit int) ([]Notification, error)
	// Subscribe streams notifications published after the call until ctx is done or
	// the returned stop function is called. The channel is closed afterwards.
	Subscribe(ctx context.Context) (<-chan Notification, func(), error)
}

// stamp fills the ID and CreatedAt of a notification when unset.
func stamp(n Notification) Notification {
	if n.ID == "" {
		n.ID = uuid.NewString()
	}
	if n.CreatedAt.IsZero() {
		n.CreatedAt = time.Now().UTC()
	}
	return n
}

// Nop discards notifications. Used when Redis is not configured.
type Nop struct{}

func (Nop) Publish(context.Context, Notification) error { return nil }

func (Nop) Recent(context.Context, int) ([]Notification, error) { return []Notification{}, nil }

func (Nop) Subscribe(ctx context.Context) (<-chan Notification, func(), error) {
	ctx, cancel := context.WithCancel(ctx)
	ch := make(chan Notification)
	go func() {
		<-ctx.Done()
		close(ch)
	}()
	return ch, cancel, nil
}
