// Package events publishes order lifecycle events for downstream consumers.
package events

import (
	"context"
	"encoding/json"
	"strconv"
	"time"

	"go.uber.org/zap"

	"chatshop/internal/core/config"
	"chatshop/internal/domain"
)

const (
	OrderPlaced    = "order.placed"
	OrderCompleted = "order.completed"
	OrderRefunded  = "order.refunded"
	CreditPosted   = "credit.posted"
)

type Event struct {
	Type    string       `json:"type"`
	OrderID uint64       `json:"order_id,omitempty"`
	UserID  int64        `json:"user_id"`
	Value   domain.Money `json:"value"`
	Reason  string       `json:"reason,omitempty"`
	At      time.Time    `json:"at"`
}

// Key partitions events by user so one user's events stay ordered.
func (e Event) Key() []byte { return []byte(strconv.FormatInt(e.UserID, 10)) }

func (e Event) Encode() ([]byte, error) { return json.Marshal(e) }

// OrderEvent builds an event describing o.
func OrderEvent(typ string, o *domain.Order) Event {
	return Event{Type: typ, OrderID: o.ID, UserID: o.UserID, Value: o.Total(), Reason: o.RefundReason, At: time.Now().UTC()}
}

// Publisher is fire-and-forget: delivery problems are logged, never returned
// to the dialogue that produced the event.
type Publisher interface {
	Publish(ctx context.Context, e Event)
	Close()
}

// New returns a Kafka publisher when enabled, otherwise a no-op.
func New(c config.Kafka, log *zap.Logger) (Publisher, error) {
	if !c.Enabled {
		return Nop{}, nil
	}
	return NewKafka(c.Brokers, c.Topic, log)
}

type Nop struct{}

func (Nop) Publish(context.Context, Event) {}
func (Nop) Close()                         {}
