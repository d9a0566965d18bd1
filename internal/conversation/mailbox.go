package conversation

import (
	"context"
	"sync"
	"time"
)

// Mailbox is an unbounded FIFO. Put never blocks, so a slow conversation
// cannot stall whoever delivers to it.
type Mailbox struct {
	mu     sync.Mutex
	items  []Item
	notify chan struct{}
}

func NewMailbox() *Mailbox {
	return &Mailbox{notify: make(chan struct{}, 1)}
}

func (m *Mailbox) Put(it Item) {
	m.mu.Lock()
	m.items = append(m.items, it)
	m.mu.Unlock()
	select {
	case m.notify <- struct{}{}:
	default:
	}
}

func (m *Mailbox) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.items)
}

func (m *Mailbox) pop() (Item, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.items) == 0 {
		return nil, false
	}
	it := m.items[0]
	m.items[0] = nil
	m.items = m.items[1:]
	return it, true
}

// Get returns the oldest item, waiting up to timeout (0 waits forever).
// It returns a Stop item when the timeout expires or ctx is done.
func (m *Mailbox) Get(ctx context.Context, timeout time.Duration) Item {
	var expired <-chan time.Time
	if timeout > 0 {
		t := time.NewTimer(timeout)
		defer t.Stop()
		expired = t.C
	}
	for {
		if it, ok := m.pop(); ok {
			return it
		}
		select {
		case <-m.notify:
		case <-expired:
			return Stop{Reason: ReasonTimeout}
		case <-ctx.Done():
			return Stop{Reason: ReasonShutdown}
		}
	}
}
