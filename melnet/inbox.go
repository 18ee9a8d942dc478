// File: melnet/inbox.go
// Author: momentics <momentics@gmail.com>

package melnet

import "github.com/eapache/queue"

// inbox is a bounded FIFO of decoded records. Pushing onto a full inbox
// evicts the oldest entry.
type inbox struct {
	q     *queue.Queue
	limit int
}

func newInbox(limit int) *inbox {
	return &inbox{q: queue.New(), limit: limit}
}

// push appends v and reports whether an older entry was evicted.
func (b *inbox) push(v any) bool {
	evicted := false
	if b.q.Length() >= b.limit {
		b.q.Remove()
		evicted = true
	}
	b.q.Add(v)
	return evicted
}

func (b *inbox) pop() (any, bool) {
	if b.q.Length() == 0 {
		return nil, false
	}
	return b.q.Remove(), true
}

func (b *inbox) len() int { return b.q.Length() }
