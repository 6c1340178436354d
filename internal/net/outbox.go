// Package net carries the wire layer: the outbound message queue, the
// websocket topic hub, and the inbound command intake.
package net

import (
	"context"
	"sync"

	"siegefall/server/internal/net/proto"
	"siegefall/server/logging"
	networklog "siegefall/server/logging/network"
)

// DefaultOutboxCapacity bounds the outbound queue. At a full queue the oldest
// non-critical message is evicted first; critical messages are never dropped.
const DefaultOutboxCapacity = 10000

// Outbox buffers outbound messages between the simulation and the hub. The
// simulation enqueues from stage goroutines; the pump drains once per flush.
type Outbox struct {
	mu       sync.Mutex
	queue    []proto.Message
	resend   []proto.Message
	capacity int

	publisher  logging.Publisher
	metrics    *logging.Metrics
	dropCounts map[string]uint64
	tick       func() uint64
}

func NewOutbox(capacity int, publisher logging.Publisher, metrics *logging.Metrics, tick func() uint64) *Outbox {
	if capacity <= 0 {
		capacity = DefaultOutboxCapacity
	}
	if tick == nil {
		tick = func() uint64 { return 0 }
	}
	return &Outbox{
		capacity:   capacity,
		publisher:  publisher,
		metrics:    metrics,
		dropCounts: make(map[string]uint64),
		tick:       tick,
	}
}

// Enqueue accepts a message for the next flush, reporting false when the
// message itself was dropped. At capacity the oldest non-critical message is
// evicted; if everything queued is critical, a critical message grows the
// queue past capacity rather than lose state the clients cannot reconstruct.
func (o *Outbox) Enqueue(msg proto.Message) bool {
	if o == nil {
		return false
	}
	o.mu.Lock()
	defer o.mu.Unlock()

	if len(o.queue) >= o.capacity {
		evicted := false
		for i, queued := range o.queue {
			if queued.Critical {
				continue
			}
			o.recordDropLocked(queued)
			o.queue = append(o.queue[:i], o.queue[i+1:]...)
			evicted = true
			break
		}
		if !evicted && !msg.Critical {
			o.recordDropLocked(msg)
			return false
		}
	}

	o.queue = append(o.queue, msg)
	return true
}

// Drain removes everything pending: first the criticals that failed the
// previous flush, then the queue in FIFO order.
func (o *Outbox) Drain() []proto.Message {
	if o == nil {
		return nil
	}
	o.mu.Lock()
	defer o.mu.Unlock()
	if len(o.resend) == 0 && len(o.queue) == 0 {
		return nil
	}
	drained := make([]proto.Message, 0, len(o.resend)+len(o.queue))
	drained = append(drained, o.resend...)
	drained = append(drained, o.queue...)
	o.resend = nil
	o.queue = o.queue[:0]
	return drained
}

// Requeue re-stages messages whose delivery failed. Only criticals are kept;
// a non-critical message missing one flush is stale by the next.
func (o *Outbox) Requeue(msgs []proto.Message) {
	if o == nil || len(msgs) == 0 {
		return
	}
	o.mu.Lock()
	defer o.mu.Unlock()
	for _, msg := range msgs {
		if msg.Critical {
			o.resend = append(o.resend, msg)
			continue
		}
		o.recordDropLocked(msg)
	}
}

// Pending reports the number of staged messages.
func (o *Outbox) Pending() int {
	if o == nil {
		return 0
	}
	o.mu.Lock()
	defer o.mu.Unlock()
	return len(o.resend) + len(o.queue)
}

func (o *Outbox) recordDropLocked(msg proto.Message) {
	o.metrics.TelemetryAdd("outbox_dropped_total", 1)
	count := o.dropCounts[msg.Topic] + 1
	o.dropCounts[msg.Topic] = count
	// Log on power-of-two counts so a flood does not flood the log too.
	if count&(count-1) == 0 {
		networklog.PublishDropped(context.Background(), o.publisher, o.tick(), networklog.DropPayload{
			Topic:    msg.Topic,
			Category: msg.Envelope.T,
			Count:    count,
		})
	}
}
