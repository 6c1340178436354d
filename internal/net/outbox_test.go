package net

import (
	"fmt"
	"testing"

	"siegefall/server/internal/net/proto"
	"siegefall/server/logging"
)

func message(topic string, critical bool, id int) proto.Message {
	return proto.Message{
		Topic:    topic,
		Envelope: proto.Envelope{T: "unit", A: "C", D: fmt.Sprintf("m%d", id)},
		Critical: critical,
	}
}

func TestOutboxEvictsOldestNonCritical(t *testing.T) {
	o := NewOutbox(3, nil, logging.NewMetrics(), nil)
	o.Enqueue(message("td/all/res", true, 0))
	o.Enqueue(message("td/all/res", false, 1))
	o.Enqueue(message("td/all/res", false, 2))

	if !o.Enqueue(message("td/all/res", false, 3)) {
		t.Fatal("enqueue at capacity should evict, not refuse")
	}
	drained := o.Drain()
	if len(drained) != 3 {
		t.Fatalf("drained = %d, want 3", len(drained))
	}
	// The critical survives; message 1 was the eviction victim.
	if drained[0].Envelope.D != "m0" || drained[1].Envelope.D != "m2" || drained[2].Envelope.D != "m3" {
		t.Fatalf("drained order = %v %v %v", drained[0].Envelope.D, drained[1].Envelope.D, drained[2].Envelope.D)
	}
}

func TestOutboxCriticalGrowsPastFullCriticalQueue(t *testing.T) {
	o := NewOutbox(2, nil, logging.NewMetrics(), nil)
	o.Enqueue(message("td/all/res", true, 0))
	o.Enqueue(message("td/all/res", true, 1))

	if o.Enqueue(message("td/all/res", false, 2)) {
		t.Fatal("non-critical should drop when the queue is all critical")
	}
	if !o.Enqueue(message("td/all/res", true, 3)) {
		t.Fatal("critical must never drop")
	}
	if got := o.Pending(); got != 3 {
		t.Fatalf("pending = %d, want 3", got)
	}
}

func TestOutboxRequeueKeepsCriticalsOnly(t *testing.T) {
	metrics := logging.NewMetrics()
	o := NewOutbox(10, nil, metrics, nil)
	o.Requeue([]proto.Message{
		message("td/all/res", true, 0),
		message("td/all/res", false, 1),
	})
	o.Enqueue(message("td/all/res", false, 2))

	drained := o.Drain()
	if len(drained) != 2 {
		t.Fatalf("drained = %d, want 2", len(drained))
	}
	// Requeued criticals go out before fresh traffic.
	if drained[0].Envelope.D != "m0" {
		t.Fatalf("first drained = %v, want requeued critical", drained[0].Envelope.D)
	}
	if got := metrics.TelemetryValue("outbox_dropped_total"); got != 1 {
		t.Fatalf("dropped counter = %d, want 1", got)
	}
}

func TestOutboxDrainEmpties(t *testing.T) {
	o := NewOutbox(4, nil, logging.NewMetrics(), nil)
	o.Enqueue(message("td/all/res", false, 0))
	if got := len(o.Drain()); got != 1 {
		t.Fatalf("first drain = %d, want 1", got)
	}
	if o.Drain() != nil {
		t.Fatal("second drain should be empty")
	}
}
