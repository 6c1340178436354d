package sim

import "testing"

type recordingMetrics struct {
	adds   map[string]uint64
	stores map[string]uint64
}

func newRecordingMetrics() *recordingMetrics {
	return &recordingMetrics{adds: map[string]uint64{}, stores: map[string]uint64{}}
}

func (m *recordingMetrics) Add(key string, delta uint64)   { m.adds[key] += delta }
func (m *recordingMetrics) Store(key string, value uint64) { m.stores[key] = value }

func TestCommandBufferFIFO(t *testing.T) {
	buffer := NewCommandBuffer(4, nil)
	for i := 0; i < 3; i++ {
		if !buffer.Push(Command{OriginTick: uint64(i)}) {
			t.Fatalf("push %d failed", i)
		}
	}
	drained := buffer.Drain()
	if len(drained) != 3 {
		t.Fatalf("expected 3 commands, got %d", len(drained))
	}
	for i, cmd := range drained {
		if cmd.OriginTick != uint64(i) {
			t.Fatalf("expected FIFO order, got %d at %d", cmd.OriginTick, i)
		}
	}
	if buffer.Len() != 0 {
		t.Fatalf("expected empty buffer after drain")
	}
}

func TestCommandBufferOverflow(t *testing.T) {
	metrics := newRecordingMetrics()
	buffer := NewCommandBuffer(2, metrics)
	buffer.Push(Command{})
	buffer.Push(Command{})
	if buffer.Push(Command{}) {
		t.Fatalf("expected push to fail at capacity")
	}
	if metrics.adds[commandBufferOverflowMetricKey] != 1 {
		t.Fatalf("expected overflow metric increment")
	}
	if metrics.stores[commandBufferOccupancyMetricKey] != 2 {
		t.Fatalf("expected occupancy 2, got %d", metrics.stores[commandBufferOccupancyMetricKey])
	}
}

func TestCommandBufferRefillsAfterDrain(t *testing.T) {
	buffer := NewCommandBuffer(2, nil)
	buffer.Push(Command{OriginTick: 1})
	first := buffer.Drain()
	buffer.Push(Command{OriginTick: 2})
	buffer.Push(Command{OriginTick: 3})
	drained := buffer.Drain()
	if len(drained) != 2 || drained[0].OriginTick != 2 || drained[1].OriginTick != 3 {
		t.Fatalf("unexpected drain after refill: %+v", drained)
	}
	// The handed-off slice must not be clobbered by later pushes.
	if len(first) != 1 || first[0].OriginTick != 1 {
		t.Fatalf("earlier drain mutated: %+v", first)
	}
}
