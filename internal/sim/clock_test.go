package sim

import (
	"math"
	"testing"
)

func TestClockAdvanceAccumulates(t *testing.T) {
	clock := NewClock(10)
	clock.Advance(0.1)
	clock.Advance(0.1)

	if clock.TickID != 2 {
		t.Fatalf("expected tick 2, got %d", clock.TickID)
	}
	if math.Abs(clock.Time-0.2) > 1e-9 {
		t.Fatalf("expected time 0.2, got %f", clock.Time)
	}
	if math.Abs(clock.Delta-0.1) > 1e-9 {
		t.Fatalf("expected delta 0.1, got %f", clock.Delta)
	}
}

func TestClockCapsDelta(t *testing.T) {
	clock := NewClock(10)
	clock.Advance(5.0)
	if clock.Delta != MaxDelta {
		t.Fatalf("expected delta capped at %f, got %f", MaxDelta, clock.Delta)
	}
	if clock.Time != MaxDelta {
		t.Fatalf("expected time %f, got %f", MaxDelta, clock.Time)
	}
}

func TestClockTimeOfDayScalesAndWraps(t *testing.T) {
	clock := NewClock(10)
	clock.Advance(1.0)
	if math.Abs(clock.TimeOfDay-DayCycleFactor) > 1e-9 {
		t.Fatalf("expected time of day %f, got %f", DayCycleFactor, clock.TimeOfDay)
	}

	for clock.TimeOfDay < secondsPerDay-DayCycleFactor {
		clock.Advance(1.0)
	}
	before := clock.TimeOfDay
	clock.Advance(1.0)
	if clock.TimeOfDay >= before && clock.TimeOfDay >= secondsPerDay {
		t.Fatalf("expected time of day to wrap below %f, got %f", secondsPerDay, clock.TimeOfDay)
	}
}

func TestClockZeroDeltaFallsBackToStep(t *testing.T) {
	clock := NewClock(10)
	clock.Advance(0)
	if math.Abs(clock.Delta-0.1) > 1e-9 {
		t.Fatalf("expected nominal step 0.1, got %f", clock.Delta)
	}
}
