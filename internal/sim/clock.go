package sim

const (
	// DefaultTPS is the reference simulation rate.
	DefaultTPS = 10
	// MaxDelta caps a single step's delta time. An overrunning tick never
	// compensates by simulating more than one second at once.
	MaxDelta = 1.0
	// DayCycleFactor scales real seconds into time-of-day seconds.
	DayCycleFactor = 24.0

	secondsPerDay = 86400.0
)

// Clock tracks simulated time across fixed steps.
type Clock struct {
	TPS       int
	TickID    uint64
	Time      float64
	Delta     float64
	TimeOfDay float64

	dayCycleFactor float64
}

func NewClock(tps int) *Clock {
	if tps <= 0 {
		tps = DefaultTPS
	}
	return &Clock{TPS: tps, dayCycleFactor: DayCycleFactor}
}

// Step returns the nominal step duration in seconds.
func (c *Clock) Step() float64 {
	return 1.0 / float64(c.TPS)
}

// Advance moves the clock forward by dt seconds, capping the delta to keep
// the simulation stable after stalls.
func (c *Clock) Advance(dt float64) {
	if c == nil {
		return
	}
	if dt <= 0 {
		dt = c.Step()
	}
	if dt > MaxDelta {
		dt = MaxDelta
	}
	c.TickID++
	c.Delta = dt
	c.Time += dt
	c.TimeOfDay += dt * c.dayCycleFactor
	for c.TimeOfDay >= secondsPerDay {
		c.TimeOfDay -= secondsPerDay
	}
}
