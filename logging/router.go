package logging

import (
	"context"
	"log"
	"os"
	"sync"
	"sync/atomic"
	"time"
)

type Clock interface {
	Now() time.Time
}

type ClockFunc func() time.Time

func (f ClockFunc) Now() time.Time {
	return f()
}

type Sink interface {
	Write(Event) error
	Close(context.Context) error
}

type NamedSink struct {
	Name string
	Sink Sink
}

// Router fans events out to its sinks through a buffered inbox. Publish never
// blocks the simulation: when the inbox or a sink lane is full the event is
// dropped and counted instead.
type Router struct {
	cfg         Config
	inbox       chan Event
	lanes       []*sinkLane
	clock       Clock
	fallback    *log.Logger
	ctx         context.Context
	cancel      context.CancelFunc
	closed      atomic.Bool
	minSeverity Severity
	fields      map[string]any
	wg          sync.WaitGroup

	published   atomic.Uint64
	dropped     atomic.Uint64
	nextDropLog atomic.Int64
}

type RouterStats struct {
	EventsTotal  uint64
	DroppedTotal uint64
}

func NewRouter(clock Clock, cfg Config, namedSinks []NamedSink) (*Router, error) {
	if clock == nil {
		clock = ClockFunc(time.Now)
	}
	inboxSize := cfg.BufferSize
	if inboxSize <= 0 {
		inboxSize = 512
	}
	laneSize := min(max(inboxSize, 32), 1024)

	ctx, cancel := context.WithCancel(context.Background())
	r := &Router{
		cfg:         cfg,
		inbox:       make(chan Event, inboxSize),
		clock:       clock,
		fallback:    log.New(os.Stderr, "[logging] ", log.LstdFlags),
		ctx:         ctx,
		cancel:      cancel,
		minSeverity: cfg.MinimumSeverity,
		fields:      cfg.CloneFields(),
	}
	for _, named := range namedSinks {
		if named.Sink == nil {
			continue
		}
		r.lanes = append(r.lanes, &sinkLane{
			name:    named.Name,
			sink:    named.Sink,
			pending: make(chan Event, laneSize),
			router:  r,
		})
	}

	r.wg.Add(1)
	go r.dispatch()
	for _, lane := range r.lanes {
		r.wg.Add(1)
		go func(l *sinkLane) {
			defer r.wg.Done()
			l.run()
		}(lane)
	}
	return r, nil
}

// dispatch owns the lanes: it alone forwards into them and closes them on
// shutdown, after flushing whatever Publish queued before Close.
func (r *Router) dispatch() {
	defer func() {
		for _, lane := range r.lanes {
			close(lane.pending)
		}
		r.wg.Done()
	}()
	for {
		select {
		case <-r.ctx.Done():
			for {
				select {
				case event := <-r.inbox:
					r.forward(event)
				default:
					return
				}
			}
		case event := <-r.inbox:
			r.forward(event)
		}
	}
}

func (r *Router) forward(event Event) {
	if event.Severity < r.minSeverity {
		return
	}
	if event.Time.IsZero() {
		event.Time = r.clock.Now()
	}
	if len(r.fields) > 0 {
		event = cloneForFields(event)
		if event.Extra == nil {
			event.Extra = make(map[string]any, len(r.fields))
		}
		for k, v := range r.fields {
			if _, exists := event.Extra[k]; !exists {
				event.Extra[k] = v
			}
		}
	}
	r.published.Add(1)
	for _, lane := range r.lanes {
		lane.enqueue(event)
	}
}

func (r *Router) Publish(ctx context.Context, event Event) {
	if event.Type == "" || r.closed.Load() {
		return
	}
	select {
	case r.inbox <- event:
	default:
		r.noteDrop(event)
	}
}

// noteDrop counts the loss and warns at most once per interval so a sustained
// overflow cannot itself flood stderr.
func (r *Router) noteDrop(event Event) {
	r.dropped.Add(1)
	interval := r.cfg.DropWarnInterval
	if interval <= 0 {
		interval = 5 * time.Second
	}
	now := time.Now().UnixNano()
	next := r.nextDropLog.Load()
	if next == 0 || now >= next {
		if r.nextDropLog.CompareAndSwap(next, now+interval.Nanoseconds()) {
			r.fallback.Printf("dropping event type=%s tick=%d", event.Type, event.Tick)
		}
	}
}

func (r *Router) Close(ctx context.Context) error {
	if !r.closed.CompareAndSwap(false, true) {
		<-ctx.Done()
		return ctx.Err()
	}
	r.cancel()
	done := make(chan struct{})
	go func() {
		r.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-ctx.Done():
		return ctx.Err()
	}
	var firstErr error
	for _, lane := range r.lanes {
		if err := lane.sink.Close(ctx); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

func (r *Router) Stats() RouterStats {
	return RouterStats{
		EventsTotal:  r.published.Load(),
		DroppedTotal: r.dropped.Load(),
	}
}

func (r *Router) Sink(name string) Sink {
	for _, lane := range r.lanes {
		if lane.name == name {
			return lane.sink
		}
	}
	return nil
}

// sinkLane decouples one sink from the rest: a slow or failing sink backs up
// its own channel and sheds load there, never the dispatcher.
type sinkLane struct {
	name    string
	sink    Sink
	pending chan Event
	router  *Router
	backoff int
	retryAt time.Time
}

func (l *sinkLane) enqueue(event Event) {
	select {
	case l.pending <- cloneForFields(event):
	default:
		l.router.dropped.Add(1)
		l.router.fallback.Printf("sink %s backlog full dropping event type=%s", l.name, event.Type)
	}
}

func (l *sinkLane) run() {
	for event := range l.pending {
		if wait := time.Until(l.retryAt); l.backoff > 0 && wait > 0 {
			time.Sleep(wait)
		}
		if err := l.sink.Write(event); err != nil {
			l.backoff++
			delay := time.Duration(1<<min(l.backoff, 5)) * time.Second
			l.retryAt = time.Now().Add(delay)
			l.router.fallback.Printf("sink %s failed: %v (retry in %s)", l.name, err, delay)
			continue
		}
		l.backoff = 0
		l.retryAt = time.Time{}
	}
}
