// Package refresh debounces and coalesces render requests.
//
// A Coordinator runs at most one pass at a time. Requests arriving while a
// pass runs collapse into exactly one follow-up pass, however many there
// are; a burst of requests inside the debounce window yields a single pass
// once the burst settles.
package refresh

import (
	"context"
	"sync"
	"time"
)

// DefaultDelay is the debounce window used by Request.
const DefaultDelay = 200 * time.Millisecond

// State is the coordinator's run state.
type State int

const (
	Idle State = iota
	Running
	RunningWithPending
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Running:
		return "running"
	case RunningWithPending:
		return "running-with-pending"
	}
	return "unknown"
}

// Observer is notified of pass activity, for metrics. Methods are called
// without the coordinator's lock held.
type Observer interface {
	PassCompleted(d time.Duration)
	RequestCoalesced()
}

// Option configures a Coordinator.
type Option func(*Coordinator)

// WithDelay sets the debounce window. Non-positive values are ignored.
func WithDelay(d time.Duration) Option {
	return func(c *Coordinator) {
		if d > 0 {
			c.delay = d
		}
	}
}

// WithObserver reports activity to o.
func WithObserver(o Observer) Option {
	return func(c *Coordinator) { c.observer = o }
}

// Coordinator schedules passes.
type Coordinator struct {
	pass     func(ctx context.Context)
	delay    time.Duration
	observer Observer

	mu     sync.Mutex
	state  State
	timer  *time.Timer
	gen    uint64
	closed bool
	wg     sync.WaitGroup
}

// New returns an idle coordinator that runs pass.
func New(pass func(ctx context.Context), opts ...Option) *Coordinator {
	c := &Coordinator{pass: pass, delay: DefaultDelay}
	for _, o := range opts {
		o(c)
	}
	return c
}

// State returns the current state.
func (c *Coordinator) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Delay returns the debounce window.
func (c *Coordinator) Delay() time.Duration { return c.delay }

// Request schedules a pass after the debounce window, replacing any
// pending schedule.
func (c *Coordinator) Request() { c.RequestAfter(c.delay) }

// RequestAfter is Request with an explicit delay.
func (c *Coordinator) RequestAfter(d time.Duration) {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	// A timer that already fired but has not run yet is still pending; the
	// gen bump below makes it a no-op.
	replaced := c.timer != nil
	if replaced {
		c.timer.Stop()
	}
	c.gen++
	gen := c.gen
	c.timer = time.AfterFunc(d, func() { c.fire(gen) })
	c.mu.Unlock()

	if replaced {
		c.coalesced()
	}
}

// fire ignores timers that were replaced after they had already started.
func (c *Coordinator) fire(gen uint64) {
	c.mu.Lock()
	current := gen == c.gen && !c.closed
	if current {
		c.timer = nil
	}
	c.mu.Unlock()
	if current {
		c.RunOnce()
	}
}

// RunOnce runs a pass now. If a pass is already running it records one
// pending continuation and returns at once; otherwise it runs passes until
// one completes without a new request.
func (c *Coordinator) RunOnce() {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	switch c.state {
	case Running:
		c.state = RunningWithPending
		c.mu.Unlock()
		return
	case RunningWithPending:
		c.mu.Unlock()
		c.coalesced()
		return
	}
	c.state = Running
	c.wg.Add(1)
	c.mu.Unlock()
	defer c.wg.Done()

	for {
		start := time.Now()
		c.pass(context.Background())
		if c.observer != nil {
			c.observer.PassCompleted(time.Since(start))
		}

		c.mu.Lock()
		if c.state == RunningWithPending && !c.closed {
			c.state = Running
			c.mu.Unlock()
			continue
		}
		c.state = Idle
		c.mu.Unlock()
		return
	}
}

func (c *Coordinator) coalesced() {
	if c.observer != nil {
		c.observer.RequestCoalesced()
	}
}

// Close cancels any scheduled pass and waits for a running one to finish.
// Later requests are ignored. Close must not be called from inside a pass.
func (c *Coordinator) Close() {
	c.mu.Lock()
	c.closed = true
	c.gen++
	if c.timer != nil {
		c.timer.Stop()
		c.timer = nil
	}
	c.mu.Unlock()
	c.wg.Wait()
}
