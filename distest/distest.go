// Package distest provides a simulated DIS bus for tests: recording pins and
// a timer that only fires when told to.
package distest

import (
	"errors"
	"sync"
	"time"

	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/gpio/gpiotest"
)

// Edge is one recorded pin write.
type Edge struct {
	Pin   string
	Level gpio.Level
}

// Bus records writes to its pins in the order they happen.
type Bus struct {
	Clock  *Pin
	Data   *Pin
	Enable *Pin

	mu    sync.Mutex
	edges []Edge
}

// NewBus returns a bus with three pins named CLK, DATA and ENA.
func NewBus() *Bus {
	b := &Bus{}
	b.Clock = &Pin{Pin: &gpiotest.Pin{N: "CLK", Num: 14}, bus: b}
	b.Data = &Pin{Pin: &gpiotest.Pin{N: "DATA", Num: 15}, bus: b}
	b.Enable = &Pin{Pin: &gpiotest.Pin{N: "ENA", Num: 18}, bus: b}
	return b
}

// Edges returns a copy of the recorded writes.
func (b *Bus) Edges() []Edge {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]Edge(nil), b.edges...)
}

// Count returns how many times pin was driven to level.
func (b *Bus) Count(pin string, level gpio.Level) int {
	n := 0
	for _, e := range b.Edges() {
		if e.Pin == pin && e.Level == level {
			n++
		}
	}
	return n
}

// Reset forgets recorded writes.
func (b *Bus) Reset() {
	b.mu.Lock()
	b.edges = nil
	b.mu.Unlock()
}

// Levels returns the current clock, data and enable levels.
func (b *Bus) Levels() (clock, data, enable gpio.Level) {
	return b.Clock.Read(), b.Data.Read(), b.Enable.Read()
}

// Pin is a gpiotest.Pin that records every Out call on its Bus.
type Pin struct {
	*gpiotest.Pin

	bus *Bus
	mu  sync.Mutex
	err error
}

// Out implements gpio.PinOut.
func (p *Pin) Out(l gpio.Level) error {
	p.mu.Lock()
	err := p.err
	p.mu.Unlock()
	if err != nil {
		return err
	}
	p.bus.mu.Lock()
	p.bus.edges = append(p.bus.edges, Edge{Pin: p.Name(), Level: l})
	p.bus.mu.Unlock()
	return p.Pin.Out(l)
}

// Fail makes subsequent Out calls return err. A nil err clears the failure.
func (p *Pin) Fail(err error) {
	p.mu.Lock()
	p.err = err
	p.mu.Unlock()
}

// ErrFired is returned by Fire when nothing is pending.
var ErrFired = errors.New("distest: no pending expiry")

// Timer is a dis.Timer driven by hand.
type Timer struct {
	mu      sync.Mutex
	fn      func()
	delay   time.Duration
	delays  []time.Duration
	failIn  int
	failErr error
}

// Arm implements dis.Timer.
func (t *Timer) Arm(d time.Duration, fn func()) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.failErr != nil {
		if t.failIn == 0 {
			return t.failErr
		}
		t.failIn--
	}
	t.fn, t.delay = fn, d
	t.delays = append(t.delays, d)
	return nil
}

// Cancel implements dis.Timer.
func (t *Timer) Cancel() {
	t.mu.Lock()
	t.fn = nil
	t.mu.Unlock()
}

// FailAfter lets n more Arm calls succeed, then fails every later one with
// err.
func (t *Timer) FailAfter(n int, err error) {
	t.mu.Lock()
	t.failIn, t.failErr = n, err
	t.mu.Unlock()
}

// Pending returns the delay of the armed expiry.
func (t *Timer) Pending() (time.Duration, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.delay, t.fn != nil
}

// Delays returns every delay the timer was armed with.
func (t *Timer) Delays() []time.Duration {
	t.mu.Lock()
	defer t.mu.Unlock()
	return append([]time.Duration(nil), t.delays...)
}

// Fire runs the pending callback.
func (t *Timer) Fire() error {
	t.mu.Lock()
	fn := t.fn
	t.fn = nil
	t.mu.Unlock()
	if fn == nil {
		return ErrFired
	}
	fn()
	return nil
}

// Run fires expiries until none is pending and returns how many ran.
func (t *Timer) Run() int {
	n := 0
	for t.Fire() == nil {
		n++
	}
	return n
}

// Stale returns the pending callback without clearing it, to simulate an
// expiry that was already running when it got cancelled.
func (t *Timer) Stale() func() {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.fn
}
