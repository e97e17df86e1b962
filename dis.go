// Package dis drives the text display of an automotive instrument cluster
// (DIS) over its three-wire synchronous serial bus.
//
// See the examples for how to use this package.
package dis

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/golang/glog"
	"periph.io/x/conn/v3"
	"periph.io/x/conn/v3/gpio"

	"periph.io/x/devices/v3/dis/frame"
)

var (
	// ErrBusy is returned by Submit while a transmission is in flight.
	ErrBusy = errors.New("dis: transmission in progress")
	// ErrHalted is returned once the device has been halted.
	ErrHalted = errors.New("dis: halted")
)

// Timing holds the bus delays. Zero fields take the DefaultTiming value, so
// a delay cannot be set to exactly 0; use 1ns for the shortest Arm delay.
type Timing struct {
	Start     time.Duration // enable high before the settle window
	Settle    time.Duration // enable low before the start pulse
	Arm       time.Duration // enable high before the first bit
	ClockLow  time.Duration // data presented, clock low
	ClockHigh time.Duration // clock high, receiver samples
}

// DefaultTiming is what the cluster expects.
var DefaultTiming = Timing{
	Start:     500 * time.Microsecond,
	Settle:    400 * time.Microsecond,
	Arm:       100 * time.Nanosecond,
	ClockLow:  200 * time.Microsecond,
	ClockHigh: 100 * time.Microsecond,
}

func (t Timing) withDefaults() Timing {
	def := func(v *time.Duration, d time.Duration) {
		if *v == 0 {
			*v = d
		}
	}
	def(&t.Start, DefaultTiming.Start)
	def(&t.Settle, DefaultTiming.Settle)
	def(&t.Arm, DefaultTiming.Arm)
	def(&t.ClockLow, DefaultTiming.ClockLow)
	def(&t.ClockHigh, DefaultTiming.ClockHigh)
	return t
}

func (t Timing) validate() error {
	for _, d := range []time.Duration{t.Start, t.Settle, t.Arm, t.ClockLow, t.ClockHigh} {
		if d < 0 {
			return errors.New("dis: timing values must not be negative")
		}
	}
	return nil
}

// Opts is the configuration for the display bus.
type Opts struct {
	// Bus lines, all required.
	Clock  gpio.PinOut
	Data   gpio.PinOut
	Enable gpio.PinOut

	// Timer paces the transmission. Defaults to a HostTimer owned by the
	// device and closed on Halt.
	Timer Timer

	Timing Timing

	// SendAllBytes always transmits the full frame. By default a zero byte
	// ends the transmission, which cuts off a checksum that happens to be 0.
	SendAllBytes bool
}

// Status is a snapshot of the device.
type Status struct {
	State   State
	Byte    int // cursor into the frame
	Bit     int // next bit of the current byte, MSB first
	Frame   frame.Frame
	Sent    uint64 // completed transmissions
	Busy    uint64 // submissions rejected with ErrBusy
	Aborted uint64 // transmissions cut short by a timer or pin failure
	LastErr error
}

func (s Status) String() string {
	return fmt.Sprintf("%s byte=%d bit=%d sent=%d busy=%d aborted=%d",
		s.State, s.Byte, s.Bit, s.Sent, s.Busy, s.Aborted)
}

// Dev is the handle to the display bus.
type Dev struct {
	timer    Timer
	ownTimer bool
	timing   Timing
	sendAll  bool

	mu      sync.Mutex
	lines   *lines
	sess    session
	frame   frame.Frame
	gen     uint64        // bumped whenever a chain starts or is torn down
	idle    chan struct{} // closed when the session goes back to Idle
	halted  bool
	sent    uint64
	busy    uint64
	aborted uint64
	lastErr error
}

// New returns a handle to the display bus and drives the lines to their idle
// pattern: clock high, data high, enable low.
func New(opts *Opts) (*Dev, error) {
	if opts == nil {
		return nil, errors.New("dis: options are required")
	}
	l, err := newLines(opts.Clock, opts.Data, opts.Enable)
	if err != nil {
		return nil, err
	}
	timing := opts.Timing.withDefaults()
	if err := timing.validate(); err != nil {
		return nil, err
	}

	d := &Dev{
		timer:   opts.Timer,
		timing:  timing,
		sendAll: opts.SendAllBytes,
		lines:   l,
		idle:    make(chan struct{}),
	}
	close(d.idle)
	if d.timer == nil {
		d.timer = NewHostTimer()
		d.ownTimer = true
	}

	// The first Out call switches each pin to output mode.
	if err := l.idle(); err != nil {
		return nil, err
	}
	glog.Infof("dis: display ready on %s/%s/%s", opts.Clock, opts.Data, opts.Enable)
	return d, nil
}

// Submit queues text for transmission and returns how many of its bytes made
// it into the frame. Text longer than the payload is truncated.
//
// Submit never waits for the transmission. It fails with ErrBusy, and has no
// effect, while a previous message is still being sent.
func (d *Dev) Submit(text string) (int, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.halted {
		return 0, ErrHalted
	}
	if d.sess.state != Idle {
		d.busy++
		glog.V(2).Infof("dis: busy, rejected %q", text)
		return 0, ErrBusy
	}

	n := frame.Accepted(text)
	if n < len(text) {
		glog.Warningf("dis: message truncated to %d bytes: %q", n, text)
	}
	d.frame = frame.Encode(text)
	d.gen++
	d.idle = make(chan struct{})
	glog.V(2).Infof("dis: sending %q [%s]", d.frame.Payload(), d.frame)

	step := d.sess.start(d.frame, &d.timing, d.sendAll)
	if err := d.advance(d.gen, step); err != nil {
		return 0, err
	}
	return n, nil
}

// Write implements io.Writer on top of Submit. A single trailing newline is
// dropped, so that `echo TEXT` style writes show TEXT.
func (d *Dev) Write(p []byte) (int, error) {
	msg := bytes.TrimSuffix(p, []byte("\n"))
	msg = bytes.TrimSuffix(msg, []byte("\r"))
	if _, err := d.Submit(string(msg)); err != nil {
		return 0, err
	}
	return len(p), nil
}

// expire is the timer callback for chain generation gen.
func (d *Dev) expire(gen uint64) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if gen != d.gen || d.sess.state == Idle {
		// Torn down or superseded while this expiry was pending.
		return
	}
	prev := d.sess.state
	step := d.sess.tick(&d.timing)
	if glog.V(4) {
		glog.Infof("dis: %s -> %s byte=%d bit=%d", prev, d.sess.state, d.sess.byteIdx, d.sess.bitIdx)
	}
	d.step(gen, step)
}

// step is advance for timer callbacks: nobody waits on an expiry, and abort
// has already logged the failure and kept it in lastErr.
func (d *Dev) step(gen uint64, step Step) {
	if err := d.advance(gen, step); err != nil {
		glog.V(2).Infof("dis: expiry stopped the chain: %v", err)
	}
}

// advance applies step and arms the next expiry. A pin or timer failure
// aborts the session and leaves the lines idle. Callers hold d.mu.
func (d *Dev) advance(gen uint64, step Step) error {
	if err := d.lines.apply(step.Actions); err != nil {
		d.abort(err)
		return err
	}
	if step.Done {
		d.sent++
		glog.V(2).Infof("dis: frame sent")
		d.finish()
		return nil
	}
	if err := d.timer.Arm(step.Delay, func() { d.expire(gen) }); err != nil {
		err = fmt.Errorf("dis: failed to schedule %s: %w", d.sess.state, err)
		d.abort(err)
		return err
	}
	return nil
}

// abort tears down the session after a failure. Callers hold d.mu.
func (d *Dev) abort(err error) {
	glog.Errorf("%v; transmission aborted in %s at byte %d", err, d.sess.state, d.sess.byteIdx)
	d.aborted++
	d.lastErr = err
	d.gen++
	d.timer.Cancel()
	d.sess.reset()
	if ierr := d.lines.idle(); ierr != nil {
		glog.Errorf("%v", ierr)
	}
	d.finish()
}

// finish wakes up waiters once the session is idle. Callers hold d.mu.
func (d *Dev) finish() {
	select {
	case <-d.idle:
	default:
		close(d.idle)
	}
}

// Wait blocks until no transmission is in flight or ctx is done.
func (d *Dev) Wait(ctx context.Context) error {
	d.mu.Lock()
	idle := d.idle
	d.mu.Unlock()
	select {
	case <-idle:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Status returns a snapshot of the session and counters.
func (d *Dev) Status() Status {
	d.mu.Lock()
	defer d.mu.Unlock()
	return Status{
		State:   d.sess.state,
		Byte:    d.sess.byteIdx,
		Bit:     d.sess.bitIdx,
		Frame:   d.frame,
		Sent:    d.sent,
		Busy:    d.busy,
		Aborted: d.aborted,
		LastErr: d.lastErr,
	}
}

// Halt aborts any transmission in flight, forces the lines to their idle
// pattern and stops accepting messages.
func (d *Dev) Halt() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.halted {
		return nil
	}
	d.halted = true
	d.gen++
	d.timer.Cancel()
	if d.sess.state != Idle {
		glog.Warningf("dis: halted in %s at byte %d", d.sess.state, d.sess.byteIdx)
	}
	d.sess.reset()
	d.finish()
	err := d.lines.idle()
	if c, ok := d.timer.(io.Closer); ok && d.ownTimer {
		if cerr := c.Close(); err == nil {
			err = cerr
		}
	}
	glog.Info("dis: display halted")
	return err
}

// String returns a string representation of the device.
func (d *Dev) String() string {
	return fmt.Sprintf("dis.Dev{%s, %s, %s}", d.lines.clock, d.lines.data, d.lines.enable)
}

var _ conn.Resource = &Dev{}
var _ io.Writer = &Dev{}
