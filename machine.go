package dis

import (
	"time"

	"periph.io/x/conn/v3/gpio"

	"periph.io/x/devices/v3/dis/frame"
)

// State is the protocol state of the transmission session.
type State uint8

const (
	Idle State = iota
	LineSettle
	ArmEnable
	SendBit
	ClockPulse
)

func (s State) String() string {
	switch s {
	case Idle:
		return "Idle"
	case LineSettle:
		return "LineSettle"
	case ArmEnable:
		return "ArmEnable"
	case SendBit:
		return "SendBit"
	case ClockPulse:
		return "ClockPulse"
	}
	return "State(?)"
}

// Line identifies one of the three bus lines.
type Line uint8

const (
	Clock Line = iota
	Data
	Enable
)

func (l Line) String() string {
	switch l {
	case Clock:
		return "clock"
	case Data:
		return "data"
	case Enable:
		return "enable"
	}
	return "line(?)"
}

// Action drives one line to a level.
type Action struct {
	Line  Line
	Level gpio.Level
}

// Step is the outcome of one timer expiry: the line changes to apply now and
// the delay before the next expiry. When Done is set no further expiry is
// wanted and Delay is meaningless.
type Step struct {
	Actions []Action
	Delay   time.Duration
	Done    bool
}

// idlePattern is driven when a transmission ends or is torn down.
var idlePattern = []Action{
	{Enable, gpio.Low},
	{Data, gpio.High},
	{Clock, gpio.High},
}

// session is the in-flight transmission. It owns the transmit buffer and
// cursors; nothing but tick mutates them while state != Idle.
type session struct {
	state   State
	buf     [frame.MaxLen]byte
	limit   int
	sendAll bool
	byteIdx int
	bitIdx  int
}

// start installs f and returns the entry step: enable high, then the first
// expiry into LineSettle. sendAll disables the zero-byte terminator.
func (s *session) start(f frame.Frame, t *Timing, sendAll bool) Step {
	s.buf = [frame.MaxLen]byte{}
	copy(s.buf[:], f[:])
	s.sendAll = sendAll
	s.limit = frame.MaxLen
	if sendAll {
		s.limit = frame.Size
	}
	s.byteIdx, s.bitIdx = 0, 0
	s.state = LineSettle
	return Step{
		Actions: []Action{{Enable, gpio.High}},
		Delay:   t.Start,
	}
}

// reset drops the session and returns the idle line pattern.
func (s *session) reset() Step {
	s.state = Idle
	return Step{Actions: idlePattern, Done: true}
}

// tick advances the protocol by one timer expiry.
func (s *session) tick(t *Timing) Step {
	switch s.state {
	case LineSettle:
		s.state = ArmEnable
		return Step{Actions: []Action{{Enable, gpio.Low}}, Delay: t.Settle}

	case ArmEnable:
		s.state = SendBit
		return Step{Actions: []Action{{Enable, gpio.High}}, Delay: t.Arm}

	case SendBit:
		if s.byteIdx >= s.limit || (!s.sendAll && s.buf[s.byteIdx] == 0) {
			return s.reset()
		}
		bit := (s.buf[s.byteIdx] >> (7 - s.bitIdx)) & 1
		// The receiver reads the data line inverted.
		data := gpio.High
		if bit == 1 {
			data = gpio.Low
		}
		s.bitIdx++
		if s.bitIdx == 8 {
			s.bitIdx = 0
			s.byteIdx++
		}
		s.state = ClockPulse
		return Step{
			Actions: []Action{{Data, data}, {Clock, gpio.Low}},
			Delay:   t.ClockLow,
		}

	case ClockPulse:
		s.state = SendBit
		return Step{Actions: []Action{{Clock, gpio.High}}, Delay: t.ClockHigh}
	}

	// Idle: a stale expiry has nothing to do.
	return Step{Done: true}
}
