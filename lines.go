package dis

import (
	"errors"
	"fmt"

	"periph.io/x/conn/v3/gpio"
)

// lines holds the three bus pins.
//
// Callers hold Dev.mu around every write, which orders each pin access
// against everything before and after it.
type lines struct {
	clock  gpio.PinOut
	data   gpio.PinOut
	enable gpio.PinOut
}

func newLines(clock, data, enable gpio.PinOut) (*lines, error) {
	if clock == nil || data == nil || enable == nil {
		return nil, errors.New("dis: clock, data and enable pins are required")
	}
	if clock == data || clock == enable || data == enable {
		return nil, errors.New("dis: clock, data and enable must be distinct pins")
	}
	return &lines{clock: clock, data: data, enable: enable}, nil
}

func (l *lines) pin(line Line) gpio.PinOut {
	switch line {
	case Clock:
		return l.clock
	case Data:
		return l.data
	default:
		return l.enable
	}
}

// apply drives every action in order and stops at the first failure.
func (l *lines) apply(actions []Action) error {
	for _, a := range actions {
		if err := l.pin(a.Line).Out(a.Level); err != nil {
			return fmt.Errorf("dis: failed to drive %s %s: %w", a.Line, a.Level, err)
		}
	}
	return nil
}

// idle drives the safe pattern. Unlike apply it tries every line even when
// one fails, and returns the first error.
func (l *lines) idle() error {
	var first error
	for _, a := range idlePattern {
		if err := l.pin(a.Line).Out(a.Level); err != nil && first == nil {
			first = fmt.Errorf("dis: failed to drive %s %s: %w", a.Line, a.Level, err)
		}
	}
	return first
}
