package shell

import (
	"bytes"
	"context"
	"io/ioutil"
	"strings"
	"testing"
	"time"

	"github.com/abiosoft/readline"
	"github.com/stretchr/testify/require"

	"periph.io/x/devices/v3/dis"
	"periph.io/x/devices/v3/dis/distest"
)

func newTestShell(t *testing.T) (*Shell, *dis.Dev, *distest.Timer) {
	t.Helper()
	bus := distest.NewBus()
	timer := &distest.Timer{}
	dev, err := dis.New(&dis.Opts{Clock: bus.Clock, Data: bus.Data, Enable: bus.Enable, Timer: timer})
	require.NoError(t, err)
	// ishell.New needs a terminal; the commands only need the display.
	return &Shell{dev: dev, waitTimeout: 20 * time.Millisecond}, dev, timer
}

func TestSend(t *testing.T) {
	s, dev, timer := newTestShell(t)

	out, err := s.Send([]string{"NEWS", "FM"})
	require.NoError(t, err)
	require.Equal(t, "accepted 7 bytes", out)
	require.Equal(t, "NEWS FM        ", dev.Status().Frame.Payload())

	_, err = s.Send([]string{"again"})
	require.Equal(t, dis.ErrBusy, err)

	timer.Run()
	out, err = s.Send([]string{strings.Repeat("x", 20)})
	require.NoError(t, err)
	require.Equal(t, `accepted 15 of 20 bytes: "xxxxxxxxxxxxxxx"`, out)
}

func TestDescribe(t *testing.T) {
	s, _, timer := newTestShell(t)
	_, err := s.Send([]string{"HELLO"})
	require.NoError(t, err)
	timer.Run()

	out := s.Describe()
	require.Contains(t, out, "state:   Idle")
	require.Contains(t, out, `message: "HELLO          "`)
	require.Contains(t, out, "sent:    1")
	require.NotContains(t, out, "error:")
}

func TestWaitIdle(t *testing.T) {
	s, _, timer := newTestShell(t)
	require.NoError(t, s.WaitIdle())

	_, err := s.Send([]string{"HELLO"})
	require.NoError(t, err)
	require.Equal(t, context.DeadlineExceeded, s.WaitIdle())

	timer.Run()
	require.NoError(t, s.WaitIdle())
}

func TestCommands(t *testing.T) {
	_, dev, timer := newTestShell(t)
	var out bytes.Buffer
	s := NewWithConfig(dev, &readline.Config{
		Stdin:          ioutil.NopCloser(strings.NewReader("")),
		Stdout:         &out,
		Stderr:         &out,
		FuncIsTerminal: func() bool { return false },
	})

	require.NoError(t, s.Run("send", "HI"))
	require.Contains(t, out.String(), "accepted 2 bytes")
	require.Equal(t, "HI             ", dev.Status().Frame.Payload())

	require.Equal(t, dis.ErrBusy, s.Run("s", "again"))

	timer.Run()
	out.Reset()
	require.NoError(t, s.Run("status"))
	require.Contains(t, out.String(), "sent:    1")

	require.NoError(t, s.Run("wait"))
	require.NoError(t, s.Run("halt"))
	_, err := dev.Submit("HI")
	require.Equal(t, dis.ErrHalted, err)
}
