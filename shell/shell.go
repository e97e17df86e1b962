// Package shell provides an ishell backed console for a DIS display.
package shell

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/abiosoft/ishell"
	"github.com/abiosoft/readline"

	"periph.io/x/devices/v3/dis"
)

// Display is the part of dis.Dev the shell uses.
type Display interface {
	Submit(text string) (int, error)
	Status() dis.Status
	Wait(ctx context.Context) error
	Halt() error
}

// Shell is an interactive console bound to one display.
type Shell struct {
	Shell *ishell.Shell

	dev         Display
	waitTimeout time.Duration
}

const (
	shellKey = "$shell"
	prompt   = "dis > "

	// DefaultWaitTimeout bounds the wait command.
	DefaultWaitTimeout = 2 * time.Second
)

// New creates a shell for dev on the terminal.
func New(dev Display) *Shell {
	return newShell(dev, ishell.New())
}

// NewWithConfig creates a shell for dev with custom readline config, for
// example to run commands on other streams than the terminal.
func NewWithConfig(dev Display, conf *readline.Config) *Shell {
	return newShell(dev, ishell.NewWithConfig(conf))
}

func newShell(dev Display, sh *ishell.Shell) *Shell {
	s := &Shell{
		Shell:       sh,
		dev:         dev,
		waitTimeout: DefaultWaitTimeout,
	}
	s.Shell.Set(shellKey, s)
	s.Shell.SetPrompt(prompt)
	for _, cmd := range commands {
		s.Shell.AddCmd(cmd)
	}
	return s
}

// ShellFrom gets Shell from ishell context.
func ShellFrom(c *ishell.Context) *Shell {
	return c.Get(shellKey).(*Shell)
}

// Run runs args as a single command, or the interactive console when args is
// empty.
func (s *Shell) Run(args ...string) error {
	if len(args) > 0 {
		return s.Shell.Process(args...)
	}
	s.Shell.Run()
	return nil
}

// Send submits the words of args joined by spaces.
func (s *Shell) Send(args []string) (string, error) {
	text := strings.Join(args, " ")
	n, err := s.dev.Submit(text)
	if err != nil {
		return "", err
	}
	if n < len(text) {
		return fmt.Sprintf("accepted %d of %d bytes: %q", n, len(text), text[:n]), nil
	}
	return fmt.Sprintf("accepted %d bytes", n), nil
}

// Describe formats the display status.
func (s *Shell) Describe() string {
	st := s.dev.Status()
	var b strings.Builder
	fmt.Fprintf(&b, "state:   %s\n", st.State)
	fmt.Fprintf(&b, "cursor:  byte %d bit %d\n", st.Byte, st.Bit)
	fmt.Fprintf(&b, "frame:   %s\n", st.Frame)
	fmt.Fprintf(&b, "message: %q\n", st.Frame.Payload())
	fmt.Fprintf(&b, "sent:    %d\nbusy:    %d\naborted: %d", st.Sent, st.Busy, st.Aborted)
	if st.LastErr != nil {
		fmt.Fprintf(&b, "\nerror:   %v", st.LastErr)
	}
	return b.String()
}

// WaitIdle waits for the transmission in flight, if any.
func (s *Shell) WaitIdle() error {
	ctx, cancel := context.WithTimeout(context.Background(), s.waitTimeout)
	defer cancel()
	return s.dev.Wait(ctx)
}

var (
	commands = []*ishell.Cmd{
		&SendCmd,
		&StatusCmd,
		&WaitCmd,
		&HaltCmd,
	}

	// SendCmd submits a message.
	SendCmd = ishell.Cmd{
		Name:    "send",
		Aliases: []string{"s"},
		Help:    "TEXT...",
		Func: func(c *ishell.Context) {
			out, err := ShellFrom(c).Send(c.Args)
			if err != nil {
				c.Err(err)
				return
			}
			c.Println(out)
		},
	}

	// StatusCmd prints the display status.
	StatusCmd = ishell.Cmd{
		Name:    "status",
		Aliases: []string{"st"},
		Help:    "",
		Func: func(c *ishell.Context) {
			c.Println(ShellFrom(c).Describe())
		},
	}

	// WaitCmd waits until the display is idle.
	WaitCmd = ishell.Cmd{
		Name:    "wait",
		Aliases: []string{"w"},
		Help:    "",
		Func: func(c *ishell.Context) {
			if err := ShellFrom(c).WaitIdle(); err != nil {
				c.Err(err)
				return
			}
			c.Println("idle")
		},
	}

	// HaltCmd aborts any transmission and releases the lines.
	HaltCmd = ishell.Cmd{
		Name: "halt",
		Help: "",
		Func: func(c *ishell.Context) {
			if err := ShellFrom(c).dev.Halt(); err != nil {
				c.Err(err)
				return
			}
			c.Println("halted")
		},
	}
)
