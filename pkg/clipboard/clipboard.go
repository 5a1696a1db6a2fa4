// Package clipboard copies text to the system clipboard, falling back to an
// OSC 52 terminal escape sequence when no clipboard utility is available.
package clipboard

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/atotto/clipboard"
	"github.com/aymanbagabas/go-osc52/v2"
)

// ErrUnavailable is returned when every copy mechanism failed.
var ErrUnavailable = errors.New("clipboard unavailable")

// Method names the mechanism that performed a copy.
type Method string

const (
	MethodSystem Method = "system"
	MethodOSC52  Method = "osc52"
)

// Tests replace these through Stub.
var (
	writeSystem           = clipboard.WriteAll
	writeOSC52            = writeTerminal
	terminal    io.Writer = os.Stderr
)

func writeTerminal(text string) error {
	seq := osc52.New(text)
	if os.Getenv("TMUX") != "" {
		seq = seq.Tmux()
	} else if os.Getenv("STY") != "" {
		seq = seq.Screen()
	}
	_, err := seq.WriteTo(terminal)
	return err
}

// Copy places text on the clipboard. When the system clipboard fails and
// fallback is set, the OSC 52 sequence is written to the terminal instead.
func Copy(text string, fallback bool) (Method, error) {
	sysErr := writeSystem(text)
	if sysErr == nil {
		return MethodSystem, nil
	}
	if !fallback {
		return "", fmt.Errorf("%w: %v", ErrUnavailable, sysErr)
	}
	if err := writeOSC52(text); err != nil {
		return "", fmt.Errorf("%w: %v; osc52: %v", ErrUnavailable, sysErr, err)
	}
	return MethodOSC52, nil
}

// Stub replaces both mechanisms and returns a function restoring them. A nil
// argument makes that mechanism succeed without side effects.
func Stub(system, osc func(string) error) (restore func()) {
	origSystem, origOSC := writeSystem, writeOSC52
	if system == nil {
		system = func(string) error { return nil }
	}
	if osc == nil {
		osc = func(string) error { return nil }
	}
	writeSystem, writeOSC52 = system, osc
	return func() {
		writeSystem, writeOSC52 = origSystem, origOSC
	}
}
