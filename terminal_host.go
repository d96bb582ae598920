package main

import (
	"bytes"
	"io"
	"os"

	"github.com/pkg/errors"
	"golang.org/x/term"
)

// TerminalHost puts stdin into raw mode so the monitor sees single key
// presses. Only instantiated in main.go for interactive use; never in tests.
type TerminalHost struct {
	fd           int
	oldTermState *term.State
}

func NewTerminalHost() *TerminalHost {
	return &TerminalHost{fd: int(os.Stdin.Fd())}
}

// Start switches the terminal to raw mode. Without a terminal on stdin it
// fails and the caller falls back to line input.
func (h *TerminalHost) Start() error {
	if !term.IsTerminal(h.fd) {
		return errors.New("stdin is not a terminal")
	}
	oldState, err := term.MakeRaw(h.fd)
	if err != nil {
		return errors.Wrap(err, "terminal raw mode")
	}
	h.oldTermState = oldState
	return nil
}

// Stop restores the terminal state saved by Start.
func (h *TerminalHost) Stop() {
	if h.oldTermState != nil {
		_ = term.Restore(h.fd, h.oldTermState)
		h.oldTermState = nil
	}
}

func (h *TerminalHost) Read(p []byte) (int, error) { return os.Stdin.Read(p) }

// Output returns stdout with raw-mode line endings.
func (h *TerminalHost) Output() io.Writer {
	if h.oldTermState == nil {
		return os.Stdout
	}
	return crlfWriter{os.Stdout}
}

// crlfWriter adds the carriage return raw mode no longer inserts.
type crlfWriter struct{ w io.Writer }

func (c crlfWriter) Write(p []byte) (int, error) {
	if _, err := c.w.Write(bytes.ReplaceAll(p, []byte("\n"), []byte("\r\n"))); err != nil {
		return 0, err
	}
	return len(p), nil
}
