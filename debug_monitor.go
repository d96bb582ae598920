// debug_monitor.go - Single-key machine monitor for a running engine

package main

import (
	"fmt"
	"io"

	"github.com/pkg/errors"
)

const monitorHelp = "s step  f frame  r registers  b block  c clear cache  g cache graph  q quit\n"

// Monitor reads one key at a time and drives the engine from it.
type Monitor struct {
	debug  *DebugM68K
	runner *M68KRunner
	in     io.Reader
	out    io.Writer
	// graph is where g writes the cache graph; nil disables it.
	graph func() (io.WriteCloser, error)
}

func NewMonitor(runner *M68KRunner, in io.Reader, out io.Writer) *Monitor {
	return &Monitor{
		debug:  NewDebugM68K(runner),
		runner: runner,
		in:     in,
		out:    out,
	}
}

// Run handles keys until q or end of input.
func (m *Monitor) Run() error {
	fmt.Fprint(m.out, monitorHelp)
	buf := make([]byte, 1)
	for {
		n, err := m.in.Read(buf)
		if n > 0 {
			if m.handleKey(buf[0]) {
				return nil
			}
		}
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return errors.Wrap(err, "monitor input")
		}
	}
}

// handleKey runs one command and reports whether the monitor should quit.
// Engine errors are printed and leave the machine as it was for inspection.
func (m *Monitor) handleKey(k byte) bool {
	switch k {
	case 's':
		n, err := m.runner.CPU().Step()
		if err != nil {
			fmt.Fprintf(m.out, "Error: %v\n", err)
			return false
		}
		fmt.Fprintf(m.out, "%d cycles\n", n)
		m.debug.DumpRegisters(m.out)
	case 'f':
		if err := m.runner.RunFrame(); err != nil {
			fmt.Fprintf(m.out, "Error: %v\n", err)
			return false
		}
		fmt.Fprintf(m.out, "frame %d\n", m.runner.Frames())
	case 'r':
		m.debug.DumpRegisters(m.out)
	case 'b':
		if err := m.debug.DumpBlock(m.out); err != nil {
			fmt.Fprintf(m.out, "Error: %v\n", err)
		}
	case 'c':
		m.runner.CPU().ClearCache()
		fmt.Fprintln(m.out, "cache cleared")
	case 'g':
		if m.graph == nil {
			fmt.Fprintln(m.out, "no graph file")
			return false
		}
		w, err := m.graph()
		if err != nil {
			fmt.Fprintf(m.out, "Error: %v\n", err)
			return false
		}
		m.debug.WriteCacheGraph(w)
		if err := w.Close(); err != nil {
			fmt.Fprintf(m.out, "Error: %v\n", err)
			return false
		}
		fmt.Fprintf(m.out, "%d blocks written\n", m.runner.CPU().Stats().CachedBlocks)
	case 'q', 0x03, 0x04:
		return true
	case '?', 'h':
		fmt.Fprint(m.out, monitorHelp)
	}
	return false
}
