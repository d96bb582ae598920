// machine_bus.go - One complete machine: bus, I/O ports, engine and frame driver

/*
 ██▓ ███▄    █ ▄▄▄█████▓ █    ██  ██▓▄▄▄█████▓ ██▓ ▒█████   ███▄    █    ▓█████  ███▄    █   ▄████  ██▓ ███▄    █ ▓█████
▓██▒ ██ ▀█   █ ▓  ██▒ ▓▒ ██  ▓██▒▓██▒▓  ██▒ ▓▒▓██▒▒██▒  ██▒ ██ ▀█   █    ▓█   ▀  ██ ▀█   █  ██▒ ▀█▒▓██▒ ██ ▀█   █ ▓█   ▀
▒██▒▓██  ▀█ ██▒▒ ▓██░ ▒░▓██  ▒██░▒██▒▒ ▓██░ ▒░▒██▒▒██░  ██▒▓██  ▀█ ██▒   ▒███   ▓██  ▀█ ██▒▒██░▄▄▄░▒██▒▓██  ▀█ ██▒▒███
░██░▓██▒  ▐▌██▒░ ▓██▓ ░ ▓▓█  ░██░░██░░ ▓██▓ ░ ░██░▒██   ██░▓██▒  ▐▌██▒   ▒▓█  ▄ ▓██▒  ▐▌██▒░▓█  ██▓░██░▓██▒  ▐▌██▒▒▓█  ▄
░██░▒██░   ▓██░  ▒██▒ ░ ▒▒█████▓ ░██░  ▒██▒ ░ ░██░░ ████▓▒░▒██░   ▓██░   ░▒████▒▒██░   ▓██░░▒▓███▀▒░██░▒██░   ▓██░░▒████▒
░▓  ░ ▒░   ▒ ▒   ▒ ░░   ░▒▓▒ ▒ ▒ ░▓    ▒ ░░   ░▓  ░ ▒░▒░▒░ ░ ▒░   ▒ ▒    ░░ ▒░ ░░ ▒░   ▒ ▒  ░▒   ▒ ░▓  ░ ▒░   ▒ ▒ ░░ ▒░ ░
 ▒ ░░ ░░   ░ ▒░    ░    ░░▒░ ░ ░  ▒ ░    ░     ▒ ░  ░ ▒ ▒░ ░ ░░   ░ ▒░    ░ ░  ░░ ░░   ░ ▒░  ░   ░  ▒ ░░ ░░   ░ ▒░ ░ ░  ░
 ▒ ░   ░   ░ ░   ░       ░░░ ░ ░  ▒ ░  ░       ▒ ░░ ░ ░ ▒     ░   ░ ░       ░      ░   ░ ░ ░ ░   ░  ▒ ░   ░   ░ ░    ░
 ░           ░             ░      ░            ░      ░ ░           ░       ░  ░         ░       ░  ░           ░    ░  ░

(c) 2024 - 2026 Zayn Otley
https://github.com/IntuitionAmiga/IntuitionEngine
Buy me a coffee: https://ko-fi.com/intuition/tip

License: GPLv3 or later
*/

package main

import (
	"io"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

// MachineConfig collects everything needed to build a machine from images.
type MachineConfig struct {
	ROM     []byte
	BIOS    []byte
	Console io.Writer
	Engine  EngineConfig
	Frame   FrameConfig
}

// Machine ties one engine to its own bus. The decode table is the only
// thing machines share.
type Machine struct {
	Bus    *SystemBus
	IO     *HostIO
	CPU    *M68KEngine
	Runner *M68KRunner
}

func NewMachine(table *DecodeTable, cfg MachineConfig) (*Machine, error) {
	log := cfg.Engine.Log
	if log == nil {
		log = logrus.NewEntry(logrus.StandardLogger())
		cfg.Engine.Log = log
	}

	bus := NewSystemBus(log)
	if err := bus.LoadROM(cfg.ROM); err != nil {
		return nil, errors.Wrap(err, "loading ROM")
	}
	if len(cfg.BIOS) > 0 {
		if err := bus.LoadBIOS(cfg.BIOS); err != nil {
			return nil, errors.Wrap(err, "loading BIOS")
		}
	}
	hostIO := mapHostIO(bus, cfg.Console)

	cpu := NewM68KEngine(bus, table, cfg.Engine)
	runner := NewM68KRunner(cpu, cfg.Frame)
	hostIO.Attach(runner)

	return &Machine{Bus: bus, IO: hostIO, CPU: cpu, Runner: runner}, nil
}

// Reset is a hard reset: RAM, bank, I/O latches, then the engine.
func (m *Machine) Reset() {
	m.Bus.Reset()
	m.Bus.ResetDevices()
	m.Runner.Reset()
}

// RunFrames runs n frames, stopping at the first engine error.
func (m *Machine) RunFrames(n int) error {
	for i := 0; i < n; i++ {
		if err := m.Runner.RunFrame(); err != nil {
			return errors.Wrapf(err, "frame %d", m.Runner.Frames())
		}
	}
	return nil
}
