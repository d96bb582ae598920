// main.go - gen68k command line host

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
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

// options is the parsed command line.
type options struct {
	romPath    string
	biosPath   string
	frames     int
	clockPct   int
	rasterLine int
	script     string
	monitor    bool
	instances  int
	statsview  string
	logLevel   string
	maxBlock   int
	dumpCache  string
	version    bool
}

func parseOptions(args []string) (*options, *flag.FlagSet, error) {
	opts := &options{}

	flagSet := flag.NewFlagSet(args[0], flag.ContinueOnError)
	flagSet.SetOutput(io.Discard)
	flagSet.StringVar(&opts.romPath, "rom", "", "Program ROM image")
	flagSet.StringVar(&opts.biosPath, "bios", "", "Optional BIOS image mapped at 0xC00000")
	flagSet.IntVar(&opts.frames, "frames", 60, "Frames to run without -monitor or -script")
	flagSet.IntVar(&opts.clockPct, "clock-pct", 0, "68000 overclock in percent on top of the nominal clock (0 is nominal)")
	flagSet.IntVar(&opts.rasterLine, "raster-line", -1, "Scanline raising the raster interrupt (-1 disables)")
	flagSet.StringVar(&opts.script, "script", "", "Lua script driving the machine")
	flagSet.BoolVar(&opts.monitor, "monitor", false, "Interactive single-key monitor")
	flagSet.IntVar(&opts.instances, "instances", 1, "Run N machines in parallel and compare their final state")
	flagSet.StringVar(&opts.statsview, "statsview", "", "Serve runtime statistics on this address (e.g. localhost:12600)")
	flagSet.StringVar(&opts.logLevel, "log-level", "info", "Log level (trace, debug, info, warn, error)")
	flagSet.IntVar(&opts.maxBlock, "max-block", M68K_BLOCK_MAX_INSTRS, "Instructions decoded before a block is declared runaway")
	flagSet.StringVar(&opts.dumpCache, "dump-cache", "", "Write the block cache as a graphviz file on exit")
	flagSet.BoolVar(&opts.version, "version", false, "Print version and compiled features")

	flagSet.Usage = func() {
		flagSet.SetOutput(os.Stdout)
		fmt.Println("Usage: ./gen68k -rom file [-bios file] [-frames n] [-script file.lua | -monitor] [-instances n]")
		flagSet.PrintDefaults()
	}

	if err := flagSet.Parse(args[1:]); err != nil {
		return nil, flagSet, err
	}
	if opts.romPath == "" && flagSet.NArg() > 0 {
		opts.romPath = flagSet.Arg(0)
	}
	return opts, flagSet, nil
}

func main() {
	opts, flagSet, err := parseOptions(os.Args)
	if err != nil {
		if err == flag.ErrHelp {
			flagSet.Usage()
			os.Exit(0)
		}
		fmt.Printf("Error: %v\n", err)
		os.Exit(1)
	}
	if opts.version {
		printFeatures(os.Stdout)
		return
	}
	if opts.romPath == "" {
		flagSet.Usage()
		os.Exit(1)
	}

	if err := run(opts); err != nil {
		fmt.Printf("Error: %v\n", err)
		os.Exit(1)
	}
}

func run(opts *options) error {
	logger, err := newLogger(opts.logLevel, os.Stderr)
	if err != nil {
		return err
	}
	log := logrus.NewEntry(logger)

	if opts.statsview != "" {
		launchStatsview(opts.statsview, os.Stdout)
	}

	table, err := BuildDecodeTable()
	if err != nil {
		return errors.Wrap(err, "building decode table")
	}
	log.WithField("opcodes", table.Populated()).Debug("decode table built")

	cfg := MachineConfig{
		Console: os.Stdout,
		Engine:  EngineConfig{Log: log, MaxBlockInstrs: opts.maxBlock},
		Frame:   DefaultFrameConfig(),
	}
	cfg.Frame.Overclock = opts.clockPct
	cfg.Frame.RasterLine = opts.rasterLine
	if cfg.ROM, err = os.ReadFile(opts.romPath); err != nil {
		return errors.Wrap(err, "reading ROM")
	}
	if opts.biosPath != "" {
		if cfg.BIOS, err = os.ReadFile(opts.biosPath); err != nil {
			return errors.Wrap(err, "reading BIOS")
		}
	}

	if opts.instances > 1 {
		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
		defer stop()
		results, err := runInstances(ctx, table, opts.instances, opts.frames, cfg)
		if err != nil {
			return err
		}
		logInstances(log, results)
		if err := compareInstances(results); err != nil {
			return err
		}
		fmt.Printf("%d instances finished in identical state\n", len(results))
		return nil
	}

	m, err := NewMachine(table, cfg)
	if err != nil {
		return err
	}
	debug := NewDebugM68K(m.Runner)

	switch {
	case opts.script != "":
		host := NewLuaHost(m.Runner, log)
		defer host.Close()
		err = host.DoFile(opts.script)
	case opts.monitor:
		err = runMonitor(m, opts.dumpCache)
	default:
		err = m.RunFrames(opts.frames)
	}

	if opts.dumpCache != "" {
		if werr := writeCacheGraph(debug, opts.dumpCache); werr != nil && err == nil {
			err = werr
		}
	}
	if err != nil {
		return err
	}

	s := m.CPU.Stats()
	log.WithFields(logrus.Fields{
		"frames":       m.Runner.Frames(),
		"clocks":       m.CPU.Clocks(),
		"instructions": s.Instructions,
		"blocks":       s.CachedBlocks,
		"builds":       s.BlockBuilds,
		"hits":         s.BlockHits,
		"interrupts":   s.Interrupts,
		"exceptions":   s.Exceptions,
	}).Info("run finished")
	return nil
}

func runMonitor(m *Machine, graphPath string) error {
	term := NewTerminalHost()
	var in io.Reader = os.Stdin
	if err := term.Start(); err == nil {
		defer term.Stop()
		in = term
	}
	mon := NewMonitor(m.Runner, in, term.Output())
	if graphPath != "" {
		mon.graph = func() (io.WriteCloser, error) { return os.Create(graphPath) }
	}
	return mon.Run()
}

func writeCacheGraph(debug *DebugM68K, path string) error {
	f, err := os.Create(path)
	if err != nil {
		return errors.Wrap(err, "cache graph")
	}
	debug.WriteCacheGraph(f)
	return errors.Wrap(f.Close(), "cache graph")
}
