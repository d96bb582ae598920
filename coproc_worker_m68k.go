package main

import (
	"context"
	"fmt"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
)

// InstanceResult is the state one machine finished in.
type InstanceResult struct {
	ID     int
	Regs   Registers
	Clocks uint64
	Stats  EngineStats
}

// runInstances runs n machines over the same images in parallel, each on
// its own goroutine with its own bus and cache, sharing only table. The
// first failing instance cancels the rest.
func runInstances(ctx context.Context, table *DecodeTable, n, frames int, cfg MachineConfig) ([]InstanceResult, error) {
	if n < 1 {
		return nil, errors.Errorf("instance count must be positive, got %d", n)
	}
	if cfg.Engine.Log == nil {
		cfg.Engine.Log = logrus.NewEntry(logrus.StandardLogger())
	}
	results := make([]InstanceResult, n)
	g, ctx := errgroup.WithContext(ctx)

	for i := 0; i < n; i++ {
		id := i
		g.Go(func() error {
			c := cfg
			c.Console = nil
			c.Engine.Log = cfg.Engine.Log.WithField("instance", id)
			m, err := NewMachine(table, c)
			if err != nil {
				return err
			}
			for f := 0; f < frames; f++ {
				if err := ctx.Err(); err != nil {
					return err
				}
				if err := m.Runner.RunFrame(); err != nil {
					return errors.Wrapf(err, "instance %d frame %d", id, f)
				}
			}
			results[id] = InstanceResult{
				ID:     id,
				Regs:   m.CPU.Registers(),
				Clocks: m.CPU.Clocks(),
				Stats:  m.CPU.Stats(),
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}

// compareInstances returns an error naming the first instance whose final
// state differs from instance 0.
func compareInstances(results []InstanceResult) error {
	for _, r := range results[1:] {
		ref := results[0]
		if r.Regs != ref.Regs || r.Clocks != ref.Clocks {
			return errors.Errorf("instance %d diverged: %s clocks=%d, instance 0: %s clocks=%d",
				r.ID, &r.Regs, r.Clocks, &ref.Regs, ref.Clocks)
		}
	}
	return nil
}

func logInstances(log *logrus.Entry, results []InstanceResult) {
	for _, r := range results {
		log.WithFields(logrus.Fields{
			"instance": r.ID,
			"pc":       fmt.Sprintf("0x%06X", r.Regs.PC),
			"clocks":   r.Clocks,
			"blocks":   r.Stats.CachedBlocks,
		}).Info("instance finished")
	}
}
