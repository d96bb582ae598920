package main

import (
	"fmt"
	"io"

	"github.com/go-echarts/statsview"
	"github.com/go-echarts/statsview/viewer"
)

const statsviewURL = "/debug/statsview"

func init() {
	compiledFeatures = append(compiledFeatures, "statsview")
}

// launchStatsview starts the runtime statistics server in its own
// goroutine. It runs for the life of the process.
func launchStatsview(addr string, output io.Writer) {
	go func() {
		viewer.SetConfiguration(viewer.WithAddr(addr))
		mgr := statsview.New()
		mgr.Start()
	}()

	fmt.Fprintf(output, "stats server available at %s%s\n", addr, statsviewURL)
}
