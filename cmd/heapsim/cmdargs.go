package main

import (
	"flag"
	"io"
	"time"
)

type cmdArgs struct {
	fs       *flag.FlagSet
	Config   string
	JSON     bool
	Ticks    int
	Interval time.Duration
	Debug    bool
	Stats    bool
}

func newCmdArgs(output io.Writer) (ca *cmdArgs) {
	ca = &cmdArgs{
		fs: flag.NewFlagSet("heapsim", flag.ContinueOnError),
	}
	ca.fs.SetOutput(output)
	ca.fs.StringVar(&ca.Config, "config", "", "Path to a yaml config file (defaults to four 256 blocks)")
	ca.fs.BoolVar(&ca.JSON, "json", false, "Write one json frame per tick to stdout instead of log lines")
	ca.fs.IntVar(&ca.Ticks, "ticks", -1, "Number of ticks to run, 0 runs until interrupted (overrides config)")
	ca.fs.DurationVar(&ca.Interval, "interval", 0, "Time between ticks (overrides config)")
	ca.fs.BoolVar(&ca.Debug, "debug", false, "Enable debug logging")
	ca.fs.BoolVar(&ca.Stats, "stats", true, "Print detailed statistics when the run ends")
	return
}

func (ca *cmdArgs) Parse(arguments []string) (err error) {
	err = ca.fs.Parse(arguments)
	return
}
