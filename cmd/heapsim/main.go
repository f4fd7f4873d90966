package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"

	"github.com/cockroachdb/errors"
	"github.com/google/uuid"
	"github.com/vkngwrapper/heapsim/config"
	"github.com/vkngwrapper/heapsim/memutils"
	"github.com/vkngwrapper/heapsim/sim"
	"golang.org/x/exp/slog"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	os.Exit(run(ctx, os.Args[1:], os.Stdout, os.Stderr))
}

func run(ctx context.Context, arguments []string, stdout, stderr io.Writer) int {
	ca := newCmdArgs(stderr)
	err := ca.Parse(arguments)
	if err != nil {
		return 2
	}

	level := slog.LevelInfo
	if ca.Debug {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.HandlerOptions{Level: level}.NewTextHandler(stderr)).
		With(slog.String("Run", uuid.NewString()))

	err = simulate(ctx, ca, logger, stdout)
	if err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("heapsim failed", slog.String("Error", fmt.Sprintf("%+v", err)))
		return 1
	}

	return 0
}

func loadConfig(ca *cmdArgs) (*config.Config, error) {
	cfg := config.DefaultConfig()
	if ca.Config != "" {
		var err error
		cfg, err = config.Load(ca.Config)
		if err != nil {
			return nil, err
		}
	}

	if ca.Ticks >= 0 {
		cfg.Clock.MaxTicks = ca.Ticks
	}
	if ca.Interval > 0 {
		cfg.Clock.Interval = ca.Interval
	}

	err := cfg.Validate()
	if err != nil {
		return nil, errors.Wrap(err, "invalid command line")
	}
	return cfg, nil
}

func simulate(ctx context.Context, ca *cmdArgs, logger *slog.Logger, stdout io.Writer) error {
	cfg, err := loadConfig(ca)
	if err != nil {
		return err
	}

	var observer sim.Observer = sim.LogObserver{Logger: logger}
	var frames *sim.JSONObserver
	if ca.JSON {
		frames = sim.NewJSONObserver(stdout)
		observer = sim.MultiObserver{frames, sim.LogObserver{Logger: logger.WithGroup("sim")}}
	}

	scheduler, err := sim.New(logger, cfg.CreateOptions(observer))
	if err != nil {
		return err
	}

	logger.Info("Starting heapsim",
		slog.Any("Blocks", cfg.Heap.Blocks),
		slog.Int("Capacity", memutils.SumSizes(cfg.Heap.Blocks)),
		slog.Int("Overhead", cfg.Heap.Overhead),
		slog.Duration("Interval", cfg.Clock.Interval),
		slog.Int("MaxTicks", cfg.Clock.MaxTicks),
		slog.Int("Workload", len(cfg.Workload)),
	)

	runErr := scheduler.Run(ctx, cfg.Clock.Interval, cfg.Clock.MaxTicks, func(tick int) error {
		for _, submission := range cfg.Workload.Due(tick) {
			_, err := scheduler.Submit(submission.Size, submission.Time)
			if err != nil {
				return errors.Wrapf(err, "failed to submit workload for tick %d", tick)
			}
		}
		return nil
	})

	if frames != nil && frames.Err() != nil {
		return frames.Err()
	}

	err = scheduler.Validate()
	if err != nil {
		return errors.Wrap(err, "heap failed validation")
	}

	if ca.Debug {
		scheduler.DebugLogAllAllocations()
	}

	logger.Info("Stopped heapsim", slog.Int("Ticks", scheduler.Ticks()), slog.String("Heap", scheduler.HeapString()))
	if ca.Stats && !ca.JSON {
		fmt.Fprintln(stdout, scheduler.BuildStatsString(true))
	}

	return runErr
}
