package config

import (
	"bytes"
	"io"
	"os"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/vkngwrapper/heapsim/memutils"
	"github.com/vkngwrapper/heapsim/sim"
	"gopkg.in/yaml.v3"
)

// Config is a serialisable representation of a simulation run. The zero value is not useful; start
// from DefaultConfig, which Load and Parse do for you, so any field missing from the file keeps
// its default.
type Config struct {
	Heap     HeapConfig  `json:"heap" yaml:"heap"`
	Clock    ClockConfig `json:"clock" yaml:"clock"`
	Workload Workload    `json:"workload,omitempty" yaml:"workload,omitempty"`
}

type HeapConfig struct {
	// Blocks is the initial partition of the heap, added to the head of the list in order
	Blocks   []int `json:"blocks" yaml:"blocks"`
	Overhead int   `json:"overhead" yaml:"overhead"`
}

type ClockConfig struct {
	Interval time.Duration `json:"interval" yaml:"interval"`
	// MaxTicks stops the run after this many ticks; 0 runs until interrupted
	MaxTicks int `json:"maxTicks,omitempty" yaml:"maxTicks,omitempty"`
}

// Submission is a single scripted process, submitted just before Tick runs
type Submission struct {
	Tick int `json:"tick" yaml:"tick"`
	Size int `json:"size" yaml:"size"`
	Time int `json:"time" yaml:"time"`
}

// Workload is the list of scripted submissions for a run
type Workload []Submission

// DefaultConfig returns the default simulation: four blocks of 256, an overhead of 16, one tick
// per second and no scripted workload
func DefaultConfig() *Config {
	return &Config{
		Heap: HeapConfig{
			Blocks:   sim.DefaultBlockSizes(),
			Overhead: sim.DefaultOverhead,
		},
		Clock: ClockConfig{
			Interval: time.Second,
		},
	}
}

// Validate returns an error describing the first invalid setting, or nil
func (c *Config) Validate() error {
	if c == nil {
		return errors.New("config is missing")
	}

	if len(c.Heap.Blocks) == 0 {
		return errors.New("heap.blocks must contain at least one block")
	}
	for index, size := range c.Heap.Blocks {
		err := memutils.CheckPositive(size, "block size")
		if err != nil {
			return errors.Wrapf(err, "heap.blocks[%d]", index)
		}
	}

	err := memutils.CheckNonNegative(c.Heap.Overhead, "overhead")
	if err != nil {
		return errors.Wrap(err, "heap.overhead")
	}

	if c.Clock.Interval <= 0 {
		return errors.Newf("clock.interval must be positive, got %s", c.Clock.Interval)
	}
	err = memutils.CheckNonNegative(c.Clock.MaxTicks, "maxTicks")
	if err != nil {
		return errors.Wrap(err, "clock.maxTicks")
	}

	for index, submission := range c.Workload {
		err = submission.validate()
		if err != nil {
			return errors.Wrapf(err, "workload[%d]", index)
		}
	}

	return nil
}

func (s Submission) validate() error {
	err := memutils.CheckPositive(s.Tick, "tick")
	if err != nil {
		return err
	}
	err = memutils.CheckPositive(s.Size, "size")
	if err != nil {
		return err
	}
	return memutils.CheckPositive(s.Time, "time")
}

// CreateOptions converts the heap settings into scheduler options. A nil config produces options
// without any blocks, which sim.New rejects.
func (c *Config) CreateOptions(observer sim.Observer) sim.CreateOptions {
	if c == nil {
		return sim.CreateOptions{Observer: observer}
	}

	return sim.CreateOptions{
		BlockSizes: append([]int(nil), c.Heap.Blocks...),
		Overhead:   c.Heap.Overhead,
		Observer:   observer,
	}
}

// Due returns the submissions scheduled for tick, in file order
func (w Workload) Due(tick int) []Submission {
	var due []Submission
	for _, submission := range w {
		if submission.Tick == tick {
			due = append(due, submission)
		}
	}
	return due
}

// LastTick returns the latest tick any submission is scheduled for, or 0 for an empty workload
func (w Workload) LastTick() int {
	last := 0
	for _, submission := range w {
		if submission.Tick > last {
			last = submission.Tick
		}
	}
	return last
}

// Parse decodes a yaml document over DefaultConfig and validates the result. Unknown fields are
// rejected.
func Parse(data []byte) (*Config, error) {
	cfg := DefaultConfig()

	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)

	err := decoder.Decode(cfg)
	if err != nil && !errors.Is(err, io.EOF) {
		return nil, errors.Wrap(err, "failed to decode config")
	}

	err = cfg.Validate()
	if err != nil {
		return nil, errors.Wrap(err, "invalid config")
	}

	return cfg, nil
}

// Load reads and parses the yaml config file at path
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to read config %s", path)
	}

	cfg, err := Parse(data)
	if err != nil {
		return nil, errors.Wrapf(err, "config %s", path)
	}
	return cfg, nil
}
