package sim

import (
	"github.com/cockroachdb/errors"
	"github.com/dolthub/swiss"
	"github.com/vkngwrapper/heapsim/memutils"
	"github.com/vkngwrapper/heapsim/memutils/metadata"
	"github.com/vkngwrapper/heapsim/sim/internal/utils"
	"golang.org/x/exp/slog"
)

// CreateFlags indicate specific scheduler behaviors to activate or deactivate
type CreateFlags int32

const (
	// SchedulerCreateExternallySynchronized ensures that this scheduler will not be synchronized internally.
	// The consumer must guarantee that Submit, Tick and the read methods are never called concurrently,
	// but the internal mutex is skipped.
	SchedulerCreateExternallySynchronized CreateFlags = 1 << iota
)

var createFlagsMapping = map[CreateFlags]string{
	SchedulerCreateExternallySynchronized: "SchedulerCreateExternallySynchronized",
}

func (f CreateFlags) String() string {
	if f == 0 {
		return "None"
	}
	if str, ok := createFlagsMapping[f]; ok {
		return str
	}
	return "Unknown"
}

const (
	// DefaultOverhead is the default per-block bookkeeping size
	DefaultOverhead int = 16
	// processIndexCapacity is the initial size of the ProcessID lookup table
	processIndexCapacity uint32 = 64
)

// DefaultBlockSizes returns the default heap partition: four blocks of 256
func DefaultBlockSizes() []int {
	return []int{256, 256, 256, 256}
}

// CreateOptions contains the settings used to build a Scheduler
type CreateOptions struct {
	// Flags indicates specific scheduler behaviors to activate or deactivate
	Flags CreateFlags

	// BlockSizes is the initial partition of the heap. Each size is added to the head of the block
	// list in order, so the last size ends up first in list order. It must not be empty and every
	// size must be positive.
	BlockSizes []int
	// Overhead is the per-block bookkeeping size subtracted from a hole before deciding whether a split
	// is worthwhile. It is used exactly as provided: 0 disables the overhead, negative values are
	// rejected.
	Overhead int

	// Observer receives process and heap notifications. It may be left nil.
	Observer Observer

	// Heap optionally replaces the default BestFitHeap. It must be empty; the scheduler seeds it with
	// BlockSizes. When Heap is provided, Overhead is ignored in favor of the heap's own overhead.
	Heap metadata.HeapMetadata
}

// New creates a new Scheduler and seeds its heap
//
// logger - Used for debug tracing of scheduler operations. If nil, slog.Default() is used.
//
// options - Heap configuration; BlockSizes is required
func New(logger *slog.Logger, options CreateOptions) (*Scheduler, error) {
	if logger == nil {
		logger = slog.Default()
	}

	if len(options.BlockSizes) == 0 {
		return nil, errors.New("sim.CreateOptions.BlockSizes must contain at least one block")
	}

	for index, size := range options.BlockSizes {
		err := memutils.CheckPositive(size, "block size")
		if err != nil {
			return nil, errors.Wrapf(err, "sim.CreateOptions.BlockSizes[%d]", index)
		}
	}

	heap := options.Heap
	if heap == nil {
		var err error
		heap, err = metadata.NewBestFitHeap(options.Overhead)
		if err != nil {
			return nil, errors.Wrap(err, "sim.CreateOptions.Overhead")
		}
	} else if heap.BlockCount() != 0 {
		return nil, errors.New("sim.CreateOptions.Heap must be empty")
	}

	observer := options.Observer
	if observer == nil {
		observer = NopObserver{}
	}

	scheduler := &Scheduler{
		logger:       logger,
		mutex:        utils.OptionalRWMutex{UseMutex: options.Flags&SchedulerCreateExternallySynchronized == 0},
		createFlags:  options.Flags,
		heap:         heap,
		blockSizes:   append([]int(nil), options.BlockSizes...),
		observer:     observer,
		processIndex: swiss.NewMap[ProcessID, *Process](processIndexCapacity),
	}

	err := scheduler.seedHeap()
	if err != nil {
		return nil, err
	}

	logger.Debug("Scheduler::New",
		slog.Int("Blocks", len(options.BlockSizes)),
		slog.Int("Capacity", heap.SeededSize()),
		slog.Int("Overhead", heap.Overhead()),
		slog.String("Flags", options.Flags.String()),
		slog.Bool("DebugValidation", memutils.DebugEnabled),
	)

	return scheduler, nil
}

func (s *Scheduler) seedHeap() error {
	for _, size := range s.blockSizes {
		_, err := s.heap.Add(size)
		if err != nil {
			return errors.Wrapf(err, "failed to seed heap with a block of size %d", size)
		}
	}

	return nil
}
