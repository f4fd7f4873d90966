package sim

import (
	"github.com/vkngwrapper/heapsim/memutils/metadata"
)

//go:generate mockgen -package mock_sim -destination ./mocks/observer.go github.com/vkngwrapper/heapsim/sim Observer

// Observer is the contract between the Scheduler and whatever renders it. The Scheduler never calls
// an Observer while it holds its own lock, so implementations may call back into the Scheduler's
// read methods.
type Observer interface {
	// OnProcessCreated is called once per Submit, after the process has entered the Pending state
	OnProcessCreated(process ProcessView)
	// OnProcessRemoved is called when a process has been released and dropped from the Scheduler
	OnProcessRemoved(id ProcessID)
	// OnHeapChanged is called at the end of every tick with the full block list in list order
	OnHeapChanged(heap HeapSnapshot)
	// OnProcessTimeChanged is called at the end of every tick for every process still being tracked
	OnProcessTimeChanged(id ProcessID, timeRemaining int)
}

// BlockView is the renderer-facing view of a single block
type BlockView struct {
	Size        int
	Available   bool
	SplitOrigin bool
}

// HeapSnapshot is a copy of the heap's block list taken at the end of a tick
type HeapSnapshot struct {
	Tick   int
	Blocks []BlockView
	// Capacity is the total size the heap was seeded with
	Capacity int
	Overhead int
}

func newHeapSnapshot(tick int, heap metadata.HeapMetadata) HeapSnapshot {
	snapshot := HeapSnapshot{
		Tick:     tick,
		Blocks:   make([]BlockView, 0, heap.BlockCount()),
		Capacity: heap.SeededSize(),
		Overhead: heap.Overhead(),
	}

	_ = heap.VisitAllRegions(func(region metadata.Region) error {
		snapshot.Blocks = append(snapshot.Blocks, BlockView{
			Size:        region.Size,
			Available:   region.Available,
			SplitOrigin: region.SplitOrigin,
		})
		return nil
	})

	return snapshot
}

// TotalSize is the sum of all block sizes in the snapshot
func (s HeapSnapshot) TotalSize() int {
	total := 0
	for _, block := range s.Blocks {
		total += block.Size
	}
	return total
}

// FreeSize is the sum of all hole sizes in the snapshot
func (s HeapSnapshot) FreeSize() int {
	total := 0
	for _, block := range s.Blocks {
		if block.Available {
			total += block.Size
		}
	}
	return total
}

// Heights returns each block's share of the seeded capacity as a percentage. Blocks produced by a split
// also get the overhead's share, so the heights of every block always add up to 100.
func (s HeapSnapshot) Heights() []float64 {
	heights := make([]float64, len(s.Blocks))
	if s.Capacity <= 0 {
		return heights
	}

	for i, block := range s.Blocks {
		height := float64(block.Size) / float64(s.Capacity) * 100
		if block.SplitOrigin {
			height += float64(s.Overhead) / float64(s.Capacity) * 100
		}
		heights[i] = height
	}

	return heights
}

// NopObserver ignores every notification
type NopObserver struct{}

var _ Observer = NopObserver{}

func (NopObserver) OnProcessCreated(process ProcessView)                 {}
func (NopObserver) OnProcessRemoved(id ProcessID)                        {}
func (NopObserver) OnHeapChanged(heap HeapSnapshot)                      {}
func (NopObserver) OnProcessTimeChanged(id ProcessID, timeRemaining int) {}

// MultiObserver forwards every notification to each of its members in order
type MultiObserver []Observer

var _ Observer = MultiObserver{}

func (o MultiObserver) OnProcessCreated(process ProcessView) {
	for _, observer := range o {
		observer.OnProcessCreated(process)
	}
}

func (o MultiObserver) OnProcessRemoved(id ProcessID) {
	for _, observer := range o {
		observer.OnProcessRemoved(id)
	}
}

func (o MultiObserver) OnHeapChanged(heap HeapSnapshot) {
	for _, observer := range o {
		observer.OnHeapChanged(heap)
	}
}

func (o MultiObserver) OnProcessTimeChanged(id ProcessID, timeRemaining int) {
	for _, observer := range o {
		observer.OnProcessTimeChanged(id, timeRemaining)
	}
}
