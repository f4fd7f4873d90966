package metadata

import (
	"github.com/launchdarkly/go-jsonstream/v3/jwriter"
	"github.com/vkngwrapper/heapsim/memutils"
	"golang.org/x/exp/slog"
)

// HeapMetadata represents a simulated heap: an ordered list of fixed-capacity blocks that are handed
// out to occupants and taken back again. Implementations own the block list outright; consumers only
// ever see BlockHandle values and Region snapshots.
type HeapMetadata interface {
	// Add seeds the heap with a new free block of the provided size. Blocks are inserted at the head
	// of the list, so seeding with [a, b, c] produces the list order c, b, a.
	Add(size int) (BlockHandle, error)
	// Overhead is the per-block bookkeeping capacity subtracted from a candidate block before deciding
	// whether a split leftover is worth creating
	Overhead() int
	// Size returns the sum of the sizes of all blocks currently in the list
	Size() int
	// SeededSize returns the sum of the sizes of all blocks passed to Add since the last Clear
	SeededSize() int
	// AccountedSize returns Size plus the overhead consumed by each split. Splits never change this value,
	// so it is always equal to SeededSize.
	AccountedSize() int

	// Validate performs internal consistency checks on the list: link integrity, acyclicity,
	// occupant bookkeeping and capacity conservation.
	Validate() error
	// BlockCount returns the number of blocks in the list
	BlockCount() int
	// AllocationCount returns the number of occupied blocks
	AllocationCount() int
	// FreeRegionsCount returns the number of holes. Holes are never merged, so adjacent
	// holes count separately.
	FreeRegionsCount() int
	// SumFreeSize returns the total size of all holes
	SumFreeSize() int
	// LargestFreeSize returns the size of the largest hole, or 0 if there are none
	LargestFreeSize() int
	// MayHaveFreeBlock is a fast check which never produces false negatives: if it returns false,
	// CreateAllocationRequest is guaranteed to fail for the provided size.
	MayHaveFreeBlock(size int) bool
	// IsEmpty returns true if there are no occupied blocks
	IsEmpty() bool

	// Head returns the handle of the first block in the list, or NoBlock
	Head() BlockHandle
	// Block returns a snapshot of a single block
	Block(handle BlockHandle) (Region, error)
	// Neighbors returns the handles linked before and after the provided block
	Neighbors(handle BlockHandle) (prev BlockHandle, next BlockHandle, err error)
	// VisitAllRegions calls the provided callback once for each block, in list order, stopping at
	// the first error
	VisitAllRegions(handleRegion func(region Region) error) error
	// Regions returns a snapshot of every block in list order
	Regions() []Region

	// AddDetailedStatistics sums this heap's statistics into the provided memutils.DetailedStatistics object
	AddDetailedStatistics(stats *memutils.DetailedStatistics)
	// AddStatistics sums this heap's statistics into the provided memutils.Statistics object
	AddStatistics(stats *memutils.Statistics)

	// Clear drops every block, including seeded ones
	Clear()
	// BlockJsonData populates a json object with summary information about this heap
	BlockJsonData(json *jwriter.ObjectState)
	// PrintDetailedMap writes a json object describing every block in list order
	PrintDetailedMap(writer *jwriter.Writer)
	// DebugLogAllAllocations writes one debug record per occupied block
	DebugLogAllAllocations(logger *slog.Logger)

	// CreateAllocationRequest performs the best-fit search for a block of the provided size without
	// changing the heap. It returns false with no error when no hole is large enough.
	CreateAllocationRequest(allocSize int) (bool, AllocationRequest, error)
	// Alloc commits an AllocationRequest, splitting the chosen block if the request calls for it and
	// binding userData to it. The implementation must return an error if the request no longer
	// describes the current state of the heap.
	Alloc(request AllocationRequest, userData any) error
	// RequestAllocation is CreateAllocationRequest followed by Alloc
	RequestAllocation(allocSize int, userData any) (BlockHandle, bool, error)
	// Free returns an occupied block to the hole list. The block keeps its size and is never merged
	// with neighboring holes.
	Free(handle BlockHandle) error
}
