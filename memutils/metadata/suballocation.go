package metadata

import "math"

// BlockHandle identifies a block in a heap's arena. Handles are stable for the life of the block:
// a split creates a new handle for the leftover and never renumbers existing blocks.
type BlockHandle uint32

const (
	NoBlock BlockHandle = math.MaxUint32
)

// RegionType distinguishes holes from occupied blocks in visitors and JSON dumps
type RegionType uint32

const (
	RegionFree RegionType = iota
	RegionOccupied
)

var regionTypeMapping = map[RegionType]string{
	RegionFree:     "Free",
	RegionOccupied: "Occupied",
}

func (t RegionType) String() string {
	return regionTypeMapping[t]
}

// Region is a read-only view of a single block in list order
type Region struct {
	Handle BlockHandle
	Size   int
	// Available is true for a hole
	Available bool
	// SplitOrigin is true if the block was carved off a larger block. Renderers add the heap overhead
	// back onto these blocks so that the displayed heights still sum to the seeded capacity.
	SplitOrigin bool
	// UserData is the occupant bound by Alloc, nil for a hole
	UserData any
}

func (r Region) Type() RegionType {
	if r.Available {
		return RegionFree
	}
	return RegionOccupied
}
