package metadata

// AllocationRequest is a type returned from HeapMetadata.CreateAllocationRequest which indicates which block
// the heap intends to bind and whether it will be split. Nothing is changed until the request is committed
// with HeapMetadata.Alloc.
type AllocationRequest struct {
	// BlockHandle is the best-fit block chosen for the request
	BlockHandle BlockHandle
	// BlockSize is the size of the chosen block at the time the request was created. Alloc uses it
	// to reject requests that have gone stale.
	BlockSize int
	// Size is the size that was requested
	Size int
	// Leftover is BlockSize - (Size + overhead). The block is split only when this is positive.
	Leftover int
}

// Splits returns true if committing the request will create a new free block after the chosen one
func (r AllocationRequest) Splits() bool {
	return r.Leftover > 0
}
