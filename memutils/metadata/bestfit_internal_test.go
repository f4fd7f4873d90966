package metadata

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func corruptibleHeap(t *testing.T) *BestFitHeap {
	heap, err := NewBestFitHeap(16)
	require.NoError(t, err)

	for _, size := range []int{256, 256, 256} {
		_, err = heap.Add(size)
		require.NoError(t, err)
	}

	_, success, err := heap.RequestAllocation(100, "occupant")
	require.NoError(t, err)
	require.True(t, success)
	require.NoError(t, heap.Validate())

	return heap
}

func TestValidateDetectsBrokenBackLink(t *testing.T) {
	heap := corruptibleHeap(t)

	second := heap.blocks[heap.head].next
	heap.blocks[second].prev = NoBlock

	require.ErrorContains(t, heap.Validate(), "previous block")
}

func TestValidateDetectsCycle(t *testing.T) {
	heap := corruptibleHeap(t)

	second := heap.blocks[heap.head].next
	heap.blocks[second].next = heap.head

	require.Error(t, heap.Validate())
}

func TestValidateDetectsOrphanedBlock(t *testing.T) {
	heap := corruptibleHeap(t)

	// drop the tail from the list without removing it from the arena
	var tail BlockHandle
	for handle := heap.head; handle != NoBlock; handle = heap.blocks[handle].next {
		tail = handle
	}
	last := heap.blocks[tail].prev
	heap.blocks[last].next = NoBlock

	require.ErrorContains(t, heap.Validate(), "reachable")
}

func TestValidateDetectsOccupantMismatch(t *testing.T) {
	heap := corruptibleHeap(t)

	heap.blocks[heap.head].userData = nil

	require.ErrorContains(t, heap.Validate(), "no occupant")
}

func TestValidateDetectsCapacityLeak(t *testing.T) {
	heap := corruptibleHeap(t)

	heap.blocks[heap.head].size += 10

	require.Error(t, heap.Validate())
}
