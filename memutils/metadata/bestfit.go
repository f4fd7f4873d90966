package metadata

import (
	"fmt"
	"strings"

	"github.com/launchdarkly/go-jsonstream/v3/jwriter"
	"github.com/pkg/errors"
	"github.com/vkngwrapper/heapsim/memutils"
	"golang.org/x/exp/slog"
)

type heapBlock struct {
	size int
	prev BlockHandle
	next BlockHandle

	available   bool
	splitOrigin bool
	userData    any
}

// BestFitHeap is a HeapMetadata implementation that keeps its blocks in an arena and links them
// into a doubly-linked list by handle.
//
// Allocation scans the whole list and picks the smallest hole that fits; ties go to the block
// closest to the head. When the chosen hole is larger than the request plus the overhead, the
// remainder is split off into a new hole placed directly after the chosen block.
//
// Freed blocks are never coalesced with their neighbors, so a long-running heap only ever
// fragments.
type BestFitHeap struct {
	overhead int

	blocks     []heapBlock
	head       BlockHandle
	seededSize int
	freeSize   int
	allocCount int
	splitCount int
}

var _ HeapMetadata = &BestFitHeap{}

// NewBestFitHeap creates an empty heap. The overhead is the per-block bookkeeping capacity that a split
// must leave room for; it may be 0 but not negative.
func NewBestFitHeap(overhead int) (*BestFitHeap, error) {
	err := memutils.CheckNonNegative(overhead, "overhead")
	if err != nil {
		return nil, err
	}

	return &BestFitHeap{
		overhead: overhead,
		head:     NoBlock,
	}, nil
}

func (m *BestFitHeap) getBlock(handle BlockHandle) (*heapBlock, error) {
	if handle == NoBlock || int(handle) >= len(m.blocks) {
		return nil, errors.Wrapf(memutils.InvalidHandleError, "handle %d", handle)
	}
	return &m.blocks[handle], nil
}

func (m *BestFitHeap) region(handle BlockHandle) Region {
	block := &m.blocks[handle]
	return Region{
		Handle:      handle,
		Size:        block.size,
		Available:   block.available,
		SplitOrigin: block.splitOrigin,
		UserData:    block.userData,
	}
}

func (m *BestFitHeap) Add(size int) (BlockHandle, error) {
	err := memutils.CheckPositive(size, "block size")
	if err != nil {
		return NoBlock, err
	}

	handle := BlockHandle(len(m.blocks))
	m.blocks = append(m.blocks, heapBlock{
		size:      size,
		prev:      NoBlock,
		next:      m.head,
		available: true,
	})

	if m.head != NoBlock {
		m.blocks[m.head].prev = handle
	}
	m.head = handle

	m.seededSize += size
	m.freeSize += size

	memutils.DebugValidate(m)
	return handle, nil
}

func (m *BestFitHeap) Overhead() int { return m.overhead }

func (m *BestFitHeap) Size() int {
	return m.seededSize - m.splitCount*m.overhead
}

func (m *BestFitHeap) SeededSize() int { return m.seededSize }

func (m *BestFitHeap) AccountedSize() int {
	size := 0
	for handle := m.head; handle != NoBlock; handle = m.blocks[handle].next {
		size += m.blocks[handle].size
		if m.blocks[handle].splitOrigin {
			size += m.overhead
		}
	}
	return size
}

func (m *BestFitHeap) Validate() error {
	if m.head == NoBlock {
		if len(m.blocks) != 0 {
			return errors.Errorf("heap has no head but %d blocks in its arena", len(m.blocks))
		}
		if m.seededSize != 0 || m.freeSize != 0 || m.allocCount != 0 {
			return errors.New("empty heap has non-zero counters")
		}
		return nil
	}

	if int(m.head) >= len(m.blocks) {
		return errors.Errorf("head handle %d is outside of the arena", m.head)
	}

	if m.blocks[m.head].prev != NoBlock {
		return errors.Errorf("head block %d has a previous block", m.head)
	}

	var visited, allocCount, splitCount, size, freeSize int
	prev := NoBlock
	for handle := m.head; handle != NoBlock; handle = m.blocks[handle].next {
		if int(handle) >= len(m.blocks) {
			return errors.Errorf("block %d links to handle %d, which is outside of the arena", prev, handle)
		}

		visited++
		if visited > len(m.blocks) {
			return errors.New("block list contains a cycle")
		}

		block := &m.blocks[handle]
		if block.prev != prev {
			return errors.Errorf("block %d lists block %d as its previous block, but was reached from block %d", handle, block.prev, prev)
		}

		if block.size <= 0 {
			return errors.Errorf("block %d has non-positive size %d", handle, block.size)
		}

		if block.available && block.userData != nil {
			return errors.Errorf("block %d is available but still has an occupant", handle)
		}

		if !block.available && block.userData == nil {
			return errors.Errorf("block %d is occupied but has no occupant", handle)
		}

		size += block.size
		if block.available {
			freeSize += block.size
		} else {
			allocCount++
		}

		if block.splitOrigin {
			splitCount++
		}

		prev = handle
	}

	if visited != len(m.blocks) {
		return errors.Errorf("the arena holds %d blocks, but only %d are reachable from the head", len(m.blocks), visited)
	}

	if allocCount != m.allocCount {
		return errors.Errorf("the allocation count of the heap is %d, but the occupied blocks only added up to %d", m.allocCount, allocCount)
	}

	if splitCount != m.splitCount {
		return errors.Errorf("the split count of the heap is %d, but %d blocks are marked as split", m.splitCount, splitCount)
	}

	if freeSize != m.freeSize {
		return errors.Errorf("the free size of the heap is %d, but the holes only added up to %d", m.freeSize, freeSize)
	}

	if size+splitCount*m.overhead != m.seededSize {
		return errors.Errorf("the heap was seeded with %d, but the blocks and split overhead add up to %d", m.seededSize, size+splitCount*m.overhead)
	}

	return nil
}

func (m *BestFitHeap) BlockCount() int { return len(m.blocks) }

func (m *BestFitHeap) AllocationCount() int { return m.allocCount }

func (m *BestFitHeap) FreeRegionsCount() int { return len(m.blocks) - m.allocCount }

func (m *BestFitHeap) SumFreeSize() int { return m.freeSize }

func (m *BestFitHeap) LargestFreeSize() int {
	largest := 0
	for handle := m.head; handle != NoBlock; handle = m.blocks[handle].next {
		block := &m.blocks[handle]
		if block.available && block.size > largest {
			largest = block.size
		}
	}
	return largest
}

func (m *BestFitHeap) MayHaveFreeBlock(size int) bool {
	return m.freeSize >= size
}

func (m *BestFitHeap) IsEmpty() bool { return m.allocCount == 0 }

func (m *BestFitHeap) Head() BlockHandle { return m.head }

func (m *BestFitHeap) Block(handle BlockHandle) (Region, error) {
	_, err := m.getBlock(handle)
	if err != nil {
		return Region{}, err
	}

	return m.region(handle), nil
}

func (m *BestFitHeap) Neighbors(handle BlockHandle) (BlockHandle, BlockHandle, error) {
	block, err := m.getBlock(handle)
	if err != nil {
		return NoBlock, NoBlock, err
	}

	return block.prev, block.next, nil
}

func (m *BestFitHeap) VisitAllRegions(handleRegion func(region Region) error) error {
	for handle := m.head; handle != NoBlock; handle = m.blocks[handle].next {
		err := handleRegion(m.region(handle))
		if err != nil {
			return err
		}
	}

	return nil
}

func (m *BestFitHeap) Regions() []Region {
	regions := make([]Region, 0, len(m.blocks))
	for handle := m.head; handle != NoBlock; handle = m.blocks[handle].next {
		regions = append(regions, m.region(handle))
	}
	return regions
}

func (m *BestFitHeap) AddDetailedStatistics(stats *memutils.DetailedStatistics) {
	stats.BlockCount += len(m.blocks)
	stats.BlockBytes += m.Size()

	for handle := m.head; handle != NoBlock; handle = m.blocks[handle].next {
		block := &m.blocks[handle]
		if block.available {
			stats.AddUnusedRange(block.size)
		} else {
			stats.AddAllocation(block.size)
		}

		if block.splitOrigin {
			stats.SplitBlockCount++
		}
	}
}

func (m *BestFitHeap) AddStatistics(stats *memutils.Statistics) {
	stats.BlockCount += len(m.blocks)
	stats.AllocationCount += m.allocCount
	stats.BlockBytes += m.Size()
	stats.AllocationBytes += m.Size() - m.freeSize
}

func (m *BestFitHeap) Clear() {
	m.blocks = m.blocks[:0]
	m.head = NoBlock
	m.seededSize = 0
	m.freeSize = 0
	m.allocCount = 0
	m.splitCount = 0
}

func (m *BestFitHeap) BlockJsonData(json *jwriter.ObjectState) {
	json.Name("TotalBytes").Int(m.seededSize)
	json.Name("BlockBytes").Int(m.Size())
	json.Name("UnusedBytes").Int(m.freeSize)
	json.Name("Overhead").Int(m.overhead)
	json.Name("Blocks").Int(len(m.blocks))
	json.Name("Allocations").Int(m.allocCount)
	json.Name("UnusedRanges").Int(m.FreeRegionsCount())
}

func (m *BestFitHeap) PrintDetailedMap(writer *jwriter.Writer) {
	obj := writer.Object()
	defer obj.End()

	m.BlockJsonData(&obj)

	arrayState := obj.Name("Regions").Array()
	defer arrayState.End()

	_ = m.VisitAllRegions(func(region Region) error {
		regionObj := arrayState.Object()
		defer regionObj.End()

		regionObj.Name("Handle").Int(int(region.Handle))
		regionObj.Name("Type").String(region.Type().String())
		regionObj.Name("Size").Int(region.Size)
		regionObj.Name("SplitOrigin").Bool(region.SplitOrigin)

		if region.UserData != nil {
			regionObj.Name("CustomData").String(fmt.Sprintf("%+v", region.UserData))
		}

		return nil
	})
}

func (m *BestFitHeap) DebugLogAllAllocations(logger *slog.Logger) {
	for handle := m.head; handle != NoBlock; handle = m.blocks[handle].next {
		block := &m.blocks[handle]
		if !block.available {
			logger.Debug("occupied block",
				slog.Int("Handle", int(handle)),
				slog.Int("Size", block.size),
				slog.Any("UserData", block.userData),
			)
		}
	}
}

// String renders the list as "[| 100* | 140 |] Total Size: 240K" where occupied blocks carry a trailing '*'
func (m *BestFitHeap) String() string {
	var sb strings.Builder
	sb.WriteString("[|")

	for handle := m.head; handle != NoBlock; handle = m.blocks[handle].next {
		block := &m.blocks[handle]
		sb.WriteString(" ")
		sb.WriteString(fmt.Sprint(block.size))
		if !block.available {
			sb.WriteString("*")
		}
		sb.WriteString(" |")
	}

	sb.WriteString("]")
	sb.WriteString(fmt.Sprintf(" Total Size: %dK", m.Size()))
	return sb.String()
}

func (m *BestFitHeap) CreateAllocationRequest(allocSize int) (bool, AllocationRequest, error) {
	var allocRequest AllocationRequest

	if allocSize < 1 {
		return false, allocRequest, errors.Wrapf(memutils.NonPositiveError, "allocation size is %d", allocSize)
	}

	memutils.DebugValidate(m)

	// Is the heap big enough?
	if !m.MayHaveFreeBlock(allocSize) {
		return false, allocRequest, nil
	}

	// Only a strictly smaller hole replaces the current best, so ties go to the block nearest the head
	best := NoBlock
	for handle := m.head; handle != NoBlock; handle = m.blocks[handle].next {
		block := &m.blocks[handle]
		if !block.available || block.size < allocSize {
			continue
		}

		if best == NoBlock || block.size < m.blocks[best].size {
			best = handle
		}
	}

	if best == NoBlock {
		return false, allocRequest, nil
	}

	blockSize := m.blocks[best].size
	allocRequest.BlockHandle = best
	allocRequest.BlockSize = blockSize
	allocRequest.Size = allocSize
	allocRequest.Leftover = blockSize - (allocSize + m.overhead)

	return true, allocRequest, nil
}

func (m *BestFitHeap) Alloc(req AllocationRequest, userData any) error {
	err := memutils.CheckPositive(req.Size, "allocation size")
	if err != nil {
		return err
	}

	if userData == nil {
		return errors.New("occupied blocks must have an occupant")
	}

	chosen, err := m.getBlock(req.BlockHandle)
	if err != nil {
		return err
	}

	if !chosen.available {
		return errors.Errorf("allocation request targets block %d, which is already occupied", req.BlockHandle)
	}

	if chosen.size != req.BlockSize {
		return errors.Errorf("allocation request expected block %d to have size %d, but it has size %d", req.BlockHandle, req.BlockSize, chosen.size)
	}

	if chosen.size < req.Size {
		return errors.New("allocation request had a block too small for the request")
	}

	if req.Leftover != chosen.size-(req.Size+m.overhead) {
		return errors.New("allocation request was created by a heap with a different overhead")
	}

	m.freeSize -= chosen.size

	if req.Splits() {
		newHandle := BlockHandle(len(m.blocks))
		oldNext := chosen.next

		m.blocks = append(m.blocks, heapBlock{
			size:        req.Leftover,
			prev:        req.BlockHandle,
			next:        oldNext,
			available:   true,
			splitOrigin: true,
		})

		// append may have moved the arena
		chosen = &m.blocks[req.BlockHandle]

		if oldNext != NoBlock {
			m.blocks[oldNext].prev = newHandle
		}
		chosen.next = newHandle
		chosen.size = req.Size

		m.freeSize += req.Leftover
		m.splitCount++
	}

	chosen.available = false
	chosen.userData = userData
	m.allocCount++

	memutils.DebugValidate(m)
	return nil
}

func (m *BestFitHeap) RequestAllocation(allocSize int, userData any) (BlockHandle, bool, error) {
	success, req, err := m.CreateAllocationRequest(allocSize)
	if err != nil || !success {
		return NoBlock, false, err
	}

	err = m.Alloc(req, userData)
	if err != nil {
		return NoBlock, false, err
	}

	return req.BlockHandle, true, nil
}

func (m *BestFitHeap) Free(handle BlockHandle) error {
	block, err := m.getBlock(handle)
	if err != nil {
		return err
	}

	if block.available {
		return errors.Wrapf(memutils.InvalidReleaseError, "block %d is already free", handle)
	}

	block.available = true
	block.userData = nil
	m.freeSize += block.size
	m.allocCount--

	memutils.DebugValidate(m)
	return nil
}
