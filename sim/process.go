package sim

import (
	"fmt"

	"github.com/vkngwrapper/heapsim/memutils/metadata"
)

// ProcessID identifies a process for the life of a Scheduler. IDs are handed out in submission
// order starting from 0 and are only reused after Scheduler.Reset.
type ProcessID uint64

// ProcessState tracks a process through its lifecycle
type ProcessState uint32

const (
	// ProcessPending indicates that the process has been submitted but has not yet been granted a block.
	// Pending processes retry allocation on every tick.
	ProcessPending ProcessState = iota
	// ProcessAllocated indicates that the process holds a block and is counting down its lifetime
	ProcessAllocated
	// ProcessReleased indicates that the process's lifetime ran out and its block was returned to the heap
	ProcessReleased
)

var processStateMapping = map[ProcessState]string{
	ProcessPending:   "Pending",
	ProcessAllocated: "Allocated",
	ProcessReleased:  "Released",
}

func (s ProcessState) String() string {
	return processStateMapping[s]
}

// Process is a request for a contiguous region of the heap, held for a fixed number of ticks
type Process struct {
	id            ProcessID
	size          int
	lifetime      int
	timeRemaining int
	state         ProcessState
	block         metadata.BlockHandle
}

func (p *Process) ID() ProcessID { return p.id }

func (p *Process) Size() int { return p.size }

// Lifetime is the number of ticks the process was submitted with. It never changes.
func (p *Process) Lifetime() int { return p.lifetime }

func (p *Process) TimeRemaining() int { return p.timeRemaining }

func (p *Process) State() ProcessState { return p.state }

// Block returns the handle of the block bound to this process, or metadata.NoBlock if it holds none
func (p *Process) Block() metadata.BlockHandle { return p.block }

func (p *Process) IsAllocated() bool {
	return p.block != metadata.NoBlock
}

func (p *Process) String() string {
	return fmt.Sprintf("Process#%d", p.id)
}

func (p *Process) view() ProcessView {
	return ProcessView{
		ID:            p.id,
		Size:          p.size,
		Lifetime:      p.lifetime,
		TimeRemaining: p.timeRemaining,
		State:         p.state,
		Block:         p.block,
	}
}

// ProcessView is a read-only snapshot of a Process
type ProcessView struct {
	ID            ProcessID
	Size          int
	Lifetime      int
	TimeRemaining int
	State         ProcessState
	Block         metadata.BlockHandle
}
