package sim

import (
	"fmt"

	"github.com/cockroachdb/errors"
	"github.com/dolthub/swiss"
	"github.com/launchdarkly/go-jsonstream/v3/jwriter"
	"github.com/vkngwrapper/heapsim/memutils"
	"github.com/vkngwrapper/heapsim/memutils/metadata"
	"github.com/vkngwrapper/heapsim/sim/internal/utils"
	"golang.org/x/exp/slog"
)

// Scheduler advances a simulated heap in discrete ticks. It owns the tracked processes and the heap;
// it does not own a clock. Callers drive it by calling Tick directly, or through Step and Run.
type Scheduler struct {
	logger      *slog.Logger
	mutex       utils.OptionalRWMutex
	createFlags CreateFlags

	heap       metadata.HeapMetadata
	blockSizes []int
	observer   Observer

	nextProcessID ProcessID
	ticks         int
	processes     []*Process
	processIndex  *swiss.Map[ProcessID, *Process]
}

// TickReport summarizes the state transitions made by a single tick
type TickReport struct {
	Tick      int
	Allocated []ProcessID
	Released  []ProcessID
	Pending   []ProcessID
}

// Submit creates a new Pending process. No allocation is attempted until the next tick.
func (s *Scheduler) Submit(size, time int) (ProcessID, error) {
	s.logger.Debug("Scheduler::Submit", slog.Int("Size", size), slog.Int("Time", time))

	err := memutils.CheckPositive(size, "process size")
	if err != nil {
		return 0, err
	}

	err = memutils.CheckPositive(time, "process time")
	if err != nil {
		return 0, err
	}

	s.mutex.Lock()

	process := &Process{
		id:            s.nextProcessID,
		size:          size,
		lifetime:      time,
		timeRemaining: time,
		state:         ProcessPending,
		block:         metadata.NoBlock,
	}
	s.nextProcessID++

	s.processes = append(s.processes, process)
	s.processIndex.Put(process.id, process)
	view := process.view()

	s.mutex.Unlock()

	s.observer.OnProcessCreated(view)
	return view.ID, nil
}

// Tick advances every tracked process by one step, in submission order. Pending processes request
// an allocation; Allocated processes count down and are released once their time runs out. A process
// that is allocated during a tick starts counting down on the following tick.
//
// Observers are notified after all processes have been advanced.
func (s *Scheduler) Tick() TickReport {
	s.logger.Debug("Scheduler::Tick")

	report, times, snapshot := s.advance()

	if len(report.Allocated) > 0 || len(report.Released) > 0 {
		s.logger.Debug("    Tick transitions",
			slog.Int("Tick", report.Tick),
			slog.Int("Allocated", len(report.Allocated)),
			slog.Int("Released", len(report.Released)),
			slog.Int("Pending", len(report.Pending)),
		)
	}

	for _, id := range report.Released {
		s.observer.OnProcessRemoved(id)
	}
	for _, process := range times {
		s.observer.OnProcessTimeChanged(process.ID, process.TimeRemaining)
	}
	s.observer.OnHeapChanged(snapshot)

	return report
}

// advance runs the state transitions of a single tick under the scheduler lock
func (s *Scheduler) advance() (TickReport, []ProcessView, HeapSnapshot) {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	s.ticks++
	report := TickReport{Tick: s.ticks}

	remaining := s.processes[:0]
	for _, process := range s.processes {
		switch process.state {
		case ProcessPending:
			if s.requestAllocation(process) {
				report.Allocated = append(report.Allocated, process.id)
			} else {
				report.Pending = append(report.Pending, process.id)
			}
		case ProcessAllocated:
			process.timeRemaining--
			if process.timeRemaining < 1 {
				s.release(process)
				s.processIndex.Delete(process.id)
				report.Released = append(report.Released, process.id)
				continue
			}
		default:
			panic(fmt.Sprintf("tracked process %d is in unexpected state %s", process.id, process.state))
		}

		remaining = append(remaining, process)
	}

	// clear the tail so released processes are not kept alive by the backing array
	for i := len(remaining); i < len(s.processes); i++ {
		s.processes[i] = nil
	}
	s.processes = remaining

	times := make([]ProcessView, len(s.processes))
	for i, process := range s.processes {
		times[i] = process.view()
	}
	return report, times, newHeapSnapshot(s.ticks, s.heap)
}

func (s *Scheduler) requestAllocation(process *Process) bool {
	memutils.DebugCheckPositive(process.size, "process size")

	handle, success, err := s.heap.RequestAllocation(process.size, process)
	if err != nil {
		panic(fmt.Sprintf("allocation for %s failed with unexpected error: %+v", process, err))
	}

	if !success {
		return false
	}

	process.block = handle
	process.state = ProcessAllocated
	return true
}

func (s *Scheduler) release(process *Process) {
	if process.block == metadata.NoBlock {
		panic(errors.Wrapf(memutils.InvalidReleaseError, "%s holds no block", process))
	}

	err := s.heap.Free(process.block)
	if err != nil {
		panic(errors.Wrapf(err, "failed to release %s", process))
	}

	process.block = metadata.NoBlock
	process.state = ProcessReleased
	process.timeRemaining = 0
}

// Reset drops every tracked process, clears the heap and reseeds it with the original block sizes.
// Process IDs start again from 0.
func (s *Scheduler) Reset() error {
	s.logger.Debug("Scheduler::Reset")

	s.mutex.Lock()

	dropped := make([]ProcessID, len(s.processes))
	for i, process := range s.processes {
		dropped[i] = process.id
	}

	s.processes = nil
	s.processIndex = swiss.NewMap[ProcessID, *Process](processIndexCapacity)
	s.nextProcessID = 0
	s.ticks = 0

	s.heap.Clear()
	err := s.seedHeap()
	snapshot := newHeapSnapshot(s.ticks, s.heap)

	s.mutex.Unlock()

	if err != nil {
		return err
	}

	for _, id := range dropped {
		s.observer.OnProcessRemoved(id)
	}
	s.observer.OnHeapChanged(snapshot)

	return nil
}

// Ticks returns the number of ticks run since the scheduler was created or last reset
func (s *Scheduler) Ticks() int {
	s.mutex.RLock()
	defer s.mutex.RUnlock()

	return s.ticks
}

// ProcessCount returns the number of tracked processes, Pending or Allocated
func (s *Scheduler) ProcessCount() int {
	s.mutex.RLock()
	defer s.mutex.RUnlock()

	return len(s.processes)
}

// Processes returns a snapshot of every tracked process in submission order
func (s *Scheduler) Processes() []ProcessView {
	s.mutex.RLock()
	defer s.mutex.RUnlock()

	views := make([]ProcessView, len(s.processes))
	for i, process := range s.processes {
		views[i] = process.view()
	}
	return views
}

// Process returns a snapshot of a single tracked process. Released processes are no longer tracked.
func (s *Scheduler) Process(id ProcessID) (ProcessView, bool) {
	s.mutex.RLock()
	defer s.mutex.RUnlock()

	process, ok := s.processIndex.Get(id)
	if !ok {
		return ProcessView{}, false
	}
	return process.view(), true
}

// Heap returns a snapshot of the heap's block list
func (s *Scheduler) Heap() HeapSnapshot {
	s.mutex.RLock()
	defer s.mutex.RUnlock()

	return newHeapSnapshot(s.ticks, s.heap)
}

// HeapString renders the heap's block list as text
func (s *Scheduler) HeapString() string {
	s.mutex.RLock()
	defer s.mutex.RUnlock()

	if stringer, ok := s.heap.(fmt.Stringer); ok {
		return stringer.String()
	}
	return fmt.Sprintf("%+v", s.heap.Regions())
}

// Validate runs the heap's consistency checks and verifies that every allocated process is bound
// to an occupied block that names it as the occupant
func (s *Scheduler) Validate() error {
	s.mutex.RLock()
	defer s.mutex.RUnlock()

	err := s.heap.Validate()
	if err != nil {
		return err
	}

	if s.processIndex.Count() != len(s.processes) {
		return errors.Newf("process index holds %d processes, but %d are tracked", s.processIndex.Count(), len(s.processes))
	}

	allocated := 0
	for _, process := range s.processes {
		switch process.state {
		case ProcessPending:
			if process.block != metadata.NoBlock {
				return errors.Newf("pending %s is bound to block %d", process, process.block)
			}
		case ProcessAllocated:
			allocated++
			region, err := s.heap.Block(process.block)
			if err != nil {
				return errors.Wrapf(err, "allocated %s", process)
			}
			if region.Available || region.UserData != process {
				return errors.Newf("allocated %s is bound to block %d, which does not list it as the occupant", process, process.block)
			}
		default:
			return errors.Newf("tracked %s is in state %s", process, process.state)
		}
	}

	if allocated != s.heap.AllocationCount() {
		return errors.Newf("%d processes are allocated, but the heap has %d occupied blocks", allocated, s.heap.AllocationCount())
	}

	return nil
}

// CalculateStatistics populates stats with the heap's current statistics
func (s *Scheduler) CalculateStatistics(stats *memutils.DetailedStatistics) {
	s.mutex.RLock()
	defer s.mutex.RUnlock()

	stats.Clear()
	s.heap.AddDetailedStatistics(stats)
}

// DebugLogAllAllocations writes a debug record for every occupied block
func (s *Scheduler) DebugLogAllAllocations() {
	s.mutex.RLock()
	defer s.mutex.RUnlock()

	s.heap.DebugLogAllAllocations(s.logger)
}

// BuildStatsString returns a json document describing the heap and the tracked processes. When detailed
// is true, every block and every process is listed individually.
func (s *Scheduler) BuildStatsString(detailed bool) string {
	s.mutex.RLock()
	defer s.mutex.RUnlock()

	var stats memutils.DetailedStatistics
	stats.Clear()
	s.heap.AddDetailedStatistics(&stats)

	writer := jwriter.NewWriter()
	root := writer.Object()

	root.Name("Tick").Int(s.ticks)

	totalObj := root.Name("Total").Object()
	totalObj.Name("BlockCount").Int(stats.BlockCount)
	totalObj.Name("BlockBytes").Int(stats.BlockBytes)
	totalObj.Name("AllocationCount").Int(stats.AllocationCount)
	totalObj.Name("AllocationBytes").Int(stats.AllocationBytes)
	totalObj.Name("UnusedRangeCount").Int(stats.UnusedRangeCount)
	totalObj.Name("SplitBlockCount").Int(stats.SplitBlockCount)
	if stats.AllocationCount > 0 {
		totalObj.Name("AllocationSizeMin").Int(stats.AllocationSizeMin)
		totalObj.Name("AllocationSizeMax").Int(stats.AllocationSizeMax)
	}
	if stats.UnusedRangeCount > 0 {
		totalObj.Name("UnusedRangeSizeMin").Int(stats.UnusedRangeSizeMin)
		totalObj.Name("UnusedRangeSizeMax").Int(stats.UnusedRangeSizeMax)
	}
	totalObj.Name("ExternalFragmentation").Float64(stats.ExternalFragmentation())
	totalObj.End()

	pending := 0
	for _, process := range s.processes {
		if process.state == ProcessPending {
			pending++
		}
	}

	processObj := root.Name("Processes").Object()
	processObj.Name("Tracked").Int(len(s.processes))
	processObj.Name("Pending").Int(pending)
	processObj.Name("Allocated").Int(len(s.processes) - pending)
	processObj.End()

	if detailed {
		s.heap.PrintDetailedMap(root.Name("DetailedMap"))

		processList := root.Name("ProcessList").Array()
		for _, process := range s.processes {
			obj := processList.Object()
			printProcessParameters(&obj, process.view())
			obj.End()
		}
		processList.End()
	}

	root.End()

	return string(writer.Bytes())
}

func printProcessParameters(json *jwriter.ObjectState, process ProcessView) {
	json.Name("ID").Int(int(process.ID))
	json.Name("State").String(process.State.String())
	json.Name("Size").Int(process.Size)
	json.Name("Lifetime").Int(process.Lifetime)
	json.Name("TimeRemaining").Int(process.TimeRemaining)
	if process.Block != metadata.NoBlock {
		json.Name("Block").Int(int(process.Block))
	}
}
