package sim

import (
	"io"
	"sync"

	"github.com/cockroachdb/errors"
	"github.com/launchdarkly/go-jsonstream/v3/jwriter"
)

// JSONObserver renders the simulation as a stream of json documents, one line per tick. Each frame
// holds the block list with display heights and the process table as it stood at the end of the tick.
type JSONObserver struct {
	mutex     sync.Mutex
	out       io.Writer
	processes []ProcessView
	err       error
}

var _ Observer = &JSONObserver{}

// NewJSONObserver creates a JSONObserver writing frames to out
func NewJSONObserver(out io.Writer) *JSONObserver {
	return &JSONObserver{out: out}
}

// Err returns the first error encountered while writing frames. Once an error has occurred, no further
// frames are written.
func (o *JSONObserver) Err() error {
	o.mutex.Lock()
	defer o.mutex.Unlock()

	return o.err
}

func (o *JSONObserver) indexOf(id ProcessID) int {
	for i, process := range o.processes {
		if process.ID == id {
			return i
		}
	}
	return -1
}

func (o *JSONObserver) OnProcessCreated(process ProcessView) {
	o.mutex.Lock()
	defer o.mutex.Unlock()

	o.processes = append(o.processes, process)
}

func (o *JSONObserver) OnProcessRemoved(id ProcessID) {
	o.mutex.Lock()
	defer o.mutex.Unlock()

	index := o.indexOf(id)
	if index < 0 {
		return
	}
	o.processes = append(o.processes[:index], o.processes[index+1:]...)
}

func (o *JSONObserver) OnProcessTimeChanged(id ProcessID, timeRemaining int) {
	o.mutex.Lock()
	defer o.mutex.Unlock()

	index := o.indexOf(id)
	if index < 0 {
		return
	}
	o.processes[index].TimeRemaining = timeRemaining
}

func (o *JSONObserver) OnHeapChanged(heap HeapSnapshot) {
	o.mutex.Lock()
	defer o.mutex.Unlock()

	if o.err != nil {
		return
	}

	writer := jwriter.NewWriter()
	frame := writer.Object()

	frame.Name("Tick").Int(heap.Tick)
	frame.Name("Capacity").Int(heap.Capacity)
	frame.Name("Overhead").Int(heap.Overhead)

	heights := heap.Heights()
	blocks := frame.Name("Blocks").Array()
	for i, block := range heap.Blocks {
		obj := blocks.Object()
		obj.Name("Size").Int(block.Size)
		obj.Name("Available").Bool(block.Available)
		obj.Name("SplitOrigin").Bool(block.SplitOrigin)
		obj.Name("Height").Float64(heights[i])
		obj.End()
	}
	blocks.End()

	processes := frame.Name("Processes").Array()
	for _, process := range o.processes {
		obj := processes.Object()
		obj.Name("ID").Int(int(process.ID))
		obj.Name("Size").Int(process.Size)
		obj.Name("TimeRemaining").Int(process.TimeRemaining)
		obj.End()
	}
	processes.End()

	frame.End()

	if writer.Error() != nil {
		o.err = errors.Wrap(writer.Error(), "failed to build heap frame")
		return
	}

	_, err := o.out.Write(append(writer.Bytes(), '\n'))
	if err != nil {
		o.err = errors.Wrap(err, "failed to write heap frame")
	}
}
