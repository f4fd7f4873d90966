package sim_test

import (
	"bufio"
	"bytes"
	"encoding/json"
	"testing"

	"github.com/cockroachdb/errors"
	"github.com/stretchr/testify/require"
	"github.com/vkngwrapper/heapsim/sim"
	mock_sim "github.com/vkngwrapper/heapsim/sim/mocks"
	"go.uber.org/mock/gomock"
	"golang.org/x/exp/slog"
)

func TestHeapSnapshotHeights(t *testing.T) {
	heap := sim.HeapSnapshot{
		Capacity: 256,
		Overhead: 16,
		Blocks: []sim.BlockView{
			{Size: 100},
			{Size: 140, Available: true, SplitOrigin: true},
		},
	}

	heights := heap.Heights()
	require.Len(t, heights, 2)
	require.InDelta(t, 39.0625, heights[0], 1e-9)
	require.InDelta(t, 60.9375, heights[1], 1e-9)
	require.Equal(t, 240, heap.TotalSize())
	require.Equal(t, 140, heap.FreeSize())

	require.Equal(t, []float64{0}, sim.HeapSnapshot{Blocks: []sim.BlockView{{Size: 4}}}.Heights())
}

func TestMultiObserverForwardsInOrder(t *testing.T) {
	ctrl := gomock.NewController(t)
	first := mock_sim.NewMockObserver(ctrl)
	second := mock_sim.NewMockObserver(ctrl)

	observer := sim.MultiObserver{first, second}

	view := sim.ProcessView{ID: 3, Size: 10}
	gomock.InOrder(
		first.EXPECT().OnProcessCreated(view),
		second.EXPECT().OnProcessCreated(view),
		first.EXPECT().OnProcessTimeChanged(sim.ProcessID(3), 2),
		second.EXPECT().OnProcessTimeChanged(sim.ProcessID(3), 2),
		first.EXPECT().OnProcessRemoved(sim.ProcessID(3)),
		second.EXPECT().OnProcessRemoved(sim.ProcessID(3)),
		first.EXPECT().OnHeapChanged(gomock.Any()),
		second.EXPECT().OnHeapChanged(gomock.Any()),
	)

	observer.OnProcessCreated(view)
	observer.OnProcessTimeChanged(3, 2)
	observer.OnProcessRemoved(3)
	observer.OnHeapChanged(sim.HeapSnapshot{})
}

type jsonFrame struct {
	Tick     int
	Capacity int
	Overhead int
	Blocks   []struct {
		Size        int
		Available   bool
		SplitOrigin bool
		Height      float64
	}
	Processes []struct {
		ID            int
		Size          int
		TimeRemaining int
	}
}

func readFrames(t *testing.T, out *bytes.Buffer) []jsonFrame {
	var frames []jsonFrame
	scanner := bufio.NewScanner(out)
	for scanner.Scan() {
		var frame jsonFrame
		require.NoError(t, json.Unmarshal(scanner.Bytes(), &frame))
		frames = append(frames, frame)
	}
	require.NoError(t, scanner.Err())
	return frames
}

func TestJSONObserverWritesFramePerTick(t *testing.T) {
	var out bytes.Buffer
	observer := sim.NewJSONObserver(&out)

	scheduler := createScheduler(t, sim.CreateOptions{
		BlockSizes: []int{256},
		Overhead:   16,
		Observer:   observer,
	})

	_, err := scheduler.Submit(100, 2)
	require.NoError(t, err)
	_, err = scheduler.Submit(500, 1)
	require.NoError(t, err)

	scheduler.Step(3)
	require.NoError(t, observer.Err())

	frames := readFrames(t, &out)
	require.Len(t, frames, 3)

	first := frames[0]
	require.Equal(t, 1, first.Tick)
	require.Equal(t, 256, first.Capacity)
	require.Equal(t, 16, first.Overhead)
	require.Len(t, first.Blocks, 2)
	require.Equal(t, 100, first.Blocks[0].Size)
	require.False(t, first.Blocks[0].Available)
	require.True(t, first.Blocks[1].SplitOrigin)
	require.InDelta(t, 100, first.Blocks[0].Height+first.Blocks[1].Height, 1e-9)
	require.Len(t, first.Processes, 2)
	require.Equal(t, 2, first.Processes[0].TimeRemaining)

	require.Equal(t, 1, frames[1].Processes[0].TimeRemaining)

	last := frames[2]
	require.Len(t, last.Processes, 1)
	require.Equal(t, 1, last.Processes[0].ID)
	require.True(t, last.Blocks[0].Available)
}

type failingWriter struct{}

func (failingWriter) Write(p []byte) (int, error) {
	return 0, errors.New("disk full")
}

func TestJSONObserverRecordsWriteError(t *testing.T) {
	observer := sim.NewJSONObserver(failingWriter{})

	observer.OnHeapChanged(sim.HeapSnapshot{Tick: 1})
	require.ErrorContains(t, observer.Err(), "disk full")

	observer.OnHeapChanged(sim.HeapSnapshot{Tick: 2})
	require.ErrorContains(t, observer.Err(), "failed to write heap frame")
}

func TestJSONObserverIgnoresUnknownProcesses(t *testing.T) {
	var out bytes.Buffer
	observer := sim.NewJSONObserver(&out)

	observer.OnProcessTimeChanged(42, 1)
	observer.OnProcessRemoved(42)
	observer.OnHeapChanged(sim.HeapSnapshot{})

	frames := readFrames(t, &out)
	require.Len(t, frames, 1)
	require.Empty(t, frames[0].Processes)
}

func TestLogObserver(t *testing.T) {
	var out bytes.Buffer
	logger := slog.New(slog.HandlerOptions{Level: slog.LevelDebug}.NewTextHandler(&out))

	scheduler := createScheduler(t, sim.CreateOptions{
		BlockSizes: []int{128},
		Observer:   sim.LogObserver{Logger: logger},
	})

	_, err := scheduler.Submit(64, 1)
	require.NoError(t, err)
	scheduler.Step(2)

	logged := out.String()
	require.Contains(t, logged, "process created")
	require.Contains(t, logged, "process time")
	require.Contains(t, logged, "process removed")
	require.Contains(t, logged, "level=INFO msg=heap Tick=2")
}
