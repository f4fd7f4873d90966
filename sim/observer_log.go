package sim

import (
	"golang.org/x/exp/slog"
)

// LogObserver writes every notification to a structured logger. Heap changes are logged at Info,
// everything else at Debug.
type LogObserver struct {
	Logger *slog.Logger
}

var _ Observer = LogObserver{}

func (o LogObserver) OnProcessCreated(process ProcessView) {
	o.Logger.Debug("process created",
		slog.Uint64("ID", uint64(process.ID)),
		slog.Int("Size", process.Size),
		slog.Int("Time", process.Lifetime),
	)
}

func (o LogObserver) OnProcessRemoved(id ProcessID) {
	o.Logger.Debug("process removed", slog.Uint64("ID", uint64(id)))
}

func (o LogObserver) OnHeapChanged(heap HeapSnapshot) {
	occupied := 0
	for _, block := range heap.Blocks {
		if !block.Available {
			occupied++
		}
	}

	o.Logger.Info("heap",
		slog.Int("Tick", heap.Tick),
		slog.Int("Blocks", len(heap.Blocks)),
		slog.Int("Occupied", occupied),
		slog.Int("FreeSize", heap.FreeSize()),
		slog.Int("TotalSize", heap.TotalSize()),
	)
}

func (o LogObserver) OnProcessTimeChanged(id ProcessID, timeRemaining int) {
	o.Logger.Debug("process time", slog.Uint64("ID", uint64(id)), slog.Int("TimeRemaining", timeRemaining))
}
