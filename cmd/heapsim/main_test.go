package main

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, document string) string {
	path := filepath.Join(t.TempDir(), "heapsim.yaml")
	require.NoError(t, os.WriteFile(path, []byte(document), 0o600))
	return path
}

const scriptedRun = `
heap:
  blocks: [256]
  overhead: 16
clock:
  interval: 1ms
workload:
  - {tick: 1, size: 100, time: 2}
  - {tick: 2, size: 400, time: 1}
`

func TestRunPrintsStatistics(t *testing.T) {
	var stdout, stderr bytes.Buffer
	code := run(context.Background(), []string{"-config", writeConfig(t, scriptedRun), "-ticks", "4"}, &stdout, &stderr)
	require.Equal(t, 0, code, stderr.String())

	var stats struct {
		Tick      int
		Processes struct {
			Tracked int
			Pending int
		}
	}
	require.NoError(t, json.Unmarshal(bytes.TrimSpace(stdout.Bytes()), &stats))
	require.Equal(t, 4, stats.Tick)
	require.Equal(t, 1, stats.Processes.Tracked)
	require.Equal(t, 1, stats.Processes.Pending)

	require.Contains(t, stderr.String(), "Starting heapsim")
	require.Contains(t, stderr.String(), "Stopped heapsim")
}

func TestRunWritesJSONFrames(t *testing.T) {
	var stdout, stderr bytes.Buffer
	code := run(context.Background(), []string{"-config", writeConfig(t, scriptedRun), "-ticks", "3", "-json"}, &stdout, &stderr)
	require.Equal(t, 0, code, stderr.String())

	var ticks []int
	scanner := bufio.NewScanner(&stdout)
	for scanner.Scan() {
		var frame struct{ Tick int }
		require.NoError(t, json.Unmarshal(scanner.Bytes(), &frame))
		ticks = append(ticks, frame.Tick)
	}
	require.Equal(t, []int{1, 2, 3}, ticks)
}

func TestRunStopsWhenInterrupted(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	var stdout, stderr bytes.Buffer
	code := run(ctx, []string{"-interval", "1h", "-ticks", "0", "-debug"}, &stdout, &stderr)
	require.Equal(t, 0, code, stderr.String())
	require.Contains(t, stderr.String(), "Scheduler::Run")
}

func TestRunRejectsBadInput(t *testing.T) {
	var stdout, stderr bytes.Buffer
	require.Equal(t, 2, run(context.Background(), []string{"-nonsense"}, &stdout, &stderr))

	stderr.Reset()
	require.Equal(t, 1, run(context.Background(), []string{"-config", filepath.Join(t.TempDir(), "missing.yaml")}, &stdout, &stderr))
	require.Contains(t, stderr.String(), "heapsim failed")

	stderr.Reset()
	require.Equal(t, 1, run(context.Background(), []string{"-config", writeConfig(t, "heap:\n  blocks: []\n")}, &stdout, &stderr))
	require.True(t, strings.Contains(stderr.String(), "heap.blocks"))
}
