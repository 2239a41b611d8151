package main

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"testing"

	"github.com/saylorsolutions/busx/slogx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func smallConfig(locking string) config {
	return config{
		Handlers:   8,
		IDs:        4,
		Events:     200,
		Goroutines: 3,
		Locking:    locking,
		Phases:     allPhases,
		LogLevel:   "debug",
	}
}

func TestBench_Run(t *testing.T) {
	for _, locking := range []string{"locked", "lockless"} {
		t.Run(locking, func(t *testing.T) {
			abs := slogx.NewAbsorber(slog.LevelDebug)
			b, err := newBench(smallConfig(locking), slog.New(abs))
			require.NoError(t, err)
			defer b.close()

			results, err := b.run(context.Background())
			require.NoError(t, err)
			require.Len(t, results, 3)

			dispatch, queue, thrash := results[0], results[1], results[2]
			assert.Equal(t, phaseDispatch, dispatch.Phase)
			assert.Equal(t, 201, dispatch.Events)
			// Each of the 200 events reaches the 2 handlers at its address, and the broadcast reaches all 8.
			assert.Equal(t, uint64(200*2+8), dispatch.HandlerCalls)

			assert.Equal(t, 200, queue.Events)
			assert.Equal(t, uint64(200*2), queue.HandlerCalls)
			assert.Equal(t, 0, b.bus.QueuedEventCount())

			assert.Empty(t, thrash.Skipped)
			assert.Equal(t, 66*3, thrash.Events)
			assert.Equal(t, 8, b.bus.TotalHandlers(), "Churned handlers are all disconnected")

			var moves, scales int64
			for _, c := range b.components {
				moves += c.moves.Load()
				scales += c.scales.Load()
			}
			assert.Equal(t, int64(8), scales)
			assert.GreaterOrEqual(t, moves, int64(800))
		})
	}
}

func TestBench_Run_NoLocking(t *testing.T) {
	abs := slogx.NewAbsorber(slog.LevelDebug)
	conf := smallConfig("none")
	conf.Phases = []string{phaseThrash}
	b, err := newBench(conf, slog.New(abs))
	require.NoError(t, err)
	defer b.close()

	results, err := b.run(context.Background())
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.NotEmpty(t, results[0].Skipped)
	assert.Equal(t, 1, abs.Count(slog.LevelWarn))
}

func TestBench_Run_Cancelled(t *testing.T) {
	b, err := newBench(smallConfig("locked"), slog.New(slogx.NewAbsorber(slog.LevelError)))
	require.NoError(t, err)
	defer b.close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	results, err := b.run(ctx)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Empty(t, results)
}

func TestRun_JSON(t *testing.T) {
	var stdout, stderr bytes.Buffer
	err := run([]string{
		"--json",
		"--handlers", "4",
		"--ids", "2",
		"--events", "50",
		"--locking", "none",
		"--log-level", "warn",
	}, &stdout, &stderr)
	require.NoError(t, err)

	var r report
	require.NoError(t, json.Unmarshal(stdout.Bytes(), &r))
	require.Len(t, r.Phases, 3)
	assert.Equal(t, "thrash", r.Phases[2].Phase)
	assert.NotEmpty(t, r.Phases[2].Skipped)
	assert.Equal(t, 1, r.Warnings)
	assert.Equal(t, uint64(4), r.Stats.Connects)
	assert.Equal(t, uint64(51), r.Stats.Queued, "Every queued event plus the call that stops the pump")

	// Logs are JSON when the output isn't a terminal.
	line, _, _ := bytes.Cut(stderr.Bytes(), []byte("\n"))
	var record map[string]any
	require.NoError(t, json.Unmarshal(line, &record))
	assert.Equal(t, "WARN", record["level"])
}

func TestWriteReport_Text(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, writeReport(&buf, false, report{
		Phases: []phaseResult{
			{Phase: phaseDispatch, Events: 10, HandlerCalls: 20},
			{Phase: phaseThrash, Skipped: "requires a locking policy"},
		},
		Warnings: 1,
	}))
	out := buf.String()
	assert.Contains(t, out, "PHASE")
	assert.Contains(t, out, "dispatch")
	assert.Contains(t, out, "skipped: requires a locking policy")
	assert.Contains(t, out, "warnings=1")
}

func TestNewLogger(t *testing.T) {
	var buf bytes.Buffer
	log, problems := newLogger(config{LogLevel: "error"}, &buf)
	log.Info("ignored")
	log.Warn("filtered")
	log.Error("kept")
	assert.Equal(t, 1, problems.Count(slog.LevelError))
	assert.Equal(t, 1, problems.Count(slog.LevelWarn), "Warnings are counted even when the console filters them")
	assert.Equal(t, 0, problems.Count(slog.LevelInfo))
	assert.Equal(t, 1, bytes.Count(buf.Bytes(), []byte("\n")), "Only the error reaches the console")
}
