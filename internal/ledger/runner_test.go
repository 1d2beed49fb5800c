package ledger

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"poolLedger/internal/model"
)

type memSink struct {
	batches []*model.Changeset
	err     error
}

func (s *memSink) Flush(_ context.Context, changes *model.Changeset) error {
	if s.err != nil {
		return s.err
	}
	s.batches = append(s.batches, changes)
	return nil
}

func (s *memSink) swaps() int {
	total := 0
	for _, batch := range s.batches {
		total += len(batch.Swaps)
	}
	return total
}

func writeRecords(t *testing.T, records []model.TypedEventRecord, extra ...string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "typed_events.jsonl")
	file, err := os.Create(path)
	require.NoError(t, err)
	defer file.Close()

	enc := json.NewEncoder(file)
	for _, record := range records {
		require.NoError(t, enc.Encode(record))
	}
	for _, line := range extra {
		_, err := file.WriteString(line + "\n")
		require.NoError(t, err)
	}
	return path
}

func sampleRecords(t *testing.T) []model.TypedEventRecord {
	f := newFixture(t)
	return []model.TypedEventRecord{
		f.record(model.EventInitialize, model.InitializeEventData{
			PoolID: stablePool.Hex(), Currency0: usdc.Hex(), Currency1: usdt.Hex(),
			Fee: 3000, TickSpacing: 60, Hooks: trackedHook.Hex(), SqrtPriceX96: sqrtPriceOne,
			Token0: &model.TokenMeta{Address: usdc.Hex(), Decimals: 6, Symbol: "USDC"},
			Token1: &model.TokenMeta{Address: usdt.Hex(), Decimals: 6, Symbol: "USDT"},
		}),
		f.record(model.EventModifyLiquidity, modify(stablePool, -600, 600, "1000000")),
		f.record(model.EventSwap, swap(stablePool, "1000", "-997")),
		f.record(model.EventSwap, swap(foreignPool, "1", "-1")),
		f.record(model.EventSwap, swap(stablePool, "-1000", "1003")),
	}
}

func TestRunnerAppliesAndFlushesInBatches(t *testing.T) {
	path := writeRecords(t, sampleRecords(t), "", "{not json")
	sink := &memSink{}
	store := &FileStateStore{Path: filepath.Join(t.TempDir(), "state.json")}

	l := newFixture(t).ledger
	runner := NewRunner(RunnerConfig{BatchSize: 2, StateStore: store, Sink: sink}, l, nil)
	stats, err := runner.Run(context.Background(), path)
	require.NoError(t, err)

	assert.Equal(t, 6, stats.Total)
	assert.Equal(t, 4, stats.Applied)
	assert.Equal(t, 1, stats.Skipped)
	assert.Equal(t, 1, stats.Failed)
	assert.Equal(t, 3, stats.Flushes)
	assert.Len(t, sink.batches, 3)
	assert.Equal(t, 2, sink.swaps())

	snapshot, ok, err := store.Load(context.Background())
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, l.Cursor(), snapshot.Cursor)
}

func TestRunnerLogsCompletionOnce(t *testing.T) {
	path := writeRecords(t, sampleRecords(t))
	core, logs := observer.New(zap.InfoLevel)

	runner := NewRunner(RunnerConfig{Sink: &memSink{}}, newFixture(t).ledger, zap.New(core))
	_, err := runner.Run(context.Background(), path)
	require.NoError(t, err)

	done := logs.FilterMessage("apply complete").All()
	require.Len(t, done, 1)
	assert.EqualValues(t, 4, done[0].ContextMap()["applied"])
	assert.EqualValues(t, 1, done[0].ContextMap()["skipped"])
}

func TestRunnerResumesFromSavedState(t *testing.T) {
	path := writeRecords(t, sampleRecords(t))
	store := &FileStateStore{Path: filepath.Join(t.TempDir(), "state.json")}

	first := &memSink{}
	_, err := NewRunner(RunnerConfig{StateStore: store, Sink: first}, newFixture(t).ledger, nil).Run(context.Background(), path)
	require.NoError(t, err)

	second := &memSink{}
	l := newFixture(t).ledger
	stats, err := NewRunner(RunnerConfig{StateStore: store, Sink: second}, l, nil).Run(context.Background(), path)
	require.NoError(t, err)
	assert.Equal(t, 5, stats.Stale)
	assert.Zero(t, stats.Applied)
	assert.Empty(t, second.batches)

	pool, ok := l.Pool(stablePool)
	require.True(t, ok)
	assert.Equal(t, uint64(3), pool.TxCount)
}

func TestRunnerSurfacesSinkErrors(t *testing.T) {
	path := writeRecords(t, sampleRecords(t))
	sink := &memSink{err: errors.New("connection reset")}

	_, err := NewRunner(RunnerConfig{Sink: sink}, newFixture(t).ledger, nil).Run(context.Background(), path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "connection reset")
}

func TestRunnerRequiresSink(t *testing.T) {
	_, err := NewRunner(RunnerConfig{}, newFixture(t).ledger, nil).Run(context.Background(), "unused")
	assert.Error(t, err)
}

func TestRunnerStopsOnCanceledContext(t *testing.T) {
	path := writeRecords(t, sampleRecords(t))
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := NewRunner(RunnerConfig{Sink: &memSink{}}, newFixture(t).ledger, nil).Run(ctx, path)
	assert.ErrorIs(t, err, context.Canceled)
}
