package storage

import (
	"bufio"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"poolLedger/internal/model"
)

func readLines(t *testing.T, path string) []string {
	t.Helper()
	file, err := os.Open(path)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer file.Close()

	var lines []string
	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		lines = append(lines, scanner.Text())
	}
	if err := scanner.Err(); err != nil {
		t.Fatalf("scan: %v", err)
	}
	return lines
}

func TestJsonlStorageAppends(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "logs.jsonl")
	store := NewJsonlStorage(path)

	if err := store.PutLogBatch(nil); err != nil {
		t.Fatalf("empty batch: %v", err)
	}
	batch := []model.LogRecord{{BlockNumber: 1, LogIndex: 0}, {BlockNumber: 1, LogIndex: 1}}
	if err := store.PutLogBatch(batch); err != nil {
		t.Fatalf("put: %v", err)
	}
	if err := store.PutLogBatch(batch[:1]); err != nil {
		t.Fatalf("put: %v", err)
	}

	lines := readLines(t, path)
	if len(lines) != 3 {
		t.Fatalf("expected 3 lines, got %d", len(lines))
	}
	var record model.LogRecord
	if err := json.Unmarshal([]byte(lines[1]), &record); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if record.LogIndex != 1 {
		t.Fatalf("unexpected log index %d", record.LogIndex)
	}
}

func TestChangesetSinkOrdersRows(t *testing.T) {
	changes := model.NewChangeset()
	changes.PutPool(model.Pool{ID: "0xb"})
	changes.PutPool(model.Pool{ID: "0xa"})
	changes.PutToken(model.Token{Address: "0x1"})
	changes.PutPosition(model.Position{ID: "p1"})
	changes.DeletePosition("p2")
	changes.AddSwap(model.Swap{ID: "0xtx-1"})
	changes.AddFeeUpdate(model.FeeUpdate{ID: "0xtx-2"})
	changes.PutDayData(model.PoolDayData{ID: "0xa-20104"})

	path := filepath.Join(t.TempDir(), "changes.jsonl")
	sink := NewJsonlChangesetSink(path)
	if err := sink.Flush(context.Background(), changes); err != nil {
		t.Fatalf("flush: %v", err)
	}
	if err := sink.Flush(context.Background(), model.NewChangeset()); err != nil {
		t.Fatalf("flush empty: %v", err)
	}

	lines := readLines(t, path)
	want := []struct{ table, op, id string }{
		{"tokens", OpUpsert, "0x1"},
		{"tracked_pools", OpUpsert, "0xa"},
		{"tracked_pools", OpUpsert, "0xb"},
		{"hook_positions", OpUpsert, "p1"},
		{"hook_positions", OpDelete, "p2"},
		{"swaps", OpInsert, "0xtx-1"},
		{"fee_updates", OpInsert, "0xtx-2"},
		{"pool_day_data", OpUpsert, "0xa-20104"},
	}
	if len(lines) != len(want) {
		t.Fatalf("expected %d lines, got %d", len(want), len(lines))
	}
	for i, line := range lines {
		var row ChangeRow
		if err := json.Unmarshal([]byte(line), &row); err != nil {
			t.Fatalf("unmarshal line %d: %v", i, err)
		}
		if row.Table != want[i].table || row.Op != want[i].op || row.ID != want[i].id {
			t.Fatalf("line %d: got %s/%s/%s, want %+v", i, row.Table, row.Op, row.ID, want[i])
		}
	}
}

func TestChangesetSinkHonorsContext(t *testing.T) {
	changes := model.NewChangeset()
	changes.PutToken(model.Token{Address: "0x1"})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	sink := NewJsonlChangesetSink(filepath.Join(t.TempDir(), "changes.jsonl"))
	if err := sink.Flush(ctx, changes); err == nil {
		t.Fatalf("expected context error")
	}
}
