package storage

import (
	"context"
	"sort"

	"poolLedger/internal/model"
)

// Row operations written by JsonlChangesetSink.
const (
	OpUpsert = "upsert"
	OpInsert = "insert"
	OpDelete = "delete"
)

// ChangeRow is one line of a changeset JSONL file.
type ChangeRow struct {
	Table string      `json:"table"`
	Op    string      `json:"op"`
	ID    string      `json:"id"`
	Row   interface{} `json:"row,omitempty"`
}

// JsonlChangesetSink writes ledger rows to a JSONL file in a stable order,
// for runs without a database.
type JsonlChangesetSink struct {
	writer *JsonlWriter
}

func NewJsonlChangesetSink(path string) *JsonlChangesetSink {
	return &JsonlChangesetSink{writer: NewJsonlWriter(path)}
}

func (s *JsonlChangesetSink) Flush(ctx context.Context, changes *model.Changeset) error {
	if changes.Empty() {
		return nil
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	return s.writer.Append(ChangeRows(changes)...)
}

// ChangeRows flattens a changeset. Tokens and pools come before the rows that
// reference them; map-backed tables are sorted by id.
func ChangeRows(changes *model.Changeset) []interface{} {
	rows := make([]interface{}, 0, changes.Size())
	for _, id := range sortedKeys(changes.Tokens) {
		rows = append(rows, ChangeRow{Table: "tokens", Op: OpUpsert, ID: id, Row: changes.Tokens[id]})
	}
	for _, id := range sortedKeys(changes.Pools) {
		rows = append(rows, ChangeRow{Table: "tracked_pools", Op: OpUpsert, ID: id, Row: changes.Pools[id]})
	}
	for _, id := range sortedKeys(changes.Positions) {
		rows = append(rows, ChangeRow{Table: "hook_positions", Op: OpUpsert, ID: id, Row: changes.Positions[id]})
	}
	for _, id := range sortedKeys(changes.DeletedPositions) {
		rows = append(rows, ChangeRow{Table: "hook_positions", Op: OpDelete, ID: id})
	}
	for _, swap := range changes.Swaps {
		rows = append(rows, ChangeRow{Table: "swaps", Op: OpInsert, ID: swap.ID, Row: swap})
	}
	for _, update := range changes.FeeUpdates {
		rows = append(rows, ChangeRow{Table: "fee_updates", Op: OpInsert, ID: update.ID, Row: update})
	}
	for _, id := range sortedKeys(changes.DayData) {
		rows = append(rows, ChangeRow{Table: "pool_day_data", Op: OpUpsert, ID: id, Row: changes.DayData[id]})
	}
	return rows
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for key := range m {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}
