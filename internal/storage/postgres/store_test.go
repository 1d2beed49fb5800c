package postgres

import (
	"strings"
	"testing"

	"github.com/jackc/pgx/v5"

	"poolLedger/internal/model"
)

func TestQueueChangesetCoversEveryRow(t *testing.T) {
	changes := model.NewChangeset()
	changes.PutToken(model.Token{Address: "0x1"})
	changes.PutPool(model.Pool{ID: "0xa"})
	changes.PutPosition(model.Position{ID: "p1"})
	changes.DeletePosition("p2")
	changes.AddSwap(model.Swap{ID: "0xtx-1"})
	changes.AddFeeUpdate(model.FeeUpdate{ID: "0xtx-2"})
	changes.PutDayData(model.PoolDayData{ID: "0xa-1"})

	batch := &pgx.Batch{}
	queueChangeset(batch, 1, changes)
	if batch.Len() != changes.Size() {
		t.Fatalf("queued %d statements for %d rows", batch.Len(), changes.Size())
	}
}

func TestSchemaDeclaresEveryTable(t *testing.T) {
	tables := []string{"tokens", "tracked_pools", "hook_positions", "swaps", "fee_updates", "pool_day_data", "ledger_state"}
	for _, table := range tables {
		found := false
		for _, stmt := range schema {
			if strings.Contains(stmt, "CREATE TABLE IF NOT EXISTS "+table+" ") {
				found = true
				break
			}
		}
		if !found {
			t.Fatalf("schema missing table %s", table)
		}
	}
}
