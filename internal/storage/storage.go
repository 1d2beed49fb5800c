package storage

import (
	"context"

	"poolLedger/internal/model"
)

// Storage defines a sink for log records.
type Storage interface {
	PutLogBatch(logs []model.LogRecord) error
}

// ChangesetSink persists ledger rows.
type ChangesetSink interface {
	Flush(ctx context.Context, changes *model.Changeset) error
}
