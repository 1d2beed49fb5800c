package ledger

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os"

	"go.uber.org/zap"

	"poolLedger/internal/model"
)

// Sink persists drained changesets.
type Sink interface {
	Flush(ctx context.Context, changes *model.Changeset) error
}

// RunnerConfig controls a ledger run over a typed events file.
type RunnerConfig struct {
	// BatchSize is the number of processed events between flushes.
	BatchSize  int
	StateStore StateStore
	Sink       Sink
}

// Stats summarizes a run.
type Stats struct {
	Total   int
	Applied int
	Stale   int
	Skipped int
	Failed  int
	Flushes int
}

// Runner feeds a typed events JSONL file through a Ledger.
type Runner struct {
	cfg    RunnerConfig
	ledger *Ledger
	logger *zap.Logger
}

func NewRunner(cfg RunnerConfig, ledger *Ledger, logger *zap.Logger) *Runner {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = 1000
	}
	return &Runner{cfg: cfg, ledger: ledger, logger: logger}
}

// Run restores saved state, applies every record in inputPath and persists
// the resulting rows and snapshot after each batch.
func (r *Runner) Run(ctx context.Context, inputPath string) (Stats, error) {
	var stats Stats
	if r.ledger == nil {
		return stats, fmt.Errorf("ledger is nil")
	}
	if r.cfg.Sink == nil {
		return stats, fmt.Errorf("sink is nil")
	}

	if err := r.restore(ctx); err != nil {
		return stats, err
	}

	file, err := os.Open(inputPath)
	if err != nil {
		return stats, fmt.Errorf("open input: %w", err)
	}
	defer file.Close()

	scanner := bufio.NewScanner(file)
	buf := make([]byte, 0, 64*1024)
	scanner.Buffer(buf, 10*1024*1024)

	sinceFlush := 0
	for scanner.Scan() {
		if err := ctx.Err(); err != nil {
			return stats, err
		}
		line := bytes.TrimSpace(scanner.Bytes())
		if len(line) == 0 {
			continue
		}
		stats.Total++

		var record model.TypedEventRecord
		if err := json.Unmarshal(line, &record); err != nil {
			stats.Failed++
			r.logger.Warn("decode typed event", zap.Error(err))
			continue
		}

		switch Outcome(r.ledger.Apply(record)) {
		case OutcomeApplied:
			stats.Applied++
		case OutcomeStale:
			stats.Stale++
		default:
			stats.Skipped++
		}

		sinceFlush++
		if sinceFlush >= r.cfg.BatchSize {
			if err := r.flush(ctx, &stats); err != nil {
				return stats, err
			}
			sinceFlush = 0
		}
	}
	if err := scanner.Err(); err != nil {
		return stats, fmt.Errorf("scan input: %w", err)
	}

	if sinceFlush > 0 || r.ledger.Pending() > 0 {
		if err := r.flush(ctx, &stats); err != nil {
			return stats, err
		}
	}

	r.logger.Info("apply complete",
		zap.Int("total", stats.Total),
		zap.Int("applied", stats.Applied),
		zap.Int("stale", stats.Stale),
		zap.Int("skipped", stats.Skipped),
		zap.Int("failed", stats.Failed),
		zap.Int("flushes", stats.Flushes),
	)
	return stats, nil
}

func (r *Runner) restore(ctx context.Context) error {
	if r.cfg.StateStore == nil {
		return nil
	}
	snapshot, ok, err := r.cfg.StateStore.Load(ctx)
	if err != nil {
		return fmt.Errorf("load state: %w", err)
	}
	if !ok {
		return nil
	}
	if err := r.ledger.Restore(snapshot); err != nil {
		return fmt.Errorf("restore state: %w", err)
	}
	cursor := r.ledger.Cursor()
	r.logger.Info("resuming from snapshot",
		zap.Uint64("block", cursor.BlockNumber),
		zap.Uint64("tx_index", cursor.TxIndex),
		zap.Uint64("log_index", cursor.LogIndex),
		zap.Int("pools", len(snapshot.Pools)),
	)
	return nil
}

// flush writes pending rows before the snapshot, so a crash in between only
// replays events whose rows are idempotent upserts.
func (r *Runner) flush(ctx context.Context, stats *Stats) error {
	changes := r.ledger.Drain()
	if !changes.Empty() {
		if err := r.cfg.Sink.Flush(ctx, changes); err != nil {
			return fmt.Errorf("flush changes: %w", err)
		}
		stats.Flushes++
	}
	if r.cfg.StateStore == nil {
		return nil
	}
	if err := r.cfg.StateStore.Save(ctx, r.ledger.Snapshot()); err != nil {
		return fmt.Errorf("save state: %w", err)
	}
	return nil
}
