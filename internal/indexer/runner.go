package indexer

import (
	"context"
	"fmt"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"go.uber.org/zap"

	"poolLedger/internal/model"
	"poolLedger/internal/storage"
)

// LogSource is the chain access the runner needs. *chain.Client implements it.
type LogSource interface {
	ChainID(ctx context.Context) (uint64, error)
	LatestBlockNumber(ctx context.Context) (uint64, error)
	BlockTimestamps(ctx context.Context, numbers []uint64) (map[uint64]uint64, error)
	FilterLogs(ctx context.Context, fromBlock, toBlock uint64, addresses []common.Address, topics ...[]common.Hash) ([]types.Log, error)
	TransactionSenders(ctx context.Context, hashes []common.Hash) (map[common.Hash]common.Address, error)
}

// RunConfig holds runtime settings for the indexer.
type RunConfig struct {
	FromBlock uint64
	// ToBlock of zero follows the chain head minus Confirmations.
	ToBlock       uint64
	Confirmations uint64
	// Addresses are the PoolManager and fee hook contracts.
	Addresses []common.Address
	Topic0    []common.Hash
	// PoolIDs restricts logs to these pools (topic1) when non-empty.
	PoolIDs []common.Hash
	// SenderTopics lists topic0s whose logs get the transaction origin attached.
	SenderTopics      []common.Hash
	BatchSize         uint64
	CheckpointPath    string
	CheckpointEnabled bool
	MaxRetries        int
	RetryBackoff      time.Duration
}

// Runner streams logs from the chain and writes them to storage in canonical order.
type Runner struct {
	cfg        RunConfig
	chain      LogSource
	storage    storage.Storage
	logger     *zap.Logger
	seen       map[string]struct{}
	checkpoint *CheckpointStore
	now        func() time.Time
}

// NewRunner builds a Runner with its dependencies.
func NewRunner(cfg RunConfig, source LogSource, storageSink storage.Storage, logger *zap.Logger) *Runner {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Runner{
		cfg:        cfg,
		chain:      source,
		storage:    storageSink,
		logger:     logger,
		seen:       make(map[string]struct{}),
		checkpoint: NewCheckpointStore(cfg.CheckpointPath, cfg.CheckpointEnabled),
		now:        time.Now,
	}
}

// Run executes the indexing loop.
func (r *Runner) Run(ctx context.Context) error {
	if r.chain == nil {
		return fmt.Errorf("chain client is nil")
	}
	if r.storage == nil {
		return fmt.Errorf("storage is nil")
	}
	if r.cfg.BatchSize == 0 {
		return fmt.Errorf("batch size must be greater than zero")
	}
	if len(r.cfg.Addresses) == 0 {
		return fmt.Errorf("at least one address is required")
	}

	chainID, err := r.chain.ChainID(ctx)
	if err != nil {
		return fmt.Errorf("get chain id: %w", err)
	}

	from, to, err := r.bounds(ctx, chainID)
	if err != nil {
		return err
	}
	if from > to {
		r.logger.Info("nothing to sync", zap.Uint64("from", from), zap.Uint64("to", to))
		return nil
	}

	ranges, err := SplitRange(from, to, r.cfg.BatchSize)
	if err != nil {
		return err
	}

	for _, blockRange := range ranges {
		if err := ctx.Err(); err != nil {
			return err
		}

		r.logger.Info("fetch logs", zap.Uint64("from", blockRange.From), zap.Uint64("to", blockRange.To))
		logs, err := r.fetchRange(ctx, blockRange)
		if err != nil {
			return fmt.Errorf("filter logs: %w", err)
		}

		records, err := r.buildRecords(ctx, chainID, logs)
		if err != nil {
			return err
		}
		if err := r.storage.PutLogBatch(records); err != nil {
			return fmt.Errorf("store logs: %w", err)
		}
		if err := r.checkpoint.Save(chainID, blockRange.To); err != nil {
			return err
		}

		r.logger.Info("batch complete", zap.Int("logs", len(records)), zap.Uint64("from", blockRange.From), zap.Uint64("to", blockRange.To))
	}
	return nil
}

func (r *Runner) bounds(ctx context.Context, chainID uint64) (uint64, uint64, error) {
	from := r.cfg.FromBlock
	to := r.cfg.ToBlock
	if to == 0 {
		latest, err := r.chain.LatestBlockNumber(ctx)
		if err != nil {
			return 0, 0, fmt.Errorf("get latest block: %w", err)
		}
		if latest < r.cfg.Confirmations {
			return 1, 0, nil
		}
		to = latest - r.cfg.Confirmations
	}

	cp, ok, err := r.checkpoint.Load()
	if err != nil {
		return 0, 0, err
	}
	if ok {
		if cp.ChainID != 0 && cp.ChainID != chainID {
			return 0, 0, fmt.Errorf("checkpoint is for chain %d, connected to %d", cp.ChainID, chainID)
		}
		if cp.LastProcessedBlock >= from {
			from = cp.LastProcessedBlock + 1
			r.logger.Info("resume from checkpoint", zap.Uint64("last_processed", cp.LastProcessedBlock), zap.Uint64("from", from))
		}
	}
	return from, to, nil
}

// fetchRange filters logs for a range, halving it when the node keeps
// rejecting the request (typically a result size limit).
func (r *Runner) fetchRange(ctx context.Context, blockRange BlockRange) ([]types.Log, error) {
	logs, err := r.filterLogsWithRetry(ctx, blockRange)
	if err == nil {
		return logs, nil
	}
	left, right, ok := blockRange.Halve()
	if !ok || ctx.Err() != nil {
		return nil, err
	}
	r.logger.Warn("splitting block range", zap.Uint64("from", blockRange.From), zap.Uint64("to", blockRange.To), zap.Error(err))

	head, err := r.fetchRange(ctx, left)
	if err != nil {
		return nil, err
	}
	tail, err := r.fetchRange(ctx, right)
	if err != nil {
		return nil, err
	}
	return append(head, tail...), nil
}

func (r *Runner) filterLogsWithRetry(ctx context.Context, blockRange BlockRange) ([]types.Log, error) {
	retry := newRetrier(r.cfg.MaxRetries, r.cfg.RetryBackoff, func(attempt int, err error) {
		r.logger.Warn("filter logs failed", zap.Error(err), zap.Int("attempt", attempt), zap.Uint64("from", blockRange.From), zap.Uint64("to", blockRange.To))
	})

	var logs []types.Log
	err := retry.do(ctx, func(ctx context.Context) error {
		var err error
		logs, err = r.chain.FilterLogs(ctx, blockRange.From, blockRange.To, r.cfg.Addresses, r.cfg.Topic0, r.cfg.PoolIDs)
		return err
	})
	return logs, err
}

func (r *Runner) buildRecords(ctx context.Context, chainID uint64, logs []types.Log) ([]model.LogRecord, error) {
	fresh := make([]types.Log, 0, len(logs))
	for _, log := range logs {
		if log.Removed {
			r.logger.Warn("skipping removed log", zap.Uint64("block", log.BlockNumber), zap.String("tx", log.TxHash.Hex()), zap.Uint("log_index", log.Index))
			continue
		}
		if r.isDuplicate(log) {
			continue
		}
		fresh = append(fresh, log)
	}
	if len(fresh) == 0 {
		return nil, nil
	}

	timestamps, err := r.blockTimestampsWithRetry(ctx, blockNumbers(fresh))
	if err != nil {
		return nil, fmt.Errorf("block timestamps: %w", err)
	}

	var senders map[common.Hash]common.Address
	if hashes := senderTxHashes(fresh, r.cfg.SenderTopics); len(hashes) > 0 {
		senders, err = r.transactionSendersWithRetry(ctx, hashes)
		if err != nil {
			return nil, fmt.Errorf("transaction senders: %w", err)
		}
	}

	ingestedAt := r.now().UTC()
	records := make([]model.LogRecord, 0, len(fresh))
	for _, log := range fresh {
		ts, ok := timestamps[log.BlockNumber]
		if !ok {
			return nil, fmt.Errorf("missing timestamp for block %d", log.BlockNumber)
		}
		record := buildLogRecord(chainID, log, ts, ingestedAt)
		if from, ok := senders[log.TxHash]; ok {
			record.TxFrom = from.Hex()
		}
		records = append(records, record)
	}
	SortLogRecords(records)
	return records, nil
}

func (r *Runner) blockTimestampsWithRetry(ctx context.Context, numbers []uint64) (map[uint64]uint64, error) {
	retry := newRetrier(r.cfg.MaxRetries, r.cfg.RetryBackoff, func(attempt int, err error) {
		r.logger.Warn("block timestamp fetch failed", zap.Error(err), zap.Int("attempt", attempt), zap.Int("blocks", len(numbers)))
	})

	var timestamps map[uint64]uint64
	err := retry.do(ctx, func(ctx context.Context) error {
		var err error
		timestamps, err = r.chain.BlockTimestamps(ctx, numbers)
		return err
	})
	return timestamps, err
}

func (r *Runner) transactionSendersWithRetry(ctx context.Context, hashes []common.Hash) (map[common.Hash]common.Address, error) {
	retry := newRetrier(r.cfg.MaxRetries, r.cfg.RetryBackoff, func(attempt int, err error) {
		r.logger.Warn("transaction sender fetch failed", zap.Error(err), zap.Int("attempt", attempt), zap.Int("txs", len(hashes)))
	})

	var senders map[common.Hash]common.Address
	err := retry.do(ctx, func(ctx context.Context) error {
		var err error
		senders, err = r.chain.TransactionSenders(ctx, hashes)
		return err
	})
	return senders, err
}

func (r *Runner) isDuplicate(log types.Log) bool {
	id := fmt.Sprintf("%d:%s:%d", log.BlockNumber, log.TxHash.Hex(), log.Index)
	if _, ok := r.seen[id]; ok {
		return true
	}
	r.seen[id] = struct{}{}
	return false
}
