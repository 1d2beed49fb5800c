package ledger

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"go.uber.org/zap"

	"poolLedger/internal/model"
	"poolLedger/internal/pricing"
)

const defaultTokenDecimals = 18

// Config controls how events are folded.
type Config struct {
	ChainID uint64
	Graph   pricing.Graph
	// TrackedHooks limits entity output to pools using these hooks.
	// When empty every pool is tracked.
	TrackedHooks []common.Address
	// TokenDecimals overrides decimals reported by token metadata.
	TokenDecimals map[common.Address]uint8
	VolumePolicy  pricing.VolumePolicy
}

// Ledger is a single-threaded state machine over canonically ordered pool events.
// Each Apply computes every output before touching state, so a rejected event
// leaves the fold unchanged.
type Ledger struct {
	cfg      Config
	hooks    map[common.Address]struct{}
	state    *Snapshot
	pending  *model.Changeset
	resolver *pricing.Resolver
	metrics  *Metrics
	logger   *zap.Logger
}

func New(cfg Config, metrics *Metrics, logger *zap.Logger) *Ledger {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.VolumePolicy == nil {
		cfg.VolumePolicy = pricing.AveragePricedLegs
	}
	hooks := make(map[common.Address]struct{}, len(cfg.TrackedHooks))
	for _, hook := range cfg.TrackedHooks {
		hooks[hook] = struct{}{}
	}

	l := &Ledger{
		cfg:     cfg,
		hooks:   hooks,
		state:   newSnapshot(cfg.ChainID),
		pending: model.NewChangeset(),
		metrics: metrics,
		logger:  logger,
	}
	l.resolver = pricing.NewResolver(cfg.Graph, l, logger)
	return l
}

// Restore replaces the folded state with a previously saved snapshot.
func (l *Ledger) Restore(snapshot *Snapshot) error {
	if snapshot == nil {
		return fmt.Errorf("snapshot is nil")
	}
	if snapshot.Version != snapshotVersion {
		return fmt.Errorf("unsupported snapshot version %d", snapshot.Version)
	}
	if snapshot.ChainID != 0 && l.cfg.ChainID != 0 && snapshot.ChainID != l.cfg.ChainID {
		return fmt.Errorf("snapshot chain id %d does not match %d", snapshot.ChainID, l.cfg.ChainID)
	}
	snapshot.normalize()
	l.state = snapshot
	return nil
}

// Snapshot returns the live folded state. Callers must not modify it.
func (l *Ledger) Snapshot() *Snapshot {
	return l.state
}

// Cursor returns the position of the last processed event.
func (l *Ledger) Cursor() model.EventPosition {
	return l.state.Cursor
}

// Drain returns the rows produced since the previous Drain.
func (l *Ledger) Drain() *model.Changeset {
	out := l.pending
	l.pending = model.NewChangeset()
	return out
}

// Pending reports how many rows are waiting to be drained.
func (l *Ledger) Pending() int {
	return l.pending.Size()
}

func (l *Ledger) Pool(id common.Hash) (PoolState, bool) {
	pool, ok := l.state.Pools[id]
	if !ok {
		return PoolState{}, false
	}
	return *pool, true
}

func (l *Ledger) Position(id string) (PositionState, bool) {
	position, ok := l.state.Positions[id]
	if !ok {
		return PositionState{}, false
	}
	return *position, true
}

func (l *Ledger) Token(address common.Address) (TokenState, bool) {
	token, ok := l.state.Tokens[address]
	if !ok {
		return TokenState{}, false
	}
	return *token, true
}

// Day returns the pool's current day bucket.
func (l *Ledger) Day(poolID common.Hash) (DayState, bool) {
	day, ok := l.state.Days[poolID]
	if !ok {
		return DayState{}, false
	}
	return *day, true
}

// Quote implements pricing.PoolSource over the folded state.
func (l *Ledger) Quote(id common.Hash) (pricing.PoolQuote, bool) {
	pool, ok := l.state.Pools[id]
	if !ok {
		return pricing.PoolQuote{}, false
	}
	return pricing.PoolQuote{
		ID:           pool.ID,
		Token0:       pool.Token0,
		Token1:       pool.Token1,
		Decimals0:    l.decimalsOf(pool.Token0),
		Decimals1:    l.decimalsOf(pool.Token1),
		SqrtPriceX96: pool.SqrtPriceX96,
	}, true
}

// Price resolves token's USD price against the current fold.
func (l *Ledger) Price(token common.Address, contextPool *common.Hash) pricing.Price {
	return l.resolver.Resolve(token, contextPool)
}

// Apply folds one event into the state.
func (l *Ledger) Apply(record model.TypedEventRecord) error {
	start := time.Now()
	err := l.apply(record)
	outcome := Outcome(err)
	l.metrics.observeEvent(record.EventName, outcome, time.Since(start))

	if err != nil {
		fields := []zap.Field{
			zap.String("event", record.EventName),
			zap.String("pool", recordPoolID(record)),
			zap.Uint64("block", record.BlockNumber),
			zap.Uint64("tx_index", record.TxIndex),
			zap.Uint64("log_index", record.LogIndex),
			zap.Error(err),
		}
		switch outcome {
		case OutcomeDomain:
			l.logger.Error("domain error, pool halted", fields...)
		case OutcomeStale:
			l.logger.Debug("stale event ignored", fields...)
		default:
			l.logger.Warn("event skipped", fields...)
		}
	}
	return err
}

func (l *Ledger) apply(record model.TypedEventRecord) error {
	position := record.Position()
	if !l.state.Cursor.IsZero() && !l.state.Cursor.Before(position) {
		return fmt.Errorf("%w: %d/%d/%d", ErrStaleEvent, position.BlockNumber, position.TxIndex, position.LogIndex)
	}

	var err error
	switch record.EventName {
	case model.EventInitialize:
		err = l.applyInitialize(record)
	case model.EventModifyLiquidity:
		err = l.applyModifyLiquidity(record)
	case model.EventSwap:
		err = l.applySwap(record)
	case model.EventFeeUpdated:
		err = l.applyFeeUpdated(record)
	default:
		err = fmt.Errorf("%w: unsupported event %q", ErrInvalidEvent, record.EventName)
	}

	l.state.Cursor = position
	if err != nil && IsDomainError(err) {
		l.halt(record, err)
	}
	return err
}

func (l *Ledger) halt(record model.TypedEventRecord, cause error) {
	id, err := pricing.ParsePoolID(recordPoolID(record))
	if err != nil {
		return
	}
	pool, ok := l.state.Pools[id]
	if !ok || pool.Halted {
		return
	}
	pool.Halted = true
	pool.HaltReason = cause.Error()
}

// lookupPool resolves a pool id for an event that requires an initialized, live pool.
func (l *Ledger) lookupPool(poolID string) (*PoolState, error) {
	id, err := pricing.ParsePoolID(poolID)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidEvent, err)
	}
	pool, ok := l.state.Pools[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownPool, id.Hex())
	}
	if pool.Halted {
		return nil, fmt.Errorf("%w: %s: %s", ErrPoolHalted, id.Hex(), pool.HaltReason)
	}
	return pool, nil
}

func (l *Ledger) isTracked(hooks common.Address) bool {
	if len(l.hooks) == 0 {
		return true
	}
	_, ok := l.hooks[hooks]
	return ok
}

func (l *Ledger) decimalsOf(token common.Address) uint8 {
	if decimals, ok := l.cfg.TokenDecimals[token]; ok {
		return decimals
	}
	if state, ok := l.state.Tokens[token]; ok {
		return state.Decimals
	}
	return defaultTokenDecimals
}

func decodePayload(record model.TypedEventRecord, out interface{}) error {
	if len(record.Decoded) == 0 {
		return fmt.Errorf("%w: empty payload", ErrInvalidEvent)
	}
	if err := json.Unmarshal(record.Decoded, out); err != nil {
		return fmt.Errorf("%w: decode %s: %v", ErrInvalidEvent, record.EventName, err)
	}
	return nil
}

// recordPoolID returns the pool id of a record, reading the payload when the
// envelope does not carry it.
func recordPoolID(record model.TypedEventRecord) string {
	if record.PoolID != "" {
		return record.PoolID
	}
	var ref struct {
		PoolID string `json:"pool_id"`
	}
	if err := json.Unmarshal(record.Decoded, &ref); err != nil {
		return ""
	}
	return ref.PoolID
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}

func wrapInvalid(field string, err error) error {
	if errors.Is(err, ErrInvalidEvent) {
		return fmt.Errorf("%s: %w", field, err)
	}
	return fmt.Errorf("%w: %s: %v", ErrInvalidEvent, field, err)
}
