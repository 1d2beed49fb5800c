package ledger

import (
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/shopspring/decimal"

	"poolLedger/internal/model"
	"poolLedger/internal/pricing"
)

const snapshotVersion = 1

// PoolState is the folded state of one pool.
type PoolState struct {
	ID                 common.Hash       `json:"id"`
	Token0             common.Address    `json:"token0"`
	Token1             common.Address    `json:"token1"`
	FeeRate            uint32            `json:"fee_rate"`
	TickSpacing        int32             `json:"tick_spacing"`
	Hooks              common.Address    `json:"hooks"`
	Tracked            bool              `json:"tracked"`
	Tick               int32             `json:"tick"`
	SqrtPriceX96       *big.Int          `json:"sqrt_price_x96"`
	Liquidity          *big.Int          `json:"liquidity"`
	Reserve0           *big.Int          `json:"reserve0"`
	Reserve1           *big.Int          `json:"reserve1"`
	TxCount            uint64            `json:"tx_count"`
	TVLUSD             pricing.Valuation `json:"tvl_usd"`
	CreatedAtBlock     uint64            `json:"created_at_block"`
	CreatedAtTimestamp uint64            `json:"created_at_timestamp"`
	UpdatedAtBlock     uint64            `json:"updated_at_block"`
	Halted             bool              `json:"halted"`
	HaltReason         string            `json:"halt_reason,omitempty"`
}

// PositionState is an owner's liquidity in one range of a tracked pool.
type PositionState struct {
	ID        string         `json:"id"`
	PoolID    common.Hash    `json:"pool_id"`
	Owner     common.Address `json:"owner"`
	TickLower int32          `json:"tick_lower"`
	TickUpper int32          `json:"tick_upper"`
	Salt      common.Hash    `json:"salt"`
	Liquidity *big.Int       `json:"liquidity"`
}

// TokenState holds token metadata and its latest derived price.
type TokenState struct {
	Address  common.Address `json:"address"`
	Symbol   string         `json:"symbol"`
	Name     string         `json:"name"`
	Decimals uint8          `json:"decimals"`
	PriceUSD pricing.Price  `json:"price_usd"`
	// Tracked is set once the token appears in a tracked pool.
	Tracked bool `json:"tracked"`
}

// DayState accumulates a pool's figures for the current day bucket.
type DayState struct {
	PoolID        common.Hash       `json:"pool_id"`
	DayID         int64             `json:"day_id"`
	SwapCount     uint64            `json:"swap_count"`
	UnpricedSwaps uint64            `json:"unpriced_swaps"`
	Volume0       *big.Int          `json:"volume0"`
	Volume1       *big.Int          `json:"volume1"`
	Fee0          *big.Int          `json:"fee0"`
	Fee1          *big.Int          `json:"fee1"`
	VolumeUSD     decimal.Decimal   `json:"volume_usd"`
	FeesUSD       decimal.Decimal   `json:"fees_usd"`
	TVLUSD        pricing.Valuation `json:"tvl_usd"`
	FeeRate       uint32            `json:"fee_rate"`
}

// Snapshot is the complete folded state, persisted to resume a run.
type Snapshot struct {
	Version   int                            `json:"version"`
	ChainID   uint64                         `json:"chain_id"`
	Cursor    model.EventPosition            `json:"cursor"`
	Pools     map[common.Hash]*PoolState     `json:"pools"`
	Positions map[string]*PositionState      `json:"positions"`
	Tokens    map[common.Address]*TokenState `json:"tokens"`
	Days      map[common.Hash]*DayState      `json:"days"`
}

func newSnapshot(chainID uint64) *Snapshot {
	return &Snapshot{
		Version:   snapshotVersion,
		ChainID:   chainID,
		Pools:     make(map[common.Hash]*PoolState),
		Positions: make(map[string]*PositionState),
		Tokens:    make(map[common.Address]*TokenState),
		Days:      make(map[common.Hash]*DayState),
	}
}

// normalize fills maps that a decoded snapshot may leave nil.
func (s *Snapshot) normalize() {
	if s.Pools == nil {
		s.Pools = make(map[common.Hash]*PoolState)
	}
	if s.Positions == nil {
		s.Positions = make(map[string]*PositionState)
	}
	if s.Tokens == nil {
		s.Tokens = make(map[common.Address]*TokenState)
	}
	if s.Days == nil {
		s.Days = make(map[common.Hash]*DayState)
	}
}

func newDayState(pool *PoolState, dayID int64) *DayState {
	return &DayState{
		PoolID:  pool.ID,
		DayID:   dayID,
		Volume0: new(big.Int),
		Volume1: new(big.Int),
		Fee0:    new(big.Int),
		Fee1:    new(big.Int),
		TVLUSD:  pool.TVLUSD,
		FeeRate: pool.FeeRate,
	}
}
