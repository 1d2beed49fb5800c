package ledger

import (
	"encoding/json"
	"fmt"
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"poolLedger/internal/clmath"
	"poolLedger/internal/model"
	"poolLedger/internal/pricing"
)

const (
	baseTimestamp = 1737000000
	sqrtPriceOne  = "79228162514264337593543950336"
)

var (
	usdc = common.HexToAddress("0x00000000000000000000000000000000000000a1")
	usdt = common.HexToAddress("0x00000000000000000000000000000000000000a2")
	foo  = common.HexToAddress("0x00000000000000000000000000000000000000c3")
	bar  = common.HexToAddress("0x00000000000000000000000000000000000000d4")

	trackedHook = common.HexToAddress("0x00000000000000000000000000000000000000f1")
	otherHook   = common.HexToAddress("0x00000000000000000000000000000000000000f2")
	owner       = common.HexToAddress("0x00000000000000000000000000000000000000e1")

	stablePool  = common.HexToHash("0x01")
	exoticPool  = common.HexToHash("0x02")
	foreignPool = common.HexToHash("0x03")
)

type fixture struct {
	t      *testing.T
	ledger *Ledger
	block  uint64
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	graph := pricing.Graph{
		Stables: map[common.Address]decimal.Decimal{
			usdc: decimal.NewFromInt(1),
			usdt: decimal.NewFromInt(1),
		},
		MaxHops: 1,
	}
	l := New(Config{
		ChainID:      1,
		Graph:        graph,
		TrackedHooks: []common.Address{trackedHook},
	}, nil, nil)
	return &fixture{t: t, ledger: l, block: 100}
}

func (f *fixture) record(name string, payload interface{}) model.TypedEventRecord {
	f.t.Helper()
	f.block++
	return recordAt(f.t, f.block, 0, name, payload)
}

func recordAt(t *testing.T, block, logIndex uint64, name string, payload interface{}) model.TypedEventRecord {
	t.Helper()
	data, err := json.Marshal(payload)
	require.NoError(t, err)
	return model.TypedEventRecord{
		ChainID:     1,
		BlockNumber: block,
		TxHash:      fmt.Sprintf("0x%064x", block),
		LogIndex:    logIndex,
		EventName:   name,
		Timestamp:   baseTimestamp + block,
		Decoded:     data,
	}
}

func (f *fixture) apply(name string, payload interface{}) error {
	f.t.Helper()
	return f.ledger.Apply(f.record(name, payload))
}

func (f *fixture) initialize(id common.Hash, token0, token1 common.Address, decimals uint8, hooks common.Address) {
	f.t.Helper()
	require.NoError(f.t, f.apply(model.EventInitialize, model.InitializeEventData{
		PoolID:       id.Hex(),
		Currency0:    token0.Hex(),
		Currency1:    token1.Hex(),
		Fee:          3000,
		TickSpacing:  60,
		Hooks:        hooks.Hex(),
		SqrtPriceX96: sqrtPriceOne,
		Tick:         0,
		Token0:       &model.TokenMeta{Address: token0.Hex(), Decimals: decimals, Symbol: "T0"},
		Token1:       &model.TokenMeta{Address: token1.Hex(), Decimals: decimals, Symbol: "T1"},
	}))
}

func modify(id common.Hash, lower, upper int32, delta string) model.ModifyLiquidityEventData {
	return model.ModifyLiquidityEventData{
		PoolID:         id.Hex(),
		Sender:         owner.Hex(),
		TickLower:      lower,
		TickUpper:      upper,
		LiquidityDelta: delta,
		Salt:           common.Hash{}.Hex(),
	}
}

func swap(id common.Hash, amount0, amount1 string) model.SwapEventData {
	return model.SwapEventData{
		PoolID:       id.Hex(),
		Sender:       owner.Hex(),
		Amount0:      amount0,
		Amount1:      amount1,
		SqrtPriceX96: sqrtPriceOne,
		Liquidity:    "1000000",
		Tick:         0,
		Fee:          3000,
	}
}

func assertDecimal(t *testing.T, want string, got decimal.Decimal) {
	t.Helper()
	assert.True(t, decimal.RequireFromString(want).Equal(got), "want %s, got %s", want, got)
}

func TestInitializeCreatesEmptyPool(t *testing.T) {
	f := newFixture(t)
	f.initialize(stablePool, usdc, usdt, 6, trackedHook)

	pool, ok := f.ledger.Pool(stablePool)
	require.True(t, ok)
	assert.Equal(t, usdc, pool.Token0)
	assert.Equal(t, usdt, pool.Token1)
	assert.Equal(t, uint32(3000), pool.FeeRate)
	assert.True(t, pool.Tracked)
	assert.Zero(t, pool.Liquidity.Sign())
	assert.Zero(t, pool.Reserve0.Sign())
	assert.Zero(t, pool.Reserve1.Sign())
	assert.Equal(t, sqrtPriceOne, pool.SqrtPriceX96.String())

	changes := f.ledger.Drain()
	assert.Len(t, changes.Pools, 1)
	assert.Len(t, changes.Tokens, 2)
	assert.True(t, f.ledger.Drain().Empty())
}

func TestInitializeRejectsDuplicatesAndBadPayloads(t *testing.T) {
	f := newFixture(t)
	f.initialize(stablePool, usdc, usdt, 6, trackedHook)

	err := f.apply(model.EventInitialize, model.InitializeEventData{
		PoolID: stablePool.Hex(), Currency0: usdc.Hex(), Currency1: usdt.Hex(), SqrtPriceX96: sqrtPriceOne,
	})
	assert.ErrorIs(t, err, ErrPoolExists)
	assert.Equal(t, OutcomeSkipped, Outcome(err))

	err = f.apply(model.EventInitialize, model.InitializeEventData{
		PoolID: exoticPool.Hex(), Currency0: usdt.Hex(), Currency1: usdc.Hex(), SqrtPriceX96: sqrtPriceOne,
	})
	assert.ErrorIs(t, err, ErrInvalidEvent)

	err = f.apply(model.EventInitialize, model.InitializeEventData{
		PoolID: exoticPool.Hex(), Currency0: foo.Hex(), Currency1: bar.Hex(), SqrtPriceX96: sqrtPriceOne, Tick: 5,
	})
	assert.ErrorIs(t, err, ErrTickMismatch)
	_, ok := f.ledger.Pool(exoticPool)
	assert.False(t, ok)
}

func TestDynamicFeePoolStartsAtZeroRate(t *testing.T) {
	f := newFixture(t)
	require.NoError(t, f.apply(model.EventInitialize, model.InitializeEventData{
		PoolID: stablePool.Hex(), Currency0: usdc.Hex(), Currency1: usdt.Hex(),
		Fee: dynamicFeeFlag, Hooks: trackedHook.Hex(), SqrtPriceX96: sqrtPriceOne,
	}))
	pool, _ := f.ledger.Pool(stablePool)
	assert.Zero(t, pool.FeeRate)

	require.NoError(t, f.apply(model.EventModifyLiquidity, modify(stablePool, -600, 600, "1000000")))
	f.ledger.Drain()
	require.NoError(t, f.apply(model.EventSwap, swap(stablePool, "1000", "-997")))
	changes := f.ledger.Drain()
	require.Len(t, changes.Swaps, 1)
	assert.Equal(t, uint32(3000), changes.Swaps[0].FeeRate)
	assert.Equal(t, "3", changes.Swaps[0].Fee0)
}

func TestDepositThenWithdrawRoundTrip(t *testing.T) {
	f := newFixture(t)
	f.initialize(stablePool, usdc, usdt, 6, trackedHook)
	f.ledger.Drain()

	require.NoError(t, f.apply(model.EventModifyLiquidity, modify(stablePool, -600, 600, "1000000")))

	pool, _ := f.ledger.Pool(stablePool)
	assert.Equal(t, "29554", pool.Reserve0.String())
	assert.Equal(t, "29554", pool.Reserve1.String())
	assert.Equal(t, "1000000", pool.Liquidity.String())
	assert.Equal(t, uint64(1), pool.TxCount)
	require.True(t, pool.TVLUSD.Priced)
	assertDecimal(t, "0.059108", pool.TVLUSD.USD)

	positionID := model.PositionID(stablePool.Hex(), owner.Hex(), -600, 600, common.Hash{}.Hex())
	position, ok := f.ledger.Position(positionID)
	require.True(t, ok)
	assert.Equal(t, "1000000", position.Liquidity.String())

	changes := f.ledger.Drain()
	assert.Contains(t, changes.Positions, positionID)
	day := changes.DayData[model.PoolDayID(stablePool.Hex(), model.DayID(baseTimestamp))]
	require.NotNil(t, day.TVLUSD)
	assert.Equal(t, uint32(3000), day.FeeRate)

	require.NoError(t, f.apply(model.EventModifyLiquidity, modify(stablePool, -600, 600, "-1000000")))

	pool, _ = f.ledger.Pool(stablePool)
	assert.Equal(t, "1", pool.Reserve0.String())
	assert.Equal(t, "1", pool.Reserve1.String())
	assert.Zero(t, pool.Liquidity.Sign())
	assert.Equal(t, uint64(2), pool.TxCount)

	_, ok = f.ledger.Position(positionID)
	assert.False(t, ok)
	changes = f.ledger.Drain()
	assert.Contains(t, changes.DeletedPositions, positionID)
	assert.NotContains(t, changes.Positions, positionID)
}

func TestOutOfRangeDepositLeavesActiveLiquidity(t *testing.T) {
	f := newFixture(t)
	f.initialize(stablePool, usdc, usdt, 6, trackedHook)

	require.NoError(t, f.apply(model.EventModifyLiquidity, modify(stablePool, 600, 1200, "1000000")))

	pool, _ := f.ledger.Pool(stablePool)
	assert.Zero(t, pool.Liquidity.Sign())
	assert.Positive(t, pool.Reserve0.Sign())
	assert.Zero(t, pool.Reserve1.Sign())
}

func TestSwapUpdatesStateVolumeAndFees(t *testing.T) {
	f := newFixture(t)
	f.initialize(stablePool, usdc, usdt, 6, trackedHook)
	require.NoError(t, f.apply(model.EventModifyLiquidity, modify(stablePool, -600, 600, "1000000")))
	f.ledger.Drain()

	require.NoError(t, f.apply(model.EventSwap, swap(stablePool, "1000", "-997")))

	pool, _ := f.ledger.Pool(stablePool)
	assert.Equal(t, "30554", pool.Reserve0.String())
	assert.Equal(t, "28557", pool.Reserve1.String())
	assert.Equal(t, uint64(2), pool.TxCount)
	assertDecimal(t, "0.059111", pool.TVLUSD.USD)

	changes := f.ledger.Drain()
	require.Len(t, changes.Swaps, 1)
	s := changes.Swaps[0]
	assert.Equal(t, model.EventID(fmt.Sprintf("0x%064x", f.block), 0), s.ID)
	assert.Equal(t, "3", s.Fee0)
	assert.Equal(t, "0", s.Fee1)
	require.NotNil(t, s.VolumeUSD)
	require.NotNil(t, s.FeesUSD)
	assertDecimal(t, "0.0009985", decimal.RequireFromString(*s.VolumeUSD))
	assertDecimal(t, "0.0000029955", decimal.RequireFromString(*s.FeesUSD))

	day, ok := f.ledger.Day(stablePool)
	require.True(t, ok)
	assert.Equal(t, uint64(1), day.SwapCount)
	assert.Zero(t, day.UnpricedSwaps)
	assert.Equal(t, "1000", day.Volume0.String())
	assert.Equal(t, "997", day.Volume1.String())
	assertDecimal(t, "0.0009985", day.VolumeUSD)

	row := changes.DayData[model.PoolDayID(stablePool.Hex(), model.DayID(baseTimestamp))]
	assert.Equal(t, "0.001000", row.Volume0)
	assert.Equal(t, "0.000003", row.Fee0)
	assert.NotNil(t, row.FeeAPR)
}

func TestSwapRollsDayBucket(t *testing.T) {
	f := newFixture(t)
	f.initialize(stablePool, usdc, usdt, 6, trackedHook)
	require.NoError(t, f.apply(model.EventModifyLiquidity, modify(stablePool, -600, 600, "1000000")))
	require.NoError(t, f.apply(model.EventSwap, swap(stablePool, "1000", "-997")))

	next := f.record(model.EventSwap, swap(stablePool, "-500", "505"))
	next.Timestamp += model.SecondsPerDay
	require.NoError(t, f.ledger.Apply(next))

	day, _ := f.ledger.Day(stablePool)
	assert.Equal(t, model.DayID(baseTimestamp)+1, day.DayID)
	assert.Equal(t, uint64(1), day.SwapCount)
	assert.Equal(t, "500", day.Volume0.String())
	assert.Equal(t, "505", day.Volume1.String())
	assert.Equal(t, "1", day.Fee1.String())
	assert.Zero(t, day.Fee0.Sign())
}

func TestUnpricedPoolReportsNullFigures(t *testing.T) {
	f := newFixture(t)
	f.initialize(exoticPool, foo, bar, 18, trackedHook)
	require.NoError(t, f.apply(model.EventModifyLiquidity, modify(exoticPool, -600, 600, "1000000")))
	f.ledger.Drain()

	require.NoError(t, f.apply(model.EventSwap, swap(exoticPool, "1000", "-997")))

	pool, _ := f.ledger.Pool(exoticPool)
	assert.False(t, pool.TVLUSD.Priced)

	changes := f.ledger.Drain()
	require.Len(t, changes.Swaps, 1)
	assert.Nil(t, changes.Swaps[0].VolumeUSD)
	assert.Nil(t, changes.Swaps[0].FeesUSD)
	assert.Nil(t, changes.Swaps[0].Price0USD)
	assert.Equal(t, "3", changes.Swaps[0].Fee0)

	day, _ := f.ledger.Day(exoticPool)
	assert.Equal(t, uint64(1), day.SwapCount)
	assert.Equal(t, uint64(1), day.UnpricedSwaps)
	assert.True(t, day.VolumeUSD.IsZero())

	row := changes.DayData[model.PoolDayID(exoticPool.Hex(), model.DayID(baseTimestamp))]
	assert.Nil(t, row.TVLUSD)
	assert.Nil(t, row.FeeAPR)
	assert.Equal(t, "0", row.VolumeUSD)
}

func TestUntrackedHookFoldsWithoutRows(t *testing.T) {
	f := newFixture(t)
	f.initialize(foreignPool, usdc, usdt, 6, otherHook)
	require.NoError(t, f.apply(model.EventModifyLiquidity, modify(foreignPool, -600, 600, "1000000")))
	require.NoError(t, f.apply(model.EventSwap, swap(foreignPool, "1000", "-997")))

	pool, ok := f.ledger.Pool(foreignPool)
	require.True(t, ok)
	assert.False(t, pool.Tracked)
	assert.Equal(t, "30554", pool.Reserve0.String())

	_, ok = f.ledger.Day(foreignPool)
	assert.False(t, ok)
	assert.True(t, f.ledger.Drain().Empty())
}

func TestUntrackedPoolDoesNotMoveTokenPrice(t *testing.T) {
	f := newFixture(t)
	trackedPool := common.HexToHash("0x04")
	untrackedPool := common.HexToHash("0x05")

	f.initialize(trackedPool, usdc, foo, 18, trackedHook)
	require.NoError(t, f.apply(model.EventModifyLiquidity, modify(trackedPool, -600, 600, "1000000")))
	token, ok := f.ledger.Token(foo)
	require.True(t, ok)
	require.True(t, token.PriceUSD.Known)
	assertDecimal(t, "1", token.PriceUSD.USD)
	f.ledger.Drain()

	// Same pair behind another hook, priced at 4 USDC per foo.
	sqrtPriceFour := new(big.Int).Lsh(big.NewInt(1), 97)
	tick, err := clmath.GetTickAtSqrtRatio(sqrtPriceFour)
	require.NoError(t, err)
	require.NoError(t, f.apply(model.EventInitialize, model.InitializeEventData{
		PoolID:       untrackedPool.Hex(),
		Currency0:    usdc.Hex(),
		Currency1:    foo.Hex(),
		Fee:          3000,
		TickSpacing:  60,
		Hooks:        otherHook.Hex(),
		SqrtPriceX96: sqrtPriceFour.String(),
		Tick:         tick,
	}))
	require.NoError(t, f.apply(model.EventModifyLiquidity, modify(untrackedPool, -600, 600, "1000000")))

	token, _ = f.ledger.Token(foo)
	assertDecimal(t, "1", token.PriceUSD.USD)
	changes := f.ledger.Drain()
	assert.Empty(t, changes.Tokens)
	assert.Empty(t, changes.Pools)
}

func TestPositionOwnerIsTransactionOrigin(t *testing.T) {
	f := newFixture(t)
	f.initialize(stablePool, usdc, usdt, 6, trackedHook)
	trader := common.HexToAddress("0x00000000000000000000000000000000000000e2")
	salt := common.Hash{}.Hex()

	deposit := modify(stablePool, -600, 600, "1000000")
	deposit.Origin = trader.Hex()
	require.NoError(t, f.apply(model.EventModifyLiquidity, deposit))

	id := model.PositionID(stablePool.Hex(), trader.Hex(), -600, 600, salt)
	position, ok := f.ledger.Position(id)
	require.True(t, ok)
	assert.Equal(t, trader, position.Owner)
	_, ok = f.ledger.Position(model.PositionID(stablePool.Hex(), owner.Hex(), -600, 600, salt))
	assert.False(t, ok, "router sender must not own the position")

	// Without an origin the event sender owns the position.
	require.NoError(t, f.apply(model.EventModifyLiquidity, modify(stablePool, -600, 600, "1000")))
	_, ok = f.ledger.Position(model.PositionID(stablePool.Hex(), owner.Hex(), -600, 600, salt))
	assert.True(t, ok)

	withdraw := modify(stablePool, -600, 600, "-1000000")
	withdraw.Origin = trader.Hex()
	require.NoError(t, f.apply(model.EventModifyLiquidity, withdraw))
	_, ok = f.ledger.Position(id)
	assert.False(t, ok)
}

func TestOrderingViolationsAreSkipped(t *testing.T) {
	f := newFixture(t)

	err := f.apply(model.EventSwap, swap(stablePool, "1", "-1"))
	assert.ErrorIs(t, err, ErrUnknownPool)
	assert.Equal(t, OutcomeSkipped, Outcome(err))

	f.initialize(stablePool, usdc, usdt, 6, trackedHook)
	require.NoError(t, f.apply(model.EventModifyLiquidity, modify(stablePool, -600, 600, "1000000")))
	before, _ := f.ledger.Pool(stablePool)

	err = f.apply(model.EventSwap, swap(stablePool, "30000", "-30000"))
	assert.ErrorIs(t, err, ErrReserveUnderflow)
	after, _ := f.ledger.Pool(stablePool)
	assert.Equal(t, before.Reserve0.String(), after.Reserve0.String())
	assert.Equal(t, before.Reserve1.String(), after.Reserve1.String())
	assert.Equal(t, before.TxCount, after.TxCount)

	other := modify(stablePool, -600, 600, "-5")
	other.Salt = common.HexToHash("0x07").Hex()
	err = f.apply(model.EventModifyLiquidity, other)
	assert.ErrorIs(t, err, ErrUnknownPosition)

	err = f.apply(model.EventModifyLiquidity, modify(stablePool, -600, 600, "-2000000"))
	assert.Error(t, err)
	assert.Equal(t, OutcomeSkipped, Outcome(err))
	after, _ = f.ledger.Pool(stablePool)
	assert.Equal(t, "1000000", after.Liquidity.String())
}

func TestStaleEventsAreRejected(t *testing.T) {
	f := newFixture(t)
	f.initialize(stablePool, usdc, usdt, 6, trackedHook)

	deposit := f.record(model.EventModifyLiquidity, modify(stablePool, -600, 600, "1000000"))
	require.NoError(t, f.ledger.Apply(deposit))
	err := f.ledger.Apply(deposit)
	assert.ErrorIs(t, err, ErrStaleEvent)
	assert.Equal(t, OutcomeStale, Outcome(err))

	earlier := recordAt(t, deposit.BlockNumber-1, 5, model.EventSwap, swap(stablePool, "1", "-1"))
	assert.ErrorIs(t, f.ledger.Apply(earlier), ErrStaleEvent)

	pool, _ := f.ledger.Pool(stablePool)
	assert.Equal(t, "1000000", pool.Liquidity.String())
	assert.Equal(t, deposit.Position(), f.ledger.Cursor())
}

func TestDomainErrorHaltsPool(t *testing.T) {
	f := newFixture(t)
	f.initialize(stablePool, usdc, usdt, 6, trackedHook)
	f.initialize(foreignPool, usdc, usdt, 6, trackedHook)

	err := f.apply(model.EventModifyLiquidity, modify(stablePool, -600, 887273, "1000000"))
	require.ErrorIs(t, err, clmath.ErrTickOutOfRange)
	assert.Equal(t, OutcomeDomain, Outcome(err))

	pool, _ := f.ledger.Pool(stablePool)
	assert.True(t, pool.Halted)
	assert.NotEmpty(t, pool.HaltReason)
	assert.Zero(t, pool.Reserve0.Sign())

	err = f.apply(model.EventModifyLiquidity, modify(stablePool, -600, 600, "1000000"))
	assert.ErrorIs(t, err, ErrPoolHalted)
	assert.Equal(t, OutcomeHalted, Outcome(err))

	require.NoError(t, f.apply(model.EventModifyLiquidity, modify(foreignPool, -600, 600, "1000000")))

	err = f.apply(model.EventModifyLiquidity, modify(foreignPool, 600, -600, "1"))
	assert.ErrorIs(t, err, clmath.ErrInvalidRange)
}

func TestSwapTickMustMatchPrice(t *testing.T) {
	f := newFixture(t)
	f.initialize(stablePool, usdc, usdt, 6, trackedHook)
	require.NoError(t, f.apply(model.EventModifyLiquidity, modify(stablePool, -600, 600, "1000000")))

	boundary := swap(stablePool, "-10", "10")
	boundary.Tick = -1
	require.NoError(t, f.apply(model.EventSwap, boundary))

	wrong := swap(stablePool, "-10", "10")
	wrong.Tick = 50
	assert.ErrorIs(t, f.apply(model.EventSwap, wrong), ErrTickMismatch)
}

func TestFeeUpdatedChangesRate(t *testing.T) {
	f := newFixture(t)
	f.initialize(stablePool, usdc, usdt, 6, trackedHook)
	f.ledger.Drain()

	require.NoError(t, f.apply(model.EventFeeUpdated, model.FeeUpdatedEventData{PoolID: stablePool.Hex(), Fee: 500}))

	pool, _ := f.ledger.Pool(stablePool)
	assert.Equal(t, uint32(500), pool.FeeRate)

	changes := f.ledger.Drain()
	require.Len(t, changes.FeeUpdates, 1)
	assert.Equal(t, uint32(3000), changes.FeeUpdates[0].OldFee)
	assert.Equal(t, uint32(500), changes.FeeUpdates[0].NewFee)
	day, _ := f.ledger.Day(stablePool)
	assert.Equal(t, uint32(500), day.FeeRate)

	require.NoError(t, f.apply(model.EventModifyLiquidity, modify(stablePool, -600, 600, "1000000")))
	require.NoError(t, f.apply(model.EventSwap, swap(stablePool, "10000", "-9990")))
	changes = f.ledger.Drain()
	require.Len(t, changes.Swaps, 1)
	assert.Equal(t, "5", changes.Swaps[0].Fee0)
}

func TestFeeAboveDenominatorIsInvalid(t *testing.T) {
	f := newFixture(t)
	f.initialize(stablePool, usdc, usdt, 6, trackedHook)
	f.ledger.Drain()

	err := f.apply(model.EventFeeUpdated, model.FeeUpdatedEventData{PoolID: stablePool.Hex(), Fee: 1_000_001})
	assert.ErrorIs(t, err, ErrInvalidEvent)
	pool, _ := f.ledger.Pool(stablePool)
	assert.Equal(t, uint32(3000), pool.FeeRate)
	assert.True(t, f.ledger.Drain().Empty())

	require.NoError(t, f.apply(model.EventFeeUpdated, model.FeeUpdatedEventData{PoolID: stablePool.Hex(), Fee: 1_000_000}))

	dynamicPool := common.HexToHash("0x06")
	require.NoError(t, f.apply(model.EventInitialize, model.InitializeEventData{
		PoolID: dynamicPool.Hex(), Currency0: usdc.Hex(), Currency1: usdt.Hex(),
		Fee: dynamicFeeFlag, Hooks: trackedHook.Hex(), SqrtPriceX96: sqrtPriceOne,
	}))
	require.NoError(t, f.apply(model.EventModifyLiquidity, modify(dynamicPool, -600, 600, "1000000")))
	before, _ := f.ledger.Pool(dynamicPool)
	bad := swap(dynamicPool, "1000", "-997")
	bad.Fee = 2_000_000
	assert.ErrorIs(t, f.apply(model.EventSwap, bad), ErrInvalidEvent)
	after, _ := f.ledger.Pool(dynamicPool)
	assert.Equal(t, before.Reserve0.String(), after.Reserve0.String())
	assert.Equal(t, before.TxCount, after.TxCount)
}

func TestUnknownEventIsInvalid(t *testing.T) {
	f := newFixture(t)
	err := f.apply("Donate", map[string]string{"pool_id": stablePool.Hex()})
	assert.ErrorIs(t, err, ErrInvalidEvent)
	assert.Equal(t, OutcomeInvalid, Outcome(err))

	record := f.record(model.EventSwap, nil)
	record.Decoded = nil
	assert.ErrorIs(t, f.ledger.Apply(record), ErrInvalidEvent)
}

func TestTokenDecimalsOverride(t *testing.T) {
	l := New(Config{
		ChainID:       1,
		TokenDecimals: map[common.Address]uint8{foo: 8},
	}, nil, nil)
	f := &fixture{t: t, ledger: l, block: 100}
	f.initialize(exoticPool, foo, bar, 18, common.Address{})

	token, ok := l.Token(foo)
	require.True(t, ok)
	assert.Equal(t, uint8(8), token.Decimals)
	assert.Equal(t, "T0", token.Symbol)
	token, _ = l.Token(bar)
	assert.Equal(t, uint8(18), token.Decimals)

	pool, _ := l.Pool(exoticPool)
	assert.True(t, pool.Tracked)
}

func TestPriceUsesFoldedPools(t *testing.T) {
	f := newFixture(t)
	f.initialize(stablePool, usdc, usdt, 6, trackedHook)

	price := f.ledger.Price(usdc, nil)
	require.True(t, price.Known)
	assertDecimal(t, "1", price.USD)

	quote, ok := f.ledger.Quote(stablePool)
	require.True(t, ok)
	assert.Equal(t, uint8(6), quote.Decimals0)
	assert.False(t, f.ledger.Price(foo, nil).Known)
}

func TestRestoreRejectsMismatchedSnapshots(t *testing.T) {
	f := newFixture(t)
	assert.Error(t, f.ledger.Restore(nil))

	snapshot := newSnapshot(5)
	assert.Error(t, f.ledger.Restore(snapshot))

	snapshot = newSnapshot(1)
	snapshot.Version = snapshotVersion + 1
	assert.Error(t, f.ledger.Restore(snapshot))

	require.NoError(t, f.ledger.Restore(newSnapshot(1)))
}
