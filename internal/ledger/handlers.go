package ledger

import (
	"bytes"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"go.uber.org/zap"

	"poolLedger/internal/clmath"
	"poolLedger/internal/model"
	"poolLedger/internal/pricing"
)

// dynamicFeeFlag marks pools whose LP fee is set by the hook.
const dynamicFeeFlag = 0x800000

func (l *Ledger) applyInitialize(record model.TypedEventRecord) error {
	var data model.InitializeEventData
	if err := decodePayload(record, &data); err != nil {
		return err
	}

	id, err := pricing.ParsePoolID(firstNonEmpty(data.PoolID, record.PoolID))
	if err != nil {
		return wrapInvalid("pool id", err)
	}
	if _, ok := l.state.Pools[id]; ok {
		return fmt.Errorf("%w: %s", ErrPoolExists, id.Hex())
	}

	token0, err := pricing.ParseAddress(data.Currency0)
	if err != nil {
		return wrapInvalid("currency0", err)
	}
	token1, err := pricing.ParseAddress(data.Currency1)
	if err != nil {
		return wrapInvalid("currency1", err)
	}
	if bytes.Compare(token0.Bytes(), token1.Bytes()) >= 0 {
		return fmt.Errorf("%w: currencies must be distinct and sorted", ErrInvalidEvent)
	}
	hooks, err := pricing.ParseAddress(firstNonEmpty(data.Hooks, common.Address{}.Hex()))
	if err != nil {
		return wrapInvalid("hooks", err)
	}
	sqrtPrice, err := parseBigInt(data.SqrtPriceX96)
	if err != nil {
		return wrapInvalid("sqrt price", err)
	}

	if err := clmath.CheckTick(data.Tick); err != nil {
		return err
	}
	tick, err := clmath.GetTickAtSqrtRatio(sqrtPrice)
	if err != nil {
		return err
	}
	if tick != data.Tick {
		return fmt.Errorf("%w: tick %d, sqrt price implies %d", ErrTickMismatch, data.Tick, tick)
	}

	feeRate := data.Fee
	if feeRate&dynamicFeeFlag != 0 {
		feeRate = 0
	}

	pool := &PoolState{
		ID:                 id,
		Token0:             token0,
		Token1:             token1,
		FeeRate:            feeRate,
		TickSpacing:        data.TickSpacing,
		Hooks:              hooks,
		Tracked:            l.isTracked(hooks),
		Tick:               data.Tick,
		SqrtPriceX96:       sqrtPrice,
		Liquidity:          new(big.Int),
		Reserve0:           new(big.Int),
		Reserve1:           new(big.Int),
		TVLUSD:             pricing.Valuation{Priced: true},
		CreatedAtBlock:     record.BlockNumber,
		CreatedAtTimestamp: record.Timestamp,
		UpdatedAtBlock:     record.BlockNumber,
	}
	l.state.Pools[id] = pool
	l.ensureToken(token0, data.Token0, pool.Tracked)
	l.ensureToken(token1, data.Token1, pool.Tracked)

	if pool.Tracked {
		l.pending.PutPool(l.poolRow(pool))
	}
	l.logger.Debug("pool initialized",
		zap.String("pool", id.Hex()),
		zap.String("token0", token0.Hex()),
		zap.String("token1", token1.Hex()),
		zap.Bool("tracked", pool.Tracked),
	)
	return nil
}

func (l *Ledger) applyModifyLiquidity(record model.TypedEventRecord) error {
	var data model.ModifyLiquidityEventData
	if err := decodePayload(record, &data); err != nil {
		return err
	}
	pool, err := l.lookupPool(firstNonEmpty(data.PoolID, record.PoolID))
	if err != nil {
		return err
	}

	delta, err := parseBigInt(data.LiquidityDelta)
	if err != nil {
		return wrapInvalid("liquidity delta", err)
	}
	owner, err := pricing.ParseAddress(firstNonEmpty(data.Origin, data.Sender))
	if err != nil {
		return wrapInvalid("owner", err)
	}
	salt, err := parseBytes32(firstNonEmpty(data.Salt, common.Hash{}.Hex()))
	if err != nil {
		return wrapInvalid("salt", err)
	}

	amount0, amount1, err := clmath.GetAmounts(data.TickLower, data.TickUpper, pool.Tick, delta, pool.SqrtPriceX96)
	if err != nil {
		return err
	}

	reserve0 := new(big.Int).Set(pool.Reserve0)
	reserve1 := new(big.Int).Set(pool.Reserve1)
	if delta.Sign() >= 0 {
		reserve0.Add(reserve0, amount0)
		reserve1.Add(reserve1, amount1)
	} else {
		reserve0.Sub(reserve0, amount0)
		reserve1.Sub(reserve1, amount1)
	}
	if reserve0.Sign() < 0 || reserve1.Sign() < 0 {
		return fmt.Errorf("%w: pool %s reserves %s/%s", ErrReserveUnderflow, pool.ID.Hex(), reserve0, reserve1)
	}

	liquidity := new(big.Int).Set(pool.Liquidity)
	if clmath.InRange(data.TickLower, data.TickUpper, pool.Tick) {
		liquidity.Add(liquidity, delta)
		if liquidity.Sign() < 0 {
			return fmt.Errorf("%w: pool %s active liquidity", ErrLiquidityUnderflow, pool.ID.Hex())
		}
	}

	var (
		positionID        string
		existing          *PositionState
		positionLiquidity *big.Int
	)
	if pool.Tracked {
		positionID = model.PositionID(pool.ID.Hex(), owner.Hex(), data.TickLower, data.TickUpper, salt.Hex())
		existing = l.state.Positions[positionID]
		if existing == nil && delta.Sign() < 0 {
			return fmt.Errorf("%w: %s", ErrUnknownPosition, positionID)
		}
		positionLiquidity = new(big.Int).Set(delta)
		if existing != nil {
			positionLiquidity.Add(positionLiquidity, existing.Liquidity)
		}
		if positionLiquidity.Sign() < 0 {
			return fmt.Errorf("%w: position %s", ErrLiquidityUnderflow, positionID)
		}
	}

	pool.Reserve0 = reserve0
	pool.Reserve1 = reserve1
	pool.Liquidity = liquidity
	pool.TxCount++
	pool.UpdatedAtBlock = record.BlockNumber

	if pool.Tracked {
		if positionLiquidity.Sign() == 0 {
			if existing != nil {
				delete(l.state.Positions, positionID)
				l.pending.DeletePosition(positionID)
			}
		} else {
			position := &PositionState{
				ID:        positionID,
				PoolID:    pool.ID,
				Owner:     owner,
				TickLower: data.TickLower,
				TickUpper: data.TickUpper,
				Salt:      salt,
				Liquidity: positionLiquidity,
			}
			l.state.Positions[positionID] = position
			l.pending.PutPosition(positionRow(position))
		}
	}

	l.revalue(pool)

	if pool.Tracked {
		day := l.dayFor(pool, record.Timestamp)
		day.TVLUSD = pool.TVLUSD
		day.FeeRate = pool.FeeRate
		l.pending.PutDayData(l.dayRow(day))
		l.pending.PutPool(l.poolRow(pool))
	}
	return nil
}

func (l *Ledger) applySwap(record model.TypedEventRecord) error {
	var data model.SwapEventData
	if err := decodePayload(record, &data); err != nil {
		return err
	}
	pool, err := l.lookupPool(firstNonEmpty(data.PoolID, record.PoolID))
	if err != nil {
		return err
	}

	amount0, err := parseBigInt(data.Amount0)
	if err != nil {
		return wrapInvalid("amount0", err)
	}
	amount1, err := parseBigInt(data.Amount1)
	if err != nil {
		return wrapInvalid("amount1", err)
	}
	sqrtPrice, err := parseBigInt(data.SqrtPriceX96)
	if err != nil {
		return wrapInvalid("sqrt price", err)
	}
	liquidity, err := parseBigInt(data.Liquidity)
	if err != nil {
		return wrapInvalid("liquidity", err)
	}
	if liquidity.Sign() < 0 {
		return fmt.Errorf("%w: negative liquidity", ErrInvalidEvent)
	}

	if err := clmath.CheckTick(data.Tick); err != nil {
		return err
	}
	impliedTick, err := clmath.GetTickAtSqrtRatio(sqrtPrice)
	if err != nil {
		return err
	}
	// A swap ending exactly on a tick boundary while moving down reports the tick below it.
	if data.Tick != impliedTick && data.Tick != impliedTick-1 {
		return fmt.Errorf("%w: tick %d, sqrt price implies %d", ErrTickMismatch, data.Tick, impliedTick)
	}

	reserve0 := new(big.Int).Add(pool.Reserve0, amount0)
	reserve1 := new(big.Int).Add(pool.Reserve1, amount1)
	if reserve0.Sign() < 0 || reserve1.Sign() < 0 {
		return fmt.Errorf("%w: pool %s reserves %s/%s", ErrReserveUnderflow, pool.ID.Hex(), reserve0, reserve1)
	}

	feeRate := pool.FeeRate
	if feeRate == 0 {
		feeRate = data.Fee
	}
	if feeRate > feeDenominator {
		return fmt.Errorf("%w: fee %d above %d", ErrInvalidEvent, feeRate, feeDenominator)
	}
	fee0, fee1 := new(big.Int), new(big.Int)
	if amount0.Sign() > 0 && amount1.Sign() < 0 {
		fee0 = feeFromAmount(amount0, feeRate)
	} else if amount1.Sign() > 0 && amount0.Sign() < 0 {
		fee1 = feeFromAmount(amount1, feeRate)
	}

	pool.Reserve0 = reserve0
	pool.Reserve1 = reserve1
	pool.SqrtPriceX96 = sqrtPrice
	pool.Tick = data.Tick
	pool.Liquidity = liquidity
	pool.TxCount++
	pool.UpdatedAtBlock = record.BlockNumber

	price0, price1 := l.revalue(pool)
	if !pool.Tracked {
		return nil
	}

	decimals0 := l.decimalsOf(pool.Token0)
	decimals1 := l.decimalsOf(pool.Token1)
	volume := l.cfg.VolumePolicy(
		pricing.Leg{Amount: toDecimal(amount0, decimals0), Price: price0},
		pricing.Leg{Amount: toDecimal(amount1, decimals1), Price: price1},
	)
	fees := pricing.FeesFromVolume(volume, feeRate)

	day := l.dayFor(pool, record.Timestamp)
	day.SwapCount++
	absAdd(day.Volume0, amount0)
	absAdd(day.Volume1, amount1)
	day.Fee0.Add(day.Fee0, fee0)
	day.Fee1.Add(day.Fee1, fee1)
	if volume.Priced {
		day.VolumeUSD = day.VolumeUSD.Add(volume.USD)
		day.FeesUSD = day.FeesUSD.Add(fees.USD)
	} else {
		day.UnpricedSwaps++
		l.metrics.observeUnpriced("swap")
	}
	day.TVLUSD = pool.TVLUSD
	day.FeeRate = pool.FeeRate

	l.pending.AddSwap(model.Swap{
		ID:           record.EventID(),
		ChainID:      l.cfg.ChainID,
		PoolID:       pool.ID.Hex(),
		Sender:       data.Sender,
		BlockNumber:  record.BlockNumber,
		Timestamp:    record.Timestamp,
		Amount0:      amount0.String(),
		Amount1:      amount1.String(),
		Fee0:         fee0.String(),
		Fee1:         fee1.String(),
		SqrtPriceX96: sqrtPrice.String(),
		Tick:         data.Tick,
		FeeRate:      feeRate,
		Price0USD:    price0.Ptr(),
		Price1USD:    price1.Ptr(),
		VolumeUSD:    volume.Ptr(),
		FeesUSD:      fees.Ptr(),
	})
	l.pending.PutDayData(l.dayRow(day))
	l.pending.PutPool(l.poolRow(pool))
	return nil
}

func (l *Ledger) applyFeeUpdated(record model.TypedEventRecord) error {
	var data model.FeeUpdatedEventData
	if err := decodePayload(record, &data); err != nil {
		return err
	}
	pool, err := l.lookupPool(firstNonEmpty(data.PoolID, record.PoolID))
	if err != nil {
		return err
	}

	if data.Fee > feeDenominator {
		return fmt.Errorf("%w: fee %d above %d", ErrInvalidEvent, data.Fee, feeDenominator)
	}

	oldFee := pool.FeeRate
	pool.FeeRate = data.Fee
	pool.UpdatedAtBlock = record.BlockNumber
	if !pool.Tracked {
		return nil
	}

	l.pending.AddFeeUpdate(model.FeeUpdate{
		ID:          record.EventID(),
		ChainID:     l.cfg.ChainID,
		PoolID:      pool.ID.Hex(),
		OldFee:      oldFee,
		NewFee:      data.Fee,
		BlockNumber: record.BlockNumber,
		Timestamp:   record.Timestamp,
	})
	day := l.dayFor(pool, record.Timestamp)
	day.FeeRate = pool.FeeRate
	l.pending.PutDayData(l.dayRow(day))
	l.pending.PutPool(l.poolRow(pool))
	return nil
}

// revalue refreshes both token prices against the pool and recomputes its TVL.
// Untracked pools only read prices: anyone can create one at any price, so
// they never move a token's stored USD price.
func (l *Ledger) revalue(pool *PoolState) (pricing.Price, pricing.Price) {
	if !pool.Tracked {
		price0 := l.resolver.Resolve(pool.Token0, nil)
		price1 := l.resolver.Resolve(pool.Token1, nil)
		pool.TVLUSD = l.tvl(pool, price0, price1)
		return price0, price1
	}

	price0 := l.refreshPrice(pool, pool.Token0)
	price1 := l.refreshPrice(pool, pool.Token1)
	pool.TVLUSD = l.tvl(pool, price0, price1)
	if !pool.TVLUSD.Priced {
		l.metrics.observeUnpriced("tvl")
	}
	return price0, price1
}

func (l *Ledger) tvl(pool *PoolState, price0, price1 pricing.Price) pricing.Valuation {
	return pricing.SumLegs(
		pricing.Leg{Amount: toDecimal(pool.Reserve0, l.decimalsOf(pool.Token0)), Price: price0},
		pricing.Leg{Amount: toDecimal(pool.Reserve1, l.decimalsOf(pool.Token1)), Price: price1},
	)
}

func (l *Ledger) refreshPrice(pool *PoolState, token common.Address) pricing.Price {
	id := pool.ID
	price := l.resolver.Resolve(token, &id)

	state := l.ensureToken(token, nil, false)
	if !samePrice(state.PriceUSD, price) {
		state.PriceUSD = price
		if state.Tracked {
			l.pending.PutToken(l.tokenRow(state))
		}
	}
	return price
}

func (l *Ledger) ensureToken(address common.Address, meta *model.TokenMeta, tracked bool) *TokenState {
	state, ok := l.state.Tokens[address]
	if !ok {
		state = &TokenState{Address: address, Decimals: defaultTokenDecimals}
		l.state.Tokens[address] = state
		if meta != nil {
			state.Decimals = meta.Decimals
		} else if _, override := l.cfg.TokenDecimals[address]; !override {
			l.logger.Warn("token decimals unknown, assuming default",
				zap.String("token", address.Hex()),
				zap.Uint8("decimals", defaultTokenDecimals),
			)
		}
	}
	if meta != nil && state.Symbol == "" {
		state.Symbol = meta.Symbol
		state.Name = meta.Name
		state.Decimals = meta.Decimals
	}
	if decimals, override := l.cfg.TokenDecimals[address]; override {
		state.Decimals = decimals
	}
	if tracked && !state.Tracked {
		state.Tracked = true
		l.pending.PutToken(l.tokenRow(state))
	}
	return state
}

// dayFor returns the pool's bucket for timestamp, rolling to a new day when needed.
func (l *Ledger) dayFor(pool *PoolState, timestamp uint64) *DayState {
	dayID := model.DayID(timestamp)
	day, ok := l.state.Days[pool.ID]
	if !ok || day.DayID != dayID {
		day = newDayState(pool, dayID)
		l.state.Days[pool.ID] = day
	}
	return day
}

func samePrice(a, b pricing.Price) bool {
	return a.Known == b.Known && a.USD.Equal(b.USD)
}

func parseBytes32(input string) (common.Hash, error) {
	data, err := hexutil.Decode(input)
	if err != nil {
		return common.Hash{}, err
	}
	if len(data) != common.HashLength {
		return common.Hash{}, fmt.Errorf("expected 32 bytes, got %d", len(data))
	}
	return common.BytesToHash(data), nil
}
