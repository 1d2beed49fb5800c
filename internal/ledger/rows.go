package ledger

import (
	"strings"
	"time"

	"poolLedger/internal/model"
)

func (l *Ledger) poolRow(pool *PoolState) model.Pool {
	return model.Pool{
		ChainID:            l.cfg.ChainID,
		ID:                 strings.ToLower(pool.ID.Hex()),
		Token0:             strings.ToLower(pool.Token0.Hex()),
		Token1:             strings.ToLower(pool.Token1.Hex()),
		Fee:                pool.FeeRate,
		TickSpacing:        pool.TickSpacing,
		Hooks:              strings.ToLower(pool.Hooks.Hex()),
		SqrtPriceX96:       pool.SqrtPriceX96.String(),
		Tick:               pool.Tick,
		Liquidity:          pool.Liquidity.String(),
		Reserve0:           pool.Reserve0.String(),
		Reserve1:           pool.Reserve1.String(),
		TVLUSD:             pool.TVLUSD.Ptr(),
		TxCount:            pool.TxCount,
		CreatedAtBlock:     pool.CreatedAtBlock,
		CreatedAtTimestamp: pool.CreatedAtTimestamp,
		UpdatedAtBlock:     pool.UpdatedAtBlock,
	}
}

func (l *Ledger) tokenRow(token *TokenState) model.Token {
	return model.Token{
		ChainID:  l.cfg.ChainID,
		Address:  strings.ToLower(token.Address.Hex()),
		Symbol:   token.Symbol,
		Name:     token.Name,
		Decimals: token.Decimals,
		PriceUSD: token.PriceUSD.Ptr(),
	}
}

func positionRow(position *PositionState) model.Position {
	return model.Position{
		ID:        position.ID,
		PoolID:    strings.ToLower(position.PoolID.Hex()),
		Owner:     strings.ToLower(position.Owner.Hex()),
		TickLower: position.TickLower,
		TickUpper: position.TickUpper,
		Salt:      strings.ToLower(position.Salt.Hex()),
		Liquidity: position.Liquidity.String(),
	}
}

func (l *Ledger) dayRow(day *DayState) model.PoolDayData {
	pool := l.state.Pools[day.PoolID]
	decimals0 := l.decimalsOf(pool.Token0)
	decimals1 := l.decimalsOf(pool.Token1)
	poolID := strings.ToLower(day.PoolID.Hex())

	return model.PoolDayData{
		ID:            model.PoolDayID(poolID, day.DayID),
		ChainID:       l.cfg.ChainID,
		PoolID:        poolID,
		DayID:         day.DayID,
		Date:          time.Unix(day.DayID*model.SecondsPerDay, 0).UTC(),
		SwapCount:     day.SwapCount,
		UnpricedSwaps: day.UnpricedSwaps,
		Volume0:       formatTokenAmount(day.Volume0, decimals0),
		Volume1:       formatTokenAmount(day.Volume1, decimals1),
		Fee0:          formatTokenAmount(day.Fee0, decimals0),
		Fee1:          formatTokenAmount(day.Fee1, decimals1),
		VolumeUSD:     day.VolumeUSD.String(),
		FeesUSD:       day.FeesUSD.String(),
		TVLUSD:        day.TVLUSD.Ptr(),
		FeeAPR:        computeAPR(day.FeesUSD, day.TVLUSD),
		FeeRate:       day.FeeRate,
	}
}
