package clmath

import (
	"errors"
	"math/big"
)

var ErrInvalidRange = errors.New("tick lower must be below tick upper")

// rangeRatios validates a position range and returns its boundary prices.
func rangeRatios(tickLower, tickUpper int32) (*big.Int, *big.Int, error) {
	if tickLower >= tickUpper {
		return nil, nil, ErrInvalidRange
	}
	sqrtRatioA, err := GetSqrtRatioAtTick(tickLower)
	if err != nil {
		return nil, nil, err
	}
	sqrtRatioB, err := GetSqrtRatioAtTick(tickUpper)
	if err != nil {
		return nil, nil, err
	}
	return sqrtRatioA, sqrtRatioB, nil
}

// GetAmount0 returns the token0 magnitude that liquidityDelta adds to or removes
// from the range [tickLower, tickUpper) while the pool sits at currentTick.
// Deposits round up and withdrawals round down.
func GetAmount0(tickLower, tickUpper, currentTick int32, liquidityDelta, currentSqrtPriceX96 *big.Int) (*big.Int, error) {
	sqrtRatioA, sqrtRatioB, err := rangeRatios(tickLower, tickUpper)
	if err != nil {
		return nil, err
	}
	roundUp := liquidityDelta.Sign() > 0
	liquidity := new(big.Int).Abs(liquidityDelta)

	switch {
	case currentTick < tickLower:
		return GetAmount0Delta(sqrtRatioA, sqrtRatioB, liquidity, roundUp)
	case currentTick < tickUpper:
		return GetAmount0Delta(currentSqrtPriceX96, sqrtRatioB, liquidity, roundUp)
	default:
		return new(big.Int), nil
	}
}

// GetAmount1 is the token1 counterpart of GetAmount0.
func GetAmount1(tickLower, tickUpper, currentTick int32, liquidityDelta, currentSqrtPriceX96 *big.Int) (*big.Int, error) {
	sqrtRatioA, sqrtRatioB, err := rangeRatios(tickLower, tickUpper)
	if err != nil {
		return nil, err
	}
	roundUp := liquidityDelta.Sign() > 0
	liquidity := new(big.Int).Abs(liquidityDelta)

	switch {
	case currentTick < tickLower:
		return new(big.Int), nil
	case currentTick < tickUpper:
		return GetAmount1Delta(sqrtRatioA, currentSqrtPriceX96, liquidity, roundUp)
	default:
		return GetAmount1Delta(sqrtRatioA, sqrtRatioB, liquidity, roundUp)
	}
}

// GetAmounts returns both magnitudes for a liquidity change.
func GetAmounts(tickLower, tickUpper, currentTick int32, liquidityDelta, currentSqrtPriceX96 *big.Int) (*big.Int, *big.Int, error) {
	amount0, err := GetAmount0(tickLower, tickUpper, currentTick, liquidityDelta, currentSqrtPriceX96)
	if err != nil {
		return nil, nil, err
	}
	amount1, err := GetAmount1(tickLower, tickUpper, currentTick, liquidityDelta, currentSqrtPriceX96)
	if err != nil {
		return nil, nil, err
	}
	return amount0, amount1, nil
}

// InRange reports whether a position's liquidity is active at currentTick.
func InRange(tickLower, tickUpper, currentTick int32) bool {
	return tickLower <= currentTick && currentTick < tickUpper
}
