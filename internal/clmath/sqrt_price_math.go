package clmath

import (
	"errors"
	"math/big"
)

var (
	ErrSqrtPriceZero     = errors.New("sqrt price must be greater than zero")
	ErrNegativeLiquidity = errors.New("liquidity must not be negative")
)

func sortRatios(sqrtRatioAX96, sqrtRatioBX96 *big.Int) (*big.Int, *big.Int) {
	if sqrtRatioAX96.Cmp(sqrtRatioBX96) > 0 {
		return sqrtRatioBX96, sqrtRatioAX96
	}
	return sqrtRatioAX96, sqrtRatioBX96
}

// GetAmount0Delta returns liquidity * 2^96 * (sqrtB - sqrtA) / (sqrtB * sqrtA),
// the token0 amount spanned by liquidity between the two prices.
func GetAmount0Delta(sqrtRatioAX96, sqrtRatioBX96, liquidity *big.Int, roundUp bool) (*big.Int, error) {
	if liquidity.Sign() < 0 {
		return nil, ErrNegativeLiquidity
	}
	lower, upper := sortRatios(sqrtRatioAX96, sqrtRatioBX96)
	if lower.Sign() <= 0 {
		return nil, ErrSqrtPriceZero
	}

	numerator1 := new(big.Int).Lsh(liquidity, 96)
	numerator2 := new(big.Int).Sub(upper, lower)

	if roundUp {
		return DivRoundingUp(MulDivRoundingUp(numerator1, numerator2, upper), lower), nil
	}
	amount := MulDiv(numerator1, numerator2, upper)
	return amount.Quo(amount, lower), nil
}

// GetAmount1Delta returns liquidity * (sqrtB - sqrtA) / 2^96, the token1 amount
// spanned by liquidity between the two prices.
func GetAmount1Delta(sqrtRatioAX96, sqrtRatioBX96, liquidity *big.Int, roundUp bool) (*big.Int, error) {
	if liquidity.Sign() < 0 {
		return nil, ErrNegativeLiquidity
	}
	lower, upper := sortRatios(sqrtRatioAX96, sqrtRatioBX96)
	difference := new(big.Int).Sub(upper, lower)

	if roundUp {
		return MulDivRoundingUp(liquidity, difference, Q96), nil
	}
	return MulDiv(liquidity, difference, Q96), nil
}
