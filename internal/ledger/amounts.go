package ledger

import (
	"fmt"
	"math/big"

	"github.com/shopspring/decimal"

	"poolLedger/internal/pricing"
)

const feeDenominator = 1_000_000

var daysPerYear = decimal.NewFromInt(365)

func parseBigInt(value string) (*big.Int, error) {
	if value == "" {
		return big.NewInt(0), nil
	}
	parsed, ok := new(big.Int).SetString(value, 10)
	if !ok {
		return nil, fmt.Errorf("%w: invalid int %q", ErrInvalidEvent, value)
	}
	return parsed, nil
}

func absAdd(target *big.Int, value *big.Int) {
	if value == nil || target == nil {
		return
	}
	target.Add(target, new(big.Int).Abs(value))
}

// feeFromAmount charges feeRate (in millionths) on the input amount, rounding down.
func feeFromAmount(amountIn *big.Int, feeRate uint32) *big.Int {
	if amountIn == nil {
		return big.NewInt(0)
	}
	fee := new(big.Int).Abs(amountIn)
	fee.Mul(fee, big.NewInt(int64(feeRate)))
	fee.Div(fee, big.NewInt(feeDenominator))
	return fee
}

func formatTokenAmount(value *big.Int, decimals uint8) string {
	if value == nil {
		return "0"
	}
	if decimals == 0 {
		return value.String()
	}
	sign := value.Sign()
	abs := new(big.Int).Abs(value)
	denom := new(big.Int).Exp(big.NewInt(10), big.NewInt(int64(decimals)), nil)
	rat := new(big.Rat).SetFrac(abs, denom)
	text := rat.FloatString(int(decimals))
	if sign < 0 {
		return "-" + text
	}
	return text
}

// toDecimal scales a raw token amount by its decimals.
func toDecimal(value *big.Int, decimals uint8) decimal.Decimal {
	if value == nil {
		return decimal.Zero
	}
	return decimal.NewFromBigInt(value, -int32(decimals))
}

// computeAPR annualizes one day of fees against the pool's TVL.
func computeAPR(feesUSD decimal.Decimal, tvl pricing.Valuation) *string {
	if !tvl.Priced || tvl.USD.Sign() <= 0 {
		return nil
	}
	apr := feesUSD.DivRound(tvl.USD, pricing.DivisionPrecision).Mul(daysPerYear)
	val := apr.String()
	return &val
}
