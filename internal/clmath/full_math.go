package clmath

import (
	"fmt"
	"math/big"
	"strings"
)

var (
	one = big.NewInt(1)

	// Q96 is 2^96, the scale of a Q64.96 square-root price.
	Q96 = new(big.Int).Lsh(big.NewInt(1), 96)
	// Q192 is 2^192, the scale of a squared Q64.96 price.
	Q192 = new(big.Int).Lsh(big.NewInt(1), 192)
)

// MulDiv returns floor(a*b/denom). The product is computed at full width.
func MulDiv(a, b, denom *big.Int) *big.Int {
	product := new(big.Int).Mul(a, b)
	return product.Quo(product, denom)
}

// MulDivRoundingUp returns ceil(a*b/denom) for non-negative operands.
// denom must be positive; a zero denominator panics like any integer division.
func MulDivRoundingUp(a, b, denom *big.Int) *big.Int {
	product := new(big.Int).Mul(a, b)
	result, rem := new(big.Int).QuoRem(product, denom, new(big.Int))
	if rem.Sign() > 0 {
		result.Add(result, one)
	}
	return result
}

// DivRoundingUp returns ceil(a/b) for non-negative operands.
func DivRoundingUp(a, b *big.Int) *big.Int {
	result, rem := new(big.Int).QuoRem(a, b, new(big.Int))
	if rem.Sign() > 0 {
		result.Add(result, one)
	}
	return result
}

// FromHex parses a radix-16 literal (with or without 0x) without precision loss.
func FromHex(s string) (*big.Int, error) {
	digits := strings.TrimPrefix(strings.TrimPrefix(strings.TrimSpace(s), "0x"), "0X")
	if digits == "" {
		return nil, fmt.Errorf("empty hex literal")
	}
	value, ok := new(big.Int).SetString(digits, 16)
	if !ok {
		return nil, fmt.Errorf("invalid hex literal: %s", s)
	}
	return value, nil
}

// MustFromHex is FromHex for package-level constants.
func MustFromHex(s string) *big.Int {
	value, err := FromHex(s)
	if err != nil {
		panic(err)
	}
	return value
}
