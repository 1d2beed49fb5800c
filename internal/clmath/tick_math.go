package clmath

import (
	"errors"
	"math/big"

	"github.com/holiman/uint256"
)

const (
	// MinTick is the lowest tick getSqrtRatioAtTick accepts.
	MinTick int32 = -887272
	// MaxTick is the highest tick getSqrtRatioAtTick accepts.
	MaxTick int32 = -MinTick
)

var (
	ErrTickOutOfRange      = errors.New("tick out of range")
	ErrSqrtPriceOutOfRange = errors.New("sqrt price out of range")

	// MinSqrtRatio is GetSqrtRatioAtTick(MinTick).
	MinSqrtRatio, _ = new(big.Int).SetString("4295128739", 10)
	// MaxSqrtRatio is GetSqrtRatioAtTick(MaxTick).
	MaxSqrtRatio, _ = new(big.Int).SetString("1461446703485210103287273052203988822378723970342", 10)

	maxUint256 = new(uint256.Int).SetAllOne()
	q32Mask    = uint256.NewInt(0xffffffff)

	// ratioSeeds[b] is the Q128 starting ratio when bit 0 of |tick| is b.
	ratioSeeds = [2]*uint256.Int{
		mustUint256("0x100000000000000000000000000000000"),
		mustUint256("0xfffcb933bd6fad37aa2d162d1a594001"),
	}

	// ratioFactors[k-1] is 1/sqrt(1.0001)^(2^k) in Q128, for bits k = 1..19.
	ratioFactors = [19]*uint256.Int{
		mustUint256("0xfff97272373d413259a46990580e213a"),
		mustUint256("0xfff2e50f5f656932ef12357cf3c7fdcc"),
		mustUint256("0xffe5caca7e10e4e61c3624eaa0941cd0"),
		mustUint256("0xffcb9843d60f6159c9db58835c926644"),
		mustUint256("0xff973b41fa98c081472e6896dfb254c0"),
		mustUint256("0xff2ea16466c96a3843ec78b326b52861"),
		mustUint256("0xfe5dee046a99a2a811c461f1969c3053"),
		mustUint256("0xfcbe86c7900a88aedcffc83b479aa3a4"),
		mustUint256("0xf987a7253ac413176f2b074cf7815e54"),
		mustUint256("0xf3392b0822b70005940c7a398e4b70f3"),
		mustUint256("0xe7159475a2c29b7443b29c7fa6e889d9"),
		mustUint256("0xd097f3bdfd2022b8845ad8f792aa5825"),
		mustUint256("0xa9f746462d870fdf8a65dc1f90e061e5"),
		mustUint256("0x70d869a156d2a1b890bb3df62baf32f7"),
		mustUint256("0x31be135f97d08fd981231505542fcfa6"),
		mustUint256("0x9aa508b5b7a84e1c677de54f3e99bc9"),
		mustUint256("0x5d6af8dedb81196699c329225ee604"),
		mustUint256("0x2216e584f5fa1ea926041bedfe98"),
		mustUint256("0x48a170391f7dc42444e8fa2"),
	}
)

func mustUint256(hex string) *uint256.Int {
	value, overflow := uint256.FromBig(MustFromHex(hex))
	if overflow {
		panic("constant exceeds 256 bits: " + hex)
	}
	return value
}

// GetSqrtRatioAtTick returns sqrt(1.0001^tick) * 2^96 as a Q64.96 value.
func GetSqrtRatioAtTick(tick int32) (*big.Int, error) {
	if tick < MinTick || tick > MaxTick {
		return nil, ErrTickOutOfRange
	}

	absTick := uint32(tick)
	if tick < 0 {
		absTick = uint32(-tick)
	}

	ratio := new(uint256.Int).Set(ratioSeeds[absTick&1])
	for bit := 1; bit <= len(ratioFactors); bit++ {
		if absTick&(1<<bit) != 0 {
			ratio.Mul(ratio, ratioFactors[bit-1])
			ratio.Rsh(ratio, 128)
		}
	}

	if tick > 0 {
		ratio.Div(maxUint256, ratio)
	}

	// Q128 -> Q96, rounding up so the result never understates the price.
	rem := new(uint256.Int).And(ratio, q32Mask)
	ratio.Rsh(ratio, 32)
	if !rem.IsZero() {
		ratio.AddUint64(ratio, 1)
	}
	return ratio.ToBig(), nil
}

// GetTickAtSqrtRatio returns the greatest tick whose sqrt ratio is <= sqrtPriceX96.
func GetTickAtSqrtRatio(sqrtPriceX96 *big.Int) (int32, error) {
	if sqrtPriceX96 == nil || sqrtPriceX96.Cmp(MinSqrtRatio) < 0 || sqrtPriceX96.Cmp(MaxSqrtRatio) >= 0 {
		return 0, ErrSqrtPriceOutOfRange
	}

	low, high := MinTick, MaxTick
	tick := MinTick
	for low <= high {
		mid := low + (high-low)/2
		ratio, err := GetSqrtRatioAtTick(mid)
		if err != nil {
			return 0, err
		}
		if ratio.Cmp(sqrtPriceX96) <= 0 {
			tick = mid
			low = mid + 1
		} else {
			high = mid - 1
		}
	}
	return tick, nil
}

// CheckTick reports ErrTickOutOfRange for ticks outside [MinTick, MaxTick].
func CheckTick(tick int32) error {
	if tick < MinTick || tick > MaxTick {
		return ErrTickOutOfRange
	}
	return nil
}
