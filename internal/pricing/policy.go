package pricing

import "github.com/shopspring/decimal"

// VolumePolicy combines the two legs of a swap into one USD volume.
type VolumePolicy func(leg0, leg1 Leg) Valuation

var two = decimal.NewFromInt(2)

// AveragePricedLegs averages both legs when both are priced, otherwise takes
// whichever leg is priced. With neither priced the volume is unpriced.
func AveragePricedLegs(leg0, leg1 Leg) Valuation {
	value0, ok0 := leg0.Value()
	value1, ok1 := leg1.Value()
	switch {
	case ok0 && ok1:
		return Valuation{USD: value0.Add(value1).Div(two), Priced: true}
	case ok0:
		return Valuation{USD: value0, Priced: true}
	case ok1:
		return Valuation{USD: value1, Priced: true}
	default:
		return Valuation{}
	}
}

// FeesFromVolume applies a fee rate expressed in millionths to a volume.
func FeesFromVolume(volume Valuation, feeRate uint32) Valuation {
	if !volume.Priced {
		return Valuation{}
	}
	rate := decimal.New(int64(feeRate), -6)
	return Valuation{USD: volume.USD.Mul(rate), Priced: true}
}
