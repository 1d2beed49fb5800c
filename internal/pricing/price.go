package pricing

import "github.com/shopspring/decimal"

// Price is a USD price that may be unknown. An unknown price is never a zero valuation.
type Price struct {
	USD   decimal.Decimal
	Known bool
}

// NoPrice is the result for tokens whose price cannot be determined.
var NoPrice = Price{}

// KnownPrice wraps a determined USD price.
func KnownPrice(usd decimal.Decimal) Price {
	return Price{USD: usd, Known: true}
}

// Ptr renders the price for storage, nil when unknown.
func (p Price) Ptr() *string {
	if !p.Known {
		return nil
	}
	s := p.USD.String()
	return &s
}

// Valuation is a USD figure that carries whether every input was priced.
type Valuation struct {
	USD    decimal.Decimal
	Priced bool
}

// Ptr renders the valuation for storage, nil when unpriced.
func (v Valuation) Ptr() *string {
	if !v.Priced {
		return nil
	}
	s := v.USD.String()
	return &s
}

// Leg is a decimal-adjusted token amount with its price.
type Leg struct {
	Amount decimal.Decimal
	Price  Price
}

// Value returns |amount| * price, or false when the leg is unpriced.
func (l Leg) Value() (decimal.Decimal, bool) {
	if !l.Price.Known {
		return decimal.Zero, false
	}
	return l.Amount.Abs().Mul(l.Price.USD), true
}

// SumLegs values a set of holdings. Any unpriced leg with a non-zero amount
// makes the whole figure unpriced.
func SumLegs(legs ...Leg) Valuation {
	total := decimal.Zero
	for _, leg := range legs {
		if leg.Amount.IsZero() {
			continue
		}
		value, ok := leg.Value()
		if !ok {
			return Valuation{USD: total}
		}
		total = total.Add(value)
	}
	return Valuation{USD: total, Priced: true}
}
