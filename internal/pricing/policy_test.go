package pricing

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func leg(amount string, price Price) Leg {
	return Leg{Amount: decimal.RequireFromString(amount), Price: price}
}

func usd(v string) Price {
	return KnownPrice(decimal.RequireFromString(v))
}

func TestAveragePricedLegs(t *testing.T) {
	both := AveragePricedLegs(leg("-2", usd("100")), leg("190", usd("1")))
	assert.True(t, both.Priced)
	assert.True(t, decimal.NewFromInt(195).Equal(both.USD), "got %s", both.USD)

	left := AveragePricedLegs(leg("2", usd("100")), leg("-190", NoPrice))
	assert.True(t, left.Priced)
	assert.True(t, decimal.NewFromInt(200).Equal(left.USD))

	right := AveragePricedLegs(leg("2", NoPrice), leg("-190", usd("1")))
	assert.True(t, right.Priced)
	assert.True(t, decimal.NewFromInt(190).Equal(right.USD))

	none := AveragePricedLegs(leg("2", NoPrice), leg("-190", NoPrice))
	assert.False(t, none.Priced)
	assert.Nil(t, none.Ptr())
}

func TestFeesFromVolume(t *testing.T) {
	fees := FeesFromVolume(Valuation{USD: decimal.NewFromInt(1000), Priced: true}, 3000)
	assert.True(t, fees.Priced)
	assert.True(t, decimal.NewFromInt(3).Equal(fees.USD))

	assert.False(t, FeesFromVolume(Valuation{}, 3000).Priced)
}

func TestSumLegs(t *testing.T) {
	tvl := SumLegs(leg("1.5", usd("2000")), leg("250", usd("1")))
	assert.True(t, tvl.Priced)
	assert.True(t, decimal.NewFromInt(3250).Equal(tvl.USD))

	unpriced := SumLegs(leg("1.5", usd("2000")), leg("250", NoPrice))
	assert.False(t, unpriced.Priced)

	emptyLeg := SumLegs(leg("1.5", usd("2000")), leg("0", NoPrice))
	assert.True(t, emptyLeg.Priced)
	assert.True(t, decimal.NewFromInt(3000).Equal(emptyLeg.USD))
}

func TestPricePtr(t *testing.T) {
	assert.Nil(t, NoPrice.Ptr())
	zero := KnownPrice(decimal.Zero)
	if assert.NotNil(t, zero.Ptr()) {
		assert.Equal(t, "0", *zero.Ptr())
	}
}
