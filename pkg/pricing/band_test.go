package pricing

import (
	"math"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBand_KnownPrices(t *testing.T) {
	cases := []struct {
		price    int64
		min, max int64
	}{
		{price: 500, min: 480, max: 530},
		{price: 1200, min: 1140, max: 1260},
		{price: 0, min: 0, max: 0},
		{price: 100, min: 100, max: 110},
		{price: 2350, min: 2230, max: 2470},
	}

	for _, tc := range cases {
		r := Band(decimal.NewFromInt(tc.price))
		require.NotNil(t, r, "price %d", tc.price)
		assert.True(t, r.Min.Equal(decimal.NewFromInt(tc.min)), "min for %d: got %s", tc.price, r.Min)
		assert.True(t, r.Max.Equal(decimal.NewFromInt(tc.max)), "max for %d: got %s", tc.price, r.Max)
	}
}

func TestBand_ContainsPriceWithinRounding(t *testing.T) {
	ten := decimal.NewFromInt(10)
	for _, s := range []string{"1", "7.5", "49.99", "333.33", "999", "15000", "123456.78"} {
		p := decimal.RequireFromString(s)
		r := Band(p)
		require.NotNil(t, r)

		assert.False(t, r.Min.IsNegative(), s)
		assert.True(t, r.Min.LessThanOrEqual(p.Add(ten)), s)
		assert.True(t, r.Max.GreaterThanOrEqual(p.Sub(ten)), s)
		assert.True(t, r.Min.LessThanOrEqual(r.Max), s)
	}
}

func TestBand_Negative(t *testing.T) {
	assert.Nil(t, Band(decimal.NewFromInt(-1)))
}

func TestBandFromFloat(t *testing.T) {
	assert.Nil(t, BandFromFloat(math.NaN()))
	assert.Nil(t, BandFromFloat(math.Inf(1)))
	assert.Nil(t, BandFromFloat(math.Inf(-1)))
	assert.Nil(t, BandFromFloat(-0.01))

	r := BandFromFloat(500)
	require.NotNil(t, r)
	assert.Equal(t, "480", r.Min.String())
	assert.Equal(t, "530", r.Max.String())
}
