package marketplace

import (
	"context"
	"errors"
	"testing"

	"github.com/guarzo/swuprice/internal/httpx"
	"github.com/guarzo/swuprice/internal/model"
	"github.com/guarzo/swuprice/internal/testutil"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestPriceClient(up *testutil.Upstream) (*PriceClient, *model.Warnings) {
	w := model.NewWarnings()
	w.Quiet(true)
	return NewPriceClient(httpx.NewClient(), WithPriceBaseURL(up.URL), WithPriceWarnings(w)), w
}

func TestFetchPrice_PricePoints(t *testing.T) {
	up := testutil.NewUpstream(t)
	up.PricePoints[500] = []testutil.PricePointEntry{
		{PrintingType: "Foil", MarketPrice: testutil.Price(12.5)},
		{PrintingType: "Normal", MarketPrice: testutil.Price(3.21)},
	}

	p, w := newTestPriceClient(up)
	point, err := p.FetchPrice(context.Background(), 500)
	require.NoError(t, err)

	assert.True(t, point.Normal.Equal(decimal.RequireFromString("3.21")), "normal = %s", point.Normal)
	assert.True(t, point.Foil.Equal(decimal.RequireFromString("12.5")), "foil = %s", point.Foil)
	assert.Equal(t, 0, up.Requests("details"))
	assert.Equal(t, 0, w.Len())
}

func TestFetchPrice_MissingFoilIsZero(t *testing.T) {
	up := testutil.NewUpstream(t)
	up.PricePoints[501] = []testutil.PricePointEntry{
		{PrintingType: "Normal", MarketPrice: testutil.Price(0.25)},
		{PrintingType: "Foil", MarketPrice: nil},
	}

	p, w := newTestPriceClient(up)
	point, err := p.FetchPrice(context.Background(), 501)
	require.NoError(t, err)

	assert.True(t, point.Foil.IsZero())
	assert.Equal(t, 1, w.Count(model.WarnMissingFoilPrice))
}

func TestFetchPrice_FallsBackToDetails(t *testing.T) {
	tests := []struct {
		name  string
		setup func(up *testutil.Upstream)
	}{
		{
			name:  "pricepoints 404",
			setup: func(up *testutil.Upstream) {},
		},
		{
			name: "pricepoints without Normal",
			setup: func(up *testutil.Upstream) {
				up.PricePoints[502] = []testutil.PricePointEntry{
					{PrintingType: "Foil", MarketPrice: testutil.Price(9)},
				}
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			up := testutil.NewUpstream(t)
			up.Details[502] = 4.75
			tt.setup(up)

			p, w := newTestPriceClient(up)
			point, err := p.FetchPrice(context.Background(), 502)
			require.NoError(t, err)

			assert.True(t, point.Normal.Equal(decimal.RequireFromString("4.75")), "normal = %s", point.Normal)
			assert.True(t, point.Foil.IsZero(), "fallback never has a foil price")
			assert.Equal(t, 1, up.Requests("details"))
			assert.Equal(t, 1, w.Count(model.WarnPriceFallback))
		})
	}
}

func TestFetchPrice_BothSourcesFail(t *testing.T) {
	up := testutil.NewUpstream(t)

	p, _ := newTestPriceClient(up)
	_, err := p.FetchPrice(context.Background(), 999)
	require.Error(t, err)
	assert.True(t, errors.Is(err, httpx.ErrStatus))
	assert.Equal(t, 1, up.Requests("pricepoints"))
	assert.Equal(t, 1, up.Requests("details"), "no retries beyond the single fallback")
}
