package currency

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"

	"github.com/guarzo/swuprice/internal/httpx"
	"github.com/shopspring/decimal"
	"golang.org/x/sync/singleflight"
)

const DefaultRatesURL = "https://open.er-api.com/v6/latest/USD"

// ErrNoExchangeRate means the converter could not obtain a usable rate. Converting
// without one is a configuration error, never a zero price.
var ErrNoExchangeRate = errors.New("no exchange rate")

var (
	markup   = decimal.RequireFromString("1.1")
	two      = decimal.NewFromInt(2)
	hundred  = decimal.NewFromInt(100)
	rateOnce = "rate"
)

// RateProvider returns the USD -> target rate.
type RateProvider interface {
	GetRate(ctx context.Context, target string) (decimal.Decimal, error)
	GetName() string
}

// OpenERAPI reads rates from the open.er-api.com USD table.
type OpenERAPI struct {
	client *httpx.Client
	url    string
}

func NewOpenERAPI(client *httpx.Client, url string) *OpenERAPI {
	if url == "" {
		url = DefaultRatesURL
	}
	return &OpenERAPI{client: client, url: url}
}

func (o *OpenERAPI) GetName() string { return "open.er-api.com" }

func (o *OpenERAPI) GetRate(ctx context.Context, target string) (decimal.Decimal, error) {
	var resp struct {
		Result string                     `json:"result"`
		Rates  map[string]decimal.Decimal `json:"rates"`
	}
	if err := o.client.GetJSON(ctx, "rates", o.url, &resp); err != nil {
		return decimal.Zero, err
	}
	rate, ok := resp.Rates[target]
	if !ok {
		return decimal.Zero, fmt.Errorf("rate table has no %s entry", target)
	}
	return rate, nil
}

// Converter turns USD market prices into rounded target-currency shelf prices.
// The rate is fetched on first use and reused for the lifetime of the Converter.
type Converter struct {
	target   string
	provider RateProvider

	mu     sync.RWMutex
	rate   decimal.Decimal
	cached bool
	group  singleflight.Group
}

func NewConverter(target string, provider RateProvider) *Converter {
	return &Converter{target: target, provider: provider}
}

// NewFixed returns a converter that never fetches.
func NewFixed(target string, rate decimal.Decimal) *Converter {
	return &Converter{target: target, rate: rate, cached: true}
}

func (c *Converter) Target() string { return c.target }

// Rate returns the cached rate, fetching it once if needed. Concurrent first callers
// share a single fetch. A failed fetch leaves the cache empty.
func (c *Converter) Rate(ctx context.Context) (decimal.Decimal, error) {
	c.mu.RLock()
	if c.cached {
		rate := c.rate
		c.mu.RUnlock()
		return rate, nil
	}
	c.mu.RUnlock()

	if c.provider == nil {
		return decimal.Zero, fmt.Errorf("%w: no rate provider configured", ErrNoExchangeRate)
	}

	v, err, _ := c.group.Do(rateOnce, func() (any, error) {
		c.mu.RLock()
		if c.cached {
			rate := c.rate
			c.mu.RUnlock()
			return rate, nil
		}
		c.mu.RUnlock()

		rate, err := c.provider.GetRate(ctx, c.target)
		if err != nil {
			log.Printf("Currency: failed to fetch USD->%s rate from %s: %v", c.target, c.provider.GetName(), err)
			return nil, fmt.Errorf("%w: USD->%s: %w", ErrNoExchangeRate, c.target, err)
		}
		if !rate.IsPositive() {
			return nil, fmt.Errorf("%w: USD->%s rate %s is not positive", ErrNoExchangeRate, c.target, rate)
		}

		c.mu.Lock()
		c.rate = rate
		c.cached = true
		c.mu.Unlock()
		log.Printf("Currency: USD->%s rate %s from %s", c.target, rate, c.provider.GetName())
		return rate, nil
	})
	if err != nil {
		return decimal.Zero, err
	}
	return v.(decimal.Decimal), nil
}

// ToTarget converts a USD amount: apply the rate and a 10% markup, then round down to
// the nearest half unit. floor(amount * rate * 1.1 * 2) / 2
func (c *Converter) ToTarget(ctx context.Context, amount decimal.Decimal) (decimal.Decimal, error) {
	rate, err := c.Rate(ctx)
	if err != nil {
		return decimal.Zero, err
	}
	return Convert(amount, rate), nil
}

// Convert applies the pricing rule with an explicit rate.
func Convert(amount, rate decimal.Decimal) decimal.Decimal {
	return amount.Mul(rate).Mul(markup).Mul(two).Floor().Div(two)
}

// Format renders an amount with exactly two decimals.
func Format(d decimal.Decimal) string {
	return d.StringFixed(2)
}

// MinorUnits returns the amount in cents.
func MinorUnits(d decimal.Decimal) int64 {
	return d.Mul(hundred).Round(0).IntPart()
}
