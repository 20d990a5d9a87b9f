package marketplace

import (
	"context"
	"errors"
	"fmt"

	"github.com/guarzo/swuprice/internal/httpx"
	"github.com/guarzo/swuprice/internal/model"
	"github.com/shopspring/decimal"
)

// ErrNoNormalPrice means a price source had no usable Normal printing price.
var ErrNoNormalPrice = errors.New("no normal price")

const (
	printingNormal = "Normal"
	printingFoil   = "Foil"
)

// PriceClient reads market prices from the TCGplayer marketplace API.
type PriceClient struct {
	client   *httpx.Client
	baseURL  string
	warnings *model.Warnings
}

type PriceOption func(*PriceClient)

func WithPriceBaseURL(u string) PriceOption {
	return func(p *PriceClient) { p.baseURL = u }
}

func WithPriceWarnings(w *model.Warnings) PriceOption {
	return func(p *PriceClient) { p.warnings = w }
}

func NewPriceClient(client *httpx.Client, opts ...PriceOption) *PriceClient {
	p := &PriceClient{
		client:  client,
		baseURL: DefaultPriceBaseURL,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// FetchPrice reads the pricepoints endpoint and falls back to product details when
// that fails for any reason, including a missing Normal price. The fallback never has
// a foil price.
func (p *PriceClient) FetchPrice(ctx context.Context, productID int) (model.PricePoint, error) {
	points, primaryErr := p.pricePoints(ctx, productID)
	if primaryErr == nil {
		return points, nil
	}

	normal, err := p.detailsPrice(ctx, productID)
	if err != nil {
		return model.PricePoint{}, fmt.Errorf("product %d: details fallback: %w (pricepoints: %w)", productID, err, primaryErr)
	}

	p.warnings.Add(model.WarnPriceFallback, productLabel(productID),
		"pricepoints unavailable (%v), used details market price %s", primaryErr, normal)
	return model.PricePoint{Normal: normal, Foil: decimal.Zero}, nil
}

func (p *PriceClient) pricePoints(ctx context.Context, productID int) (model.PricePoint, error) {
	u := fmt.Sprintf("%s/v2/product/%d/pricepoints", p.baseURL, productID)

	var entries []pricePoint
	if err := p.client.GetJSON(ctx, "pricepoints", u, &entries); err != nil {
		return model.PricePoint{}, err
	}

	var normal, foil *float64
	for _, e := range entries {
		switch e.PrintingType {
		case printingNormal:
			normal = e.MarketPrice
		case printingFoil:
			foil = e.MarketPrice
		}
	}

	if normal == nil {
		p.warnings.Add(model.WarnMissingNormalPrice, productLabel(productID), "no Normal market price in pricepoints")
		return model.PricePoint{}, ErrNoNormalPrice
	}

	point := model.PricePoint{Normal: decimal.NewFromFloat(*normal), Foil: decimal.Zero}
	if foil == nil {
		p.warnings.Add(model.WarnMissingFoilPrice, productLabel(productID), "no Foil market price, using 0")
	} else {
		point.Foil = decimal.NewFromFloat(*foil)
	}
	return point, nil
}

func (p *PriceClient) detailsPrice(ctx context.Context, productID int) (decimal.Decimal, error) {
	u := fmt.Sprintf("%s/v1/product/%d/details", p.baseURL, productID)

	var details productDetails
	if err := p.client.GetJSON(ctx, "details", u, &details); err != nil {
		return decimal.Zero, err
	}
	if details.MarketPrice == nil {
		return decimal.Zero, ErrNoNormalPrice
	}
	return decimal.NewFromFloat(*details.MarketPrice), nil
}

func productLabel(productID int) string {
	return fmt.Sprintf("product %d", productID)
}
