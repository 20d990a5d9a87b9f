package marketplace

import (
	"context"

	"github.com/guarzo/swuprice/internal/model"
)

const (
	DefaultSearchBaseURL = "https://data.tcgplayer.com"
	DefaultPriceBaseURL  = "https://mp-search-api.tcgplayer.com"

	// ProductLine is the TCGplayer product line every Star Wars: Unlimited product belongs to.
	ProductLine = "Star Wars: Unlimited"

	hyperspaceSuffix = " (Hyperspace)"
)

// ProductResolver finds the marketplace product for a card printing.
type ProductResolver interface {
	ResolveProduct(ctx context.Context, cardName string, isHyperspace bool) (model.ProductMatch, error)
}

// PriceFetcher returns market prices for a marketplace product.
type PriceFetcher interface {
	FetchPrice(ctx context.Context, productID int) (model.PricePoint, error)
}

// SearchProduct is one candidate returned by the autocomplete endpoint.
type SearchProduct struct {
	ProductID   int     `json:"product-id"`
	ProductName string  `json:"product-name"`
	LineName    string  `json:"product-line-name"`
	SetName     string  `json:"set-name"`
	Score       float64 `json:"score"`
}

type searchResponse struct {
	Products []SearchProduct `json:"products"`
}

type pricePoint struct {
	PrintingType string   `json:"printingType"`
	MarketPrice  *float64 `json:"marketPrice"`
}

type productDetails struct {
	ProductID   int      `json:"productId"`
	MarketPrice *float64 `json:"marketPrice"`
}
