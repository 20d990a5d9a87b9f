package marketplace

import (
	"context"
	"fmt"
	"net/url"

	"github.com/google/uuid"
	"github.com/guarzo/swuprice/internal/cache"
	"github.com/guarzo/swuprice/internal/httpx"
	"github.com/guarzo/swuprice/internal/model"
)

// Resolver maps card names to TCGplayer product ids through the autocomplete endpoint.
type Resolver struct {
	client      *httpx.Client
	baseURL     string
	setName     string
	corrections map[string]string
	warnings    *model.Warnings
	memo        *cache.Memo[model.ProductMatch]
	sessionID   func() string
}

type ResolverOption func(*Resolver)

func WithSearchBaseURL(u string) ResolverOption {
	return func(r *Resolver) { r.baseURL = u }
}

// WithCorrections sets the catalog-name corrections applied to hyperspace lookups.
func WithCorrections(c map[string]string) ResolverOption {
	return func(r *Resolver) { r.corrections = c }
}

func WithResolverWarnings(w *model.Warnings) ResolverOption {
	return func(r *Resolver) { r.warnings = w }
}

// NewResolver creates a resolver that only accepts exact matches from setName.
func NewResolver(client *httpx.Client, setName string, opts ...ResolverOption) *Resolver {
	r := &Resolver{
		client:    client,
		baseURL:   DefaultSearchBaseURL,
		setName:   setName,
		memo:      cache.NewMemo[model.ProductMatch](),
		sessionID: uuid.NewString,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// SearchPhrase builds the marketplace product name for a printing, after corrections.
func (r *Resolver) SearchPhrase(cardName string, isHyperspace bool) string {
	if !isHyperspace {
		return cardName
	}
	if fixed, ok := r.corrections[cardName]; ok {
		cardName = fixed
	}
	return cardName + hyperspaceSuffix
}

// ResolveProduct returns the best product for a printing. An empty candidate list is
// not an error: the match comes back with Method none and a warning is recorded.
func (r *Resolver) ResolveProduct(ctx context.Context, cardName string, isHyperspace bool) (model.ProductMatch, error) {
	phrase := r.SearchPhrase(cardName, isHyperspace)
	return r.memo.Do(phrase, func() (model.ProductMatch, error) {
		return r.search(ctx, phrase)
	})
}

func (r *Resolver) search(ctx context.Context, phrase string) (model.ProductMatch, error) {
	q := url.Values{}
	q.Set("q", phrase)
	q.Set("session-id", r.sessionID())
	q.Set("product-line-affinity", ProductLine)
	q.Set("algorithm", "product_line_affinity")
	u := r.baseURL + "/autocomplete?" + q.Encode()

	var resp searchResponse
	if err := r.client.GetJSON(ctx, "search", u, &resp); err != nil {
		return model.ProductMatch{}, fmt.Errorf("searching %q: %w", phrase, err)
	}

	product, exact, ok := pickProduct(resp.Products, phrase, ProductLine, r.setName)
	if !ok {
		r.warnings.Add(model.WarnNoProductMatch, phrase, "marketplace search returned no products")
		return model.ProductMatch{Method: model.MatchMethodNone}, nil
	}

	method := model.MatchMethodExact
	if !exact {
		method = model.MatchMethodBestScore
		r.warnings.Add(model.WarnBestScoreMatch, phrase,
			"no exact match in %q, using %q (product %d, score %.2f)",
			r.setName, product.ProductName, product.ProductID, product.Score)
	}

	return model.ProductMatch{
		ProductID:   product.ProductID,
		ProductName: product.ProductName,
		Method:      method,
	}, nil
}
