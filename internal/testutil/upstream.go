package testutil

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"sync"
	"testing"
)

// CatalogEntry builds one element of the card API "data" array.
func CatalogEntry(number int, title, subtitle, rarity string, hyperspace bool) map[string]any {
	return map[string]any{
		"id": number,
		"attributes": map[string]any{
			"title":      title,
			"subtitle":   subtitle,
			"cardNumber": number,
			"hyperspace": hyperspace,
			"showcase":   false,
			"rarity":     map[string]any{"data": map[string]any{"attributes": map[string]any{"name": rarity}}},
			"type":       map[string]any{"data": map[string]any{"attributes": map[string]any{"name": "Unit"}}},
		},
	}
}

// SearchProduct is one autocomplete candidate.
type SearchProduct struct {
	ProductID   int     `json:"product-id"`
	ProductName string  `json:"product-name"`
	LineName    string  `json:"product-line-name"`
	SetName     string  `json:"set-name"`
	Score       float64 `json:"score"`
}

// PricePointEntry is one element of the pricepoints response.
type PricePointEntry struct {
	PrintingType string   `json:"printingType"`
	MarketPrice  *float64 `json:"marketPrice"`
}

func Price(v float64) *float64 { return &v }

// Upstream fakes the card database, marketplace search, marketplace prices and the
// exchange-rate API on a single httptest server. Maps are keyed by search phrase and
// product id; fields must be populated before requests arrive.
type Upstream struct {
	*httptest.Server

	// CatalogPages is served page by page, pageCount = len(CatalogPages).
	CatalogPages [][]map[string]any
	// Search maps the q parameter to candidates. Unknown phrases get an empty list.
	Search map[string][]SearchProduct
	// PricePoints maps product ids to entries; missing ids return 404.
	PricePoints map[int][]PricePointEntry
	// Details maps product ids to a fallback market price; missing ids return 404.
	Details map[int]float64
	// Rates is the exchange-rate table; nil makes the endpoint fail.
	Rates map[string]float64

	mu       sync.Mutex
	requests map[string]int
	queries  []string
}

func NewUpstream(t *testing.T) *Upstream {
	t.Helper()
	u := &Upstream{
		Search:      map[string][]SearchProduct{},
		PricePoints: map[int][]PricePointEntry{},
		Details:     map[int]float64{},
		requests:    map[string]int{},
	}
	u.Server = httptest.NewServer(http.HandlerFunc(u.serve))
	t.Cleanup(u.Server.Close)
	return u
}

// Requests returns how many calls hit the named endpoint: "catalog", "search",
// "pricepoints", "details" or "rates".
func (u *Upstream) Requests(endpoint string) int {
	u.mu.Lock()
	defer u.mu.Unlock()
	return u.requests[endpoint]
}

// SearchQueries returns every q parameter received, in arrival order.
func (u *Upstream) SearchQueries() []string {
	u.mu.Lock()
	defer u.mu.Unlock()
	return append([]string(nil), u.queries...)
}

func (u *Upstream) hit(endpoint string) {
	u.mu.Lock()
	u.requests[endpoint]++
	u.mu.Unlock()
}

func (u *Upstream) serve(w http.ResponseWriter, r *http.Request) {
	path := r.URL.Path
	switch {
	case path == "/api/cards":
		u.hit("catalog")
		page, _ := strconv.Atoi(r.URL.Query().Get("pagination[page]"))
		data := []map[string]any{}
		if page >= 1 && page <= len(u.CatalogPages) {
			data = u.CatalogPages[page-1]
		}
		writeJSON(w, map[string]any{
			"data": data,
			"meta": map[string]any{"pagination": map[string]any{
				"page": page, "pageSize": 50, "pageCount": len(u.CatalogPages),
			}},
		})

	case path == "/autocomplete":
		u.hit("search")
		q := r.URL.Query().Get("q")
		u.mu.Lock()
		u.queries = append(u.queries, q)
		u.mu.Unlock()
		products := u.Search[q]
		if products == nil {
			products = []SearchProduct{}
		}
		writeJSON(w, map[string]any{"products": products})

	case strings.HasPrefix(path, "/v2/product/") && strings.HasSuffix(path, "/pricepoints"):
		u.hit("pricepoints")
		id, _ := strconv.Atoi(strings.TrimSuffix(strings.TrimPrefix(path, "/v2/product/"), "/pricepoints"))
		entries, ok := u.PricePoints[id]
		if !ok {
			http.NotFound(w, r)
			return
		}
		writeJSON(w, entries)

	case strings.HasPrefix(path, "/v1/product/") && strings.HasSuffix(path, "/details"):
		u.hit("details")
		id, _ := strconv.Atoi(strings.TrimSuffix(strings.TrimPrefix(path, "/v1/product/"), "/details"))
		price, ok := u.Details[id]
		if !ok {
			http.NotFound(w, r)
			return
		}
		writeJSON(w, map[string]any{"productId": id, "marketPrice": price})

	case strings.HasPrefix(path, "/v6/latest/"):
		u.hit("rates")
		if u.Rates == nil {
			http.Error(w, "rate service down", http.StatusBadGateway)
			return
		}
		writeJSON(w, map[string]any{"result": "success", "base_code": "USD", "rates": u.Rates})

	default:
		http.NotFound(w, r)
	}
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}
