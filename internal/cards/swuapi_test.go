package cards

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync"
	"testing"

	"github.com/guarzo/swuprice/internal/httpx"
	"github.com/guarzo/swuprice/internal/model"
	"github.com/guarzo/swuprice/internal/testutil"
)

func TestCatalog_CardsBySetID_Pagination(t *testing.T) {
	up := testutil.NewUpstream(t)
	up.CatalogPages = [][]map[string]any{
		{
			testutil.CatalogEntry(1, "Darth Vader", "Victor Squadron Leader", model.RarityLegendary, false),
			testutil.CatalogEntry(2, "Bazine Netal", "Spy for the First Order", model.RarityRare, false),
		},
		{
			testutil.CatalogEntry(3, "Snowtrooper", "", model.RarityCommon, false),
		},
		{
			testutil.CatalogEntry(263, "Bazine Netal", "Spy for the First Order", model.RarityRare, true),
		},
	}

	c := NewCatalog(httpx.NewClient(), WithBaseURL(up.URL), WithQuiet(true))
	cards, err := c.CardsBySetID(context.Background(), 8)
	if err != nil {
		t.Fatalf("CardsBySetID failed: %v", err)
	}

	if got := up.Requests("catalog"); got != 3 {
		t.Errorf("expected exactly 3 page requests, got %d", got)
	}

	wantNames := []string{
		"Darth Vader - Victor Squadron Leader",
		"Bazine Netal - Spy for the First Order",
		"Snowtrooper",
		"Bazine Netal - Spy for the First Order",
	}
	if len(cards) != len(wantNames) {
		t.Fatalf("expected %d cards, got %d", len(wantNames), len(cards))
	}
	for i, want := range wantNames {
		if cards[i].Name != want {
			t.Errorf("card %d: expected %q, got %q", i, want, cards[i].Name)
		}
	}

	last := cards[3]
	if !last.Hyperspace || last.Number != 263 || last.Rarity != model.RarityRare || last.Type != "Unit" {
		t.Errorf("unexpected decoded card: %+v", last)
	}
}

func TestCatalog_QueryParameters(t *testing.T) {
	var mu sync.Mutex
	var queries []url.Values
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		queries = append(queries, r.URL.Query())
		mu.Unlock()
		w.Write([]byte(`{"data":[],"meta":{"pagination":{"pageCount":1}}}`))
	}))
	defer server.Close()

	c := NewCatalog(httpx.NewClient(), WithBaseURL(server.URL), WithQuiet(true),
		WithRarities(model.RarityRare, model.RarityLegendary))
	if _, err := c.CardsBySetID(context.Background(), 8); err != nil {
		t.Fatalf("CardsBySetID failed: %v", err)
	}

	if len(queries) != 1 {
		t.Fatalf("expected 1 request, got %d", len(queries))
	}
	q := queries[0]
	checks := map[string]string{
		"filters[$and][1][expansion][id][$in][0]": "8",
		"filters[$and][2][rarity][name][$in][0]":  model.RarityRare,
		"filters[$and][2][rarity][name][$in][1]":  model.RarityLegendary,
		"pagination[page]":                        "1",
		"pagination[pageSize]":                    "50",
	}
	for k, want := range checks {
		if got := q.Get(k); got != want {
			t.Errorf("param %s = %q, want %q", k, got, want)
		}
	}
}

func TestCatalog_ZeroPageCountStopsAfterFirstPage(t *testing.T) {
	up := testutil.NewUpstream(t)

	c := NewCatalog(httpx.NewClient(), WithBaseURL(up.URL), WithQuiet(true))
	cards, err := c.CardsBySetID(context.Background(), 99)
	if err != nil {
		t.Fatalf("CardsBySetID failed: %v", err)
	}
	if len(cards) != 0 {
		t.Errorf("expected no cards, got %d", len(cards))
	}
	if got := up.Requests("catalog"); got != 1 {
		t.Errorf("expected 1 request, got %d", got)
	}
}

func TestCatalog_ErrorScenarios(t *testing.T) {
	tests := []struct {
		name           string
		serverResponse func(w http.ResponseWriter, r *http.Request)
		errorContains  string
	}{
		{
			name: "404 Not Found",
			serverResponse: func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusNotFound)
				w.Write([]byte("not found"))
			},
			errorContains: "404",
		},
		{
			name: "500 Internal Server Error",
			serverResponse: func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusInternalServerError)
				w.Write([]byte("server error"))
			},
			errorContains: "500",
		},
		{
			name: "Invalid JSON",
			serverResponse: func(w http.ResponseWriter, r *http.Request) {
				w.Write([]byte(`{"data": [`))
			},
			errorContains: "decoding",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(tt.serverResponse))
			defer server.Close()

			c := NewCatalog(httpx.NewClient(), WithBaseURL(server.URL), WithQuiet(true))
			_, err := c.CardsBySetID(context.Background(), 8)
			if err == nil {
				t.Fatal("expected error")
			}
			if !strings.Contains(err.Error(), tt.errorContains) {
				t.Errorf("expected error containing %q, got %v", tt.errorContains, err)
			}
		})
	}
}
