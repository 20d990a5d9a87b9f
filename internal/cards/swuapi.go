package cards

import (
	"context"
	"fmt"
	"log"
	"net/url"
	"strconv"

	"github.com/guarzo/swuprice/internal/httpx"
	"github.com/guarzo/swuprice/internal/model"
)

const (
	DefaultBaseURL = "https://admin.starwarsunlimited.com"
	pageSize       = 50
)

// Catalog lists cards from the official Star Wars: Unlimited card database.
type Catalog struct {
	baseURL  string
	client   *httpx.Client
	rarities []string
	quiet    bool
}

type Option func(*Catalog)

// WithRarities restricts listings to the given rarity names. The filter is fixed for
// the lifetime of the Catalog.
func WithRarities(rarities ...string) Option {
	return func(c *Catalog) { c.rarities = append([]string(nil), rarities...) }
}

func WithBaseURL(u string) Option {
	return func(c *Catalog) { c.baseURL = u }
}

func WithQuiet(q bool) Option {
	return func(c *Catalog) { c.quiet = q }
}

func NewCatalog(client *httpx.Client, opts ...Option) *Catalog {
	c := &Catalog{
		baseURL: DefaultBaseURL,
		client:  client,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

type listResponse struct {
	Data []struct {
		ID         int `json:"id"`
		Attributes struct {
			Title      string `json:"title"`
			Subtitle   string `json:"subtitle"`
			CardNumber int    `json:"cardNumber"`
			Hyperspace bool   `json:"hyperspace"`
			Showcase   bool   `json:"showcase"`
			Rarity     named  `json:"rarity"`
			Type       named  `json:"type"`
		} `json:"attributes"`
	} `json:"data"`
	Meta struct {
		Pagination struct {
			Page      int `json:"page"`
			PageSize  int `json:"pageSize"`
			PageCount int `json:"pageCount"`
			Total     int `json:"total"`
		} `json:"pagination"`
	} `json:"meta"`
}

// named is the Strapi relation wrapper: {"data": {"attributes": {"name": ...}}}
type named struct {
	Data *struct {
		Attributes struct {
			Name string `json:"name"`
		} `json:"attributes"`
	} `json:"data"`
}

func (n named) name() string {
	if n.Data == nil {
		return ""
	}
	return n.Data.Attributes.Name
}

// CardsBySetID pages through every card of an expansion and returns them in server order.
func (c *Catalog) CardsBySetID(ctx context.Context, setID int) ([]model.Card, error) {
	page := 1
	cards := []model.Card{}

	for {
		if !c.quiet {
			log.Printf("Catalog: fetching set %d page %d", setID, page)
		}

		var resp listResponse
		if err := c.client.GetJSON(ctx, "catalog", c.pageURL(setID, page), &resp); err != nil {
			return nil, fmt.Errorf("listing set %d page %d: %w", setID, page, err)
		}

		for _, d := range resp.Data {
			a := d.Attributes
			name := a.Title
			if a.Subtitle != "" {
				name += " - " + a.Subtitle
			}
			cards = append(cards, model.Card{
				Number:     a.CardNumber,
				Name:       name,
				Type:       a.Type.name(),
				Hyperspace: a.Hyperspace,
				Showcase:   a.Showcase,
				Rarity:     a.Rarity.name(),
			})
		}

		if page >= resp.Meta.Pagination.PageCount {
			break
		}
		page++
	}

	return cards, nil
}

func (c *Catalog) pageURL(setID, page int) string {
	q := url.Values{}
	q.Set("filters[$and][1][expansion][id][$in][0]", strconv.Itoa(setID))
	for i, r := range c.rarities {
		q.Set(fmt.Sprintf("filters[$and][2][rarity][name][$in][%d]", i), r)
	}
	q.Set("pagination[page]", strconv.Itoa(page))
	q.Set("pagination[pageSize]", strconv.Itoa(pageSize))
	return c.baseURL + "/api/cards?" + q.Encode()
}
