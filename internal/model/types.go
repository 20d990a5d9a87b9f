package model

import (
	"fmt"
	"strconv"

	"github.com/shopspring/decimal"
)

// Set identifies an expansion on both sides: the catalog API knows it by numeric id,
// the marketplace by display name.
type Set struct {
	ID   int
	Name string
}

// Card is one printing record from the catalog API.
// Name is the title, suffixed with " - subtitle" when the card has one.
type Card struct {
	Number     int
	Name       string
	Type       string
	Hyperspace bool
	Showcase   bool // informational only
	Rarity     string
}

// Key identifies a variant within a set.
func (c Card) Key() string {
	return c.Name + "|" + strconv.FormatBool(c.Hyperspace)
}

// Label is used in logs and warnings.
func (c Card) Label() string {
	if c.Hyperspace {
		return fmt.Sprintf("#%d %s (Hyperspace)", c.Number, c.Name)
	}
	return fmt.Sprintf("#%d %s", c.Number, c.Name)
}

const (
	RarityCommon    = "Common"
	RarityUncommon  = "Uncommon"
	RarityRare      = "Rare"
	RarityLegendary = "Legendary"
	RaritySpecial   = "Special"
)

// MatchMethod represents how a marketplace product was picked
type MatchMethod string

const (
	MatchMethodExact     MatchMethod = "exact"
	MatchMethodBestScore MatchMethod = "best-score"
	MatchMethodNone      MatchMethod = "none"
)

// ProductMatch is the resolved marketplace product for a card. ProductID is zero when
// nothing was found.
type ProductMatch struct {
	ProductID   int         `json:"productId,omitempty"`
	ProductName string      `json:"productName,omitempty"`
	Method      MatchMethod `json:"method"`
}

func (m ProductMatch) Found() bool {
	return m.ProductID != 0
}

// PricePoint holds market prices for the two printings. A zero Foil means no foil
// listing was found.
type PricePoint struct {
	Normal decimal.Decimal `json:"normal"`
	Foil   decimal.Decimal `json:"foil"`
}

// PricedCard is a card after resolution, price lookup and conversion.
type PricedCard struct {
	Card     Card
	Match    ProductMatch
	USD      PricePoint
	Target   PricePoint // converted and rounded
	Currency string
}
