package testutil

import (
	"fmt"
	"math/rand"
	"time"

	"github.com/guarzo/swuprice/internal/model"
	"github.com/shopspring/decimal"
)

// TestDataFactory provides methods for generating dynamic test data
type TestDataFactory struct {
	rand *rand.Rand
}

// NewTestDataFactory creates a new test data factory with a seeded random generator
func NewTestDataFactory(seed int64) *TestDataFactory {
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	return &TestDataFactory{
		rand: rand.New(rand.NewSource(seed)),
	}
}

// GenerateTestCardName generates a unique-looking card name
func (f *TestDataFactory) GenerateTestCardName() string {
	titles := []string{"Test Vader", "Test Leia", "Test Fett", "Test Thrawn", "Test Bazine"}
	subtitles := []string{"", "Spy for the First Order", "Any Methods Necessary", "Fearless"}
	name := fmt.Sprintf("%s %d", titles[f.rand.Intn(len(titles))], f.rand.Intn(100000))
	if s := subtitles[f.rand.Intn(len(subtitles))]; s != "" {
		name += " - " + s
	}
	return name
}

// GenerateTestRarity generates a random catalog rarity
func (f *TestDataFactory) GenerateTestRarity() string {
	rarities := []string{model.RarityCommon, model.RarityUncommon, model.RarityRare, model.RarityLegendary}
	return rarities[f.rand.Intn(len(rarities))]
}

// GenerateTestPrice generates a USD price between $0.05 and $150.00
func (f *TestDataFactory) GenerateTestPrice() decimal.Decimal {
	return decimal.New(int64(f.rand.Intn(15000)+5), -2)
}

// GenerateSetPair generates n base cards, each followed by its hyperspace sibling,
// numbered the way the catalog numbers them (hyperspace variants after the base range).
func (f *TestDataFactory) GenerateSetPair(n int) []model.Card {
	cards := make([]model.Card, 0, n*2)
	for i := 0; i < n; i++ {
		base := model.Card{
			Number: i + 1,
			Name:   f.GenerateTestCardName(),
			Type:   "Unit",
			Rarity: f.GenerateTestRarity(),
		}
		hyper := base
		hyper.Number = n + i + 1
		hyper.Hyperspace = true
		cards = append(cards, base, hyper)
	}
	return cards
}

// GeneratePricedCard wraps a card with random USD prices and the given converted prices.
func (f *TestDataFactory) GeneratePricedCard(card model.Card, productID int) model.PricedCard {
	return model.PricedCard{
		Card:  card,
		Match: model.ProductMatch{ProductID: productID, ProductName: card.Name, Method: model.MatchMethodExact},
		USD: model.PricePoint{
			Normal: f.GenerateTestPrice(),
			Foil:   f.GenerateTestPrice(),
		},
		Currency: "AUD",
	}
}
