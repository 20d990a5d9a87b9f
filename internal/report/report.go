package report

import (
	"sort"
	"strconv"

	"github.com/guarzo/swuprice/internal/currency"
	"github.com/guarzo/swuprice/internal/model"
)

// Reportable reports whether a rarity belongs in the price report.
func Reportable(rarity string) bool {
	return rarity == model.RarityRare || rarity == model.RarityLegendary
}

// BuildPriceReport keeps Rare and Legendary cards, most valuable first by USD
// normal price. Ties keep catalog order.
func BuildPriceReport(priced []model.PricedCard) []model.PricedCard {
	out := make([]model.PricedCard, 0, len(priced))
	for _, pc := range priced {
		if Reportable(pc.Card.Rarity) {
			out = append(out, pc)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].USD.Normal.GreaterThan(out[j].USD.Normal)
	})
	return out
}

// Row is one line of the price report.
type Row struct {
	CardNumber           int    `json:"cardNumber"`
	CardName             string `json:"cardName"`
	CardType             string `json:"cardType"`
	IsHyperspace         bool   `json:"isHyperspace"`
	IsShowcase           bool   `json:"isShowcase"`
	Rarity               string `json:"rarity"`
	TCGPlayerID          int    `json:"tcgPlayerId,omitempty"`
	MarketPriceUSD       string `json:"marketPriceUsd"`
	FoilPriceUSD         string `json:"foilPriceUsd"`
	Currency             string `json:"currency"`
	MarketPriceConverted string `json:"marketPriceConverted"`
	FoilPriceConverted   string `json:"foilPriceConverted"`
}

// ToRows flattens priced cards into report rows, preserving order.
func ToRows(priced []model.PricedCard) []Row {
	rows := make([]Row, 0, len(priced))
	for _, pc := range priced {
		rows = append(rows, Row{
			CardNumber:           pc.Card.Number,
			CardName:             pc.Card.Name,
			CardType:             pc.Card.Type,
			IsHyperspace:         pc.Card.Hyperspace,
			IsShowcase:           pc.Card.Showcase,
			Rarity:               pc.Card.Rarity,
			TCGPlayerID:          pc.Match.ProductID,
			MarketPriceUSD:       currency.Format(pc.USD.Normal),
			FoilPriceUSD:         currency.Format(pc.USD.Foil),
			Currency:             pc.Currency,
			MarketPriceConverted: currency.Format(pc.Target.Normal),
			FoilPriceConverted:   currency.Format(pc.Target.Foil),
		})
	}
	return rows
}

var csvHeader = []string{
	"cardNumber", "cardName", "cardType", "isHyperspace", "isShowcase", "rarity",
	"tcgPlayerId", "marketPriceUsd", "foilPriceUsd", "currency",
	"marketPriceConverted", "foilPriceConverted",
}

func (r Row) record() []string {
	id := ""
	if r.TCGPlayerID != 0 {
		id = strconv.Itoa(r.TCGPlayerID)
	}
	return []string{
		strconv.Itoa(r.CardNumber),
		r.CardName,
		r.CardType,
		strconv.FormatBool(r.IsHyperspace),
		strconv.FormatBool(r.IsShowcase),
		r.Rarity,
		id,
		r.MarketPriceUSD,
		r.FoilPriceUSD,
		r.Currency,
		r.MarketPriceConverted,
		r.FoilPriceConverted,
	}
}
