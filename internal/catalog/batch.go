package catalog

import (
	"errors"
	"regexp"
	"strings"

	"github.com/google/uuid"
	"github.com/guarzo/swuprice/internal/currency"
	"github.com/guarzo/swuprice/internal/model"
	"github.com/shopspring/decimal"
)

// MaxObjectsPerBatch is the Square batch-upsert limit. An item and its nested
// variations all count.
const MaxObjectsPerBatch = 1000

// ErrEmptyCatalog is returned when there is nothing to upsert.
var ErrEmptyCatalog = errors.New("no base cards to upsert")

// BatchUpsertRequest is the body of POST /v2/catalog/batch-upsert.
type BatchUpsertRequest struct {
	IdempotencyKey string  `json:"idempotency_key"`
	Batches        []Batch `json:"batches"`
}

type Batch struct {
	Objects []Object `json:"objects"`
}

type Object struct {
	Type                  string             `json:"type"`
	ID                    string             `json:"id"`
	PresentAtAllLocations bool               `json:"present_at_all_locations"`
	ItemData              *ItemData          `json:"item_data,omitempty"`
	ItemVariationData     *ItemVariationData `json:"item_variation_data,omitempty"`
}

type ItemData struct {
	Name        string     `json:"name"`
	Description string     `json:"description,omitempty"`
	CategoryID  string     `json:"category_id,omitempty"`
	Categories  []Category `json:"categories,omitempty"`
	Variations  []Object   `json:"variations"`
}

type Category struct {
	ID string `json:"id"`
}

type ItemVariationData struct {
	ItemID      string `json:"item_id"`
	Name        string `json:"name"`
	SKU         string `json:"sku,omitempty"`
	PricingType string `json:"pricing_type"`
	PriceMoney  Money  `json:"price_money"`
}

// Money is an amount in minor units.
type Money struct {
	Amount   int64  `json:"amount"`
	Currency string `json:"currency"`
}

// ObjectCount returns how many catalog objects the request carries.
func (r *BatchUpsertRequest) ObjectCount() int {
	n := 0
	for _, b := range r.Batches {
		for _, o := range b.Objects {
			n += objectWeight(o)
		}
	}
	return n
}

// Builder turns priced cards into a batch-upsert request.
type Builder struct {
	CategoryID     string
	Currency       string
	Corrections    map[string]string
	MaxBatch       int
	idempotencyKey func() string
}

func NewBuilder(categoryID, currencyCode string, corrections map[string]string) *Builder {
	return &Builder{
		CategoryID:     categoryID,
		Currency:       currencyCode,
		Corrections:    corrections,
		MaxBatch:       MaxObjectsPerBatch,
		idempotencyKey: uuid.NewString,
	}
}

var productIDStrip = regexp.MustCompile(`[^a-z0-9\s-]`)
var whitespace = regexp.MustCompile(`\s`)

// GenerateProductID derives the temporary catalog id for a card name: lowercase,
// drop everything but letters, digits, whitespace and hyphens, then turn each whitespace
// character into a hyphen. Runs of hyphens are kept.
func GenerateProductID(name string) string {
	id := productIDStrip.ReplaceAllString(strings.ToLower(name), "")
	return "#" + whitespace.ReplaceAllString(id, "-")
}

// Build pairs every base card with its hyperspace sibling and emits one item per base
// card. Hyperspace records never become items of their own. A base card without a
// sibling gets only the two regular variations and a warning.
func (b *Builder) Build(priced []model.PricedCard, warnings *model.Warnings) (*BatchUpsertRequest, error) {
	hyperspace := make(map[string]model.PricedCard)
	for _, pc := range priced {
		if !pc.Card.Hyperspace {
			continue
		}
		key := b.pairKey(pc.Card.Name)
		if _, dup := hyperspace[key]; !dup {
			hyperspace[key] = pc
		}
	}

	items := make([]Object, 0, len(priced))
	for _, pc := range priced {
		if pc.Card.Hyperspace {
			continue
		}

		sibling, ok := hyperspace[b.pairKey(pc.Card.Name)]
		var hyper *model.PricedCard
		if ok {
			hyper = &sibling
		} else {
			warnings.Add(model.WarnMissingHyperspace, pc.Card.Label(), "no hyperspace variant found, emitting regular variations only")
		}
		items = append(items, b.item(pc, hyper))
	}

	if len(items) == 0 {
		return nil, ErrEmptyCatalog
	}

	return &BatchUpsertRequest{
		IdempotencyKey: b.idempotencyKey(),
		Batches:        b.split(items),
	}, nil
}

// pairKey matches base and hyperspace names case-insensitively, after corrections.
func (b *Builder) pairKey(name string) string {
	if fixed, ok := b.Corrections[name]; ok {
		name = fixed
	}
	return strings.ToLower(strings.TrimSpace(name))
}

func (b *Builder) item(base model.PricedCard, hyper *model.PricedCard) Object {
	id := GenerateProductID(base.Card.Name)

	variations := []Object{
		b.variation(id, "regular-nonfoil", "Regular", base.Target.Normal),
		b.variation(id, "regular-foil", "Regular Foil", foilOrNormal(base.Target)),
	}
	if hyper != nil {
		variations = append(variations,
			b.variation(id, "hyperspace-nonfoil", "Hyperspace", hyper.Target.Normal),
			b.variation(id, "hyperspace-foil", "Hyperspace Foil", foilOrNormal(hyper.Target)),
		)
	}

	data := &ItemData{
		Name:       base.Card.Name,
		Variations: variations,
	}
	if b.CategoryID != "" {
		data.CategoryID = b.CategoryID
		data.Categories = []Category{{ID: b.CategoryID}}
	}

	return Object{
		Type:                  "ITEM",
		ID:                    id,
		PresentAtAllLocations: true,
		ItemData:              data,
	}
}

func (b *Builder) variation(itemID, suffix, name string, price decimal.Decimal) Object {
	return Object{
		Type:                  "ITEM_VARIATION",
		ID:                    itemID + "-" + suffix,
		PresentAtAllLocations: true,
		ItemVariationData: &ItemVariationData{
			ItemID:      itemID,
			Name:        name,
			PricingType: "FIXED_PRICING",
			PriceMoney: Money{
				Amount:   currency.MinorUnits(price),
				Currency: b.Currency,
			},
		},
	}
}

// foilOrNormal substitutes the normal price when no foil listing was found.
func foilOrNormal(p model.PricePoint) decimal.Decimal {
	if p.Foil.IsZero() {
		return p.Normal
	}
	return p.Foil
}

// split packs items into batches without splitting an item from its variations.
func (b *Builder) split(items []Object) []Batch {
	limit := b.MaxBatch
	if limit <= 0 {
		limit = MaxObjectsPerBatch
	}

	var batches []Batch
	var current Batch
	count := 0
	for _, item := range items {
		w := objectWeight(item)
		if count > 0 && count+w > limit {
			batches = append(batches, current)
			current = Batch{}
			count = 0
		}
		current.Objects = append(current.Objects, item)
		count += w
	}
	if len(current.Objects) > 0 {
		batches = append(batches, current)
	}
	return batches
}

func objectWeight(o Object) int {
	if o.ItemData == nil {
		return 1
	}
	return 1 + len(o.ItemData.Variations)
}
