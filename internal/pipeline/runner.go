package pipeline

import (
	"context"
	"fmt"
	"log"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/guarzo/swuprice/internal/cards"
	"github.com/guarzo/swuprice/internal/catalog"
	"github.com/guarzo/swuprice/internal/currency"
	"github.com/guarzo/swuprice/internal/httpx"
	"github.com/guarzo/swuprice/internal/marketplace"
	"github.com/guarzo/swuprice/internal/metrics"
	"github.com/guarzo/swuprice/internal/model"
	"github.com/guarzo/swuprice/internal/progress"
	"github.com/guarzo/swuprice/internal/report"
)

// Mode selects which output a run assembles.
type Mode string

const (
	ModeReport Mode = "report"
	ModeBatch  Mode = "batch"
)

// DefaultDelayUnit is multiplied by a card's number to stagger its first request.
const DefaultDelayUnit = 10 * time.Millisecond

// Config holds everything a run needs. Empty URLs fall back to the public endpoints.
type Config struct {
	Set         model.Set
	Currency    string
	CategoryID  string
	Corrections map[string]string

	CatalogURL string
	SearchURL  string
	PriceURL   string
	RatesURL   string

	RateLimit float64 // requests per second, 0 = unlimited
	DelayUnit time.Duration // zero disables the per-card stagger
	Quiet     bool
}

// Result is the outcome of one run. Report is set in report mode, Batch in batch mode.
type Result struct {
	Mode     Mode
	Priced   []model.PricedCard
	Report   []model.PricedCard
	Batch    *catalog.BatchUpsertRequest
	Warnings []model.Warning
	Duration time.Duration
}

// CardLister lists every card of an expansion.
type CardLister interface {
	CardsBySetID(ctx context.Context, setID int) ([]model.Card, error)
}

// Runner executes catalog -> resolve -> price -> convert -> build. Each Run gets fresh
// collaborators, so search results and the exchange rate are reused within a run only.
type Runner struct {
	cfg     Config
	metrics *metrics.Registry
}

// NewRunner creates a runner. reg may be nil.
func NewRunner(cfg Config, reg *metrics.Registry) *Runner {
	if cfg.DelayUnit < 0 {
		cfg.DelayUnit = 0
	}
	return &Runner{cfg: cfg, metrics: reg}
}

// run bundles the collaborators of a single Run.
type run struct {
	cards     CardLister
	resolver  marketplace.ProductResolver
	prices    marketplace.PriceFetcher
	converter *currency.Converter
	warnings  *model.Warnings
}

func (r *Runner) newRun() *run {
	warnings := model.NewWarnings()
	warnings.Quiet(r.cfg.Quiet)

	opts := []httpx.Option{httpx.WithRateLimit(r.cfg.RateLimit, 1)}
	if r.metrics != nil {
		warnings.OnAdd(r.metrics.ObserveWarning)
		opts = append(opts, httpx.WithObserver(r.metrics.ObserveRequest))
	}
	client := httpx.NewClient(opts...)

	catalogOpts := []cards.Option{cards.WithQuiet(r.cfg.Quiet)}
	if r.cfg.CatalogURL != "" {
		catalogOpts = append(catalogOpts, cards.WithBaseURL(r.cfg.CatalogURL))
	}
	resolverOpts := []marketplace.ResolverOption{
		marketplace.WithCorrections(r.cfg.Corrections),
		marketplace.WithResolverWarnings(warnings),
	}
	if r.cfg.SearchURL != "" {
		resolverOpts = append(resolverOpts, marketplace.WithSearchBaseURL(r.cfg.SearchURL))
	}
	priceOpts := []marketplace.PriceOption{marketplace.WithPriceWarnings(warnings)}
	if r.cfg.PriceURL != "" {
		priceOpts = append(priceOpts, marketplace.WithPriceBaseURL(r.cfg.PriceURL))
	}

	return &run{
		cards:     cards.NewCatalog(client, catalogOpts...),
		resolver:  marketplace.NewResolver(client, r.cfg.Set.Name, resolverOpts...),
		prices:    marketplace.NewPriceClient(client, priceOpts...),
		converter: currency.NewConverter(r.cfg.Currency, currency.NewOpenERAPI(client, r.cfg.RatesURL)),
		warnings:  warnings,
	}
}

// Run lists the set, prices every card concurrently and assembles the output for mode.
// The first hard error cancels the remaining cards and fails the run.
func (r *Runner) Run(ctx context.Context, mode Mode) (*Result, error) {
	if mode != ModeReport && mode != ModeBatch {
		return nil, fmt.Errorf("unknown mode %q", mode)
	}
	start := time.Now()
	rn := r.newRun()

	list, err := rn.cards.CardsBySetID(ctx, r.cfg.Set.ID)
	if err != nil {
		return nil, err
	}
	log.Printf("Pipeline: %d cards in set %d (%s), mode %s", len(list), r.cfg.Set.ID, r.cfg.Set.Name, mode)

	priced, err := r.priceAll(ctx, rn, list, mode)
	if err != nil {
		return nil, err
	}

	res := &Result{Mode: mode, Priced: priced}
	switch mode {
	case ModeReport:
		res.Report = report.BuildPriceReport(priced)
	case ModeBatch:
		b := catalog.NewBuilder(r.cfg.CategoryID, rn.converter.Target(), r.cfg.Corrections)
		if res.Batch, err = b.Build(priced, rn.warnings); err != nil {
			return nil, err
		}
	}
	res.Warnings = rn.warnings.Items()
	res.Duration = time.Since(start)

	log.Printf("Pipeline: finished %d cards in %s with %d warnings", len(priced), res.Duration.Round(time.Millisecond), len(res.Warnings))
	return res, nil
}

// priceAll fans out one goroutine per card and collects results by catalog position.
func (r *Runner) priceAll(ctx context.Context, rn *run, list []model.Card, mode Mode) ([]model.PricedCard, error) {
	priced := make([]model.PricedCard, len(list))
	bar := progress.WithTotal("Pricing cards", len(list), r.cfg.Quiet)
	bar.Start()

	g, gctx := errgroup.WithContext(ctx)
	for i, card := range list {
		g.Go(func() error {
			pc, err := r.priceCard(gctx, rn, card, mode)
			if err != nil {
				return fmt.Errorf("%s: %w", card.Label(), err)
			}
			priced[i] = pc
			bar.Increment()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		bar.FinishWithError(err)
		return nil, err
	}
	bar.Finish()
	return priced, nil
}

func (r *Runner) priceCard(ctx context.Context, rn *run, card model.Card, mode Mode) (model.PricedCard, error) {
	pc := model.PricedCard{
		Card:     card,
		Match:    model.ProductMatch{Method: model.MatchMethodNone},
		Currency: rn.converter.Target(),
	}

	// The report drops everything below Rare, so those cards are never looked up.
	if mode == ModeReport && !report.Reportable(card.Rarity) {
		return pc, nil
	}

	if err := sleep(ctx, time.Duration(card.Number)*r.cfg.DelayUnit); err != nil {
		return pc, err
	}

	match, err := rn.resolver.ResolveProduct(ctx, card.Name, card.Hyperspace)
	if err != nil {
		return pc, err
	}
	pc.Match = match
	if !match.Found() {
		return pc, nil
	}

	usd, err := rn.prices.FetchPrice(ctx, match.ProductID)
	if err != nil {
		return pc, err
	}
	pc.USD = usd

	if pc.Target.Normal, err = rn.converter.ToTarget(ctx, usd.Normal); err != nil {
		return pc, err
	}
	if pc.Target.Foil, err = rn.converter.ToTarget(ctx, usd.Foil); err != nil {
		return pc, err
	}

	if r.metrics != nil {
		r.metrics.CardsPriced.Inc()
	}
	return pc, nil
}

func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
