package cli

import (
	"strings"

	"github.com/spf13/cobra"

	"github.com/guarzo/swuprice/internal/config"
	"github.com/guarzo/swuprice/internal/model"
	"github.com/guarzo/swuprice/internal/pipeline"
)

// globalFlags are shared by every subcommand. Zero values mean "not given"; only flags
// the user actually set override the loaded configuration.
type globalFlags struct {
	setID       int
	setName     string
	currency    string
	categoryID  string
	corrections string
	quiet       bool
}

// NewRootCmd builds the swuprice command tree.
func NewRootCmd() *cobra.Command {
	g := &globalFlags{}

	root := &cobra.Command{
		Use:   "swuprice",
		Short: "Price Star Wars: Unlimited sets from TCGplayer",
		Long: `swuprice lists every card of a Star Wars: Unlimited set, finds each printing on
TCGplayer, converts market prices to a local currency with a 10% markup and writes
either a price report or a Square catalog batch-upsert payload.

Settings are read from SWUPRICE_* environment variables (or a .env file) and can be
overridden with flags.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	pf := root.PersistentFlags()
	pf.IntVar(&g.setID, "set-id", 0, "catalog expansion id (default 8)")
	pf.StringVar(&g.setName, "set-name", "", `marketplace set name (default "Shadows of the Galaxy")`)
	pf.StringVar(&g.currency, "currency", "", "target currency ISO code (default AUD)")
	pf.StringVar(&g.categoryID, "category-id", "", "Square category id for batch items")
	pf.StringVar(&g.corrections, "corrections", "", "TOML file with name corrections (default corrections.toml)")
	pf.BoolVarP(&g.quiet, "quiet", "q", false, "suppress progress and per-warning logs")

	root.AddCommand(newReportCmd(g), newBatchCmd(g), newScheduleCmd(g))
	return root
}

// Execute runs the command tree with os.Args.
func Execute() error {
	return NewRootCmd().Execute()
}

// settings merges configuration with any flags the user set.
func (g *globalFlags) settings(cmd *cobra.Command) (*config.Config, config.Corrections, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, err
	}

	flags := cmd.Flags()
	if flags.Changed("set-id") {
		cfg.SetID = g.setID
	}
	if flags.Changed("set-name") {
		cfg.SetName = g.setName
	}
	if flags.Changed("currency") {
		cfg.Currency = strings.ToUpper(g.currency)
	}
	if flags.Changed("category-id") {
		cfg.CategoryID = g.categoryID
	}
	if flags.Changed("corrections") {
		cfg.CorrectionsPath = g.corrections
	}
	if flags.Changed("quiet") {
		cfg.Quiet = g.quiet
	}
	if err := cfg.Validate(); err != nil {
		return nil, nil, err
	}

	corrections, err := config.LoadCorrections(cfg.CorrectionsPath)
	if err != nil {
		return nil, nil, err
	}
	return cfg, corrections, nil
}

func pipelineConfig(cfg *config.Config, corrections config.Corrections) pipeline.Config {
	return pipeline.Config{
		Set:         model.Set{ID: cfg.SetID, Name: cfg.SetName},
		Currency:    cfg.Currency,
		CategoryID:  cfg.CategoryID,
		Corrections: corrections,
		CatalogURL:  cfg.CatalogURL,
		SearchURL:   cfg.SearchURL,
		PriceURL:    cfg.PriceURL,
		RatesURL:    cfg.RatesURL,
		RateLimit:   cfg.RateLimit,
		DelayUnit:   cfg.DelayUnit,
		Quiet:       cfg.Quiet,
	}
}
