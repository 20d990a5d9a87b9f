package config

import (
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const (
	DefaultSetID       = 8
	DefaultSetName     = "Shadows of the Galaxy"
	DefaultCurrency    = "AUD"
	DefaultReportPath  = "./card-list.json"
	DefaultBatchPath   = "./catalog-batch.json"
	DefaultCorrections = "corrections.toml"

	envPrefix = "SWUPRICE"
)

// Config holds run settings. Values come from defaults, then .env, then the
// environment (SWUPRICE_*); command-line flags are applied on top by the CLI.
type Config struct {
	SetID           int
	SetName         string
	Currency        string
	CategoryID      string
	ReportPath      string
	BatchPath       string
	CorrectionsPath string

	CatalogURL string
	SearchURL  string
	PriceURL   string
	RatesURL   string

	RateLimit float64
	DelayUnit time.Duration
	Quiet     bool
}

// Load reads configuration from environment variables and a .env file if present.
func Load() (*Config, error) {
	// Attempt to load .env file, ignore error if it doesn't exist
	_ = godotenv.Load()

	v := viper.New()
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))

	v.SetDefault("set_id", DefaultSetID)
	v.SetDefault("set_name", DefaultSetName)
	v.SetDefault("currency", DefaultCurrency)
	v.SetDefault("category_id", "")
	v.SetDefault("report_path", DefaultReportPath)
	v.SetDefault("batch_path", DefaultBatchPath)
	v.SetDefault("corrections_path", DefaultCorrections)
	v.SetDefault("catalog_url", "")
	v.SetDefault("search_url", "")
	v.SetDefault("price_url", "")
	v.SetDefault("rates_url", "")
	v.SetDefault("rate_limit", 0)
	v.SetDefault("delay_unit", "10ms")
	v.SetDefault("quiet", false)

	v.AutomaticEnv()

	cfg := &Config{
		SetID:           v.GetInt("set_id"),
		SetName:         v.GetString("set_name"),
		Currency:        strings.ToUpper(v.GetString("currency")),
		CategoryID:      v.GetString("category_id"),
		ReportPath:      v.GetString("report_path"),
		BatchPath:       v.GetString("batch_path"),
		CorrectionsPath: v.GetString("corrections_path"),
		CatalogURL:      v.GetString("catalog_url"),
		SearchURL:       v.GetString("search_url"),
		PriceURL:        v.GetString("price_url"),
		RatesURL:        v.GetString("rates_url"),
		RateLimit:       v.GetFloat64("rate_limit"),
		Quiet:           v.GetBool("quiet"),
	}

	delayStr := v.GetString("delay_unit")
	delay, err := time.ParseDuration(delayStr)
	if err != nil {
		return nil, fmt.Errorf("invalid %s_DELAY_UNIT %q: %w", envPrefix, delayStr, err)
	}
	cfg.DelayUnit = delay

	if cfg.CategoryID == "" {
		log.Printf("Config: %s_CATEGORY_ID not set, batch items will carry no category", envPrefix)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks values that would otherwise fail deep inside a run.
func (c *Config) Validate() error {
	if c.SetID <= 0 {
		return fmt.Errorf("set id must be positive, got %d", c.SetID)
	}
	if strings.TrimSpace(c.SetName) == "" {
		return fmt.Errorf("set name is required")
	}
	if len(c.Currency) != 3 {
		return fmt.Errorf("currency must be a 3-letter ISO code, got %q", c.Currency)
	}
	if c.RateLimit < 0 {
		return fmt.Errorf("rate limit must not be negative")
	}
	if c.DelayUnit < 0 {
		return fmt.Errorf("delay unit must not be negative")
	}
	return nil
}
