package app

import (
	"os"
	"time"

	"github.com/cristalhq/aconfig"
	"github.com/cristalhq/aconfig/aconfigyaml"
	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"
)

// Config holds the complete application configuration, loadable from
// environment variables (VENDORA_ prefix), flags, or YAML config files.
type Config struct {
	Addr        string `default:"0.0.0.0:8080" usage:"API server listen address"`
	DatabaseURL string `usage:"PostgreSQL connection URL (VENDORA_DATABASE_URL or DATABASE_URL)" flag:"database-url"`

	// TaxRate is the flat tax rate applied to the discounted subtotal,
	// e.g. "0.08" for 8%.
	TaxRate string `default:"0" usage:"Flat tax rate applied at pricing (e.g. 0.08)" flag:"tax-rate"`

	ReturnWindow time.Duration `default:"720h" usage:"Window after delivery during which returns are accepted" flag:"return-window"`

	Cart      CartConfig
	RateLimit RateLimitConfig
	CORS      CORSConfig
	Graceful  GracefulConfig
}

// CartConfig controls cart lifetime and the background sweeper.
type CartConfig struct {
	TTL           time.Duration `default:"168h" usage:"Cart expiry after last activity"`
	AbandonAfter  time.Duration `default:"24h"  usage:"Inactivity before an active cart is marked abandoned" flag:"abandon-after"`
	SweepInterval time.Duration `default:"15m"  usage:"Interval between cart sweeper passes" flag:"sweep-interval"`
}

// RateLimitConfig controls the per-client sliding window rate limiter.
type RateLimitConfig struct {
	Max    int           `default:"100" usage:"Max requests per window"`
	Window time.Duration `default:"1m"  usage:"Rate limit window duration"`
}

// CORSConfig controls Cross-Origin Resource Sharing headers.
type CORSConfig struct {
	Origins          []string `default:"*" usage:"Allowed CORS origins"`
	AllowCredentials bool     `default:"false" usage:"Allow credentials (cookies, auth headers)" flag:"cors-credentials"`
}

// GracefulConfig controls graceful shutdown timing.
type GracefulConfig struct {
	ReadinessDelay  time.Duration `default:"3s"  usage:"Delay after readiness=false before shutdown" flag:"readiness-delay"`
	ShutdownTimeout time.Duration `default:"15s" usage:"Maximum shutdown duration" flag:"shutdown-timeout"`
}

// LoadConfig loads configuration from environment variables, YAML config files,
// and applies platform-specific defaults.
func LoadConfig() (*Config, error) {
	var cfg Config
	loader := aconfig.LoaderFor(&cfg, aconfig.Config{
		EnvPrefix: "VENDORA",
		Files:     []string{"config.yaml", "/etc/vendora/config.yaml"},
		FileDecoders: map[string]aconfig.FileDecoder{
			".yaml": aconfigyaml.New(),
		},
	})
	if err := loader.Load(); err != nil {
		return nil, errors.Wrap(err, "load config")
	}
	cfg.applyPlatformDefaults()

	if cfg.DatabaseURL == "" {
		return nil, errors.New("database URL is required: set VENDORA_DATABASE_URL or DATABASE_URL")
	}
	if _, err := decimal.NewFromString(cfg.TaxRate); err != nil {
		return nil, errors.Wrapf(err, "invalid tax rate %q", cfg.TaxRate)
	}

	return &cfg, nil
}

// taxRate returns the parsed tax rate. LoadConfig already validated it.
func (c *Config) taxRate() decimal.Decimal {
	d, _ := decimal.NewFromString(c.TaxRate)
	return d
}

// applyPlatformDefaults maps platform-provided environment variables (Railway,
// Render, etc.) that use standard names like DATABASE_URL and PORT to the
// application's VENDORA_-prefixed configuration.
func (c *Config) applyPlatformDefaults() {
	if c.DatabaseURL == "" {
		if v := os.Getenv("DATABASE_URL"); v != "" {
			c.DatabaseURL = v
		}
	}
	if port := os.Getenv("PORT"); port != "" && c.Addr == "0.0.0.0:8080" {
		c.Addr = "0.0.0.0:" + port
	}
}
