package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// ---------------------------------------------------------------------------
// Configuration structs
// ---------------------------------------------------------------------------

// Config is the top-level configuration for filingscan.
type Config struct {
	EDGAR      EDGAR      `yaml:"edgar"`
	Filter     Filter     `yaml:"filter"`
	Summarizer Summarizer `yaml:"summarizer"`
	MarketData MarketData `yaml:"market_data"`
	Output     Output     `yaml:"output"`
	Pipeline   Pipeline   `yaml:"pipeline"`
	Schedule   Schedule   `yaml:"schedule"`
	Logging    Logging    `yaml:"logging"`
}

// EDGAR holds endpoints and politeness settings for sec.gov.
type EDGAR struct {
	BaseURL         string        `yaml:"base_url"`
	TickersURL      string        `yaml:"tickers_url"`
	UserAgent       string        `yaml:"user_agent"`
	RequestInterval time.Duration `yaml:"request_interval"`
	Timeout         time.Duration `yaml:"timeout"`
}

// Filter selects which filings are scanned and what counts as a match.
// Explicit FormTypes or Keywords override the corresponding preset list.
type Filter struct {
	Preset    string   `yaml:"preset"`
	FormTypes []string `yaml:"form_types"`
	Keywords  []string `yaml:"keywords"`
}

// Summarizer configures the text-generation service.
type Summarizer struct {
	Provider    string        `yaml:"provider"`
	Model       string        `yaml:"model"`
	APIKey      string        `yaml:"api_key"`
	BaseURL     string        `yaml:"base_url"`
	MaxChars    int           `yaml:"max_chars"`
	MaxTokens   int           `yaml:"max_tokens"`
	Temperature float64       `yaml:"temperature"`
	Timeout     time.Duration `yaml:"timeout"`
	Instruction string        `yaml:"instruction"`
}

// MarketData configures the daily price and company profile providers.
type MarketData struct {
	Provider        string `yaml:"provider"`
	APIKey          string `yaml:"api_key"`
	APISecret       string `yaml:"api_secret"`
	DataURL         string `yaml:"data_url"`
	Feed            string `yaml:"feed"`
	RateLimitPerMin int    `yaml:"rate_limit_per_min"`
	ProfileProvider string `yaml:"profile_provider"`
}

// Output describes where and in which shape results are persisted.
type Output struct {
	Path   string `yaml:"path"`
	Schema string `yaml:"schema"`
}

// Pipeline holds orchestration parameters.
type Pipeline struct {
	LookbackDays int           `yaml:"lookback_days"`
	RetryDelay   time.Duration `yaml:"retry_delay"`
	Workers      int           `yaml:"workers"`
	Resume       bool          `yaml:"resume"`
}

// Schedule configures watch mode.
type Schedule struct {
	Cron string `yaml:"cron"`
}

// Logging configures the application logger.
type Logging struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
	File   string `yaml:"file"`
}

// ---------------------------------------------------------------------------
// Defaults
// ---------------------------------------------------------------------------

// Provider and schema names accepted by Validate.
const (
	ProviderOpenAI    = "openai"
	ProviderAnthropic = "anthropic"
	ProviderGemini    = "gemini"
	ProviderNone      = "none"

	MarketAlpaca = "alpaca"
	MarketYahoo  = "yahoo"

	SchemaFull  = "full"
	SchemaBasic = "basic"
)

// DefaultInstruction is the system instruction sent with every summary
// request unless the config overrides it.
const DefaultInstruction = "You are a financial research assistant. " +
	"Provide a concise 2-3 sentence summary of this SEC filing, " +
	"focusing on key facts and catalysts behind the filing. " +
	"Do NOT include your own interpretation or commentary."

// Default returns a Config populated with the built-in defaults.
func Default() *Config {
	return &Config{
		EDGAR: EDGAR{
			BaseURL:         "https://www.sec.gov",
			TickersURL:      "https://www.sec.gov/files/company_tickers.json",
			RequestInterval: 200 * time.Millisecond,
			Timeout:         30 * time.Second,
		},
		Filter: Filter{Preset: DefaultPreset},
		Summarizer: Summarizer{
			Provider:    ProviderOpenAI,
			Model:       "gpt-4.1",
			MaxChars:    4000,
			MaxTokens:   200,
			Temperature: 0,
			Timeout:     60 * time.Second,
			Instruction: DefaultInstruction,
		},
		MarketData: MarketData{
			Provider:        MarketYahoo,
			Feed:            "iex",
			RateLimitPerMin: 120,
			ProfileProvider: MarketYahoo,
		},
		Output: Output{
			Path:   "sec_filings_enriched.csv",
			Schema: SchemaFull,
		},
		Pipeline: Pipeline{
			LookbackDays: 7,
			RetryDelay:   0,
			Workers:      1,
		},
		Schedule: Schedule{Cron: "30 6 * * 1-5"},
		Logging:  Logging{Level: "info", Format: "json"},
	}
}

// ---------------------------------------------------------------------------
// Loading
// ---------------------------------------------------------------------------

// Load reads the YAML configuration file at the given path on top of the
// defaults and then applies environment variable overrides. A missing file
// is not an error; the defaults are used.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case errors.Is(err, os.ErrNotExist):
		case err != nil:
			return nil, err
		default:
			if err := yaml.Unmarshal(data, cfg); err != nil {
				return nil, fmt.Errorf("parsing %s: %w", path, err)
			}
		}
	}

	applyEnvOverrides(cfg)

	return cfg, nil
}

// applyEnvOverrides checks well-known environment variables and overrides the
// corresponding configuration fields when they are set.
func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("EDGAR_USER_AGENT"); v != "" {
		cfg.EDGAR.UserAgent = v
	}

	// The summarizer key follows the configured provider.
	switch cfg.Summarizer.Provider {
	case ProviderOpenAI:
		if v := os.Getenv("OPENAI_API_KEY"); v != "" {
			cfg.Summarizer.APIKey = v
		}
	case ProviderAnthropic:
		if v := os.Getenv("ANTHROPIC_API_KEY"); v != "" {
			cfg.Summarizer.APIKey = v
		}
	case ProviderGemini:
		if v := os.Getenv("GEMINI_API_KEY"); v != "" {
			cfg.Summarizer.APIKey = v
		}
	}

	// Standard Alpaca env vars.
	if v := os.Getenv("APCA_API_KEY_ID"); v != "" {
		cfg.MarketData.APIKey = v
	}
	if v := os.Getenv("APCA_API_SECRET_KEY"); v != "" {
		cfg.MarketData.APISecret = v
	}

	if v := os.Getenv("LOG_LEVEL"); v != "" {
		cfg.Logging.Level = v
	}

	if v := os.Getenv("FILINGSCAN_OUTPUT"); v != "" {
		cfg.Output.Path = v
	}
}

// ---------------------------------------------------------------------------
// Validation
// ---------------------------------------------------------------------------

// Validate reports configuration errors that would make a run misbehave
// against sec.gov or fail late.
func (c *Config) Validate() error {
	var errs []error

	if !hasContact(c.EDGAR.UserAgent) {
		errs = append(errs, fmt.Errorf("edgar.user_agent %q must identify the requester with a contact (e.g. \"Name you@example.com\")", c.EDGAR.UserAgent))
	}

	switch c.Summarizer.Provider {
	case ProviderOpenAI, ProviderAnthropic, ProviderGemini, ProviderNone:
	default:
		errs = append(errs, fmt.Errorf("unknown summarizer.provider %q", c.Summarizer.Provider))
	}

	switch c.MarketData.Provider {
	case MarketAlpaca, MarketYahoo, ProviderNone:
	default:
		errs = append(errs, fmt.Errorf("unknown market_data.provider %q", c.MarketData.Provider))
	}

	switch c.MarketData.ProfileProvider {
	case MarketYahoo, ProviderNone:
	default:
		errs = append(errs, fmt.Errorf("unknown market_data.profile_provider %q", c.MarketData.ProfileProvider))
	}

	switch c.Output.Schema {
	case SchemaFull, SchemaBasic:
	default:
		errs = append(errs, fmt.Errorf("unknown output.schema %q", c.Output.Schema))
	}

	if _, ok := Presets[c.Filter.Preset]; !ok && c.Filter.Preset != "" {
		errs = append(errs, fmt.Errorf("unknown filter.preset %q", c.Filter.Preset))
	}

	if c.Pipeline.LookbackDays <= 0 {
		errs = append(errs, errors.New("pipeline.lookback_days must be positive"))
	}
	if c.Pipeline.Workers <= 0 {
		errs = append(errs, errors.New("pipeline.workers must be positive"))
	}
	if c.Summarizer.MaxChars <= 0 {
		errs = append(errs, errors.New("summarizer.max_chars must be positive"))
	}

	return errors.Join(errs...)
}

// hasContact reports whether a user agent carries something a server
// operator could reach: an email address or a URL.
func hasContact(ua string) bool {
	for _, field := range strings.Fields(ua) {
		if at := strings.IndexByte(field, '@'); at > 0 && at < len(field)-1 {
			return true
		}
		if strings.HasPrefix(field, "http://") || strings.HasPrefix(field, "https://") {
			return true
		}
	}
	return false
}
