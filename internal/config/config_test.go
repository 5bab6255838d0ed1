package config

import (
	"os"
	"path/filepath"
	"slices"
	"strings"
	"testing"
	"time"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range []string{
		"EDGAR_USER_AGENT", "OPENAI_API_KEY", "ANTHROPIC_API_KEY", "GEMINI_API_KEY",
		"APCA_API_KEY_ID", "APCA_API_SECRET_KEY", "LOG_LEVEL", "FILINGSCAN_OUTPUT",
	} {
		t.Setenv(k, "")
	}
}

func TestLoadFile(t *testing.T) {
	clearEnv(t)

	yamlContent := []byte(`
edgar:
  user_agent: "Research Desk desk@example.com"
  request_interval: 500ms
filter:
  preset: legacy
summarizer:
  provider: anthropic
  model: claude-sonnet-4-5
  max_chars: 2000
market_data:
  provider: alpaca
  rate_limit_per_min: 60
output:
  path: out/results.parquet
  schema: basic
pipeline:
  workers: 4
  resume: true
logging:
  level: debug
  format: text
`)

	path := filepath.Join(t.TempDir(), "filingscan.yaml")
	if err := os.WriteFile(path, yamlContent, 0o644); err != nil {
		t.Fatalf("failed to write config: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() returned error: %v", err)
	}

	// -- EDGAR --
	if cfg.EDGAR.UserAgent != "Research Desk desk@example.com" {
		t.Errorf("EDGAR.UserAgent = %q", cfg.EDGAR.UserAgent)
	}
	if cfg.EDGAR.RequestInterval != 500*time.Millisecond {
		t.Errorf("EDGAR.RequestInterval = %v, want 500ms", cfg.EDGAR.RequestInterval)
	}
	// Fields absent from the file keep their defaults.
	if cfg.EDGAR.BaseURL != "https://www.sec.gov" {
		t.Errorf("EDGAR.BaseURL = %q, want default", cfg.EDGAR.BaseURL)
	}

	// -- Summarizer --
	if cfg.Summarizer.Provider != ProviderAnthropic {
		t.Errorf("Summarizer.Provider = %q", cfg.Summarizer.Provider)
	}
	if cfg.Summarizer.MaxChars != 2000 {
		t.Errorf("Summarizer.MaxChars = %d, want 2000", cfg.Summarizer.MaxChars)
	}
	if cfg.Summarizer.MaxTokens != 200 {
		t.Errorf("Summarizer.MaxTokens = %d, want default 200", cfg.Summarizer.MaxTokens)
	}

	// -- Output / Pipeline / Logging --
	if cfg.Output.Schema != SchemaBasic || cfg.Output.Path != "out/results.parquet" {
		t.Errorf("Output = %+v", cfg.Output)
	}
	if cfg.Pipeline.Workers != 4 || !cfg.Pipeline.Resume {
		t.Errorf("Pipeline = %+v", cfg.Pipeline)
	}
	if cfg.Pipeline.LookbackDays != 7 {
		t.Errorf("Pipeline.LookbackDays = %d, want 7", cfg.Pipeline.LookbackDays)
	}
	if cfg.Logging.Level != "debug" || cfg.Logging.Format != "text" {
		t.Errorf("Logging = %+v", cfg.Logging)
	}

	if err := cfg.Validate(); err != nil {
		t.Errorf("Validate() = %v", err)
	}
}

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	clearEnv(t)

	cfg, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	if err != nil {
		t.Fatalf("Load() returned error: %v", err)
	}
	if cfg.Summarizer.MaxChars != 4000 {
		t.Errorf("MaxChars = %d, want 4000", cfg.Summarizer.MaxChars)
	}
	if cfg.EDGAR.RequestInterval != 200*time.Millisecond {
		t.Errorf("RequestInterval = %v, want 200ms", cfg.EDGAR.RequestInterval)
	}
	if cfg.Filter.Preset != DefaultPreset {
		t.Errorf("Filter.Preset = %q", cfg.Filter.Preset)
	}
}

func TestLoadBadYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.yaml")
	if err := os.WriteFile(path, []byte("edgar: [unterminated"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := Load(path); err == nil {
		t.Fatal("expected parse error")
	}
}

func TestEnvOverrides(t *testing.T) {
	clearEnv(t)
	t.Setenv("EDGAR_USER_AGENT", "Env Bot env@example.com")
	t.Setenv("OPENAI_API_KEY", "sk-openai")
	t.Setenv("ANTHROPIC_API_KEY", "sk-anthropic")
	t.Setenv("APCA_API_KEY_ID", "apca-key")
	t.Setenv("APCA_API_SECRET_KEY", "apca-secret")
	t.Setenv("LOG_LEVEL", "warn")
	t.Setenv("FILINGSCAN_OUTPUT", "/tmp/out.db")

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load() returned error: %v", err)
	}

	if cfg.EDGAR.UserAgent != "Env Bot env@example.com" {
		t.Errorf("UserAgent = %q", cfg.EDGAR.UserAgent)
	}
	// Default provider is openai, so the anthropic key is ignored.
	if cfg.Summarizer.APIKey != "sk-openai" {
		t.Errorf("Summarizer.APIKey = %q, want sk-openai", cfg.Summarizer.APIKey)
	}
	if cfg.MarketData.APIKey != "apca-key" || cfg.MarketData.APISecret != "apca-secret" {
		t.Errorf("MarketData = %+v", cfg.MarketData)
	}
	if cfg.Logging.Level != "warn" {
		t.Errorf("Logging.Level = %q", cfg.Logging.Level)
	}
	if cfg.Output.Path != "/tmp/out.db" {
		t.Errorf("Output.Path = %q", cfg.Output.Path)
	}
}

func TestValidate(t *testing.T) {
	cfg := Default()
	cfg.EDGAR.UserAgent = "Jane Analyst jane@example.com"
	if err := cfg.Validate(); err != nil {
		t.Fatalf("Validate() on defaults = %v", err)
	}

	for _, ua := range []string{"", "python-requests/2.31", "Jane @", "MyBot https://example.com/contact"} {
		c := Default()
		c.EDGAR.UserAgent = ua
		err := c.Validate()
		wantErr := !strings.Contains(ua, "https://")
		if (err != nil) != wantErr {
			t.Errorf("Validate(ua=%q) err = %v, wantErr %v", ua, err, wantErr)
		}
	}

	bad := Default()
	bad.EDGAR.UserAgent = "ok ok@example.com"
	bad.Summarizer.Provider = "mystery"
	bad.Output.Schema = "wide"
	err := bad.Validate()
	if err == nil {
		t.Fatal("expected validation errors")
	}
	for _, want := range []string{"summarizer.provider", "output.schema"} {
		if !strings.Contains(err.Error(), want) {
			t.Errorf("Validate() error %q does not mention %s", err, want)
		}
	}
}

func TestPresets(t *testing.T) {
	names := PresetNames()
	if len(names) != 2 || names[0] != "legacy" || names[1] != "scraper" {
		t.Fatalf("PresetNames() = %v", names)
	}

	f := Filter{Preset: "scraper"}
	if got := f.EffectiveFormTypes(); len(got) != 5 || got[0] != "8-K" {
		t.Errorf("scraper form types = %v", got)
	}
	if got := f.EffectiveKeywords(); len(got) != 10 {
		t.Errorf("scraper keywords = %d, want 10", len(got))
	}

	f.Keywords = []string{"tender offer"}
	if got := f.EffectiveKeywords(); len(got) != 1 || got[0] != "tender offer" {
		t.Errorf("explicit keywords not honoured: %v", got)
	}

	legacy := Filter{Preset: "legacy"}
	if got := legacy.EffectiveFormTypes(); !slices.Contains(got, "S-1") || !slices.Contains(got, "S-3") || len(got) != 7 {
		t.Errorf("legacy form types = %v", got)
	}
	if !slices.Equal(legacy.EffectiveKeywords(), f.preset().Keywords) {
		t.Errorf("legacy keywords should match the scraper list, got %v", legacy.EffectiveKeywords())
	}

	unknown := Filter{Preset: "nope"}
	if got := unknown.EffectiveFormTypes(); len(got) != 5 {
		t.Errorf("unknown preset should fall back to default, got %v", got)
	}
}

func TestDefaultInstructionIsFactual(t *testing.T) {
	inst := strings.ToLower(Default().Summarizer.Instruction)
	for _, want := range []string{"2-3 sentence", "key facts", "catalysts", "do not include your own interpretation"} {
		if !strings.Contains(inst, want) {
			t.Errorf("default instruction %q missing %q", inst, want)
		}
	}
}
