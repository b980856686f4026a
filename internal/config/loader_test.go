package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/chorus-dev/chorus/internal/core"
)

// chdirTemp switches to a fresh temp directory for the duration of the test,
// mirroring t.Chdir from newer Go versions.
func chdirTemp(t *testing.T) {
	t.Helper()
	wd, err := os.Getwd()
	if err != nil {
		t.Fatal(err)
	}
	if err := os.Chdir(t.TempDir()); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = os.Chdir(wd) })
}

func TestLoader_Defaults(t *testing.T) {
	chdirTemp(t)

	cfg, err := NewLoader().Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Log.Level != "info" {
		t.Errorf("Log.Level = %q, want %q", cfg.Log.Level, "info")
	}
	if cfg.Log.Format != "auto" {
		t.Errorf("Log.Format = %q, want %q", cfg.Log.Format, "auto")
	}
	if cfg.Provider.BaseURL != "https://openrouter.ai/api/v1" {
		t.Errorf("Provider.BaseURL = %q", cfg.Provider.BaseURL)
	}
	if cfg.Provider.HTTPTimeout != 120*time.Second {
		t.Errorf("Provider.HTTPTimeout = %v, want 120s", cfg.Provider.HTTPTimeout)
	}
	if cfg.Budget.MaxTokens != 8000 {
		t.Errorf("Budget.MaxTokens = %d, want 8000", cfg.Budget.MaxTokens)
	}
	if cfg.Budget.MaxWallTime != 5*time.Minute {
		t.Errorf("Budget.MaxWallTime = %v, want 5m", cfg.Budget.MaxWallTime)
	}
	if cfg.Session.MaxPhaseRounds != 3 {
		t.Errorf("Session.MaxPhaseRounds = %d, want 3", cfg.Session.MaxPhaseRounds)
	}
	if cfg.Session.SimilarityThreshold != 0.9 {
		t.Errorf("Session.SimilarityThreshold = %f, want 0.9", cfg.Session.SimilarityThreshold)
	}
	if len(cfg.Voices) != 0 {
		t.Errorf("no voices expected by default, got %d", len(cfg.Voices))
	}
}

func TestLoader_EnvOverride(t *testing.T) {
	chdirTemp(t)
	t.Setenv("CHORUS_LOG_LEVEL", "debug")
	t.Setenv("CHORUS_BUDGET_MAX_TOKENS", "123")

	cfg, err := NewLoader().Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Log.Level != "debug" {
		t.Errorf("env override ignored: Log.Level = %q", cfg.Log.Level)
	}
	if cfg.Budget.MaxTokens != 123 {
		t.Errorf("env override ignored: Budget.MaxTokens = %d", cfg.Budget.MaxTokens)
	}
}

func TestLoader_ConfigFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, ".chorus.yaml")
	content := []byte(`
log:
  level: warn
voices:
  - id: fast
    model: test/model-fast
    max_tokens: 400
    call_timeout: 30s
  - model: test/model-deep
    role: "You dig into details."
budget:
  max_tokens: 2000
  max_iterations: 6
`)
	if err := os.WriteFile(path, content, 0o600); err != nil {
		t.Fatalf("writing config: %v", err)
	}

	cfg, err := NewLoader().WithConfigFile(path).Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Log.Level != "warn" {
		t.Errorf("Log.Level = %q, want warn", cfg.Log.Level)
	}
	if len(cfg.Voices) != 2 {
		t.Fatalf("expected 2 voices, got %d", len(cfg.Voices))
	}
	if cfg.Voices[0].CallTimeout != 30*time.Second {
		t.Errorf("Voices[0].CallTimeout = %v, want 30s", cfg.Voices[0].CallTimeout)
	}
	if cfg.Budget.MaxIterations != 6 {
		t.Errorf("Budget.MaxIterations = %d, want 6", cfg.Budget.MaxIterations)
	}

	descs := cfg.Descriptors()
	if descs[0].ID != "fast" || descs[0].MaxTokens != 400 {
		t.Errorf("unexpected first descriptor: %+v", descs[0])
	}
	// ID defaults to the model name after normalization.
	if descs[1].ID != core.VoiceID("test/model-deep") {
		t.Errorf("unexpected second descriptor id: %v", descs[1].ID)
	}
	if descs[1].MaxTokens != core.DefaultMaxCallTokens {
		t.Errorf("unfilled ceiling must normalize to default, got %d", descs[1].MaxTokens)
	}
}

func TestValidate(t *testing.T) {
	valid := &Config{
		Log:     LogConfig{Level: "info", Format: "json"},
		Voices:  []VoiceConfig{{Model: "test/model-a"}},
		Session: SessionConfig{Temperature: 0.7, SimilarityThreshold: 0.9, PressureShare: 0.7},
	}
	if err := Validate(valid); err != nil {
		t.Fatalf("valid config rejected: %v", err)
	}

	cases := []struct {
		name   string
		mutate func(*Config)
	}{
		{"bad log level", func(c *Config) { c.Log.Level = "verbose" }},
		{"bad log format", func(c *Config) { c.Log.Format = "xml" }},
		{"voice without model", func(c *Config) { c.Voices = []VoiceConfig{{ID: "x"}} }},
		{"duplicate voice ids", func(c *Config) {
			c.Voices = []VoiceConfig{{ID: "a", Model: "m1"}, {ID: "a", Model: "m2"}}
		}},
		{"negative budget", func(c *Config) { c.Budget.MaxTokens = -1 }},
		{"temperature out of range", func(c *Config) { c.Session.Temperature = 3 }},
		{"threshold out of range", func(c *Config) { c.Session.SimilarityThreshold = 1.5 }},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := *valid
			tc.mutate(&cfg)
			err := Validate(&cfg)
			if !core.IsCategory(err, core.ErrCatValidation) {
				t.Fatalf("expected validation error, got %v", err)
			}
		})
	}
}

func TestAtomicWrite(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "report.md")

	if err := AtomicWrite(path, []byte("first")); err != nil {
		t.Fatalf("AtomicWrite: %v", err)
	}
	if err := AtomicWrite(path, []byte("second")); err != nil {
		t.Fatalf("AtomicWrite overwrite: %v", err)
	}

	got, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("reading back: %v", err)
	}
	if string(got) != "second" {
		t.Fatalf("unexpected content: %q", got)
	}
}
