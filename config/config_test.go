package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/aluiziolira/go-scrape-listings/models"
)

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{
			name: "empty sources file",
			mutate: func(cfg *Config) {
				cfg.SourcesFile = ""
			},
			wantErr: "sources file",
		},
		{
			name: "unknown output format",
			mutate: func(cfg *Config) {
				cfg.OutputFormat = "xml"
			},
			wantErr: "output format",
		},
		{
			name: "negative timeout",
			mutate: func(cfg *Config) {
				cfg.Timeout = -1 * time.Second
			},
			wantErr: "timeout",
		},
		{
			name: "zero max images",
			mutate: func(cfg *Config) {
				cfg.MaxImages = 0
			},
			wantErr: "max images",
		},
		{
			name: "no selectors",
			mutate: func(cfg *Config) {
				cfg.ImageSelectors = nil
			},
			wantErr: "image selectors",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(cfg)
			if err := cfg.Validate(); err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Fatalf("expected error containing %q, got %v", tt.wantErr, err)
			}
		})
	}
}

func TestDefaultConfigValid(t *testing.T) {
	cfg := DefaultConfig()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("default config should validate, got %v", err)
	}
	if cfg.Timeout != 15*time.Second {
		t.Fatalf("timeout = %v, want 15s", cfg.Timeout)
	}
	if cfg.MaxImages != 8 {
		t.Fatalf("max images = %d, want 8", cfg.MaxImages)
	}
}

func TestDefaultConfigSelectorsAreCopied(t *testing.T) {
	cfg := DefaultConfig()
	cfg.ImageSelectors[0] = "changed"
	if DefaultImageSelectors[0] == "changed" {
		t.Fatalf("default selectors were mutated through a config")
	}
}

func TestEnvHelpers(t *testing.T) {
	t.Setenv("TEST_SCRAPER_INT", "42")
	t.Setenv("TEST_SCRAPER_BAD_INT", "x")
	t.Setenv("TEST_SCRAPER_MS", "15000")
	t.Setenv("TEST_SCRAPER_DUR", "3s")
	t.Setenv("TEST_SCRAPER_BLANK", "   ")

	if v, ok, err := EnvInt("TEST_SCRAPER_INT"); err != nil || !ok || v != 42 {
		t.Fatalf("EnvInt = %d, %v, %v", v, ok, err)
	}
	if _, _, err := EnvInt("TEST_SCRAPER_BAD_INT"); err == nil {
		t.Fatalf("expected error for invalid int")
	}
	if v, ok, err := EnvDuration("TEST_SCRAPER_MS"); err != nil || !ok || v != 15*time.Second {
		t.Fatalf("EnvDuration(ms) = %v, %v, %v", v, ok, err)
	}
	if v, ok, err := EnvDuration("TEST_SCRAPER_DUR"); err != nil || !ok || v != 3*time.Second {
		t.Fatalf("EnvDuration = %v, %v, %v", v, ok, err)
	}
	if _, ok := EnvString("TEST_SCRAPER_BLANK"); ok {
		t.Fatalf("blank value should count as unset")
	}
}

func TestLoadDotEnv(t *testing.T) {
	dir := t.TempDir()
	if err := LoadDotEnv(filepath.Join(dir, "missing.env")); err != nil {
		t.Fatalf("missing .env should be ignored, got %v", err)
	}

	path := filepath.Join(dir, ".env")
	if err := os.WriteFile(path, []byte("TEST_SCRAPER_DOTENV=from-file\n"), 0o644); err != nil {
		t.Fatalf("write env: %v", err)
	}
	t.Setenv("TEST_SCRAPER_DOTENV", "")
	os.Unsetenv("TEST_SCRAPER_DOTENV")
	if err := LoadDotEnv(path); err != nil {
		t.Fatalf("load env: %v", err)
	}
	if got, _ := EnvString("TEST_SCRAPER_DOTENV"); got != "from-file" {
		t.Fatalf("env = %q, want from-file", got)
	}
}

func TestLoadSourcesJSON(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sources.json")
	body := `[
  {"name": "志賀", "url": "https://ex.com/1", "fallback": {"price": "5万円", "layout": "1K", "stove": true, "walkMinutes": 7}},
  {"name": "本山", "url": "https://ex.com/2", "fallback": {"ac": false}}
]`
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("write sources: %v", err)
	}

	sources, err := LoadSources(path)
	if err != nil {
		t.Fatalf("load sources: %v", err)
	}
	if len(sources) != 2 {
		t.Fatalf("sources = %d, want 2", len(sources))
	}
	fb := sources[0].Fallback
	if fb.Price != "5万円" || fb.Layout != "1K" || fb.Stove != models.Yes {
		t.Fatalf("unexpected fallback: %+v", fb)
	}
	if fb.WalkMinutes == nil || *fb.WalkMinutes != 7 {
		t.Fatalf("walk minutes = %v, want 7", fb.WalkMinutes)
	}
	if sources[1].Fallback.AC != models.No || sources[1].Fallback.Stove != models.Unknown {
		t.Fatalf("unexpected tri-state fallback: %+v", sources[1].Fallback)
	}
}

func TestLoadSourcesYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sources.yaml")
	body := `- name: 志賀
  url: https://ex.com/1
  fallback:
    price: 5万円
    ac: true
    stove: null
`
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("write sources: %v", err)
	}

	sources, err := LoadSources(path)
	if err != nil {
		t.Fatalf("load sources: %v", err)
	}
	if len(sources) != 1 || sources[0].Fallback.AC != models.Yes || sources[0].Fallback.Stove != models.Unknown {
		t.Fatalf("unexpected sources: %+v", sources)
	}
}

func TestLoadSourcesErrors(t *testing.T) {
	dir := t.TempDir()

	if _, err := LoadSources(filepath.Join(dir, "missing.json")); err == nil {
		t.Fatalf("expected error for missing file")
	}

	malformed := filepath.Join(dir, "bad.json")
	if err := os.WriteFile(malformed, []byte(`{"name":`), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	if _, err := LoadSources(malformed); err == nil {
		t.Fatalf("expected error for malformed file")
	}

	noName := filepath.Join(dir, "noname.json")
	if err := os.WriteFile(noName, []byte(`[{"url":"https://ex.com/1"}]`), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	if _, err := LoadSources(noName); err == nil || !strings.Contains(err.Error(), "missing name") {
		t.Fatalf("expected missing name error, got %v", err)
	}
}

func TestLoadSourcesKeepsUnusableURLs(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sources.json")
	body := `[
  {"name": "good", "url": "https://ex.com/1"},
  {"name": "relative", "url": "rooms/relative", "fallback": {"price": "4万円"}},
  {"name": "empty"}
]`
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("write sources: %v", err)
	}

	sources, err := LoadSources(path)
	if err != nil {
		t.Fatalf("load sources: %v", err)
	}
	if len(sources) != 3 {
		t.Fatalf("sources = %d, want 3", len(sources))
	}
	if sources[1].URL != "rooms/relative" || sources[1].Fallback.Price != "4万円" {
		t.Fatalf("unexpected source: %+v", sources[1])
	}
}
