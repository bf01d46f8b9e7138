package config

import (
	"fmt"
	"time"
)

// DefaultImageSelectors are the gallery-like selectors searched for listing photos.
var DefaultImageSelectors = []string{
	".gallery img",
	".slide img",
	".room-photo img",
	".property-photo img",
	"[class*='gallery'] img",
	"[class*='slide'] img",
	"main img",
	".detail img",
}

// Config holds scraper configuration.
type Config struct {
	SourcesFile       string
	OutputFile        string
	OutputFormat      string // json, csv, or dual
	Timeout           time.Duration
	UserAgent         string
	Accept            string
	AcceptLanguage    string
	ImageSelectors    []string
	MaxSelectorImages int
	MaxImages         int
	MetricsAddr       string
	Verbose           bool
	RespectRobotsTxt  bool
	DetectCharset     bool
}

// DefaultConfig returns the defaults used for the listing pages.
func DefaultConfig() *Config {
	selectors := make([]string, len(DefaultImageSelectors))
	copy(selectors, DefaultImageSelectors)

	return &Config{
		SourcesFile:       "sources.json",
		OutputFile:        "data.json",
		OutputFormat:      "json",
		Timeout:           15 * time.Second,
		UserAgent:         "Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36",
		Accept:            "text/html,application/xhtml+xml",
		AcceptLanguage:    "ja,en;q=0.9",
		ImageSelectors:    selectors,
		MaxSelectorImages: 10,
		MaxImages:         8,
		MetricsAddr:       "",
		Verbose:           false,
		RespectRobotsTxt:  false,
		DetectCharset:     true,
	}
}

// Validate ensures all configuration values are coherent.
func (c *Config) Validate() error {
	if c.SourcesFile == "" {
		return fmt.Errorf("sources file cannot be empty")
	}
	if c.OutputFile == "" {
		return fmt.Errorf("output file cannot be empty")
	}
	if c.OutputFormat != "json" && c.OutputFormat != "csv" && c.OutputFormat != "dual" {
		return fmt.Errorf("output format must be json, csv, or dual")
	}
	if c.Timeout <= 0 {
		return fmt.Errorf("timeout must be positive")
	}
	if c.UserAgent == "" {
		return fmt.Errorf("user agent cannot be empty")
	}
	if c.MaxImages <= 0 {
		return fmt.Errorf("max images must be positive")
	}
	if c.MaxSelectorImages < 0 {
		return fmt.Errorf("max selector images cannot be negative")
	}
	if len(c.ImageSelectors) == 0 {
		return fmt.Errorf("image selectors cannot be empty")
	}
	return nil
}
