package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/aluiziolira/go-scrape-listings/models"
	"gopkg.in/yaml.v2"
)

// LoadSources reads the source list. Files ending in .yaml or .yml are parsed
// as YAML, everything else as a JSON array. Only the shape is checked here: a
// source with an unusable URL still loads and falls back when it is scraped.
func LoadSources(path string) ([]models.Source, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read sources: %w", err)
	}

	var sources []models.Source
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, &sources); err != nil {
			return nil, fmt.Errorf("parse sources yaml: %w", err)
		}
	default:
		if err := json.Unmarshal(data, &sources); err != nil {
			return nil, fmt.Errorf("parse sources json: %w", err)
		}
	}

	for i, src := range sources {
		if strings.TrimSpace(src.Name) == "" {
			return nil, fmt.Errorf("source %d: missing name", i)
		}
	}
	return sources, nil
}
