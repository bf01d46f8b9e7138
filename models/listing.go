// Package models defines data structures for the scraper.
package models

import (
	"bytes"
	"fmt"
	"time"
)

// TriState is a boolean that can also be unknown.
type TriState int8

const (
	Unknown TriState = iota
	Yes
	No
)

// Known reports whether the value is true or false.
func (t TriState) Known() bool {
	return t == Yes || t == No
}

// Bool returns the boolean value; only meaningful when Known.
func (t TriState) Bool() bool {
	return t == Yes
}

// TriStateOf converts a plain boolean.
func TriStateOf(b bool) TriState {
	if b {
		return Yes
	}
	return No
}

func (t TriState) String() string {
	switch t {
	case Yes:
		return "true"
	case No:
		return "false"
	default:
		return "unknown"
	}
}

// MarshalJSON encodes Yes/No as booleans and Unknown as null.
func (t TriState) MarshalJSON() ([]byte, error) {
	switch t {
	case Yes:
		return []byte("true"), nil
	case No:
		return []byte("false"), nil
	default:
		return []byte("null"), nil
	}
}

// UnmarshalJSON accepts true, false and null.
func (t *TriState) UnmarshalJSON(data []byte) error {
	switch string(bytes.TrimSpace(data)) {
	case "true":
		*t = Yes
	case "false":
		*t = No
	case "null":
		*t = Unknown
	default:
		return fmt.Errorf("tristate: invalid value %s", data)
	}
	return nil
}

// UnmarshalYAML accepts booleans and null.
func (t *TriState) UnmarshalYAML(unmarshal func(interface{}) error) error {
	var b *bool
	if err := unmarshal(&b); err != nil {
		return fmt.Errorf("tristate: %w", err)
	}
	if b == nil {
		*t = Unknown
		return nil
	}
	*t = TriStateOf(*b)
	return nil
}

// Details holds the optional listing fields. Sources carry it as their
// fallback payload and listings embed it.
type Details struct {
	BuildingName   string   `json:"buildingName,omitempty" yaml:"buildingName"`
	NearestStation string   `json:"nearestStation,omitempty" yaml:"nearestStation"`
	Price          string   `json:"price,omitempty" yaml:"price"`
	Layout         string   `json:"layout,omitempty" yaml:"layout"`
	Area           string   `json:"area,omitempty" yaml:"area"`
	Access         string   `json:"access,omitempty" yaml:"access"`
	Note           string   `json:"note,omitempty" yaml:"note"`
	Gas            string   `json:"gas,omitempty" yaml:"gas"`
	Stove          TriState `json:"stove,omitempty" yaml:"stove"`
	AC             TriState `json:"ac,omitempty" yaml:"ac"`
	Structure      string   `json:"structure,omitempty" yaml:"structure"`
	WalkMinutes    *int     `json:"walkMinutes,omitempty" yaml:"walkMinutes"`
	ShigaAccess    string   `json:"shigaAccess,omitempty" yaml:"shigaAccess"`
	NagoyaAccess   string   `json:"nagoyaAccess,omitempty" yaml:"nagoyaAccess"`
	TokishiAccess  string   `json:"tokishiAccess,omitempty" yaml:"tokishiAccess"`
	Internet       string   `json:"internet,omitempty" yaml:"internet"`
}

// Source is one configured listing page with its fallback values.
type Source struct {
	Name     string  `json:"name" yaml:"name"`
	URL      string  `json:"url" yaml:"url"`
	Fallback Details `json:"fallback" yaml:"fallback"`
}

// Listing is one resolved entry of the data.json artifact.
type Listing struct {
	Name string `json:"name"`
	URL  string `json:"url"`
	Details
	Images []string `json:"images"`
}

// FallbackListing builds the listing a source resolves to when nothing
// could be scraped.
func FallbackListing(src Source) Listing {
	details := src.Fallback
	if details.WalkMinutes != nil {
		minutes := *details.WalkMinutes
		details.WalkMinutes = &minutes
	}
	return Listing{
		Name:    src.Name,
		URL:     src.URL,
		Details: details,
		Images:  []string{},
	}
}

// Title is the display name of the listing.
func (l Listing) Title() string {
	if l.BuildingName != "" {
		return l.BuildingName
	}
	return l.Name
}

// RunResult holds the overall result of a batch run.
type RunResult struct {
	Listings      []Listing
	StartTime     time.Time
	EndTime       time.Time
	SourceCount   int
	ScrapedCount  int
	FallbackCount int
	SkippedCount  int
	ErrorsByType  map[string]int
	FailedURLs    []string
}

// Duration is the wall time of the run.
func (r *RunResult) Duration() time.Duration {
	return r.EndTime.Sub(r.StartTime)
}
