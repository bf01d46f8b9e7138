package render

import (
	"bytes"
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	"html/template"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/aluiziolira/go-scrape-listings/models"
)

// RemediationMessage replaces the gallery when the artifact cannot be loaded.
const RemediationMessage = "データの読み込みに失敗しました。スクレイパー（go run ./cmd/scraper）を実行して data.json を生成してください。"

// DefaultAutoInterval is the carousel auto-advance period.
const DefaultAutoInterval = 4500 * time.Millisecond

// DefaultPlaceholderImages stand in for listings without photos.
var DefaultPlaceholderImages = []string{
	"https://images.unsplash.com/photo-1502672260266-1c1ef2d93688?w=800",
	"https://images.unsplash.com/photo-1560448204-e02f11c3d0e2?w=800",
	"https://images.unsplash.com/photo-1522708323590-d24dbb6b0267?w=800",
}

// ErrLoad wraps every artifact load failure.
var ErrLoad = errors.New("render: load artifact")

//go:embed assets
var assets embed.FS

// Options tune the gallery page. StartSlide is the slide each carousel opens
// on; any integer is accepted and negative values count from the end.
type Options struct {
	Title             string
	PlaceholderImages []string
	AutoInterval      time.Duration
	StartSlide        int
}

// DefaultOptions returns the gallery defaults.
func DefaultOptions() Options {
	return Options{
		Title:             "物件ギャラリー",
		PlaceholderImages: append([]string(nil), DefaultPlaceholderImages...),
		AutoInterval:      DefaultAutoInterval,
	}
}

// Renderer turns loaded listings into the gallery page.
type Renderer struct {
	opts    Options
	tmpl    *template.Template
	script  template.JS
	style   template.CSS
	Metrics *Metrics
}

type page struct {
	Title      string
	Cards      []Card
	Error      string
	IntervalMs int64
	Script     template.JS
	Style      template.CSS
}

// New parses the embedded templates.
func New(opts Options) (*Renderer, error) {
	if opts.AutoInterval <= 0 {
		return nil, fmt.Errorf("auto interval must be positive")
	}
	if len(opts.PlaceholderImages) == 0 {
		return nil, fmt.Errorf("placeholder images cannot be empty")
	}

	tmpl, err := template.New("gallery.html").
		Funcs(template.FuncMap{"inc": func(i int) int { return i + 1 }}).
		ParseFS(assets, "assets/gallery.html")
	if err != nil {
		return nil, fmt.Errorf("parse gallery template: %w", err)
	}
	script, err := assets.ReadFile("assets/gallery.js")
	if err != nil {
		return nil, fmt.Errorf("read gallery script: %w", err)
	}
	style, err := assets.ReadFile("assets/gallery.css")
	if err != nil {
		return nil, fmt.Errorf("read gallery style: %w", err)
	}

	return &Renderer{
		opts:   opts,
		tmpl:   tmpl,
		script: template.JS(script),
		style:  template.CSS(style),
	}, nil
}

// Load reads the data.json artifact.
func Load(path string) ([]models.Listing, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrLoad, err)
	}
	var listings []models.Listing
	if err := json.Unmarshal(data, &listings); err != nil {
		return nil, fmt.Errorf("%w: decode %s: %w", ErrLoad, path, err)
	}
	return listings, nil
}

// Cards builds the view model for every listing, in artifact order.
func (r *Renderer) Cards(listings []models.Listing) []Card {
	cards := make([]Card, 0, len(listings))
	for i, l := range listings {
		cards = append(cards, NewCard(i, l, r.opts.PlaceholderImages, r.opts.StartSlide))
	}
	return cards
}

// Render writes the gallery for listings. All text goes through html/template
// escaping.
func (r *Renderer) Render(w io.Writer, listings []models.Listing) error {
	return r.execute(w, page{Cards: r.Cards(listings)})
}

// RenderError writes the remediation page.
func (r *Renderer) RenderError(w io.Writer) error {
	return r.execute(w, page{Error: RemediationMessage})
}

// RenderFile loads path and renders it. A load failure is logged and the
// remediation page is written instead; only write failures are returned.
func (r *Renderer) RenderFile(w io.Writer, path string) error {
	listings, err := Load(path)
	if err != nil {
		slog.Warn("artifact load failed", slog.String("path", path), slog.Any("error", err))
		r.Metrics.IncRender(RenderRemediation)
		return r.RenderError(w)
	}
	r.Metrics.IncRender(RenderOK)
	r.Metrics.SetCards(len(listings))
	return r.Render(w, listings)
}

func (r *Renderer) execute(w io.Writer, p page) error {
	p.Title = r.opts.Title
	p.IntervalMs = r.opts.AutoInterval.Milliseconds()
	p.Script = r.script
	p.Style = r.style

	var buf bytes.Buffer
	if err := r.tmpl.Execute(&buf, p); err != nil {
		return fmt.Errorf("execute gallery template: %w", err)
	}
	if _, err := w.Write(buf.Bytes()); err != nil {
		return fmt.Errorf("write gallery: %w", err)
	}
	return nil
}
