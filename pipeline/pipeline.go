package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/aluiziolira/go-scrape-listings/config"
	"github.com/aluiziolira/go-scrape-listings/models"
	"github.com/aluiziolira/go-scrape-listings/parser"
	"github.com/aluiziolira/go-scrape-listings/scraper"
)

// Listing outcomes reported to the Recorder.
const (
	OutcomeScraped  = "scraped"
	OutcomeFallback = "fallback"
	OutcomeSkipped  = "skipped"
)

var (
	// ErrExtractPanic wraps a panic recovered while resolving one source.
	ErrExtractPanic = errors.New("pipeline: extractor panic")
	// ErrInvalidListing is returned when a resolved listing breaks an artifact invariant.
	ErrInvalidListing = errors.New("pipeline: invalid listing")
)

// Extractor resolves one source into a listing. The listing must be usable
// even when err is non-nil.
type Extractor interface {
	Scrape(ctx context.Context, src models.Source) (models.Listing, error)
}

// Recorder receives one outcome per source.
type Recorder interface {
	IncListing(outcome string)
}

// OutputWriter defines the interface for data output.
type OutputWriter interface {
	Write(listings []models.Listing) error
	Close() error
	Validate() error
}

// Pipeline runs the batch: sources are resolved strictly one after another,
// duplicate names are dropped and the accepted listings go to the writer.
type Pipeline struct {
	extractor Extractor
	writer    OutputWriter
	recorder  Recorder
	maxImages int
}

// NewPipeline builds a pipeline writing to writer.
func NewPipeline(extractor Extractor, writer OutputWriter, cfg *config.Config) *Pipeline {
	maxImages := 0
	if cfg != nil {
		maxImages = cfg.MaxImages
	}
	return &Pipeline{
		extractor: extractor,
		writer:    writer,
		maxImages: maxImages,
	}
}

// SetRecorder attaches a recorder for per-source outcomes.
func (p *Pipeline) SetRecorder(r Recorder) {
	p.recorder = r
}

// Run resolves every source in order and writes the accepted listings.
// Per-source failures degrade to the fallback listing; only a canceled
// context or a writer failure is returned as an error.
func (p *Pipeline) Run(ctx context.Context, sources []models.Source) (*models.RunResult, error) {
	if ctx == nil {
		ctx = context.Background()
	}

	result := &models.RunResult{
		Listings:     make([]models.Listing, 0, len(sources)),
		StartTime:    time.Now(),
		SourceCount:  len(sources),
		ErrorsByType: make(map[string]int),
	}

	seen, err := lru.New[string, struct{}](max(len(sources), 1))
	if err != nil {
		return nil, fmt.Errorf("create seen cache: %w", err)
	}

	for _, src := range sources {
		if err := ctx.Err(); err != nil {
			return nil, fmt.Errorf("run interrupted: %w", err)
		}

		if seen.Contains(src.Name) {
			p.skip(result, src.Name)
			continue
		}

		listing, err := p.resolve(ctx, src)
		if err == nil {
			if verr := parser.ValidateListing(listing, p.maxImages); verr != nil {
				listing = models.FallbackListing(src)
				err = fmt.Errorf("%w: %v", ErrInvalidListing, verr)
			}
		}

		if seen.Contains(listing.Name) {
			p.skip(result, listing.Name)
			continue
		}
		seen.Add(listing.Name, struct{}{})
		result.Listings = append(result.Listings, listing)

		if err != nil {
			category := errorCategory(err)
			result.FallbackCount++
			result.ErrorsByType[category]++
			result.FailedURLs = append(result.FailedURLs, src.URL)
			p.record(OutcomeFallback)
			slog.Warn("source fell back",
				slog.String("name", src.Name),
				slog.String("category", category),
				slog.Any("error", err),
			)
			continue
		}

		result.ScrapedCount++
		p.record(OutcomeScraped)
		slog.Info("source scraped",
			slog.String("name", src.Name),
			slog.Int("images", len(listing.Images)),
		)
	}

	result.EndTime = time.Now()

	if p.writer != nil {
		if err := p.writer.Write(result.Listings); err != nil {
			return result, fmt.Errorf("write listings: %w", err)
		}
	}
	return result, nil
}

func (p *Pipeline) resolve(ctx context.Context, src models.Source) (listing models.Listing, err error) {
	defer func() {
		if r := recover(); r != nil {
			listing = models.FallbackListing(src)
			err = fmt.Errorf("%w: %v", ErrExtractPanic, r)
		}
	}()
	return p.extractor.Scrape(ctx, src)
}

func (p *Pipeline) skip(result *models.RunResult, name string) {
	result.SkippedCount++
	p.record(OutcomeSkipped)
	slog.Info("source skipped",
		slog.String("name", name),
		slog.String("reason", "duplicate_name"),
	)
}

func (p *Pipeline) record(outcome string) {
	if p.recorder != nil {
		p.recorder.IncListing(outcome)
	}
}

func errorCategory(err error) string {
	switch {
	case errors.Is(err, ErrExtractPanic):
		return "panic"
	case errors.Is(err, ErrInvalidListing):
		return "invalid_listing"
	default:
		return scraper.ErrorLabel(err)
	}
}
