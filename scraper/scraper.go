package scraper

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/aluiziolira/go-scrape-listings/config"
	"github.com/aluiziolira/go-scrape-listings/models"
	"github.com/aluiziolira/go-scrape-listings/parser"
	"github.com/gocolly/colly/v2"
)

// Scraper fetches listing pages one at a time and resolves them into listings.
type Scraper struct {
	cfg       *config.Config
	collector *colly.Collector
	rules     parser.FieldRules
	Metrics   *Metrics
}

// NewScraper builds a scraper instance configured from cfg.
func NewScraper(cfg *config.Config) (*Scraper, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config is nil")
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	collector := colly.NewCollector(
		colly.UserAgent(cfg.UserAgent),
		colly.AllowURLRevisit(),
	)

	collector.SetRequestTimeout(cfg.Timeout)
	collector.IgnoreRobotsTxt = !cfg.RespectRobotsTxt
	collector.DetectCharset = cfg.DetectCharset
	// Non-2xx responses reach OnResponse, which owns the status check.
	collector.ParseHTTPErrorResponse = true
	collector.WithTransport(&http.Transport{
		Proxy: http.ProxyFromEnvironment,
		DialContext: (&net.Dialer{
			Timeout:   cfg.Timeout,
			KeepAlive: 30 * time.Second,
		}).DialContext,
		MaxIdleConns:        10,
		IdleConnTimeout:     90 * time.Second,
		TLSHandshakeTimeout: 10 * time.Second,
	})

	return &Scraper{
		cfg:       cfg,
		collector: collector,
		rules:     parser.DefaultRules(),
		Metrics:   NewMetrics(),
	}, nil
}

// Fetch downloads rawURL with the configured browser identity. Any non-2xx
// status, timeout or network failure is returned as a classified error.
func (s *Scraper) Fetch(ctx context.Context, rawURL string) ([]byte, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	c := s.collector.Clone()

	var (
		body     []byte
		fetchErr error
		start    time.Time
	)

	c.OnRequest(func(r *colly.Request) {
		r.Headers.Set("Accept", s.cfg.Accept)
		r.Headers.Set("Accept-Language", s.cfg.AcceptLanguage)
		start = time.Now()
		s.Metrics.IncRequest("started")
	})

	c.OnResponse(func(r *colly.Response) {
		s.Metrics.ObserveDuration(time.Since(start))
		if r.StatusCode < http.StatusOK || r.StatusCode >= http.StatusMultipleChoices {
			fetchErr = classifyError(nil, r.StatusCode)
			return
		}
		body = r.Body
	})

	c.OnError(func(r *colly.Response, err error) {
		statusCode := 0
		if r != nil {
			statusCode = r.StatusCode
		}
		fetchErr = classifyError(err, statusCode)
	})

	if err := c.Visit(rawURL); err != nil && fetchErr == nil {
		fetchErr = classifyError(err, 0)
	}
	c.Wait()

	if fetchErr != nil {
		s.Metrics.IncRequest("failed")
		s.Metrics.IncError(ErrorLabel(fetchErr))
		return nil, fetchErr
	}
	s.Metrics.IncRequest("succeeded")
	return body, nil
}

// Scrape resolves src into a listing. The returned listing is always usable:
// on error it carries exactly the source's fallback values and no images.
func (s *Scraper) Scrape(ctx context.Context, src models.Source) (models.Listing, error) {
	listing := models.FallbackListing(src)

	if err := parser.ValidateSource(src); err != nil {
		invalid := ErrInvalidSource{Err: err}
		s.Metrics.IncError(ErrorLabel(invalid))
		return listing, fmt.Errorf("source %s: %w", src.Name, invalid)
	}

	body, err := s.Fetch(ctx, src.URL)
	if err != nil {
		return listing, fmt.Errorf("fetch %s: %w", src.URL, err)
	}

	page, err := ParsePage(body, src.URL, PageOptions{
		ImageSelectors:    s.cfg.ImageSelectors,
		MaxSelectorImages: s.cfg.MaxSelectorImages,
		MaxImages:         s.cfg.MaxImages,
	})
	if err != nil {
		parseErr := ErrParse{Err: err}
		s.Metrics.IncError(ErrorLabel(parseErr))
		return listing, fmt.Errorf("parse %s: %w", src.URL, parseErr)
	}

	s.rules.Apply(&listing, page.Text)
	parser.ApplyTitles(&listing, page.OGTitle, page.Title)
	listing.Images = page.Images
	s.Metrics.AddImages(len(page.Images))

	slog.Debug("page extracted",
		slog.String("name", src.Name),
		slog.Int("text_len", len(page.Text)),
		slog.Int("images", len(page.Images)),
	)
	return listing, nil
}
