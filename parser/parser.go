// Package parser holds the pure text rules that turn a listing page into
// listing fields, plus validation of sources and listings.
package parser

import (
	"fmt"
	"net/url"
	"regexp"
	"strings"

	"github.com/aluiziolira/go-scrape-listings/models"
	"golang.org/x/text/width"
)

var (
	spaceRe      = regexp.MustCompile(`\s+`)
	wideSpaceRep = strings.NewReplacer("\u00a0", " ", "\u3000", " ")
)

// NormalizeText folds full-width digits and letters to their narrow form and
// collapses whitespace runs to single spaces.
func NormalizeText(text string) string {
	text = width.Fold.String(text)
	text = wideSpaceRep.Replace(text)
	text = spaceRe.ReplaceAllString(text, " ")
	return strings.TrimSpace(text)
}

// ValidateSource ensures a configured source can be scraped at all.
func ValidateSource(src models.Source) error {
	if strings.TrimSpace(src.Name) == "" {
		return fmt.Errorf("source missing name")
	}
	if strings.TrimSpace(src.URL) == "" {
		return fmt.Errorf("source %q missing url", src.Name)
	}
	u, err := url.Parse(src.URL)
	if err != nil {
		return fmt.Errorf("source %q: invalid url: %w", src.Name, err)
	}
	if !isHTTPScheme(u.Scheme) || u.Host == "" {
		return fmt.Errorf("source %q: url must be absolute http(s)", src.Name)
	}
	return nil
}

// ValidateListing checks the invariants every artifact entry must hold.
func ValidateListing(l models.Listing, maxImages int) error {
	if strings.TrimSpace(l.Name) == "" {
		return fmt.Errorf("listing missing name")
	}
	if strings.TrimSpace(l.URL) == "" {
		return fmt.Errorf("listing %q missing url", l.Name)
	}
	if maxImages > 0 && len(l.Images) > maxImages {
		return fmt.Errorf("listing %q has %d images, max %d", l.Name, len(l.Images), maxImages)
	}
	seen := make(map[string]struct{}, len(l.Images))
	for _, img := range l.Images {
		if !IsAbsoluteHTTP(img) {
			return fmt.Errorf("listing %q: image %q is not an absolute http(s) url", l.Name, img)
		}
		if _, ok := seen[img]; ok {
			return fmt.Errorf("listing %q: duplicate image %q", l.Name, img)
		}
		seen[img] = struct{}{}
	}
	return nil
}

// Origin returns scheme://host of rawURL.
func Origin(rawURL string) (string, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return "", fmt.Errorf("parse url: %w", err)
	}
	if u.Scheme == "" || u.Host == "" {
		return "", fmt.Errorf("url %q has no origin", rawURL)
	}
	return u.Scheme + "://" + u.Host, nil
}

// ResolveImageURL resolves protocol-relative and root-relative references
// against origin. Anything that does not end up absolute http(s) is rejected.
func ResolveImageURL(origin, src string) (string, bool) {
	src = strings.TrimSpace(src)
	switch {
	case src == "":
		return "", false
	case strings.HasPrefix(src, "//"):
		src = "https:" + src
	case strings.HasPrefix(src, "/"):
		src = strings.TrimSuffix(origin, "/") + src
	}
	if !IsAbsoluteHTTP(src) {
		return "", false
	}
	return src, true
}

// IsAbsoluteHTTP reports whether raw is an absolute http or https URL.
func IsAbsoluteHTTP(raw string) bool {
	u, err := url.Parse(raw)
	if err != nil {
		return false
	}
	return isHTTPScheme(u.Scheme) && u.Host != ""
}

func isHTTPScheme(scheme string) bool {
	switch strings.ToLower(scheme) {
	case "http", "https":
		return true
	default:
		return false
	}
}

// ImageList collects image URLs in first-seen order, without duplicates,
// up to a fixed limit.
type ImageList struct {
	limit int
	seen  map[string]struct{}
	items []string
}

// NewImageList returns an empty list holding at most limit entries.
func NewImageList(limit int) *ImageList {
	return &ImageList{
		limit: limit,
		seen:  make(map[string]struct{}),
		items: []string{},
	}
}

// Add appends u unless it is a duplicate or the list is full.
func (il *ImageList) Add(u string) bool {
	if il.Full() {
		return false
	}
	if _, ok := il.seen[u]; ok {
		return false
	}
	il.seen[u] = struct{}{}
	il.items = append(il.items, u)
	return true
}

// Full reports whether the limit has been reached.
func (il *ImageList) Full() bool {
	return il.limit > 0 && len(il.items) >= il.limit
}

// Items returns a copy of the collected URLs.
func (il *ImageList) Items() []string {
	out := make([]string, len(il.items))
	copy(out, il.items)
	return out
}
