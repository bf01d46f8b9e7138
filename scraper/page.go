package scraper

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/aluiziolira/go-scrape-listings/parser"
)

// Page is the queryable content of a listing page.
type Page struct {
	Text    string
	Title   string
	OGTitle string
	Images  []string
}

// PageOptions controls image discovery.
type PageOptions struct {
	ImageSelectors    []string
	MaxSelectorImages int
	MaxImages         int
}

// ParsePage parses body and pulls out the normalized visible text, titles and
// images. og:image entries come first, then up to MaxSelectorImages elements
// matched by ImageSelectors; the result is capped at MaxImages.
func ParsePage(body []byte, pageURL string, opts PageOptions) (*Page, error) {
	origin, err := parser.Origin(pageURL)
	if err != nil {
		return nil, err
	}

	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("parse html: %w", err)
	}

	page := &Page{
		Title:   strings.TrimSpace(doc.Find("title").First().Text()),
		OGTitle: strings.TrimSpace(doc.Find(`meta[property="og:title"]`).First().AttrOr("content", "")),
	}

	images := parser.NewImageList(opts.MaxImages)
	doc.Find(`meta[property="og:image"]`).Each(func(_ int, sel *goquery.Selection) {
		if u, ok := parser.ResolveImageURL(origin, sel.AttrOr("content", "")); ok {
			images.Add(u)
		}
	})

	if len(opts.ImageSelectors) > 0 {
		doc.Find(strings.Join(opts.ImageSelectors, ", ")).Each(func(i int, sel *goquery.Selection) {
			if opts.MaxSelectorImages > 0 && i >= opts.MaxSelectorImages {
				return
			}
			src := sel.AttrOr("src", "")
			if strings.TrimSpace(src) == "" {
				src = sel.AttrOr("data-src", "")
			}
			if u, ok := parser.ResolveImageURL(origin, src); ok {
				images.Add(u)
			}
		})
	}
	page.Images = images.Items()

	bodySel := doc.Find("body")
	bodySel.Find("script, style, noscript").Remove()
	page.Text = parser.NormalizeText(bodySel.Text())

	return page, nil
}
