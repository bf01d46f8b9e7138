package scraper

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"reflect"
	"strings"
	"testing"

	"github.com/aluiziolira/go-scrape-listings/config"
	"github.com/aluiziolira/go-scrape-listings/models"
	"github.com/jarcoal/httpmock"
)

func TestClassifyError(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		statusCode int
		expected   string
	}{
		{name: "nil", err: nil, statusCode: 0, expected: "unknown"},
		{name: "context timeout", err: context.DeadlineExceeded, statusCode: 0, expected: "timeout"},
		{name: "net timeout", err: &net.DNSError{IsTimeout: true}, statusCode: 0, expected: "timeout"},
		{name: "connection", err: &net.OpError{Op: "dial", Net: "tcp", Err: errors.New("connection refused")}, statusCode: 0, expected: "connection"},
		{name: "forbidden", err: nil, statusCode: http.StatusForbidden, expected: "forbidden"},
		{name: "not found", err: nil, statusCode: http.StatusNotFound, expected: "not_found"},
		{name: "rate limited", err: nil, statusCode: http.StatusTooManyRequests, expected: "rate_limited"},
		{name: "server error", err: errors.New("Internal Server Error"), statusCode: http.StatusInternalServerError, expected: "http_status"},
		{name: "other", err: errors.New("some other error"), statusCode: 0, expected: "other"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ErrorLabel(classifyError(tt.err, tt.statusCode)); got != tt.expected {
				t.Fatalf("classifyError(%v, %d) = %q, want %q", tt.err, tt.statusCode, got, tt.expected)
			}
		})
	}
}

func TestErrorLabelParse(t *testing.T) {
	err := fmt.Errorf("parse page: %w", ErrParse{Err: errors.New("bad")})
	if got := ErrorLabel(err); got != "parse" {
		t.Fatalf("label = %q, want parse", got)
	}
}

func newTestScraper(t *testing.T) (*Scraper, *httpmock.MockTransport) {
	t.Helper()
	s, err := NewScraper(config.DefaultConfig())
	if err != nil {
		t.Fatalf("new scraper: %v", err)
	}
	transport := httpmock.NewMockTransport()
	s.collector.WithTransport(transport)
	return s, transport
}

func testSource(url string) models.Source {
	minutes := 12
	return models.Source{
		Name: "志賀本通",
		URL:  url,
		Fallback: models.Details{
			Price:        "6万円",
			Layout:       "2LDK",
			Area:         "45m²",
			Note:         "南向き",
			NagoyaAccess: "地下鉄で15分",
			Stove:        models.Yes,
			WalkMinutes:  &minutes,
		},
	}
}

func TestScraperHTTPStatusFallsBack(t *testing.T) {
	tests := []struct {
		status   int
		expected string
	}{
		{status: http.StatusTooManyRequests, expected: "rate_limited"},
		{status: http.StatusForbidden, expected: "forbidden"},
		{status: http.StatusNotFound, expected: "not_found"},
		{status: http.StatusInternalServerError, expected: "http_status"},
	}

	for _, tt := range tests {
		t.Run(fmt.Sprintf("status_%d", tt.status), func(t *testing.T) {
			s, transport := newTestScraper(t)
			url := "http://example.test/rooms/1"
			transport.RegisterResponder("GET", url, htmlStatusResponder(tt.status, "<html><body>賃料 3万円</body></html>"))

			src := testSource(url)
			listing, err := s.Scrape(context.Background(), src)
			if err == nil {
				t.Fatalf("expected error for status %d", tt.status)
			}
			if got := ErrorLabel(err); got != tt.expected {
				t.Fatalf("label = %q, want %q (err=%v)", got, tt.expected, err)
			}
			if want := models.FallbackListing(src); !reflect.DeepEqual(listing, want) {
				t.Fatalf("listing = %+v, want fallback %+v", listing, want)
			}
		})
	}
}

func TestScraperAcceptsEvery2xx(t *testing.T) {
	for _, status := range []int{http.StatusOK, http.StatusNonAuthoritativeInfo, http.StatusPartialContent} {
		t.Run(fmt.Sprintf("status_%d", status), func(t *testing.T) {
			s, transport := newTestScraper(t)
			url := "http://example.test/rooms/ok"
			transport.RegisterResponder("GET", url, htmlStatusResponder(status, "<html><body>賃料 3万円</body></html>"))

			listing, err := s.Scrape(context.Background(), testSource(url))
			if err != nil {
				t.Fatalf("unexpected error for status %d: %v", status, err)
			}
			if listing.Price != "3万円" {
				t.Fatalf("price = %q, want 3万円", listing.Price)
			}
		})
	}
}

func TestScraperInvalidSourceFallsBack(t *testing.T) {
	for _, url := range []string{"rooms/relative", "/rooms/1", "ftp://ex.com/rooms/1", ""} {
		t.Run(url, func(t *testing.T) {
			s, transport := newTestScraper(t)

			src := testSource(url)
			listing, err := s.Scrape(context.Background(), src)
			if err == nil {
				t.Fatalf("expected error for url %q", url)
			}
			if got := ErrorLabel(err); got != "invalid_source" {
				t.Fatalf("label = %q, want invalid_source (err=%v)", got, err)
			}
			if want := models.FallbackListing(src); !reflect.DeepEqual(listing, want) {
				t.Fatalf("listing = %+v, want fallback %+v", listing, want)
			}
			if calls := transport.GetTotalCallCount(); calls != 0 {
				t.Fatalf("calls = %d, want no request", calls)
			}
		})
	}
}

func TestScraperNetworkErrorFallsBack(t *testing.T) {
	s, transport := newTestScraper(t)
	url := "http://example.test/rooms/2"
	transport.RegisterResponder("GET", url, httpmock.NewErrorResponder(errors.New("connection reset")))

	src := testSource(url)
	listing, err := s.Scrape(context.Background(), src)
	if err == nil {
		t.Fatalf("expected fetch error")
	}
	if listing.Name != src.Name || listing.URL != src.URL {
		t.Fatalf("name/url = %q/%q", listing.Name, listing.URL)
	}
	if listing.Images == nil || len(listing.Images) != 0 {
		t.Fatalf("images = %#v, want empty slice", listing.Images)
	}
	if !reflect.DeepEqual(listing.Details, src.Fallback) {
		t.Fatalf("details = %+v, want %+v", listing.Details, src.Fallback)
	}
}

func TestScraperCanceledContext(t *testing.T) {
	s, _ := newTestScraper(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := s.Fetch(ctx, "http://example.test/rooms/3"); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}

func TestScraperSendsBrowserHeaders(t *testing.T) {
	s, transport := newTestScraper(t)
	url := "http://example.test/rooms/4"
	cfg := config.DefaultConfig()

	var got http.Header
	transport.RegisterResponder("GET", url, func(req *http.Request) (*http.Response, error) {
		got = req.Header.Clone()
		return htmlResponse("<html><body></body></html>"), nil
	})

	if _, err := s.Fetch(context.Background(), url); err != nil {
		t.Fatalf("fetch: %v", err)
	}
	if got.Get("User-Agent") != cfg.UserAgent {
		t.Fatalf("user agent = %q", got.Get("User-Agent"))
	}
	if got.Get("Accept") != "text/html,application/xhtml+xml" {
		t.Fatalf("accept = %q", got.Get("Accept"))
	}
	if got.Get("Accept-Language") != "ja,en;q=0.9" {
		t.Fatalf("accept-language = %q", got.Get("Accept-Language"))
	}
}

func TestScraper_Integration(t *testing.T) {
	s, transport := newTestScraper(t)
	url := "https://ex.com/rooms/5"
	transport.RegisterResponder("GET", url, htmlResponder(listingPage))

	src := testSource(url)
	listing, err := s.Scrape(context.Background(), src)
	if err != nil {
		t.Fatalf("scrape: %v", err)
	}

	if listing.Name != src.Name || listing.URL != url {
		t.Fatalf("name/url = %q/%q", listing.Name, listing.URL)
	}
	if listing.BuildingName != "ハイツ志賀" {
		t.Fatalf("building name = %q, want ハイツ志賀", listing.BuildingName)
	}
	if listing.Price != "5.5万円" {
		t.Fatalf("price = %q, want 5.5万円", listing.Price)
	}
	if listing.Layout != "1LDK" {
		t.Fatalf("layout = %q, want 1LDK", listing.Layout)
	}
	if listing.Area != "32.4m²" {
		t.Fatalf("area = %q, want 32.4m²", listing.Area)
	}
	if listing.Access != "志賀本通駅 徒歩7分" {
		t.Fatalf("access = %q", listing.Access)
	}
	if listing.NearestStation != "志賀本通駅" {
		t.Fatalf("nearest station = %q", listing.NearestStation)
	}
	if listing.WalkMinutes == nil || *listing.WalkMinutes != 7 {
		t.Fatalf("walk minutes = %v, want 7", listing.WalkMinutes)
	}
	if listing.Gas != "都市ガス" || listing.AC != models.Yes || listing.Internet != "無料" || listing.Structure != "RC造" {
		t.Fatalf("classifiers = %q/%v/%q/%q", listing.Gas, listing.AC, listing.Internet, listing.Structure)
	}
	if listing.Note != "南向き" || listing.NagoyaAccess != "地下鉄で15分" {
		t.Fatalf("fallback-only fields lost: note=%q nagoya=%q", listing.Note, listing.NagoyaAccess)
	}
	if listing.Stove != models.Yes {
		t.Fatalf("stove = %v, want fallback Yes", listing.Stove)
	}

	wantImages := []string{
		"https://ex.com/img/a.jpg",
		"https://cdn.ex.com/b.jpg",
		"https://ex.com/img/c.jpg",
	}
	if !reflect.DeepEqual(listing.Images, wantImages) {
		t.Fatalf("images = %v, want %v", listing.Images, wantImages)
	}
}

func TestParsePageImageLimits(t *testing.T) {
	var b strings.Builder
	b.WriteString(`<html><head><meta property="og:image" content="/og.jpg"></head><body><div class="gallery">`)
	for i := 0; i < 12; i++ {
		fmt.Fprintf(&b, `<img src="/g/%d.jpg">`, i)
	}
	b.WriteString(`</div></body></html>`)

	page, err := ParsePage([]byte(b.String()), "https://ex.com/rooms/1", PageOptions{
		ImageSelectors:    config.DefaultImageSelectors,
		MaxSelectorImages: 10,
		MaxImages:         8,
	})
	if err != nil {
		t.Fatalf("parse page: %v", err)
	}
	if len(page.Images) != 8 {
		t.Fatalf("images = %d, want 8", len(page.Images))
	}
	if page.Images[0] != "https://ex.com/og.jpg" {
		t.Fatalf("first image = %q, want og:image", page.Images[0])
	}
	if page.Images[1] != "https://ex.com/g/0.jpg" {
		t.Fatalf("second image = %q", page.Images[1])
	}
}

func TestParsePageSelectorLimit(t *testing.T) {
	var b strings.Builder
	b.WriteString(`<html><body><main>`)
	for i := 0; i < 5; i++ {
		fmt.Fprintf(&b, `<img data-src="/g/%d.jpg">`, i)
	}
	b.WriteString(`</main></body></html>`)

	page, err := ParsePage([]byte(b.String()), "https://ex.com/rooms/1", PageOptions{
		ImageSelectors:    []string{"main img"},
		MaxSelectorImages: 3,
		MaxImages:         8,
	})
	if err != nil {
		t.Fatalf("parse page: %v", err)
	}
	want := []string{"https://ex.com/g/0.jpg", "https://ex.com/g/1.jpg", "https://ex.com/g/2.jpg"}
	if !reflect.DeepEqual(page.Images, want) {
		t.Fatalf("images = %v, want %v", page.Images, want)
	}
}

func TestParsePageIgnoresScripts(t *testing.T) {
	html := `<html><body><script>var price = "99万円";</script><p>賃料 4万円</p></body></html>`
	page, err := ParsePage([]byte(html), "https://ex.com/", PageOptions{MaxImages: 8})
	if err != nil {
		t.Fatalf("parse page: %v", err)
	}
	if strings.Contains(page.Text, "99万円") {
		t.Fatalf("script text leaked into page text: %q", page.Text)
	}
	if page.Images == nil {
		t.Fatalf("images should be an empty slice")
	}
}

const listingPage = `<!DOCTYPE html>
<html>
<head>
<title>ハイツ志賀｜お部屋探し</title>
<meta property="og:image" content="/img/a.jpg">
<meta property="og:image" content="/img/a.jpg">
</head>
<body>
<h1>ハイツ志賀 101号室</h1>
<div class="gallery">
  <img src="//cdn.ex.com/b.jpg">
  <img src="/img/a.jpg">
  <img data-src="/img/c.jpg">
  <img src="relative/d.jpg">
</div>
<table>
<tr><th>賃料</th><td>５．５万円</td></tr>
<tr><th>間取り</th><td>1LDK</td></tr>
<tr><th>専有面積</th><td>32.4m²</td></tr>
<tr><th>交通</th><td>地下鉄名城線 志賀本通駅 徒歩7分</td></tr>
<tr><th>設備</th><td>都市ガス / エアコン / インターネット無料</td></tr>
<tr><th>構造</th><td>RC造</td></tr>
</table>
</body>
</html>`

func htmlResponse(body string) *http.Response {
	resp := httpmock.NewStringResponse(200, body)
	resp.Header.Set("Content-Type", "text/html; charset=utf-8")
	return resp
}

func htmlStatusResponder(status int, body string) httpmock.Responder {
	resp := httpmock.NewStringResponse(status, body)
	resp.Header.Set("Content-Type", "text/html; charset=utf-8")
	return httpmock.ResponderFromResponse(resp)
}

func htmlResponder(body string) httpmock.Responder {
	return httpmock.ResponderFromResponse(htmlResponse(body))
}
