package enricher

import (
	"bytes"
	"context"
	"errors"
	"testing"
	"time"

	"github.com/samvad-hq/newsfeed/internal/domain"
	"github.com/samvad-hq/newsfeed/pkg/httpclient"
)

// stubHTTPResponse implements httpclient.Response.
type stubHTTPResponse struct {
	body       []byte
	statusCode int
}

func (s stubHTTPResponse) Body() []byte    { return s.body }
func (s stubHTTPResponse) StatusCode() int { return s.statusCode }

// stubHTTPClient returns responses keyed by URL.
type stubHTTPClient struct {
	resps   map[string]httpclient.Response
	headers map[string]string
}

func (s *stubHTTPClient) Get(_ context.Context, url string, headers map[string]string) (httpclient.Response, error) {
	s.headers = headers
	resp, ok := s.resps[url]
	if !ok {
		return nil, errors.New("connection refused")
	}
	return resp, nil
}

func TestParseMetaPrefersOGTags(t *testing.T) {
	html := []byte(`
<html>
  <head>
    <title>Fallback</title>
    <meta property="og:title" content="OG Title">
    <meta property="og:description" content="OG Desc">
    <meta property="og:image" content="/img/og.png">
  </head>
</html>`)

	meta, err := parseMeta(html)
	if err != nil {
		t.Fatalf("parseMeta: %v", err)
	}
	if meta.Title != "OG Title" || meta.Description != "OG Desc" || meta.ImageURL != "/img/og.png" {
		t.Fatalf("unexpected meta %#v", meta)
	}
}

func TestParseMetaFallsBack(t *testing.T) {
	html := []byte(`<html><head><title> Plain </title><meta name="description" content="Desc"></head></html>`)

	meta, err := parseMeta(html)
	if err != nil {
		t.Fatalf("parseMeta: %v", err)
	}
	if meta.Title != "Plain" || meta.Description != "Desc" || meta.ImageURL != "" {
		t.Fatalf("unexpected meta %#v", meta)
	}
}

func TestResolveURLHandlesRelative(t *testing.T) {
	got := resolveURL("/img.png", "https://example.com/articles/1")
	if got != "https://example.com/img.png" {
		t.Fatalf("resolveURL got %q", got)
	}

	if got := resolveURL("", "https://example.com"); got != "" {
		t.Fatalf("expected empty string, got %q", got)
	}
}

func TestScraperEnrichesItems(t *testing.T) {
	page := []byte(`<html><head>
<meta property="og:description" content="Summary">
<meta property="og:image" content="/pic.jpg">
</head></html>`)
	client := &stubHTTPClient{resps: map[string]httpclient.Response{
		"https://example.com/a": stubHTTPResponse{body: page, statusCode: 200},
		"https://example.com/b": stubHTTPResponse{statusCode: 404},
	}}
	scraper := NewScraper(client, map[string]string{"User-Agent": "ua"}, 0, nil)

	items := []domain.NewsItem{
		{Title: "A", URL: "https://example.com/a"},
		{Title: "B", URL: "https://example.com/b"},
		{Title: "C", URL: "https://example.com/c"},
	}
	got := scraper.Enrich(context.Background(), items)
	if len(got) != 3 {
		t.Fatalf("expected 3 articles, got %d", len(got))
	}
	if got[0].Description != "Summary" || got[0].ImageURL != "https://example.com/pic.jpg" || got[0].Title != "A" {
		t.Fatalf("unexpected enrichment %#v", got[0])
	}
	if got[1].Item != items[1] || got[1].Description != "" || got[1].Title != "B" {
		t.Fatalf("failed scrape should keep item untouched, got %#v", got[1])
	}
	if got[2].Item != items[2] {
		t.Fatalf("transport failure should keep item, got %#v", got[2])
	}
	if client.headers["User-Agent"] != "ua" {
		t.Fatalf("expected headers to be forwarded, got %#v", client.headers)
	}
}

func TestScraperLimitsBody(t *testing.T) {
	body := bytes.Repeat([]byte("a"), maxHTMLBodyBytes+10)
	client := &stubHTTPClient{resps: map[string]httpclient.Response{
		"https://example.com": stubHTTPResponse{body: body, statusCode: 200},
	}}

	scraper := NewScraper(client, nil, time.Millisecond, nil)
	enriched := scraper.Enrich(context.Background(), []domain.NewsItem{{URL: "https://example.com"}})
	if len(enriched) != 1 {
		t.Fatalf("expected 1 article")
	}
	if enriched[0].Title != "" {
		t.Fatalf("expected empty title because body had no metadata")
	}
}

func TestScraperStopsOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	scraper := NewScraper(&stubHTTPClient{}, nil, 0, nil)
	if got := scraper.Enrich(ctx, []domain.NewsItem{{URL: "https://example.com"}}); len(got) != 0 {
		t.Fatalf("expected no articles after cancel, got %d", len(got))
	}
}

func TestPassthroughKeepsTitles(t *testing.T) {
	got := Passthrough{}.Enrich(context.Background(), []domain.NewsItem{{Title: "T"}})
	if len(got) != 1 || got[0].Title != "T" {
		t.Fatalf("unexpected passthrough %#v", got)
	}
}

func TestFirstNonEmpty(t *testing.T) {
	if got := firstNonEmpty("", " ", "foo", "bar"); got != "foo" {
		t.Fatalf("firstNonEmpty returned %q", got)
	}
}
