package enricher

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"github.com/samvad-hq/newsfeed/internal/domain"
	"github.com/samvad-hq/newsfeed/internal/logger"
	"github.com/samvad-hq/newsfeed/pkg/httpclient"
	"github.com/samvad-hq/newsfeed/pkg/newsapi"
)

const (
	maxHTMLBodyBytes = 1 << 20 // 1 MiB
)

// Scraper fetches article pages and extracts metadata from OG tags.
type Scraper struct {
	client  httpclient.Client
	headers map[string]string
	delay   time.Duration
	log     logger.Logger
}

// NewScraper constructs a scraper with the provided HTTP client (or default).
// delay throttles consecutive page fetches.
func NewScraper(client httpclient.Client, headers map[string]string, delay time.Duration, log logger.Logger) *Scraper {
	if client == nil {
		client = newsapi.DefaultHTTPClient()
	}
	return &Scraper{
		client:  client,
		headers: headers,
		delay:   delay,
		log:     logger.Ensure(log),
	}
}

// Enrich fetches each item's page (with throttling) and merges OG metadata. A failed
// scrape keeps the item with its own title. On cancellation the articles processed so
// far are returned.
func (s *Scraper) Enrich(ctx context.Context, items []domain.NewsItem) []Article {
	out := make([]Article, 0, len(items))

	for i, it := range items {
		select {
		case <-ctx.Done():
			return out
		default:
		}

		art, err := s.fetchAndParse(ctx, it)
		if err != nil {
			s.log.WarnObj("article metadata scrape failed", "metadata_error", map[string]any{
				"item_id": it.ID(),
				"url":     it.URL,
				"error":   err.Error(),
			})
		}
		out = append(out, art)

		if s.delay > 0 && i < len(items)-1 {
			timer := time.NewTimer(s.delay)
			select {
			case <-ctx.Done():
				timer.Stop()
				return out
			case <-timer.C:
			}
		}
	}

	return out
}

func (s *Scraper) fetchAndParse(ctx context.Context, it domain.NewsItem) (Article, error) {
	art := Article{Item: it, Title: it.Title}

	resp, err := s.client.Get(ctx, it.URL, s.headers)
	if err != nil {
		return art, fmt.Errorf("http fetch: %w", err)
	}
	if resp.StatusCode() != http.StatusOK {
		return art, fmt.Errorf("unexpected status %d", resp.StatusCode())
	}

	body := resp.Body()
	if len(body) > maxHTMLBodyBytes {
		body = body[:maxHTMLBodyBytes]
	}

	meta, err := parseMeta(body)
	if err != nil {
		return art, err
	}
	if meta.Title != "" {
		art.Title = meta.Title
	}
	art.Description = meta.Description
	art.ImageURL = resolveURL(meta.ImageURL, it.URL)

	return art, nil
}

func parseMeta(body []byte) (pageMeta, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return pageMeta{}, fmt.Errorf("parse html: %w", err)
	}

	extract := func(sel string) string {
		if node := doc.Find(sel).First(); node.Length() > 0 {
			if val, ok := node.Attr("content"); ok {
				return strings.TrimSpace(val)
			}
		}
		return ""
	}

	return pageMeta{
		Title: firstNonEmpty(
			extract(`meta[property="og:title"]`),
			doc.Find("title").First().Text(),
		),
		Description: firstNonEmpty(
			extract(`meta[property="og:description"]`),
			extract(`meta[name="description"]`),
		),
		ImageURL: firstNonEmpty(
			extract(`meta[property="og:image"]`),
			extract(`meta[name="twitter:image"]`),
		),
	}, nil
}

type pageMeta struct {
	Title       string
	Description string
	ImageURL    string
}

// resolveURL makes ref absolute against base. Unparseable input is returned as is.
func resolveURL(ref, base string) string {
	ref = strings.TrimSpace(ref)
	if ref == "" {
		return ""
	}
	refURL, err := url.Parse(ref)
	if err != nil {
		return ref
	}
	baseURL, err := url.Parse(base)
	if err != nil {
		return ref
	}
	return baseURL.ResolveReference(refURL).String()
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			return v
		}
	}
	return ""
}
