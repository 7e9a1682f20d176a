package enricher

import (
	"context"

	"github.com/samvad-hq/newsfeed/internal/domain"
)

// Article is a delivered news item plus metadata scraped from its page.
type Article struct {
	Item        domain.NewsItem
	Title       string
	Description string
	ImageURL    string
}

// ArticleEnricher decorates news items with page metadata (e.g., OG tags).
type ArticleEnricher interface {
	Enrich(ctx context.Context, items []domain.NewsItem) []Article
}

// Passthrough wraps items without fetching their pages.
type Passthrough struct{}

// Enrich returns one Article per item with only the item's own title.
func (Passthrough) Enrich(_ context.Context, items []domain.NewsItem) []Article {
	out := make([]Article, len(items))
	for i, it := range items {
		out[i] = Article{Item: it, Title: it.Title}
	}
	return out
}
