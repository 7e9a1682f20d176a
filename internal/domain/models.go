package domain

import (
	"crypto/sha1" //nolint:gosec // non-cryptographic id generation
	"encoding/hex"
	"fmt"
	"slices"
	"strings"
	"time"
)

// Domain contains core models shared by the loader and its consumers.

const (
	// NoAuthor is assigned when the source lists no contributor for an article.
	NoAuthor = "no author"

	// PublishedAtLayout is the fixed pattern of webPublicationDate values.
	PublishedAtLayout = "2006-01-02T15:04:05Z"

	// DefaultSection is the section value meaning "no filter".
	DefaultSection = "all"
)

// NewsItem is a single decoded article. Values are never mutated after decoding.
type NewsItem struct {
	Author      string `json:"author"`
	Section     string `json:"section"`
	Title       string `json:"title"`
	PublishedAt string `json:"published_at"`
	URL         string `json:"url"`
}

// ID derives a stable identifier from the article URL.
func (n NewsItem) ID() string {
	sum := sha1.Sum([]byte(n.URL))
	return hex.EncodeToString(sum[:])
}

// PublishedTime parses PublishedAt using PublishedAtLayout.
func (n NewsItem) PublishedTime() (time.Time, error) {
	t, err := time.Parse(PublishedAtLayout, n.PublishedAt)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse published_at %q: %w", n.PublishedAt, err)
	}
	return t, nil
}

// SortOrder controls the order-by parameter of a search request.
type SortOrder int

const (
	SortNewest SortOrder = iota
	SortOldest
	SortRelevance
)

func (s SortOrder) String() string {
	switch s {
	case SortOldest:
		return "oldest"
	case SortRelevance:
		return "relevance"
	default:
		return "newest"
	}
}

// ParseSortOrder maps a configuration value onto a SortOrder.
func ParseSortOrder(raw string) (SortOrder, error) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "", "newest":
		return SortNewest, nil
	case "oldest":
		return SortOldest, nil
	case "relevance":
		return SortRelevance, nil
	default:
		return SortNewest, fmt.Errorf("unknown sort order %q", raw)
	}
}

// LoaderConfig is the immutable input of one load cycle.
type LoaderConfig struct {
	// Sections is treated as a set; an empty set means no filter.
	Sections  []string
	SortOrder SortOrder
	PageSize  int
	APIKey    string
	// DefaultSection overrides the package DefaultSection when non-empty.
	DefaultSection string
}

// DefaultSectionValue returns the section value that disables filtering.
func (c LoaderConfig) DefaultSectionValue() string {
	if v := strings.TrimSpace(c.DefaultSection); v != "" {
		return v
	}
	return DefaultSection
}

// NormalizedSections returns the trimmed, de-duplicated and sorted section set.
func (c LoaderConfig) NormalizedSections() []string {
	if len(c.Sections) == 0 {
		return nil
	}
	seen := make(map[string]struct{}, len(c.Sections))
	out := make([]string, 0, len(c.Sections))
	for _, s := range c.Sections {
		s = strings.TrimSpace(s)
		if s == "" {
			continue
		}
		if _, ok := seen[s]; ok {
			continue
		}
		seen[s] = struct{}{}
		out = append(out, s)
	}
	slices.Sort(out)
	return out
}
