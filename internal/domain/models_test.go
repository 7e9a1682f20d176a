package domain

import (
	"testing"
	"time"
)

func TestNormalizedSectionsDedupesAndSorts(t *testing.T) {
	cfg := LoaderConfig{Sections: []string{" sport", "politics", "sport", ""}}
	got := cfg.NormalizedSections()
	if len(got) != 2 || got[0] != "politics" || got[1] != "sport" {
		t.Fatalf("unexpected sections %#v", got)
	}
	if (LoaderConfig{}).NormalizedSections() != nil {
		t.Fatalf("expected nil for empty section set")
	}
}

func TestParseSortOrder(t *testing.T) {
	cases := map[string]SortOrder{
		"":          SortNewest,
		"Newest":    SortNewest,
		"oldest":    SortOldest,
		"relevance": SortRelevance,
	}
	for raw, want := range cases {
		got, err := ParseSortOrder(raw)
		if err != nil || got != want {
			t.Fatalf("ParseSortOrder(%q) = %v, %v", raw, got, err)
		}
	}
	if _, err := ParseSortOrder("random"); err == nil {
		t.Fatalf("expected error for unknown order")
	}
}

func TestNewsItemPublishedTime(t *testing.T) {
	item := NewsItem{PublishedAt: "2018-05-02T10:00:00Z"}
	got, err := item.PublishedTime()
	if err != nil {
		t.Fatalf("PublishedTime: %v", err)
	}
	if !got.Equal(time.Date(2018, time.May, 2, 10, 0, 0, 0, time.UTC)) {
		t.Fatalf("unexpected time %v", got)
	}
	if _, err := (NewsItem{PublishedAt: "yesterday"}).PublishedTime(); err == nil {
		t.Fatalf("expected parse error")
	}
}

func TestNewsItemIDStableByURL(t *testing.T) {
	a := NewsItem{URL: "https://example.com/a", Title: "one"}
	b := NewsItem{URL: "https://example.com/a", Title: "two"}
	if a.ID() != b.ID() || len(a.ID()) != 40 {
		t.Fatalf("expected equal sha1 ids, got %q and %q", a.ID(), b.ID())
	}
}
