package newsapi

import (
	"reflect"
	"testing"

	"github.com/samvad-hq/newsfeed/internal/domain"
)

const testBaseURL = "https://content.guardianapis.com/search"

func TestBuildRequestParameterOrder(t *testing.T) {
	req := BuildRequest(domain.LoaderConfig{
		Sections:  []string{"sport", "politics"},
		SortOrder: domain.SortOldest,
		PageSize:  15,
		APIKey:    "key-1",
	}, testBaseURL)

	want := testBaseURL + "?q=politics%2Csport&order-by=oldest&page-size=15&api-key=key-1&show-tags=contributor"
	if got := req.String(); got != want {
		t.Fatalf("url = %q, want %q", got, want)
	}
	keys := make([]string, 0, len(req.Params))
	for _, p := range req.Params {
		keys = append(keys, p.Key)
	}
	wantKeys := []string{ParamQuery, ParamOrderBy, ParamPageSize, ParamAPIKey, ParamShowTags}
	if !reflect.DeepEqual(keys, wantKeys) {
		t.Fatalf("param order = %v, want %v", keys, wantKeys)
	}
}

func TestBuildRequestDeterministic(t *testing.T) {
	cfg := domain.LoaderConfig{
		Sections:  []string{"b", "a", "c"},
		SortOrder: domain.SortRelevance,
		PageSize:  50,
		APIKey:    "k",
	}
	first := BuildRequest(cfg, testBaseURL)
	for i := 0; i < 10; i++ {
		next := BuildRequest(cfg, testBaseURL)
		if !reflect.DeepEqual(first, next) {
			t.Fatalf("request %d = %+v, want %+v", i, next, first)
		}
	}

	reordered := cfg
	reordered.Sections = []string{"c", "a", "b", "a"}
	if got := BuildRequest(reordered, testBaseURL).String(); got != first.String() {
		t.Fatalf("reordered sections gave %q, want %q", got, first.String())
	}
}

func TestBuildRequestOmitsQueryForNoFilter(t *testing.T) {
	cases := []struct {
		name     string
		cfg      domain.LoaderConfig
		expectQ  bool
		expected string
	}{
		{name: "empty set", cfg: domain.LoaderConfig{}},
		{name: "blank entries", cfg: domain.LoaderConfig{Sections: []string{" ", ""}}},
		{name: "default section", cfg: domain.LoaderConfig{Sections: []string{domain.DefaultSection}}},
		{name: "custom default", cfg: domain.LoaderConfig{Sections: []string{"everything"}, DefaultSection: "everything"}},
		{name: "default plus other", cfg: domain.LoaderConfig{Sections: []string{domain.DefaultSection, "sport"}}, expectQ: true, expected: "all,sport"},
		{name: "single section", cfg: domain.LoaderConfig{Sections: []string{"sport"}}, expectQ: true, expected: "sport"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			q, ok := BuildRequest(tc.cfg, testBaseURL).Get(ParamQuery)
			if ok != tc.expectQ || q != tc.expected {
				t.Fatalf("q = %q (present=%v), want %q (present=%v)", q, ok, tc.expected, tc.expectQ)
			}
		})
	}
}

func TestBuildRequestClampsPageSize(t *testing.T) {
	for in, want := range map[int]string{-5: "1", 0: "1", 1: "1", 200: "200", 500: "200"} {
		got, ok := BuildRequest(domain.LoaderConfig{PageSize: in}, testBaseURL).Get(ParamPageSize)
		if !ok || got != want {
			t.Fatalf("page size %d: got %q (present=%v), want %q", in, got, ok, want)
		}
	}
}

func TestRequestStringAppendsToExistingQuery(t *testing.T) {
	req := BuildRequest(domain.LoaderConfig{PageSize: 3, APIKey: "k"}, testBaseURL+"?format=json")
	want := testBaseURL + "?format=json&order-by=newest&page-size=3&api-key=k&show-tags=contributor"
	if got := req.String(); got != want {
		t.Fatalf("url = %q, want %q", got, want)
	}
}
