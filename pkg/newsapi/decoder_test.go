package newsapi

import (
	"errors"
	"os"
	"testing"

	"github.com/samvad-hq/newsfeed/internal/domain"
)

func readFixture(t *testing.T, name string) []byte {
	t.Helper()
	raw, err := os.ReadFile("testdata/" + name)
	if err != nil {
		t.Fatalf("read fixture %s: %v", name, err)
	}
	return raw
}

func decodeErrKind(t *testing.T, err error, label string) *DecodeError {
	t.Helper()
	var decErr *DecodeError
	if !errors.As(err, &decErr) {
		t.Fatalf("%s: expected *DecodeError, got %v", label, err)
	}
	return decErr
}

func TestDecodeWellFormedPreservesOrder(t *testing.T) {
	items, err := NewDecoder().Decode(readFixture(t, "search_three.json"))
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(items) != 3 {
		t.Fatalf("items = %d, want 3", len(items))
	}

	want := domain.NewsItem{
		Author:      "Jane Doe",
		Section:     "World news",
		Title:       "First headline",
		PublishedAt: "2018-05-02T10:00:00Z",
		URL:         "https://www.theguardian.com/world/2018/may/02/one",
	}
	if items[0] != want {
		t.Fatalf("first item = %+v, want %+v", items[0], want)
	}
	if items[1].Title != "Second headline" || items[2].Title != "Third headline" {
		t.Fatalf("order not preserved: %q, %q", items[1].Title, items[2].Title)
	}
	if items[2].Author != "Alex Poe" {
		t.Fatalf("third author = %q, want Alex Poe", items[2].Author)
	}
}

func TestDecodeEmptyTagsFallsBackToNoAuthor(t *testing.T) {
	items, err := NewDecoder().Decode(readFixture(t, "search_three.json"))
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if items[1].Author != domain.NoAuthor {
		t.Fatalf("author = %q, want %q", items[1].Author, domain.NoAuthor)
	}

	body := []byte(`{"response":{"results":[
		{"sectionName":"s","webTitle":"t","webPublicationDate":"2018-05-02T10:00:00Z","webUrl":"u"},
		{"sectionName":"s","webTitle":"t","webPublicationDate":"2018-05-02T10:00:00Z","webUrl":"u","tags":[{"id":"x"}]}
	]}}`)
	items, err = NewDecoder().Decode(body)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(items) != 2 {
		t.Fatalf("items = %d, want 2", len(items))
	}
	for i, item := range items {
		if item.Author != domain.NoAuthor {
			t.Fatalf("item %d author = %q, want %q", i, item.Author, domain.NoAuthor)
		}
	}
}

func TestDecodeEmptyBody(t *testing.T) {
	for _, body := range [][]byte{nil, {}, []byte("  \n"), []byte("null")} {
		items, err := NewDecoder().Decode(body)
		if items != nil {
			t.Fatalf("body %q: items = %+v, want nil", body, items)
		}
		if decErr := decodeErrKind(t, err, string(body)); decErr.Kind != DecodeEmpty {
			t.Fatalf("body %q: kind = %v, want empty", body, decErr.Kind)
		}
	}
}

func TestDecodeMalformed(t *testing.T) {
	bodies := []string{
		`not json`,
		`[]`,
		`{"response":{}}`,
		`{"response":{"results":{}}}`,
		`{"status":"ok"}`,
	}
	for _, body := range bodies {
		items, err := NewDecoder().Decode([]byte(body))
		if items != nil {
			t.Fatalf("body %s: items = %+v, want nil", body, items)
		}
		if decErr := decodeErrKind(t, err, body); decErr.Kind != DecodeMalformed {
			t.Fatalf("body %s: kind = %v, want malformed", body, decErr.Kind)
		}
	}
}

func TestDecodeMissingTitleReportsPartial(t *testing.T) {
	body := []byte(`{"response":{"results":[
		{"sectionName":"a","webTitle":"one","webPublicationDate":"2018-05-02T10:00:00Z","webUrl":"u1","tags":[]},
		{"sectionName":"b","webPublicationDate":"2018-05-02T10:00:00Z","webUrl":"u2","tags":[]},
		{"sectionName":"c","webTitle":"three","webPublicationDate":"2018-05-02T10:00:00Z","webUrl":"u3","tags":[]}
	]}}`)

	items, err := NewDecoder().Decode(body)
	if len(items) != 2 || items[0].Title != "one" || items[1].Title != "three" {
		t.Fatalf("items = %+v, want one and three", items)
	}
	decErr := decodeErrKind(t, err, "missing title")
	if decErr.Kind != DecodePartial || decErr.Failed != 1 {
		t.Fatalf("err = %+v, want partial with 1 dropped", decErr)
	}
}

func TestDecodeNonObjectElementIsDroppedAlone(t *testing.T) {
	body := []byte(`{"response":{"results":[
		42,
		null,
		{"sectionName":"a","webTitle":"kept","webPublicationDate":"2018-05-02T10:00:00Z","webUrl":"u","tags":[]}
	]}}`)

	items, err := NewDecoder().Decode(body)
	if len(items) != 1 || items[0].Title != "kept" {
		t.Fatalf("items = %+v, want the single valid article", items)
	}
	if decErr := decodeErrKind(t, err, "non-object"); decErr.Failed != 2 {
		t.Fatalf("failed = %d, want 2", decErr.Failed)
	}
}

func TestDecodeEmptyResultsIsNotAnError(t *testing.T) {
	items, err := NewDecoder().Decode([]byte(`{"response":{"results":[]}}`))
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(items) != 0 {
		t.Fatalf("items = %+v, want none", items)
	}
}
