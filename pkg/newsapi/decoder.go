package newsapi

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/samvad-hq/newsfeed/internal/domain"
)

// searchEnvelope mirrors the top level of a search response.
type searchEnvelope struct {
	Response *struct {
		Results *[]json.RawMessage `json:"results"`
	} `json:"response"`
}

// searchResult mirrors one element of response.results. Pointers distinguish
// missing keys from empty strings.
type searchResult struct {
	SectionName        *string     `json:"sectionName"`
	WebTitle           *string     `json:"webTitle"`
	WebPublicationDate *string     `json:"webPublicationDate"`
	WebURL             *string     `json:"webUrl"`
	Tags               []searchTag `json:"tags"`
}

type searchTag struct {
	WebTitle *string `json:"webTitle"`
}

// Decoder turns search response bodies into news items.
type Decoder struct{}

// NewDecoder returns a Decoder.
func NewDecoder() Decoder { return Decoder{} }

// Decode parses body. A blank body or a JSON null is DecodeEmpty. A malformed element is dropped on its own; when that happens the
// remaining items are returned together with a DecodePartial error.
func (Decoder) Decode(body []byte) ([]domain.NewsItem, error) {
	trimmed := bytes.TrimSpace(body)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return nil, &DecodeError{Kind: DecodeEmpty}
	}

	var env searchEnvelope
	if err := json.Unmarshal(body, &env); err != nil {
		return nil, &DecodeError{Kind: DecodeMalformed, Err: fmt.Errorf("decode search response: %w", err)}
	}
	if env.Response == nil || env.Response.Results == nil {
		return nil, &DecodeError{Kind: DecodeMalformed, Err: errors.New("response.results is missing")}
	}

	results := *env.Response.Results
	items := make([]domain.NewsItem, 0, len(results))
	failed := 0
	for _, raw := range results {
		item, err := decodeResult(raw)
		if err != nil {
			failed++
			continue
		}
		items = append(items, item)
	}

	if failed > 0 {
		return items, &DecodeError{Kind: DecodePartial, Failed: failed}
	}
	return items, nil
}

func decodeResult(raw json.RawMessage) (domain.NewsItem, error) {
	var res searchResult
	if err := json.Unmarshal(raw, &res); err != nil {
		return domain.NewsItem{}, fmt.Errorf("decode result: %w", err)
	}

	switch {
	case res.SectionName == nil:
		return domain.NewsItem{}, errors.New("sectionName is missing")
	case res.WebTitle == nil:
		return domain.NewsItem{}, errors.New("webTitle is missing")
	case res.WebPublicationDate == nil:
		return domain.NewsItem{}, errors.New("webPublicationDate is missing")
	case res.WebURL == nil:
		return domain.NewsItem{}, errors.New("webUrl is missing")
	}

	return domain.NewsItem{
		Author:      authorOf(res.Tags),
		Section:     *res.SectionName,
		Title:       *res.WebTitle,
		PublishedAt: *res.WebPublicationDate,
		URL:         *res.WebURL,
	}, nil
}

// authorOf takes the first contributor tag title.
func authorOf(tags []searchTag) string {
	if len(tags) == 0 || tags[0].WebTitle == nil || *tags[0].WebTitle == "" {
		return domain.NoAuthor
	}
	return *tags[0].WebTitle
}
