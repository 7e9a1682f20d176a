// Package newsapi talks to a Guardian-style content search endpoint.
package newsapi

import (
	"net/url"
	"strconv"
	"strings"

	"github.com/samvad-hq/newsfeed/internal/domain"
)

const (
	DefaultBaseURL = "https://content.guardianapis.com/search"

	MinPageSize = 1
	MaxPageSize = 200

	ParamQuery    = "q"
	ParamOrderBy  = "order-by"
	ParamPageSize = "page-size"
	ParamAPIKey   = "api-key"
	ParamShowTags = "show-tags"

	showTagsContributor = "contributor"
	sectionSeparator    = ","
)

// Param is a single query parameter.
type Param struct {
	Key   string
	Value string
}

// Request is an immutable search request: base URL plus ordered query parameters.
type Request struct {
	BaseURL string
	Params  []Param
}

// Get returns the value of the first parameter named key.
func (r Request) Get(key string) (string, bool) {
	for _, p := range r.Params {
		if p.Key == key {
			return p.Value, true
		}
	}
	return "", false
}

// String renders the request URL, keeping parameter order.
func (r Request) String() string {
	if len(r.Params) == 0 {
		return r.BaseURL
	}

	var b strings.Builder
	b.WriteString(r.BaseURL)
	sep := "?"
	if strings.Contains(r.BaseURL, "?") {
		sep = "&"
		if strings.HasSuffix(r.BaseURL, "?") || strings.HasSuffix(r.BaseURL, "&") {
			sep = ""
		}
	}
	for _, p := range r.Params {
		b.WriteString(sep)
		b.WriteString(url.QueryEscape(p.Key))
		b.WriteByte('=')
		b.WriteString(url.QueryEscape(p.Value))
		sep = "&"
	}
	return b.String()
}

// BuildRequest turns a loader config into a search request. It never fails; a malformed
// baseURL is the caller's problem and surfaces later as a transport error.
func BuildRequest(cfg domain.LoaderConfig, baseURL string) Request {
	params := make([]Param, 0, 5)

	if q := sectionQuery(cfg); q != "" {
		params = append(params, Param{Key: ParamQuery, Value: q})
	}
	params = append(params,
		Param{Key: ParamOrderBy, Value: cfg.SortOrder.String()},
		Param{Key: ParamPageSize, Value: strconv.Itoa(ClampPageSize(cfg.PageSize))},
		Param{Key: ParamAPIKey, Value: cfg.APIKey},
		Param{Key: ParamShowTags, Value: showTagsContributor},
	)

	return Request{BaseURL: strings.TrimSpace(baseURL), Params: params}
}

// sectionQuery returns the comma-joined section filter, or "" when no filter applies.
func sectionQuery(cfg domain.LoaderConfig) string {
	sections := cfg.NormalizedSections()
	if len(sections) == 0 {
		return ""
	}
	if len(sections) == 1 && sections[0] == cfg.DefaultSectionValue() {
		return ""
	}
	return strings.Join(sections, sectionSeparator)
}

// ClampPageSize bounds n to the range accepted by the endpoint.
func ClampPageSize(n int) int {
	if n < MinPageSize {
		return MinPageSize
	}
	if n > MaxPageSize {
		return MaxPageSize
	}
	return n
}
