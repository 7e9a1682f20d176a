package newsapi

import (
	"context"
	"net/http"
	"strings"

	"github.com/samvad-hq/newsfeed/pkg/httpclient"
)

// HTTPClient aliases the shared httpclient.Client interface for clarity within newsapi.
type HTTPClient = httpclient.Client

// Fetcher performs exactly one GET per call and never retries.
type Fetcher struct {
	client  HTTPClient
	headers map[string]string
}

// NewFetcher builds a fetcher on client, or on a resty client with default timeouts when nil.
func NewFetcher(client HTTPClient, headers map[string]string) *Fetcher {
	if client == nil {
		client = DefaultHTTPClient()
	}
	return &Fetcher{
		client:  client,
		headers: sanitizeHeaders(headers),
	}
}

// DefaultHTTPClient returns a resty client with the 25s connect / 20s read timeouts.
func DefaultHTTPClient() HTTPClient {
	return httpclient.NewRestyClientWithOptions(httpclient.Options{})
}

// Fetch retrieves the body for req. Failures are always *FetchError.
func (f *Fetcher) Fetch(ctx context.Context, req Request) ([]byte, error) {
	target := req.String()
	if strings.TrimSpace(req.BaseURL) == "" {
		return nil, &FetchError{Kind: FetchTransport, URL: target, Err: errEmptyBaseURL}
	}

	resp, err := f.client.Get(ctx, target, f.headers)
	if err != nil {
		return nil, &FetchError{Kind: FetchTransport, URL: target, Err: err}
	}
	if resp.StatusCode() != http.StatusOK {
		return nil, &FetchError{Kind: FetchBadStatus, URL: target, StatusCode: resp.StatusCode()}
	}
	return resp.Body(), nil
}

func sanitizeHeaders(headers map[string]string) map[string]string {
	if len(headers) == 0 {
		return nil
	}
	out := make(map[string]string, len(headers))
	for k, v := range headers {
		key := strings.TrimSpace(k)
		val := strings.TrimSpace(v)
		if key == "" || val == "" {
			continue
		}
		out[key] = val
	}
	if len(out) == 0 {
		return nil
	}
	return out
}
