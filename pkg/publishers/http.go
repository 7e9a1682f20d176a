package publishers

import (
	"context"
	"encoding/json"
	"fmt"
	"maps"
	"strings"

	"github.com/samvad-hq/newsfeed/internal/logger"
	"github.com/samvad-hq/newsfeed/pkg/httpclient"
)

const maxErrorSnippet = 256

// webhookPublisher sends every event as a JSON body and mirrors the queue message
// attributes as X-Newsfeed-* headers.
type webhookPublisher struct {
	id      string
	method  string
	url     string
	headers map[string]string
	client  httpclient.Sender
	log     logger.Logger
}

func newWebhookPublisher(_ context.Context, cfg PublisherConfig, log logger.Logger) (Publisher, error) {
	if cfg.HTTP == nil {
		return nil, fmt.Errorf("publisher %q missing http configuration", cfg.ID)
	}
	return &webhookPublisher{
		id:      cfg.ID,
		method:  cfg.HTTP.Method,
		url:     cfg.HTTP.URL,
		headers: cfg.HTTP.Headers,
		client:  httpclient.NewRestyClient(cfg.HTTP.timeout()),
		log:     logger.Ensure(log),
	}, nil
}

func (w *webhookPublisher) ID() string   { return w.id }
func (w *webhookPublisher) Type() string { return TypeHTTP }

func (w *webhookPublisher) Publish(ctx context.Context, evt Event) error {
	payload, err := json.Marshal(evt)
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}

	headers := maps.Clone(w.headers)
	if headers == nil {
		headers = make(map[string]string, 4)
	}
	headers["Content-Type"] = "application/json"
	for k, v := range evt.attributes() {
		headers[attributeHeader(k)] = v
	}

	resp, err := w.client.Send(ctx, w.method, w.url, headers, payload)
	if err != nil {
		return fmt.Errorf("%s %s: %w", w.method, w.url, err)
	}
	if code := resp.StatusCode(); code < 200 || code > 299 {
		return fmt.Errorf("%s %s: status %d: %s", w.method, w.url, code, snippet(resp.Body()))
	}
	w.log.DebugObj("webhook accepted event", "publisher_http_delivery", map[string]any{
		"publisher_id": w.id,
		"item_id":      evt.ItemID,
		"section":      evt.Item.Section,
		"status":       resp.StatusCode(),
	})
	return nil
}

// attributeHeader maps an attribute key such as item_id to X-Newsfeed-Item-Id.
func attributeHeader(key string) string {
	parts := strings.Split(key, "_")
	for i, p := range parts {
		if p != "" {
			parts[i] = strings.ToUpper(p[:1]) + p[1:]
		}
	}
	return "X-Newsfeed-" + strings.Join(parts, "-")
}

func snippet(body []byte) string {
	if len(body) > maxErrorSnippet {
		body = body[:maxErrorSnippet]
	}
	return strings.TrimSpace(string(body))
}
