package httpclient

import "context"

// Response is a minimal HTTP response contract.
// For Get the body is only populated on 200 OK; Send always reads it.
type Response interface {
	Body() []byte
	StatusCode() int
}

// Client abstracts HTTP calls so callers can inject mocks or different transports.
type Client interface {
	Get(ctx context.Context, url string, headers map[string]string) (Response, error)
}

// Sender delivers a request body with an arbitrary method.
type Sender interface {
	Send(ctx context.Context, method, url string, headers map[string]string, body []byte) (Response, error)
}
