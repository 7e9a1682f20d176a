package httpclient

import (
	"context"
	"fmt"
	"io"
	"net"
	"net/http"
	"time"

	"github.com/go-resty/resty/v2"
)

const (
	DefaultConnectTimeout = 25 * time.Second
	DefaultReadTimeout    = 20 * time.Second
)

// Options tunes the transport behind a RestyClient.
type Options struct {
	// ConnectTimeout bounds dialing the remote host.
	ConnectTimeout time.Duration
	// ReadTimeout bounds the wait for response headers after the request is written.
	ReadTimeout time.Duration
}

func (o Options) normalized() Options {
	if o.ConnectTimeout <= 0 {
		o.ConnectTimeout = DefaultConnectTimeout
	}
	if o.ReadTimeout <= 0 {
		o.ReadTimeout = DefaultReadTimeout
	}
	return o
}

// RestyClient adapts resty.Client to the httpclient.Client interface.
type RestyClient struct {
	client *resty.Client
}

// NewRestyClient creates a new RestyClient with the specified overall timeout.
func NewRestyClient(timeout time.Duration) *RestyClient {
	return &RestyClient{client: newRestyBaseClient(timeout)}
}

// NewRestyClientWithOptions creates a RestyClient with separate connect and read timeouts.
// The overall request deadline is the sum of both.
func NewRestyClientWithOptions(opts Options) *RestyClient {
	opts = opts.normalized()
	c := newRestyBaseClient(opts.ConnectTimeout + opts.ReadTimeout)
	c.SetTransport(newTransport(opts))
	return &RestyClient{client: c}
}

// newRestyBaseClient creates a new resty.Client with the specified timeout.
func newRestyBaseClient(timeout time.Duration) *resty.Client {
	c := resty.New()
	c.SetTimeout(timeout)
	return c
}

func newTransport(opts Options) *http.Transport {
	dialer := &net.Dialer{
		Timeout:   opts.ConnectTimeout,
		KeepAlive: 30 * time.Second,
	}
	return &http.Transport{
		Proxy:                 http.ProxyFromEnvironment,
		DialContext:           dialer.DialContext,
		TLSHandshakeTimeout:   opts.ConnectTimeout,
		ResponseHeaderTimeout: opts.ReadTimeout,
		MaxIdleConns:          10,
		IdleConnTimeout:       90 * time.Second,
	}
}

// Get performs an HTTP GET request with the specified context, URL, and headers.
// The body is read only when the server answers 200 OK; the connection is released on every path.
func (r *RestyClient) Get(ctx context.Context, url string, headers map[string]string) (Response, error) {
	req := r.client.R().
		SetContext(ctx).
		SetDoNotParseResponse(true)
	if len(headers) > 0 {
		req.SetHeaders(headers)
	}
	resp, err := req.Get(url)
	if err != nil {
		return nil, err
	}

	raw := resp.RawBody()
	if raw == nil {
		return &bufferedResponse{statusCode: resp.StatusCode()}, nil
	}
	defer raw.Close()

	if resp.StatusCode() != http.StatusOK {
		return &bufferedResponse{statusCode: resp.StatusCode()}, nil
	}

	body, err := io.ReadAll(raw)
	if err != nil {
		return nil, fmt.Errorf("read response body: %w", err)
	}
	return &bufferedResponse{body: body, statusCode: resp.StatusCode()}, nil
}

// Send issues method against url with body and returns the response whatever its status.
func (r *RestyClient) Send(ctx context.Context, method, url string, headers map[string]string, body []byte) (Response, error) {
	req := r.client.R().
		SetContext(ctx).
		SetBody(body)
	if len(headers) > 0 {
		req.SetHeaders(headers)
	}
	resp, err := req.Execute(method, url)
	if err != nil {
		return nil, err
	}
	return &bufferedResponse{body: resp.Body(), statusCode: resp.StatusCode()}, nil
}

// bufferedResponse holds a fully read response.
type bufferedResponse struct {
	body       []byte
	statusCode int
}

func (r *bufferedResponse) Body() []byte    { return r.body }
func (r *bufferedResponse) StatusCode() int { return r.statusCode }
