package loader

import (
	"context"

	"github.com/samvad-hq/newsfeed/internal/domain"
	"github.com/samvad-hq/newsfeed/pkg/newsapi"
)

// Fetcher retrieves the raw body for a request.
type Fetcher interface {
	Fetch(ctx context.Context, req newsapi.Request) ([]byte, error)
}

// Decoder turns a raw body into news items.
type Decoder interface {
	Decode(body []byte) ([]domain.NewsItem, error)
}

// Consumer receives the outcome of a load cycle. Callbacks run through the
// loader's Dispatcher while the loader holds its delivery lock, so a callback must
// not call Reset, Attach, Detach or Close on the same loader.
type Consumer interface {
	OnResult(items []domain.NewsItem)
	OnError(err *LoadError)
	OnReset()
}

// Dispatcher runs fn on the caller's event loop. The default runs fn inline on the
// worker goroutine; hosts that call Start/Reset/Attach/Detach from a single goroutine
// should dispatch onto that goroutine so deliveries and control calls are serialized.
type Dispatcher func(fn func())

func inlineDispatcher(fn func()) { fn() }
