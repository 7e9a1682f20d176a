package loader

import (
	"errors"
	"fmt"

	"github.com/samvad-hq/newsfeed/pkg/newsapi"
)

// ErrorKind classifies a failed or degraded load cycle for consumers.
type ErrorKind int

const (
	KindTransport ErrorKind = iota + 1
	KindBadStatus
	KindEmpty
	KindMalformed
	KindPartial
)

func (k ErrorKind) String() string {
	switch k {
	case KindTransport:
		return "transport"
	case KindBadStatus:
		return "bad_status"
	case KindEmpty:
		return "empty"
	case KindMalformed:
		return "malformed"
	case KindPartial:
		return "partial"
	default:
		return "unknown"
	}
}

// LoadError is the single error shape surfaced to consumers. It wraps the
// underlying *newsapi.FetchError or *newsapi.DecodeError.
type LoadError struct {
	Kind       ErrorKind
	StatusCode int
	Failed     int
	Message    string
	Err        error
}

func (e *LoadError) Error() string {
	if e.Err == nil {
		return e.Message
	}
	return fmt.Sprintf("%s: %v", e.Message, e.Err)
}

func (e *LoadError) Unwrap() error { return e.Err }

// Offline reports whether the endpoint could not be reached at all.
func (e *LoadError) Offline() bool { return e != nil && e.Kind == KindTransport }

// classify maps pipeline errors onto a LoadError.
func classify(err error) *LoadError {
	if err == nil {
		return nil
	}

	var loadErr *LoadError
	if errors.As(err, &loadErr) {
		return loadErr
	}

	var fetchErr *newsapi.FetchError
	if errors.As(err, &fetchErr) {
		if fetchErr.Kind == newsapi.FetchBadStatus {
			return &LoadError{
				Kind:       KindBadStatus,
				StatusCode: fetchErr.StatusCode,
				Message:    fmt.Sprintf("request failed with status %d", fetchErr.StatusCode),
				Err:        err,
			}
		}
		return &LoadError{Kind: KindTransport, Message: "news endpoint unreachable", Err: err}
	}

	var decodeErr *newsapi.DecodeError
	if errors.As(err, &decodeErr) {
		switch decodeErr.Kind {
		case newsapi.DecodeEmpty:
			return &LoadError{Kind: KindEmpty, Message: "empty response from news endpoint", Err: err}
		case newsapi.DecodePartial:
			return &LoadError{
				Kind:    KindPartial,
				Failed:  decodeErr.Failed,
				Message: fmt.Sprintf("%d articles could not be parsed", decodeErr.Failed),
				Err:     err,
			}
		default:
			return &LoadError{Kind: KindMalformed, Message: "could not parse news response", Err: err}
		}
	}

	return &LoadError{Kind: KindTransport, Message: "news request failed", Err: err}
}
