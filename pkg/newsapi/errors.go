package newsapi

import (
	"errors"
	"fmt"
)

var errEmptyBaseURL = errors.New("base url is empty")

// FetchErrorKind classifies a failed HTTP retrieval.
type FetchErrorKind int

const (
	// FetchTransport covers DNS, dial, timeout, malformed URL and cancellation failures.
	FetchTransport FetchErrorKind = iota + 1
	// FetchBadStatus means the server answered with a status other than 200.
	FetchBadStatus
)

// FetchError is returned by Fetcher.Fetch.
type FetchError struct {
	Kind       FetchErrorKind
	StatusCode int
	URL        string
	Err        error
}

func (e *FetchError) Error() string {
	switch e.Kind {
	case FetchBadStatus:
		return fmt.Sprintf("news api returned status %d", e.StatusCode)
	default:
		if e.Err == nil {
			return "news api transport failure"
		}
		return fmt.Sprintf("news api transport failure: %v", e.Err)
	}
}

func (e *FetchError) Unwrap() error { return e.Err }

// DecodeErrorKind classifies a failed or incomplete decode.
type DecodeErrorKind int

const (
	// DecodeEmpty means the body was nil or blank.
	DecodeEmpty DecodeErrorKind = iota + 1
	// DecodeMalformed means the body was not the expected JSON document.
	DecodeMalformed
	// DecodePartial means some result elements were dropped.
	DecodePartial
)

// DecodeError is returned by Decoder.Decode.
type DecodeError struct {
	Kind DecodeErrorKind
	// Failed counts dropped elements for DecodePartial.
	Failed int
	Err    error
}

func (e *DecodeError) Error() string {
	switch e.Kind {
	case DecodeEmpty:
		return "news api response body is empty"
	case DecodePartial:
		return fmt.Sprintf("news api response had %d malformed results", e.Failed)
	default:
		if e.Err == nil {
			return "news api response is malformed"
		}
		return fmt.Sprintf("news api response is malformed: %v", e.Err)
	}
}

func (e *DecodeError) Unwrap() error { return e.Err }
