// Package errors defines typed errors with categories for user-friendly reporting.
// Every failure that ends a query session carries a Kind so the error channel
// can tell a failed fetch from a stream that broke halfway through, while the
// underlying transport error stays reachable through errors.Is / errors.As.
package errors

import (
	stderrors "errors"
	"fmt"
)

// Kind is a machine-readable error category.
type Kind string

const (
	// FetchFailed indicates the initial request could not be resolved.
	FetchFailed Kind = "fetch_failed"
	// StreamFailed indicates an error while pulling the next element of a stream.
	StreamFailed Kind = "stream_failed"
	// ConsumerPanic indicates a panic recovered inside a consumption run.
	ConsumerPanic Kind = "consumer_panic"
	// ConfigInvalid indicates unusable configuration (endpoint, query document).
	ConfigInvalid Kind = "config_invalid"
)

// E wraps an error with kind and human-friendly message.
type E struct {
	Kind    Kind
	Message string
	Err     error
}

func (e *E) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *E) Unwrap() error { return e.Err }

// Is matches another *E of the same kind, so errors.Is(err, errors.New(FetchFailed, ""))
// works regardless of message.
func (e *E) Is(target error) bool {
	t, ok := target.(*E)
	if !ok {
		return false
	}
	return t.Kind == e.Kind
}

func Wrap(kind Kind, msg string, err error) *E { return &E{Kind: kind, Message: msg, Err: err} }
func New(kind Kind, msg string) *E             { return &E{Kind: kind, Message: msg} }

// KindOf returns the kind of the first *E in err's chain, or "" when there is none.
func KindOf(err error) Kind {
	var e *E
	if stderrors.As(err, &e) {
		return e.Kind
	}
	return ""
}
