// Copyright (c) 2025 Graphwatch
// Licensed under the MIT License. See LICENSE file in the project root for details.

package query

import (
	"context"
	"fmt"
)

// Kind tells which shape an Outcome holds.
type Kind uint8

const (
	KindInvalid Kind = iota
	KindSnapshot
	KindStream
)

func (k Kind) String() string {
	switch k {
	case KindSnapshot:
		return "snapshot"
	case KindStream:
		return "stream"
	default:
		return "invalid"
	}
}

// Stream is a pull iterator over payloads produced over time.
//
// Next blocks until the next payload is available, the stream ends, or ctx is
// done. It returns (_, false, nil) once exhausted. A stream cannot be
// restarted. Close releases the underlying transport handle; it is safe to
// call more than once and after exhaustion.
type Stream interface {
	Next(ctx context.Context) (Payload, bool, error)
	Close() error
}

// Outcome is what a fetch resolves to: a single snapshot or a stream.
// The zero value is invalid.
type Outcome struct {
	kind     Kind
	snapshot Payload
	stream   Stream
}

// Snapshot wraps a one-shot result.
func Snapshot(p Payload) Outcome {
	return Outcome{kind: KindSnapshot, snapshot: p}
}

// Streaming wraps a live result stream. It panics on a nil stream.
func Streaming(s Stream) Outcome {
	if s == nil {
		panic("query: Streaming called with nil stream")
	}
	return Outcome{kind: KindStream, stream: s}
}

// Kind returns the shape held by o.
func (o Outcome) Kind() Kind { return o.kind }

// Snapshot returns the payload when o holds a snapshot.
func (o Outcome) Snapshot() (Payload, bool) {
	if o.kind != KindSnapshot {
		return Payload{}, false
	}
	return o.snapshot, true
}

// Stream returns the stream when o holds one.
func (o Outcome) Stream() (Stream, bool) {
	if o.kind != KindStream {
		return nil, false
	}
	return o.stream, true
}

func (o Outcome) String() string {
	return fmt.Sprintf("Outcome(%s)", o.kind)
}

// Fetcher resolves a request against a data service.
type Fetcher interface {
	Fetch(ctx context.Context, req Request) (Outcome, error)
}

// FetcherFunc adapts a function to Fetcher.
type FetcherFunc func(ctx context.Context, req Request) (Outcome, error)

func (f FetcherFunc) Fetch(ctx context.Context, req Request) (Outcome, error) {
	return f(ctx, req)
}
