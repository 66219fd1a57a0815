// Copyright (c) 2025 Graphwatch
// Licensed under the MIT License. See LICENSE file in the project root for details.

package session

import (
	"context"
	"errors"
	"fmt"

	apperrors "graphwatch/cli/internal/errors"
	"graphwatch/cli/internal/query"
)

// Sink receives every payload a session observes. Publish must be cheap and
// must not deactivate the session that calls it.
type Sink interface {
	Publish(p query.Payload)
}

// SinkFunc adapts a function to Sink.
type SinkFunc func(p query.Payload)

func (f SinkFunc) Publish(p query.Payload) { f(p) }

// ErrorReporter is the error channel. It receives one report per failed session.
type ErrorReporter interface {
	Report(sessionID string, err error)
}

// ReporterFunc adapts a function to ErrorReporter.
type ReporterFunc func(sessionID string, err error)

func (f ReporterFunc) Report(sessionID string, err error) { f(sessionID, err) }

// Logger receives debug traces of consumption runs.
type Logger interface {
	Debug(msg string, kv ...any)
}

type nopLogger struct{}

func (nopLogger) Debug(string, ...any) {}

// Consumer runs one fetch and forwards what it yields to a sink.
type Consumer struct {
	fetcher  query.Fetcher
	reporter ErrorReporter
	logger   Logger
}

// ConsumerOption configures a Consumer.
type ConsumerOption func(*Consumer)

// WithLogger sets the debug logger.
func WithLogger(l Logger) ConsumerOption {
	return func(c *Consumer) {
		if l != nil {
			c.logger = l
		}
	}
}

// NewConsumer creates a consumer. reporter may be nil, in which case failures
// are dropped after being traced.
func NewConsumer(fetcher query.Fetcher, reporter ErrorReporter, opts ...ConsumerOption) *Consumer {
	c := &Consumer{
		fetcher:  fetcher,
		reporter: reporter,
		logger:   nopLogger{},
	}
	for _, opt := range opts {
		if opt != nil {
			opt(c)
		}
	}
	return c
}

// Run fetches req and publishes the result to sink while token is live.
//
// A snapshot is published at most once. A stream is pulled element by
// element until it is exhausted, fails, or the token is revoked; elements
// observed after revocation are dropped and the stream is closed without
// draining. Failures are reported to the error channel and never returned.
// Run blocks until the session ends.
func (c *Consumer) Run(ctx context.Context, req query.Request, sink Sink, token *Token) {
	defer func() {
		if r := recover(); r != nil {
			c.fail(ctx, token, apperrors.Wrap(apperrors.ConsumerPanic, "consumption run panicked", fmt.Errorf("%v", r)))
		}
	}()

	if err := c.consume(ctx, req, sink, token); err != nil {
		c.fail(ctx, token, err)
	}
}

func (c *Consumer) consume(ctx context.Context, req query.Request, sink Sink, token *Token) error {
	c.logger.Debug("fetching query result", "session", token.ID())
	outcome, err := c.fetcher.Fetch(ctx, req)
	if err != nil {
		return apperrors.Wrap(apperrors.FetchFailed, "fetch query result", err)
	}
	c.logger.Debug("fetch resolved", "session", token.ID(), "kind", outcome.Kind().String())

	switch outcome.Kind() {
	case query.KindSnapshot:
		p, _ := outcome.Snapshot()
		if !token.WhileLive(func() { sink.Publish(p) }) {
			c.logger.Debug("snapshot dropped, session no longer live", "session", token.ID())
		}
		return nil

	case query.KindStream:
		s, _ := outcome.Stream()
		defer func() {
			if err := s.Close(); err != nil {
				c.logger.Debug("closing stream failed", "session", token.ID(), "error", err)
			}
		}()
		return c.drain(ctx, s, sink, token)

	default:
		return apperrors.New(apperrors.FetchFailed, "fetch resolved to an invalid outcome")
	}
}

func (c *Consumer) drain(ctx context.Context, s query.Stream, sink Sink, token *Token) error {
	for n := 1; ; n++ {
		if !token.IsLive() {
			c.logger.Debug("stream abandoned before pull", "session", token.ID(), "element", n)
			return nil
		}
		p, ok, err := s.Next(ctx)
		if err != nil {
			return apperrors.Wrap(apperrors.StreamFailed, fmt.Sprintf("pull stream element %d", n), err)
		}
		if !ok {
			c.logger.Debug("stream exhausted", "session", token.ID(), "elements", n-1)
			return nil
		}
		if !token.WhileLive(func() { sink.Publish(p) }) {
			c.logger.Debug("stream element dropped, session no longer live", "session", token.ID(), "element", n)
			return nil
		}
		c.logger.Debug("stream element published", "session", token.ID(), "element", n, "errors", len(p.Errors), "data", string(p.Data))
	}
}

// fail reports err to the error channel. The only failures dropped are
// those caused by cancelling the run's context after the session was
// deactivated, which is how callers tear a session down.
func (c *Consumer) fail(ctx context.Context, token *Token, err error) {
	if !token.IsLive() && ctx.Err() != nil && errors.Is(err, ctx.Err()) {
		c.logger.Debug("teardown error after deactivation ignored", "session", token.ID(), "error", err)
		return
	}
	c.logger.Debug("session failed", "session", token.ID(), "error", err)
	if c.reporter != nil {
		c.reporter.Report(token.ID(), err)
	}
}
