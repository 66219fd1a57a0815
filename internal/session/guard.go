// Copyright (c) 2025 Graphwatch
// Licensed under the MIT License. See LICENSE file in the project root for details.

package session

import (
	"context"
	"errors"
	"sync/atomic"
	"time"

	"graphwatch/cli/internal/query"
)

// ErrAlreadyActivated is returned when a guard is activated a second time.
var ErrAlreadyActivated = errors.New("session: guard already activated")

// State is the lifecycle state of a Guard.
type State int32

const (
	StateIdle State = iota
	StateActivating
	StateActive
	StateDeactivated
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateActivating:
		return "activating"
	case StateActive:
		return "active"
	case StateDeactivated:
		return "deactivated"
	default:
		return "unknown"
	}
}

// Guard ties one consumption session to the lifetime of the component that
// asked for it. A guard activates at most once; mount a new guard to start
// another session.
type Guard struct {
	consumer *Consumer
	state    atomic.Int32
}

// NewGuard creates an idle guard that runs sessions on c.
func NewGuard(c *Consumer) *Guard {
	return &Guard{consumer: c}
}

// State returns the current lifecycle state.
func (g *Guard) State() State { return State(g.state.Load()) }

// Activate starts a session for req and returns without waiting for it. The
// session publishes into sink until it is deactivated or the consumption run
// ends. ctx bounds the run itself; cancelling it aborts an in-flight fetch or
// pull.
func (g *Guard) Activate(ctx context.Context, req query.Request, sink Sink) (*Session, error) {
	if !g.state.CompareAndSwap(int32(StateIdle), int32(StateActivating)) {
		return nil, ErrAlreadyActivated
	}

	s := &Session{
		guard:     g,
		token:     NewToken(),
		done:      make(chan struct{}),
		startedAt: time.Now(),
	}
	g.state.Store(int32(StateActive))

	go func() {
		defer close(s.done)
		defer s.end()
		g.consumer.Run(ctx, req, sink, s.token)
	}()

	return s, nil
}

// Session is the handle of one activation.
type Session struct {
	guard     *Guard
	token     *Token
	done      chan struct{}
	startedAt time.Time
}

// ID returns the session id. Error reports carry the same id.
func (s *Session) ID() string { return s.token.ID() }

// StartedAt returns the activation time.
func (s *Session) StartedAt() time.Time { return s.startedAt }

// Live reports whether the session may still publish.
func (s *Session) Live() bool { return s.token.IsLive() }

// Deactivate stops the session from publishing. It does not wait for the
// consumption run to end. Calling it more than once, or after the run ended,
// has no effect.
func (s *Session) Deactivate() {
	s.token.Revoke()
	s.guard.state.Store(int32(StateDeactivated))
}

// Done is closed once the consumption run has returned.
func (s *Session) Done() <-chan struct{} { return s.done }

// Wait blocks until the consumption run returns or ctx is done.
func (s *Session) Wait(ctx context.Context) error {
	select {
	case <-s.done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (s *Session) end() {
	s.token.Revoke()
	s.guard.state.Store(int32(StateDeactivated))
}
