// Copyright (c) 2025 Graphwatch
// Licensed under the MIT License. See LICENSE file in the project root for details.

// Package session consumes query outcomes on behalf of an interested
// component and keeps a single observable result in sync with them.
//
// A Guard activates one Session. The session owns a Token that starts live
// and is revoked exactly once, either by Session.Deactivate or when the
// consumption run ends on its own. The Consumer checks the token before every
// publish, so once Deactivate returns no further payload from that session
// reaches the sink. Deactivation is cooperative: a pull that is already
// waiting for the next stream element is allowed to finish and its element is
// dropped.
package session

import (
	"sync"
	"sync/atomic"

	"github.com/google/uuid"
)

// Token is the liveness flag of one session.
type Token struct {
	id   string
	mu   sync.Mutex
	live atomic.Bool
}

// NewToken returns a live token with a fresh session id.
func NewToken() *Token {
	t := &Token{id: uuid.NewString()}
	t.live.Store(true)
	return t
}

// ID returns the session id the token belongs to.
func (t *Token) ID() string { return t.id }

// IsLive reports whether publishing is still permitted.
func (t *Token) IsLive() bool { return t.live.Load() }

// Revoke marks the token dead. It waits for a publish in progress to return.
// It reports whether this call changed the token; later calls are no-ops.
func (t *Token) Revoke() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.live.Swap(false)
}

// WhileLive runs fn only if the token is live, and keeps Revoke from
// completing until fn returns. fn must not revoke the same token.
func (t *Token) WhileLive(fn func()) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	if !t.live.Load() {
		return false
	}
	fn()
	return true
}
