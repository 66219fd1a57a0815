// Copyright (c) 2025 Graphwatch
// Licensed under the MIT License. See LICENSE file in the project root for details.

package session

import (
	"context"
	"sync"

	"graphwatch/cli/internal/query"
)

// Host mounts guards for one interested component. Mounting a new request
// deactivates the previous session first, so at most one session publishes
// into the host's sink at a time.
type Host struct {
	consumer *Consumer
	sink     Sink

	mu      sync.Mutex
	current *Session
}

// NewHost creates a host publishing into sink.
func NewHost(c *Consumer, sink Sink) *Host {
	return &Host{consumer: c, sink: sink}
}

// Mount deactivates the current session, if any, and activates a fresh guard
// for req.
func (h *Host) Mount(ctx context.Context, req query.Request) (*Session, error) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.current != nil {
		h.current.Deactivate()
		h.current = nil
	}

	s, err := NewGuard(h.consumer).Activate(ctx, req, h.sink)
	if err != nil {
		return nil, err
	}
	h.current = s
	return s, nil
}

// Unmount deactivates the current session. It is safe to call repeatedly.
func (h *Host) Unmount() {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.current != nil {
		h.current.Deactivate()
		h.current = nil
	}
}

// Current returns the most recently mounted session, or nil.
func (h *Host) Current() *Session {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.current
}
