// Copyright (c) 2025 Graphwatch
// Licensed under the MIT License. See LICENSE file in the project root for details.

package session

import (
	"sync"

	"graphwatch/cli/internal/query"
)

// Latest is a Sink that keeps only the most recent payload.
type Latest struct {
	mu      sync.RWMutex
	payload query.Payload
	version uint64
	changed chan struct{}
}

// NewLatest creates an empty cell.
func NewLatest() *Latest {
	return &Latest{changed: make(chan struct{}, 1)}
}

// Publish replaces the held payload and signals Changed.
func (l *Latest) Publish(p query.Payload) {
	l.mu.Lock()
	l.payload = p
	l.version++
	l.mu.Unlock()

	select {
	case l.changed <- struct{}{}:
	default:
	}
}

// Load returns the held payload and false if nothing was published yet.
func (l *Latest) Load() (query.Payload, bool) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.payload, l.version > 0
}

// Version counts publishes so far.
func (l *Latest) Version() uint64 {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.version
}

// Changed receives a value after one or more publishes. Signals coalesce.
func (l *Latest) Changed() <-chan struct{} { return l.changed }
