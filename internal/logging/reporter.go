// Copyright (c) 2025 Graphwatch
// Licensed under the MIT License. See LICENSE file in the project root for details.

package logging

import (
	"sync"

	apperrors "graphwatch/cli/internal/errors"
)

// maxFailures bounds how many failures a Reporter remembers; older ones are
// forgotten first.
const maxFailures = 64

// Failure is one session failure seen by a Reporter.
type Failure struct {
	SessionID string
	Kind      apperrors.Kind
	Err       error
}

// Reporter is the error channel of consumption sessions. Every report is
// logged at error level and remembered for the presentation layer.
type Reporter struct {
	log *Logger

	mu       sync.Mutex
	failures []Failure
	onReport func(Failure)
}

// NewReporter creates a reporter logging through log. A nil log discards.
func NewReporter(log *Logger) *Reporter {
	if log == nil {
		log = Nop()
	}
	return &Reporter{log: log}
}

// OnReport registers a callback invoked after each report. It runs on the
// reporting goroutine and must not block.
func (r *Reporter) OnReport(fn func(Failure)) {
	r.mu.Lock()
	r.onReport = fn
	r.mu.Unlock()
}

// Report records err for sessionID.
func (r *Reporter) Report(sessionID string, err error) {
	if err == nil {
		return
	}
	f := Failure{SessionID: sessionID, Kind: apperrors.KindOf(err), Err: err}
	r.log.Error("query session failed", "session", sessionID, "kind", string(f.Kind), "error", err)

	r.mu.Lock()
	r.failures = append(r.failures, f)
	if n := len(r.failures); n > maxFailures {
		r.failures = append([]Failure(nil), r.failures[n-maxFailures:]...)
	}
	cb := r.onReport
	r.mu.Unlock()

	if cb != nil {
		cb(f)
	}
}

// Failures returns a copy of the most recent failures, oldest first.
func (r *Reporter) Failures() []Failure {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Failure, len(r.failures))
	copy(out, r.failures)
	return out
}

// Last returns the most recent failure for sessionID.
func (r *Reporter) Last(sessionID string) (Failure, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i := len(r.failures) - 1; i >= 0; i-- {
		if r.failures[i].SessionID == sessionID {
			return r.failures[i], true
		}
	}
	return Failure{}, false
}
