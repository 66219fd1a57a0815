// Package querytest provides scripted streams and recording sinks for tests of
// code that consumes query outcomes.
package querytest

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"sync/atomic"

	"graphwatch/cli/internal/query"
)

// Payload returns a payload whose data is {"n": n}. Handy for ordering checks.
func Payload(n int) query.Payload {
	return query.Payload{Data: json.RawMessage(fmt.Sprintf(`{"n":%d}`, n))}
}

type step struct {
	payload query.Payload
	err     error
}

// ScriptedStream is a query.Stream driven by the test: every Push or Fail
// releases exactly one pending Next, End exhausts the stream.
//
// ScriptedStream is safe for concurrent use.
type ScriptedStream struct {
	steps     chan step
	pulls     atomic.Int64
	closed    atomic.Bool
	endOnce   sync.Once
	closeOnce sync.Once
	done      chan struct{}
}

// NewScriptedStream creates an empty stream. Next blocks until the test pushes.
func NewScriptedStream() *ScriptedStream {
	return &ScriptedStream{
		steps: make(chan step, 64),
		done:  make(chan struct{}),
	}
}

// Push queues a payload for the next pull.
func (s *ScriptedStream) Push(p query.Payload) { s.steps <- step{payload: p} }

// Fail queues an error for the next pull.
func (s *ScriptedStream) Fail(err error) { s.steps <- step{err: err} }

// End exhausts the stream once queued steps are consumed.
func (s *ScriptedStream) End() { s.endOnce.Do(func() { close(s.steps) }) }

// Next implements query.Stream.
func (s *ScriptedStream) Next(ctx context.Context) (query.Payload, bool, error) {
	s.pulls.Add(1)
	select {
	case st, ok := <-s.steps:
		if !ok {
			return query.Payload{}, false, nil
		}
		if st.err != nil {
			return query.Payload{}, false, st.err
		}
		return st.payload, true, nil
	case <-s.done:
		return query.Payload{}, false, nil
	case <-ctx.Done():
		return query.Payload{}, false, ctx.Err()
	}
}

// Close implements query.Stream.
func (s *ScriptedStream) Close() error {
	s.closed.Store(true)
	s.closeOnce.Do(func() { close(s.done) })
	return nil
}

// Pulls returns how many times Next was called.
func (s *ScriptedStream) Pulls() int { return int(s.pulls.Load()) }

// Closed reports whether Close was called.
func (s *ScriptedStream) Closed() bool { return s.closed.Load() }

// SliceStream returns a stream that yields payloads in order, then ends.
func SliceStream(payloads ...query.Payload) *ScriptedStream {
	s := NewScriptedStream()
	for _, p := range payloads {
		s.Push(p)
	}
	s.End()
	return s
}

// Recorder is a sink that records every published payload.
//
// Recorder is safe under concurrent Publish calls.
type Recorder struct {
	mu       sync.Mutex
	payloads []query.Payload
	notify   chan struct{}
}

// NewRecorder constructs a Recorder.
func NewRecorder() *Recorder {
	return &Recorder{notify: make(chan struct{}, 1024)}
}

// Publish appends the payload.
func (r *Recorder) Publish(p query.Payload) {
	r.mu.Lock()
	r.payloads = append(r.payloads, p)
	r.mu.Unlock()
	select {
	case r.notify <- struct{}{}:
	default:
	}
}

// Published returns a snapshot copy of recorded payloads.
func (r *Recorder) Published() []query.Payload {
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := make([]query.Payload, len(r.payloads))
	copy(cp, r.payloads)
	return cp
}

// Count returns the number of recorded payloads.
func (r *Recorder) Count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.payloads)
}

// Notify signals once per Publish call.
func (r *Recorder) Notify() <-chan struct{} { return r.notify }

// ErrorLog records reports sent to an error channel.
type ErrorLog struct {
	mu      sync.Mutex
	reports []Report
}

// Report is one recorded failure.
type Report struct {
	SessionID string
	Err       error
}

// Report records a failure. Its signature matches session.ErrorReporter.
func (l *ErrorLog) Report(sessionID string, err error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.reports = append(l.reports, Report{SessionID: sessionID, Err: err})
}

// Reports returns a snapshot copy of recorded failures.
func (l *ErrorLog) Reports() []Report {
	l.mu.Lock()
	defer l.mu.Unlock()
	cp := make([]Report, len(l.reports))
	copy(cp, l.reports)
	return cp
}
