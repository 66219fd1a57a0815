// Copyright (c) 2025 Graphwatch
// Licensed under the MIT License. See LICENSE file in the project root for details.

package httpclient

import (
	"context"
	"errors"
	"fmt"
	"io"
	"iter"
	"strings"
	"sync"
	"time"

	sse "github.com/tmaxmax/go-sse"

	"graphwatch/cli/internal/query"
)

const maxEventBytes = 4 << 20

// eventStream pulls graphql-sse events from a response body. An event cut
// off by the end of the body is discarded.
type eventStream struct {
	body      io.ReadCloser
	next      func() (sse.Event, error, bool)
	stopRead  func()
	cancel    context.CancelFunc
	now       func() time.Time
	closeOnce sync.Once
	finished  bool
}

func newEventStream(body io.ReadCloser, cancel context.CancelFunc, now func() time.Time) *eventStream {
	events := iter.Seq2[sse.Event, error](sse.Read(body, &sse.ReadConfig{MaxEventSize: maxEventBytes}))
	next, stop := iter.Pull2(events)
	return &eventStream{body: body, next: next, stopRead: stop, cancel: cancel, now: now}
}

func (s *eventStream) Next(ctx context.Context) (query.Payload, bool, error) {
	if s.finished {
		return query.Payload{}, false, nil
	}
	stop := context.AfterFunc(ctx, s.cancel)
	defer stop()

	for {
		ev, err, ok := s.next()
		if !ok || errors.Is(err, io.ErrUnexpectedEOF) {
			s.finished = true
			return query.Payload{}, false, nil
		}
		if err != nil {
			s.finished = true
			if ctxErr := ctx.Err(); ctxErr != nil {
				return query.Payload{}, false, ctxErr
			}
			return query.Payload{}, false, fmt.Errorf("read event stream: %w", err)
		}

		switch ev.Type {
		case "complete":
			s.finished = true
			return query.Payload{}, false, nil
		case "next", "", "message":
			if strings.TrimSpace(ev.Data) == "" {
				continue
			}
			p, err := query.DecodeResponse([]byte(ev.Data), s.now())
			if err != nil {
				return query.Payload{}, false, err
			}
			return p, true, nil
		default:
			// Unknown events are skipped.
		}
	}
}

// Close aborts the request, releases the body and stops the reader.
func (s *eventStream) Close() error {
	var err error
	s.closeOnce.Do(func() {
		s.cancel()
		err = s.body.Close()
		s.stopRead()
	})
	return err
}
