// Copyright (c) 2025 Graphwatch
// Licensed under the MIT License. See LICENSE file in the project root for details.

// Package httpclient fetches query results from a GraphQL-over-HTTP endpoint.
// A JSON response body resolves to a snapshot; a text/event-stream response
// (graphql-sse, distinct connections mode) resolves to a stream of its "next"
// events, ended by a "complete" event.
package httpclient

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"mime"
	"net/http"
	"strings"
	"time"

	"graphwatch/cli/internal/logging"
	"graphwatch/cli/internal/query"
)

const (
	maxSnapshotBytes = 32 << 20
	maxErrorBytes    = 4 << 10

	contentTypeEventStream = "text/event-stream"
	acceptJSON             = "application/graphql-response+json, application/json;q=0.9"
)

// Options configures a Client.
type Options struct {
	// AccessToken is sent as a bearer token when set.
	AccessToken string
	// HTTPClient overrides the default client. It must not set Timeout, which
	// would cut long-lived event streams.
	HTTPClient *http.Client
	Logger     *logging.Logger
}

// Client implements query.Fetcher over GraphQL-over-HTTP.
type Client struct {
	url         string
	client      *http.Client
	accessToken string
	log         *logging.Logger
	now         func() time.Time
}

// New creates a client posting to url.
func New(url string, opts Options) *Client {
	hc := opts.HTTPClient
	if hc == nil {
		tr := http.DefaultTransport.(*http.Transport).Clone()
		tr.ResponseHeaderTimeout = 30 * time.Second
		hc = &http.Client{Transport: tr}
	}
	log := opts.Logger
	if log == nil {
		log = logging.Nop()
	}
	return &Client{
		url:         url,
		client:      hc,
		accessToken: opts.AccessToken,
		log:         log,
		now:         time.Now,
	}
}

// Close releases idle connections.
func (c *Client) Close() error {
	c.client.CloseIdleConnections()
	return nil
}

// Fetch implements query.Fetcher.
func (c *Client) Fetch(ctx context.Context, req query.Request) (query.Outcome, error) {
	op, err := query.ParseOperation(req)
	if err != nil {
		return query.Outcome{}, err
	}
	body, err := query.EncodeRequest(req)
	if err != nil {
		return query.Outcome{}, fmt.Errorf("encode request: %w", err)
	}

	rctx, cancel := context.WithCancel(ctx)
	hreq, err := http.NewRequestWithContext(rctx, http.MethodPost, c.url, bytes.NewReader(body))
	if err != nil {
		cancel()
		return query.Outcome{}, err
	}
	hreq.Header.Set("Content-Type", "application/json")
	if op.Streaming() {
		hreq.Header.Set("Accept", contentTypeEventStream)
	} else {
		hreq.Header.Set("Accept", acceptJSON)
	}
	if c.accessToken != "" {
		hreq.Header.Set("Authorization", "Bearer "+c.accessToken)
	}

	c.log.Debug("http post", "url", c.url, "operation", op.Name, "streaming", op.Streaming())
	resp, err := c.client.Do(hreq)
	if err != nil {
		cancel()
		return query.Outcome{}, fmt.Errorf("post graphql request: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		defer cancel()
		defer resp.Body.Close()
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBytes))
		return query.Outcome{}, fmt.Errorf("graphql endpoint returned status %d: %s", resp.StatusCode, strings.TrimSpace(string(snippet)))
	}

	mediaType, _, _ := mime.ParseMediaType(resp.Header.Get("Content-Type"))
	if mediaType == contentTypeEventStream {
		return query.Streaming(newEventStream(resp.Body, cancel, c.now)), nil
	}

	defer cancel()
	defer resp.Body.Close()
	data, err := io.ReadAll(io.LimitReader(resp.Body, maxSnapshotBytes))
	if err != nil {
		return query.Outcome{}, fmt.Errorf("read graphql response: %w", err)
	}
	p, err := query.DecodeResponse(data, c.now())
	if err != nil {
		return query.Outcome{}, err
	}
	return query.Snapshot(p), nil
}
