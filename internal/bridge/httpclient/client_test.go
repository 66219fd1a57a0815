package httpclient

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"graphwatch/cli/internal/query"
)

func testContext(t *testing.T) context.Context {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	t.Cleanup(cancel)
	return ctx
}

func TestFetch_JSONResolvesToSnapshot(t *testing.T) {
	type seen struct{ auth, accept, body string }
	got := make(chan seen, 1)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		b, _ := io.ReadAll(r.Body)
		got <- seen{auth: r.Header.Get("Authorization"), accept: r.Header.Get("Accept"), body: string(b)}
		w.Header().Set("Content-Type", "application/json; charset=utf-8")
		_, _ = io.WriteString(w, `{"data":{"transactions":[]}}`)
	}))
	defer srv.Close()

	c := New(srv.URL, Options{AccessToken: "tok"})
	defer c.Close()

	out, err := c.Fetch(testContext(t), query.NewRequest("query Q { transactions { id } }", map[string]any{"first": 5}))
	require.NoError(t, err)
	p, ok := out.Snapshot()
	require.True(t, ok)
	assert.JSONEq(t, `{"transactions":[]}`, string(p.Data))

	req := <-got
	assert.Equal(t, "Bearer tok", req.auth)
	assert.Contains(t, req.accept, "application/json")
	assert.JSONEq(t, `{"query":"query Q { transactions { id } }","variables":{"first":5}}`, req.body)
}

func TestFetch_EventStreamResolvesToStream(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "text/event-stream", r.Header.Get("Accept"))
		w.Header().Set("Content-Type", "text/event-stream")
		flusher := w.(http.Flusher)
		_, _ = io.WriteString(w, ":\n\n")
		for i := 1; i <= 2; i++ {
			_, _ = fmt.Fprintf(w, "event: next\ndata: {\"data\":{\"n\":%d}}\n\n", i)
			flusher.Flush()
		}
		_, _ = io.WriteString(w, "event: complete\ndata:\n\n")
	}))
	defer srv.Close()

	c := New(srv.URL, Options{})
	ctx := testContext(t)

	out, err := c.Fetch(ctx, query.NewRequest("subscription { swaps { id } }", nil))
	require.NoError(t, err)
	s, ok := out.Stream()
	require.True(t, ok)
	defer s.Close()

	for i := 1; i <= 2; i++ {
		p, ok, err := s.Next(ctx)
		require.NoError(t, err)
		require.True(t, ok)
		assert.JSONEq(t, fmt.Sprintf(`{"n":%d}`, i), string(p.Data))
	}
	_, ok, err = s.Next(ctx)
	require.NoError(t, err)
	assert.False(t, ok)

	_, ok, err = s.Next(ctx)
	require.NoError(t, err)
	assert.False(t, ok, "stream stays exhausted")
}

func TestFetch_EventStreamMultilineData(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/event-stream")
		_, _ = io.WriteString(w, "event: next\ndata: {\"data\":\ndata: {\"n\":1}}\n\n")
	}))
	defer srv.Close()

	ctx := testContext(t)
	out, err := New(srv.URL, Options{}).Fetch(ctx, query.NewRequest("subscription { a }", nil))
	require.NoError(t, err)
	s, _ := out.Stream()
	defer s.Close()

	p, ok, err := s.Next(ctx)
	require.NoError(t, err)
	require.True(t, ok)
	assert.JSONEq(t, `{"n":1}`, string(p.Data))

	_, ok, err = s.Next(ctx)
	require.NoError(t, err)
	assert.False(t, ok, "body end without complete ends the stream")
}

func TestFetch_ErrorStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "invalid token", http.StatusUnauthorized)
	}))
	defer srv.Close()

	_, err := New(srv.URL, Options{}).Fetch(testContext(t), query.NewRequest("{ a }", nil))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "status 401")
	assert.Contains(t, err.Error(), "invalid token")
}

func TestFetch_MalformedEventFailsStream(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/event-stream")
		_, _ = io.WriteString(w, "event: next\ndata: not-json\n\n")
	}))
	defer srv.Close()

	ctx := testContext(t)
	out, err := New(srv.URL, Options{}).Fetch(ctx, query.NewRequest("subscription { a }", nil))
	require.NoError(t, err)
	s, _ := out.Stream()
	defer s.Close()

	_, _, err = s.Next(ctx)
	assert.Error(t, err)
}

func TestStream_TruncatedEventDiscarded(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/event-stream")
		_, _ = io.WriteString(w, "event: next\ndata: {\"data\":{\"a\":1}}\n\nevent: next\ndata: {\"data\":{\"a\":2}}")
	}))
	defer srv.Close()

	ctx := testContext(t)
	out, err := New(srv.URL, Options{}).Fetch(ctx, query.NewRequest("subscription { a }", nil))
	require.NoError(t, err)
	s, _ := out.Stream()
	defer s.Close()

	p, ok, err := s.Next(ctx)
	require.NoError(t, err)
	require.True(t, ok)
	assert.JSONEq(t, `{"a":1}`, string(p.Data))

	p, ok, _ = s.Next(ctx)
	assert.False(t, ok, "event without a terminating blank line must not be published")
	assert.Empty(t, p.Data)
}

func TestStream_CloseAbortsRequest(t *testing.T) {
	gone := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/event-stream")
		_, _ = io.WriteString(w, "event: next\ndata: {\"data\":{\"n\":1}}\n\n")
		w.(http.Flusher).Flush()
		<-r.Context().Done()
		close(gone)
	}))
	defer srv.Close()

	ctx := testContext(t)
	out, err := New(srv.URL, Options{}).Fetch(ctx, query.NewRequest("query Q @live { a }", nil))
	require.NoError(t, err)
	s, _ := out.Stream()

	_, ok, err := s.Next(ctx)
	require.NoError(t, err)
	require.True(t, ok)

	require.NoError(t, s.Close())
	select {
	case <-gone:
	case <-time.After(2 * time.Second):
		t.Fatal("server request was not cancelled")
	}
}

func TestFetch_UnreachableEndpoint(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	_, err := New(url, Options{}).Fetch(testContext(t), query.NewRequest("{ a }", nil))
	assert.Error(t, err)
}
