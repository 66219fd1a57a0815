package pgsource

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"graphwatch/cli/internal/query"
)

func TestJSONValue(t *testing.T) {
	id := uuid.MustParse("6f1c2b8e-4a7d-4f3b-9c2e-1d5a8b7c6e4f")
	ts := time.Date(2024, 5, 1, 12, 30, 0, 0, time.FixedZone("CEST", 2*60*60))

	tests := []struct {
		name string
		in   any
		want any
	}{
		{name: "uuid array", in: [16]byte(id), want: id.String()},
		{name: "bytes", in: []byte{0xde, 0xad}, want: `\xdead`},
		{name: "time", in: ts, want: "2024-05-01T10:30:00Z"},
		{name: "string", in: "WETH", want: "WETH"},
		{name: "nil", in: nil, want: nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, jsonValue(tt.in))
		})
	}
}

// The tests below need a database: GRAPHWATCH_TEST_PG_DSN=postgres://...
func testSource(t *testing.T, opts Options) *Source {
	t.Helper()
	dsn := os.Getenv("GRAPHWATCH_TEST_PG_DSN")
	if dsn == "" {
		t.Skip("GRAPHWATCH_TEST_PG_DSN not set")
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	src, err := Open(ctx, dsn, opts)
	require.NoError(t, err)
	require.NoError(t, src.Ping(ctx))
	t.Cleanup(func() { _ = src.Close() })
	return src
}

func TestFetch_Snapshot(t *testing.T) {
	src := testSource(t, Options{})
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	out, err := src.Fetch(ctx, query.NewRequest("SELECT @n::int AS n, 'WETH' AS token", map[string]any{"n": 7}))
	require.NoError(t, err)
	p, ok := out.Snapshot()
	require.True(t, ok)
	assert.JSONEq(t, `{"rows":[{"n":7,"token":"WETH"}]}`, string(p.Data))
}

func TestFetch_LiveQueryRerunsOnNotify(t *testing.T) {
	channel := "graphwatch_test_" + uuid.NewString()[:8]
	src := testSource(t, Options{ListenChannel: channel})
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	out, err := src.Fetch(ctx, query.NewRequest("SELECT 1 AS n", nil))
	require.NoError(t, err)
	s, ok := out.Stream()
	require.True(t, ok)
	defer s.Close()

	first, ok, err := s.Next(ctx)
	require.NoError(t, err)
	require.True(t, ok)
	assert.JSONEq(t, `{"rows":[{"n":1}]}`, string(first.Data))

	_, err = src.pool.Exec(ctx, "SELECT pg_notify($1, 'changed')", channel)
	require.NoError(t, err)

	second, ok, err := s.Next(ctx)
	require.NoError(t, err)
	require.True(t, ok)
	assert.JSONEq(t, `{"rows":[{"n":1}]}`, string(second.Data))

	done := make(chan struct{})
	go func() {
		_, ok, _ := s.Next(ctx)
		assert.False(t, ok)
		close(done)
	}()
	time.Sleep(50 * time.Millisecond)
	require.NoError(t, s.Close())
	select {
	case <-done:
	case <-time.After(3 * time.Second):
		t.Fatal("Close did not unblock a pending Next")
	}
}

func TestFetch_BadSQL(t *testing.T) {
	src := testSource(t, Options{})
	_, err := src.Fetch(context.Background(), query.NewRequest("SELEC nope", nil))
	assert.Error(t, err)

	var pgErr *pgconn.PgError
	require.ErrorAs(t, err, &pgErr)
	assert.Equal(t, "42601", pgErr.Code)
}
