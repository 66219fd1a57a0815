// Copyright (c) 2025 Graphwatch
// Licensed under the MIT License. See LICENSE file in the project root for details.

// Package pgsource serves query results straight from PostgreSQL.
//
// The request document is SQL; request variables are bound as named
// arguments (@name). Without a listen channel the query runs once and
// resolves to a snapshot {"rows": [...]}. With a listen channel the source
// LISTENs on it and resolves to a live query: the first element is the
// current result and every NOTIFY re-runs the query.
package pgsource

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	jsoniter "github.com/json-iterator/go"

	"graphwatch/cli/internal/logging"
	"graphwatch/cli/internal/query"
)

var codec = jsoniter.ConfigCompatibleWithStandardLibrary

// Options configures a Source.
type Options struct {
	// ListenChannel turns every fetch into a live query.
	ListenChannel string
	// MaxRows caps rows per result. Zero means no cap.
	MaxRows int
	Logger  *logging.Logger
}

// Source implements query.Fetcher over a pgx connection pool.
type Source struct {
	pool    *pgxpool.Pool
	channel string
	maxRows int
	log     *logging.Logger
	now     func() time.Time
}

// Open creates a pool for dsn. The pool connects lazily.
func Open(ctx context.Context, dsn string, opts Options) (*Source, error) {
	cfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("parse postgres dsn: %w", err)
	}
	cfg.MaxConns = 4
	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("create postgres pool: %w", err)
	}
	return New(pool, opts), nil
}

// New wraps an existing pool.
func New(pool *pgxpool.Pool, opts Options) *Source {
	log := opts.Logger
	if log == nil {
		log = logging.Nop()
	}
	return &Source{
		pool:    pool,
		channel: strings.TrimSpace(opts.ListenChannel),
		maxRows: opts.MaxRows,
		log:     log,
		now:     time.Now,
	}
}

// Ping verifies connectivity.
func (s *Source) Ping(ctx context.Context) error {
	return s.pool.Ping(ctx)
}

// ServerVersion returns the server_version setting.
func (s *Source) ServerVersion(ctx context.Context) (string, error) {
	var v string
	if err := s.pool.QueryRow(ctx, "SHOW server_version").Scan(&v); err != nil {
		return "", err
	}
	return v, nil
}

// Close closes the pool.
func (s *Source) Close() error {
	s.pool.Close()
	return nil
}

// Fetch implements query.Fetcher.
func (s *Source) Fetch(ctx context.Context, req query.Request) (query.Outcome, error) {
	sql := strings.TrimSpace(req.Document())
	if sql == "" {
		return query.Outcome{}, fmt.Errorf("empty sql document")
	}
	args := pgx.NamedArgs(req.Variables())

	if s.channel == "" {
		p, err := s.run(ctx, sql, args)
		if err != nil {
			return query.Outcome{}, err
		}
		return query.Snapshot(p), nil
	}

	conn, err := s.pool.Acquire(ctx)
	if err != nil {
		return query.Outcome{}, fmt.Errorf("acquire listen connection: %w", err)
	}
	if _, err := conn.Exec(ctx, "LISTEN "+pgx.Identifier{s.channel}.Sanitize()); err != nil {
		conn.Release()
		return query.Outcome{}, fmt.Errorf("listen on %s: %w", s.channel, err)
	}
	s.log.Debug("listening for changes", "channel", s.channel)
	return query.Streaming(newLiveQuery(s, conn, sql, args)), nil
}

func (s *Source) run(ctx context.Context, sql string, args pgx.NamedArgs) (query.Payload, error) {
	rows, err := s.pool.Query(ctx, sql, args)
	if err != nil {
		return query.Payload{}, fmt.Errorf("run query: %w", err)
	}
	maps, err := pgx.CollectRows(rows, pgx.RowToMap)
	if err != nil {
		return query.Payload{}, fmt.Errorf("collect rows: %w", err)
	}
	if s.maxRows > 0 && len(maps) > s.maxRows {
		maps = maps[:s.maxRows]
	}
	for _, m := range maps {
		for k, v := range m {
			m[k] = jsonValue(v)
		}
	}
	data, err := codec.Marshal(map[string]any{"rows": maps})
	if err != nil {
		return query.Payload{}, fmt.Errorf("encode rows: %w", err)
	}
	return query.Payload{Data: data, ReceivedAt: s.now()}, nil
}

// jsonValue converts driver values that have no useful JSON form.
func jsonValue(v any) any {
	switch val := v.(type) {
	case [16]byte:
		return uuid.UUID(val).String()
	case []byte:
		return fmt.Sprintf("\\x%x", val)
	case time.Time:
		return val.UTC().Format(time.RFC3339Nano)
	default:
		return v
	}
}

// liveQuery re-runs a query on every notification.
type liveQuery struct {
	src  *Source
	sql  string
	args pgx.NamedArgs

	mu      sync.Mutex
	conn    *pgxpool.Conn
	primed  bool
	closing context.Context
	stop    context.CancelFunc
}

func newLiveQuery(src *Source, conn *pgxpool.Conn, sql string, args pgx.NamedArgs) *liveQuery {
	closing, stop := context.WithCancel(context.Background())
	return &liveQuery{src: src, sql: sql, args: args, conn: conn, closing: closing, stop: stop}
}

func (q *liveQuery) Next(ctx context.Context) (query.Payload, bool, error) {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.conn == nil {
		return query.Payload{}, false, nil
	}
	if !q.primed {
		q.primed = true
		p, err := q.src.run(ctx, q.sql, q.args)
		return p, err == nil, err
	}

	wctx, cancel := context.WithCancel(ctx)
	defer cancel()
	unhook := context.AfterFunc(q.closing, cancel)
	defer unhook()

	n, err := q.conn.Conn().WaitForNotification(wctx)
	if err != nil {
		if q.closing.Err() != nil {
			return query.Payload{}, false, nil
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			return query.Payload{}, false, ctxErr
		}
		return query.Payload{}, false, fmt.Errorf("wait for notification: %w", err)
	}
	q.src.log.Debug("change notification", "channel", n.Channel, "pid", n.PID)

	p, err := q.src.run(ctx, q.sql, q.args)
	return p, err == nil, err
}

// Close stops listening and returns the connection to the pool.
func (q *liveQuery) Close() error {
	q.stop()
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.conn == nil {
		return nil
	}
	var err error
	if !q.conn.Conn().IsClosed() {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		_, err = q.conn.Exec(ctx, "UNLISTEN *")
		cancel()
	}
	q.conn.Release()
	q.conn = nil
	return err
}
