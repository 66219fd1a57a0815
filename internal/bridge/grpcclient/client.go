// Copyright (c) 2025 Graphwatch
// Licensed under the MIT License. See LICENSE file in the project root for details.

// Package grpcclient fetches query results from a GraphQL service exposed
// over gRPC. Queries and mutations are answered by the unary Execute method;
// subscriptions and @live queries open the server-streaming Subscribe method
// and are handed to the caller as a query.Stream.
package grpcclient

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"io"
	"net"
	"sync"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/metadata"
	"google.golang.org/protobuf/encoding/protojson"
	"google.golang.org/protobuf/types/known/structpb"

	"graphwatch/cli/internal/logging"
	"graphwatch/cli/internal/query"
)

// Options configures a Client.
type Options struct {
	// Secure enables TLS with the target host as server name.
	Secure bool
	// AccessToken is sent as a bearer token with every call when set.
	AccessToken string
	// DialOptions are appended after the transport credentials.
	DialOptions []grpc.DialOption
	Logger      *logging.Logger
}

// Client implements query.Fetcher over the GraphQL gRPC service.
type Client struct {
	conn        *grpc.ClientConn
	accessToken string
	log         *logging.Logger
	now         func() time.Time
}

// Dial creates a client for target (host:port). The connection is
// established lazily on the first call.
func Dial(target string, opts Options) (*Client, error) {
	var creds credentials.TransportCredentials
	if opts.Secure {
		host := target
		if h, _, err := net.SplitHostPort(target); err == nil {
			host = h
		}
		creds = credentials.NewTLS(&tls.Config{ServerName: host, MinVersion: tls.VersionTLS12})
	} else {
		creds = insecure.NewCredentials()
	}

	dialOpts := append([]grpc.DialOption{grpc.WithTransportCredentials(creds)}, opts.DialOptions...)
	conn, err := grpc.NewClient(target, dialOpts...)
	if err != nil {
		return nil, fmt.Errorf("create grpc client for %s: %w", target, err)
	}

	log := opts.Logger
	if log == nil {
		log = logging.Nop()
	}
	return &Client{conn: conn, accessToken: opts.AccessToken, log: log, now: time.Now}, nil
}

// Close releases the connection.
func (c *Client) Close() error {
	if c.conn == nil {
		return nil
	}
	return c.conn.Close()
}

// Fetch implements query.Fetcher.
func (c *Client) Fetch(ctx context.Context, req query.Request) (query.Outcome, error) {
	op, err := query.ParseOperation(req)
	if err != nil {
		return query.Outcome{}, err
	}
	msg, err := encodeRequest(req)
	if err != nil {
		return query.Outcome{}, err
	}
	ctx = c.outgoing(ctx)

	if !op.Streaming() {
		c.log.Debug("grpc execute", "operation", op.Name, "type", string(op.Type))
		out := new(structpb.Struct)
		if err := c.conn.Invoke(ctx, ExecuteMethod, msg, out); err != nil {
			return query.Outcome{}, describe(ctx, "execute", err)
		}
		p, err := decodeResponse(out, c.now())
		if err != nil {
			return query.Outcome{}, err
		}
		return query.Snapshot(p), nil
	}

	c.log.Debug("grpc subscribe", "operation", op.Name, "type", string(op.Type), "live", op.Live)
	sctx, cancel := context.WithCancel(ctx)
	cs, err := c.conn.NewStream(sctx, &subscribeStreamDesc, SubscribeMethod)
	if err != nil {
		cancel()
		return query.Outcome{}, describe(ctx, "subscribe", err)
	}
	stream := &grpc.GenericClientStream[structpb.Struct, structpb.Struct]{ClientStream: cs}
	if err := stream.Send(msg); err != nil {
		cancel()
		return query.Outcome{}, describe(ctx, "subscribe", err)
	}
	if err := stream.CloseSend(); err != nil {
		cancel()
		return query.Outcome{}, describe(ctx, "subscribe", err)
	}
	return query.Streaming(&subscription{stream: stream, cancel: cancel, now: c.now}), nil
}

func (c *Client) outgoing(ctx context.Context) context.Context {
	if c.accessToken == "" {
		return ctx
	}
	return metadata.AppendToOutgoingContext(ctx, "authorization", "Bearer "+c.accessToken)
}

// subscription adapts the Subscribe server stream to query.Stream.
type subscription struct {
	stream    grpc.ServerStreamingClient[structpb.Struct]
	cancel    context.CancelFunc
	now       func() time.Time
	closeOnce sync.Once
}

func (s *subscription) Next(ctx context.Context) (query.Payload, bool, error) {
	stop := context.AfterFunc(ctx, s.cancel)
	defer stop()

	msg, err := s.stream.Recv()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return query.Payload{}, false, nil
		}
		return query.Payload{}, false, describe(ctx, "receive", err)
	}
	p, err := decodeResponse(msg, s.now())
	if err != nil {
		return query.Payload{}, false, err
	}
	return p, true, nil
}

// Close cancels the stream context; the server sees the call cancelled.
func (s *subscription) Close() error {
	s.closeOnce.Do(s.cancel)
	return nil
}

func encodeRequest(req query.Request) (*structpb.Struct, error) {
	fields := map[string]any{
		"document":  req.Document(),
		"variables": req.Variables(),
	}
	if name := req.OperationName(); name != "" {
		fields["operationName"] = name
	}
	msg, err := structpb.NewStruct(fields)
	if err != nil {
		return nil, fmt.Errorf("encode request variables: %w", err)
	}
	return msg, nil
}

func decodeResponse(msg *structpb.Struct, at time.Time) (query.Payload, error) {
	body, err := protojson.Marshal(msg)
	if err != nil {
		return query.Payload{}, fmt.Errorf("encode response message: %w", err)
	}
	return query.DecodeResponse(body, at)
}

// describe names the call and keeps the gRPC status reachable. When ctx
// ended the call, the context error is wrapped instead.
func describe(ctx context.Context, call string, err error) error {
	if ctxErr := ctx.Err(); ctxErr != nil {
		return fmt.Errorf("grpc %s: %w", call, ctxErr)
	}
	return fmt.Errorf("grpc %s: %w", call, err)
}
