// Copyright (c) 2025 Graphwatch
// Licensed under the MIT License. See LICENSE file in the project root for details.

// Package bridge connects the CLI to the data service named by an endpoint.
// Each transport resolves a request to a query.Outcome: gRPC and HTTP
// endpoints speak GraphQL, Postgres endpoints run SQL directly.
package bridge

import (
	"context"
	"fmt"

	"google.golang.org/grpc"

	"graphwatch/cli/internal/bridge/grpcclient"
	"graphwatch/cli/internal/bridge/httpclient"
	"graphwatch/cli/internal/bridge/pgsource"
	"graphwatch/cli/internal/endpoint"
	"graphwatch/cli/internal/logging"
	"graphwatch/cli/internal/query"
)

// Bridge is a fetcher bound to one endpoint.
type Bridge interface {
	query.Fetcher
	Close() error
}

// Options carries settings shared by all transports. Transports ignore what
// does not apply to them.
type Options struct {
	// AccessToken authenticates gRPC and HTTP calls.
	AccessToken string
	// ListenChannel makes Postgres fetches live queries.
	ListenChannel string
	// GRPCDialOptions are passed to the gRPC client.
	GRPCDialOptions []grpc.DialOption
	Logger          *logging.Logger
}

// New creates the bridge for ep.
func New(ctx context.Context, ep endpoint.Endpoint, opts Options) (Bridge, error) {
	switch ep.Kind {
	case endpoint.KindGRPC:
		c, err := grpcclient.Dial(ep.Target, grpcclient.Options{
			Secure:      ep.Secure,
			AccessToken: opts.AccessToken,
			DialOptions: opts.GRPCDialOptions,
			Logger:      opts.Logger,
		})
		if err != nil {
			return nil, err
		}
		return c, nil
	case endpoint.KindHTTP:
		return httpclient.New(ep.Target, httpclient.Options{
			AccessToken: opts.AccessToken,
			Logger:      opts.Logger,
		}), nil
	case endpoint.KindPostgres:
		src, err := pgsource.Open(ctx, ep.Target, pgsource.Options{
			ListenChannel: opts.ListenChannel,
			Logger:        opts.Logger,
		})
		if err != nil {
			return nil, err
		}
		return src, nil
	default:
		return nil, fmt.Errorf("no transport for endpoint %s: %w", ep, endpoint.ErrUnsupported)
	}
}
