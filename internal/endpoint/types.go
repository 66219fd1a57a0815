// Copyright (c) 2025 Graphwatch
// Licensed under the MIT License. See LICENSE file in the project root for details.

package endpoint

import (
	"errors"
	"fmt"

	"graphwatch/cli/internal/logging"
)

// Kind is the transport an endpoint is served over.
type Kind string

const (
	KindGRPC     Kind = "grpc"
	KindHTTP     Kind = "http"
	KindPostgres Kind = "postgres"
	KindUnknown  Kind = "unknown"
)

// ErrUnsupported is wrapped by ParseError for schemes no transport serves.
var ErrUnsupported = errors.New("unsupported endpoint scheme")

// Endpoint is a parsed, normalized endpoint.
type Endpoint struct {
	Kind Kind
	// Target is what the transport dials: host:port for gRPC, the URL for
	// HTTP, a normalized connection string for Postgres.
	Target string
	// Secure selects TLS for gRPC and HTTP. Postgres follows sslmode.
	Secure bool
	Host   string
	Raw    string
}

// String returns the endpoint with credentials masked.
func (e Endpoint) String() string {
	return logging.Mask(e.Target)
}

// ParseError represents an endpoint that could not be parsed.
type ParseError struct {
	Endpoint string
	Reason   string
	Hint     string
	Err      error
}

func (e *ParseError) Error() string {
	if e.Hint != "" {
		return fmt.Sprintf("invalid endpoint: %s\nHint: %s", e.Reason, e.Hint)
	}
	return fmt.Sprintf("invalid endpoint: %s", e.Reason)
}

func (e *ParseError) Unwrap() error { return e.Err }

func newParseError(raw, reason, hint string) *ParseError {
	return &ParseError{Endpoint: raw, Reason: reason, Hint: hint}
}
