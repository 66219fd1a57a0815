// Copyright (c) 2025 Graphwatch
// Licensed under the MIT License. See LICENSE file in the project root for details.

// Package endpoint detects which transport serves an endpoint string and
// normalizes it for that transport.
package endpoint

import (
	"net"
	"net/url"
	"strings"
)

// DetectKind detects the transport from the endpoint scheme.
func DetectKind(raw string) Kind {
	lower := strings.ToLower(strings.TrimSpace(raw))

	switch {
	case strings.HasPrefix(lower, "grpc://"), strings.HasPrefix(lower, "grpcs://"):
		return KindGRPC
	case strings.HasPrefix(lower, "http://"), strings.HasPrefix(lower, "https://"):
		return KindHTTP
	case strings.HasPrefix(lower, "postgres://"), strings.HasPrefix(lower, "postgresql://"):
		return KindPostgres
	}
	return KindUnknown
}

// Parse parses and normalizes an endpoint string.
func Parse(raw string) (Endpoint, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return Endpoint{}, newParseError(raw, "empty endpoint", "set 'endpoint' in the config file or GRAPHWATCH_ENDPOINT")
	}

	switch DetectKind(raw) {
	case KindGRPC:
		return parseGRPC(raw)
	case KindHTTP:
		return parseHTTP(raw)
	case KindPostgres:
		return parsePostgres(raw)
	default:
		pe := newParseError(raw, "unknown scheme", "use grpc://, grpcs://, http://, https://, postgres:// or postgresql://")
		pe.Err = ErrUnsupported
		return Endpoint{}, pe
	}
}

func parseGRPC(raw string) (Endpoint, error) {
	u, err := url.Parse(raw)
	if err != nil || u.Host == "" {
		return Endpoint{}, newParseError(raw, "missing host", "format should be grpcs://host:port")
	}
	secure := strings.EqualFold(u.Scheme, "grpcs")

	port := u.Port()
	if port == "" {
		port = "80"
		if secure {
			port = "443"
		}
	}
	return Endpoint{
		Kind:   KindGRPC,
		Target: net.JoinHostPort(u.Hostname(), port),
		Secure: secure,
		Host:   u.Hostname(),
		Raw:    raw,
	}, nil
}

func parseHTTP(raw string) (Endpoint, error) {
	u, err := url.Parse(raw)
	if err != nil {
		return Endpoint{}, &ParseError{Endpoint: raw, Reason: "malformed URL", Err: err}
	}
	if u.Host == "" {
		return Endpoint{}, newParseError(raw, "missing host", "format should be https://host/graphql")
	}
	u.Scheme = strings.ToLower(u.Scheme)
	return Endpoint{
		Kind:   KindHTTP,
		Target: u.String(),
		Secure: u.Scheme == "https",
		Host:   u.Hostname(),
		Raw:    raw,
	}, nil
}
