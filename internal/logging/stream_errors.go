// Copyright (c) 2025 Graphwatch
// Licensed under the MIT License. See LICENSE file in the project root for details.

package logging

import (
	"context"
	"errors"
	"fmt"
	"net"
	"strings"
	"syscall"

	"github.com/pterm/pterm"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	apperrors "graphwatch/cli/internal/errors"
)

// FailureClass is the user-facing category of a transport failure.
type FailureClass int

const (
	FailureUnknown FailureClass = iota
	FailureNetwork
	FailureAuth
	FailureTimeout
	FailureInternal
	FailureUnavailable
	FailureQuery
	FailureTLS
)

// Classify categorizes err. gRPC status codes win; otherwise the message text
// is inspected the same way for HTTP and Postgres sources.
func Classify(err error) FailureClass {
	if err == nil {
		return FailureUnknown
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return FailureTimeout
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return FailureTimeout
	}
	var dnsErr *net.DNSError
	if errors.As(err, &dnsErr) {
		return FailureNetwork
	}
	if errors.Is(err, syscall.ECONNREFUSED) {
		return FailureUnavailable
	}
	if st, ok := status.FromError(err); ok && st.Code() != codes.Unknown {
		switch st.Code() {
		case codes.Unauthenticated, codes.PermissionDenied:
			return FailureAuth
		case codes.DeadlineExceeded:
			return FailureTimeout
		case codes.Unavailable:
			return FailureUnavailable
		case codes.Internal, codes.DataLoss:
			return FailureInternal
		case codes.InvalidArgument, codes.FailedPrecondition, codes.NotFound:
			return FailureQuery
		case codes.Canceled, codes.Aborted:
			return FailureNetwork
		}
	}
	return classifyMessage(err.Error())
}

func classifyMessage(msg string) FailureClass {
	lower := strings.ToLower(msg)
	switch {
	case strings.Contains(lower, "rst_stream"), strings.Contains(lower, "connection reset"),
		strings.Contains(lower, "connection refused"), strings.Contains(lower, "eof"):
		return FailureNetwork
	case strings.Contains(lower, "unauthenticated"), strings.Contains(lower, "unauthorized"),
		strings.Contains(lower, "status 401"), strings.Contains(lower, "status 403"),
		strings.Contains(lower, "password authentication failed"):
		return FailureAuth
	case strings.Contains(lower, "deadline"), strings.Contains(lower, "timeout"):
		return FailureTimeout
	case strings.Contains(lower, "unavailable"), strings.Contains(lower, "status 503"):
		return FailureUnavailable
	case strings.Contains(lower, "internal_error"), strings.Contains(lower, "status 500"):
		return FailureInternal
	case strings.Contains(lower, "parse query"), strings.Contains(lower, "syntax error"):
		return FailureQuery
	case strings.Contains(lower, "x509"), strings.Contains(lower, "certificate"), strings.Contains(lower, "tls handshake"):
		return FailureTLS
	}
	return FailureUnknown
}

// FormatStreamError explains a session failure in a user-friendly way.
func FormatStreamError(err error) string {
	if err == nil {
		return ""
	}
	class := Classify(err)

	var b strings.Builder

	title := "Query Failed"
	if apperrors.KindOf(err) == apperrors.StreamFailed {
		title = "Connection Lost"
	}
	b.WriteString(pterm.NewStyle(pterm.FgRed, pterm.Bold).Sprint(title))
	b.WriteString("\n\n")

	switch class {
	case FailureNetwork:
		b.WriteString("The connection to the endpoint was interrupted.\n")
		b.WriteString("This usually happens when:\n")
		b.WriteString("  • Your network connection was disrupted\n")
		b.WriteString("  • A firewall or proxy closed the connection\n")
	case FailureAuth:
		b.WriteString("The endpoint rejected your credentials.\n")
		b.WriteString("To fix this:\n")
		b.WriteString("  • Run 'graphwatch login' to store a new API token\n")
		b.WriteString("  • For Postgres sources, run 'graphwatch connect' again\n")
	case FailureTimeout:
		b.WriteString("The endpoint did not answer in time.\n")
	case FailureInternal:
		b.WriteString("The endpoint reported an internal error.\n")
	case FailureUnavailable:
		b.WriteString("The endpoint is currently unavailable.\n")
		b.WriteString("It may be under maintenance or overloaded.\n")
	case FailureQuery:
		b.WriteString("The query document was rejected.\n")
		b.WriteString("Check the document and its variables.\n")
	case FailureTLS:
		b.WriteString("A secure connection to the endpoint could not be established.\n")
		b.WriteString("Check the endpoint scheme (grpcs:// or https://) and the server certificate.\n")
	default:
		b.WriteString("The query session ended unexpectedly.\n")
	}

	b.WriteString("\n")
	if class == FailureAuth {
		b.WriteString(pterm.NewStyle(pterm.FgYellow).Sprint("→ Please run 'graphwatch login' and try again"))
	} else {
		b.WriteString(pterm.NewStyle(pterm.FgYellow).Sprint("→ Please try running the command again"))
	}
	b.WriteString("\n\n")
	b.WriteString(pterm.NewStyle(pterm.FgGray).Sprint("Technical details: " + Mask(err.Error())))

	return b.String()
}

// PresentStreamError prints a formatted session failure.
func PresentStreamError(err error) {
	fmt.Println()
	fmt.Println(FormatStreamError(err))
	fmt.Println()
}
