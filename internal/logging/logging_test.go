package logging

import (
	"bytes"
	"errors"
	"fmt"
	"net"
	"syscall"
	"testing"

	"github.com/pterm/pterm"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	apperrors "graphwatch/cli/internal/errors"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in      string
		want    pterm.LogLevel
		wantErr bool
	}{
		{in: "", want: pterm.LogLevelInfo},
		{in: "debug", want: pterm.LogLevelDebug},
		{in: " WARN ", want: pterm.LogLevelWarn},
		{in: "off", want: pterm.LogLevelDisabled},
		{in: "verbose", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseLevel(tt.in)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestLogger_JSONMasksSecrets(t *testing.T) {
	var buf bytes.Buffer
	log, err := NewWithWriter(&buf, "debug", FormatJSON)
	require.NoError(t, err)

	log.Debug("connecting", "dsn", "postgres://app:hunter2@db/chain", "attempt", 1)

	out := buf.String()
	assert.Contains(t, out, "connecting")
	assert.Contains(t, out, "postgres://*:*@db/chain")
	assert.NotContains(t, out, "hunter2")
}

func TestLogger_LevelFilters(t *testing.T) {
	var buf bytes.Buffer
	log, err := NewWithWriter(&buf, "error", FormatJSON)
	require.NoError(t, err)

	log.Debug("hidden")
	log.Info("hidden too")
	assert.Empty(t, buf.String())

	log.Error("shown")
	assert.Contains(t, buf.String(), "shown")
}

func TestNewWithWriter_UnknownFormat(t *testing.T) {
	_, err := NewWithWriter(&bytes.Buffer{}, "info", "xml")
	assert.Error(t, err)
}

func TestReporter(t *testing.T) {
	var buf bytes.Buffer
	log, err := NewWithWriter(&buf, "info", FormatJSON)
	require.NoError(t, err)

	r := NewReporter(log)
	var seen []Failure
	r.OnReport(func(f Failure) { seen = append(seen, f) })

	r.Report("s1", apperrors.Wrap(apperrors.FetchFailed, "fetch query result", errors.New("refused")))
	r.Report("s2", apperrors.Wrap(apperrors.StreamFailed, "pull stream element 2", errors.New("reset")))
	r.Report("s1", nil)

	require.Len(t, r.Failures(), 2)
	require.Len(t, seen, 2)

	last, ok := r.Last("s2")
	require.True(t, ok)
	assert.Equal(t, apperrors.StreamFailed, last.Kind)

	_, ok = r.Last("missing")
	assert.False(t, ok)

	assert.Contains(t, buf.String(), "query session failed")
	assert.Contains(t, buf.String(), "fetch_failed")
}

func TestReporter_KeepsRecentFailures(t *testing.T) {
	r := NewReporter(Nop())
	for i := 0; i < maxFailures+10; i++ {
		r.Report(fmt.Sprintf("s%d", i), errors.New("refused"))
	}

	got := r.Failures()
	require.Len(t, got, maxFailures)
	assert.Equal(t, "s10", got[0].SessionID)
	assert.Equal(t, fmt.Sprintf("s%d", maxFailures+9), got[len(got)-1].SessionID)

	_, ok := r.Last("s0")
	assert.False(t, ok)
	_, ok = r.Last(fmt.Sprintf("s%d", maxFailures+9))
	assert.True(t, ok)
}

func TestClassify(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want FailureClass
	}{
		{"grpc unauthenticated", status.Error(codes.Unauthenticated, "bad token"), FailureAuth},
		{"grpc unavailable wrapped", fmt.Errorf("fetch: %w", status.Error(codes.Unavailable, "down")), FailureUnavailable},
		{"grpc invalid argument", status.Error(codes.InvalidArgument, "no such field"), FailureQuery},
		{"http 401 text", errors.New("graphql endpoint returned status 401"), FailureAuth},
		{"connection reset", errors.New("read tcp: connection reset by peer"), FailureNetwork},
		{"timeout text", errors.New("i/o timeout"), FailureTimeout},
		{"dns", fmt.Errorf("post: %w", &net.DNSError{Err: "no such host", Name: "graph.invalid"}), FailureNetwork},
		{"refused", fmt.Errorf("dial: %w", syscall.ECONNREFUSED), FailureUnavailable},
		{"tls", errors.New("x509: certificate signed by unknown authority"), FailureTLS},
		{"unrecognised", errors.New("boom"), FailureUnknown},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Classify(tt.err))
		})
	}
}

func TestFormatStreamError(t *testing.T) {
	assert.Empty(t, FormatStreamError(nil))

	streamErr := apperrors.Wrap(apperrors.StreamFailed, "pull stream element 3",
		status.Error(codes.Unavailable, "postgres://u:secret@h/db unreachable"))
	out := FormatStreamError(streamErr)
	assert.Contains(t, out, "Connection Lost")
	assert.Contains(t, out, "unavailable")
	assert.NotContains(t, out, "secret")

	authErr := apperrors.Wrap(apperrors.FetchFailed, "fetch query result", status.Error(codes.Unauthenticated, "expired"))
	out = FormatStreamError(authErr)
	assert.Contains(t, out, "Query Failed")
	assert.Contains(t, out, "graphwatch login")
}

func TestPresentError(t *testing.T) {
	assert.Empty(t, PresentError("ctx", nil))
	assert.Equal(t, "connect: dial postgres://*:*@h/db", PresentError("connect", errors.New("dial postgres://u:p@h/db")))
	assert.Equal(t,
		"watch [fetch_failed]: fetch_failed: fetch query result: refused",
		PresentError("watch", apperrors.Wrap(apperrors.FetchFailed, "fetch query result", errors.New("refused"))))
}
