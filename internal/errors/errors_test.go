package errors

import (
	stderrors "errors"
	"fmt"
	"io"
	"testing"
)

func TestE_Error(t *testing.T) {
	tests := []struct {
		name string
		err  *E
		want string
	}{
		{
			name: "with cause",
			err:  Wrap(FetchFailed, "query request failed", io.ErrUnexpectedEOF),
			want: "fetch_failed: query request failed: unexpected EOF",
		},
		{
			name: "without cause",
			err:  New(ConfigInvalid, "endpoint is required"),
			want: "config_invalid: endpoint is required",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.err.Error(); got != tt.want {
				t.Errorf("Error() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestE_UnwrapAndKind(t *testing.T) {
	cause := stderrors.New("connection reset")
	err := fmt.Errorf("session abc: %w", Wrap(StreamFailed, "next element", cause))

	if !stderrors.Is(err, cause) {
		t.Errorf("errors.Is(err, cause) = false, want true")
	}
	if !stderrors.Is(err, New(StreamFailed, "")) {
		t.Errorf("errors.Is(err, StreamFailed) = false, want true")
	}
	if stderrors.Is(err, New(FetchFailed, "")) {
		t.Errorf("errors.Is(err, FetchFailed) = true, want false")
	}
	if got := KindOf(err); got != StreamFailed {
		t.Errorf("KindOf() = %v, want %v", got, StreamFailed)
	}
	if got := KindOf(cause); got != "" {
		t.Errorf("KindOf(plain) = %v, want empty", got)
	}
}
