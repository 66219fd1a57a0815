// Copyright (c) 2025 Graphwatch
// Licensed under the MIT License. See LICENSE file in the project root for details.

package logging

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/pterm/pterm"
)

// Log formats accepted by New.
const (
	FormatText = "text"
	FormatJSON = "json"
)

// Logger is a leveled key/value logger backed by pterm.
type Logger struct {
	pl *pterm.Logger
}

// New builds a logger writing to stderr. level is one of trace, debug, info,
// warn, error or disabled; format is text or json.
func New(level, format string) (*Logger, error) {
	return NewWithWriter(os.Stderr, level, format)
}

// NewWithWriter is New with an explicit destination.
func NewWithWriter(w io.Writer, level, format string) (*Logger, error) {
	lvl, err := ParseLevel(level)
	if err != nil {
		return nil, err
	}

	pl := pterm.DefaultLogger.
		WithLevel(lvl).
		WithWriter(w)

	switch strings.ToLower(strings.TrimSpace(format)) {
	case "", FormatText:
		pl = pl.WithFormatter(pterm.LogFormatterColorful)
	case FormatJSON:
		pl = pl.WithFormatter(pterm.LogFormatterJSON)
	default:
		return nil, fmt.Errorf("unknown log format %q", format)
	}

	return &Logger{pl: pl}, nil
}

// Nop returns a logger that discards everything.
func Nop() *Logger {
	return &Logger{pl: pterm.DefaultLogger.WithLevel(pterm.LogLevelDisabled).WithWriter(io.Discard)}
}

// ParseLevel maps a level name to a pterm log level.
func ParseLevel(level string) (pterm.LogLevel, error) {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "trace":
		return pterm.LogLevelTrace, nil
	case "debug":
		return pterm.LogLevelDebug, nil
	case "", "info":
		return pterm.LogLevelInfo, nil
	case "warn", "warning":
		return pterm.LogLevelWarn, nil
	case "error":
		return pterm.LogLevelError, nil
	case "off", "disabled":
		return pterm.LogLevelDisabled, nil
	default:
		return pterm.LogLevelInfo, fmt.Errorf("unknown log level %q", level)
	}
}

func (l *Logger) Trace(msg string, kv ...any) { l.pl.Trace(Mask(msg), l.args(kv)) }
func (l *Logger) Debug(msg string, kv ...any) { l.pl.Debug(Mask(msg), l.args(kv)) }
func (l *Logger) Info(msg string, kv ...any)  { l.pl.Info(Mask(msg), l.args(kv)) }
func (l *Logger) Warn(msg string, kv ...any)  { l.pl.Warn(Mask(msg), l.args(kv)) }
func (l *Logger) Error(msg string, kv ...any) { l.pl.Error(Mask(msg), l.args(kv)) }

// args masks string and error values before they reach the formatter.
func (l *Logger) args(kv []any) []pterm.LoggerArgument {
	masked := make([]any, len(kv))
	for i, v := range kv {
		switch val := v.(type) {
		case error:
			masked[i] = Mask(val.Error())
		case string:
			masked[i] = Mask(val)
		default:
			masked[i] = v
		}
	}
	return l.pl.Args(masked...)
}
