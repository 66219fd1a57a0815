// Package config loads and stores CLI configuration in the XDG config dir.
// Only non-secret settings are kept here; secrets go to OS keychain.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	jsoniter "github.com/json-iterator/go"

	apperrors "graphwatch/cli/internal/errors"
	"graphwatch/cli/internal/logging"
	"graphwatch/cli/internal/query"
	"graphwatch/cli/internal/xdg"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// Environment variables that override file settings.
const (
	EnvEndpoint = "GRAPHWATCH_ENDPOINT"
	EnvToken    = "GRAPHWATCH_TOKEN"
	EnvDSN      = "GRAPHWATCH_DSN"
)

// DefaultEndpoint is used when neither the file nor the environment names one.
const DefaultEndpoint = "https://api.thegraph.com/subgraphs/name/uniswap/uniswap-v2"

// Config holds non-sensitive CLI settings.
type Config struct {
	LogLevel  string       `json:"log_level"`
	LogFormat string       `json:"log_format"`
	Endpoint  string       `json:"endpoint"`
	Query     QueryConfig  `json:"query"`
	Source    SourceConfig `json:"source"`
}

// QueryConfig selects the document a session runs.
type QueryConfig struct {
	Document      string         `json:"document,omitempty"`
	File          string         `json:"file,omitempty"`
	OperationName string         `json:"operation_name,omitempty"`
	Variables     map[string]any `json:"variables,omitempty"`
}

// SourceConfig holds settings for Postgres sources.
type SourceConfig struct {
	// ListenChannel turns a query into a live query re-run on every NOTIFY.
	ListenChannel string `json:"listen_channel,omitempty"`
	// Provided records that a DSN was stored in the keychain by 'connect'.
	Provided bool `json:"provided"`
}

// Defaults returns the configuration used when no file exists.
func Defaults() Config {
	return Config{
		LogLevel:  "info",
		LogFormat: logging.FormatText,
		Endpoint:  DefaultEndpoint,
	}
}

// Path returns the path to the config file.
func Path() (string, error) {
	dir, err := xdg.ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.json"), nil
}

// Load reads configuration; missing file returns defaults.
func Load() (Config, error) {
	p, err := Path()
	if err != nil {
		return Config{}, err
	}
	return LoadFrom(p)
}

// LoadFrom reads configuration from p. Fields absent from the file keep
// their defaults.
func LoadFrom(p string) (Config, error) {
	c := Defaults()
	data, err := os.ReadFile(p)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return c, nil
		}
		return c, err
	}
	if err := json.Unmarshal(data, &c); err != nil {
		return c, apperrors.Wrap(apperrors.ConfigInvalid, "decode "+p, err)
	}
	return c, nil
}

// Save writes configuration with 0600 permissions.
func Save(c Config) error {
	p, err := Path()
	if err != nil {
		return err
	}
	return SaveTo(p, c)
}

// SaveTo writes configuration to p with 0600 permissions.
func SaveTo(p string, c Config) error {
	b, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(p, b, 0o600)
}

// ApplyEnv returns c with environment overrides applied. getenv is usually
// os.Getenv.
func ApplyEnv(c Config, getenv func(string) string) Config {
	if v := strings.TrimSpace(getenv(EnvEndpoint)); v != "" {
		c.Endpoint = v
	}
	return c
}

// Validate checks settings that would otherwise fail late.
func (c Config) Validate() error {
	if _, err := logging.ParseLevel(c.LogLevel); err != nil {
		return apperrors.Wrap(apperrors.ConfigInvalid, "log_level", err)
	}
	switch c.LogFormat {
	case "", logging.FormatText, logging.FormatJSON:
	default:
		return apperrors.New(apperrors.ConfigInvalid, fmt.Sprintf("log_format %q is not text or json", c.LogFormat))
	}
	if strings.TrimSpace(c.Endpoint) == "" {
		return apperrors.New(apperrors.ConfigInvalid, "endpoint is empty")
	}
	if c.Query.Document != "" && c.Query.File != "" {
		return apperrors.New(apperrors.ConfigInvalid, "query.document and query.file are mutually exclusive")
	}
	return nil
}

// ResolveDocument returns the query document: the inline document, the contents of
// the query file, or the default swaps query.
func (q QueryConfig) ResolveDocument() (string, error) {
	switch {
	case q.Document != "":
		return q.Document, nil
	case q.File != "":
		b, err := os.ReadFile(q.File)
		if err != nil {
			return "", apperrors.Wrap(apperrors.ConfigInvalid, "read query file", err)
		}
		doc := strings.TrimSpace(string(b))
		if doc == "" {
			return "", apperrors.New(apperrors.ConfigInvalid, "query file "+q.File+" is empty")
		}
		return doc, nil
	default:
		return query.DefaultDocument, nil
	}
}

// Request builds the request a session runs.
func (q QueryConfig) Request() (query.Request, error) {
	doc, err := q.ResolveDocument()
	if err != nil {
		return query.Request{}, err
	}
	req := query.NewRequest(doc, q.Variables)
	if q.OperationName != "" {
		req = req.WithOperationName(q.OperationName)
	}
	return req, nil
}
