// Copyright (c) 2025 Graphwatch
// Licensed under the MIT License. See LICENSE file in the project root for details.

package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	jsoniter "github.com/json-iterator/go"

	"graphwatch/cli/internal/bridge"
	"graphwatch/cli/internal/config"
	"graphwatch/cli/internal/endpoint"
	apperrors "graphwatch/cli/internal/errors"
	"graphwatch/cli/internal/keychain"
	"graphwatch/cli/internal/logging"
	"graphwatch/cli/internal/query"
	"graphwatch/cli/internal/session"
)

// Target origins reported by sourceinfo.
const (
	originFlag     = "--endpoint flag"
	originEnv      = config.EnvEndpoint + " environment variable"
	originEnvDSN   = config.EnvDSN + " environment variable"
	originKeychain = "OS keychain (graphwatch connect)"
	originConfig   = "config file"
	originDefault  = "built-in default"
)

// globalFlags holds the persistent flags shared by all subcommands.
type globalFlags struct {
	endpoint  string
	logLevel  string
	logFormat string
	queryFile string
	operation string
	vars      []string
	listen    string
}

var flags globalFlags

// runtimeEnv is what a command needs once configuration is resolved.
type runtimeEnv struct {
	cfg config.Config
	log *logging.Logger
}

// target is the endpoint a command talks to and where it came from.
type target struct {
	raw    string
	origin string
}

// setup loads the config file, applies environment and flag overrides and
// builds the logger.
func setup() (*runtimeEnv, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	cfg = config.ApplyEnv(cfg, os.Getenv)
	if cfg, err = applyFlags(cfg, flags); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	log, err := logging.New(cfg.LogLevel, cfg.LogFormat)
	if err != nil {
		return nil, err
	}
	return &runtimeEnv{cfg: cfg, log: log}, nil
}

func applyFlags(cfg config.Config, f globalFlags) (config.Config, error) {
	if f.endpoint != "" {
		cfg.Endpoint = f.endpoint
	}
	if f.logLevel != "" {
		cfg.LogLevel = f.logLevel
	}
	if f.logFormat != "" {
		cfg.LogFormat = f.logFormat
	}
	if f.queryFile != "" {
		cfg.Query.File = f.queryFile
		cfg.Query.Document = ""
	}
	if f.operation != "" {
		cfg.Query.OperationName = f.operation
	}
	if f.listen != "" {
		cfg.Source.ListenChannel = f.listen
	}
	if len(f.vars) > 0 {
		vars, err := parseVars(f.vars)
		if err != nil {
			return cfg, err
		}
		merged := make(map[string]any, len(cfg.Query.Variables)+len(vars))
		for k, v := range cfg.Query.Variables {
			merged[k] = v
		}
		for k, v := range vars {
			merged[k] = v
		}
		cfg.Query.Variables = merged
	}
	return cfg, nil
}

// parseVars decodes name=value pairs. Values that are valid JSON keep their
// JSON type; anything else is taken as a string.
func parseVars(pairs []string) (map[string]any, error) {
	out := make(map[string]any, len(pairs))
	for _, pair := range pairs {
		name, value, ok := strings.Cut(pair, "=")
		name = strings.TrimSpace(name)
		if !ok || name == "" {
			return nil, apperrors.New(apperrors.ConfigInvalid, fmt.Sprintf("variable %q is not name=value", pair))
		}
		var v any
		if err := jsoniter.ConfigCompatibleWithStandardLibrary.UnmarshalFromString(value, &v); err != nil {
			v = value
		}
		out[name] = v
	}
	return out, nil
}

// resolveTarget picks the endpoint: the flag, then GRAPHWATCH_ENDPOINT, then
// GRAPHWATCH_DSN, then a DSN saved by 'connect', then the config file.
func resolveTarget(cfg config.Config, flagEndpoint string, getenv func(string) string, loadDSN func() (string, error)) (target, error) {
	if flagEndpoint != "" {
		return target{raw: flagEndpoint, origin: originFlag}, nil
	}
	if v := strings.TrimSpace(getenv(config.EnvEndpoint)); v != "" {
		return target{raw: v, origin: originEnv}, nil
	}
	if v := strings.TrimSpace(getenv(config.EnvDSN)); v != "" {
		return target{raw: v, origin: originEnvDSN}, nil
	}
	if cfg.Source.Provided && loadDSN != nil {
		dsn, err := loadDSN()
		switch {
		case err == nil && strings.TrimSpace(dsn) != "":
			return target{raw: strings.TrimSpace(dsn), origin: originKeychain}, nil
		case err != nil && !errors.Is(err, keychain.ErrNotFound):
			return target{}, fmt.Errorf("load source DSN from keychain: %w", err)
		}
	}
	if cfg.Endpoint == config.DefaultEndpoint {
		return target{raw: cfg.Endpoint, origin: originDefault}, nil
	}
	return target{raw: cfg.Endpoint, origin: originConfig}, nil
}

func keychainDSN() (string, error) {
	km, err := keychain.GetManager()
	if err != nil {
		return "", err
	}
	return km.LoadSourceDSN()
}

// resolveToken returns the API token from GRAPHWATCH_TOKEN or the keychain,
// and where it came from. A missing token is not an error.
func resolveToken(log *logging.Logger) (token, origin string) {
	if v := strings.TrimSpace(os.Getenv(config.EnvToken)); v != "" {
		return v, config.EnvToken + " environment variable"
	}
	km, err := keychain.GetManager()
	if err != nil {
		log.Debug("keychain unavailable", "error", err)
		return "", ""
	}
	t, err := km.LoadAPIToken()
	if err != nil {
		if !errors.Is(err, keychain.ErrNotFound) {
			log.Debug("loading API token failed", "error", err)
		}
		return "", ""
	}
	return t, "OS keychain"
}

// pipeline is everything a session needs, bound to one endpoint.
type pipeline struct {
	endpoint endpoint.Endpoint
	origin   string
	request  query.Request
	bridge   bridge.Bridge
	reporter *logging.Reporter
	consumer *session.Consumer
}

// openPipeline resolves the endpoint and the request and connects the bridge.
func openPipeline(ctx context.Context, rt *runtimeEnv) (*pipeline, error) {
	tgt, err := resolveTarget(rt.cfg, flags.endpoint, os.Getenv, keychainDSN)
	if err != nil {
		return nil, err
	}
	ep, err := endpoint.Parse(tgt.raw)
	if err != nil {
		return nil, err
	}
	req, err := rt.cfg.Query.Request()
	if err != nil {
		return nil, err
	}
	if ep.Kind != endpoint.KindPostgres {
		if _, err := query.ParseOperation(req); err != nil {
			return nil, apperrors.Wrap(apperrors.ConfigInvalid, "query document", err)
		}
	}

	token, _ := resolveToken(rt.log)
	rt.log.Debug("connecting", "endpoint", ep.String(), "kind", string(ep.Kind), "origin", tgt.origin)
	br, err := bridge.New(ctx, ep, bridge.Options{
		AccessToken:   token,
		ListenChannel: rt.cfg.Source.ListenChannel,
		Logger:        rt.log,
	})
	if err != nil {
		return nil, err
	}

	reporter := logging.NewReporter(rt.log)
	return &pipeline{
		endpoint: ep,
		origin:   tgt.origin,
		request:  req,
		bridge:   br,
		reporter: reporter,
		consumer: session.NewConsumer(br, reporter, session.WithLogger(rt.log)),
	}, nil
}

func (p *pipeline) Close() {
	_ = p.bridge.Close()
}
