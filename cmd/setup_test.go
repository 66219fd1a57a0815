package cmd

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"graphwatch/cli/internal/config"
	apperrors "graphwatch/cli/internal/errors"
	"graphwatch/cli/internal/keychain"
)

func TestParseVars(t *testing.T) {
	vars, err := parseVars([]string{
		"first=5",
		"name=uniswap",
		"live=true",
		"filter={\"token\":\"WETH\"}",
		"quoted=\"5\"",
		"empty=",
	})
	require.NoError(t, err)

	assert.Equal(t, float64(5), vars["first"])
	assert.Equal(t, "uniswap", vars["name"])
	assert.Equal(t, true, vars["live"])
	assert.Equal(t, map[string]any{"token": "WETH"}, vars["filter"])
	assert.Equal(t, "5", vars["quoted"])
	assert.Equal(t, "", vars["empty"])
}

func TestParseVars_Invalid(t *testing.T) {
	for _, pair := range []string{"noequals", "=value", "  =x"} {
		_, err := parseVars([]string{pair})
		require.Error(t, err, pair)
		assert.Equal(t, apperrors.ConfigInvalid, apperrors.KindOf(err), pair)
	}
}

func TestApplyFlags(t *testing.T) {
	cfg := config.Defaults()
	cfg.Query.Document = "query { a }"
	cfg.Query.Variables = map[string]any{"first": 1, "keep": "yes"}

	got, err := applyFlags(cfg, globalFlags{
		endpoint:  "grpc://localhost:9000",
		logLevel:  "debug",
		queryFile: "swaps.graphql",
		vars:      []string{"first=10"},
		listen:    "swaps",
	})
	require.NoError(t, err)

	assert.Equal(t, "grpc://localhost:9000", got.Endpoint)
	assert.Equal(t, "debug", got.LogLevel)
	assert.Equal(t, "swaps.graphql", got.Query.File)
	assert.Empty(t, got.Query.Document)
	assert.Equal(t, map[string]any{"first": float64(10), "keep": "yes"}, got.Query.Variables)
	assert.Equal(t, "swaps", got.Source.ListenChannel)
	assert.Equal(t, 1, cfg.Query.Variables["first"], "input config must not change")
}

func TestResolveTarget(t *testing.T) {
	env := func(vals map[string]string) func(string) string {
		return func(k string) string { return vals[k] }
	}
	stored := func() (string, error) { return "postgres://u:p@db:5432/app", nil }
	missing := func() (string, error) { return "", keychain.ErrNotFound }

	withSource := config.Defaults()
	withSource.Source.Provided = true
	fromFile := config.Defaults()
	fromFile.Endpoint = "http://localhost:4000/graphql"

	tests := []struct {
		name       string
		cfg        config.Config
		flag       string
		env        map[string]string
		load       func() (string, error)
		wantRaw    string
		wantOrigin string
	}{
		{"flag wins", withSource, "grpc://x:1", map[string]string{config.EnvEndpoint: "http://e"}, stored, "grpc://x:1", originFlag},
		{"env endpoint", withSource, "", map[string]string{config.EnvEndpoint: "http://e", config.EnvDSN: "postgres://d"}, stored, "http://e", originEnv},
		{"env dsn", withSource, "", map[string]string{config.EnvDSN: " postgres://d "}, stored, "postgres://d", originEnvDSN},
		{"keychain dsn", withSource, "", nil, stored, "postgres://u:p@db:5432/app", originKeychain},
		{"keychain empty falls through", withSource, "", nil, missing, config.DefaultEndpoint, originDefault},
		{"source not provided", config.Defaults(), "", nil, stored, config.DefaultEndpoint, originDefault},
		{"config file", fromFile, "", nil, nil, "http://localhost:4000/graphql", originConfig},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := resolveTarget(tt.cfg, tt.flag, env(tt.env), tt.load)
			require.NoError(t, err)
			assert.Equal(t, tt.wantRaw, got.raw)
			assert.Equal(t, tt.wantOrigin, got.origin)
		})
	}
}

func TestResolveTarget_KeychainError(t *testing.T) {
	cfg := config.Defaults()
	cfg.Source.Provided = true
	boom := errors.New("keyring locked")

	_, err := resolveTarget(cfg, "", func(string) string { return "" }, func() (string, error) { return "", boom })
	assert.ErrorIs(t, err, boom)
}

func TestDescribeQuery(t *testing.T) {
	assert.Equal(t, "q.graphql", describeQuery("q.graphql", ""))
	assert.Equal(t, "inline document from config", describeQuery("", "query { a }"))
	assert.Equal(t, "built-in swaps query", describeQuery("", ""))
}
