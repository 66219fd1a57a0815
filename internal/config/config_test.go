package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "graphwatch/cli/internal/errors"
	"graphwatch/cli/internal/query"
)

func TestLoad_MissingFileReturnsDefaults(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())

	c, err := Load()
	require.NoError(t, err)
	assert.Equal(t, Defaults(), c)
	assert.NoError(t, c.Validate())
}

func TestSaveLoad_RoundTripKeepsPermissions(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())

	want := Defaults()
	want.Endpoint = "grpcs://graph.example.com:443"
	want.Query.File = "/tmp/swaps.graphql"
	want.Source.ListenChannel = "swaps"
	require.NoError(t, Save(want))

	p, err := Path()
	require.NoError(t, err)
	info, err := os.Stat(p)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())

	got, err := Load()
	require.NoError(t, err)
	assert.Equal(t, want, got)
}

func TestLoadFrom_PartialFileKeepsDefaults(t *testing.T) {
	p := filepath.Join(t.TempDir(), "config.json")
	require.NoError(t, os.WriteFile(p, []byte(`{"endpoint":"http://localhost:4000/graphql"}`), 0o600))

	c, err := LoadFrom(p)
	require.NoError(t, err)
	assert.Equal(t, "http://localhost:4000/graphql", c.Endpoint)
	assert.Equal(t, "info", c.LogLevel)
}

func TestLoadFrom_Malformed(t *testing.T) {
	p := filepath.Join(t.TempDir(), "config.json")
	require.NoError(t, os.WriteFile(p, []byte(`{"endpoint":`), 0o600))

	_, err := LoadFrom(p)
	require.Error(t, err)
	assert.Equal(t, apperrors.ConfigInvalid, apperrors.KindOf(err))
}

func TestApplyEnv(t *testing.T) {
	env := map[string]string{EnvEndpoint: " postgres://db/chain "}
	c := ApplyEnv(Defaults(), func(k string) string { return env[k] })
	assert.Equal(t, "postgres://db/chain", c.Endpoint)

	c = ApplyEnv(Defaults(), func(string) string { return "" })
	assert.Equal(t, DefaultEndpoint, c.Endpoint)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{name: "defaults", mutate: func(*Config) {}},
		{name: "bad level", mutate: func(c *Config) { c.LogLevel = "loud" }, wantErr: true},
		{name: "bad format", mutate: func(c *Config) { c.LogFormat = "xml" }, wantErr: true},
		{name: "empty endpoint", mutate: func(c *Config) { c.Endpoint = " " }, wantErr: true},
		{
			name: "document and file",
			mutate: func(c *Config) {
				c.Query.Document = "{ a }"
				c.Query.File = "q.graphql"
			},
			wantErr: true,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := Defaults()
			tt.mutate(&c)
			err := c.Validate()
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			assert.NoError(t, err)
		})
	}
}

func TestQueryConfig_Request(t *testing.T) {
	req, err := QueryConfig{}.Request()
	require.NoError(t, err)
	assert.Equal(t, query.DefaultDocument, req.Document())

	file := filepath.Join(t.TempDir(), "q.graphql")
	require.NoError(t, os.WriteFile(file, []byte("\nsubscription S { swaps { id } }\n"), 0o600))
	req, err = QueryConfig{File: file, OperationName: "S", Variables: map[string]any{"first": 3}}.Request()
	require.NoError(t, err)
	assert.Equal(t, "subscription S { swaps { id } }", req.Document())
	assert.Equal(t, "S", req.OperationName())
	assert.Equal(t, 3, req.Variables()["first"])

	empty := filepath.Join(t.TempDir(), "empty.graphql")
	require.NoError(t, os.WriteFile(empty, nil, 0o600))
	_, err = QueryConfig{File: empty}.Request()
	assert.Error(t, err)

	_, err = QueryConfig{File: filepath.Join(t.TempDir(), "missing")}.Request()
	assert.Error(t, err)
}
