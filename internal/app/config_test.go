package app

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/florianilch/claudine-toolcall/internal/tokenstore"
	"github.com/florianilch/claudine-toolcall/internal/toolcall/anthropicclaude"
)

func environ(vars ...string) func() []string {
	return func() []string { return vars }
}

func TestLoad_Defaults(t *testing.T) {
	t.Parallel()
	cfg, err := Load("", nil, environ())
	require.NoError(t, err)

	assert.Equal(t, string(anthropicclaude.DefaultModel), cfg.Model.Name)
	assert.Equal(t, int64(anthropicclaude.DefaultMaxTokens), cfg.Model.MaxTokens)
	assert.Equal(t, "default_end", cfg.Model.CacheControl)
	assert.Empty(t, cfg.Model.ReasoningEffort)
	assert.Nil(t, cfg.Model.Temperature)
	assert.Equal(t, AuthTypeAPIKey, cfg.Auth.Type)
	assert.Equal(t, TokenStorageTypeEnv, cfg.Auth.Storage)
	assert.Equal(t, "ANTHROPIC_API_KEY", cfg.Auth.EnvVar)
	assert.Equal(t, "info", cfg.Log.Level)
}

func TestLoad_Precedence(t *testing.T) {
	t.Parallel()
	path := filepath.Join(t.TempDir(), "config.toml")
	require.NoError(t, os.WriteFile(path, []byte(`
[model]
max_tokens = 2048
reasoning_effort = "low"
temperature = 0.5

[model.headers]
anthropic-beta = "a,b"

[log]
level = "warn"
format = "json"
`), 0o600))

	cfg, err := Load(path,
		map[string]any{"log.level": "debug"},
		environ("CLAUDINE_MODEL__MAX_TOKENS=8192", "CLAUDINE_LOG__LEVEL=error", "UNRELATED=1"),
	)
	require.NoError(t, err)

	assert.Equal(t, int64(8192), cfg.Model.MaxTokens, "env overrides file")
	assert.Equal(t, "low", cfg.Model.ReasoningEffort, "file overrides defaults")
	require.NotNil(t, cfg.Model.Temperature)
	assert.InDelta(t, 0.5, *cfg.Model.Temperature, 0)
	assert.Equal(t, "debug", cfg.Log.Level, "overrides win over env")
	assert.Equal(t, "json", cfg.Log.Format)
	assert.Equal(t, map[string]string{"anthropic-beta": "a,b"}, cfg.Model.Headers)
}

func TestLoad_Invalid(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name    string
		env     []string
		wantErr string
	}{
		{name: "reasoning effort", env: []string{"CLAUDINE_MODEL__REASONING_EFFORT=max"}, wantErr: "ReasoningEffort"},
		{name: "cache mode", env: []string{"CLAUDINE_MODEL__CACHE_CONTROL=always"}, wantErr: "CacheControl"},
		{name: "auth type", env: []string{"CLAUDINE_AUTH__TYPE=basic"}, wantErr: "Type"},
		{name: "storage", env: []string{"CLAUDINE_AUTH__STORAGE=vault"}, wantErr: "Storage"},
		{name: "max tokens", env: []string{"CLAUDINE_MODEL__MAX_TOKENS=0"}, wantErr: "MaxTokens"},
		{name: "log exporter", env: []string{"CLAUDINE_LOG__EXPORTER=kafka"}, wantErr: "Exporter"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			_, err := Load("", nil, environ(tt.env...))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestLoad_MissingFile(t *testing.T) {
	t.Parallel()
	_, err := Load(filepath.Join(t.TempDir(), "absent.toml"), nil, environ())
	require.Error(t, err)
}

func TestAuthConfig_NewTokenStore(t *testing.T) {
	t.Parallel()
	auth := AuthConfig{EnvVar: "KEY", File: "/tmp/cred", KeyringService: "svc", KeyringUser: "me"}

	auth.Storage = TokenStorageTypeEnv
	store, err := auth.NewTokenStore()
	require.NoError(t, err)
	assert.IsType(t, &tokenstore.Env{}, store)

	auth.Storage = TokenStorageTypeFile
	store, err = auth.NewTokenStore()
	require.NoError(t, err)
	assert.Equal(t, "/tmp/cred", store.(*tokenstore.File).Path)

	auth.Storage = TokenStorageTypeKeyring
	store, err = auth.NewTokenStore()
	require.NoError(t, err)
	assert.Equal(t, "svc", store.(*tokenstore.Keyring).Service)

	auth.Storage = "vault"
	_, err = auth.NewTokenStore()
	require.Error(t, err)
}

func TestModelConfig_AdapterConfig(t *testing.T) {
	t.Parallel()
	temperature := 0.1
	m := ModelConfig{
		Name:            "claude-x",
		MaxTokens:       100,
		Temperature:     &temperature,
		ReasoningEffort: "high",
		CacheControl:    "default_end",
		Headers:         map[string]string{"X-A": "1"},
	}
	got := m.AdapterConfig()
	assert.Equal(t, anthropicclaude.ReasoningEffortHigh, got.ReasoningEffort)
	assert.Equal(t, anthropicclaude.CacheModeDefaultEnd, got.CacheControl)
	assert.Equal(t, "claude-x", got.Model)
	assert.Same(t, &temperature, got.Temperature)
}
