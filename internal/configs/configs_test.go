package configs

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func clearEnv(t *testing.T) {
	for _, key := range []string{"OPENAI_API_KEY", "AI_PROVIDER", "AI_MODEL", "PUBLIC_API_KEYS", "DATABASE_URL", "HTTP_ADDR", "ETHPLORER_API_KEY"} {
		t.Setenv(key, "")
	}
}

func TestLoad_MissingFileUsesDefaults(t *testing.T) {
	clearEnv(t)

	config, err := Load(filepath.Join(t.TempDir(), "missing.json"))
	require.NoError(t, err)

	assert.Equal(t, ":8080", config.Server.Addr)
	assert.Equal(t, "openai", config.AIConfig.Provider)
	assert.Empty(t, config.AIConfig.Model)
	assert.Equal(t, 5000, config.AIConfig.MaxTokens)
	assert.True(t, config.AIConfig.JSONModeEnabled())
	assert.Equal(t, time.Minute, config.Server.Window())
	assert.Equal(t, 10*time.Second, config.Sources.RequestTimeout())
	assert.Empty(t, config.Server.APIKeys)
}

func TestLoad_FileAndEnvOverrides(t *testing.T) {
	clearEnv(t)

	path := filepath.Join(t.TempDir(), "config.json")
	require.NoError(t, os.WriteFile(path, []byte(`{
		"server": {"addr": ":9000", "api_keys": ["file-key"], "rate_limit_window": "30s"},
		"ai_config": {"provider": "deepseek", "api_key": "from-file", "json_mode": false, "max_prompt_chars": 1500},
		"sources": {"timeout": "3s"},
		"database": {"conn_str": "postgres://file"}
	}`), 0o600))

	t.Setenv("OPENAI_API_KEY", "from-env")
	t.Setenv("PUBLIC_API_KEYS", " a, ,b ")
	t.Setenv("DATABASE_URL", "postgres://env")

	config, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, ":9000", config.Server.Addr)
	assert.Equal(t, []string{"a", "b"}, config.Server.APIKeys)
	assert.Equal(t, 30*time.Second, config.Server.Window())
	assert.Equal(t, "deepseek", config.AIConfig.Provider)
	assert.Equal(t, "from-env", config.AIConfig.APIKey)
	assert.False(t, config.AIConfig.JSONModeEnabled())
	assert.Equal(t, 1500, config.AIConfig.MaxPromptChars)
	assert.Equal(t, 3*time.Second, config.Sources.RequestTimeout())
	assert.Equal(t, "postgres://env", config.Database.ConnStr)
	assert.Equal(t, 5000, config.AIConfig.MaxTokens, "unset fields keep defaults")
}

func TestLoad_InvalidJSON(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	require.NoError(t, os.WriteFile(path, []byte(`{not json`), 0o600))

	_, err := Load(path)
	assert.Error(t, err)
}

func TestParseDuration(t *testing.T) {
	assert.Equal(t, time.Minute, parseDuration("", time.Minute))
	assert.Equal(t, time.Minute, parseDuration("bogus", time.Minute))
	assert.Equal(t, time.Minute, parseDuration("-5s", time.Minute))
	assert.Equal(t, 2*time.Second, parseDuration("2s", time.Minute))
}
