package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("CHATGATE_PROVIDER_MODE", "mock")

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, 8080, cfg.HTTP.Port)
	assert.Equal(t, "mock", cfg.Provider.Mode)
	assert.Equal(t, 800*time.Millisecond, cfg.Run.PollInterval)
	assert.Equal(t, 60*time.Second, cfg.Run.Timeout)
	assert.Equal(t, 4000, cfg.Chat.MaxMessageChars)
	assert.Equal(t, 6, cfg.Chat.HistoryWindow)
	assert.Equal(t, 10, cfg.Chat.ResolvePageSize)
	assert.Equal(t, 1500*time.Millisecond, cfg.RateLimit.Cooldown)
	assert.Equal(t, "memory", cfg.RateLimit.Backend)
	assert.Equal(t, 10*time.Minute, cfg.Token.TTL)
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("CHATGATE_HTTP_PORT", "9090")
	t.Setenv("CHATGATE_RUN_TIMEOUT", "5s")
	t.Setenv("OPENAI_API_KEY", "sk-env")
	t.Setenv("JWT_SECRET", "jwt-env")

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, 9090, cfg.HTTP.Port)
	assert.Equal(t, 5*time.Second, cfg.Run.Timeout)
	assert.Equal(t, "sk-env", cfg.Provider.APIKey)
	assert.Equal(t, "jwt-env", cfg.Token.Secret)
}

func TestLoad_File(t *testing.T) {
	path := filepath.Join(t.TempDir(), "chatgate.yaml")
	content := `
provider:
  mode: mock
chat:
  max_message_chars: 200
access:
  assistant_id: asst_1
ratelimit:
  backend: redis
redis:
  addr: redis:6379
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 200, cfg.Chat.MaxMessageChars)
	assert.Equal(t, "asst_1", cfg.Access.AssistantID)
	assert.Equal(t, "redis", cfg.RateLimit.Backend)
	assert.Equal(t, "redis:6379", cfg.Redis.Addr)
}

func TestLoad_OpenAIRequiresKey(t *testing.T) {
	t.Setenv("OPENAI_API_KEY", "")
	t.Setenv("CHATGATE_PROVIDER_API_KEY", "")

	_, err := Load("")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "APIKey")
}

func TestLoad_InvalidBackend(t *testing.T) {
	t.Setenv("CHATGATE_PROVIDER_MODE", "mock")
	t.Setenv("CHATGATE_RATELIMIT_BACKEND", "memcached")

	_, err := Load("")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Backend")
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}
