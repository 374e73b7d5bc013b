package config_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alejandrodnm/resetpoint/config"
	"github.com/alejandrodnm/resetpoint/internal/domain"
)

func TestLoad_SampleFile(t *testing.T) {
	cfg, err := config.Load("config.yaml")
	require.NoError(t, err)

	assert.Equal(t, domain.DefaultPolicy(), cfg.Policy())
	assert.Equal(t, int64(10<<20), cfg.MaxUploadBytes())
	assert.Equal(t, ',', cfg.Delimiter())
	assert.Equal(t, 168*time.Hour, cfg.Advice.CacheTTL)
}

func TestParse_Defaults(t *testing.T) {
	cfg, err := config.Parse([]byte("{}"))
	require.NoError(t, err)

	assert.Equal(t, ":8000", cfg.Server.Addr)
	assert.Equal(t, []string{"http://localhost:3000"}, cfg.Server.AllowedOrigins)
	assert.Equal(t, config.ProviderLLM, cfg.Advice.Provider)
	assert.Equal(t, 3, cfg.Advice.MaxTips)
	assert.Equal(t, config.DriverSQLite, cfg.Storage.Driver)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, domain.DefaultPolicy(), cfg.Policy())
}

func TestParse_EngineOverrides(t *testing.T) {
	cfg, err := config.Parse([]byte(`
engine:
  revenge_window: 45m
  overtrading_multiple: 3
  starting_balance: 2500
server:
  csv_delimiter: ";"
`))
	require.NoError(t, err)

	p := cfg.Policy()
	assert.Equal(t, 45*time.Minute, p.RevengeWindow)
	assert.InDelta(t, 3.0, p.OvertradingMultiple, 1e-9)
	assert.True(t, p.HasStartingBalance)
	assert.InDelta(t, 2500.0, p.StartingBalance, 1e-9)
	assert.Equal(t, domain.DefaultPolicy().RecencyLongWindow, p.RecencyLongWindow)
	assert.Equal(t, ';', cfg.Delimiter())
}

func TestParse_EnvOverrides(t *testing.T) {
	t.Setenv("ADVICE_PROVIDER", "rules")
	t.Setenv("STORAGE_DRIVER", "redis")
	t.Setenv("REDIS_ADDR", "redis:6380")
	t.Setenv("LLM_API_KEY", "sk-test")
	t.Setenv("STARTING_BALANCE", "100.5")

	cfg, err := config.Parse([]byte("advice:\n  provider: llm\n"))
	require.NoError(t, err)

	assert.Equal(t, config.ProviderRules, cfg.Advice.Provider)
	assert.Equal(t, config.DriverRedis, cfg.Storage.Driver)
	assert.Equal(t, "redis:6380", cfg.Storage.RedisAddr)
	assert.Equal(t, "sk-test", cfg.Advice.APIKey)
	assert.InDelta(t, 100.5, cfg.Policy().StartingBalance, 1e-9)
}

func TestParse_Invalid(t *testing.T) {
	cases := map[string]string{
		"provider":  "advice:\n  provider: gpt\n",
		"driver":    "storage:\n  driver: postgres\n",
		"delimiter": "server:\n  csv_delimiter: \";;\"\n",
		"policy":    "engine:\n  recency_short_window: 30\n",
		"yaml":      "server: [",
	}
	for name, doc := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := config.Parse([]byte(doc))
			assert.Error(t, err)
		})
	}
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := config.Load(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestDefault_ReadsDotEnv(t *testing.T) {
	t.Setenv("ELEVENLABS_VOICE_ID", "")
	require.NoError(t, os.Unsetenv("ELEVENLABS_VOICE_ID"))

	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".env"), []byte("ELEVENLABS_VOICE_ID=voice-from-dotenv\n"), 0o600))
	t.Chdir(dir)

	cfg := config.Default()
	assert.Equal(t, "voice-from-dotenv", cfg.Speech.VoiceID)
	require.NoError(t, cfg.Validate())
}
