package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{
		"PORT", "CORS_ALLOWED_ORIGINS", "AI_PROVIDER", "OPENAI_API_KEY", "OPENAI_BASE_URL",
		"AI_MODEL", "Model", "AI_MAX_TOKENS", "AI_TEMPERATURE", "AI_TOP_P",
		"ARK_API_KEY", "ARK_ACCESS_KEY", "ARK_SECRET_KEY", "ARK_BASE_URL", "ARK_REGION",
		"STORE_DRIVER", "MONGO_URL", "DB_NAME", "SQLITE_PATH",
	} {
		t.Setenv(key, "")
	}
}

func TestLoadDefaults(t *testing.T) {
	clearEnv(t)

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, ":8001", cfg.Server.Addr)
	assert.Equal(t, []string{"*"}, cfg.Server.AllowedOrigins)
	assert.Equal(t, ProviderOpenAI, cfg.AI.Provider)
	assert.Equal(t, "gpt-4o", cfg.AI.Model)
	assert.Equal(t, 1000, cfg.AI.MaxTokens)
	assert.False(t, cfg.AI.Enabled())
	assert.Equal(t, DriverSQLite, cfg.Store.Driver)
	assert.Equal(t, "data/pill-reminder.db", cfg.Store.SQLitePath)
}

func TestLoadOpenAIEnabled(t *testing.T) {
	clearEnv(t)
	t.Setenv("OPENAI_API_KEY", "sk-test")
	t.Setenv("AI_MAX_TOKENS", "256")
	t.Setenv("PORT", "127.0.0.1:9000")
	t.Setenv("CORS_ALLOWED_ORIGINS", "http://localhost:3000, https://app.example.com")

	cfg, err := Load()
	require.NoError(t, err)

	assert.True(t, cfg.AI.Enabled())
	assert.Equal(t, 256, cfg.AI.MaxTokens)
	assert.Equal(t, "127.0.0.1:9000", cfg.Server.Addr)
	assert.Equal(t, []string{"http://localhost:3000", "https://app.example.com"}, cfg.Server.AllowedOrigins)
}

func TestLoadArkInferredFromCredentials(t *testing.T) {
	clearEnv(t)
	t.Setenv("ARK_ACCESS_KEY", "ak")
	t.Setenv("ARK_SECRET_KEY", "sk")
	t.Setenv("Model", "doubao-pro")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, ProviderArk, cfg.AI.Provider)
	assert.Equal(t, "doubao-pro", cfg.AI.Model)
	assert.Equal(t, "cn-beijing", cfg.AI.Region)
	assert.True(t, cfg.AI.Enabled())
}

func TestLoadMongoInferredFromURL(t *testing.T) {
	clearEnv(t)
	t.Setenv("MONGO_URL", "mongodb://localhost:27017")
	t.Setenv("DB_NAME", "reminders")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, DriverMongo, cfg.Store.Driver)
	assert.Equal(t, "reminders", cfg.Store.DBName)
}

func TestLoadRejectsInvalidValues(t *testing.T) {
	tests := []struct {
		name string
		key  string
		val  string
	}{
		{name: "port with space", key: "PORT", val: "80 80"},
		{name: "unknown provider", key: "AI_PROVIDER", val: "parrot"},
		{name: "non numeric tokens", key: "AI_MAX_TOKENS", val: "lots"},
		{name: "zero tokens", key: "AI_MAX_TOKENS", val: "0"},
		{name: "bad temperature", key: "AI_TEMPERATURE", val: "warm"},
		{name: "unknown driver", key: "STORE_DRIVER", val: "postgres"},
		{name: "mongo without url", key: "STORE_DRIVER", val: "mongo"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			clearEnv(t)
			t.Setenv(tc.key, tc.val)

			_, err := Load()
			assert.Error(t, err)
		})
	}
}
