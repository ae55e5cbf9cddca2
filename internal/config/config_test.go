package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("CONFIG_FILE", filepath.Join(t.TempDir(), "missing.toml"))

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, DriverSQLite, cfg.Database.Driver)
	assert.Equal(t, "botgpt.db", cfg.DSN())
	assert.Equal(t, ProviderOpenAI, cfg.LLM.Provider)
	assert.Equal(t, "llama-3.1-8b-instant", cfg.LLM.Model)
	assert.InDelta(t, 0.7, cfg.LLM.Temperature, 1e-9)
	assert.Equal(t, 500, cfg.Retrieval.ChunkBytes)
	assert.Equal(t, 3, cfg.Retrieval.TopK)
	assert.Equal(t, 12, cfg.Retrieval.HistoryWindow)
	assert.Equal(t, 60, cfg.Redis.HistoryTTLSeconds)
	assert.Equal(t, 5, cfg.Redis.HistoryDirtyTTLSeconds)
	assert.Equal(t, "0.0.0.0:8000", cfg.HTTPAddr())
}

func TestLoad_FileThenEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	content := `
[database]
driver = "mysql"

[database.mysql]
host = "db.internal"
user = "bot"
password = "secret"
db = "chat"
params = "parseTime=true"

[retrieval]
top_k = 5
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	t.Setenv("CONFIG_FILE", path)
	t.Setenv("MYSQL_PORT", "3307")
	t.Setenv("GROQ_API_KEY", "gsk-test")
	t.Setenv("RETRIEVAL_HISTORY_WINDOW", "6")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "bot:secret@tcp(db.internal:3307)/chat?parseTime=true", cfg.DSN())
	assert.Equal(t, "gsk-test", cfg.LLM.APIKey)
	assert.Equal(t, 5, cfg.Retrieval.TopK)
	assert.Equal(t, 6, cfg.Retrieval.HistoryWindow)
}

func TestLoad_RejectsUnknownDriver(t *testing.T) {
	t.Setenv("CONFIG_FILE", filepath.Join(t.TempDir(), "missing.toml"))
	t.Setenv("DB_DRIVER", "oracle")

	_, err := Load()
	assert.Error(t, err)
}

func TestDSN_Postgres(t *testing.T) {
	cfg := defaultConfig()
	cfg.Database.Driver = DriverPostgres
	cfg.Database.Postgres.Password = "pw"

	assert.Equal(t, "host=127.0.0.1 port=5432 user=postgres password=pw dbname=botgpt sslmode=disable", cfg.DSN())

	cfg.Database.DSN = "postgres://override"
	assert.Equal(t, "postgres://override", cfg.DSN())
}
