package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, "coursehound", cfg.Postgres.Database)
	assert.Equal(t, []string{"localhost:9092"}, cfg.Kafka.Brokers)
	assert.Equal(t, "data/index", cfg.Index.DataDir)
	assert.Equal(t, 10, cfg.Search.DefaultLimit)
	assert.Equal(t, 60*time.Second, cfg.Redis.CacheTTL)
	assert.Equal(t, "https://open.er-api.com/v6/latest", cfg.Currency.BaseURL)
}

func TestLoadFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	content := `
server:
  port: 9999
postgres:
  host: db.internal
index:
  dataDir: /var/lib/coursehound
search:
  maxResults: 50
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 9999, cfg.Server.Port)
	assert.Equal(t, "db.internal", cfg.Postgres.Host)
	assert.Equal(t, "/var/lib/coursehound", cfg.Index.DataDir)
	assert.Equal(t, 50, cfg.Search.MaxResults)
	// unset values keep their defaults
	assert.Equal(t, 10, cfg.Search.DefaultLimit)
	assert.Equal(t, 5432, cfg.Postgres.Port)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	assert.Error(t, err)
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv("CH_SERVER_PORT", "7777")
	t.Setenv("CH_POSTGRES_HOST", "pg.example")
	t.Setenv("CH_KAFKA_BROKERS", "k1:9092,k2:9092")
	t.Setenv("CH_INDEX_DATA_DIR", "/tmp/idx")

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, 7777, cfg.Server.Port)
	assert.Equal(t, "pg.example", cfg.Postgres.Host)
	assert.Equal(t, []string{"k1:9092", "k2:9092"}, cfg.Kafka.Brokers)
	assert.Equal(t, "/tmp/idx", cfg.Index.DataDir)
}

func TestPostgresDSN(t *testing.T) {
	cfg := PostgresConfig{
		Host: "localhost", Port: 5432, User: "app", Password: "secret",
		Database: "courses", SSLMode: "disable",
	}
	assert.Equal(t,
		"host=localhost port=5432 user=app password=secret dbname=courses sslmode=disable",
		cfg.DSN(),
	)
}
