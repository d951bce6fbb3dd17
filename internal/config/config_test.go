package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	coreconfig "github.com/m3rciful/dictbot/core/config"
	coredatabase "github.com/m3rciful/dictbot/core/database"
	"github.com/m3rciful/dictbot/internal/dictionary"
	"github.com/m3rciful/dictbot/internal/session"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load(writeConfig(t, `
telegram:
  token: "123:abc"
`))
	require.NoError(t, err)
	require.Equal(t, coreconfig.RunModeLongpoll, cfg.Telegram.RunMode)
	require.Equal(t, coredatabase.DriverMemory, cfg.Database.Driver)
	require.Equal(t, dictionary.DefaultBaseURL, cfg.Dictionary.BaseURL)
	require.Equal(t, 10*time.Second, cfg.Dictionary.Timeout)
	require.Zero(t, cfg.Dictionary.MaxRetries)
	require.Equal(t, session.DefaultTTL, cfg.Sessions.TTL)
	require.Equal(t, session.DefaultMaxSessions, cfg.Sessions.MaxSessions)
	require.False(t, cfg.Vocabulary.AllowDuplicates)
	require.Same(t, &cfg.Config, cfg.CoreConfig())
}

func TestLoadSections(t *testing.T) {
	cfg, err := Load(writeConfig(t, `
telegram:
  token: "123:abc"
  admin_id: 42
database:
  driver: sqlite
  path: /var/lib/dictbot/vocab.db
dictionary:
  base_url: https://dict.example.com/api/
  timeout: 3s
  max_retries: 2
  suggestions: true
sessions:
  ttl: 5m
  sweep_interval: 30s
  max_sessions: 100
vocabulary:
  allow_duplicates: true
`))
	require.NoError(t, err)
	require.EqualValues(t, 42, cfg.Telegram.AdminID)
	require.Equal(t, coredatabase.DriverSQLite, cfg.Database.Driver)
	require.Equal(t, 1, cfg.Database.MaxConnections)
	require.Equal(t, "https://dict.example.com/api", cfg.Dictionary.BaseURL)
	require.Equal(t, 3*time.Second, cfg.Dictionary.Timeout)
	require.Equal(t, 2, cfg.Dictionary.MaxRetries)
	require.True(t, cfg.Dictionary.Suggestions)
	require.Equal(t, 5*time.Minute, cfg.Sessions.TTL)
	require.Equal(t, 30*time.Second, cfg.Sessions.SweepInterval)
	require.Equal(t, 100, cfg.Sessions.MaxSessions)
	require.True(t, cfg.Vocabulary.AllowDuplicates)
}

func TestLoadEnvOverrides(t *testing.T) {
	t.Setenv("DB_DRIVER", "postgres")
	t.Setenv("DB_HOST", "db")
	t.Setenv("DB_NAME", "vocab")
	t.Setenv("DICTIONARY_TIMEOUT", "1500ms")
	t.Setenv("VOCABULARY_ALLOW_DUPLICATES", "true")

	cfg, err := Load(writeConfig(t, `
telegram:
  token: "123:abc"
database:
  driver: memory
`))
	require.NoError(t, err)
	require.Equal(t, coredatabase.DriverPostgres, cfg.Database.Driver)
	require.Equal(t, "5432", cfg.Database.Port)
	require.Equal(t, 1500*time.Millisecond, cfg.Dictionary.Timeout)
	require.True(t, cfg.Vocabulary.AllowDuplicates)
}

func TestLoadRejectsInvalidSections(t *testing.T) {
	_, err := Load(writeConfig(t, `
telegram:
  token: "123:abc"
database:
  driver: postgres
`))
	require.ErrorContains(t, err, "database")

	_, err = Load(writeConfig(t, `
telegram:
  token: "123:abc"
sessions:
  ttl: -1m
`))
	require.Error(t, err)

	_, err = Load(writeConfig(t, `
dictionary:
  timeout: 1s
`))
	require.ErrorContains(t, err, "telegram token")
}
