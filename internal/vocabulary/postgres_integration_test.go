//go:build integration

package vocabulary

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"

	coredatabase "github.com/m3rciful/dictbot/core/database"
)

func startPostgres(t *testing.T) coredatabase.Config {
	t.Helper()
	ctx := context.Background()

	cont, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: testcontainers.ContainerRequest{
			Image:        "postgres:17-alpine",
			ExposedPorts: []string{"5432/tcp"},
			Env: map[string]string{
				"POSTGRES_USER":     "test",
				"POSTGRES_PASSWORD": "test",
				"POSTGRES_DB":       "vocab",
			},
			WaitingFor: wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(60 * time.Second),
		},
		Started: true,
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = cont.Terminate(context.Background()) })

	host, err := cont.Host(ctx)
	require.NoError(t, err)
	port, err := cont.MappedPort(ctx, "5432/tcp")
	require.NoError(t, err)

	cfg := coredatabase.Config{
		Driver:        coredatabase.DriverPostgres,
		Host:          host,
		Port:          port.Port(),
		User:          "test",
		Password:      "test",
		Name:          "vocab",
		MigrationsDir: filepath.Join("..", "..", "migrations"),
	}
	require.NoError(t, cfg.Normalize())
	return cfg
}

func TestPostgresStore(t *testing.T) {
	cfg := startPostgres(t)
	ctx := context.Background()
	require.NoError(t, coredatabase.RunMigrations(ctx, cfg))

	runStoreContract(t, func(t *testing.T) Store {
		db, err := coredatabase.Connect(ctx, cfg)
		require.NoError(t, err)
		t.Cleanup(func() { _ = db.Close() })
		_, err = db.ExecContext(ctx, "TRUNCATE vocabulary_entries")
		require.NoError(t, err)
		return NewSQLStore(db)
	})
}
