package bootstrap

import (
	"context"
	"errors"
	"testing"

	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/require"

	coreconfig "github.com/m3rciful/dictbot/core/config"
	coredatabase "github.com/m3rciful/dictbot/core/database"
)

func noLogger(*coreconfig.Config) error { return nil }

func TestRunRequiresConfig(t *testing.T) {
	_, err := Run(context.Background(), Options{})
	require.Error(t, err)
}

func TestRunMemorySkipsDatabase(t *testing.T) {
	called := false
	res, err := Run(context.Background(), Options{
		Config:     &coreconfig.Config{},
		Database:   coredatabase.Config{Driver: coredatabase.DriverMemory},
		LoggerInit: noLogger,
		Connect: func(context.Context, coredatabase.Config) (*sqlx.DB, error) {
			called = true
			return nil, nil
		},
	})
	require.NoError(t, err)
	require.Nil(t, res.DB)
	require.False(t, called)
	require.NoError(t, res.Close())
}

func TestRunMigratesBeforeConnect(t *testing.T) {
	var order []string
	_, err := Run(context.Background(), Options{
		Config:     &coreconfig.Config{},
		Database:   coredatabase.Config{Driver: coredatabase.DriverSQLite, Path: "x.db"},
		LoggerInit: noLogger,
		Migrate: func(context.Context, coredatabase.Config) error {
			order = append(order, "migrate")
			return nil
		},
		Connect: func(context.Context, coredatabase.Config) (*sqlx.DB, error) {
			order = append(order, "connect")
			return nil, errors.New("refused")
		},
	})
	require.ErrorContains(t, err, "refused")
	require.Equal(t, []string{"migrate", "connect"}, order)
}

func TestRunMigrationFailureStops(t *testing.T) {
	_, err := Run(context.Background(), Options{
		Config:     &coreconfig.Config{},
		Database:   coredatabase.Config{Driver: coredatabase.DriverPostgres},
		LoggerInit: noLogger,
		Migrate: func(context.Context, coredatabase.Config) error {
			return errors.New("dirty")
		},
		Connect: func(context.Context, coredatabase.Config) (*sqlx.DB, error) {
			t.Fatal("connect must not run after failed migrations")
			return nil, nil
		},
	})
	require.ErrorContains(t, err, "migrations failed")
}
