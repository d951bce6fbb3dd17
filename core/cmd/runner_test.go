package cmd

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	coreconfig "github.com/m3rciful/dictbot/core/config"
	coretelegram "github.com/m3rciful/dictbot/core/telegram"
)

type carrier struct{ cfg *coreconfig.Config }

func (c carrier) CoreConfig() *coreconfig.Config { return c.cfg }

type fakeApp struct {
	closed bool
}

func (a *fakeApp) TelegramRunOptions() (coretelegram.RunOptions, error) {
	return coretelegram.RunOptions{}, nil
}

func (a *fakeApp) Close() error {
	a.closed = true
	return nil
}

func TestResolveConfigPath(t *testing.T) {
	t.Setenv("DICTBOT_CONFIG", "")
	p, err := ResolveConfigPath(Options{ConfigEnvVar: "DICTBOT_CONFIG", DefaultConfigPath: "config.yaml"})
	require.NoError(t, err)
	require.Equal(t, "config.yaml", p)

	t.Setenv("DICTBOT_CONFIG", "/etc/dictbot.yaml")
	p, err = ResolveConfigPath(Options{ConfigEnvVar: "DICTBOT_CONFIG", DefaultConfigPath: "config.yaml"})
	require.NoError(t, err)
	require.Equal(t, "/etc/dictbot.yaml", p)

	p, err = ResolveConfigPath(Options{ConfigPath: "flag.yaml", ConfigEnvVar: "DICTBOT_CONFIG"})
	require.NoError(t, err)
	require.Equal(t, "flag.yaml", p)

	t.Setenv("CONFIG_PATH", "")
	_, err = ResolveConfigPath(Options{})
	require.Error(t, err)
}

func TestRunContextWiresHooks(t *testing.T) {
	app := &fakeApp{}
	var started, stopped bool
	err := RunContext(context.Background(), Options{
		ConfigPath: "unused.yaml",
		LoadConfig: func(path string) (ConfigCarrier, error) {
			require.Equal(t, "unused.yaml", path)
			return carrier{cfg: &coreconfig.Config{}}, nil
		},
		Bootstrap: func(context.Context, ConfigCarrier) (TelegramApp, error) {
			return app, nil
		},
		ShutdownLogger: func() error { return nil },
		RunTelegram: func(ctx context.Context, opts coretelegram.RunOptions) error {
			require.NoError(t, opts.OnStart(ctx, coretelegram.Runtime{}))
			started = true
			require.NoError(t, opts.OnStop(ctx, coretelegram.Runtime{}))
			stopped = true
			return nil
		},
	})
	require.NoError(t, err)
	require.True(t, started)
	require.True(t, stopped)
	require.True(t, app.closed)
}

func TestRunContextPropagatesLoadError(t *testing.T) {
	err := RunContext(context.Background(), Options{
		ConfigPath: "broken.yaml",
		LoadConfig: func(string) (ConfigCarrier, error) { return nil, errors.New("bad yaml") },
		Bootstrap: func(context.Context, ConfigCarrier) (TelegramApp, error) {
			t.Fatal("bootstrap must not run")
			return nil, nil
		},
	})
	require.ErrorContains(t, err, "bad yaml")
}
