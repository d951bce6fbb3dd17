// Package app assembles dictbot from its configuration.
package app

import (
	"context"
	"errors"
	"log/slog"

	"github.com/m3rciful/dictbot/core/bootstrap"
	corecmd "github.com/m3rciful/dictbot/core/cmd"
	"github.com/m3rciful/dictbot/core/logger"
	tg "github.com/m3rciful/dictbot/core/telegram"
	"github.com/m3rciful/dictbot/core/telegram/state"
	"github.com/m3rciful/dictbot/internal/addword"
	"github.com/m3rciful/dictbot/internal/bot"
	"github.com/m3rciful/dictbot/internal/config"
	"github.com/m3rciful/dictbot/internal/dictionary"
	"github.com/m3rciful/dictbot/internal/session"
	"github.com/m3rciful/dictbot/internal/vocabulary"
)

// App owns every long-lived dependency of the running bot.
type App struct {
	cfg      *config.Config
	infra    *bootstrap.Result
	sessions *session.Registry
	telegram *bot.Telegram
}

// Options tweak New for tests.
type Options struct {
	Bootstrap bootstrap.Options
}

// New bootstraps logging and storage and wires the bot services.
func New(ctx context.Context, cfg *config.Config, opts Options) (*App, error) {
	if cfg == nil {
		return nil, errors.New("app: nil config")
	}
	bopts := opts.Bootstrap
	bopts.Config = cfg.CoreConfig()
	bopts.Database = cfg.Database
	infra, err := bootstrap.Run(ctx, bopts)
	if err != nil {
		return nil, err
	}

	store := vocabulary.Open(cfg.Database, infra.DB)
	sessions := session.New(cfg.Sessions)

	svcOpts := addword.Options{AllowDuplicates: cfg.Vocabulary.AllowDuplicates}
	if cfg.Dictionary.Suggestions {
		svcOpts.Suggester = dictionary.NewSuggester(cfg.Dictionary, nil)
	}
	svc := addword.New(dictionary.New(cfg.Dictionary, nil), store, sessions, svcOpts)

	states := state.NewMemoryManager(cfg.Sessions.TTL)
	adapter := bot.NewTelegram(bot.New(svc, states), states, sessions)

	logger.Info(ctx, logger.CompApp, "wire",
		slog.String("driver", cfg.Database.Driver),
		slog.String("dictionary", cfg.Dictionary.BaseURL),
		slog.Bool("suggestions", cfg.Dictionary.Suggestions),
		slog.Bool("allow_duplicates", cfg.Vocabulary.AllowDuplicates),
		slog.Duration("session_ttl", cfg.Sessions.TTL),
	)
	return &App{cfg: cfg, infra: infra, sessions: sessions, telegram: adapter}, nil
}

// Bootstrap adapts New to the shared runner.
func Bootstrap(ctx context.Context, carrier corecmd.ConfigCarrier) (corecmd.TelegramApp, error) {
	cfg, ok := carrier.(*config.Config)
	if !ok {
		return nil, errors.New("app: unexpected config type")
	}
	return New(ctx, cfg, Options{})
}

// TelegramRunOptions builds the registry, middlewares and routes for one run.
func (a *App) TelegramRunOptions() (tg.RunOptions, error) {
	core := a.cfg.CoreConfig()
	reg := tg.NewRegistry()
	if err := a.telegram.Register(reg); err != nil {
		return tg.RunOptions{}, err
	}
	mws := tg.DefaultMiddlewares(core, a.telegram.OnLimited)
	logger.Debug(context.Background(), logger.CompApp, "middlewares",
		slog.Any("names", tg.MiddlewareNames(mws)),
	)
	return tg.RunOptions{
		Config:            core,
		Registry:          reg,
		DispatcherOptions: tg.DispatcherOptionsFrom(core),
		Middlewares:       mws,
		Routes:            a.telegram.Routes(reg, core.Telegram.AdminID),
		OnStart:           a.telegram.OnStart,
	}, nil
}

// Close stops the session janitor and releases the database.
func (a *App) Close() error {
	a.sessions.Close()
	return a.infra.Close()
}
