package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/m3rciful/dictbot/core/buildinfo"
	corecmd "github.com/m3rciful/dictbot/core/cmd"
	coredatabase "github.com/m3rciful/dictbot/core/database"
	"github.com/m3rciful/dictbot/core/logger"
	"github.com/m3rciful/dictbot/internal/app"
	"github.com/m3rciful/dictbot/internal/config"
)

const defaultConfigPath = "config.yaml"

var configPath string

func runnerOptions() corecmd.Options {
	return corecmd.Options{
		ConfigPath:        configPath,
		ConfigEnvVar:      "CONFIG_PATH",
		DefaultConfigPath: defaultConfigPath,
		LoadConfig: func(path string) (corecmd.ConfigCarrier, error) {
			cfg, err := config.Load(path)
			if err != nil {
				return nil, err
			}
			return cfg, nil
		},
		Bootstrap: app.Bootstrap,
	}
}

var rootCmd = &cobra.Command{
	Use:           "dictbot",
	Short:         "Telegram bot that keeps a personal English vocabulary",
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE:          runServe,
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the bot until SIGINT or SIGTERM",
	RunE:  runServe,
}

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Apply database migrations and exit",
	RunE:  runMigrate,
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print build information",
	Run: func(cmd *cobra.Command, _ []string) {
		fmt.Fprintln(cmd.OutOrStdout(), "dictbot "+buildinfo.String())
	},
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "path to the YAML config (default $CONFIG_PATH or config.yaml)")
	rootCmd.AddCommand(serveCmd, migrateCmd, versionCmd)
}

func runServe(_ *cobra.Command, _ []string) error {
	return corecmd.Run(runnerOptions())
}

func runMigrate(cmd *cobra.Command, _ []string) error {
	path, err := corecmd.ResolveConfigPath(runnerOptions())
	if err != nil {
		return err
	}
	cfg, err := config.Load(path)
	if err != nil {
		return err
	}
	if !cfg.Database.UsesSQL() {
		return fmt.Errorf("migrate: database driver %q has no schema", cfg.Database.Driver)
	}
	if err := logger.InitLogger(cfg.CoreConfig()); err != nil {
		return err
	}
	defer func() {
		if err := logger.Shutdown(); err != nil {
			log.Printf("logger shutdown error: %v", err)
		}
	}()

	ctx, cancel := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer cancel()
	return coredatabase.RunMigrations(ctx, cfg.Database)
}

func main() {
	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		log.Printf("dictbot: %v", err)
		os.Exit(1)
	}
}
