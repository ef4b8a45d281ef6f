package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/vovakirdan/espachat/internal/app"
	"github.com/vovakirdan/espachat/internal/config"
	"github.com/vovakirdan/espachat/internal/log"
)

type rootOptions struct {
	configPath string
	addr       string
	logLevel   string
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}

	rootCmd := &cobra.Command{
		Use:   "espachat",
		Short: "Single-room chat server",
		Long: `espachat serves a single chat room over WebSocket.

Visitors get a guest name, can register accounts, send private messages
and, as administrators, moderate the room with slash commands.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runServe(cmd, opts)
		},
		SilenceUsage: true,
	}

	rootCmd.PersistentFlags().StringVar(&opts.configPath, "config", "", "Config file path (env: ESPACHAT_CONFIG_DEFAULT_PATH)")
	rootCmd.PersistentFlags().StringVar(&opts.logLevel, "log-level", "", "Log level: debug, info, warn, error")
	rootCmd.Flags().StringVar(&opts.addr, "addr", "", "HTTP listen address")

	rootCmd.AddCommand(newAdminCmd(opts))

	return rootCmd
}

// loadConfig resolves configuration and applies flag overrides.
func loadConfig(opts *rootOptions) (config.Config, string, error) {
	bootLogger := log.New("info")
	cfg, path, err := config.Load(bootLogger, opts.configPath)
	if err != nil {
		return cfg, path, err
	}
	cfg.UpdateFrom(config.Config{Addr: opts.addr, LogLevel: opts.logLevel})
	return cfg, path, nil
}

func runServe(cmd *cobra.Command, opts *rootOptions) error {
	cfg, path, err := loadConfig(opts)
	if err != nil {
		return err
	}

	logger, closer, err := log.NewWithFile(cfg.LogLevel, cfg.LogFile)
	if err != nil {
		return err
	}
	defer closer.Close()

	// The log level follows the config file unless pinned on the command line.
	if opts.logLevel == "" {
		if err := config.Watch(logger, path, func(updated config.Config) {
			log.SetLevel(updated.LogLevel)
		}); err != nil {
			logger.Warn().Err(err).Str("path", path).Msg("config watch disabled")
		}
	}

	ctx, stop := signal.NotifyContext(commandContext(cmd), os.Interrupt, syscall.SIGTERM)
	defer stop()

	application, err := app.New(&cfg, logger)
	if err != nil {
		logger.Error().Err(err).Msg("failed to initialize application")
		return fmt.Errorf("init app: %w", err)
	}

	logger.Info().
		Str("addr", cfg.Addr).
		Str("config", path).
		Str("log_level", zerolog.GlobalLevel().String()).
		Msg("starting espachat server")
	if err := application.Run(ctx); err != nil {
		logger.Error().Err(err).Msg("server exited with error")
		return err
	}
	logger.Info().Msg("server stopped")
	return nil
}

func commandContext(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}
