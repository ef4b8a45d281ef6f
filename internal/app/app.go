package app

import (
	"context"
	"errors"
	"fmt"
	stdhttp "net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/rs/zerolog"

	"github.com/vovakirdan/espachat/internal/auth"
	"github.com/vovakirdan/espachat/internal/config"
	"github.com/vovakirdan/espachat/internal/core"
	"github.com/vovakirdan/espachat/internal/session"
	"github.com/vovakirdan/espachat/internal/store/sqlite"
	transporthttp "github.com/vovakirdan/espachat/internal/transport/http"
)

// App wires together core and transport layers.
type App struct {
	server          *stdhttp.Server
	shutdownTimeout time.Duration
	hub             *core.Hub
	store           *sqlite.SQLiteStore
	sessions        session.Store
	log             *zerolog.Logger
}

// New constructs the application with provided configuration.
func New(cfg *config.Config, logger *zerolog.Logger) (*App, error) {
	st, err := OpenStore(cfg.DatabasePath)
	if err != nil {
		return nil, err
	}
	logger.Info().Str("db_path", cfg.DatabasePath).Msg("database initialized")

	sessions, err := newSessionStore(cfg.Session, logger)
	if err != nil {
		_ = st.Close()
		return nil, err
	}
	logger.Info().
		Str("backend", cfg.Session.Backend).
		Dur("ttl", cfg.Session.TTL).
		Msg("continuity store initialized")

	if cfg.Session.TokenSecret == "" {
		logger.Warn().Msg("session.token_secret is empty, continuity tokens will not survive a restart")
	}
	codec, err := auth.NewContinuityCodec(cfg.Session.TokenSecret, cfg.Session.TTL)
	if err != nil {
		_ = sessions.Close()
		_ = st.Close()
		return nil, err
	}

	accounts := auth.NewService(st, cfg.Chat.GuestPrefix)

	hub := core.NewHub(core.Options{
		Title:          cfg.Chat.Title,
		Topic:          cfg.Chat.Topic,
		GuestPrefix:    cfg.Chat.GuestPrefix,
		Palette:        cfg.Chat.Palette,
		MinTopicLength: cfg.Chat.MinTopicLength,
		UnbanClearsIPs: cfg.Chat.UnbanClearsIPs,
		StoreTimeout:   cfg.StoreTimeout,
		TokenRefresh:   cfg.Session.TTL / 2,
	}, accounts, sessions, codec, logger)

	server := transporthttp.NewServer(hub, cfg, logger)

	return &App{
		server:          server,
		shutdownTimeout: cfg.ShutdownTimeout,
		hub:             hub,
		store:           st,
		sessions:        sessions,
		log:             logger,
	}, nil
}

// OpenStore opens the account database, creating its directory if needed.
func OpenStore(path string) (*sqlite.SQLiteStore, error) {
	if dir := filepath.Dir(path); dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create database dir: %w", err)
		}
	}
	st, err := sqlite.New(path)
	if err != nil {
		return nil, fmt.Errorf("init store: %w", err)
	}
	return st, nil
}

func newSessionStore(cfg config.SessionConfig, logger *zerolog.Logger) (session.Store, error) {
	switch cfg.Backend {
	case config.SessionBackendRedis:
		rs, err := session.NewRedisStore(cfg.RedisURL, cfg.TTL)
		if err != nil {
			return nil, fmt.Errorf("init redis sessions: %w", err)
		}
		return rs, nil
	case config.SessionBackendMemory, "":
		ms := session.NewMemoryStore(cfg.TTL, logger)
		if err := ms.StartSweeper(cfg.SweepSchedule); err != nil {
			return nil, fmt.Errorf("start session sweeper: %w", err)
		}
		return ms, nil
	default:
		return nil, fmt.Errorf("unknown session backend %q", cfg.Backend)
	}
}

// Run starts the HTTP server and blocks until context cancellation or fatal error.
func (a *App) Run(ctx context.Context) error {
	serverErr := make(chan error, 1)

	hubCtx, stopHub := context.WithCancel(context.Background())
	defer stopHub()
	go a.hub.Run(hubCtx)

	go func() {
		a.log.Info().Str("addr", a.server.Addr).Msg("http server listening")
		if err := a.server.ListenAndServe(); err != nil && !errors.Is(err, stdhttp.ErrServerClosed) {
			serverErr <- err
			return
		}
		serverErr <- nil
	}()

	select {
	case err := <-serverErr:
		stopHub()
		a.cleanup()
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), a.shutdownTimeout)
		defer cancel()

		a.log.Info().Msg("shutting down http server")
		err := a.server.Shutdown(shutdownCtx)
		// The hub outlives the server so disconnects during shutdown still park sessions.
		stopHub()
		a.cleanup()
		if err != nil {
			return err
		}
		return <-serverErr
	}
}

// cleanup closes the continuity store and the database.
func (a *App) cleanup() {
	if a.sessions != nil {
		if err := a.sessions.Close(); err != nil {
			a.log.Warn().Err(err).Msg("failed to close session store")
		}
	}
	if a.store != nil {
		if err := a.store.Close(); err != nil {
			a.log.Warn().Err(err).Msg("failed to close store")
		} else {
			a.log.Info().Msg("store closed")
		}
	}
}
