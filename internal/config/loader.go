package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/fsnotify/fsnotify"
	"github.com/rs/zerolog"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

const (
	envConfigDefaultPath = "ESPACHAT_CONFIG_DEFAULT_PATH"
	defaultConfigName    = "config.yaml"
)

// Load builds configuration from defaults, optional config file, env vars, and returns the resolved path.
// Precedence: defaults < config file < env vars < caller overrides.
func Load(logger *zerolog.Logger, explicitPath string) (Config, string, error) {
	cfg := Default()
	v := newViper(cfg)

	configPath := resolveConfigPath(explicitPath)
	v.SetConfigFile(configPath)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if errors.As(err, &notFound) || errors.Is(err, os.ErrNotExist) {
			if writeErr := writeDefaultConfig(configPath, cfg); writeErr != nil && logger != nil {
				logger.Warn().Err(writeErr).Str("path", configPath).Msg("failed to write default config")
			} else if logger != nil {
				logger.Info().Str("path", configPath).Msg("created default config")
			}
			// try reading again in case it was just written
			if readErr := v.ReadInConfig(); readErr != nil && logger != nil {
				logger.Warn().Err(readErr).Str("path", configPath).Msg("failed to read config after writing default")
			}
		} else {
			return cfg, configPath, fmt.Errorf("read config: %w", err)
		}
	}

	if err := v.Unmarshal(&cfg); err != nil {
		return cfg, configPath, fmt.Errorf("unmarshal config: %w", err)
	}

	return cfg, configPath, nil
}

// Watch re-reads the config file whenever it changes on disk and hands the
// result to onChange. Errors while re-reading are logged and skipped.
func Watch(logger *zerolog.Logger, path string, onChange func(Config)) error {
	v := newViper(Default())
	v.SetConfigFile(path)
	if err := v.ReadInConfig(); err != nil {
		return fmt.Errorf("read config: %w", err)
	}

	v.OnConfigChange(func(e fsnotify.Event) {
		if !e.Has(fsnotify.Write) && !e.Has(fsnotify.Create) {
			return
		}
		cfg := Default()
		if err := v.Unmarshal(&cfg); err != nil {
			if logger != nil {
				logger.Warn().Err(err).Str("path", e.Name).Msg("failed to reload config")
			}
			return
		}
		if logger != nil {
			logger.Info().Str("path", e.Name).Msg("config reloaded")
		}
		onChange(cfg)
	})
	v.WatchConfig()
	return nil
}

func newViper(cfg Config) *viper.Viper {
	v := viper.New()
	v.SetConfigType("yaml")
	v.SetDefault("addr", cfg.Addr)
	v.SetDefault("read_header_timeout", cfg.ReadHeaderTimeout)
	v.SetDefault("shutdown_timeout", cfg.ShutdownTimeout)
	v.SetDefault("log_level", cfg.LogLevel)
	v.SetDefault("log_file", cfg.LogFile)
	v.SetDefault("database_path", cfg.DatabasePath)
	v.SetDefault("max_message_bytes", cfg.MaxMessageBytes)
	v.SetDefault("rate_limit_per_minute", cfg.RateLimitPerMinute)
	v.SetDefault("store_timeout", cfg.StoreTimeout)
	v.SetDefault("origin_patterns", cfg.OriginPatterns)

	v.SetDefault("chat.title", cfg.Chat.Title)
	v.SetDefault("chat.topic", cfg.Chat.Topic)
	v.SetDefault("chat.guest_prefix", cfg.Chat.GuestPrefix)
	v.SetDefault("chat.palette", cfg.Chat.Palette)
	v.SetDefault("chat.min_topic_length", cfg.Chat.MinTopicLength)
	v.SetDefault("chat.unban_clears_ips", cfg.Chat.UnbanClearsIPs)

	v.SetDefault("session.backend", cfg.Session.Backend)
	v.SetDefault("session.redis_url", cfg.Session.RedisURL)
	v.SetDefault("session.ttl", cfg.Session.TTL)
	v.SetDefault("session.sweep_schedule", cfg.Session.SweepSchedule)
	v.SetDefault("session.token_secret", cfg.Session.TokenSecret)
	v.SetDefault("session.cookie_name", cfg.Session.CookieName)

	v.SetEnvPrefix("ESPACHAT")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	return v
}

func resolveConfigPath(explicitPath string) string {
	if explicitPath != "" {
		return explicitPath
	}

	if base := os.Getenv(envConfigDefaultPath); base != "" {
		if err := os.MkdirAll(base, 0o755); err == nil {
			return filepath.Join(base, defaultConfigName)
		}
	}

	cwd, err := os.Getwd()
	if err != nil {
		return defaultConfigName
	}
	return filepath.Join(cwd, defaultConfigName)
}

func writeDefaultConfig(path string, cfg Config) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o600)
}
