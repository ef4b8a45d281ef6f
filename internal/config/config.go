package config

import "time"

// Config holds server configuration values.
type Config struct {
	Addr               string        `mapstructure:"addr" yaml:"addr"`
	ReadHeaderTimeout  time.Duration `mapstructure:"read_header_timeout" yaml:"read_header_timeout"`
	ShutdownTimeout    time.Duration `mapstructure:"shutdown_timeout" yaml:"shutdown_timeout"`
	LogLevel           string        `mapstructure:"log_level" yaml:"log_level"`
	LogFile            string        `mapstructure:"log_file" yaml:"log_file"`
	DatabasePath       string        `mapstructure:"database_path" yaml:"database_path"`
	MaxMessageBytes    int64         `mapstructure:"max_message_bytes" yaml:"max_message_bytes"`
	RateLimitPerMinute int           `mapstructure:"rate_limit_per_minute" yaml:"rate_limit_per_minute"`
	StoreTimeout       time.Duration `mapstructure:"store_timeout" yaml:"store_timeout"`
	OriginPatterns     []string      `mapstructure:"origin_patterns" yaml:"origin_patterns"`

	Chat    ChatConfig    `mapstructure:"chat" yaml:"chat"`
	Session SessionConfig `mapstructure:"session" yaml:"session"`
}

// ChatConfig holds room-level settings.
type ChatConfig struct {
	Title          string   `mapstructure:"title" yaml:"title"`
	Topic          string   `mapstructure:"topic" yaml:"topic"`
	GuestPrefix    string   `mapstructure:"guest_prefix" yaml:"guest_prefix"`
	Palette        []string `mapstructure:"palette" yaml:"palette"`
	MinTopicLength int      `mapstructure:"min_topic_length" yaml:"min_topic_length"`
	// UnbanClearsIPs lifts IP bans that were recorded when banning the same name.
	UnbanClearsIPs bool `mapstructure:"unban_clears_ips" yaml:"unban_clears_ips"`
}

// SessionConfig configures the continuity store that lets reconnecting
// clients recover their previous display name.
type SessionConfig struct {
	Backend       string        `mapstructure:"backend" yaml:"backend"` // memory or redis
	RedisURL      string        `mapstructure:"redis_url" yaml:"redis_url"`
	TTL           time.Duration `mapstructure:"ttl" yaml:"ttl"`
	SweepSchedule string        `mapstructure:"sweep_schedule" yaml:"sweep_schedule"`
	TokenSecret   string        `mapstructure:"token_secret" yaml:"token_secret"`
	CookieName    string        `mapstructure:"cookie_name" yaml:"cookie_name"`
}

const (
	SessionBackendMemory = "memory"
	SessionBackendRedis  = "redis"
)

// DefaultPalette is the set of colours handed out to new connections.
var DefaultPalette = []string{
	"#007bff",
	"#28a745",
	"#dc3545",
	"#6f42c1",
	"#0056b3",
	"#17a2b8",
	"#fd7e14",
	"#6c757d",
	"#20c997",
	"#e83e8c",
	"#343a40",
	"#ffc107",
	"#6610f2",
	"#fd7e14",
}

// Default returns configuration with reasonable starter defaults.
func Default() Config {
	palette := make([]string, len(DefaultPalette))
	copy(palette, DefaultPalette)

	return Config{
		Addr:               ":8080",
		ReadHeaderTimeout:  5 * time.Second,
		ShutdownTimeout:    5 * time.Second,
		LogLevel:           "info",
		DatabasePath:       "data/espachat.db",
		MaxMessageBytes:    4096,
		RateLimitPerMinute: 60,
		StoreTimeout:       2 * time.Second,
		Chat: ChatConfig{
			Title:          "Espas Chat",
			Topic:          "Willkommen im Chat!",
			GuestPrefix:    "Gast",
			Palette:        palette,
			MinTopicLength: 15,
		},
		Session: SessionConfig{
			Backend:       SessionBackendMemory,
			TTL:           24 * time.Hour,
			SweepSchedule: "@every 1m",
			CookieName:    "chat_session",
		},
	}
}

// UpdateFrom overwrites non-zero values from other config into receiver.
func (c *Config) UpdateFrom(other Config) {
	if other.Addr != "" {
		c.Addr = other.Addr
	}
	if other.ReadHeaderTimeout != 0 {
		c.ReadHeaderTimeout = other.ReadHeaderTimeout
	}
	if other.ShutdownTimeout != 0 {
		c.ShutdownTimeout = other.ShutdownTimeout
	}
	if other.LogLevel != "" {
		c.LogLevel = other.LogLevel
	}
	if other.LogFile != "" {
		c.LogFile = other.LogFile
	}
	if other.DatabasePath != "" {
		c.DatabasePath = other.DatabasePath
	}
	if other.Session.Backend != "" {
		c.Session.Backend = other.Session.Backend
	}
	if other.Session.RedisURL != "" {
		c.Session.RedisURL = other.Session.RedisURL
	}
}
