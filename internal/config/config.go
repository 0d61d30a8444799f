// Package config loads the chat server configuration from defaults, an
// optional YAML file and CHAT_* environment variables.
package config

import "time"

// Config holds every runtime setting of the chat server.
type Config struct {
	Log       LogConfig       `mapstructure:"log"`
	Database  DatabaseConfig  `mapstructure:"database"`
	Server    ServerConfig    `mapstructure:"server"`
	Chat      ChatConfig      `mapstructure:"chat"`
	Scheduler SchedulerConfig `mapstructure:"scheduler"`
}

// LogConfig controls the slog handler.
type LogConfig struct {
	Level  string `mapstructure:"level"  validate:"required,oneof=debug info warn error"`
	Format string `mapstructure:"format" validate:"required,oneof=json text"`
}

// JSON reports whether logs should be emitted as JSON.
func (c LogConfig) JSON() bool {
	return c.Format == "json"
}

// DatabaseConfig points at the SQLite database file.
type DatabaseConfig struct {
	Path string `mapstructure:"path" validate:"required"`
}

// ServerConfig configures the HTTP listener.
type ServerConfig struct {
	Addr            string        `mapstructure:"addr"             validate:"required,hostname_port"`
	ReadTimeout     time.Duration `mapstructure:"read_timeout"     validate:"min=1s"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout"    validate:"min=1s"`
	IdleTimeout     time.Duration `mapstructure:"idle_timeout"     validate:"min=1s"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout" validate:"min=1s"`
}

// ChatConfig holds the room rules: sentinels, time display and the presence
// timeout after which a silent participant is swept.
type ChatConfig struct {
	Broadcast     string        `mapstructure:"broadcast"      validate:"required"`
	AdminIdentity string        `mapstructure:"admin_identity" validate:"required,nefield=Broadcast"`
	TimeLayout    string        `mapstructure:"time_layout"    validate:"required"`
	Timeout       time.Duration `mapstructure:"timeout"        validate:"min=1s"`
}

// SchedulerConfig lists the background tasks by registry name.
type SchedulerConfig struct {
	Tasks map[string]TaskConfig `mapstructure:"tasks" validate:"dive"`
}

// TaskConfig configures one scheduled task. Interval takes precedence over
// Schedule (a six-field cron expression) when both are set.
type TaskConfig struct {
	Enabled  bool          `mapstructure:"enabled"`
	Interval time.Duration `mapstructure:"interval" validate:"omitempty,min=1s"`
	Schedule string        `mapstructure:"schedule"`
}
