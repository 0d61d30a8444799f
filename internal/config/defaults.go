package config

import "time"

// Default values for configuration
const (
	DefaultLogLevel  = "info"
	DefaultLogFormat = "json"

	DefaultDBPath = "batepapo.db"

	DefaultServerAddr            = ":5000"
	DefaultServerReadTimeout     = 15 * time.Second
	DefaultServerWriteTimeout    = 15 * time.Second
	DefaultServerIdleTimeout     = 60 * time.Second
	DefaultServerShutdownTimeout = 10 * time.Second

	DefaultChatBroadcast     = "Todos"
	DefaultChatAdminIdentity = "admin"
	DefaultChatTimeLayout    = "15:04:05"
	DefaultChatTimeout       = 10 * time.Second

	// Task registry names, shared with internal/server/tasks.
	TaskPresenceSweep  = "presence_sweep"
	TaskSQLMaintenance = "sql_maintenance"

	DefaultPresenceSweepInterval  = 15 * time.Second
	DefaultSQLMaintenanceSchedule = "0 0 4 * * *" // daily at 04:00:00
)

// defaults is applied to viper before reading files and environment.
var defaults = map[string]any{
	"log.level":  DefaultLogLevel,
	"log.format": DefaultLogFormat,

	"database.path": DefaultDBPath,

	"server.addr":             DefaultServerAddr,
	"server.read_timeout":     DefaultServerReadTimeout,
	"server.write_timeout":    DefaultServerWriteTimeout,
	"server.idle_timeout":     DefaultServerIdleTimeout,
	"server.shutdown_timeout": DefaultServerShutdownTimeout,

	"chat.broadcast":      DefaultChatBroadcast,
	"chat.admin_identity": DefaultChatAdminIdentity,
	"chat.time_layout":    DefaultChatTimeLayout,
	"chat.timeout":        DefaultChatTimeout,

	"scheduler.tasks.presence_sweep.enabled":   true,
	"scheduler.tasks.presence_sweep.interval":  DefaultPresenceSweepInterval,
	"scheduler.tasks.sql_maintenance.enabled":  true,
	"scheduler.tasks.sql_maintenance.schedule": DefaultSQLMaintenanceSchedule,
}
