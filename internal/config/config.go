// Package config loads npadb-admin settings from environment variables with
// defaults, and validates them on startup so misconfiguration fails fast.
package config

import (
	"path/filepath"
	"strconv"
	"time"
)

// Config holds all application configuration.
type Config struct {
	Database DatabaseConfig
	Data     DataConfig
	Backup   BackupConfig
	Metrics  MetricsConfig
	Server   ServerConfig
	Logging  LoggingConfig
}

// DatabaseConfig holds gazetteer database connection settings.
type DatabaseConfig struct {
	// URL is the PostgreSQL connection string (required).
	// DATABASE_URL and DB_URL are both accepted.
	URL string `env:"DATABASE_URL" envAlt:"DB_URL" required:"true"`

	// Name is the database name used in backup file names (default: npadb)
	Name string `env:"DB_NAME" default:"npadb"`

	// MaxConns is the maximum number of pooled connections (default: 4)
	MaxConns int `env:"DB_MAX_CONNS" default:"4"`

	// ConnectTimeout bounds the initial connect and ping (default: 10s)
	ConnectTimeout time.Duration `env:"DB_CONNECT_TIMEOUT" default:"10s"`
}

// DataConfig locates the reorganization and import datasets.
type DataConfig struct {
	// Root holds updates/lgro-<year>.json and updates/gss_admin_areas.csv (default: .)
	Root string `env:"NPADB_DATA_ROOT" default:"."`
}

// BackupConfig holds database dump settings.
type BackupConfig struct {
	// Dir receives <db>_<timestamp>.sql.gz files (default: backups)
	Dir string `env:"BACKUP_DIR" default:"backups"`

	// DumpCommand is the dump executable (default: pg_dump)
	DumpCommand string `env:"BACKUP_DUMP_COMMAND" default:"pg_dump"`

	// S3Bucket enables off-site upload when set
	S3Bucket string `env:"BACKUP_S3_BUCKET"`

	// S3Region is the bucket region (default: eu-west-2)
	S3Region string `env:"BACKUP_S3_REGION" default:"eu-west-2"`

	// S3Endpoint overrides the endpoint for S3-compatible stores
	S3Endpoint string `env:"BACKUP_S3_ENDPOINT"`

	// S3PathStyle forces path-style addressing (default: false)
	S3PathStyle bool `env:"BACKUP_S3_PATH_STYLE" default:"false"`

	// S3Prefix is prepended to object keys (default: npadb)
	S3Prefix string `env:"BACKUP_S3_PREFIX" default:"npadb"`
}

// MetricsConfig holds run metrics settings.
type MetricsConfig struct {
	// Textfile is where LGRO run metrics are written for the node_exporter
	// textfile collector. Empty disables it.
	Textfile string `env:"METRICS_TEXTFILE"`
}

// ServerConfig holds settings for the read-only preview server.
type ServerConfig struct {
	// Host is the interface to bind to (default: 127.0.0.1)
	Host string `env:"SERVER_HOST" default:"127.0.0.1"`

	// Port is the port to listen on (default: 8080)
	Port int `env:"SERVER_PORT" default:"8080"`

	// ReadTimeout is the maximum duration for reading a request (default: 15s)
	ReadTimeout time.Duration `env:"SERVER_READ_TIMEOUT" default:"15s"`

	// WriteTimeout is the maximum duration for writing a response (default: 30s)
	WriteTimeout time.Duration `env:"SERVER_WRITE_TIMEOUT" default:"30s"`

	// IdleTimeout is the keep-alive timeout (default: 60s)
	IdleTimeout time.Duration `env:"SERVER_IDLE_TIMEOUT" default:"60s"`

	// ShutdownTimeout is the maximum wait for graceful shutdown (default: 15s)
	ShutdownTimeout time.Duration `env:"SERVER_SHUTDOWN_TIMEOUT" default:"15s"`

	// RequestTimeout is the middleware timeout for requests (default: 30s)
	RequestTimeout time.Duration `env:"SERVER_REQUEST_TIMEOUT" default:"30s"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	// Level is the minimum log level: debug, info, warn, error (default: warn)
	Level string `env:"LOG_LEVEL" default:"warn"`

	// Format is the log format: text or json (default: text)
	Format string `env:"LOG_FORMAT" default:"text"`
}

// Addr returns the server listen address in host:port format.
func (c *ServerConfig) Addr() string {
	return c.Host + ":" + strconv.Itoa(c.Port)
}

// UpdatesDir is the directory holding dataset files.
func (c *DataConfig) UpdatesDir() string {
	return filepath.Join(c.Root, "updates")
}
