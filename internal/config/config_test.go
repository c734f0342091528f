package config

import (
	"strings"
	"testing"
	"time"
)

func envMap(m map[string]string) func(string) string {
	return func(k string) string { return m[k] }
}

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://localhost/test")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Server.Host != "127.0.0.1" {
		t.Errorf("Server.Host = %q, want %q", cfg.Server.Host, "127.0.0.1")
	}
	if cfg.Server.Port != 8080 {
		t.Errorf("Server.Port = %d, want %d", cfg.Server.Port, 8080)
	}
	if cfg.Database.Name != "npadb" {
		t.Errorf("Database.Name = %q, want %q", cfg.Database.Name, "npadb")
	}
	if cfg.Backup.DumpCommand != "pg_dump" {
		t.Errorf("Backup.DumpCommand = %q, want %q", cfg.Backup.DumpCommand, "pg_dump")
	}
	if cfg.Backup.S3Bucket != "" {
		t.Errorf("Backup.S3Bucket = %q, want empty", cfg.Backup.S3Bucket)
	}
	if cfg.Logging.Level != "warn" {
		t.Errorf("Logging.Level = %q, want %q", cfg.Logging.Level, "warn")
	}
}

func TestLoad_OverrideDefaults(t *testing.T) {
	cfg, err := LoadFrom(envMap(map[string]string{
		"DATABASE_URL":         "postgres://localhost/test",
		"SERVER_PORT":          "9090",
		"NPADB_DATA_ROOT":      "/srv/npadb",
		"BACKUP_S3_BUCKET":     "npadb-backups",
		"BACKUP_S3_PATH_STYLE": "true",
		"LOG_LEVEL":            "debug",
	}))
	if err != nil {
		t.Fatalf("LoadFrom() error = %v", err)
	}

	if cfg.Server.Port != 9090 {
		t.Errorf("Server.Port = %d, want %d", cfg.Server.Port, 9090)
	}
	if cfg.Data.UpdatesDir() != "/srv/npadb/updates" {
		t.Errorf("Data.UpdatesDir() = %q, want %q", cfg.Data.UpdatesDir(), "/srv/npadb/updates")
	}
	if !cfg.Backup.S3PathStyle {
		t.Error("Backup.S3PathStyle = false, want true")
	}
	if cfg.Backup.S3Bucket != "npadb-backups" {
		t.Errorf("Backup.S3Bucket = %q, want %q", cfg.Backup.S3Bucket, "npadb-backups")
	}
	if cfg.Logging.Level != "debug" {
		t.Errorf("Logging.Level = %q, want %q", cfg.Logging.Level, "debug")
	}
}

func TestLoad_AltEnvVar(t *testing.T) {
	cfg, err := LoadFrom(envMap(map[string]string{"DB_URL": "postgres://localhost/alttest"}))
	if err != nil {
		t.Fatalf("LoadFrom() error = %v", err)
	}

	if cfg.Database.URL != "postgres://localhost/alttest" {
		t.Errorf("Database.URL = %q, want %q", cfg.Database.URL, "postgres://localhost/alttest")
	}
}

func TestLoad_MissingRequired(t *testing.T) {
	_, err := LoadFrom(envMap(nil))
	if err == nil {
		t.Fatal("LoadFrom() expected error for missing DATABASE_URL")
	}
	if !strings.Contains(err.Error(), "DATABASE_URL") {
		t.Errorf("error = %v, want mention of DATABASE_URL", err)
	}
}

func TestLoad_Duration(t *testing.T) {
	cfg, err := LoadFrom(envMap(map[string]string{
		"DATABASE_URL":        "postgres://localhost/test",
		"SERVER_READ_TIMEOUT": "45s",
		"DB_CONNECT_TIMEOUT":  "1m30s",
	}))
	if err != nil {
		t.Fatalf("LoadFrom() error = %v", err)
	}

	if cfg.Server.ReadTimeout != 45*time.Second {
		t.Errorf("Server.ReadTimeout = %v, want %v", cfg.Server.ReadTimeout, 45*time.Second)
	}
	if cfg.Database.ConnectTimeout != 90*time.Second {
		t.Errorf("Database.ConnectTimeout = %v, want %v", cfg.Database.ConnectTimeout, 90*time.Second)
	}
}

func TestLoad_InvalidValues(t *testing.T) {
	tests := []struct {
		name string
		key  string
		val  string
	}{
		{"bad integer", "DB_MAX_CONNS", "many"},
		{"bad duration", "DB_CONNECT_TIMEOUT", "soon"},
		{"bad boolean", "BACKUP_S3_PATH_STYLE", "perhaps"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := LoadFrom(envMap(map[string]string{
				"DATABASE_URL": "postgres://localhost/test",
				tt.key:         tt.val,
			}))
			if err == nil {
				t.Fatalf("LoadFrom() expected error for %s=%q", tt.key, tt.val)
			}
			if !strings.Contains(err.Error(), tt.key) {
				t.Errorf("error = %v, want mention of %s", err, tt.key)
			}
		})
	}
}

func validConfig() *Config {
	return &Config{
		Database: DatabaseConfig{URL: "postgres://localhost/test", Name: "npadb", MaxConns: 4, ConnectTimeout: time.Second},
		Data:     DataConfig{Root: "."},
		Backup:   BackupConfig{Dir: "backups", DumpCommand: "pg_dump"},
		Server:   ServerConfig{Port: 8080, ShutdownTimeout: time.Second},
		Logging:  LoggingConfig{Level: "info", Format: "text"},
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{"valid", func(*Config) {}, ""},
		{"invalid port", func(c *Config) { c.Server.Port = 99999 }, "SERVER_PORT"},
		{"bad log level", func(c *Config) { c.Logging.Level = "verbose" }, "LOG_LEVEL"},
		{"bad log format", func(c *Config) { c.Logging.Format = "xml" }, "LOG_FORMAT"},
		{"endpoint without bucket", func(c *Config) { c.Backup.S3Endpoint = "http://minio:9000" }, "BACKUP_S3_BUCKET"},
		{"zero conns", func(c *Config) { c.Database.MaxConns = 0 }, "DB_MAX_CONNS"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.wantErr == "" {
				if err != nil {
					t.Fatalf("Validate() error = %v", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("Validate() error = %v, want mention of %s", err, tt.wantErr)
			}
		})
	}
}

func TestValidate_CollectsAllErrors(t *testing.T) {
	cfg := validConfig()
	cfg.Server.Port = 0
	cfg.Logging.Level = "loud"

	err := cfg.Validate()
	if err == nil {
		t.Fatal("Validate() expected error")
	}
	for _, want := range []string{"SERVER_PORT", "LOG_LEVEL"} {
		if !strings.Contains(err.Error(), want) {
			t.Errorf("error missing %s: %v", want, err)
		}
	}
}

func TestString_MasksURL(t *testing.T) {
	cfg := validConfig()
	cfg.Database.URL = "postgres://admin:secret@db/npadb"

	s := cfg.String()
	if strings.Contains(s, "secret") {
		t.Errorf("String() leaks database URL: %s", s)
	}
	if !strings.Contains(s, "[MASKED]") {
		t.Errorf("String() = %s, want masked URL", s)
	}
}

func TestServerAddr(t *testing.T) {
	c := ServerConfig{Host: "127.0.0.1", Port: 8080}
	if got := c.Addr(); got != "127.0.0.1:8080" {
		t.Errorf("Addr() = %q, want %q", got, "127.0.0.1:8080")
	}
}
