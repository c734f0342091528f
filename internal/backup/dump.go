// Package backup dumps the gazetteer database to a timestamped, gzipped SQL
// file and optionally copies it off-site to S3.
package backup

import (
	"compress/gzip"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
)

// TimestampLayout names dump files <database>_<timestamp>.sql.gz.
const TimestampLayout = "2006-01-02-150405"

// Runner executes a dump command, streaming its SQL output to stdout.
type Runner func(ctx context.Context, name string, args []string, stdout io.Writer) error

// Uploader copies a finished dump somewhere durable.
type Uploader interface {
	Upload(ctx context.Context, key string, body io.Reader, metadata map[string]string) error
}

// Dumper produces database backups.
type Dumper struct {
	Command     string // dump executable, default pg_dump
	Dir         string // destination directory
	Database    string // used in the file name
	DatabaseURL string // passed to the dump command as --dbname

	Uploader Uploader // optional
	Prefix   string   // object key prefix for uploads

	Logger *slog.Logger
	Now    func() time.Time
	Run    Runner
}

// Result describes a finished backup.
type Result struct {
	ID        string
	Path      string
	Bytes     int64
	ObjectKey string
}

// FileName is the dump file name for database at t.
func FileName(database string, t time.Time) string {
	return fmt.Sprintf("%s_%s.sql.gz", database, t.Format(TimestampLayout))
}

// Dump runs the dump command, compresses its output into Dir and uploads the
// file when an Uploader is set. A failed dump leaves no file behind.
func (d *Dumper) Dump(ctx context.Context) (Result, error) {
	logger := d.Logger
	if logger == nil {
		logger = slog.Default()
	}
	now := time.Now
	if d.Now != nil {
		now = d.Now
	}
	run := d.Run
	if run == nil {
		run = execRunner
	}
	command := d.Command
	if command == "" {
		command = "pg_dump"
	}
	if d.Database == "" {
		return Result{}, errors.New("backup: database name required")
	}

	if err := os.MkdirAll(d.Dir, 0o750); err != nil {
		return Result{}, fmt.Errorf("create backup dir: %w", err)
	}

	res := Result{
		ID:   uuid.NewString(),
		Path: filepath.Join(d.Dir, FileName(d.Database, now())),
	}
	args := []string{"--no-owner"}
	if d.DatabaseURL != "" {
		args = append(args, "--dbname="+d.DatabaseURL)
	} else {
		args = append(args, d.Database)
	}

	logger.Info("dumping database", "command", command, "path", res.Path, "backup_id", res.ID)

	n, err := d.writeDump(ctx, run, command, args, res.Path)
	if err != nil {
		os.Remove(res.Path)
		return Result{}, err
	}
	res.Bytes = n
	logger.Info("database dumped", "path", res.Path, "bytes", n)

	if d.Uploader == nil {
		return res, nil
	}

	res.ObjectKey = strings.TrimPrefix(d.Prefix+"/"+filepath.Base(res.Path), "/")
	f, err := os.Open(res.Path)
	if err != nil {
		return res, fmt.Errorf("open dump for upload: %w", err)
	}
	defer f.Close()

	meta := map[string]string{
		"backup-id": res.ID,
		"database":  d.Database,
	}
	if err := d.Uploader.Upload(ctx, res.ObjectKey, f, meta); err != nil {
		return res, fmt.Errorf("upload %s: %w", res.ObjectKey, err)
	}
	logger.Info("backup uploaded", "key", res.ObjectKey, "backup_id", res.ID)
	return res, nil
}

func (d *Dumper) writeDump(ctx context.Context, run Runner, command string, args []string, path string) (int64, error) {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o640)
	if err != nil {
		return 0, fmt.Errorf("create dump file: %w", err)
	}
	defer f.Close()

	zw := gzip.NewWriter(f)
	zw.Name = strings.TrimSuffix(filepath.Base(path), ".gz")

	if err := run(ctx, command, args, zw); err != nil {
		return 0, fmt.Errorf("%s: %w", command, err)
	}
	if err := zw.Close(); err != nil {
		return 0, fmt.Errorf("compress dump: %w", err)
	}

	info, err := f.Stat()
	if err != nil {
		return 0, fmt.Errorf("stat dump: %w", err)
	}
	if err := f.Sync(); err != nil {
		return 0, fmt.Errorf("sync dump: %w", err)
	}
	return info.Size(), nil
}

func execRunner(ctx context.Context, name string, args []string, stdout io.Writer) error {
	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Stdout = stdout
	var stderr strings.Builder
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		if msg := strings.TrimSpace(stderr.String()); msg != "" {
			return fmt.Errorf("%w: %s", err, msg)
		}
		return err
	}
	return nil
}
