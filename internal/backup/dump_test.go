package backup

import (
	"compress/gzip"
	"context"
	"errors"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var fixedNow = func() time.Time {
	return time.Date(2024, time.March, 30, 14, 5, 9, 0, time.UTC)
}

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type recordedRun struct {
	name string
	args []string
}

func fakeRunner(sql string, err error, rec *recordedRun) Runner {
	return func(_ context.Context, name string, args []string, stdout io.Writer) error {
		rec.name, rec.args = name, args
		if _, werr := io.WriteString(stdout, sql); werr != nil {
			return werr
		}
		return err
	}
}

type fakeUploader struct {
	key  string
	body []byte
	meta map[string]string
	err  error
}

func (u *fakeUploader) Upload(_ context.Context, key string, body io.Reader, meta map[string]string) error {
	u.key, u.meta = key, meta
	b, err := io.ReadAll(body)
	if err != nil {
		return err
	}
	u.body = b
	return u.err
}

func gunzip(t *testing.T, path string) string {
	t.Helper()
	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()
	zr, err := gzip.NewReader(f)
	require.NoError(t, err)
	b, err := io.ReadAll(zr)
	require.NoError(t, err)
	return string(b)
}

func TestFileName(t *testing.T) {
	assert.Equal(t, "npadb_2024-03-30-140509.sql.gz", FileName("npadb", fixedNow()))
}

func TestDump_WritesCompressedFile(t *testing.T) {
	dir := t.TempDir()
	var rec recordedRun
	d := &Dumper{
		Dir:         dir,
		Database:    "npadb",
		DatabaseURL: "postgres://localhost/npadb",
		Logger:      quietLogger(),
		Now:         fixedNow,
		Run:         fakeRunner("CREATE TABLE districts ();\n", nil, &rec),
	}

	res, err := d.Dump(context.Background())
	require.NoError(t, err)

	assert.Equal(t, filepath.Join(dir, "npadb_2024-03-30-140509.sql.gz"), res.Path)
	assert.NotEmpty(t, res.ID)
	assert.Positive(t, res.Bytes)
	assert.Empty(t, res.ObjectKey)
	assert.Equal(t, "pg_dump", rec.name)
	assert.Equal(t, []string{"--no-owner", "--dbname=postgres://localhost/npadb"}, rec.args)
	assert.Equal(t, "CREATE TABLE districts ();\n", gunzip(t, res.Path))
}

func TestDump_FailureRemovesFile(t *testing.T) {
	dir := t.TempDir()
	var rec recordedRun
	d := &Dumper{
		Command:  "mysqldump",
		Dir:      dir,
		Database: "npadb",
		Logger:   quietLogger(),
		Now:      fixedNow,
		Run:      fakeRunner("partial", errors.New("exit status 2"), &rec),
	}

	_, err := d.Dump(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "mysqldump")
	assert.Equal(t, []string{"--no-owner", "npadb"}, rec.args)

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestDump_RequiresDatabase(t *testing.T) {
	d := &Dumper{Dir: t.TempDir(), Logger: quietLogger()}
	_, err := d.Dump(context.Background())
	require.Error(t, err)
}

func TestDump_Uploads(t *testing.T) {
	var rec recordedRun
	up := &fakeUploader{}
	d := &Dumper{
		Dir:      t.TempDir(),
		Database: "npadb",
		Uploader: up,
		Prefix:   "npadb/backups",
		Logger:   quietLogger(),
		Now:      fixedNow,
		Run:      fakeRunner("SELECT 1;\n", nil, &rec),
	}

	res, err := d.Dump(context.Background())
	require.NoError(t, err)

	assert.Equal(t, "npadb/backups/npadb_2024-03-30-140509.sql.gz", res.ObjectKey)
	assert.Equal(t, res.ObjectKey, up.key)
	assert.Equal(t, res.ID, up.meta["backup-id"])
	assert.Equal(t, "npadb", up.meta["database"])
	assert.Len(t, up.body, int(res.Bytes))
}

func TestDump_UploadFailureKeepsLocalFile(t *testing.T) {
	var rec recordedRun
	d := &Dumper{
		Dir:      t.TempDir(),
		Database: "npadb",
		Uploader: &fakeUploader{err: errors.New("access denied")},
		Logger:   quietLogger(),
		Now:      fixedNow,
		Run:      fakeRunner("SELECT 1;\n", nil, &rec),
	}

	res, err := d.Dump(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "access denied")
	assert.Equal(t, "npadb_2024-03-30-140509.sql.gz", res.ObjectKey)
	assert.FileExists(t, res.Path)
}

type fakePutObject struct {
	in *s3.PutObjectInput
}

func (f *fakePutObject) PutObject(_ context.Context, in *s3.PutObjectInput, _ ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	f.in = in
	return &s3.PutObjectOutput{}, nil
}

func TestS3Uploader_Upload(t *testing.T) {
	api := &fakePutObject{}
	u := &S3Uploader{client: api, bucket: "npadb-backups"}

	err := u.Upload(context.Background(), "k.sql.gz", nil, map[string]string{"database": "npadb"})
	require.NoError(t, err)

	assert.Equal(t, "npadb-backups", aws.ToString(api.in.Bucket))
	assert.Equal(t, "k.sql.gz", aws.ToString(api.in.Key))
	assert.Equal(t, "gzip", aws.ToString(api.in.ContentEncoding))
	assert.Equal(t, "npadb", api.in.Metadata["database"])
}

func TestNewS3Uploader_RequiresBucket(t *testing.T) {
	_, err := NewS3Uploader(context.Background(), S3Config{})
	require.Error(t, err)
}
