package main

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/natashamoorfield/npm-npadb-admin/internal/backup"
	"github.com/natashamoorfield/npm-npadb-admin/internal/gazetteer"
	"github.com/natashamoorfield/npm-npadb-admin/internal/gss"
	"github.com/natashamoorfield/npm-npadb-admin/internal/lgro"
	"github.com/natashamoorfield/npm-npadb-admin/internal/web"
)

// gazetteerDB is the union of store operations the commands use.
// Satisfied by *gazetteer.Store.
type gazetteerDB interface {
	lgro.Store
	gss.Store
	TableCounts(ctx context.Context) ([]gazetteer.TableCount, error)
}

// session is an open database handle.
type session struct {
	Store gazetteerDB
	DB    web.Pinger
	Close func()
}

type dumper interface {
	Dump(ctx context.Context) (backup.Result, error)
}

// openSession connects the pool and checks the database answers.
func (a *app) openSession(ctx context.Context) (*session, error) {
	poolConfig, err := pgxpool.ParseConfig(a.cfg.Database.URL)
	if err != nil {
		return nil, fmt.Errorf("parse database URL: %w", err)
	}
	poolConfig.MaxConns = int32(a.cfg.Database.MaxConns)

	connectCtx, cancel := context.WithTimeout(ctx, a.cfg.Database.ConnectTimeout)
	defer cancel()

	pool, err := pgxpool.NewWithConfig(connectCtx, poolConfig)
	if err != nil {
		return nil, fmt.Errorf("connect to database: %w", err)
	}
	if err := pool.Ping(connectCtx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	a.logger.Info("connected to database", "name", poolConfig.ConnConfig.Database, "max_conns", poolConfig.MaxConns)
	return &session{
		Store: gazetteer.New(pool),
		DB:    pool,
		Close: pool.Close,
	}, nil
}

// buildDumper configures a Dumper, with S3 upload when a bucket is set.
func (a *app) buildDumper(ctx context.Context) (dumper, error) {
	b := a.cfg.Backup
	d := &backup.Dumper{
		Command:     b.DumpCommand,
		Dir:         b.Dir,
		Database:    a.cfg.Database.Name,
		DatabaseURL: a.cfg.Database.URL,
		Prefix:      b.S3Prefix,
		Logger:      a.logger,
		Now:         time.Now,
	}
	if b.S3Bucket != "" {
		up, err := backup.NewS3Uploader(ctx, backup.S3Config{
			Bucket:    b.S3Bucket,
			Region:    b.S3Region,
			Endpoint:  b.S3Endpoint,
			PathStyle: b.S3PathStyle,
		})
		if err != nil {
			return nil, fmt.Errorf("configure s3 upload: %w", err)
		}
		d.Uploader = up
	}
	return d, nil
}
