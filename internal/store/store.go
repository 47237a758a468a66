// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

// Package store is the relational recordings repository (SQLite or Postgres).
package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/ManuGH/callvault/internal/config"
	"github.com/ManuGH/callvault/internal/log"
	"github.com/ManuGH/callvault/internal/query"
	_ "github.com/lib/pq" // postgres driver
)

// ErrUnknownDriver is returned for a database driver other than sqlite or postgres.
var ErrUnknownDriver = errors.New("unknown database driver")

// Repository reads and writes recordings.
type Repository struct {
	db      *sql.DB
	dialect query.Dialect
	driver  string
	dsn     string
}

// Open connects to the configured database, applying migrations first when
// cfg.MigrateOnStart is set.
func Open(ctx context.Context, cfg config.DatabaseConfig) (*Repository, error) {
	driver := cfg.Driver
	if driver == "" {
		driver = config.DriverSQLite
	}
	logger := log.WithComponent("store")

	if driver == config.DriverSQLite {
		if dir := filepath.Dir(cfg.DSN); dir != "." {
			if err := os.MkdirAll(dir, 0o750); err != nil {
				return nil, fmt.Errorf("store: create database dir: %w", err)
			}
		}
	}
	if cfg.MigrateOnStart {
		if err := Migrate(cfg, DirectionUp, 0); err != nil {
			return nil, err
		}
	}

	var (
		db      *sql.DB
		dialect query.Dialect
		err     error
	)
	switch driver {
	case config.DriverSQLite:
		scfg := DefaultSQLiteConfig()
		if cfg.MaxOpenConns > 0 {
			scfg.MaxOpenConns = cfg.MaxOpenConns
		}
		db, err = OpenSQLite(cfg.DSN, scfg)
		dialect = query.SQLite
	case config.DriverPostgres:
		db, err = openPostgres(ctx, cfg)
		dialect = query.Postgres
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownDriver, driver)
	}
	if err != nil {
		return nil, err
	}

	logger.Info().Str("driver", driver).Bool("migrated", cfg.MigrateOnStart).Msg("recordings database ready")
	return &Repository{db: db, dialect: dialect, driver: driver, dsn: cfg.DSN}, nil
}

func openPostgres(ctx context.Context, cfg config.DatabaseConfig) (*sql.DB, error) {
	db, err := sql.Open("postgres", cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("postgres: open failed: %w", err)
	}
	if cfg.MaxOpenConns > 0 {
		db.SetMaxOpenConns(cfg.MaxOpenConns)
		db.SetMaxIdleConns(cfg.MaxOpenConns)
	}
	db.SetConnMaxLifetime(time.Hour)

	pingCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("postgres: ping failed: %w", err)
	}
	return db, nil
}

// Dialect reports the placeholder dialect of the underlying database.
func (r *Repository) Dialect() query.Dialect { return r.dialect }

// Driver returns the configured driver name.
func (r *Repository) Driver() string { return r.driver }

// Ping checks connectivity.
func (r *Repository) Ping(ctx context.Context) error { return r.db.PingContext(ctx) }

// Close releases the connection pool.
func (r *Repository) Close() error { return r.db.Close() }

// Verify runs an integrity check. Only SQLite databases support it.
func (r *Repository) Verify(mode string) ([]string, error) {
	if r.driver != config.DriverSQLite {
		return nil, fmt.Errorf("store: integrity check not supported for %s", r.driver)
	}
	return VerifyIntegrity(r.dsn, mode)
}

// FindPage returns page number (1-based) of the recordings matching where,
// newest first, with totals from a COUNT over the same predicate.
func (r *Repository) FindPage(ctx context.Context, where query.Predicate, number, size int) ([]Recording, query.Page, error) {
	cond, args := where.SQL(), where.Args()

	var total int
	countSQL := query.Rebind(r.dialect, "SELECT COUNT(*) FROM recordings WHERE "+cond)
	if err := r.db.QueryRowContext(ctx, countSQL, args...).Scan(&total); err != nil {
		return nil, query.Page{}, fmt.Errorf("store: count recordings: %w", err)
	}

	page := query.NewPage(number, size, total)
	start, end := page.Bounds(total)
	if start >= end {
		return []Recording{}, page, nil
	}
	pageSQL := query.Rebind(r.dialect, "SELECT "+selectColumns+" FROM recordings WHERE "+cond+
		" ORDER BY date_added DESC, id DESC LIMIT ? OFFSET ?")
	pageArgs := append(append([]any{}, args...), size, page.Offset())

	rows, err := r.db.QueryContext(ctx, pageSQL, pageArgs...)
	if err != nil {
		return nil, query.Page{}, fmt.Errorf("store: query recordings: %w", err)
	}
	defer rows.Close()

	out := make([]Recording, 0, end-start)
	for rows.Next() {
		rec, err := scanRecording(rows)
		if err != nil {
			return nil, query.Page{}, fmt.Errorf("store: scan recording: %w", err)
		}
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, query.Page{}, fmt.Errorf("store: iterate recordings: %w", err)
	}
	return out, page, nil
}

// FindByOpcoAndFileName returns every recording of opco stored under fileName.
func (r *Repository) FindByOpcoAndFileName(ctx context.Context, opco, fileName string) ([]Recording, error) {
	q := query.Rebind(r.dialect, "SELECT "+selectColumns+
		" FROM recordings WHERE opco = ? AND file_name = ? ORDER BY date_added DESC, id DESC")
	rows, err := r.db.QueryContext(ctx, q, opco, fileName)
	if err != nil {
		return nil, fmt.Errorf("store: query recording: %w", err)
	}
	defer rows.Close()

	var out []Recording
	for rows.Next() {
		rec, err := scanRecording(rows)
		if err != nil {
			return nil, fmt.Errorf("store: scan recording: %w", err)
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

// Insert stores rec and returns its id. DateAdded is stored in UTC.
func (r *Repository) Insert(ctx context.Context, rec Recording) (int64, error) {
	q := query.Rebind(r.dialect, `INSERT INTO recordings
		(file_name, extension_num, object_id, channel_num, ani_ali_digits, name, date_added, opco, agent_id, duration, direction)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?) RETURNING id`)
	var id int64
	err := r.db.QueryRowContext(ctx, q,
		rec.FileName, rec.ExtensionNum, rec.ObjectID, rec.ChannelNum, rec.AniAliDigits, rec.Name,
		rec.DateAdded.UTC(), rec.Opco, rec.AgentID, rec.Duration, rec.Direction,
	).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("store: insert recording: %w", err)
	}
	return id, nil
}
