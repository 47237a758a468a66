// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package store

import (
	"embed"
	"errors"
	"fmt"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/database/sqlite"
	"github.com/golang-migrate/migrate/v4/source/iofs"

	"github.com/ManuGH/callvault/internal/config"
	"github.com/ManuGH/callvault/internal/log"
)

//go:embed migrations
var migrations embed.FS

// Migration directions.
const (
	DirectionUp   = "up"
	DirectionDown = "down"
)

func migrationSource(driver string) (string, string, error) {
	switch driver {
	case config.DriverSQLite, "":
		return "migrations/sqlite", "sqlite://", nil
	case config.DriverPostgres:
		return "migrations/postgres", "", nil
	default:
		return "", "", fmt.Errorf("%w: %q", ErrUnknownDriver, driver)
	}
}

// Migrate applies the embedded schema migrations for cfg.Driver. steps > 0
// moves that many versions in direction; otherwise all the way.
func Migrate(cfg config.DatabaseConfig, direction string, steps int) error {
	dir, scheme, err := migrationSource(cfg.Driver)
	if err != nil {
		return err
	}
	src, err := iofs.New(migrations, dir)
	if err != nil {
		return fmt.Errorf("store: load migrations: %w", err)
	}
	m, err := migrate.NewWithSourceInstance("iofs", src, scheme+cfg.DSN)
	if err != nil {
		return fmt.Errorf("store: init migrations: %w", err)
	}
	defer func() { _, _ = m.Close() }()

	switch direction {
	case DirectionUp:
		if steps > 0 {
			err = m.Steps(steps)
		} else {
			err = m.Up()
		}
	case DirectionDown:
		if steps > 0 {
			err = m.Steps(-steps)
		} else {
			err = m.Down()
		}
	default:
		return fmt.Errorf("store: unknown migration direction: %s", direction)
	}
	if err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("store: migrate %s: %w", direction, err)
	}

	version, dirty, verr := m.Version()
	logger := log.WithComponent("store")
	ev := logger.Info().Str("direction", direction)
	if verr == nil {
		ev = ev.Uint("version", version).Bool("dirty", dirty)
	}
	ev.Msg("schema migrations applied")
	return nil
}
