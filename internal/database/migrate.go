package database

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"strconv"

	"github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

const migrationsDir = "migrations"

// Migrate runs a goose command (up, down, status, redo, ...) against the embedded migrations.
func Migrate(ctx context.Context, db *Database, command string, args ...string) error {
	return withSQLDB(db, func(sqlDB *sql.DB) error {
		if err := goose.RunContext(ctx, command, sqlDB, migrationsDir, args...); err != nil {
			return fmt.Errorf("goose %s: %w", command, err)
		}
		return nil
	})
}

// MigrateToVersion migrates up or down to targetVersion depending on the current version.
func MigrateToVersion(ctx context.Context, db *Database, targetVersion string) error {
	target, err := strconv.ParseInt(targetVersion, 10, 64)
	if err != nil {
		return fmt.Errorf("invalid version %q (expected YYYYMMDDHHMMSS): %w", targetVersion, err)
	}

	return withSQLDB(db, func(sqlDB *sql.DB) error {
		current, err := goose.GetDBVersionContext(ctx, sqlDB)
		if err != nil {
			return fmt.Errorf("get db version: %w", err)
		}

		switch {
		case target > current:
			err = goose.UpToContext(ctx, sqlDB, migrationsDir, target)
		case target < current:
			err = goose.DownToContext(ctx, sqlDB, migrationsDir, target)
		default:
			return nil
		}
		if err != nil {
			return fmt.Errorf("migrate to version %d: %w", target, err)
		}
		return nil
	})
}

// Version returns the currently applied migration version.
func Version(ctx context.Context, db *Database) (int64, error) {
	var version int64
	err := withSQLDB(db, func(sqlDB *sql.DB) error {
		v, err := goose.GetDBVersionContext(ctx, sqlDB)
		if err != nil {
			return fmt.Errorf("get db version: %w", err)
		}
		version = v
		return nil
	})
	return version, err
}

// withSQLDB exposes the pgx pool as a database/sql handle for goose.
func withSQLDB(db *Database, fn func(*sql.DB) error) error {
	if db == nil || db.Pool == nil {
		return errors.New("database is required")
	}

	goose.SetBaseFS(migrationsFS)
	if err := goose.SetDialect("postgres"); err != nil {
		return fmt.Errorf("set goose dialect: %w", err)
	}

	sqlDB := stdlib.OpenDBFromPool(db.Pool)
	defer sqlDB.Close()

	return fn(sqlDB)
}
