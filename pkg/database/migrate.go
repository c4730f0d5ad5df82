package database

import (
	"database/sql"
	"embed"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/pgx/v5/stdlib"
	"github.com/pkg/errors"
	"github.com/pressly/goose/v3"
)

//go:embed migrations/*.sql
var embedMigrations embed.FS

const migrationsDir = "migrations"

func prepareGoose() error {
	goose.SetBaseFS(embedMigrations)

	if err := goose.SetDialect("postgres"); err != nil {
		return errors.Wrap(err, "failed to set goose dialect")
	}

	return nil
}

// openDB exposes a pool through database/sql, which is what goose needs
// NOTE: closing the returned DB does not close the pool
func openDB(pool *pgxpool.Pool) *sql.DB {
	return stdlib.OpenDBFromPool(pool)
}

// Migrate applies all pending schema migrations
func Migrate(pool *pgxpool.Pool) error {
	if pool == nil {
		return errors.New("pool is nil")
	}

	if err := prepareGoose(); err != nil {
		return err
	}

	db := openDB(pool)
	defer db.Close()

	if err := goose.Up(db, migrationsDir); err != nil {
		return errors.Wrap(err, "failed to apply migrations")
	}

	return nil
}

// Rollback reverts the most recent migration
func Rollback(pool *pgxpool.Pool) error {
	if pool == nil {
		return errors.New("pool is nil")
	}

	if err := prepareGoose(); err != nil {
		return err
	}

	db := openDB(pool)
	defer db.Close()

	if err := goose.Down(db, migrationsDir); err != nil {
		return errors.Wrap(err, "failed to roll back migration")
	}

	return nil
}

// SchemaVersion returns the currently applied migration version
func SchemaVersion(pool *pgxpool.Pool) (int64, error) {
	if err := prepareGoose(); err != nil {
		return 0, err
	}

	db := openDB(pool)
	defer db.Close()

	v, err := goose.GetDBVersion(db)
	if err != nil {
		return 0, errors.Wrap(err, "failed to obtain schema version")
	}

	return v, nil
}
