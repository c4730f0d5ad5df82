package database

import (
	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/pkg/errors"
)

// UniqueViolation reports whether err is a unique constraint
// violation, and if so, the name of the violated constraint
func UniqueViolation(err error) (constraint string, ok bool) {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		return "", false
	}

	if pgErr.Code != pgerrcode.UniqueViolation {
		return "", false
	}

	return pgErr.ConstraintName, true
}

// IsNoRows tells whether a query returned no rows
func IsNoRows(err error) bool {
	return errors.Is(err, pgx.ErrNoRows)
}

// Describe wraps a PostgreSQL error with a short category, so that
// logs tell connectivity problems apart from bad queries
func Describe(err error, msg string) error {
	if err == nil {
		return nil
	}

	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		return errors.Wrap(err, msg)
	}

	switch pgErr.Code {
	case pgerrcode.SerializationFailure, pgerrcode.DeadlockDetected:
		return errors.Wrapf(err, "%s: transaction conflict", msg)
	case pgerrcode.ConnectionException,
		pgerrcode.ConnectionDoesNotExist,
		pgerrcode.ConnectionFailure,
		pgerrcode.CannotConnectNow,
		pgerrcode.SQLClientUnableToEstablishSQLConnection:
		return errors.Wrapf(err, "%s: database connection error", msg)
	case pgerrcode.AdminShutdown, pgerrcode.CrashShutdown:
		return errors.Wrapf(err, "%s: database server unavailable", msg)
	case pgerrcode.QueryCanceled:
		return errors.Wrapf(err, "%s: query canceled", msg)
	case pgerrcode.InsufficientResources,
		pgerrcode.DiskFull,
		pgerrcode.OutOfMemory,
		pgerrcode.TooManyConnections:
		return errors.Wrapf(err, "%s: database resource limit", msg)
	default:
		return errors.Wrapf(err, "%s: postgres error [%s] %s", msg, pgErr.Code, pgErr.Detail)
	}
}
