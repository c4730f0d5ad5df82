package database

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/agubarev/lowcode/pkg/util"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/pkg/errors"
)

// TestDatabaseEnv names the environment variable holding the test database DSN
const TestDatabaseEnv = "LOWCODE_TEST_DATABASE"

// tables in the order they can be truncated
var tables = []string{
	"workflow_instance",
	"workflow_definition",
	"app_group_member",
	"app_group",
	"domain_group_member",
	"domain_group",
	"application",
	"domain",
}

// PostgresForTesting connects to the test database, applies migrations
// and truncates every table
// NOTE: returns a nil pool without an error if the test database is not configured,
// callers are expected to skip in that case
func PostgresForTesting(ctx context.Context) (*pgxpool.Pool, error) {
	if !util.IsTestMode() {
		return nil, errors.New("PostgresForTesting() can only be called during testing")
	}

	dsn := strings.TrimSpace(os.Getenv(TestDatabaseEnv))
	if dsn == "" {
		return nil, nil
	}

	pool, err := NewPool(ctx, &PoolConfig{ConnString: dsn, MaxConns: 4, MinConns: 1})
	if err != nil {
		return nil, err
	}

	if err = Migrate(pool); err != nil {
		pool.Close()
		return nil, err
	}

	if err = TruncateForTesting(ctx, pool); err != nil {
		pool.Close()
		return nil, err
	}

	return pool, nil
}

// TruncateForTesting wipes all tables
func TruncateForTesting(ctx context.Context, pool *pgxpool.Pool) error {
	if !util.IsTestMode() {
		return errors.New("TruncateForTesting() can only be called during testing")
	}

	tx, err := pool.Begin(ctx)
	if err != nil {
		return errors.Wrap(err, "failed to begin transaction")
	}
	defer tx.Rollback(ctx)

	for _, name := range tables {
		if _, err = tx.Exec(ctx, fmt.Sprintf(`TRUNCATE TABLE "%s" CASCADE`, name)); err != nil {
			return errors.Wrapf(err, "failed to truncate %s", name)
		}
	}

	return tx.Commit(ctx)
}
