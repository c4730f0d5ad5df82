package database_test

import (
	"context"
	"testing"
	"time"

	"github.com/agubarev/lowcode/pkg/database"
	"github.com/stretchr/testify/assert"
)

func TestPoolConfig(t *testing.T) {
	a := assert.New(t)

	cfg := &database.PoolConfig{ConnString: "  postgres://localhost/lowcode  "}
	cfg.ApplyDefaults()

	a.Equal("postgres://localhost/lowcode", cfg.ConnString)
	a.EqualValues(20, cfg.MaxConns)
	a.EqualValues(2, cfg.MinConns)
	a.Equal(time.Hour, cfg.MaxConnLifetime)
	a.Equal(10*time.Second, cfg.ConnectTimeout)
	a.NoError(cfg.Validate())

	cfg = &database.PoolConfig{}
	cfg.ApplyDefaults()
	a.Equal(database.ErrEmptyConnString, cfg.Validate())

	cfg = &database.PoolConfig{ConnString: "postgres://localhost/lowcode", MaxConns: 2, MinConns: 5}
	a.Error(cfg.Validate())

	_, err := database.NewPool(context.Background(), nil)
	a.Equal(database.ErrNilPoolConfig, err)
}

func TestMigrate(t *testing.T) {
	a := assert.New(t)
	ctx := context.Background()

	pool, err := database.PostgresForTesting(ctx)
	a.NoError(err)
	if pool == nil {
		t.Skipf("%s is not set", database.TestDatabaseEnv)
	}
	defer pool.Close()

	v, err := database.SchemaVersion(pool)
	a.NoError(err)
	a.EqualValues(2, v)

	// applying again is a no-op
	a.NoError(database.Migrate(pool))
}
