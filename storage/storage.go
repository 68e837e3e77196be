package storage

import (
	"context"
	"time"

	"github.com/pkg/errors"

	"github.com/trezcool/veritas/core"
	"github.com/trezcool/veritas/core/session"
	"github.com/trezcool/veritas/storage/database"
	inmemdb "github.com/trezcool/veritas/storage/database/inmem"
	sqlxstore "github.com/trezcool/veritas/storage/database/sqlx"
	redisstore "github.com/trezcool/veritas/storage/redis"
)

const (
	EngineMemory = "memory"
	EngineRedis  = "redis"
)

// Backend gives each browser its own persisted key space.
type Backend interface {
	For(namespace string) session.Storage
	Close() error
}

// Sweeper is implemented by backends that can drop abandoned key spaces.
type Sweeper interface {
	Sweep(ctx context.Context, before time.Time) (int64, error)
}

// Open returns the backend selected by conf.Storage.Engine.
func Open(ctx context.Context, conf *core.Config) (Backend, error) {
	switch conf.Storage.Engine {
	case "", EngineMemory:
		return inmemdb.Open(), nil
	case database.EnginePostgres, database.EngineSQLite:
		db, err := database.Open(ctx, conf)
		if err != nil {
			return nil, err
		}
		return sqlxstore.New(db), nil
	case EngineRedis:
		rdb, err := redisstore.Open(ctx, conf.Storage.URL)
		if err != nil {
			return nil, err
		}
		return redisstore.New(rdb, conf.Storage.TTL), nil
	default:
		return nil, errors.Errorf("unknown storage engine %q", conf.Storage.Engine)
	}
}
