package postgres

import (
	"context"
	"fmt"

	"signal_bot/pkg/db"
)

// Open поднимает пул и проверяет соединение.
func Open(ctx context.Context, dsn string) (*db.PgTxManager, error) {
	poolMaster, err := db.NewPool(ctx, db.PoolConfig{
		DSN:      dsn,
		MaxConns: 4,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create poolMaster: %w", err)
	}

	if err = poolMaster.Ping(ctx); err != nil {
		poolMaster.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}

	return db.NewPgTxManager(poolMaster), nil
}
