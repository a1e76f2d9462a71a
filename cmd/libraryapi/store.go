package main

import (
	"context"
	"fmt"

	"github.com/kapitoshk4/library-service-api/library/shared/shell/config"
	"github.com/kapitoshk4/library-service-api/librarystore/postgresengine"
)

// openStore connects with the configured driver and returns the store and a function closing its pools.
func openStore(ctx context.Context, cfg config.PostgresConfig, obs observability) (postgresengine.Store, func(), error) {
	options := []postgresengine.Option{
		postgresengine.WithTableNames(cfg.Tables.Books, cfg.Tables.Borrowings, cfg.Tables.Payments),
		postgresengine.WithContextualLogger(obs.logger),
		postgresengine.WithMetrics(obs.metrics),
		postgresengine.WithTracing(obs.tracing),
	}

	switch cfg.Driver {
	case config.DriverSQL:
		return openSQLDBStore(ctx, cfg, options)
	case config.DriverSQLX:
		return openSQLXStore(ctx, cfg, options)
	default:
		return openPGXStore(ctx, cfg, options)
	}
}

func openPGXStore(ctx context.Context, cfg config.PostgresConfig, options []postgresengine.Option) (postgresengine.Store, func(), error) {
	primary, err := config.OpenPGXPool(ctx, cfg, cfg.DSN)
	if err != nil {
		return postgresengine.Store{}, nil, err
	}

	if cfg.ReplicaDSN == "" {
		store, err := postgresengine.NewStoreFromPGXPool(primary, options...)
		if err != nil {
			primary.Close()
			return postgresengine.Store{}, nil, fmt.Errorf("create store: %w", err)
		}

		return store, primary.Close, nil
	}

	replica, err := config.OpenPGXPool(ctx, cfg, cfg.ReplicaDSN)
	if err != nil {
		primary.Close()
		return postgresengine.Store{}, nil, err
	}

	closeAll := func() {
		replica.Close()
		primary.Close()
	}

	store, err := postgresengine.NewStoreFromPGXPoolAndReplica(primary, replica, options...)
	if err != nil {
		closeAll()
		return postgresengine.Store{}, nil, fmt.Errorf("create store: %w", err)
	}

	return store, closeAll, nil
}

func openSQLDBStore(ctx context.Context, cfg config.PostgresConfig, options []postgresengine.Option) (postgresengine.Store, func(), error) {
	primary, err := config.OpenSQLDB(ctx, cfg, cfg.DSN)
	if err != nil {
		return postgresengine.Store{}, nil, err
	}

	closeAll := func() { _ = primary.Close() }

	if cfg.ReplicaDSN == "" {
		store, err := postgresengine.NewStoreFromSQLDB(primary, options...)
		if err != nil {
			closeAll()
			return postgresengine.Store{}, nil, fmt.Errorf("create store: %w", err)
		}

		return store, closeAll, nil
	}

	replica, err := config.OpenSQLDB(ctx, cfg, cfg.ReplicaDSN)
	if err != nil {
		closeAll()
		return postgresengine.Store{}, nil, err
	}

	closeAll = func() {
		_ = replica.Close()
		_ = primary.Close()
	}

	store, err := postgresengine.NewStoreFromSQLDBAndReplica(primary, replica, options...)
	if err != nil {
		closeAll()
		return postgresengine.Store{}, nil, fmt.Errorf("create store: %w", err)
	}

	return store, closeAll, nil
}

func openSQLXStore(ctx context.Context, cfg config.PostgresConfig, options []postgresengine.Option) (postgresengine.Store, func(), error) {
	primary, err := config.OpenSQLX(ctx, cfg, cfg.DSN)
	if err != nil {
		return postgresengine.Store{}, nil, err
	}

	closeAll := func() { _ = primary.Close() }

	if cfg.ReplicaDSN == "" {
		store, err := postgresengine.NewStoreFromSQLX(primary, options...)
		if err != nil {
			closeAll()
			return postgresengine.Store{}, nil, fmt.Errorf("create store: %w", err)
		}

		return store, closeAll, nil
	}

	replica, err := config.OpenSQLX(ctx, cfg, cfg.ReplicaDSN)
	if err != nil {
		closeAll()
		return postgresengine.Store{}, nil, err
	}

	closeAll = func() {
		_ = replica.Close()
		_ = primary.Close()
	}

	store, err := postgresengine.NewStoreFromSQLXAndReplica(primary, replica, options...)
	if err != nil {
		closeAll()
		return postgresengine.Store{}, nil, fmt.Errorf("create store: %w", err)
	}

	return store, closeAll, nil
}
