package main

import (
	"context"
	"fmt"

	"github.com/MikeMC777/retail-pos/internal/config"
	"github.com/MikeMC777/retail-pos/internal/order"
	"github.com/MikeMC777/retail-pos/internal/product"
	"github.com/MikeMC777/retail-pos/internal/store"
)

// backend is one durable store seen through both repositories.
type backend struct {
	products product.Repository
	orders   order.Repository
	ping     func(context.Context) error
	close    func() error
}

func openBackend(ctx context.Context, cfg config.Config) (*backend, error) {
	if cfg.DBDriver == config.DriverSQLite {
		return openSQLiteBackend(cfg)
	}

	pool, err := store.OpenPostgres(ctx, cfg.PostgresDSN)
	if err != nil {
		return nil, err
	}
	return &backend{
		products: product.NewPGRepo(pool, cfg.DBTimeout),
		orders:   order.NewPGRepo(pool, cfg.DBTimeout),
		ping:     pool.Ping,
		close: func() error {
			pool.Close()
			return nil
		},
	}, nil
}

func openSQLiteBackend(cfg config.Config) (*backend, error) {
	db, err := store.OpenSQLite(cfg.SQLitePath, cfg.DBDebug)
	if err != nil {
		return nil, err
	}
	if err := product.AutoMigrate(db); err != nil {
		_ = store.CloseSQLite(db)
		return nil, err
	}
	if err := order.AutoMigrate(db); err != nil {
		_ = store.CloseSQLite(db)
		return nil, err
	}
	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", store.ErrUnavailable, err)
	}
	return &backend{
		products: product.NewGormRepo(db, cfg.DBTimeout),
		orders:   order.NewGormRepo(db, cfg.DBTimeout),
		ping:     sqlDB.PingContext,
		close:    func() error { return store.CloseSQLite(db) },
	}, nil
}
