package store

import (
	"context"
	_ "embed"
	"fmt"
	"log"

	"github.com/jackc/pgx/v5/pgxpool"
)

//go:embed schema.sql
var schemaSQL string

// OpenPostgres connects a pgx pool, verifies it and applies the schema.
func OpenPostgres(ctx context.Context, dsn string) (*pgxpool.Pool, error) {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("%w: create pool: %v", ErrUnavailable, err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("%w: ping: %v", ErrUnavailable, err)
	}
	if err := Migrate(ctx, pool); err != nil {
		pool.Close()
		return nil, err
	}
	log.Printf("[store] postgres ready (max conns=%d)", pool.Config().MaxConns)
	return pool, nil
}

// Migrate creates the products, pos_orders and pos_order_items tables if
// they do not exist yet. Safe to run on every start.
func Migrate(ctx context.Context, pool *pgxpool.Pool) error {
	// no arguments: pgx sends this over the simple protocol, so the
	// multi-statement script runs as one Exec
	if _, err := pool.Exec(ctx, schemaSQL); err != nil {
		return fmt.Errorf("apply schema: %w", ClassifyPG(err))
	}
	return nil
}
