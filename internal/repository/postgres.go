package repository

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/septivank/rnsync-vitals/internal/apperr"
)

// PostgresGateway reads and writes tables through a pgx pool
type PostgresGateway struct {
	pool *pgxpool.Pool
}

// NewPostgresGateway creates a new PostgreSQL gateway
func NewPostgresGateway(pool *pgxpool.Pool) *PostgresGateway {
	return &PostgresGateway{pool: pool}
}

// Insert inserts a row into table
func (g *PostgresGateway) Insert(ctx context.Context, table string, row Row) error {
	query, args, err := postgresDialect.buildInsert(table, row)
	if err != nil {
		return &apperr.StorageError{Op: "insert", Err: err}
	}

	if _, err := g.pool.Exec(ctx, query, args...); err != nil {
		return &apperr.StorageError{Op: "insert", Err: fmt.Errorf("failed to insert into %s: %w", table, err)}
	}
	return nil
}

// Select reads rows from table
func (g *PostgresGateway) Select(ctx context.Context, table string, q Query) ([]Row, error) {
	query, args, err := postgresDialect.buildSelect(table, q)
	if err != nil {
		return nil, &apperr.StorageError{Op: "select", Err: err}
	}

	rows, err := g.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, &apperr.StorageError{Op: "select", Err: fmt.Errorf("failed to query %s: %w", table, err)}
	}

	result, err := pgx.CollectRows(rows, pgx.RowToMap)
	if err != nil {
		return nil, &apperr.StorageError{Op: "select", Err: fmt.Errorf("failed to scan %s: %w", table, err)}
	}
	if result == nil {
		result = []Row{}
	}
	return result, nil
}
