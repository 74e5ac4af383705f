package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/septivank/rnsync-vitals/internal/apperr"
)

// SQLiteGateway reads and writes tables in a local SQLite file
type SQLiteGateway struct {
	db *sql.DB
}

// NewSQLiteGateway creates a new SQLite gateway
func NewSQLiteGateway(db *sql.DB) *SQLiteGateway {
	return &SQLiteGateway{db: db}
}

// Insert inserts a row into table
func (g *SQLiteGateway) Insert(ctx context.Context, table string, row Row) error {
	query, args, err := sqliteDialect.buildInsert(table, row)
	if err != nil {
		return &apperr.StorageError{Op: "insert", Err: err}
	}

	if _, err := g.db.ExecContext(ctx, query, args...); err != nil {
		return &apperr.StorageError{Op: "insert", Err: fmt.Errorf("failed to insert into %s: %w", table, err)}
	}
	return nil
}

// Select reads rows from table
func (g *SQLiteGateway) Select(ctx context.Context, table string, q Query) ([]Row, error) {
	query, args, err := sqliteDialect.buildSelect(table, q)
	if err != nil {
		return nil, &apperr.StorageError{Op: "select", Err: err}
	}

	rows, err := g.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, &apperr.StorageError{Op: "select", Err: fmt.Errorf("failed to query %s: %w", table, err)}
	}
	defer rows.Close()

	columns, err := rows.Columns()
	if err != nil {
		return nil, &apperr.StorageError{Op: "select", Err: err}
	}

	result := []Row{}
	for rows.Next() {
		values := make([]any, len(columns))
		pointers := make([]any, len(columns))
		for i := range values {
			pointers[i] = &values[i]
		}
		if err := rows.Scan(pointers...); err != nil {
			return nil, &apperr.StorageError{Op: "select", Err: fmt.Errorf("failed to scan %s: %w", table, err)}
		}

		row := make(Row, len(columns))
		for i, column := range columns {
			if b, ok := values[i].([]byte); ok {
				row[column] = string(b)
				continue
			}
			row[column] = values[i]
		}
		result = append(result, row)
	}

	if err := rows.Err(); err != nil {
		return nil, &apperr.StorageError{Op: "select", Err: fmt.Errorf("rows iteration error: %w", err)}
	}
	return result, nil
}
