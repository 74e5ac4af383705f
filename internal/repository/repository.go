// Package repository is the datastore gateway: the only component that talks
// to the persistence layer. Every backend speaks the same two verbs, insert a
// row and select rows by equality filters, order and limit.
package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
)

// Row is a single table row keyed by column name
type Row = map[string]any

// Filter is an exact-match predicate on one column
type Filter struct {
	Column string
	Value  string
}

// Eq builds an equality filter
func Eq(column, value string) Filter {
	return Filter{Column: column, Value: value}
}

// Query describes a select request. Filters are ANDed.
type Query struct {
	Order   string // "column.asc" or "column.desc"
	Limit   int
	Filters []Filter
}

// Gateway is implemented by every datastore backend
type Gateway interface {
	Insert(ctx context.Context, table string, row Row) error
	Select(ctx context.Context, table string, q Query) ([]Row, error)
}

// Order is a parsed order expression
type Order struct {
	Column string
	Desc   bool
}

// ParseOrder parses "column.direction"; a bare column sorts ascending
func ParseOrder(expr string) (Order, error) {
	if expr == "" {
		return Order{}, nil
	}
	column, direction, found := strings.Cut(expr, ".")
	if column == "" {
		return Order{}, fmt.Errorf("invalid order expression %q", expr)
	}
	if !found {
		return Order{Column: column}, nil
	}
	switch strings.ToLower(direction) {
	case "asc":
		return Order{Column: column}, nil
	case "desc":
		return Order{Column: column, Desc: true}, nil
	default:
		return Order{}, fmt.Errorf("invalid order direction %q", direction)
	}
}

// DecodeRows converts gateway rows into typed models
func DecodeRows(rows []Row, dest any) error {
	if rows == nil {
		rows = []Row{}
	}
	data, err := json.Marshal(rows)
	if err != nil {
		return fmt.Errorf("failed to encode rows: %w", err)
	}
	if err := json.Unmarshal(data, dest); err != nil {
		return fmt.Errorf("failed to decode rows: %w", err)
	}
	return nil
}
