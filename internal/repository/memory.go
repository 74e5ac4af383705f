package repository

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/septivank/rnsync-vitals/internal/apperr"
)

// MemoryGateway keeps tables in process memory. It backs tests and the
// demo driver; data does not survive a restart.
type MemoryGateway struct {
	mu     sync.RWMutex
	tables map[string][]Row
}

// NewMemoryGateway creates an empty in-memory gateway
func NewMemoryGateway() *MemoryGateway {
	return &MemoryGateway{tables: make(map[string][]Row)}
}

// Insert appends a copy of row to table
func (g *MemoryGateway) Insert(_ context.Context, table string, row Row) error {
	if len(row) == 0 {
		return &apperr.StorageError{Op: "insert", Err: fmt.Errorf("empty row for table %s", table)}
	}

	g.mu.Lock()
	defer g.mu.Unlock()
	g.tables[table] = append(g.tables[table], copyRow(row))
	return nil
}

// Select returns matching rows ordered and capped per q
func (g *MemoryGateway) Select(_ context.Context, table string, q Query) ([]Row, error) {
	order, err := ParseOrder(q.Order)
	if err != nil {
		return nil, &apperr.StorageError{Op: "select", Err: err}
	}

	g.mu.RLock()
	result := []Row{}
	for _, row := range g.tables[table] {
		if matches(row, q.Filters) {
			result = append(result, copyRow(row))
		}
	}
	g.mu.RUnlock()

	if order.Column != "" {
		sort.SliceStable(result, func(i, j int) bool {
			c := compareValues(result[i][order.Column], result[j][order.Column])
			if order.Desc {
				return c > 0
			}
			return c < 0
		})
	}
	if q.Limit > 0 && len(result) > q.Limit {
		result = result[:q.Limit]
	}
	return result, nil
}

func matches(row Row, filters []Filter) bool {
	for _, f := range filters {
		v, ok := row[f.Column]
		if !ok || fmt.Sprint(v) != f.Value {
			return false
		}
	}
	return true
}

func compareValues(a, b any) int {
	switch av := a.(type) {
	case time.Time:
		if bv, ok := b.(time.Time); ok {
			return av.Compare(bv)
		}
	case float64:
		if bv, ok := b.(float64); ok {
			switch {
			case av < bv:
				return -1
			case av > bv:
				return 1
			}
			return 0
		}
	}
	as, bs := fmt.Sprint(a), fmt.Sprint(b)
	switch {
	case as < bs:
		return -1
	case as > bs:
		return 1
	}
	return 0
}

func copyRow(row Row) Row {
	out := make(Row, len(row))
	for k, v := range row {
		out[k] = v
	}
	return out
}
