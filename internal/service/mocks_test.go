package service

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"

	"github.com/septivank/rnsync-vitals/internal/db"
	"github.com/septivank/rnsync-vitals/internal/repository"
)

var _ repository.Gateway = (*MockGateway)(nil)

// MockGateway is a function-field mock of repository.Gateway
type MockGateway struct {
	InsertFunc func(ctx context.Context, table string, row repository.Row) error
	SelectFunc func(ctx context.Context, table string, q repository.Query) ([]repository.Row, error)

	InsertCallCount int32
	SelectCallCount int32

	mu      sync.Mutex
	selects []selectCall
}

type selectCall struct {
	Table string
	Query repository.Query
}

func (m *MockGateway) Insert(ctx context.Context, table string, row repository.Row) error {
	atomic.AddInt32(&m.InsertCallCount, 1)
	if m.InsertFunc != nil {
		return m.InsertFunc(ctx, table, row)
	}
	return nil
}

func (m *MockGateway) Select(ctx context.Context, table string, q repository.Query) ([]repository.Row, error) {
	atomic.AddInt32(&m.SelectCallCount, 1)
	m.mu.Lock()
	m.selects = append(m.selects, selectCall{Table: table, Query: q})
	m.mu.Unlock()
	if m.SelectFunc != nil {
		return m.SelectFunc(ctx, table, q)
	}
	return nil, errors.New("SelectFunc not implemented in mock")
}

func (m *MockGateway) selectedTables() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	tables := make([]string, len(m.selects))
	for i, call := range m.selects {
		tables[i] = call.Table
	}
	return tables
}

// MockNotifier records notified readings
type MockNotifier struct {
	mu       sync.Mutex
	Readings []db.Reading
	Err      error
}

func (m *MockNotifier) NotifyReading(_ context.Context, reading db.Reading) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Readings = append(m.Readings, reading)
	return m.Err
}

// patientRows answers patient lookups for known ids and returns readings for
// everything else
func patientRows(known map[string]repository.Row, readings []repository.Row) func(context.Context, string, repository.Query) ([]repository.Row, error) {
	return func(_ context.Context, table string, q repository.Query) ([]repository.Row, error) {
		switch table {
		case db.TablePatients:
			for _, f := range q.Filters {
				if f.Column == "id" {
					if row, ok := known[f.Value]; ok {
						return []repository.Row{row}, nil
					}
					return []repository.Row{}, nil
				}
			}
			rows := []repository.Row{}
			for _, row := range known {
				rows = append(rows, row)
			}
			return rows, nil
		default:
			return readings, nil
		}
	}
}
