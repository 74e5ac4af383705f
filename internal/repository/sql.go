package repository

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
)

// dialect captures the placeholder style of a SQL backend
type dialect struct {
	placeholder func(n int) string
}

var (
	postgresDialect = dialect{placeholder: func(n int) string { return "$" + strconv.Itoa(n) }}
	sqliteDialect   = dialect{placeholder: func(int) string { return "?" }}
)

func quoteIdent(name string) string {
	return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
}

func (d dialect) buildSelect(table string, q Query) (string, []any, error) {
	order, err := ParseOrder(q.Order)
	if err != nil {
		return "", nil, err
	}

	var b strings.Builder
	args := make([]any, 0, len(q.Filters))

	fmt.Fprintf(&b, "SELECT * FROM %s", quoteIdent(table))
	for i, f := range q.Filters {
		if i == 0 {
			b.WriteString(" WHERE ")
		} else {
			b.WriteString(" AND ")
		}
		args = append(args, f.Value)
		fmt.Fprintf(&b, "%s = %s", quoteIdent(f.Column), d.placeholder(len(args)))
	}
	if order.Column != "" {
		fmt.Fprintf(&b, " ORDER BY %s", quoteIdent(order.Column))
		if order.Desc {
			b.WriteString(" DESC")
		} else {
			b.WriteString(" ASC")
		}
	}
	if q.Limit > 0 {
		fmt.Fprintf(&b, " LIMIT %d", q.Limit)
	}
	return b.String(), args, nil
}

func (d dialect) buildInsert(table string, row Row) (string, []any, error) {
	if len(row) == 0 {
		return "", nil, fmt.Errorf("empty row for table %s", table)
	}

	columns := make([]string, 0, len(row))
	for column := range row {
		columns = append(columns, column)
	}
	sort.Strings(columns)

	quoted := make([]string, len(columns))
	placeholders := make([]string, len(columns))
	args := make([]any, len(columns))
	for i, column := range columns {
		quoted[i] = quoteIdent(column)
		placeholders[i] = d.placeholder(i + 1)
		args[i] = row[column]
	}

	query := fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s)",
		quoteIdent(table), strings.Join(quoted, ", "), strings.Join(placeholders, ", "))
	return query, args, nil
}
