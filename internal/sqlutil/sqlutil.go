// Package sqlutil holds small database/sql helpers for the history store.
package sqlutil

import (
	"database/sql"
	"strings"
)

// InClauseArgs returns "?, ?, ..." for items and the matching args.
// With no items it returns "NULL", so `IN (NULL)` matches nothing.
func InClauseArgs(items []string) (string, []any) {
	if len(items) == 0 {
		return "NULL", nil
	}
	ph := make([]string, len(items))
	args := make([]any, len(items))
	for i, item := range items {
		ph[i] = "?"
		args[i] = item
	}
	return strings.Join(ph, ", "), args
}

// ScanRows reads every row with scan and closes rows.
func ScanRows[T any](rows *sql.Rows, scan func(*sql.Rows) (T, error)) ([]T, error) {
	defer rows.Close()

	var out []T
	for rows.Next() {
		item, err := scan(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, item)
	}
	return out, rows.Err()
}
