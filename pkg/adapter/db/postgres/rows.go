package postgres

import (
	"database/sql"
	"fmt"
)

// rowsAdapter adapts sql.Rows to the repo.Rows interface.
type rowsAdapter struct {
	*sql.Rows
}

func (ra rowsAdapter) Close() {
	// returned error may be checked by calling the Err() method
	_ = ra.Rows.Close()
}

// Values scans the current row into a slice having one item per
// column.
func (ra rowsAdapter) Values() ([]any, error) {
	cols, err := ra.Columns()
	if err != nil {
		return nil, fmt.Errorf("column-names: %w", err)
	}
	vals := make([]any, len(cols))
	dest := make([]any, len(cols))
	for i := range vals {
		dest[i] = &vals[i]
	}
	if err = ra.Scan(dest...); err != nil {
		return nil, fmt.Errorf("scanning %d columns: %w", len(cols), err)
	}
	return vals, nil
}
