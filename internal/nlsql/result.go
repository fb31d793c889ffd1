package nlsql

// QueryResult is the outcome of executing one statement. Rows hold raw driver
// values in column order; JSON-safety is the formatter's job. Consumed once
// per turn, never persisted.
type QueryResult struct {
	Columns []string
	Rows    [][]any
}

func (r *QueryResult) RowCount() int {
	return len(r.Rows)
}

func (r *QueryResult) ColumnCount() int {
	return len(r.Columns)
}

func (r *QueryResult) Empty() bool {
	return r == nil || len(r.Rows) == 0
}
