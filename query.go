package dataquery

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"
)

// QueryErrorKind classifies a failed query for user-facing handling.
type QueryErrorKind int

const (
	// QueryErrorOther is any failure without a more specific kind.
	QueryErrorOther QueryErrorKind = iota
	// QueryErrorUnknownTable means the query referenced a table that does
	// not exist in the engine.
	QueryErrorUnknownTable
	// QueryErrorIllegalMutation means the query tried to update something
	// that is not a base table.
	QueryErrorIllegalMutation
)

// QueryError wraps an engine error with its classification.
type QueryError struct {
	Kind QueryErrorKind
	Err  error
}

func (e *QueryError) Error() string { return e.Err.Error() }

func (e *QueryError) Unwrap() error { return e.Err }

// Message returns the text to show the user for this failure.
func (e *QueryError) Message() string {
	switch e.Kind {
	case QueryErrorUnknownTable:
		return "Table not existing. Please check table names in your query."
	case QueryErrorIllegalMutation:
		return "Update not available. Please consider a different select statement and the edit mode."
	default:
		return "Error executing query: " + e.Err.Error()
	}
}

// classifyQueryError maps an engine error onto a QueryError by inspecting the
// engine's message text.
func classifyQueryError(err error) *QueryError {
	text := err.Error()
	switch {
	case strings.Contains(text, "Catalog Error") && strings.Contains(text, "Table with name"):
		return &QueryError{Kind: QueryErrorUnknownTable, Err: err}
	case strings.Contains(text, "Can only update base table"):
		return &QueryError{Kind: QueryErrorIllegalMutation, Err: err}
	default:
		return &QueryError{Kind: QueryErrorOther, Err: err}
	}
}

// QueryResult holds a query's output as display strings. NULL values render
// as empty strings.
type QueryResult struct {
	Columns []string
	Rows    [][]string
}

// RowCount returns the number of result rows.
func (r *QueryResult) RowCount() int { return len(r.Rows) }

// DisplayIndex returns the 1-based row number shown alongside row i.
func (r *QueryResult) DisplayIndex(i int) int { return i + 1 }

// Executor runs ad-hoc SQL against the engine.
type Executor struct {
	db     *sql.DB
	logger *slog.Logger
}

// NewExecutor creates an executor over an open engine connection.
func NewExecutor(db *sql.DB, logger *slog.Logger) *Executor {
	if logger == nil {
		logger = slog.Default()
	}
	return &Executor{db: db, logger: logger}
}

// Query runs one SQL statement and collects its result. Statements without a
// result set yield an empty result. Failures come back as *QueryError.
func (e *Executor) Query(ctx context.Context, query string) (*QueryResult, error) {
	rows, err := e.db.QueryContext(ctx, query)
	if err != nil {
		qerr := classifyQueryError(err)
		e.logger.Warn("query failed", "kind", qerr.Kind, "error", err)
		return nil, qerr
	}
	defer rows.Close()

	columns, err := rows.Columns()
	if err != nil {
		return nil, classifyQueryError(err)
	}

	result := &QueryResult{Columns: columns}
	if len(columns) == 0 {
		return result, nil
	}

	values := make([]any, len(columns))
	scanTargets := make([]any, len(columns))
	for i := range values {
		scanTargets[i] = &values[i]
	}
	for rows.Next() {
		if err := rows.Scan(scanTargets...); err != nil {
			return nil, classifyQueryError(err)
		}
		row := make([]string, len(columns))
		for i, value := range values {
			row[i] = formatSQLValue(value)
		}
		result.Rows = append(result.Rows, row)
	}
	if err := rows.Err(); err != nil {
		return nil, classifyQueryError(err)
	}
	return result, nil
}

// formatSQLValue renders one scanned value as a display string.
func formatSQLValue(value any) string {
	switch v := value.(type) {
	case nil:
		return ""
	case string:
		return v
	case []byte:
		return string(v)
	case bool:
		return strconv.FormatBool(v)
	case int64:
		return strconv.FormatInt(v, 10)
	case int32:
		return strconv.FormatInt(int64(v), 10)
	case float64:
		return strconv.FormatFloat(v, 'g', -1, 64)
	case float32:
		return strconv.FormatFloat(float64(v), 'g', -1, 32)
	case time.Time:
		return v.Format("2006-01-02 15:04:05")
	default:
		return fmt.Sprintf("%v", v)
	}
}
