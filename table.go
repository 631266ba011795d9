package dataquery

import (
	"fmt"
	"strings"
)

// header is the ordered list of column names of a table.
type header []string

// newHeader creates a new header.
func newHeader(h []string) header {
	return header(h)
}

// equal compares headers.
func (h header) equal(h2 header) bool {
	if len(h) != len(h2) {
		return false
	}
	for i, v := range h {
		if v != h2[i] {
			return false
		}
	}
	return true
}

// Record represents one table row as a slice of string fields. An empty
// string in a non-text column is treated as NULL at registration time.
type Record []string

// newRecord creates a new record.
func newRecord(r []string) Record {
	return Record(r)
}

// equal compares records.
func (r Record) equal(r2 Record) bool {
	if len(r) != len(r2) {
		return false
	}
	for i, v := range r {
		if v != r2[i] {
			return false
		}
	}
	return true
}

// table holds a parsed dataset before it is registered in the backing engine.
type table struct {
	header     header
	records    []Record
	columnInfo []columnInfo
}

// newTable creates a table, inferring column types from the data.
func newTable(h header, records []Record) *table {
	return &table{
		header:     h,
		records:    records,
		columnInfo: inferColumnsInfo(h, records),
	}
}

// positionalHeader builds the col_1..col_N names used when no header row is
// present. Column numbering is 1-indexed.
func positionalHeader(n int) header {
	h := make(header, n)
	for i := range h {
		h[i] = fmt.Sprintf("col_%d", i+1)
	}
	return h
}

// validateColumnNames rejects duplicate column names. Comparison ignores
// surrounding whitespace but is otherwise case-sensitive.
func validateColumnNames(columns []string) error {
	seen := make(map[string]bool, len(columns))
	for _, col := range columns {
		trimmed := strings.TrimSpace(col)
		if seen[trimmed] {
			return fmt.Errorf("%w: %s", ErrDuplicateColumnName, col)
		}
		seen[trimmed] = true
	}
	return nil
}

// sheetTable pairs a parsed table with its sheet label. Single-dataset formats
// produce one sheetTable with an empty label; each xlsx sheet produces its own.
type sheetTable struct {
	sheet string
	table *table
}
