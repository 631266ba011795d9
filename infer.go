package dataquery

import (
	"regexp"
	"strconv"
	"strings"
	"time"
)

// columnType represents the engine column type for a table column.
type columnType int

const (
	// columnTypeText maps to VARCHAR.
	columnTypeText columnType = iota
	// columnTypeInteger maps to BIGINT.
	columnTypeInteger
	// columnTypeReal maps to DOUBLE.
	columnTypeReal
	// columnTypeDatetime maps to TIMESTAMP.
	columnTypeDatetime
)

// sqlType returns the DuckDB type name for the column type.
func (ct columnType) sqlType() string {
	switch ct {
	case columnTypeInteger:
		return "BIGINT"
	case columnTypeReal:
		return "DOUBLE"
	case columnTypeDatetime:
		return "TIMESTAMP"
	default:
		return "VARCHAR"
	}
}

// isNumeric reports whether the column type is integer or real.
func (ct columnType) isNumeric() bool {
	return ct == columnTypeInteger || ct == columnTypeReal
}

// columnInfo pairs a column name with its inferred type.
type columnInfo struct {
	Name string
	Type columnType
}

// Type inference tuning.
const (
	// maxInferenceSample limits how many values are inspected per column.
	maxInferenceSample = 1000
	// minConfidence is the fraction of non-empty values that must match a
	// type before it is chosen over text.
	minConfidence = 0.8
)

// datetimePattern pairs a quick regex filter with the layouts it covers.
type datetimePattern struct {
	pattern *regexp.Regexp
	formats []string
}

var datetimePatterns = []datetimePattern{
	{
		regexp.MustCompile(`^\d{4}-\d{2}-\d{2}T\d{2}:\d{2}:\d{2}(\.\d+)?(Z|[+-]\d{2}:\d{2})$`),
		[]string{time.RFC3339, time.RFC3339Nano},
	},
	{
		regexp.MustCompile(`^\d{4}-\d{2}-\d{2}T\d{2}:\d{2}:\d{2}(\.\d+)?$`),
		[]string{"2006-01-02T15:04:05", "2006-01-02T15:04:05.000"},
	},
	{
		regexp.MustCompile(`^\d{4}-\d{2}-\d{2} \d{2}:\d{2}:\d{2}(\.\d+)?$`),
		[]string{"2006-01-02 15:04:05", "2006-01-02 15:04:05.000"},
	},
	{
		regexp.MustCompile(`^\d{4}-\d{2}-\d{2}$`),
		[]string{"2006-01-02"},
	},
}

// isDatetime reports whether a value parses as one of the supported datetime
// layouts.
func isDatetime(value string) bool {
	value = strings.TrimSpace(value)
	if len(value) < 8 || len(value) > 35 {
		return false
	}
	for _, dp := range datetimePatterns {
		if dp.pattern.MatchString(value) {
			for _, format := range dp.formats {
				if _, err := time.Parse(format, value); err == nil {
					return true
				}
			}
		}
	}
	return false
}

// isInteger reports whether a value parses as a signed 64-bit integer.
func isInteger(value string) bool {
	if len(value) == 0 {
		return false
	}
	first := value[0]
	if first != '+' && first != '-' && (first < '0' || first > '9') {
		return false
	}
	_, err := strconv.ParseInt(value, 10, 64)
	return err == nil
}

// isFloat reports whether a value parses as a 64-bit float.
func isFloat(value string) bool {
	hasDigit := false
	for _, r := range value {
		if r >= '0' && r <= '9' {
			hasDigit = true
			break
		}
	}
	if !hasDigit {
		return false
	}
	_, err := strconv.ParseFloat(value, 64)
	return err == nil
}

// classifyValue determines the type of a single value.
func classifyValue(value string) columnType {
	if isDatetime(value) {
		return columnTypeDatetime
	}
	if isInteger(value) {
		return columnTypeInteger
	}
	if isFloat(value) {
		return columnTypeReal
	}
	return columnTypeText
}

// inferColumnType infers the column type from a slice of string values.
// Empty values are skipped; any text value forces VARCHAR; mixed integers
// and reals widen to DOUBLE.
func inferColumnType(values []string) columnType {
	counts := map[columnType]int{}
	nonEmpty := 0

	for i, value := range values {
		if i >= maxInferenceSample {
			break
		}
		value = strings.TrimSpace(value)
		if value == "" {
			continue
		}
		nonEmpty++
		t := classifyValue(value)
		if t == columnTypeText {
			return columnTypeText
		}
		counts[t]++
	}

	if nonEmpty == 0 {
		return columnTypeText
	}

	if float64(counts[columnTypeDatetime])/float64(nonEmpty) >= minConfidence {
		return columnTypeDatetime
	}
	if counts[columnTypeDatetime] > 0 {
		// Mixed datetime and numeric values: fall back to text.
		return columnTypeText
	}
	if counts[columnTypeReal] > 0 {
		return columnTypeReal
	}
	if counts[columnTypeInteger] > 0 {
		return columnTypeInteger
	}
	return columnTypeText
}

// inferColumnsInfo infers column information from a header and data records.
func inferColumnsInfo(h header, records []Record) []columnInfo {
	if len(h) == 0 {
		return nil
	}

	columns := make([]columnInfo, len(h))
	for i, name := range h {
		columns[i] = columnInfo{Name: name, Type: columnTypeText}
	}
	if len(records) == 0 {
		return columns
	}

	for i := range h {
		values := make([]string, 0, len(records))
		for _, record := range records {
			if i < len(record) {
				values = append(values, record[i])
			}
		}
		columns[i].Type = inferColumnType(values)
	}
	return columns
}
