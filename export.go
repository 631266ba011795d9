package dataquery

import (
	"errors"
	"fmt"
	"strconv"

	"github.com/xuri/excelize/v2"
)

// ExportErrorKind classifies a failed export for user-facing handling.
type ExportErrorKind int

const (
	// ExportErrorUnavailable means the result cannot be rendered in the
	// requested format.
	ExportErrorUnavailable ExportErrorKind = iota
	// ExportErrorQuotingConflict means a text export hit a special
	// character that the chosen quoting mode cannot represent.
	ExportErrorQuotingConflict
)

// ExportError wraps an export failure with its classification.
type ExportError struct {
	Kind   ExportErrorKind
	Format FileFormat
	Err    error
}

func (e *ExportError) Error() string { return e.Err.Error() }

func (e *ExportError) Unwrap() error { return e.Err }

// Message returns the text to show the user for this failure.
func (e *ExportError) Message() string {
	if e.Kind == ExportErrorQuotingConflict {
		return "Special character found in the data. Please select a different quoting option."
	}
	return fmt.Sprintf("%s export not available for your data. Please select a different format.", e.Format)
}

// ExportFileName returns the download name for an exported result,
// query_result plus the format's extension.
func ExportFileName(format FileFormat) string {
	return "query_result" + format.Extension()
}

// Exporter renders query results as downloadable files. Every call builds a
// fresh payload, so repeated exports of the same result never accumulate.
type Exporter struct{}

// NewExporter creates an exporter.
func NewExporter() *Exporter { return &Exporter{} }

// Export renders a result in the requested format. Text options apply to csv
// and txt only. Failures come back as *ExportError.
func (e *Exporter) Export(result *QueryResult, format FileFormat, opts ExportOptions) ([]byte, error) {
	if result == nil {
		return nil, ErrNoResult
	}
	if !format.IsExportable() {
		return nil, &ExportError{Kind: ExportErrorUnavailable, Format: format, Err: ErrUnsupportedFormat}
	}

	var payload []byte
	var err error
	switch format {
	case FormatCSV, FormatTXT:
		payload, err = writeDelimited(result.Columns, result.Rows, opts.Text)
	case FormatXLSX:
		payload, err = writeXLSX(result.Columns, result.Rows, opts.Text.HasHeader)
	case FormatParquet:
		payload, err = writeParquet(result.Columns, result.Rows)
	case FormatAvro:
		payload, err = writeAvro(result.Columns, result.Rows)
	case FormatJSON:
		payload, err = writeJSON(result.Columns, result.Rows)
	case FormatXML:
		payload, err = writeXML(result.Columns, result.Rows)
	default:
		err = ErrUnsupportedFormat
	}
	if err != nil {
		if errors.Is(err, ErrQuoteConflict) {
			return nil, &ExportError{Kind: ExportErrorQuotingConflict, Format: format, Err: err}
		}
		return nil, &ExportError{Kind: ExportErrorUnavailable, Format: format, Err: err}
	}
	return payload, nil
}

// writeXLSX renders columns and rows as a single-sheet workbook. Numeric
// columns export as typed cells so spreadsheet tools treat them as numbers.
func writeXLSX(columns []string, rows [][]string, includeHeader bool) ([]byte, error) {
	infos := resultColumnInfo(columns, rows)

	workbook := excelize.NewFile()
	defer workbook.Close()
	sheet := workbook.GetSheetName(0)

	nextRow := 1
	if includeHeader {
		headerCells := make([]any, len(columns))
		for i, column := range columns {
			headerCells[i] = column
		}
		if err := workbook.SetSheetRow(sheet, "A1", &headerCells); err != nil {
			return nil, fmt.Errorf("cannot write header row: %w", err)
		}
		nextRow = 2
	}

	for r, row := range rows {
		cells := make([]any, len(infos))
		for i, info := range infos {
			value := ""
			if i < len(row) {
				value = row[i]
			}
			cells[i] = xlsxCellValue(info.Type, value)
		}
		cellRef, err := excelize.CoordinatesToCellName(1, nextRow+r)
		if err != nil {
			return nil, fmt.Errorf("cannot address row %d: %w", nextRow+r, err)
		}
		if err := workbook.SetSheetRow(sheet, cellRef, &cells); err != nil {
			return nil, fmt.Errorf("cannot write row %d: %w", nextRow+r, err)
		}
	}

	buf, err := workbook.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("cannot write workbook: %w", err)
	}
	return buf.Bytes(), nil
}

// xlsxCellValue converts a string cell to a typed spreadsheet value. Empty
// numeric cells stay empty; unparsable values fall back to their text.
func xlsxCellValue(ct columnType, value string) any {
	if value == "" {
		return nil
	}
	switch ct {
	case columnTypeInteger:
		if n, err := strconv.ParseInt(value, 10, 64); err == nil {
			return n
		}
	case columnTypeReal:
		if f, err := strconv.ParseFloat(value, 64); err == nil {
			return f
		}
	}
	return value
}
