package dataquery

import (
	"bytes"
	"fmt"

	"github.com/xuri/excelize/v2"
)

// formatReader turns raw bytes plus load options into one or more datasets.
// Single-dataset formats return one sheetTable with an empty sheet label;
// xlsx returns one per sheet.
type formatReader func(data []byte, opts LoadOptions) ([]sheetTable, error)

// formatReaders maps each ingestable format to its reader. Zip is a container
// handled by the pipeline, not a reader.
var formatReaders = map[FileFormat]formatReader{
	FormatCSV:     readTextFormat,
	FormatTXT:     readTextFormat,
	FormatXLSX:    readXLSXFormat,
	FormatParquet: readParquetFormat,
	FormatAvro:    readAvroFormat,
	FormatJSON:    readJSONFormat,
	FormatXML:     readXMLFormat,
}

// readTextFormat parses delimited text as a single dataset.
func readTextFormat(data []byte, opts LoadOptions) ([]sheetTable, error) {
	tbl, err := readDelimited(data, opts.Text)
	if err != nil {
		return nil, err
	}
	return []sheetTable{{table: tbl}}, nil
}

// readXLSXFormat parses every sheet of a workbook into its own dataset.
// A sheet that cannot be read does not prevent sibling sheets from loading;
// only a workbook that fails to open at all fails the whole unit.
func readXLSXFormat(data []byte, opts LoadOptions) ([]sheetTable, error) {
	workbook, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("cannot open workbook: %w", err)
	}
	defer workbook.Close()

	sheetNames := workbook.GetSheetList()
	if len(sheetNames) == 0 {
		return nil, ErrEmptyData
	}

	var tables []sheetTable
	var firstErr error
	for _, sheet := range sheetNames {
		rows, err := workbook.GetRows(sheet)
		if err != nil {
			if firstErr == nil {
				firstErr = fmt.Errorf("sheet %s: %w", sheet, err)
			}
			continue
		}
		if len(rows) == 0 {
			if firstErr == nil {
				firstErr = fmt.Errorf("sheet %s: %w", sheet, ErrEmptyData)
			}
			continue
		}

		tbl, err := sheetToTable(rows, opts.Sheets.headerFor(sheet))
		if err != nil {
			if firstErr == nil {
				firstErr = fmt.Errorf("sheet %s: %w", sheet, err)
			}
			continue
		}
		tables = append(tables, sheetTable{sheet: sheet, table: tbl})
	}

	if len(tables) == 0 {
		if firstErr != nil {
			return nil, firstErr
		}
		return nil, ErrEmptyData
	}
	return tables, nil
}

// sheetToTable converts raw sheet rows into a table. Short rows are padded
// with empty strings to the header width.
func sheetToTable(rows [][]string, hasHeader bool) (*table, error) {
	width := 0
	for _, row := range rows {
		if len(row) > width {
			width = len(row)
		}
	}
	if width == 0 {
		return nil, ErrEmptyData
	}

	pad := func(row []string) Record {
		record := make(Record, width)
		for i := range record {
			if i < len(row) {
				record[i] = row[i]
			}
		}
		return record
	}

	var h header
	var records []Record
	if hasHeader {
		h = newHeader(pad(rows[0]))
		if err := validateColumnNames(h); err != nil {
			return nil, err
		}
		for _, row := range rows[1:] {
			records = append(records, pad(row))
		}
	} else {
		h = positionalHeader(width)
		for _, row := range rows {
			records = append(records, pad(row))
		}
	}
	return newTable(h, records), nil
}

// listSheets returns the sheet names of a workbook so the pipeline can ask
// the options collaborator for per-sheet header flags before parsing.
func listSheets(data []byte) ([]string, error) {
	workbook, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("cannot open workbook: %w", err)
	}
	defer workbook.Close()
	return workbook.GetSheetList(), nil
}
