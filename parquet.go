package dataquery

import (
	"bytes"
	"context"
	"fmt"
	"strconv"

	"github.com/apache/arrow/go/v18/arrow"
	"github.com/apache/arrow/go/v18/arrow/array"
	"github.com/apache/arrow/go/v18/arrow/memory"
	"github.com/apache/arrow/go/v18/parquet"
	pqfile "github.com/apache/arrow/go/v18/parquet/file"
	"github.com/apache/arrow/go/v18/parquet/pqarrow"
)

// readParquetFormat reads a Parquet payload as a single dataset. Column names
// and types come from the file schema; a file with zero rows still yields a
// zero-row table with the schema's columns.
func readParquetFormat(data []byte, _ LoadOptions) ([]sheetTable, error) {
	if len(data) == 0 {
		return nil, ErrEmptyData
	}

	pqReader, err := pqfile.NewParquetReader(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("cannot open parquet data: %w", err)
	}
	defer pqReader.Close()

	arrowReader, err := pqarrow.NewFileReader(pqReader, pqarrow.ArrowReadProperties{}, nil)
	if err != nil {
		return nil, fmt.Errorf("cannot read parquet schema: %w", err)
	}

	arrowTable, err := arrowReader.ReadTable(context.Background())
	if err != nil {
		return nil, fmt.Errorf("cannot read parquet table: %w", err)
	}
	defer arrowTable.Release()

	schema := arrowTable.Schema()
	h := make(header, schema.NumFields())
	for i, field := range schema.Fields() {
		h[i] = field.Name
	}

	var records []Record
	tableReader := array.NewTableReader(arrowTable, 0)
	defer tableReader.Release()
	for tableReader.Next() {
		batch := tableReader.Record()
		for i := range int(batch.NumRows()) {
			row := make(Record, batch.NumCols())
			for j, col := range batch.Columns() {
				row[j] = arrowValueString(col, i)
			}
			records = append(records, row)
		}
	}
	if err := tableReader.Err(); err != nil {
		return nil, fmt.Errorf("cannot read parquet records: %w", err)
	}

	return []sheetTable{{table: newTable(h, records)}}, nil
}

// arrowValueString renders one arrow array element as a string; nulls become
// empty strings and are restored to NULL at registration time.
func arrowValueString(col arrow.Array, i int) string {
	if col.IsNull(i) {
		return ""
	}
	return col.ValueStr(i)
}

// writeParquet renders columns and rows as a Parquet file in memory. Column
// types are re-inferred from the string values; empty strings in non-text
// columns become nulls. The row index is never included.
func writeParquet(columns []string, rows [][]string) ([]byte, error) {
	infos := resultColumnInfo(columns, rows)

	fields := make([]arrow.Field, len(infos))
	for i, info := range infos {
		fields[i] = arrow.Field{Name: info.Name, Type: arrowType(info.Type), Nullable: true}
	}
	schema := arrow.NewSchema(fields, nil)

	builder := array.NewRecordBuilder(memory.DefaultAllocator, schema)
	defer builder.Release()

	for _, row := range rows {
		for i, info := range infos {
			value := ""
			if i < len(row) {
				value = row[i]
			}
			if err := appendArrowValue(builder.Field(i), info.Type, value); err != nil {
				return nil, err
			}
		}
	}

	record := builder.NewRecord()
	defer record.Release()

	arrowTable := array.NewTableFromRecords(schema, []arrow.Record{record})
	defer arrowTable.Release()

	var buf bytes.Buffer
	if err := pqarrow.WriteTable(
		arrowTable, &buf, int64(len(rows)+1),
		parquet.NewWriterProperties(), pqarrow.DefaultWriterProps(),
	); err != nil {
		return nil, fmt.Errorf("cannot write parquet: %w", err)
	}
	return buf.Bytes(), nil
}

// arrowType maps an inferred column type to its arrow data type. Datetimes
// export as strings to keep the roundtrip lossless.
func arrowType(ct columnType) arrow.DataType {
	switch ct {
	case columnTypeInteger:
		return arrow.PrimitiveTypes.Int64
	case columnTypeReal:
		return arrow.PrimitiveTypes.Float64
	default:
		return arrow.BinaryTypes.String
	}
}

// appendArrowValue appends one string value to the matching typed builder.
func appendArrowValue(fieldBuilder array.Builder, ct columnType, value string) error {
	if value == "" && ct.isNumeric() {
		fieldBuilder.AppendNull()
		return nil
	}
	switch b := fieldBuilder.(type) {
	case *array.Int64Builder:
		n, err := strconv.ParseInt(value, 10, 64)
		if err != nil {
			return fmt.Errorf("cannot encode %q as integer: %w", value, err)
		}
		b.Append(n)
	case *array.Float64Builder:
		f, err := strconv.ParseFloat(value, 64)
		if err != nil {
			return fmt.Errorf("cannot encode %q as float: %w", value, err)
		}
		b.Append(f)
	case *array.StringBuilder:
		b.Append(value)
	default:
		return fmt.Errorf("unsupported arrow builder %T", fieldBuilder)
	}
	return nil
}

// resultColumnInfo infers column types for an exported result.
func resultColumnInfo(columns []string, rows [][]string) []columnInfo {
	records := make([]Record, len(rows))
	for i, row := range rows {
		records[i] = Record(row)
	}
	return inferColumnsInfo(newHeader(columns), records)
}
