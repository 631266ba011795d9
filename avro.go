package dataquery

import (
	"bytes"
	"encoding/json"
	"fmt"
	"regexp"
	"strconv"

	"github.com/hamba/avro/v2"
	"github.com/hamba/avro/v2/ocf"
)

// avroName matches a valid Avro field name.
var avroName = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// avroBranchNames are the primitive type names a nullable union decodes under
// when the target is an untyped map.
var avroBranchNames = map[string]bool{
	"boolean": true, "int": true, "long": true,
	"float": true, "double": true, "string": true, "bytes": true,
}

// readAvroFormat reads an Avro object container file as a single dataset.
// Column order comes from the writer schema; null union values decode to
// empty strings, so numeric columns tolerate missing values.
func readAvroFormat(data []byte, _ LoadOptions) ([]sheetTable, error) {
	if len(data) == 0 {
		return nil, ErrEmptyData
	}

	dec, err := ocf.NewDecoder(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("cannot open avro container: %w", err)
	}

	schemaJSON, ok := dec.Metadata()["avro.schema"]
	if !ok {
		return nil, fmt.Errorf("avro container has no schema")
	}
	schema, err := avro.Parse(string(schemaJSON))
	if err != nil {
		return nil, fmt.Errorf("cannot parse avro schema: %w", err)
	}
	record, ok := schema.(*avro.RecordSchema)
	if !ok {
		return nil, fmt.Errorf("avro root schema is %s, want record", schema.Type())
	}

	h := make(header, len(record.Fields()))
	for i, field := range record.Fields() {
		h[i] = field.Name()
	}

	var records []Record
	for dec.HasNext() {
		var row map[string]any
		if err := dec.Decode(&row); err != nil {
			return nil, fmt.Errorf("cannot decode avro record: %w", err)
		}
		rec := make(Record, len(h))
		for i, name := range h {
			rec[i] = avroValueString(row[name])
		}
		records = append(records, rec)
	}
	if err := dec.Error(); err != nil {
		return nil, fmt.Errorf("cannot read avro container: %w", err)
	}

	return []sheetTable{{table: newTable(h, records)}}, nil
}

// avroValueString renders one decoded Avro value as a string. Nullable union
// values decoded as single-entry branch maps are unwrapped first.
func avroValueString(value any) string {
	if m, ok := value.(map[string]any); ok && len(m) == 1 {
		for branch, inner := range m {
			if avroBranchNames[branch] {
				value = inner
			}
		}
	}

	switch v := value.(type) {
	case nil:
		return ""
	case string:
		return v
	case []byte:
		return string(v)
	case bool:
		return strconv.FormatBool(v)
	case int32:
		return strconv.FormatInt(int64(v), 10)
	case int64:
		return strconv.FormatInt(v, 10)
	case float32:
		return strconv.FormatFloat(float64(v), 'g', -1, 32)
	case float64:
		return strconv.FormatFloat(v, 'g', -1, 64)
	default:
		// Nested records and arrays keep their JSON rendering.
		encoded, err := json.Marshal(v)
		if err != nil {
			return fmt.Sprintf("%v", v)
		}
		return string(encoded)
	}
}

// writeAvro renders columns and rows as an Avro object container file. Every
// field is a nullable union so missing values survive the roundtrip.
func writeAvro(columns []string, rows [][]string) ([]byte, error) {
	infos := resultColumnInfo(columns, rows)

	type avroField struct {
		Name string `json:"name"`
		Type []any  `json:"type"`
	}
	fields := make([]avroField, len(infos))
	for i, info := range infos {
		if !avroName.MatchString(info.Name) {
			return nil, fmt.Errorf("column %q is not a valid avro field name", info.Name)
		}
		fields[i] = avroField{Name: info.Name, Type: []any{"null", avroPrimitive(info.Type)}}
	}
	schemaJSON, err := json.Marshal(map[string]any{
		"type":   "record",
		"name":   "query_result",
		"fields": fields,
	})
	if err != nil {
		return nil, fmt.Errorf("cannot build avro schema: %w", err)
	}

	var buf bytes.Buffer
	enc, err := ocf.NewEncoder(string(schemaJSON), &buf)
	if err != nil {
		return nil, fmt.Errorf("cannot create avro encoder: %w", err)
	}

	for _, row := range rows {
		record := make(map[string]any, len(infos))
		for i, info := range infos {
			value := ""
			if i < len(row) {
				value = row[i]
			}
			typed, err := avroTypedValue(info.Type, value)
			if err != nil {
				return nil, err
			}
			record[info.Name] = typed
		}
		if err := enc.Encode(record); err != nil {
			return nil, fmt.Errorf("cannot encode avro record: %w", err)
		}
	}

	if err := enc.Close(); err != nil {
		return nil, fmt.Errorf("cannot finish avro container: %w", err)
	}
	return buf.Bytes(), nil
}

// avroPrimitive maps an inferred column type to its Avro primitive name.
func avroPrimitive(ct columnType) string {
	switch ct {
	case columnTypeInteger:
		return "long"
	case columnTypeReal:
		return "double"
	default:
		return "string"
	}
}

// avroTypedValue converts a string cell to the pointer value hamba expects
// for a nullable union; empty non-text cells become null.
func avroTypedValue(ct columnType, value string) (any, error) {
	if value == "" && ct.isNumeric() {
		return nil, nil
	}
	switch ct {
	case columnTypeInteger:
		n, err := strconv.ParseInt(value, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("cannot encode %q as long: %w", value, err)
		}
		return &n, nil
	case columnTypeReal:
		f, err := strconv.ParseFloat(value, 64)
		if err != nil {
			return nil, fmt.Errorf("cannot encode %q as double: %w", value, err)
		}
		return &f, nil
	default:
		return &value, nil
	}
}
