package dataquery

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
)

// jsonField is one key of a decoded JSON object, kept in document order.
// encoding/json maps lose key order, so objects are decoded token by token.
type jsonField struct {
	key   string
	value any
}

// readJSONFormat reads a JSON payload as a single dataset. The payload may be
// an array of objects or a single object; nested objects flatten into dotted
// column paths and nested arrays keep their JSON rendering. Column order
// follows first appearance in the document.
func readJSONFormat(data []byte, _ LoadOptions) ([]sheetTable, error) {
	if len(bytes.TrimSpace(data)) == 0 {
		return nil, ErrEmptyData
	}

	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	root, err := decodeJSONValue(dec)
	if err != nil {
		return nil, fmt.Errorf("cannot parse json: %w", err)
	}

	var elements []any
	switch v := root.(type) {
	case []any:
		elements = v
	case []jsonField:
		elements = []any{v}
	default:
		return nil, fmt.Errorf("json root is a scalar, want object or array")
	}
	if len(elements) == 0 {
		return nil, ErrEmptyData
	}

	var h header
	seen := map[string]int{}
	rows := make([]map[string]string, 0, len(elements))
	for _, element := range elements {
		object, ok := element.([]jsonField)
		if !ok {
			// An array of scalars becomes a single unnamed column.
			object = []jsonField{{key: "value", value: element}}
		}
		row := map[string]string{}
		flattenJSON("", object, func(path, value string) {
			if _, ok := seen[path]; !ok {
				seen[path] = len(h)
				h = append(h, path)
			}
			row[path] = value
		})
		rows = append(rows, row)
	}
	if err := validateColumnNames(h); err != nil {
		return nil, err
	}

	records := make([]Record, len(rows))
	for i, row := range rows {
		rec := make(Record, len(h))
		for j, name := range h {
			rec[j] = row[name]
		}
		records[i] = rec
	}

	return []sheetTable{{table: newTable(h, records)}}, nil
}

// decodeJSONValue decodes one JSON value, preserving object key order.
func decodeJSONValue(dec *json.Decoder) (any, error) {
	tok, err := dec.Token()
	if err != nil {
		return nil, err
	}
	return decodeJSONFrom(dec, tok)
}

func decodeJSONFrom(dec *json.Decoder, tok json.Token) (any, error) {
	delim, ok := tok.(json.Delim)
	if !ok {
		return tok, nil
	}

	switch delim {
	case '{':
		var fields []jsonField
		for dec.More() {
			keyTok, err := dec.Token()
			if err != nil {
				return nil, err
			}
			key, ok := keyTok.(string)
			if !ok {
				return nil, fmt.Errorf("object key is %v, want string", keyTok)
			}
			value, err := decodeJSONValue(dec)
			if err != nil {
				return nil, err
			}
			fields = append(fields, jsonField{key: key, value: value})
		}
		if _, err := dec.Token(); err != nil { // closing brace
			return nil, err
		}
		return fields, nil
	case '[':
		var elements []any
		for dec.More() {
			value, err := decodeJSONValue(dec)
			if err != nil {
				return nil, err
			}
			elements = append(elements, value)
		}
		if _, err := dec.Token(); err != nil { // closing bracket
			return nil, err
		}
		return elements, nil
	default:
		return nil, fmt.Errorf("unexpected delimiter %v", delim)
	}
}

// flattenJSON walks a decoded object and emits one (path, value) pair per
// leaf. Nested objects extend the path with a dot; everything else is a leaf.
func flattenJSON(prefix string, fields []jsonField, emit func(path, value string)) {
	for _, field := range fields {
		path := field.key
		if prefix != "" {
			path = prefix + "." + field.key
		}
		if nested, ok := field.value.([]jsonField); ok {
			flattenJSON(path, nested, emit)
			continue
		}
		emit(path, jsonLeafString(field.value))
	}
}

// jsonLeafString renders a leaf value as a string. Numbers keep their source
// text; arrays keep their JSON rendering.
func jsonLeafString(value any) string {
	switch v := value.(type) {
	case nil:
		return ""
	case string:
		return v
	case bool:
		return strconv.FormatBool(v)
	case json.Number:
		return v.String()
	case []any:
		return renderJSONArray(v)
	default:
		return fmt.Sprintf("%v", v)
	}
}

// renderJSONArray re-marshals a decoded array, restoring ordered objects so
// the rendering matches the source structure.
func renderJSONArray(elements []any) string {
	var buf bytes.Buffer
	writeJSONValue(&buf, elements)
	return buf.String()
}

func writeJSONValue(buf *bytes.Buffer, value any) {
	switch v := value.(type) {
	case []jsonField:
		buf.WriteByte('{')
		for i, field := range v {
			if i > 0 {
				buf.WriteByte(',')
			}
			writeJSONString(buf, field.key)
			buf.WriteByte(':')
			writeJSONValue(buf, field.value)
		}
		buf.WriteByte('}')
	case []any:
		buf.WriteByte('[')
		for i, element := range v {
			if i > 0 {
				buf.WriteByte(',')
			}
			writeJSONValue(buf, element)
		}
		buf.WriteByte(']')
	case json.Number:
		buf.WriteString(v.String())
	case string:
		writeJSONString(buf, v)
	case bool:
		buf.WriteString(strconv.FormatBool(v))
	case nil:
		buf.WriteString("null")
	default:
		encoded, err := json.Marshal(v)
		if err != nil {
			buf.WriteString("null")
			return
		}
		buf.Write(encoded)
	}
}

func writeJSONString(buf *bytes.Buffer, s string) {
	encoded, err := json.Marshal(s)
	if err != nil {
		buf.WriteString(`""`)
		return
	}
	buf.Write(encoded)
}

// writeJSON renders columns and rows as a record-oriented JSON array. Column
// types are re-inferred so numeric values export as numbers; empty values in
// numeric columns become null.
func writeJSON(columns []string, rows [][]string) ([]byte, error) {
	infos := resultColumnInfo(columns, rows)

	var buf bytes.Buffer
	buf.WriteByte('[')
	for r, row := range rows {
		if r > 0 {
			buf.WriteByte(',')
		}
		buf.WriteByte('{')
		for i, info := range infos {
			if i > 0 {
				buf.WriteByte(',')
			}
			writeJSONString(&buf, info.Name)
			buf.WriteByte(':')
			value := ""
			if i < len(row) {
				value = row[i]
			}
			if err := writeJSONCell(&buf, info.Type, value); err != nil {
				return nil, err
			}
		}
		buf.WriteByte('}')
	}
	buf.WriteByte(']')
	return buf.Bytes(), nil
}

// writeJSONCell writes a single exported cell using the inferred column type.
func writeJSONCell(buf *bytes.Buffer, ct columnType, value string) error {
	if value == "" && ct.isNumeric() {
		buf.WriteString("null")
		return nil
	}
	switch ct {
	case columnTypeInteger:
		if _, err := strconv.ParseInt(value, 10, 64); err != nil {
			return fmt.Errorf("cannot encode %q as integer: %w", value, err)
		}
		buf.WriteString(value)
	case columnTypeReal:
		if _, err := strconv.ParseFloat(value, 64); err != nil {
			return fmt.Errorf("cannot encode %q as float: %w", value, err)
		}
		buf.WriteString(value)
	default:
		writeJSONString(buf, value)
	}
	return nil
}
