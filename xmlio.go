package dataquery

import (
	"bytes"
	"encoding/json"
	"encoding/xml"
	"fmt"
	"regexp"
	"sort"
	"strings"

	"github.com/clbanning/mxj/v2"
)

// xmlElementName matches a legal XML element name for export columns.
var xmlElementName = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9._-]*$`)

// readXMLFormat reads an XML payload as a single dataset. Each child of the
// document root becomes a row; nested elements flatten into dotted column
// paths and attributes join the path under their own name. Column order
// follows first appearance in the document.
func readXMLFormat(data []byte, _ LoadOptions) ([]sheetTable, error) {
	if len(bytes.TrimSpace(data)) == 0 {
		return nil, ErrEmptyData
	}

	doc, err := mxj.NewMapXml(data)
	if err != nil {
		return nil, fmt.Errorf("cannot parse xml: %w", err)
	}
	if len(doc) != 1 {
		return nil, fmt.Errorf("xml document has %d roots, want 1", len(doc))
	}

	var rowMaps []map[string]any
	for _, rootValue := range doc {
		rootMap, ok := rootValue.(map[string]any)
		if !ok {
			return nil, fmt.Errorf("xml root holds no row elements")
		}
		for _, child := range rootMap {
			switch v := child.(type) {
			case []any:
				for _, element := range v {
					if m, ok := element.(map[string]any); ok {
						rowMaps = append(rowMaps, m)
					} else {
						rowMaps = append(rowMaps, map[string]any{"#text": element})
					}
				}
			case map[string]any:
				rowMaps = append(rowMaps, v)
			default:
				rowMaps = append(rowMaps, map[string]any{"#text": v})
			}
		}
	}
	if len(rowMaps) == 0 {
		return nil, ErrEmptyData
	}

	rows := make([]map[string]string, 0, len(rowMaps))
	present := map[string]bool{}
	for _, rowMap := range rowMaps {
		row := map[string]string{}
		flattenXML("", rowMap, func(path, value string) {
			present[path] = true
			row[path] = value
		})
		rows = append(rows, row)
	}

	h := orderXMLColumns(data, present)
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

// flattenXML walks one decoded row and emits a (path, value) pair per leaf.
// Attribute keys carry mxj's "-" prefix, which is stripped; "#text" denotes
// the element's own character data.
func flattenXML(prefix string, node map[string]any, emit func(path, value string)) {
	for key, value := range node {
		path := xmlChildPath(prefix, key)
		switch v := value.(type) {
		case map[string]any:
			flattenXML(path, v, emit)
		case []any:
			encoded, err := json.Marshal(v)
			if err != nil {
				emit(path, fmt.Sprintf("%v", v))
			} else {
				emit(path, string(encoded))
			}
		case nil:
			emit(path, "")
		default:
			emit(path, fmt.Sprintf("%v", v))
		}
	}
}

// xmlChildPath joins a parent path and an mxj map key into a column path.
func xmlChildPath(prefix, key string) string {
	switch {
	case key == "#text":
		if prefix == "" {
			return "value"
		}
		return prefix
	case strings.HasPrefix(key, "-"):
		key = key[1:]
	}
	if prefix == "" {
		return key
	}
	return prefix + "." + key
}

// orderXMLColumns recovers document column order with a token scan, since the
// decoded maps are unordered. Paths the scan misses are appended sorted.
func orderXMLColumns(data []byte, present map[string]bool) header {
	var h header
	added := map[string]bool{}
	add := func(path string) {
		if present[path] && !added[path] {
			added[path] = true
			h = append(h, path)
		}
	}

	dec := xml.NewDecoder(bytes.NewReader(data))
	var stack []string
	for {
		tok, err := dec.Token()
		if err != nil {
			break
		}
		switch t := tok.(type) {
		case xml.StartElement:
			stack = append(stack, t.Name.Local)
			// Depth 1 is the root, depth 2 a row; leaves start at depth 3.
			switch depth := len(stack); {
			case depth >= 3:
				path := strings.Join(stack[2:], ".")
				add(path)
				for _, attr := range t.Attr {
					add(path + "." + attr.Name.Local)
				}
			case depth == 2:
				for _, attr := range t.Attr {
					add(attr.Name.Local)
				}
			}
		case xml.EndElement:
			if len(stack) > 0 {
				stack = stack[:len(stack)-1]
			}
		case xml.CharData:
			if len(stack) == 2 && len(bytes.TrimSpace(t)) > 0 {
				add("value")
			}
		}
	}

	var missed []string
	for path := range present {
		if !added[path] {
			missed = append(missed, path)
		}
	}
	sort.Strings(missed)
	return append(h, missed...)
}

// writeXML renders columns and rows as an XML document with a data root and
// one row element per record. A column whose name is not a legal XML element
// name cannot be exported.
func writeXML(columns []string, rows [][]string) ([]byte, error) {
	for _, column := range columns {
		if !xmlElementName.MatchString(column) {
			return nil, fmt.Errorf("column %q is not a valid xml element name", column)
		}
	}

	var buf bytes.Buffer
	buf.WriteString(xml.Header)
	buf.WriteString("<data>\n")
	for _, row := range rows {
		buf.WriteString("  <row>\n")
		for i, column := range columns {
			value := ""
			if i < len(row) {
				value = row[i]
			}
			buf.WriteString("    <")
			buf.WriteString(column)
			buf.WriteString(">")
			if err := xml.EscapeText(&buf, []byte(value)); err != nil {
				return nil, fmt.Errorf("cannot escape xml value: %w", err)
			}
			buf.WriteString("</")
			buf.WriteString(column)
			buf.WriteString(">\n")
		}
		buf.WriteString("  </row>\n")
	}
	buf.WriteString("</data>\n")
	return buf.Bytes(), nil
}
