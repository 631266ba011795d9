package dataquery

import (
	"bytes"
	"fmt"
	"strings"
)

// readDelimited parses delimited text (csv, txt) according to the given
// options. When the header flag is off, columns are named col_1..col_N.
// Rows that tokenize to a different field count than the first row fail with
// ErrMalformedText so callers can tell the user to check the file settings.
func readDelimited(data []byte, opts TextOptions) (*table, error) {
	text := string(bytes.ReplaceAll(data, []byte("\r\n"), []byte("\n")))
	text = strings.ReplaceAll(text, "\r", "\n")

	rows, err := tokenizeDelimited(text, opts.delimiter(), opts.quoteRune(), opts.Quoting)
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, ErrEmptyData
	}

	width := len(rows[0])
	for i, row := range rows {
		if len(row) != width {
			return nil, fmt.Errorf("%w: row %d has %d fields, expected %d",
				ErrMalformedText, i+1, len(row), width)
		}
	}

	var h header
	records := make([]Record, 0, len(rows))
	if opts.HasHeader {
		h = newHeader(rows[0])
		if err := validateColumnNames(rows[0]); err != nil {
			return nil, err
		}
		for _, row := range rows[1:] {
			records = append(records, newRecord(row))
		}
	} else {
		h = positionalHeader(width)
		for _, row := range rows {
			records = append(records, newRecord(row))
		}
	}

	return newTable(h, records), nil
}

// tokenizeDelimited splits text into rows of fields. The delimiter may be more
// than one character. Under QuoteNone the quote rune is ordinary data; under
// every other mode a field may be wrapped in quotes, with embedded quotes
// escaped by doubling. Blank lines are skipped.
func tokenizeDelimited(text, delimiter string, quote rune, quoting QuoteMode) ([][]string, error) {
	var rows [][]string
	var fields []string
	var field strings.Builder
	inQuotes := false
	fieldQuoted := false

	runes := []rune(text)
	delimRunes := []rune(delimiter)

	matchDelimiter := func(i int) bool {
		if i+len(delimRunes) > len(runes) {
			return false
		}
		for j, d := range delimRunes {
			if runes[i+j] != d {
				return false
			}
		}
		return true
	}

	endField := func() {
		fields = append(fields, field.String())
		field.Reset()
		fieldQuoted = false
	}
	endRow := func() {
		endField()
		// A lone empty field means the line was blank.
		if len(fields) == 1 && fields[0] == "" {
			fields = nil
			return
		}
		rows = append(rows, fields)
		fields = nil
	}

	for i := 0; i < len(runes); i++ {
		r := runes[i]

		if inQuotes {
			if r == quote {
				if i+1 < len(runes) && runes[i+1] == quote {
					field.WriteRune(quote)
					i++
					continue
				}
				inQuotes = false
				continue
			}
			field.WriteRune(r)
			continue
		}

		switch {
		case quoting != QuoteNone && r == quote && field.Len() == 0 && !fieldQuoted:
			inQuotes = true
			fieldQuoted = true
		case matchDelimiter(i):
			endField()
			i += len(delimRunes) - 1
		case r == '\n':
			endRow()
		default:
			field.WriteRune(r)
		}
	}

	if inQuotes {
		return nil, fmt.Errorf("%w: unterminated quoted field", ErrMalformedText)
	}
	if field.Len() > 0 || len(fields) > 0 {
		endRow()
	}
	return rows, nil
}

// writeDelimited renders columns and rows as delimited text according to the
// given options. Under QuoteNone a field containing the delimiter, the quote
// character, or a line break fails with ErrQuoteConflict; there is no escape
// character to fall back on.
func writeDelimited(columns []string, rows [][]string, opts TextOptions) ([]byte, error) {
	var buf bytes.Buffer
	delimiter := opts.delimiter()
	quote := opts.quoteRune()

	writeRow := func(values []string) error {
		for i, value := range values {
			if i > 0 {
				buf.WriteString(delimiter)
			}
			rendered, err := renderField(value, delimiter, quote, opts.Quoting)
			if err != nil {
				return err
			}
			buf.WriteString(rendered)
		}
		buf.WriteString("\n")
		return nil
	}

	if opts.HasHeader {
		if err := writeRow(columns); err != nil {
			return nil, err
		}
	}
	for _, row := range rows {
		if err := writeRow(row); err != nil {
			return nil, err
		}
	}
	return buf.Bytes(), nil
}

// renderField quotes a single field according to the quoting mode.
func renderField(value, delimiter string, quote rune, quoting QuoteMode) (string, error) {
	quoteStr := string(quote)
	needsQuoting := strings.Contains(value, delimiter) ||
		strings.Contains(value, quoteStr) ||
		strings.ContainsAny(value, "\r\n")

	switch quoting {
	case QuoteNone:
		if needsQuoting {
			return "", fmt.Errorf("%w: %q", ErrQuoteConflict, value)
		}
		return value, nil
	case QuoteAll:
		return quoteStr + strings.ReplaceAll(value, quoteStr, quoteStr+quoteStr) + quoteStr, nil
	case QuoteNonNumeric:
		if isNumericValue(value) {
			return value, nil
		}
		return quoteStr + strings.ReplaceAll(value, quoteStr, quoteStr+quoteStr) + quoteStr, nil
	default: // QuoteMinimal
		if !needsQuoting {
			return value, nil
		}
		return quoteStr + strings.ReplaceAll(value, quoteStr, quoteStr+quoteStr) + quoteStr, nil
	}
}
