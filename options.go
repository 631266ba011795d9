package dataquery

import "strings"

// QuoteMode controls field quoting for delimited text, mirroring the classic
// CSV quoting modes.
type QuoteMode int

const (
	// QuoteMinimal quotes only fields containing the delimiter, the quote
	// character, or a line break.
	QuoteMinimal QuoteMode = iota
	// QuoteAll quotes every field.
	QuoteAll
	// QuoteNonNumeric quotes every field that does not parse as a number.
	QuoteNonNumeric
	// QuoteNone never quotes. Reading treats quote characters as ordinary
	// data; writing fails with ErrQuoteConflict when a field would need
	// escaping.
	QuoteNone
)

// String returns the conventional name of the quoting mode.
func (q QuoteMode) String() string {
	switch q {
	case QuoteAll:
		return "QUOTE_ALL"
	case QuoteNonNumeric:
		return "QUOTE_NONNUMERIC"
	case QuoteNone:
		return "QUOTE_NONE"
	default:
		return "QUOTE_MINIMAL"
	}
}

// TextOptions configures reading and writing of delimited text (csv, txt).
type TextOptions struct {
	// HasHeader indicates the first row carries column names. When false,
	// columns are named col_1..col_N.
	HasHeader bool
	// Delimiter separates fields. One or more characters; the literal
	// two-character sequence `\t` expands to a tab.
	Delimiter string
	// Quoting selects the quoting mode.
	Quoting QuoteMode
	// QuoteChar is the quote character. Only its first rune is used.
	QuoteChar string
}

// NewTextOptions returns delimited-text defaults: header row present,
// comma delimiter, minimal quoting with a double quote.
func NewTextOptions() TextOptions {
	return TextOptions{
		HasHeader: true,
		Delimiter: ",",
		Quoting:   QuoteMinimal,
		QuoteChar: `"`,
	}
}

// WithHeader sets whether the first row carries column names.
func (o TextOptions) WithHeader(hasHeader bool) TextOptions {
	o.HasHeader = hasHeader
	return o
}

// WithDelimiter sets the field delimiter.
func (o TextOptions) WithDelimiter(delimiter string) TextOptions {
	o.Delimiter = delimiter
	return o
}

// WithQuoting sets the quoting mode.
func (o TextOptions) WithQuoting(mode QuoteMode) TextOptions {
	o.Quoting = mode
	return o
}

// WithQuoteChar sets the quote character.
func (o TextOptions) WithQuoteChar(quoteChar string) TextOptions {
	o.QuoteChar = quoteChar
	return o
}

// delimiter returns the effective delimiter with the literal `\t` sequence
// expanded to a tab, defaulting to a comma.
func (o TextOptions) delimiter() string {
	if o.Delimiter == `\t` {
		return "\t"
	}
	if o.Delimiter == "" {
		return ","
	}
	return o.Delimiter
}

// quoteRune returns the effective quote rune, defaulting to a double quote.
func (o TextOptions) quoteRune() rune {
	if o.QuoteChar == "" {
		return '"'
	}
	return []rune(o.QuoteChar)[0]
}

// SheetOptions maps a sheet name to whether that sheet has a header row.
// Sheets absent from the map default to having a header.
type SheetOptions map[string]bool

// headerFor reports the header flag for a sheet, defaulting to true.
func (s SheetOptions) headerFor(sheet string) bool {
	if s == nil {
		return true
	}
	hasHeader, ok := s[sheet]
	if !ok {
		return true
	}
	return hasHeader
}

// LoadOptions is the format-specific configuration for ingesting one unit.
// Text carries delimiter/quoting/header settings for csv and txt; Sheets
// carries per-sheet header flags for xlsx. Other formats ignore both.
// LoadOptions are produced by the options collaborator and are not modified
// by the pipeline.
type LoadOptions struct {
	Text   TextOptions
	Sheets SheetOptions
}

// NewLoadOptions returns LoadOptions with text defaults and no sheet settings.
func NewLoadOptions() LoadOptions {
	return LoadOptions{Text: NewTextOptions()}
}

// ExportOptions configures writing a query result to a file format. Only the
// text formats consult the delimiter and quoting settings; xlsx consults the
// header flag only; the remaining formats take no options.
type ExportOptions struct {
	Text TextOptions
}

// NewExportOptions returns export defaults matching NewTextOptions.
func NewExportOptions() ExportOptions {
	return ExportOptions{Text: NewTextOptions()}
}

// WithText replaces the delimited-text settings.
func (o ExportOptions) WithText(text TextOptions) ExportOptions {
	o.Text = text
	return o
}

// isNumericValue reports whether a field value parses as a number, used by
// QuoteNonNumeric. Shared with column type inference.
func isNumericValue(value string) bool {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return false
	}
	return isInteger(trimmed) || isFloat(trimmed)
}
