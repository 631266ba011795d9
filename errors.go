package dataquery

import "errors"

// Sentinel errors shared across the ingestion, catalog, query and export layers.
var (
	// ErrEmptyData indicates that the data source contains no content at all,
	// not even enough to determine column names.
	ErrEmptyData = errors.New("dataquery: empty data source")

	// ErrUnsupportedFormat indicates an unsupported file format.
	ErrUnsupportedFormat = errors.New("dataquery: unsupported file format")

	// ErrMalformedText indicates delimited text whose rows do not tokenize to a
	// consistent field count for the declared delimiter. Recoverable: the user
	// should check the file settings (delimiter, quoting, header).
	ErrMalformedText = errors.New("dataquery: malformed delimited text")

	// ErrQuoteConflict indicates that data contains characters which cannot be
	// written under the selected quoting mode. Recoverable: the user should
	// pick a different quoting option.
	ErrQuoteConflict = errors.New("dataquery: special character conflicts with quoting mode")

	// ErrDuplicateColumnName is returned when a source contains duplicate column names.
	ErrDuplicateColumnName = errors.New("dataquery: duplicate column name")

	// ErrCorruptArchive indicates a zip archive that cannot be opened.
	ErrCorruptArchive = errors.New("dataquery: cannot open archive")

	// ErrColumnsChanged is returned when an edited result renames, adds or
	// removes columns. Edits may change rows only.
	ErrColumnsChanged = errors.New("dataquery: edited result must keep the same columns")

	// ErrNoResult is returned when an export is requested before any query has
	// produced a result.
	ErrNoResult = errors.New("dataquery: no query result to export")

	// ErrSessionClosed is returned when a closed session is used.
	ErrSessionClosed = errors.New("dataquery: session is closed")
)
