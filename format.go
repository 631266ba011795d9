package dataquery

import "strings"

// FileFormat represents a supported file format. Unknown extensions map to
// FormatUnsupported rather than failing detection, so callers can report
// excluded files instead of silently dropping them.
type FileFormat int

const (
	// FormatCSV represents comma/character-separated text files.
	FormatCSV FileFormat = iota
	// FormatTXT represents delimited text files with a .txt extension.
	// Parsed exactly like CSV, with delimiter and quoting from LoadOptions.
	FormatTXT
	// FormatXLSX represents Excel workbooks; every sheet becomes its own table.
	FormatXLSX
	// FormatParquet represents Apache Parquet columnar files.
	FormatParquet
	// FormatAvro represents Avro object container files.
	FormatAvro
	// FormatJSON represents JSON documents (single object or array of objects).
	FormatJSON
	// FormatXML represents XML documents with one record per element.
	FormatXML
	// FormatZip represents zip archives. Import-only container format.
	FormatZip
	// FormatUnsupported represents any unrecognized extension.
	FormatUnsupported
)

// File extensions.
const (
	extCSV     = ".csv"
	extTXT     = ".txt"
	extXLSX    = ".xlsx"
	extParquet = ".parquet"
	extAvro    = ".avro"
	extJSON    = ".json"
	extXML     = ".xml"
	extZip     = ".zip"
	extGZ      = ".gz"
	extBZ2     = ".bz2"
	extXZ      = ".xz"
	extZSTD    = ".zst"
)

// CompressionType represents a transparent compression wrapper around a
// supported file format (data.csv.gz and friends).
type CompressionType int

const (
	// CompressionNone represents no compression.
	CompressionNone CompressionType = iota
	// CompressionGZ represents gzip compression.
	CompressionGZ
	// CompressionBZ2 represents bzip2 compression.
	CompressionBZ2
	// CompressionXZ represents xz compression.
	CompressionXZ
	// CompressionZSTD represents zstd compression.
	CompressionZSTD
)

// String returns the string representation of CompressionType.
func (c CompressionType) String() string {
	switch c {
	case CompressionGZ:
		return "gz"
	case CompressionBZ2:
		return "bz2"
	case CompressionXZ:
		return "xz"
	case CompressionZSTD:
		return "zstd"
	default:
		return "none"
	}
}

// String returns the lower-cased extension name for the format.
func (f FileFormat) String() string {
	switch f {
	case FormatCSV:
		return "csv"
	case FormatTXT:
		return "txt"
	case FormatXLSX:
		return "xlsx"
	case FormatParquet:
		return "parquet"
	case FormatAvro:
		return "avro"
	case FormatJSON:
		return "json"
	case FormatXML:
		return "xml"
	case FormatZip:
		return "zip"
	default:
		return "unsupported"
	}
}

// Extension returns the file extension for the format, including the dot.
func (f FileFormat) Extension() string {
	switch f {
	case FormatCSV:
		return extCSV
	case FormatTXT:
		return extTXT
	case FormatXLSX:
		return extXLSX
	case FormatParquet:
		return extParquet
	case FormatAvro:
		return extAvro
	case FormatJSON:
		return extJSON
	case FormatXML:
		return extXML
	case FormatZip:
		return extZip
	default:
		return ""
	}
}

// MIMEType returns the MIME type used when delivering an export of this format.
func (f FileFormat) MIMEType() string {
	switch f {
	case FormatCSV, FormatTXT:
		return "text/csv"
	case FormatXLSX:
		return "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	case FormatJSON:
		return "application/json"
	case FormatXML:
		return "application/xml"
	default:
		return "application/octet-stream"
	}
}

// IsExportable reports whether the format is a valid export target.
// Zip is an import-only container.
func (f FileFormat) IsExportable() bool {
	switch f {
	case FormatCSV, FormatTXT, FormatXLSX, FormatParquet, FormatAvro, FormatJSON, FormatXML:
		return true
	default:
		return false
	}
}

// IsText reports whether the format consumes delimiter/quoting options.
func (f FileFormat) IsText() bool {
	return f == FormatCSV || f == FormatTXT
}

// stripCompression removes a trailing compression extension from a file name,
// returning the stripped name and the detected compression type.
func stripCompression(name string) (string, CompressionType) {
	lower := strings.ToLower(name)
	switch {
	case strings.HasSuffix(lower, extGZ):
		return name[:len(name)-len(extGZ)], CompressionGZ
	case strings.HasSuffix(lower, extBZ2):
		return name[:len(name)-len(extBZ2)], CompressionBZ2
	case strings.HasSuffix(lower, extXZ):
		return name[:len(name)-len(extXZ)], CompressionXZ
	case strings.HasSuffix(lower, extZSTD):
		return name[:len(name)-len(extZSTD)], CompressionZSTD
	default:
		return name, CompressionNone
	}
}

// DetectFormat detects the file format from a file name, case-insensitively.
// A single trailing compression extension (.gz, .bz2, .xz, .zst) is stripped
// before detection, so "data.csv.gz" detects as FormatCSV.
func DetectFormat(name string) FileFormat {
	stripped, _ := stripCompression(name)
	lower := strings.ToLower(stripped)

	idx := strings.LastIndex(lower, ".")
	if idx < 0 {
		return FormatUnsupported
	}

	switch lower[idx:] {
	case extCSV:
		return FormatCSV
	case extTXT:
		return FormatTXT
	case extXLSX:
		return FormatXLSX
	case extParquet:
		return FormatParquet
	case extAvro:
		return FormatAvro
	case extJSON:
		return FormatJSON
	case extXML:
		return FormatXML
	case extZip:
		return FormatZip
	default:
		return FormatUnsupported
	}
}

// isSupportedMember reports whether an archive member name maps to a format
// the pipeline can ingest. Nested archives are not expanded.
func isSupportedMember(name string) bool {
	format := DetectFormat(name)
	return format != FormatUnsupported && format != FormatZip
}
