package dataquery

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDetectFormat(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		fileName string
		want     FileFormat
	}{
		{name: "csv", fileName: "data.csv", want: FormatCSV},
		{name: "csv upper case", fileName: "DATA.CSV", want: FormatCSV},
		{name: "txt", fileName: "notes.txt", want: FormatTXT},
		{name: "xlsx", fileName: "book.xlsx", want: FormatXLSX},
		{name: "parquet", fileName: "events.parquet", want: FormatParquet},
		{name: "avro", fileName: "events.avro", want: FormatAvro},
		{name: "json", fileName: "payload.json", want: FormatJSON},
		{name: "xml", fileName: "payload.xml", want: FormatXML},
		{name: "zip", fileName: "bundle.zip", want: FormatZip},
		{name: "gzip wrapped csv", fileName: "data.csv.gz", want: FormatCSV},
		{name: "zstd wrapped json", fileName: "payload.json.zst", want: FormatJSON},
		{name: "xz wrapped txt", fileName: "notes.txt.xz", want: FormatTXT},
		{name: "bare compression suffix", fileName: "data.gz", want: FormatUnsupported},
		{name: "unknown extension", fileName: "report.pdf", want: FormatUnsupported},
		{name: "no extension", fileName: "README", want: FormatUnsupported},
		{name: "dot inside name", fileName: "v1.2.report.csv", want: FormatCSV},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, DetectFormat(tt.fileName))
		})
	}
}

func TestStripCompression(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name        string
		fileName    string
		wantName    string
		wantCompres CompressionType
	}{
		{name: "plain", fileName: "data.csv", wantName: "data.csv", wantCompres: CompressionNone},
		{name: "gzip", fileName: "data.csv.gz", wantName: "data.csv", wantCompres: CompressionGZ},
		{name: "bzip2", fileName: "data.csv.bz2", wantName: "data.csv", wantCompres: CompressionBZ2},
		{name: "xz", fileName: "data.csv.xz", wantName: "data.csv", wantCompres: CompressionXZ},
		{name: "zstd", fileName: "data.csv.zst", wantName: "data.csv", wantCompres: CompressionZSTD},
		{name: "upper case suffix", fileName: "DATA.CSV.GZ", wantName: "DATA.CSV", wantCompres: CompressionGZ},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			gotName, gotCompres := stripCompression(tt.fileName)
			assert.Equal(t, tt.wantName, gotName)
			assert.Equal(t, tt.wantCompres, gotCompres)
		})
	}
}

func TestFileFormatExportSurface(t *testing.T) {
	t.Parallel()

	assert.True(t, FormatCSV.IsExportable())
	assert.True(t, FormatParquet.IsExportable())
	assert.False(t, FormatZip.IsExportable())
	assert.False(t, FormatUnsupported.IsExportable())

	assert.Equal(t, "text/csv", FormatCSV.MIMEType())
	assert.Equal(t, "text/csv", FormatTXT.MIMEType())
	assert.Equal(t, "application/json", FormatJSON.MIMEType())
	assert.Equal(t, "application/octet-stream", FormatParquet.MIMEType())

	assert.Equal(t, "query_result.csv", ExportFileName(FormatCSV))
	assert.Equal(t, "query_result.parquet", ExportFileName(FormatParquet))
}

func TestIsSupportedMember(t *testing.T) {
	t.Parallel()

	assert.True(t, isSupportedMember("data.csv"))
	assert.True(t, isSupportedMember("events.avro"))
	assert.False(t, isSupportedMember("notes.pdf"))
	assert.False(t, isSupportedMember("nested.zip"))
}
