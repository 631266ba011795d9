package dataquery

import (
	"archive/zip"
	"bytes"
	"compress/bzip2"
	"fmt"
	"io"
	"path"
	"strings"

	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zstd"
	"github.com/ulikunitz/xz"
)

// ArchiveMember is one file extracted from a zip archive. Name is the base
// name of the member; directory components are dropped.
type ArchiveMember struct {
	Name string
	Data []byte
}

// ExpandArchive extracts the regular files of a zip archive in archive order.
// Directory entries and macOS zip metadata (__MACOSX/ resource forks and
// AppleDouble ._ files) are skipped; every other member is returned, so the
// pipeline can report unsupported ones instead of dropping them silently.
// Members keep their raw bytes; format support is decided later, per member,
// so one unsupported member never fails the archive.
func ExpandArchive(data []byte) ([]ArchiveMember, error) {
	reader, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCorruptArchive, err)
	}

	var members []ArchiveMember
	for _, entry := range reader.File {
		if entry.FileInfo().IsDir() || isArchiveMetadata(entry.Name) {
			continue
		}
		name := path.Base(entry.Name)
		if name == "" || name == "." {
			continue
		}

		rc, err := entry.Open()
		if err != nil {
			return nil, fmt.Errorf("%w: cannot open %s: %v", ErrCorruptArchive, entry.Name, err)
		}
		content, err := io.ReadAll(rc)
		rc.Close()
		if err != nil {
			return nil, fmt.Errorf("%w: cannot read %s: %v", ErrCorruptArchive, entry.Name, err)
		}
		members = append(members, ArchiveMember{Name: name, Data: content})
	}
	return members, nil
}

// isArchiveMetadata reports whether a zip entry path is macOS packaging
// metadata rather than user content.
func isArchiveMetadata(entryName string) bool {
	return strings.HasPrefix(entryName, "__MACOSX/") ||
		strings.HasPrefix(path.Base(entryName), "._")
}

// decompress removes one compression wrapper from a payload. CompressionNone
// returns the data unchanged.
func decompress(data []byte, ct CompressionType) ([]byte, error) {
	switch ct {
	case CompressionNone:
		return data, nil
	case CompressionGZ:
		r, err := gzip.NewReader(bytes.NewReader(data))
		if err != nil {
			return nil, fmt.Errorf("cannot open gzip data: %w", err)
		}
		defer r.Close()
		return readDecompressed(r, ct)
	case CompressionBZ2:
		return readDecompressed(bzip2.NewReader(bytes.NewReader(data)), ct)
	case CompressionXZ:
		r, err := xz.NewReader(bytes.NewReader(data))
		if err != nil {
			return nil, fmt.Errorf("cannot open xz data: %w", err)
		}
		return readDecompressed(r, ct)
	case CompressionZSTD:
		r, err := zstd.NewReader(bytes.NewReader(data))
		if err != nil {
			return nil, fmt.Errorf("cannot open zstd data: %w", err)
		}
		defer r.Close()
		return readDecompressed(r.IOReadCloser(), ct)
	default:
		return nil, fmt.Errorf("unknown compression type %d", ct)
	}
}

func readDecompressed(r io.Reader, ct CompressionType) ([]byte, error) {
	content, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("cannot decompress %s data: %w", ct, err)
	}
	return content, nil
}
