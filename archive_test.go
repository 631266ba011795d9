package dataquery

import (
	"archive/zip"
	"bytes"
	"testing"

	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zstd"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ulikunitz/xz"
)

// buildZip creates an in-memory zip archive from name/content pairs.
func buildZip(t *testing.T, files map[string]string) []byte {
	t.Helper()
	var buf bytes.Buffer
	w := zip.NewWriter(&buf)
	for name, content := range files {
		f, err := w.Create(name)
		require.NoError(t, err)
		_, err = f.Write([]byte(content))
		require.NoError(t, err)
	}
	require.NoError(t, w.Close())
	return buf.Bytes()
}

func TestExpandArchive(t *testing.T) {
	t.Parallel()

	t.Run("regular files extracted", func(t *testing.T) {
		t.Parallel()
		data := buildZip(t, map[string]string{
			"data.csv":  "a,b\n1,2\n",
			"notes.pdf": "binary",
		})

		members, err := ExpandArchive(data)
		require.NoError(t, err)
		require.Len(t, members, 2)

		byName := map[string]string{}
		for _, m := range members {
			byName[m.Name] = string(m.Data)
		}
		assert.Equal(t, "a,b\n1,2\n", byName["data.csv"])
		assert.Equal(t, "binary", byName["notes.pdf"])
	})

	t.Run("directory components dropped", func(t *testing.T) {
		t.Parallel()
		data := buildZip(t, map[string]string{
			"nested/dir/data.csv": "a\n1\n",
		})

		members, err := ExpandArchive(data)
		require.NoError(t, err)
		require.Len(t, members, 1)
		assert.Equal(t, "data.csv", members[0].Name)
	})

	t.Run("macos metadata skipped", func(t *testing.T) {
		t.Parallel()
		data := buildZip(t, map[string]string{
			"__MACOSX/data.csv": "junk",
			"._data.csv":        "junk",
			"data.csv":          "a\n1\n",
		})

		members, err := ExpandArchive(data)
		require.NoError(t, err)
		require.Len(t, members, 1)
		assert.Equal(t, "data.csv", members[0].Name)
	})

	t.Run("dotfiles are kept for the pipeline to judge", func(t *testing.T) {
		t.Parallel()
		data := buildZip(t, map[string]string{
			".DS_Store":   "junk",
			".hidden.csv": "a\n1\n",
		})

		members, err := ExpandArchive(data)
		require.NoError(t, err)
		require.Len(t, members, 2)
	})

	t.Run("corrupt archive", func(t *testing.T) {
		t.Parallel()
		_, err := ExpandArchive([]byte("not a zip"))
		assert.ErrorIs(t, err, ErrCorruptArchive)
	})
}

func TestDecompress(t *testing.T) {
	t.Parallel()

	payload := []byte("a,b\n1,2\n")

	t.Run("none passes through", func(t *testing.T) {
		t.Parallel()
		got, err := decompress(payload, CompressionNone)
		require.NoError(t, err)
		assert.Equal(t, payload, got)
	})

	t.Run("gzip", func(t *testing.T) {
		t.Parallel()
		var buf bytes.Buffer
		w := gzip.NewWriter(&buf)
		_, err := w.Write(payload)
		require.NoError(t, err)
		require.NoError(t, w.Close())

		got, err := decompress(buf.Bytes(), CompressionGZ)
		require.NoError(t, err)
		assert.Equal(t, payload, got)
	})

	t.Run("zstd", func(t *testing.T) {
		t.Parallel()
		var buf bytes.Buffer
		w, err := zstd.NewWriter(&buf)
		require.NoError(t, err)
		_, err = w.Write(payload)
		require.NoError(t, err)
		require.NoError(t, w.Close())

		got, err := decompress(buf.Bytes(), CompressionZSTD)
		require.NoError(t, err)
		assert.Equal(t, payload, got)
	})

	t.Run("xz", func(t *testing.T) {
		t.Parallel()
		var buf bytes.Buffer
		w, err := xz.NewWriter(&buf)
		require.NoError(t, err)
		_, err = w.Write(payload)
		require.NoError(t, err)
		require.NoError(t, w.Close())

		got, err := decompress(buf.Bytes(), CompressionXZ)
		require.NoError(t, err)
		assert.Equal(t, payload, got)
	})

	t.Run("garbage gzip", func(t *testing.T) {
		t.Parallel()
		_, err := decompress([]byte("not gzip"), CompressionGZ)
		assert.Error(t, err)
	})
}
