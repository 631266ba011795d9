package dataquery

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReadJSONFormat(t *testing.T) {
	t.Parallel()

	t.Run("array of objects", func(t *testing.T) {
		t.Parallel()
		data := `[{"id":1,"name":"alice"},{"id":2,"name":"bob"}]`

		tables, err := readJSONFormat([]byte(data), NewLoadOptions())
		require.NoError(t, err)
		require.Len(t, tables, 1)

		tbl := tables[0].table
		assert.True(t, tbl.header.equal(newHeader([]string{"id", "name"})))
		require.Len(t, tbl.records, 2)
		assert.True(t, tbl.records[0].equal(Record{"1", "alice"}))
		assert.True(t, tbl.records[1].equal(Record{"2", "bob"}))
	})

	t.Run("single object is one row", func(t *testing.T) {
		t.Parallel()
		data := `{"id":7,"active":true}`

		tables, err := readJSONFormat([]byte(data), NewLoadOptions())
		require.NoError(t, err)

		tbl := tables[0].table
		assert.True(t, tbl.header.equal(newHeader([]string{"id", "active"})))
		require.Len(t, tbl.records, 1)
		assert.True(t, tbl.records[0].equal(Record{"7", "true"}))
	})

	t.Run("nested objects flatten with dotted paths", func(t *testing.T) {
		t.Parallel()
		data := `[{"id":1,"address":{"city":"rome","geo":{"lat":41.9}}}]`

		tables, err := readJSONFormat([]byte(data), NewLoadOptions())
		require.NoError(t, err)

		tbl := tables[0].table
		assert.True(t, tbl.header.equal(newHeader([]string{"id", "address.city", "address.geo.lat"})))
		assert.True(t, tbl.records[0].equal(Record{"1", "rome", "41.9"}))
	})

	t.Run("column order follows first appearance", func(t *testing.T) {
		t.Parallel()
		data := `[{"b":1,"a":2},{"a":3,"c":4}]`

		tables, err := readJSONFormat([]byte(data), NewLoadOptions())
		require.NoError(t, err)

		tbl := tables[0].table
		assert.True(t, tbl.header.equal(newHeader([]string{"b", "a", "c"})))
		assert.True(t, tbl.records[0].equal(Record{"1", "2", ""}))
		assert.True(t, tbl.records[1].equal(Record{"", "3", "4"}))
	})

	t.Run("array of scalars becomes value column", func(t *testing.T) {
		t.Parallel()
		data := `[1,2,3]`

		tables, err := readJSONFormat([]byte(data), NewLoadOptions())
		require.NoError(t, err)

		tbl := tables[0].table
		assert.True(t, tbl.header.equal(newHeader([]string{"value"})))
		require.Len(t, tbl.records, 3)
		assert.True(t, tbl.records[2].equal(Record{"3"}))
	})

	t.Run("nested array keeps json rendering", func(t *testing.T) {
		t.Parallel()
		data := `[{"id":1,"tags":["a","b"]}]`

		tables, err := readJSONFormat([]byte(data), NewLoadOptions())
		require.NoError(t, err)

		tbl := tables[0].table
		assert.True(t, tbl.records[0].equal(Record{"1", `["a","b"]`}))
	})

	t.Run("numbers keep their source text", func(t *testing.T) {
		t.Parallel()
		data := `[{"v":0.10},{"v":12345678901234567890}]`

		tables, err := readJSONFormat([]byte(data), NewLoadOptions())
		require.NoError(t, err)

		tbl := tables[0].table
		assert.True(t, tbl.records[0].equal(Record{"0.10"}))
		assert.True(t, tbl.records[1].equal(Record{"12345678901234567890"}))
	})

	t.Run("empty input", func(t *testing.T) {
		t.Parallel()
		_, err := readJSONFormat([]byte("  "), NewLoadOptions())
		assert.ErrorIs(t, err, ErrEmptyData)
	})

	t.Run("empty array", func(t *testing.T) {
		t.Parallel()
		_, err := readJSONFormat([]byte("[]"), NewLoadOptions())
		assert.ErrorIs(t, err, ErrEmptyData)
	})

	t.Run("scalar root", func(t *testing.T) {
		t.Parallel()
		_, err := readJSONFormat([]byte(`"just a string"`), NewLoadOptions())
		assert.Error(t, err)
	})

	t.Run("malformed json", func(t *testing.T) {
		t.Parallel()
		_, err := readJSONFormat([]byte(`[{"a":}`), NewLoadOptions())
		assert.Error(t, err)
	})
}

func TestWriteJSON(t *testing.T) {
	t.Parallel()

	t.Run("typed records", func(t *testing.T) {
		t.Parallel()
		columns := []string{"id", "score", "name"}
		rows := [][]string{
			{"1", "9.5", "alice"},
			{"2", "", "bob"},
		}

		got, err := writeJSON(columns, rows)
		require.NoError(t, err)
		assert.Equal(t,
			`[{"id":1,"score":9.5,"name":"alice"},{"id":2,"score":null,"name":"bob"}]`,
			string(got))
	})

	t.Run("no rows", func(t *testing.T) {
		t.Parallel()
		got, err := writeJSON([]string{"a"}, nil)
		require.NoError(t, err)
		assert.Equal(t, "[]", string(got))
	})

	t.Run("roundtrip", func(t *testing.T) {
		t.Parallel()
		columns := []string{"id", "name"}
		rows := [][]string{{"1", "alice"}, {"2", "bob"}}

		data, err := writeJSON(columns, rows)
		require.NoError(t, err)

		tables, err := readJSONFormat(data, NewLoadOptions())
		require.NoError(t, err)
		tbl := tables[0].table
		assert.True(t, tbl.header.equal(newHeader(columns)))
		require.Len(t, tbl.records, 2)
		assert.True(t, tbl.records[0].equal(Record{"1", "alice"}))
	})
}
