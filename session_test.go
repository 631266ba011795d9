package dataquery

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// newTestSession opens a session that closes with the test.
func newTestSession(t *testing.T) *Session {
	t.Helper()
	session, err := NewSession(context.Background())
	require.NoError(t, err)
	t.Cleanup(func() { session.Close() })
	return session
}

func TestSessionUploadQueryExport(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	session := newTestSession(t)

	report, err := session.UpdateUploads(ctx, []SourceFile{
		{Name: "sales.csv", Data: []byte("id,amount\n1,10\n2,20\n")},
	}, nil)
	require.NoError(t, err)
	assert.Equal(t, []string{"Loaded sales.csv as table(s): sales_csv"}, report.Loaded)

	tables := session.Tables()
	require.Len(t, tables, 1)
	assert.Equal(t, "sales_csv", tables[0].Table)

	result, err := session.Query(ctx, "SELECT id, amount FROM sales_csv WHERE amount > 15")
	require.NoError(t, err)
	require.Equal(t, 1, result.RowCount())
	assert.Equal(t, []string{"2", "20"}, result.Rows[0])

	data, err := session.ExportResult(FormatCSV, NewExportOptions())
	require.NoError(t, err)
	assert.Equal(t, "id,amount\n2,20\n", string(data))
}

func TestSessionUpdateUploadsRemovesWithdrawn(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	session := newTestSession(t)

	_, err := session.UpdateUploads(ctx, []SourceFile{
		{Name: "a.csv", Data: []byte("id\n1\n")},
		{Name: "b.csv", Data: []byte("id\n2\n")},
	}, nil)
	require.NoError(t, err)
	require.Len(t, session.Tables(), 2)

	report, err := session.UpdateUploads(ctx, []SourceFile{
		{Name: "b.csv", Data: []byte("id\n2\n")},
	}, nil)
	require.NoError(t, err)
	assert.Equal(t, []string{"Removed file: a.csv and its associated tables"}, report.Removed)
	assert.Empty(t, report.Loaded)

	tables := session.Tables()
	require.Len(t, tables, 1)
	assert.Equal(t, "b_csv", tables[0].Table)

	_, err = session.Query(ctx, "SELECT * FROM a_csv")
	require.Error(t, err)
	var qerr *QueryError
	require.ErrorAs(t, err, &qerr)
	assert.Equal(t, QueryErrorUnknownTable, qerr.Kind)
}

func TestSessionPreview(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	session := newTestSession(t)

	_, err := session.UpdateUploads(ctx, []SourceFile{
		{Name: "t.csv", Data: []byte("id\n1\n2\n3\n4\n5\n6\n7\n8\n9\n10\n")},
	}, nil)
	require.NoError(t, err)

	preview, err := session.Preview(ctx, "t_csv", 0)
	require.NoError(t, err)
	assert.Equal(t, 5, preview.RowCount())

	preview, err = session.Preview(ctx, "t_csv", 3)
	require.NoError(t, err)
	assert.Equal(t, 3, preview.RowCount())

	// Preview never becomes the current result.
	assert.Nil(t, session.CurrentResult())
}

func TestSessionApplyEdit(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	session := newTestSession(t)

	err := session.ApplyEdit(&QueryResult{Columns: []string{"a"}})
	assert.ErrorIs(t, err, ErrNoResult)

	_, err = session.UpdateUploads(ctx, []SourceFile{
		{Name: "t.csv", Data: []byte("id,name\n1,alice\n")},
	}, nil)
	require.NoError(t, err)
	_, err = session.Query(ctx, "SELECT id, name FROM t_csv")
	require.NoError(t, err)

	err = session.ApplyEdit(&QueryResult{Columns: []string{"id", "renamed"}})
	assert.ErrorIs(t, err, ErrColumnsChanged)
	err = session.ApplyEdit(&QueryResult{Columns: []string{"id"}})
	assert.ErrorIs(t, err, ErrColumnsChanged)

	edited := &QueryResult{
		Columns: []string{"id", "name"},
		Rows:    [][]string{{"1", "alice"}, {"2", "added"}},
	}
	require.NoError(t, session.ApplyEdit(edited))
	assert.Same(t, edited, session.CurrentResult())

	data, err := session.ExportResult(FormatCSV, NewExportOptions())
	require.NoError(t, err)
	assert.Equal(t, "id,name\n1,alice\n2,added\n", string(data))

	// A new query discards the pending edit.
	result, err := session.Query(ctx, "SELECT id FROM t_csv")
	require.NoError(t, err)
	assert.Same(t, result, session.CurrentResult())
}

func TestSessionExportWithoutResult(t *testing.T) {
	t.Parallel()
	session := newTestSession(t)

	_, err := session.ExportResult(FormatCSV, NewExportOptions())
	assert.ErrorIs(t, err, ErrNoResult)
}

func TestSessionReset(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	session := newTestSession(t)

	_, err := session.UpdateUploads(ctx, []SourceFile{
		{Name: "a.csv", Data: []byte("id\n1\n")},
	}, nil)
	require.NoError(t, err)
	_, err = session.Query(ctx, "SELECT * FROM a_csv")
	require.NoError(t, err)

	require.NoError(t, session.Reset(ctx))
	assert.Empty(t, session.Tables())
	assert.Nil(t, session.CurrentResult())

	// The engine stays usable and the same file can load again.
	report, err := session.UpdateUploads(ctx, []SourceFile{
		{Name: "a.csv", Data: []byte("id\n1\n")},
	}, nil)
	require.NoError(t, err)
	assert.Len(t, report.Loaded, 1)
}

func TestSessionClosed(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	session := newTestSession(t)
	require.NoError(t, session.Close())
	require.NoError(t, session.Close())

	_, err := session.UpdateUploads(ctx, nil, nil)
	assert.ErrorIs(t, err, ErrSessionClosed)
	_, err = session.Query(ctx, "SELECT 1")
	assert.ErrorIs(t, err, ErrSessionClosed)
	_, err = session.Preview(ctx, "t", 5)
	assert.ErrorIs(t, err, ErrSessionClosed)
	_, err = session.ExportResult(FormatCSV, NewExportOptions())
	assert.ErrorIs(t, err, ErrSessionClosed)
	assert.ErrorIs(t, session.Reset(ctx), ErrSessionClosed)
}
