package dataquery

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	_ "github.com/duckdb/duckdb-go/v2"
)

// Session owns one in-memory analytical database, the catalog of tables
// loaded into it, and the current query result. A Session is not safe for
// concurrent use; each logical user session must own its own Session.
type Session struct {
	db       *sql.DB
	logger   *slog.Logger
	catalog  *Catalog
	pipeline *Pipeline
	executor *Executor
	exporter *Exporter

	uploads []string
	result  *QueryResult
	edited  *QueryResult
	closed  bool
}

// SessionOption configures a Session at construction.
type SessionOption func(*Session)

// WithLogger sets the logger used by the session and its components.
func WithLogger(logger *slog.Logger) SessionOption {
	return func(s *Session) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// NewSession opens an in-memory engine and an empty catalog.
func NewSession(ctx context.Context, opts ...SessionOption) (*Session, error) {
	s := &Session{logger: slog.Default()}
	for _, opt := range opts {
		opt(s)
	}

	db, err := sql.Open("duckdb", "")
	if err != nil {
		return nil, fmt.Errorf("cannot open engine: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("cannot reach engine: %w", err)
	}

	s.db = db
	s.catalog = NewCatalog(db, s.logger)
	s.pipeline = NewPipeline(s.catalog, s.logger)
	s.executor = NewExecutor(db, s.logger)
	s.exporter = NewExporter()
	return s, nil
}

// UpdateUploads reconciles the catalog with a new upload list: sources that
// disappeared from the list are retracted with their tables, new files are
// ingested, files already loaded are left alone. The report carries the
// loaded, excluded and removed messages of the pass.
func (s *Session) UpdateUploads(ctx context.Context, files []SourceFile, optsFor OptionsFunc) (*IngestReport, error) {
	if s.closed {
		return nil, ErrSessionClosed
	}

	current := make([]string, 0, len(files))
	seen := map[string]bool{}
	for _, file := range files {
		if !seen[file.Name] {
			seen[file.Name] = true
			current = append(current, file.Name)
		}
	}

	removed := s.pipeline.RemoveWithdrawn(ctx, s.uploads, current)
	report := s.pipeline.Ingest(ctx, files, optsFor)
	report.Removed = removed
	s.uploads = current
	return report, nil
}

// Tables returns the catalog entries in registration order.
func (s *Session) Tables() []CatalogEntry {
	return s.catalog.List()
}

// Query runs one SQL statement and makes its output the current result,
// discarding any pending edit.
func (s *Session) Query(ctx context.Context, query string) (*QueryResult, error) {
	if s.closed {
		return nil, ErrSessionClosed
	}
	result, err := s.executor.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	s.result = result
	s.edited = nil
	return result, nil
}

// Preview returns the first n rows of a registered table without touching
// the current result. n defaults to 5.
func (s *Session) Preview(ctx context.Context, table string, n int) (*QueryResult, error) {
	if s.closed {
		return nil, ErrSessionClosed
	}
	if n <= 0 {
		n = 5
	}
	return s.executor.Query(ctx, fmt.Sprintf("SELECT * FROM %s LIMIT %d", quoteIdent(table), n))
}

// CurrentResult returns the edited result when one is pending, otherwise the
// last query result. Nil when no query has run.
func (s *Session) CurrentResult() *QueryResult {
	if s.edited != nil {
		return s.edited
	}
	return s.result
}

// ApplyEdit replaces the rows of the current result with an edited copy.
// The edit may change rows but never columns.
func (s *Session) ApplyEdit(edited *QueryResult) error {
	if s.result == nil {
		return ErrNoResult
	}
	if edited == nil || len(edited.Columns) != len(s.result.Columns) {
		return ErrColumnsChanged
	}
	for i, column := range s.result.Columns {
		if edited.Columns[i] != column {
			return ErrColumnsChanged
		}
	}
	s.edited = edited
	return nil
}

// ExportResult renders the current result, edited copy included, in the
// requested format.
func (s *Session) ExportResult(format FileFormat, opts ExportOptions) ([]byte, error) {
	if s.closed {
		return nil, ErrSessionClosed
	}
	result := s.CurrentResult()
	if result == nil {
		return nil, ErrNoResult
	}
	return s.exporter.Export(result, format, opts)
}

// Reset drops every registered table and clears the upload list and results.
// The engine connection stays open.
func (s *Session) Reset(ctx context.Context) error {
	if s.closed {
		return ErrSessionClosed
	}
	for _, entry := range s.catalog.List() {
		s.catalog.Retract(ctx, entry.Table)
	}
	s.uploads = nil
	s.result = nil
	s.edited = nil
	return nil
}

// Close releases the engine. The session cannot be used afterwards.
func (s *Session) Close() error {
	if s.closed {
		return nil
	}
	s.closed = true
	return s.db.Close()
}
