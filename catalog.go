package dataquery

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"strings"
)

// CatalogEntry describes one registered table.
type CatalogEntry struct {
	// Table is the engine table name.
	Table string
	// Source is the name of the uploaded file the table came from. For an
	// archive member this is the archive name.
	Source string
	// Sheet is the workbook sheet the table came from, empty otherwise.
	Sheet string
	// Columns are the table's column names in order.
	Columns []string
	// RowCount is the number of data rows registered.
	RowCount int
}

// Catalog tracks the tables registered in the engine and owns their
// lifecycle. Entries keep insertion order so listings are stable.
type Catalog struct {
	db      *sql.DB
	logger  *slog.Logger
	entries map[string]CatalogEntry
	order   []string
}

// NewCatalog creates an empty catalog over an open engine connection.
func NewCatalog(db *sql.DB, logger *slog.Logger) *Catalog {
	if logger == nil {
		logger = slog.Default()
	}
	return &Catalog{
		db:      db,
		logger:  logger,
		entries: map[string]CatalogEntry{},
	}
}

// Register loads the dataset into a hidden base table and exposes the
// requested name as a view over it, so user SQL cannot mutate ingested data:
// an UPDATE or DELETE against the view fails in the engine with its
// base-table-only message. When the name is already taken the next free
// numeric suffix is used; the chosen name is returned. Empty values in
// non-text columns load as NULL.
func (c *Catalog) Register(ctx context.Context, name, source, sheet string, tbl *table) (string, error) {
	name = c.uniqueName(name)
	backing := backingName(name)

	columnDefs := make([]string, len(tbl.columnInfo))
	for i, info := range tbl.columnInfo {
		columnDefs[i] = fmt.Sprintf("%s %s", quoteIdent(info.Name), info.Type.sqlType())
	}
	createSQL := fmt.Sprintf("CREATE TABLE %s (%s)", quoteIdent(backing), strings.Join(columnDefs, ", "))
	if _, err := c.db.ExecContext(ctx, createSQL); err != nil {
		return "", fmt.Errorf("cannot create table %s: %w", backing, err)
	}
	dropBacking := func() {
		if _, dropErr := c.db.ExecContext(ctx, "DROP TABLE IF EXISTS "+quoteIdent(backing)); dropErr != nil {
			c.logger.Warn("cannot drop partly loaded table", "table", backing, "error", dropErr)
		}
	}

	if err := c.insertRecords(ctx, backing, tbl); err != nil {
		dropBacking()
		return "", err
	}

	viewSQL := fmt.Sprintf("CREATE VIEW %s AS SELECT * FROM %s", quoteIdent(name), quoteIdent(backing))
	if _, err := c.db.ExecContext(ctx, viewSQL); err != nil {
		dropBacking()
		return "", fmt.Errorf("cannot create view %s: %w", name, err)
	}

	c.entries[name] = CatalogEntry{
		Table:    name,
		Source:   source,
		Sheet:    sheet,
		Columns:  append([]string(nil), tbl.header...),
		RowCount: len(tbl.records),
	}
	c.order = append(c.order, name)
	c.logger.Info("registered table", "table", name, "source", source, "rows", len(tbl.records))
	return name, nil
}

// insertRecords loads all records through one prepared statement inside a
// transaction.
func (c *Catalog) insertRecords(ctx context.Context, name string, tbl *table) error {
	if len(tbl.records) == 0 {
		return nil
	}

	placeholders := make([]string, len(tbl.columnInfo))
	for i := range placeholders {
		placeholders[i] = "?"
	}
	insertSQL := fmt.Sprintf("INSERT INTO %s VALUES (%s)",
		quoteIdent(name), strings.Join(placeholders, ", "))

	tx, err := c.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("cannot begin load transaction: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, insertSQL)
	if err != nil {
		return fmt.Errorf("cannot prepare insert for %s: %w", name, err)
	}
	defer stmt.Close()

	args := make([]any, len(tbl.columnInfo))
	for _, record := range tbl.records {
		for i, info := range tbl.columnInfo {
			value := ""
			if i < len(record) {
				value = record[i]
			}
			if value == "" && info.Type != columnTypeText {
				args[i] = nil
			} else {
				args[i] = value
			}
		}
		if _, err := stmt.ExecContext(ctx, args...); err != nil {
			return fmt.Errorf("cannot load row into %s: %w", name, err)
		}
	}
	return tx.Commit()
}

// Retract drops a table's view and its backing table and forgets the entry.
// The entry is removed even when a drop fails, so a relation deleted through
// SQL does not wedge the catalog; the failure is logged.
func (c *Catalog) Retract(ctx context.Context, name string) {
	if _, ok := c.entries[name]; !ok {
		return
	}
	if _, err := c.db.ExecContext(ctx, "DROP VIEW IF EXISTS "+quoteIdent(name)); err != nil {
		c.logger.Warn("cannot drop view", "view", name, "error", err)
	}
	if _, err := c.db.ExecContext(ctx, "DROP TABLE IF EXISTS "+quoteIdent(backingName(name))); err != nil {
		c.logger.Warn("cannot drop table", "table", backingName(name), "error", err)
	}
	delete(c.entries, name)
	for i, n := range c.order {
		if n == name {
			c.order = append(c.order[:i], c.order[i+1:]...)
			break
		}
	}
}

// RetractBySource drops every table registered from the given source file and
// returns their names in catalog order.
func (c *Catalog) RetractBySource(ctx context.Context, source string) []string {
	var dropped []string
	for _, name := range append([]string(nil), c.order...) {
		if c.entries[name].Source == source {
			c.Retract(ctx, name)
			dropped = append(dropped, name)
		}
	}
	return dropped
}

// List returns the catalog entries in registration order.
func (c *Catalog) List() []CatalogEntry {
	entries := make([]CatalogEntry, 0, len(c.order))
	for _, name := range c.order {
		entries = append(entries, c.entries[name])
	}
	return entries
}

// Lookup returns the entry for a table name.
func (c *Catalog) Lookup(name string) (CatalogEntry, bool) {
	entry, ok := c.entries[name]
	return entry, ok
}

// HasSource reports whether any entry came from the given source file.
func (c *Catalog) HasSource(source string) bool {
	for _, entry := range c.entries {
		if entry.Source == source {
			return true
		}
	}
	return false
}

// uniqueName resolves a name collision by appending the next free numeric
// suffix and re-sanitizing, so the result keeps the no-trailing-digit
// convention: orders, orders_2_, orders_3_.
func (c *Catalog) uniqueName(name string) string {
	if _, taken := c.entries[name]; !taken {
		return name
	}
	for i := 2; ; i++ {
		candidate := SanitizeIdentifier(fmt.Sprintf("%s_%d", name, i))
		if _, taken := c.entries[candidate]; !taken {
			return candidate
		}
	}
}

// backingName returns the hidden base table name behind a catalog view.
func backingName(name string) string {
	return name + "__rows"
}

// quoteIdent quotes an identifier for the engine, escaping embedded quotes.
func quoteIdent(name string) string {
	return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
}
