package dataquery

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
)

// SourceFile is one uploaded file: a display name and its raw bytes.
type SourceFile struct {
	Name string
	Data []byte
}

// UnitLabel identifies one loadable unit for user-facing messages: a plain
// file, or a member inside an archive.
type UnitLabel struct {
	Archive string
	File    string
}

func (u UnitLabel) String() string {
	if u.Archive != "" {
		return u.Archive + " - " + u.File
	}
	return u.File
}

// OptionsFunc supplies load options for one unit before it is parsed. For
// workbooks the sheet names are passed so per-sheet header flags can be
// chosen. A nil OptionsFunc means defaults everywhere.
type OptionsFunc func(unit UnitLabel, format FileFormat, sheets []string) LoadOptions

// IngestReport collects the outcome messages of one ingest pass.
type IngestReport struct {
	// Loaded has one message per unit that produced tables.
	Loaded []string
	// Excluded has one message per unit that could not be loaded.
	Excluded []string
	// Removed has one message per source retracted because it left the
	// upload list. Filled by Session.UpdateUploads.
	Removed []string
}

// Pipeline turns uploaded files into registered tables. Units are isolated:
// one bad file or archive member never blocks its siblings.
type Pipeline struct {
	catalog *Catalog
	logger  *slog.Logger
}

// NewPipeline creates a pipeline over a catalog.
func NewPipeline(catalog *Catalog, logger *slog.Logger) *Pipeline {
	if logger == nil {
		logger = slog.Default()
	}
	return &Pipeline{catalog: catalog, logger: logger}
}

// Ingest loads a batch of uploaded files. Files whose display name repeats in
// the batch load once, first wins; files already in the catalog are skipped
// so re-submitting the same upload list is idempotent. Zip archives expand
// into one unit per member.
func (p *Pipeline) Ingest(ctx context.Context, files []SourceFile, optsFor OptionsFunc) *IngestReport {
	report := &IngestReport{}
	seen := map[string]bool{}

	for _, file := range files {
		if seen[file.Name] {
			continue
		}
		seen[file.Name] = true
		if p.catalog.HasSource(file.Name) {
			continue
		}

		switch DetectFormat(file.Name) {
		case FormatZip:
			p.ingestArchive(ctx, file, optsFor, report)
		case FormatUnsupported:
			report.Excluded = append(report.Excluded,
				fmt.Sprintf("%s not loaded. Unsupported file format", file.Name))
		default:
			p.ingestUnit(ctx, UnitLabel{File: file.Name}, file.Name, file.Data, optsFor, report)
		}
	}
	return report
}

// ingestArchive expands a zip upload and loads each supported member as its
// own unit, attributed to the archive as source.
func (p *Pipeline) ingestArchive(ctx context.Context, file SourceFile, optsFor OptionsFunc, report *IngestReport) {
	members, err := ExpandArchive(file.Data)
	if err != nil {
		p.logger.Warn("cannot expand archive", "archive", file.Name, "error", err)
		report.Excluded = append(report.Excluded,
			fmt.Sprintf("Error loading file %s: %v", file.Name, err))
		return
	}

	seen := map[string]bool{}
	for _, member := range members {
		if seen[member.Name] {
			continue
		}
		seen[member.Name] = true

		unit := UnitLabel{Archive: file.Name, File: member.Name}
		if !isSupportedMember(member.Name) {
			report.Excluded = append(report.Excluded,
				fmt.Sprintf("%s not loaded. Unsupported file format", unit))
			continue
		}
		p.ingestUnit(ctx, unit, file.Name, member.Data, optsFor, report)
	}
}

// ingestUnit parses one unit and registers its tables. Parse failures the
// user can fix by adjusting options report as "check file settings"; anything
// else reports the underlying error.
func (p *Pipeline) ingestUnit(ctx context.Context, unit UnitLabel, source string, data []byte, optsFor OptionsFunc, report *IngestReport) {
	baseName, compression := stripCompression(unit.File)
	format := DetectFormat(unit.File)

	payload, err := decompress(data, compression)
	if err != nil {
		p.logger.Warn("cannot decompress unit", "unit", unit.String(), "error", err)
		report.Excluded = append(report.Excluded,
			fmt.Sprintf("Error loading file %s: %v", unit, err))
		return
	}

	opts := NewLoadOptions()
	if optsFor != nil {
		var sheets []string
		if format == FormatXLSX {
			if sheets, err = listSheets(payload); err != nil {
				p.logger.Warn("cannot list sheets", "unit", unit.String(), "error", err)
				report.Excluded = append(report.Excluded,
					fmt.Sprintf("%s not loaded. Please check file settings.", unit))
				return
			}
		}
		opts = optsFor(unit, format, sheets)
	}

	reader, ok := formatReaders[format]
	if !ok {
		report.Excluded = append(report.Excluded,
			fmt.Sprintf("%s not loaded. Unsupported file format", unit))
		return
	}

	tables, err := reader(payload, opts)
	if err != nil {
		p.logger.Warn("cannot parse unit", "unit", unit.String(), "format", format, "error", err)
		if isSettingsError(err) {
			report.Excluded = append(report.Excluded,
				fmt.Sprintf("%s not loaded. Please check file settings.", unit))
		} else {
			report.Excluded = append(report.Excluded,
				fmt.Sprintf("Error loading file %s: %v", unit, err))
		}
		return
	}

	var registered []string
	for i, st := range tables {
		name := unitTableName(unit.Archive, baseName, st.sheet, i)
		chosen, err := p.catalog.Register(ctx, name, source, st.sheet, st.table)
		if err != nil {
			p.logger.Warn("cannot register table", "unit", unit.String(), "table", name, "error", err)
			report.Excluded = append(report.Excluded,
				fmt.Sprintf("Error loading file %s: %v", unit, err))
			continue
		}
		registered = append(registered, chosen)
	}
	if len(registered) > 0 {
		report.Loaded = append(report.Loaded,
			fmt.Sprintf("Loaded %s as table(s): %s", unit, strings.Join(registered, ", ")))
	}
}

// isSettingsError reports whether a parse failure is one the user can fix by
// changing the load settings.
func isSettingsError(err error) bool {
	return errors.Is(err, ErrMalformedText) ||
		errors.Is(err, ErrDuplicateColumnName) ||
		errors.Is(err, ErrEmptyData)
}

// unitTableName composes the table name for one dataset of a unit from the
// archive, file and sheet labels, each sanitized independently and joined
// with underscores. Dots map to underscores, so a.csv labels as a_csv.
func unitTableName(archive, baseName, sheet string, index int) string {
	name := tableLabel(baseName)
	if name == "" {
		name = "table"
	}
	if archiveLabel := tableLabel(archive); archiveLabel != "" {
		name = archiveLabel + "_" + name
	}
	if sheet == "" {
		return name
	}
	sheetLabel := tableLabel(sheet)
	if sheetLabel == "" {
		sheetLabel = fmt.Sprintf("%d", index+1)
	}
	return name + "_" + sheetLabel
}

// RemoveWithdrawn retracts every source that was in the previous upload list
// but is missing from the current one. It returns one message per removed
// source.
func (p *Pipeline) RemoveWithdrawn(ctx context.Context, previous, current []string) []string {
	currentSet := map[string]bool{}
	for _, name := range current {
		currentSet[name] = true
	}

	var messages []string
	for _, name := range previous {
		if currentSet[name] {
			continue
		}
		if dropped := p.catalog.RetractBySource(ctx, name); len(dropped) > 0 {
			p.logger.Info("removed source", "source", name, "tables", dropped)
		}
		messages = append(messages, fmt.Sprintf("Removed file: %s and its associated tables", name))
	}
	return messages
}
