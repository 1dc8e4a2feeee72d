// Package pipeline runs a staged spreadsheet import into the snapshot store.
package pipeline

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/TobiSchelling/mediadash/internal/asset"
	"github.com/TobiSchelling/mediadash/internal/database"
)

// StepResult holds the result of a single pipeline step.
type StepResult struct {
	Name    string
	Summary string
	Err     error
}

// Result holds the results of an import run.
type Result struct {
	Source   string
	ImportID int64
	// Unchanged is set when an identical file was already imported.
	Unchanged bool
	Records   []asset.Record
	Steps     []StepResult
}

// Err returns the first step error, if any.
func (r *Result) Err() error {
	for _, s := range r.Steps {
		if s.Err != nil {
			return s.Err
		}
	}
	return nil
}

// Pipeline imports spreadsheets: read -> clean -> store.
type Pipeline struct {
	db    *database.DB
	sheet string
}

// New creates a new pipeline. sheet selects the worksheet; empty uses the
// first one.
func New(db *database.DB, sheet string) *Pipeline {
	return &Pipeline{db: db, sheet: sheet}
}

// Run executes the import. Unless force is set, a file whose checksum
// matches an earlier import is not stored again.
func (p *Pipeline) Run(path string, force bool) *Result {
	r := &Result{Source: path}

	// Step 1: Read
	table, checksum, step := p.runRead(path)
	r.Steps = append(r.Steps, step)
	if step.Err != nil {
		return r
	}

	// Step 2: Clean
	records, report, step := p.runClean(path, table)
	r.Steps = append(r.Steps, step)
	if step.Err != nil {
		return r
	}
	r.Records = records

	// Step 3: Store
	if !force {
		prev, err := p.db.FindImportByChecksum(checksum)
		if err != nil {
			r.Steps = append(r.Steps, StepResult{Name: "Store", Err: fmt.Errorf("checking previous imports: %w", err)})
			return r
		}
		if prev != nil {
			r.ImportID = prev.ID
			r.Unchanged = true
			r.Steps = append(r.Steps, StepResult{
				Name:    "Store",
				Summary: fmt.Sprintf("Unchanged since import %d, skipped (use --force to store again)", prev.ID),
			})
			return r
		}
	}
	r.ImportID, step = p.runStore(path, checksum, report, records)
	r.Steps = append(r.Steps, step)
	return r
}

// DryRun reads and cleans without storing anything.
func (p *Pipeline) DryRun(path string) *Result {
	r := &Result{Source: path}

	table, checksum, step := p.runRead(path)
	r.Steps = append(r.Steps, step)
	if step.Err != nil {
		return r
	}

	records, _, step := p.runClean(path, table)
	r.Steps = append(r.Steps, step)
	if step.Err != nil {
		return r
	}
	r.Records = records

	prev, _ := p.db.FindImportByChecksum(checksum)
	if prev != nil {
		r.Unchanged = true
		r.ImportID = prev.ID
		r.Steps = append(r.Steps, StepResult{
			Name:    "Store",
			Summary: fmt.Sprintf("[dry-run] Identical to import %d", prev.ID),
		})
	} else {
		r.Steps = append(r.Steps, StepResult{
			Name:    "Store",
			Summary: fmt.Sprintf("[dry-run] Would store %d records", len(records)),
		})
	}
	return r
}

func (p *Pipeline) runRead(path string) (asset.Table, string, StepResult) {
	slog.Info("Step 1/3: reading spreadsheet", "path", path)
	checksum, err := fileChecksum(path)
	if err != nil {
		return asset.Table{}, "", StepResult{Name: "Read", Err: &asset.IngestError{Source: path, Err: err}}
	}
	table, err := asset.ReadFile(path, p.sheet)
	if err != nil {
		return asset.Table{}, "", StepResult{Name: "Read", Err: err}
	}
	return table, checksum, StepResult{
		Name:    "Read",
		Summary: fmt.Sprintf("Read %d rows, %d columns", len(table.Rows), len(table.Header)),
	}
}

func (p *Pipeline) runClean(path string, table asset.Table) ([]asset.Record, *asset.LoadReport, StepResult) {
	slog.Info("Step 2/3: cleaning rows")
	records, report, err := asset.Load(table)
	if err != nil {
		var ie *asset.IngestError
		if errors.As(err, &ie) && ie.Source == "" {
			ie.Source = path
		}
		return nil, nil, StepResult{Name: "Clean", Err: err}
	}
	return records, report, StepResult{
		Name: "Clean",
		Summary: fmt.Sprintf("Kept %d of %d rows (%d missing metrics, %d empty assets)",
			report.RowsKept, report.RowsRead, report.DroppedMissing, report.DroppedEmptyRef),
	}
}

func (p *Pipeline) runStore(path, checksum string, report *asset.LoadReport, records []asset.Record) (int64, StepResult) {
	slog.Info("Step 3/3: storing snapshot", "records", len(records))
	id, err := p.db.InsertImport(database.Import{
		SourcePath:  path,
		Sheet:       p.sheet,
		Checksum:    checksum,
		RowsRead:    report.RowsRead,
		RowsDropped: report.Dropped(),
	}, records)
	if err != nil {
		return 0, StepResult{Name: "Store", Err: err}
	}
	return id, StepResult{
		Name:    "Store",
		Summary: fmt.Sprintf("Stored import %d with %d records", id, len(records)),
	}
}

func fileChecksum(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()

	h := sha256.New()
	if _, err := io.Copy(h, f); err != nil {
		return "", err
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}
