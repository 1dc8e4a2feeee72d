package pipeline

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/TobiSchelling/mediadash/internal/asset"
	"github.com/TobiSchelling/mediadash/internal/database"
)

const sampleCSV = "Asset,Asset type,Performance,Clicks,CTR,Impr.,Cost,Installs\n" +
	"https://youtu.be/a,Video,Best,10,0.1,100,20,4\n" +
	"Banner text,Text,Low,bad,0.1,100,20,4\n" +
	"https://example.com/p.jpg,Image,Good,3,0.03,100,9,0\n"

func openTestDB(t *testing.T) *database.DB {
	t.Helper()
	db, err := database.Open(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("failed to open test db: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func writeCSV(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write csv: %v", err)
	}
	return path
}

func TestRunStoresImport(t *testing.T) {
	db := openTestDB(t)
	path := writeCSV(t, "videos.csv", sampleCSV)

	result := New(db, "").Run(path, false)
	if err := result.Err(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(result.Steps) != 3 {
		t.Fatalf("expected 3 steps, got %d", len(result.Steps))
	}
	if result.ImportID == 0 || result.Unchanged {
		t.Errorf("expected a new import, got %+v", result)
	}
	if !strings.Contains(result.Steps[1].Summary, "Kept 2 of 3 rows") {
		t.Errorf("unexpected clean summary: %q", result.Steps[1].Summary)
	}

	imp, _ := db.GetImport(result.ImportID)
	if imp == nil || imp.RowsKept != 2 || imp.RowsDropped != 1 || imp.Checksum == "" {
		t.Errorf("unexpected stored import: %+v", imp)
	}
	records, _ := db.GetAssets(result.ImportID)
	if len(records) != 2 || records[1].CostPerInstall != 9 {
		t.Errorf("unexpected stored records: %+v", records)
	}
}

func TestRunSkipsUnchangedFile(t *testing.T) {
	db := openTestDB(t)
	path := writeCSV(t, "videos.csv", sampleCSV)
	p := New(db, "")

	first := p.Run(path, false)
	second := p.Run(path, false)
	if !second.Unchanged || second.ImportID != first.ImportID {
		t.Errorf("expected second run to reuse import %d, got %+v", first.ImportID, second)
	}
	if len(second.Records) != 2 {
		t.Errorf("an unchanged run still returns the cleaned records, got %d", len(second.Records))
	}

	forced := p.Run(path, true)
	if forced.Unchanged || forced.ImportID == first.ImportID {
		t.Errorf("expected forced run to store again, got %+v", forced)
	}
}

func TestRunIngestFailure(t *testing.T) {
	db := openTestDB(t)
	result := New(db, "").Run(filepath.Join(t.TempDir(), "missing.xlsx"), false)

	var ie *asset.IngestError
	if !errors.As(result.Err(), &ie) {
		t.Fatalf("expected IngestError, got %v", result.Err())
	}
	if len(result.Steps) != 1 {
		t.Errorf("expected the run to stop after Read, got %d steps", len(result.Steps))
	}
	if stats, _ := db.GetStats(); stats.Imports != 0 {
		t.Error("nothing should be stored on ingest failure")
	}
}

func TestRunMissingColumn(t *testing.T) {
	db := openTestDB(t)
	path := writeCSV(t, "partial.csv", "Asset,Clicks\nx,1\n")

	result := New(db, "").Run(path, false)
	var ie *asset.IngestError
	if !errors.As(result.Err(), &ie) || ie.Source != path {
		t.Fatalf("expected IngestError for %s, got %v", path, result.Err())
	}
}

func TestDryRun(t *testing.T) {
	db := openTestDB(t)
	path := writeCSV(t, "videos.csv", sampleCSV)

	result := New(db, "").DryRun(path)
	if err := result.Err(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.HasPrefix(result.Steps[2].Summary, "[dry-run] Would store 2 records") {
		t.Errorf("unexpected dry-run summary: %q", result.Steps[2].Summary)
	}
	if stats, _ := db.GetStats(); stats.Imports != 0 {
		t.Error("dry run must not store anything")
	}
}
